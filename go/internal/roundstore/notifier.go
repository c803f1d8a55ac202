package roundstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

type NotifierConfig struct {
	DatabaseURL      string        // Postgres DSN for LISTEN/NOTIFY
	NotifyChannel    string        // Channel name to LISTEN on
	FallbackInterval time.Duration // How often to wake without a notification
	PingInterval     time.Duration
}

func DefaultNotifierConfig() NotifierConfig {
	return NotifierConfig{
		NotifyChannel:    "round_updates",
		FallbackInterval: 30 * time.Second,
		PingInterval:     90 * time.Second,
	}
}

// Waker is anything with an immediate-refresh trigger.
type Waker interface {
	Wake()
}

// WakeFunc adapts a function to Waker.
type WakeFunc func()

func (f WakeFunc) Wake() { f() }

// Notifier wakes the snapshot and lobby pollers when the indexer reports a
// round change, and on a slow fallback ticker in case notifications are lost.
type Notifier struct {
	listener *pq.Listener
	cfg      NotifierConfig
	clock    clockwork.Clock
	wakers   []Waker
}

func NewNotifier(cfg NotifierConfig, clock clockwork.Clock, wakers ...Waker) (*Notifier, error) {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	l := pq.NewListener(
		cfg.DatabaseURL,
		10*time.Second,
		time.Minute,
		func(ev pq.ListenerEventType, err error) {
			if err != nil {
				log.Error().Err(err).Msg("listener event")
			}
		},
	)
	if err := l.Listen(cfg.NotifyChannel); err != nil {
		_ = l.Close()
		return nil, fmt.Errorf("failed to listen to channel: %w", err)
	}

	log.Info().Str("channel", cfg.NotifyChannel).Msg("listening for round notifications")
	return &Notifier{listener: l, cfg: cfg, clock: clock, wakers: wakers}, nil
}

// Run forwards notifications until ctx is done.
func (n *Notifier) Run(ctx context.Context) error {
	pingTicker := n.clock.NewTicker(n.cfg.PingInterval)
	fallbackTicker := n.clock.NewTicker(n.cfg.FallbackInterval)
	defer pingTicker.Stop()
	defer fallbackTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("notifier shutting down")
			return n.listener.Close()
		case note := <-n.listener.Notify:
			if note == nil {
				// connection was re-established; anything may have been missed
				n.wake()
				continue
			}
			if roundID, ok := parseNotification(note.Extra); ok {
				log.Debug().Int64("round_id", roundID).Msg("round update notification")
			}
			n.wake()
		case <-fallbackTicker.Chan():
			n.wake()
		case <-pingTicker.Chan():
			if err := n.listener.Ping(); err != nil {
				log.Error().Err(err).Msg("failed to ping listener")
			}
		}
	}
}

func (n *Notifier) wake() {
	for _, w := range n.wakers {
		w.Wake()
	}
}

// parseNotification reads the round id from a payload that is either the
// bare id or {"round_id": id}.
func parseNotification(payload string) (int64, bool) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return 0, false
	}
	if id, err := strconv.ParseInt(payload, 10, 64); err == nil {
		return id, true
	}
	var body struct {
		RoundID int64 `json:"round_id"`
	}
	if err := json.Unmarshal([]byte(payload), &body); err != nil || body.RoundID == 0 {
		return 0, false
	}
	return body.RoundID, true
}
