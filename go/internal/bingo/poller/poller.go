// Package poller keeps the selected round fresh by fetching its snapshot on a
// fixed interval and handing every result to the round engine.
package poller

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/bingosync/go/internal/bingo/round"
	"github.com/mcdev12/bingosync/go/internal/models"
	"github.com/rs/zerolog/log"
)

const (
	DefaultInterval = time.Second
	defaultTimeout  = 5 * time.Second
)

// Source fetches one round snapshot.
type Source interface {
	FetchSnapshot(ctx context.Context, roundID int64) (models.RoundSnapshot, error)
}

// Poller watches at most one round at a time.
type Poller struct {
	source     Source
	clock      clockwork.Clock
	interval   time.Duration
	timeout    time.Duration
	wakeCh     chan struct{}
	instanceID string

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	seq      uint64
	roundID  int64
	stopLoop context.CancelFunc
}

func New(source Source, clock clockwork.Clock, interval time.Duration) *Poller {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Poller{
		source:     source,
		clock:      clock,
		interval:   interval,
		timeout:    defaultTimeout,
		wakeCh:     make(chan struct{}, 1),
		instanceID: uuid.New().String()[:8],
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Watch starts polling roundID and cancels any previous watch, including its
// in-flight request. It returns without waiting for either loop.
func (p *Poller) Watch(roundID int64, h round.SnapshotHandler) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopLoop != nil {
		p.stopLoop()
	}
	p.seq++
	p.roundID = roundID
	ctx, cancel := context.WithCancel(p.ctx)
	p.stopLoop = cancel

	log.Info().
		Int64("round_id", roundID).
		Dur("interval", p.interval).
		Str("instance", p.instanceID).
		Msg("watching round")
	go p.loop(ctx, p.seq, roundID, h)
}

// Stop ends the current watch without waiting for it.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopLoop != nil {
		p.stopLoop()
		p.stopLoop = nil
		log.Debug().Int64("round_id", p.roundID).Str("instance", p.instanceID).Msg("stopped watching round")
	}
	p.roundID = 0
}

// Close stops the poller for good.
func (p *Poller) Close() {
	p.Stop()
	p.cancel()
}

// Wake triggers an immediate poll of the watched round.
func (p *Poller) Wake() {
	select {
	case p.wakeCh <- struct{}{}:
	default:
	}
}

// Watching returns the watched round id.
func (p *Poller) Watching() (int64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.roundID, p.stopLoop != nil
}

func (p *Poller) current(seq uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.seq == seq && p.stopLoop != nil
}

func (p *Poller) loop(ctx context.Context, seq uint64, roundID int64, h round.SnapshotHandler) {
	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		p.poll(ctx, seq, roundID, h)

		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
		case <-p.wakeCh:
			log.Debug().Int64("round_id", roundID).Msg("poller woken")
		}
	}
}

func (p *Poller) poll(ctx context.Context, seq uint64, roundID int64, h round.SnapshotHandler) {
	reqCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	snap, err := p.source.FetchSnapshot(reqCtx, roundID)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		ev := log.Warn()
		if errors.Is(err, models.ErrRoundNotFound) {
			ev = log.Error()
		}
		ev.Err(err).Int64("round_id", roundID).Str("instance", p.instanceID).Msg("snapshot poll failed")
		return
	}
	if snap.RoundID != roundID {
		log.Debug().
			Int64("round_id", roundID).
			Int64("got", snap.RoundID).
			Msg("discarding snapshot for another round")
		return
	}
	if ctx.Err() != nil || !p.current(seq) {
		return
	}
	h.ApplySnapshot(snap)
}
