// Package animation turns the round timeline into ordered reveal, pause and
// finish events on a periodic tick.
package animation

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/bingosync/go/internal/bingo/timeline"
	"github.com/rs/zerolog/log"
)

// DefaultTickInterval is how often the driver re-evaluates the timeline.
const DefaultTickInterval = time.Second

// ErrInsufficientData means the round does not carry enough facts to animate
// yet. Callers keep waiting rather than treating it as a failure.
var ErrInsufficientData = errors.New("insufficient data to start animation")

// EventType identifies a driver event.
type EventType string

const (
	EventReveal       EventType = "reveal"
	EventPhaseChanged EventType = "phase_changed"
	EventFinished     EventType = "finished"
)

// Event is emitted in order: reveals first, then the phase change, then the
// finish signal.
type Event struct {
	Type     EventType      `json:"type"`
	RoundID  int64          `json:"round_id"`
	Index    int            `json:"index"`
	Ball     int            `json:"ball,omitempty"`
	Phase    timeline.Phase `json:"phase"`
	Revealed int            `json:"revealed"`
}

// Sink receives driver events.
type Sink interface {
	HandleAnimationEvent(ev Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ev Event)

func (f SinkFunc) HandleAnimationEvent(ev Event) { f(ev) }

// Config describes the round to animate.
type Config struct {
	RoundID       int64
	DrawStartedAt time.Time
	Sequence      []int
	LinePos       int
	BingoPos      int
	Timing        timeline.Timing
	TickInterval  time.Duration
	Clock         clockwork.Clock
	// ClockOffset is server time minus local time, added to local now.
	ClockOffset time.Duration
}

// Driver ticks the timeline for one round.
type Driver struct {
	cfg  Config
	sink Sink

	mu       sync.Mutex
	revealed int
	last     timeline.Position
	started  bool
	finished bool
	cancel   context.CancelFunc

	done     chan struct{}
	doneOnce sync.Once
}

// New validates cfg and returns a stopped driver.
func New(cfg Config, sink Sink) (*Driver, error) {
	if cfg.DrawStartedAt.IsZero() || len(cfg.Sequence) == 0 {
		return nil, ErrInsufficientData
	}
	if err := timeline.Validate(cfg.LinePos, cfg.BingoPos, len(cfg.Sequence)); err != nil {
		return nil, err
	}
	if cfg.Timing.BallInterval <= 0 {
		cfg.Timing = timeline.DefaultTiming
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if sink == nil {
		sink = SinkFunc(func(Event) {})
	}
	return &Driver{cfg: cfg, sink: sink, done: make(chan struct{})}, nil
}

// Locate evaluates the timeline at now without recording anything.
func (d *Driver) Locate(now time.Time) timeline.Position {
	elapsed := now.Add(d.cfg.ClockOffset).Sub(d.cfg.DrawStartedAt)
	return d.cfg.Timing.Locate(elapsed, d.cfg.LinePos, d.cfg.BingoPos, len(d.cfg.Sequence))
}

// Tick evaluates the timeline at now and returns the events produced since
// the previous tick. The revealed prefix never shrinks and a position earlier
// than the last one (clock moved backwards) produces no phase change.
func (d *Driver) Tick(now time.Time) []Event {
	pos := d.Locate(now)

	d.mu.Lock()
	defer d.mu.Unlock()
	return d.advanceLocked(pos)
}

// FastForward jumps straight to the end of the draw.
func (d *Driver) FastForward() []Event {
	end := d.cfg.Timing.Duration(d.cfg.LinePos, d.cfg.BingoPos, len(d.cfg.Sequence))
	pos := d.cfg.Timing.Locate(end, d.cfg.LinePos, d.cfg.BingoPos, len(d.cfg.Sequence))

	d.mu.Lock()
	defer d.mu.Unlock()
	return d.advanceLocked(pos)
}

func (d *Driver) advanceLocked(pos timeline.Position) []Event {
	if d.finished {
		return nil
	}

	var events []Event
	total := len(d.cfg.Sequence)
	if n := pos.Revealed(total); n > d.revealed {
		for i := d.revealed; i < n; i++ {
			events = append(events, Event{
				Type:     EventReveal,
				RoundID:  d.cfg.RoundID,
				Index:    i,
				Ball:     d.cfg.Sequence[i],
				Phase:    pos.Phase,
				Revealed: i + 1,
			})
		}
		d.revealed = n
	}

	if !d.started || after(pos, d.last) {
		if !d.started || pos.Phase != d.last.Phase {
			events = append(events, Event{
				Type:     EventPhaseChanged,
				RoundID:  d.cfg.RoundID,
				Index:    pos.Index,
				Phase:    pos.Phase,
				Revealed: d.revealed,
			})
		}
		d.last = pos
		d.started = true
	}

	if d.last.Phase == timeline.PhaseDone {
		d.finished = true
		events = append(events, Event{
			Type:     EventFinished,
			RoundID:  d.cfg.RoundID,
			Index:    d.last.Index,
			Phase:    timeline.PhaseDone,
			Revealed: d.revealed,
		})
	}
	return events
}

// Start runs the driver in the background until it finishes, ctx is done or
// Stop is called.
func (d *Driver) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	d.mu.Lock()
	d.cancel = cancel
	d.mu.Unlock()
	go d.Run(ctx)
}

// Run ticks immediately and then every TickInterval until the draw is done.
func (d *Driver) Run(ctx context.Context) {
	log.Debug().
		Int64("round_id", d.cfg.RoundID).
		Dur("tick", d.cfg.TickInterval).
		Msg("animation driver started")

	defer d.doneOnce.Do(func() { close(d.done) })

	ticker := d.cfg.Clock.NewTicker(d.cfg.TickInterval)
	defer ticker.Stop()

	for {
		d.emit(ctx, d.Tick(d.cfg.Clock.Now()))
		if d.Finished() {
			log.Debug().Int64("round_id", d.cfg.RoundID).Msg("animation driver finished")
			return
		}

		select {
		case <-ctx.Done():
			log.Debug().Int64("round_id", d.cfg.RoundID).Msg("animation driver stopped")
			return
		case <-ticker.Chan():
		}
	}
}

// Stop cancels a started driver. It does not wait for the loop to exit, so it
// is safe to call while holding a lock the sink also takes.
func (d *Driver) Stop() {
	d.mu.Lock()
	cancel := d.cancel
	d.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Done is closed when Run returns.
func (d *Driver) Done() <-chan struct{} {
	return d.done
}

// Emit delivers events to the sink. Used by callers of FastForward.
func (d *Driver) Emit(events []Event) {
	d.emit(context.Background(), events)
}

func (d *Driver) emit(ctx context.Context, events []Event) {
	for _, ev := range events {
		if ctx.Err() != nil {
			return
		}
		d.sink.HandleAnimationEvent(ev)
	}
}

// Revealed is the number of balls revealed so far.
func (d *Driver) Revealed() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.revealed
}

// Position is the last recorded position.
func (d *Driver) Position() timeline.Position {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last
}

// Finished reports whether the done phase has been reached.
func (d *Driver) Finished() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.finished
}

// after orders positions by index, then by phase within the same ball.
func after(a, b timeline.Position) bool {
	if a.Index != b.Index {
		return a.Index > b.Index
	}
	return phaseRank(a.Phase) > phaseRank(b.Phase)
}

func phaseRank(p timeline.Phase) int {
	switch p {
	case timeline.PhaseDrawing:
		return 0
	case timeline.PhaseLinePause:
		return 1
	case timeline.PhaseBingoPause:
		return 2
	case timeline.PhaseDone:
		return 3
	default:
		return -1
	}
}
