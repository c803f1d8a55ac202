package round

import (
	"errors"

	"github.com/mcdev12/bingosync/go/internal/bingo/animation"
	"github.com/mcdev12/bingosync/go/internal/events"
	"github.com/rs/zerolog/log"
)

// startAnimationLocked builds a driver for the selected round, catches up to
// the current position synchronously and then lets the driver tick. It
// returns false when the round lacks the data to animate.
func (e *Engine) startAnimationLocked() bool {
	r := e.round
	if r.DrawStartedAt == nil || !r.HasSequence() {
		return false
	}
	e.stopDriverLocked()
	e.driverSeq++
	seq := e.driverSeq

	d, err := animation.New(animation.Config{
		RoundID:       r.RoundID,
		DrawStartedAt: *r.DrawStartedAt,
		Sequence:      r.BallSequence,
		LinePos:       r.LineWinnerBallPosition,
		BingoPos:      r.BingoWinnerBallPosition,
		Timing:        e.timing,
		TickInterval:  e.tick,
		Clock:         e.clock,
		ClockOffset:   e.offset,
	}, animation.SinkFunc(func(ev animation.Event) {
		e.handleDriverEvent(seq, ev)
	}))
	if err != nil {
		if !errors.Is(err, animation.ErrInsufficientData) {
			log.Warn().Err(err).Int64("round_id", r.RoundID).Msg("cannot animate round")
		}
		return false
	}

	e.driver = d
	log.Info().
		Int64("round_id", r.RoundID).
		Dur("clock_offset", e.offset).
		Msg("starting draw animation")

	e.catchingUp = true
	for _, ev := range d.Tick(e.clock.Now()) {
		e.applyAnimationEventLocked(ev)
	}
	e.catchingUp = false
	if e.driver == d && !d.Finished() {
		d.Start(e.ctx)
	}
	return true
}

func (e *Engine) stopDriverLocked() {
	if e.driver != nil {
		e.driver.Stop()
		e.driver = nil
	}
}

// handleDriverEvent applies events from the driver identified by seq. Events
// from a replaced or stopped driver are dropped.
func (e *Engine) handleDriverEvent(seq uint64, ev animation.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.driver == nil || seq != e.driverSeq {
		return
	}
	e.applyAnimationEventLocked(ev)
}

func (e *Engine) applyAnimationEventLocked(ev animation.Event) {
	if e.round == nil || ev.RoundID != e.round.RoundID {
		return
	}
	switch ev.Type {
	case animation.EventReveal:
		if ev.Revealed <= len(e.revealed) || ev.Index >= len(e.round.BallSequence) {
			return
		}
		e.revealed = append(e.revealed, e.round.BallSequence[len(e.revealed):ev.Revealed]...)
		if ev.Index > e.index {
			e.index = ev.Index
		}
		e.emitLocked(events.TypeBallRevealed, events.BallRevealedPayload{
			Index:    ev.Index,
			Ball:     ev.Ball,
			Revealed: len(e.revealed),
		})

	case animation.EventPhaseChanged:
		e.index = ev.Index
		e.phase = ev.Phase
		e.emitLocked(events.TypePhaseChanged, events.PhaseChangedPayload{
			Phase:    string(ev.Phase),
			Index:    ev.Index,
			Revealed: len(e.revealed),
		})
		if s, ok := stateForPhase(ev.Phase); ok {
			e.setStateLocked(s)
		}

	case animation.EventFinished:
		e.index = ev.Index
		e.phase = ev.Phase
		// a draw that was already over when the driver started was never shown
		e.enterResolvedLocked(!e.catchingUp)
	}
}
