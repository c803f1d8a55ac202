package round

import (
	"context"
	"errors"
	"time"

	"github.com/mcdev12/bingosync/go/internal/bingo/shuffle"
	"github.com/mcdev12/bingosync/go/internal/bingo/timeline"
	"github.com/mcdev12/bingosync/go/internal/events"
	"github.com/mcdev12/bingosync/go/internal/models"
	"github.com/rs/zerolog/log"
)

const archiveTimeout = 10 * time.Second

// ApplySnapshot folds a poll result into the engine. Snapshots for another
// round, invalid snapshots and status regressions are dropped.
func (e *Engine) ApplySnapshot(snap models.RoundSnapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.round == nil || snap.RoundID != e.round.RoundID {
		log.Debug().
			Int64("round_id", snap.RoundID).
			Int64("selected", e.roundIDLocked()).
			Msg("dropping snapshot for unselected round")
		return
	}
	if err := snap.Validate(); err != nil {
		log.Warn().Err(err).Int64("round_id", snap.RoundID).Msg("snapshot not ready")
		return
	}
	if snap.Status.Rank() < e.round.Status.Rank() {
		log.Debug().
			Int64("round_id", snap.RoundID).
			Str("status", string(snap.Status)).
			Str("known", string(e.round.Status)).
			Msg("dropping regressed snapshot")
		return
	}

	hadSequence := e.round.HasSequence()
	r := snap.Round
	if !r.HasSequence() && hadSequence {
		r.BallSequence = e.round.BallSequence
	}
	e.round = &r
	e.updateOffsetLocked(snap.ServerTime)
	if len(snap.Cards) > 0 {
		e.cards = mergeCards(e.cards, ownCards(snap.Cards, r.RoundID))
	}
	e.prepareSequenceLocked()

	switch {
	case e.state.awaitingDraw():
		e.advanceLocked()
	case e.state.Animating():
		// the animation decides when the round is resolved
	default:
		// browsing, buying, resolved and error only track facts
	}
}

// advanceLocked moves a waiting engine forward according to the round status.
func (e *Engine) advanceLocked() {
	if e.round == nil {
		return
	}
	switch e.round.Status {
	case models.RoundStatusClosed:
		if e.state == StateWaitingClose {
			e.setStateLocked(StateWaitingVrf)
		}
	case models.RoundStatusDrawing:
		if e.state.awaitingDraw() && !e.startAnimationLocked() {
			e.setStateLocked(StateWaitingVrf)
		}
	case models.RoundStatusResolved:
		if e.state.awaitingDraw() {
			e.resolveWithoutAnimationLocked()
		}
	}
}

func (e *Engine) updateOffsetLocked(serverTime *time.Time) {
	if serverTime == nil || serverTime.IsZero() {
		return
	}
	e.offset = serverTime.Sub(e.clock.Now())
}

// prepareSequenceLocked derives the draw order from the seed when only the seed
// is known, and checks the published order against the seed when both are.
func (e *Engine) prepareSequenceLocked() {
	r := e.round
	if r.Seed == "" {
		return
	}
	seed, err := shuffle.ParseSeed(r.Seed)
	if err != nil {
		log.Warn().Err(err).Int64("round_id", r.RoundID).Msg("unparseable round seed")
		return
	}
	if !r.HasSequence() {
		r.BallSequence = shuffle.Generate(seed)
		e.derived = true
		return
	}
	if e.derived {
		return
	}
	ok := shuffle.Verify(seed, r.BallSequence)
	e.verified = &ok
	if !ok {
		log.Warn().Int64("round_id", r.RoundID).Msg("ball sequence does not match seed")
	}
}

// resolveWithoutAnimationLocked shows the final reveal set directly.
func (e *Engine) resolveWithoutAnimationLocked() {
	r := e.round
	if r.HasSequence() {
		total := len(r.BallSequence)
		lp, bp := r.LineWinnerBallPosition, r.BingoWinnerBallPosition
		pos := e.timing.Locate(e.timing.Duration(lp, bp, total), lp, bp, total)
		n := pos.Revealed(total)
		if n > len(e.revealed) {
			e.revealed = append([]int(nil), r.BallSequence[:n]...)
		}
		e.index = pos.Index
	}
	e.phase = timeline.PhaseDone
	e.enterResolvedLocked(false)
}

func (e *Engine) enterResolvedLocked(animated bool) {
	if e.state == StateResolved {
		return
	}
	e.animated = animated
	e.stopDriverLocked()
	e.setStateLocked(StateResolved)
	if e.watcher != nil {
		e.watcher.Stop()
	}
	if e.wallet != nil {
		e.wallet.RefreshAsync()
	}

	r := *e.round
	log.Info().
		Int64("round_id", r.RoundID).
		Int("revealed", len(e.revealed)).
		Bool("animated", animated).
		Int("line_winners", len(r.LineWinners)).
		Int("bingo_winners", len(r.BingoWinners)).
		Msg("round resolved")
	e.emitLocked(events.TypeRoundResolved, events.RoundResolvedPayload{
		LineWinners:  r.LineWinners,
		BingoWinners: r.BingoWinners,
		Revealed:     len(e.revealed),
		Verified:     e.verified,
		Animated:     animated,
	})

	if e.archive != nil {
		rec := ResolvedRound{
			Round:      r,
			CardIDs:    cardIDs(e.cards),
			Verified:   e.verified,
			Animated:   animated,
			ResolvedAt: e.clock.Now().UTC(),
		}
		go func() {
			ctx, cancel := context.WithTimeout(e.ctx, archiveTimeout)
			defer cancel()
			if err := e.archive.RecordResolved(ctx, rec); err != nil {
				log.Error().Err(err).Int64("round_id", rec.Round.RoundID).Msg("failed to archive round")
			}
		}()
	}
}

func cardIDs(cards []models.Card) []string {
	ids := make([]string, len(cards))
	for i, c := range cards {
		ids[i] = c.CardID
	}
	return ids
}

func errorsIsRoundNotFound(err error) bool {
	return errors.Is(err, models.ErrRoundNotFound)
}
