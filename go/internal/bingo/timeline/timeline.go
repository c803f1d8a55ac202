// Package timeline maps time elapsed since the draw started onto the ball
// being shown and the current draw phase.
//
// Every client derives its view from the same drawStartedAt and the same
// winner positions, so Locate is the only place this mapping may live. The
// live ticker and the one-shot catch-up after a reload both call it.
package timeline

import (
	"errors"
	"fmt"
	"time"
)

// Phase is the draw phase visible to the player.
type Phase string

const (
	PhaseDrawing    Phase = "drawing"
	PhaseLinePause  Phase = "line_pause"
	PhaseBingoPause Phase = "bingo_pause"
	PhaseDone       Phase = "done"
)

var ErrWinnerOrder = errors.New("bingo ball position precedes line ball position")

// Timing holds the fixed durations of the draw. All clients of a deployment
// must use the same values.
type Timing struct {
	BallInterval time.Duration `yaml:"ball_interval"`
	LinePause    time.Duration `yaml:"line_pause"`
	BingoPause   time.Duration `yaml:"bingo_pause"`
}

// DefaultTiming is the production draw cadence.
var DefaultTiming = Timing{
	BallInterval: 4500 * time.Millisecond,
	LinePause:    5 * time.Second,
	BingoPause:   6 * time.Second,
}

// Position is the result of Locate.
type Position struct {
	Index int   `json:"index"`
	Phase Phase `json:"phase"`
}

// Revealed is the number of balls visible at this position.
func (p Position) Revealed(total int) int {
	if total <= 0 {
		return 0
	}
	n := p.Index + 1
	if n > total {
		n = total
	}
	return n
}

// Locate uses DefaultTiming.
func Locate(elapsed time.Duration, linePos, bingoPos, total int) Position {
	return DefaultTiming.Locate(elapsed, linePos, bingoPos, total)
}

// Locate returns the ball index and phase at elapsed. linePos and bingoPos are
// 1-based ball positions, 0 meaning no winner. It never fails: negative elapsed
// counts as zero and total <= 0 yields (0, drawing).
//
// Callers are expected to reject bingoPos < linePos with Validate first; if it
// slips through, the line pause is skipped since the round ended before it.
func (t Timing) Locate(elapsed time.Duration, linePos, bingoPos, total int) Position {
	if total <= 0 || t.BallInterval <= 0 {
		return Position{Index: 0, Phase: PhaseDrawing}
	}
	if elapsed < 0 {
		elapsed = 0
	}
	last := total - 1
	linePos = clampPos(linePos, total)
	bingoPos = clampPos(bingoPos, total)

	adjusted := elapsed
	hasLine := linePaused(linePos, bingoPos, total)
	if hasLine {
		start := time.Duration(linePos) * t.BallInterval
		switch {
		case elapsed < start:
		case elapsed < start+t.LinePause:
			return Position{Index: linePos - 1, Phase: PhaseLinePause}
		default:
			adjusted -= t.LinePause
		}
	}

	if bingoPos > 0 {
		start := t.bingoStart(linePos, bingoPos, hasLine)
		if adjusted >= start {
			if adjusted < start+t.BingoPause {
				return Position{Index: bingoPos - 1, Phase: PhaseBingoPause}
			}
			return Position{Index: bingoPos - 1, Phase: PhaseDone}
		}
	}

	idx := int(adjusted / t.BallInterval)
	if idx >= last {
		if bingoPos > 0 {
			// final ball carries line and bingo, its pauses are still ahead
			return Position{Index: last, Phase: PhaseDrawing}
		}
		return Position{Index: last, Phase: PhaseDone}
	}
	return Position{Index: idx, Phase: PhaseDrawing}
}

// bingoStart is the adjusted time at which the bingo pause begins. When line and
// bingo share a ball the bingo pause waits for the line pause to finish.
func (t Timing) bingoStart(linePos, bingoPos int, hasLine bool) time.Duration {
	if hasLine && linePos == bingoPos {
		return time.Duration(linePos) * t.BallInterval
	}
	return time.Duration(bingoPos-1) * t.BallInterval
}

// Duration is the elapsed time at which Locate first reports PhaseDone.
func (t Timing) Duration(linePos, bingoPos, total int) time.Duration {
	if total <= 0 {
		return 0
	}
	linePos = clampPos(linePos, total)
	bingoPos = clampPos(bingoPos, total)
	hasLine := linePaused(linePos, bingoPos, total)

	var d time.Duration
	if bingoPos > 0 {
		d = t.bingoStart(linePos, bingoPos, hasLine) + t.BingoPause
	} else {
		d = time.Duration(total-1) * t.BallInterval
	}
	if hasLine {
		d += t.LinePause
	}
	return d
}

// linePaused reports whether the draw stops for a line pause. A line on the
// final ball without a bingo ends the draw there instead.
func linePaused(linePos, bingoPos, total int) bool {
	if linePos <= 0 {
		return false
	}
	if bingoPos == 0 {
		return linePos < total
	}
	return bingoPos >= linePos
}

// Validate rejects winner positions that cannot occur: a bingo cannot be
// completed before the line it contains.
func Validate(linePos, bingoPos, total int) error {
	if linePos < 0 || bingoPos < 0 {
		return fmt.Errorf("negative ball position (line=%d, bingo=%d)", linePos, bingoPos)
	}
	if total > 0 && (linePos > total || bingoPos > total) {
		return fmt.Errorf("ball position beyond %d balls (line=%d, bingo=%d)", total, linePos, bingoPos)
	}
	if linePos > 0 && bingoPos > 0 && bingoPos < linePos {
		return fmt.Errorf("%w (line=%d, bingo=%d)", ErrWinnerOrder, linePos, bingoPos)
	}
	return nil
}

// Progress is the fraction of the draw shown at pos.
func Progress(pos Position, total int) float64 {
	if total <= 0 {
		return 0
	}
	if pos.Phase == PhaseDone {
		return 1
	}
	return float64(pos.Revealed(total)) / float64(total)
}

func clampPos(pos, total int) int {
	if pos < 0 {
		return 0
	}
	if pos > total {
		return total
	}
	return pos
}
