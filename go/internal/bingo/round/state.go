package round

import (
	"errors"
	"fmt"

	"github.com/mcdev12/bingosync/go/internal/bingo/timeline"
)

// State is the client-side lifecycle of the selected round.
type State string

const (
	StateBrowsing     State = "browsing"
	StateBuying       State = "buying"
	StateWaitingClose State = "waiting_close"
	StateWaitingVrf   State = "waiting_vrf"
	StateDrawing      State = "drawing"
	StateLinePause    State = "line_pause"
	StateBingoPause   State = "bingo_pause"
	StateResolved     State = "resolved"
	StateError        State = "error"
)

var (
	ErrInvalidTransition = errors.New("action not allowed in current state")
	ErrNoRound           = errors.New("no round selected")
	ErrRoundNotOpen      = errors.New("round is not open for purchases")
	ErrSuperseded        = errors.New("superseded by a newer selection")
)

func invalidTransition(action string, s State) error {
	return fmt.Errorf("%w: %s from %s", ErrInvalidTransition, action, s)
}

// Animating reports whether the draw animation owns the state.
func (s State) Animating() bool {
	return s == StateDrawing || s == StateLinePause || s == StateBingoPause
}

// Selectable reports whether a new round may be selected from s.
func (s State) Selectable() bool {
	return s == StateBrowsing || s == StateResolved
}

// awaitingDraw covers the states that advance on status snapshots.
func (s State) awaitingDraw() bool {
	return s == StateWaitingClose || s == StateWaitingVrf
}

func stateForPhase(p timeline.Phase) (State, bool) {
	switch p {
	case timeline.PhaseDrawing:
		return StateDrawing, true
	case timeline.PhaseLinePause:
		return StateLinePause, true
	case timeline.PhaseBingoPause:
		return StateBingoPause, true
	default:
		return "", false
	}
}
