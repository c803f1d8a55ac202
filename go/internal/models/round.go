package models

import (
	"errors"
	"fmt"
	"time"
)

// BallCount is the size of the ball pool drawn each round.
const BallCount = 75

var (
	ErrRoundNotFound      = errors.New("round not found")
	ErrWinnerOrder        = errors.New("bingo winner position precedes line winner position")
	ErrIncompleteSequence = errors.New("ball sequence is not a permutation of the pool")
)

// RoundStatus defines the server-side lifecycle of a round.
type RoundStatus string

const (
	RoundStatusOpen     RoundStatus = "open"
	RoundStatusClosed   RoundStatus = "closed"
	RoundStatusDrawing  RoundStatus = "drawing"
	RoundStatusResolved RoundStatus = "resolved"
)

// Rank orders statuses so callers can reject regressions. Unknown statuses rank 0.
func (s RoundStatus) Rank() int {
	switch s {
	case RoundStatusOpen:
		return 1
	case RoundStatusClosed:
		return 2
	case RoundStatusDrawing:
		return 3
	case RoundStatusResolved:
		return 4
	default:
		return 0
	}
}

// Round represents one game instance as observed by the client.
type Round struct {
	RoundID                 int64       `json:"round_id"`
	RoomID                  string      `json:"room_id,omitempty"`
	Status                  RoundStatus `json:"status"`
	ScheduledCloseAt        time.Time   `json:"scheduled_close_at"`
	DrawStartedAt           *time.Time  `json:"draw_started_at,omitempty"`
	Seed                    string      `json:"seed,omitempty"`
	BallSequence            []int       `json:"ball_sequence,omitempty"`
	LineWinnerBallPosition  int         `json:"line_winner_ball_position"`
	BingoWinnerBallPosition int         `json:"bingo_winner_ball_position"`
	LineWinners             IDList      `json:"line_winners,omitempty"`
	BingoWinners            IDList      `json:"bingo_winners,omitempty"`
}

// HasSequence reports whether the full draw order is known.
func (r Round) HasSequence() bool {
	return len(r.BallSequence) > 0
}

// RoundSnapshot is one poll response for a round.
type RoundSnapshot struct {
	Round
	Cards      []Card     `json:"cards,omitempty"`
	ServerTime *time.Time `json:"server_time,omitempty"`
}

// Validate checks the invariants the engine relies on. A failing snapshot is
// treated as not ready rather than applied.
func (s RoundSnapshot) Validate() error {
	lp, bp := s.LineWinnerBallPosition, s.BingoWinnerBallPosition
	if lp < 0 || bp < 0 {
		return fmt.Errorf("negative winner position (line=%d, bingo=%d)", lp, bp)
	}
	if bp > 0 && lp > 0 && bp < lp {
		return fmt.Errorf("round %d: %w (line=%d, bingo=%d)", s.RoundID, ErrWinnerOrder, lp, bp)
	}
	if s.HasSequence() {
		if err := ValidateSequence(s.BallSequence); err != nil {
			return fmt.Errorf("round %d: %w", s.RoundID, err)
		}
	}
	return nil
}

// ValidateSequence checks that seq holds every ball 1..BallCount exactly once.
func ValidateSequence(seq []int) error {
	if len(seq) != BallCount {
		return fmt.Errorf("%w: got %d balls", ErrIncompleteSequence, len(seq))
	}
	var seen [BallCount + 1]bool
	for _, n := range seq {
		if n < 1 || n > BallCount || seen[n] {
			return fmt.Errorf("%w: bad ball %d", ErrIncompleteSequence, n)
		}
		seen[n] = true
	}
	return nil
}
