package round

import (
	"time"

	"github.com/mcdev12/bingosync/go/internal/bingo/marking"
	"github.com/mcdev12/bingosync/go/internal/bingo/purchase"
	"github.com/mcdev12/bingosync/go/internal/bingo/timeline"
	"github.com/mcdev12/bingosync/go/internal/models"
)

// CardView is one owned card with its marks.
type CardView struct {
	CardID  string                                 `json:"card_id"`
	Numbers [models.CardRows][models.CardCols]int  `json:"numbers"`
	Marked  [models.CardRows][models.CardCols]bool `json:"marked"`
	Line    bool                                   `json:"line"`
	Bingo   bool                                   `json:"bingo"`
}

// View is a read-only copy of the engine state for rendering.
type View struct {
	State            State              `json:"state"`
	RoundID          int64              `json:"round_id,omitempty"`
	RoomID           string             `json:"room_id,omitempty"`
	Status           models.RoundStatus `json:"status,omitempty"`
	ScheduledCloseAt *time.Time         `json:"scheduled_close_at,omitempty"`
	DrawStartedAt    *time.Time         `json:"draw_started_at,omitempty"`
	Phase            timeline.Phase     `json:"phase,omitempty"`
	BallIndex        int                `json:"ball_index"`
	CurrentBall      int                `json:"current_ball,omitempty"`
	Revealed         []int              `json:"revealed"`
	Progress         float64            `json:"progress"`
	AutoMark         bool               `json:"auto_mark"`
	ManualMarks      []int              `json:"manual_marks"`
	Cards            []CardView         `json:"cards"`
	LineWinners      []string           `json:"line_winners,omitempty"`
	BingoWinners     []string           `json:"bingo_winners,omitempty"`
	Verified         *bool              `json:"verified,omitempty"`
	SequenceDerived  bool               `json:"sequence_derived,omitempty"`
	Animated         bool               `json:"animated,omitempty"`
	PurchaseStep     purchase.Step      `json:"purchase_step,omitempty"`
	Error            *purchase.Outcome  `json:"error,omitempty"`
}

// View returns a copy of the current state.
func (e *Engine) View() View {
	e.mu.Lock()
	defer e.mu.Unlock()

	v := View{
		State:        e.state,
		Phase:        e.phase,
		BallIndex:    e.index,
		Revealed:     append([]int{}, e.revealed...),
		AutoMark:     e.autoMark,
		ManualMarks:  e.manual.Sorted(),
		Cards:        []CardView{},
		Verified:     e.verified,
		Animated:     e.animated,
		PurchaseStep: e.purchaseStep,
	}
	if e.lastError != nil {
		out := *e.lastError
		v.Error = &out
	}
	if e.round == nil {
		return v
	}

	r := e.round
	v.RoundID = r.RoundID
	v.RoomID = r.RoomID
	v.Status = r.Status
	v.SequenceDerived = e.derived
	if !r.ScheduledCloseAt.IsZero() {
		t := r.ScheduledCloseAt
		v.ScheduledCloseAt = &t
	}
	if r.DrawStartedAt != nil {
		t := *r.DrawStartedAt
		v.DrawStartedAt = &t
	}
	if n := len(e.revealed); n > 0 {
		v.CurrentBall = e.revealed[n-1]
		if e.index < n {
			v.CurrentBall = e.revealed[e.index]
		}
	}
	if total := len(r.BallSequence); total > 0 && e.phase != "" {
		v.Progress = timeline.Progress(timeline.Position{Index: e.index, Phase: e.phase}, total)
	}
	if e.state == StateResolved {
		v.LineWinners = append([]string{}, r.LineWinners...)
		v.BingoWinners = append([]string{}, r.BingoWinners...)
	}

	board := marking.Board{
		Revealed: marking.NewRevealedSet(e.revealed),
		Manual:   e.manual,
		AutoMark: e.autoMark,
	}
	for _, c := range e.cards {
		v.Cards = append(v.Cards, CardView{
			CardID:  c.CardID,
			Numbers: c.Numbers,
			Marked:  board.Grid(c),
			Line:    board.LineComplete(c),
			Bingo:   board.CheckBingo(c),
		})
	}
	return v
}
