// Package marking computes which cells of a card are marked from the balls
// revealed so far. Everything here is a pure function of its inputs.
package marking

import "github.com/mcdev12/bingosync/go/internal/models"

// NumberSet is a set of ball numbers.
type NumberSet map[int]struct{}

// NewNumberSet builds a set from numbers.
func NewNumberSet(numbers ...int) NumberSet {
	s := make(NumberSet, len(numbers))
	for _, n := range numbers {
		s[n] = struct{}{}
	}
	return s
}

// Has reports whether n is in the set.
func (s NumberSet) Has(n int) bool {
	_, ok := s[n]
	return ok
}

// Sorted returns the members in draw-independent ascending order.
func (s NumberSet) Sorted() []int {
	out := make([]int, 0, len(s))
	for n := 1; n <= models.BallCount; n++ {
		if s.Has(n) {
			out = append(out, n)
		}
	}
	return out
}

// Board is the marking context: revealed balls, manual marks and the
// auto-mark preference.
type Board struct {
	Revealed NumberSet
	Manual   NumberSet
	AutoMark bool
}

// IsMarked reports whether a cell holding number is marked.
func (b Board) IsMarked(number int) bool {
	if number == models.FreeCell {
		return true
	}
	if b.AutoMark {
		return b.Revealed.Has(number)
	}
	return b.Manual.Has(number)
}

// CheckLine reports whether every cell of row is marked. Out of range rows are
// never complete.
func (b Board) CheckLine(card models.Card, row int) bool {
	if row < 0 || row >= models.CardRows {
		return false
	}
	for _, n := range card.Numbers[row] {
		if !b.IsMarked(n) {
			return false
		}
	}
	return true
}

// LineComplete reports whether any row of card is complete.
func (b Board) LineComplete(card models.Card) bool {
	for row := 0; row < models.CardRows; row++ {
		if b.CheckLine(card, row) {
			return true
		}
	}
	return false
}

// CheckBingo reports whether all 15 cells are marked.
func (b Board) CheckBingo(card models.Card) bool {
	for row := 0; row < models.CardRows; row++ {
		if !b.CheckLine(card, row) {
			return false
		}
	}
	return true
}

// Grid returns the marked state of every cell.
func (b Board) Grid(card models.Card) [models.CardRows][models.CardCols]bool {
	var grid [models.CardRows][models.CardCols]bool
	for r, row := range card.Numbers {
		for c, n := range row {
			grid[r][c] = b.IsMarked(n)
		}
	}
	return grid
}

// ToggleManualMark flips number in manual and returns the resulting set. It is
// a no-op for numbers that have not been revealed. manual is not modified.
func ToggleManualMark(manual, revealed NumberSet, number int) NumberSet {
	out := make(NumberSet, len(manual)+1)
	for n := range manual {
		out[n] = struct{}{}
	}
	if !revealed.Has(number) {
		return out
	}
	if out.Has(number) {
		delete(out, number)
	} else {
		out[number] = struct{}{}
	}
	return out
}

// NewRevealedSet builds the revealed set from the drawn prefix of a sequence.
func NewRevealedSet(prefix []int) NumberSet {
	return NewNumberSet(prefix...)
}
