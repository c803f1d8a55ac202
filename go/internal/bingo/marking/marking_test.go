package marking

import (
	"testing"

	"github.com/mcdev12/bingosync/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCard(t *testing.T) models.Card {
	t.Helper()
	card, err := models.CardFromFlat("card-1", 1, []int{
		1, 2, 3, 4, 5,
		16, 17, 0, 19, 20,
		31, 32, 33, 34, 35,
	})
	require.NoError(t, err)
	return card
}

func TestIsMarked(t *testing.T) {
	revealed := NewNumberSet(1, 2, 3)
	manual := NewNumberSet(2)

	auto := Board{Revealed: revealed, Manual: manual, AutoMark: true}
	assert.True(t, auto.IsMarked(models.FreeCell))
	assert.True(t, auto.IsMarked(1))
	assert.False(t, auto.IsMarked(4))

	hand := Board{Revealed: revealed, Manual: manual, AutoMark: false}
	assert.True(t, hand.IsMarked(models.FreeCell))
	assert.True(t, hand.IsMarked(2))
	assert.False(t, hand.IsMarked(1), "revealed but not hand-marked")
}

func TestLinesAndBingo(t *testing.T) {
	card := testCard(t)

	cases := []struct {
		name      string
		revealed  []int
		wantRows  [3]bool
		wantBingo bool
	}{
		{name: "nothing", wantRows: [3]bool{false, false, false}},
		{name: "top row", revealed: []int{1, 2, 3, 4, 5}, wantRows: [3]bool{true, false, false}},
		{name: "row with free cell", revealed: []int{16, 17, 19, 20}, wantRows: [3]bool{false, true, false}},
		{name: "almost", revealed: []int{1, 2, 3, 4, 16, 17, 19, 20, 31, 32, 33, 34, 35}, wantRows: [3]bool{false, true, true}},
		{
			name:      "full card",
			revealed:  []int{1, 2, 3, 4, 5, 16, 17, 19, 20, 31, 32, 33, 34, 35},
			wantRows:  [3]bool{true, true, true},
			wantBingo: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := Board{Revealed: NewNumberSet(tc.revealed...), AutoMark: true}
			for row := 0; row < 3; row++ {
				assert.Equal(t, tc.wantRows[row], b.CheckLine(card, row), "row %d", row)
			}
			assert.Equal(t, tc.wantBingo, b.CheckBingo(card))
			assert.Equal(t, tc.wantRows[0] || tc.wantRows[1] || tc.wantRows[2], b.LineComplete(card))
		})
	}
}

func TestCheckLineOutOfRange(t *testing.T) {
	b := Board{Revealed: NewNumberSet(), AutoMark: true}
	assert.False(t, b.CheckLine(testCard(t), -1))
	assert.False(t, b.CheckLine(testCard(t), 3))
}

func TestToggleManualMark(t *testing.T) {
	revealed := NewNumberSet(7, 8)
	manual := NewNumberSet()

	// Undrawn numbers cannot be pre-marked.
	next := ToggleManualMark(manual, revealed, 60)
	assert.False(t, next.Has(60))

	next = ToggleManualMark(next, revealed, 7)
	assert.True(t, next.Has(7))
	assert.False(t, manual.Has(7), "input set is left untouched")

	next = ToggleManualMark(next, revealed, 7)
	assert.False(t, next.Has(7))
}

func TestManualMarkOnlyVisibleWithoutAutoMark(t *testing.T) {
	revealed := NewNumberSet(7)
	manual := ToggleManualMark(NewNumberSet(), revealed, 7)

	assert.True(t, Board{Revealed: NewNumberSet(), Manual: manual, AutoMark: false}.IsMarked(7))
	assert.False(t, Board{Revealed: NewNumberSet(), Manual: manual, AutoMark: true}.IsMarked(7))
}

func TestGridAndSorted(t *testing.T) {
	b := Board{Revealed: NewNumberSet(5, 1), AutoMark: true}
	grid := b.Grid(testCard(t))
	assert.True(t, grid[0][0])
	assert.True(t, grid[0][4])
	assert.True(t, grid[1][2])
	assert.False(t, grid[2][0])
	assert.Equal(t, []int{1, 5}, b.Revealed.Sorted())
}
