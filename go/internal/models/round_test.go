package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func fullSequence() []int {
	seq := make([]int, BallCount)
	for i := range seq {
		seq[i] = BallCount - i
	}
	return seq
}

func TestSnapshotValidate(t *testing.T) {
	dup := fullSequence()
	dup[3] = dup[4]

	cases := []struct {
		name    string
		snap    RoundSnapshot
		wantErr error
	}{
		{
			name: "no winners no sequence",
			snap: RoundSnapshot{Round: Round{RoundID: 1, Status: RoundStatusOpen}},
		},
		{
			name: "line before bingo",
			snap: RoundSnapshot{Round: Round{RoundID: 1, LineWinnerBallPosition: 10, BingoWinnerBallPosition: 30, BallSequence: fullSequence()}},
		},
		{
			name: "line and bingo on the same ball",
			snap: RoundSnapshot{Round: Round{RoundID: 1, LineWinnerBallPosition: 30, BingoWinnerBallPosition: 30}},
		},
		{
			name:    "bingo before line",
			snap:    RoundSnapshot{Round: Round{RoundID: 1, LineWinnerBallPosition: 30, BingoWinnerBallPosition: 10}},
			wantErr: ErrWinnerOrder,
		},
		{
			name:    "duplicate ball",
			snap:    RoundSnapshot{Round: Round{RoundID: 1, BallSequence: dup}},
			wantErr: ErrIncompleteSequence,
		},
		{
			name:    "short sequence",
			snap:    RoundSnapshot{Round: Round{RoundID: 1, BallSequence: []int{1, 2, 3}}},
			wantErr: ErrIncompleteSequence,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.snap.Validate()
			if tc.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tc.wantErr), "got %v", err)
		})
	}
}

func TestStatusRankIsMonotonic(t *testing.T) {
	order := []RoundStatus{RoundStatusOpen, RoundStatusClosed, RoundStatusDrawing, RoundStatusResolved}
	for i := 1; i < len(order); i++ {
		assert.Greater(t, order[i].Rank(), order[i-1].Rank())
	}
	assert.Equal(t, 0, RoundStatus("bogus").Rank())
}

func TestCardFromFlat(t *testing.T) {
	nums := []int{1, 2, 3, 4, 5, 16, 17, 0, 19, 20, 31, 32, 33, 34, 35}
	card, err := CardFromFlat("c1", 7, nums)
	assert.NoError(t, err)
	assert.Equal(t, 0, card.Numbers[1][2])
	assert.Equal(t, nums, card.Flat())

	_, err = CardFromFlat("c2", 7, nums[:14])
	assert.ErrorIs(t, err, ErrInvalidCard)

	noFree := append([]int(nil), nums...)
	noFree[7] = 18
	_, err = CardFromFlat("c3", 7, noFree)
	assert.ErrorIs(t, err, ErrInvalidCard)
}
