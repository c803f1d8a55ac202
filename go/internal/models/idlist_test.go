package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIDList(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want IDList
	}{
		{name: "null", raw: `null`, want: IDList{}},
		{name: "empty input", raw: ``, want: IDList{}},
		{name: "single number", raw: `42`, want: IDList{"42"}},
		{name: "single string", raw: `"0xabc"`, want: IDList{"0xabc"}},
		{name: "array of numbers", raw: `[1, 2, 3]`, want: IDList{"1", "2", "3"}},
		{name: "mixed array", raw: `["0xabc", 7, null]`, want: IDList{"0xabc", "7"}},
		{name: "json encoded array", raw: `"[\"0xabc\",\"0xdef\"]"`, want: IDList{"0xabc", "0xdef"}},
		{name: "json encoded numbers", raw: `"[5,6]"`, want: IDList{"5", "6"}},
		{name: "blank string", raw: `"  "`, want: IDList{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseIDList([]byte(tc.raw))
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseIDListRejectsGarbage(t *testing.T) {
	_, err := ParseIDList([]byte(`{"winner": 1}`))
	assert.Error(t, err)

	_, err = ParseIDList([]byte(`[true]`))
	assert.Error(t, err)
}

func TestRoundUnmarshalNormalizesWinners(t *testing.T) {
	payload := `{
		"round_id": 9,
		"status": "resolved",
		"line_winners": "0xaaa",
		"bingo_winners": "[\"0xbbb\",\"0xccc\"]",
		"line_winner_ball_position": 12,
		"bingo_winner_ball_position": 40
	}`

	var snap RoundSnapshot
	require.NoError(t, json.Unmarshal([]byte(payload), &snap))

	assert.Equal(t, int64(9), snap.RoundID)
	assert.Equal(t, RoundStatusResolved, snap.Status)
	assert.Equal(t, IDList{"0xaaa"}, snap.LineWinners)
	assert.Equal(t, IDList{"0xbbb", "0xccc"}, snap.BingoWinners)
	assert.True(t, snap.BingoWinners.Contains("0xccc"))
}
