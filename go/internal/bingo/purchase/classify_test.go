package purchase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name        string
		err         error
		kind        Kind
		recoverable bool
		refresh     bool
	}{
		{"nil", nil, KindNone, true, false},
		{"in flight", ErrPurchaseInFlight, KindInFlight, true, false},
		{"insufficient", fmt.Errorf("%w: need 3", ErrInsufficientFunds), KindInsufficientFunds, true, false},
		{"invalid count", fmt.Errorf("%w: 0", ErrInvalidCount), KindInvalidCount, true, false},
		{"rejected sentinel", &StepError{Step: StepApproving, Err: ErrUserRejected}, KindCancelled, true, false},
		{"rejected text", errors.New("user rejected transaction"), KindCancelled, true, false},
		{"context cancelled", context.Canceled, KindCancelled, true, false},
		{"round not found sentinel", &StepError{Step: StepBuying, Err: ErrRoundNotFound}, KindRoundExpired, true, true},
		{"round not open text", errors.New("execution reverted: RoundNotOpen"), KindRoundExpired, true, true},
		{"pending sentinel", ErrPendingTransaction, KindPendingTransaction, true, false},
		{"nonce too low", errors.New("nonce too low"), KindPendingTransaction, true, false},
		{"buying failure", &StepError{Step: StepBuying, Err: errors.New("reverted")}, KindNoFundsMoved, true, false},
		{"approval failure", &StepError{Step: StepApproving, Err: errors.New("rpc down")}, KindFatal, false, false},
		{"unknown", errors.New("boom"), KindFatal, false, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := Classify(tc.err)
			assert.Equal(t, tc.kind, out.Kind)
			assert.Equal(t, tc.recoverable, out.Recoverable)
			assert.Equal(t, tc.refresh, out.RefreshLobby)
		})
	}
}

func TestParseIssuedCards(t *testing.T) {
	r := Receipt{Logs: []Log{
		{Name: "Transfer", Fields: map[string]string{"card_id": "x"}},
		{Name: CardPurchasedEvent, Fields: map[string]string{"round_id": "7", "card_id": "a"}},
		{Name: CardPurchasedEvent, Fields: map[string]string{"round_id": "8", "card_id": "other"}},
		{Name: "cardpurchased", Fields: map[string]string{"tokenId": "b"}},
		{Name: CardPurchasedEvent, Fields: map[string]string{"card_id": "a"}},
		{Name: CardPurchasedEvent, Fields: map[string]string{}},
	}}
	assert.Equal(t, []string{"a", "b"}, ParseIssuedCards(r, 7))
	assert.Empty(t, ParseIssuedCards(Receipt{}, 7))
}
