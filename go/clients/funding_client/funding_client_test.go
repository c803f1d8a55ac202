package funding_client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mcdev12/bingosync/go/internal/bingo/purchase"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bridge(t *testing.T, purchaseStatus int, purchaseBody string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/rounds/7/price", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"price":"0.5"}`))
	})
	mux.HandleFunc("/balance", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "0xplayer", r.Header.Get(PlayerHeader))
		_, _ = w.Write([]byte(`{"balance":"10"}`))
	})
	mux.HandleFunc("/allowance", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"allowance":"0"}`))
	})
	mux.HandleFunc("/approve", func(w http.ResponseWriter, r *http.Request) {
		var req approveRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Amount.Equal(decimal.NewFromInt(1)))
		_, _ = w.Write([]byte(`{"tx_hash":"0xapprove"}`))
	})
	mux.HandleFunc("/rounds/7/purchase", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(purchaseStatus)
		_, _ = w.Write([]byte(purchaseBody))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFundingClientWithOrchestrator(t *testing.T) {
	srv := bridge(t, http.StatusOK, `{"tx_hash":"0xbuy","logs":[
		{"name":"CardPurchased","fields":{"round_id":"7","card_id":"11"}},
		{"name":"CardPurchased","fields":{"round_id":"7","card_id":"12"}}]}`)
	client := NewFundingClient(srv.URL, "0xplayer", true, 0)

	var steps []purchase.Step
	res, err := purchase.NewOrchestrator(client).Buy(context.Background(), 7, 2, func(s purchase.Step) {
		steps = append(steps, s)
	})
	require.NoError(t, err)
	assert.Equal(t, []purchase.Step{purchase.StepApproving, purchase.StepBuying}, steps)
	assert.Equal(t, []string{"11", "12"}, res.CardIDs)
	assert.Equal(t, "0xbuy", res.TxHash)
}

func TestFundingClientMapsErrorCodes(t *testing.T) {
	cases := []struct {
		name string
		body string
		want purchase.Kind
	}{
		{"rejected", `{"error":{"code":"user_rejected","message":"denied"}}`, purchase.KindCancelled},
		{"round gone", `{"error":{"code":"round_not_found"}}`, purchase.KindRoundExpired},
		{"pending", `{"error":{"code":"pending_transaction","message":"nonce"}}`, purchase.KindPendingTransaction},
		{"reverted", `{"error":{"code":"reverted","message":"out of gas"}}`, purchase.KindNoFundsMoved},
		{"plain text", `execution reverted: RoundNotOpen`, purchase.KindRoundExpired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := bridge(t, http.StatusBadRequest, tc.body)
			client := NewFundingClient(srv.URL, "0xplayer", false, 0)

			_, err := purchase.NewOrchestrator(client).Buy(context.Background(), 7, 1, nil)
			require.Error(t, err)
			assert.Equal(t, tc.want, purchase.Classify(err).Kind)
		})
	}
}
