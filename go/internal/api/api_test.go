package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/mcdev12/bingosync/go/internal/bingo/purchase"
	"github.com/mcdev12/bingosync/go/internal/bingo/round"
	"github.com/mcdev12/bingosync/go/internal/models"
	"github.com/mcdev12/bingosync/go/internal/roundstore"
	"github.com/mcdev12/bingosync/go/internal/wallet"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEngine struct {
	mu        sync.Mutex
	view      round.View
	selectErr error
	buyErr    error
	skipErr   error
	selected  []int64
	bought    []int
	marks     map[int]bool
	resets    int
}

func (f *fakeEngine) SelectRound(_ context.Context, roundID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.selected = append(f.selected, roundID)
	if f.selectErr != nil {
		return f.selectErr
	}
	f.view.RoundID = roundID
	f.view.State = round.StateBrowsing
	return nil
}

func (f *fakeEngine) BuyCards(_ context.Context, count int) (*purchase.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bought = append(f.bought, count)
	if f.buyErr != nil {
		return nil, f.buyErr
	}
	f.view.State = round.StateWaitingClose
	return &purchase.Result{
		RoundID:   f.view.RoundID,
		Count:     count,
		UnitPrice: decimal.NewFromInt(2),
		Total:     decimal.NewFromInt(int64(2 * count)),
		CardIDs:   []string{"c1"},
	}, nil
}

func (f *fakeEngine) CancelPurchase() error { return nil }

func (f *fakeEngine) ToggleAutoMark() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.view.AutoMark = !f.view.AutoMark
	return f.view.AutoMark
}

func (f *fakeEngine) ToggleMark(number int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.marks == nil {
		f.marks = map[int]bool{}
	}
	f.marks[number] = !f.marks[number]
	return f.marks[number]
}

func (f *fakeEngine) SkipToResults() error { return f.skipErr }

func (f *fakeEngine) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
	f.view = round.View{State: round.StateBrowsing}
}

func (f *fakeEngine) View() round.View {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.view
}

type fakeLobby struct{ rooms []models.Room }

func (f fakeLobby) Rooms() []models.Room { return f.rooms }
func (f fakeLobby) UpdatedAt() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

type fakeBalance struct {
	mu        sync.Mutex
	refreshes int
}

func (f *fakeBalance) Snapshot() wallet.Snapshot {
	return wallet.Snapshot{Balance: decimal.RequireFromString("12.5"), Known: true}
}

func (f *fakeBalance) RefreshAsync() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
}

type fakeHistory struct {
	limit int
}

func (f *fakeHistory) Recent(_ context.Context, limit int) ([]roundstore.ArchivedRound, error) {
	f.limit = limit
	return []roundstore.ArchivedRound{{RoundID: 9, RoomID: "r1", Animated: true}}, nil
}

func newTestClient(t *testing.T, engine Engine, history History) (*Client, *fakeBalance) {
	t.Helper()
	balance := &fakeBalance{}
	svc := NewService(engine, fakeLobby{rooms: []models.Room{{RoomID: "r1", Name: "Main"}}}, balance, history)

	mux := http.NewServeMux()
	path, handler := svc.Handler()
	mux.Handle(path, handler)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return NewClient(srv.Client(), srv.URL), balance
}

func TestSelectRoundAndBuy(t *testing.T) {
	engine := &fakeEngine{}
	client, _ := newTestClient(t, engine, nil)
	ctx := context.Background()

	view, err := client.SelectRound(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), view.View.RoundID)
	assert.Equal(t, round.StateBrowsing, view.View.State)

	bought, err := client.BuyCards(ctx, 3)
	require.NoError(t, err)
	require.NotNil(t, bought.Result)
	assert.Equal(t, 3, bought.Result.Count)
	assert.True(t, decimal.NewFromInt(6).Equal(bought.Result.Total))
	assert.Equal(t, round.StateWaitingClose, bought.View.State)
	assert.Equal(t, []int{3}, engine.bought)
}

func TestInvalidArguments(t *testing.T) {
	engine := &fakeEngine{}
	client, _ := newTestClient(t, engine, nil)
	ctx := context.Background()

	_, err := client.SelectRound(ctx, 0)
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	_, err = client.BuyCards(ctx, 0)
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	_, err = client.ToggleMark(ctx, models.BallCount+1)
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	assert.Empty(t, engine.selected)
	assert.Empty(t, engine.bought)
}

func TestErrorCodes(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want connect.Code
	}{
		{"not found", fmt.Errorf("fetch round 1: %w", models.ErrRoundNotFound), connect.CodeNotFound},
		{"purchase round gone", purchase.ErrRoundNotFound, connect.CodeNotFound},
		{"wrong state", fmt.Errorf("%w: buy cards in drawing", round.ErrInvalidTransition), connect.CodeFailedPrecondition},
		{"round not open", round.ErrRoundNotOpen, connect.CodeFailedPrecondition},
		{"insufficient", purchase.ErrInsufficientFunds, connect.CodeFailedPrecondition},
		{"superseded", round.ErrSuperseded, connect.CodeAborted},
		{"in flight", purchase.ErrPurchaseInFlight, connect.CodeAborted},
		{"rejected", &purchase.StepError{Step: purchase.StepBuying, Err: purchase.ErrUserRejected}, connect.CodeCanceled},
		{"cancelled", context.Canceled, connect.CodeCanceled},
		{"pending", purchase.ErrPendingTransaction, connect.CodeUnavailable},
		{"bad data", models.ErrWinnerOrder, connect.CodeDataLoss},
		{"unknown", errors.New("boom"), connect.CodeInternal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, codeFor(tc.err))
		})
	}
}

func TestEngineErrorReachesClient(t *testing.T) {
	engine := &fakeEngine{buyErr: purchase.ErrInsufficientFunds, skipErr: round.ErrInvalidTransition}
	client, _ := newTestClient(t, engine, nil)
	ctx := context.Background()

	_, err := client.BuyCards(ctx, 1)
	require.Error(t, err)
	assert.Equal(t, connect.CodeFailedPrecondition, connect.CodeOf(err))

	_, err = client.SkipToResults(ctx)
	assert.Equal(t, connect.CodeFailedPrecondition, connect.CodeOf(err))
}

func TestToggles(t *testing.T) {
	engine := &fakeEngine{view: round.View{AutoMark: true}}
	client, _ := newTestClient(t, engine, nil)
	ctx := context.Background()

	auto, err := client.ToggleAutoMark(ctx)
	require.NoError(t, err)
	assert.False(t, auto.Enabled)
	assert.False(t, auto.View.AutoMark)

	mark, err := client.ToggleMark(ctx, 17)
	require.NoError(t, err)
	assert.True(t, mark.Enabled)

	mark, err = client.ToggleMark(ctx, 17)
	require.NoError(t, err)
	assert.False(t, mark.Enabled)
}

func TestResetAndView(t *testing.T) {
	engine := &fakeEngine{view: round.View{State: round.StateError, RoundID: 5}}
	client, _ := newTestClient(t, engine, nil)
	ctx := context.Background()

	view, err := client.GetView(ctx)
	require.NoError(t, err)
	assert.Equal(t, round.StateError, view.View.State)

	view, err = client.Reset(ctx)
	require.NoError(t, err)
	assert.Equal(t, round.StateBrowsing, view.View.State)
	assert.Zero(t, view.View.RoundID)
	assert.Equal(t, 1, engine.resets)
}

func TestLobbyAndBalance(t *testing.T) {
	client, balance := newTestClient(t, &fakeEngine{}, nil)
	ctx := context.Background()

	rooms, err := client.ListRooms(ctx)
	require.NoError(t, err)
	require.Len(t, rooms.Rooms, 1)
	assert.Equal(t, "r1", rooms.Rooms[0].RoomID)
	require.NotNil(t, rooms.UpdatedAt)

	bal, err := client.GetBalance(ctx)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("12.5").Equal(bal.Balance.Balance))
	assert.True(t, bal.Balance.Known)
	assert.Equal(t, 1, balance.refreshes)
}

func TestHistory(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		client, _ := newTestClient(t, &fakeEngine{}, nil)
		_, err := client.History(context.Background(), 5)
		assert.Equal(t, connect.CodeUnimplemented, connect.CodeOf(err))
	})

	t.Run("default limit", func(t *testing.T) {
		history := &fakeHistory{}
		client, _ := newTestClient(t, &fakeEngine{}, history)
		resp, err := client.History(context.Background(), 0)
		require.NoError(t, err)
		require.Len(t, resp.Rounds, 1)
		assert.Equal(t, int64(9), resp.Rounds[0].RoundID)
		assert.Equal(t, defaultHistoryLimit, history.limit)
	})
}
