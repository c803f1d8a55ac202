package purchase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	mu sync.Mutex

	price       decimal.Decimal
	balance     decimal.Decimal
	allowance   decimal.Decimal
	needsAllow  bool
	approveErr  error
	purchaseErr error
	receipt     Receipt

	// block, when set, holds Purchase until closed.
	block chan struct{}

	calls []string
}

func (f *fakeBackend) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
}

func (f *fakeBackend) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeBackend) UnitPrice(ctx context.Context, roundID int64) (decimal.Decimal, error) {
	f.record("price")
	return f.price, nil
}

func (f *fakeBackend) Balance(ctx context.Context) (decimal.Decimal, error) {
	f.record("balance")
	return f.balance, nil
}

func (f *fakeBackend) RequiresAllowance() bool { return f.needsAllow }

func (f *fakeBackend) Allowance(ctx context.Context) (decimal.Decimal, error) {
	f.record("allowance")
	return f.allowance, nil
}

func (f *fakeBackend) Approve(ctx context.Context, amount decimal.Decimal) error {
	f.record("approve")
	return f.approveErr
}

func (f *fakeBackend) Purchase(ctx context.Context, roundID int64, count int) (Receipt, error) {
	f.record("purchase")
	if f.block != nil {
		<-f.block
	}
	return f.receipt, f.purchaseErr
}

func receiptFor(roundID string, ids ...string) Receipt {
	r := Receipt{TxHash: "0xabc"}
	for _, id := range ids {
		r.Logs = append(r.Logs, Log{Name: CardPurchasedEvent, Fields: map[string]string{"round_id": roundID, "card_id": id}})
	}
	return r
}

func TestBuyHappyPathWithApproval(t *testing.T) {
	backend := &fakeBackend{
		price:      decimal.RequireFromString("1.5"),
		balance:    decimal.NewFromInt(10),
		allowance:  decimal.Zero,
		needsAllow: true,
		receipt:    receiptFor("7", "c1", "c2"),
	}
	o := NewOrchestrator(backend)

	var steps []Step
	res, err := o.Buy(context.Background(), 7, 2, func(s Step) { steps = append(steps, s) })
	require.NoError(t, err)

	assert.Equal(t, []Step{StepApproving, StepBuying}, steps)
	assert.Equal(t, []string{"price", "balance", "allowance", "approve", "purchase"}, backend.Calls())
	assert.True(t, res.Total.Equal(decimal.NewFromInt(3)))
	assert.True(t, res.Approved)
	assert.Equal(t, []string{"c1", "c2"}, res.CardIDs)
	assert.False(t, o.InFlight())
}

func TestBuySkipsApprovalWhenAllowanceCovers(t *testing.T) {
	backend := &fakeBackend{
		price:      decimal.NewFromInt(1),
		balance:    decimal.NewFromInt(10),
		allowance:  decimal.NewFromInt(5),
		needsAllow: true,
		receipt:    receiptFor("7", "c1"),
	}
	o := NewOrchestrator(backend)

	var steps []Step
	res, err := o.Buy(context.Background(), 7, 1, func(s Step) { steps = append(steps, s) })
	require.NoError(t, err)
	assert.Equal(t, []Step{StepBuying}, steps)
	assert.False(t, res.Approved)
	assert.NotContains(t, backend.Calls(), "approve")
}

func TestBuyInsufficientFundsNeverApproves(t *testing.T) {
	backend := &fakeBackend{
		price:      decimal.NewFromInt(2),
		balance:    decimal.NewFromInt(3),
		needsAllow: true,
	}
	o := NewOrchestrator(backend)

	var steps []Step
	_, err := o.Buy(context.Background(), 7, 2, func(s Step) { steps = append(steps, s) })
	require.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Empty(t, steps)
	assert.Equal(t, []string{"price", "balance"}, backend.Calls())
	assert.Equal(t, KindInsufficientFunds, Classify(err).Kind)
}

func TestBuyPurchaseFailureAfterApproval(t *testing.T) {
	backend := &fakeBackend{
		price:       decimal.NewFromInt(1),
		balance:     decimal.NewFromInt(10),
		needsAllow:  true,
		purchaseErr: errors.New("execution reverted"),
	}
	o := NewOrchestrator(backend)

	_, err := o.Buy(context.Background(), 7, 1, nil)
	require.Error(t, err)

	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, StepBuying, stepErr.Step)
	assert.True(t, stepErr.Approved)

	out := Classify(err)
	assert.Equal(t, KindNoFundsMoved, out.Kind)
	assert.True(t, out.Recoverable)
	assert.Contains(t, out.Message, "No funds were deducted")
	// no retry
	assert.Equal(t, 1, countOf(backend.Calls(), "purchase"))
}

func TestBuyApprovalRejected(t *testing.T) {
	backend := &fakeBackend{
		price:      decimal.NewFromInt(1),
		balance:    decimal.NewFromInt(10),
		needsAllow: true,
		approveErr: errors.New("MetaMask Tx Signature: User denied transaction signature."),
	}
	o := NewOrchestrator(backend)

	_, err := o.Buy(context.Background(), 7, 1, nil)
	require.Error(t, err)
	assert.NotContains(t, backend.Calls(), "purchase")

	out := Classify(err)
	assert.Equal(t, KindCancelled, out.Kind)
	assert.True(t, out.Silent)
}

func TestBuyRejectsConcurrentPurchase(t *testing.T) {
	backend := &fakeBackend{
		price:   decimal.NewFromInt(1),
		balance: decimal.NewFromInt(10),
		receipt: receiptFor("7", "c1"),
		block:   make(chan struct{}),
	}
	o := NewOrchestrator(backend)

	buying := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		_, err := o.Buy(context.Background(), 7, 1, func(s Step) {
			if s == StepBuying {
				close(buying)
			}
		})
		done <- err
	}()

	<-buying
	_, err := o.Buy(context.Background(), 7, 1, nil)
	require.ErrorIs(t, err, ErrPurchaseInFlight)
	assert.True(t, o.InFlight())

	close(backend.block)
	require.NoError(t, <-done)
	assert.False(t, o.InFlight())
}

func TestBuyInvalidCount(t *testing.T) {
	o := NewOrchestrator(&fakeBackend{})
	_, err := o.Buy(context.Background(), 7, 0, nil)
	require.ErrorIs(t, err, ErrInvalidCount)
	assert.Equal(t, KindInvalidCount, Classify(err).Kind)
}

func countOf(calls []string, name string) int {
	n := 0
	for _, c := range calls {
		if c == name {
			n++
		}
	}
	return n
}
