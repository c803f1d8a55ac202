// Package purchase runs the card purchase protocol against a funding backend:
// quote, balance check, optional spending approval, purchase and receipt
// parsing. Failures are attributed to the step they happened in so the caller
// can tell the player whether funds moved.
package purchase

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Step is a user-visible stage of a purchase.
type Step string

const (
	StepQuote     Step = "quote"
	StepBalance   Step = "balance"
	StepApproving Step = "approving"
	StepBuying    Step = "buying"
)

// FundingBackend moves funds for card purchases. Approve and Purchase return
// once the operation is confirmed.
type FundingBackend interface {
	UnitPrice(ctx context.Context, roundID int64) (decimal.Decimal, error)
	Balance(ctx context.Context) (decimal.Decimal, error)
	RequiresAllowance() bool
	Allowance(ctx context.Context) (decimal.Decimal, error)
	Approve(ctx context.Context, amount decimal.Decimal) error
	Purchase(ctx context.Context, roundID int64, count int) (Receipt, error)
}

// ProgressFunc is told when a step that needs user attention starts.
type ProgressFunc func(step Step)

// Result describes a completed purchase.
type Result struct {
	RoundID   int64           `json:"round_id"`
	Count     int             `json:"count"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Total     decimal.Decimal `json:"total"`
	Approved  bool            `json:"approved"`
	TxHash    string          `json:"tx_hash,omitempty"`
	CardIDs   []string        `json:"card_ids"`
}

// Orchestrator allows one purchase at a time.
type Orchestrator struct {
	backend FundingBackend

	inFlight   bool
	inFlightMu sync.Mutex
}

func NewOrchestrator(backend FundingBackend) *Orchestrator {
	return &Orchestrator{backend: backend}
}

// InFlight reports whether a purchase is running.
func (o *Orchestrator) InFlight() bool {
	o.inFlightMu.Lock()
	defer o.inFlightMu.Unlock()
	return o.inFlight
}

// Buy purchases count cards for roundID. A failed step is never retried.
func (o *Orchestrator) Buy(ctx context.Context, roundID int64, count int, progress ProgressFunc) (*Result, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCount, count)
	}

	o.inFlightMu.Lock()
	if o.inFlight {
		o.inFlightMu.Unlock()
		return nil, ErrPurchaseInFlight
	}
	o.inFlight = true
	o.inFlightMu.Unlock()
	defer func() {
		o.inFlightMu.Lock()
		o.inFlight = false
		o.inFlightMu.Unlock()
	}()

	if progress == nil {
		progress = func(Step) {}
	}

	// 1) quote
	price, err := o.backend.UnitPrice(ctx, roundID)
	if err != nil {
		return nil, &StepError{Step: StepQuote, Err: err}
	}
	total := price.Mul(decimal.NewFromInt(int64(count)))

	// 2) balance pre-flight, before anything can move funds
	balance, err := o.backend.Balance(ctx)
	if err != nil {
		return nil, &StepError{Step: StepBalance, Err: err}
	}
	if balance.LessThan(total) {
		log.Info().
			Int64("round_id", roundID).
			Str("required", total.String()).
			Str("available", balance.String()).
			Msg("purchase rejected before approval")
		return nil, fmt.Errorf("%w: need %s, have %s", ErrInsufficientFunds, total, balance)
	}

	res := &Result{RoundID: roundID, Count: count, UnitPrice: price, Total: total}

	// 3) spending approval, only when the current allowance does not cover the total
	if o.backend.RequiresAllowance() {
		allowance, err := o.backend.Allowance(ctx)
		if err != nil {
			return nil, &StepError{Step: StepApproving, Err: err}
		}
		if allowance.LessThan(total) {
			progress(StepApproving)
			if err := o.backend.Approve(ctx, total); err != nil {
				return nil, &StepError{Step: StepApproving, Err: err}
			}
			res.Approved = true
			log.Info().Int64("round_id", roundID).Str("amount", total.String()).Msg("spending approved")
		}
	}

	// 4) purchase
	progress(StepBuying)
	receipt, err := o.backend.Purchase(ctx, roundID, count)
	if err != nil {
		return nil, &StepError{Step: StepBuying, Approved: res.Approved, Err: err}
	}

	// 5) receipt
	res.TxHash = receipt.TxHash
	res.CardIDs = ParseIssuedCards(receipt, roundID)
	if len(res.CardIDs) != count {
		log.Warn().
			Int64("round_id", roundID).
			Int("requested", count).
			Int("issued", len(res.CardIDs)).
			Str("tx_hash", receipt.TxHash).
			Msg("receipt card count differs from request")
	}

	log.Info().
		Int64("round_id", roundID).
		Int("count", count).
		Str("total", total.String()).
		Str("tx_hash", receipt.TxHash).
		Msg("cards purchased")
	return res, nil
}
