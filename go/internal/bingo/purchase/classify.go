package purchase

import (
	"context"
	"errors"
)

// Kind is the user-facing category of a purchase failure.
type Kind string

const (
	KindNone               Kind = ""
	KindInsufficientFunds  Kind = "insufficient_funds"
	KindInvalidCount       Kind = "invalid_count"
	KindCancelled          Kind = "cancelled"
	KindNoFundsMoved       Kind = "purchase_failed_no_funds_moved"
	KindRoundExpired       Kind = "round_expired"
	KindPendingTransaction Kind = "pending_transaction"
	KindInFlight           Kind = "in_flight"
	KindFatal              Kind = "fatal"
)

// Outcome tells the caller what to show and where to go after a failure.
type Outcome struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message,omitempty"`
	// Recoverable outcomes return to browsing; the rest move to the error state.
	Recoverable bool `json:"recoverable"`
	// Silent outcomes are not shown to the user.
	Silent bool `json:"silent"`
	// RefreshLobby asks for an out-of-band room list refresh.
	RefreshLobby bool `json:"refresh_lobby"`
}

// Classify maps a Buy error onto the failure taxonomy. Checks run from the
// most specific condition to the catch-all.
func Classify(err error) Outcome {
	if err == nil {
		return Outcome{Kind: KindNone, Recoverable: true}
	}

	var stepErr *StepError
	hasStep := errors.As(err, &stepErr)

	switch {
	case errors.Is(err, ErrPurchaseInFlight):
		return Outcome{
			Kind:        KindInFlight,
			Message:     "A purchase is already in progress.",
			Recoverable: true,
		}
	case errors.Is(err, ErrInvalidCount):
		return Outcome{
			Kind:        KindInvalidCount,
			Message:     "Choose at least one card.",
			Recoverable: true,
		}
	case errors.Is(err, ErrInsufficientFunds):
		return Outcome{
			Kind:        KindInsufficientFunds,
			Message:     "Insufficient balance for this purchase.",
			Recoverable: true,
		}
	case IsUserRejected(err), errors.Is(err, context.Canceled):
		return Outcome{Kind: KindCancelled, Recoverable: true, Silent: true}
	case IsRoundNotFound(err):
		return Outcome{
			Kind:         KindRoundExpired,
			Message:      "This round has expired. Pick another round.",
			Recoverable:  true,
			RefreshLobby: true,
		}
	case IsPendingTransaction(err):
		return Outcome{
			Kind:        KindPendingTransaction,
			Message:     "A previous transaction is still pending. Resolve it in your wallet and try again.",
			Recoverable: true,
		}
	case hasStep && stepErr.Step == StepBuying:
		msg := "The purchase failed. No funds were deducted."
		if stepErr.Approved {
			msg = "The purchase failed after the spending approval. No funds were deducted."
		}
		return Outcome{Kind: KindNoFundsMoved, Message: msg, Recoverable: true}
	default:
		return Outcome{
			Kind:    KindFatal,
			Message: "Something went wrong. Please retry.",
		}
	}
}
