package purchase

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidCount       = errors.New("card count must be positive")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrPurchaseInFlight   = errors.New("a purchase is already in progress")
	ErrUserRejected       = errors.New("user rejected the request")
	ErrRoundNotFound      = errors.New("round not found")
	ErrPendingTransaction = errors.New("a previous transaction is still pending")
)

// StepError attributes a failure to the protocol step it happened in.
type StepError struct {
	Step Step
	// Approved is set when an allowance was granted earlier in the same purchase.
	Approved bool
	Err      error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s step failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Wallet providers report these conditions as free text; the fragments below
// are matched case-insensitively when no sentinel is wrapped.
var (
	userRejectedFragments = []string{
		"user rejected",
		"user denied",
		"rejected the request",
		"request rejected",
		"action_rejected",
		"code 4001",
	}
	roundNotFoundFragments = []string{
		"round not found",
		"round expired",
		"round does not exist",
		"roundnotopen",
		"round not open",
		"invalid round",
	}
	pendingFragments = []string{
		"pending transaction",
		"transaction pending",
		"nonce too low",
		"replacement transaction underpriced",
		"already known",
	}
)

// IsUserRejected reports whether err means the user declined to sign.
func IsUserRejected(err error) bool {
	return errors.Is(err, ErrUserRejected) || containsAny(err, userRejectedFragments)
}

// IsRoundNotFound reports whether the backend no longer knows the round.
func IsRoundNotFound(err error) bool {
	return errors.Is(err, ErrRoundNotFound) || containsAny(err, roundNotFoundFragments)
}

// IsPendingTransaction reports whether a prior operation blocks this one.
func IsPendingTransaction(err error) bool {
	return errors.Is(err, ErrPendingTransaction) || containsAny(err, pendingFragments)
}

func containsAny(err error, fragments []string) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, f := range fragments {
		if strings.Contains(msg, f) {
			return true
		}
	}
	return false
}
