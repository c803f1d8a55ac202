package api

import (
	"context"
	"errors"

	"connectrpc.com/connect"
	"github.com/mcdev12/bingosync/go/internal/bingo/purchase"
	"github.com/mcdev12/bingosync/go/internal/bingo/round"
	"github.com/mcdev12/bingosync/go/internal/models"
)

var errHistoryDisabled = errors.New("round archive is not enabled")

// toConnectError maps engine errors to connect codes.
func toConnectError(err error) error {
	if err == nil {
		return nil
	}
	var ce *connect.Error
	if errors.As(err, &ce) {
		return ce
	}
	return connect.NewError(codeFor(err), err)
}

func codeFor(err error) connect.Code {
	switch {
	case errors.Is(err, models.ErrRoundNotFound), errors.Is(err, purchase.ErrRoundNotFound):
		return connect.CodeNotFound
	case errors.Is(err, purchase.ErrInvalidCount):
		return connect.CodeInvalidArgument
	case errors.Is(err, round.ErrInvalidTransition),
		errors.Is(err, round.ErrNoRound),
		errors.Is(err, round.ErrRoundNotOpen),
		errors.Is(err, purchase.ErrInsufficientFunds):
		return connect.CodeFailedPrecondition
	case errors.Is(err, round.ErrSuperseded), errors.Is(err, purchase.ErrPurchaseInFlight):
		return connect.CodeAborted
	case errors.Is(err, purchase.ErrUserRejected), errors.Is(err, context.Canceled):
		return connect.CodeCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return connect.CodeDeadlineExceeded
	case errors.Is(err, purchase.ErrPendingTransaction):
		return connect.CodeUnavailable
	case errors.Is(err, models.ErrWinnerOrder), errors.Is(err, models.ErrIncompleteSequence):
		return connect.CodeDataLoss
	case errors.Is(err, errHistoryDisabled):
		return connect.CodeUnimplemented
	default:
		return connect.CodeInternal
	}
}
