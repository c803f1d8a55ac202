package funding_client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mcdev12/bingosync/go/clients"
	"github.com/mcdev12/bingosync/go/internal/bingo/purchase"
	"github.com/shopspring/decimal"
)

// FundingClient moves funds through the wallet bridge. Approve and Purchase
// return once the bridge reports the transaction confirmed.
type FundingClient struct {
	*clients.BaseClient
	requiresAllowance bool
}

func NewFundingClient(baseURL, player string, requiresAllowance bool, timeout time.Duration) *FundingClient {
	client := &FundingClient{
		BaseClient:        clients.NewBaseClient(baseURL),
		requiresAllowance: requiresAllowance,
	}
	if timeout > 0 {
		client.SetTimeout(timeout)
	}
	if player != "" {
		client.SetHeader(PlayerHeader, player)
	}
	return client
}

type priceResponse struct {
	Price decimal.Decimal `json:"price"`
}

type balanceResponse struct {
	Balance decimal.Decimal `json:"balance"`
}

type allowanceResponse struct {
	Allowance decimal.Decimal `json:"allowance"`
}

type approveRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type purchaseRequest struct {
	Count int `json:"count"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *FundingClient) UnitPrice(ctx context.Context, roundID int64) (decimal.Decimal, error) {
	var resp priceResponse
	if err := c.GetJSON(ctx, fmt.Sprintf(PriceEndpoint, roundID), &resp); err != nil {
		return decimal.Zero, mapError(err)
	}
	return resp.Price, nil
}

func (c *FundingClient) Balance(ctx context.Context) (decimal.Decimal, error) {
	var resp balanceResponse
	if err := c.GetJSON(ctx, BalanceEndpoint, &resp); err != nil {
		return decimal.Zero, mapError(err)
	}
	return resp.Balance, nil
}

func (c *FundingClient) RequiresAllowance() bool { return c.requiresAllowance }

func (c *FundingClient) Allowance(ctx context.Context) (decimal.Decimal, error) {
	var resp allowanceResponse
	if err := c.GetJSON(ctx, AllowanceEndpoint, &resp); err != nil {
		return decimal.Zero, mapError(err)
	}
	return resp.Allowance, nil
}

func (c *FundingClient) Approve(ctx context.Context, amount decimal.Decimal) error {
	if err := c.PostJSON(ctx, ApproveEndpoint, approveRequest{Amount: amount}, nil); err != nil {
		return mapError(err)
	}
	return nil
}

func (c *FundingClient) Purchase(ctx context.Context, roundID int64, count int) (purchase.Receipt, error) {
	var receipt purchase.Receipt
	if err := c.PostJSON(ctx, fmt.Sprintf(PurchaseEndpoint, roundID), purchaseRequest{Count: count}, &receipt); err != nil {
		return purchase.Receipt{}, mapError(err)
	}
	return receipt, nil
}

// mapError turns a coded bridge error into the matching purchase sentinel.
// Uncoded errors are returned as is so message matching can still apply.
func mapError(err error) error {
	var se *clients.StatusError
	if !errors.As(err, &se) {
		return err
	}
	var resp errorResponse
	if json.Unmarshal(se.Body, &resp) != nil || resp.Error.Code == "" {
		return err
	}

	var sentinel error
	switch resp.Error.Code {
	case CodeUserRejected:
		sentinel = purchase.ErrUserRejected
	case CodeRoundNotFound:
		sentinel = purchase.ErrRoundNotFound
	case CodePendingTransaction:
		sentinel = purchase.ErrPendingTransaction
	case CodeInsufficientFunds:
		sentinel = purchase.ErrInsufficientFunds
	default:
		return fmt.Errorf("%s: %s", resp.Error.Code, resp.Error.Message)
	}
	if resp.Error.Message == "" {
		return sentinel
	}
	return fmt.Errorf("%w: %s", sentinel, resp.Error.Message)
}
