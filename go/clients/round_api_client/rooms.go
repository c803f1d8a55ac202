package round_api_client

import (
	"context"
	"fmt"
	"net/url"

	"github.com/mcdev12/bingosync/go/internal/models"
	"github.com/shopspring/decimal"
)

type roomsResponse struct {
	Rooms []models.Room `json:"rooms"`
}

type currentRoundResponse struct {
	RoundID int64 `json:"round_id"`
}

type balanceResponse struct {
	Balance decimal.Decimal `json:"balance"`
}

// ListRooms reads every room.
func (c *RoundAPIClient) ListRooms(ctx context.Context) ([]models.Room, error) {
	var resp roomsResponse
	if err := c.GetJSON(ctx, RoomsEndpoint, &resp); err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return resp.Rooms, nil
}

// CurrentRound reads the round a room is currently running.
func (c *RoundAPIClient) CurrentRound(ctx context.Context, roomID string) (int64, error) {
	var resp currentRoundResponse
	if err := c.GetJSON(ctx, fmt.Sprintf(CurrentRoundEndpoint, url.PathEscape(roomID)), &resp); err != nil {
		return 0, fmt.Errorf("current round of room %s: %w", roomID, notFound(err))
	}
	return resp.RoundID, nil
}

// Balance reads the player's balance; it makes the client a wallet ledger.
func (c *RoundAPIClient) Balance(ctx context.Context) (decimal.Decimal, error) {
	if c.player == "" {
		return decimal.Zero, fmt.Errorf("balance: no player configured")
	}
	var resp balanceResponse
	if err := c.GetJSON(ctx, fmt.Sprintf(BalanceEndpoint, url.PathEscape(c.player)), &resp); err != nil {
		return decimal.Zero, fmt.Errorf("balance: %w", err)
	}
	return resp.Balance, nil
}
