package api

import (
	"time"

	"github.com/mcdev12/bingosync/go/internal/bingo/purchase"
	"github.com/mcdev12/bingosync/go/internal/bingo/round"
	"github.com/mcdev12/bingosync/go/internal/models"
	"github.com/mcdev12/bingosync/go/internal/roundstore"
	"github.com/mcdev12/bingosync/go/internal/wallet"
)

type Empty struct{}

type SelectRoundRequest struct {
	RoundID int64 `json:"round_id"`
}

type BuyCardsRequest struct {
	Count int `json:"count"`
}

type BuyCardsResponse struct {
	Result *purchase.Result `json:"result"`
	View   round.View       `json:"view"`
}

type ToggleMarkRequest struct {
	Number int `json:"number"`
}

type ToggleResponse struct {
	Enabled bool       `json:"enabled"`
	View    round.View `json:"view"`
}

type ViewResponse struct {
	View round.View `json:"view"`
}

type ListRoomsResponse struct {
	Rooms     []models.Room `json:"rooms"`
	UpdatedAt *time.Time    `json:"updated_at,omitempty"`
}

type BalanceResponse struct {
	Balance wallet.Snapshot `json:"balance"`
}

type HistoryRequest struct {
	Limit int `json:"limit"`
}

type HistoryResponse struct {
	Rounds []roundstore.ArchivedRound `json:"rounds"`
}
