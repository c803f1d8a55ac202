package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RoomPhase is the lobby-level phase of a room.
type RoomPhase string

const (
	RoomPhaseWaiting RoomPhase = "waiting"
	RoomPhaseBuying  RoomPhase = "buying"
	RoomPhaseDrawing RoomPhase = "drawing"
	RoomPhaseResults RoomPhase = "results"
)

// Room is one entry of the lobby listing.
type Room struct {
	RoomID          string          `json:"room_id"`
	Name            string          `json:"name"`
	Phase           RoomPhase       `json:"phase"`
	CountdownEndsAt *time.Time      `json:"countdown_ends_at,omitempty"`
	Jackpot         decimal.Decimal `json:"jackpot"`
	CardPrice       decimal.Decimal `json:"card_price"`
	CurrentRoundID  int64           `json:"current_round_id"`
}
