package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payload types shared by the engine and the gateway.

type RoundSelectedPayload struct {
	RoomID string `json:"room_id,omitempty"`
	Status string `json:"status"`
	State  string `json:"state"`
	Cards  int    `json:"cards"`
}

type StateChangedPayload struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type PhaseChangedPayload struct {
	Phase    string `json:"phase"`
	Index    int    `json:"index"`
	Revealed int    `json:"revealed"`
}

type BallRevealedPayload struct {
	Index    int `json:"index"`
	Ball     int `json:"ball"`
	Revealed int `json:"revealed"`
}

type RoundResolvedPayload struct {
	LineWinners  []string `json:"line_winners"`
	BingoWinners []string `json:"bingo_winners"`
	Revealed     int      `json:"revealed"`
	Verified     *bool    `json:"verified,omitempty"`
	Animated     bool     `json:"animated"`
}

type PurchaseStepPayload struct {
	Step  string `json:"step"`
	Count int    `json:"count"`
}

type PurchaseCompletedPayload struct {
	Count   int             `json:"count"`
	Total   decimal.Decimal `json:"total"`
	CardIDs []string        `json:"card_ids"`
	TxHash  string          `json:"tx_hash,omitempty"`
}

type PurchaseFailedPayload struct {
	Kind    string `json:"kind"`
	Message string `json:"message,omitempty"`
}

type ResetPayload struct {
	ResetAt time.Time `json:"reset_at"`
}
