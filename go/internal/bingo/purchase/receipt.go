package purchase

import (
	"strconv"
	"strings"
)

// CardPurchasedEvent is the log name that carries an issued card.
const CardPurchasedEvent = "CardPurchased"

// Receipt is the confirmation of the purchase step.
type Receipt struct {
	TxHash string `json:"tx_hash"`
	Logs   []Log  `json:"logs"`
}

// Log is one decoded event of a receipt.
type Log struct {
	Name   string            `json:"name"`
	Fields map[string]string `json:"fields"`
}

var cardIDKeys = []string{"card_id", "cardId", "tokenId", "token_id"}

// ParseIssuedCards returns the card ids issued for roundID, in log order and
// without duplicates. Logs that name another round are skipped.
func ParseIssuedCards(r Receipt, roundID int64) []string {
	var ids []string
	seen := make(map[string]bool)
	for _, l := range r.Logs {
		if !strings.EqualFold(l.Name, CardPurchasedEvent) {
			continue
		}
		if rid, ok := l.Fields["round_id"]; ok {
			if n, err := strconv.ParseInt(rid, 10, 64); err == nil && n != roundID {
				continue
			}
		}
		for _, key := range cardIDKeys {
			id := strings.TrimSpace(l.Fields[key])
			if id == "" {
				continue
			}
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
			break
		}
	}
	return ids
}
