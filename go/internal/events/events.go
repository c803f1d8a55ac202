// Package events carries engine events to observers: the websocket gateway and
// an optional JetStream stream.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Type names an engine event.
type Type string

const (
	TypeRoundSelected     Type = "RoundSelected"
	TypeStateChanged      Type = "StateChanged"
	TypePhaseChanged      Type = "PhaseChanged"
	TypeBallRevealed      Type = "BallRevealed"
	TypeRoundResolved     Type = "RoundResolved"
	TypePurchaseStep      Type = "PurchaseStep"
	TypePurchaseCompleted Type = "PurchaseCompleted"
	TypePurchaseFailed    Type = "PurchaseFailed"
	TypeReset             Type = "Reset"
)

// Event is the envelope published for every engine change.
type Event struct {
	ID        uuid.UUID       `json:"event_id"`
	Type      Type            `json:"event_type"`
	RoundID   int64           `json:"round_id"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// New builds an event with a fresh id. payload may be nil.
func New(typ Type, roundID int64, at time.Time, payload any) (Event, error) {
	ev := Event{
		ID:        uuid.New(),
		Type:      typ,
		RoundID:   roundID,
		Timestamp: at.UTC(),
	}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return Event{}, fmt.Errorf("marshal %s payload: %w", typ, err)
		}
		ev.Data = data
	}
	return ev, nil
}

// Sink receives events.
type Sink interface {
	Publish(ctx context.Context, ev Event) error
}

// NoOpSink drops everything.
type NoOpSink struct{}

func (NoOpSink) Publish(context.Context, Event) error { return nil }

// MultiSink publishes to every sink and joins their errors.
type MultiSink []Sink

func (m MultiSink) Publish(ctx context.Context, ev Event) error {
	var errs []error
	for _, s := range m {
		if err := s.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
