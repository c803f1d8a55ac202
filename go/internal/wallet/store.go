// Package wallet owns the player's balance as shown by the client. The engine
// writes optimistic deltas after a purchase and asks for authoritative
// refreshes; nothing else writes the balance.
package wallet

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// DefaultRefreshTimeout bounds a RefreshAsync call.
const DefaultRefreshTimeout = 10 * time.Second

// Ledger is the authoritative balance source.
type Ledger interface {
	Balance(ctx context.Context) (decimal.Decimal, error)
}

// Snapshot is a point-in-time copy of the store.
type Snapshot struct {
	Balance   decimal.Decimal `json:"balance"`
	Known     bool            `json:"known"`
	Pending   decimal.Decimal `json:"pending"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type delta struct {
	seq    uint64
	amount decimal.Decimal
}

// Store reconciles optimistic deltas with authoritative reads. A refresh that
// started before a delta was applied does not erase it; a refresh that
// finishes after a newer one has been applied is dropped.
type Store struct {
	ledger Ledger
	clock  clockwork.Clock

	mu             sync.Mutex
	base           decimal.Decimal
	known          bool
	updatedAt      time.Time
	seq            uint64
	appliedAtSeq   uint64
	deltas         []delta
	refreshTimeout time.Duration
}

func NewStore(ledger Ledger, clock clockwork.Clock) *Store {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Store{ledger: ledger, clock: clock, refreshTimeout: DefaultRefreshTimeout}
}

// Snapshot returns the displayed balance: the last authoritative value plus
// every delta not yet absorbed by it.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := decimal.Zero
	for _, d := range s.deltas {
		pending = pending.Add(d.amount)
	}
	return Snapshot{
		Balance:   s.base.Add(pending),
		Known:     s.known,
		Pending:   pending,
		UpdatedAt: s.updatedAt,
	}
}

// ApplyDelta records an optimistic change such as a purchase debit.
func (s *Store) ApplyDelta(amount decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.deltas = append(s.deltas, delta{seq: s.seq, amount: amount})
	s.updatedAt = s.clock.Now()
}

// Refresh reads the ledger and replaces the authoritative value.
func (s *Store) Refresh(ctx context.Context) error {
	s.mu.Lock()
	startSeq := s.seq
	s.mu.Unlock()

	bal, err := s.ledger.Balance(ctx)
	if err != nil {
		return fmt.Errorf("refresh balance: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.known && startSeq < s.appliedAtSeq {
		log.Debug().Uint64("start_seq", startSeq).Msg("dropping stale balance refresh")
		return nil
	}
	s.base = bal
	s.known = true
	s.appliedAtSeq = startSeq
	s.updatedAt = s.clock.Now()

	kept := s.deltas[:0]
	for _, d := range s.deltas {
		if d.seq > startSeq {
			kept = append(kept, d)
		}
	}
	s.deltas = kept
	return nil
}

// RefreshAsync refreshes in the background and only logs failures.
func (s *Store) RefreshAsync() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.refreshTimeout)
		defer cancel()
		if err := s.Refresh(ctx); err != nil {
			log.Warn().Err(err).Msg("background balance refresh failed")
		}
	}()
}
