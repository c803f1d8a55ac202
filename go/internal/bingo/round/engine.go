// Package round is the client state machine for one selected bingo round. It
// folds poll snapshots, animation ticks and player actions into a single view.
// All mutation happens under one mutex, so poll- and timer-driven updates are
// applied one at a time.
package round

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/bingosync/go/internal/bingo/animation"
	"github.com/mcdev12/bingosync/go/internal/bingo/marking"
	"github.com/mcdev12/bingosync/go/internal/bingo/purchase"
	"github.com/mcdev12/bingosync/go/internal/bingo/timeline"
	"github.com/mcdev12/bingosync/go/internal/events"
	"github.com/mcdev12/bingosync/go/internal/models"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// RoundSource reads round facts and the player's cards.
type RoundSource interface {
	FetchSnapshot(ctx context.Context, roundID int64) (models.RoundSnapshot, error)
	FetchCards(ctx context.Context, roundID int64) ([]models.Card, error)
}

// Purchaser buys cards.
type Purchaser interface {
	Buy(ctx context.Context, roundID int64, count int, progress purchase.ProgressFunc) (*purchase.Result, error)
}

// BalanceStore is the wallet the engine debits optimistically.
type BalanceStore interface {
	ApplyDelta(amount decimal.Decimal)
	RefreshAsync()
}

// SnapshotHandler receives poll results.
type SnapshotHandler interface {
	ApplySnapshot(snap models.RoundSnapshot)
}

// Watcher polls one round at a time on behalf of the engine.
type Watcher interface {
	Watch(roundID int64, h SnapshotHandler)
	Stop()
}

// LobbyRefresher is asked for an early room list refresh.
type LobbyRefresher interface {
	RequestRefresh()
}

// ResolvedRound is what gets archived once a round is resolved.
type ResolvedRound struct {
	Round      models.Round
	CardIDs    []string
	Verified   *bool
	Animated   bool
	ResolvedAt time.Time
}

// Archiver records resolved rounds.
type Archiver interface {
	RecordResolved(ctx context.Context, r ResolvedRound) error
}

// EventQueue accepts engine events without blocking.
type EventQueue interface {
	Enqueue(ev events.Event)
}

// Config wires the engine. Only Source and Purchaser are required.
type Config struct {
	Source       RoundSource
	Purchaser    Purchaser
	Wallet       BalanceStore
	Watcher      Watcher
	Lobby        LobbyRefresher
	Archive      Archiver
	Events       EventQueue
	Clock        clockwork.Clock
	Timing       timeline.Timing
	TickInterval time.Duration
}

// Engine is the round state machine.
type Engine struct {
	source    RoundSource
	purchaser Purchaser
	wallet    BalanceStore
	watcher   Watcher
	lobby     LobbyRefresher
	archive   Archiver
	events    EventQueue
	clock     clockwork.Clock
	timing    timeline.Timing
	tick      time.Duration

	instanceID string
	ctx        context.Context
	cancel     context.CancelFunc

	mu         sync.Mutex
	state      State
	generation uint64
	round      *models.Round
	cards      []models.Card
	offset     time.Duration

	revealed []int
	index    int
	phase    timeline.Phase
	manual   marking.NumberSet
	autoMark bool
	verified *bool
	derived  bool
	animated bool

	driver     *animation.Driver
	driverSeq  uint64
	catchingUp bool

	purchaseStep   purchase.Step
	purchaseCancel context.CancelFunc
	lastError      *purchase.Outcome
}

func NewEngine(cfg Config) *Engine {
	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		source:     cfg.Source,
		purchaser:  cfg.Purchaser,
		wallet:     cfg.Wallet,
		watcher:    cfg.Watcher,
		lobby:      cfg.Lobby,
		archive:    cfg.Archive,
		events:     cfg.Events,
		clock:      cfg.Clock,
		timing:     cfg.Timing,
		tick:       cfg.TickInterval,
		instanceID: uuid.New().String()[:8],
		ctx:        ctx,
		cancel:     cancel,
		state:      StateBrowsing,
		manual:     marking.NewNumberSet(),
		autoMark:   true,
	}
	if e.clock == nil {
		e.clock = clockwork.NewRealClock()
	}
	if e.timing.BallInterval <= 0 {
		e.timing = timeline.DefaultTiming
	}
	if e.tick <= 0 {
		e.tick = animation.DefaultTickInterval
	}
	return e
}

// Close stops background work owned by the engine.
func (e *Engine) Close() {
	e.mu.Lock()
	e.stopDriverLocked()
	e.cancelPurchaseLocked()
	e.mu.Unlock()
	if e.watcher != nil {
		e.watcher.Stop()
	}
	e.cancel()
}

// State returns the current state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// SelectRound fetches roundID and its owned cards and derives the initial
// state from the round status. Only allowed from Browsing or Resolved.
func (e *Engine) SelectRound(ctx context.Context, roundID int64) error {
	e.mu.Lock()
	if !e.state.Selectable() {
		st := e.state
		e.mu.Unlock()
		return invalidTransition("select round", st)
	}
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	var (
		snap  models.RoundSnapshot
		cards []models.Card
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snap, err = e.source.FetchSnapshot(gctx, roundID)
		if err != nil {
			return fmt.Errorf("fetch round %d: %w", roundID, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		cards, err = e.source.FetchCards(gctx, roundID)
		if err != nil {
			return fmt.Errorf("fetch cards for round %d: %w", roundID, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		if errorsIsRoundNotFound(err) && e.lobby != nil {
			e.lobby.RequestRefresh()
		}
		return err
	}
	if err := snap.Validate(); err != nil {
		return fmt.Errorf("round %d not ready: %w", roundID, err)
	}
	if len(cards) == 0 {
		cards = snap.Cards
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.generation != gen {
		return ErrSuperseded
	}
	if !e.state.Selectable() {
		return invalidTransition("select round", e.state)
	}

	e.clearRoundLocked()
	r := snap.Round
	e.round = &r
	e.cards = ownCards(cards, roundID)
	e.updateOffsetLocked(snap.ServerTime)
	e.prepareSequenceLocked()

	switch r.Status {
	case models.RoundStatusOpen:
		if len(e.cards) > 0 {
			e.setStateLocked(StateWaitingClose)
		} else {
			e.setStateLocked(StateBrowsing)
		}
	default:
		e.setStateLocked(StateWaitingVrf)
	}

	log.Info().
		Int64("round_id", roundID).
		Str("status", string(r.Status)).
		Int("cards", len(e.cards)).
		Str("instance", e.instanceID).
		Msg("round selected")
	e.emitLocked(events.TypeRoundSelected, events.RoundSelectedPayload{
		RoomID: r.RoomID,
		Status: string(r.Status),
		State:  string(e.state),
		Cards:  len(e.cards),
	})

	e.advanceLocked()
	if e.state != StateResolved && e.watcher != nil {
		e.watcher.Watch(roundID, e)
	}
	return nil
}

// BuyCards runs a purchase for the selected open round. It blocks until the
// purchase finishes or CancelPurchase is called.
func (e *Engine) BuyCards(ctx context.Context, count int) (*purchase.Result, error) {
	e.mu.Lock()
	if e.state != StateBrowsing {
		st := e.state
		e.mu.Unlock()
		return nil, invalidTransition("buy cards", st)
	}
	if e.round == nil {
		e.mu.Unlock()
		return nil, ErrNoRound
	}
	if e.round.Status != models.RoundStatusOpen {
		e.mu.Unlock()
		return nil, ErrRoundNotOpen
	}
	roundID := e.round.RoundID
	gen := e.generation
	pctx, cancel := context.WithCancel(ctx)
	e.purchaseCancel = cancel
	e.purchaseStep = ""
	e.lastError = nil
	e.setStateLocked(StateBuying)
	e.mu.Unlock()
	defer cancel()

	res, err := e.purchaser.Buy(pctx, roundID, count, func(step purchase.Step) {
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.generation != gen || e.state != StateBuying {
			return
		}
		e.purchaseStep = step
		e.emitLocked(events.TypePurchaseStep, events.PurchaseStepPayload{Step: string(step), Count: count})
	})

	var cards []models.Card
	if err == nil {
		e.debit(res.Total)
		var ferr error
		cards, ferr = e.source.FetchCards(ctx, roundID)
		if ferr != nil {
			log.Warn().Err(ferr).Int64("round_id", roundID).Msg("failed to fetch cards after purchase")
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.purchaseCancel = nil
	e.purchaseStep = ""
	if e.generation != gen || e.state != StateBuying {
		// reset or closed while the purchase was running
		if err != nil {
			return nil, err
		}
		return res, nil
	}

	if err != nil {
		e.failPurchaseLocked(err)
		return nil, err
	}

	e.cards = mergeCards(e.cards, ownCards(cards, roundID))
	log.Info().
		Int64("round_id", roundID).
		Int("count", res.Count).
		Int("owned", len(e.cards)).
		Msg("purchase completed")
	e.emitLocked(events.TypePurchaseCompleted, events.PurchaseCompletedPayload{
		Count:   res.Count,
		Total:   res.Total,
		CardIDs: res.CardIDs,
		TxHash:  res.TxHash,
	})
	e.setStateLocked(StateWaitingClose)
	e.advanceLocked()
	return res, nil
}

func (e *Engine) debit(total decimal.Decimal) {
	if e.wallet == nil {
		return
	}
	e.wallet.ApplyDelta(total.Neg())
	e.wallet.RefreshAsync()
}

func (e *Engine) failPurchaseLocked(err error) {
	out := purchase.Classify(err)
	log.Warn().
		Err(err).
		Str("kind", string(out.Kind)).
		Str("instance", e.instanceID).
		Msg("purchase failed")

	if !out.Silent {
		e.lastError = &out
	}
	if out.RefreshLobby && e.lobby != nil {
		e.lobby.RequestRefresh()
	}
	e.emitLocked(events.TypePurchaseFailed, events.PurchaseFailedPayload{Kind: string(out.Kind), Message: out.Message})
	if out.Recoverable {
		e.setStateLocked(StateBrowsing)
	} else {
		e.setStateLocked(StateError)
	}
}

// CancelPurchase aborts a running purchase. The purchase reports a user
// cancellation and the engine returns to Browsing.
func (e *Engine) CancelPurchase() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateBuying {
		return invalidTransition("cancel purchase", e.state)
	}
	e.cancelPurchaseLocked()
	return nil
}

func (e *Engine) cancelPurchaseLocked() {
	if e.purchaseCancel != nil {
		e.purchaseCancel()
	}
}

// ToggleAutoMark flips the auto-mark preference and returns the new value.
func (e *Engine) ToggleAutoMark() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.autoMark = !e.autoMark
	return e.autoMark
}

// ToggleMark flips the manual mark for number and reports whether it is now
// marked. Unrevealed numbers are left alone.
func (e *Engine) ToggleMark(number int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.manual = marking.ToggleManualMark(e.manual, marking.NewRevealedSet(e.revealed), number)
	return e.manual.Has(number)
}

// SkipToResults ends the running animation and jumps to the final reveal.
func (e *Engine) SkipToResults() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.state.Animating() || e.driver == nil {
		return invalidTransition("skip to results", e.state)
	}
	d := e.driver
	d.Stop()
	for _, ev := range d.FastForward() {
		e.applyAnimationEventLocked(ev)
	}
	return nil
}

// Reset abandons the current round from any state.
func (e *Engine) Reset() {
	e.mu.Lock()
	e.generation++
	e.cancelPurchaseLocked()
	e.clearRoundLocked()
	e.setStateLocked(StateBrowsing)
	e.emitLocked(events.TypeReset, events.ResetPayload{ResetAt: e.clock.Now().UTC()})
	e.mu.Unlock()

	if e.watcher != nil {
		e.watcher.Stop()
	}
	log.Info().Str("instance", e.instanceID).Msg("engine reset")
}

func (e *Engine) clearRoundLocked() {
	e.stopDriverLocked()
	e.round = nil
	e.cards = nil
	e.offset = 0
	e.revealed = nil
	e.index = 0
	e.phase = ""
	e.manual = marking.NewNumberSet()
	e.verified = nil
	e.derived = false
	e.animated = false
	e.purchaseStep = ""
	e.lastError = nil
}

func (e *Engine) setStateLocked(s State) {
	if e.state == s {
		return
	}
	from := e.state
	e.state = s
	log.Debug().
		Str("from", string(from)).
		Str("to", string(s)).
		Int64("round_id", e.roundIDLocked()).
		Msg("state changed")
	e.emitLocked(events.TypeStateChanged, events.StateChangedPayload{From: string(from), To: string(s)})
}

func (e *Engine) roundIDLocked() int64 {
	if e.round == nil {
		return 0
	}
	return e.round.RoundID
}

func (e *Engine) emitLocked(typ events.Type, payload any) {
	if e.events == nil {
		return
	}
	ev, err := events.New(typ, e.roundIDLocked(), e.clock.Now(), payload)
	if err != nil {
		log.Error().Err(err).Str("event_type", string(typ)).Msg("failed to build event")
		return
	}
	e.events.Enqueue(ev)
}

func ownCards(cards []models.Card, roundID int64) []models.Card {
	out := make([]models.Card, 0, len(cards))
	for _, c := range cards {
		if c.RoundID == 0 || c.RoundID == roundID {
			out = append(out, c)
		}
	}
	return out
}

// mergeCards adds cards not yet present, keeping existing order.
func mergeCards(have, add []models.Card) []models.Card {
	seen := make(map[string]bool, len(have))
	for _, c := range have {
		seen[c.CardID] = true
	}
	for _, c := range add {
		if !seen[c.CardID] {
			seen[c.CardID] = true
			have = append(have, c)
		}
	}
	return have
}
