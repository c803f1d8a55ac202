package lobby

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/bingosync/go/internal/models"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultRoomListInterval  = 4 * time.Second
	DefaultDiscoveryInterval = 10 * time.Second

	discoveryConcurrency = 4
)

// RoomLister reads rooms and their current rounds.
type RoomLister interface {
	ListRooms(ctx context.Context) ([]models.Room, error)
	CurrentRound(ctx context.Context, roomID string) (int64, error)
}

// Poller refreshes a Store on two cadences: the room list and, less often,
// the current round of every room.
type Poller struct {
	lister            RoomLister
	store             *Store
	clock             clockwork.Clock
	roomListInterval  time.Duration
	discoveryInterval time.Duration
	wakeCh            chan struct{}
}

func NewPoller(lister RoomLister, store *Store, clock clockwork.Clock, roomListInterval, discoveryInterval time.Duration) *Poller {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if roomListInterval <= 0 {
		roomListInterval = DefaultRoomListInterval
	}
	if discoveryInterval <= 0 {
		discoveryInterval = DefaultDiscoveryInterval
	}
	return &Poller{
		lister:            lister,
		store:             store,
		clock:             clock,
		roomListInterval:  roomListInterval,
		discoveryInterval: discoveryInterval,
		wakeCh:            make(chan struct{}, 1),
	}
}

// RequestRefresh asks for an immediate refresh of both the list and the
// current rounds, for example after a purchase hit an expired round.
func (p *Poller) RequestRefresh() {
	select {
	case p.wakeCh <- struct{}{}:
	default:
	}
}

// Run polls until ctx is done.
func (p *Poller) Run(ctx context.Context) error {
	listTicker := p.clock.NewTicker(p.roomListInterval)
	defer listTicker.Stop()
	discoveryTicker := p.clock.NewTicker(p.discoveryInterval)
	defer discoveryTicker.Stop()

	log.Info().
		Dur("room_list_interval", p.roomListInterval).
		Dur("discovery_interval", p.discoveryInterval).
		Msg("lobby poller started")

	p.refreshRooms(ctx)
	p.discoverRounds(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("lobby poller stopped")
			return nil
		case <-listTicker.Chan():
			p.refreshRooms(ctx)
		case <-discoveryTicker.Chan():
			p.discoverRounds(ctx)
		case <-p.wakeCh:
			p.refreshRooms(ctx)
			p.discoverRounds(ctx)
		}
	}
}

func (p *Poller) refreshRooms(ctx context.Context) {
	rooms, err := p.lister.ListRooms(ctx)
	if err != nil {
		if ctx.Err() == nil {
			log.Warn().Err(err).Msg("room list poll failed")
		}
		return
	}
	p.store.Replace(rooms, p.clock.Now())
}

func (p *Poller) discoverRounds(ctx context.Context) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(discoveryConcurrency)
	for _, room := range p.store.Rooms() {
		roomID := room.RoomID
		g.Go(func() error {
			roundID, err := p.lister.CurrentRound(gctx, roomID)
			if err != nil {
				// one room failing does not stop discovery for the others
				log.Warn().Err(err).Str("room_id", roomID).Msg("round discovery failed")
				return nil
			}
			p.store.SetCurrentRound(roomID, roundID)
			return nil
		})
	}
	_ = g.Wait()
}
