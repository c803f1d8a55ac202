package lobby

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/bingosync/go/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLister struct {
	mu     sync.Mutex
	rooms  []models.Room
	rounds map[string]int64
	lists  int
}

func (f *fakeLister) ListRooms(context.Context) ([]models.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	return append([]models.Room(nil), f.rooms...), nil
}

func (f *fakeLister) CurrentRound(_ context.Context, roomID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.rounds[roomID]
	if !ok {
		return 0, errors.New("unknown room")
	}
	return id, nil
}

func (f *fakeLister) setRound(roomID string, id int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rounds[roomID] = id
}

func (f *fakeLister) Lists() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lists
}

func TestStoreKeepsDiscoveredRound(t *testing.T) {
	s := NewStore()
	now := time.Now()
	s.Replace([]models.Room{{RoomID: "b"}, {RoomID: "a", Jackpot: decimal.NewFromInt(5)}}, now)
	s.SetCurrentRound("a", 11)
	s.SetCurrentRound("zzz", 1)

	s.Replace([]models.Room{{RoomID: "a", Jackpot: decimal.NewFromInt(6)}}, now.Add(time.Second))
	rooms := s.Rooms()
	require.Len(t, rooms, 1)
	assert.Equal(t, int64(11), rooms[0].CurrentRoundID)
	assert.True(t, rooms[0].Jackpot.Equal(decimal.NewFromInt(6)))
	assert.Equal(t, now.Add(time.Second), s.UpdatedAt())

	_, ok := s.Room("b")
	assert.False(t, ok)
}

func TestPollerRefreshesAndDiscovers(t *testing.T) {
	clock := clockwork.NewFakeClock()
	lister := &fakeLister{
		rooms:  []models.Room{{RoomID: "a"}, {RoomID: "b"}},
		rounds: map[string]int64{"a": 1},
	}
	store := NewStore()
	p := NewPoller(lister, store, clock, 4*time.Second, 10*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	require.Eventually(t, func() bool {
		r, ok := store.Room("a")
		return ok && r.CurrentRoundID == 1
	}, time.Second, time.Millisecond)
	r, _ := store.Room("b")
	assert.Zero(t, r.CurrentRoundID)

	lister.setRound("a", 2)
	lister.setRound("b", 3)
	require.NoError(t, clock.BlockUntilContext(ctx, 2))
	clock.Advance(10 * time.Second)
	require.Eventually(t, func() bool {
		r, _ := store.Room("b")
		return r.CurrentRoundID == 3
	}, time.Second, time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestRequestRefreshWakesPoller(t *testing.T) {
	clock := clockwork.NewFakeClock()
	lister := &fakeLister{rooms: []models.Room{{RoomID: "a"}}, rounds: map[string]int64{"a": 1}}
	p := NewPoller(lister, NewStore(), clock, time.Hour, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = p.Run(ctx) }()

	require.Eventually(t, func() bool { return lister.Lists() == 1 }, time.Second, time.Millisecond)
	p.RequestRefresh()
	require.Eventually(t, func() bool { return lister.Lists() == 2 }, time.Second, time.Millisecond)
}
