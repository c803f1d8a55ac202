package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (r *recorder) Publish(_ context.Context, ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

func (r *recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func TestNewEncodesPayload(t *testing.T) {
	at := time.Date(2025, 1, 1, 12, 0, 0, 0, time.FixedZone("x", 3600))
	ev, err := New(TypeBallRevealed, 7, at, BallRevealedPayload{Index: 2, Ball: 40, Revealed: 3})
	require.NoError(t, err)

	assert.Equal(t, TypeBallRevealed, ev.Type)
	assert.Equal(t, int64(7), ev.RoundID)
	assert.Equal(t, time.UTC, ev.Timestamp.Location())
	assert.NotEqual(t, ev.ID.String(), "00000000-0000-0000-0000-000000000000")

	var p BallRevealedPayload
	require.NoError(t, json.Unmarshal(ev.Data, &p))
	assert.Equal(t, 40, p.Ball)

	ev, err = New(TypeReset, 0, at, nil)
	require.NoError(t, err)
	assert.Nil(t, ev.Data)
}

func TestMultiSinkJoinsErrors(t *testing.T) {
	ok := &recorder{}
	bad := &recorder{err: errors.New("down")}
	err := MultiSink{ok, bad, NoOpSink{}}.Publish(context.Background(), Event{Type: TypeReset})
	require.Error(t, err)
	assert.Equal(t, 1, ok.Len())
	assert.Equal(t, 1, bad.Len())
}

func TestDispatcherDeliversInOrder(t *testing.T) {
	rec := &recorder{}
	d := NewDispatcher(rec, 8)
	for i := 0; i < 5; i++ {
		d.Enqueue(Event{Type: TypeBallRevealed, RoundID: int64(i)})
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = d.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return rec.Len() == 5 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	for i, ev := range rec.events {
		assert.Equal(t, int64(i), ev.RoundID)
	}
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	rec := &recorder{}
	d := NewDispatcher(rec, 1)
	d.Enqueue(Event{RoundID: 1})
	d.Enqueue(Event{RoundID: 2})
	assert.Len(t, d.queue, 1)
}

func TestSubject(t *testing.T) {
	cfg := DefaultJetStreamConfig()
	assert.Equal(t, "bingo.events.RoundResolved", cfg.Subject(TypeRoundResolved))
}
