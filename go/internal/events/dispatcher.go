package events

import (
	"context"

	"github.com/rs/zerolog/log"
)

const defaultQueueSize = 256

// Dispatcher decouples producers from slow sinks. Enqueue never blocks, so it
// can be called while the producer holds its own lock; events are delivered
// in enqueue order by Run.
type Dispatcher struct {
	sink  Sink
	queue chan Event
}

func NewDispatcher(sink Sink, size int) *Dispatcher {
	if size <= 0 {
		size = defaultQueueSize
	}
	if sink == nil {
		sink = NoOpSink{}
	}
	return &Dispatcher{sink: sink, queue: make(chan Event, size)}
}

// Enqueue schedules ev for delivery and drops it when the queue is full.
func (d *Dispatcher) Enqueue(ev Event) {
	select {
	case d.queue <- ev:
	default:
		log.Warn().
			Str("event_type", string(ev.Type)).
			Int64("round_id", ev.RoundID).
			Msg("event queue full, dropping event")
	}
}

// Run delivers queued events until ctx is done.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-d.queue:
			if err := d.sink.Publish(ctx, ev); err != nil {
				log.Error().
					Err(err).
					Str("event_type", string(ev.Type)).
					Str("event_id", ev.ID.String()).
					Msg("failed to publish event")
			}
		}
	}
}
