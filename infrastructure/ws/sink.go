package ws

import (
	"context"
	"fmt"

	"chat-relay/domain/event"
)

var errBufferFull = fmt.Errorf("connection buffer full")

// Sink is the connection handle registered in the presence registry.
// It decouples fan-out from the socket: the fan-out goroutine drops
// events into the buffer and the connection's write loop drains it, so
// a slow connection can never block delivery to other handles.
type Sink struct {
	events chan event.Event
}

func NewSink(bufferSize int) *Sink {
	return &Sink{events: make(chan event.Event, bufferSize)}
}

// Consume queues e for the connection. It never blocks: a full buffer
// means the connection is too slow and the event is dropped.
func (s *Sink) Consume(ctx context.Context, e event.Event) error {
	select {
	case s.events <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return errBufferFull
	}
}

// Events is drained by the owning connection's write loop.
func (s *Sink) Events() <-chan event.Event {
	return s.events
}
