package ws

import (
	"context"
	"fmt"

	"forum-chat/domain/event"
	"forum-chat/observability"
)

// Sink buffers domain events for one connection. Consume is called by
// the directory (under its lock) and by the relay; it must never block,
// so a full buffer drops the event and reports it to the caller.
type Sink struct {
	events  chan event.DomainEvent
	monitor *observability.Monitor
}

func NewSink(bufferSize int, monitor *observability.Monitor) *Sink {
	return &Sink{events: make(chan event.DomainEvent, bufferSize), monitor: monitor}
}

// Consume hands the event to the session's write pump.
func (s *Sink) Consume(ctx context.Context, e event.DomainEvent) error {
	select {
	case s.events <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		s.monitor.IncrDroppedEvents()
		return fmt.Errorf("sink full, dropped %q event", e.Kind())
	}
}

// Events is drained by the write pump.
func (s *Sink) Events() <-chan event.DomainEvent {
	return s.events
}
