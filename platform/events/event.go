// Package events implements the in-process domain event bus that wires
// the modules together without direct imports between them.
package events

import (
	"context"
	"time"
)

// Event is implemented by every domain event. EventName doubles as the
// subscription key.
type Event interface {
	EventName() string
	OccurredAt() time.Time
}

// BaseEvent carries the timestamp shared by all events; embed it and
// construct with NewBaseEvent.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now()}
}

func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// Handler consumes events delivered by the bus. A non-nil error is
// logged by the bus; it never propagates to the publisher.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus fans events out to subscribers registered by event name.
type Bus interface {
	// Publish delivers asynchronously; it returns before handlers run.
	Publish(ctx context.Context, event Event)
	// PublishSync delivers inline and returns the joined handler errors.
	// Intended for tests and startup wiring.
	PublishSync(ctx context.Context, event Event) error
	// Subscribe registers a handler under Event.EventName().
	Subscribe(eventName string, handler Handler)
}
