package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"leadflow_backend/platform/logger"
)

type testEvent struct {
	BaseEvent
	name string
}

func (e testEvent) EventName() string { return e.name }

func TestPublishSyncInvokesAllHandlers(t *testing.T) {
	bus := NewInMemoryBus(logger.New("development"))

	calls := 0
	bus.Subscribe("unit.test", HandlerFunc(func(context.Context, Event) error {
		calls++
		return nil
	}))
	bus.Subscribe("unit.test", HandlerFunc(func(context.Context, Event) error {
		calls++
		return nil
	}))

	if err := bus.PublishSync(context.Background(), testEvent{NewBaseEvent(), "unit.test"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 handler calls, got %d", calls)
	}
}

func TestPublishSyncAggregatesHandlerErrors(t *testing.T) {
	bus := NewInMemoryBus(logger.New("development"))

	sentinel := errors.New("handler failed")
	bus.Subscribe("unit.test", HandlerFunc(func(context.Context, Event) error {
		return sentinel
	}))
	bus.Subscribe("unit.test", HandlerFunc(func(context.Context, Event) error {
		return nil
	}))

	err := bus.PublishSync(context.Background(), testEvent{NewBaseEvent(), "unit.test"})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected aggregated error to contain sentinel, got %v", err)
	}
}

func TestPublishSkipsUnrelatedEvents(t *testing.T) {
	bus := NewInMemoryBus(logger.New("development"))

	done := make(chan struct{}, 1)
	bus.Subscribe("unit.other", HandlerFunc(func(context.Context, Event) error {
		done <- struct{}{}
		return nil
	}))

	bus.Publish(context.Background(), testEvent{NewBaseEvent(), "unit.test"})

	select {
	case <-done:
		t.Fatal("handler for a different event name should not fire")
	case <-time.After(50 * time.Millisecond):
	}
}
