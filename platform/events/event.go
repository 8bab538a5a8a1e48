// Package events provides the in-process event bus that decouples the intake
// pipeline from its side-effect consumers (currently the reminder flow).
// This is part of the platform layer and contains no business logic.
package events

import (
	"context"
	"time"
)

// Event is implemented by every domain event published on the bus.
type Event interface {
	// EventName identifies the event type; subscribers key on it.
	EventName() string
	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time
}

// BaseEvent carries the timestamp shared by all events.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

// OccurredAt returns when the event occurred.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// NewBaseEvent creates a base event stamped with the current time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now()}
}

// Handler consumes events of one type. A returned error is logged by the
// bus; it never propagates back to the publisher.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, event Event) error

// Handle calls the underlying function.
func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus publishes domain events to subscribed handlers.
type Bus interface {
	// Publish fans the event out to its handlers asynchronously. Publishing
	// never blocks on or fails because of a handler.
	Publish(ctx context.Context, event Event)

	// PublishSync runs all handlers before returning and reports the first
	// handler error. Used where the caller needs the side effects completed.
	PublishSync(ctx context.Context, event Event) error

	// Subscribe registers a handler for the named event type, matching the
	// value the event returns from EventName().
	Subscribe(eventName string, handler Handler)
}
