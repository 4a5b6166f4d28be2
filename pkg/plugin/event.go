package plugin

import (
	"context"
	"time"
)

// Event is a message published on the event bus.
type Event struct {
	Topic     string
	Source    string
	Timestamp time.Time
	Payload   any
}

// EventHandler consumes an event.
type EventHandler func(ctx context.Context, event Event)

// EventBus distributes events between modules.
type EventBus interface {
	// Publish delivers the event to all matching handlers before returning.
	Publish(ctx context.Context, event Event) error

	// PublishAsync delivers the event on a separate goroutine.
	PublishAsync(ctx context.Context, event Event)

	// Subscribe registers a handler for one topic and returns its unsubscribe func.
	Subscribe(topic string, handler EventHandler) func()

	// SubscribeAll registers a handler for every topic.
	SubscribeAll(handler EventHandler) func()
}

// Well-known topics.
const (
	// TopicProductChanged is published after any product create, update,
	// delete, or import. Payload is a ProductChange.
	TopicProductChanged = "catalog.product.changed"
)

// ProductChange describes a product write.
type ProductChange struct {
	Action string   `json:"action"` // "created", "updated", "deleted", "imported"
	IDs    []string `json:"ids,omitempty"`
}
