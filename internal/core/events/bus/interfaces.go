package bus

import "time"

// EventBus is a thread-safe, in-process pub/sub bus for nudge lifecycle
// events.
//
// Delivery is synchronous: Publish calls every handler of event.Type() in the
// caller goroutine, in subscription order, and joins their errors. Metrics are
// only collected while at least one observer is registered.
type EventBus interface {
	// Publish delivers the event to all active subscribers of event.Type().
	Publish(event Event) error
	// PublishAsync publishes in a separate goroutine. The returned channel
	// receives the joined handler error (or nil) and is then closed.
	PublishAsync(event Event) <-chan error

	// Subscribe registers a handler for one event type.
	Subscribe(eventType string, handler EventHandler) (Subscription, error)
	// Unsubscribe cancels sub. A nil sub is ignored.
	Unsubscribe(sub Subscription) error

	AddObserver(obs Observer)
	RemoveObserver(obs Observer)
	// GetMetrics returns a snapshot of the counters.
	GetMetrics() Metrics
}

// Event is an immutable message. Type is the routing key.
type Event interface {
	Type() string
	Source() string
	Timestamp() time.Time
	Data() any
	Priority() int
	Metadata() map[string]any
}

// EventHandler is invoked once per delivered event.
type EventHandler func(event Event) error

// Subscription is a registered handler. Cancel may be called more than once.
type Subscription interface {
	ID() string
	EventType() string
	IsActive() bool
	Cancel() error
}

// Observer is told about every publish. Implementations must return quickly.
type Observer interface {
	OnPublish(eventType string, event Event)
	OnDelivered(eventType string, handlers int, err error, took time.Duration)
}

type Metrics struct {
	Published         uint64
	DeliveredHandlers uint64
	Errors            uint64
	SubscribersActive uint64
}
