package bus

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chrisdevito/ViewNudger/internal/core/observability/log"
)

type simpleEvent struct {
	typeStr string
	source  string
	ts      time.Time
	data    any
	prio    int
	meta    map[string]any
}

func (e simpleEvent) Type() string             { return e.typeStr }
func (e simpleEvent) Source() string           { return e.source }
func (e simpleEvent) Timestamp() time.Time     { return e.ts }
func (e simpleEvent) Data() any                { return e.data }
func (e simpleEvent) Priority() int            { return e.prio }
func (e simpleEvent) Metadata() map[string]any { return e.meta }

// NewEvent creates an Event stamped with the current time.
func NewEvent(typ, src string, data any, priority int, metadata map[string]any) Event {
	return simpleEvent{typeStr: typ, source: src, ts: time.Now(), data: data, prio: priority, meta: metadata}
}

type subscription struct {
	id        string
	eventType string
	handler   EventHandler
	mu        sync.Mutex
	active    bool
	cancel    func()
}

func (s *subscription) ID() string        { return s.id }
func (s *subscription) EventType() string { return s.eventType }

func (s *subscription) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *subscription) Cancel() error {
	s.mu.Lock()
	wasActive := s.active
	s.active = false
	s.mu.Unlock()

	if wasActive && s.cancel != nil {
		s.cancel()
	}
	return nil
}

type inMemoryBus struct {
	mu sync.RWMutex
	// eventType -> subscriptions in subscription order
	handlers  map[string][]*subscription
	metrics   Metrics
	observers map[Observer]struct{}
}

// New creates an empty EventBus.
func New() EventBus {
	return &inMemoryBus{
		handlers:  make(map[string][]*subscription),
		observers: make(map[Observer]struct{}),
	}
}

func (b *inMemoryBus) Publish(event Event) error {
	start := time.Now()
	etype := event.Type()

	b.mu.RLock()
	subs := append([]*subscription(nil), b.handlers[etype]...)
	observers := make([]Observer, 0, len(b.observers))
	for obs := range b.observers {
		observers = append(observers, obs)
	}
	b.mu.RUnlock()

	for _, obs := range observers {
		obs.OnPublish(etype, event)
	}

	var errs []error
	delivered := 0
	for _, s := range subs {
		if !s.IsActive() {
			continue
		}
		delivered++
		if err := s.handler(event); err != nil {
			errs = append(errs, err)
		}
	}
	all := errors.Join(errs...)

	if len(observers) > 0 {
		took := time.Since(start)
		for _, obs := range observers {
			obs.OnDelivered(etype, delivered, all, took)
		}
		b.mu.Lock()
		b.metrics.Published++
		b.metrics.DeliveredHandlers += uint64(delivered)
		if all != nil {
			b.metrics.Errors++
		}
		b.mu.Unlock()
	}
	return all
}

func (b *inMemoryBus) PublishAsync(event Event) <-chan error {
	ch := make(chan error, 1)
	go func() {
		ch <- b.Publish(event)
		close(ch)
	}()
	return ch
}

func (b *inMemoryBus) Subscribe(eventType string, handler EventHandler) (Subscription, error) {
	if eventType == "" {
		return nil, ErrEmptyEventType
	}
	if handler == nil {
		return nil, ErrNilHandler
	}

	s := &subscription{id: uuid.NewString(), eventType: eventType, handler: handler, active: true}
	s.cancel = func() { b.remove(s) }

	b.mu.Lock()
	b.handlers[eventType] = append(b.handlers[eventType], s)
	b.metrics.SubscribersActive++
	b.mu.Unlock()
	return s, nil
}

func (b *inMemoryBus) remove(s *subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.handlers[s.eventType]
	for i, cur := range subs {
		if cur == s {
			b.handlers[s.eventType] = append(subs[:i:i], subs[i+1:]...)
			b.metrics.SubscribersActive--
			break
		}
	}
	if len(b.handlers[s.eventType]) == 0 {
		delete(b.handlers, s.eventType)
	}
}

func (b *inMemoryBus) Unsubscribe(sub Subscription) error {
	if sub == nil {
		return nil
	}
	return sub.Cancel()
}

func (b *inMemoryBus) AddObserver(obs Observer) {
	b.mu.Lock()
	b.observers[obs] = struct{}{}
	b.mu.Unlock()
}

func (b *inMemoryBus) RemoveObserver(obs Observer) {
	b.mu.Lock()
	delete(b.observers, obs)
	b.mu.Unlock()
}

func (b *inMemoryBus) GetMetrics() Metrics {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.metrics
}

// LogObserver writes one debug line per published event and a warning when a
// handler fails.
type LogObserver struct {
	logger log.Log
}

func NewLogObserver(logger log.Log) *LogObserver {
	if logger == nil {
		logger = log.NewNop()
	}
	return &LogObserver{logger: logger.With(log.String("component", "event_bus"))}
}

func (o *LogObserver) OnPublish(eventType string, event Event) {
	o.logger.Debug("Event published",
		log.String("type", eventType),
		log.String("source", event.Source()))
}

func (o *LogObserver) OnDelivered(eventType string, handlers int, err error, took time.Duration) {
	if err != nil {
		o.logger.Warn("Event handler failed",
			log.String("type", eventType),
			log.Int("handlers", handlers),
			log.Duration("took", took),
			log.Error(err))
		return
	}
	o.logger.Debug("Event delivered",
		log.String("type", eventType),
		log.Int("handlers", handlers),
		log.Duration("took", took))
}
