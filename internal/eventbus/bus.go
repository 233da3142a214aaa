// Package eventbus provides the per-controller event bus. Delivery is
// synchronous: Publish returns after every matching subscriber ran, on the
// publishing goroutine, in subscription order.
package eventbus

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/matthewbaird/inplace/internal/event"
)

// Handler processes a field event.
type Handler interface {
	HandleEvent(ctx context.Context, evt event.Event) error
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(ctx context.Context, evt event.Event) error

func (f HandlerFunc) HandleEvent(ctx context.Context, evt event.Event) error {
	return f(ctx, evt)
}

// All subscribes to every event name.
const All event.Name = "*"

// Bus is a synchronous event bus owned by one controller.
type Bus struct {
	mu          sync.RWMutex
	subscribers []*Subscription
	nextID      uint64
	closed      bool
	log         zerolog.Logger
}

// Subscription is the handle returned by Subscribe.
type Subscription struct {
	id      uint64
	name    event.Name
	label   string
	handler Handler
	bus     *Bus
}

// Unsubscribe detaches the handler. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.bus == nil {
		return
	}
	s.bus.remove(s.id)
}

// New creates an empty bus logging handler errors to log.
func New(log zerolog.Logger) *Bus {
	return &Bus{log: log}
}

// Subscribe registers a labelled handler for one event name, or All.
// Subscribing to a closed bus returns a detached subscription.
func (b *Bus) Subscribe(name event.Name, label string, h Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return &Subscription{name: name, label: label}
	}
	b.nextID++
	s := &Subscription{id: b.nextID, name: name, label: label, handler: h, bus: b}
	b.subscribers = append(b.subscribers, s)
	return s
}

// Publish delivers evt to every matching subscriber. Events are published
// whether or not anyone listens; handler errors are logged and never
// returned to the publisher.
func (b *Bus) Publish(ctx context.Context, evt event.Event) {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return
	}
	subs := make([]*Subscription, len(b.subscribers))
	copy(subs, b.subscribers)
	b.mu.RUnlock()

	for _, s := range subs {
		if s.name != All && s.name != evt.Name {
			continue
		}
		if err := s.handler.HandleEvent(ctx, evt); err != nil {
			b.log.Warn().Err(err).Str("subscriber", s.label).Str("event", string(evt.Name)).
				Str("field", evt.FieldID).Msg("eventbus: handler error")
		}
	}
}

// Len returns the number of live subscriptions.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Close detaches every subscriber; later Publish calls are dropped.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, s := range b.subscribers {
		s.bus = nil
	}
	b.subscribers = nil
	b.closed = true
}

func (b *Bus) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subscribers {
		if s.id == id {
			s.bus = nil
			b.subscribers = append(b.subscribers[:i:i], b.subscribers[i+1:]...)
			return
		}
	}
}
