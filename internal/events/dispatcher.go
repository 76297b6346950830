package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// EventHandler handles a published event.
type EventHandler func(context.Context, Event) error

// Dispatcher fans customer events out to subscribers.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType EventType, handler EventHandler)
	SubscribeAll(handler EventHandler)
}

// Bus delivers each event synchronously to the handlers of its type, then to catch-all handlers.
// Every handler runs even if an earlier one fails or panics.
type Bus struct {
	mu       sync.RWMutex
	byType   map[EventType][]EventHandler
	catchAll []EventHandler
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{byType: make(map[EventType][]EventHandler)}
}

// Publish returns the joined handler failures, or nil.
func (b *Bus) Publish(ctx context.Context, event Event) error {
	b.mu.RLock()
	handlers := make([]EventHandler, 0, len(b.byType[event.Type])+len(b.catchAll))
	handlers = append(handlers, b.byType[event.Type]...)
	handlers = append(handlers, b.catchAll...)
	b.mu.RUnlock()

	var errs []error
	for i, handler := range handlers {
		if err := invoke(ctx, handler, event); err != nil {
			errs = append(errs, fmt.Errorf("%s handler %d: %w", event.Type, i, err))
		}
	}
	return errors.Join(errs...)
}

// Subscribe registers handler for one event type.
func (b *Bus) Subscribe(eventType EventType, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.byType[eventType] = append(b.byType[eventType], handler)
}

// SubscribeAll registers handler for every event type.
func (b *Bus) SubscribeAll(handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.catchAll = append(b.catchAll, handler)
}

func invoke(ctx context.Context, handler EventHandler, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return handler(ctx, event)
}
