package events

import (
	"context"
	"sync"
)

// EventHandler consumes one delivered event.
type EventHandler func(context.Context, Event) error

// Dispatcher decouples the services that record notification-worthy
// activity (message created, role changed) from the realtime pipeline
// that pushes it to connected users.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType EventType, handler EventHandler)
}

type memoryDispatcher struct {
	mu          sync.RWMutex
	subscribers map[EventType][]EventHandler
}

// NewInMemoryDispatcher builds the process-local dispatcher. Delivery is
// synchronous: Publish returns after every subscriber for the event type
// has run.
func NewInMemoryDispatcher() Dispatcher {
	return &memoryDispatcher{
		subscribers: make(map[EventType][]EventHandler),
	}
}

// Publish delivers the event to every subscriber of its type. Delivery is
// best-effort: a failing subscriber never blocks the operation that
// raised the event, nor the subscribers after it.
func (d *memoryDispatcher) Publish(ctx context.Context, event Event) error {
	d.mu.RLock()
	handlers := append([]EventHandler(nil), d.subscribers[event.Type]...)
	d.mu.RUnlock()

	for _, handler := range handlers {
		_ = handler(ctx, event)
	}
	return nil
}

// Subscribe registers a handler for one event type.
func (d *memoryDispatcher) Subscribe(eventType EventType, handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.subscribers[eventType] = append(d.subscribers[eventType], handler)
}
