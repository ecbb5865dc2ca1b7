package mocks

import (
	"context"
	"sync"

	"github.com/lllypuk/commons/internal/domain/event"
)

// MockEventBus records published events and can be told to fail.
type MockEventBus struct {
	mu         sync.RWMutex
	published  []event.DomainEvent
	handlers   map[string][]event.Handler
	publishErr error
}

// NewMockEventBus creates an empty MockEventBus
func NewMockEventBus() *MockEventBus {
	return &MockEventBus{handlers: make(map[string][]event.Handler)}
}

// Publish records evt and runs subscribed handlers synchronously
func (b *MockEventBus) Publish(ctx context.Context, evt event.DomainEvent) error {
	b.mu.Lock()
	if b.publishErr != nil {
		err := b.publishErr
		b.mu.Unlock()
		return err
	}
	b.published = append(b.published, evt)
	handlers := b.handlers[evt.EventType()]
	b.mu.Unlock()

	for _, handler := range handlers {
		if err := handler(ctx, evt); err != nil {
			return err
		}
	}
	return nil
}

// Subscribe registers handler for eventType
func (b *MockEventBus) Subscribe(eventType string, handler event.Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// FailWith makes every later Publish return err. Pass nil to recover.
func (b *MockEventBus) FailWith(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.publishErr = err
}

// PublishedEvents returns a copy of everything published so far
func (b *MockEventBus) PublishedEvents() []event.DomainEvent {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]event.DomainEvent{}, b.published...)
}

// PublishedTypes returns the event types in publish order
func (b *MockEventBus) PublishedTypes() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	types := make([]string, 0, len(b.published))
	for _, evt := range b.published {
		types = append(types, evt.EventType())
	}
	return types
}

// Reset clears recorded events and handlers
func (b *MockEventBus) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = nil
	b.handlers = make(map[string][]event.Handler)
	b.publishErr = nil
}
