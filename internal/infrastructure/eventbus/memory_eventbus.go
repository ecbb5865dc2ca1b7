package eventbus

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/lllypuk/commons/internal/domain/event"
)

// MemoryEventBus delivers events synchronously to in-process subscribers.
// It backs single-instance deployments and tests that run without Redis.
type MemoryEventBus struct {
	logger *slog.Logger

	mu       sync.RWMutex
	handlers map[string][]event.Handler
}

func NewMemoryEventBus(logger *slog.Logger) *MemoryEventBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &MemoryEventBus{
		logger:   logger,
		handlers: make(map[string][]event.Handler),
	}
}

// Publish calls every handler subscribed to the event's type in order.
// Handler errors are joined and returned; all handlers still run.
func (b *MemoryEventBus) Publish(ctx context.Context, evt event.DomainEvent) error {
	if evt == nil {
		return ErrNilEvent
	}

	b.mu.RLock()
	handlers := b.handlers[evt.EventType()]
	b.mu.RUnlock()

	var errs []error
	for _, handler := range handlers {
		if err := handler(ctx, evt); err != nil {
			b.logger.WarnContext(ctx, "event handler failed",
				slog.String("event_type", evt.EventType()),
				slog.String("aggregate_id", evt.AggregateID()),
				slog.String("error", err.Error()),
			)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (b *MemoryEventBus) Subscribe(eventType string, handler event.Handler) error {
	if eventType == "" {
		return ErrEmptyEventType
	}
	if handler == nil {
		return ErrNilHandler
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
	return nil
}

func (b *MemoryEventBus) HandlerCount(eventType string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[eventType])
}

var _ event.Bus = (*MemoryEventBus)(nil)
