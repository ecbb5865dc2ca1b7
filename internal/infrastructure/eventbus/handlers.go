package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/lllypuk/commons/internal/domain/event"
	"github.com/lllypuk/commons/internal/domain/user"
	"github.com/lllypuk/commons/internal/domain/uuid"
)

const (
	deadLetterQueueKey    = "events:dead_letter"
	defaultMaxDeadLetters = 1000
	maxPayloadLogLength   = 500
	defaultDeadLetterPeek = 10
)

// LifecycleEventTypes lists every event a user lifecycle transition can emit.
func LifecycleEventTypes() []string {
	return []string{
		user.EventTypeUserBanned,
		user.EventTypeUserUnbanned,
		user.EventTypeUserDetained,
		user.EventTypeUserReleased,
		user.EventTypeUserDeleted,
		user.EventTypeUserLifecycleImported,
	}
}

// Subscriber is implemented by both bus flavours.
type Subscriber interface {
	Subscribe(eventType string, handler event.Handler) error
}

// PayloadEvent is an event that still carries its serialized body.
type PayloadEvent interface {
	Payload() json.RawMessage
}

// AuditHandler writes every event it receives to the log.
type AuditHandler struct {
	logger *slog.Logger
}

func NewAuditHandler(logger *slog.Logger) *AuditHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditHandler{logger: logger}
}

func (h *AuditHandler) Handle(ctx context.Context, evt event.DomainEvent) error {
	attrs := []any{
		slog.String("event_type", evt.EventType()),
		slog.String("aggregate_id", evt.AggregateID()),
		slog.String("aggregate_type", evt.AggregateType()),
		slog.Time("occurred_at", evt.OccurredAt()),
		slog.Int("version", evt.Version()),
	}

	meta := evt.Metadata()
	if meta.UserID != "" {
		attrs = append(attrs, slog.String("actor_id", meta.UserID))
	}
	if meta.CorrelationID != "" {
		attrs = append(attrs, slog.String("correlation_id", meta.CorrelationID))
	}
	if pe, ok := evt.(PayloadEvent); ok {
		payload := string(pe.Payload())
		if len(payload) > maxPayloadLogLength {
			payload = payload[:maxPayloadLogLength] + "..."
		}
		attrs = append(attrs, slog.String("payload", payload))
	}

	h.logger.InfoContext(ctx, "domain event", attrs...)
	return nil
}

// StatusInvalidator drops a cached lifecycle status older than version.
type StatusInvalidator interface {
	Invalidate(id uuid.UUID, version int)
}

// StatusInvalidationHandler keeps per-instance status caches coherent: a
// transition made on one instance evicts the user on every instance.
type StatusInvalidationHandler struct {
	cache StatusInvalidator
}

func NewStatusInvalidationHandler(cache StatusInvalidator) *StatusInvalidationHandler {
	return &StatusInvalidationHandler{cache: cache}
}

func (h *StatusInvalidationHandler) Handle(_ context.Context, evt event.DomainEvent) error {
	id, err := uuid.ParseUUID(evt.AggregateID())
	if err != nil {
		return fmt.Errorf("invalid aggregate id %q: %w", evt.AggregateID(), err)
	}
	h.cache.Invalidate(id, evt.Version())
	return nil
}

// DeadLetterHandler keeps events whose handlers gave up in a capped Redis list.
type DeadLetterHandler struct {
	client     *redis.Client
	logger     *slog.Logger
	queueKey   string
	maxEntries int64
}

// DeadLetterEntry is one failed event as stored in the queue.
type DeadLetterEntry struct {
	EventType     string          `json:"event_type"`
	AggregateID   string          `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	Error         string          `json:"error"`
	Payload       json.RawMessage `json:"payload,omitempty"`
	Timestamp     int64           `json:"timestamp"`
}

type DeadLetterOption func(*DeadLetterHandler)

func WithDeadLetterQueueKey(key string) DeadLetterOption {
	return func(h *DeadLetterHandler) {
		h.queueKey = key
	}
}

func WithDeadLetterLogger(logger *slog.Logger) DeadLetterOption {
	return func(h *DeadLetterHandler) {
		h.logger = logger
	}
}

func WithMaxDeadLetters(n int64) DeadLetterOption {
	return func(h *DeadLetterHandler) {
		h.maxEntries = n
	}
}

func NewDeadLetterHandler(client *redis.Client, opts ...DeadLetterOption) *DeadLetterHandler {
	h := &DeadLetterHandler{
		client:     client,
		logger:     slog.Default(),
		queueKey:   deadLetterQueueKey,
		maxEntries: defaultMaxDeadLetters,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle pushes evt to the head of the queue and trims the tail.
func (h *DeadLetterHandler) Handle(ctx context.Context, evt event.DomainEvent, cause error) {
	entry := DeadLetterEntry{
		EventType:     evt.EventType(),
		AggregateID:   evt.AggregateID(),
		AggregateType: evt.AggregateType(),
		Error:         cause.Error(),
		Timestamp:     evt.OccurredAt().Unix(),
	}
	if pe, ok := evt.(PayloadEvent); ok {
		entry.Payload = pe.Payload()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to marshal dead letter entry",
			slog.String("event_type", evt.EventType()),
			slog.String("error", err.Error()),
		)
		return
	}

	if err = h.client.LPush(ctx, h.queueKey, data).Err(); err != nil {
		h.logger.ErrorContext(ctx, "failed to push to dead letter queue",
			slog.String("event_type", evt.EventType()),
			slog.String("error", err.Error()),
		)
		return
	}
	if err = h.client.LTrim(ctx, h.queueKey, 0, h.maxEntries-1).Err(); err != nil {
		h.logger.WarnContext(ctx, "failed to trim dead letter queue", slog.String("error", err.Error()))
	}

	h.logger.ErrorContext(ctx, "event moved to dead letter queue",
		slog.String("event_type", evt.EventType()),
		slog.String("aggregate_id", evt.AggregateID()),
		slog.String("original_error", cause.Error()),
	)
}

// Peek returns up to count of the most recent entries.
func (h *DeadLetterHandler) Peek(ctx context.Context, count int64) ([]DeadLetterEntry, error) {
	if count <= 0 {
		count = defaultDeadLetterPeek
	}

	raw, err := h.client.LRange(ctx, h.queueKey, 0, count-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read dead letters: %w", err)
	}

	entries := make([]DeadLetterEntry, 0, len(raw))
	for _, item := range raw {
		var entry DeadLetterEntry
		if err = json.Unmarshal([]byte(item), &entry); err != nil {
			h.logger.WarnContext(ctx, "failed to unmarshal dead letter entry", slog.String("error", err.Error()))
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (h *DeadLetterHandler) Len(ctx context.Context) (int64, error) {
	return h.client.LLen(ctx, h.queueKey).Result()
}

func (h *DeadLetterHandler) Clear(ctx context.Context) error {
	return h.client.Del(ctx, h.queueKey).Err()
}

// RegisterLifecycleHandlers subscribes the audit log and, when cache is
// non-nil, status invalidation to every lifecycle event type.
func RegisterLifecycleHandlers(bus Subscriber, audit *AuditHandler, cache StatusInvalidator) error {
	var handlers []event.Handler
	if audit != nil {
		handlers = append(handlers, audit.Handle)
	}
	if cache != nil {
		handlers = append(handlers, NewStatusInvalidationHandler(cache).Handle)
	}

	for _, eventType := range LifecycleEventTypes() {
		for _, handler := range handlers {
			if err := bus.Subscribe(eventType, handler); err != nil {
				return fmt.Errorf("failed to subscribe to %s: %w", eventType, err)
			}
		}
	}
	if audit != nil {
		if err := bus.Subscribe(user.EventTypeUserRegistered, audit.Handle); err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", user.EventTypeUserRegistered, err)
		}
	}
	return nil
}
