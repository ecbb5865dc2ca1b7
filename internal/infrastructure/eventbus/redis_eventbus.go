// Package eventbus delivers domain events to subscribers, either across
// instances over Redis Pub/Sub or in-process.
package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/lllypuk/commons/internal/domain/event"
)

const (
	defaultMaxRetries     = 3
	defaultInitialBackoff = 100 * time.Millisecond
	defaultMaxBackoff     = 5 * time.Second
	defaultBackoffFactor  = 2.0
	defaultChannelPrefix  = "events:"
)

var (
	ErrNilEvent       = errors.New("event cannot be nil")
	ErrEmptyEventType = errors.New("event type cannot be empty")
	ErrNilHandler     = errors.New("handler cannot be nil")
	ErrAlreadyRunning = errors.New("event bus is already running")
)

// envelope is the wire form of an event on a Redis channel.
type envelope struct {
	ID            string          `json:"id"`
	EventType     string          `json:"event_type"`
	AggregateID   string          `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Version       int             `json:"version"`
	Metadata      event.Metadata  `json:"metadata"`
	Payload       json.RawMessage `json:"payload"`
}

// ReceivedEvent is a DomainEvent rebuilt from an envelope. Handlers that need
// the concrete fields decode Payload into the event struct they expect.
type ReceivedEvent struct {
	env envelope
}

func (e *ReceivedEvent) ID() string               { return e.env.ID }
func (e *ReceivedEvent) EventType() string        { return e.env.EventType }
func (e *ReceivedEvent) AggregateID() string      { return e.env.AggregateID }
func (e *ReceivedEvent) AggregateType() string    { return e.env.AggregateType }
func (e *ReceivedEvent) OccurredAt() time.Time    { return e.env.OccurredAt }
func (e *ReceivedEvent) Version() int             { return e.env.Version }
func (e *ReceivedEvent) Metadata() event.Metadata { return e.env.Metadata }
func (e *ReceivedEvent) Payload() json.RawMessage { return e.env.Payload }

// DecodePayload unmarshals the event payload into v.
func (e *ReceivedEvent) DecodePayload(v any) error {
	if len(e.env.Payload) == 0 {
		return errors.New("event has no payload")
	}
	return json.Unmarshal(e.env.Payload, v)
}

// RetryConfig configures how often a failing handler is retried.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	BackoffFactor  float64
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     defaultMaxRetries,
		InitialBackoff: defaultInitialBackoff,
		MaxBackoff:     defaultMaxBackoff,
		BackoffFactor:  defaultBackoffFactor,
	}
}

// FailureSink receives events whose handler still failed after all retries.
type FailureSink interface {
	Handle(ctx context.Context, evt event.DomainEvent, err error)
}

// RedisEventBus implements event.Bus over Redis Pub/Sub. Each event type has
// its own channel, so instances only receive what they subscribed to.
type RedisEventBus struct {
	client        *redis.Client
	logger        *slog.Logger
	retryConfig   RetryConfig
	channelPrefix string
	failures      FailureSink

	handlers   map[string][]event.Handler
	handlersMu sync.RWMutex

	pubsub   *redis.PubSub
	pubsubMu sync.Mutex

	running   bool
	runningMu sync.Mutex
	shutdown  chan struct{}
	wg        sync.WaitGroup
}

// Option configures a RedisEventBus.
type Option func(*RedisEventBus)

func WithLogger(logger *slog.Logger) Option {
	return func(b *RedisEventBus) {
		b.logger = logger
	}
}

func WithRetryConfig(config RetryConfig) Option {
	return func(b *RedisEventBus) {
		b.retryConfig = config
	}
}

func WithChannelPrefix(prefix string) Option {
	return func(b *RedisEventBus) {
		b.channelPrefix = prefix
	}
}

// WithFailureSink sets where events go once their handler has given up.
func WithFailureSink(sink FailureSink) Option {
	return func(b *RedisEventBus) {
		b.failures = sink
	}
}

func NewRedisEventBus(client *redis.Client, opts ...Option) *RedisEventBus {
	b := &RedisEventBus{
		client:        client,
		logger:        slog.Default(),
		retryConfig:   DefaultRetryConfig(),
		channelPrefix: defaultChannelPrefix,
		handlers:      make(map[string][]event.Handler),
		shutdown:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Publish marshals evt into an envelope and publishes it on the event type's channel.
func (b *RedisEventBus) Publish(ctx context.Context, evt event.DomainEvent) error {
	if evt == nil {
		return ErrNilEvent
	}

	env, err := newEnvelope(evt)
	if err != nil {
		return err
	}
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	channel := b.channelName(evt.EventType())
	if err = b.client.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish event to Redis: %w", err)
	}

	b.logger.DebugContext(ctx, "event published",
		slog.String("event_id", env.ID),
		slog.String("event_type", env.EventType),
		slog.String("aggregate_id", env.AggregateID),
		slog.String("channel", channel),
	)
	return nil
}

// Subscribe registers handler for eventType. Subscriptions must be made
// before Start; the channel set is fixed once the bus is listening.
func (b *RedisEventBus) Subscribe(eventType string, handler event.Handler) error {
	if eventType == "" {
		return ErrEmptyEventType
	}
	if handler == nil {
		return ErrNilHandler
	}

	b.handlersMu.Lock()
	defer b.handlersMu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
	return nil
}

// Start listens on every subscribed channel and blocks until Shutdown is
// called or ctx is cancelled. Handlers run on their own goroutines.
func (b *RedisEventBus) Start(ctx context.Context) error {
	b.runningMu.Lock()
	if b.running {
		b.runningMu.Unlock()
		return ErrAlreadyRunning
	}
	b.running = true
	b.runningMu.Unlock()

	channels := b.subscribedChannels()
	if len(channels) == 0 {
		b.logger.WarnContext(ctx, "starting event bus with no subscriptions")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-b.shutdown:
			return nil
		}
	}

	pubsub := b.client.Subscribe(ctx, channels...)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("failed to subscribe to channels: %w", err)
	}

	b.pubsubMu.Lock()
	b.pubsub = pubsub
	b.pubsubMu.Unlock()

	b.logger.InfoContext(ctx, "event bus started",
		slog.Int("channel_count", len(channels)),
		slog.Any("channels", channels),
	)

	msgCh := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			b.logger.InfoContext(ctx, "event bus stopping due to context cancellation")
			return ctx.Err()
		case <-b.shutdown:
			b.logger.InfoContext(ctx, "event bus stopping due to shutdown signal")
			return nil
		case msg, ok := <-msgCh:
			if !ok {
				b.logger.WarnContext(ctx, "message channel closed")
				return nil
			}
			b.dispatch(ctx, msg)
		}
	}
}

// Shutdown stops listening and waits for running handlers to return.
func (b *RedisEventBus) Shutdown() error {
	b.runningMu.Lock()
	if !b.running {
		b.runningMu.Unlock()
		return nil
	}
	b.running = false
	b.runningMu.Unlock()

	close(b.shutdown)
	b.wg.Wait()

	b.pubsubMu.Lock()
	pubsub := b.pubsub
	b.pubsub = nil
	b.pubsubMu.Unlock()

	if pubsub != nil {
		if err := pubsub.Close(); err != nil {
			return fmt.Errorf("failed to close pubsub: %w", err)
		}
	}
	return nil
}

func (b *RedisEventBus) IsRunning() bool {
	b.runningMu.Lock()
	defer b.runningMu.Unlock()
	return b.running
}

func (b *RedisEventBus) HandlerCount(eventType string) int {
	b.handlersMu.RLock()
	defer b.handlersMu.RUnlock()
	return len(b.handlers[eventType])
}

// Ping reports whether the underlying Redis connection is usable.
func (b *RedisEventBus) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

func newEnvelope(evt event.DomainEvent) (envelope, error) {
	payload, err := json.Marshal(evt)
	if err != nil {
		return envelope{}, fmt.Errorf("failed to marshal event payload: %w", err)
	}
	return envelope{
		ID:            uuid.New().String(),
		EventType:     evt.EventType(),
		AggregateID:   evt.AggregateID(),
		AggregateType: evt.AggregateType(),
		OccurredAt:    evt.OccurredAt(),
		Version:       evt.Version(),
		Metadata:      evt.Metadata(),
		Payload:       payload,
	}, nil
}

func (b *RedisEventBus) channelName(eventType string) string {
	return b.channelPrefix + eventType
}

func (b *RedisEventBus) subscribedChannels() []string {
	b.handlersMu.RLock()
	defer b.handlersMu.RUnlock()

	channels := make([]string, 0, len(b.handlers))
	for eventType := range b.handlers {
		channels = append(channels, b.channelName(eventType))
	}
	return channels
}

func (b *RedisEventBus) dispatch(ctx context.Context, msg *redis.Message) {
	var env envelope
	if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
		b.logger.ErrorContext(ctx, "failed to unmarshal event",
			slog.String("channel", msg.Channel),
			slog.String("error", err.Error()),
		)
		return
	}
	evt := &ReceivedEvent{env: env}

	b.handlersMu.RLock()
	handlers := b.handlers[env.EventType]
	b.handlersMu.RUnlock()

	for i, handler := range handlers {
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			b.runWithRetry(ctx, handler, evt, i)
		}()
	}
}

// runWithRetry calls handler until it succeeds or retries run out, backing
// off exponentially between attempts.
func (b *RedisEventBus) runWithRetry(ctx context.Context, handler event.Handler, evt event.DomainEvent, idx int) {
	var lastErr error
	backoff := b.retryConfig.InitialBackoff

	for attempt := 0; attempt <= b.retryConfig.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				b.logger.WarnContext(ctx, "handler retry cancelled",
					slog.String("event_type", evt.EventType()),
					slog.String("error", ctx.Err().Error()),
				)
				return
			case <-time.After(backoff):
			}
			backoff = min(time.Duration(float64(backoff)*b.retryConfig.BackoffFactor), b.retryConfig.MaxBackoff)
		}

		lastErr = handler(ctx, evt)
		if lastErr == nil {
			return
		}
		b.logger.WarnContext(ctx, "event handler failed",
			slog.String("event_type", evt.EventType()),
			slog.String("aggregate_id", evt.AggregateID()),
			slog.Int("handler_index", idx),
			slog.Int("attempt", attempt),
			slog.String("error", lastErr.Error()),
		)
	}

	b.logger.ErrorContext(ctx, "event handler failed after all retries",
		slog.String("event_type", evt.EventType()),
		slog.String("aggregate_id", evt.AggregateID()),
		slog.Int("max_retries", b.retryConfig.MaxRetries),
		slog.String("error", lastErr.Error()),
	)
	if b.failures != nil {
		b.failures.Handle(ctx, evt, lastErr)
	}
}

var _ event.Bus = (*RedisEventBus)(nil)
