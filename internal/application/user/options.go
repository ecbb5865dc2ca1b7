package user

import (
	"context"
	"log/slog"
	"time"

	"github.com/lllypuk/commons/internal/domain/event"
	"github.com/lllypuk/commons/internal/domain/user"
)

// LifecycleRecorder receives lifecycle observations, typically for metrics.
type LifecycleRecorder interface {
	RecordTransition(kind string)
	RecordGateRejection(state user.State)
}

type noopRecorder struct{}

func (noopRecorder) RecordTransition(string)        {}
func (noopRecorder) RecordGateRejection(user.State) {}

// Option configures the lifecycle use cases
type Option func(*options)

type options struct {
	logger   *slog.Logger
	clock    func() time.Time
	cache    *StatusCache
	recorder LifecycleRecorder
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithClock replaces time.Now
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithStatusCache puts a cache in front of status lookups
func WithStatusCache(cache *StatusCache) Option {
	return func(o *options) {
		o.cache = cache
	}
}

// WithRecorder sets the lifecycle recorder
func WithRecorder(recorder LifecycleRecorder) Option {
	return func(o *options) {
		if recorder != nil {
			o.recorder = recorder
		}
	}
}

func newOptions(opts []Option) options {
	o := options{
		logger:   slog.Default(),
		clock:    func() time.Time { return time.Now().UTC() },
		recorder: noopRecorder{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// publishEvents publishes what u recorded and marks it committed. The user is
// already saved, so publish failures are logged and not returned.
func (o options) publishEvents(ctx context.Context, bus event.Bus, u *user.User) {
	if bus == nil {
		u.MarkEventsAsCommitted()
		return
	}
	for _, evt := range u.UncommittedEvents() {
		if err := bus.Publish(ctx, evt); err != nil {
			o.logger.WarnContext(ctx, "failed to publish user event",
				slog.String("user_id", u.ID().String()),
				slog.String("event_type", evt.EventType()),
				slog.String("error", err.Error()),
			)
		}
	}
	u.MarkEventsAsCommitted()
}
