package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"

	"github.com/lllypuk/commons/internal/infrastructure/httpserver"
)

const (
	DefaultRateLimit       = 30
	DefaultRateLimitWindow = time.Minute
)

// RateLimitStore counts hits per key in fixed windows.
type RateLimitStore interface {
	// Increment bumps the counter for key, starting a new window if none is open.
	Increment(ctx context.Context, key string, window time.Duration) (int64, error)
	// TTL is the time left in key's current window.
	TTL(ctx context.Context, key string) (time.Duration, error)
}

type RateLimitConfig struct {
	Logger *slog.Logger
	Store  RateLimitStore
	Limit  int
	Window time.Duration
	// Scope separates counters of limiters that share a store.
	Scope string
}

// RateLimit limits requests per authenticated user, falling back to the
// client IP. Store failures let the request through.
func RateLimit(config RateLimitConfig) echo.MiddlewareFunc {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Limit <= 0 {
		config.Limit = DefaultRateLimit
	}
	if config.Window <= 0 {
		config.Window = DefaultRateLimitWindow
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if config.Store == nil {
				return next(c)
			}
			ctx := c.Request().Context()
			key := rateLimitKey(c, config.Scope)

			count, err := config.Store.Increment(ctx, key, config.Window)
			if err != nil {
				config.Logger.ErrorContext(ctx, "failed to increment rate limit counter",
					slog.String("key", key),
					slog.String("error", err.Error()),
				)
				return next(c)
			}

			limit := int64(config.Limit)
			c.Response().Header().Set("X-Ratelimit-Limit", strconv.FormatInt(limit, 10))
			c.Response().Header().Set("X-Ratelimit-Remaining", strconv.FormatInt(max(limit-count, 0), 10))

			if count <= limit {
				return next(c)
			}

			ttl, _ := config.Store.TTL(ctx, key)
			config.Logger.WarnContext(ctx, "rate limit exceeded",
				slog.String("key", key),
				slog.Int64("count", count),
				slog.Int64("limit", limit),
			)
			if ttl > 0 {
				c.Response().Header().Set("Retry-After", strconv.FormatInt(int64(ttl.Seconds()+0.5), 10))
			}
			return httpserver.RespondErrorWithCode(c, http.StatusTooManyRequests,
				"RATE_LIMIT_EXCEEDED", "Too many requests. Please try again later.")
		}
	}
}

func rateLimitKey(c echo.Context, scope string) string {
	if scope == "" {
		scope = "default"
	}
	if userID := GetUserID(c); !userID.IsZero() {
		return fmt.Sprintf("%s:user:%s", scope, userID)
	}
	return fmt.Sprintf("%s:ip:%s", scope, c.RealIP())
}

// MemoryRateLimitStore keeps counters in process. Suitable for a single instance.
type MemoryRateLimitStore struct {
	items *cache.Cache
}

func NewMemoryRateLimitStore() *MemoryRateLimitStore {
	return &MemoryRateLimitStore{items: cache.New(DefaultRateLimitWindow, 5*time.Minute)}
}

func (s *MemoryRateLimitStore) Increment(_ context.Context, key string, window time.Duration) (int64, error) {
	// Add fails when the window is already open, which is fine
	_ = s.items.Add(key, int64(0), window)
	n, err := s.items.IncrementInt64(key, 1)
	if err != nil {
		// expired between Add and Increment
		s.items.Set(key, int64(1), window)
		return 1, nil //nolint:nilerr // a fresh window was opened instead
	}
	return n, nil
}

func (s *MemoryRateLimitStore) TTL(_ context.Context, key string) (time.Duration, error) {
	_, exp, ok := s.items.GetWithExpiration(key)
	if !ok || exp.IsZero() {
		return 0, nil
	}
	return time.Until(exp), nil
}

// RedisRateLimitStore shares counters across instances.
type RedisRateLimitStore struct {
	client    *redis.Client
	keyPrefix string
}

func NewRedisRateLimitStore(client *redis.Client, keyPrefix string) *RedisRateLimitStore {
	if keyPrefix == "" {
		keyPrefix = "commons:ratelimit:"
	}
	return &RedisRateLimitStore{client: client, keyPrefix: keyPrefix}
}

func (s *RedisRateLimitStore) Increment(ctx context.Context, key string, window time.Duration) (int64, error) {
	fullKey := s.keyPrefix + key

	var incr *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, fullKey)
		pipe.ExpireNX(ctx, fullKey, window)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to increment counter: %w", err)
	}
	return incr.Val(), nil
}

func (s *RedisRateLimitStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	return s.client.TTL(ctx, s.keyPrefix+key).Result()
}
