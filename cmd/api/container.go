// Package main provides the API server entry point.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/lllypuk/commons/internal/application/appcore"
	userapp "github.com/lllypuk/commons/internal/application/user"
	"github.com/lllypuk/commons/internal/config"
	"github.com/lllypuk/commons/internal/domain/event"
	httphandler "github.com/lllypuk/commons/internal/handler/http"
	"github.com/lllypuk/commons/internal/infrastructure/auth"
	"github.com/lllypuk/commons/internal/infrastructure/eventbus"
	"github.com/lllypuk/commons/internal/infrastructure/healthcheck"
	"github.com/lllypuk/commons/internal/infrastructure/httpserver"
	"github.com/lllypuk/commons/internal/infrastructure/metrics"
	mongodbinfra "github.com/lllypuk/commons/internal/infrastructure/mongodb"
	"github.com/lllypuk/commons/internal/infrastructure/repository/mongodb"
	"github.com/lllypuk/commons/internal/middleware"
	"github.com/lllypuk/commons/internal/service"
)

// Container initialization timeouts.
const (
	containerInitTimeout   = 30 * time.Second
	redisPingTimeout       = 5 * time.Second
	mongoDisconnectTimeout = 10 * time.Second
)

const rateLimitKeyPrefix = "commons:ratelimit:"

// TokenValidator is a middleware.TokenValidator that holds resources until closed.
type TokenValidator interface {
	middleware.TokenValidator
	Close() error
}

// Container holds all application dependencies and manages their lifecycle.
type Container struct {
	Config *config.Config
	Logger *slog.Logger

	// Infrastructure
	MongoDB  *mongo.Client
	Redis    *redis.Client
	Registry *prometheus.Registry

	EventBus    event.Bus
	RedisBus    *eventbus.RedisEventBus
	MemoryBus   *eventbus.MemoryEventBus
	DeadLetters *eventbus.DeadLetterHandler
	Audit       *eventbus.AuditHandler

	// Repositories
	UserRepo *mongodb.MongoUserRepository

	// Lifecycle
	StatusCache      *userapp.StatusCache
	LifecycleMetrics *metrics.LifecycleMetrics
	HTTPMetrics      *metrics.HTTPMetrics

	// Services
	UserService   *service.UserService
	ActorResolver *service.ActorResolver

	// Auth
	TokenValidator TokenValidator

	Health *httpserver.CheckerSet

	// HTTP Handlers
	UserHandler *httphandler.UserHandler
}

// ContainerOption configures the Container.
type ContainerOption func(*Container)

// WithLogger sets a custom logger for the container.
func WithLogger(logger *slog.Logger) ContainerOption {
	return func(c *Container) {
		c.Logger = logger
	}
}

// NewContainer connects to the backing stores and wires every component.
// Partially initialized resources are released when it fails.
func NewContainer(cfg *config.Config, opts ...ContainerOption) (*Container, error) {
	c := &Container{
		Config: cfg,
		Logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}

	if err := c.setupInfrastructure(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to setup infrastructure: %w", err)
	}

	c.setupMetrics()
	c.setupEventBus()
	c.setupRepositories()
	c.setupServices()

	if err := c.setupTokenValidator(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to setup token validator: %w", err)
	}

	c.setupHealth()
	c.setupHTTPHandlers()

	if err := c.validateWiring(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("wiring validation failed: %w", err)
	}

	return c, nil
}

func (c *Container) validateWiring() error {
	var errs []error
	if c.MongoDB == nil {
		errs = append(errs, errors.New("mongodb client not initialized"))
	}
	if c.Redis == nil && c.Config.NeedsRedis() {
		errs = append(errs, errors.New("redis client not initialized"))
	}
	if c.EventBus == nil {
		errs = append(errs, errors.New("event bus not initialized"))
	}
	if c.TokenValidator == nil {
		errs = append(errs, errors.New("token validator not initialized"))
	}
	if c.UserService == nil || c.ActorResolver == nil {
		errs = append(errs, errors.New("user service not initialized"))
	}
	if c.UserHandler == nil {
		errs = append(errs, errors.New("user handler not initialized"))
	}
	return errors.Join(errs...)
}

func (c *Container) setupInfrastructure() error {
	ctx, cancel := context.WithTimeout(context.Background(), containerInitTimeout)
	defer cancel()

	if err := c.setupMongoDB(ctx); err != nil {
		return fmt.Errorf("mongodb: %w", err)
	}

	if c.Config.NeedsRedis() {
		if err := c.setupRedis(ctx); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}

	return nil
}

// setupMongoDB connects, pings and creates the indexes.
func (c *Container) setupMongoDB(ctx context.Context) error {
	clientOpts := options.Client().
		ApplyURI(c.Config.MongoDB.URI).
		SetMaxPoolSize(c.Config.MongoDB.MaxPoolSize)

	client, connectErr := mongo.Connect(clientOpts)
	if connectErr != nil {
		return fmt.Errorf("failed to connect: %w", connectErr)
	}
	c.MongoDB = client

	pingCtx, cancel := context.WithTimeout(ctx, c.Config.MongoDB.Timeout)
	defer cancel()

	if pingErr := client.Ping(pingCtx, nil); pingErr != nil {
		return fmt.Errorf("failed to ping: %w", pingErr)
	}

	c.Logger.InfoContext(ctx, "connected to MongoDB",
		slog.String("database", c.Config.MongoDB.Database),
	)

	indexCtx, indexCancel := context.WithTimeout(ctx, c.Config.MongoDB.Timeout)
	defer indexCancel()

	if indexErr := mongodbinfra.CreateAllIndexes(indexCtx, c.database()); indexErr != nil {
		return fmt.Errorf("failed to create indexes: %w", indexErr)
	}

	c.Logger.InfoContext(ctx, "MongoDB indexes created successfully")
	return nil
}

func (c *Container) setupRedis(ctx context.Context) error {
	c.Redis = redis.NewClient(&redis.Options{
		Addr:     c.Config.Redis.Addr,
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.DB,
		PoolSize: c.Config.Redis.PoolSize,
	})

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()

	if pingErr := c.Redis.Ping(pingCtx).Err(); pingErr != nil {
		return fmt.Errorf("failed to ping: %w", pingErr)
	}

	c.Logger.InfoContext(ctx, "connected to Redis", slog.String("addr", c.Config.Redis.Addr))
	return nil
}

func (c *Container) database() *mongo.Database {
	return c.MongoDB.Database(c.Config.MongoDB.Database)
}

// setupMetrics registers the collectors on a private registry served at /metrics.
func (c *Container) setupMetrics() {
	if !c.Config.Metrics.Enabled {
		c.Logger.Debug("metrics disabled by configuration")
		return
	}

	c.Registry = prometheus.NewRegistry()
	c.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	c.HTTPMetrics = metrics.NewHTTPMetrics(c.Registry)
	c.LifecycleMetrics = metrics.NewLifecycleMetrics(c.Registry)
}

func (c *Container) setupEventBus() {
	backend := strings.ToLower(c.Config.EventBus.Backend)
	if backend == config.EventBusMemory {
		c.MemoryBus = eventbus.NewMemoryEventBus(c.Logger)
		c.EventBus = c.MemoryBus
		c.Logger.Debug("event bus initialized", slog.String("backend", backend))
		return
	}

	c.DeadLetters = eventbus.NewDeadLetterHandler(c.Redis,
		eventbus.WithDeadLetterQueueKey(c.Config.EventBus.DeadLetterKey),
		eventbus.WithDeadLetterLogger(c.Logger),
	)

	retry := eventbus.DefaultRetryConfig()
	retry.MaxRetries = c.Config.EventBus.MaxRetries

	c.RedisBus = eventbus.NewRedisEventBus(
		c.Redis,
		eventbus.WithLogger(c.Logger),
		eventbus.WithChannelPrefix(c.Config.EventBus.ChannelPrefix),
		eventbus.WithRetryConfig(retry),
		eventbus.WithFailureSink(c.DeadLetters),
	)
	c.EventBus = c.RedisBus

	c.Logger.Debug("event bus initialized",
		slog.String("backend", backend),
		slog.String("prefix", c.Config.EventBus.ChannelPrefix),
	)
}

func (c *Container) setupRepositories() {
	c.UserRepo = mongodb.NewMongoUserRepository(
		c.database().Collection(mongodbinfra.CollectionUsers),
		mongodb.WithUserRepoLogger(c.Logger),
	)
}

// userOptions are shared by every lifecycle use case so they see one cache
// and one recorder.
func (c *Container) userOptions() []userapp.Option {
	opts := []userapp.Option{
		userapp.WithLogger(c.Logger),
		userapp.WithStatusCache(c.StatusCache),
	}
	if c.LifecycleMetrics != nil {
		opts = append(opts, userapp.WithRecorder(c.LifecycleMetrics))
	}
	return opts
}

func (c *Container) setupServices() {
	c.wireUserServices(c.UserRepo)
}

// wireUserServices builds the user service and the actor resolver over repo.
func (c *Container) wireUserServices(repo userapp.Repository) {
	c.StatusCache = userapp.NewStatusCache(c.Config.Lifecycle.StatusCacheTTL)

	opts := c.userOptions()
	c.UserService = service.NewUserService(repo, c.EventBus, opts...)
	c.ActorResolver = service.NewActorResolver(
		userapp.NewResolveActorUseCase(repo, c.EventBus, c.Config.Auth.AutoProvision, opts...),
		c.Config.Auth.AdminRoles,
	)
	c.Audit = eventbus.NewAuditHandler(c.Logger)
}

// setupTokenValidator prefers a JWKS endpoint and falls back to the shared secret.
func (c *Container) setupTokenValidator() error {
	authCfg := c.Config.Auth
	if authCfg.UsesJWKS() {
		v, err := auth.NewJWKSValidator(auth.JWKSConfig{
			URL:             authCfg.JWKSURL,
			Issuer:          authCfg.Issuer,
			Audience:        authCfg.Audience,
			Leeway:          authCfg.Leeway,
			RefreshInterval: authCfg.JWKSRefreshInterval,
			Logger:          c.Logger,
		})
		if err != nil {
			return err
		}
		c.TokenValidator = v
		c.Logger.Info("token validation via JWKS", slog.String("url", authCfg.JWKSURL))
		return nil
	}

	v, err := auth.NewHMACValidator(auth.HMACConfig{
		Secret:   authCfg.HMACSecret,
		Issuer:   authCfg.Issuer,
		Audience: authCfg.Audience,
		Leeway:   authCfg.Leeway,
	})
	if err != nil {
		return err
	}
	c.TokenValidator = v
	if !c.Config.IsProduction() {
		c.Logger.Warn("token validation uses the development HMAC secret")
	}
	return nil
}

// setupHealth makes the stores required for readiness. A non-empty dead
// letter queue only degrades the service.
func (c *Container) setupHealth() {
	required := []appcore.HealthChecker{healthcheck.NewMongoChecker(c.MongoDB)}
	if c.Redis != nil {
		required = append(required, healthcheck.NewRedisChecker(c.Redis))
	}
	c.Health = httpserver.NewCheckerSet(required...)
	if c.DeadLetters != nil {
		c.Health.WithOptional(healthcheck.NewDeadLetterChecker(c.DeadLetters))
	}
}

func (c *Container) setupHTTPHandlers() {
	write := []echo.MiddlewareFunc{middleware.RequireActive(c.UserService, c.Logger)}
	if c.Config.RateLimit.Enabled {
		write = append(write, middleware.RateLimit(middleware.RateLimitConfig{
			Logger: c.Logger,
			Store:  c.rateLimitStore(),
			Limit:  c.Config.RateLimit.Limit,
			Window: c.Config.RateLimit.Window,
			Scope:  "write",
		}))
	}

	c.UserHandler = httphandler.NewUserHandler(c.UserService, httphandler.UserHandlerConfig{
		DefaultLimit:    c.Config.Paging.DefaultLimit,
		MaxLimit:        c.Config.Paging.MaxLimit,
		WriteMiddleware: write,
	})
}

func (c *Container) rateLimitStore() middleware.RateLimitStore {
	if c.Redis != nil {
		return middleware.NewRedisRateLimitStore(c.Redis, rateLimitKeyPrefix)
	}
	return middleware.NewMemoryRateLimitStore()
}

// subscriber is whichever bus flavour is configured.
func (c *Container) subscriber() eventbus.Subscriber {
	if c.RedisBus != nil {
		return c.RedisBus
	}
	return c.MemoryBus
}

// StartEventBus registers the lifecycle handlers and, for the Redis backend,
// starts listening in the background. Call before the server accepts requests.
func (c *Container) StartEventBus(ctx context.Context) error {
	var invalidator eventbus.StatusInvalidator
	if c.StatusCache != nil {
		invalidator = c.StatusCache
	}
	if err := eventbus.RegisterLifecycleHandlers(c.subscriber(), c.Audit, invalidator); err != nil {
		return fmt.Errorf("failed to register event handlers: %w", err)
	}

	if c.RedisBus == nil {
		c.Logger.InfoContext(ctx, "in-memory event bus ready")
		return nil
	}

	go func() {
		if err := c.RedisBus.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			c.Logger.Error("event bus error", slog.String("error", err.Error()))
		}
	}()

	c.Logger.InfoContext(ctx, "event bus started")
	return nil
}

// Close releases every resource that was opened, in reverse order.
func (c *Container) Close() error {
	c.Logger.Info("closing container resources...")

	var errs []error

	if c.TokenValidator != nil {
		if err := c.TokenValidator.Close(); err != nil {
			errs = append(errs, fmt.Errorf("token validator close: %w", err))
		}
	}

	if c.RedisBus != nil {
		if err := c.RedisBus.Shutdown(); err != nil {
			errs = append(errs, fmt.Errorf("event bus shutdown: %w", err))
		} else {
			c.Logger.Debug("event bus stopped")
		}
	}

	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis close: %w", err))
		} else {
			c.Logger.Debug("redis connection closed")
		}
	}

	if c.MongoDB != nil {
		ctx, cancel := context.WithTimeout(context.Background(), mongoDisconnectTimeout)
		defer cancel()

		if err := c.MongoDB.Disconnect(ctx); err != nil {
			errs = append(errs, fmt.Errorf("mongodb disconnect: %w", err))
		} else {
			c.Logger.Debug("mongodb connection closed")
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	c.Logger.Info("all container resources closed")
	return nil
}

// IsReady reports whether every required store answers.
func (c *Container) IsReady(ctx context.Context) bool {
	if c.Health == nil {
		return false
	}
	return c.Health.IsReady(ctx)
}

func (c *Container) GetHealthStatus(ctx context.Context) []httpserver.ComponentStatus {
	if c.Health == nil {
		return nil
	}
	return c.Health.GetHealthStatus(ctx)
}

var _ httpserver.HealthChecker = (*Container)(nil)
