// Package config provides configuration loading and validation for the application.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default configuration constants.
const (
	DefaultHost            = "0.0.0.0"
	DefaultPort            = 8080
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
	DefaultBodyLimit       = "1M"

	DefaultMongoDBTimeout     = 10 * time.Second
	DefaultMongoDBMaxPoolSize = 100

	DefaultRedisPoolSize = 10

	DefaultJWTLeeway           = 30 * time.Second
	DefaultJWKSRefreshInterval = time.Hour

	DefaultPageLimit = 20
	MaxPageLimit     = 100

	DefaultStatusCacheTTL = 30 * time.Second

	DefaultRateLimit       = 30
	DefaultRateLimitWindow = time.Minute

	DefaultEventMaxRetries = 3

	devHMACSecret = "dev-secret-change-in-production"
)

// Event bus backends.
const (
	EventBusRedis  = "redis"
	EventBusMemory = "memory"
)

// Config holds the complete application configuration.
type Config struct {
	App       AppConfig       `yaml:"app"`
	Server    ServerConfig    `yaml:"server"`
	MongoDB   MongoDBConfig   `yaml:"mongodb"`
	Redis     RedisConfig     `yaml:"redis"`
	Auth      AuthConfig      `yaml:"auth"`
	EventBus  EventBusConfig  `yaml:"eventbus"`
	Paging    PagingConfig    `yaml:"paging"`
	Lifecycle LifecycleConfig `yaml:"lifecycle"`
	RateLimit RateLimitConfig `yaml:"ratelimit"`
	Log       LogConfig       `yaml:"log"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

type AppConfig struct {
	// Name is the application name used in logs.
	Name string `yaml:"name" env:"APP_NAME"`
}

//nolint:golines // Struct tags require longer lines for readability
type ServerConfig struct {
	Host            string        `yaml:"host" env:"SERVER_HOST"`
	Port            int           `yaml:"port" env:"SERVER_PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT"`
	BodyLimit       string        `yaml:"body_limit" env:"SERVER_BODY_LIMIT"`
	CORSOrigins     []string      `yaml:"cors_origins" env:"SERVER_CORS_ORIGINS"`
}

// Address returns the full server address (host:port).
func (c ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

//nolint:golines // Struct tags require longer lines for readability
type MongoDBConfig struct {
	URI         string        `yaml:"uri" env:"MONGODB_URI"`
	Database    string        `yaml:"database" env:"MONGODB_DATABASE"`
	Timeout     time.Duration `yaml:"timeout" env:"MONGODB_TIMEOUT"`
	MaxPoolSize uint64        `yaml:"max_pool_size" env:"MONGODB_MAX_POOL_SIZE"`
}

//nolint:golines // Struct tags require longer lines for readability
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB"`
	PoolSize int    `yaml:"pool_size" env:"REDIS_POOL_SIZE"`
}

// AuthConfig selects how bearer tokens are checked. With JWKSURL set tokens
// are verified against the identity provider's keys, otherwise with HMACSecret.
//
//nolint:golines // Struct tags require longer lines for readability
type AuthConfig struct {
	HMACSecret          string        `yaml:"hmac_secret" env:"AUTH_HMAC_SECRET"`
	JWKSURL             string        `yaml:"jwks_url" env:"AUTH_JWKS_URL"`
	Issuer              string        `yaml:"issuer" env:"AUTH_ISSUER"`
	Audience            string        `yaml:"audience" env:"AUTH_AUDIENCE"`
	Leeway              time.Duration `yaml:"leeway" env:"AUTH_LEEWAY"`
	JWKSRefreshInterval time.Duration `yaml:"jwks_refresh_interval" env:"AUTH_JWKS_REFRESH_INTERVAL"`
	AdminRoles          []string      `yaml:"admin_roles" env:"AUTH_ADMIN_ROLES"`
	// AutoProvision registers unknown token subjects on first request.
	AutoProvision bool `yaml:"auto_provision" env:"AUTH_AUTO_PROVISION"`
}

func (c AuthConfig) UsesJWKS() bool {
	return c.JWKSURL != ""
}

//nolint:golines // Struct tags require longer lines for readability
type EventBusConfig struct {
	Backend       string `yaml:"backend" env:"EVENTBUS_BACKEND"` // redis | memory
	ChannelPrefix string `yaml:"channel_prefix" env:"EVENTBUS_CHANNEL_PREFIX"`
	MaxRetries    int    `yaml:"max_retries" env:"EVENTBUS_MAX_RETRIES"`
	DeadLetterKey string `yaml:"dead_letter_key" env:"EVENTBUS_DEAD_LETTER_KEY"`
}

//nolint:golines // Struct tags require longer lines for readability
type PagingConfig struct {
	DefaultLimit int `yaml:"default_limit" env:"PAGING_DEFAULT_LIMIT"`
	MaxLimit     int `yaml:"max_limit" env:"PAGING_MAX_LIMIT"`
}

type LifecycleConfig struct {
	// StatusCacheTTL bounds how long the action gate may serve a cached
	// status. Zero disables the cache.
	StatusCacheTTL time.Duration `yaml:"status_cache_ttl" env:"LIFECYCLE_STATUS_CACHE_TTL"`
}

//nolint:golines // Struct tags require longer lines for readability
type RateLimitConfig struct {
	Enabled bool          `yaml:"enabled" env:"RATELIMIT_ENABLED"`
	Limit   int           `yaml:"limit" env:"RATELIMIT_LIMIT"`
	Window  time.Duration `yaml:"window" env:"RATELIMIT_WINDOW"`
}

//nolint:golines // Struct tags require longer lines for readability
type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`   // debug | info | warn | error
	Format string `yaml:"format" env:"LOG_FORMAT"` // json | text
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled" env:"METRICS_ENABLED"`
}

// Configuration errors.
var (
	ErrConfigNotFound      = errors.New("configuration file not found")
	ErrConfigInvalid       = errors.New("invalid configuration")
	ErrMissingRequired     = errors.New("missing required configuration")
	ErrInvalidDuration     = errors.New("invalid duration format")
	ErrInvalidLogLevel     = errors.New("invalid log level: must be debug, info, warn, or error")
	ErrInvalidLogFormat    = errors.New("invalid log format: must be json or text")
	ErrInvalidEventBus     = errors.New("invalid event bus backend: must be redis or memory")
	ErrNoTokenVerification = errors.New("auth needs hmac_secret or jwks_url")
)

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{Name: "commons"},
		Server: ServerConfig{
			Host:            DefaultHost,
			Port:            DefaultPort,
			ReadTimeout:     DefaultReadTimeout,
			WriteTimeout:    DefaultWriteTimeout,
			ShutdownTimeout: DefaultShutdownTimeout,
			BodyLimit:       DefaultBodyLimit,
			CORSOrigins:     []string{"*"},
		},
		MongoDB: MongoDBConfig{
			URI:         "mongodb://localhost:27017",
			Database:    "commons",
			Timeout:     DefaultMongoDBTimeout,
			MaxPoolSize: DefaultMongoDBMaxPoolSize,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: DefaultRedisPoolSize,
		},
		Auth: AuthConfig{
			HMACSecret:          devHMACSecret,
			Leeway:              DefaultJWTLeeway,
			JWKSRefreshInterval: DefaultJWKSRefreshInterval,
			AdminRoles:          []string{"admin", "system-admin"},
			AutoProvision:       true,
		},
		EventBus: EventBusConfig{
			Backend:       EventBusRedis,
			ChannelPrefix: "events:",
			MaxRetries:    DefaultEventMaxRetries,
			DeadLetterKey: "events:dead_letter",
		},
		Paging: PagingConfig{
			DefaultLimit: DefaultPageLimit,
			MaxLimit:     MaxPageLimit,
		},
		Lifecycle: LifecycleConfig{StatusCacheTTL: DefaultStatusCacheTTL},
		RateLimit: RateLimitConfig{
			Enabled: true,
			Limit:   DefaultRateLimit,
			Window:  DefaultRateLimitWindow,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{Enabled: true},
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	var errs []error

	errs = c.validateServer(errs)
	errs = c.validateMongoDB(errs)
	errs = c.validateRedis(errs)
	errs = c.validateAuth(errs)
	errs = c.validateEventBus(errs)
	errs = c.validatePaging(errs)
	errs = c.validateLifecycle(errs)
	errs = c.validateLog(errs)

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrConfigInvalid, errors.Join(errs...))
	}

	return nil
}

func (c *Config) validateServer(errs []error) []error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, errors.New("server.read_timeout must be positive"))
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, errors.New("server.write_timeout must be positive"))
	}
	return errs
}

func (c *Config) validateMongoDB(errs []error) []error {
	if c.MongoDB.URI == "" {
		errs = append(errs, fmt.Errorf("%w: mongodb.uri", ErrMissingRequired))
	}
	if c.MongoDB.Database == "" {
		errs = append(errs, fmt.Errorf("%w: mongodb.database", ErrMissingRequired))
	}
	return errs
}

// validateRedis only requires an address when something uses Redis.
func (c *Config) validateRedis(errs []error) []error {
	if c.Redis.Addr == "" && c.NeedsRedis() {
		errs = append(errs, fmt.Errorf("%w: redis.addr", ErrMissingRequired))
	}
	return errs
}

func (c *Config) validateAuth(errs []error) []error {
	if c.Auth.HMACSecret == "" && c.Auth.JWKSURL == "" {
		errs = append(errs, ErrNoTokenVerification)
	}
	if c.Auth.Leeway < 0 {
		errs = append(errs, errors.New("auth.leeway must not be negative"))
	}
	return errs
}

func (c *Config) validateEventBus(errs []error) []error {
	switch strings.ToLower(c.EventBus.Backend) {
	case EventBusRedis, EventBusMemory:
	default:
		errs = append(errs, fmt.Errorf("%w: got %q", ErrInvalidEventBus, c.EventBus.Backend))
	}
	if c.EventBus.MaxRetries < 0 {
		errs = append(errs, errors.New("eventbus.max_retries must not be negative"))
	}
	return errs
}

func (c *Config) validatePaging(errs []error) []error {
	if c.Paging.MaxLimit < 1 || c.Paging.MaxLimit > MaxPageLimit {
		errs = append(errs, fmt.Errorf("paging.max_limit must be between 1 and %d, got %d",
			MaxPageLimit, c.Paging.MaxLimit))
	}
	if c.Paging.DefaultLimit < 1 || c.Paging.DefaultLimit > c.Paging.MaxLimit {
		errs = append(errs, fmt.Errorf("paging.default_limit must be between 1 and max_limit, got %d",
			c.Paging.DefaultLimit))
	}
	return errs
}

func (c *Config) validateLifecycle(errs []error) []error {
	if c.Lifecycle.StatusCacheTTL < 0 {
		errs = append(errs, errors.New("lifecycle.status_cache_ttl must not be negative"))
	}
	return errs
}

func (c *Config) validateLog(errs []error) []error {
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, ErrInvalidLogLevel)
	}
	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[strings.ToLower(c.Log.Format)] {
		errs = append(errs, ErrInvalidLogFormat)
	}
	return errs
}

// NeedsRedis reports whether the event bus or the rate limiter runs on Redis.
func (c *Config) NeedsRedis() bool {
	return strings.ToLower(c.EventBus.Backend) == EventBusRedis || c.RateLimit.Enabled
}

// Load loads configuration from the default config file and environment variables.
func Load() (*Config, error) {
	return LoadFromPath("")
}

// LoadFromPath loads configuration from a specific file path.
// If path is empty, it tries to find the config file in standard locations.
func LoadFromPath(path string) (*Config, error) {
	loader := NewLoader()
	return loader.Load(path)
}

// Loader handles configuration loading from files and environment variables.
type Loader struct {
	configPaths []string
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{
		configPaths: []string{
			"configs/config.yaml",
			"config.yaml",
			"/etc/commons/config.yaml",
		},
	}
}

// WithConfigPaths sets custom config paths to search.
func (l *Loader) WithConfigPaths(paths []string) *Loader {
	l.configPaths = paths
	return l
}

// Load loads configuration from file and environment variables.
func (l *Loader) Load(path string) (*Config, error) {
	// Start with default config
	cfg := DefaultConfig()

	// Determine config file path
	configPath := path
	if configPath == "" {
		// Check CONFIG_PATH environment variable first
		if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
			configPath = envPath
		} else {
			// Search in standard locations
			for _, p := range l.configPaths {
				if _, err := os.Stat(p); err == nil {
					configPath = p
					break
				}
			}
		}
	}

	// Load from file if found
	if configPath != "" {
		if err := l.loadFromFile(cfg, configPath); err != nil {
			// Only return error if path was explicitly specified
			if path != "" || os.Getenv("CONFIG_PATH") != "" {
				return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
			}
			// Otherwise, continue with defaults + env vars
		}
	}

	// Override with environment variables
	if err := l.loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}

	// Validate the final configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromFile loads configuration from a YAML file.
func (l *Loader) loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if unmarshalErr := yaml.Unmarshal(data, cfg); unmarshalErr != nil {
		return fmt.Errorf("failed to parse config file: %w", unmarshalErr)
	}

	return nil
}

// loadFromEnv loads configuration from environment variables.
func (l *Loader) loadFromEnv(cfg *Config) error {
	return l.loadEnvToStruct(reflect.ValueOf(cfg).Elem())
}

// loadEnvToStruct recursively loads environment variables into a struct.
func (l *Loader) loadEnvToStruct(v reflect.Value) error {
	t := v.Type()

	for i := range v.NumField() {
		field := v.Field(i)
		fieldType := t.Field(i)

		// Handle embedded structs
		if field.Kind() == reflect.Struct {
			if err := l.loadEnvToStruct(field); err != nil {
				return err
			}
			continue
		}

		// Get env tag
		envTag := fieldType.Tag.Get("env")
		if envTag == "" {
			continue
		}

		// Get environment variable value
		envValue := os.Getenv(envTag)
		if envValue == "" {
			continue
		}

		// Set field value based on type
		if err := l.setFieldFromEnv(field, envValue); err != nil {
			return fmt.Errorf("failed to set %s from env %s: %w", fieldType.Name, envTag, err)
		}
	}

	return nil
}

// setFieldFromEnv sets a struct field value from an environment variable string.
//
//nolint:exhaustive // We only support a subset of reflect.Kind for config values
func (l *Loader) setFieldFromEnv(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		// Check if it's a time.Duration
		if field.Type() == reflect.TypeFor[time.Duration]() {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("%w: %s", ErrInvalidDuration, value)
			}
			field.SetInt(int64(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %s", value)
			}
			field.SetInt(i)
		}

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid unsigned integer value: %s", value)
		}
		field.SetUint(u)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean value: %s", value)
		}
		field.SetBool(b)

	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type: %s", field.Type())
		}
		parts := strings.Split(value, ",")
		items := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				items = append(items, p)
			}
		}
		field.Set(reflect.ValueOf(items))

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid float value: %s", value)
		}
		field.SetFloat(f)

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

// IsDevelopment returns true if the log level indicates a development environment.
func (c *Config) IsDevelopment() bool {
	return strings.ToLower(c.Log.Level) == "debug"
}

// IsProduction reports whether token verification is configured beyond the
// development default.
func (c *Config) IsProduction() bool {
	return c.Auth.UsesJWKS() || (c.Auth.HMACSecret != "" && c.Auth.HMACSecret != devHMACSecret)
}
