package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lllypuk/commons/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := config.DefaultConfig()

	assert.Equal(t, config.DefaultHost, cfg.Server.Host)
	assert.Equal(t, config.DefaultPort, cfg.Server.Port)
	assert.Equal(t, config.DefaultBodyLimit, cfg.Server.BodyLimit)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)

	assert.Equal(t, "commons", cfg.MongoDB.Database)
	assert.Equal(t, uint64(config.DefaultMongoDBMaxPoolSize), cfg.MongoDB.MaxPoolSize)
	assert.Equal(t, config.DefaultRedisPoolSize, cfg.Redis.PoolSize)

	assert.False(t, cfg.Auth.UsesJWKS())
	assert.True(t, cfg.Auth.AutoProvision)
	assert.Equal(t, config.DefaultJWTLeeway, cfg.Auth.Leeway)

	assert.Equal(t, config.EventBusRedis, cfg.EventBus.Backend)
	assert.Equal(t, config.DefaultPageLimit, cfg.Paging.DefaultLimit)
	assert.Equal(t, config.MaxPageLimit, cfg.Paging.MaxLimit)
	assert.Equal(t, config.DefaultStatusCacheTTL, cfg.Lifecycle.StatusCacheTTL)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.True(t, cfg.Metrics.Enabled)

	require.NoError(t, cfg.Validate())
	assert.False(t, cfg.IsProduction())
}

func TestServerConfig_Address(t *testing.T) {
	assert.Equal(t, "127.0.0.1:9000", config.ServerConfig{Host: "127.0.0.1", Port: 9000}.Address())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *config.Config)
		wantErr error
		wantMsg string
	}{
		{
			name:    "port out of range",
			mutate:  func(c *config.Config) { c.Server.Port = 70000 },
			wantMsg: "server.port",
		},
		{
			name:    "zero read timeout",
			mutate:  func(c *config.Config) { c.Server.ReadTimeout = 0 },
			wantMsg: "server.read_timeout",
		},
		{
			name:    "missing mongodb uri",
			mutate:  func(c *config.Config) { c.MongoDB.URI = "" },
			wantErr: config.ErrMissingRequired,
		},
		{
			name:    "missing redis addr while redis bus is used",
			mutate:  func(c *config.Config) { c.Redis.Addr = "" },
			wantErr: config.ErrMissingRequired,
		},
		{
			name: "no token verification",
			mutate: func(c *config.Config) {
				c.Auth.HMACSecret = ""
				c.Auth.JWKSURL = ""
			},
			wantErr: config.ErrNoTokenVerification,
		},
		{
			name:    "unknown event bus",
			mutate:  func(c *config.Config) { c.EventBus.Backend = "kafka" },
			wantErr: config.ErrInvalidEventBus,
		},
		{
			name:    "max limit above cap",
			mutate:  func(c *config.Config) { c.Paging.MaxLimit = config.MaxPageLimit + 1 },
			wantMsg: "paging.max_limit",
		},
		{
			name:    "default limit above max",
			mutate:  func(c *config.Config) { c.Paging.MaxLimit, c.Paging.DefaultLimit = 10, 11 },
			wantMsg: "paging.default_limit",
		},
		{
			name:    "negative cache ttl",
			mutate:  func(c *config.Config) { c.Lifecycle.StatusCacheTTL = -time.Second },
			wantMsg: "lifecycle.status_cache_ttl",
		},
		{
			name:    "bad log level",
			mutate:  func(c *config.Config) { c.Log.Level = "verbose" },
			wantErr: config.ErrInvalidLogLevel,
		},
		{
			name:    "bad log format",
			mutate:  func(c *config.Config) { c.Log.Format = "xml" },
			wantErr: config.ErrInvalidLogFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()

			require.ErrorIs(t, err, config.ErrConfigInvalid)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			}
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestConfig_Validate_RedisOptional(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Redis.Addr = ""
	cfg.EventBus.Backend = config.EventBusMemory
	cfg.RateLimit.Enabled = false

	assert.NoError(t, cfg.Validate())
}

func TestConfig_IsProduction(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *config.Config)
		want   bool
	}{
		{"dev secret", func(*config.Config) {}, false},
		{"real secret", func(c *config.Config) { c.Auth.HMACSecret = "s3cr3t" }, true},
		{"jwks", func(c *config.Config) { c.Auth.JWKSURL = "https://idp.example.com/certs" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			tt.mutate(cfg)
			assert.Equal(t, tt.want, cfg.IsProduction())
		})
	}
}

func TestConfig_IsDevelopment(t *testing.T) {
	cfg := config.DefaultConfig()
	assert.False(t, cfg.IsDevelopment())

	cfg.Log.Level = "DEBUG"
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadFromPath_ValidYAML(t *testing.T) {
	path := writeConfig(t, `
server:
  host: "127.0.0.1"
  port: 9090
  read_timeout: 45s
  cors_origins: ["https://app.example.com"]

mongodb:
  uri: "mongodb://testhost:27017"
  database: "testdb"

redis:
  addr: "redis:6379"
  db: 1

auth:
  jwks_url: "https://idp.example.com/realms/commons/protocol/openid-connect/certs"
  issuer: "https://idp.example.com/realms/commons"
  audience: "commons-api"
  admin_roles: ["ops"]
  auto_provision: false

eventbus:
  backend: memory
  channel_prefix: "test:"

paging:
  default_limit: 10
  max_limit: 50

lifecycle:
  status_cache_ttl: 5s

ratelimit:
  enabled: false

log:
  level: "debug"
  format: "text"
`)

	cfg, err := config.LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 45*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, config.DefaultWriteTimeout, cfg.Server.WriteTimeout)
	assert.Equal(t, []string{"https://app.example.com"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "testdb", cfg.MongoDB.Database)
	assert.Equal(t, 1, cfg.Redis.DB)
	assert.True(t, cfg.Auth.UsesJWKS())
	assert.Equal(t, "commons-api", cfg.Auth.Audience)
	assert.Equal(t, []string{"ops"}, cfg.Auth.AdminRoles)
	assert.False(t, cfg.Auth.AutoProvision)
	assert.Equal(t, config.EventBusMemory, cfg.EventBus.Backend)
	assert.Equal(t, 10, cfg.Paging.DefaultLimit)
	assert.Equal(t, 5*time.Second, cfg.Lifecycle.StatusCacheTTL)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.True(t, cfg.IsProduction())
}

func TestLoadFromPath_NonExistent(t *testing.T) {
	cfg, err := config.LoadFromPath("/non/existent/path/config.yaml")

	require.ErrorIs(t, err, config.ErrConfigNotFound)
	assert.Nil(t, cfg)
}

func TestLoadFromPath_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "server:\n  port: this-is-not-a-number\n")

	cfg, err := config.LoadFromPath(path)

	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoadFromPath_Invalid(t *testing.T) {
	path := writeConfig(t, "eventbus:\n  backend: nats\n")

	_, err := config.LoadFromPath(path)

	require.ErrorIs(t, err, config.ErrInvalidEventBus)
}

func TestLoader_LoadFromEnv(t *testing.T) {
	t.Setenv("SERVER_HOST", "env-host")
	t.Setenv("SERVER_PORT", "3333")
	t.Setenv("SERVER_CORS_ORIGINS", "https://a.example.com, https://b.example.com,")
	t.Setenv("AUTH_HMAC_SECRET", "env-secret")
	t.Setenv("AUTH_ADMIN_ROLES", "root")
	t.Setenv("AUTH_AUTO_PROVISION", "false")
	t.Setenv("MONGODB_MAX_POOL_SIZE", "7")
	t.Setenv("LIFECYCLE_STATUS_CACHE_TTL", "1m")
	t.Setenv("LOG_LEVEL", "warn")

	path := writeConfig(t, "server:\n  host: file-host\n  port: 8080\n")

	cfg, err := config.LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, "env-host", cfg.Server.Host)
	assert.Equal(t, 3333, cfg.Server.Port)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "env-secret", cfg.Auth.HMACSecret)
	assert.Equal(t, []string{"root"}, cfg.Auth.AdminRoles)
	assert.False(t, cfg.Auth.AutoProvision)
	assert.Equal(t, uint64(7), cfg.MongoDB.MaxPoolSize)
	assert.Equal(t, time.Minute, cfg.Lifecycle.StatusCacheTTL)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoader_LoadFromEnv_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
		want  string
	}{
		{"duration", "SERVER_READ_TIMEOUT", "not-a-duration", "invalid duration"},
		{"integer", "SERVER_PORT", "eighty", "invalid integer"},
		{"boolean", "RATELIMIT_ENABLED", "maybe", "invalid boolean"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			cfg, err := config.Load()

			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoader_ConfigPathEnvVar(t *testing.T) {
	path := writeConfig(t, "server:\n  host: config-path-host\n  port: 7777\n")
	t.Setenv("CONFIG_PATH", path)

	cfg, err := config.Load()

	require.NoError(t, err)
	assert.Equal(t, "config-path-host", cfg.Server.Host)
	assert.Equal(t, 7777, cfg.Server.Port)
}

func TestLoader_WithConfigPaths(t *testing.T) {
	dir := t.TempDir()
	second := filepath.Join(dir, "second.yaml")
	require.NoError(t, os.WriteFile(second, []byte("app:\n  name: from-second\n"), 0o644))

	cfg, err := config.NewLoader().
		WithConfigPaths([]string{filepath.Join(dir, "missing.yaml"), second}).
		Load("")

	require.NoError(t, err)
	assert.Equal(t, "from-second", cfg.App.Name)
}

func TestConfig_NeedsRedis(t *testing.T) {
	cfg := config.DefaultConfig()
	assert.True(t, cfg.NeedsRedis())

	cfg.EventBus.Backend = config.EventBusMemory
	assert.True(t, cfg.NeedsRedis(), "rate limiter still uses redis")

	cfg.RateLimit.Enabled = false
	assert.False(t, cfg.NeedsRedis())
}
