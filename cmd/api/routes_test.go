package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lllypuk/commons/internal/application/appcore"
	"github.com/lllypuk/commons/internal/config"
	"github.com/lllypuk/commons/internal/infrastructure/auth"
	"github.com/lllypuk/commons/internal/infrastructure/httpserver"
	"github.com/lllypuk/commons/tests/mocks"
)

type stubChecker struct {
	name    string
	healthy bool
}

func (s stubChecker) Name() string { return s.name }

func (s stubChecker) Check(context.Context) appcore.HealthStatus {
	return appcore.HealthStatus{Healthy: s.healthy, CheckedAt: time.Now()}
}

type envelope struct {
	Success bool              `json:"success"`
	Data    json.RawMessage   `json:"data"`
	Error   *httpserver.Error `json:"error"`
}

type testApp struct {
	container *Container
	repo      *mocks.MockUserRepository
	validator *auth.HMACValidator
	echo      *echo.Echo
}

// newTestApp wires the container the way NewContainer does, with the
// in-memory bus and the mock repository standing in for Redis and MongoDB.
func newTestApp(t *testing.T, mutate func(cfg *config.Config)) *testApp {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.EventBus.Backend = config.EventBusMemory
	cfg.RateLimit.Enabled = false
	if mutate != nil {
		mutate(cfg)
	}

	c := &Container{Config: cfg, Logger: slog.New(slog.DiscardHandler)}
	c.setupMetrics()
	c.setupEventBus()

	repo := mocks.NewMockUserRepository()
	c.wireUserServices(repo)
	require.NoError(t, c.setupTokenValidator())
	c.Health = httpserver.NewCheckerSet(stubChecker{name: "mongodb", healthy: true})
	c.setupHTTPHandlers()
	require.NoError(t, c.StartEventBus(context.Background()))
	t.Cleanup(func() { _ = c.TokenValidator.Close() })

	validator, ok := c.TokenValidator.(*auth.HMACValidator)
	require.True(t, ok)

	e := echo.New()
	SetupRoutes(e, c)

	return &testApp{container: c, repo: repo, validator: validator, echo: e}
}

func (a *testApp) token(t *testing.T, sub string, roles ...string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":                sub,
		"preferred_username": sub,
		"email":              sub + "@example.com",
		"iat":                time.Now().Unix(),
		"exp":                time.Now().Add(time.Hour).Unix(),
	}
	if len(roles) > 0 {
		claims["roles"] = roles
	}
	signed, err := a.validator.Sign(claims)
	require.NoError(t, err)
	return signed
}

func (a *testApp) do(t *testing.T, method, path, token, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.echo.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		_ = json.Unmarshal(rec.Body.Bytes(), &env)
	}
	return rec, env
}

func TestSetupRoutes_HealthEndpoints(t *testing.T) {
	app := newTestApp(t, nil)

	for _, path := range []string{"/health", "/ready", "/health/details"} {
		rec, _ := app.do(t, http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestSetupRoutes_NotReady(t *testing.T) {
	app := newTestApp(t, nil)
	app.container.Health = httpserver.NewCheckerSet(stubChecker{name: "mongodb"})

	rec, _ := app.do(t, http.MethodGet, "/ready", "", "")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), httpserver.StatusNotReady)
}

func TestSetupRoutes_RequiresToken(t *testing.T) {
	app := newTestApp(t, nil)

	rec, env := app.do(t, http.MethodGet, "/api/v1/users", "", "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)
}

func TestSetupRoutes_Metrics(t *testing.T) {
	app := newTestApp(t, nil)
	app.do(t, http.MethodGet, "/api/v1/users", app.token(t, "ext-reader"), "")

	rec, _ := app.do(t, http.MethodGet, "/metrics", "", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "commons_http_requests_total")
}

func TestSetupRoutes_MetricsDisabled(t *testing.T) {
	app := newTestApp(t, func(cfg *config.Config) { cfg.Metrics.Enabled = false })

	rec, _ := app.do(t, http.MethodGet, "/metrics", "", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSetupRoutes_ModerationFlow(t *testing.T) {
	app := newTestApp(t, nil)
	adminToken := app.token(t, "ext-admin", "admin")
	bobToken := app.token(t, "ext-bob")

	// First contact provisions bob.
	rec, env := app.do(t, http.MethodGet, "/api/v1/me/actions/check", bobToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var check struct {
		Allowed bool `json:"allowed"`
		Status  struct {
			UserID string `json:"user_id"`
			State  string `json:"state"`
		} `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &check))
	assert.True(t, check.Allowed)
	assert.Equal(t, "active", check.Status.State)
	bobID := check.Status.UserID

	rec, _ = app.do(t, http.MethodPost, "/api/v1/users/"+bobID+"/ban", adminToken, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	t.Run("gate rejects the banned caller", func(t *testing.T) {
		rec, env := app.do(t, http.MethodGet, "/api/v1/me/actions/check", bobToken, "")
		assert.Equal(t, http.StatusForbidden, rec.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, "USER_BANNED", env.Error.Code)
	})

	t.Run("write routes are closed", func(t *testing.T) {
		body := `{"external_id":"ext-x","username":"x","email":"x@example.com"}`
		rec, env := app.do(t, http.MethodPost, "/api/v1/users", bobToken, body)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, "USER_BANNED", env.Error.Code)
	})

	t.Run("read routes stay open", func(t *testing.T) {
		rec, env := app.do(t, http.MethodGet, "/api/v1/users/"+bobID+"/status", bobToken, "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, string(env.Data), `"state":"banned"`)
	})

	t.Run("lifecycle metrics count the ban", func(t *testing.T) {
		rec, _ := app.do(t, http.MethodGet, "/metrics", "", "")
		assert.Contains(t, rec.Body.String(), `commons_lifecycle_transitions_total{kind="ban"} 1`)
	})

	rec, _ = app.do(t, http.MethodPost, "/api/v1/users/"+bobID+"/unban", adminToken, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, _ = app.do(t, http.MethodGet, "/api/v1/me/actions/check", bobToken, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSetupRoutes_RateLimitedWrites(t *testing.T) {
	app := newTestApp(t, func(cfg *config.Config) {
		cfg.RateLimit.Enabled = true
		cfg.RateLimit.Limit = 1
	})
	token := app.token(t, "ext-writer")

	first, _ := app.do(t, http.MethodPost, "/api/v1/users", token,
		`{"external_id":"ext-a","username":"alice","email":"alice@example.com"}`)
	second, env := app.do(t, http.MethodPost, "/api/v1/users", token,
		`{"external_id":"ext-b","username":"brian","email":"brian@example.com"}`)

	assert.Equal(t, http.StatusCreated, first.Code, first.Body.String())
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", env.Error.Code)
}
