package httpserver_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lllypuk/commons/internal/application/appcore"
	"github.com/lllypuk/commons/internal/infrastructure/httpserver"
)

func serve(e *echo.Echo, method, path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestNewRouter_Defaults(t *testing.T) {
	e := echo.New()
	config := httpserver.DefaultRouterConfig()
	config.APIPrefix = ""
	config.Logger = nil

	router := httpserver.NewRouter(e, config)
	router.Public().GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })

	assert.Equal(t, e, router.Echo())
	rec := serve(e, http.MethodGet, "/api/v1/ping", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())
}

func TestRouter_AuthGroup(t *testing.T) {
	e := echo.New()
	config := httpserver.DefaultRouterConfig()
	config.AuthMiddleware = func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Header.Get(echo.HeaderAuthorization) == "" {
				return httpserver.RespondErrorWithCode(c, http.StatusUnauthorized, "UNAUTHORIZED", "no")
			}
			return next(c)
		}
	}
	router := httpserver.NewRouter(e, config)
	router.Auth().GET("/me", func(c echo.Context) error { return c.String(http.StatusOK, "me") })
	router.Public().GET("/open", func(c echo.Context) error { return c.String(http.StatusOK, "open") })

	assert.Equal(t, http.StatusUnauthorized, serve(e, http.MethodGet, "/api/v1/me", nil).Code)
	assert.Equal(t, http.StatusOK,
		serve(e, http.MethodGet, "/api/v1/me", http.Header{"Authorization": {"Bearer x"}}).Code)
	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/api/v1/open", nil).Code)
}

func TestRouter_AuthGroupWithoutMiddleware(t *testing.T) {
	e := echo.New()
	router := httpserver.NewRouter(e, httpserver.DefaultRouterConfig())
	router.Auth().GET("/me", func(c echo.Context) error { return c.String(http.StatusOK, "me") })

	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/api/v1/me", nil).Code)
}

func TestRouter_MiddlewareOrder(t *testing.T) {
	var order []string
	track := func(name string) echo.MiddlewareFunc {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				order = append(order, name)
				return next(c)
			}
		}
	}

	e := echo.New()
	config := httpserver.DefaultRouterConfig()
	config.Middleware = []echo.MiddlewareFunc{track("recovery"), track("logging")}
	config.AuthMiddleware = track("auth")
	router := httpserver.NewRouter(e, config)
	router.Auth().GET("/me", func(c echo.Context) error {
		order = append(order, "handler")
		return c.NoContent(http.StatusNoContent)
	})

	serve(e, http.MethodGet, "/api/v1/me", nil)

	assert.Equal(t, []string{"recovery", "logging", "auth", "handler"}, order)
}

type registrarFunc func(r *httpserver.Router)

func (f registrarFunc) RegisterRoutes(r *httpserver.Router) { f(r) }

func TestRouter_RegisterAll(t *testing.T) {
	e := echo.New()
	router := httpserver.NewRouter(e, httpserver.DefaultRouterConfig())

	router.RegisterAll(
		registrarFunc(func(r *httpserver.Router) {
			r.Public().GET("/a", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
		}),
		registrarFunc(func(r *httpserver.Router) {
			r.Auth().GET("/b", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
		}),
	)
	router.PrintRoutes()

	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/api/v1/a", nil).Code)
	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/api/v1/b", nil).Code)
}

func TestRouter_RegisterMetricsEndpoint(t *testing.T) {
	registry := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "router_test_total", Help: "test"})
	registry.MustRegister(counter)
	counter.Inc()

	e := echo.New()
	httpserver.NewRouter(e, httpserver.DefaultRouterConfig()).RegisterMetricsEndpoint(registry)

	rec := serve(e, http.MethodGet, "/metrics", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "router_test_total 1")
}

type stubChecker struct {
	name    string
	healthy bool
}

func (s stubChecker) Name() string { return s.name }

func (s stubChecker) Check(context.Context) appcore.HealthStatus {
	msg := s.name + " ok"
	if !s.healthy {
		msg = s.name + " down"
	}
	return appcore.HealthStatus{Healthy: s.healthy, Message: msg, CheckedAt: time.Now()}
}

func decodeHealth(t *testing.T, rec *httptest.ResponseRecorder) httpserver.HealthResponse {
	t.Helper()
	var resp httpserver.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHealthEndpoints(t *testing.T) {
	tests := []struct {
		name          string
		checker       httpserver.HealthChecker
		readyStatus   int
		detailsStatus int
		overall       string
	}{
		{
			name:          "no checker",
			checker:       nil,
			readyStatus:   http.StatusOK,
			detailsStatus: http.StatusOK,
			overall:       httpserver.StatusHealthy,
		},
		{
			name:          "all healthy",
			checker:       httpserver.NewCheckerSet(stubChecker{"mongodb", true}, stubChecker{"redis", true}),
			readyStatus:   http.StatusOK,
			detailsStatus: http.StatusOK,
			overall:       httpserver.StatusHealthy,
		},
		{
			name: "optional component down",
			checker: httpserver.NewCheckerSet(stubChecker{"mongodb", true}).
				WithOptional(stubChecker{"dead_letter_queue", false}),
			readyStatus:   http.StatusOK,
			detailsStatus: http.StatusOK,
			overall:       httpserver.StatusDegraded,
		},
		{
			name:          "required component down",
			checker:       httpserver.NewCheckerSet(stubChecker{"mongodb", false}, stubChecker{"redis", true}),
			readyStatus:   http.StatusServiceUnavailable,
			detailsStatus: http.StatusServiceUnavailable,
			overall:       httpserver.StatusUnhealthy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			httpserver.NewRouter(e, httpserver.DefaultRouterConfig()).RegisterHealthEndpoints(tt.checker)

			live := serve(e, http.MethodGet, "/health", nil)
			assert.Equal(t, http.StatusOK, live.Code)
			assert.JSONEq(t, `{"status":"healthy"}`, live.Body.String())

			ready := serve(e, http.MethodGet, "/ready", nil)
			assert.Equal(t, tt.readyStatus, ready.Code)

			details := serve(e, http.MethodGet, "/health/details", nil)
			assert.Equal(t, tt.detailsStatus, details.Code)
			assert.Equal(t, tt.overall, decodeHealth(t, details).Status)
		})
	}
}

func TestCheckerSet_PreservesOrder(t *testing.T) {
	set := httpserver.NewCheckerSet(stubChecker{"mongodb", true}, stubChecker{"redis", false}).
		WithOptional(stubChecker{"dead_letter_queue", true})

	statuses := set.GetHealthStatus(context.Background())

	require.Len(t, statuses, 3)
	assert.Equal(t, "mongodb", statuses[0].Name)
	assert.Equal(t, httpserver.StatusHealthy, statuses[0].Status)
	assert.Equal(t, "redis", statuses[1].Name)
	assert.Equal(t, httpserver.StatusUnhealthy, statuses[1].Status)
	assert.Equal(t, "redis down", statuses[1].Message)
	assert.Equal(t, "dead_letter_queue", statuses[2].Name)
	assert.False(t, set.IsReady(context.Background()))
}
