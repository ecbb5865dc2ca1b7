package httpserver

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const DefaultAPIPrefix = "/api/v1"

type RouterConfig struct {
	Logger *slog.Logger

	// Middleware is applied to every route in order, outermost first.
	Middleware []echo.MiddlewareFunc

	// AuthMiddleware guards the Auth group. Without it the group is public.
	AuthMiddleware echo.MiddlewareFunc

	APIPrefix string
}

func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		Logger:    slog.Default(),
		APIPrefix: DefaultAPIPrefix,
	}
}

// Router splits the API into a public and an authenticated group.
type Router struct {
	echo   *echo.Echo
	config RouterConfig
	logger *slog.Logger

	public *echo.Group
	auth   *echo.Group
}

func NewRouter(e *echo.Echo, config RouterConfig) *Router {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.APIPrefix == "" {
		config.APIPrefix = DefaultAPIPrefix
	}

	r := &Router{echo: e, config: config, logger: config.Logger}

	for _, m := range config.Middleware {
		e.Use(m)
	}

	r.public = e.Group(config.APIPrefix)
	if config.AuthMiddleware != nil {
		r.auth = r.public.Group("", config.AuthMiddleware)
	} else {
		r.auth = r.public
		r.logger.Warn("no auth middleware configured, authenticated routes are public")
	}
	return r
}

func (r *Router) Echo() *echo.Echo {
	return r.echo
}

func (r *Router) Public() *echo.Group {
	return r.public
}

func (r *Router) Auth() *echo.Group {
	return r.auth
}

// RouteRegistrar is implemented by handlers that mount their own routes.
type RouteRegistrar interface {
	RegisterRoutes(r *Router)
}

func (r *Router) RegisterAll(registrars ...RouteRegistrar) {
	for _, reg := range registrars {
		reg.RegisterRoutes(r)
	}
}

func (r *Router) RegisterHealthEndpoints(checker HealthChecker) {
	NewHealthEndpoints(checker).Register(r.echo)
}

// RegisterMetricsEndpoint serves GET /metrics from gatherer, or from the
// default registry when gatherer is nil.
func (r *Router) RegisterMetricsEndpoint(gatherer prometheus.Gatherer) {
	handler := promhttp.Handler()
	if gatherer != nil {
		handler = promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
	}
	r.echo.GET("/metrics", echo.WrapHandler(handler))
}

func (r *Router) PrintRoutes() {
	for _, route := range r.echo.Routes() {
		r.logger.Debug("registered route",
			slog.String("method", route.Method),
			slog.String("path", route.Path),
		)
	}
}
