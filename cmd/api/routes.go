// Package main provides the API server entry point.
package main

import (
	"github.com/labstack/echo/v4"

	"github.com/lllypuk/commons/internal/infrastructure/httpserver"
	"github.com/lllypuk/commons/internal/middleware"
)

// SetupRoutes installs the middleware chain and mounts the probes, the
// metrics endpoint and the user API on e.
func SetupRoutes(e *echo.Echo, c *Container) *httpserver.Router {
	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.Logger = c.Logger
	if c.HTTPMetrics != nil {
		loggingConfig.Observer = c.HTTPMetrics
	}

	recoveryConfig := middleware.DefaultRecoveryConfig()
	recoveryConfig.Logger = c.Logger

	corsConfig := middleware.DefaultCORSConfig()
	if len(c.Config.Server.CORSOrigins) > 0 {
		corsConfig.AllowOrigins = c.Config.Server.CORSOrigins
	}

	router := httpserver.NewRouter(e, httpserver.RouterConfig{
		Logger: c.Logger,
		Middleware: []echo.MiddlewareFunc{
			middleware.Recovery(recoveryConfig),
			middleware.Logging(loggingConfig),
			middleware.CORS(corsConfig),
		},
		AuthMiddleware: middleware.Auth(middleware.AuthConfig{
			Logger:    c.Logger,
			Validator: c.TokenValidator,
			Resolver:  c.ActorResolver,
		}),
		APIPrefix: httpserver.DefaultAPIPrefix,
	})

	router.RegisterHealthEndpoints(c)
	if c.Registry != nil {
		router.RegisterMetricsEndpoint(c.Registry)
	}

	router.RegisterAll(c.UserHandler)

	if c.Config.IsDevelopment() {
		router.PrintRoutes()
	}

	return router
}
