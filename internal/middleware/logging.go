// Package middleware holds the Echo middleware shared by every API route.
package middleware

import (
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/lllypuk/commons/internal/application/appcore"
)

const (
	statusClientError = 400
	statusServerError = 500
)

const (
	RequestIDHeader = "X-Request-ID"
	RequestIDKey    = "request_id"
)

// RequestObserver receives one call per finished request, typically for metrics.
type RequestObserver interface {
	Observe(method, route string, status int, elapsed time.Duration)
}

type LoggingConfig struct {
	Logger    *slog.Logger
	Observer  RequestObserver
	SkipPaths []string
}

func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Logger:    slog.Default(),
		SkipPaths: []string{"/health", "/ready", "/metrics"},
	}
}

// Logging assigns a request ID, which doubles as the correlation ID of any
// events the request causes, and logs each request once it finishes.
func Logging(config LoggingConfig) echo.MiddlewareFunc {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	skipPaths := make(map[string]struct{}, len(config.SkipPaths))
	for _, path := range config.SkipPaths {
		skipPaths[path] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			res := c.Response()

			requestID := req.Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = uuid.New().String()
			}
			res.Header().Set(RequestIDHeader, requestID)
			c.Set(RequestIDKey, requestID)
			c.SetRequest(req.WithContext(appcore.WithCorrelationID(req.Context(), requestID)))

			if _, ok := skipPaths[req.URL.Path]; ok {
				return next(c)
			}

			start := time.Now()
			err := next(c)
			latency := time.Since(start)

			status := res.Status
			var he *echo.HTTPError
			if err != nil && errors.As(err, &he) {
				status = he.Code
			}

			if config.Observer != nil {
				config.Observer.Observe(req.Method, c.Path(), status, latency)
			}

			attrs := []slog.Attr{
				slog.String("request_id", requestID),
				slog.String("method", req.Method),
				slog.String("path", req.URL.Path),
				slog.Int("status", status),
				slog.Duration("latency", latency),
				slog.String("remote_ip", c.RealIP()),
				slog.Int64("response_size", res.Size),
			}
			if query := req.URL.RawQuery; query != "" {
				attrs = append(attrs, slog.String("query", query))
			}
			if userID := GetUserID(c); !userID.IsZero() {
				attrs = append(attrs, slog.String("user_id", userID.String()))
			}

			level := slog.LevelInfo
			switch {
			case status >= statusServerError:
				level = slog.LevelError
			case status >= statusClientError:
				level = slog.LevelWarn
			}
			if err != nil && level > slog.LevelInfo {
				attrs = append(attrs, slog.String("error", err.Error()))
			}

			config.Logger.LogAttrs(req.Context(), level, "HTTP request", attrs...)
			return err
		}
	}
}

func GetRequestID(c echo.Context) string {
	if id, ok := c.Get(RequestIDKey).(string); ok {
		return id
	}
	return ""
}
