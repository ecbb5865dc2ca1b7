package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime"

	"github.com/labstack/echo/v4"

	"github.com/lllypuk/commons/internal/infrastructure/httpserver"
)

const DefaultStackSize = 4 << 10

type RecoveryConfig struct {
	Logger    *slog.Logger
	StackSize int
	// DisablePrintStack leaves the stack trace out of the log entry.
	DisablePrintStack bool
}

func DefaultRecoveryConfig() RecoveryConfig {
	return RecoveryConfig{Logger: slog.Default(), StackSize: DefaultStackSize}
}

// Recovery turns a panicking handler into a logged 500.
func Recovery(config RecoveryConfig) echo.MiddlewareFunc {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.StackSize == 0 {
		config.StackSize = DefaultStackSize
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (returnErr error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				if r == http.ErrAbortHandler { //nolint:errorlint,err113 // sentinel re-panic per net/http
					panic(r)
				}
				err, ok := r.(error)
				if !ok {
					err = fmt.Errorf("%v", r)
				}

				attrs := []any{
					slog.String("error", err.Error()),
					slog.String("method", c.Request().Method),
					slog.String("path", c.Request().URL.Path),
					slog.String("request_id", GetRequestID(c)),
				}
				if !config.DisablePrintStack {
					stack := make([]byte, config.StackSize)
					stack = stack[:runtime.Stack(stack, false)]
					attrs = append(attrs, slog.String("stack", string(stack)))
				}
				config.Logger.ErrorContext(c.Request().Context(), "panic recovered", attrs...)

				if !c.Response().Committed {
					returnErr = httpserver.RespondErrorWithCode(c, http.StatusInternalServerError,
						"INTERNAL_ERROR", "An internal error occurred")
				}
			}()

			return next(c)
		}
	}
}
