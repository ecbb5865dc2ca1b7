package middleware

import (
	"context"
	"log/slog"

	"github.com/labstack/echo/v4"

	"github.com/lllypuk/commons/internal/domain/uuid"
	"github.com/lllypuk/commons/internal/infrastructure/httpserver"
)

// ActiveGate rejects users who are banned, deleted or detained.
type ActiveGate interface {
	EnsureActive(ctx context.Context, userID uuid.UUID) error
}

// RequireActive stops inactive callers before the handler runs. The
// response names the lifecycle state (USER_BANNED, USER_DELETED or
// USER_DETAINED). Must run after Auth.
func RequireActive(gate ActiveGate, logger *slog.Logger) echo.MiddlewareFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID := GetUserID(c)
			if userID.IsZero() {
				return respondAuthError(c, ErrUnknownUser)
			}
			if err := gate.EnsureActive(c.Request().Context(), userID); err != nil {
				logger.DebugContext(c.Request().Context(), "inactive user stopped at gate",
					slog.String("user_id", userID.String()),
					slog.String("path", c.Path()),
				)
				return httpserver.RespondError(c, err)
			}
			return next(c)
		}
	}
}
