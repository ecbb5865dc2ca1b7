package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/lllypuk/commons/internal/domain/user"
	"github.com/lllypuk/commons/internal/domain/uuid"
	"github.com/lllypuk/commons/internal/middleware"
)

type gateFunc func(ctx context.Context, id uuid.UUID) error

func (f gateFunc) EnsureActive(ctx context.Context, id uuid.UUID) error { return f(ctx, id) }

func TestRequireActive(t *testing.T) {
	since := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	active := uuid.NewUUID()
	banned := uuid.NewUUID()
	detained := uuid.NewUUID()
	deleted := uuid.NewUUID()

	gate := gateFunc(func(_ context.Context, id uuid.UUID) error {
		switch id {
		case banned:
			return &user.BannedError{UserID: id, Since: since}
		case detained:
			return &user.DetainedError{UserID: id, Until: since.Add(time.Hour), Duration: time.Hour}
		case deleted:
			return &user.DeletedError{UserID: id, Since: since}
		}
		return nil
	})

	run := func(id uuid.UUID) *httptest.ResponseRecorder {
		e := echo.New()
		e.POST("/act", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) },
			func(next echo.HandlerFunc) echo.HandlerFunc {
				return func(c echo.Context) error {
					if !id.IsZero() {
						c.Set(string(middleware.ContextKeyUserID), id)
					}
					return next(c)
				}
			},
			middleware.RequireActive(gate, nil),
		)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/act", nil))
		return rec
	}

	t.Run("active passes", func(t *testing.T) {
		assert.Equal(t, http.StatusNoContent, run(active).Code)
	})

	tests := []struct {
		name string
		id   uuid.UUID
		code string
	}{
		{"banned", banned, "USER_BANNED"},
		{"detained", detained, "USER_DETAINED"},
		{"deleted", deleted, "USER_DELETED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := run(tt.id)

			assert.Equal(t, http.StatusForbidden, rec.Code)
			assert.Equal(t, tt.code, decodeError(t, rec).Code)
		})
	}

	t.Run("unauthenticated", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, run("").Code)
	})
}
