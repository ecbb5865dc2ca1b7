// Package httphandler holds the Echo handlers of the REST API.
package httphandler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	userapp "github.com/lllypuk/commons/internal/application/user"
	"github.com/lllypuk/commons/internal/domain/user"
	"github.com/lllypuk/commons/internal/domain/uuid"
	"github.com/lllypuk/commons/internal/infrastructure/httpserver"
	"github.com/lllypuk/commons/internal/middleware"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = userapp.MaxListLimit
)

// UserService is the set of user operations the handler needs.
// Declared on the consumer side.
type UserService interface {
	RegisterUser(ctx context.Context, cmd userapp.RegisterUserCommand) (userapp.Result, error)
	GetUser(ctx context.Context, query userapp.GetUserQuery) (userapp.Result, error)
	ListUsers(ctx context.Context, query userapp.ListUsersQuery) (userapp.UsersListResult, error)
	GetStatus(ctx context.Context, query userapp.GetStatusQuery) (userapp.StatusResult, error)
	CheckActive(ctx context.Context, query userapp.EnsureActiveQuery) (userapp.StatusResult, error)

	BanUser(ctx context.Context, cmd userapp.BanUserCommand) (userapp.Result, error)
	UnbanUser(ctx context.Context, cmd userapp.UnbanUserCommand) (userapp.Result, error)
	DetainUser(ctx context.Context, cmd userapp.DetainUserCommand) (userapp.Result, error)
	ReleaseUser(ctx context.Context, cmd userapp.ReleaseUserCommand) (userapp.Result, error)
	DeleteUser(ctx context.Context, cmd userapp.DeleteUserCommand) (userapp.Result, error)
	ImportLegacyUser(ctx context.Context, cmd userapp.ImportLegacyUserCommand) (userapp.Result, error)
}

type UserHandlerConfig struct {
	DefaultLimit int
	MaxLimit     int

	// WriteMiddleware guards routes that change state, typically RequireActive.
	WriteMiddleware []echo.MiddlewareFunc

	// Clock evaluates statuses in responses. Defaults to time.Now.
	Clock func() time.Time
}

type UserHandler struct {
	userService UserService
	config      UserHandlerConfig
}

func NewUserHandler(userService UserService, config UserHandlerConfig) *UserHandler {
	if config.DefaultLimit <= 0 {
		config.DefaultLimit = DefaultPageLimit
	}
	if config.MaxLimit <= 0 || config.MaxLimit > MaxPageLimit {
		config.MaxLimit = MaxPageLimit
	}
	config.DefaultLimit = min(config.DefaultLimit, config.MaxLimit)
	if config.Clock == nil {
		config.Clock = time.Now
	}
	return &UserHandler{userService: userService, config: config}
}

func (h *UserHandler) RegisterRoutes(r *httpserver.Router) {
	read := r.Auth()
	read.GET("/users", h.List)
	read.GET("/users/:id", h.Get)
	read.GET("/users/:id/status", h.Status)
	read.GET("/me/actions/check", h.CheckMe)

	write := r.Auth().Group("", h.config.WriteMiddleware...)
	write.POST("/users", h.Register)
	write.POST("/users/import", h.Import)
	write.POST("/users/:id/ban", h.Ban)
	write.POST("/users/:id/unban", h.Unban)
	write.POST("/users/:id/detain", h.Detain)
	write.POST("/users/:id/release", h.Release)
	write.DELETE("/users/:id", h.Delete)
}

// List handles GET /api/v1/users?offset=&limit=&state=.
func (h *UserHandler) List(c echo.Context) error {
	offset, limit, err := h.parsePaging(c)
	if err != nil {
		return httpserver.RespondErrorWithCode(c, http.StatusBadRequest, "INVALID_PAGING", err.Error())
	}

	var state user.State
	if raw := c.QueryParam("state"); raw != "" {
		if state, err = user.ParseState(raw); err != nil {
			return httpserver.RespondErrorWithCode(c, http.StatusBadRequest, "INVALID_STATE", err.Error())
		}
	}

	result, err := h.userService.ListUsers(c.Request().Context(), userapp.ListUsersQuery{
		Offset: offset,
		Limit:  limit,
		State:  state,
	})
	if err != nil {
		return handleUserError(c, err)
	}

	links, err := result.Page.Links(c.Request().URL.RequestURI())
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	now := h.config.Clock()
	users := make([]UserResponse, 0, len(result.Users))
	for _, u := range result.Users {
		users = append(users, ToUserResponse(u, now))
	}
	return httpserver.RespondOK(c, ListUsersResponse{Users: users, Page: result.Page, Links: links})
}

// Get handles GET /api/v1/users/:id.
func (h *UserHandler) Get(c echo.Context) error {
	userID, err := uuid.ParseUUID(c.Param("id"))
	if err != nil {
		return respondInvalidUserID(c)
	}

	result, err := h.userService.GetUser(c.Request().Context(), userapp.GetUserQuery{UserID: userID})
	if err != nil {
		return handleUserError(c, err)
	}
	return httpserver.RespondOK(c, ToUserResponse(result.Value, h.config.Clock()))
}

// Status handles GET /api/v1/users/:id/status.
func (h *UserHandler) Status(c echo.Context) error {
	userID, err := uuid.ParseUUID(c.Param("id"))
	if err != nil {
		return respondInvalidUserID(c)
	}

	result, err := h.userService.GetStatus(c.Request().Context(), userapp.GetStatusQuery{UserID: userID})
	if err != nil {
		return handleUserError(c, err)
	}
	return httpserver.RespondOK(c, ToStatusResponse(result.UserID, result.Status))
}

// CheckMe handles GET /api/v1/me/actions/check. It answers 200 when the
// caller may act and 403 with the lifecycle reason otherwise.
func (h *UserHandler) CheckMe(c echo.Context) error {
	callerID := middleware.GetUserID(c)
	if callerID.IsZero() {
		return respondUnauthorized(c)
	}

	result, err := h.userService.CheckActive(c.Request().Context(), userapp.EnsureActiveQuery{UserID: callerID})
	if err != nil {
		return handleUserError(c, err)
	}
	return httpserver.RespondOK(c, ActionCheckResponse{
		Allowed: true,
		Status:  ToStatusResponse(result.UserID, result.Status),
	})
}

// Register handles POST /api/v1/users.
func (h *UserHandler) Register(c echo.Context) error {
	var req RegisterUserRequest
	if err := c.Bind(&req); err != nil {
		return httpserver.RespondErrorWithCode(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
	}

	result, err := h.userService.RegisterUser(c.Request().Context(), userapp.RegisterUserCommand{
		ExternalID:  req.ExternalID,
		Username:    req.Username,
		Email:       req.Email,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		return handleUserError(c, err)
	}
	return httpserver.RespondCreated(c, ToUserResponse(result.Value, h.config.Clock()))
}

// Import handles POST /api/v1/users/import.
func (h *UserHandler) Import(c echo.Context) error {
	actorID := middleware.GetUserID(c)
	if actorID.IsZero() {
		return respondUnauthorized(c)
	}

	var req ImportUserRequest
	if bindErr := c.Bind(&req); bindErr != nil {
		return httpserver.RespondErrorWithCode(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
	}
	record, err := req.record()
	if err != nil {
		return httpserver.RespondErrorWithCode(c, http.StatusBadRequest, "INVALID_DURATION", err.Error())
	}

	result, err := h.userService.ImportLegacyUser(c.Request().Context(), userapp.ImportLegacyUserCommand{
		ActorID:     actorID,
		ExternalID:  req.ExternalID,
		Username:    req.Username,
		Email:       req.Email,
		DisplayName: req.DisplayName,
		Record:      record,
	})
	if err != nil {
		return handleUserError(c, err)
	}
	return httpserver.RespondOK(c, ToUserResponse(result.Value, h.config.Clock()))
}

// Ban handles POST /api/v1/users/:id/ban.
func (h *UserHandler) Ban(c echo.Context) error {
	return h.moderate(c, func(ctx context.Context, target, actor uuid.UUID) (userapp.Result, error) {
		return h.userService.BanUser(ctx, userapp.BanUserCommand{UserID: target, ActorID: actor})
	})
}

// Unban handles POST /api/v1/users/:id/unban.
func (h *UserHandler) Unban(c echo.Context) error {
	return h.moderate(c, func(ctx context.Context, target, actor uuid.UUID) (userapp.Result, error) {
		return h.userService.UnbanUser(ctx, userapp.UnbanUserCommand{UserID: target, ActorID: actor})
	})
}

// Detain handles POST /api/v1/users/:id/detain with body {"duration":"72h"}.
func (h *UserHandler) Detain(c echo.Context) error {
	var req DetainRequest
	if err := c.Bind(&req); err != nil {
		return httpserver.RespondErrorWithCode(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
	}
	duration, err := time.ParseDuration(req.Duration)
	if err != nil {
		return httpserver.RespondErrorWithCode(c, http.StatusBadRequest, "INVALID_DURATION",
			"duration must look like 30m or 72h")
	}

	return h.moderate(c, func(ctx context.Context, target, actor uuid.UUID) (userapp.Result, error) {
		return h.userService.DetainUser(ctx, userapp.DetainUserCommand{
			UserID:   target,
			ActorID:  actor,
			Duration: duration,
		})
	})
}

// Release handles POST /api/v1/users/:id/release.
func (h *UserHandler) Release(c echo.Context) error {
	return h.moderate(c, func(ctx context.Context, target, actor uuid.UUID) (userapp.Result, error) {
		return h.userService.ReleaseUser(ctx, userapp.ReleaseUserCommand{UserID: target, ActorID: actor})
	})
}

// Delete handles DELETE /api/v1/users/:id.
func (h *UserHandler) Delete(c echo.Context) error {
	return h.moderate(c, func(ctx context.Context, target, actor uuid.UUID) (userapp.Result, error) {
		return h.userService.DeleteUser(ctx, userapp.DeleteUserCommand{UserID: target, ActorID: actor})
	})
}

type moderationFunc func(ctx context.Context, target, actor uuid.UUID) (userapp.Result, error)

func (h *UserHandler) moderate(c echo.Context, run moderationFunc) error {
	actorID := middleware.GetUserID(c)
	if actorID.IsZero() {
		return respondUnauthorized(c)
	}
	targetID, err := uuid.ParseUUID(c.Param("id"))
	if err != nil {
		return respondInvalidUserID(c)
	}

	result, err := run(c.Request().Context(), targetID, actorID)
	if err != nil {
		return handleUserError(c, err)
	}
	return httpserver.RespondOK(c, ToUserResponse(result.Value, h.config.Clock()))
}

func (h *UserHandler) parsePaging(c echo.Context) (int, int, error) {
	offset, limit := 0, h.config.DefaultLimit

	if raw := c.QueryParam("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return 0, 0, errors.New("offset must be a non-negative integer")
		}
		offset = n
	}
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return 0, 0, errors.New("limit must be a positive integer")
		}
		limit = min(n, h.config.MaxLimit)
	}
	return offset, limit, nil
}

func respondUnauthorized(c echo.Context) error {
	return httpserver.RespondErrorWithCode(c, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
}

func respondInvalidUserID(c echo.Context) error {
	return httpserver.RespondErrorWithCode(c, http.StatusBadRequest, "INVALID_USER_ID", "invalid user ID format")
}

func handleUserError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, userapp.ErrUserNotFound):
		return httpserver.RespondErrorWithCode(c, http.StatusNotFound, "USER_NOT_FOUND", "user not found")
	case errors.Is(err, userapp.ErrUsernameAlreadyExists):
		return httpserver.RespondErrorWithCode(
			c, http.StatusConflict, "USERNAME_EXISTS", "username is already in use")
	case errors.Is(err, userapp.ErrEmailAlreadyExists):
		return httpserver.RespondErrorWithCode(
			c, http.StatusConflict, "EMAIL_EXISTS", "email is already in use")
	case errors.Is(err, userapp.ErrNotSystemAdmin):
		return httpserver.RespondErrorWithCode(
			c, http.StatusForbidden, "NOT_SYSTEM_ADMIN", "only system administrators can do this")
	case errors.Is(err, userapp.ErrSelfModeration):
		return httpserver.RespondErrorWithCode(
			c, http.StatusForbidden, "SELF_MODERATION", "administrators cannot moderate their own account")
	default:
		return httpserver.RespondError(c, err)
	}
}
