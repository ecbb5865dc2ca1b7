package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lllypuk/commons/internal/application/appcore"
	"github.com/lllypuk/commons/internal/domain/errs"
	"github.com/lllypuk/commons/internal/domain/user"
)

// Response is the envelope every API endpoint answers with.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   *Error `json:"error,omitempty"`
}

type Error struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// HTTPError lets an error choose its own HTTP representation.
type HTTPError interface {
	error
	HTTPStatus() int
	HTTPCode() string
	HTTPMessage() string
}

// APIError is a ready-made HTTPError wrapping a cause.
type APIError struct {
	Status  int
	Code    string
	Message string
	Err     error
}

func NewAPIError(status int, code, message string, cause error) *APIError {
	return &APIError{Status: status, Code: code, Message: message, Err: cause}
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *APIError) Unwrap() error       { return e.Err }
func (e *APIError) HTTPStatus() int     { return e.Status }
func (e *APIError) HTTPCode() string    { return e.Code }
func (e *APIError) HTTPMessage() string { return e.Message }

func RespondJSON(c echo.Context, code int, data any) error {
	return c.JSON(code, Response{Success: true, Data: data})
}

func RespondOK(c echo.Context, data any) error {
	return RespondJSON(c, http.StatusOK, data)
}

func RespondCreated(c echo.Context, data any) error {
	return RespondJSON(c, http.StatusCreated, data)
}

func RespondNoContent(c echo.Context) error {
	return c.NoContent(http.StatusNoContent)
}

// RespondError writes err using the status and code mapError picks for it.
func RespondError(c echo.Context, err error) error {
	status, apiErr := mapError(err)
	return c.JSON(status, Response{Success: false, Error: apiErr})
}

func RespondErrorWithCode(c echo.Context, status int, code, message string) error {
	return c.JSON(status, Response{
		Success: false,
		Error:   &Error{Code: code, Message: message},
	})
}

func mapError(err error) (int, *Error) {
	if status, apiErr, ok := mapLifecycleError(err); ok {
		return status, apiErr
	}

	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.HTTPStatus(), &Error{Code: httpErr.HTTPCode(), Message: httpErr.HTTPMessage()}
	}

	var valErr *appcore.ValidationError
	if errors.As(err, &valErr) {
		return http.StatusBadRequest, &Error{
			Code:    "VALIDATION_ERROR",
			Message: valErr.Message,
			Details: map[string]any{"field": valErr.Field},
		}
	}

	switch {
	case errors.Is(err, errs.ErrNotFound), errors.Is(err, appcore.ErrNotFound):
		return http.StatusNotFound, &Error{Code: "NOT_FOUND", Message: "The requested resource was not found"}
	case errors.Is(err, errs.ErrAlreadyExists):
		return http.StatusConflict, &Error{Code: "ALREADY_EXISTS", Message: "The resource already exists"}
	case errors.Is(err, errs.ErrInvalidInput), errors.Is(err, appcore.ErrValidationFailed):
		return http.StatusBadRequest, &Error{Code: "INVALID_INPUT", Message: "Invalid input data"}
	case errors.Is(err, errs.ErrUnauthorized), errors.Is(err, appcore.ErrUnauthorized):
		return http.StatusUnauthorized, &Error{Code: "UNAUTHORIZED", Message: "Authentication required"}
	case errors.Is(err, errs.ErrForbidden), errors.Is(err, appcore.ErrForbidden):
		return http.StatusForbidden, &Error{Code: "FORBIDDEN", Message: "Access denied"}
	case errors.Is(err, errs.ErrInvalidTransition):
		return http.StatusUnprocessableEntity, &Error{
			Code:    "INVALID_TRANSITION",
			Message: "Lifecycle transition not allowed from the current state",
		}
	default:
		return http.StatusInternalServerError, &Error{Code: "INTERNAL_ERROR", Message: "An internal error occurred"}
	}
}

// mapLifecycleError turns the gate's inactive-user errors into 403s that
// name the reason and carry its timestamps.
func mapLifecycleError(err error) (int, *Error, bool) {
	var banned *user.BannedError
	if errors.As(err, &banned) {
		return http.StatusForbidden, &Error{
			Code:    "USER_BANNED",
			Message: "The user is banned",
			Details: map[string]any{"user_id": banned.UserID.String(), "since": banned.Since},
		}, true
	}

	var deleted *user.DeletedError
	if errors.As(err, &deleted) {
		return http.StatusForbidden, &Error{
			Code:    "USER_DELETED",
			Message: "The user has been deleted",
			Details: map[string]any{"user_id": deleted.UserID.String(), "since": deleted.Since},
		}, true
	}

	var detained *user.DetainedError
	if errors.As(err, &detained) {
		return http.StatusForbidden, &Error{
			Code:    "USER_DETAINED",
			Message: "The user is detained",
			Details: map[string]any{
				"user_id":  detained.UserID.String(),
				"until":    detained.Until,
				"duration": detained.Duration.String(),
			},
		}, true
	}

	return 0, nil, false
}
