package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/lllypuk/commons/internal/application/appcore"
	"github.com/lllypuk/commons/internal/domain/uuid"
	"github.com/lllypuk/commons/internal/infrastructure/auth"
	"github.com/lllypuk/commons/internal/infrastructure/httpserver"
)

type contextKey string

const (
	ContextKeyUserID contextKey = "user_id"
	ContextKeyClaims contextKey = "claims"
)

var (
	ErrMissingAuthHeader = errors.New("missing authorization header")
	ErrInvalidAuthHeader = errors.New("invalid authorization header format")
	ErrUnknownUser       = errors.New("no local user for token subject")
)

// TokenValidator checks a bearer token. auth.HMACValidator and
// auth.JWKSValidator both satisfy it.
type TokenValidator interface {
	Validate(ctx context.Context, token string) (*auth.Claims, error)
}

// ActorResolver maps validated claims to the local user ID.
type ActorResolver interface {
	ResolveActor(ctx context.Context, claims *auth.Claims) (uuid.UUID, error)
}

type AuthConfig struct {
	Logger    *slog.Logger
	Validator TokenValidator
	Resolver  ActorResolver
	SkipPaths []string
}

// Auth authenticates the bearer token and stores the acting user's ID in
// both the Echo context and the request context.
func Auth(config AuthConfig) echo.MiddlewareFunc {
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
			if _, ok := skipPaths[req.URL.Path]; ok {
				return next(c)
			}

			token, err := extractBearerToken(req.Header.Get(echo.HeaderAuthorization))
			if err != nil {
				return respondAuthError(c, err)
			}

			claims, err := config.Validator.Validate(req.Context(), token)
			if err != nil {
				config.Logger.WarnContext(req.Context(), "token validation failed",
					slog.String("error", err.Error()),
					slog.String("path", req.URL.Path),
					slog.String("remote_ip", c.RealIP()),
				)
				return respondAuthError(c, err)
			}

			userID, err := config.Resolver.ResolveActor(req.Context(), claims)
			if err != nil {
				config.Logger.WarnContext(req.Context(), "failed to resolve actor",
					slog.String("subject", claims.Subject),
					slog.String("error", err.Error()),
				)
				return respondAuthError(c, ErrUnknownUser)
			}

			c.Set(string(ContextKeyUserID), userID)
			c.Set(string(ContextKeyClaims), claims)
			c.SetRequest(req.WithContext(appcore.WithUserID(req.Context(), userID)))
			return next(c)
		}
	}
}

func extractBearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrMissingAuthHeader
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", ErrInvalidAuthHeader
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	if token == "" {
		return "", ErrInvalidAuthHeader
	}
	return token, nil
}

func respondAuthError(c echo.Context, err error) error {
	code, message := "UNAUTHORIZED", "Authentication required"
	switch {
	case errors.Is(err, ErrMissingAuthHeader):
		message = "Missing authorization header"
	case errors.Is(err, ErrInvalidAuthHeader):
		message = "Invalid authorization header format"
	case errors.Is(err, auth.ErrTokenExpired):
		code, message = "TOKEN_EXPIRED", "Token has expired"
	case errors.Is(err, ErrUnknownUser):
		code, message = "USER_NOT_FOUND", "No user is registered for this token"
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrMissingSubject),
		errors.Is(err, auth.ErrInvalidIssuer), errors.Is(err, auth.ErrInvalidAudience):
		message = "Invalid token"
	}
	return httpserver.RespondErrorWithCode(c, http.StatusUnauthorized, code, message)
}

// GetUserID returns the authenticated user's ID, or the zero UUID.
func GetUserID(c echo.Context) uuid.UUID {
	if id, ok := c.Get(string(ContextKeyUserID)).(uuid.UUID); ok {
		return id
	}
	return ""
}

func GetClaims(c echo.Context) *auth.Claims {
	claims, _ := c.Get(string(ContextKeyClaims)).(*auth.Claims)
	return claims
}
