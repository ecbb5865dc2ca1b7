// Package auth validates bearer tokens, either with a shared HMAC secret or
// against a remote JWKS endpoint.
package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken    = errors.New("invalid token")
	ErrInvalidClaims   = errors.New("invalid claims")
	ErrMissingSubject  = errors.New("missing subject claim")
	ErrTokenExpired    = errors.New("token expired")
	ErrInvalidIssuer   = errors.New("invalid issuer")
	ErrInvalidAudience = errors.New("invalid audience")
	ErrJWKSFetchFailed = errors.New("failed to fetch JWKS")
)

const DefaultLeeway = 30 * time.Second

// Claims are the validated identity claims the service cares about.
type Claims struct {
	Subject   string
	Username  string
	Email     string
	Name      string
	Roles     []string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// HasAnyRole reports whether the claims carry at least one of roles.
func (c *Claims) HasAnyRole(roles ...string) bool {
	for _, r := range roles {
		if slices.Contains(c.Roles, r) {
			return true
		}
	}
	return false
}

// Validator turns a raw bearer token into Claims.
type Validator interface {
	Validate(ctx context.Context, token string) (*Claims, error)
	Close() error
}

func parserOptions(issuer, audience string, leeway time.Duration) []jwt.ParserOption {
	opts := []jwt.ParserOption{
		jwt.WithLeeway(leeway),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	if audience != "" {
		opts = append(opts, jwt.WithAudience(audience))
	}
	return opts
}

func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %w", ErrTokenExpired, err)
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return fmt.Errorf("%w: %w", ErrInvalidIssuer, err)
	case errors.Is(err, jwt.ErrTokenInvalidAudience):
		return fmt.Errorf("%w: %w", ErrInvalidAudience, err)
	default:
		return fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
}

// extractClaims reads the standard claims plus Keycloak-style roles
// (realm_access.roles) and a flat "roles" array.
func extractClaims(token *jwt.Token) (*Claims, error) {
	raw, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidClaims
	}

	c := &Claims{}
	c.Subject, _ = raw["sub"].(string)
	if c.Subject == "" {
		return nil, ErrMissingSubject
	}
	c.Email, _ = raw["email"].(string)
	c.Username, _ = raw["preferred_username"].(string)
	c.Name, _ = raw["name"].(string)

	c.Roles = stringSlice(raw["roles"])
	if realmAccess, ok := raw["realm_access"].(map[string]any); ok {
		c.Roles = append(c.Roles, stringSlice(realmAccess["roles"])...)
	}

	if iat, err := raw.GetIssuedAt(); err == nil && iat != nil {
		c.IssuedAt = iat.Time
	}
	if exp, err := raw.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	return c, nil
}

func stringSlice(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
