package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/MicahParks/jwkset"
	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

const DefaultRefreshInterval = time.Hour

// JWKSConfig configures a validator backed by a remote key set, such as an
// OpenID Connect provider's certs endpoint.
type JWKSConfig struct {
	URL             string
	Issuer          string
	Audience        string
	Leeway          time.Duration
	RefreshInterval time.Duration
	Logger          *slog.Logger
}

// JWKSValidator validates asymmetric tokens offline with periodically refreshed keys.
type JWKSValidator struct {
	jwks   keyfunc.Keyfunc
	opts   []jwt.ParserOption
	logger *slog.Logger
	cancel context.CancelFunc
}

// NewJWKSValidator fetches the key set once and keeps it refreshed until Close.
func NewJWKSValidator(cfg JWKSConfig) (*JWKSValidator, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("%w: URL is required", ErrJWKSFetchFailed)
	}
	if cfg.Leeway == 0 {
		cfg.Leeway = DefaultLeeway
	}
	if cfg.RefreshInterval == 0 {
		cfg.RefreshInterval = DefaultRefreshInterval
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("initializing JWKS validator",
		slog.String("jwks_url", cfg.URL),
		slog.Duration("refresh_interval", cfg.RefreshInterval),
	)

	ctx, cancel := context.WithCancel(context.Background())

	storage, err := jwkset.NewStorageFromHTTP(cfg.URL, jwkset.HTTPClientStorageOptions{
		Ctx:             ctx,
		RefreshInterval: cfg.RefreshInterval,
		RefreshErrorHandler: func(_ context.Context, err error) {
			logger.Error("failed to refresh JWKS", slog.Any("error", err))
		},
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: %w", ErrJWKSFetchFailed, err)
	}

	jwks, err := keyfunc.New(keyfunc.Options{Ctx: ctx, Storage: storage})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: %w", ErrJWKSFetchFailed, err)
	}

	return &JWKSValidator{
		jwks:   jwks,
		opts:   parserOptions(cfg.Issuer, cfg.Audience, cfg.Leeway),
		logger: logger,
		cancel: cancel,
	}, nil
}

func (v *JWKSValidator) Validate(_ context.Context, tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	token, err := jwt.Parse(tokenString, v.jwks.Keyfunc, v.opts...)
	if err != nil {
		return nil, mapParseError(err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return extractClaims(token)
}

// Close stops the background refresh.
func (v *JWKSValidator) Close() error {
	v.logger.Info("closing JWKS validator")
	v.cancel()
	return nil
}

var _ Validator = (*JWKSValidator)(nil)
