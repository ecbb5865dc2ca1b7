package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// HMACConfig configures an HS256 validator.
type HMACConfig struct {
	Secret   string
	Issuer   string // optional
	Audience string // optional
	Leeway   time.Duration
}

// HMACValidator validates HS256 tokens signed with a shared secret.
type HMACValidator struct {
	secret []byte
	opts   []jwt.ParserOption
}

func NewHMACValidator(cfg HMACConfig) (*HMACValidator, error) {
	if cfg.Secret == "" {
		return nil, errors.New("hmac secret is required")
	}
	if cfg.Leeway == 0 {
		cfg.Leeway = DefaultLeeway
	}

	opts := parserOptions(cfg.Issuer, cfg.Audience, cfg.Leeway)
	opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	return &HMACValidator{secret: []byte(cfg.Secret), opts: opts}, nil
}

func (v *HMACValidator) Validate(_ context.Context, tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	token, err := jwt.Parse(tokenString, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, v.opts...)
	if err != nil {
		return nil, mapParseError(err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return extractClaims(token)
}

func (v *HMACValidator) Close() error { return nil }

// Sign issues an HS256 token for claims. Used by tooling and tests.
func (v *HMACValidator) Sign(claims jwt.MapClaims) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

var _ Validator = (*HMACValidator)(nil)
