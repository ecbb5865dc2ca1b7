package appcore

import (
	"context"
	"errors"

	"github.com/lllypuk/commons/internal/domain/uuid"
)

type contextKey string

const (
	userIDKey        contextKey = "userID"
	correlationIDKey contextKey = "correlationID"
)

var (
	ErrUserIDNotFound        = errors.New("user ID not found in context")
	ErrCorrelationIDNotFound = errors.New("correlation ID not found in context")
)

// GetUserID extracts the acting user's ID from the context
func GetUserID(ctx context.Context) (uuid.UUID, error) {
	userID, ok := ctx.Value(userIDKey).(uuid.UUID)
	if !ok {
		return "", ErrUserIDNotFound
	}
	return userID, nil
}

// WithUserID stores the acting user's ID in the context
func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// GetCorrelationID extracts the request correlation ID from the context
func GetCorrelationID(ctx context.Context) (string, error) {
	correlationID, ok := ctx.Value(correlationIDKey).(string)
	if !ok {
		return "", ErrCorrelationIDNotFound
	}
	return correlationID, nil
}

// WithCorrelationID stores the request correlation ID in the context
func WithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, correlationIDKey, correlationID)
}
