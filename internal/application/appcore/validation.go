package appcore

import (
	"fmt"
	"net/mail"
	"time"

	"github.com/lllypuk/commons/internal/domain/uuid"
)

// ValidateRequired checks that value is not empty
func ValidateRequired(field, value string) error {
	if value == "" {
		return NewValidationError(field, "is required")
	}
	return nil
}

// ValidateUUID checks that id is set
func ValidateUUID(field string, id uuid.UUID) error {
	if id.IsZero() {
		return NewValidationError(field, "must be a valid UUID")
	}
	return nil
}

// ValidateMaxLength checks an upper bound on string length
func ValidateMaxLength(field, value string, maxLength int) error {
	if len(value) > maxLength {
		return NewValidationError(field, fmt.Sprintf("must be at most %d characters", maxLength))
	}
	return nil
}

// ValidateNonNegative checks value >= 0
func ValidateNonNegative(field string, value int) error {
	if value < 0 {
		return NewValidationError(field, "must be non-negative")
	}
	return nil
}

// ValidateRange checks minValue <= value <= maxValue
func ValidateRange(field string, value, minValue, maxValue int) error {
	if value < minValue || value > maxValue {
		return NewValidationError(field, fmt.Sprintf("must be between %d and %d", minValue, maxValue))
	}
	return nil
}

// ValidateDuration checks minValue <= d <= maxValue
func ValidateDuration(field string, d, minValue, maxValue time.Duration) error {
	if d < minValue || d > maxValue {
		return NewValidationError(field, fmt.Sprintf("must be between %s and %s", minValue, maxValue))
	}
	return nil
}

// ValidateEmail checks that value is a bare address such as user@example.com
func ValidateEmail(field, value string) error {
	if value == "" {
		return NewValidationError(field, "email is required")
	}
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value {
		return NewValidationError(field, "must be a valid email address")
	}
	return nil
}
