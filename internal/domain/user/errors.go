package user

import (
	"errors"
	"fmt"
	"time"

	"github.com/lllypuk/commons/internal/domain/uuid"
)

// ErrUserInactive is wrapped by every error CheckActive returns, so callers
// that don't care about the reason can match on it alone.
var ErrUserInactive = errors.New("user is not active")

// BannedError is returned when a banned user attempts an action.
type BannedError struct {
	UserID uuid.UUID
	Since  time.Time
}

func (e *BannedError) Error() string {
	return fmt.Sprintf("user %s is banned since %s", e.UserID, e.Since.Format(time.RFC3339))
}

func (e *BannedError) Unwrap() error { return ErrUserInactive }

// DeletedError is returned when a deleted user attempts an action.
type DeletedError struct {
	UserID uuid.UUID
	Since  time.Time
}

func (e *DeletedError) Error() string {
	return fmt.Sprintf("user %s was deleted at %s", e.UserID, e.Since.Format(time.RFC3339))
}

func (e *DeletedError) Unwrap() error { return ErrUserInactive }

// DetainedError is returned when a detained user attempts an action before
// the detention ends.
type DetainedError struct {
	UserID   uuid.UUID
	Until    time.Time
	Duration time.Duration
}

func (e *DetainedError) Error() string {
	return fmt.Sprintf("user %s is detained until %s (%s)",
		e.UserID, e.Until.Format(time.RFC3339), e.Duration)
}

func (e *DetainedError) Unwrap() error { return ErrUserInactive }

// InactiveError converts a status into the matching error for userID, or nil
// when the status is active.
func InactiveError(userID uuid.UUID, s Status) error {
	switch s.State {
	case StateBanned:
		return &BannedError{UserID: userID, Since: s.Since}
	case StateDeleted:
		return &DeletedError{UserID: userID, Since: s.Since}
	case StateDetained:
		return &DetainedError{UserID: userID, Until: s.Until, Duration: s.Duration}
	default:
		return nil
	}
}
