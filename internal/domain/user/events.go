package user

import (
	"time"

	"github.com/lllypuk/commons/internal/domain/event"
	"github.com/lllypuk/commons/internal/domain/uuid"
)

const (
	EventTypeUserRegistered        = "user.registered"
	EventTypeUserBanned            = "user.banned"
	EventTypeUserUnbanned          = "user.unbanned"
	EventTypeUserDetained          = "user.detained"
	EventTypeUserReleased          = "user.released"
	EventTypeUserDeleted           = "user.deleted"
	EventTypeUserLifecycleImported = "user.lifecycle_imported"
)

func newBase(eventType string, userID uuid.UUID, version int, at time.Time, meta event.Metadata) event.BaseEvent {
	return event.NewBaseEvent(eventType, userID.String(), aggregateType, version, at, meta)
}

// Registered is recorded when a user is created.
type Registered struct {
	event.BaseEvent

	Username    string `json:"username"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

func NewRegistered(
	userID uuid.UUID,
	username, email, displayName string,
	version int,
	at time.Time,
	meta event.Metadata,
) *Registered {
	return &Registered{
		BaseEvent:   newBase(EventTypeUserRegistered, userID, version, at, meta),
		Username:    username,
		Email:       email,
		DisplayName: displayName,
	}
}

// Banned is recorded when a user is banned.
type Banned struct {
	event.BaseEvent
}

func NewBanned(userID uuid.UUID, version int, at time.Time, meta event.Metadata) *Banned {
	return &Banned{BaseEvent: newBase(EventTypeUserBanned, userID, version, at, meta)}
}

// Unbanned is recorded when a ban is lifted.
type Unbanned struct {
	event.BaseEvent
}

func NewUnbanned(userID uuid.UUID, version int, at time.Time, meta event.Metadata) *Unbanned {
	return &Unbanned{BaseEvent: newBase(EventTypeUserUnbanned, userID, version, at, meta)}
}

// Detained is recorded when a user is detained.
type Detained struct {
	event.BaseEvent

	Until    time.Time     `json:"until"`
	Duration time.Duration `json:"duration"`
}

func NewDetained(
	userID uuid.UUID,
	until time.Time,
	duration time.Duration,
	version int,
	at time.Time,
	meta event.Metadata,
) *Detained {
	return &Detained{
		BaseEvent: newBase(EventTypeUserDetained, userID, version, at, meta),
		Until:     until,
		Duration:  duration,
	}
}

// Released is recorded when a detention is ended early.
type Released struct {
	event.BaseEvent
}

func NewReleased(userID uuid.UUID, version int, at time.Time, meta event.Metadata) *Released {
	return &Released{BaseEvent: newBase(EventTypeUserReleased, userID, version, at, meta)}
}

// Deleted is recorded when a user is deleted.
type Deleted struct {
	event.BaseEvent
}

func NewDeleted(userID uuid.UUID, version int, at time.Time, meta event.Metadata) *Deleted {
	return &Deleted{BaseEvent: newBase(EventTypeUserDeleted, userID, version, at, meta)}
}

// LifecycleImported is recorded when a lifecycle is derived from a legacy record.
type LifecycleImported struct {
	event.BaseEvent

	Status Status `json:"status"`
}

func NewLifecycleImported(
	userID uuid.UUID,
	status Status,
	version int,
	at time.Time,
	meta event.Metadata,
) *LifecycleImported {
	return &LifecycleImported{
		BaseEvent: newBase(EventTypeUserLifecycleImported, userID, version, at, meta),
		Status:    status,
	}
}
