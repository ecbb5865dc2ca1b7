package user

import (
	"fmt"
	"time"

	"github.com/lllypuk/commons/internal/domain/errs"
	"github.com/lllypuk/commons/internal/domain/event"
	"github.com/lllypuk/commons/internal/domain/uuid"
)

const aggregateType = "User"

// User is the user aggregate. Its lifecycle is a single Status value changed
// only through the transition methods, each of which records a domain event.
type User struct {
	id            uuid.UUID
	externalID    string // subject in the identity provider
	username      string
	email         string
	displayName   string
	isSystemAdmin bool
	status        Status
	version       int
	createdAt     time.Time
	updatedAt     time.Time

	uncommittedEvents []event.DomainEvent
}

// NewUser creates an active user and records a Registered event.
func NewUser(externalID, username, email, displayName string) (*User, error) {
	if externalID == "" || username == "" || email == "" {
		return nil, errs.ErrInvalidInput
	}

	now := time.Now().UTC()
	u := &User{
		id:          uuid.NewUUID(),
		externalID:  externalID,
		username:    username,
		email:       email,
		displayName: displayName,
		status:      ActiveStatus(time.Time{}),
		createdAt:   now,
		updatedAt:   now,
	}
	u.record(func(version int, meta event.Metadata) event.DomainEvent {
		return NewRegistered(u.id, username, email, displayName, version, now, meta)
	}, "")
	return u, nil
}

// Reconstruct restores a user from storage. No events are recorded.
func Reconstruct(
	id uuid.UUID,
	externalID, username, email, displayName string,
	isSystemAdmin bool,
	status Status,
	version int,
	createdAt, updatedAt time.Time,
) *User {
	return &User{
		id:            id,
		externalID:    externalID,
		username:      username,
		email:         email,
		displayName:   displayName,
		isSystemAdmin: isSystemAdmin,
		status:        status,
		version:       version,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}
}

// Getters

func (u *User) ID() uuid.UUID        { return u.id }
func (u *User) ExternalID() string   { return u.externalID }
func (u *User) Username() string     { return u.username }
func (u *User) Email() string        { return u.email }
func (u *User) DisplayName() string  { return u.displayName }
func (u *User) IsSystemAdmin() bool  { return u.isSystemAdmin }
func (u *User) Version() int         { return u.version }
func (u *User) CreatedAt() time.Time { return u.createdAt }
func (u *User) UpdatedAt() time.Time { return u.updatedAt }
func (u *User) StoredStatus() Status { return u.status }

// Status evaluates the user's lifecycle at now.
func (u *User) Status(now time.Time) Status {
	return u.status.At(now)
}

// CheckActive returns nil when the user may act at now, otherwise a
// *BannedError, *DeletedError or *DetainedError.
func (u *User) CheckActive(now time.Time) error {
	return InactiveError(u.id, u.Status(now))
}

// SetAdmin grants or revokes system administrator rights.
func (u *User) SetAdmin(isAdmin bool) {
	u.isSystemAdmin = isAdmin
	u.updatedAt = time.Now().UTC()
}

// Lifecycle transitions

// Ban bans the user from now on.
func (u *User) Ban(by uuid.UUID, now time.Time) error {
	if err := u.transition(StateBanned, now); err != nil {
		return err
	}
	u.status = BannedStatus(now)
	u.record(func(version int, meta event.Metadata) event.DomainEvent {
		return NewBanned(u.id, version, now, meta)
	}, by)
	return nil
}

// Unban lifts a ban.
func (u *User) Unban(by uuid.UUID, now time.Time) error {
	if u.Status(now).State != StateBanned {
		return u.invalid(StateActive, now)
	}
	u.status = ActiveStatus(now)
	u.record(func(version int, meta event.Metadata) event.DomainEvent {
		return NewUnbanned(u.id, version, now, meta)
	}, by)
	return nil
}

// Delete marks the user deleted. Deletion is final.
func (u *User) Delete(by uuid.UUID, now time.Time) error {
	if err := u.transition(StateDeleted, now); err != nil {
		return err
	}
	u.status = DeletedStatus(now)
	u.record(func(version int, meta event.Metadata) event.DomainEvent {
		return NewDeleted(u.id, version, now, meta)
	}, by)
	return nil
}

// Detain suspends an active user for duration.
func (u *User) Detain(by uuid.UUID, now time.Time, duration time.Duration) error {
	if duration <= 0 {
		return fmt.Errorf("detention duration must be positive: %w", errs.ErrInvalidInput)
	}
	if err := u.transition(StateDetained, now); err != nil {
		return err
	}
	u.status = DetainedStatus(now, duration)
	until := u.status.Until
	u.record(func(version int, meta event.Metadata) event.DomainEvent {
		return NewDetained(u.id, until, duration, version, now, meta)
	}, by)
	return nil
}

// Release ends a running detention early.
func (u *User) Release(by uuid.UUID, now time.Time) error {
	if u.Status(now).State != StateDetained {
		return u.invalid(StateActive, now)
	}
	u.status = ActiveStatus(now)
	u.record(func(version int, meta event.Metadata) event.DomainEvent {
		return NewReleased(u.id, version, now, meta)
	}, by)
	return nil
}

// ImportLifecycle replaces the lifecycle with one derived from a legacy record.
func (u *User) ImportLifecycle(by uuid.UUID, rec LegacyRecord, now time.Time) {
	u.status = DeriveLifecycle(rec, now)
	status := u.status
	u.record(func(version int, meta event.Metadata) event.DomainEvent {
		return NewLifecycleImported(u.id, status, version, now, meta)
	}, by)
}

// UncommittedEvents returns events recorded since the last commit.
func (u *User) UncommittedEvents() []event.DomainEvent {
	return u.uncommittedEvents
}

// MarkEventsAsCommitted clears the recorded events.
func (u *User) MarkEventsAsCommitted() {
	u.uncommittedEvents = nil
}

func (u *User) transition(to State, now time.Time) error {
	if !CanTransition(u.Status(now).State, to) {
		return u.invalid(to, now)
	}
	return nil
}

func (u *User) invalid(to State, now time.Time) error {
	return fmt.Errorf("%w: %s -> %s", errs.ErrInvalidTransition, u.Status(now).State, to)
}

func (u *User) record(build func(version int, meta event.Metadata) event.DomainEvent, by uuid.UUID) {
	u.version++
	u.updatedAt = time.Now().UTC()
	meta := event.NewMetadata(by.String(), uuid.NewUUID().String(), "")
	u.uncommittedEvents = append(u.uncommittedEvents, build(u.version, meta))
}
