package user

import (
	"time"

	"github.com/lllypuk/commons/internal/domain/user"
	"github.com/lllypuk/commons/internal/domain/uuid"
)

// RegisterUserCommand registers a new user
type RegisterUserCommand struct {
	ExternalID  string // subject in the identity provider
	Username    string
	Email       string
	DisplayName string
}

func (c RegisterUserCommand) CommandName() string { return "RegisterUser" }

// BanUserCommand bans a user
type BanUserCommand struct {
	UserID  uuid.UUID
	ActorID uuid.UUID // must be a system admin
}

func (c BanUserCommand) CommandName() string { return "BanUser" }

// UnbanUserCommand lifts a ban
type UnbanUserCommand struct {
	UserID  uuid.UUID
	ActorID uuid.UUID
}

func (c UnbanUserCommand) CommandName() string { return "UnbanUser" }

// DetainUserCommand suspends a user for Duration
type DetainUserCommand struct {
	UserID   uuid.UUID
	ActorID  uuid.UUID
	Duration time.Duration
}

func (c DetainUserCommand) CommandName() string { return "DetainUser" }

// ReleaseUserCommand ends a detention early
type ReleaseUserCommand struct {
	UserID  uuid.UUID
	ActorID uuid.UUID
}

func (c ReleaseUserCommand) CommandName() string { return "ReleaseUser" }

// DeleteUserCommand marks a user deleted
type DeleteUserCommand struct {
	UserID  uuid.UUID
	ActorID uuid.UUID
}

func (c DeleteUserCommand) CommandName() string { return "DeleteUser" }

// ImportLegacyUserCommand creates or updates a user from a legacy record.
// The user is matched on ExternalID.
type ImportLegacyUserCommand struct {
	ActorID     uuid.UUID
	ExternalID  string
	Username    string
	Email       string
	DisplayName string
	Record      user.LegacyRecord
}

func (c ImportLegacyUserCommand) CommandName() string { return "ImportLegacyUser" }

// ResolveActorCommand maps an authenticated identity to a local user
type ResolveActorCommand struct {
	ExternalID    string
	Username      string
	Email         string
	DisplayName   string
	IsSystemAdmin bool // as asserted by the identity provider
}

func (c ResolveActorCommand) CommandName() string { return "ResolveActor" }
