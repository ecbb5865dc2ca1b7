package user

import (
	"github.com/lllypuk/commons/internal/domain/user"
	"github.com/lllypuk/commons/internal/domain/uuid"
)

// GetUserQuery loads a user by ID
type GetUserQuery struct {
	UserID uuid.UUID
}

func (q GetUserQuery) QueryName() string { return "GetUser" }

// ListUsersQuery lists users page by page. An empty State lists everyone.
type ListUsersQuery struct {
	Offset int
	Limit  int
	State  user.State
}

func (q ListUsersQuery) QueryName() string { return "ListUsers" }

// GetStatusQuery evaluates a user's lifecycle now
type GetStatusQuery struct {
	UserID uuid.UUID
}

func (q GetStatusQuery) QueryName() string { return "GetStatus" }

// EnsureActiveQuery asks whether a user may perform an action now
type EnsureActiveQuery struct {
	UserID uuid.UUID
}

func (q EnsureActiveQuery) QueryName() string { return "EnsureActive" }
