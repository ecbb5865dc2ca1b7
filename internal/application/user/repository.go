package user

import (
	"context"

	"github.com/lllypuk/commons/internal/domain/user"
	"github.com/lllypuk/commons/internal/domain/uuid"
)

// CommandRepository persists users.
// Declared on the consumer side.
type CommandRepository interface {
	// Save inserts or replaces the user
	Save(ctx context.Context, u *user.User) error
}

// ListFilter narrows List and Count. The zero value matches every user.
type ListFilter struct {
	State user.State
}

// QueryRepository reads users. Lookups return errs.ErrNotFound when nothing matches.
type QueryRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	FindByExternalID(ctx context.Context, externalID string) (*user.User, error)
	FindByEmail(ctx context.Context, email string) (*user.User, error)
	FindByUsername(ctx context.Context, username string) (*user.User, error)

	// List returns users ordered by creation time, newest first
	List(ctx context.Context, filter ListFilter, offset, limit int) ([]*user.User, error)
	Count(ctx context.Context, filter ListFilter) (int, error)
}

// Repository combines both sides for use cases that read and write
type Repository interface {
	CommandRepository
	QueryRepository
}
