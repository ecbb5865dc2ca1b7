package user

import (
	"context"
	"fmt"

	"github.com/lllypuk/commons/internal/application/appcore"
	"github.com/lllypuk/commons/internal/domain/paging"
	"github.com/lllypuk/commons/internal/domain/user"
)

const (
	// MaxListLimit is the largest page a single request may ask for
	MaxListLimit = 100
)

// ListUsersUseCase returns one page of users
type ListUsersUseCase struct {
	userRepo QueryRepository
}

// NewListUsersUseCase creates a ListUsersUseCase
func NewListUsersUseCase(userRepo QueryRepository) *ListUsersUseCase {
	return &ListUsersUseCase{userRepo: userRepo}
}

// Execute counts the matching users, then loads the requested window
func (uc *ListUsersUseCase) Execute(
	ctx context.Context,
	query ListUsersQuery,
) (UsersListResult, error) {
	if err := uc.validate(query); err != nil {
		return UsersListResult{}, fmt.Errorf("validation failed: %w", err)
	}

	filter := ListFilter{State: query.State}

	total, err := uc.userRepo.Count(ctx, filter)
	if err != nil {
		return UsersListResult{}, fmt.Errorf("failed to get users count: %w", err)
	}

	page := paging.FromOffsetLimit(query.Offset, query.Limit, total)
	if page.IsEmpty() {
		return UsersListResult{Users: []*user.User{}, Page: page}, nil
	}

	users, err := uc.userRepo.List(ctx, filter, page.Start(), page.Size())
	if err != nil {
		return UsersListResult{}, fmt.Errorf("failed to list users: %w", err)
	}

	return UsersListResult{Users: users, Page: page}, nil
}

func (uc *ListUsersUseCase) validate(query ListUsersQuery) error {
	if err := appcore.ValidateNonNegative("offset", query.Offset); err != nil {
		return err
	}
	if err := appcore.ValidateRange("limit", query.Limit, 1, MaxListLimit); err != nil {
		return err
	}
	if query.State != "" {
		if _, err := user.ParseState(string(query.State)); err != nil {
			return appcore.NewValidationError("state", err.Error())
		}
	}
	return nil
}
