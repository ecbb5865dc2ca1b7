package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/lllypuk/commons/internal/application/appcore"
	"github.com/lllypuk/commons/internal/domain/errs"
	"github.com/lllypuk/commons/internal/domain/user"
	"github.com/lllypuk/commons/internal/domain/uuid"
)

// GetUserUseCase loads a single user
type GetUserUseCase struct {
	userRepo QueryRepository
}

// NewGetUserUseCase creates a GetUserUseCase
func NewGetUserUseCase(userRepo QueryRepository) *GetUserUseCase {
	return &GetUserUseCase{userRepo: userRepo}
}

// Execute loads the user
func (uc *GetUserUseCase) Execute(ctx context.Context, query GetUserQuery) (Result, error) {
	if err := appcore.ValidateUUID("userID", query.UserID); err != nil {
		return Result{}, fmt.Errorf("validation failed: %w", err)
	}

	usr, err := findUser(ctx, uc.userRepo, query.UserID)
	if err != nil {
		return Result{}, err
	}
	return newResult(usr), nil
}

// findUser maps repository misses to ErrUserNotFound.
func findUser(ctx context.Context, repo QueryRepository, id uuid.UUID) (*user.User, error) {
	usr, err := repo.FindByID(ctx, id)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user %s: %w", id, err)
	}
	return usr, nil
}
