package user

import (
	"context"
	"fmt"

	"github.com/lllypuk/commons/internal/application/appcore"
	"github.com/lllypuk/commons/internal/domain/event"
	"github.com/lllypuk/commons/internal/domain/user"
)

const maxNameLength = 100

// RegisterUserUseCase registers new users
type RegisterUserUseCase struct {
	userRepo Repository
	eventBus event.Bus
	opts     options
}

// NewRegisterUserUseCase creates a RegisterUserUseCase
func NewRegisterUserUseCase(userRepo Repository, eventBus event.Bus, opts ...Option) *RegisterUserUseCase {
	return &RegisterUserUseCase{userRepo: userRepo, eventBus: eventBus, opts: newOptions(opts)}
}

// Execute registers the user
func (uc *RegisterUserUseCase) Execute(
	ctx context.Context,
	cmd RegisterUserCommand,
) (Result, error) {
	if err := uc.validate(cmd); err != nil {
		return Result{}, fmt.Errorf("validation failed: %w", err)
	}

	if existing, err := uc.userRepo.FindByUsername(ctx, cmd.Username); err == nil && existing != nil {
		return Result{}, ErrUsernameAlreadyExists
	}
	if existing, err := uc.userRepo.FindByEmail(ctx, cmd.Email); err == nil && existing != nil {
		return Result{}, ErrEmailAlreadyExists
	}

	usr, err := user.NewUser(cmd.ExternalID, cmd.Username, cmd.Email, cmd.DisplayName)
	if err != nil {
		return Result{}, fmt.Errorf("failed to create user: %w", err)
	}

	if saveErr := uc.userRepo.Save(ctx, usr); saveErr != nil {
		return Result{}, fmt.Errorf("failed to save user: %w", saveErr)
	}

	uc.opts.publishEvents(ctx, uc.eventBus, usr)

	return newResult(usr), nil
}

func (uc *RegisterUserUseCase) validate(cmd RegisterUserCommand) error {
	if err := appcore.ValidateRequired("externalID", cmd.ExternalID); err != nil {
		return err
	}
	if err := appcore.ValidateRequired("username", cmd.Username); err != nil {
		return err
	}
	if err := appcore.ValidateMaxLength("username", cmd.Username, maxNameLength); err != nil {
		return err
	}
	if err := appcore.ValidateEmail("email", cmd.Email); err != nil {
		return err
	}
	return appcore.ValidateMaxLength("displayName", cmd.DisplayName, maxNameLength)
}
