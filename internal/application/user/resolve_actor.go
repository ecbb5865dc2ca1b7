package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lllypuk/commons/internal/application/appcore"
	"github.com/lllypuk/commons/internal/domain/errs"
	"github.com/lllypuk/commons/internal/domain/event"
)

// ResolveActorUseCase finds the local user behind a token subject. With
// provisioning enabled, unknown subjects are registered on first sight.
// The admin flag follows the identity provider on every call.
type ResolveActorUseCase struct {
	userRepo  Repository
	register  *RegisterUserUseCase
	provision bool
	opts      options
}

func NewResolveActorUseCase(userRepo Repository, eventBus event.Bus, provision bool, opts ...Option) *ResolveActorUseCase {
	return &ResolveActorUseCase{
		userRepo:  userRepo,
		register:  NewRegisterUserUseCase(userRepo, eventBus, opts...),
		provision: provision,
		opts:      newOptions(opts),
	}
}

func (uc *ResolveActorUseCase) Execute(ctx context.Context, cmd ResolveActorCommand) (Result, error) {
	if err := appcore.ValidateRequired("externalID", cmd.ExternalID); err != nil {
		return Result{}, fmt.Errorf("validation failed: %w", err)
	}

	usr, err := uc.userRepo.FindByExternalID(ctx, cmd.ExternalID)
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return uc.provisionUser(ctx, cmd)
	case err != nil:
		return Result{}, fmt.Errorf("failed to load user by external id: %w", err)
	}

	if usr.IsSystemAdmin() != cmd.IsSystemAdmin {
		usr.SetAdmin(cmd.IsSystemAdmin)
		if saveErr := uc.userRepo.Save(ctx, usr); saveErr != nil {
			return Result{}, fmt.Errorf("failed to save user: %w", saveErr)
		}
		uc.opts.logger.InfoContext(ctx, "system admin flag synced from identity provider",
			slog.String("user_id", usr.ID().String()),
			slog.Bool("is_system_admin", cmd.IsSystemAdmin),
		)
	}
	return newResult(usr), nil
}

func (uc *ResolveActorUseCase) provisionUser(ctx context.Context, cmd ResolveActorCommand) (Result, error) {
	if !uc.provision {
		return Result{}, ErrUserNotFound
	}

	username := cmd.Username
	if username == "" {
		username = cmd.ExternalID
	}
	result, err := uc.register.Execute(ctx, RegisterUserCommand{
		ExternalID:  cmd.ExternalID,
		Username:    username,
		Email:       cmd.Email,
		DisplayName: cmd.DisplayName,
	})
	if err != nil {
		return Result{}, fmt.Errorf("failed to provision user: %w", err)
	}

	usr := result.Value
	if cmd.IsSystemAdmin {
		usr.SetAdmin(true)
		if saveErr := uc.userRepo.Save(ctx, usr); saveErr != nil {
			return Result{}, fmt.Errorf("failed to save user: %w", saveErr)
		}
	}

	uc.opts.logger.InfoContext(ctx, "user provisioned",
		slog.String("user_id", usr.ID().String()),
		slog.String("external_id", cmd.ExternalID),
	)
	return newResult(usr), nil
}
