package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lllypuk/commons/internal/application/appcore"
	"github.com/lllypuk/commons/internal/domain/errs"
	"github.com/lllypuk/commons/internal/domain/event"
	"github.com/lllypuk/commons/internal/domain/user"
)

// ImportLegacyUserUseCase brings a user from an older system, deriving its
// lifecycle from the legacy nullable columns. Existing users (matched by
// external ID) keep their profile and only get the lifecycle replaced.
type ImportLegacyUserUseCase struct {
	m moderator
}

// NewImportLegacyUserUseCase creates an ImportLegacyUserUseCase
func NewImportLegacyUserUseCase(userRepo Repository, eventBus event.Bus, opts ...Option) *ImportLegacyUserUseCase {
	return &ImportLegacyUserUseCase{m: newModerator(userRepo, eventBus, opts)}
}

// Execute imports the user
func (uc *ImportLegacyUserUseCase) Execute(ctx context.Context, cmd ImportLegacyUserCommand) (Result, error) {
	if err := uc.validate(cmd); err != nil {
		return Result{}, fmt.Errorf("validation failed: %w", err)
	}

	now := uc.m.opts.clock()
	if err := uc.m.authorize(ctx, cmd.ActorID, now); err != nil {
		return Result{}, err
	}

	usr, err := uc.m.userRepo.FindByExternalID(ctx, cmd.ExternalID)
	switch {
	case errors.Is(err, errs.ErrNotFound):
		usr, err = user.NewUser(cmd.ExternalID, cmd.Username, cmd.Email, cmd.DisplayName)
		if err != nil {
			return Result{}, fmt.Errorf("failed to create user: %w", err)
		}
	case err != nil:
		return Result{}, fmt.Errorf("failed to look up external ID %s: %w", cmd.ExternalID, err)
	}

	usr.ImportLifecycle(cmd.ActorID, cmd.Record, now)

	if saveErr := uc.m.userRepo.Save(ctx, usr); saveErr != nil {
		return Result{}, fmt.Errorf("failed to save user: %w", saveErr)
	}

	uc.m.opts.cache.Set(usr.ID(), usr.StoredStatus(), usr.Version())
	uc.m.opts.publishEvents(ctx, uc.m.eventBus, usr)
	uc.m.opts.recorder.RecordTransition(TransitionImport)

	uc.m.opts.logger.InfoContext(ctx, "legacy user imported",
		slog.String("user_id", usr.ID().String()),
		slog.String("external_id", cmd.ExternalID),
		slog.String("state", usr.Status(now).State.String()),
	)

	return newResult(usr), nil
}

func (uc *ImportLegacyUserUseCase) validate(cmd ImportLegacyUserCommand) error {
	if err := appcore.ValidateUUID("actorID", cmd.ActorID); err != nil {
		return err
	}
	if err := appcore.ValidateRequired("externalID", cmd.ExternalID); err != nil {
		return err
	}
	if err := appcore.ValidateRequired("username", cmd.Username); err != nil {
		return err
	}
	return appcore.ValidateEmail("email", cmd.Email)
}
