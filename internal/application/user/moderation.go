package user

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lllypuk/commons/internal/application/appcore"
	"github.com/lllypuk/commons/internal/domain/event"
	"github.com/lllypuk/commons/internal/domain/user"
	"github.com/lllypuk/commons/internal/domain/uuid"
)

const (
	// MinDetention and MaxDetention bound DetainUserCommand.Duration
	MinDetention = time.Minute
	MaxDetention = 365 * 24 * time.Hour
)

// Transition kinds reported to the LifecycleRecorder
const (
	TransitionBan     = "ban"
	TransitionUnban   = "unban"
	TransitionDetain  = "detain"
	TransitionRelease = "release"
	TransitionDelete  = "delete"
	TransitionImport  = "import"
)

// moderator runs a lifecycle transition on behalf of a system admin.
type moderator struct {
	userRepo Repository
	eventBus event.Bus
	opts     options
}

func newModerator(userRepo Repository, eventBus event.Bus, opts []Option) moderator {
	return moderator{userRepo: userRepo, eventBus: eventBus, opts: newOptions(opts)}
}

// authorize checks that actorID names an active system admin.
func (m moderator) authorize(ctx context.Context, actorID uuid.UUID, now time.Time) error {
	actor, err := findUser(ctx, m.userRepo, actorID)
	if err != nil {
		return err
	}
	if !actor.IsSystemAdmin() {
		return ErrNotSystemAdmin
	}
	return actor.CheckActive(now)
}

func (m moderator) run(
	ctx context.Context,
	kind string,
	targetID, actorID uuid.UUID,
	apply func(u *user.User, now time.Time) error,
) (Result, error) {
	if err := appcore.ValidateUUID("userID", targetID); err != nil {
		return Result{}, fmt.Errorf("validation failed: %w", err)
	}
	if err := appcore.ValidateUUID("actorID", actorID); err != nil {
		return Result{}, fmt.Errorf("validation failed: %w", err)
	}
	if targetID == actorID {
		return Result{}, ErrSelfModeration
	}

	now := m.opts.clock()

	if err := m.authorize(ctx, actorID, now); err != nil {
		return Result{}, err
	}

	target, err := findUser(ctx, m.userRepo, targetID)
	if err != nil {
		return Result{}, err
	}

	if applyErr := apply(target, now); applyErr != nil {
		return Result{}, fmt.Errorf("%s user %s: %w", kind, targetID, applyErr)
	}

	if saveErr := m.userRepo.Save(ctx, target); saveErr != nil {
		return Result{}, fmt.Errorf("failed to save user: %w", saveErr)
	}

	m.opts.cache.Set(targetID, target.StoredStatus(), target.Version())
	m.opts.publishEvents(ctx, m.eventBus, target)
	m.opts.recorder.RecordTransition(kind)

	m.opts.logger.InfoContext(ctx, "user lifecycle changed",
		slog.String("user_id", targetID.String()),
		slog.String("actor_id", actorID.String()),
		slog.String("transition", kind),
		slog.String("state", target.Status(now).State.String()),
	)

	return newResult(target), nil
}

// BanUserUseCase bans a user
type BanUserUseCase struct{ m moderator }

// NewBanUserUseCase creates a BanUserUseCase
func NewBanUserUseCase(userRepo Repository, eventBus event.Bus, opts ...Option) *BanUserUseCase {
	return &BanUserUseCase{m: newModerator(userRepo, eventBus, opts)}
}

// Execute bans cmd.UserID
func (uc *BanUserUseCase) Execute(ctx context.Context, cmd BanUserCommand) (Result, error) {
	return uc.m.run(ctx, TransitionBan, cmd.UserID, cmd.ActorID, func(u *user.User, now time.Time) error {
		return u.Ban(cmd.ActorID, now)
	})
}

// UnbanUserUseCase lifts a ban
type UnbanUserUseCase struct{ m moderator }

// NewUnbanUserUseCase creates an UnbanUserUseCase
func NewUnbanUserUseCase(userRepo Repository, eventBus event.Bus, opts ...Option) *UnbanUserUseCase {
	return &UnbanUserUseCase{m: newModerator(userRepo, eventBus, opts)}
}

// Execute unbans cmd.UserID
func (uc *UnbanUserUseCase) Execute(ctx context.Context, cmd UnbanUserCommand) (Result, error) {
	return uc.m.run(ctx, TransitionUnban, cmd.UserID, cmd.ActorID, func(u *user.User, now time.Time) error {
		return u.Unban(cmd.ActorID, now)
	})
}

// DetainUserUseCase suspends a user for a fixed duration
type DetainUserUseCase struct{ m moderator }

// NewDetainUserUseCase creates a DetainUserUseCase
func NewDetainUserUseCase(userRepo Repository, eventBus event.Bus, opts ...Option) *DetainUserUseCase {
	return &DetainUserUseCase{m: newModerator(userRepo, eventBus, opts)}
}

// Execute detains cmd.UserID for cmd.Duration
func (uc *DetainUserUseCase) Execute(ctx context.Context, cmd DetainUserCommand) (Result, error) {
	if err := appcore.ValidateDuration("duration", cmd.Duration, MinDetention, MaxDetention); err != nil {
		return Result{}, fmt.Errorf("validation failed: %w", err)
	}
	return uc.m.run(ctx, TransitionDetain, cmd.UserID, cmd.ActorID, func(u *user.User, now time.Time) error {
		return u.Detain(cmd.ActorID, now, cmd.Duration)
	})
}

// ReleaseUserUseCase ends a detention early
type ReleaseUserUseCase struct{ m moderator }

// NewReleaseUserUseCase creates a ReleaseUserUseCase
func NewReleaseUserUseCase(userRepo Repository, eventBus event.Bus, opts ...Option) *ReleaseUserUseCase {
	return &ReleaseUserUseCase{m: newModerator(userRepo, eventBus, opts)}
}

// Execute releases cmd.UserID
func (uc *ReleaseUserUseCase) Execute(ctx context.Context, cmd ReleaseUserCommand) (Result, error) {
	return uc.m.run(ctx, TransitionRelease, cmd.UserID, cmd.ActorID, func(u *user.User, now time.Time) error {
		return u.Release(cmd.ActorID, now)
	})
}

// DeleteUserUseCase marks a user deleted. The record is kept.
type DeleteUserUseCase struct{ m moderator }

// NewDeleteUserUseCase creates a DeleteUserUseCase
func NewDeleteUserUseCase(userRepo Repository, eventBus event.Bus, opts ...Option) *DeleteUserUseCase {
	return &DeleteUserUseCase{m: newModerator(userRepo, eventBus, opts)}
}

// Execute deletes cmd.UserID
func (uc *DeleteUserUseCase) Execute(ctx context.Context, cmd DeleteUserCommand) (Result, error) {
	return uc.m.run(ctx, TransitionDelete, cmd.UserID, cmd.ActorID, func(u *user.User, now time.Time) error {
		return u.Delete(cmd.ActorID, now)
	})
}
