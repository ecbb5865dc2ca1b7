package user

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lllypuk/commons/internal/application/appcore"
	"github.com/lllypuk/commons/internal/domain/user"
	"github.com/lllypuk/commons/internal/domain/uuid"
)

// statusReader loads stored statuses through the optional cache.
type statusReader struct {
	userRepo QueryRepository
	opts     options
}

func (r statusReader) storedStatus(ctx context.Context, id uuid.UUID) (user.Status, error) {
	if status, ok := r.opts.cache.Get(id); ok {
		return status, nil
	}

	usr, err := findUser(ctx, r.userRepo, id)
	if err != nil {
		return user.Status{}, err
	}

	status := usr.StoredStatus()
	r.opts.cache.Set(id, status, usr.Version())
	return status, nil
}

// GetStatusUseCase reports a user's lifecycle at the current time
type GetStatusUseCase struct {
	reader statusReader
}

// NewGetStatusUseCase creates a GetStatusUseCase
func NewGetStatusUseCase(userRepo QueryRepository, opts ...Option) *GetStatusUseCase {
	return &GetStatusUseCase{reader: statusReader{userRepo: userRepo, opts: newOptions(opts)}}
}

// Execute evaluates the status
func (uc *GetStatusUseCase) Execute(ctx context.Context, query GetStatusQuery) (StatusResult, error) {
	if err := appcore.ValidateUUID("userID", query.UserID); err != nil {
		return StatusResult{}, fmt.Errorf("validation failed: %w", err)
	}

	stored, err := uc.reader.storedStatus(ctx, query.UserID)
	if err != nil {
		return StatusResult{}, err
	}

	return StatusResult{
		UserID: query.UserID,
		Status: stored.At(uc.reader.opts.clock()),
	}, nil
}

// EnsureActiveUseCase is the action gate. It succeeds only for active users;
// otherwise the error is a *user.BannedError, *user.DeletedError or
// *user.DetainedError, all matching user.ErrUserInactive.
type EnsureActiveUseCase struct {
	reader statusReader
}

// NewEnsureActiveUseCase creates an EnsureActiveUseCase
func NewEnsureActiveUseCase(userRepo QueryRepository, opts ...Option) *EnsureActiveUseCase {
	return &EnsureActiveUseCase{reader: statusReader{userRepo: userRepo, opts: newOptions(opts)}}
}

// Execute runs the gate for query.UserID
func (uc *EnsureActiveUseCase) Execute(ctx context.Context, query EnsureActiveQuery) (StatusResult, error) {
	if err := appcore.ValidateUUID("userID", query.UserID); err != nil {
		return StatusResult{}, fmt.Errorf("validation failed: %w", err)
	}

	stored, err := uc.reader.storedStatus(ctx, query.UserID)
	if err != nil {
		return StatusResult{}, err
	}

	status := stored.At(uc.reader.opts.clock())
	result := StatusResult{UserID: query.UserID, Status: status}

	if inactive := user.InactiveError(query.UserID, status); inactive != nil {
		uc.reader.opts.recorder.RecordGateRejection(status.State)
		uc.reader.opts.logger.InfoContext(ctx, "action rejected for inactive user",
			slog.String("user_id", query.UserID.String()),
			slog.String("state", status.State.String()),
		)
		return result, inactive
	}

	return result, nil
}
