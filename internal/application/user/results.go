package user

import (
	"github.com/lllypuk/commons/internal/application/appcore"
	"github.com/lllypuk/commons/internal/domain/paging"
	"github.com/lllypuk/commons/internal/domain/user"
	"github.com/lllypuk/commons/internal/domain/uuid"
)

// Result holds a single user
type Result struct {
	appcore.Result[*user.User]
}

func newResult(u *user.User) Result {
	return Result{Result: appcore.Result[*user.User]{Value: u, Version: u.Version()}}
}

// UsersListResult holds one page of users
type UsersListResult struct {
	Users []*user.User
	Page  paging.Window
}

// StatusResult is a user's lifecycle evaluated at a point in time
type StatusResult struct {
	UserID uuid.UUID
	Status user.Status
}

var (
	_ appcore.UseCase[RegisterUserCommand, Result]     = (*RegisterUserUseCase)(nil)
	_ appcore.UseCase[ImportLegacyUserCommand, Result] = (*ImportLegacyUserUseCase)(nil)
	_ appcore.UseCase[ResolveActorCommand, Result]     = (*ResolveActorUseCase)(nil)
	_ appcore.UseCase[BanUserCommand, Result]          = (*BanUserUseCase)(nil)
	_ appcore.UseCase[UnbanUserCommand, Result]        = (*UnbanUserUseCase)(nil)
	_ appcore.UseCase[DetainUserCommand, Result]       = (*DetainUserUseCase)(nil)
	_ appcore.UseCase[ReleaseUserCommand, Result]      = (*ReleaseUserUseCase)(nil)
	_ appcore.UseCase[DeleteUserCommand, Result]       = (*DeleteUserUseCase)(nil)
	_ appcore.UseCase[GetUserQuery, Result]            = (*GetUserUseCase)(nil)
	_ appcore.UseCase[ListUsersQuery, UsersListResult] = (*ListUsersUseCase)(nil)
	_ appcore.UseCase[GetStatusQuery, StatusResult]    = (*GetStatusUseCase)(nil)
	_ appcore.UseCase[EnsureActiveQuery, StatusResult] = (*EnsureActiveUseCase)(nil)
)
