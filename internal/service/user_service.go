// Package service provides business logic services that orchestrate use cases.
package service

import (
	"context"

	userapp "github.com/lllypuk/commons/internal/application/user"
	"github.com/lllypuk/commons/internal/domain/event"
	"github.com/lllypuk/commons/internal/domain/uuid"
)

// UserService exposes the user use cases to the HTTP layer.
type UserService struct {
	registerUC *userapp.RegisterUserUseCase
	getUC      *userapp.GetUserUseCase
	listUC     *userapp.ListUsersUseCase
	statusUC   *userapp.GetStatusUseCase
	gateUC     *userapp.EnsureActiveUseCase
	banUC      *userapp.BanUserUseCase
	unbanUC    *userapp.UnbanUserUseCase
	detainUC   *userapp.DetainUserUseCase
	releaseUC  *userapp.ReleaseUserUseCase
	deleteUC   *userapp.DeleteUserUseCase
	importUC   *userapp.ImportLegacyUserUseCase
}

// NewUserService builds every user use case over the same repository, bus
// and options, so they share one status cache and clock.
func NewUserService(repo userapp.Repository, bus event.Bus, opts ...userapp.Option) *UserService {
	return &UserService{
		registerUC: userapp.NewRegisterUserUseCase(repo, bus, opts...),
		getUC:      userapp.NewGetUserUseCase(repo),
		listUC:     userapp.NewListUsersUseCase(repo),
		statusUC:   userapp.NewGetStatusUseCase(repo, opts...),
		gateUC:     userapp.NewEnsureActiveUseCase(repo, opts...),
		banUC:      userapp.NewBanUserUseCase(repo, bus, opts...),
		unbanUC:    userapp.NewUnbanUserUseCase(repo, bus, opts...),
		detainUC:   userapp.NewDetainUserUseCase(repo, bus, opts...),
		releaseUC:  userapp.NewReleaseUserUseCase(repo, bus, opts...),
		deleteUC:   userapp.NewDeleteUserUseCase(repo, bus, opts...),
		importUC:   userapp.NewImportLegacyUserUseCase(repo, bus, opts...),
	}
}

func (s *UserService) RegisterUser(ctx context.Context, cmd userapp.RegisterUserCommand) (userapp.Result, error) {
	return s.registerUC.Execute(ctx, cmd)
}

func (s *UserService) GetUser(ctx context.Context, query userapp.GetUserQuery) (userapp.Result, error) {
	return s.getUC.Execute(ctx, query)
}

func (s *UserService) ListUsers(ctx context.Context, query userapp.ListUsersQuery) (userapp.UsersListResult, error) {
	return s.listUC.Execute(ctx, query)
}

func (s *UserService) GetStatus(ctx context.Context, query userapp.GetStatusQuery) (userapp.StatusResult, error) {
	return s.statusUC.Execute(ctx, query)
}

func (s *UserService) CheckActive(ctx context.Context, query userapp.EnsureActiveQuery) (userapp.StatusResult, error) {
	return s.gateUC.Execute(ctx, query)
}

// EnsureActive makes UserService usable as the middleware action gate.
func (s *UserService) EnsureActive(ctx context.Context, userID uuid.UUID) error {
	_, err := s.gateUC.Execute(ctx, userapp.EnsureActiveQuery{UserID: userID})
	return err
}

func (s *UserService) BanUser(ctx context.Context, cmd userapp.BanUserCommand) (userapp.Result, error) {
	return s.banUC.Execute(ctx, cmd)
}

func (s *UserService) UnbanUser(ctx context.Context, cmd userapp.UnbanUserCommand) (userapp.Result, error) {
	return s.unbanUC.Execute(ctx, cmd)
}

func (s *UserService) DetainUser(ctx context.Context, cmd userapp.DetainUserCommand) (userapp.Result, error) {
	return s.detainUC.Execute(ctx, cmd)
}

func (s *UserService) ReleaseUser(ctx context.Context, cmd userapp.ReleaseUserCommand) (userapp.Result, error) {
	return s.releaseUC.Execute(ctx, cmd)
}

func (s *UserService) DeleteUser(ctx context.Context, cmd userapp.DeleteUserCommand) (userapp.Result, error) {
	return s.deleteUC.Execute(ctx, cmd)
}

func (s *UserService) ImportLegacyUser(
	ctx context.Context,
	cmd userapp.ImportLegacyUserCommand,
) (userapp.Result, error) {
	return s.importUC.Execute(ctx, cmd)
}
