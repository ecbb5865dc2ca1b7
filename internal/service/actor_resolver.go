package service

import (
	"context"

	userapp "github.com/lllypuk/commons/internal/application/user"
	"github.com/lllypuk/commons/internal/domain/uuid"
	"github.com/lllypuk/commons/internal/infrastructure/auth"
)

// DefaultAdminRoles are the token roles that make a caller a system admin.
var DefaultAdminRoles = []string{"admin", "system-admin"}

// ActorResolver implements middleware.ActorResolver on top of the
// ResolveActor use case.
type ActorResolver struct {
	resolveUC  *userapp.ResolveActorUseCase
	adminRoles []string
}

func NewActorResolver(resolveUC *userapp.ResolveActorUseCase, adminRoles []string) *ActorResolver {
	if len(adminRoles) == 0 {
		adminRoles = DefaultAdminRoles
	}
	return &ActorResolver{resolveUC: resolveUC, adminRoles: adminRoles}
}

func (r *ActorResolver) ResolveActor(ctx context.Context, claims *auth.Claims) (uuid.UUID, error) {
	result, err := r.resolveUC.Execute(ctx, userapp.ResolveActorCommand{
		ExternalID:    claims.Subject,
		Username:      claims.Username,
		Email:         claims.Email,
		DisplayName:   claims.Name,
		IsSystemAdmin: claims.HasAnyRole(r.adminRoles...),
	})
	if err != nil {
		return "", err
	}
	return result.Value.ID(), nil
}
