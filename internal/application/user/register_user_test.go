package user_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lllypuk/commons/internal/application/appcore"
	"github.com/lllypuk/commons/internal/application/user"
	domainuser "github.com/lllypuk/commons/internal/domain/user"
	"github.com/lllypuk/commons/tests/mocks"
)

func TestRegisterUserUseCase_Execute_Success(t *testing.T) {
	// Arrange
	repo := mocks.NewMockUserRepository()
	bus := mocks.NewMockEventBus()
	useCase := user.NewRegisterUserUseCase(repo, bus)
	cmd := user.RegisterUserCommand{
		ExternalID:  "external-123",
		Username:    "testuser",
		Email:       "test@example.com",
		DisplayName: "Test User",
	}

	// Act
	result, err := useCase.Execute(context.Background(), cmd)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "testuser", result.Value.Username())
	assert.True(t, result.Value.Status(baseTime).IsActive())
	assert.Equal(t, 1, result.Version)

	stored, err := repo.FindByUsername(context.Background(), "testuser")
	require.NoError(t, err)
	assert.Equal(t, result.Value.ID(), stored.ID())

	assert.Equal(t, []string{domainuser.EventTypeUserRegistered}, bus.PublishedTypes())
	assert.Empty(t, result.Value.UncommittedEvents())
}

func TestRegisterUserUseCase_Execute_Conflicts(t *testing.T) {
	repo := mocks.NewMockUserRepository()
	useCase := user.NewRegisterUserUseCase(repo, mocks.NewMockEventBus())
	_, err := useCase.Execute(context.Background(), user.RegisterUserCommand{
		ExternalID: "ext-1", Username: "taken", Email: "taken@example.com",
	})
	require.NoError(t, err)

	t.Run("username", func(t *testing.T) {
		_, err := useCase.Execute(context.Background(), user.RegisterUserCommand{
			ExternalID: "ext-2", Username: "taken", Email: "other@example.com",
		})
		require.ErrorIs(t, err, user.ErrUsernameAlreadyExists)
	})

	t.Run("email", func(t *testing.T) {
		_, err := useCase.Execute(context.Background(), user.RegisterUserCommand{
			ExternalID: "ext-3", Username: "other", Email: "taken@example.com",
		})
		require.ErrorIs(t, err, user.ErrEmailAlreadyExists)
	})
}

func TestRegisterUserUseCase_Execute_Validation(t *testing.T) {
	testCases := []struct {
		name  string
		cmd   user.RegisterUserCommand
		field string
	}{
		{"missing external id", user.RegisterUserCommand{Username: "u", Email: "u@example.com"}, "externalID"},
		{"missing username", user.RegisterUserCommand{ExternalID: "e", Email: "u@example.com"}, "username"},
		{"bad email", user.RegisterUserCommand{ExternalID: "e", Username: "u", Email: "nope"}, "email"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			useCase := user.NewRegisterUserUseCase(mocks.NewMockUserRepository(), nil)

			_, err := useCase.Execute(context.Background(), tc.cmd)

			var ve *appcore.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tc.field, ve.Field)
		})
	}
}

func TestRegisterUserUseCase_Execute_SaveError(t *testing.T) {
	repo := mocks.NewMockUserRepository()
	repo.FailSaveWith(errors.New("disk full"))
	bus := mocks.NewMockEventBus()
	useCase := user.NewRegisterUserUseCase(repo, bus)

	_, err := useCase.Execute(context.Background(), user.RegisterUserCommand{
		ExternalID: "e", Username: "u", Email: "u@example.com",
	})

	require.ErrorContains(t, err, "disk full")
	assert.Empty(t, bus.PublishedEvents())
}

func TestRegisterUserUseCase_Execute_PublishFailureIsNotFatal(t *testing.T) {
	repo := mocks.NewMockUserRepository()
	bus := mocks.NewMockEventBus()
	bus.FailWith(errors.New("redis down"))
	useCase := user.NewRegisterUserUseCase(repo, bus)

	result, err := useCase.Execute(context.Background(), user.RegisterUserCommand{
		ExternalID: "e", Username: "u", Email: "u@example.com",
	})

	require.NoError(t, err)
	assert.Empty(t, result.Value.UncommittedEvents())
}
