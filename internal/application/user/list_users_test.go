package user_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lllypuk/commons/internal/application/appcore"
	"github.com/lllypuk/commons/internal/application/user"
	domainuser "github.com/lllypuk/commons/internal/domain/user"
	"github.com/lllypuk/commons/tests/mocks"
)

func seedUsers(t *testing.T, repo *mocks.MockUserRepository, n int) []*domainuser.User {
	t.Helper()
	users := make([]*domainuser.User, 0, n)
	for i := range n {
		u, err := domainuser.NewUser(
			fmt.Sprintf("ext-%d", i), fmt.Sprintf("user%d", i), fmt.Sprintf("user%d@example.com", i), "",
		)
		require.NoError(t, err)
		require.NoError(t, repo.Save(context.Background(), u))
		users = append(users, u)
	}
	return users
}

func TestListUsersUseCase_Execute_Pages(t *testing.T) {
	// Arrange
	repo := mocks.NewMockUserRepository()
	seedUsers(t, repo, 23)
	useCase := user.NewListUsersUseCase(repo)

	testCases := []struct {
		name      string
		offset    int
		wantCount int
		hasNext   bool
	}{
		{"first page", 0, 10, true},
		{"second page", 10, 10, true},
		{"short last page", 20, 3, false},
		{"past the end", 30, 0, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Act
			result, err := useCase.Execute(context.Background(), user.ListUsersQuery{Offset: tc.offset, Limit: 10})

			// Assert
			require.NoError(t, err)
			assert.Len(t, result.Users, tc.wantCount)
			assert.Equal(t, tc.wantCount, result.Page.Count())
			assert.Equal(t, tc.offset, result.Page.Start())
			assert.Equal(t, 23, result.Page.Total())
			assert.Equal(t, tc.hasNext, result.Page.HasNext())
		})
	}
}

func TestListUsersUseCase_Execute_NewestFirst(t *testing.T) {
	repo := mocks.NewMockUserRepository()
	users := seedUsers(t, repo, 3)

	result, err := user.NewListUsersUseCase(repo).Execute(context.Background(), user.ListUsersQuery{Limit: 2})

	require.NoError(t, err)
	require.Len(t, result.Users, 2)
	assert.Equal(t, users[2].ID(), result.Users[0].ID())
	assert.Equal(t, users[1].ID(), result.Users[1].ID())
	assert.Equal(t, 2, result.Page.LastPage().Start())
}

func TestListUsersUseCase_Execute_StateFilter(t *testing.T) {
	repo := mocks.NewMockUserRepository()
	users := seedUsers(t, repo, 4)
	require.NoError(t, users[1].Ban("", baseTime))
	require.NoError(t, users[3].Ban("", baseTime))

	result, err := user.NewListUsersUseCase(repo).Execute(context.Background(), user.ListUsersQuery{
		Limit: 10,
		State: domainuser.StateBanned,
	})

	require.NoError(t, err)
	assert.Equal(t, 2, result.Page.Total())
	require.Len(t, result.Users, 2)
	for _, u := range result.Users {
		assert.Equal(t, domainuser.StateBanned, u.StoredStatus().State)
	}
}

func TestListUsersUseCase_Execute_Validation(t *testing.T) {
	testCases := []struct {
		name  string
		query user.ListUsersQuery
		field string
	}{
		{"negative offset", user.ListUsersQuery{Offset: -1, Limit: 10}, "offset"},
		{"zero limit", user.ListUsersQuery{Limit: 0}, "limit"},
		{"limit too large", user.ListUsersQuery{Limit: user.MaxListLimit + 1}, "limit"},
		{"unknown state", user.ListUsersQuery{Limit: 10, State: "frozen"}, "state"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := user.NewListUsersUseCase(mocks.NewMockUserRepository()).Execute(context.Background(), tc.query)

			var ve *appcore.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tc.field, ve.Field)
		})
	}
}
