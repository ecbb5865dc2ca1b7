package mocks

import (
	"context"
	"slices"
	"sync"

	appuser "github.com/lllypuk/commons/internal/application/user"
	"github.com/lllypuk/commons/internal/domain/errs"
	"github.com/lllypuk/commons/internal/domain/user"
	"github.com/lllypuk/commons/internal/domain/uuid"
)

// MockUserRepository is an in-memory appuser.Repository.
type MockUserRepository struct {
	mu      sync.RWMutex
	users   map[uuid.UUID]*user.User
	order   []uuid.UUID // insertion order
	saveErr error
	findErr error

	FindByIDCalls int
}

// NewMockUserRepository creates an empty repository
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{users: make(map[uuid.UUID]*user.User)}
}

// FailSaveWith makes Save return err
func (m *MockUserRepository) FailSaveWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveErr = err
}

// FailFindWith makes every Find* call return err
func (m *MockUserRepository) FailFindWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.findErr = err
}

func (m *MockUserRepository) Save(_ context.Context, u *user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	if _, ok := m.users[u.ID()]; !ok {
		m.order = append(m.order, u.ID())
	}
	m.users[u.ID()] = u
	return nil
}

func (m *MockUserRepository) FindByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FindByIDCalls++
	return m.findLocked(func(u *user.User) bool { return u.ID() == id })
}

func (m *MockUserRepository) FindByExternalID(_ context.Context, externalID string) (*user.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.findLocked(func(u *user.User) bool { return u.ExternalID() == externalID })
}

func (m *MockUserRepository) FindByEmail(_ context.Context, email string) (*user.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.findLocked(func(u *user.User) bool { return u.Email() == email })
}

func (m *MockUserRepository) FindByUsername(_ context.Context, username string) (*user.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.findLocked(func(u *user.User) bool { return u.Username() == username })
}

// List returns users newest first, like the MongoDB repository
func (m *MockUserRepository) List(
	_ context.Context,
	filter appuser.ListFilter,
	offset, limit int,
) ([]*user.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := m.matchLocked(filter)
	if offset >= len(matched) {
		return []*user.User{}, nil
	}
	end := min(offset+limit, len(matched))
	return matched[offset:end], nil
}

func (m *MockUserRepository) Count(_ context.Context, filter appuser.ListFilter) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.matchLocked(filter)), nil
}

func (m *MockUserRepository) findLocked(match func(*user.User) bool) (*user.User, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, id := range m.order {
		if u := m.users[id]; match(u) {
			return u, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (m *MockUserRepository) matchLocked(filter appuser.ListFilter) []*user.User {
	result := make([]*user.User, 0, len(m.order))
	for _, id := range slices.Backward(m.order) {
		u := m.users[id]
		if filter.State == "" || u.StoredStatus().State == filter.State {
			result = append(result, u)
		}
	}
	return result
}
