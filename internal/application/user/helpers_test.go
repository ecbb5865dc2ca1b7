package user_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lllypuk/commons/internal/application/user"
	domainuser "github.com/lllypuk/commons/internal/domain/user"
	"github.com/lllypuk/commons/tests/mocks"
)

var baseTime = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

// fakeClock is a settable clock for the WithClock option
type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// fakeRecorder captures LifecycleRecorder calls
type fakeRecorder struct {
	transitions []string
	rejections  []domainuser.State
}

func (r *fakeRecorder) RecordTransition(kind string) {
	r.transitions = append(r.transitions, kind)
}

func (r *fakeRecorder) RecordGateRejection(state domainuser.State) {
	r.rejections = append(r.rejections, state)
}

type fixture struct {
	repo     *mocks.MockUserRepository
	bus      *mocks.MockEventBus
	clock    *fakeClock
	recorder *fakeRecorder
	cache    *user.StatusCache
	admin    *domainuser.User
	member   *domainuser.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		repo:     mocks.NewMockUserRepository(),
		bus:      mocks.NewMockEventBus(),
		clock:    &fakeClock{now: baseTime},
		recorder: &fakeRecorder{},
		cache:    user.NewStatusCache(time.Minute),
	}
	f.admin = f.saveUser(t, "admin", true)
	f.member = f.saveUser(t, "member", false)
	return f
}

func (f *fixture) options() []user.Option {
	return []user.Option{
		user.WithClock(f.clock.Now),
		user.WithStatusCache(f.cache),
		user.WithRecorder(f.recorder),
	}
}

func (f *fixture) saveUser(t *testing.T, name string, admin bool) *domainuser.User {
	t.Helper()
	u, err := domainuser.NewUser("ext-"+name, name, name+"@example.com", name)
	require.NoError(t, err)
	u.SetAdmin(admin)
	u.MarkEventsAsCommitted()
	require.NoError(t, f.repo.Save(context.Background(), u))
	return u
}
