package healthcheck_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lllypuk/commons/internal/infrastructure/healthcheck"
	"github.com/lllypuk/commons/tests/testutil"
)

type fakeQueue struct {
	n   int64
	err error
}

func (q fakeQueue) Len(context.Context) (int64, error) { return q.n, q.err }

func TestPingChecker(t *testing.T) {
	t.Run("healthy when ping succeeds", func(t *testing.T) {
		c := healthcheck.NewPingChecker("store", func(context.Context) error { return nil })

		status := c.Check(context.Background())

		assert.Equal(t, "store", c.Name())
		assert.True(t, status.Healthy)
		assert.Contains(t, status.Details, "latency_ms")
		assert.False(t, status.CheckedAt.IsZero())
	})

	t.Run("unhealthy on error", func(t *testing.T) {
		c := healthcheck.NewPingChecker("store", func(context.Context) error { return errors.New("refused") })

		status := c.Check(context.Background())

		assert.False(t, status.Healthy)
		assert.Contains(t, status.Message, "refused")
	})

	t.Run("applies timeout", func(t *testing.T) {
		c := healthcheck.NewPingChecker("slow", func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}, healthcheck.WithPingTimeout(20*time.Millisecond))

		status := c.Check(context.Background())

		assert.False(t, status.Healthy)
		assert.Contains(t, status.Message, context.DeadlineExceeded.Error())
	})
}

func TestDeadLetterChecker(t *testing.T) {
	tests := []struct {
		name    string
		queue   fakeQueue
		healthy bool
	}{
		{"empty queue", fakeQueue{}, true},
		{"parked events", fakeQueue{n: 4}, false},
		{"redis error", fakeQueue{err: errors.New("down")}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := healthcheck.NewDeadLetterChecker(tt.queue).Check(context.Background())
			assert.Equal(t, tt.healthy, status.Healthy)
		})
	}
}

func TestStoreCheckers(t *testing.T) {
	t.Run("redis", func(t *testing.T) {
		client := testutil.SetupTestRedis(t)

		status := healthcheck.NewRedisChecker(client).Check(context.Background())

		require.True(t, status.Healthy, status.Message)
	})

	t.Run("mongodb", func(t *testing.T) {
		db := testutil.SetupTestMongoDB(t)

		status := healthcheck.NewMongoChecker(db.Client()).Check(context.Background())

		require.True(t, status.Healthy, status.Message)
	})
}
