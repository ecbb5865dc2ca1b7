package testutil

import (
	"context"
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	redisCtxTimeout              = 10 * time.Second
	redisContainerStartupTimeout = 60 * time.Second
	redisContainerMemoryLimit    = 128 * 1024 * 1024
	redisTestPoolSize            = 10
)

var (
	redisContainerOnce sync.Once
	redisContainerAddr string
	errRedisContainer  error
)

// sharedRedisAddr starts one redis:7-alpine container per test binary.
func sharedRedisAddr(ctx context.Context) (string, error) {
	redisContainerOnce.Do(func() {
		req := testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			HostConfigModifier: func(hc *container.HostConfig) {
				hc.Memory = redisContainerMemoryLimit
				hc.MemorySwap = redisContainerMemoryLimit
			},
			WaitingFor: wait.ForAll(
				wait.ForLog("Ready to accept connections").WithStartupTimeout(redisContainerStartupTimeout),
				wait.ForListeningPort("6379/tcp").WithStartupTimeout(redisContainerStartupTimeout),
			),
		}

		cont, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: req,
			Started:          true,
		})
		if err != nil {
			errRedisContainer = fmt.Errorf("failed to start Redis container: %w", err)
			return
		}

		host, err := cont.Host(ctx)
		if err != nil {
			errRedisContainer = fmt.Errorf("failed to get container host: %w", err)
			return
		}
		port, err := cont.MappedPort(ctx, "6379")
		if err != nil {
			errRedisContainer = fmt.Errorf("failed to get container port: %w", err)
			return
		}

		redisContainerAddr = net.JoinHostPort(host, port.Port())
	})

	return redisContainerAddr, errRedisContainer
}

// SetupTestRedis returns a client for the shared Redis container. The
// database is flushed when the test ends. Skipped with -short.
func SetupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	SkipIfShort(t)

	ctx, cancel := context.WithTimeout(context.Background(), redisContainerStartupTimeout)
	defer cancel()

	addr, err := sharedRedisAddr(ctx)
	if err != nil {
		t.Fatalf("Failed to get shared Redis container: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		PoolSize: redisTestPoolSize,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("Failed to ping Redis: %v", err)
	}

	t.Cleanup(func() {
		cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), redisCtxTimeout)
		defer cleanupCancel()
		_ = client.FlushDB(cleanupCtx).Err()
		_ = client.Close()
	})

	return client
}

// RedisEndpoint returns the address of the shared Redis container.
func RedisEndpoint(t *testing.T) string {
	t.Helper()
	SetupTestRedis(t)
	return redisContainerAddr
}
