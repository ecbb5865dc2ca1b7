// Package healthcheck implements appcore.HealthChecker for the service's backing stores.
package healthcheck

import (
	"context"
	"fmt"
	"time"

	"github.com/lllypuk/commons/internal/application/appcore"
)

const defaultPingTimeout = 2 * time.Second

// PingFunc probes a dependency and returns nil when it answers.
type PingFunc func(ctx context.Context) error

// PingChecker reports a dependency healthy when its ping succeeds within the timeout.
type PingChecker struct {
	name    string
	ping    PingFunc
	timeout time.Duration
}

type PingOption func(*PingChecker)

func WithPingTimeout(d time.Duration) PingOption {
	return func(c *PingChecker) {
		c.timeout = d
	}
}

func NewPingChecker(name string, ping PingFunc, opts ...PingOption) *PingChecker {
	c := &PingChecker{name: name, ping: ping, timeout: defaultPingTimeout}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *PingChecker) Name() string {
	return c.name
}

func (c *PingChecker) Check(ctx context.Context) appcore.HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	started := time.Now()
	err := c.ping(ctx)
	latency := time.Since(started)

	if err != nil {
		return appcore.HealthStatus{
			Healthy:   false,
			Message:   fmt.Sprintf("%s ping failed: %v", c.name, err),
			CheckedAt: time.Now(),
		}
	}
	return appcore.HealthStatus{
		Healthy:   true,
		Message:   c.name + " reachable",
		Details:   map[string]any{"latency_ms": latency.Milliseconds()},
		CheckedAt: time.Now(),
	}
}
