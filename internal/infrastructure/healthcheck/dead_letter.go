package healthcheck

import (
	"context"
	"fmt"
	"time"

	"github.com/lllypuk/commons/internal/application/appcore"
)

// DeadLetterCounter reports how many events are parked in the dead letter queue.
type DeadLetterCounter interface {
	Len(ctx context.Context) (int64, error)
}

// DeadLetterChecker is unhealthy while the dead letter queue is non-empty.
type DeadLetterChecker struct {
	queue DeadLetterCounter
}

func NewDeadLetterChecker(queue DeadLetterCounter) *DeadLetterChecker {
	return &DeadLetterChecker{queue: queue}
}

func (c *DeadLetterChecker) Name() string {
	return "dead_letter_queue"
}

func (c *DeadLetterChecker) Check(ctx context.Context) appcore.HealthStatus {
	count, err := c.queue.Len(ctx)
	if err != nil {
		return appcore.HealthStatus{
			Healthy:   false,
			Message:   fmt.Sprintf("failed to get dead letter queue length: %v", err),
			CheckedAt: time.Now(),
		}
	}

	return appcore.HealthStatus{
		Healthy:   count == 0,
		Message:   fmt.Sprintf("dead letter queue: %d events", count),
		Details:   map[string]any{"dead_letters": count},
		CheckedAt: time.Now(),
	}
}
