// Package appcore holds interfaces and helpers shared by application use cases.
package appcore

import (
	"context"
	"time"
)

// HealthChecker reports the health of one infrastructure dependency.
type HealthChecker interface {
	Check(ctx context.Context) HealthStatus
	Name() string
}

// HealthStatus is the outcome of a single check.
type HealthStatus struct {
	Healthy   bool           `json:"healthy"`
	Message   string         `json:"message,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	CheckedAt time.Time      `json:"checked_at"`
}
