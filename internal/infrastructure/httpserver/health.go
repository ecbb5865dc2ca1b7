// Package httpserver wires the Echo server, the JSON envelope and the
// operational endpoints.
package httpserver

import (
	"context"
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"

	"github.com/lllypuk/commons/internal/application/appcore"
)

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
	StatusDegraded  = "degraded"
	StatusReady     = "ready"
	StatusNotReady  = "not_ready"
)

type ComponentStatus struct {
	Name    string         `json:"name"`
	Status  string         `json:"status"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

type HealthResponse struct {
	Status     string            `json:"status"`
	Components []ComponentStatus `json:"components,omitempty"`
}

// HealthChecker aggregates component checks for the probe endpoints.
type HealthChecker interface {
	IsReady(ctx context.Context) bool
	GetHealthStatus(ctx context.Context) []ComponentStatus
}

// CheckerSet runs a group of appcore.HealthChecker concurrently. Checkers
// marked optional degrade the service instead of taking it out of rotation.
type CheckerSet struct {
	required []appcore.HealthChecker
	optional []appcore.HealthChecker
}

func NewCheckerSet(required ...appcore.HealthChecker) *CheckerSet {
	return &CheckerSet{required: required}
}

// WithOptional adds checkers whose failure reports degraded.
func (s *CheckerSet) WithOptional(checkers ...appcore.HealthChecker) *CheckerSet {
	s.optional = append(s.optional, checkers...)
	return s
}

func (s *CheckerSet) IsReady(ctx context.Context) bool {
	for _, comp := range s.run(ctx, s.required, StatusUnhealthy) {
		if comp.Status != StatusHealthy {
			return false
		}
	}
	return true
}

func (s *CheckerSet) GetHealthStatus(ctx context.Context) []ComponentStatus {
	components := s.run(ctx, s.required, StatusUnhealthy)
	return append(components, s.run(ctx, s.optional, StatusDegraded)...)
}

func (s *CheckerSet) run(ctx context.Context, checkers []appcore.HealthChecker, failed string) []ComponentStatus {
	out := make([]ComponentStatus, len(checkers))
	var wg sync.WaitGroup
	for i, checker := range checkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := checker.Check(ctx)
			status := StatusHealthy
			if !res.Healthy {
				status = failed
			}
			out[i] = ComponentStatus{
				Name:    checker.Name(),
				Status:  status,
				Message: res.Message,
				Details: res.Details,
			}
		}()
	}
	wg.Wait()
	return out
}

type HealthEndpoints struct {
	checker HealthChecker
}

func NewHealthEndpoints(checker HealthChecker) *HealthEndpoints {
	return &HealthEndpoints{checker: checker}
}

// Register adds the probes:
//   - GET /health liveness, always 200
//   - GET /ready readiness, 503 when a required component is down
//   - GET /health/details every component
func (h *HealthEndpoints) Register(e *echo.Echo) {
	e.GET("/health", h.handleHealth)
	e.GET("/ready", h.handleReady)
	e.GET("/health/details", h.handleHealthDetails)
}

func (h *HealthEndpoints) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: StatusHealthy})
}

func (h *HealthEndpoints) handleReady(c echo.Context) error {
	ctx := c.Request().Context()
	if h.checker == nil || h.checker.IsReady(ctx) {
		return c.JSON(http.StatusOK, HealthResponse{Status: StatusReady})
	}
	return c.JSON(http.StatusServiceUnavailable, HealthResponse{
		Status:     StatusNotReady,
		Components: h.components(ctx),
	})
}

func (h *HealthEndpoints) handleHealthDetails(c echo.Context) error {
	components := h.components(c.Request().Context())

	overall, code := StatusHealthy, http.StatusOK
	for _, comp := range components {
		if comp.Status == StatusUnhealthy {
			overall, code = StatusUnhealthy, http.StatusServiceUnavailable
			break
		}
		if comp.Status == StatusDegraded {
			overall = StatusDegraded
		}
	}
	return c.JSON(code, HealthResponse{Status: overall, Components: components})
}

func (h *HealthEndpoints) components(ctx context.Context) []ComponentStatus {
	if h.checker == nil {
		return nil
	}
	return h.checker.GetHealthStatus(ctx)
}
