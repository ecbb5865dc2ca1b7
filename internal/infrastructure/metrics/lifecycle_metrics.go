// Package metrics defines the Prometheus collectors the service exports.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lllypuk/commons/internal/domain/user"
)

const namespace = "commons"

// LifecycleMetrics counts lifecycle transitions and action gate rejections.
type LifecycleMetrics struct {
	TransitionsTotal    *prometheus.CounterVec
	GateRejectionsTotal *prometheus.CounterVec
}

// NewLifecycleMetrics creates the collectors and registers them with registerer.
func NewLifecycleMetrics(registerer prometheus.Registerer) *LifecycleMetrics {
	m := &LifecycleMetrics{
		TransitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "lifecycle_transitions_total",
				Help:      "Applied user lifecycle transitions",
			},
			[]string{"kind"}, // ban, unban, detain, release, delete, import
		),
		GateRejectionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "gate_rejections_total",
				Help:      "Actions refused because the user is not active",
			},
			[]string{"state"},
		),
	}

	// pre-create the label sets so dashboards see zeros instead of gaps
	for _, s := range []user.State{user.StateBanned, user.StateDeleted, user.StateDetained} {
		m.GateRejectionsTotal.WithLabelValues(s.String())
	}

	registerer.MustRegister(m.TransitionsTotal, m.GateRejectionsTotal)
	return m
}

func (m *LifecycleMetrics) RecordTransition(kind string) {
	m.TransitionsTotal.WithLabelValues(kind).Inc()
}

func (m *LifecycleMetrics) RecordGateRejection(state user.State) {
	m.GateRejectionsTotal.WithLabelValues(state.String()).Inc()
}
