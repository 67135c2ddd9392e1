// Package metrics exposes Prometheus collectors for studio activity and a
// hook set that feeds them.
package metrics

import (
	"context"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/flowlab-edu/flowlab/pkg/domain"
)

// Metrics bundles the Prometheus collectors for a Studio instance.
type Metrics struct {
	Actions        *prometheus.CounterVec
	Renders        *prometheus.CounterVec
	RenderDuration prometheus.Histogram
	Exports        *prometheus.CounterVec
}

// New creates the collectors and registers them with the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Actions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowlab_session_actions_total",
				Help: "Total number of session state transitions",
			},
			[]string{"action"},
		),
		Renders: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowlab_renders_total",
				Help: "Total number of render attempts",
			},
			[]string{"ok"},
		),
		RenderDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "flowlab_render_duration_seconds",
				Help:    "Duration of render round trips to the rendering collaborator",
				Buckets: prometheus.DefBuckets,
			},
		),
		Exports: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowlab_exports_total",
				Help: "Total number of exports by format",
			},
			[]string{"format"},
		),
	}
	reg.MustRegister(m.Actions, m.Renders, m.RenderDuration, m.Exports)
	return m
}

// Hooks returns lifecycle hooks that record every studio event.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnAction: func(ctx context.Context, e *domain.ActionEvent) {
			m.Actions.WithLabelValues(string(e.Action)).Inc()
		},
		OnRender: func(ctx context.Context, e *domain.RenderEvent) {
			m.Renders.WithLabelValues(strconv.FormatBool(e.OK)).Inc()
			m.RenderDuration.Observe(e.Duration.Seconds())
		},
		OnExport: func(ctx context.Context, e *domain.ExportEvent) {
			m.Exports.WithLabelValues(string(e.Format)).Inc()
		},
	}
}
