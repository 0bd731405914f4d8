package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ComponentMetrics tracks the UI component subsystem: renders, writes and usage tracking
type ComponentMetrics struct {
	// Rendering
	RendersTotal   *prometheus.CounterVec
	RenderDuration *prometheus.HistogramVec
	FetchFailures  *prometheus.CounterVec

	// Registry writes
	WritesTotal        *prometheus.CounterVec
	ValidationFailures *prometheus.CounterVec

	// Usage tracking
	UsageEventsTotal *prometheus.CounterVec
	UsageQueueDepth  prometheus.Gauge
	UsageRecordTime  prometheus.Histogram
}

func newComponentMetrics() *ComponentMetrics {
	return &ComponentMetrics{
		RendersTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ui_component_renders_total",
				Help: "Component renders by component type and outcome state",
			},
			[]string{"component_type", "state"},
		),
		RenderDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ui_component_render_duration_seconds",
				Help:    "Time spent inside the renderer",
				Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1},
			},
			[]string{"component_type"},
		),
		FetchFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ui_component_fetch_failures_total",
				Help: "Component lookups that failed, by reason",
			},
			[]string{"reason"},
		),
		WritesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ui_component_writes_total",
				Help: "Registry writes by operation and status",
			},
			[]string{"operation", "status"},
		),
		ValidationFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ui_component_validation_failures_total",
				Help: "Write payloads rejected by schema validation",
			},
			[]string{"component_type"},
		),
		UsageEventsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ui_component_usage_events_total",
				Help: "Usage events by outcome (recorded, failed, dropped)",
			},
			[]string{"outcome"},
		),
		UsageQueueDepth: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "ui_component_usage_queue_depth",
				Help: "Usage events waiting to be recorded",
			},
		),
		UsageRecordTime: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ui_component_usage_record_duration_seconds",
				Help:    "Time to persist one usage event",
				Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5},
			},
		),
	}
}

// RecordRender counts one render outcome and its duration
func (m *ComponentMetrics) RecordRender(componentType, state string, seconds float64) {
	m.RendersTotal.WithLabelValues(componentType, state).Inc()
	m.RenderDuration.WithLabelValues(componentType).Observe(seconds)
}

// RecordUsage counts one usage-tracking outcome
func (m *ComponentMetrics) RecordUsage(outcome string) {
	m.UsageEventsTotal.WithLabelValues(outcome).Inc()
}
