// Package monitoring provides Prometheus-based metrics for the execution
// pipeline: run counts by status, stage durations, and emitted result counts.
package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the playground core.
type Metrics struct {
	// Pipeline metrics
	ExecutionsTotal   *prometheus.CounterVec
	ExecutionDuration *prometheus.HistogramVec
	TransformDuration prometheus.Histogram
	ResultsEmitted    prometheus.Counter

	// Sandbox metrics
	ExecutionsCancelled prometheus.Counter
	DrainPolls          prometheus.Histogram
}

// NewMetrics creates and registers all metrics with the default registry.
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith creates metrics registered against the given registerer.
// Tests pass a private registry to avoid duplicate-registration panics.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ExecutionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "playground_executions_total",
			Help: "Total executions by terminal status",
		}, []string{"status"}),
		ExecutionDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "playground_execution_duration_seconds",
			Help:    "End-to-end run duration by stage outcome",
			Buckets: prometheus.DefBuckets,
		}, []string{"status"}),
		TransformDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "playground_transform_duration_seconds",
			Help:    "Source instrumentation duration",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		ResultsEmitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "playground_results_emitted_total",
			Help: "Total result entries produced",
		}),
		ExecutionsCancelled: factory.NewCounter(prometheus.CounterOpts{
			Name: "playground_executions_cancelled_total",
			Help: "Executions cancelled by a superseding request",
		}),
		DrainPolls: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "playground_drain_polls",
			Help:    "Stabilization polls per execution",
			Buckets: []float64{0, 1, 2, 4, 8, 16, 32},
		}),
	}
}

// ObserveExecution records a finished run. Nil-safe so callers can run
// without metrics wired.
func (m *Metrics) ObserveExecution(status string, d time.Duration, results int) {
	if m == nil {
		return
	}
	m.ExecutionsTotal.WithLabelValues(status).Inc()
	m.ExecutionDuration.WithLabelValues(status).Observe(d.Seconds())
	m.ResultsEmitted.Add(float64(results))
}

// ObserveTransform records instrumentation time.
func (m *Metrics) ObserveTransform(d time.Duration) {
	if m == nil {
		return
	}
	m.TransformDuration.Observe(d.Seconds())
}

// ObserveCancellation records a superseded execution.
func (m *Metrics) ObserveCancellation() {
	if m == nil {
		return
	}
	m.ExecutionsCancelled.Inc()
}

// ObserveDrainPolls records how many stabilization polls an execution took.
func (m *Metrics) ObserveDrainPolls(n int) {
	if m == nil {
		return
	}
	m.DrainPolls.Observe(float64(n))
}
