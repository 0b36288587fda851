// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Collector aggregates the engine's Prometheus metrics.
type Collector struct {
	workflowRunsTotal   *prometheus.CounterVec
	workflowDuration    *prometheus.HistogramVec
	stageDuration       *prometheus.HistogramVec
	providerCallsTotal  *prometheus.CounterVec
	degradationsTotal   *prometheus.CounterVec
	providerHealth      *prometheus.GaugeVec
	activeProviders     prometheus.Gauge
	initFailuresTotal   *prometheus.CounterVec
	consultationsTotal  *prometheus.CounterVec
	healthCheckDuration *prometheus.HistogramVec

	logger *zap.Logger
}

// NewCollector creates and registers the engine metrics under the given
// namespace. Use distinct namespaces in tests; promauto registers into
// the default registry.
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	c.workflowRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflow_runs_total",
			Help:      "Total number of workflow runs by workflow and final status",
		},
		[]string{"workflow", "status"},
	)

	c.workflowDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "workflow_duration_seconds",
			Help:      "End-to-end workflow duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		},
		[]string{"workflow"},
	)

	c.stageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Per-stage provider call duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		},
		[]string{"workflow", "role"},
	)

	c.providerCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_calls_total",
			Help:      "Total provider generation calls by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	c.degradationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "degradations_total",
			Help:      "Workflow runs that fell back to degraded content",
		},
		[]string{"workflow"},
	)

	c.providerHealth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "provider_healthy",
			Help:      "Per-provider health status (1 healthy, 0 unhealthy)",
		},
		[]string{"provider"},
	)

	c.activeProviders = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_providers",
			Help:      "Number of currently active providers",
		},
	)

	c.initFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "init_failures_total",
			Help:      "Per-provider initialization failures",
		},
		[]string{"provider"},
	)

	c.consultationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "consultations_total",
			Help:      "Single-member consultations by role and outcome",
		},
		[]string{"role", "outcome"},
	)

	c.healthCheckDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "health_check_duration_seconds",
			Help:      "Per-provider health probe duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	return c
}

// RecordWorkflowRun records a completed workflow run with its final status.
func (c *Collector) RecordWorkflowRun(workflow, status string, elapsed time.Duration) {
	c.workflowRunsTotal.WithLabelValues(workflow, status).Inc()
	c.workflowDuration.WithLabelValues(workflow).Observe(elapsed.Seconds())
}

// RecordStage records one pipeline stage execution.
func (c *Collector) RecordStage(workflow, role string, elapsed time.Duration) {
	c.stageDuration.WithLabelValues(workflow, role).Observe(elapsed.Seconds())
}

// RecordProviderCall records a generation call outcome ("success"/"error").
func (c *Collector) RecordProviderCall(providerID, outcome string) {
	c.providerCallsTotal.WithLabelValues(providerID, outcome).Inc()
}

// RecordDegradation records a run that entered fallback mode.
func (c *Collector) RecordDegradation(workflow string) {
	c.degradationsTotal.WithLabelValues(workflow).Inc()
}

// SetProviderHealth records a provider's health gauge.
func (c *Collector) SetProviderHealth(providerID string, healthy bool) {
	v := 0.0
	if healthy {
		v = 1.0
	}
	c.providerHealth.WithLabelValues(providerID).Set(v)
}

// SetActiveProviders records the active provider count.
func (c *Collector) SetActiveProviders(n int) {
	c.activeProviders.Set(float64(n))
}

// RecordInitFailure records a per-provider initialization failure.
func (c *Collector) RecordInitFailure(providerID string) {
	c.initFailuresTotal.WithLabelValues(providerID).Inc()
}

// RecordConsultation records a single-member consultation outcome.
func (c *Collector) RecordConsultation(role, outcome string) {
	c.consultationsTotal.WithLabelValues(role, outcome).Inc()
}

// RecordHealthCheck records one health probe duration.
func (c *Collector) RecordHealthCheck(providerID string, elapsed time.Duration) {
	c.healthCheckDuration.WithLabelValues(providerID).Observe(elapsed.Seconds())
}
