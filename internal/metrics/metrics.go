// Package metrics provides Prometheus metrics for the revision engine and HTTP API
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"promptvault/internal/domain"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Version manager metrics
	OperationsTotal          *prometheus.CounterVec
	OperationDuration        *prometheus.HistogramVec
	VersionsCreatedTotal     prometheus.Counter
	VersionsDeletedTotal     *prometheus.CounterVec
	InvariantViolationsTotal *prometheus.CounterVec

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates the metrics and registers them with reg.
// Tests pass a fresh prometheus.NewRegistry() per instance.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		OperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "promptvault_version_operations_total",
				Help: "Total number of version manager operations",
			},
			[]string{"operation", "status"},
		),
		OperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "promptvault_version_operation_duration_seconds",
				Help:    "Duration of version manager operations in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"operation"},
		),
		VersionsCreatedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "promptvault_versions_created_total",
				Help: "Total number of version snapshots created",
			},
		),
		VersionsDeletedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "promptvault_versions_deleted_total",
				Help: "Total number of versions deleted",
			},
			[]string{"reason"}, // revert, delete, batch_delete
		),
		InvariantViolationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "promptvault_invariant_violations_total",
				Help: "Deletions rejected because they would leave a document without versions",
			},
			[]string{"operation"},
		),
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "promptvault_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"route", "code"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "promptvault_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
	}
}

// ObserveOperation records the outcome and latency of a manager operation
func (m *Metrics) ObserveOperation(operation string, start time.Time, err error) {
	m.OperationsTotal.WithLabelValues(operation, domain.Kind(err)).Inc()
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if errors.Is(err, domain.ErrInvariantViolation) {
		m.InvariantViolationsTotal.WithLabelValues(operation).Inc()
	}
}

// VersionsDeleted adds n deleted versions for a reason
func (m *Metrics) VersionsDeleted(reason string, n int) {
	if n > 0 {
		m.VersionsDeletedTotal.WithLabelValues(reason).Add(float64(n))
	}
}
