// Package observability provides Prometheus metrics and OpenTelemetry tracing
// for the harvester and the referential client.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "aurehal"

// Metrics holds every collector exported by the service.
//
// All operations are safe for concurrent use.
type Metrics struct {
	// ReferentialRequestsTotal counts referential calls.
	// Labels: operation (find_children, find_parents, describe, count_publications),
	// outcome (ok, empty, transport_error, parse_error)
	ReferentialRequestsTotal *prometheus.CounterVec

	// ReferentialRequestSeconds measures referential round-trips.
	// Labels: operation
	ReferentialRequestSeconds *prometheus.HistogramVec

	// HarvestsTotal counts harvests by direction and status (ok, empty, error).
	HarvestsTotal *prometheus.CounterVec

	// HarvestSeconds measures whole harvests (traversal + enrichment).
	HarvestSeconds *prometheus.HistogramVec

	// HarvestEdges observes the size of each traversal result.
	HarvestEdges *prometheus.HistogramVec

	// EnrichmentInFlight tracks enrichment tasks currently running.
	EnrichmentInFlight prometheus.Gauge
}

// NewMetrics registers the collectors with reg. Passing a fresh
// prometheus.NewRegistry() keeps tests independent of the default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ReferentialRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "referential",
				Name:      "requests_total",
				Help:      "Total referential requests by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		ReferentialRequestSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: "referential",
				Name:      "request_duration_seconds",
				Help:      "Referential request latency by operation",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"operation"},
		),
		HarvestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "harvest",
				Name:      "total",
				Help:      "Total harvests by direction and status",
			},
			[]string{"direction", "status"},
		),
		HarvestSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: "harvest",
				Name:      "duration_seconds",
				Help:      "Harvest duration by direction",
				Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
			[]string{"direction"},
		),
		HarvestEdges: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: "harvest",
				Name:      "edges",
				Help:      "Number of distinct edges per harvest",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
			},
			[]string{"direction"},
		),
		EnrichmentInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: "enrichment",
				Name:      "tasks_in_flight",
				Help:      "Enrichment tasks currently running",
			},
		),
	}
}

// ObserveRequest records one referential call. Safe on a nil receiver.
func (m *Metrics) ObserveRequest(operation, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.ReferentialRequestsTotal.WithLabelValues(operation, outcome).Inc()
	m.ReferentialRequestSeconds.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// ObserveHarvest records one finished harvest. Safe on a nil receiver.
func (m *Metrics) ObserveHarvest(direction, status string, edges int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HarvestsTotal.WithLabelValues(direction, status).Inc()
	m.HarvestSeconds.WithLabelValues(direction).Observe(elapsed.Seconds())
	if status != "error" {
		m.HarvestEdges.WithLabelValues(direction).Observe(float64(edges))
	}
}

// TaskStarted and TaskDone bracket one enrichment task. Safe on a nil receiver.
func (m *Metrics) TaskStarted() {
	if m != nil {
		m.EnrichmentInFlight.Inc()
	}
}

func (m *Metrics) TaskDone() {
	if m != nil {
		m.EnrichmentInFlight.Dec()
	}
}
