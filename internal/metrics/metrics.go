// Package metrics exposes Prometheus instrumentation for the message
// pipeline. A Collector owns its own registry so tests can create isolated
// instances.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the pipeline metrics and their registry.
type Collector struct {
	registry *prometheus.Registry

	turnsTotal             *prometheus.CounterVec
	turnDuration           *prometheus.HistogramVec
	busyRejections         prometheus.Counter
	providerErrors         *prometheus.CounterVec
	reconciliationOutcomes *prometheus.CounterVec
}

// NewCollector creates a collector with a fresh registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),

		turnsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sous_turns_total",
				Help: "Completed message turns by classified intent",
			},
			[]string{"intent"},
		),
		turnDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sous_turn_duration_seconds",
				Help:    "End-to-end turn processing time",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms .. ~51s
			},
			[]string{"intent"},
		),
		busyRejections: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "sous_busy_rejections_total",
				Help: "Turns rejected because the user already had one in flight",
			},
		),
		providerErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sous_provider_errors_total",
				Help: "Errors from the language model provider by operation",
			},
			[]string{"operation"},
		),
		reconciliationOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sous_reconciliation_outcomes_total",
				Help: "Per-item inventory reconciliation outcomes",
			},
			[]string{"mode", "status"},
		),
	}

	c.registry.MustRegister(
		c.turnsTotal,
		c.turnDuration,
		c.busyRejections,
		c.providerErrors,
		c.reconciliationOutcomes,
	)
	return c
}

// ObserveTurn records one completed turn.
func (c *Collector) ObserveTurn(intent string, duration time.Duration) {
	c.turnsTotal.WithLabelValues(intent).Inc()
	c.turnDuration.WithLabelValues(intent).Observe(duration.Seconds())
}

// BusyRejection records a turn dropped because the sender was busy.
func (c *Collector) BusyRejection() {
	c.busyRejections.Inc()
}

// ProviderError records a language model failure for the named operation
// (classify, normalize, chat, vision, recipes).
func (c *Collector) ProviderError(operation string) {
	c.providerErrors.WithLabelValues(operation).Inc()
}

// ReconciliationOutcome records one per-item outcome, labelled by mode
// (add, remove) and status (applied, partial_error, not_found, cleared).
func (c *Collector) ReconciliationOutcome(mode, status string) {
	c.reconciliationOutcomes.WithLabelValues(mode, status).Inc()
}

// Handler returns an HTTP handler serving the collector's registry in
// Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
