package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for sync runs.
type Metrics struct {
	// --- Runs ---
	RunsTotal   *prometheus.CounterVec
	RunDuration *prometheus.HistogramVec
	RunsActive  prometheus.Gauge

	// --- Items and rows ---
	ItemsTotal *prometheus.CounterVec
	RowsTotal  *prometheus.CounterVec

	// --- Provider ---
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	GateWait        prometheus.Histogram
	GateErrors      *prometheus.GaugeVec
}

// New creates the collectors and registers them with reg. Tests pass a fresh
// prometheus.NewRegistry(); the server passes prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	providerBuckets := []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30}

	return &Metrics{
		RunsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "marketsync_runs_total",
			Help: "Sync runs finished, by kind and final state",
		}, []string{"kind", "state"}),

		RunDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "marketsync_run_duration_seconds",
			Help:    "Wall time of a sync run",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}, []string{"kind"}),

		RunsActive: f.NewGauge(prometheus.GaugeOpts{
			Name: "marketsync_runs_active",
			Help: "Runs currently in progress",
		}),

		ItemsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "marketsync_items_total",
			Help: "Items visited, by kind and outcome (fetched, no_data, failed)",
		}, []string{"kind", "outcome"}),

		RowsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "marketsync_rows_total",
			Help: "Rows handled, by kind and outcome (created, skipped, failed)",
		}, []string{"kind", "outcome"}),

		RequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "marketsync_provider_requests_total",
			Help: "Provider requests, by kind and result",
		}, []string{"kind", "result"}),

		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "marketsync_provider_request_duration_seconds",
			Help:    "Provider request latency",
			Buckets: providerBuckets,
		}, []string{"kind"}),

		GateWait: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "marketsync_gate_wait_seconds",
			Help:    "Time spent waiting on the request gate before a call",
			Buckets: []float64{0, 0.05, 0.1, 0.25, 0.35, 0.5, 1, 2},
		}),

		GateErrors: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "marketsync_gate_error_count",
			Help: "Cumulative error count of the current or last run, by kind",
		}, []string{"kind"}),
	}
}
