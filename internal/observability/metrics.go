// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Scheduler metrics
	JobRunsTotal *prometheus.CounterVec
	JobDuration  *prometheus.HistogramVec

	// Sampling metrics
	SnapshotsStored      prometheus.Counter
	ProviderCallLatency  *prometheus.HistogramVec
	ProviderCallErrors   *prometheus.CounterVec

	// Derived-data metrics
	RulesCreated     prometheus.Counter
	PredictionsSaved prometheus.Counter
	AnalysesPosted   prometheus.Counter

	// Position metrics
	PositionsReconciled prometheus.Counter
	WalletsProcessed    prometheus.Counter
	DepositsSkipped     *prometheus.CounterVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulRun *prometheus.GaugeVec
	UptimeSeconds     prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "lenda"
	}

	return &Metrics{
		JobRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "job_runs_total",
			Help:      "Total number of job iterations by job and status",
		}, []string{"job", "status"}),
		JobDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "job_duration_seconds",
			Help:      "Job iteration duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300},
		}, []string{"job"}),

		SnapshotsStored: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sampling",
			Name:      "snapshots_stored_total",
			Help:      "Total number of reserve snapshots stored",
		}),
		ProviderCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "call_latency_seconds",
			Help:      "Market provider call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"protocol", "method"}),
		ProviderCallErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "call_errors_total",
			Help:      "Total number of failed market provider calls",
		}, []string{"protocol", "method"}),

		RulesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "derived",
			Name:      "rules_created_total",
			Help:      "Total number of protocol rules persisted",
		}),
		PredictionsSaved: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "derived",
			Name:      "predictions_saved_total",
			Help:      "Total number of APY forecasts saved",
		}),
		AnalysesPosted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "derived",
			Name:      "analyses_posted_total",
			Help:      "Total number of analyses posted to the social channel",
		}),

		PositionsReconciled: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "positions",
			Name:      "reconciled_total",
			Help:      "Total number of wallet positions reconciled",
		}),
		WalletsProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "positions",
			Name:      "wallets_processed_total",
			Help:      "Total number of wallets processed by the refresh job",
		}),
		DepositsSkipped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "positions",
			Name:      "deposits_skipped_total",
			Help:      "Total number of deposits skipped by reason",
		}, []string{"reason"}),

		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"operation"}),

		LastSuccessfulRun: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of the last successful run per job",
		}, []string{"job"}),
		UptimeSeconds: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "uptime_seconds_total",
			Help:      "Total uptime in seconds",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordJobRun records one job iteration.
func RecordJobRun(job, status string, durationSeconds float64) {
	DefaultMetrics.JobRunsTotal.WithLabelValues(job, status).Inc()
	DefaultMetrics.JobDuration.WithLabelValues(job).Observe(durationSeconds)
	if status == "success" {
		DefaultMetrics.LastSuccessfulRun.WithLabelValues(job).SetToCurrentTime()
	}
}

// RecordSnapshotStored increments the stored snapshot counter.
func RecordSnapshotStored() {
	DefaultMetrics.SnapshotsStored.Inc()
}

// RecordProviderCall records one market provider call.
func RecordProviderCall(protocol, method string, seconds float64, err error) {
	DefaultMetrics.ProviderCallLatency.WithLabelValues(protocol, method).Observe(seconds)
	if err != nil {
		DefaultMetrics.ProviderCallErrors.WithLabelValues(protocol, method).Inc()
	}
}

// RecordRuleCreated increments the rules created counter.
func RecordRuleCreated() {
	DefaultMetrics.RulesCreated.Inc()
}

// RecordPredictionSaved increments the predictions saved counter.
func RecordPredictionSaved() {
	DefaultMetrics.PredictionsSaved.Inc()
}

// RecordAnalysisPosted increments the analyses posted counter.
func RecordAnalysisPosted() {
	DefaultMetrics.AnalysesPosted.Inc()
}

// RecordPositionReconciled increments the positions reconciled counter.
func RecordPositionReconciled() {
	DefaultMetrics.PositionsReconciled.Inc()
}

// RecordWalletProcessed increments the wallets processed counter.
func RecordWalletProcessed() {
	DefaultMetrics.WalletsProcessed.Inc()
}

// RecordDepositSkipped records a skipped deposit by reason.
func RecordDepositSkipped(reason string) {
	DefaultMetrics.DepositsSkipped.WithLabelValues(reason).Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(operation).Inc()
	}
}
