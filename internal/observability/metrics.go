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
	// Underwriting metrics
	UnderwritingRuns     *prometheus.CounterVec
	UnderwritingErrors   *prometheus.CounterVec
	UnderwritingDuration prometheus.Histogram
	FinalScore           prometheus.Histogram
	AIWeight             prometheus.Histogram

	// Training metrics
	TrainingRunsTotal *prometheus.CounterVec
	TrainingDuration  prometheus.Histogram
	TrainingRows      *prometheus.HistogramVec
	CandidateValF1    prometheus.Histogram

	// Governance metrics
	Promotions *prometheus.CounterVec

	// HTTP metrics
	HTTPRequestDuration *prometheus.HistogramVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulRetrain prometheus.Gauge
}

// NewMetrics creates a new Metrics instance registered with reg.
// A nil reg uses the default Prometheus registerer.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "underwriting_lab"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		// Underwriting metrics
		UnderwritingRuns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "underwriting",
			Name:      "runs_total",
			Help:      "Total number of underwriting runs by verdict and model kind",
		}, []string{"verdict", "model"}),
		UnderwritingErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "underwriting",
			Name:      "errors_total",
			Help:      "Total number of rejected or failed underwriting runs by reason",
		}, []string{"reason"}),
		UnderwritingDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "underwriting",
			Name:      "duration_seconds",
			Help:      "Underwriting run latency in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
		FinalScore: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "underwriting",
			Name:      "final_score",
			Help:      "Distribution of final deal scores",
			Buckets:   []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		}),
		AIWeight: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "underwriting",
			Name:      "ai_weight",
			Help:      "Blend weight given to the learned score",
			Buckets:   []float64{0, 0.05, 0.1, 0.15, 0.2, 0.25},
		}),

		// Training metrics
		TrainingRunsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "training",
			Name:      "runs_total",
			Help:      "Total number of training runs by label source and status",
		}, []string{"source", "status"}),
		TrainingDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "training",
			Name:      "duration_seconds",
			Help:      "Training run duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		}),
		TrainingRows: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "training",
			Name:      "rows",
			Help:      "Number of labeled rows per training run",
			Buckets:   []float64{10, 20, 30, 50, 100, 250, 500, 1000},
		}, []string{"source"}),
		CandidateValF1: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "training",
			Name:      "candidate_val_f1",
			Help:      "Validation F1 of newly created candidates",
			Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
		}),

		// Governance metrics
		Promotions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "governance",
			Name:      "promotions_total",
			Help:      "Total number of promotion attempts by outcome",
		}, []string{"outcome"}),

		// HTTP metrics
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),

		// Database metrics
		DBQueryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		LastSuccessfulRetrain: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_retrain_timestamp",
			Help:      "Unix timestamp of last successful scheduled retrain",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Promotion outcomes.
const (
	PromotionActivated  = "activated"
	PromotionOverridden = "overridden"
	PromotionBlocked    = "blocked"
	PromotionDenied     = "denied"
)

// RecordUnderwriting records one completed underwriting run.
func (m *Metrics) RecordUnderwriting(verdict, model string, score, aiWeight, seconds float64) {
	if m == nil {
		return
	}
	m.UnderwritingRuns.WithLabelValues(verdict, model).Inc()
	m.FinalScore.Observe(score)
	m.AIWeight.Observe(aiWeight)
	m.UnderwritingDuration.Observe(seconds)
}

// RecordUnderwritingError records a rejected or failed underwriting run.
func (m *Metrics) RecordUnderwritingError(reason string) {
	if m == nil {
		return
	}
	m.UnderwritingErrors.WithLabelValues(reason).Inc()
}

// RecordTraining records a training run.
func (m *Metrics) RecordTraining(source, status string, rows int, valF1, seconds float64) {
	if m == nil {
		return
	}
	m.TrainingRunsTotal.WithLabelValues(source, status).Inc()
	m.TrainingDuration.Observe(seconds)
	if rows > 0 {
		m.TrainingRows.WithLabelValues(source).Observe(float64(rows))
	}
	if status == "ok" {
		m.CandidateValF1.Observe(valF1)
	}
}

// RecordPromotion records a promotion attempt outcome.
func (m *Metrics) RecordPromotion(outcome string) {
	if m == nil {
		return
	}
	m.Promotions.WithLabelValues(outcome).Inc()
}

// RecordHTTP records an HTTP request.
func (m *Metrics) RecordHTTP(route, method, status string, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequestDuration.WithLabelValues(route, method, status).Observe(seconds)
}

// RecordDBQuery records database query metrics.
func (m *Metrics) RecordDBQuery(database, operation string, seconds float64, err error) {
	if m == nil {
		return
	}
	m.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		m.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// MarkRetrain sets the last successful retrain timestamp.
func (m *Metrics) MarkRetrain(unixSeconds int64) {
	if m == nil {
		return
	}
	m.LastSuccessfulRetrain.Set(float64(unixSeconds))
}
