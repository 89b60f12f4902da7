package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the claims engine. Methods are
// nil-safe so components can run without metrics in unit tests.
type Metrics struct {
	ClaimsDecided        *prometheus.CounterVec
	AuditConflicts       prometheus.Counter
	VerificationFailures prometheus.Counter
	EventPublishes       *prometheus.CounterVec
	WorkerTriggers       *prometheus.CounterVec
	PipelineDuration     prometheus.Histogram
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		ClaimsDecided: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "claimsgate_claims_decided_total",
			Help: "Total number of sealed claim decisions by outcome",
		}, []string{"decision"}),
		AuditConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "claimsgate_audit_conflicts_total",
			Help: "Total number of rejected duplicate commits against sealed claims",
		}),
		VerificationFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "claimsgate_verification_failures_total",
			Help: "Total number of ledger verification transport failures",
		}),
		EventPublishes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "claimsgate_event_publishes_total",
			Help: "Total number of event bus publish attempts by result",
		}, []string{"result"}),
		WorkerTriggers: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "claimsgate_worker_triggers_total",
			Help: "Total number of ledger triggers handled by outcome",
		}, []string{"outcome"}),
		PipelineDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "claimsgate_pipeline_duration_seconds",
			Help:    "End-to-end claim pipeline duration",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// IncClaimsDecided records a sealed decision.
func (m *Metrics) IncClaimsDecided(decision string) {
	if m == nil {
		return
	}
	m.ClaimsDecided.WithLabelValues(decision).Inc()
}

// IncAuditConflict records a rejected duplicate commit.
func (m *Metrics) IncAuditConflict() {
	if m == nil {
		return
	}
	m.AuditConflicts.Inc()
}

// IncVerificationFailure records a failed ledger consultation.
func (m *Metrics) IncVerificationFailure() {
	if m == nil {
		return
	}
	m.VerificationFailures.Inc()
}

// IncEventPublish records a bus publish attempt ("ok" or "error").
func (m *Metrics) IncEventPublish(result string) {
	if m == nil {
		return
	}
	m.EventPublishes.WithLabelValues(result).Inc()
}

// IncWorkerTrigger records a worker trigger outcome
// ("processed", "skipped", "failed").
func (m *Metrics) IncWorkerTrigger(outcome string) {
	if m == nil {
		return
	}
	m.WorkerTriggers.WithLabelValues(outcome).Inc()
}

// ObservePipelineDuration records one pipeline run.
func (m *Metrics) ObservePipelineDuration(seconds float64) {
	if m == nil {
		return
	}
	m.PipelineDuration.Observe(seconds)
}
