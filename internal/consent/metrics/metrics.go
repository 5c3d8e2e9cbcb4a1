package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Boot outcomes.
const (
	BootApplied  = "applied"
	BootAbsent   = "absent"
	BootExpired  = "expired"
	BootDegraded = "degraded"
)

// Metrics holds Prometheus collectors for consent operations.
type Metrics struct {
	Decisions       *prometheus.CounterVec
	Boots           *prometheus.CounterVec
	PromptsShown    prometheus.Counter
	StoreFailures   *prometheus.CounterVec
	PropagateErrors prometheus.Counter
	DecisionLatency prometheus.Histogram
}

// New registers consent collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Decisions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pawty_consent_decisions_total",
			Help: "Consent decisions, labeled by action and method",
		}, []string{"action", "method"}),
		Boots: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pawty_consent_boots_total",
			Help: "Consent boot evaluations, labeled by outcome (applied, absent, expired, degraded)",
		}, []string{"outcome"}),
		PromptsShown: f.NewCounter(prometheus.CounterOpts{
			Name: "pawty_consent_prompts_shown_total",
			Help: "Times the consent prompt was presented",
		}),
		StoreFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pawty_consent_store_failures_total",
			Help: "Persisted consent store failures, labeled by operation",
		}, []string{"operation"}),
		PropagateErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "pawty_consent_propagation_errors_total",
			Help: "Failures applying a profile to the host consent stack",
		}),
		DecisionLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "pawty_consent_decision_latency_seconds",
			Help:    "Time from prompt display to decision in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 300},
		}),
	}
}

func (m *Metrics) IncrementDecision(action, method string) {
	if m == nil {
		return
	}
	m.Decisions.WithLabelValues(action, method).Inc()
}

func (m *Metrics) IncrementBoot(outcome string) {
	if m == nil {
		return
	}
	m.Boots.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrementPromptsShown() {
	if m == nil {
		return
	}
	m.PromptsShown.Inc()
}

func (m *Metrics) IncrementStoreFailure(operation string) {
	if m == nil {
		return
	}
	m.StoreFailures.WithLabelValues(operation).Inc()
}

func (m *Metrics) IncrementPropagateErrors() {
	if m == nil {
		return
	}
	m.PropagateErrors.Inc()
}

// ObserveDecisionLatency records how long the prompt was on screen.
func (m *Metrics) ObserveDecisionLatency(seconds float64) {
	if m == nil {
		return
	}
	m.DecisionLatency.Observe(seconds)
}
