package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Session end reasons.
const (
	EndUnload  = "unload"
	EndExpired = "expired"
)

type Metrics struct {
	SessionsCreated      prometheus.Counter
	SessionsEnded        *prometheus.CounterVec
	ActiveSessions       prometheus.Gauge
	SweepRunsTotal       *prometheus.CounterVec
	SweepDurationSeconds prometheus.Histogram
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		SessionsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "pawty_sessions_created_total",
			Help: "Total number of page sessions created",
		}),
		SessionsEnded: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pawty_sessions_ended_total",
			Help: "Total number of page sessions ended, labeled by reason (unload, expired)",
		}, []string{"reason"}),
		ActiveSessions: f.NewGauge(prometheus.GaugeOpts{
			Name: "pawty_sessions_active",
			Help: "Current number of live page sessions",
		}),
		SweepRunsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pawty_session_sweep_runs_total",
			Help: "Total number of session sweeper runs",
		}, []string{"status"}),
		SweepDurationSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Name: "pawty_session_sweep_duration_seconds",
			Help: "Duration of session sweeper runs in seconds",
		}),
	}
}

func (m *Metrics) IncrementCreated() {
	if m == nil {
		return
	}
	m.SessionsCreated.Inc()
}

func (m *Metrics) IncrementEnded(reason string) {
	if m == nil {
		return
	}
	m.SessionsEnded.WithLabelValues(reason).Inc()
}

func (m *Metrics) SetActive(n int) {
	if m == nil {
		return
	}
	m.ActiveSessions.Set(float64(n))
}

func (m *Metrics) ObserveSweep(status string, seconds float64) {
	if m == nil {
		return
	}
	m.SweepRunsTotal.WithLabelValues(status).Inc()
	m.SweepDurationSeconds.Observe(seconds)
}
