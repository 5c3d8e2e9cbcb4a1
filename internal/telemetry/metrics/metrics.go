package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Sink push outcomes.
const (
	OutcomePushed  = "pushed"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

// Metrics holds Prometheus collectors for the event gateway and relay.
type Metrics struct {
	EventsEmitted      *prometheus.CounterVec
	SinkPushes         *prometheus.CounterVec
	SubscriberPanics   prometheus.Counter
	ActiveSubscribers  prometheus.Gauge
	QueueDepth         prometheus.Gauge
	QueueEvictions     prometheus.Counter
	RelayPublished     prometheus.Counter
	RelayFailures      prometheus.Counter
	RelayBatchSize     prometheus.Histogram
	RelayBatchDuration prometheus.Histogram
}

// New registers the collectors on reg. Pass prometheus.DefaultRegisterer in
// production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		EventsEmitted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pawty_events_emitted_total",
			Help: "Total number of events emitted through the gateway, labeled by name prefix bucket",
		}, []string{"bucket"}),
		SinkPushes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pawty_sink_pushes_total",
			Help: "Sink pushes labeled by outcome (pushed, skipped, failed)",
		}, []string{"outcome"}),
		SubscriberPanics: f.NewCounter(prometheus.CounterOpts{
			Name: "pawty_subscriber_panics_total",
			Help: "Panics recovered from gateway subscribers or sinks",
		}),
		ActiveSubscribers: f.NewGauge(prometheus.GaugeOpts{
			Name: "pawty_gateway_subscribers",
			Help: "Current number of gateway subscribers across all sessions",
		}),
		QueueDepth: f.NewGauge(prometheus.GaugeOpts{
			Name: "pawty_datalayer_queue_depth",
			Help: "Records waiting in the data-layer queue",
		}),
		QueueEvictions: f.NewCounter(prometheus.CounterOpts{
			Name: "pawty_datalayer_queue_evictions_total",
			Help: "Unconsumed records evicted to make room for newer ones",
		}),
		RelayPublished: f.NewCounter(prometheus.CounterOpts{
			Name: "pawty_relay_published_total",
			Help: "Data-layer records published to Kafka",
		}),
		RelayFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "pawty_relay_failures_total",
			Help: "Data-layer records that failed to publish",
		}),
		RelayBatchSize: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "pawty_relay_batch_size",
			Help:    "Records fetched per relay poll",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500},
		}),
		RelayBatchDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "pawty_relay_batch_duration_seconds",
			Help:    "Time spent publishing one relay batch",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) IncEmitted(bucket string) {
	m.EventsEmitted.WithLabelValues(bucket).Inc()
}

func (m *Metrics) IncSinkPush(outcome string) {
	m.SinkPushes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncSubscriberPanics() {
	m.SubscriberPanics.Inc()
}

func (m *Metrics) AddSubscribers(delta float64) {
	m.ActiveSubscribers.Add(delta)
}

func (m *Metrics) SetQueueDepth(n int) {
	m.QueueDepth.Set(float64(n))
}

func (m *Metrics) IncQueueEvictions() {
	m.QueueEvictions.Inc()
}

func (m *Metrics) IncPublished() {
	m.RelayPublished.Inc()
}

func (m *Metrics) IncPublishFailures() {
	m.RelayFailures.Inc()
}

func (m *Metrics) ObserveBatchSize(n int) {
	m.RelayBatchSize.Observe(float64(n))
}

func (m *Metrics) ObserveBatchDuration(seconds float64) {
	m.RelayBatchDuration.Observe(seconds)
}
