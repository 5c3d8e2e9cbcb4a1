// Package relay forwards data-layer records to Kafka.
package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"pawty/internal/platform/kafka/producer"
	"pawty/internal/telemetry/datalayer"
	"pawty/internal/telemetry/metrics"
	"pawty/internal/telemetry/models"
	"pawty/pkg/platform/circuit"
	"pawty/pkg/platform/clock"
)

// DefaultTopic receives every relayed record.
const DefaultTopic = "pawty.datalayer.events"

// Source is the queue the worker drains. *datalayer.Queue satisfies it.
type Source interface {
	Since(after uint64, limit int) []datalayer.Entry
	Ack(offset uint64) int
}

// Publisher delivers a batch. *producer.Producer satisfies it.
type Publisher interface {
	Produce(ctx context.Context, msgs ...*producer.Message) error
}

// Worker polls the data layer and publishes each record keyed by event name.
// A batch is acked only after the whole batch is delivered, so a failure
// leaves the records queued for the next poll.
type Worker struct {
	source       Source
	publisher    Publisher
	topic        string
	batchSize    int
	pollInterval time.Duration
	drainTimeout time.Duration
	clock        clock.Clock
	metrics      *metrics.Metrics
	logger       *slog.Logger
	tracer       trace.Tracer
	breaker      *circuit.Breaker
}

// Option configures the Worker.
type Option func(*Worker)

// WithTopic sets the Kafka topic for publishing.
func WithTopic(topic string) Option {
	return func(w *Worker) {
		if topic != "" {
			w.topic = topic
		}
	}
}

// WithBatchSize sets the maximum number of records per publish.
func WithBatchSize(size int) Option {
	return func(w *Worker) {
		if size > 0 {
			w.batchSize = size
		}
	}
}

// WithPollInterval sets the interval between polls.
func WithPollInterval(interval time.Duration) Option {
	return func(w *Worker) {
		if interval > 0 {
			w.pollInterval = interval
		}
	}
}

// WithClock drives the poll ticker from c.
func WithClock(c clock.Clock) Option {
	return func(w *Worker) {
		w.clock = c
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(w *Worker) {
		w.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) {
		w.logger = logger
	}
}

// WithTracer replaces the global tracer.
func WithTracer(t trace.Tracer) Option {
	return func(w *Worker) {
		w.tracer = t
	}
}

// WithBreaker skips polls while b is open, except for its probes.
func WithBreaker(b *circuit.Breaker) Option {
	return func(w *Worker) {
		w.breaker = b
	}
}

// New creates a relay worker.
func New(source Source, publisher Publisher, opts ...Option) *Worker {
	w := &Worker{
		source:       source,
		publisher:    publisher,
		topic:        DefaultTopic,
		batchSize:    100,
		pollInterval: 250 * time.Millisecond,
		drainTimeout: 10 * time.Second,
		clock:        clock.Real(),
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.tracer == nil {
		w.tracer = otel.Tracer("pawty/relay")
	}
	return w
}

// Run polls until ctx is cancelled, then drains what is left.
func (w *Worker) Run(ctx context.Context) error {
	ticker := w.clock.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.InfoContext(ctx, "relay worker started", "topic", w.topic, "interval", w.pollInterval)
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return nil
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *Worker) tick(ctx context.Context) {
	if w.breaker == nil {
		if _, err := w.Poll(ctx); err != nil {
			w.logger.ErrorContext(ctx, "relay poll failed", "error", err)
		}
		return
	}

	if !w.breaker.Allow() {
		return
	}
	if _, err := w.Poll(ctx); err != nil {
		if change := w.breaker.RecordFailure(); change.Opened {
			w.logger.WarnContext(ctx, "relay circuit opened", "breaker", w.breaker.Name(), "error", err)
		} else {
			w.logger.ErrorContext(ctx, "relay poll failed", "error", err)
		}
		return
	}
	if change := w.breaker.RecordSuccess(); change.Closed {
		w.logger.InfoContext(ctx, "relay circuit closed", "breaker", w.breaker.Name())
	}
}

// Health fails while the circuit is open.
func (w *Worker) Health(_ context.Context) error {
	if w.breaker != nil && w.breaker.IsOpen() {
		return fmt.Errorf("relay circuit %s open since %s",
			w.breaker.Name(), w.breaker.OpenedAt().UTC().Format(time.RFC3339))
	}
	return nil
}

// Poll publishes one batch and returns how many queued records it consumed.
func (w *Worker) Poll(ctx context.Context) (int, error) {
	entries := w.source.Since(0, w.batchSize)
	if len(entries) == 0 {
		return 0, nil
	}

	ctx, span := w.tracer.Start(ctx, "relay.publish_batch",
		trace.WithAttributes(
			attribute.String("messaging.destination", w.topic),
			attribute.Int("relay.batch_size", len(entries)),
		))
	defer span.End()

	start := w.clock.Now()
	if w.metrics != nil {
		w.metrics.ObserveBatchSize(len(entries))
	}

	msgs := make([]*producer.Message, 0, len(entries))
	for _, e := range entries {
		msg, err := w.message(e)
		if err != nil {
			// Unencodable records can never be delivered; they are skipped.
			w.logger.ErrorContext(ctx, "dropping unencodable record", "offset", e.Offset, "error", err)
			continue
		}
		msgs = append(msgs, msg)
	}

	if err := w.publisher.Produce(ctx, msgs...); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if w.metrics != nil {
			for range msgs {
				w.metrics.IncPublishFailures()
			}
		}
		return 0, fmt.Errorf("publish batch of %d: %w", len(msgs), err)
	}

	w.source.Ack(entries[len(entries)-1].Offset)
	if w.metrics != nil {
		for range msgs {
			w.metrics.IncPublished()
		}
		w.metrics.ObserveBatchDuration(w.clock.Now().Sub(start).Seconds())
	}
	return len(entries), nil
}

func (w *Worker) message(e datalayer.Entry) (*producer.Message, error) {
	value, err := json.Marshal(e.Record)
	if err != nil {
		return nil, err
	}
	name, _ := e.Record[models.SinkEventKey].(string)
	return &producer.Message{
		Topic: w.topic,
		Key:   []byte(name),
		Value: value,
		Headers: map[string]string{
			"event":     name,
			"offset":    fmt.Sprintf("%d", e.Offset),
			"pushed_at": e.PushedAt.UTC().Format(time.RFC3339Nano),
		},
	}, nil
}

// drain publishes remaining records during shutdown.
func (w *Worker) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), w.drainTimeout)
	defer cancel()

	w.logger.Info("draining relay worker")
	for {
		n, err := w.Poll(ctx)
		if err != nil {
			w.logger.Error("relay drain stopped with records queued", "error", err)
			return
		}
		if n == 0 {
			return
		}
	}
}
