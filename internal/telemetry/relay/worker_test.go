package relay

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"pawty/internal/platform/kafka/producer"
	"pawty/internal/telemetry/datalayer"
	"pawty/internal/telemetry/metrics"
	"pawty/internal/telemetry/models"
	"pawty/pkg/platform/circuit"
	"pawty/pkg/platform/clock"
)

// recordingPublisher captures delivered batches and can be told to fail.
type recordingPublisher struct {
	mu      sync.Mutex
	batches [][]*producer.Message
	fail    error
}

func (p *recordingPublisher) Produce(_ context.Context, msgs ...*producer.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail != nil {
		return p.fail
	}
	p.batches = append(p.batches, msgs)
	return nil
}

func (p *recordingPublisher) delivered() []*producer.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []*producer.Message
	for _, b := range p.batches {
		out = append(out, b...)
	}
	return out
}

func (p *recordingPublisher) setFail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fail = err
}

type WorkerSuite struct {
	suite.Suite
	queue     *datalayer.Queue
	publisher *recordingPublisher
	metrics   *metrics.Metrics
	clock     *clock.FakeClock
	worker    *Worker
}

func (s *WorkerSuite) SetupTest() {
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.clock = clock.NewFake(time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC))
	s.queue = datalayer.NewQueue(datalayer.WithMetrics(s.metrics), datalayer.WithClock(s.clock))
	s.publisher = &recordingPublisher{}
	s.worker = New(s.queue, s.publisher,
		WithTopic("test.events"),
		WithBatchSize(2),
		WithPollInterval(time.Second),
		WithClock(s.clock),
		WithMetrics(s.metrics),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
}

func TestWorkerSuite(t *testing.T) {
	suite.Run(t, new(WorkerSuite))
}

func (s *WorkerSuite) push(name string, params models.Params) {
	s.Require().NoError(s.queue.Push(models.NewEvent(name, params, s.clock.Now())))
}

func (s *WorkerSuite) TestPollPublishesAndAcks() {
	s.push("corgi_cta_click", models.Params{"section": "hero"})
	s.push("scroll_depth", models.Params{"section": "page", "percent": 25})
	s.push("page_view", nil)

	n, err := s.worker.Poll(context.Background())
	s.Require().NoError(err)
	s.Equal(2, n)
	s.Equal(1, s.queue.Len())

	msgs := s.publisher.delivered()
	s.Require().Len(msgs, 2)
	s.Equal("test.events", msgs[0].Topic)
	s.Equal("corgi_cta_click", string(msgs[0].Key))
	s.Equal("corgi_cta_click", msgs[0].Headers["event"])
	s.Equal("1", msgs[0].Headers["offset"])
	s.Equal("2026-05-01T00:00:00Z", msgs[0].Headers["pushed_at"])

	var body map[string]any
	s.Require().NoError(json.Unmarshal(msgs[0].Value, &body))
	s.Equal("corgi_cta_click", body["event"])
	s.Equal("hero", body["section"])

	s.Equal(2.0, promtest.ToFloat64(s.metrics.RelayPublished))
	s.Equal(1.0, promtest.ToFloat64(s.metrics.QueueDepth))
}

func (s *WorkerSuite) TestFailureLeavesRecordsQueued() {
	s.push("corgi_nudge_shown", models.Params{"idle_duration": 20000})
	s.publisher.setFail(errors.New("broker unavailable"))

	_, err := s.worker.Poll(context.Background())
	s.Error(err)
	s.Equal(1, s.queue.Len())
	s.Equal(1.0, promtest.ToFloat64(s.metrics.RelayFailures))

	s.publisher.setFail(nil)
	n, err := s.worker.Poll(context.Background())
	s.Require().NoError(err)
	s.Equal(1, n)
	s.Zero(s.queue.Len())
}

func (s *WorkerSuite) TestEmptyQueueIsNoop() {
	n, err := s.worker.Poll(context.Background())
	s.NoError(err)
	s.Zero(n)
	s.Empty(s.publisher.delivered())
}

func (s *WorkerSuite) TestRunPollsOnTickAndDrainsOnShutdown() {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.worker.Run(ctx) }()

	s.push("video_start", models.Params{"component": "hero"})
	s.Eventually(func() bool {
		s.clock.Advance(time.Second)
		return len(s.publisher.delivered()) == 1
	}, time.Second, 10*time.Millisecond)

	for i := 0; i < 5; i++ {
		s.push("video_progress", models.Params{"percent": 25 * (i%3 + 1)})
	}
	cancel()
	s.Require().NoError(<-done)

	s.Len(s.publisher.delivered(), 6)
	s.Zero(s.queue.Len())
}

func (s *WorkerSuite) TestBreakerSkipsPollsWhileOpen() {
	breaker := circuit.New("kafka",
		circuit.WithFailureThreshold(2),
		circuit.WithCooldown(5*time.Second),
		circuit.WithClock(s.clock),
	)
	s.worker = New(s.queue, s.publisher,
		WithClock(s.clock),
		WithBreaker(breaker),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	ctx := context.Background()
	s.push("page_view", nil)
	s.publisher.setFail(errors.New("broker unavailable"))

	s.worker.tick(ctx)
	s.NoError(s.worker.Health(ctx))
	s.worker.tick(ctx)
	s.True(breaker.IsOpen())
	s.Error(s.worker.Health(ctx))

	s.publisher.setFail(nil)
	s.worker.tick(ctx)
	s.Empty(s.publisher.delivered(), "open circuit skips the poll")
	s.Equal(1, s.queue.Len())

	s.clock.Advance(5 * time.Second)
	s.worker.tick(ctx)
	s.Len(s.publisher.delivered(), 1, "probe after the cooldown")
	s.Zero(s.queue.Len())
	s.False(breaker.IsOpen())
	s.NoError(s.worker.Health(ctx))
}
