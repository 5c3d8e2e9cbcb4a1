package gateway

import (
	"fmt"
	"log/slog"
	"sync"

	"pawty/internal/telemetry/metrics"
	"pawty/internal/telemetry/models"
	"pawty/pkg/platform/clock"
)

//go:generate mockgen -source=gateway.go -destination=mocks/mocks.go -package=mocks Sink

// SelfTestEvent is emitted by SelfTest.
const SelfTestEvent = "analytics_test"

// Sink receives every emitted event before local subscribers do. It only
// accepts data; delivery to the host integration is its own concern.
type Sink interface {
	Push(event models.Event) error
}

// Subscriber is notified synchronously once per emitted event.
type Subscriber func(event models.Event)

// Option configures the Gateway.
type Option func(*Gateway)

// WithLogger sets the logger used for dropped pushes and recovered panics.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithMetrics sets the metrics collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Gateway) {
		g.metrics = m
	}
}

// WithSink attaches the sink at construction time.
func WithSink(sink Sink) Option {
	return func(g *Gateway) {
		g.sink = sink
	}
}

// WithClock overrides the clock used to stamp events.
func WithClock(c clock.Clock) Option {
	return func(g *Gateway) {
		if c != nil {
			g.clock = c
		}
	}
}

type subscription struct {
	id uint64
	fn Subscriber
}

// Gateway is the single funnel for instrumentation signals. Emit pushes to
// the sink (when attached) and then fans out to subscribers in the order
// they subscribed. Neither step can fail the caller.
type Gateway struct {
	clock   clock.Clock
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu     sync.RWMutex
	sink   Sink
	subs   []subscription
	nextID uint64
}

// New constructs a Gateway without a sink unless WithSink is given.
func New(opts ...Option) *Gateway {
	g := &Gateway{
		clock:  clock.Real(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// AttachSink installs sink, replacing any previous one.
func (g *Gateway) AttachSink(sink Sink) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sink = sink
}

// DetachSink removes the sink; emits keep reaching subscribers.
func (g *Gateway) DetachSink() {
	g.AttachSink(nil)
}

// Emit records one event. It never returns an error: a missing or failing
// sink loses the push, never the local notification.
func (g *Gateway) Emit(name string, params models.Params) {
	g.Publish(models.NewEvent(name, params, g.clock.Now()))
}

// Publish is Emit for an already stamped event.
func (g *Gateway) Publish(event models.Event) {
	g.mu.RLock()
	sink := g.sink
	subs := make([]subscription, len(g.subs))
	copy(subs, g.subs)
	g.mu.RUnlock()

	if g.metrics != nil {
		g.metrics.IncEmitted(string(models.BucketOf(event.Name)))
	}

	g.push(sink, event)
	for _, sub := range subs {
		g.notify(sub, event)
	}
}

func (g *Gateway) push(sink Sink, event models.Event) {
	if sink == nil {
		g.countPush(metrics.OutcomeSkipped)
		return
	}
	defer func() {
		if r := recover(); r != nil {
			g.countPanic()
			g.countPush(metrics.OutcomeFailed)
			g.logger.Error("sink panicked", "event", event.Name, "panic", fmt.Sprint(r))
		}
	}()
	if err := sink.Push(event.Clone()); err != nil {
		g.countPush(metrics.OutcomeFailed)
		g.logger.Warn("sink push failed, event dropped", "event", event.Name, "error", err)
		return
	}
	g.countPush(metrics.OutcomePushed)
}

func (g *Gateway) notify(sub subscription, event models.Event) {
	defer func() {
		if r := recover(); r != nil {
			g.countPanic()
			g.logger.Error("subscriber panicked", "event", event.Name, "subscription", sub.id, "panic", fmt.Sprint(r))
		}
	}()
	sub.fn(event.Clone())
}

// Subscribe registers fn and returns a function that removes it again.
// Calling the returned function more than once is a no-op.
func (g *Gateway) Subscribe(fn Subscriber) (unsubscribe func()) {
	g.mu.Lock()
	g.nextID++
	id := g.nextID
	g.subs = append(g.subs, subscription{id: id, fn: fn})
	g.mu.Unlock()
	if g.metrics != nil {
		g.metrics.AddSubscribers(1)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			for i, sub := range g.subs {
				if sub.id == id {
					g.subs = append(g.subs[:i:i], g.subs[i+1:]...)
					break
				}
			}
			g.mu.Unlock()
			if g.metrics != nil {
				g.metrics.AddSubscribers(-1)
			}
		})
	}
}

// Subscribers returns the number of live subscriptions.
func (g *Gateway) Subscribers() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.subs)
}

// SelfTestReport describes the pipeline as seen by SelfTest.
type SelfTestReport struct {
	SinkAttached bool         `json:"sink_attached"`
	Subscribers  int          `json:"subscribers"`
	Event        models.Event `json:"event"`
}

// SelfTest emits a marker event through the full pipeline so an operator can
// confirm it reaches the sink and the debug overlay.
func (g *Gateway) SelfTest() SelfTestReport {
	g.mu.RLock()
	report := SelfTestReport{SinkAttached: g.sink != nil, Subscribers: len(g.subs)}
	g.mu.RUnlock()

	now := g.clock.Now()
	report.Event = models.NewEvent(SelfTestEvent, models.Params{
		"source":    "self_test",
		"timestamp": now.UnixMilli(),
	}, now)
	g.Publish(report.Event)

	g.logger.Info("analytics self-test emitted",
		"sink_attached", report.SinkAttached,
		"subscribers", report.Subscribers,
	)
	return report
}

func (g *Gateway) countPush(outcome string) {
	if g.metrics != nil {
		g.metrics.IncSinkPush(outcome)
	}
}

func (g *Gateway) countPanic() {
	if g.metrics != nil {
		g.metrics.IncSubscriberPanics()
	}
}
