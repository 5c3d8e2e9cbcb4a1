package sweeper

import (
	"context"
	"log/slog"
	"time"

	"pawty/internal/session/metrics"
	"pawty/pkg/platform/clock"
)

// SweepResult contains the results of one sweep.
type SweepResult struct {
	Expired  int
	Duration time.Duration
}

// SessionStore expires sessions idle since cutoff.
type SessionStore interface {
	Expire(ctx context.Context, cutoff time.Time) (expired int, err error)
}

type Option func(*Worker)

func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

func WithInterval(interval time.Duration) Option {
	return func(w *Worker) {
		if interval > 0 {
			w.interval = interval
		}
	}
}

// WithTTL sets how long a session may go unseen before it is unloaded.
func WithTTL(ttl time.Duration) Option {
	return func(w *Worker) {
		if ttl > 0 {
			w.ttl = ttl
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(w *Worker) {
		w.metrics = m
	}
}

func WithClock(c clock.Clock) Option {
	return func(w *Worker) {
		if c != nil {
			w.clock = c
		}
	}
}

// Worker unloads page sessions whose browser went away without an unload.
type Worker struct {
	store    SessionStore
	logger   *slog.Logger
	interval time.Duration
	ttl      time.Duration
	metrics  *metrics.Metrics
	clock    clock.Clock
}

func New(store SessionStore, opts ...Option) *Worker {
	w := &Worker{
		store:    store,
		logger:   slog.Default(),
		interval: time.Minute,
		ttl:      30 * time.Minute,
		clock:    clock.Real(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start sweeps every interval until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	ticker := w.clock.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			res, err := w.RunOnce(ctx)
			if err != nil {
				w.logger.Error("session_sweep_failed",
					"error", err,
					"duration_ms", res.Duration.Milliseconds(),
				)
				w.metrics.ObserveSweep("error", res.Duration.Seconds())
				continue
			}
			if res.Expired > 0 {
				w.logger.Info("session_sweep_completed",
					"sessions_expired", res.Expired,
					"duration_ms", res.Duration.Milliseconds(),
				)
			}
			w.metrics.ObserveSweep("success", res.Duration.Seconds())

		case <-ctx.Done():
			w.logger.Info("session sweeper stopping", "reason", ctx.Err())
			return nil
		}
	}
}

// RunOnce executes a single sweep. Logging is handled by the caller (Start).
func (w *Worker) RunOnce(ctx context.Context) (SweepResult, error) {
	start := w.clock.Now()
	expired, err := w.store.Expire(ctx, start.Add(-w.ttl))
	return SweepResult{Expired: expired, Duration: w.clock.Now().Sub(start)}, err
}
