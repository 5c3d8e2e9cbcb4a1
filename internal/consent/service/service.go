package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"pawty/internal/consent/metrics"
	"pawty/internal/consent/models"
	"pawty/internal/sentinel"
	tmodels "pawty/internal/telemetry/models"
	"pawty/pkg/platform/clock"
	dErrors "pawty/pkg/domain-errors"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,Propagator,Emitter

// Store persists the single consent record of a client.
// Error Contract:
// - Load returns sentinel.ErrNotFound for absent, partial or malformed state
// - Other failures are infrastructure errors
type Store interface {
	Load(ctx context.Context) (*models.Record, error)
	Save(ctx context.Context, record *models.Record) error
	Clear(ctx context.Context) error
}

// Propagator applies a profile to the host's ad and analytics stack.
type Propagator interface {
	Apply(ctx context.Context, profile models.Profile) error
}

// Emitter publishes decision events. *gateway.Gateway satisfies it.
type Emitter interface {
	Emit(name string, params tmodels.Params)
}

// DefaultPromptDelay keeps the first-visit prompt from flashing during paint.
const DefaultPromptDelay = time.Second

type Option func(*Service)

// Service runs the consent state machine for one page lifetime.
type Service struct {
	store      Store
	propagator Propagator
	emitter    Emitter
	clock      clock.Clock
	logger     *slog.Logger
	metrics    *metrics.Metrics
	ttl        time.Duration
	delay      time.Duration
	onPrompt   func()

	mu         sync.Mutex
	state      models.State
	promptGen  uint64
	timer      *clock.Timer
	promptedAt time.Time
}

// NewService builds a service in the unresolved state. propagator and emitter
// may be nil.
func NewService(store Store, propagator Propagator, emitter Emitter, opts ...Option) *Service {
	svc := &Service{
		store:      store,
		propagator: propagator,
		emitter:    emitter,
		clock:      clock.Real(),
		logger:     slog.Default(),
		ttl:        models.DefaultTTL,
		delay:      DefaultPromptDelay,
		state:      models.StateUnresolved,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// WithClock sets the time source for expiry checks and the prompt timer.
func WithClock(c clock.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger sets the logger instance for the service.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics sets the metrics instance for the service
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithTTL configures how long a decision stays valid.
// If not set or set to zero/negative, defaults to 365 days.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithPromptDelay configures the first-visit display delay. Zero shows the
// prompt immediately.
func WithPromptDelay(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.delay = d
		}
	}
}

// WithPromptHook registers fn to run each time the state becomes prompted.
func WithPromptHook(fn func()) Option {
	return func(s *Service) {
		s.onPrompt = fn
	}
}

// State returns the current lifecycle state.
func (s *Service) State() models.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// TTL returns the configured validity window.
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// GetStoredRecord reads the persisted record. Any read failure is reported
// as no record.
func (s *Service) GetStoredRecord(ctx context.Context) (*models.Record, bool) {
	record, err := s.load(ctx)
	if err != nil {
		return nil, false
	}
	return record, true
}

func (s *Service) load(ctx context.Context) (*models.Record, error) {
	record, err := s.store.Load(ctx)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		s.logger.WarnContext(ctx, "consent store read failed, treating as absent", "error", err)
		s.metrics.IncrementStoreFailure("load")
	}
	return nil, err
}

// IsExpired reports whether record is older than the TTL at the current clock time.
func (s *Service) IsExpired(record models.Record) bool {
	return models.IsExpired(record, s.clock.Now(), s.ttl)
}

// Boot evaluates the persisted record. A valid record is applied without a
// prompt, an expired one prompts at once and an absent one prompts after the
// display delay. Boot is a no-op outside the unresolved state.
func (s *Service) Boot(ctx context.Context) models.State {
	if st := s.State(); st != models.StateUnresolved {
		return st
	}

	record, err := s.load(ctx)
	switch {
	case err == nil && !s.IsExpired(*record):
		s.mu.Lock()
		if s.state != models.StateUnresolved {
			st := s.state
			s.mu.Unlock()
			return st
		}
		s.state = models.StateResolved
		s.mu.Unlock()
		s.propagate(ctx, record.Profile)
		s.metrics.IncrementBoot(metrics.BootApplied)
		return models.StateResolved

	case err == nil:
		s.logger.InfoContext(ctx, "stored consent expired",
			"decided_at", record.DecidedAt,
			"expired_at", record.ExpiresAt(s.ttl),
		)
		s.metrics.IncrementBoot(metrics.BootExpired)
		s.showPrompt(s.nextGen())

	default:
		if errors.Is(err, sentinel.ErrNotFound) {
			s.metrics.IncrementBoot(metrics.BootAbsent)
		} else {
			s.metrics.IncrementBoot(metrics.BootDegraded)
		}
		s.schedulePrompt()
	}
	return s.State()
}

func (s *Service) nextGen() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.promptGen++
	return s.promptGen
}

func (s *Service) schedulePrompt() {
	gen := s.nextGen()
	if s.delay <= 0 {
		s.showPrompt(gen)
		return
	}
	t := s.clock.AfterFunc(s.delay, func() { s.showPrompt(gen) })

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.promptGen {
		t.Stop()
		return
	}
	s.timer = t
}

// showPrompt moves to prompted unless gen was superseded by a decision, a
// reset or Close.
func (s *Service) showPrompt(gen uint64) {
	s.mu.Lock()
	if gen != s.promptGen || s.state != models.StateUnresolved {
		s.mu.Unlock()
		return
	}
	s.state = models.StatePrompted
	s.promptedAt = s.clock.Now()
	s.timer = nil
	hook := s.onPrompt
	s.mu.Unlock()

	s.metrics.IncrementPromptsShown()
	if hook != nil {
		hook()
	}
}

// cancelPromptLocked invalidates any pending prompt timer.
func (s *Service) cancelPromptLocked() {
	s.promptGen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// Resolve records action as the visitor's decision. The decision is
// propagated and announced even when persisting it fails; the persistence
// error is still returned.
func (s *Service) Resolve(ctx context.Context, action models.Action) error {
	return s.resolve(ctx, action, models.MethodButton)
}

// Dismiss closes the prompt without an explicit choice, which resolves as
// reject-all.
func (s *Service) Dismiss(ctx context.Context) error {
	return s.resolve(ctx, models.ActionRejectAll, models.MethodDismiss)
}

func (s *Service) resolve(ctx context.Context, action models.Action, method string) error {
	profile, err := models.ProfileFor(action)
	if err != nil {
		return err
	}
	now := s.clock.Now()
	record := models.NewRecord(profile, now)

	s.mu.Lock()
	s.cancelPromptLocked()
	s.state = models.StateResolved
	promptedAt := s.promptedAt
	s.promptedAt = time.Time{}
	s.mu.Unlock()

	var saveErr error
	if err := s.store.Save(ctx, record); err != nil {
		s.logger.ErrorContext(ctx, "failed to persist consent decision", "action", action, "error", err)
		s.metrics.IncrementStoreFailure("save")
		saveErr = dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist consent decision")
	}

	s.propagate(ctx, profile)

	name, consentType := models.DecisionEvent(action)
	if s.emitter != nil {
		s.emitter.Emit(name, tmodels.Params{
			"consent_type": consentType,
			"action":       string(action),
			"method":       method,
			"timestamp":    now.UnixMilli(),
		})
	}

	s.metrics.IncrementDecision(string(action), method)
	if !promptedAt.IsZero() {
		s.metrics.ObserveDecisionLatency(now.Sub(promptedAt).Seconds())
	}
	s.logger.InfoContext(ctx, "consent resolved", "action", action, "method", method)
	return saveErr
}

// Reset deletes the persisted record and returns to unresolved so the next
// Boot evaluates from scratch.
func (s *Service) Reset(ctx context.Context) error {
	s.mu.Lock()
	s.cancelPromptLocked()
	s.state = models.StateUnresolved
	s.promptedAt = time.Time{}
	s.mu.Unlock()

	if err := s.store.Clear(ctx); err != nil {
		s.metrics.IncrementStoreFailure("clear")
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear consent decision")
	}
	return nil
}

// Close cancels a pending prompt. The service must not be booted again.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelPromptLocked()
}

func (s *Service) propagate(ctx context.Context, profile models.Profile) {
	if s.propagator == nil {
		return
	}
	if err := s.propagator.Apply(ctx, profile); err != nil {
		s.logger.WarnContext(ctx, "consent propagation failed", "error", err)
		s.metrics.IncrementPropagateErrors()
	}
}

// Status describes the service for API responses.
type Status struct {
	State     models.State
	Record    *models.Record
	ExpiresAt time.Time
	Expired   bool
}

// Status combines the lifecycle state with the stored record, if any.
func (s *Service) Status(ctx context.Context) Status {
	st := Status{State: s.State()}
	if record, ok := s.GetStoredRecord(ctx); ok {
		st.Record = record
		st.ExpiresAt = record.ExpiresAt(s.ttl)
		st.Expired = s.IsExpired(*record)
	}
	return st
}
