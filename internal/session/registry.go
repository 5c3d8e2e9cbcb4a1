package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"pawty/internal/session/metrics"
	dErrors "pawty/pkg/domain-errors"
)

// DefaultMaxSessions bounds the number of live page sessions.
const DefaultMaxSessions = 10000

type RegistryOption func(*Registry)

func WithMaxSessions(n int) RegistryOption {
	return func(r *Registry) {
		if n > 0 {
			r.max = n
		}
	}
}

func WithMetrics(m *metrics.Metrics) RegistryOption {
	return func(r *Registry) {
		r.metrics = m
	}
}

// WithIDGenerator overrides how session IDs are minted.
func WithIDGenerator(fn func() string) RegistryOption {
	return func(r *Registry) {
		if fn != nil {
			r.newID = fn
		}
	}
}

// Registry holds the live page sessions of this process.
type Registry struct {
	deps    Deps
	max     int
	metrics *metrics.Metrics
	newID   func() string
	logger  *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry(deps Deps, opts ...RegistryOption) *Registry {
	deps = deps.withDefaults()
	r := &Registry{
		deps:     deps,
		max:      DefaultMaxSessions,
		newID:    uuid.NewString,
		logger:   deps.Logger,
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create opens and starts a session for a page load.
func (r *Registry) Create(ctx context.Context, page Page) (*Session, error) {
	s := New(r.newID(), page, r.deps)

	r.mu.Lock()
	if len(r.sessions) >= r.max {
		r.mu.Unlock()
		return nil, dErrors.New(dErrors.CodeUnavailable, "too many live sessions")
	}
	if _, exists := r.sessions[s.ID]; exists {
		r.mu.Unlock()
		return nil, dErrors.New(dErrors.CodeConflict, "session id already in use")
	}
	r.sessions[s.ID] = s
	n := len(r.sessions)
	r.mu.Unlock()

	r.metrics.IncrementCreated()
	r.metrics.SetActive(n)

	s.Start(ctx)
	return s, nil
}

// Get returns a live session.
func (r *Registry) Get(_ context.Context, id string) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "session not found")
	}
	return s, nil
}

// Touch looks a session up and marks it as seen.
func (r *Registry) Touch(ctx context.Context, id string) (*Session, error) {
	s, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.Touch()
	return s, nil
}

// Remove unloads a session and forgets it.
func (r *Registry) Remove(ctx context.Context, id string) error {
	s, ok := r.detach(id)
	if !ok {
		return dErrors.New(dErrors.CodeNotFound, "session not found")
	}
	s.Unload(ctx)
	r.metrics.IncrementEnded(metrics.EndUnload)
	return nil
}

// Expire unloads every session not seen since cutoff and returns how many
// it removed.
func (r *Registry) Expire(ctx context.Context, cutoff time.Time) (int, error) {
	r.mu.RLock()
	var stale []string
	for id, s := range r.sessions {
		if s.LastSeen().Before(cutoff) {
			stale = append(stale, id)
		}
	}
	r.mu.RUnlock()

	removed := 0
	for _, id := range stale {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		s, ok := r.detach(id)
		if !ok {
			continue
		}
		s.Unload(ctx)
		r.metrics.IncrementEnded(metrics.EndExpired)
		removed++
	}
	return removed, nil
}

// Close unloads every live session.
func (r *Registry) Close(ctx context.Context) {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Unload(ctx)
		r.metrics.IncrementEnded(metrics.EndUnload)
	}
	r.metrics.SetActive(0)
	r.logger.InfoContext(ctx, "page sessions closed", "count", len(sessions))
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *Registry) detach(id string) (*Session, bool) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	n := len(r.sessions)
	r.mu.Unlock()
	if ok {
		r.metrics.SetActive(n)
	}
	return s, ok
}
