// Package engagement periodically reports how long a page has been open and
// how long ago the visitor last interacted with it.
package engagement

import (
	"math"
	"sync"
	"time"

	tmodels "pawty/internal/telemetry/models"
	"pawty/internal/trackers/activity"
	"pawty/pkg/platform/clock"
)

const (
	EventName = "engagement_time"

	DefaultInterval = 30 * time.Second
)

type Emitter interface {
	Emit(name string, params tmodels.Params)
}

type Source interface {
	Listen(fn activity.Listener) (unlisten func())
}

// Session is the bookkeeping window from page load to teardown.
type Session struct {
	StartedAt    time.Time
	LastActiveAt time.Time
}

// TotalSeconds is the rounded time since the session started.
func (s Session) TotalSeconds(now time.Time) int64 {
	return roundSeconds(now.Sub(s.StartedAt))
}

// ActiveSeconds is the rounded time from start to the latest activity. It
// does not subtract idle gaps.
func (s Session) ActiveSeconds() int64 {
	return roundSeconds(s.LastActiveAt.Sub(s.StartedAt))
}

func roundSeconds(d time.Duration) int64 {
	return int64(math.Round(float64(d.Milliseconds()) / 1000))
}

type Option func(*Tracker)

func WithClock(c clock.Clock) Option {
	return func(t *Tracker) {
		if c != nil {
			t.clock = c
		}
	}
}

// WithInterval sets the reporting period.
func WithInterval(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.interval = d
		}
	}
}

// Tracker reports engagement_time every interval and once more on Unload.
type Tracker struct {
	source   Source
	emitter  Emitter
	clock    clock.Clock
	interval time.Duration

	mu       sync.Mutex
	session  Session
	unlisten func()
	timer    *clock.Timer
	gen      uint64
	started  bool
	stopped  bool
}

func New(source Source, emitter Emitter, opts ...Option) *Tracker {
	t := &Tracker{
		source:   source,
		emitter:  emitter,
		clock:    clock.Real(),
		interval: DefaultInterval,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start opens the session at the current time and schedules the first
// report.
func (t *Tracker) Start() {
	t.mu.Lock()
	if t.started || t.stopped {
		t.mu.Unlock()
		return
	}
	t.started = true
	now := t.clock.Now()
	t.session = Session{StartedAt: now, LastActiveAt: now}
	t.scheduleLocked()
	t.mu.Unlock()

	unlisten := t.source.Listen(func(activity.Signal) { t.touch() })

	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		unlisten()
		return
	}
	t.unlisten = unlisten
	t.mu.Unlock()
}

func (t *Tracker) touch() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	t.session.LastActiveAt = t.clock.Now()
}

func (t *Tracker) scheduleLocked() {
	t.gen++
	gen := t.gen
	t.timer = t.clock.AfterFunc(t.interval, func() { t.tick(gen) })
}

func (t *Tracker) tick(gen uint64) {
	t.mu.Lock()
	if t.stopped || gen != t.gen {
		t.mu.Unlock()
		return
	}
	params := t.reportLocked()
	t.scheduleLocked()
	t.mu.Unlock()

	t.emitter.Emit(EventName, params)
}

func (t *Tracker) reportLocked() tmodels.Params {
	return tmodels.Params{
		"total_time_seconds":  t.session.TotalSeconds(t.clock.Now()),
		"active_time_seconds": t.session.ActiveSeconds(),
	}
}

// Snapshot returns the current session window.
func (t *Tracker) Snapshot() Session {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.session
}

// Unload emits the final report and stops the tracker. Only the first call
// reports; a tracker that never started reports nothing.
func (t *Tracker) Unload() {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	var params tmodels.Params
	if t.started {
		params = t.reportLocked()
	}
	unlisten := t.stopLocked()
	t.mu.Unlock()

	if unlisten != nil {
		unlisten()
	}
	if params != nil {
		t.emitter.Emit(EventName, params)
	}
}

// Stop cancels the reporting timer and unsubscribes without a final report.
func (t *Tracker) Stop() {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	unlisten := t.stopLocked()
	t.mu.Unlock()

	if unlisten != nil {
		unlisten()
	}
}

// stopLocked marks the tracker stopped and returns the pending unsubscribe.
func (t *Tracker) stopLocked() func() {
	t.stopped = true
	t.gen++
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	unlisten := t.unlisten
	t.unlisten = nil
	return unlisten
}
