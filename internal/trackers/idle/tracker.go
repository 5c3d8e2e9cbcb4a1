// Package idle shows a nudge after a stretch of no user activity.
package idle

import (
	"sync"
	"time"

	tmodels "pawty/internal/telemetry/models"
	"pawty/internal/trackers/activity"
	"pawty/pkg/platform/clock"
	"pawty/pkg/platform/debounce"
)

const (
	ShownEvent = "corgi_nudge_shown"
	ClickEvent = "corgi_nudge_click"

	DefaultTimeout = 20 * time.Second
	DefaultWindow  = 100 * time.Millisecond
)

type Emitter interface {
	Emit(name string, params tmodels.Params)
}

// Source delivers activity signals.
type Source interface {
	Listen(fn activity.Listener) (unlisten func())
}

type Option func(*Tracker)

func WithClock(c clock.Clock) Option {
	return func(t *Tracker) {
		if c != nil {
			t.clock = c
		}
	}
}

// WithTimeout sets how long the page must be quiet before the nudge shows.
func WithTimeout(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.timeout = d
		}
	}
}

// WithWindow sets the activity debounce window.
func WithWindow(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.window = d
		}
	}
}

// WithVisibilityHook is called with the new visibility whenever the nudge
// appears or disappears.
func WithVisibilityHook(fn func(visible bool)) Option {
	return func(t *Tracker) {
		t.onVisible = fn
	}
}

// Tracker runs the idle countdown. Once the nudge is visible no further
// countdown runs until activity or an acknowledgment hides it.
type Tracker struct {
	source    Source
	emitter   Emitter
	clock     clock.Clock
	timeout   time.Duration
	window    time.Duration
	onVisible func(bool)

	mu       sync.Mutex
	debounce *debounce.Debouncer
	unlisten func()
	timer    *clock.Timer
	gen      uint64
	visible  bool
	started  bool
	stopped  bool
}

func New(source Source, emitter Emitter, opts ...Option) *Tracker {
	t := &Tracker{
		source:  source,
		emitter: emitter,
		clock:   clock.Real(),
		timeout: DefaultTimeout,
		window:  DefaultWindow,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start subscribes to activity and arms the first countdown. Calling it
// again is a no-op.
func (t *Tracker) Start() {
	t.mu.Lock()
	if t.started || t.stopped {
		t.mu.Unlock()
		return
	}
	t.started = true
	t.debounce = debounce.New(t.clock, t.window, t.onActivity)
	t.armLocked()
	t.mu.Unlock()

	unlisten := t.source.Listen(func(activity.Signal) { t.debounce.Call() })

	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		unlisten()
		return
	}
	t.unlisten = unlisten
	t.mu.Unlock()
}

// armLocked replaces any running countdown with a fresh one.
func (t *Tracker) armLocked() {
	if t.timer != nil {
		t.timer.Stop()
	}
	t.gen++
	gen := t.gen
	t.timer = t.clock.AfterFunc(t.timeout, func() { t.expire(gen) })
}

func (t *Tracker) expire(gen uint64) {
	t.mu.Lock()
	if t.stopped || gen != t.gen || t.visible {
		t.mu.Unlock()
		return
	}
	t.timer = nil
	t.visible = true
	t.mu.Unlock()

	t.notify(true)
	t.emitter.Emit(ShownEvent, tmodels.Params{
		"idle_duration": t.timeout.Milliseconds(),
		"timestamp":     t.clock.Now().UnixMilli(),
	})
}

func (t *Tracker) onActivity() {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	wasVisible := t.visible
	t.visible = false
	t.armLocked()
	t.mu.Unlock()

	if wasVisible {
		t.notify(false)
	}
}

// Acknowledge records a click on the nudge. It hides the nudge and restarts
// the countdown, and reports false when no nudge was showing.
func (t *Tracker) Acknowledge() bool {
	t.mu.Lock()
	if t.stopped || !t.visible {
		t.mu.Unlock()
		return false
	}
	t.visible = false
	t.armLocked()
	t.mu.Unlock()

	t.notify(false)
	t.emitter.Emit(ClickEvent, tmodels.Params{
		"timestamp": t.clock.Now().UnixMilli(),
	})
	return true
}

// Visible reports whether the nudge is showing.
func (t *Tracker) Visible() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.visible
}

// Stop unsubscribes from activity and cancels every pending timer.
func (t *Tracker) Stop() {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	t.stopped = true
	t.gen++
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	unlisten, deb := t.unlisten, t.debounce
	t.unlisten = nil
	t.mu.Unlock()

	if unlisten != nil {
		unlisten()
	}
	if deb != nil {
		deb.Cancel()
	}
}

func (t *Tracker) notify(visible bool) {
	if t.onVisible != nil {
		t.onVisible(visible)
	}
}
