// Package debounce coalesces bursts of calls into one trailing call after a
// quiet window.
package debounce

import (
	"sync"
	"time"

	"pawty/pkg/platform/clock"
)

// Debouncer runs fn once no Call has arrived for the configured window.
// The zero value is not usable; construct with New.
type Debouncer struct {
	clock clock.Clock
	wait  time.Duration
	fn    func()

	mu      sync.Mutex
	timer   *clock.Timer
	gen     uint64
	stopped bool
}

// New returns a Debouncer around fn.
func New(c clock.Clock, wait time.Duration, fn func()) *Debouncer {
	return &Debouncer{clock: c, wait: wait, fn: fn}
}

// Call (re)starts the quiet window.
func (d *Debouncer) Call() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = d.clock.AfterFunc(d.wait, func() { d.fire(gen) })
}

// fire ignores timers superseded by a later Call that raced the callback.
func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if d.stopped || gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.mu.Unlock()
	d.fn()
}

// Flush runs a pending call immediately. It reports whether one was pending.
func (d *Debouncer) Flush() bool {
	d.mu.Lock()
	if d.timer == nil || d.stopped || !d.timer.Stop() {
		d.mu.Unlock()
		return false
	}
	d.timer = nil
	d.gen++
	d.mu.Unlock()
	d.fn()
	return true
}

// Cancel drops any pending call and turns the debouncer off for good.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
