package clock

import (
	"sort"
	"sync"
	"time"
)

// FakeClock only moves when Advance is called. AfterFunc callbacks run
// synchronously inside Advance, in deadline order, without the clock's lock
// held, so a callback may schedule further timers.
type FakeClock struct {
	mu      sync.Mutex
	now     time.Time
	pending []*fakeTimer
	seq     uint64
}

type fakeTimer struct {
	deadline time.Time
	seq      uint64
	fn       func()
	ch       chan time.Time
	interval time.Duration
	stopped  bool
	fired    bool
}

// NewFake returns a FakeClock set to start.
func NewFake(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) AfterFunc(d time.Duration, f func()) *Timer {
	if d <= 0 {
		f()
		return &Timer{
			stop:  func() bool { return false },
			reset: func(time.Duration) bool { return false },
		}
	}

	c.mu.Lock()
	t := c.scheduleLocked(d, f, nil, 0)
	c.mu.Unlock()

	return &Timer{
		stop: func() bool {
			c.mu.Lock()
			defer c.mu.Unlock()
			if t.stopped || t.fired {
				return false
			}
			t.stopped = true
			return true
		},
		reset: func(d time.Duration) bool {
			c.mu.Lock()
			defer c.mu.Unlock()
			active := !t.stopped && !t.fired
			t.stopped, t.fired = false, false
			c.seq++
			t.seq = c.seq
			t.deadline = c.now.Add(d)
			if !active {
				c.pending = append(c.pending, t)
			}
			return active
		},
	}
}

func (c *FakeClock) NewTicker(d time.Duration) *Ticker {
	if d <= 0 {
		panic("clock: non-positive interval for NewTicker")
	}
	ch := make(chan time.Time, 1)

	c.mu.Lock()
	t := c.scheduleLocked(d, nil, ch, d)
	c.mu.Unlock()

	return &Ticker{
		C: ch,
		stop: func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			t.stopped = true
		},
	}
}

func (c *FakeClock) scheduleLocked(d time.Duration, fn func(), ch chan time.Time, interval time.Duration) *fakeTimer {
	c.seq++
	t := &fakeTimer{
		deadline: c.now.Add(d),
		seq:      c.seq,
		fn:       fn,
		ch:       ch,
		interval: interval,
	}
	c.pending = append(c.pending, t)
	return t
}

// Advance moves the clock forward by d, firing every timer whose deadline
// falls inside the window. Each timer fires with the clock set to its own
// deadline, so callbacks that read Now or schedule follow-up timers observe
// the time they were due rather than the end of the window.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		t := c.nextDue(target)
		if t == nil {
			break
		}
		if t.fn != nil {
			t.fn()
			continue
		}
		select {
		case t.ch <- t.deadline:
		default:
		}
	}

	c.mu.Lock()
	c.now = target
	c.mu.Unlock()
}

// nextDue pops the earliest live timer due at or before target and moves
// the clock to its deadline. Tickers are rescheduled instead of removed.
func (c *FakeClock) nextDue(target time.Time) *fakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()

	live := c.pending[:0]
	for _, t := range c.pending {
		if !t.stopped && !t.fired {
			live = append(live, t)
		}
	}
	c.pending = live

	sort.SliceStable(c.pending, func(i, j int) bool {
		if c.pending[i].deadline.Equal(c.pending[j].deadline) {
			return c.pending[i].seq < c.pending[j].seq
		}
		return c.pending[i].deadline.Before(c.pending[j].deadline)
	})
	if len(c.pending) == 0 || c.pending[0].deadline.After(target) {
		return nil
	}

	t := c.pending[0]
	if t.deadline.After(c.now) {
		c.now = t.deadline
	}
	if t.interval > 0 {
		fired := *t
		t.deadline = t.deadline.Add(t.interval)
		c.seq++
		t.seq = c.seq
		return &fired
	}
	t.fired = true
	c.pending = c.pending[1:]
	return t
}

// Pending returns the number of timers and tickers still scheduled.
func (c *FakeClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.pending {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}
