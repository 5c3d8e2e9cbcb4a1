// Package scroll reports how far down the page a visitor has scrolled, as a
// fixed ladder of milestones recorded at most once per page lifetime.
package scroll

import (
	"math"
	"slices"
	"sync"
	"time"

	tmodels "pawty/internal/telemetry/models"
	"pawty/pkg/platform/clock"
	"pawty/pkg/platform/debounce"
)

const (
	EventName = "scroll_depth"

	// DefaultWindow is the quiet period before a scroll position is evaluated.
	DefaultWindow = 100 * time.Millisecond
)

// Milestones are checked in this order on every evaluation.
var Milestones = []int{25, 50, 75, 100}

// Position is a viewport snapshot in CSS pixels.
type Position struct {
	ScrollY        float64 `json:"scroll_y"`
	ScrollHeight   float64 `json:"scroll_height"`
	ViewportHeight float64 `json:"viewport_height"`
}

// Percent returns how far through the scrollable range the position is,
// clamped to [0,100]. ok is false when the document cannot scroll.
func (p Position) Percent() (percent int, ok bool) {
	scrollable := p.ScrollHeight - p.ViewportHeight
	if scrollable <= 0 {
		return 0, false
	}
	pct := math.Round(p.ScrollY / scrollable * 100)
	return int(min(max(pct, 0), 100)), true
}

// Emitter receives milestone events.
type Emitter interface {
	Emit(name string, params tmodels.Params)
}

type Option func(*Tracker)

func WithClock(c clock.Clock) Option {
	return func(t *Tracker) {
		if c != nil {
			t.clock = c
		}
	}
}

// WithWindow overrides the debounce window.
func WithWindow(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.window = d
		}
	}
}

// Tracker owns the milestone set for one page lifetime.
type Tracker struct {
	emitter  Emitter
	clock    clock.Clock
	window   time.Duration
	debounce *debounce.Debouncer

	mu       sync.Mutex
	last     Position
	reached  map[int]bool
	observed bool
	stopped  bool
}

func New(emitter Emitter, opts ...Option) *Tracker {
	t := &Tracker{
		emitter: emitter,
		clock:   clock.Real(),
		window:  DefaultWindow,
		reached: make(map[int]bool, len(Milestones)),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.debounce = debounce.New(t.clock, t.window, t.evaluate)
	return t
}

// Observe records the latest position; it is evaluated once scrolling has
// been quiet for the debounce window.
func (t *Tracker) Observe(p Position) {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	t.last = p
	t.observed = true
	t.mu.Unlock()
	t.debounce.Call()
}

func (t *Tracker) evaluate() {
	t.mu.Lock()
	if t.stopped || !t.observed {
		t.mu.Unlock()
		return
	}
	percent, ok := t.last.Percent()
	if !ok {
		t.mu.Unlock()
		return
	}
	var hit []int
	for _, m := range Milestones {
		if percent >= m && !t.reached[m] {
			t.reached[m] = true
			hit = append(hit, m)
		}
	}
	t.mu.Unlock()

	for _, m := range hit {
		t.emitter.Emit(EventName, tmodels.Params{
			"section":   "page",
			"percent":   m,
			"timestamp": t.clock.Now().UnixMilli(),
		})
	}
}

// Milestones returns the recorded milestones in ascending order.
func (t *Tracker) Milestones() []int {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]int, 0, len(t.reached))
	for m := range t.reached {
		out = append(out, m)
	}
	slices.Sort(out)
	return out
}

// Reset forgets recorded milestones. Only call it when a new page lifetime
// starts on the same tracker.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	clear(t.reached)
	t.observed = false
}

// Stop drops any pending evaluation. The tracker ignores later positions.
func (t *Tracker) Stop() {
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
	t.debounce.Cancel()
}
