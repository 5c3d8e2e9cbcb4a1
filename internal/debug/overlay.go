// Package debug keeps a short, newest-first log of the events a page session
// emits so they can be inspected while browsing.
package debug

import (
	"net/url"
	"sync"
	"time"

	"pawty/internal/telemetry/gateway"
	"pawty/internal/telemetry/models"
)

const (
	// DefaultCapacity is the number of events the log keeps.
	DefaultCapacity = 50

	// QueryFlag is the page query parameter that opens the overlay on load.
	QueryFlag = "debug"
)

// Subscribable is an event stream the overlay can tap.
type Subscribable interface {
	Subscribe(fn gateway.Subscriber) (unsubscribe func())
}

// Entry is one captured event.
type Entry struct {
	Event  models.Event
	Bucket models.Bucket
}

type Option func(*Overlay)

// WithCapacity bounds the log.
func WithCapacity(n int) Option {
	return func(o *Overlay) {
		if n > 0 {
			o.capacity = n
		}
	}
}

// WithLocation sets the zone timestamps are rendered in.
func WithLocation(loc *time.Location) Option {
	return func(o *Overlay) {
		if loc != nil {
			o.location = loc
		}
	}
}

// WithTheme replaces the rendering theme.
func WithTheme(t Theme) Option {
	return func(o *Overlay) {
		o.theme = t
	}
}

// Overlay captures events while mounted. Clearing the log never affects the
// stream it is mounted on.
type Overlay struct {
	capacity int
	location *time.Location
	theme    Theme

	mu          sync.Mutex
	entries     []Entry
	open        bool
	unsubscribe func()
}

func New(opts ...Option) *Overlay {
	o := &Overlay{
		capacity: DefaultCapacity,
		location: time.Local,
		theme:    DefaultTheme(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// IsDebugMode reports whether the page query asks for the overlay, which is
// the case only for debug=1.
func IsDebugMode(query url.Values) bool {
	return query.Get(QueryFlag) == "1"
}

// Mount starts capturing from src and opens the overlay when the page query
// asks for it. Mounting again moves the subscription to the new stream.
func (o *Overlay) Mount(src Subscribable, query url.Values) {
	o.Unmount()
	unsubscribe := src.Subscribe(o.capture)

	o.mu.Lock()
	o.unsubscribe = unsubscribe
	if IsDebugMode(query) {
		o.open = true
	}
	o.mu.Unlock()
}

// Unmount stops capturing. The log is kept.
func (o *Overlay) Unmount() {
	o.mu.Lock()
	unsubscribe := o.unsubscribe
	o.unsubscribe = nil
	o.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// Mounted reports whether the overlay is capturing.
func (o *Overlay) Mounted() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.unsubscribe != nil
}

func (o *Overlay) capture(event models.Event) {
	entry := Entry{Event: event.Clone(), Bucket: Bucket(event.Name)}

	o.mu.Lock()
	defer o.mu.Unlock()
	keep := min(len(o.entries), o.capacity-1)
	next := make([]Entry, 0, keep+1)
	next = append(next, entry)
	next = append(next, o.entries[:keep]...)
	o.entries = next
}

// Entries returns the captured events, newest first.
func (o *Overlay) Entries() []Entry {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]Entry, len(o.entries))
	for i, e := range o.entries {
		out[i] = Entry{Event: e.Event.Clone(), Bucket: e.Bucket}
	}
	return out
}

func (o *Overlay) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.entries)
}

// Clear empties the log.
func (o *Overlay) Clear() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.entries = nil
}

func (o *Overlay) Open() {
	o.setOpen(true)
}

func (o *Overlay) Close() {
	o.setOpen(false)
}

// Toggle flips the panel and returns the new state.
func (o *Overlay) Toggle() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.open = !o.open
	return o.open
}

func (o *Overlay) IsOpen() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.open
}

func (o *Overlay) setOpen(open bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.open = open
}

// Bucket returns the colour group of an event name.
func Bucket(name string) models.Bucket {
	return models.BucketOf(name)
}
