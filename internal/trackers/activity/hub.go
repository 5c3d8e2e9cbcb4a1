// Package activity fans user-activity signals out to the trackers that
// care about them.
package activity

import (
	"log/slog"
	"sync"

	dErrors "pawty/pkg/domain-errors"
)

// Signal is one kind of user activity.
type Signal string

const (
	PointerDown Signal = "pointer_down"
	PointerMove Signal = "pointer_move"
	KeyPress    Signal = "key_press"
	Scroll      Signal = "scroll"
	TouchStart  Signal = "touch_start"
)

// Signals lists every qualifying activity signal.
var Signals = []Signal{PointerDown, PointerMove, KeyPress, Scroll, TouchStart}

func (s Signal) IsValid() bool {
	switch s {
	case PointerDown, PointerMove, KeyPress, Scroll, TouchStart:
		return true
	}
	return false
}

// ParseSignal validates a signal received from a client.
func ParseSignal(raw string) (Signal, error) {
	s := Signal(raw)
	if !s.IsValid() {
		return "", dErrors.New(dErrors.CodeBadRequest, "unknown activity signal: "+raw)
	}
	return s, nil
}

// Listener receives signals synchronously.
type Listener func(Signal)

type listener struct {
	id uint64
	fn Listener
}

// Hub delivers each signal to every listener in registration order.
type Hub struct {
	mu        sync.RWMutex
	listeners []listener
	nextID    uint64
	logger    *slog.Logger
}

// NewHub returns an empty hub. A nil logger falls back to slog.Default.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{logger: logger}
}

// Listen registers fn until the returned function is called.
func (h *Hub) Listen(fn Listener) (unlisten func()) {
	h.mu.Lock()
	h.nextID++
	id := h.nextID
	h.listeners = append(h.listeners, listener{id: id, fn: fn})
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			for i, l := range h.listeners {
				if l.id == id {
					h.listeners = append(h.listeners[:i:i], h.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

// Signal delivers s to the current listeners. A panicking listener is
// logged and does not stop delivery to the rest.
func (h *Hub) Signal(s Signal) {
	h.mu.RLock()
	snapshot := make([]listener, len(h.listeners))
	copy(snapshot, h.listeners)
	h.mu.RUnlock()

	for _, l := range snapshot {
		h.deliver(l, s)
	}
}

func (h *Hub) deliver(l listener, s Signal) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("activity listener panicked", "signal", string(s), "panic", r)
		}
	}()
	l.fn(s)
}

// Listeners reports how many listeners are registered.
func (h *Hub) Listeners() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.listeners)
}
