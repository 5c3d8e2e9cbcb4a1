// Package datalayer is the host-side event queue that the gateway pushes
// into and the relay drains, mirroring a tag manager's data layer.
package datalayer

import (
	"sync"
	"time"

	"pawty/internal/telemetry/metrics"
	"pawty/internal/telemetry/models"
	dErrors "pawty/pkg/domain-errors"
	"pawty/pkg/platform/clock"
)

// DefaultCapacity bounds the number of unconsumed records.
const DefaultCapacity = 10000

// ErrQueueFull is returned by Push once Capacity records are waiting and the
// queue was not built WithDropOldest.
var ErrQueueFull = dErrors.New(dErrors.CodeUnavailable, "data layer queue full")

// Entry is one queued record with its position in the queue.
type Entry struct {
	Offset   uint64
	Record   map[string]any
	PushedAt time.Time
}

// Option configures the Queue.
type Option func(*Queue)

// WithCapacity bounds the unconsumed backlog.
func WithCapacity(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.capacity = n
		}
	}
}

// WithDropOldest evicts the oldest unconsumed record when a push would
// exceed capacity, so the newest records always land. Use it when nothing
// acks the queue.
func WithDropOldest() Option {
	return func(q *Queue) {
		q.dropOldest = true
	}
}

// WithClock stamps PushedAt from c.
func WithClock(c clock.Clock) Option {
	return func(q *Queue) {
		if c != nil {
			q.clock = c
		}
	}
}

// WithMetrics reports queue depth.
func WithMetrics(m *metrics.Metrics) Option {
	return func(q *Queue) {
		q.metrics = m
	}
}

// Queue is an append-only record queue. Consumers read with Since and
// release what they delivered with Ack; nothing is ever reordered.
type Queue struct {
	mu         sync.Mutex
	entries    []Entry
	next       uint64
	capacity   int
	dropOldest bool
	evicted    uint64
	clock      clock.Clock
	metrics    *metrics.Metrics
}

// NewQueue returns an empty queue.
func NewQueue(opts ...Option) *Queue {
	q := &Queue{next: 1, capacity: DefaultCapacity, clock: clock.Real()}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Push appends the event in its flattened {event: name, ...params} form.
func (q *Queue) Push(event models.Event) error {
	return q.Append(event.Record())
}

// Append queues a raw record. Callers must not mutate record afterwards.
func (q *Queue) Append(record map[string]any) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.entries) >= q.capacity {
		if !q.dropOldest {
			return ErrQueueFull
		}
		over := len(q.entries) - q.capacity + 1
		q.entries = append(q.entries[:0:0], q.entries[over:]...)
		q.evicted += uint64(over)
		if q.metrics != nil {
			for i := 0; i < over; i++ {
				q.metrics.IncQueueEvictions()
			}
		}
	}
	q.entries = append(q.entries, Entry{Offset: q.next, Record: record, PushedAt: q.clock.Now()})
	q.next++
	q.reportDepthLocked()
	return nil
}

// Since returns up to limit entries with an offset greater than after,
// oldest first. A limit <= 0 returns everything.
func (q *Queue) Since(after uint64, limit int) []Entry {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []Entry
	for _, e := range q.entries {
		if e.Offset <= after {
			continue
		}
		out = append(out, copyEntry(e))
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// Ack releases every entry up to and including offset.
func (q *Queue) Ack(offset uint64) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
	for n < len(q.entries) && q.entries[n].Offset <= offset {
		n++
	}
	q.entries = append(q.entries[:0:0], q.entries[n:]...)
	q.reportDepthLocked()
	return n
}

// Len reports the number of unconsumed entries.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Evicted reports how many records WithDropOldest has discarded.
func (q *Queue) Evicted() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.evicted
}

// Records returns the unconsumed records, oldest first.
func (q *Queue) Records() []map[string]any {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]map[string]any, 0, len(q.entries))
	for _, e := range q.entries {
		out = append(out, copyEntry(e).Record)
	}
	return out
}

func (q *Queue) reportDepthLocked() {
	if q.metrics != nil {
		q.metrics.SetQueueDepth(len(q.entries))
	}
}

func copyEntry(e Entry) Entry {
	rec := make(map[string]any, len(e.Record))
	for k, v := range e.Record {
		rec[k] = v
	}
	e.Record = rec
	return e
}
