// Package recorder provides an in-memory event emitter for tests.
package recorder

import (
	"sync"

	tmodels "pawty/internal/telemetry/models"
)

// Call is one recorded Emit.
type Call struct {
	Name   string
	Params tmodels.Params
}

// Recorder satisfies the Emit(name, params) interfaces used across the
// trackers and the consent service.
type Recorder struct {
	mu    sync.Mutex
	calls []Call
}

func New() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Emit(name string, params tmodels.Params) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make(tmodels.Params, len(params))
	for k, v := range params {
		cp[k] = v
	}
	r.calls = append(r.calls, Call{Name: name, Params: cp})
}

// Calls returns every recorded emit in order.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

// Named returns the recorded emits called name.
func (r *Recorder) Named(name string) []Call {
	var out []Call
	for _, c := range r.Calls() {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// Names returns the event names in emit order.
func (r *Recorder) Names() []string {
	calls := r.Calls()
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.Name
	}
	return out
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}
