package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// SinkEventKey is the key carrying the event name in a sink record.
const SinkEventKey = "event"

// Params carries scalar event parameters: string, bool, integers, floats or nil.
type Params map[string]any

// Event is one emitted telemetry signal. Treat it as immutable; use Clone
// before handing params to code that may mutate them.
type Event struct {
	Name      string `json:"name"`
	Params    Params `json:"params"`
	Timestamp int64  `json:"timestamp"`
}

// NewEvent normalises params into a fresh map and stamps the event.
func NewEvent(name string, params Params, at time.Time) Event {
	return Event{
		Name:      strings.TrimSpace(name),
		Params:    Normalize(params),
		Timestamp: at.UnixMilli(),
	}
}

// Time returns the emission time.
func (e Event) Time() time.Time {
	return time.UnixMilli(e.Timestamp)
}

// Clone returns a copy whose params map is not shared with e.
func (e Event) Clone() Event {
	out := e
	out.Params = make(Params, len(e.Params))
	for k, v := range e.Params {
		out.Params[k] = v
	}
	return out
}

// Record flattens the event into the sink shape {event: name, ...params}.
// The event name wins over a parameter that is itself called "event".
func (e Event) Record() map[string]any {
	rec := make(map[string]any, len(e.Params)+1)
	for k, v := range e.Params {
		rec[k] = v
	}
	rec[SinkEventKey] = e.Name
	return rec
}

// Keys returns the param keys in lexical order.
func (e Event) Keys() []string {
	keys := make([]string, 0, len(e.Params))
	for k := range e.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Normalize copies params, keeping scalars as-is and replacing anything else
// with its JSON text. Empty keys are dropped.
func Normalize(params Params) Params {
	out := make(Params, len(params))
	for k, v := range params {
		if k == "" {
			continue
		}
		out[k] = scalar(v)
	}
	return out
}

func scalar(v any) any {
	switch t := v.(type) {
	case nil, string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return t
	case time.Time:
		return t.UnixMilli()
	case time.Duration:
		return t.Milliseconds()
	case fmt.Stringer:
		return t.String()
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}

// FormatValue renders a param value for display.
func FormatValue(v any) string {
	if v == nil {
		return "null"
	}
	return fmt.Sprint(v)
}
