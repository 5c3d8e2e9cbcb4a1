// Package video reports playback of an embedded video: start, quarter
// progress marks and completion.
package video

import (
	"math"
	"sync"

	tmodels "pawty/internal/telemetry/models"
	dErrors "pawty/pkg/domain-errors"
)

const (
	StartEvent    = "video_start"
	ProgressEvent = "video_progress"
	CompleteEvent = "video_complete"
)

// Thresholds are the progress marks reported once each.
var Thresholds = []int{25, 50, 75}

type Emitter interface {
	Emit(name string, params tmodels.Params)
}

// Tracker follows one video component on the page.
type Tracker struct {
	emitter   Emitter
	component string

	mu      sync.Mutex
	reached map[int]bool
	stopped bool
}

func New(emitter Emitter, component string) *Tracker {
	return &Tracker{
		emitter:   emitter,
		component: component,
		reached:   make(map[int]bool, len(Thresholds)),
	}
}

func (t *Tracker) Component() string { return t.component }

// Play reports a playback start. Every start is reported, including
// replays.
func (t *Tracker) Play() {
	if t.isStopped() {
		return
	}
	t.emitter.Emit(StartEvent, tmodels.Params{"component": t.component})
}

// Progress takes the playhead and the video length in seconds and reports
// any newly crossed threshold.
func (t *Tracker) Progress(current, duration float64) error {
	if duration <= 0 || math.IsNaN(duration) || math.IsInf(duration, 0) || current < 0 {
		return dErrors.New(dErrors.CodeBadRequest, "video progress needs a positive duration and a non-negative position")
	}
	percent := int(math.Round(current / duration * 100))

	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return nil
	}
	var hit []int
	for _, th := range Thresholds {
		if percent >= th && !t.reached[th] {
			t.reached[th] = true
			hit = append(hit, th)
		}
	}
	t.mu.Unlock()

	for _, th := range hit {
		t.emitter.Emit(ProgressEvent, tmodels.Params{
			"component": t.component,
			"percent":   th,
			"duration":  duration,
		})
	}
	return nil
}

// Ended reports completion.
func (t *Tracker) Ended() {
	if t.isStopped() {
		return
	}
	t.emitter.Emit(CompleteEvent, tmodels.Params{"component": t.component})
}

func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
}

func (t *Tracker) isStopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}
