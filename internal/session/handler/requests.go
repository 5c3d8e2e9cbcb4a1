package handler

import (
	"math"
	"net/url"
	"strings"

	"pawty/internal/session"
	tmodels "pawty/internal/telemetry/models"
	"pawty/internal/trackers/activity"
	"pawty/internal/trackers/scroll"
	dErrors "pawty/pkg/domain-errors"
)

// CreateSessionRequest describes a page load.
type CreateSessionRequest struct {
	Path  string `json:"path"`
	Title string `json:"title"`
	Query string `json:"query"`

	query url.Values
}

func (r *CreateSessionRequest) Normalize() {
	if r == nil {
		return
	}
	r.Path = strings.TrimSpace(r.Path)
	r.Title = strings.TrimSpace(r.Title)
	r.Query = strings.TrimPrefix(strings.TrimSpace(r.Query), "?")
}

func (r *CreateSessionRequest) Validate() error {
	if r == nil || r.Path == "" {
		return dErrors.New(dErrors.CodeValidation, "path is required")
	}
	if !strings.HasPrefix(r.Path, "/") {
		return dErrors.New(dErrors.CodeValidation, "path must start with /")
	}
	q, err := url.ParseQuery(r.Query)
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "query is not a valid query string")
	}
	r.query = q
	return nil
}

// Page builds the page description. userAgent and clientID come from the
// request, never from the body.
func (r *CreateSessionRequest) Page(userAgent, clientID string) session.Page {
	return session.Page{
		Path:      r.Path,
		Title:     r.Title,
		Query:     r.query,
		UserAgent: userAgent,
		ClientID:  clientID,
	}
}

type ActivityRequest struct {
	Signal string `json:"signal"`
}

func (r *ActivityRequest) Normalize() {
	if r == nil {
		return
	}
	r.Signal = strings.ToLower(strings.TrimSpace(r.Signal))
}

func (r *ActivityRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "signal is required")
	}
	_, err := activity.ParseSignal(r.Signal)
	return err
}

type ScrollRequest struct {
	ScrollY        float64 `json:"scroll_y"`
	ScrollHeight   float64 `json:"scroll_height"`
	ViewportHeight float64 `json:"viewport_height"`
}

func (r *ScrollRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "scroll position is required")
	}
	for _, v := range []float64{r.ScrollY, r.ScrollHeight, r.ViewportHeight} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return dErrors.New(dErrors.CodeValidation, "scroll position must be finite")
		}
	}
	if r.ScrollHeight < 0 || r.ViewportHeight < 0 {
		return dErrors.New(dErrors.CodeValidation, "heights must not be negative")
	}
	return nil
}

func (r *ScrollRequest) Position() scroll.Position {
	return scroll.Position{ScrollY: r.ScrollY, ScrollHeight: r.ScrollHeight, ViewportHeight: r.ViewportHeight}
}

// Video playback actions.
const (
	VideoPlay     = "play"
	VideoProgress = "progress"
	VideoEnded    = "ended"
)

type VideoRequest struct {
	Component   string  `json:"component"`
	Action      string  `json:"action"`
	CurrentTime float64 `json:"current_time"`
	Duration    float64 `json:"duration"`
}

func (r *VideoRequest) Normalize() {
	if r == nil {
		return
	}
	r.Component = strings.TrimSpace(r.Component)
	r.Action = strings.ToLower(strings.TrimSpace(r.Action))
}

func (r *VideoRequest) Validate() error {
	if r == nil || r.Component == "" {
		return dErrors.New(dErrors.CodeValidation, "component is required")
	}
	switch r.Action {
	case VideoPlay, VideoProgress, VideoEnded:
		return nil
	default:
		return dErrors.New(dErrors.CodeValidation, "action must be one of play, progress, ended")
	}
}

type ShortcutRequest struct {
	Key string `json:"key"`
}

func (r *ShortcutRequest) Validate() error {
	if r == nil || strings.TrimSpace(r.Key) == "" {
		return dErrors.New(dErrors.CodeValidation, "key is required")
	}
	return nil
}

type EmitRequest struct {
	Name   string         `json:"name"`
	Params tmodels.Params `json:"params"`
}

func (r *EmitRequest) Normalize() {
	if r == nil {
		return
	}
	r.Name = strings.TrimSpace(r.Name)
}

func (r *EmitRequest) Validate() error {
	if r == nil || r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if len(r.Name) > 40 {
		return dErrors.New(dErrors.CodeValidation, "name must be at most 40 characters")
	}
	return nil
}
