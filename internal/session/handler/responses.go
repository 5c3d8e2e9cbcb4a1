package handler

import (
	"time"

	"pawty/internal/session"
	"pawty/internal/telemetry/gateway"
	"pawty/internal/telemetry/models"
)

type SessionResponse struct {
	ID           string    `json:"session_id"`
	ConsentState string    `json:"consent_state"`
	DebugOpen    bool      `json:"debug_open"`
	NudgeVisible bool      `json:"nudge_visible"`
	Milestones   []int     `json:"milestones"`
	CreatedAt    time.Time `json:"created_at"`
}

func toSessionResponse(s *session.Session) SessionResponse {
	milestones := s.Milestones()
	if milestones == nil {
		milestones = []int{}
	}
	return SessionResponse{
		ID:           s.ID,
		ConsentState: string(s.ConsentState()),
		DebugOpen:    s.Overlay().IsOpen(),
		NudgeVisible: s.NudgeVisible(),
		Milestones:   milestones,
		CreatedAt:    s.CreatedAt,
	}
}

type NudgeResponse struct {
	Acknowledged bool `json:"acknowledged"`
	Visible      bool `json:"visible"`
}

type ShortcutResponse struct {
	Handled bool `json:"handled"`
}

type SelfTestResponse struct {
	SinkAttached bool          `json:"sink_attached"`
	Subscribers  int           `json:"subscribers"`
	Event        EventResponse `json:"event"`
}

type EventResponse struct {
	Name      string        `json:"name"`
	Params    models.Params `json:"params"`
	Timestamp int64         `json:"timestamp"`
}

func toSelfTestResponse(r gateway.SelfTestReport) SelfTestResponse {
	return SelfTestResponse{
		SinkAttached: r.SinkAttached,
		Subscribers:  r.Subscribers,
		Event: EventResponse{
			Name:      r.Event.Name,
			Params:    r.Event.Params,
			Timestamp: r.Event.Timestamp,
		},
	}
}
