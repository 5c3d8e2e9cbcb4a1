package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"pawty/internal/session"
	"pawty/internal/trackers/activity"
	"pawty/pkg/platform/httputil"
	"pawty/pkg/requestcontext"
)

// Registry is the set of live page sessions.
type Registry interface {
	Create(ctx context.Context, page session.Page) (*session.Session, error)
	Touch(ctx context.Context, id string) (*session.Session, error)
	Remove(ctx context.Context, id string) error
}

type Option func(*Handler)

func WithTracer(t trace.Tracer) Option {
	return func(h *Handler) {
		if t != nil {
			h.tracer = t
		}
	}
}

type Handler struct {
	registry Registry
	logger   *slog.Logger
	tracer   trace.Tracer
}

func New(registry Registry, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{registry: registry, logger: logger}
	for _, opt := range opts {
		opt(h)
	}
	if h.tracer == nil {
		h.tracer = otel.Tracer("pawty/session")
	}
	return h
}

// Register mounts the session routes on r, which is expected to sit at
// /v1/sessions. nested registers further per-session routes (consent, debug)
// under the same {sessionID} route.
func (h *Handler) Register(r chi.Router, nested ...func(chi.Router)) {
	r.Post("/", h.HandleCreate)
	r.Route("/{sessionID}", func(r chi.Router) {
		r.Get("/", h.HandleGet)
		r.Delete("/", h.HandleUnload)
		r.Post("/activity", h.HandleActivity)
		r.Post("/scroll", h.HandleScroll)
		r.Post("/nudge/ack", h.HandleNudgeAck)
		r.Post("/video", h.HandleVideo)
		r.Post("/shortcut", h.HandleShortcut)
		r.Post("/events", h.HandleEmit)
		r.Post("/self-test", h.HandleSelfTest)
		for _, register := range nested {
			register(r)
		}
	})
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	ctx := r.Context()
	s, err := h.registry.Touch(ctx, chi.URLParam(r, "sessionID"))
	if err != nil {
		h.logger.WarnContext(ctx, "session lookup failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return nil, false
	}
	return s, true
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "session.create")
	defer span.End()

	req, ok := httputil.DecodeAndPrepare[CreateSessionRequest](w, r, h.logger)
	if !ok {
		return
	}

	userAgent := requestcontext.UserAgent(ctx)
	if userAgent == "" {
		userAgent = r.UserAgent()
	}
	s, err := h.registry.Create(ctx, req.Page(userAgent, requestcontext.ClientID(ctx)))
	if err != nil {
		span.RecordError(err)
		h.logger.ErrorContext(ctx, "failed to create session",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	span.SetAttributes(
		attribute.String("session.id", s.ID),
		attribute.String("page.path", req.Path),
	)
	httputil.WriteJSON(w, http.StatusCreated, toSessionResponse(s))
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSessionResponse(s))
}

func (h *Handler) HandleUnload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.registry.Remove(ctx, chi.URLParam(r, "sessionID")); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleActivity(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[ActivityRequest](w, r, h.logger)
	if !ok {
		return
	}
	s.Activity(activity.Signal(req.Signal))
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) HandleScroll(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[ScrollRequest](w, r, h.logger)
	if !ok {
		return
	}
	s.Scroll(req.Position())
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) HandleNudgeAck(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	acked := s.AcknowledgeNudge()
	httputil.WriteJSON(w, http.StatusOK, NudgeResponse{Acknowledged: acked, Visible: s.NudgeVisible()})
}

func (h *Handler) HandleVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[VideoRequest](w, r, h.logger)
	if !ok {
		return
	}
	v, err := s.Video(req.Component)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	switch req.Action {
	case VideoPlay:
		v.Play()
	case VideoProgress:
		if err := v.Progress(req.CurrentTime, req.Duration); err != nil {
			h.logger.WarnContext(ctx, "rejected video progress",
				"request_id", requestcontext.RequestID(ctx),
				"component", req.Component,
				"error", err,
			)
			httputil.WriteError(w, err)
			return
		}
	case VideoEnded:
		v.Ended()
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) HandleShortcut(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[ShortcutRequest](w, r, h.logger)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ShortcutResponse{Handled: s.Shortcut(req.Key)})
}

// HandleEmit records a page-defined event such as a CTA click.
func (h *Handler) HandleEmit(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "session.emit")
	defer span.End()

	s, ok := h.session(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[EmitRequest](w, r, h.logger)
	if !ok {
		return
	}
	span.SetAttributes(
		attribute.String("session.id", s.ID),
		attribute.String("event.name", req.Name),
	)
	if err := s.Emit(req.Name, req.Params); err != nil {
		span.RecordError(err)
		h.logger.WarnContext(ctx, "rejected event", "error", err)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) HandleSelfTest(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSelfTestResponse(s.SelfTest()))
}
