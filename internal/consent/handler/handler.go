package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"pawty/internal/consent/models"
	"pawty/internal/consent/service"
	"pawty/pkg/platform/httputil"
	"pawty/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service is the consent manager of one page session.
type Service interface {
	Status(ctx context.Context) service.Status
	Resolve(ctx context.Context, action models.Action) error
	Dismiss(ctx context.Context) error
	Reset(ctx context.Context) error
}

// Lookup finds the consent manager of a live page session. It returns a
// CodeNotFound domain error for unknown sessions.
type Lookup func(ctx context.Context, sessionID string) (Service, error)

// Handler serves the consent routes of a page session.
type Handler struct {
	lookup Lookup
	logger *slog.Logger
}

// New creates a new consent Handler.
func New(lookup Lookup, logger *slog.Logger) *Handler {
	return &Handler{lookup: lookup, logger: logger}
}

// Register mounts the routes. r is expected to carry the {sessionID} param.
func (h *Handler) Register(r chi.Router) {
	r.Get("/consent", h.HandleStatus)
	r.Post("/consent/resolve", h.HandleResolve)
	r.Post("/consent/dismiss", h.HandleDismiss)
	r.Post("/consent/reset", h.HandleReset)
}

func (h *Handler) service(w http.ResponseWriter, r *http.Request) (Service, bool) {
	ctx := r.Context()
	svc, err := h.lookup(ctx, chi.URLParam(r, "sessionID"))
	if err != nil {
		h.logger.WarnContext(ctx, "consent lookup failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return nil, false
	}
	return svc, true
}

func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.service(w, r)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toStatusResponse(svc.Status(r.Context())))
}

func (h *Handler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	svc, ok := h.service(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[ResolveRequest](w, r, h.logger)
	if !ok {
		return
	}

	if err := svc.Resolve(ctx, req.Action()); err != nil {
		h.logger.ErrorContext(ctx, "failed to resolve consent",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toStatusResponse(svc.Status(ctx)))
}

func (h *Handler) HandleDismiss(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	svc, ok := h.service(w, r)
	if !ok {
		return
	}
	if err := svc.Dismiss(ctx); err != nil {
		h.logger.ErrorContext(ctx, "failed to dismiss consent prompt",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toStatusResponse(svc.Status(ctx)))
}

func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	svc, ok := h.service(w, r)
	if !ok {
		return
	}
	if err := svc.Reset(ctx); err != nil {
		h.logger.ErrorContext(ctx, "failed to reset consent",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
