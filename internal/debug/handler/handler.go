package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"pawty/internal/debug"
	"pawty/pkg/platform/httputil"
	"pawty/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Overlay

// Overlay is the debug panel of one page session.
type Overlay interface {
	Entries() []debug.Entry
	IsOpen() bool
	Toggle() bool
	Clear()
	Render() string
}

// Lookup finds the overlay of a live page session.
type Lookup func(ctx context.Context, sessionID string) (Overlay, error)

type Handler struct {
	lookup Lookup
	logger *slog.Logger
}

func New(lookup Lookup, logger *slog.Logger) *Handler {
	return &Handler{lookup: lookup, logger: logger}
}

// Register mounts the routes. r is expected to carry the {sessionID} param.
func (h *Handler) Register(r chi.Router) {
	r.Get("/debug", h.HandleList)
	r.Get("/debug/render", h.HandleRender)
	r.Post("/debug/toggle", h.HandleToggle)
	r.Post("/debug/clear", h.HandleClear)
}

func (h *Handler) overlay(w http.ResponseWriter, r *http.Request) (Overlay, bool) {
	ctx := r.Context()
	o, err := h.lookup(ctx, chi.URLParam(r, "sessionID"))
	if err != nil {
		h.logger.WarnContext(ctx, "debug overlay lookup failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return nil, false
	}
	return o, true
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	o, ok := h.overlay(w, r)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toLogResponse(o.IsOpen(), o.Entries()))
}

func (h *Handler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	o, ok := h.overlay(w, r)
	if !ok {
		return
	}
	open := o.Toggle()
	httputil.WriteJSON(w, http.StatusOK, toLogResponse(open, o.Entries()))
}

func (h *Handler) HandleClear(w http.ResponseWriter, r *http.Request) {
	o, ok := h.overlay(w, r)
	if !ok {
		return
	}
	o.Clear()
	w.WriteHeader(http.StatusNoContent)
}

// HandleRender returns the panel as plain text.
func (h *Handler) HandleRender(w http.ResponseWriter, r *http.Request) {
	o, ok := h.overlay(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(o.Render() + "\n")); err != nil {
		h.logger.WarnContext(r.Context(), "failed to write debug render", "error", err)
	}
}
