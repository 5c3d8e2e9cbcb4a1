package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"net/netip"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	consenthandler "pawty/internal/consent/handler"
	debughandler "pawty/internal/debug/handler"
	"pawty/internal/platform/health"
	"pawty/internal/session"
	sessionhandler "pawty/internal/session/handler"
	"pawty/pkg/platform/middleware/client"
	"pawty/pkg/platform/middleware/metadata"
	"pawty/pkg/platform/middleware/request"
)

const (
	defaultTimeout      = 30 * time.Second
	defaultMaxBodyBytes = 64 << 10
)

// Config carries the cross-cutting settings of the router.
type Config struct {
	Logger         *slog.Logger
	Gatherer       prometheus.Gatherer
	RequestMetrics *request.Metrics
	TrustedProxies []netip.Prefix
	CookieSecure   bool
	Timeout        time.Duration
	MaxBodyBytes   int64
}

// Handlers are the route groups served by the router.
type Handlers struct {
	Health   *health.Handler
	Sessions *sessionhandler.Handler
	Consent  *consenthandler.Handler
	Debug    *debughandler.Handler
}

// NewRouter wires all public endpoints with middleware.
func NewRouter(h Handlers, cfg Config) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}

	r := chi.NewRouter()

	r.Use(request.Recovery(cfg.Logger))
	r.Use(request.RequestID)
	r.Use(request.Logger(cfg.Logger))
	r.Use(request.Timeout(cfg.Timeout))
	r.Use(request.BodyLimit(cfg.MaxBodyBytes))
	r.Use(request.ContentTypeJSON)
	r.Use(metadata.NewMiddleware(metadata.Config{TrustedProxies: cfg.TrustedProxies}).Handler)
	r.Use(request.Latency(cfg.RequestMetrics, routePattern))

	if h.Health != nil {
		h.Health.Register(r)
	}
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	if h.Sessions != nil {
		r.Route("/v1/sessions", func(r chi.Router) {
			r.Use(client.Middleware(client.Config{Secure: cfg.CookieSecure}))

			var nested []func(chi.Router)
			if h.Consent != nil {
				nested = append(nested, h.Consent.Register)
			}
			if h.Debug != nil {
				nested = append(nested, h.Debug.Register)
			}
			h.Sessions.Register(r, nested...)
		})
	}

	return r
}

// ConsentLookup resolves the consent manager of a live session.
func ConsentLookup(registry *session.Registry) consenthandler.Lookup {
	return func(ctx context.Context, sessionID string) (consenthandler.Service, error) {
		s, err := registry.Touch(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		return s.Consent(), nil
	}
}

// DebugLookup resolves the debug overlay of a live session.
func DebugLookup(registry *session.Registry) debughandler.Lookup {
	return func(ctx context.Context, sessionID string) (debughandler.Overlay, error) {
		s, err := registry.Touch(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		return s.Overlay(), nil
	}
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}
