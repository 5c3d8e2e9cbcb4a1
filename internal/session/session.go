// Package session composes the per-page telemetry and consent components
// into one page lifetime and keeps the live ones in a registry.
package session

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	cmetrics "pawty/internal/consent/metrics"
	cmodels "pawty/internal/consent/models"
	"pawty/internal/consent/service"
	"pawty/internal/consent/store"
	"pawty/internal/debug"
	"pawty/internal/platform/kvstore"
	"pawty/internal/telemetry/gateway"
	tmetrics "pawty/internal/telemetry/metrics"
	tmodels "pawty/internal/telemetry/models"
	"pawty/internal/trackers/activity"
	"pawty/internal/trackers/engagement"
	"pawty/internal/trackers/idle"
	"pawty/internal/trackers/scroll"
	"pawty/internal/trackers/video"
	dErrors "pawty/pkg/domain-errors"
	"pawty/pkg/platform/clock"
	"pawty/pkg/platform/middleware/metadata"
	"pawty/pkg/platform/privacy"
)

// Event names emitted by the session itself.
const (
	PageViewEvent = "page_view"
	ShortcutEvent = "corgi_keyboard_shortcut"
)

// shortcuts maps keyboard keys to the page action they trigger.
var shortcuts = map[string]string{
	"b": "bark",
	"t": "treat",
	"g": "generate_name",
}

// Page describes the page load that opened a session.
type Page struct {
	Path      string
	Title     string
	Query     url.Values
	UserAgent string
	ClientID  string
}

// Deps are the collaborators shared by every session.
type Deps struct {
	Sink       gateway.Sink
	Propagator service.Propagator
	KV         kvstore.KV
	Clock      clock.Clock
	Logger     *slog.Logger

	TelemetryMetrics *tmetrics.Metrics
	ConsentMetrics   *cmetrics.Metrics

	// OverlayOptions configure each session's debug overlay.
	OverlayOptions []debug.Option

	ConsentTTL         time.Duration
	PromptDelay        time.Duration
	IdleTimeout        time.Duration
	EngagementInterval time.Duration
}

func (d Deps) withDefaults() Deps {
	if d.Clock == nil {
		d.Clock = clock.Real()
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.KV == nil {
		d.KV = kvstore.NewMemory()
	}
	if d.PromptDelay < 0 {
		d.PromptDelay = service.DefaultPromptDelay
	}
	return d
}

// Session is one page lifetime.
type Session struct {
	ID        string
	ClientID  string
	CreatedAt time.Time

	page   Page
	clock  clock.Clock
	logger *slog.Logger

	gateway    *gateway.Gateway
	hub        *activity.Hub
	overlay    *debug.Overlay
	consent    *service.Service
	scroll     *scroll.Tracker
	idle       *idle.Tracker
	engagement *engagement.Tracker

	mu       sync.Mutex
	videos   map[string]*video.Tracker
	lastSeen time.Time
	started  bool
	unloaded bool
}

// New wires the components of a page session without starting them.
func New(id string, page Page, deps Deps) *Session {
	deps = deps.withDefaults()
	logger := deps.Logger.With("session_id", id)
	now := deps.Clock.Now()

	namespace := page.ClientID
	if namespace == "" {
		namespace = "session:" + id
	}

	s := &Session{
		ID:        id,
		ClientID:  page.ClientID,
		CreatedAt: now,
		page:      page,
		clock:     deps.Clock,
		logger:    logger,
		videos:    make(map[string]*video.Tracker),
		lastSeen:  now,
	}

	s.gateway = gateway.New(
		gateway.WithSink(deps.Sink),
		gateway.WithClock(deps.Clock),
		gateway.WithLogger(logger),
		gateway.WithMetrics(deps.TelemetryMetrics),
	)
	s.hub = activity.NewHub(logger)
	s.overlay = debug.New(deps.OverlayOptions...)
	s.consent = service.NewService(
		store.New(kvstore.WithNamespace(deps.KV, namespace)),
		deps.Propagator,
		s.gateway,
		service.WithClock(deps.Clock),
		service.WithLogger(logger),
		service.WithMetrics(deps.ConsentMetrics),
		service.WithTTL(deps.ConsentTTL),
		service.WithPromptDelay(deps.PromptDelay),
	)
	s.scroll = scroll.New(s.gateway, scroll.WithClock(deps.Clock))
	s.idle = idle.New(s.hub, s.gateway,
		idle.WithClock(deps.Clock),
		idle.WithTimeout(deps.IdleTimeout),
	)
	s.engagement = engagement.New(s.hub, s.gateway,
		engagement.WithClock(deps.Clock),
		engagement.WithInterval(deps.EngagementInterval),
	)
	return s
}

// Start mounts the overlay, boots consent, starts the trackers and records
// the page view. Calling it again is a no-op.
func (s *Session) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started || s.unloaded {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()

	s.overlay.Mount(s.gateway, s.page.Query)
	state := s.consent.Boot(ctx)
	s.idle.Start()
	s.engagement.Start()

	device := metadata.ParseDevice(s.page.UserAgent)
	s.gateway.Emit(PageViewEvent, tmodels.Params{
		"page_path":  s.page.Path,
		"page_title": s.page.Title,
		"browser":    device.Browser,
		"os":         device.OS,
		"platform":   device.Platform,
	})

	s.logger.InfoContext(ctx, "page session started",
		"path", s.page.Path,
		"consent_state", string(state),
		"debug", debug.IsDebugMode(s.page.Query),
	)
}

// Unload emits the final engagement report and tears every component down.
// No timer or subscription survives it. Only the first call has effect.
func (s *Session) Unload(ctx context.Context) {
	s.mu.Lock()
	if s.unloaded {
		s.mu.Unlock()
		return
	}
	s.unloaded = true
	videos := make([]*video.Tracker, 0, len(s.videos))
	for _, v := range s.videos {
		videos = append(videos, v)
	}
	s.mu.Unlock()

	s.engagement.Unload()
	s.scroll.Stop()
	s.idle.Stop()
	for _, v := range videos {
		v.Stop()
	}
	s.consent.Close()
	s.overlay.Unmount()

	s.logger.InfoContext(ctx, "page session unloaded",
		"lifetime_ms", s.clock.Now().Sub(s.CreatedAt).Milliseconds(),
	)
}

// Unloaded reports whether the session has been torn down.
func (s *Session) Unloaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unloaded
}

// Touch marks the session as seen now.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = s.clock.Now()
}

func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Activity forwards a user-activity signal to the trackers.
func (s *Session) Activity(sig activity.Signal) {
	s.hub.Signal(sig)
}

// Scroll records a viewport position. Scrolling also counts as activity.
func (s *Session) Scroll(pos scroll.Position) {
	s.scroll.Observe(pos)
	s.hub.Signal(activity.Scroll)
}

// AcknowledgeNudge records a click on the idle nudge.
func (s *Session) AcknowledgeNudge() bool {
	return s.idle.Acknowledge()
}

// NudgeVisible reports whether the idle nudge is showing.
func (s *Session) NudgeVisible() bool {
	return s.idle.Visible()
}

// Video returns the tracker for a video component, creating it on first use.
func (s *Session) Video(component string) (*video.Tracker, error) {
	component = strings.TrimSpace(component)
	if component == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "video component is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unloaded {
		return nil, dErrors.New(dErrors.CodeConflict, "session already unloaded")
	}
	v, ok := s.videos[component]
	if !ok {
		v = video.New(s.gateway, component)
		s.videos[component] = v
	}
	return v, nil
}

// Shortcut records a keyboard shortcut. Keys without an action are ignored
// and reported as false.
func (s *Session) Shortcut(key string) bool {
	key = strings.ToLower(strings.TrimSpace(key))
	s.hub.Signal(activity.KeyPress)
	action, ok := shortcuts[key]
	if !ok {
		return false
	}
	s.gateway.Emit(ShortcutEvent, tmodels.Params{
		"key":       key,
		"action":    action,
		"timestamp": s.clock.Now().UnixMilli(),
	})
	return true
}

// Emit records an arbitrary page event. An email parameter is reduced to its
// domain before the event leaves the session.
func (s *Session) Emit(name string, params tmodels.Params) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return dErrors.New(dErrors.CodeValidation, "event name is required")
	}
	cp := make(tmodels.Params, len(params))
	for k, v := range params {
		cp[k] = v
	}
	privacy.ScrubEmail(cp)
	s.gateway.Emit(name, cp)
	return nil
}

// SelfTest emits the pipeline marker event.
func (s *Session) SelfTest() gateway.SelfTestReport {
	return s.gateway.SelfTest()
}

func (s *Session) Gateway() *gateway.Gateway { return s.gateway }

func (s *Session) Overlay() *debug.Overlay { return s.overlay }

func (s *Session) Consent() *service.Service { return s.consent }

func (s *Session) Milestones() []int { return s.scroll.Milestones() }

func (s *Session) Page() Page { return s.page }

// ConsentState is a shortcut for Consent().State().
func (s *Session) ConsentState() cmodels.State {
	return s.consent.State()
}
