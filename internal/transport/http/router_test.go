package httptransport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	consenthandler "pawty/internal/consent/handler"
	debughandler "pawty/internal/debug/handler"
	"pawty/internal/platform/health"
	"pawty/internal/session"
	sessionhandler "pawty/internal/session/handler"
	"pawty/internal/telemetry/datalayer"
	"pawty/pkg/platform/clock"
	"pawty/pkg/platform/middleware/client"
	"pawty/pkg/platform/middleware/request"
)

type RouterSuite struct {
	suite.Suite
	registry *session.Registry
	queue    *datalayer.Queue
	router   http.Handler
}

func (s *RouterSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	s.queue = datalayer.NewQueue()
	s.registry = session.NewRegistry(session.Deps{
		Sink:       s.queue,
		Propagator: datalayer.NewConsentPropagator(s.queue),
		Clock:      clock.NewFake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)),
		Logger:     logger,
		ConsentTTL: 24 * time.Hour,
	})

	s.router = NewRouter(Handlers{
		Health:   health.New("test"),
		Sessions: sessionhandler.New(s.registry, logger),
		Consent:  consenthandler.New(ConsentLookup(s.registry), logger),
		Debug:    debughandler.New(DebugLookup(s.registry), logger),
	}, Config{
		Logger:         logger,
		Gatherer:       reg,
		RequestMetrics: request.NewMetrics(reg),
	})
}

func (s *RouterSuite) TearDownTest() {
	s.registry.Close(context.Background())
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) do(method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *RouterSuite) createSession() (string, *http.Cookie) {
	rec := s.do(http.MethodPost, "/v1/sessions/", map[string]string{"path": "/", "title": "Corgi Party"})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		ID string `json:"session_id"`
	}
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&resp))
	for _, c := range rec.Result().Cookies() {
		if c.Name == client.CookieName {
			return resp.ID, c
		}
	}
	s.FailNow("client cookie not issued")
	return "", nil
}

func (s *RouterSuite) TestHealth() {
	rec := s.do(http.MethodGet, "/health/live", nil)
	s.Equal(http.StatusOK, rec.Code)
}

func (s *RouterSuite) TestConsentRoundTrip() {
	id, cookie := s.createSession()

	rec := s.do(http.MethodPost, "/v1/sessions/"+id+"/consent/resolve", map[string]string{"action": "accept_all"}, cookie)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodGet, "/v1/sessions/"+id+"/consent", nil, cookie)
	s.Require().Equal(http.StatusOK, rec.Code)
	var status struct {
		State string `json:"state"`
	}
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&status))
	s.Equal("resolved", status.State)

	var sawUpdate bool
	for _, record := range s.queue.Records() {
		if record["event"] == datalayer.ConsentUpdateEvent {
			sawUpdate = true
		}
	}
	s.True(sawUpdate, "consent update should reach the data layer")
}

func (s *RouterSuite) TestDebugOverlayShowsPageView() {
	id, cookie := s.createSession()

	rec := s.do(http.MethodGet, "/v1/sessions/"+id+"/debug", nil, cookie)
	s.Require().Equal(http.StatusOK, rec.Code)
	var log struct {
		Count   int `json:"count"`
		Entries []struct {
			Name string `json:"name"`
		} `json:"entries"`
	}
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&log))
	s.Require().Positive(log.Count)

	names := make([]string, 0, len(log.Entries))
	for _, e := range log.Entries {
		names = append(names, e.Name)
	}
	s.Contains(names, session.PageViewEvent)
}

func (s *RouterSuite) TestUnknownSessionIsNotFound() {
	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/v1/sessions/missing/consent", nil).Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/v1/sessions/missing/debug", nil).Code)
}

func (s *RouterSuite) TestRejectsNonJSONBodies() {
	req := httptest.NewRequest(http.MethodPost, "/v1/sessions/", bytes.NewBufferString("path=/"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Equal(http.StatusUnsupportedMediaType, rec.Code)
}

func (s *RouterSuite) TestMetricsExposeRouteLatency() {
	s.createSession()

	rec := s.do(http.MethodGet, "/metrics", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `pawty_endpoint_latency_seconds_count{endpoint="/v1/sessions/"}`)
}
