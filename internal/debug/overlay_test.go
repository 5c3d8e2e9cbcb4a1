package debug

import (
	"fmt"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"pawty/internal/telemetry/datalayer"
	"pawty/internal/telemetry/gateway"
	"pawty/internal/telemetry/models"
	"pawty/pkg/platform/clock"
)

type OverlaySuite struct {
	suite.Suite
	clock   *clock.FakeClock
	queue   *datalayer.Queue
	gateway *gateway.Gateway
	overlay *Overlay
}

func (s *OverlaySuite) SetupTest() {
	s.clock = clock.NewFake(time.Date(2026, 6, 1, 9, 30, 0, 0, time.UTC))
	s.queue = datalayer.NewQueue()
	s.gateway = gateway.New(gateway.WithSink(s.queue), gateway.WithClock(s.clock))
	s.overlay = New(WithLocation(time.UTC))
	s.overlay.Mount(s.gateway, nil)
}

func TestOverlaySuite(t *testing.T) {
	suite.Run(t, new(OverlaySuite))
}

func (s *OverlaySuite) TestKeepsFiftyNewestFirst() {
	for i := 0; i < 60; i++ {
		s.gateway.Emit(fmt.Sprintf("corgi_event_%02d", i), nil)
	}

	entries := s.overlay.Entries()
	s.Require().Len(entries, DefaultCapacity)
	for i, e := range entries {
		s.Equal(fmt.Sprintf("corgi_event_%02d", 59-i), e.Event.Name)
	}
}

func (s *OverlaySuite) TestHeadMatchesSinkRecord() {
	s.gateway.Emit("corgi_cta_click", models.Params{"section": "hero"})

	head := s.overlay.Entries()[0]
	s.Equal("corgi_cta_click", head.Event.Name)
	s.Equal(models.Params{"section": "hero"}, head.Event.Params)
	s.Equal(models.BucketPrimary, head.Bucket)
	s.Equal(s.clock.Now().UnixMilli(), head.Event.Timestamp)

	records := s.queue.Records()
	s.Require().Len(records, 1)
	s.Equal(map[string]any{"event": "corgi_cta_click", "section": "hero"}, records[0])
}

func (s *OverlaySuite) TestClearLeavesStreamAlone() {
	other := 0
	s.gateway.Subscribe(func(models.Event) { other++ })
	s.gateway.Emit("scroll_depth", models.Params{"percent": 25})

	s.overlay.Clear()
	s.Zero(s.overlay.Len())

	s.gateway.Emit("video_start", nil)
	s.Equal(1, s.overlay.Len())
	s.Equal(2, other)
	s.Equal(2, s.queue.Len())
}

func (s *OverlaySuite) TestUnmountStopsCapture() {
	s.overlay.Unmount()
	s.overlay.Unmount()
	s.False(s.overlay.Mounted())
	s.Zero(s.gateway.Subscribers())

	s.gateway.Emit("corgi_cta_click", nil)
	s.Zero(s.overlay.Len())
}

func (s *OverlaySuite) TestEntriesAreCopies() {
	s.gateway.Emit("corgi_cta_click", models.Params{"section": "hero"})
	s.overlay.Entries()[0].Event.Params["section"] = "footer"
	s.Equal("hero", s.overlay.Entries()[0].Event.Params["section"])
}

func (s *OverlaySuite) TestToggle() {
	s.False(s.overlay.IsOpen())
	s.True(s.overlay.Toggle())
	s.False(s.overlay.Toggle())
	s.overlay.Open()
	s.True(s.overlay.IsOpen())
	s.overlay.Close()
	s.False(s.overlay.IsOpen())
}

func (s *OverlaySuite) TestRender() {
	s.Equal("GA Debug (0) ▼", s.overlay.Render())

	s.overlay.Open()
	s.Contains(s.overlay.Render(), "No events yet. Interact with the page!")

	s.gateway.Emit("corgi_cta_click", models.Params{"section": "hero", "label": "Join"})
	out := s.overlay.Render()
	s.Contains(out, "GA Debug (1) ▲")
	s.Contains(out, "corgi_cta_click")
	s.Contains(out, "09:30:00")
	s.Less(strings.Index(out, "label: Join"), strings.Index(out, "section: hero"))
}

func TestMountAutoOpensInDebugMode(t *testing.T) {
	g := gateway.New()

	o := New()
	o.Mount(g, url.Values{"debug": {"1"}})
	assert.True(t, o.IsOpen())

	o = New()
	o.Mount(g, url.Values{"debug": {"true"}})
	assert.False(t, o.IsOpen())
}

func TestIsDebugMode(t *testing.T) {
	assert.True(t, IsDebugMode(url.Values{"debug": {"1"}}))
	assert.False(t, IsDebugMode(url.Values{"debug": {"0"}}))
	assert.False(t, IsDebugMode(nil))
}

func TestBucket(t *testing.T) {
	assert.Equal(t, models.BucketPrimary, Bucket("corgi_nudge_shown"))
	assert.Equal(t, models.BucketScroll, Bucket("scroll_depth"))
	assert.Equal(t, models.BucketVideo, Bucket("video_complete"))
	assert.Equal(t, models.BucketOther, Bucket("page_view"))
}
