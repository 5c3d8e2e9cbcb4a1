package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"pawty/internal/session/metrics"
	"pawty/internal/telemetry/datalayer"
	dErrors "pawty/pkg/domain-errors"
	"pawty/pkg/platform/clock"
	"pawty/pkg/testutil"
)

type RegistrySuite struct {
	suite.Suite
	ctx      context.Context
	clock    *clock.FakeClock
	metrics  *metrics.Metrics
	registry *Registry
	seq      int
}

func (s *RegistrySuite) SetupTest() {
	s.ctx = context.Background()
	s.clock = clock.NewFake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.seq = 0
	s.registry = NewRegistry(Deps{
		Sink:   datalayer.NewQueue(),
		Clock:  s.clock,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	},
		WithMetrics(s.metrics),
		WithMaxSessions(3),
		WithIDGenerator(func() string {
			s.seq++
			return fmt.Sprintf("sess-%d", s.seq)
		}),
	)
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func (s *RegistrySuite) TestCreateGetRemove() {
	sess, err := s.registry.Create(s.ctx, Page{Path: "/"})
	s.Require().NoError(err)
	s.Equal("sess-1", sess.ID)

	got, err := s.registry.Get(s.ctx, "sess-1")
	s.Require().NoError(err)
	s.Same(sess, got)
	s.Equal(1.0, promtest.ToFloat64(s.metrics.ActiveSessions))

	s.Require().NoError(s.registry.Remove(s.ctx, "sess-1"))
	s.True(sess.Unloaded())
	s.Zero(s.registry.Len())
	s.Equal(1.0, promtest.ToFloat64(s.metrics.SessionsEnded.WithLabelValues(metrics.EndUnload)))

	_, err = s.registry.Get(s.ctx, "sess-1")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	s.True(dErrors.HasCode(s.registry.Remove(s.ctx, "sess-1"), dErrors.CodeNotFound))
}

func (s *RegistrySuite) TestCapacity() {
	for i := 0; i < 3; i++ {
		_, err := s.registry.Create(s.ctx, Page{})
		s.Require().NoError(err)
	}
	_, err := s.registry.Create(s.ctx, Page{})
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
}

func (s *RegistrySuite) TestConcurrentCreateRespectsCapacity() {
	registry := NewRegistry(Deps{
		Sink:   datalayer.NewQueue(),
		Clock:  s.clock,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, WithMaxSessions(5))
	defer registry.Close(s.ctx)

	result := testutil.RunConcurrent(20, func(int) error {
		_, err := registry.Create(s.ctx, Page{Path: "/"})
		return err
	})

	s.Equal(int32(5), result.Successes)
	s.Equal(int32(15), result.Unavailable)
	s.Equal(int32(20), result.Total())
	s.Equal(5, registry.Len())
}

func (s *RegistrySuite) TestExpireUsesLastSeen() {
	_, err := s.registry.Create(s.ctx, Page{})
	s.Require().NoError(err)
	_, err = s.registry.Create(s.ctx, Page{})
	s.Require().NoError(err)

	s.clock.Advance(10 * time.Minute)
	_, err = s.registry.Touch(s.ctx, "sess-2")
	s.Require().NoError(err)

	removed, err := s.registry.Expire(s.ctx, s.clock.Now().Add(-5*time.Minute))
	s.Require().NoError(err)
	s.Equal(1, removed)

	_, err = s.registry.Get(s.ctx, "sess-1")
	s.Error(err)
	_, err = s.registry.Get(s.ctx, "sess-2")
	s.NoError(err)
	s.Equal(1.0, promtest.ToFloat64(s.metrics.SessionsEnded.WithLabelValues(metrics.EndExpired)))
}

func (s *RegistrySuite) TestCloseUnloadsAll() {
	a, _ := s.registry.Create(s.ctx, Page{})
	b, _ := s.registry.Create(s.ctx, Page{})

	s.registry.Close(s.ctx)

	s.True(a.Unloaded())
	s.True(b.Unloaded())
	s.Zero(s.registry.Len())
	s.Zero(s.clock.Pending())
}
