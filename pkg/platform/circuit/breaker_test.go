package circuit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"pawty/pkg/platform/clock"
)

func TestBreakerOpensAfterThreshold(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	b := New("kafka", WithFailureThreshold(3), WithClock(clk))

	assert.Equal(t, StateChange{}, b.RecordFailure())
	assert.Equal(t, StateChange{}, b.RecordFailure())
	assert.True(t, b.Allow())

	assert.Equal(t, StateChange{Opened: true}, b.RecordFailure())
	assert.True(t, b.IsOpen())
	assert.Equal(t, "open", b.State().String())
	assert.Equal(t, clk.Now(), b.OpenedAt())
	assert.False(t, b.Allow(), "no probe before the cooldown")
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	b := New("kafka", WithFailureThreshold(2))

	b.RecordFailure()
	b.RecordSuccess()
	assert.Equal(t, StateChange{}, b.RecordFailure())
	assert.False(t, b.IsOpen())
}

func TestBreakerProbesOncePerCooldown(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	b := New("kafka", WithFailureThreshold(1), WithCooldown(time.Second), WithClock(clk))
	b.RecordFailure()

	clk.Advance(999 * time.Millisecond)
	assert.False(t, b.Allow())

	clk.Advance(time.Millisecond)
	assert.True(t, b.Allow())
	assert.False(t, b.Allow(), "second probe inside the same cooldown")

	assert.Equal(t, StateChange{}, b.RecordFailure(), "failed probe keeps it open")
	clk.Advance(time.Second)
	assert.True(t, b.Allow())
	assert.Equal(t, StateChange{Closed: true}, b.RecordSuccess())
	assert.Equal(t, StateClosed, b.State())
	assert.True(t, b.OpenedAt().IsZero())
}

func TestBreakerSuccessThreshold(t *testing.T) {
	b := New("kafka", WithFailureThreshold(1), WithSuccessThreshold(2))
	b.RecordFailure()

	assert.Equal(t, StateChange{}, b.RecordSuccess())
	assert.True(t, b.IsOpen())
	assert.Equal(t, StateChange{Closed: true}, b.RecordSuccess())
}

func TestBreakerReset(t *testing.T) {
	b := New("kafka", WithFailureThreshold(1))
	b.RecordFailure()
	b.Reset()
	assert.False(t, b.IsOpen())
	assert.True(t, b.Allow())
}
