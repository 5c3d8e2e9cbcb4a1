package debounce

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"pawty/pkg/platform/clock"
)

func TestDebouncer(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("burst collapses into one trailing call", func(t *testing.T) {
		c := clock.NewFake(start)
		var calls []time.Time
		d := New(c, 100*time.Millisecond, func() { calls = append(calls, c.Now()) })

		// 10 calls spread over 45ms
		for i := 0; i < 10; i++ {
			d.Call()
			if i < 9 {
				c.Advance(5 * time.Millisecond)
			}
		}
		last := c.Now()

		c.Advance(99 * time.Millisecond)
		assert.Empty(t, calls)

		c.Advance(time.Millisecond)
		if assert.Len(t, calls, 1) {
			assert.Equal(t, last.Add(100*time.Millisecond), calls[0])
		}

		c.Advance(time.Second)
		assert.Len(t, calls, 1)
	})

	t.Run("separate bursts fire separately", func(t *testing.T) {
		c := clock.NewFake(start)
		n := 0
		d := New(c, 100*time.Millisecond, func() { n++ })

		d.Call()
		c.Advance(150 * time.Millisecond)
		d.Call()
		c.Advance(150 * time.Millisecond)
		assert.Equal(t, 2, n)
	})

	t.Run("flush runs the pending call now", func(t *testing.T) {
		c := clock.NewFake(start)
		n := 0
		d := New(c, 100*time.Millisecond, func() { n++ })

		assert.False(t, d.Flush())
		d.Call()
		assert.True(t, d.Flush())
		assert.Equal(t, 1, n)

		c.Advance(time.Second)
		assert.Equal(t, 1, n)
	})

	t.Run("cancel drops pending and future calls", func(t *testing.T) {
		c := clock.NewFake(start)
		n := 0
		d := New(c, 100*time.Millisecond, func() { n++ })

		d.Call()
		d.Cancel()
		d.Call()
		c.Advance(time.Second)
		assert.Zero(t, n)
		assert.Zero(t, c.Pending())
	})
}
