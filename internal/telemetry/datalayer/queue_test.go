package datalayer

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pawty/internal/telemetry/metrics"
	"pawty/internal/telemetry/models"
	"pawty/pkg/platform/clock"
)

func TestQueue(t *testing.T) {
	at := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

	t.Run("push stores the flattened record", func(t *testing.T) {
		q := NewQueue()
		require.NoError(t, q.Push(models.NewEvent("corgi_cta_click", models.Params{"section": "hero"}, at)))

		assert.Equal(t, []map[string]any{{"event": "corgi_cta_click", "section": "hero"}}, q.Records())
	})

	t.Run("since and ack consume in order", func(t *testing.T) {
		q := NewQueue()
		for _, name := range []string{"a", "b", "c"} {
			require.NoError(t, q.Push(models.NewEvent(name, nil, at)))
		}

		batch := q.Since(0, 2)
		require.Len(t, batch, 2)
		assert.Equal(t, "a", batch[0].Record["event"])
		assert.Equal(t, "b", batch[1].Record["event"])

		assert.Equal(t, 2, q.Ack(batch[1].Offset))
		assert.Equal(t, 1, q.Len())

		rest := q.Since(batch[1].Offset, 0)
		require.Len(t, rest, 1)
		assert.Equal(t, "c", rest[0].Record["event"])
	})

	t.Run("capacity rejects pushes", func(t *testing.T) {
		q := NewQueue(WithCapacity(1))
		require.NoError(t, q.Push(models.NewEvent("a", nil, at)))
		assert.ErrorIs(t, q.Push(models.NewEvent("b", nil, at)), ErrQueueFull)
	})

	t.Run("drop oldest keeps the newest records", func(t *testing.T) {
		m := metrics.New(prometheus.NewRegistry())
		q := NewQueue(WithCapacity(3), WithDropOldest(), WithMetrics(m))
		for _, name := range []string{"a", "b", "c", "d", "e"} {
			require.NoError(t, q.Push(models.NewEvent(name, nil, at)))
		}

		var names []string
		for _, r := range q.Records() {
			names = append(names, r["event"].(string))
		}
		assert.Equal(t, []string{"c", "d", "e"}, names)
		assert.Equal(t, uint64(2), q.Evicted())
		assert.Equal(t, 2.0, promtest.ToFloat64(m.QueueEvictions))
		assert.Equal(t, 3.0, promtest.ToFloat64(m.QueueDepth))

		entries := q.Since(0, 0)
		assert.Equal(t, uint64(3), entries[0].Offset, "offsets keep counting past evictions")
	})

	t.Run("pushed at comes from the clock", func(t *testing.T) {
		clk := clock.NewFake(at)
		q := NewQueue(WithClock(clk))
		require.NoError(t, q.Push(models.NewEvent("a", nil, at)))
		clk.Advance(time.Second)
		require.NoError(t, q.Push(models.NewEvent("b", nil, at)))

		entries := q.Since(0, 0)
		require.Len(t, entries, 2)
		assert.Equal(t, at, entries[0].PushedAt)
		assert.Equal(t, at.Add(time.Second), entries[1].PushedAt)
	})

	t.Run("returned records are copies", func(t *testing.T) {
		q := NewQueue()
		require.NoError(t, q.Push(models.NewEvent("a", models.Params{"k": "v"}, at)))
		q.Records()[0]["k"] = "changed"
		assert.Equal(t, "v", q.Records()[0]["k"])
	})
}
