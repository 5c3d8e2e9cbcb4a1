package activity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "pawty/pkg/domain-errors"
)

func TestHubDeliversInOrder(t *testing.T) {
	h := NewHub(nil)
	var got []string
	h.Listen(func(s Signal) { got = append(got, "a:"+string(s)) })
	h.Listen(func(s Signal) { got = append(got, "b:"+string(s)) })

	h.Signal(KeyPress)

	assert.Equal(t, []string{"a:key_press", "b:key_press"}, got)
}

func TestHubUnlisten(t *testing.T) {
	h := NewHub(nil)
	calls := 0
	unlisten := h.Listen(func(Signal) { calls++ })
	other := h.Listen(func(Signal) {})

	unlisten()
	unlisten()
	h.Signal(Scroll)

	assert.Zero(t, calls)
	assert.Equal(t, 1, h.Listeners())
	other()
	assert.Zero(t, h.Listeners())
}

func TestHubSurvivesPanickingListener(t *testing.T) {
	h := NewHub(nil)
	reached := false
	h.Listen(func(Signal) { panic("boom") })
	h.Listen(func(Signal) { reached = true })

	assert.NotPanics(t, func() { h.Signal(TouchStart) })
	assert.True(t, reached)
}

func TestParseSignal(t *testing.T) {
	for _, s := range Signals {
		got, err := ParseSignal(string(s))
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}

	_, err := ParseSignal("wheel")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
}
