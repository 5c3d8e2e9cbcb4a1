package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(h *Handler, path string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	h.Register(r)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestReadiness(t *testing.T) {
	h := New("test")
	h.RegisterCheck("kv", func(context.Context) error { return nil })

	w := serve(h, "/health/ready")
	require.Equal(t, http.StatusOK, w.Code)

	h.RegisterCheck("kafka", func(ctx context.Context) error {
		_, ok := ctx.Deadline()
		assert.True(t, ok)
		return errors.New("no brokers")
	})
	w = serve(h, "/health/ready")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp ReadinessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "not_ready", resp.Status)
	assert.Equal(t, "up", resp.Checks["kv"])
	assert.Equal(t, "down: no brokers", resp.Checks["kafka"])
}

func TestStatusIncludesGauges(t *testing.T) {
	h := New("test")
	h.RegisterGauge("sessions", func() int { return 3 })

	w := serve(h, "/health")
	require.Equal(t, http.StatusOK, w.Code)

	var resp StatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "test", resp.Environment)
	assert.Equal(t, 3, resp.Gauges["sessions"])
}

func TestLiveness(t *testing.T) {
	w := serve(New("test"), "/health/live")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"alive"}`, w.Body.String())
}
