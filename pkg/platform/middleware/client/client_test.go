package client

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pawty/pkg/requestcontext"
)

func serve(cfg Config, req *http.Request) (string, *httptest.ResponseRecorder) {
	var captured string
	h := Middleware(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = requestcontext.ClientID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return captured, w
}

func TestClientMiddleware(t *testing.T) {
	fixed := Config{NewID: func() string { return "fresh-id" }}

	t.Run("reuses existing cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: CookieName, Value: "abc-123"})

		id, w := serve(fixed, req)
		assert.Equal(t, "abc-123", id)
		assert.Empty(t, w.Result().Cookies(), "no cookie reissued")
	})

	t.Run("issues cookie when missing", func(t *testing.T) {
		id, w := serve(fixed, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, "fresh-id", id)

		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, CookieName, cookies[0].Name)
		assert.Equal(t, "fresh-id", cookies[0].Value)
		assert.True(t, cookies[0].HttpOnly)
	})

	t.Run("replaces tampered cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: CookieName, Value: "a:b"})

		id, _ := serve(fixed, req)
		assert.Equal(t, "fresh-id", id)
	})

	t.Run("default generator yields uuid", func(t *testing.T) {
		id, _ := serve(Config{}, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Len(t, id, 36)
	})
}
