// Package client identifies the browser behind a request with a long-lived
// cookie so persisted consent survives page loads.
package client

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"pawty/pkg/requestcontext"
)

// CookieName is the client ID cookie.
const CookieName = "corgi_client_id"

const maxIDLength = 64

// Config holds configuration for the client ID middleware.
type Config struct {
	// CookieName defaults to CookieName.
	CookieName string
	// MaxAge is the cookie lifetime. Defaults to 400 days, which outlives the
	// consent TTL.
	MaxAge time.Duration
	// Secure marks the cookie HTTPS-only.
	Secure bool
	// NewID generates fresh IDs. Defaults to random UUIDs.
	NewID func() string
}

// Middleware reads the client ID cookie into the request context, issuing a
// new one when it is missing or unusable.
func Middleware(cfg Config) func(http.Handler) http.Handler {
	if cfg.CookieName == "" {
		cfg.CookieName = CookieName
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = 400 * 24 * time.Hour
	}
	if cfg.NewID == nil {
		cfg.NewID = func() string { return uuid.New().String() }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if cookie, err := r.Cookie(cfg.CookieName); err == nil && valid(cookie.Value) {
				id = cookie.Value
			}
			if id == "" {
				id = cfg.NewID()
				http.SetCookie(w, &http.Cookie{
					Name:     cfg.CookieName,
					Value:    id,
					Path:     "/",
					MaxAge:   int(cfg.MaxAge.Seconds()),
					HttpOnly: true,
					Secure:   cfg.Secure,
					SameSite: http.SameSiteLaxMode,
				})
			}
			next.ServeHTTP(w, r.WithContext(requestcontext.WithClientID(r.Context(), id)))
		})
	}
}

// valid accepts IDs made of letters, digits and dashes.
func valid(id string) bool {
	if id == "" || len(id) > maxIDLength {
		return false
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-':
		default:
			return false
		}
	}
	return true
}
