package metadata

import (
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pawty/pkg/requestcontext"
)

func TestClientIP(t *testing.T) {
	proxies := []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")}
	tests := []struct {
		name    string
		remote  string
		headers map[string]string
		trusted []netip.Prefix
		want    string
	}{
		{name: "ignores XFF from untrusted peer", remote: "192.168.1.1:1234", headers: map[string]string{"X-Forwarded-For": "203.0.113.1"}, want: "192.168.1.1"},
		{name: "trusts XFF from proxy", remote: "10.0.0.1:1234", headers: map[string]string{"X-Forwarded-For": "203.0.113.1, 10.0.0.1"}, trusted: proxies, want: "203.0.113.1"},
		{name: "rejects malformed XFF", remote: "10.0.0.1:1234", headers: map[string]string{"X-Forwarded-For": "not-an-ip"}, trusted: proxies, want: "10.0.0.1"},
		{name: "uses X-Real-IP from proxy", remote: "10.0.0.1:1234", headers: map[string]string{"X-Real-IP": "198.51.100.7"}, trusted: proxies, want: "198.51.100.7"},
		{name: "ipv6 remote", remote: "[2001:db8::1]:443", want: "2001:db8::1"},
		{name: "empty remote", remote: "", want: "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotIP, gotUA string
			h := NewMiddleware(Config{TrustedProxies: tt.trusted}).Handler(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				gotIP = requestcontext.ClientIP(r.Context())
				gotUA = requestcontext.UserAgent(r.Context())
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			req.Header.Set("User-Agent", "test-agent")
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)

			assert.Equal(t, tt.want, gotIP)
			assert.Equal(t, "test-agent", gotUA)
		})
	}
}

func TestParseTrustedProxies(t *testing.T) {
	prefixes, err := ParseTrustedProxies([]string{"10.0.0.0/8", " 192.168.1.9 ", "", "2001:db8::/32"})
	require.NoError(t, err)
	assert.Equal(t, []netip.Prefix{
		netip.MustParsePrefix("10.0.0.0/8"),
		netip.MustParsePrefix("192.168.1.9/32"),
		netip.MustParsePrefix("2001:db8::/32"),
	}, prefixes)

	_, err = ParseTrustedProxies([]string{"not-a-proxy"})
	assert.Error(t, err)
	_, err = ParseTrustedProxies([]string{"10.0.0.0/99"})
	assert.Error(t, err)
}

func TestParseDevice(t *testing.T) {
	iphone := "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"
	desktop := "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	bot := "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)"

	d := ParseDevice(iphone)
	assert.Equal(t, PlatformMobile, d.Platform)
	assert.Equal(t, "Safari", d.Browser)

	d = ParseDevice(desktop)
	assert.Equal(t, PlatformDesktop, d.Platform)
	assert.Equal(t, "Chrome", d.Browser)
	assert.Contains(t, d.OS, "Windows")

	assert.Equal(t, PlatformBot, ParseDevice(bot).Platform)
	assert.Equal(t, Device{Browser: "unknown", OS: "unknown", Platform: PlatformDesktop}, ParseDevice(""))
}
