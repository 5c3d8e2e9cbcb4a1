package privacy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnonymizeIP(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "ipv4", input: "192.168.1.47", expected: "192.168.1.0"},
		{name: "ipv4 loopback", input: "127.0.0.1", expected: "127.0.0.0"},
		{name: "ipv6 compressed", input: "2001:db8:85a3::8a2e:370:7334", expected: "2001:0db8:85a3::"},
		{name: "ipv6 loopback", input: "::1", expected: "0000:0000:0000::"},
		{name: "empty", input: "", expected: "unknown"},
		{name: "unknown", input: "unknown", expected: "unknown"},
		{name: "garbage", input: "not-an-ip", expected: "invalid"},
		{name: "with port", input: "192.168.1.1:8080", expected: "invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, AnonymizeIP(tt.input))
		})
	}
}

func TestAnonymizeIP_SameNetwork(t *testing.T) {
	for _, ip := range []string{"10.1.2.3", "10.1.2.200"} {
		assert.Equal(t, "10.1.2.0", AnonymizeIP(ip))
	}
	assert.NotEqual(t, AnonymizeIP("10.1.2.3"), AnonymizeIP("10.1.3.3"))
}

func TestEmailDomain(t *testing.T) {
	tests := map[string]string{
		"walker@Corgi.Example":          "corgi.example",
		"  spaced@example.org ":         "example.org",
		"Fluffy Butt <fb@dogs.example>": "dogs.example",
		"no-at-sign":                    "",
		"":                              "",
		"trailing@":                     "",
	}
	for input, want := range tests {
		assert.Equal(t, want, EmailDomain(input), "input %q", input)
	}
}

func TestScrubEmail(t *testing.T) {
	params := map[string]any{"email": "owner@corgi.example", "form": "waitlist"}
	assert.True(t, ScrubEmail(params))
	assert.Equal(t, map[string]any{"email_domain": "corgi.example", "form": "waitlist"}, params)

	params = map[string]any{"email": "nonsense"}
	assert.True(t, ScrubEmail(params))
	assert.Equal(t, map[string]any{"email_domain": UnknownDomain}, params)

	params = map[string]any{"email": 42}
	assert.True(t, ScrubEmail(params))
	assert.Equal(t, map[string]any{"email_domain": "unknown"}, params)

	params = map[string]any{"form": "waitlist"}
	assert.False(t, ScrubEmail(params))
}
