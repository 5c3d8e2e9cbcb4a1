// Package privacy reduces personal data to forms that are safe to log or
// forward to analytics.
package privacy

import (
	"fmt"
	"net"
	"net/mail"
	"strings"
)

// AnonymizeIP masks an address to its network: IPv4 keeps the /24, IPv6 the
// /48. Empty input yields "unknown" and unparseable input "invalid".
func AnonymizeIP(ip string) string {
	if ip == "" || ip == "unknown" {
		return "unknown"
	}

	parsed := net.ParseIP(ip)
	if parsed == nil {
		return "invalid"
	}

	if v4 := parsed.To4(); v4 != nil {
		return fmt.Sprintf("%d.%d.%d.0", v4[0], v4[1], v4[2])
	}

	return fmt.Sprintf("%02x%02x:%02x%02x:%02x%02x::",
		parsed[0], parsed[1],
		parsed[2], parsed[3],
		parsed[4], parsed[5])
}

// EmailDomain returns the lower-cased domain of an address, or "" when the
// input is not an address. The local part never leaves this function.
func EmailDomain(email string) string {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		return ""
	}
	at := strings.LastIndexByte(addr.Address, '@')
	if at < 0 || at == len(addr.Address)-1 {
		return ""
	}
	return strings.ToLower(addr.Address[at+1:])
}

// UnknownDomain stands in for the domain of an address that does not parse.
const UnknownDomain = "unknown"

// ScrubEmail replaces an "email" entry in params with "email_domain".
// It reports whether params was changed.
func ScrubEmail(params map[string]any) bool {
	raw, ok := params["email"]
	if !ok {
		return false
	}
	delete(params, "email")
	domain := UnknownDomain
	if s, ok := raw.(string); ok {
		if d := EmailDomain(s); d != "" {
			domain = d
		}
	}
	params["email_domain"] = domain
	return true
}
