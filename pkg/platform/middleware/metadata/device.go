package metadata

import (
	"strings"

	"github.com/mssola/useragent"
)

// Device is the coarse device class reported on page views.
type Device struct {
	Browser  string
	OS       string
	Platform string
}

// Platform values.
const (
	PlatformDesktop = "desktop"
	PlatformMobile  = "mobile"
	PlatformBot     = "bot"
)

// ParseDevice classifies a User-Agent string. Unknown parts are reported as
// "unknown".
func ParseDevice(userAgent string) Device {
	if strings.TrimSpace(userAgent) == "" {
		return Device{Browser: "unknown", OS: "unknown", Platform: PlatformDesktop}
	}

	ua := useragent.New(userAgent)
	browser, _ := ua.Browser()

	platform := PlatformDesktop
	switch {
	case ua.Bot():
		platform = PlatformBot
	case ua.Mobile():
		platform = PlatformMobile
	}

	return Device{
		Browser:  orUnknown(browser),
		OS:       orUnknown(ua.OS()),
		Platform: platform,
	}
}

func orUnknown(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "unknown"
	}
	return s
}
