// Package device turns a User-Agent header into a short label for audit
// records, e.g. "Safari on iPhone".
package device

import (
	"strings"

	"github.com/mssola/useragent"
)

const unknown = "Unknown Device"

// DisplayName labels the browser and operating system behind userAgent.
func DisplayName(userAgent string) string {
	userAgent = strings.TrimSpace(userAgent)
	if userAgent == "" {
		return unknown
	}

	ua := useragent.New(userAgent)
	browser, _ := ua.Browser()
	if browser == "" {
		browser = "Unknown Browser"
	}
	return browser + " on " + platformName(ua)
}

// IsMobile reports whether userAgent belongs to a phone or tablet browser.
func IsMobile(userAgent string) bool {
	if strings.TrimSpace(userAgent) == "" {
		return false
	}
	return useragent.New(userAgent).Mobile()
}

func platformName(ua *useragent.UserAgent) string {
	if ua.Mobile() {
		if platform := ua.Platform(); platform != "" {
			return platform
		}
	}
	if info := ua.OSInfo(); info.Name != "" {
		return strings.TrimSpace(info.Name + " " + info.Version)
	}
	if os := ua.OS(); os != "" {
		return os
	}
	return "Unknown OS"
}
