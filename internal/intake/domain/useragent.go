package domain

import "strings"

// ClientInfo is the coarse device fingerprint derived from a user agent.
type ClientInfo struct {
	Browser    string
	DeviceType string
	OS         string
}

// ParseUserAgent derives browser, device type, and operating system from a
// raw user-agent string using ordered substring checks (first match wins).
func ParseUserAgent(userAgent string) ClientInfo {
	return ClientInfo{
		Browser:    BrowserFromUserAgent(userAgent),
		DeviceType: DeviceTypeFromUserAgent(userAgent),
		OS:         OSFromUserAgent(userAgent),
	}
}

// BrowserFromUserAgent returns a coarse browser name.
// Check order matters: Chrome UAs contain "Safari", Edge UAs contain "Chrome".
func BrowserFromUserAgent(userAgent string) string {
	switch {
	case strings.Contains(userAgent, "Chrome"):
		return "Chrome"
	case strings.Contains(userAgent, "Firefox"):
		return "Firefox"
	case strings.Contains(userAgent, "Safari"):
		return "Safari"
	case strings.Contains(userAgent, "Edge"):
		return "Edge"
	case strings.Contains(userAgent, "MSIE"), strings.Contains(userAgent, "Trident"):
		return "Internet Explorer"
	default:
		return "Unknown"
	}
}

// DeviceTypeFromUserAgent classifies the device as mobile, tablet, or desktop.
func DeviceTypeFromUserAgent(userAgent string) string {
	switch {
	case strings.Contains(userAgent, "Mobile"):
		return "mobile"
	case strings.Contains(userAgent, "Tablet"):
		return "tablet"
	default:
		return "desktop"
	}
}

// OSFromUserAgent returns a coarse operating system name.
func OSFromUserAgent(userAgent string) string {
	switch {
	case strings.Contains(userAgent, "Windows"):
		return "Windows"
	case strings.Contains(userAgent, "Mac"):
		return "macOS"
	case strings.Contains(userAgent, "Linux"):
		return "Linux"
	case strings.Contains(userAgent, "Android"):
		return "Android"
	case strings.Contains(userAgent, "iOS"),
		strings.Contains(userAgent, "iPhone"),
		strings.Contains(userAgent, "iPad"):
		return "iOS"
	default:
		return "Unknown"
	}
}

// ClientIP applies the server-side IP extraction policy: first entry of
// X-Forwarded-For, then X-Real-IP, else loopback.
func ClientIP(forwardedFor, realIP string) string {
	if forwardedFor != "" {
		first := strings.TrimSpace(strings.Split(forwardedFor, ",")[0])
		if first != "" {
			return first
		}
	}
	if realIP != "" {
		return realIP
	}
	return "127.0.0.1"
}
