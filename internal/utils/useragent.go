package utils

import (
	"strings"

	ua "github.com/mssola/user_agent"
	"github.com/smarttransit/rail-booking-core/internal/models"
)

// desktopAppMarkers identify the embedded browser of the ticket office desktop client
var desktopAppMarkers = []string{"javafx", "raildesk"}

// DeviceInfo holds parsed information from a User-Agent string
type DeviceInfo struct {
	DeviceType string `json:"device_type"` // mobile, desktop
	OS         string `json:"os"`
	Browser    string `json:"browser"`
	IsBot      bool   `json:"is_bot"`
}

// ParseUserAgent parses a User-Agent string and extracts device information
func ParseUserAgent(userAgent string) DeviceInfo {
	if strings.TrimSpace(userAgent) == "" {
		return DeviceInfo{DeviceType: "unknown", OS: "Unknown", Browser: "Unknown"}
	}

	parser := ua.New(userAgent)
	info := DeviceInfo{
		DeviceType: "desktop",
		OS:         parser.OS(),
		IsBot:      parser.Bot(),
	}
	if parser.Mobile() {
		info.DeviceType = "mobile"
	}
	if info.OS == "" {
		info.OS = "Unknown"
	}
	if name, _ := parser.Browser(); name != "" {
		info.Browser = name
	} else {
		info.Browser = "Unknown"
	}
	return info
}

// BookingChannel classifies where a booking came from for the ticket record
func BookingChannel(userAgent string) string {
	if strings.TrimSpace(userAgent) == "" {
		return models.ChannelUnknown
	}

	lower := strings.ToLower(userAgent)
	for _, marker := range desktopAppMarkers {
		if strings.Contains(lower, marker) {
			return models.ChannelDesktopApp
		}
	}

	info := ParseUserAgent(userAgent)
	switch {
	case info.IsBot:
		return models.ChannelUnknown
	case info.DeviceType == "mobile":
		return models.ChannelMobile
	default:
		return models.ChannelWeb
	}
}
