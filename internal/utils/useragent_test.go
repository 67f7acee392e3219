package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/smarttransit/rail-booking-core/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestBookingChannel(t *testing.T) {
	tests := []struct {
		name      string
		userAgent string
		want      string
	}{
		{"Empty", "", models.ChannelUnknown},
		{
			"Desktop Chrome",
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			models.ChannelWeb,
		},
		{
			"Android Phone",
			"Mozilla/5.0 (Linux; Android 13; Pixel 7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36",
			models.ChannelMobile,
		},
		{
			"iPhone",
			"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1",
			models.ChannelMobile,
		},
		{
			"Desktop Client WebView",
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/605.1.15 (KHTML, like Gecko) JavaFX/21 Safari/605.1.15",
			models.ChannelDesktopApp,
		},
		{
			"Crawler",
			"Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)",
			models.ChannelUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BookingChannel(tt.userAgent))
		})
	}
}

func TestParseUserAgent_Empty(t *testing.T) {
	info := ParseUserAgent("")
	assert.Equal(t, "unknown", info.DeviceType)
	assert.Equal(t, "Unknown", info.Browser)
}

func TestGetRealIP(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name      string
		realIP    string
		forwarded string
		want      string
	}{
		{"Public X-Real-IP", "203.0.113.7", "", "203.0.113.7"},
		{"First Public Forwarded", "", "10.0.0.4, 198.51.100.2, 203.0.113.9", "198.51.100.2"},
		{"Only Private Forwarded", "10.1.1.1", "192.168.1.5, 10.0.0.1", "192.168.1.5"},
		{"Fallback To Remote Addr", "", "", "192.0.2.1"},
		// headers are taken as sent; the remote address is not a trusted proxy
		{"Unverified Header Wins Over Remote Addr", "198.51.100.200", "", "198.51.100.200"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest("GET", "/", nil)
			if tt.realIP != "" {
				c.Request.Header.Set("X-Real-IP", tt.realIP)
			}
			if tt.forwarded != "" {
				c.Request.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			assert.Equal(t, tt.want, GetRealIP(c))
		})
	}
}
