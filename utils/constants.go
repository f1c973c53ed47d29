package utils

import (
	"time"
)

// ContextKey is the type for values stored on request contexts
type ContextKey string

// Request context keys set by handlers and read by flows
const (
	RequestIDKey  ContextKey = "request_id"
	UserAgentKey  ContextKey = "user_agent"
	IPAddressKey  ContextKey = "ip_address"
	ReferrerKey   ContextKey = "referrer"
	EndpointKey   ContextKey = "endpoint"
	TimeoutKey    ContextKey = "timeout"
	CancelFuncKey ContextKey = "cancel_func"
)

// Tracking constants
const (
	// BannerCacheTTL is how long a banner record is cached in Redis on the hot path
	BannerCacheTTL = 30 * time.Second

	// StoreTimeout bounds every store call made from the tracking endpoints
	StoreTimeout = 3 * time.Second

	// RecentEventsDefaultLimit is the default size of the raw activity feed
	RecentEventsDefaultLimit = 50

	// TopBannersDefaultLimit is the default size of the top-banner ranking
	TopBannersDefaultLimit = 10
)

// BannerCacheKey is the Redis key prefix for cached banner records
const BannerCacheKey = "banner:uid:"

// TransparentPixelGIF is a valid 1x1 transparent GIF, served by the view
// tracking endpoint no matter what happened internally.
var TransparentPixelGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, // GIF89a
	0x01, 0x00, 0x01, 0x00, 0x80, 0x00, 0x00, // 1x1, global color table
	0x00, 0x00, 0x00, 0xFF, 0xFF, 0xFF,
	0x21, 0xF9, 0x04, 0x01, 0x00, 0x00, 0x00, 0x00, // transparency on index 0
	0x2C, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00,
	0x02, 0x02, 0x44, 0x01, 0x00,
	0x3B,
}

// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
const CORSMaxAge = 86400

// AnalyticsWindows maps the dashboard window labels to durations
var AnalyticsWindows = map[string]time.Duration{
	"24h": 24 * time.Hour,
	"7d":  7 * 24 * time.Hour,
	"30d": 30 * 24 * time.Hour,
	"90d": 90 * 24 * time.Hour,
}
