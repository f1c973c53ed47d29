package dto

// AnalyticsSummaryRequest selects the reporting window for totals and CTR
type AnalyticsSummaryRequest struct {
	Window string `json:"window" validate:"required,oneof=24h 7d 30d 90d"`
}

// AnalyticsSummaryResponse reports event totals over the requested window.
// ClickThroughRate is a percentage and is 0 when no views were recorded.
type AnalyticsSummaryResponse struct {
	Window           string  `json:"window"`
	From             string  `json:"from"`
	To               string  `json:"to"`
	TotalClicks      int64   `json:"total_clicks"`
	TotalViews       int64   `json:"total_views"`
	ClickThroughRate float64 `json:"click_through_rate"`
}

// BannerStatsDTO is one row of the top-banner ranking
type BannerStatsDTO struct {
	UUID          string  `json:"uuid"`
	Name          string  `json:"name"`
	CampaignID    *uint   `json:"campaign_id,omitempty"`
	CampaignName  *string `json:"campaign_name,omitempty"`
	CurrentClicks int64   `json:"current_clicks"`
	MaxClicks     *int64  `json:"max_clicks,omitempty"`
	Priority      int     `json:"priority"`
}

// TopBannersResponse ranks banners by lifetime clicks, highest first
type TopBannersResponse struct {
	Banners []BannerStatsDTO `json:"banners"`
}

// AnalyticsEventDTO is one row of the raw activity feed
type AnalyticsEventDTO struct {
	UUID           string  `json:"uuid"`
	EventType      string  `json:"event_type"`
	BannerID       *uint   `json:"banner_id,omitempty"`
	CampaignID     *uint   `json:"campaign_id,omitempty"`
	RecipientEmail *string `json:"recipient_email,omitempty"`
	UserAgent      *string `json:"user_agent,omitempty"`
	IP             *string `json:"ip,omitempty"`
	CreatedAt      string  `json:"created_at"`
}

// RecentEventsResponse is the raw activity feed, newest first
type RecentEventsResponse struct {
	Events []AnalyticsEventDTO `json:"events"`
}
