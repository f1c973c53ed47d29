package businessflow

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/sigtrack/sigtrack/app/dto"
	"github.com/sigtrack/sigtrack/models"
	"github.com/sigtrack/sigtrack/repository"
	"github.com/sigtrack/sigtrack/utils"
	"github.com/xuri/excelize/v2"
)

// AnalyticsFlow aggregates the event log into reporting views. Every read is
// bounded by a named window or an explicit limit; there is no unbounded scan.
type AnalyticsFlow interface {
	GetSummary(ctx context.Context, req *dto.AnalyticsSummaryRequest) (*dto.AnalyticsSummaryResponse, error)
	TopBanners(ctx context.Context, limit int) (*dto.TopBannersResponse, error)
	RecentEvents(ctx context.Context, limit int) (*dto.RecentEventsResponse, error)
	ExportEvents(ctx context.Context, window string) (string, []byte, error)
}

type AnalyticsFlowImpl struct {
	bannerRepo   repository.BannerRepository
	eventRepo    repository.AnalyticsEventRepository
	campaignRepo repository.CampaignRepository
}

func NewAnalyticsFlow(
	bannerRepo repository.BannerRepository,
	eventRepo repository.AnalyticsEventRepository,
	campaignRepo repository.CampaignRepository,
) AnalyticsFlow {
	return &AnalyticsFlowImpl{
		bannerRepo:   bannerRepo,
		eventRepo:    eventRepo,
		campaignRepo: campaignRepo,
	}
}

func windowBounds(window string) (time.Time, time.Time, error) {
	d, ok := utils.AnalyticsWindows[window]
	if !ok {
		return time.Time{}, time.Time{}, NewBusinessError("ANALYTICS_QUERY_FAILED", fmt.Sprintf("Unknown analytics window %q", window), ErrUnknownWindow)
	}
	to := utils.UTCNow()
	return to.Add(-d), to, nil
}

// GetSummary totals clicks and views over the window and derives CTR as
// clicks per hundred views. With zero views the rate is reported as 0 rather
// than dividing.
func (f *AnalyticsFlowImpl) GetSummary(ctx context.Context, req *dto.AnalyticsSummaryRequest) (*dto.AnalyticsSummaryResponse, error) {
	from, to, err := windowBounds(req.Window)
	if err != nil {
		return nil, err
	}

	clicks, err := f.eventRepo.CountInWindow(ctx, models.EventTypeClick, from, to)
	if err != nil {
		return nil, NewBusinessError("ANALYTICS_QUERY_FAILED", "Failed to count clicks", err)
	}
	views, err := f.eventRepo.CountInWindow(ctx, models.EventTypeView, from, to)
	if err != nil {
		return nil, NewBusinessError("ANALYTICS_QUERY_FAILED", "Failed to count views", err)
	}

	var ctr float64
	if views > 0 {
		ctr = float64(clicks) / float64(views) * 100
	}

	return &dto.AnalyticsSummaryResponse{
		Window:           req.Window,
		From:             from.Format(time.RFC3339),
		To:               to.Format(time.RFC3339),
		TotalClicks:      clicks,
		TotalViews:       views,
		ClickThroughRate: ctr,
	}, nil
}

// TopBanners ranks banners by lifetime click count, highest first. Banners
// that never received a click are left out of the ranking.
func (f *AnalyticsFlowImpl) TopBanners(ctx context.Context, limit int) (*dto.TopBannersResponse, error) {
	if limit <= 0 {
		limit = utils.TopBannersDefaultLimit
	}
	banners, err := f.bannerRepo.TopByClicks(ctx, limit)
	if err != nil {
		return nil, NewBusinessError("ANALYTICS_QUERY_FAILED", "Failed to rank banners", err)
	}

	resp := &dto.TopBannersResponse{Banners: make([]dto.BannerStatsDTO, 0, len(banners))}
	campaignNames := map[uint]*string{}
	for _, b := range banners {
		row := dto.BannerStatsDTO{
			UUID:          b.UUID.String(),
			Name:          b.Name,
			CampaignID:    b.CampaignID,
			CurrentClicks: b.CurrentClicks,
			MaxClicks:     b.MaxClicks,
			Priority:      b.Priority,
		}
		if b.CampaignID != nil {
			name, ok := campaignNames[*b.CampaignID]
			if !ok {
				name = f.campaignName(ctx, *b.CampaignID)
				campaignNames[*b.CampaignID] = name
			}
			row.CampaignName = name
		}
		resp.Banners = append(resp.Banners, row)
	}
	return resp, nil
}

// campaignName is best-effort enrichment; a failed lookup leaves the row
// without a name rather than failing the ranking
func (f *AnalyticsFlowImpl) campaignName(ctx context.Context, campaignID uint) *string {
	campaign, err := f.campaignRepo.ByID(ctx, campaignID)
	if err != nil || campaign == nil {
		return nil
	}
	return &campaign.Name
}

// RecentEvents lists the raw activity feed, newest first
func (f *AnalyticsFlowImpl) RecentEvents(ctx context.Context, limit int) (*dto.RecentEventsResponse, error) {
	if limit <= 0 {
		limit = utils.RecentEventsDefaultLimit
	}
	events, err := f.eventRepo.ListRecent(ctx, limit)
	if err != nil {
		return nil, NewBusinessError("ANALYTICS_QUERY_FAILED", "Failed to list recent events", err)
	}

	resp := &dto.RecentEventsResponse{Events: make([]dto.AnalyticsEventDTO, 0, len(events))}
	for _, ev := range events {
		resp.Events = append(resp.Events, dto.AnalyticsEventDTO{
			UUID:           ev.UUID.String(),
			EventType:      ev.EventType.String(),
			BannerID:       ev.BannerID,
			CampaignID:     ev.CampaignID,
			RecipientEmail: ev.RecipientEmail,
			UserAgent:      ev.UserAgent,
			IP:             ev.IP,
			CreatedAt:      ev.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return resp, nil
}

// ExportEvents builds an Excel workbook of the window's events, one sheet per
// event type, and returns the suggested filename with the file bytes.
func (f *AnalyticsFlowImpl) ExportEvents(ctx context.Context, window string) (string, []byte, error) {
	from, to, err := windowBounds(window)
	if err != nil {
		return "", nil, err
	}

	events, err := f.eventRepo.ListInWindow(ctx, from, to, 0)
	if err != nil {
		return "", nil, NewBusinessError("EXPORT_FAILED", "Failed to fetch events for export", err)
	}

	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	byType := map[models.EventType][]*models.AnalyticsEvent{}
	for _, ev := range events {
		byType[ev.EventType] = append(byType[ev.EventType], ev)
	}

	sheets := []struct {
		name string
		typ  models.EventType
	}{
		{"clicks", models.EventTypeClick},
		{"views", models.EventTypeView},
	}
	for i, sheet := range sheets {
		if i == 0 {
			xl.SetSheetName(xl.GetSheetName(0), sheet.name)
		} else {
			_, _ = xl.NewSheet(sheet.name)
		}

		header := []string{"uuid", "event_type", "banner_id", "campaign_id", "recipient_email", "user_agent", "referrer", "ip", "created_at"}
		_ = xl.SetSheetRow(sheet.name, "A1", &header)

		for ri, ev := range byType[sheet.typ] {
			bannerID := ""
			if ev.BannerID != nil {
				bannerID = strconv.FormatUint(uint64(*ev.BannerID), 10)
			}
			campaignID := ""
			if ev.CampaignID != nil {
				campaignID = strconv.FormatUint(uint64(*ev.CampaignID), 10)
			}
			email := ""
			if ev.RecipientEmail != nil {
				email = *ev.RecipientEmail
			}
			ua := ""
			if ev.UserAgent != nil {
				ua = *ev.UserAgent
			}
			ref := ""
			if ev.Referrer != nil {
				ref = *ev.Referrer
			}
			ip := ""
			if ev.IP != nil {
				ip = *ev.IP
			}
			record := []string{
				ev.UUID.String(),
				ev.EventType.String(),
				bannerID,
				campaignID,
				email,
				ua,
				ref,
				ip,
				ev.CreatedAt.UTC().Format(time.RFC3339),
			}
			cellRef, _ := excelize.CoordinatesToCellName(1, ri+2)
			_ = xl.SetSheetRow(sheet.name, cellRef, &record)
		}
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return "", nil, NewBusinessError("EXPORT_FAILED", "Failed to write Excel file", err)
	}
	filename := fmt.Sprintf("banner_events_%s.xlsx", window)
	return filename, buf.Bytes(), nil
}
