package businessflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigtrack/sigtrack/app/dto"
	"github.com/sigtrack/sigtrack/models"
	"github.com/sigtrack/sigtrack/utils"
)

func newViewFlow(bannerRepo *fakeBannerRepo, eventRepo *fakeEventRepo) ViewTrackingFlow {
	return NewViewTrackingFlow(bannerRepo, eventRepo, time.Second)
}

func TestRecordView_KnownBanner(t *testing.T) {
	banner := trackedBanner(nil)
	campaignID := uint(3)
	banner.CampaignID = &campaignID
	bannerRepo := newFakeBannerRepo(banner)
	eventRepo := newFakeEventRepo()
	flow := newViewFlow(bannerRepo, eventRepo)

	md := NewClientMetadata("192.0.2.1", "Thunderbird/115")
	md.SetReferrer("https://mail.example.com")

	err := flow.RecordView(context.Background(), &dto.ViewRequest{
		BannerUID:      banner.UUID.String(),
		RecipientEmail: "bob@example.com",
	}, md)
	require.NoError(t, err)

	events := eventRepo.byType(models.EventTypeView)
	require.Len(t, events, 1)
	require.NotNil(t, events[0].BannerID)
	assert.Equal(t, banner.ID, *events[0].BannerID)
	require.NotNil(t, events[0].CampaignID)
	assert.Equal(t, campaignID, *events[0].CampaignID)
	require.NotNil(t, events[0].Referrer)
	assert.Equal(t, "https://mail.example.com", *events[0].Referrer)
}

func TestRecordView_UnknownBannerStillRecorded(t *testing.T) {
	bannerRepo := newFakeBannerRepo()
	eventRepo := newFakeEventRepo()
	flow := newViewFlow(bannerRepo, eventRepo)

	err := flow.RecordView(context.Background(), &dto.ViewRequest{
		BannerUID: uuid.New().String(),
	}, NewClientMetadata("192.0.2.1", "Thunderbird/115"))
	require.NoError(t, err)

	events := eventRepo.byType(models.EventTypeView)
	require.Len(t, events, 1)
	assert.Nil(t, events[0].BannerID)
}

func TestRecordView_MalformedBannerIDStillRecorded(t *testing.T) {
	bannerRepo := newFakeBannerRepo()
	eventRepo := newFakeEventRepo()
	flow := newViewFlow(bannerRepo, eventRepo)

	err := flow.RecordView(context.Background(), &dto.ViewRequest{
		BannerUID: "garbage",
	}, NewClientMetadata("192.0.2.1", "Thunderbird/115"))
	require.NoError(t, err)
	assert.Len(t, eventRepo.byType(models.EventTypeView), 1)
}

func TestRecordView_NeverTouchesClickCounter(t *testing.T) {
	banner := trackedBanner(utils.ToPtr(int64(1)))
	bannerRepo := newFakeBannerRepo(banner)
	eventRepo := newFakeEventRepo()
	flow := newViewFlow(bannerRepo, eventRepo)

	for i := 0; i < 5; i++ {
		err := flow.RecordView(context.Background(), &dto.ViewRequest{
			BannerUID: banner.UUID.String(),
		}, NewClientMetadata("192.0.2.1", "Thunderbird/115"))
		require.NoError(t, err)
	}

	assert.Equal(t, int64(0), bannerRepo.clicks(banner.ID))
	assert.Len(t, eventRepo.byType(models.EventTypeView), 5)
}

func TestRecordView_SaveFailureSurfacesError(t *testing.T) {
	banner := trackedBanner(nil)
	bannerRepo := newFakeBannerRepo(banner)
	eventRepo := newFakeEventRepo()
	eventRepo.saveErr = errors.New("disk full")
	flow := newViewFlow(bannerRepo, eventRepo)

	err := flow.RecordView(context.Background(), &dto.ViewRequest{
		BannerUID: banner.UUID.String(),
	}, NewClientMetadata("192.0.2.1", "Thunderbird/115"))
	require.Error(t, err)

	var be *BusinessError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "EVENT_RECORD_FAILED", be.Code)
}
