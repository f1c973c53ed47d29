package businessflow

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/sigtrack/sigtrack/app/dto"
	"github.com/sigtrack/sigtrack/models"
	"github.com/sigtrack/sigtrack/repository"
	"github.com/sigtrack/sigtrack/utils"
)

// ViewTrackingFlow records pixel impressions. The handler always answers
// with the transparent GIF no matter what happens here; the returned error
// only feeds logging.
type ViewTrackingFlow interface {
	RecordView(ctx context.Context, req *dto.ViewRequest, metadata *ClientMetadata) error
}

type ViewTrackingFlowImpl struct {
	bannerRepo   repository.BannerRepository
	eventRepo    repository.AnalyticsEventRepository
	storeTimeout time.Duration
}

func NewViewTrackingFlow(
	bannerRepo repository.BannerRepository,
	eventRepo repository.AnalyticsEventRepository,
	storeTimeout time.Duration,
) ViewTrackingFlow {
	if storeTimeout <= 0 {
		storeTimeout = utils.StoreTimeout
	}
	return &ViewTrackingFlowImpl{
		bannerRepo:   bannerRepo,
		eventRepo:    eventRepo,
		storeTimeout: storeTimeout,
	}
}

// RecordView stores a view event. Views are not capped and never change the
// click counter. An unknown or malformed banner id still produces an event,
// just without a banner reference, so bounce-like traffic stays visible.
func (f *ViewTrackingFlowImpl) RecordView(ctx context.Context, req *dto.ViewRequest, metadata *ClientMetadata) error {
	ctx, cancel := context.WithTimeout(ctx, f.storeTimeout)
	defer cancel()

	var banner *models.Banner
	uid, err := uuid.Parse(req.BannerUID)
	if err != nil {
		log.Printf("View with invalid banner id %q: %v", req.BannerUID, err)
	} else {
		banner, err = f.bannerRepo.ByUUID(ctx, uid)
		if err != nil {
			log.Printf("Banner lookup failed for %s: %v", uid, err)
			banner = nil
		}
	}

	ev := newEvent(models.EventTypeView, banner, req.RecipientEmail, metadata)
	if err := f.eventRepo.Save(ctx, ev); err != nil {
		return NewBusinessError("EVENT_RECORD_FAILED", "Failed to record view event", err)
	}
	return nil
}
