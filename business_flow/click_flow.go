package businessflow

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sigtrack/sigtrack/app/dto"
	"github.com/sigtrack/sigtrack/models"
	"github.com/sigtrack/sigtrack/repository"
	"github.com/sigtrack/sigtrack/utils"
)

// ClickTrackingFlow resolves a tracked click to its redirect target while
// recording the interaction. The flow is invoked straight from a recipient's
// mail client with no opportunity to render an error page, so ResolveClick
// never fails: every internal problem degrades to the default redirect and a
// log line. Public flow, no authentication required.
type ClickTrackingFlow interface {
	ResolveClick(ctx context.Context, req *dto.ClickRequest, metadata *ClientMetadata) *dto.ClickResolution
}

type ClickTrackingFlowImpl struct {
	bannerRepo   repository.BannerRepository
	eventRepo    repository.AnalyticsEventRepository
	rc           *redis.Client
	defaultURL   string
	storeTimeout time.Duration
	cacheTTL     time.Duration
}

func NewClickTrackingFlow(
	bannerRepo repository.BannerRepository,
	eventRepo repository.AnalyticsEventRepository,
	rc *redis.Client,
	defaultURL string,
	storeTimeout time.Duration,
	cacheTTL time.Duration,
) ClickTrackingFlow {
	if storeTimeout <= 0 {
		storeTimeout = utils.StoreTimeout
	}
	if cacheTTL <= 0 {
		cacheTTL = utils.BannerCacheTTL
	}
	return &ClickTrackingFlowImpl{
		bannerRepo:   bannerRepo,
		eventRepo:    eventRepo,
		rc:           rc,
		defaultURL:   defaultURL,
		storeTimeout: storeTimeout,
		cacheTTL:     cacheTTL,
	}
}

// ResolveClick implements the click contract:
//
//  1. resolve the banner; unknown or unparseable ids fall back to the
//     default redirect, with the attempt still recorded
//  2. evaluate eligibility; a capped banner still redirects (the user
//     already clicked, failing the navigation is worse), only counting stops
//  3. record a click event for every attempt, cap state included
//  4. bump the counter through the store's atomic guarded increment
//  5. hand back the redirect target
//
// Event-recording failures never block the redirect.
func (f *ClickTrackingFlowImpl) ResolveClick(ctx context.Context, req *dto.ClickRequest, metadata *ClientMetadata) *dto.ClickResolution {
	res := &dto.ClickResolution{RedirectURL: f.defaultURL}

	ctx, cancel := context.WithTimeout(ctx, f.storeTimeout)
	defer cancel()

	uid, err := uuid.Parse(req.BannerUID)
	if err != nil {
		log.Printf("Click with invalid banner id %q: %v", req.BannerUID, err)
		f.recordClick(ctx, nil, req.RecipientEmail, metadata)
		return res
	}

	banner, err := f.lookupBanner(ctx, uid)
	if err != nil {
		log.Printf("Banner lookup failed for %s: %v", uid, err)
		f.recordClick(ctx, nil, req.RecipientEmail, metadata)
		return res
	}
	if banner == nil {
		log.Printf("Click for unknown banner %s", uid)
		f.recordClick(ctx, nil, req.RecipientEmail, metadata)
		return res
	}

	verdict := EvaluateEligibility(banner, utils.UTCNow(), nil)
	res.Eligibility = verdict.String()

	if banner.ClickURL != nil && *banner.ClickURL != "" {
		res.RedirectURL = *banner.ClickURL
	}

	// Every click attempt stays observable in analytics, capped or not
	f.recordClick(ctx, banner, req.RecipientEmail, metadata)

	// The WHERE guard inside IncrementClicks keeps the counter at the cap
	// under concurrent requests; a capped banner simply matches no row.
	if verdict == EligibilityEligible || verdict == EligibilityCapReached {
		counted, err := f.bannerRepo.IncrementClicks(ctx, banner.ID)
		if err != nil {
			log.Printf("Click increment failed for banner %d: %v", banner.ID, err)
		} else {
			res.Counted = counted
		}
	}

	return res
}

func (f *ClickTrackingFlowImpl) recordClick(ctx context.Context, banner *models.Banner, recipientEmail string, metadata *ClientMetadata) {
	ev := newEvent(models.EventTypeClick, banner, recipientEmail, metadata)
	if err := f.eventRepo.Save(ctx, ev); err != nil {
		log.Printf("Failed to record click event %s: %v", ev.UUID, err)
	}
}

// lookupBanner serves repeat lookups from Redis within a short TTL before
// falling through to the store. Counter staleness inside the TTL only delays
// the CapReached verdict; the increment itself is guarded in the store, so
// the cap is never exceeded.
func (f *ClickTrackingFlowImpl) lookupBanner(ctx context.Context, uid uuid.UUID) (*models.Banner, error) {
	key := utils.BannerCacheKey + uid.String()

	if f.rc != nil {
		if data, err := f.rc.Get(ctx, key).Bytes(); err == nil {
			var cached models.Banner
			if err := json.Unmarshal(data, &cached); err == nil {
				return &cached, nil
			}
		}
	}

	banner, err := f.bannerRepo.ByUUID(ctx, uid)
	if err != nil || banner == nil {
		return banner, err
	}

	if f.rc != nil {
		if data, err := json.Marshal(banner); err == nil {
			if err := f.rc.Set(ctx, key, data, f.cacheTTL).Err(); err != nil {
				log.Printf("Failed to cache banner %s: %v", uid, err)
			}
		}
	}

	return banner, nil
}
