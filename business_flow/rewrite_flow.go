package businessflow

import (
	"context"

	"github.com/google/uuid"
	"github.com/sigtrack/sigtrack/app/dto"
	"github.com/sigtrack/sigtrack/repository"
	"github.com/sigtrack/sigtrack/rewriter"
)

// RewriteFlow prepares a banner's stored HTML for one recipient by routing
// its links and images through the tracking endpoints. The mail pipeline
// calls this once per recipient before embedding the banner in an outbound
// message. Internal flow, sits behind the API rate limiter.
type RewriteFlow interface {
	PrepareBanner(ctx context.Context, req *dto.RewriteRequest) (*dto.RewriteResponse, error)
}

type RewriteFlowImpl struct {
	bannerRepo repository.BannerRepository
	rw         *rewriter.Rewriter
}

func NewRewriteFlow(bannerRepo repository.BannerRepository, rw *rewriter.Rewriter) RewriteFlow {
	return &RewriteFlowImpl{
		bannerRepo: bannerRepo,
		rw:         rw,
	}
}

// PrepareBanner loads the banner and returns its tracked HTML. HTML that has
// been through the rewriter before is returned unchanged with AlreadyTracked
// set; the pixel defaults to on unless the request disables it.
func (f *RewriteFlowImpl) PrepareBanner(ctx context.Context, req *dto.RewriteRequest) (*dto.RewriteResponse, error) {
	uid, err := uuid.Parse(req.BannerUID)
	if err != nil {
		return nil, NewBusinessError("INVALID_BANNER_ID", "Invalid banner id", ErrInvalidBannerID)
	}

	banner, err := f.bannerRepo.ByUUID(ctx, uid)
	if err != nil {
		return nil, NewBusinessError("BANNER_LOOKUP_FAILED", "Failed to load banner", err)
	}
	if banner == nil {
		return nil, NewBusinessError("BANNER_NOT_FOUND", "Banner not found", ErrBannerNotFound)
	}

	includePixel := true
	if req.IncludePixel != nil {
		includePixel = *req.IncludePixel
	}

	if rewriter.IsTracked(banner.HTMLBody) {
		return &dto.RewriteResponse{
			BannerUID:      uid.String(),
			HTML:           banner.HTMLBody,
			AlreadyTracked: true,
		}, nil
	}

	return &dto.RewriteResponse{
		BannerUID: uid.String(),
		HTML:      f.rw.Rewrite(banner.HTMLBody, uid.String(), req.RecipientEmail, includePixel),
	}, nil
}
