package businessflow

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigtrack/sigtrack/app/dto"
	"github.com/sigtrack/sigtrack/rewriter"
	"github.com/sigtrack/sigtrack/utils"
)

func newRewriteFlow(bannerRepo *fakeBannerRepo) RewriteFlow {
	return NewRewriteFlow(bannerRepo, rewriter.New(testDefaultURL))
}

func TestPrepareBanner_RewritesStoredHTML(t *testing.T) {
	banner := trackedBanner(nil)
	banner.HTMLBody = `<a href="https://shop.example.com/promo"><img src="https://cdn.example.com/b.png"></a>`
	flow := newRewriteFlow(newFakeBannerRepo(banner))

	resp, err := flow.PrepareBanner(context.Background(), &dto.RewriteRequest{
		BannerUID:      banner.UUID.String(),
		RecipientEmail: "alice@example.com",
	})

	require.NoError(t, err)
	assert.Equal(t, banner.UUID.String(), resp.BannerUID)
	assert.False(t, resp.AlreadyTracked)
	assert.Contains(t, resp.HTML, testDefaultURL+"/track/click?banner_id="+banner.UUID.String())
	assert.Contains(t, resp.HTML, "email=alice%40example.com")
	assert.Contains(t, resp.HTML, `data-original-href="https://shop.example.com/promo"`)
	assert.Contains(t, resp.HTML, testDefaultURL+"/track/view?banner_id="+banner.UUID.String())
	assert.True(t, rewriter.IsTracked(resp.HTML))
}

func TestPrepareBanner_PixelCanBeDisabled(t *testing.T) {
	banner := trackedBanner(nil)
	banner.HTMLBody = `<img src="https://cdn.example.com/b.png">`
	flow := newRewriteFlow(newFakeBannerRepo(banner))

	resp, err := flow.PrepareBanner(context.Background(), &dto.RewriteRequest{
		BannerUID:    banner.UUID.String(),
		IncludePixel: utils.ToPtr(false),
	})

	require.NoError(t, err)
	assert.NotContains(t, resp.HTML, "/track/view")
	assert.Contains(t, resp.HTML, "/track/click")
}

func TestPrepareBanner_AlreadyTrackedReturnedAsIs(t *testing.T) {
	banner := trackedBanner(nil)
	banner.HTMLBody = `<a href="https://sigtrack.example.com/track/click?banner_id=x">go</a><!--sigtrack:rewritten-->`
	flow := newRewriteFlow(newFakeBannerRepo(banner))

	resp, err := flow.PrepareBanner(context.Background(), &dto.RewriteRequest{BannerUID: banner.UUID.String()})

	require.NoError(t, err)
	assert.True(t, resp.AlreadyTracked)
	assert.Equal(t, banner.HTMLBody, resp.HTML)
}

func TestPrepareBanner_InvalidBannerID(t *testing.T) {
	flow := newRewriteFlow(newFakeBannerRepo())

	_, err := flow.PrepareBanner(context.Background(), &dto.RewriteRequest{BannerUID: "not-a-uuid"})

	require.Error(t, err)
	assert.True(t, IsInvalidBannerID(err))
}

func TestPrepareBanner_UnknownBanner(t *testing.T) {
	flow := newRewriteFlow(newFakeBannerRepo())

	_, err := flow.PrepareBanner(context.Background(), &dto.RewriteRequest{BannerUID: uuid.New().String()})

	require.Error(t, err)
	assert.True(t, IsBannerNotFound(err))
}

func TestPrepareBanner_LookupFailure(t *testing.T) {
	banner := trackedBanner(nil)
	repo := newFakeBannerRepo(banner)
	repo.lookupErr = errors.New("connection refused")
	flow := newRewriteFlow(repo)

	_, err := flow.PrepareBanner(context.Background(), &dto.RewriteRequest{BannerUID: banner.UUID.String()})

	require.Error(t, err)
	var be *BusinessError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "BANNER_LOOKUP_FAILED", be.Code)
}
