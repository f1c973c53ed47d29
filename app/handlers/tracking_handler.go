package handlers

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/sigtrack/sigtrack/app/dto"
	"github.com/sigtrack/sigtrack/app/middleware"
	businessflow "github.com/sigtrack/sigtrack/business_flow"
	"github.com/sigtrack/sigtrack/utils"
)

// TrackingHandlerInterface defines the contract for the public tracking endpoints
type TrackingHandlerInterface interface {
	Click(c fiber.Ctx) error
	View(c fiber.Ctx) error
}

// TrackingHandler serves the endpoints hit from inside recipients' mail
// clients. Both endpoints are terminal for the user: Click always redirects
// and View always answers with the pixel, whatever happens underneath.
type TrackingHandler struct {
	clickFlow businessflow.ClickTrackingFlow
	viewFlow  businessflow.ViewTrackingFlow
}

func NewTrackingHandler(clickFlow businessflow.ClickTrackingFlow, viewFlow businessflow.ViewTrackingFlow) TrackingHandlerInterface {
	return &TrackingHandler{
		clickFlow: clickFlow,
		viewFlow:  viewFlow,
	}
}

// Click resolves a tracked click and redirects to the banner's target
// @Summary Resolve tracked click
// @Description Records the click, bumps the banner counter when eligible and redirects to the click-through target. Always answers with a redirect.
// @Tags Tracking
// @Param banner_id query string true "Banner UID"
// @Param email query string false "Recipient email"
// @Success 302 {string} string "Redirect"
// @Router /track/click [get]
func (h *TrackingHandler) Click(c fiber.Ctx) error {
	req := &dto.ClickRequest{
		BannerUID:      c.Query("banner_id"),
		RecipientEmail: c.Query("email"),
	}

	res := h.clickFlow.ResolveClick(h.createRequestContext(c, "/track/click"), req, h.clientMetadata(c))
	middleware.RecordClick(res.Counted)
	c.Redirect().Status(fiber.StatusFound).To(res.RedirectURL)
	return nil
}

// View records a banner impression and serves the tracking pixel
// @Summary Record banner view
// @Description Records a view event for the banner and answers with a 1x1 transparent GIF. Always answers 200.
// @Tags Tracking
// @Param banner_id query string false "Banner UID"
// @Param email query string false "Recipient email"
// @Produce gif
// @Success 200 {string} binary "Transparent pixel"
// @Router /track/view [get]
func (h *TrackingHandler) View(c fiber.Ctx) error {
	req := &dto.ViewRequest{
		BannerUID:      c.Query("banner_id"),
		RecipientEmail: c.Query("email"),
	}

	if err := h.viewFlow.RecordView(h.createRequestContext(c, "/track/view"), req, h.clientMetadata(c)); err != nil {
		log.Println("Record view failed", err)
	}
	middleware.RecordView()

	// Mail clients cache images aggressively; without no-store a recipient
	// reopening the mail would produce no further view events.
	c.Set(fiber.HeaderContentType, "image/gif")
	c.Set(fiber.HeaderCacheControl, "no-store, no-cache, must-revalidate, private")
	c.Set(fiber.HeaderPragma, "no-cache")
	c.Set(fiber.HeaderExpires, "0")
	return c.Status(fiber.StatusOK).Send(utils.TransparentPixelGIF)
}

func (h *TrackingHandler) clientMetadata(c fiber.Ctx) *businessflow.ClientMetadata {
	md := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	md.SetReferrer(c.Get("Referer"))
	md.SetRequestID(c.Get("X-Request-ID"))
	return md
}

func (h *TrackingHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 10*time.Second)
}

func (h *TrackingHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}
