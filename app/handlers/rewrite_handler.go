package handlers

import (
	"context"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/sigtrack/sigtrack/app/dto"
	businessflow "github.com/sigtrack/sigtrack/business_flow"
	"github.com/sigtrack/sigtrack/utils"
)

// RewriteHandlerInterface defines the contract for the banner preparation endpoint
type RewriteHandlerInterface interface {
	RewriteBanner(c fiber.Ctx) error
}

// RewriteHandler implements RewriteHandlerInterface
type RewriteHandler struct {
	flow      businessflow.RewriteFlow
	validator *validator.Validate
}

func NewRewriteHandler(flow businessflow.RewriteFlow) RewriteHandlerInterface {
	return &RewriteHandler{
		flow:      flow,
		validator: validator.New(),
	}
}

// ErrorResponse standard JSON error
func (h *RewriteHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

// SuccessResponse standard JSON success
func (h *RewriteHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// RewriteBanner returns a banner's HTML prepared for one recipient
// @Summary Rewrite banner HTML
// @Description Banner HTML with links and images routed through the tracking endpoints, ready to embed in an outbound email
// @Tags Banners
// @Accept json
// @Produce json
// @Param request body dto.RewriteRequest true "Rewrite request"
// @Success 200 {object} dto.APIResponse
// @Failure 400 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Failure 500 {object} dto.APIResponse
// @Router /api/v1/banners/rewrite [post]
func (h *RewriteHandler) RewriteBanner(c fiber.Ctx) error {
	var req dto.RewriteRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request format", "INVALID_REQUEST_FORMAT", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []map[string]string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, map[string]string{
				"field":   err.Field(),
				"message": getValidationErrorMessage(err),
			})
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	resp, err := h.flow.PrepareBanner(h.createRequestContext(c, "/api/v1/banners/rewrite"), &req)
	if err != nil {
		if businessflow.IsInvalidBannerID(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid banner id", "INVALID_BANNER_ID", nil)
		}
		if businessflow.IsBannerNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Banner not found", "BANNER_NOT_FOUND", nil)
		}
		log.Println("Banner rewrite failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to rewrite banner", "REWRITE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Banner rewritten", resp)
}

func (h *RewriteHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	timeout := 10 * time.Second
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}
