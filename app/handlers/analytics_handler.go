package handlers

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/sigtrack/sigtrack/app/dto"
	businessflow "github.com/sigtrack/sigtrack/business_flow"
	"github.com/sigtrack/sigtrack/utils"
)

// AnalyticsHandlerInterface defines the contract for the reporting endpoints
type AnalyticsHandlerInterface interface {
	Summary(c fiber.Ctx) error
	TopBanners(c fiber.Ctx) error
	RecentEvents(c fiber.Ctx) error
	ExportEvents(c fiber.Ctx) error
}

// AnalyticsHandler implements AnalyticsHandlerInterface
type AnalyticsHandler struct {
	flow      businessflow.AnalyticsFlow
	validator *validator.Validate
}

func NewAnalyticsHandler(flow businessflow.AnalyticsFlow) AnalyticsHandlerInterface {
	return &AnalyticsHandler{
		flow:      flow,
		validator: validator.New(),
	}
}

// ErrorResponse standard JSON error
func (h *AnalyticsHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
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
func (h *AnalyticsHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Summary reports totals and CTR over a named window
// @Summary Analytics summary
// @Description Click and view totals plus click-through rate over the requested window
// @Tags Analytics
// @Produce json
// @Param window query string true "Reporting window" Enums(24h, 7d, 30d, 90d)
// @Success 200 {object} dto.APIResponse
// @Failure 400 {object} dto.APIResponse
// @Failure 500 {object} dto.APIResponse
// @Router /api/v1/analytics/summary [get]
func (h *AnalyticsHandler) Summary(c fiber.Ctx) error {
	req := &dto.AnalyticsSummaryRequest{Window: c.Query("window", "24h")}

	if err := h.validator.Struct(req); err != nil {
		var validationErrors []map[string]string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, map[string]string{
				"field":   err.Field(),
				"message": getValidationErrorMessage(err),
			})
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	resp, err := h.flow.GetSummary(h.createRequestContext(c, "/api/v1/analytics/summary"), req)
	if err != nil {
		log.Println("Analytics summary failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to build analytics summary", "ANALYTICS_QUERY_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Analytics summary", resp)
}

// TopBanners ranks banners by lifetime click count
// @Summary Top banners
// @Description Banners ranked by lifetime clicks, highest first
// @Tags Analytics
// @Produce json
// @Param limit query int false "Maximum rows" default(10)
// @Success 200 {object} dto.APIResponse
// @Failure 400 {object} dto.APIResponse
// @Failure 500 {object} dto.APIResponse
// @Router /api/v1/analytics/banners/top [get]
func (h *AnalyticsHandler) TopBanners(c fiber.Ctx) error {
	limit, err := parseLimit(c.Query("limit"), utils.TopBannersDefaultLimit)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), "VALIDATION_ERROR", nil)
	}

	resp, err := h.flow.TopBanners(h.createRequestContext(c, "/api/v1/analytics/banners/top"), limit)
	if err != nil {
		log.Println("Top banners failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to rank banners", "ANALYTICS_QUERY_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Top banners", resp)
}

// RecentEvents lists the raw activity feed, newest first
// @Summary Recent events
// @Description Raw click and view events, newest first
// @Tags Analytics
// @Produce json
// @Param limit query int false "Maximum rows" default(50)
// @Success 200 {object} dto.APIResponse
// @Failure 400 {object} dto.APIResponse
// @Failure 500 {object} dto.APIResponse
// @Router /api/v1/analytics/events/recent [get]
func (h *AnalyticsHandler) RecentEvents(c fiber.Ctx) error {
	limit, err := parseLimit(c.Query("limit"), utils.RecentEventsDefaultLimit)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), "VALIDATION_ERROR", nil)
	}

	resp, err := h.flow.RecentEvents(h.createRequestContext(c, "/api/v1/analytics/events/recent"), limit)
	if err != nil {
		log.Println("Recent events failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list events", "ANALYTICS_QUERY_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Recent events", resp)
}

// ExportEvents downloads the window's events as an Excel workbook
// @Summary Export events
// @Description Excel workbook of all events in the window, one sheet per event type
// @Tags Analytics
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param window query string true "Reporting window" Enums(24h, 7d, 30d, 90d)
// @Success 200 {string} binary "Excel file"
// @Failure 400 {object} dto.APIResponse
// @Failure 500 {object} dto.APIResponse
// @Router /api/v1/analytics/events/export [get]
func (h *AnalyticsHandler) ExportEvents(c fiber.Ctx) error {
	window := c.Query("window", "24h")

	filename, data, err := h.flow.ExportEvents(h.createRequestContextWithTimeout(c, "/api/v1/analytics/events/export", 60*time.Second), window)
	if err != nil {
		if businessflow.IsUnknownWindow(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Unknown reporting window", "VALIDATION_ERROR", nil)
		}
		log.Println("Export events failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to export events", "EXPORT_FAILED", nil)
	}

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Status(fiber.StatusOK).Send(data)
}

func parseLimit(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 || limit > 500 {
		return 0, businessflow.ErrInvalidLimit
	}
	return limit, nil
}

func (h *AnalyticsHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 10*time.Second)
}

func (h *AnalyticsHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}
