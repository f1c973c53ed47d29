package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigtrack/sigtrack/app/dto"
	businessflow "github.com/sigtrack/sigtrack/business_flow"
)

type stubRewriteFlow struct {
	resp    *dto.RewriteResponse
	err     error
	lastReq *dto.RewriteRequest
}

func (s *stubRewriteFlow) PrepareBanner(ctx context.Context, req *dto.RewriteRequest) (*dto.RewriteResponse, error) {
	s.lastReq = req
	return s.resp, s.err
}

func newRewriteApp(flow *stubRewriteFlow) *fiber.App {
	app := fiber.New()
	h := NewRewriteHandler(flow)
	app.Post("/api/v1/banners/rewrite", h.RewriteBanner)
	return app
}

func TestRewriteEndpoint(t *testing.T) {
	flow := &stubRewriteFlow{resp: &dto.RewriteResponse{
		BannerUID: "3c8f2a44-1db2-4f0e-9a25-64c6b9e7f001",
		HTML:      `<a href="https://t/track/click?banner_id=x">go</a><!--sigtrack:rewritten-->`,
	}}
	app := newRewriteApp(flow)

	body, err := json.Marshal(dto.RewriteRequest{
		BannerUID:      "3c8f2a44-1db2-4f0e-9a25-64c6b9e7f001",
		RecipientEmail: "alice@example.com",
	})
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/api/v1/banners/rewrite", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NotNil(t, flow.lastReq)
	assert.Equal(t, "alice@example.com", flow.lastReq.RecipientEmail)

	var out dto.APIResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.True(t, out.Success)
}

func TestRewriteEndpoint_MissingBannerID(t *testing.T) {
	flow := &stubRewriteFlow{}
	app := newRewriteApp(flow)

	req := httptest.NewRequest("POST", "/api/v1/banners/rewrite", bytes.NewReader([]byte(`{"recipient_email":"alice@example.com"}`)))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Nil(t, flow.lastReq)

	var out errorEnvelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "VALIDATION_ERROR", out.Error.Code)
}

func TestRewriteEndpoint_InvalidEmail(t *testing.T) {
	flow := &stubRewriteFlow{}
	app := newRewriteApp(flow)

	req := httptest.NewRequest("POST", "/api/v1/banners/rewrite",
		bytes.NewReader([]byte(`{"banner_id":"3c8f2a44-1db2-4f0e-9a25-64c6b9e7f001","recipient_email":"not-an-email"}`)))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestRewriteEndpoint_BannerNotFound(t *testing.T) {
	flow := &stubRewriteFlow{err: businessflow.NewBusinessError("BANNER_NOT_FOUND", "Banner not found", businessflow.ErrBannerNotFound)}
	app := newRewriteApp(flow)

	req := httptest.NewRequest("POST", "/api/v1/banners/rewrite",
		bytes.NewReader([]byte(`{"banner_id":"3c8f2a44-1db2-4f0e-9a25-64c6b9e7f001"}`)))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	var out errorEnvelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "BANNER_NOT_FOUND", out.Error.Code)
}

func TestRewriteEndpoint_MalformedJSON(t *testing.T) {
	flow := &stubRewriteFlow{}
	app := newRewriteApp(flow)

	req := httptest.NewRequest("POST", "/api/v1/banners/rewrite", bytes.NewReader([]byte(`{not json`)))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
