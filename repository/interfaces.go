// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sigtrack/sigtrack/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// BannerRepository defines operations for banners
type BannerRepository interface {
	Repository[models.Banner, models.BannerFilter]
	ByUUID(ctx context.Context, uid uuid.UUID) (*models.Banner, error)

	// IncrementClicks bumps current_clicks by exactly one as a single guarded
	// UPDATE, never exceeding max_clicks when it is set. It reports whether a
	// row was actually incremented, so callers can distinguish a capped banner
	// from a counted click without a read-modify-write cycle.
	IncrementClicks(ctx context.Context, bannerID uint) (bool, error)

	// TopByClicks lists banners with current_clicks > 0, highest first
	TopByClicks(ctx context.Context, limit int) ([]*models.Banner, error)
}

// AnalyticsEventRepository defines operations for the append-only event log.
// There are intentionally no update or delete operations.
type AnalyticsEventRepository interface {
	Repository[models.AnalyticsEvent, models.AnalyticsEventFilter]
	CountInWindow(ctx context.Context, eventType models.EventType, from, to time.Time) (int64, error)
	ListRecent(ctx context.Context, limit int) ([]*models.AnalyticsEvent, error)
	ListInWindow(ctx context.Context, from, to time.Time, limit int) ([]*models.AnalyticsEvent, error)
}

// CampaignRepository defines read operations for campaigns
type CampaignRepository interface {
	Repository[models.Campaign, models.CampaignFilter]
	ByUUID(ctx context.Context, uid uuid.UUID) (*models.Campaign, error)
}
