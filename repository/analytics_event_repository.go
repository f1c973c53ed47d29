package repository

import (
	"context"
	"errors"
	"time"

	"github.com/sigtrack/sigtrack/models"
	"gorm.io/gorm"
)

// AnalyticsEventRepositoryImpl implements AnalyticsEventRepository
type AnalyticsEventRepositoryImpl struct {
	*BaseRepository[models.AnalyticsEvent, models.AnalyticsEventFilter]
}

func NewAnalyticsEventRepository(db *gorm.DB) AnalyticsEventRepository {
	return &AnalyticsEventRepositoryImpl{BaseRepository: NewBaseRepository[models.AnalyticsEvent, models.AnalyticsEventFilter](db)}
}

func (r *AnalyticsEventRepositoryImpl) ByID(ctx context.Context, id uint) (*models.AnalyticsEvent, error) {
	db := r.getDB(ctx)
	var row models.AnalyticsEvent
	if err := db.Last(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *AnalyticsEventRepositoryImpl) applyFilter(db *gorm.DB, f models.AnalyticsEventFilter) *gorm.DB {
	if f.EventType != nil {
		db = db.Where("event_type = ?", *f.EventType)
	}
	if f.BannerID != nil {
		db = db.Where("banner_id = ?", *f.BannerID)
	}
	if f.CampaignID != nil {
		db = db.Where("campaign_id = ?", *f.CampaignID)
	}
	if f.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *f.CreatedAfter)
	}
	if f.CreatedBefore != nil {
		db = db.Where("created_at < ?", *f.CreatedBefore)
	}
	return db
}

func (r *AnalyticsEventRepositoryImpl) ByFilter(ctx context.Context, filter models.AnalyticsEventFilter, orderBy string, limit, offset int) ([]*models.AnalyticsEvent, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.AnalyticsEvent{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.AnalyticsEvent
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *AnalyticsEventRepositoryImpl) Count(ctx context.Context, filter models.AnalyticsEventFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.AnalyticsEvent{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *AnalyticsEventRepositoryImpl) Exists(ctx context.Context, filter models.AnalyticsEventFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}

func (r *AnalyticsEventRepositoryImpl) CountInWindow(ctx context.Context, eventType models.EventType, from, to time.Time) (int64, error) {
	filter := models.AnalyticsEventFilter{
		EventType:     &eventType,
		CreatedAfter:  &from,
		CreatedBefore: &to,
	}
	return r.Count(ctx, filter)
}

// ListRecent returns the newest events first. Rows carry no insertion-order
// guarantee, so ordering is always explicit on created_at.
func (r *AnalyticsEventRepositoryImpl) ListRecent(ctx context.Context, limit int) ([]*models.AnalyticsEvent, error) {
	return r.ByFilter(ctx, models.AnalyticsEventFilter{}, "created_at DESC, id DESC", limit, 0)
}

func (r *AnalyticsEventRepositoryImpl) ListInWindow(ctx context.Context, from, to time.Time, limit int) ([]*models.AnalyticsEvent, error) {
	filter := models.AnalyticsEventFilter{
		CreatedAfter:  &from,
		CreatedBefore: &to,
	}
	return r.ByFilter(ctx, filter, "created_at DESC, id DESC", limit, 0)
}
