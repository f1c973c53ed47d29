package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sigtrack/sigtrack/models"
	"gorm.io/gorm"
)

// BannerRepositoryImpl implements BannerRepository
type BannerRepositoryImpl struct {
	*BaseRepository[models.Banner, models.BannerFilter]
}

func NewBannerRepository(db *gorm.DB) BannerRepository {
	return &BannerRepositoryImpl{BaseRepository: NewBaseRepository[models.Banner, models.BannerFilter](db)}
}

func (r *BannerRepositoryImpl) ByID(ctx context.Context, id uint) (*models.Banner, error) {
	db := r.getDB(ctx)
	var row models.Banner
	if err := db.Last(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *BannerRepositoryImpl) ByUUID(ctx context.Context, uid uuid.UUID) (*models.Banner, error) {
	filter := models.BannerFilter{UUID: &uid}
	rows, err := r.ByFilter(ctx, filter, "id DESC", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *BannerRepositoryImpl) applyFilter(db *gorm.DB, f models.BannerFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.UUID != nil {
		db = db.Where("uuid = ?", *f.UUID)
	}
	if f.CampaignID != nil {
		db = db.Where("campaign_id = ?", *f.CampaignID)
	}
	if f.IsActive != nil {
		db = db.Where("is_active = ?", *f.IsActive)
	}
	if f.MinClicks != nil {
		db = db.Where("current_clicks >= ?", *f.MinClicks)
	}
	if f.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *f.CreatedAfter)
	}
	if f.CreatedBefore != nil {
		db = db.Where("created_at < ?", *f.CreatedBefore)
	}
	return db
}

func (r *BannerRepositoryImpl) ByFilter(ctx context.Context, filter models.BannerFilter, orderBy string, limit, offset int) ([]*models.Banner, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Banner{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.Banner
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *BannerRepositoryImpl) Count(ctx context.Context, filter models.BannerFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Banner{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *BannerRepositoryImpl) Exists(ctx context.Context, filter models.BannerFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}

// IncrementClicks performs the capped counter bump as one atomic statement.
// The guard lives in the WHERE clause so that concurrent requests racing past
// the cap cannot push current_clicks beyond max_clicks: the database either
// matches the row (below cap, or uncapped) and increments it, or matches
// nothing and the click stays uncounted.
func (r *BannerRepositoryImpl) IncrementClicks(ctx context.Context, bannerID uint) (bool, error) {
	db := r.getDB(ctx)
	res := db.Model(&models.Banner{}).
		Where("id = ?", bannerID).
		Where("max_clicks IS NULL OR current_clicks < max_clicks").
		UpdateColumn("current_clicks", gorm.Expr("current_clicks + 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *BannerRepositoryImpl) TopByClicks(ctx context.Context, limit int) ([]*models.Banner, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Banner{}).
		Where("current_clicks > 0").
		Order("current_clicks DESC, id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var rows []*models.Banner
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
