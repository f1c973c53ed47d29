package businessflow

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sigtrack/sigtrack/models"
)

// fakeBannerRepo is an in-memory BannerRepository. IncrementClicks applies
// the same guarded-increment semantics as the SQL implementation, under a
// mutex, so concurrency tests exercise the real cap contract.
type fakeBannerRepo struct {
	mu           sync.Mutex
	banners      map[uint]*models.Banner
	lookupErr    error
	incrementErr error
}

func newFakeBannerRepo(banners ...*models.Banner) *fakeBannerRepo {
	r := &fakeBannerRepo{banners: make(map[uint]*models.Banner)}
	for _, b := range banners {
		r.banners[b.ID] = b
	}
	return r
}

func (r *fakeBannerRepo) ByID(ctx context.Context, id uint) (*models.Banner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lookupErr != nil {
		return nil, r.lookupErr
	}
	b, ok := r.banners[id]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (r *fakeBannerRepo) ByUUID(ctx context.Context, uid uuid.UUID) (*models.Banner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lookupErr != nil {
		return nil, r.lookupErr
	}
	for _, b := range r.banners {
		if b.UUID == uid {
			cp := *b
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeBannerRepo) ByFilter(ctx context.Context, filter models.BannerFilter, orderBy string, limit, offset int) ([]*models.Banner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Banner, 0, len(r.banners))
	for _, b := range r.banners {
		cp := *b
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeBannerRepo) Save(ctx context.Context, b *models.Banner) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.banners[b.ID] = b
	return nil
}

func (r *fakeBannerRepo) SaveBatch(ctx context.Context, banners []*models.Banner) error {
	for _, b := range banners {
		if err := r.Save(ctx, b); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeBannerRepo) Count(ctx context.Context, filter models.BannerFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.banners)), nil
}

func (r *fakeBannerRepo) Exists(ctx context.Context, filter models.BannerFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	return c > 0, err
}

func (r *fakeBannerRepo) IncrementClicks(ctx context.Context, bannerID uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.incrementErr != nil {
		return false, r.incrementErr
	}
	b, ok := r.banners[bannerID]
	if !ok {
		return false, nil
	}
	if b.MaxClicks != nil && b.CurrentClicks >= *b.MaxClicks {
		return false, nil
	}
	b.CurrentClicks++
	return true, nil
}

func (r *fakeBannerRepo) TopByClicks(ctx context.Context, limit int) ([]*models.Banner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Banner, 0, len(r.banners))
	for _, b := range r.banners {
		if b.CurrentClicks > 0 {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CurrentClicks != out[j].CurrentClicks {
			return out[i].CurrentClicks > out[j].CurrentClicks
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeBannerRepo) clicks(bannerID uint) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.banners[bannerID].CurrentClicks
}

// fakeCampaignRepo is an in-memory read-only CampaignRepository
type fakeCampaignRepo struct {
	campaigns map[uint]*models.Campaign
}

func newFakeCampaignRepo(campaigns ...*models.Campaign) *fakeCampaignRepo {
	r := &fakeCampaignRepo{campaigns: make(map[uint]*models.Campaign)}
	for _, c := range campaigns {
		r.campaigns[c.ID] = c
	}
	return r
}

func (r *fakeCampaignRepo) ByID(ctx context.Context, id uint) (*models.Campaign, error) {
	c, ok := r.campaigns[id]
	if !ok {
		return nil, nil
	}
	return c, nil
}

func (r *fakeCampaignRepo) ByUUID(ctx context.Context, uid uuid.UUID) (*models.Campaign, error) {
	for _, c := range r.campaigns {
		if c.UUID == uid {
			return c, nil
		}
	}
	return nil, nil
}

func (r *fakeCampaignRepo) ByFilter(ctx context.Context, filter models.CampaignFilter, orderBy string, limit, offset int) ([]*models.Campaign, error) {
	out := make([]*models.Campaign, 0, len(r.campaigns))
	for _, c := range r.campaigns {
		out = append(out, c)
	}
	return out, nil
}

func (r *fakeCampaignRepo) Save(ctx context.Context, c *models.Campaign) error {
	r.campaigns[c.ID] = c
	return nil
}

func (r *fakeCampaignRepo) SaveBatch(ctx context.Context, campaigns []*models.Campaign) error {
	for _, c := range campaigns {
		r.campaigns[c.ID] = c
	}
	return nil
}

func (r *fakeCampaignRepo) Count(ctx context.Context, filter models.CampaignFilter) (int64, error) {
	return int64(len(r.campaigns)), nil
}

func (r *fakeCampaignRepo) Exists(ctx context.Context, filter models.CampaignFilter) (bool, error) {
	return len(r.campaigns) > 0, nil
}

// fakeEventRepo is an in-memory append-only AnalyticsEventRepository
type fakeEventRepo struct {
	mu      sync.Mutex
	events  []*models.AnalyticsEvent
	saveErr error
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{}
}

func (r *fakeEventRepo) ByID(ctx context.Context, id uint) (*models.AnalyticsEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ev := range r.events {
		if ev.ID == id {
			return ev, nil
		}
	}
	return nil, nil
}

func (r *fakeEventRepo) ByFilter(ctx context.Context, filter models.AnalyticsEventFilter, orderBy string, limit, offset int) ([]*models.AnalyticsEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.AnalyticsEvent, 0, len(r.events))
	for _, ev := range r.events {
		if filter.EventType != nil && ev.EventType != *filter.EventType {
			continue
		}
		if filter.BannerID != nil && (ev.BannerID == nil || *ev.BannerID != *filter.BannerID) {
			continue
		}
		if filter.CreatedAfter != nil && ev.CreatedAt.Before(*filter.CreatedAfter) {
			continue
		}
		if filter.CreatedBefore != nil && !ev.CreatedAt.Before(*filter.CreatedBefore) {
			continue
		}
		out = append(out, ev)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeEventRepo) Save(ctx context.Context, ev *models.AnalyticsEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	ev.ID = uint(len(r.events) + 1)
	r.events = append(r.events, ev)
	return nil
}

func (r *fakeEventRepo) SaveBatch(ctx context.Context, events []*models.AnalyticsEvent) error {
	for _, ev := range events {
		if err := r.Save(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeEventRepo) Count(ctx context.Context, filter models.AnalyticsEventFilter) (int64, error) {
	rows, err := r.ByFilter(ctx, filter, "", 0, 0)
	if err != nil {
		return 0, err
	}
	return int64(len(rows)), nil
}

func (r *fakeEventRepo) Exists(ctx context.Context, filter models.AnalyticsEventFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	return c > 0, err
}

func (r *fakeEventRepo) CountInWindow(ctx context.Context, eventType models.EventType, from, to time.Time) (int64, error) {
	return r.Count(ctx, models.AnalyticsEventFilter{
		EventType:     &eventType,
		CreatedAfter:  &from,
		CreatedBefore: &to,
	})
}

func (r *fakeEventRepo) ListRecent(ctx context.Context, limit int) ([]*models.AnalyticsEvent, error) {
	return r.ByFilter(ctx, models.AnalyticsEventFilter{}, "", limit, 0)
}

func (r *fakeEventRepo) ListInWindow(ctx context.Context, from, to time.Time, limit int) ([]*models.AnalyticsEvent, error) {
	return r.ByFilter(ctx, models.AnalyticsEventFilter{
		CreatedAfter:  &from,
		CreatedBefore: &to,
	}, "", limit, 0)
}

func (r *fakeEventRepo) byType(eventType models.EventType) []*models.AnalyticsEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.AnalyticsEvent
	for _, ev := range r.events {
		if ev.EventType == eventType {
			out = append(out, ev)
		}
	}
	return out
}
