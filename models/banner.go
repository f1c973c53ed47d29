package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// TargetingSpec represents the JSON targeting facets attached to a banner.
// An absent or empty facet matches every recipient; a populated facet matches
// when at least one entry equals the recipient's attribute.
type TargetingSpec struct {
	TargetDepartments pq.StringArray `json:"target_departments,omitempty"`
	DeviceTargeting   pq.StringArray `json:"device_targeting,omitempty"`
	GeoTargeting      pq.StringArray `json:"geo_targeting,omitempty"`
	TargetAudience    pq.StringArray `json:"target_audience,omitempty"`
}

// IsEmpty reports whether no targeting facet is set at all
func (t TargetingSpec) IsEmpty() bool {
	return len(t.TargetDepartments) == 0 &&
		len(t.DeviceTargeting) == 0 &&
		len(t.GeoTargeting) == 0 &&
		len(t.TargetAudience) == 0
}

// Value implements the driver.Valuer interface for TargetingSpec
func (t TargetingSpec) Value() (driver.Value, error) {
	return json.Marshal(t)
}

// Scan implements the sql.Scanner interface for TargetingSpec
func (t *TargetingSpec) Scan(value any) error {
	if value == nil {
		*t = TargetingSpec{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into TargetingSpec", value)
	}

	return json.Unmarshal(bytes, t)
}

// Banner represents a trackable piece of signature/banner HTML in the database.
// CurrentClicks only ever grows and is mutated exclusively through
// BannerRepository.IncrementClicks, which enforces MaxClicks when set.
type Banner struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	UUID          uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:uk_banners_uuid" json:"uuid"`
	CampaignID    *uint         `gorm:"index:idx_banners_campaign_id" json:"campaign_id,omitempty"`
	Name          string        `gorm:"size:255;not null" json:"name"`
	ClickURL      *string       `gorm:"type:text" json:"click_url,omitempty"`
	HTMLBody      string        `gorm:"type:text;not null" json:"html_body"`
	IsActive      *bool         `gorm:"default:true;index:idx_banners_is_active" json:"is_active"`
	StartDate     *time.Time    `json:"start_date,omitempty"`
	EndDate       *time.Time    `json:"end_date,omitempty"`
	CurrentClicks int64         `gorm:"not null;default:0" json:"current_clicks"`
	MaxClicks     *int64        `json:"max_clicks,omitempty"`
	Priority      int           `gorm:"not null;default:100;index:idx_banners_priority" json:"priority"`
	Targeting     TargetingSpec `gorm:"type:jsonb" json:"targeting"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_banners_created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

// TableName returns the table name for Banner
func (Banner) TableName() string { return "banners" }

// CapReached reports whether the click cap exists and has been met
func (b *Banner) CapReached() bool {
	return b.MaxClicks != nil && b.CurrentClicks >= *b.MaxClicks
}

// BannerFilter provides filter fields for repository queries
type BannerFilter struct {
	ID            *uint
	UUID          *uuid.UUID
	CampaignID    *uint
	IsActive      *bool
	MinClicks     *int64
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
