package models

import (
	"time"

	"github.com/google/uuid"
)

// Campaign represents a grouping of banners in the database.
// Campaigns are created and edited by the dashboard; the tracking engine
// only ever reads them.
type Campaign struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UUID      uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:uk_campaigns_uuid" json:"uuid"`
	Name      string     `gorm:"size:255;not null" json:"name"`
	IsActive  *bool      `gorm:"default:true" json:"is_active"`
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

// TableName returns the table name for Campaign
func (Campaign) TableName() string { return "campaigns" }

// CampaignFilter provides filter fields for repository queries
type CampaignFilter struct {
	ID            *uint
	UUID          *uuid.UUID
	IsActive      *bool
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
