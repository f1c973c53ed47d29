package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType represents the kind of a recorded analytics event
type EventType string

const (
	EventTypeView  EventType = "view"
	EventTypeClick EventType = "click"
)

// String returns the string representation of the event type
func (t EventType) String() string {
	return string(t)
}

// Valid checks if the event type is valid
func (t EventType) Valid() bool {
	switch t {
	case EventTypeView, EventTypeClick:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for EventType
func (t *EventType) Scan(value any) error {
	if value == nil {
		*t = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*t = EventType(v)
	case []byte:
		*t = EventType(string(v))
	default:
		return fmt.Errorf("cannot scan %T into EventType", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for EventType
func (t EventType) Value() (driver.Value, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid EventType: %s", t)
	}
	return string(t), nil
}

// EventMetadata holds arbitrary key/value client metadata attached to an event
type EventMetadata map[string]string

// Value implements the driver.Valuer interface for EventMetadata
func (m EventMetadata) Value() (driver.Value, error) {
	if m == nil {
		return json.Marshal(EventMetadata{})
	}
	return json.Marshal(m)
}

// Scan implements the sql.Scanner interface for EventMetadata
func (m *EventMetadata) Scan(value any) error {
	if value == nil {
		*m = EventMetadata{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into EventMetadata", value)
	}

	return json.Unmarshal(bytes, m)
}

// AnalyticsEvent represents a single recorded view or click interaction.
// Rows are append-only: the tracking engine never updates or deletes them.
// BannerID is nullable so that interactions against unknown banner ids are
// still observable in the activity feed.
type AnalyticsEvent struct {
	ID             uint          `gorm:"primaryKey" json:"id"`
	UUID           uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:uk_analytics_events_uuid" json:"uuid"`
	EventType      EventType     `gorm:"type:varchar(16);not null;index:idx_analytics_events_event_type" json:"event_type"`
	BannerID       *uint         `gorm:"index:idx_analytics_events_banner_id" json:"banner_id,omitempty"`
	CampaignID     *uint         `gorm:"index:idx_analytics_events_campaign_id" json:"campaign_id,omitempty"`
	RecipientEmail *string       `gorm:"size:320" json:"recipient_email,omitempty"`
	UserAgent      *string       `gorm:"type:text" json:"user_agent,omitempty"`
	Referrer       *string       `gorm:"type:text" json:"referrer,omitempty"`
	IP             *string       `gorm:"size:64" json:"ip,omitempty"`
	Metadata       EventMetadata `gorm:"type:jsonb" json:"metadata,omitempty"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_analytics_events_created_at" json:"created_at"`
}

// TableName returns the table name for AnalyticsEvent
func (AnalyticsEvent) TableName() string { return "analytics_events" }

// AnalyticsEventFilter provides filter fields for repository queries
type AnalyticsEventFilter struct {
	EventType     *EventType
	BannerID      *uint
	CampaignID    *uint
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
