// Package businessflow contains the core business logic for banner tracking workflows.
package businessflow

import (
	"github.com/google/uuid"
	"github.com/sigtrack/sigtrack/models"
	"github.com/sigtrack/sigtrack/utils"
)

// ClientMetadata holds client-related information captured at the tracking
// endpoints and attached to recorded analytics events
type ClientMetadata struct {
	IPAddress  string            `json:"ip_address"`
	UserAgent  string            `json:"user_agent"`
	Referrer   string            `json:"referrer,omitempty"`
	RequestID  string            `json:"request_id,omitempty"`
	Additional map[string]string `json:"additional,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance with basic information
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Additional: make(map[string]string),
	}
}

// SetReferrer sets the referrer header value
func (cm *ClientMetadata) SetReferrer(referrer string) {
	cm.Referrer = referrer
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// AddAdditional adds additional custom information to the metadata
func (cm *ClientMetadata) AddAdditional(key, value string) {
	if cm.Additional == nil {
		cm.Additional = make(map[string]string)
	}
	cm.Additional[key] = value
}

// newEvent builds an analytics event row from the interaction context.
// banner may be nil when the interaction referenced an unknown banner id;
// the event is still recorded, with a null banner reference.
func newEvent(eventType models.EventType, banner *models.Banner, recipientEmail string, metadata *ClientMetadata) *models.AnalyticsEvent {
	ev := &models.AnalyticsEvent{
		UUID:      uuid.New(),
		EventType: eventType,
		CreatedAt: utils.UTCNow(),
		Metadata:  models.EventMetadata{},
	}
	if banner != nil {
		ev.BannerID = utils.ToPtr(banner.ID)
		ev.CampaignID = banner.CampaignID
	}
	if recipientEmail != "" {
		ev.RecipientEmail = utils.ToPtr(recipientEmail)
	}
	if metadata != nil {
		if metadata.UserAgent != "" {
			ev.UserAgent = utils.ToPtr(metadata.UserAgent)
		}
		if metadata.IPAddress != "" {
			ev.IP = utils.ToPtr(metadata.IPAddress)
		}
		if metadata.Referrer != "" {
			ev.Referrer = utils.ToPtr(metadata.Referrer)
		}
		if metadata.RequestID != "" {
			ev.Metadata["request_id"] = metadata.RequestID
		}
		for k, v := range metadata.Additional {
			ev.Metadata[k] = v
		}
	}
	return ev
}
