package models

import "time"

// TrackingLink represents a per-influencer short-link record attached to a campaign.
// At most one row exists per (campaign, influencer) pair, enforced by a unique
// index so the assignment upsert can be a single atomic conditional write.
// Insertion order (row id) is preserved when an existing entry is overwritten.
type TrackingLink struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	CampaignID   uint   `gorm:"not null;uniqueIndex:uk_tracking_links_campaign_influencer;index:idx_tracking_links_campaign_id" json:"campaign_id"`
	InfluencerID uint   `gorm:"not null;uniqueIndex:uk_tracking_links_campaign_influencer;index:idx_tracking_links_influencer_id" json:"influencer_id"`
	ShortLink    string `gorm:"type:text;not null" json:"short_link"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_tracking_links_created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`

	// Relations
	Influencer *User `gorm:"foreignKey:InfluencerID;references:ID" json:"influencer,omitempty"`
}

// TableName returns the table name for TrackingLink
func (TrackingLink) TableName() string { return "tracking_links" }

// TrackingLinkFilter provides filter fields for repository queries
type TrackingLinkFilter struct {
	ID            *uint
	CampaignID    *uint
	InfluencerID  *uint
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
