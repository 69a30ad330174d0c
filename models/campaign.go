package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/trackfluence/trackfluence/utils"
	"gorm.io/gorm"
)

// CampaignStatus represents the lifecycle status of a campaign
type CampaignStatus string

const (
	CampaignStatusDraft     CampaignStatus = "draft"
	CampaignStatusActive    CampaignStatus = "active"
	CampaignStatusPaused    CampaignStatus = "paused"
	CampaignStatusCompleted CampaignStatus = "completed"
)

// CampaignBucketUpcoming is a derived, filter-only status bucket: campaigns
// whose start date is in the future regardless of stored status. Never persisted.
const CampaignBucketUpcoming = "upcoming"

// String returns the string representation of the status
func (s CampaignStatus) String() string {
	return string(s)
}

// Valid checks if the status is valid
func (s CampaignStatus) Valid() bool {
	switch s {
	case CampaignStatusDraft, CampaignStatusActive,
		CampaignStatusPaused, CampaignStatusCompleted:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for CampaignStatus
func (s *CampaignStatus) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*s = CampaignStatus(v)
	case []byte:
		*s = CampaignStatus(string(v))
	default:
		return fmt.Errorf("cannot scan %T into CampaignStatus", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for CampaignStatus
func (s CampaignStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid CampaignStatus: %s", s)
	}
	return string(s), nil
}

// CreatedBySnapshot is the acting user's identity captured at campaign
// creation time. It is an immutable denormalized snapshot, deliberately
// distinct from the live UserID foreign key: later changes to the user's
// profile do not retroactively update past campaigns.
type CreatedBySnapshot struct {
	UserID uint   `json:"user_id"`
	Name   string `json:"name"`
	Role   Role   `json:"role"`
}

// Value implements the driver.Valuer interface for CreatedBySnapshot
func (c CreatedBySnapshot) Value() (driver.Value, error) {
	return json.Marshal(c)
}

// Scan implements the sql.Scanner interface for CreatedBySnapshot
func (c *CreatedBySnapshot) Scan(value any) error {
	if value == nil {
		*c = CreatedBySnapshot{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into CreatedBySnapshot", value)
	}

	return json.Unmarshal(bytes, c)
}

// Campaign represents a marketing campaign in the database
type Campaign struct {
	ID     uint      `gorm:"primaryKey" json:"id"`
	UUID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_campaigns_uuid;index:idx_campaigns_uuid" json:"uuid"`
	UserID uint      `gorm:"not null;index:idx_campaigns_user_id" json:"user_id"`

	Name        string         `gorm:"size:255;not null" json:"name"`
	Description string         `gorm:"type:text;not null" json:"description"`
	Budget      float64        `gorm:"type:numeric(14,2);not null" json:"budget"`
	StartDate   time.Time      `gorm:"not null;index:idx_campaigns_start_date" json:"start_date"`
	EndDate     time.Time      `gorm:"not null" json:"end_date"`
	Status      CampaignStatus `gorm:"type:campaign_status_enum;not null;default:'draft';index:idx_campaigns_status" json:"status"`
	TargetURL   *string        `gorm:"type:text" json:"target_url,omitempty"`

	// Owner identity snapshot captured at creation time
	CreatedBy CreatedBySnapshot `gorm:"type:jsonb;not null" json:"created_by"`

	CreatedAt time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_campaigns_created_at" json:"created_at"`
	UpdatedAt *time.Time `gorm:"index:idx_campaigns_updated_at" json:"updated_at,omitempty"`

	// Relations
	User          *User          `gorm:"foreignKey:UserID;references:ID" json:"user,omitempty"`
	TrackingLinks []TrackingLink `gorm:"foreignKey:CampaignID;constraint:OnDelete:CASCADE" json:"tracking_links"`
}

// TableName returns the table name for the model
func (Campaign) TableName() string {
	return "campaigns"
}

// BeforeCreate is called before creating a new record
func (c *Campaign) BeforeCreate(tx *gorm.DB) error {
	if c.UUID == uuid.Nil {
		c.UUID = uuid.New()
	}
	if c.Status == "" {
		c.Status = CampaignStatusDraft
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = utils.UTCNow()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (c *Campaign) BeforeUpdate(tx *gorm.DB) error {
	now := utils.UTCNow()
	c.UpdatedAt = &now
	return nil
}

// IsUpcoming checks if the campaign falls into the derived upcoming bucket
func (c *Campaign) IsUpcoming() bool {
	return c.StartDate.After(utils.UTCNow())
}

// IsOwnedBy checks whether the given user created the campaign
func (c *Campaign) IsOwnedBy(userID uint) bool {
	return c.UserID == userID
}

// TrackingLinkFor returns the tracking link of the given influencer, if any
func (c *Campaign) TrackingLinkFor(influencerID uint) *TrackingLink {
	for i := range c.TrackingLinks {
		if c.TrackingLinks[i].InfluencerID == influencerID {
			return &c.TrackingLinks[i]
		}
	}
	return nil
}

// CampaignFilter represents filter criteria for campaigns.
// All fields compose with logical AND; nil fields impose no restriction.
type CampaignFilter struct {
	ID            *uint           `json:"id,omitempty"`
	UUID          *uuid.UUID      `json:"uuid,omitempty"`
	UserID        *uint           `json:"user_id,omitempty"`
	Status        *CampaignStatus `json:"status,omitempty"`
	Search        *string         `json:"search,omitempty"`     // campaign name substring, case-insensitive
	OwnerName     *string         `json:"owner_name,omitempty"` // created_by name substring, case-insensitive
	StartsAfter   *time.Time      `json:"starts_after,omitempty"`
	CreatedAfter  *time.Time      `json:"created_after,omitempty"`
	CreatedBefore *time.Time      `json:"created_before,omitempty"`
	MinBudget     *float64        `json:"min_budget,omitempty"`
	MaxBudget     *float64        `json:"max_budget,omitempty"`
}

// GetStatusDisplayName returns a human-readable status name
func (c *Campaign) GetStatusDisplayName() string {
	switch c.Status {
	case CampaignStatusDraft:
		return "Draft"
	case CampaignStatusActive:
		return "Active"
	case CampaignStatusPaused:
		return "Paused"
	case CampaignStatusCompleted:
		return "Completed"
	default:
		return "Unknown"
	}
}
