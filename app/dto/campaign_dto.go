package dto

import (
	"time"
)

// CreateCampaignRequest represents the request to create a new campaign
type CreateCampaignRequest struct {
	UserID      uint      `json:"-"`
	Name        string    `json:"name" validate:"required,min=3,max=255"`
	Description string    `json:"description" validate:"required"`
	Budget      float64   `json:"budget" validate:"required,gt=0"`
	StartDate   time.Time `json:"start_date" validate:"required"`
	EndDate     time.Time `json:"end_date" validate:"required"`
	Status      *string   `json:"status,omitempty" validate:"omitempty,oneof=draft active paused completed"`
	TargetURL   *string   `json:"target_url,omitempty" validate:"omitempty,url"`
}

// UpdateCampaignRequest represents the request to update an existing campaign.
// Zero-valued fields are skipped so partial payloads only overwrite what they carry.
type UpdateCampaignRequest struct {
	ID          uint       `json:"-"`
	UserID      uint       `json:"-"`
	Name        *string    `json:"name,omitempty"`
	Description *string    `json:"description,omitempty"`
	Budget      *float64   `json:"budget,omitempty"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	Status      *string    `json:"status,omitempty" validate:"omitempty,oneof=draft active paused completed"`
	TargetURL   *string    `json:"target_url,omitempty" validate:"omitempty,url"`
}

// CampaignResponse represents a campaign in API responses
type CampaignResponse struct {
	ID            uint                   `json:"id"`
	UUID          string                 `json:"uuid"`
	Name          string                 `json:"name"`
	Description   string                 `json:"description"`
	Budget        float64                `json:"budget"`
	StartDate     time.Time              `json:"start_date"`
	EndDate       time.Time              `json:"end_date"`
	Status        string                 `json:"status"`
	TargetURL     *string                `json:"target_url,omitempty"`
	CreatedBy     CreatedByDTO           `json:"created_by"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     *time.Time             `json:"updated_at,omitempty"`
	TrackingLinks []TrackingLinkResponse `json:"tracking_links"`
}

// CreatedByDTO represents the creator identity snapshot in campaign responses
type CreatedByDTO struct {
	UserID uint   `json:"user_id"`
	Name   string `json:"name"`
	Role   string `json:"role"`
}

// ListCampaignsRequest represents a filtered, paginated list request for campaigns
type ListCampaignsRequest struct {
	UserID    uint    `json:"-"`
	Search    *string `json:"search,omitempty"`
	Owner     *string `json:"owner,omitempty"`
	Status    *string `json:"status,omitempty" validate:"omitempty,oneof=draft active paused completed upcoming"`
	DateFrom  *string `json:"date_from,omitempty"`
	DateTo    *string `json:"date_to,omitempty"`
	Mine      bool    `json:"mine"`
	SortBy    string  `json:"sort_by"`    // created_at, start_date, budget, name
	SortOrder string  `json:"sort_order"` // asc, desc
	Page      int     `json:"page"`
	Limit     int     `json:"limit"`
}

// ListCampaignsResponse represents a paginated list of campaigns
type ListCampaignsResponse struct {
	Message    string             `json:"message"`
	Items      []CampaignResponse `json:"items"`
	Pagination PaginationInfo     `json:"pagination"`
}

// DeleteCampaignResponse represents the response to a campaign deletion
type DeleteCampaignResponse struct {
	Message string `json:"message"`
}
