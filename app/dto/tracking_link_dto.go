package dto

import "time"

// AssignTrackingLinkRequest represents the request to attach or replace an
// influencer's tracking link on a campaign
type AssignTrackingLinkRequest struct {
	CampaignID   uint   `json:"-"`
	InfluencerID uint   `json:"-"`
	ShortLink    string `json:"short_link" validate:"required,max=2048"`
}

// TrackingLinkResponse represents a tracking link in API responses
type TrackingLinkResponse struct {
	ID           uint      `json:"id"`
	CampaignID   uint      `json:"campaign_id"`
	InfluencerID uint      `json:"influencer_id"`
	ShortLink    string    `json:"short_link"`
	CreatedAt    time.Time `json:"created_at"`
}

// AssignTrackingLinkResponse represents the response to a tracking link
// assignment, carrying the campaign with its full link collection
type AssignTrackingLinkResponse struct {
	Message      string               `json:"message"`
	TrackingLink TrackingLinkResponse `json:"tracking_link"`
	Campaign     CampaignResponse     `json:"campaign"`
}

// GenerateAffiliateLinkResponse represents a freshly generated referral link.
// The link is returned to the caller without being persisted.
type GenerateAffiliateLinkResponse struct {
	Message       string `json:"message"`
	AffiliateLink string `json:"affiliate_link"`
}

// GenerateShortLinkRequest represents the request to mint a short link for a
// campaign through the configured provider and store it as the caller's tracking link
type GenerateShortLinkRequest struct {
	CampaignID   uint    `json:"-"`
	InfluencerID uint    `json:"-"`
	TargetURL    *string `json:"target_url,omitempty" validate:"omitempty,url"`
}

// GenerateShortLinkResponse represents the response to a short link generation
type GenerateShortLinkResponse struct {
	Message      string               `json:"message"`
	Provider     string               `json:"provider"`
	ShortLink    string               `json:"short_link"`
	TrackingLink TrackingLinkResponse `json:"tracking_link"`
}
