// Package businessflow contains the business logic for the application.
package businessflow

import (
	"time"

	"github.com/trackfluence/trackfluence/app/dto"
	"github.com/trackfluence/trackfluence/models"
	"github.com/trackfluence/trackfluence/utils"
)

const RequestIDKey = "X-Request-ID"

// ClientMetadata holds all client-related information for audit logging and session tracking
type ClientMetadata struct {
	IPAddress string `json:"ip_address"`
	UserAgent string `json:"user_agent"`
	RequestID string `json:"request_id,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance with basic information
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// ToAuthUserDTO converts a user model to AuthUserDTO for authentication responses
func ToAuthUserDTO(user models.User) dto.AuthUserDTO {
	return dto.AuthUserDTO{
		ID:        user.ID,
		UUID:      user.UUID.String(),
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role.String(),
		IsActive:  user.IsActive,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
	}
}

// ToSessionInfoDTO converts a session model to SessionInfoDTO
func ToSessionInfoDTO(session models.UserSession) dto.SessionInfoDTO {
	return dto.SessionInfoDTO{
		SessionToken: session.SessionToken,
		RefreshToken: session.RefreshToken,
		ExpiresIn:    int(session.ExpiresAt.Sub(utils.UTCNow()).Seconds()),
		TokenType:    "Bearer",
		CreatedAt:    session.CreatedAt.Format(time.RFC3339),
	}
}

// ToTrackingLinkResponse converts a tracking link model to its response DTO
func ToTrackingLinkResponse(link models.TrackingLink) dto.TrackingLinkResponse {
	return dto.TrackingLinkResponse{
		ID:           link.ID,
		CampaignID:   link.CampaignID,
		InfluencerID: link.InfluencerID,
		ShortLink:    link.ShortLink,
		CreatedAt:    link.CreatedAt,
	}
}

// ToCampaignResponse converts a campaign model to its response DTO
func ToCampaignResponse(campaign models.Campaign) dto.CampaignResponse {
	links := make([]dto.TrackingLinkResponse, 0, len(campaign.TrackingLinks))
	for _, link := range campaign.TrackingLinks {
		links = append(links, ToTrackingLinkResponse(link))
	}

	return dto.CampaignResponse{
		ID:          campaign.ID,
		UUID:        campaign.UUID.String(),
		Name:        campaign.Name,
		Description: campaign.Description,
		Budget:      campaign.Budget,
		StartDate:   campaign.StartDate,
		EndDate:     campaign.EndDate,
		Status:      campaign.Status.String(),
		TargetURL:   campaign.TargetURL,
		CreatedBy: dto.CreatedByDTO{
			UserID: campaign.CreatedBy.UserID,
			Name:   campaign.CreatedBy.Name,
			Role:   campaign.CreatedBy.Role.String(),
		},
		CreatedAt:     campaign.CreatedAt,
		UpdatedAt:     campaign.UpdatedAt,
		TrackingLinks: links,
	}
}

// ToProductResponse converts a product model to its response DTO
func ToProductResponse(product models.Product) dto.ProductResponse {
	return dto.ProductResponse{
		ID:          product.ID,
		UUID:        product.UUID.String(),
		UserID:      product.UserID,
		Name:        product.Name,
		Description: product.Description,
		Price:       product.Price,
		CreatedAt:   product.CreatedAt,
	}
}
