// Package businessflow contains the core business logic and use cases for campaign tracking workflows
package businessflow

import (
	"context"
	"fmt"

	"github.com/trackfluence/trackfluence/app/dto"
	"github.com/trackfluence/trackfluence/app/services"
	"github.com/trackfluence/trackfluence/models"
	"github.com/trackfluence/trackfluence/repository"
	"github.com/trackfluence/trackfluence/utils"
	"gorm.io/gorm"
)

// TrackingLinkFlow handles influencer tracking link operations
type TrackingLinkFlow interface {
	AssignTrackingLink(ctx context.Context, request *dto.AssignTrackingLinkRequest, metadata *ClientMetadata) (*dto.AssignTrackingLinkResponse, error)
	GenerateAffiliateLink(ctx context.Context, campaignID, influencerID uint, metadata *ClientMetadata) (*dto.GenerateAffiliateLinkResponse, error)
	GenerateShortLink(ctx context.Context, request *dto.GenerateShortLinkRequest, metadata *ClientMetadata) (*dto.GenerateShortLinkResponse, error)
}

// TrackingLinkFlowImpl implements the tracking link business flow
type TrackingLinkFlowImpl struct {
	linkRepo     repository.TrackingLinkRepository
	campaignRepo repository.CampaignRepository
	userRepo     repository.UserRepository
	auditRepo    repository.AuditLogRepository
	shortener    services.ShortenerService
	linkDomain   string
	db           *gorm.DB
}

// NewTrackingLinkFlow creates a new tracking link flow instance
func NewTrackingLinkFlow(
	linkRepo repository.TrackingLinkRepository,
	campaignRepo repository.CampaignRepository,
	userRepo repository.UserRepository,
	auditRepo repository.AuditLogRepository,
	shortener services.ShortenerService,
	linkDomain string,
	db *gorm.DB,
) TrackingLinkFlow {
	return &TrackingLinkFlowImpl{
		linkRepo:     linkRepo,
		campaignRepo: campaignRepo,
		userRepo:     userRepo,
		auditRepo:    auditRepo,
		shortener:    shortener,
		linkDomain:   linkDomain,
		db:           db,
	}
}

// AssignTrackingLink attaches the caller's tracking link to a campaign.
// A second assignment by the same influencer replaces the stored link in place,
// so a campaign never holds more than one link per influencer.
func (tf *TrackingLinkFlowImpl) AssignTrackingLink(ctx context.Context, request *dto.AssignTrackingLinkRequest, metadata *ClientMetadata) (*dto.AssignTrackingLinkResponse, error) {
	if request.ShortLink == "" {
		return nil, NewBusinessError("TRACKING_LINK_INVALID", "Short link is required", ErrShortLinkRequired)
	}

	var campaign *models.Campaign

	link, err := tf.withLinkTransaction(ctx, func(ctx context.Context) (*models.TrackingLink, error) {
		if err := tf.requireInfluencerAndCampaign(ctx, request.InfluencerID, request.CampaignID); err != nil {
			return nil, err
		}

		link := &models.TrackingLink{
			CampaignID:   request.CampaignID,
			InfluencerID: request.InfluencerID,
			ShortLink:    request.ShortLink,
			CreatedAt:    utils.UTCNow(),
		}

		if err := tf.linkRepo.Upsert(ctx, link); err != nil {
			return nil, err
		}

		// Re-read so the response carries the full link collection
		var readErr error
		campaign, readErr = tf.campaignRepo.ByID(ctx, request.CampaignID)
		if readErr != nil {
			return nil, readErr
		}
		return link, nil
	})

	if err != nil {
		errMsg := fmt.Sprintf("Tracking link assignment failed: %s", err.Error())
		_ = tf.logLinkEvent(ctx, request.InfluencerID, models.AuditActionTrackingLinkFailed, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("TRACKING_LINK_ASSIGN_FAILED", "Tracking link assignment failed", err)
	}

	msg := fmt.Sprintf("Tracking link assigned: campaign %d, influencer %d", link.CampaignID, link.InfluencerID)
	_ = tf.logLinkEvent(ctx, request.InfluencerID, models.AuditActionTrackingLinkAssigned, msg, true, nil, metadata)

	return &dto.AssignTrackingLinkResponse{
		Message:      "Tracking link assigned successfully",
		TrackingLink: ToTrackingLinkResponse(*link),
		Campaign:     ToCampaignResponse(*campaign),
	}, nil
}

// GenerateAffiliateLink mints a random referral link on the configured domain.
// The link is handed back for the influencer to distribute and is not stored;
// storing it is a separate, explicit assignment.
func (tf *TrackingLinkFlowImpl) GenerateAffiliateLink(ctx context.Context, campaignID, influencerID uint, metadata *ClientMetadata) (*dto.GenerateAffiliateLinkResponse, error) {
	if err := tf.requireInfluencerAndCampaign(ctx, influencerID, campaignID); err != nil {
		return nil, NewBusinessError("AFFILIATE_LINK_FAILED", "Affiliate link generation failed", err)
	}

	code, err := services.GenerateAffiliateCode()
	if err != nil {
		errMsg := fmt.Sprintf("Affiliate link generation failed: %s", err.Error())
		_ = tf.logLinkEvent(ctx, influencerID, models.AuditActionShortLinkFailed, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("AFFILIATE_LINK_FAILED", "Affiliate link generation failed", err)
	}

	affiliateLink := services.BuildAffiliateLink(tf.linkDomain, code)

	msg := fmt.Sprintf("Affiliate link generated: campaign %d, influencer %d", campaignID, influencerID)
	_ = tf.logLinkEvent(ctx, influencerID, models.AuditActionShortLinkGenerated, msg, true, nil, metadata)

	return &dto.GenerateAffiliateLinkResponse{
		Message:       "Affiliate link generated successfully",
		AffiliateLink: affiliateLink,
	}, nil
}

// GenerateShortLink shortens the campaign's target URL through the configured
// provider and stores the result as the caller's tracking link. The request may
// override the target URL; without either, there is nothing to shorten. On
// provider failure no tracking link is written.
func (tf *TrackingLinkFlowImpl) GenerateShortLink(ctx context.Context, request *dto.GenerateShortLinkRequest, metadata *ClientMetadata) (*dto.GenerateShortLinkResponse, error) {
	var shortLink string

	link, err := tf.withLinkTransaction(ctx, func(ctx context.Context) (*models.TrackingLink, error) {
		if err := tf.requireInfluencer(ctx, request.InfluencerID); err != nil {
			return nil, err
		}

		campaign, err := tf.campaignRepo.ByID(ctx, request.CampaignID)
		if err != nil {
			return nil, err
		}
		if campaign == nil {
			return nil, ErrCampaignNotFound
		}

		targetURL := ""
		if request.TargetURL != nil && *request.TargetURL != "" {
			targetURL = *request.TargetURL
		} else if campaign.TargetURL != nil {
			targetURL = *campaign.TargetURL
		}
		if targetURL == "" {
			return nil, ErrTargetURLRequired
		}

		shortLink, err = tf.shortener.Shorten(ctx, targetURL)
		if err != nil {
			// Keep the provider's own failure detail in the chain
			return nil, fmt.Errorf("%w: %w", ErrShortenerFailed, err)
		}

		link := &models.TrackingLink{
			CampaignID:   request.CampaignID,
			InfluencerID: request.InfluencerID,
			ShortLink:    shortLink,
			CreatedAt:    utils.UTCNow(),
		}

		if err := tf.linkRepo.Upsert(ctx, link); err != nil {
			return nil, err
		}
		return link, nil
	})

	if err != nil {
		errMsg := fmt.Sprintf("Short link generation failed: %s", err.Error())
		_ = tf.logLinkEvent(ctx, request.InfluencerID, models.AuditActionShortLinkFailed, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("SHORT_LINK_FAILED", "Short link generation failed", err)
	}

	msg := fmt.Sprintf("Short link generated via %s: campaign %d, influencer %d", tf.shortener.Name(), link.CampaignID, link.InfluencerID)
	_ = tf.logLinkEvent(ctx, request.InfluencerID, models.AuditActionShortLinkGenerated, msg, true, nil, metadata)

	return &dto.GenerateShortLinkResponse{
		Message:      "Short link generated successfully",
		Provider:     tf.shortener.Name(),
		ShortLink:    shortLink,
		TrackingLink: ToTrackingLinkResponse(*link),
	}, nil
}

// Private helper methods

func (tf *TrackingLinkFlowImpl) requireInfluencer(ctx context.Context, userID uint) error {
	user, err := tf.userRepo.ByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	if !user.IsInfluencer() {
		return ErrInfluencerRequired
	}
	return nil
}

func (tf *TrackingLinkFlowImpl) requireInfluencerAndCampaign(ctx context.Context, influencerID, campaignID uint) error {
	if err := tf.requireInfluencer(ctx, influencerID); err != nil {
		return err
	}

	campaign, err := tf.campaignRepo.ByID(ctx, campaignID)
	if err != nil {
		return err
	}
	if campaign == nil {
		return ErrCampaignNotFound
	}
	return nil
}

func (tf *TrackingLinkFlowImpl) logLinkEvent(ctx context.Context, userID uint, action string, description string, success bool, errMsg *string, metadata *ClientMetadata) error {
	ipAddress := "127.0.0.1"
	userAgent := ""
	if metadata != nil {
		ipAddress = metadata.IPAddress
		userAgent = metadata.UserAgent
	}

	audit := &models.AuditLog{
		UserID:       &userID,
		Action:       action,
		Description:  &description,
		Success:      utils.ToPtr(success),
		IPAddress:    &ipAddress,
		UserAgent:    &userAgent,
		ErrorMessage: errMsg,
	}

	requestID := ctx.Value(RequestIDKey)
	if requestID != nil {
		requestIDStr, ok := requestID.(string)
		if ok {
			audit.RequestID = &requestIDStr
		}
	}

	return tf.auditRepo.Save(ctx, audit)
}

func (tf *TrackingLinkFlowImpl) withLinkTransaction(ctx context.Context, fn func(context.Context) (*models.TrackingLink, error)) (*models.TrackingLink, error) {
	var result *models.TrackingLink
	var fnErr error

	err := repository.WithTransaction(ctx, tf.db, func(ctx context.Context) error {
		result, fnErr = fn(ctx)
		return fnErr
	})

	if err != nil {
		return nil, err
	}
	return result, fnErr
}
