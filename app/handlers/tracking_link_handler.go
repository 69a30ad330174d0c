// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"log"
	"time"

	"github.com/trackfluence/trackfluence/app/dto"
	"github.com/trackfluence/trackfluence/app/middleware"
	"github.com/trackfluence/trackfluence/app/services"
	businessflow "github.com/trackfluence/trackfluence/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// TrackingLinkHandlerInterface defines the contract for tracking link handlers
type TrackingLinkHandlerInterface interface {
	AssignTrackingLink(c fiber.Ctx) error
	GenerateAffiliateLink(c fiber.Ctx) error
	GenerateShortLink(c fiber.Ctx) error
}

// TrackingLinkHandler handles tracking link HTTP requests
type TrackingLinkHandler struct {
	trackingLinkFlow businessflow.TrackingLinkFlow
	validator        *validator.Validate
}

// NewTrackingLinkHandler creates a new tracking link handler
func NewTrackingLinkHandler(trackingLinkFlow businessflow.TrackingLinkFlow) *TrackingLinkHandler {
	return &TrackingLinkHandler{
		trackingLinkFlow: trackingLinkFlow,
		validator:        validator.New(),
	}
}

func (h *TrackingLinkHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *TrackingLinkHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// AssignTrackingLink attaches or replaces the caller's tracking link on a campaign
func (h *TrackingLinkHandler) AssignTrackingLink(c fiber.Ctx) error {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "AUTHENTICATION_REQUIRED", nil)
	}

	campaignID, err := parseIDParam(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid campaign ID", "INVALID_CAMPAIGN_ID", nil)
	}

	var req dto.AssignTrackingLinkRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	req.CampaignID = campaignID
	req.InfluencerID = userID

	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", collectValidationErrors(err))
	}

	ctx, cancel := createRequestContext(c, 30*time.Second)
	defer cancel()

	result, err := h.trackingLinkFlow.AssignTrackingLink(ctx, &req, clientMetadata(c))
	if err != nil {
		if businessflow.IsInfluencerRequired(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Only influencers can manage tracking links", "INFLUENCER_REQUIRED", nil)
		}
		if businessflow.IsCampaignNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", "CAMPAIGN_NOT_FOUND", nil)
		}
		if businessflow.IsShortLinkRequired(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Short link is required", "SHORT_LINK_REQUIRED", nil)
		}

		log.Println("Tracking link assignment failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Tracking link assignment failed", "TRACKING_LINK_ASSIGN_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, fiber.Map{
		"tracking_link": result.TrackingLink,
	})
}

// GenerateAffiliateLink mints a referral link for the caller without storing it
func (h *TrackingLinkHandler) GenerateAffiliateLink(c fiber.Ctx) error {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "AUTHENTICATION_REQUIRED", nil)
	}

	campaignID, err := parseIDParam(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid campaign ID", "INVALID_CAMPAIGN_ID", nil)
	}

	ctx, cancel := createRequestContext(c, 30*time.Second)
	defer cancel()

	result, err := h.trackingLinkFlow.GenerateAffiliateLink(ctx, campaignID, userID, clientMetadata(c))
	if err != nil {
		if businessflow.IsInfluencerRequired(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Only influencers can generate affiliate links", "INFLUENCER_REQUIRED", nil)
		}
		if businessflow.IsCampaignNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", "CAMPAIGN_NOT_FOUND", nil)
		}

		log.Println("Affiliate link generation failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Affiliate link generation failed", "AFFILIATE_LINK_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, fiber.Map{
		"affiliate_link": result.AffiliateLink,
	})
}

// GenerateShortLink shortens the campaign target URL and stores it as the
// caller's tracking link
func (h *TrackingLinkHandler) GenerateShortLink(c fiber.Ctx) error {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "AUTHENTICATION_REQUIRED", nil)
	}

	campaignID, err := parseIDParam(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid campaign ID", "INVALID_CAMPAIGN_ID", nil)
	}

	var req dto.GenerateShortLinkRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
		}
	}
	req.CampaignID = campaignID
	req.InfluencerID = userID

	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", collectValidationErrors(err))
	}

	ctx, cancel := createRequestContext(c, 30*time.Second)
	defer cancel()

	result, err := h.trackingLinkFlow.GenerateShortLink(ctx, &req, clientMetadata(c))
	if err != nil {
		if businessflow.IsInfluencerRequired(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Only influencers can generate short links", "INFLUENCER_REQUIRED", nil)
		}
		if businessflow.IsCampaignNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", "CAMPAIGN_NOT_FOUND", nil)
		}
		if businessflow.IsTargetURLRequired(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Campaign has no target URL to shorten", "TARGET_URL_REQUIRED", nil)
		}
		if businessflow.IsShortenerFailed(err) {
			provider := "unknown"
			if pe, ok := services.IsProviderError(err); ok {
				provider = pe.Provider
			}
			middleware.ObserveShortLinkRequest(provider, false)
			return h.ErrorResponse(c, fiber.StatusInternalServerError, "Short link provider failed", "SHORTENER_FAILED", err.Error())
		}

		log.Println("Short link generation failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Short link generation failed", "SHORT_LINK_FAILED", nil)
	}

	middleware.ObserveShortLinkRequest(result.Provider, true)

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, fiber.Map{
		"provider":      result.Provider,
		"short_link":    result.ShortLink,
		"tracking_link": result.TrackingLink,
	})
}
