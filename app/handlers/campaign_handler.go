// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"log"
	"strconv"
	"time"

	"github.com/trackfluence/trackfluence/app/dto"
	"github.com/trackfluence/trackfluence/app/middleware"
	businessflow "github.com/trackfluence/trackfluence/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// CampaignHandlerInterface defines the contract for campaign handlers
type CampaignHandlerInterface interface {
	CreateCampaign(c fiber.Ctx) error
	ListCampaigns(c fiber.Ctx) error
	GetCampaign(c fiber.Ctx) error
	UpdateCampaign(c fiber.Ctx) error
	DeleteCampaign(c fiber.Ctx) error
	ExportCampaigns(c fiber.Ctx) error
}

// CampaignHandler handles campaign-related HTTP requests
type CampaignHandler struct {
	campaignFlow businessflow.CampaignFlow
	validator    *validator.Validate
}

// NewCampaignHandler creates a new campaign handler
func NewCampaignHandler(campaignFlow businessflow.CampaignFlow) *CampaignHandler {
	return &CampaignHandler{
		campaignFlow: campaignFlow,
		validator:    validator.New(),
	}
}

func (h *CampaignHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *CampaignHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// CreateCampaign handles campaign creation for admins and business owners
func (h *CampaignHandler) CreateCampaign(c fiber.Ctx) error {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "AUTHENTICATION_REQUIRED", nil)
	}

	var req dto.CreateCampaignRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	req.UserID = userID

	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", collectValidationErrors(err))
	}

	ctx, cancel := createRequestContext(c, 30*time.Second)
	defer cancel()

	result, err := h.campaignFlow.CreateCampaign(ctx, &req, clientMetadata(c))
	if err != nil {
		if businessflow.IsRoleNotAllowed(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Your role cannot create campaigns", "ROLE_NOT_ALLOWED", nil)
		}
		if businessflow.IsInvalidDateRange(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "End date must be after start date", "INVALID_DATE_RANGE", nil)
		}
		if businessflow.IsStartDateInPast(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Start date cannot be in the past", "START_DATE_IN_PAST", nil)
		}
		if businessflow.IsInvalidBudget(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Budget must be greater than zero", "INVALID_BUDGET", nil)
		}
		if businessflow.IsInvalidCampaignStatus(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid campaign status", "INVALID_STATUS", nil)
		}

		log.Println("Campaign creation failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Campaign creation failed", "CAMPAIGN_CREATE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Campaign created successfully", result)
}

// ListCampaigns returns campaigns visible to the caller, filtered and paginated
func (h *CampaignHandler) ListCampaigns(c fiber.Ctx) error {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "AUTHENTICATION_REQUIRED", nil)
	}

	req := h.listRequestFromQuery(c, userID)

	if err := h.validator.Struct(req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", collectValidationErrors(err))
	}

	ctx, cancel := createRequestContext(c, 30*time.Second)
	defer cancel()

	result, err := h.campaignFlow.ListCampaigns(ctx, req)
	if err != nil {
		if businessflow.IsInvalidPageSize(err) || businessflow.IsInvalidCampaignStatus(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid filter parameters", "INVALID_FILTER", nil)
		}

		log.Println("Campaign listing failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Campaign listing failed", "CAMPAIGN_LIST_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, fiber.Map{
		"items":      result.Items,
		"pagination": result.Pagination,
	})
}

// GetCampaign returns a single campaign by ID
func (h *CampaignHandler) GetCampaign(c fiber.Ctx) error {
	if _, ok := middleware.GetUserIDFromContext(c); !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "AUTHENTICATION_REQUIRED", nil)
	}

	campaignID, err := parseIDParam(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid campaign ID", "INVALID_CAMPAIGN_ID", nil)
	}

	ctx, cancel := createRequestContext(c, 30*time.Second)
	defer cancel()

	result, err := h.campaignFlow.GetCampaign(ctx, campaignID)
	if err != nil {
		if businessflow.IsCampaignNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", "CAMPAIGN_NOT_FOUND", nil)
		}

		log.Println("Campaign retrieval failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Campaign retrieval failed", "CAMPAIGN_GET_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Campaign retrieved successfully", result)
}

// UpdateCampaign applies a partial update to a campaign owned by the caller
func (h *CampaignHandler) UpdateCampaign(c fiber.Ctx) error {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "AUTHENTICATION_REQUIRED", nil)
	}

	campaignID, err := parseIDParam(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid campaign ID", "INVALID_CAMPAIGN_ID", nil)
	}

	var req dto.UpdateCampaignRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	req.ID = campaignID
	req.UserID = userID

	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", collectValidationErrors(err))
	}

	ctx, cancel := createRequestContext(c, 30*time.Second)
	defer cancel()

	result, err := h.campaignFlow.UpdateCampaign(ctx, &req, clientMetadata(c))
	if err != nil {
		if businessflow.IsCampaignNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", "CAMPAIGN_NOT_FOUND", nil)
		}
		if businessflow.IsInvalidDateRange(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "End date must be after start date", "INVALID_DATE_RANGE", nil)
		}
		if businessflow.IsInvalidBudget(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Budget must be greater than zero", "INVALID_BUDGET", nil)
		}
		if businessflow.IsInvalidCampaignStatus(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid campaign status", "INVALID_STATUS", nil)
		}

		log.Println("Campaign update failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Campaign update failed", "CAMPAIGN_UPDATE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Campaign updated successfully", result)
}

// DeleteCampaign removes a campaign owned by the caller
func (h *CampaignHandler) DeleteCampaign(c fiber.Ctx) error {
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

	result, err := h.campaignFlow.DeleteCampaign(ctx, campaignID, userID, clientMetadata(c))
	if err != nil {
		if businessflow.IsCampaignNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", "CAMPAIGN_NOT_FOUND", nil)
		}

		log.Println("Campaign deletion failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Campaign deletion failed", "CAMPAIGN_DELETE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, nil)
}

// ExportCampaigns streams the filtered campaign list as an xlsx download
func (h *CampaignHandler) ExportCampaigns(c fiber.Ctx) error {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "AUTHENTICATION_REQUIRED", nil)
	}

	req := h.listRequestFromQuery(c, userID)

	ctx, cancel := createRequestContext(c, 60*time.Second)
	defer cancel()

	data, filename, err := h.campaignFlow.ExportCampaigns(ctx, req)
	if err != nil {
		log.Println("Campaign export failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Campaign export failed", "CAMPAIGN_EXPORT_FAILED", nil)
	}

	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", "attachment; filename="+filename)
	return c.Send(data)
}

// Private helper methods

func (h *CampaignHandler) listRequestFromQuery(c fiber.Ctx, userID uint) *dto.ListCampaignsRequest {
	page, err := strconv.Atoi(c.Query("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.Query("limit", "20"))
	if err != nil || limit < 1 {
		limit = 20
	}

	req := &dto.ListCampaignsRequest{
		UserID:    userID,
		Mine:      c.Query("mine") == "true",
		SortBy:    c.Query("sort_by", "created_at"),
		SortOrder: c.Query("sort_order", "desc"),
		Page:      page,
		Limit:     limit,
	}

	if search := c.Query("search"); search != "" {
		req.Search = &search
	}
	if owner := c.Query("owner"); owner != "" {
		req.Owner = &owner
	}
	if status := c.Query("status"); status != "" {
		req.Status = &status
	}
	if dateFrom := c.Query("date_from"); dateFrom != "" {
		req.DateFrom = &dateFrom
	}
	if dateTo := c.Query("date_to"); dateTo != "" {
		req.DateTo = &dateTo
	}

	return req
}

func parseIDParam(c fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil || id == 0 {
		return 0, strconv.ErrSyntax
	}
	return uint(id), nil
}
