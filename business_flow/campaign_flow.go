// Package businessflow contains the core business logic and use cases for campaign tracking workflows
package businessflow

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/trackfluence/trackfluence/app/dto"
	"github.com/trackfluence/trackfluence/models"
	"github.com/trackfluence/trackfluence/repository"
	"github.com/trackfluence/trackfluence/utils"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// CampaignFlow handles campaign lifecycle operations
type CampaignFlow interface {
	CreateCampaign(ctx context.Context, request *dto.CreateCampaignRequest, metadata *ClientMetadata) (*dto.CampaignResponse, error)
	ListCampaigns(ctx context.Context, request *dto.ListCampaignsRequest) (*dto.ListCampaignsResponse, error)
	GetCampaign(ctx context.Context, campaignID uint) (*dto.CampaignResponse, error)
	UpdateCampaign(ctx context.Context, request *dto.UpdateCampaignRequest, metadata *ClientMetadata) (*dto.CampaignResponse, error)
	DeleteCampaign(ctx context.Context, campaignID, userID uint, metadata *ClientMetadata) (*dto.DeleteCampaignResponse, error)
	ExportCampaigns(ctx context.Context, request *dto.ListCampaignsRequest) ([]byte, string, error)
}

// CampaignFlowImpl implements the campaign business flow
type CampaignFlowImpl struct {
	campaignRepo repository.CampaignRepository
	userRepo     repository.UserRepository
	auditRepo    repository.AuditLogRepository
	db           *gorm.DB
}

// NewCampaignFlow creates a new campaign flow instance
func NewCampaignFlow(
	campaignRepo repository.CampaignRepository,
	userRepo repository.UserRepository,
	auditRepo repository.AuditLogRepository,
	db *gorm.DB,
) CampaignFlow {
	return &CampaignFlowImpl{
		campaignRepo: campaignRepo,
		userRepo:     userRepo,
		auditRepo:    auditRepo,
		db:           db,
	}
}

// CreateCampaign creates a campaign on behalf of an admin or business owner.
// The creator's identity is frozen into the created_by snapshot at this moment.
func (cf *CampaignFlowImpl) CreateCampaign(ctx context.Context, request *dto.CreateCampaignRequest, metadata *ClientMetadata) (*dto.CampaignResponse, error) {
	var campaign *models.Campaign

	resp, err := cf.withCampaignTransaction(ctx, func(ctx context.Context) (*dto.CampaignResponse, error) {
		user, err := cf.userRepo.ByID(ctx, request.UserID)
		if err != nil {
			return nil, err
		}
		if user == nil {
			return nil, ErrUserNotFound
		}

		if !models.RoleCan(user.Role, models.CapabilityCreateCampaign) {
			return nil, ErrRoleNotAllowed
		}

		status := models.CampaignStatusDraft
		if request.Status != nil {
			status = models.CampaignStatus(*request.Status)
			if !status.Valid() {
				return nil, ErrInvalidCampaignStatus
			}
		}

		if err := validateCampaignDates(request.StartDate, request.EndDate); err != nil {
			return nil, err
		}
		// Campaigns may start today but never on a past day
		if request.StartDate.UTC().Before(utils.UTCNow().Truncate(24 * time.Hour)) {
			return nil, ErrStartDateInPast
		}
		if request.Budget <= 0 {
			return nil, ErrInvalidBudget
		}

		campaign = &models.Campaign{
			UUID:        uuid.New(),
			UserID:      user.ID,
			Name:        request.Name,
			Description: request.Description,
			Budget:      request.Budget,
			StartDate:   request.StartDate.UTC(),
			EndDate:     request.EndDate.UTC(),
			Status:      status,
			TargetURL:   request.TargetURL,
			CreatedBy: models.CreatedBySnapshot{
				UserID: user.ID,
				Name:   user.Name,
				Role:   user.Role,
			},
			CreatedAt: utils.UTCNow(),
		}

		if err := cf.campaignRepo.Save(ctx, campaign); err != nil {
			return nil, err
		}

		out := ToCampaignResponse(*campaign)
		return &out, nil
	})

	if err != nil {
		errMsg := fmt.Sprintf("Campaign creation failed: %s", err.Error())
		_ = cf.logCampaignEvent(ctx, request.UserID, models.AuditActionCampaignCreationFailed, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("CAMPAIGN_CREATE_FAILED", "Campaign creation failed", err)
	}

	msg := fmt.Sprintf("Campaign created: %d", resp.ID)
	_ = cf.logCampaignEvent(ctx, request.UserID, models.AuditActionCampaignCreated, msg, true, nil, metadata)

	return resp, nil
}

// ListCampaigns returns campaigns visible to the caller. Every authenticated
// user sees all campaigns; the mine flag narrows to the caller's own.
func (cf *CampaignFlowImpl) ListCampaigns(ctx context.Context, request *dto.ListCampaignsRequest) (*dto.ListCampaignsResponse, error) {
	filter, orderBy, page, limit, err := cf.buildListQuery(request)
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_LIST_FAILED", "Campaign listing failed", err)
	}

	total, err := cf.campaignRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_LIST_FAILED", "Campaign listing failed", err)
	}

	campaigns, err := cf.campaignRepo.ByFilter(ctx, filter, orderBy, limit, (page-1)*limit)
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_LIST_FAILED", "Campaign listing failed", err)
	}

	items := make([]dto.CampaignResponse, 0, len(campaigns))
	for _, campaign := range campaigns {
		items = append(items, ToCampaignResponse(*campaign))
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))

	return &dto.ListCampaignsResponse{
		Message: "Campaigns retrieved successfully",
		Items:   items,
		Pagination: dto.PaginationInfo{
			Total:      total,
			Page:       page,
			Limit:      limit,
			TotalPages: totalPages,
		},
	}, nil
}

// GetCampaign retrieves a single campaign; reads are not restricted to the owner
func (cf *CampaignFlowImpl) GetCampaign(ctx context.Context, campaignID uint) (*dto.CampaignResponse, error) {
	campaign, err := cf.campaignRepo.ByID(ctx, campaignID)
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_GET_FAILED", "Campaign retrieval failed", err)
	}
	if campaign == nil {
		return nil, NewBusinessError("CAMPAIGN_NOT_FOUND", "Campaign not found", ErrCampaignNotFound)
	}

	out := ToCampaignResponse(*campaign)
	return &out, nil
}

// UpdateCampaign applies a partial update to a campaign owned by the caller.
// Absent and zero-valued fields retain their stored values, so a client can
// send only the fields it wants changed. A campaign owned by someone else is
// reported as not found rather than forbidden, to avoid leaking its existence.
func (cf *CampaignFlowImpl) UpdateCampaign(ctx context.Context, request *dto.UpdateCampaignRequest, metadata *ClientMetadata) (*dto.CampaignResponse, error) {
	var campaign *models.Campaign

	resp, err := cf.withCampaignTransaction(ctx, func(ctx context.Context) (*dto.CampaignResponse, error) {
		var err error
		campaign, err = cf.campaignRepo.ByID(ctx, request.ID)
		if err != nil {
			return nil, err
		}
		if campaign == nil || !campaign.IsOwnedBy(request.UserID) {
			return nil, ErrCampaignNotFound
		}

		applyCampaignUpdate(campaign, request)

		if err := validateCampaignDates(campaign.StartDate, campaign.EndDate); err != nil {
			return nil, err
		}
		if campaign.Budget <= 0 {
			return nil, ErrInvalidBudget
		}
		if !campaign.Status.Valid() {
			return nil, ErrInvalidCampaignStatus
		}

		if err := cf.campaignRepo.Update(ctx, *campaign); err != nil {
			return nil, err
		}

		// Re-read so the response carries refreshed associations
		updated, err := cf.campaignRepo.ByID(ctx, campaign.ID)
		if err != nil {
			return nil, err
		}

		out := ToCampaignResponse(*updated)
		return &out, nil
	})

	if err != nil {
		errMsg := fmt.Sprintf("Campaign update failed: %s", err.Error())
		_ = cf.logCampaignEvent(ctx, request.UserID, models.AuditActionCampaignUpdateFailed, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("CAMPAIGN_UPDATE_FAILED", "Campaign update failed", err)
	}

	msg := fmt.Sprintf("Campaign updated: %d", resp.ID)
	_ = cf.logCampaignEvent(ctx, request.UserID, models.AuditActionCampaignUpdated, msg, true, nil, metadata)

	return resp, nil
}

// DeleteCampaign removes a campaign owned by the caller along with its
// tracking links. Someone else's campaign is reported as not found.
func (cf *CampaignFlowImpl) DeleteCampaign(ctx context.Context, campaignID, userID uint, metadata *ClientMetadata) (*dto.DeleteCampaignResponse, error) {
	deleted, err := cf.campaignRepo.DeleteOwned(ctx, campaignID, userID)
	if err != nil {
		errMsg := fmt.Sprintf("Campaign deletion failed: %s", err.Error())
		_ = cf.logCampaignEvent(ctx, userID, models.AuditActionCampaignDeleteFailed, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("CAMPAIGN_DELETE_FAILED", "Campaign deletion failed", err)
	}
	if !deleted {
		return nil, NewBusinessError("CAMPAIGN_NOT_FOUND", "Campaign not found", ErrCampaignNotFound)
	}

	msg := fmt.Sprintf("Campaign deleted: %d", campaignID)
	_ = cf.logCampaignEvent(ctx, userID, models.AuditActionCampaignDeleted, msg, true, nil, metadata)

	return &dto.DeleteCampaignResponse{Message: "Campaign deleted successfully"}, nil
}

// ExportCampaigns renders the filtered campaign list as an xlsx workbook
func (cf *CampaignFlowImpl) ExportCampaigns(ctx context.Context, request *dto.ListCampaignsRequest) ([]byte, string, error) {
	filter, orderBy, _, _, err := cf.buildListQuery(request)
	if err != nil {
		return nil, "", NewBusinessError("CAMPAIGN_EXPORT_FAILED", "Campaign export failed", err)
	}

	campaigns, err := cf.campaignRepo.ByFilter(ctx, filter, orderBy, 0, 0)
	if err != nil {
		return nil, "", NewBusinessError("CAMPAIGN_EXPORT_FAILED", "Campaign export failed", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Campaigns"
	f.SetSheetName(f.GetSheetName(0), sheet)

	headers := []string{"ID", "Name", "Status", "Budget", "Start Date", "End Date", "Owner", "Tracking Links", "Created At"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return nil, "", NewBusinessError("CAMPAIGN_EXPORT_FAILED", "Campaign export failed", err)
		}
	}

	for row, campaign := range campaigns {
		values := []any{
			campaign.ID,
			campaign.Name,
			campaign.Status.String(),
			campaign.Budget,
			campaign.StartDate.Format("2006-01-02"),
			campaign.EndDate.Format("2006-01-02"),
			campaign.CreatedBy.Name,
			len(campaign.TrackingLinks),
			campaign.CreatedAt.Format(time.RFC3339),
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, "", NewBusinessError("CAMPAIGN_EXPORT_FAILED", "Campaign export failed", err)
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, "", NewBusinessError("CAMPAIGN_EXPORT_FAILED", "Campaign export failed", err)
	}

	filename := fmt.Sprintf("campaigns_%s.xlsx", utils.UTCNow().Format("20060102_150405"))
	return buf.Bytes(), filename, nil
}

// Private helper methods

// buildListQuery translates the request into a repository filter, an order
// clause and normalized pagination values
func (cf *CampaignFlowImpl) buildListQuery(request *dto.ListCampaignsRequest) (models.CampaignFilter, string, int, int, error) {
	var filter models.CampaignFilter

	page := request.Page
	if page <= 0 {
		page = 1
	}
	limit := request.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		return filter, "", 0, 0, ErrInvalidPageSize
	}

	if request.Mine {
		filter.UserID = &request.UserID
	}
	if request.Search != nil && *request.Search != "" {
		filter.Search = request.Search
	}
	if request.Owner != nil && *request.Owner != "" {
		filter.OwnerName = request.Owner
	}
	if request.Status != nil && *request.Status != "" {
		if *request.Status == models.CampaignBucketUpcoming {
			// Upcoming is a derived bucket over start_date, not a stored status
			now := utils.UTCNow()
			filter.StartsAfter = &now
		} else {
			status := models.CampaignStatus(*request.Status)
			if !status.Valid() {
				return filter, "", 0, 0, ErrInvalidCampaignStatus
			}
			filter.Status = &status
		}
	}
	if request.DateFrom != nil && *request.DateFrom != "" {
		from, err := parseFilterDate(*request.DateFrom)
		if err != nil {
			return filter, "", 0, 0, err
		}
		filter.CreatedAfter = &from
	}
	if request.DateTo != nil && *request.DateTo != "" {
		to, err := parseFilterDate(*request.DateTo)
		if err != nil {
			return filter, "", 0, 0, err
		}
		// Upper bound is exclusive, so a plain date covers its whole day
		to = to.Add(24 * time.Hour)
		filter.CreatedBefore = &to
	}

	orderBy := buildOrderClause(request.SortBy, request.SortOrder)

	return filter, orderBy, page, limit, nil
}

func buildOrderClause(sortBy, sortOrder string) string {
	column := "created_at"
	switch sortBy {
	case "start_date", "budget", "name", "created_at":
		column = sortBy
	}

	direction := "DESC"
	if sortOrder == "asc" {
		direction = "ASC"
	}

	return column + " " + direction
}

func parseFilterDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD or RFC3339", value)
	}
	return t.UTC(), nil
}

func validateCampaignDates(start, end time.Time) error {
	if !end.After(start) {
		return ErrInvalidDateRange
	}
	return nil
}

// applyCampaignUpdate merges present, non-zero request fields into the stored
// campaign. Clients that omit a field or send its zero value keep the stored
// value, matching the partial-update contract of the public API.
func applyCampaignUpdate(campaign *models.Campaign, request *dto.UpdateCampaignRequest) {
	if request.Name != nil && *request.Name != "" {
		campaign.Name = *request.Name
	}
	if request.Description != nil && *request.Description != "" {
		campaign.Description = *request.Description
	}
	if request.Budget != nil && *request.Budget != 0 {
		campaign.Budget = *request.Budget
	}
	if request.StartDate != nil && !request.StartDate.IsZero() {
		campaign.StartDate = request.StartDate.UTC()
	}
	if request.EndDate != nil && !request.EndDate.IsZero() {
		campaign.EndDate = request.EndDate.UTC()
	}
	if request.Status != nil && *request.Status != "" {
		campaign.Status = models.CampaignStatus(*request.Status)
	}
	if request.TargetURL != nil && *request.TargetURL != "" {
		campaign.TargetURL = request.TargetURL
	}
}

func (cf *CampaignFlowImpl) logCampaignEvent(ctx context.Context, userID uint, action string, description string, success bool, errMsg *string, metadata *ClientMetadata) error {
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

	return cf.auditRepo.Save(ctx, audit)
}

func (cf *CampaignFlowImpl) withCampaignTransaction(ctx context.Context, fn func(context.Context) (*dto.CampaignResponse, error)) (*dto.CampaignResponse, error) {
	var result *dto.CampaignResponse
	var fnErr error

	err := repository.WithTransaction(ctx, cf.db, func(ctx context.Context) error {
		result, fnErr = fn(ctx)
		return fnErr
	})

	if err != nil {
		return nil, err
	}
	return result, fnErr
}
