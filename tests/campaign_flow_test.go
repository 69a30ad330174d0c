// Package tests contains integration tests for the campaign tracking flows
package tests

import (
	"testing"
	"time"

	"github.com/trackfluence/trackfluence/app/dto"
	businessflow "github.com/trackfluence/trackfluence/business_flow"
	"github.com/trackfluence/trackfluence/models"
	"github.com/trackfluence/trackfluence/repository"
	testingutil "github.com/trackfluence/trackfluence/testing"
	"github.com/trackfluence/trackfluence/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCampaignFlow(testDB *testingutil.TestDB) businessflow.CampaignFlow {
	return businessflow.NewCampaignFlow(
		repository.NewCampaignRepository(testDB.DB),
		repository.NewUserRepository(testDB.DB),
		repository.NewAuditLogRepository(testDB.DB),
		testDB.DB,
	)
}

func createCampaignRequest(userID uint) *dto.CreateCampaignRequest {
	start := utils.UTCNow().Add(24 * time.Hour)
	end := start.Add(14 * 24 * time.Hour)
	targetURL := "https://shop.example.com/summer"

	return &dto.CreateCampaignRequest{
		UserID:      userID,
		Name:        "Summer Sale",
		Description: "Two week promotion",
		Budget:      5000,
		StartDate:   start,
		EndDate:     end,
		TargetURL:   &targetURL,
	}
}

func TestCampaignFlowCreate(t *testing.T) {
	testDB := testingutil.RequireTestDB(t)
	fixtures := testingutil.NewTestFixtures(testDB)
	campaignFlow := newTestCampaignFlow(testDB)
	ctx := testingutil.CreateTestContext()

	t.Run("BusinessOwnerCanCreate", func(t *testing.T) {
		owner, err := fixtures.CreateTestUser(models.RoleBusinessOwner)
		require.NoError(t, err)

		result, err := campaignFlow.CreateCampaign(ctx, createCampaignRequest(owner.ID), testMetadata())
		require.NoError(t, err)

		assert.Equal(t, "Summer Sale", result.Name)
		assert.Equal(t, "draft", result.Status)
		assert.NotEmpty(t, result.UUID)

		// Creator identity is frozen into the snapshot
		assert.Equal(t, owner.ID, result.CreatedBy.UserID)
		assert.Equal(t, owner.Name, result.CreatedBy.Name)
		assert.Equal(t, "business_owner", result.CreatedBy.Role)
	})

	t.Run("AdminCanCreate", func(t *testing.T) {
		admin, err := fixtures.CreateTestUser(models.RoleAdmin)
		require.NoError(t, err)

		result, err := campaignFlow.CreateCampaign(ctx, createCampaignRequest(admin.ID), testMetadata())
		require.NoError(t, err)
		assert.Equal(t, "admin", result.CreatedBy.Role)
	})

	t.Run("InfluencerCannotCreate", func(t *testing.T) {
		influencer, err := fixtures.CreateTestUser(models.RoleInfluencer)
		require.NoError(t, err)

		_, err = campaignFlow.CreateCampaign(ctx, createCampaignRequest(influencer.ID), testMetadata())
		require.Error(t, err)
		assert.True(t, businessflow.IsRoleNotAllowed(err))
	})

	t.Run("EndBeforeStartRejected", func(t *testing.T) {
		owner, err := fixtures.CreateTestUser(models.RoleBusinessOwner)
		require.NoError(t, err)

		req := createCampaignRequest(owner.ID)
		req.EndDate = req.StartDate.Add(-time.Hour)

		_, err = campaignFlow.CreateCampaign(ctx, req, testMetadata())
		require.Error(t, err)
		assert.True(t, businessflow.IsInvalidDateRange(err))
	})

	t.Run("StartDateInPastRejected", func(t *testing.T) {
		owner, err := fixtures.CreateTestUser(models.RoleBusinessOwner)
		require.NoError(t, err)

		req := createCampaignRequest(owner.ID)
		req.StartDate = utils.UTCNow().Add(-48 * time.Hour)

		_, err = campaignFlow.CreateCampaign(ctx, req, testMetadata())
		require.Error(t, err)
		assert.True(t, businessflow.IsStartDateInPast(err))
	})

	t.Run("EndEqualToStartRejected", func(t *testing.T) {
		owner, err := fixtures.CreateTestUser(models.RoleBusinessOwner)
		require.NoError(t, err)

		req := createCampaignRequest(owner.ID)
		req.EndDate = req.StartDate

		_, err = campaignFlow.CreateCampaign(ctx, req, testMetadata())
		require.Error(t, err)
		assert.True(t, businessflow.IsInvalidDateRange(err))
	})

	t.Run("InvalidStatusRejected", func(t *testing.T) {
		owner, err := fixtures.CreateTestUser(models.RoleBusinessOwner)
		require.NoError(t, err)

		req := createCampaignRequest(owner.ID)
		req.Status = utils.ToPtr("archived")

		_, err = campaignFlow.CreateCampaign(ctx, req, testMetadata())
		require.Error(t, err)
		assert.True(t, businessflow.IsInvalidCampaignStatus(err))
	})
}

func TestCampaignFlowUpdate(t *testing.T) {
	testDB := testingutil.RequireTestDB(t)
	fixtures := testingutil.NewTestFixtures(testDB)
	campaignFlow := newTestCampaignFlow(testDB)
	ctx := testingutil.CreateTestContext()

	t.Run("PartialUpdateKeepsOtherFields", func(t *testing.T) {
		owner, err := fixtures.CreateTestUser(models.RoleBusinessOwner)
		require.NoError(t, err)
		campaign, err := fixtures.CreateTestCampaign(owner)
		require.NoError(t, err)

		result, err := campaignFlow.UpdateCampaign(ctx, &dto.UpdateCampaignRequest{
			ID:     campaign.ID,
			UserID: owner.ID,
			Budget: utils.ToPtr(2500.0),
		}, testMetadata())
		require.NoError(t, err)

		assert.Equal(t, 2500.0, result.Budget)
		assert.Equal(t, campaign.Name, result.Name, "name must survive a budget-only update")
		assert.Equal(t, campaign.Description, result.Description)
		assert.NotNil(t, result.UpdatedAt)
	})

	t.Run("ZeroValuedFieldsAreSkipped", func(t *testing.T) {
		owner, err := fixtures.CreateTestUser(models.RoleBusinessOwner)
		require.NoError(t, err)
		campaign, err := fixtures.CreateTestCampaign(owner)
		require.NoError(t, err)

		result, err := campaignFlow.UpdateCampaign(ctx, &dto.UpdateCampaignRequest{
			ID:     campaign.ID,
			UserID: owner.ID,
			Name:   utils.ToPtr(""),
			Budget: utils.ToPtr(0.0),
			Status: utils.ToPtr("paused"),
		}, testMetadata())
		require.NoError(t, err)

		assert.Equal(t, campaign.Name, result.Name, "empty name must not overwrite")
		assert.Equal(t, campaign.Budget, result.Budget, "zero budget must not overwrite")
		assert.Equal(t, "paused", result.Status)
	})

	t.Run("MergedDatesAreRevalidated", func(t *testing.T) {
		owner, err := fixtures.CreateTestUser(models.RoleBusinessOwner)
		require.NoError(t, err)
		campaign, err := fixtures.CreateTestCampaign(owner)
		require.NoError(t, err)

		// Moving only the end date before the stored start date must fail
		badEnd := campaign.StartDate.Add(-time.Hour)
		_, err = campaignFlow.UpdateCampaign(ctx, &dto.UpdateCampaignRequest{
			ID:      campaign.ID,
			UserID:  owner.ID,
			EndDate: &badEnd,
		}, testMetadata())
		require.Error(t, err)
		assert.True(t, businessflow.IsInvalidDateRange(err))
	})

	t.Run("NonOwnerSeesNotFound", func(t *testing.T) {
		owner, err := fixtures.CreateTestUser(models.RoleBusinessOwner)
		require.NoError(t, err)
		other, err := fixtures.CreateTestUser(models.RoleBusinessOwner)
		require.NoError(t, err)
		campaign, err := fixtures.CreateTestCampaign(owner)
		require.NoError(t, err)

		_, err = campaignFlow.UpdateCampaign(ctx, &dto.UpdateCampaignRequest{
			ID:     campaign.ID,
			UserID: other.ID,
			Budget: utils.ToPtr(1.0),
		}, testMetadata())
		require.Error(t, err)
		assert.True(t, businessflow.IsCampaignNotFound(err))
	})
}

func TestCampaignFlowDelete(t *testing.T) {
	testDB := testingutil.RequireTestDB(t)
	fixtures := testingutil.NewTestFixtures(testDB)
	campaignFlow := newTestCampaignFlow(testDB)
	ctx := testingutil.CreateTestContext()

	t.Run("OwnerCanDelete", func(t *testing.T) {
		owner, err := fixtures.CreateTestUser(models.RoleBusinessOwner)
		require.NoError(t, err)
		influencer, err := fixtures.CreateTestUser(models.RoleInfluencer)
		require.NoError(t, err)
		campaign, err := fixtures.CreateTestCampaign(owner)
		require.NoError(t, err)
		_, err = fixtures.CreateTestTrackingLink(campaign, influencer, "https://lnk.example.com/abc")
		require.NoError(t, err)

		_, err = campaignFlow.DeleteCampaign(ctx, campaign.ID, owner.ID, testMetadata())
		require.NoError(t, err)

		_, err = campaignFlow.GetCampaign(ctx, campaign.ID)
		require.Error(t, err)
		assert.True(t, businessflow.IsCampaignNotFound(err))

		// Tracking links go with the campaign
		var linkCount int64
		require.NoError(t, testDB.DB.Model(&models.TrackingLink{}).
			Where("campaign_id = ?", campaign.ID).Count(&linkCount).Error)
		assert.Zero(t, linkCount)
	})

	t.Run("NonOwnerSeesNotFound", func(t *testing.T) {
		owner, err := fixtures.CreateTestUser(models.RoleBusinessOwner)
		require.NoError(t, err)
		other, err := fixtures.CreateTestUser(models.RoleBusinessOwner)
		require.NoError(t, err)
		campaign, err := fixtures.CreateTestCampaign(owner)
		require.NoError(t, err)

		_, err = campaignFlow.DeleteCampaign(ctx, campaign.ID, other.ID, testMetadata())
		require.Error(t, err)
		assert.True(t, businessflow.IsCampaignNotFound(err))

		// Campaign must still exist
		_, err = campaignFlow.GetCampaign(ctx, campaign.ID)
		require.NoError(t, err)
	})
}

func TestCampaignFlowList(t *testing.T) {
	testDB := testingutil.RequireTestDB(t)
	fixtures := testingutil.NewTestFixtures(testDB)
	campaignFlow := newTestCampaignFlow(testDB)
	ctx := testingutil.CreateTestContext()

	owner, err := fixtures.CreateTestUser(models.RoleBusinessOwner)
	require.NoError(t, err)
	other, err := fixtures.CreateTestUser(models.RoleBusinessOwner)
	require.NoError(t, err)
	influencer, err := fixtures.CreateTestUser(models.RoleInfluencer)
	require.NoError(t, err)

	_, err = fixtures.CreateTestCampaign(owner)
	require.NoError(t, err)
	_, err = fixtures.CreateTestCampaign(other)
	require.NoError(t, err)

	// A campaign that has not started yet
	future, err := campaignFlow.CreateCampaign(ctx, createCampaignRequest(owner.ID), testMetadata())
	require.NoError(t, err)

	t.Run("VisibleToEveryAuthenticatedUser", func(t *testing.T) {
		result, err := campaignFlow.ListCampaigns(ctx, &dto.ListCampaignsRequest{UserID: influencer.ID})
		require.NoError(t, err)
		assert.Len(t, result.Items, 3)
		assert.EqualValues(t, 3, result.Pagination.Total)
	})

	t.Run("NewestFirstByDefault", func(t *testing.T) {
		result, err := campaignFlow.ListCampaigns(ctx, &dto.ListCampaignsRequest{UserID: owner.ID})
		require.NoError(t, err)
		require.NotEmpty(t, result.Items)
		assert.Equal(t, future.ID, result.Items[0].ID)
	})

	t.Run("MineNarrowsToCaller", func(t *testing.T) {
		result, err := campaignFlow.ListCampaigns(ctx, &dto.ListCampaignsRequest{
			UserID: owner.ID,
			Mine:   true,
		})
		require.NoError(t, err)
		assert.Len(t, result.Items, 2)
		for _, item := range result.Items {
			assert.Equal(t, owner.ID, item.CreatedBy.UserID)
		}
	})

	t.Run("UpcomingIsDerivedFromStartDate", func(t *testing.T) {
		result, err := campaignFlow.ListCampaigns(ctx, &dto.ListCampaignsRequest{
			UserID: owner.ID,
			Status: utils.ToPtr("upcoming"),
		})
		require.NoError(t, err)
		require.Len(t, result.Items, 1)
		assert.Equal(t, future.ID, result.Items[0].ID)
		// The stored status is untouched by the derived bucket
		assert.Equal(t, "draft", result.Items[0].Status)
	})

	t.Run("SearchMatchesNameSubstring", func(t *testing.T) {
		result, err := campaignFlow.ListCampaigns(ctx, &dto.ListCampaignsRequest{
			UserID: owner.ID,
			Search: utils.ToPtr("summer"),
		})
		require.NoError(t, err)
		require.Len(t, result.Items, 1)
		assert.Equal(t, future.ID, result.Items[0].ID)
	})

	t.Run("StatusFilter", func(t *testing.T) {
		result, err := campaignFlow.ListCampaigns(ctx, &dto.ListCampaignsRequest{
			UserID: owner.ID,
			Status: utils.ToPtr("active"),
		})
		require.NoError(t, err)
		assert.Len(t, result.Items, 2)
	})

	t.Run("PaginationBounds", func(t *testing.T) {
		result, err := campaignFlow.ListCampaigns(ctx, &dto.ListCampaignsRequest{
			UserID: owner.ID,
			Page:   1,
			Limit:  2,
		})
		require.NoError(t, err)
		assert.Len(t, result.Items, 2)
		assert.Equal(t, 2, result.Pagination.TotalPages)

		_, err = campaignFlow.ListCampaigns(ctx, &dto.ListCampaignsRequest{
			UserID: owner.ID,
			Limit:  500,
		})
		require.Error(t, err)
		assert.True(t, businessflow.IsInvalidPageSize(err))
	})

	t.Run("OwnerFilterMatchesSnapshotName", func(t *testing.T) {
		zelda, err := fixtures.CreateTestUser(models.RoleBusinessOwner)
		require.NoError(t, err)
		err = testDB.DB.Model(&models.User{}).Where("id = ?", zelda.ID).
			Update("name", "Zelda Marketing").Error
		require.NoError(t, err)

		created, err := campaignFlow.CreateCampaign(ctx, createCampaignRequest(zelda.ID), testMetadata())
		require.NoError(t, err)

		// Case-insensitive substring match on the created_by snapshot name
		result, err := campaignFlow.ListCampaigns(ctx, &dto.ListCampaignsRequest{
			UserID: owner.ID,
			Owner:  utils.ToPtr("zelda"),
		})
		require.NoError(t, err)
		require.Len(t, result.Items, 1)
		assert.Equal(t, created.ID, result.Items[0].ID)
		assert.Equal(t, "Zelda Marketing", result.Items[0].CreatedBy.Name)
	})
}

func TestCampaignFlowExport(t *testing.T) {
	testDB := testingutil.RequireTestDB(t)
	fixtures := testingutil.NewTestFixtures(testDB)
	campaignFlow := newTestCampaignFlow(testDB)
	ctx := testingutil.CreateTestContext()

	owner, err := fixtures.CreateTestUser(models.RoleBusinessOwner)
	require.NoError(t, err)
	_, err = fixtures.CreateTestCampaign(owner)
	require.NoError(t, err)

	data, filename, err := campaignFlow.ExportCampaigns(ctx, &dto.ListCampaignsRequest{UserID: owner.ID})
	require.NoError(t, err)

	assert.NotEmpty(t, data)
	assert.Contains(t, filename, ".xlsx")
	// xlsx files are zip archives
	assert.Equal(t, []byte{'P', 'K'}, data[:2])
}
