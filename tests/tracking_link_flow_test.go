// Package tests contains integration tests for the campaign tracking flows
package tests

import (
	"strings"
	"sync"
	"testing"

	"github.com/trackfluence/trackfluence/app/dto"
	"github.com/trackfluence/trackfluence/app/services"
	businessflow "github.com/trackfluence/trackfluence/business_flow"
	"github.com/trackfluence/trackfluence/models"
	"github.com/trackfluence/trackfluence/repository"
	testingutil "github.com/trackfluence/trackfluence/testing"
	"github.com/trackfluence/trackfluence/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testLinkDomain = "track.example.com"

func newTestTrackingLinkFlow(testDB *testingutil.TestDB) businessflow.TrackingLinkFlow {
	return businessflow.NewTrackingLinkFlow(
		repository.NewTrackingLinkRepository(testDB.DB),
		repository.NewCampaignRepository(testDB.DB),
		repository.NewUserRepository(testDB.DB),
		repository.NewAuditLogRepository(testDB.DB),
		services.NewLocalShortener(testLinkDomain),
		testLinkDomain,
		testDB.DB,
	)
}

func countLinks(t *testing.T, testDB *testingutil.TestDB, campaignID, influencerID uint) int64 {
	t.Helper()

	var count int64
	err := testDB.DB.Model(&models.TrackingLink{}).
		Where("campaign_id = ? AND influencer_id = ?", campaignID, influencerID).
		Count(&count).Error
	require.NoError(t, err)
	return count
}

func TestTrackingLinkFlowAssign(t *testing.T) {
	testDB := testingutil.RequireTestDB(t)
	fixtures := testingutil.NewTestFixtures(testDB)
	linkFlow := newTestTrackingLinkFlow(testDB)
	ctx := testingutil.CreateTestContext()

	owner, err := fixtures.CreateTestUser(models.RoleBusinessOwner)
	require.NoError(t, err)
	influencer, err := fixtures.CreateTestUser(models.RoleInfluencer)
	require.NoError(t, err)
	campaign, err := fixtures.CreateTestCampaign(owner)
	require.NoError(t, err)

	t.Run("InfluencerCanAssign", func(t *testing.T) {
		result, err := linkFlow.AssignTrackingLink(ctx, &dto.AssignTrackingLinkRequest{
			CampaignID:   campaign.ID,
			InfluencerID: influencer.ID,
			ShortLink:    "https://lnk.example.com/first",
		}, testMetadata())
		require.NoError(t, err)

		assert.Equal(t, "https://lnk.example.com/first", result.TrackingLink.ShortLink)
		assert.Equal(t, campaign.ID, result.TrackingLink.CampaignID)
		assert.Equal(t, influencer.ID, result.TrackingLink.InfluencerID)
		assert.EqualValues(t, 1, countLinks(t, testDB, campaign.ID, influencer.ID))

		// Response carries the campaign with its link collection
		assert.Equal(t, campaign.ID, result.Campaign.ID)
		require.Len(t, result.Campaign.TrackingLinks, 1)
		assert.Equal(t, "https://lnk.example.com/first", result.Campaign.TrackingLinks[0].ShortLink)
	})

	t.Run("ReassignReplacesInPlace", func(t *testing.T) {
		result, err := linkFlow.AssignTrackingLink(ctx, &dto.AssignTrackingLinkRequest{
			CampaignID:   campaign.ID,
			InfluencerID: influencer.ID,
			ShortLink:    "https://lnk.example.com/second",
		}, testMetadata())
		require.NoError(t, err)

		assert.Equal(t, "https://lnk.example.com/second", result.TrackingLink.ShortLink)
		assert.EqualValues(t, 1, countLinks(t, testDB, campaign.ID, influencer.ID),
			"reassignment must not create a second row")
	})

	t.Run("SecondInfluencerGetsOwnRow", func(t *testing.T) {
		second, err := fixtures.CreateTestUser(models.RoleInfluencer)
		require.NoError(t, err)

		_, err = linkFlow.AssignTrackingLink(ctx, &dto.AssignTrackingLinkRequest{
			CampaignID:   campaign.ID,
			InfluencerID: second.ID,
			ShortLink:    "https://lnk.example.com/other",
		}, testMetadata())
		require.NoError(t, err)

		assert.EqualValues(t, 1, countLinks(t, testDB, campaign.ID, second.ID))
		assert.EqualValues(t, 1, countLinks(t, testDB, campaign.ID, influencer.ID))
	})

	t.Run("NonInfluencerRejected", func(t *testing.T) {
		_, err := linkFlow.AssignTrackingLink(ctx, &dto.AssignTrackingLinkRequest{
			CampaignID:   campaign.ID,
			InfluencerID: owner.ID,
			ShortLink:    "https://lnk.example.com/owner",
		}, testMetadata())
		require.Error(t, err)
		assert.True(t, businessflow.IsInfluencerRequired(err))
	})

	t.Run("MissingCampaignRejected", func(t *testing.T) {
		_, err := linkFlow.AssignTrackingLink(ctx, &dto.AssignTrackingLinkRequest{
			CampaignID:   999999,
			InfluencerID: influencer.ID,
			ShortLink:    "https://lnk.example.com/ghost",
		}, testMetadata())
		require.Error(t, err)
		assert.True(t, businessflow.IsCampaignNotFound(err))
	})

	t.Run("EmptyShortLinkRejected", func(t *testing.T) {
		_, err := linkFlow.AssignTrackingLink(ctx, &dto.AssignTrackingLinkRequest{
			CampaignID:   campaign.ID,
			InfluencerID: influencer.ID,
			ShortLink:    "",
		}, testMetadata())
		require.Error(t, err)
		assert.True(t, businessflow.IsShortLinkRequired(err))
	})

	t.Run("ConcurrentAssignsKeepSingleRow", func(t *testing.T) {
		racer, err := fixtures.CreateTestUser(models.RoleInfluencer)
		require.NoError(t, err)

		var wg sync.WaitGroup
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, assignErr := linkFlow.AssignTrackingLink(ctx, &dto.AssignTrackingLinkRequest{
					CampaignID:   campaign.ID,
					InfluencerID: racer.ID,
					ShortLink:    "https://lnk.example.com/race",
				}, testMetadata())
				assert.NoError(t, assignErr)
			}()
		}
		wg.Wait()

		assert.EqualValues(t, 1, countLinks(t, testDB, campaign.ID, racer.ID))
	})
}

func TestTrackingLinkFlowAffiliateLink(t *testing.T) {
	testDB := testingutil.RequireTestDB(t)
	fixtures := testingutil.NewTestFixtures(testDB)
	linkFlow := newTestTrackingLinkFlow(testDB)
	ctx := testingutil.CreateTestContext()

	owner, err := fixtures.CreateTestUser(models.RoleBusinessOwner)
	require.NoError(t, err)
	influencer, err := fixtures.CreateTestUser(models.RoleInfluencer)
	require.NoError(t, err)
	campaign, err := fixtures.CreateTestCampaign(owner)
	require.NoError(t, err)

	t.Run("ReturnsReferralLinkWithoutPersisting", func(t *testing.T) {
		result, err := linkFlow.GenerateAffiliateLink(ctx, campaign.ID, influencer.ID, testMetadata())
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(result.AffiliateLink, "http://"+testLinkDomain+"/ref/"),
			"unexpected affiliate link %q", result.AffiliateLink)
		code := strings.TrimPrefix(result.AffiliateLink, "http://"+testLinkDomain+"/ref/")
		assert.Len(t, code, 6)

		assert.EqualValues(t, 0, countLinks(t, testDB, campaign.ID, influencer.ID),
			"affiliate links are ephemeral")
	})

	t.Run("FreshCodeEachCall", func(t *testing.T) {
		first, err := linkFlow.GenerateAffiliateLink(ctx, campaign.ID, influencer.ID, testMetadata())
		require.NoError(t, err)
		second, err := linkFlow.GenerateAffiliateLink(ctx, campaign.ID, influencer.ID, testMetadata())
		require.NoError(t, err)
		assert.NotEqual(t, first.AffiliateLink, second.AffiliateLink)
	})

	t.Run("NonInfluencerRejected", func(t *testing.T) {
		_, err := linkFlow.GenerateAffiliateLink(ctx, campaign.ID, owner.ID, testMetadata())
		require.Error(t, err)
		assert.True(t, businessflow.IsInfluencerRequired(err))
	})

	t.Run("MissingCampaignRejected", func(t *testing.T) {
		_, err := linkFlow.GenerateAffiliateLink(ctx, 999999, influencer.ID, testMetadata())
		require.Error(t, err)
		assert.True(t, businessflow.IsCampaignNotFound(err))
	})
}

func TestTrackingLinkFlowShortLink(t *testing.T) {
	testDB := testingutil.RequireTestDB(t)
	fixtures := testingutil.NewTestFixtures(testDB)
	linkFlow := newTestTrackingLinkFlow(testDB)
	ctx := testingutil.CreateTestContext()

	owner, err := fixtures.CreateTestUser(models.RoleBusinessOwner)
	require.NoError(t, err)
	influencer, err := fixtures.CreateTestUser(models.RoleInfluencer)
	require.NoError(t, err)

	t.Run("UsesCampaignTargetURL", func(t *testing.T) {
		campaign, err := fixtures.CreateTestCampaign(owner)
		require.NoError(t, err)

		result, err := linkFlow.GenerateShortLink(ctx, &dto.GenerateShortLinkRequest{
			CampaignID:   campaign.ID,
			InfluencerID: influencer.ID,
		}, testMetadata())
		require.NoError(t, err)

		assert.Equal(t, "local", result.Provider)
		assert.True(t, strings.HasPrefix(result.ShortLink, "http://"+testLinkDomain+"/ref/"),
			"unexpected short link %q", result.ShortLink)
		assert.Equal(t, result.ShortLink, result.TrackingLink.ShortLink)
		assert.EqualValues(t, 1, countLinks(t, testDB, campaign.ID, influencer.ID),
			"generated short link must be stored as the tracking link")
	})

	t.Run("RegenerationReplacesStoredLink", func(t *testing.T) {
		campaign, err := fixtures.CreateTestCampaign(owner)
		require.NoError(t, err)

		first, err := linkFlow.GenerateShortLink(ctx, &dto.GenerateShortLinkRequest{
			CampaignID:   campaign.ID,
			InfluencerID: influencer.ID,
		}, testMetadata())
		require.NoError(t, err)

		second, err := linkFlow.GenerateShortLink(ctx, &dto.GenerateShortLinkRequest{
			CampaignID:   campaign.ID,
			InfluencerID: influencer.ID,
		}, testMetadata())
		require.NoError(t, err)

		assert.NotEqual(t, first.ShortLink, second.ShortLink)
		assert.EqualValues(t, 1, countLinks(t, testDB, campaign.ID, influencer.ID),
			"regeneration replaces the stored link")
	})

	t.Run("RequestOverrideCoversMissingCampaignURL", func(t *testing.T) {
		campaign, err := fixtures.CreateTestCampaign(owner)
		require.NoError(t, err)
		err = testDB.DB.Model(&models.Campaign{}).Where("id = ?", campaign.ID).
			Update("target_url", nil).Error
		require.NoError(t, err)

		result, err := linkFlow.GenerateShortLink(ctx, &dto.GenerateShortLinkRequest{
			CampaignID:   campaign.ID,
			InfluencerID: influencer.ID,
			TargetURL:    utils.ToPtr("https://shop.example.com/landing"),
		}, testMetadata())
		require.NoError(t, err)
		assert.NotEmpty(t, result.ShortLink)
	})

	t.Run("NoTargetURLAnywhereRejected", func(t *testing.T) {
		campaign, err := fixtures.CreateTestCampaign(owner)
		require.NoError(t, err)
		err = testDB.DB.Model(&models.Campaign{}).Where("id = ?", campaign.ID).
			Update("target_url", nil).Error
		require.NoError(t, err)

		_, err = linkFlow.GenerateShortLink(ctx, &dto.GenerateShortLinkRequest{
			CampaignID:   campaign.ID,
			InfluencerID: influencer.ID,
		}, testMetadata())
		require.Error(t, err)
		assert.True(t, businessflow.IsTargetURLRequired(err))
	})

	t.Run("NonInfluencerRejected", func(t *testing.T) {
		campaign, err := fixtures.CreateTestCampaign(owner)
		require.NoError(t, err)

		_, err = linkFlow.GenerateShortLink(ctx, &dto.GenerateShortLinkRequest{
			CampaignID:   campaign.ID,
			InfluencerID: owner.ID,
		}, testMetadata())
		require.Error(t, err)
		assert.True(t, businessflow.IsInfluencerRequired(err))
	})

	t.Run("MissingCampaignRejected", func(t *testing.T) {
		_, err := linkFlow.GenerateShortLink(ctx, &dto.GenerateShortLinkRequest{
			CampaignID:   999999,
			InfluencerID: influencer.ID,
		}, testMetadata())
		require.Error(t, err)
		assert.True(t, businessflow.IsCampaignNotFound(err))
	})
}
