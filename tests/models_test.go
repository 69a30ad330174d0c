// Package tests contains integration tests for the campaign tracking flows
package tests

import (
	"testing"
	"time"

	"github.com/trackfluence/trackfluence/models"
	testingutil "github.com/trackfluence/trackfluence/testing"
	"github.com/trackfluence/trackfluence/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRole(t *testing.T) {
	t.Run("ValidRoles", func(t *testing.T) {
		assert.True(t, models.RoleAdmin.Valid())
		assert.True(t, models.RoleInfluencer.Valid())
		assert.True(t, models.RoleBusinessOwner.Valid())
		assert.False(t, models.Role("superuser").Valid())
		assert.False(t, models.Role("").Valid())
	})

	t.Run("Capabilities", func(t *testing.T) {
		assert.True(t, models.RoleCan(models.RoleAdmin, models.CapabilityCreateCampaign))
		assert.True(t, models.RoleCan(models.RoleBusinessOwner, models.CapabilityCreateCampaign))
		assert.False(t, models.RoleCan(models.RoleInfluencer, models.CapabilityCreateCampaign))

		assert.True(t, models.RoleCan(models.RoleInfluencer, models.CapabilityGenerateTrackingLink))
		assert.False(t, models.RoleCan(models.RoleAdmin, models.CapabilityGenerateTrackingLink))
		assert.False(t, models.RoleCan(models.RoleBusinessOwner, models.CapabilityGenerateTrackingLink))
	})

	t.Run("DisplayNames", func(t *testing.T) {
		assert.Equal(t, "Business Owner", models.RoleBusinessOwner.GetDisplayName())
		assert.Equal(t, "Influencer", models.RoleInfluencer.GetDisplayName())
	})
}

func TestCampaignStatus(t *testing.T) {
	assert.True(t, models.CampaignStatusDraft.Valid())
	assert.True(t, models.CampaignStatusActive.Valid())
	assert.True(t, models.CampaignStatusPaused.Valid())
	assert.True(t, models.CampaignStatusCompleted.Valid())
	assert.False(t, models.CampaignStatus("archived").Valid())
	assert.False(t, models.CampaignStatus(models.CampaignBucketUpcoming).Valid(),
		"upcoming is a derived listing bucket, never a stored status")
}

func TestCampaignModel(t *testing.T) {
	testDB := testingutil.RequireTestDB(t)
	fixtures := testingutil.NewTestFixtures(testDB)

	owner, err := fixtures.CreateTestUser(models.RoleBusinessOwner)
	require.NoError(t, err)

	t.Run("IsUpcoming", func(t *testing.T) {
		campaign := &models.Campaign{StartDate: utils.UTCNow().Add(time.Hour)}
		assert.True(t, campaign.IsUpcoming())

		campaign.StartDate = utils.UTCNow().Add(-time.Hour)
		assert.False(t, campaign.IsUpcoming())
	})

	t.Run("IsOwnedBy", func(t *testing.T) {
		campaign, err := fixtures.CreateTestCampaign(owner)
		require.NoError(t, err)

		assert.True(t, campaign.IsOwnedBy(owner.ID))
		assert.False(t, campaign.IsOwnedBy(owner.ID+1))
	})

	t.Run("TrackingLinkFor", func(t *testing.T) {
		influencer, err := fixtures.CreateTestUser(models.RoleInfluencer)
		require.NoError(t, err)
		campaign, err := fixtures.CreateTestCampaign(owner)
		require.NoError(t, err)
		_, err = fixtures.CreateTestTrackingLink(campaign, influencer, "https://lnk.example.com/mine")
		require.NoError(t, err)

		var reloaded models.Campaign
		require.NoError(t, testDB.DB.Preload("TrackingLinks").First(&reloaded, campaign.ID).Error)

		link := reloaded.TrackingLinkFor(influencer.ID)
		require.NotNil(t, link)
		assert.Equal(t, "https://lnk.example.com/mine", link.ShortLink)

		assert.Nil(t, reloaded.TrackingLinkFor(owner.ID))
	})

	t.Run("CreatedBySnapshotRoundTrip", func(t *testing.T) {
		campaign, err := fixtures.CreateTestCampaign(owner)
		require.NoError(t, err)

		// The snapshot survives the JSONB round trip
		var reloaded models.Campaign
		require.NoError(t, testDB.DB.First(&reloaded, campaign.ID).Error)

		assert.Equal(t, owner.ID, reloaded.CreatedBy.UserID)
		assert.Equal(t, owner.Name, reloaded.CreatedBy.Name)
		assert.Equal(t, models.RoleBusinessOwner, reloaded.CreatedBy.Role)
	})

	t.Run("SnapshotOutlivesOwnerRename", func(t *testing.T) {
		campaign, err := fixtures.CreateTestCampaign(owner)
		require.NoError(t, err)

		err = testDB.DB.Model(&models.User{}).Where("id = ?", owner.ID).
			Update("name", "Renamed Owner").Error
		require.NoError(t, err)

		var reloaded models.Campaign
		require.NoError(t, testDB.DB.First(&reloaded, campaign.ID).Error)
		assert.Equal(t, owner.Name, reloaded.CreatedBy.Name,
			"snapshot keeps the name from creation time")
	})
}

func TestTrackingLinkUniqueness(t *testing.T) {
	testDB := testingutil.RequireTestDB(t)
	fixtures := testingutil.NewTestFixtures(testDB)

	owner, err := fixtures.CreateTestUser(models.RoleBusinessOwner)
	require.NoError(t, err)
	influencer, err := fixtures.CreateTestUser(models.RoleInfluencer)
	require.NoError(t, err)
	campaign, err := fixtures.CreateTestCampaign(owner)
	require.NoError(t, err)

	_, err = fixtures.CreateTestTrackingLink(campaign, influencer, "https://lnk.example.com/one")
	require.NoError(t, err)

	// The unique index backs the at-most-one-link invariant at the schema level
	_, err = fixtures.CreateTestTrackingLink(campaign, influencer, "https://lnk.example.com/two")
	require.Error(t, err)
}
