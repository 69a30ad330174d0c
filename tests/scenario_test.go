// Package tests contains integration tests for the campaign tracking flows
package tests

import (
	"testing"
	"time"

	"github.com/trackfluence/trackfluence/app/dto"
	testingutil "github.com/trackfluence/trackfluence/testing"
	"github.com/trackfluence/trackfluence/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Full owner-and-influencer walkthrough: register, log in, create a campaign,
// attach a tracking link, replace it.
func TestCampaignLifecycleScenario(t *testing.T) {
	testDB := testingutil.RequireTestDB(t)
	ctx := testingutil.CreateTestContext()

	authFlow := newTestAuthFlow(t, testDB)
	campaignFlow := newTestCampaignFlow(testDB)
	linkFlow := newTestTrackingLinkFlow(testDB)

	// Alice registers as a business owner and logs in
	_, err := authFlow.Register(ctx, &dto.RegisterRequest{
		Name:     "Alice",
		Email:    "alice.scenario@example.com",
		Password: "SuperSecret1",
		Role:     "business_owner",
	}, testMetadata())
	require.NoError(t, err)

	aliceLogin, err := authFlow.Login(ctx, &dto.LoginRequest{
		Email:    "alice.scenario@example.com",
		Password: "SuperSecret1",
	}, testMetadata())
	require.NoError(t, err)
	require.NotEmpty(t, aliceLogin.Token)
	assert.Equal(t, "business_owner", aliceLogin.Role)

	// Alice creates a campaign starting tomorrow
	start := utils.UTCNow().Add(24 * time.Hour)
	targetURL := "https://shop.example.com/launch"
	campaign, err := campaignFlow.CreateCampaign(ctx, &dto.CreateCampaignRequest{
		UserID:      aliceLogin.User.ID,
		Name:        "Launch",
		Description: "Product launch week",
		Budget:      100,
		StartDate:   start,
		EndDate:     start.Add(7 * 24 * time.Hour),
		Status:      utils.ToPtr("draft"),
		TargetURL:   &targetURL,
	}, testMetadata())
	require.NoError(t, err)
	assert.Equal(t, "Alice", campaign.CreatedBy.Name)
	assert.Equal(t, "draft", campaign.Status)

	// Bob registers as an influencer and logs in
	_, err = authFlow.Register(ctx, &dto.RegisterRequest{
		Name:     "Bob",
		Email:    "bob.scenario@example.com",
		Password: "SuperSecret1",
		Role:     "influencer",
	}, testMetadata())
	require.NoError(t, err)

	bobLogin, err := authFlow.Login(ctx, &dto.LoginRequest{
		Email:    "bob.scenario@example.com",
		Password: "SuperSecret1",
	}, testMetadata())
	require.NoError(t, err)

	// Bob attaches his tracking link
	first, err := linkFlow.AssignTrackingLink(ctx, &dto.AssignTrackingLinkRequest{
		CampaignID:   campaign.ID,
		InfluencerID: bobLogin.User.ID,
		ShortLink:    "http://x/ab12",
	}, testMetadata())
	require.NoError(t, err)
	require.Len(t, first.Campaign.TrackingLinks, 1)
	assert.Equal(t, "http://x/ab12", first.Campaign.TrackingLinks[0].ShortLink)

	// A second assignment replaces the link instead of adding one
	second, err := linkFlow.AssignTrackingLink(ctx, &dto.AssignTrackingLinkRequest{
		CampaignID:   campaign.ID,
		InfluencerID: bobLogin.User.ID,
		ShortLink:    "http://x/cd34",
	}, testMetadata())
	require.NoError(t, err)
	require.Len(t, second.Campaign.TrackingLinks, 1)
	assert.Equal(t, "http://x/cd34", second.Campaign.TrackingLinks[0].ShortLink)

	// The campaign read by Alice reflects Bob's latest link
	reloaded, err := campaignFlow.GetCampaign(ctx, campaign.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.TrackingLinks, 1)
	assert.Equal(t, "http://x/cd34", reloaded.TrackingLinks[0].ShortLink)
	assert.Equal(t, bobLogin.User.ID, reloaded.TrackingLinks[0].InfluencerID)
}
