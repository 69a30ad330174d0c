package testing

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/trackfluence/trackfluence/models"
	"github.com/trackfluence/trackfluence/utils"
	"golang.org/x/crypto/bcrypt"
)

// TestPassword is the plaintext password used for all fixture users
const TestPassword = "TestPass123!"

var fixtureCounter uint64

// TestFixtures creates test entities for integration tests
type TestFixtures struct {
	testDB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(testDB *TestDB) *TestFixtures {
	return &TestFixtures{testDB: testDB}
}

// CreateTestUser creates an active user with the given role and a known password
func (f *TestFixtures) CreateTestUser(role models.Role) (*models.User, error) {
	n := atomic.AddUint64(&fixtureCounter, 1)

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash fixture password: %w", err)
	}

	user := &models.User{
		UUID:         uuid.New(),
		Name:         fmt.Sprintf("Test %s %d", role.GetDisplayName(), n),
		Email:        fmt.Sprintf("test_%s_%d@example.com", role.String(), n),
		PasswordHash: string(hashedPassword),
		Role:         role,
		IsActive:     utils.ToPtr(true),
		CreatedAt:    utils.UTCNow(),
	}

	if err := f.testDB.DB.Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create test user: %w", err)
	}

	return user, nil
}

// CreateTestCampaign creates an active campaign owned by the given user,
// running from yesterday for thirty days
func (f *TestFixtures) CreateTestCampaign(owner *models.User) (*models.Campaign, error) {
	n := atomic.AddUint64(&fixtureCounter, 1)

	start := utils.UTCNow().Add(-24 * time.Hour)
	targetURL := fmt.Sprintf("https://shop.example.com/product/%d", n)

	campaign := &models.Campaign{
		UUID:        uuid.New(),
		UserID:      owner.ID,
		Name:        fmt.Sprintf("Test Campaign %d", n),
		Description: "Campaign fixture for integration tests",
		Budget:      1000,
		StartDate:   start,
		EndDate:     start.Add(30 * 24 * time.Hour),
		Status:      models.CampaignStatusActive,
		TargetURL:   &targetURL,
		CreatedBy: models.CreatedBySnapshot{
			UserID: owner.ID,
			Name:   owner.Name,
			Role:   owner.Role,
		},
		CreatedAt: utils.UTCNow(),
	}

	if err := f.testDB.DB.Create(campaign).Error; err != nil {
		return nil, fmt.Errorf("failed to create test campaign: %w", err)
	}

	return campaign, nil
}

// CreateTestTrackingLink attaches a tracking link to the campaign for the influencer
func (f *TestFixtures) CreateTestTrackingLink(campaign *models.Campaign, influencer *models.User, shortLink string) (*models.TrackingLink, error) {
	link := &models.TrackingLink{
		CampaignID:   campaign.ID,
		InfluencerID: influencer.ID,
		ShortLink:    shortLink,
		CreatedAt:    utils.UTCNow(),
	}

	if err := f.testDB.DB.Create(link).Error; err != nil {
		return nil, fmt.Errorf("failed to create test tracking link: %w", err)
	}

	return link, nil
}
