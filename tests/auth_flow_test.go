// Package tests contains integration tests for the campaign tracking flows
package tests

import (
	"testing"
	"time"

	"github.com/trackfluence/trackfluence/app/dto"
	"github.com/trackfluence/trackfluence/app/services"
	businessflow "github.com/trackfluence/trackfluence/business_flow"
	"github.com/trackfluence/trackfluence/models"
	"github.com/trackfluence/trackfluence/repository"
	testingutil "github.com/trackfluence/trackfluence/testing"
	"github.com/trackfluence/trackfluence/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestAuthFlow(t *testing.T, testDB *testingutil.TestDB) businessflow.AuthFlow {
	t.Helper()

	userRepo := repository.NewUserRepository(testDB.DB)
	sessionRepo := repository.NewUserSessionRepository(testDB.DB)
	auditRepo := repository.NewAuditLogRepository(testDB.DB)

	tokenService, err := services.NewTokenService(
		1*time.Hour, 24*time.Hour, "test-issuer", "test-audience", "test-secret-key", nil, "test:")
	require.NoError(t, err)

	return businessflow.NewAuthFlow(userRepo, sessionRepo, auditRepo, tokenService, bcrypt.MinCost, testDB.DB)
}

func testMetadata() *businessflow.ClientMetadata {
	return businessflow.NewClientMetadata("127.0.0.1", "Test User Agent")
}

func TestAuthFlow(t *testing.T) {
	testDB := testingutil.RequireTestDB(t)
	authFlow := newTestAuthFlow(t, testDB)
	ctx := testingutil.CreateTestContext()

	t.Run("SuccessfulRegistration", func(t *testing.T) {
		req := &dto.RegisterRequest{
			Name:     "Alice Admin",
			Email:    "alice@example.com",
			Password: "SuperSecret1",
			Role:     "admin",
		}

		result, err := authFlow.Register(ctx, req, testMetadata())
		require.NoError(t, err)
		require.NotNil(t, result)

		assert.Equal(t, "Alice Admin", result.User.Name)
		assert.Equal(t, "alice@example.com", result.User.Email)
		assert.Equal(t, "admin", result.User.Role)
		assert.True(t, utils.IsTrue(result.User.IsActive))
		assert.NotZero(t, result.User.ID)
	})

	t.Run("EmailIsNormalizedToLowercase", func(t *testing.T) {
		req := &dto.RegisterRequest{
			Name:     "Bob Owner",
			Email:    "  Bob@Example.COM ",
			Password: "SuperSecret1",
			Role:     "business_owner",
		}

		result, err := authFlow.Register(ctx, req, testMetadata())
		require.NoError(t, err)
		assert.Equal(t, "bob@example.com", result.User.Email)
	})

	t.Run("DuplicateEmailRejected", func(t *testing.T) {
		req := &dto.RegisterRequest{
			Name:     "Alice Again",
			Email:    "alice@example.com",
			Password: "SuperSecret1",
			Role:     "influencer",
		}

		_, err := authFlow.Register(ctx, req, testMetadata())
		require.Error(t, err)
		assert.True(t, businessflow.IsUserAlreadyExists(err))
	})

	t.Run("InvalidRoleRejected", func(t *testing.T) {
		req := &dto.RegisterRequest{
			Name:     "Mallory",
			Email:    "mallory@example.com",
			Password: "SuperSecret1",
			Role:     "superuser",
		}

		_, err := authFlow.Register(ctx, req, testMetadata())
		require.Error(t, err)
		assert.True(t, businessflow.IsInvalidRole(err))
	})

	t.Run("SuccessfulLogin", func(t *testing.T) {
		fixtures := testingutil.NewTestFixtures(testDB)
		user, err := fixtures.CreateTestUser(models.RoleInfluencer)
		require.NoError(t, err)

		result, err := authFlow.Login(ctx, &dto.LoginRequest{
			Email:    user.Email,
			Password: testingutil.TestPassword,
		}, testMetadata())
		require.NoError(t, err)
		require.NotNil(t, result)

		assert.NotEmpty(t, result.Token)
		assert.Equal(t, "influencer", result.Role)
		assert.Equal(t, user.Name, result.Name)
		assert.Equal(t, user.ID, result.User.ID)
		assert.NotEmpty(t, result.Session.SessionToken)
		assert.Positive(t, result.Session.ExpiresIn)

		// Login stamps the last login time
		userRepo := repository.NewUserRepository(testDB.DB)
		reloaded, err := userRepo.ByID(ctx, user.ID)
		require.NoError(t, err)
		assert.NotNil(t, reloaded.LastLoginAt)
	})

	t.Run("UnknownUserRejected", func(t *testing.T) {
		_, err := authFlow.Login(ctx, &dto.LoginRequest{
			Email:    "nobody@example.com",
			Password: testingutil.TestPassword,
		}, testMetadata())
		require.Error(t, err)
		assert.True(t, businessflow.IsUserNotFound(err))
	})

	t.Run("WrongPasswordRejected", func(t *testing.T) {
		fixtures := testingutil.NewTestFixtures(testDB)
		user, err := fixtures.CreateTestUser(models.RoleBusinessOwner)
		require.NoError(t, err)

		_, err = authFlow.Login(ctx, &dto.LoginRequest{
			Email:    user.Email,
			Password: "not-the-password",
		}, testMetadata())
		require.Error(t, err)
		assert.True(t, businessflow.IsIncorrectPassword(err))
	})

	t.Run("InactiveAccountRejected", func(t *testing.T) {
		fixtures := testingutil.NewTestFixtures(testDB)
		user, err := fixtures.CreateTestUser(models.RoleInfluencer)
		require.NoError(t, err)

		err = testDB.DB.Model(&models.User{}).Where("id = ?", user.ID).
			Update("is_active", false).Error
		require.NoError(t, err)

		_, err = authFlow.Login(ctx, &dto.LoginRequest{
			Email:    user.Email,
			Password: testingutil.TestPassword,
		}, testMetadata())
		require.Error(t, err)
		assert.True(t, businessflow.IsAccountInactive(err))
	})

	t.Run("LogoutDeactivatesSession", func(t *testing.T) {
		fixtures := testingutil.NewTestFixtures(testDB)
		user, err := fixtures.CreateTestUser(models.RoleInfluencer)
		require.NoError(t, err)

		login, err := authFlow.Login(ctx, &dto.LoginRequest{
			Email:    user.Email,
			Password: testingutil.TestPassword,
		}, testMetadata())
		require.NoError(t, err)

		_, err = authFlow.Logout(ctx, user.ID, login.Token, testMetadata())
		require.NoError(t, err)

		sessionRepo := repository.NewUserSessionRepository(testDB.DB)
		session, err := sessionRepo.BySessionToken(ctx, login.Token)
		require.NoError(t, err)
		assert.Nil(t, session, "session should no longer resolve after logout")
	})
}
