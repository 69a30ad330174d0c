package services

import (
	"testing"
	"time"

	"github.com/trackfluence/trackfluence/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenService(t *testing.T, accessTTL, refreshTTL time.Duration) TokenService {
	t.Helper()

	svc, err := NewTokenService(accessTTL, refreshTTL, "test-issuer", "test-audience", "test-secret-key", nil, "test:")
	require.NoError(t, err)
	return svc
}

func TestTokenServiceRequiresSecret(t *testing.T) {
	_, err := NewTokenService(time.Hour, 24*time.Hour, "iss", "aud", "", nil, "test:")
	require.Error(t, err)
}

func TestTokenServiceRoundTrip(t *testing.T) {
	svc := newTestTokenService(t, time.Hour, 24*time.Hour)

	accessToken, refreshToken, err := svc.GenerateTokens(42, models.RoleInfluencer)
	require.NoError(t, err)
	require.NotEmpty(t, accessToken)
	require.NotEmpty(t, refreshToken)
	assert.NotEqual(t, accessToken, refreshToken)

	claims, err := svc.ValidateToken(accessToken)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, models.RoleInfluencer, claims.Role)
	assert.Equal(t, "access", claims.TokenType)
	assert.NotEmpty(t, claims.TokenID)
	assert.True(t, claims.ExpiresAt.After(claims.IssuedAt))

	refreshClaims, err := svc.ValidateToken(refreshToken)
	require.NoError(t, err)
	assert.Equal(t, "refresh", refreshClaims.TokenType)
	assert.NotEqual(t, claims.TokenID, refreshClaims.TokenID)
}

func TestTokenServiceRejectsExpiredToken(t *testing.T) {
	svc := newTestTokenService(t, -time.Hour, 24*time.Hour)

	accessToken, _, err := svc.GenerateTokens(7, models.RoleAdmin)
	require.NoError(t, err)

	_, err = svc.ValidateToken(accessToken)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenServiceRejectsGarbage(t *testing.T) {
	svc := newTestTokenService(t, time.Hour, 24*time.Hour)

	for _, token := range []string{"", "not-a-token", "aaa.bbb.ccc"} {
		_, err := svc.ValidateToken(token)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	}
}

func TestTokenServiceRejectsForeignSignature(t *testing.T) {
	svc := newTestTokenService(t, time.Hour, 24*time.Hour)

	other, err := NewTokenService(time.Hour, 24*time.Hour, "test-issuer", "test-audience", "another-secret", nil, "test:")
	require.NoError(t, err)

	foreignToken, _, err := other.GenerateTokens(42, models.RoleInfluencer)
	require.NoError(t, err)

	_, err = svc.ValidateToken(foreignToken)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenServiceRefresh(t *testing.T) {
	svc := newTestTokenService(t, time.Hour, 24*time.Hour)

	accessToken, refreshToken, err := svc.GenerateTokens(42, models.RoleBusinessOwner)
	require.NoError(t, err)

	t.Run("RefreshTokenIssuesNewPair", func(t *testing.T) {
		newAccess, newRefresh, err := svc.RefreshToken(refreshToken)
		require.NoError(t, err)
		assert.NotEmpty(t, newAccess)
		assert.NotEmpty(t, newRefresh)

		claims, err := svc.ValidateToken(newAccess)
		require.NoError(t, err)
		assert.Equal(t, uint(42), claims.UserID)
		assert.Equal(t, models.RoleBusinessOwner, claims.Role)
	})

	t.Run("AccessTokenCannotRefresh", func(t *testing.T) {
		_, _, err := svc.RefreshToken(accessToken)
		require.Error(t, err)
	})
}

func TestTokenServiceRevocationWithoutRedis(t *testing.T) {
	// Without a redis client revocation degrades to a no-op and nothing
	// reports as revoked
	svc := newTestTokenService(t, time.Hour, 24*time.Hour)

	accessToken, _, err := svc.GenerateTokens(42, models.RoleInfluencer)
	require.NoError(t, err)

	require.NoError(t, svc.RevokeToken(accessToken))
	assert.False(t, svc.IsTokenRevoked(accessToken))

	_, err = svc.ValidateToken(accessToken)
	require.NoError(t, err)

	assert.True(t, svc.IsTokenRevoked("not-a-token"), "unparsable tokens count as revoked")
}
