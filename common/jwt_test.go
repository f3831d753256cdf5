package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	token, err := GenerateAccessToken(42, RoleCommonUser)
	require.NoError(t, err)

	claims, err := ParseToken(token, TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, 42, claims.UserId)
	assert.Equal(t, RoleCommonUser, claims.Role)
	assert.Equal(t, TokenTypeAccess, claims.TokenType)
}

func TestRefreshTokenIsNotAnAccessToken(t *testing.T) {
	refresh, err := GenerateRefreshToken(42, RoleCommonUser)
	require.NoError(t, err)

	// a refresh token must never authenticate an API request
	_, err = ParseToken(refresh, TokenTypeAccess)
	require.Error(t, err)

	claims, err := ParseToken(refresh, TokenTypeRefresh)
	require.NoError(t, err)
	assert.Equal(t, 42, claims.UserId)
}

func TestParseTokenGarbage(t *testing.T) {
	_, err := ParseToken("not-a-jwt", TokenTypeAccess)
	require.Error(t, err)
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := Password2Hash("secret-password")
	require.NoError(t, err)
	assert.NotEqual(t, "secret-password", hash)
	assert.True(t, ValidatePasswordAndHash("secret-password", hash))
	assert.False(t, ValidatePasswordAndHash("wrong-password", hash))
}
