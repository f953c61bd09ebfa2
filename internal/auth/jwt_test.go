package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loxigl/Rent-Pro/internal/models"
)

func testUser() *models.User {
	return &models.User{
		SerialModel: models.SerialModel{ID: 12},
		Email:       "owner@example.com",
		Role:        models.UserRoleOwner,
	}
}

func TestIssuePairAndParse(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", 15*time.Minute, 24*time.Hour)

	pair, err := issuer.IssuePair(testUser())
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)
	assert.True(t, pair.RefreshExpiresAt.After(pair.AccessExpiresAt))

	claims, err := issuer.Parse(pair.AccessToken, TokenKindAccess)
	require.NoError(t, err)
	assert.Equal(t, uint(12), claims.UserID)
	assert.Equal(t, "owner@example.com", claims.Email)
	assert.Equal(t, models.UserRoleOwner, claims.Role)
	assert.Equal(t, TokenKindAccess, claims.Kind)

	claims, err = issuer.Parse(pair.RefreshToken, TokenKindRefresh)
	require.NoError(t, err)
	assert.Equal(t, TokenKindRefresh, claims.Kind)
}

func TestParseRejectsWrongKind(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", 15*time.Minute, 24*time.Hour)
	pair, err := issuer.IssuePair(testUser())
	require.NoError(t, err)

	_, err = issuer.Parse(pair.AccessToken, TokenKindRefresh)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = issuer.Parse(pair.RefreshToken, TokenKindAccess)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestParseRejectsForeignSecret(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", 15*time.Minute, 24*time.Hour)
	other := NewTokenIssuer("other-secret", 15*time.Minute, 24*time.Hour)

	pair, err := other.IssuePair(testUser())
	require.NoError(t, err)

	_, err = issuer.Parse(pair.AccessToken, TokenKindAccess)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestParseRejectsExpired(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", -time.Minute, -time.Minute)
	pair, err := issuer.IssuePair(testUser())
	require.NoError(t, err)

	_, err = issuer.Parse(pair.AccessToken, TokenKindAccess)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestParseRejectsGarbage(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", 15*time.Minute, 24*time.Hour)
	_, err := issuer.Parse("not.a.token", TokenKindAccess)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
