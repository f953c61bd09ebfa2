package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loxigl/Rent-Pro/internal/auth"
	"github.com/loxigl/Rent-Pro/internal/models"
	"github.com/loxigl/Rent-Pro/pkg/apperrors"
)

func newAuthFixture() (*AuthService, *fakeUserRepo) {
	repo := newFakeUserRepo()
	issuer := auth.NewTokenIssuer("test-secret", 15*time.Minute, 24*time.Hour)
	return NewAuthService(repo, issuer, nil), repo
}

func TestLoginIssuesTokenPair(t *testing.T) {
	svc, repo := newAuthFixture()
	repo.add("owner@example.com", models.UserRoleOwner, "password-123")

	resp, err := svc.Login(context.Background(), LoginInput{
		Email:    "owner@example.com",
		Password: "password-123",
	}, EventRecord{})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "owner@example.com", resp.User.Email)
	assert.Equal(t, "owner", resp.User.Role)

	// The refresh token must be on record so it can be revoked.
	_, err = repo.FindRefreshToken(resp.RefreshToken)
	assert.NoError(t, err)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, repo := newAuthFixture()
	repo.add("owner@example.com", models.UserRoleOwner, "password-123")

	_, err := svc.Login(context.Background(), LoginInput{
		Email:    "owner@example.com",
		Password: "wrong",
	}, EventRecord{})
	assertAppCode(t, err, apperrors.ErrInvalidCredentials.Code)

	// Unknown accounts get the same answer as bad passwords.
	_, err = svc.Login(context.Background(), LoginInput{
		Email:    "nobody@example.com",
		Password: "password-123",
	}, EventRecord{})
	assertAppCode(t, err, apperrors.ErrInvalidCredentials.Code)
}

func TestLoginRejectsInactiveUser(t *testing.T) {
	svc, repo := newAuthFixture()
	user := repo.add("owner@example.com", models.UserRoleOwner, "password-123")
	repo.users[user.ID].Active = false

	_, err := svc.Login(context.Background(), LoginInput{
		Email:    "owner@example.com",
		Password: "password-123",
	}, EventRecord{})
	assertAppCode(t, err, apperrors.ErrUserInactive.Code)
}

func TestRefreshRejectsBadTokens(t *testing.T) {
	svc, repo := newAuthFixture()
	repo.add("owner@example.com", models.UserRoleOwner, "password-123")

	resp, err := svc.Login(context.Background(), LoginInput{
		Email:    "owner@example.com",
		Password: "password-123",
	}, EventRecord{})
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), "garbage")
	assertAppCode(t, err, apperrors.ErrInvalidToken.Code)

	// An access token is not accepted in the refresh slot.
	_, err = svc.Refresh(context.Background(), resp.AccessToken)
	assertAppCode(t, err, apperrors.ErrInvalidToken.Code)
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	svc, repo := newAuthFixture()
	repo.add("owner@example.com", models.UserRoleOwner, "password-123")

	resp, err := svc.Login(context.Background(), LoginInput{
		Email:    "owner@example.com",
		Password: "password-123",
	}, EventRecord{})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), resp.RefreshToken, EventRecord{}))

	_, err = svc.Refresh(context.Background(), resp.RefreshToken)
	assertAppCode(t, err, apperrors.ErrInvalidToken.Code)

	// Logging out twice is harmless.
	assert.NoError(t, svc.Logout(context.Background(), resp.RefreshToken, EventRecord{}))
}

func TestMe(t *testing.T) {
	svc, repo := newAuthFixture()
	user := repo.add("owner@example.com", models.UserRoleOwner, "password-123")

	view, err := svc.Me(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "owner@example.com", view.Email)

	_, err = svc.Me(context.Background(), 999)
	assert.Error(t, err)
}

func assertAppCode(t *testing.T, err error, code apperrors.ErrorCode) {
	t.Helper()
	var appErr *apperrors.AppError
	require.True(t, apperrors.As(err, &appErr), "expected AppError, got %v", err)
	assert.Equal(t, code, appErr.Code)
}
