package services

import (
	"context"
	"time"

	"github.com/loxigl/Rent-Pro/internal/auth"
	"github.com/loxigl/Rent-Pro/internal/logger"
	"github.com/loxigl/Rent-Pro/internal/models"
	"github.com/loxigl/Rent-Pro/internal/repositories"
	"github.com/loxigl/Rent-Pro/pkg/apperrors"
)

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type TokenResponse struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
	User             UserView  `json:"user"`
}

type AuthService struct {
	users  repositories.UserRepository
	issuer *auth.TokenIssuer
	events *EventService
}

func NewAuthService(users repositories.UserRepository, issuer *auth.TokenIssuer, events *EventService) *AuthService {
	return &AuthService{users: users, issuer: issuer, events: events}
}

// Login checks credentials and issues a token pair. The refresh token is
// persisted so it can be revoked later.
func (s *AuthService) Login(ctx context.Context, input LoginInput, actor EventRecord) (*TokenResponse, error) {
	user, err := s.users.FindByEmail(input.Email)
	if err != nil {
		if apperrors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.InternalError(err)
	}
	if !auth.CheckPasswordHash(input.Password, user.PasswordHash) {
		return nil, apperrors.ErrInvalidCredentials
	}
	if !user.Active {
		return nil, apperrors.ErrUserInactive
	}

	pair, err := s.issuer.IssuePair(user)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if err := s.users.CreateRefreshToken(&models.RefreshToken{
		UserID:    user.ID,
		Token:     pair.RefreshToken,
		ExpiresAt: pair.RefreshExpiresAt,
	}); err != nil {
		return nil, apperrors.InternalError(err)
	}

	if err := s.users.UpdateLastLogin(user.ID); err != nil {
		logger.CtxWarn(ctx, "last login update failed", "user_id", user.ID, "error", err.Error())
	}

	actor.UserID = &user.ID
	s.logEvent(ctx, actor, models.EventTypeLogin, user.ID, map[string]interface{}{"email": user.Email})

	return &TokenResponse{
		AccessToken:      pair.AccessToken,
		RefreshToken:     pair.RefreshToken,
		AccessExpiresAt:  pair.AccessExpiresAt,
		RefreshExpiresAt: pair.RefreshExpiresAt,
		User:             userView(user),
	}, nil
}

// Refresh rotates a refresh token: the old one is revoked and a fresh pair
// is issued in its place.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	claims, err := s.issuer.Parse(refreshToken, auth.TokenKindRefresh)
	if err != nil {
		return nil, apperrors.ErrInvalidToken
	}

	stored, err := s.users.FindRefreshToken(refreshToken)
	if err != nil {
		if apperrors.Is(err, repositories.ErrTokenNotFound) {
			return nil, apperrors.ErrInvalidToken
		}
		return nil, apperrors.InternalError(err)
	}
	if stored.ExpiresAt.Before(time.Now()) {
		return nil, apperrors.ErrInvalidToken
	}

	user, err := s.users.FindByID(claims.UserID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidToken
		}
		return nil, apperrors.InternalError(err)
	}
	if !user.Active {
		return nil, apperrors.ErrUserInactive
	}

	if err := s.users.RevokeRefreshToken(refreshToken); err != nil {
		return nil, apperrors.InternalError(err)
	}
	pair, err := s.issuer.IssuePair(user)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if err := s.users.CreateRefreshToken(&models.RefreshToken{
		UserID:    user.ID,
		Token:     pair.RefreshToken,
		ExpiresAt: pair.RefreshExpiresAt,
	}); err != nil {
		return nil, apperrors.InternalError(err)
	}

	return &TokenResponse{
		AccessToken:      pair.AccessToken,
		RefreshToken:     pair.RefreshToken,
		AccessExpiresAt:  pair.AccessExpiresAt,
		RefreshExpiresAt: pair.RefreshExpiresAt,
		User:             userView(user),
	}, nil
}

// Logout revokes the presented refresh token.
func (s *AuthService) Logout(ctx context.Context, refreshToken string, actor EventRecord) error {
	err := s.users.RevokeRefreshToken(refreshToken)
	if err != nil && !apperrors.Is(err, repositories.ErrTokenNotFound) {
		return apperrors.InternalError(err)
	}
	if actor.UserID != nil {
		s.logEvent(ctx, actor, models.EventTypeLogout, *actor.UserID, nil)
	}
	return nil
}

// Me returns the profile of the authenticated user.
func (s *AuthService) Me(ctx context.Context, userID uint) (*UserView, error) {
	user, err := s.users.FindByID(userID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.NewNotFoundError("users", "User not found")
		}
		return nil, apperrors.InternalError(err)
	}
	view := userView(user)
	return &view, nil
}

func (s *AuthService) logEvent(ctx context.Context, actor EventRecord, eventType models.EventType, userID uint, payload map[string]interface{}) {
	if s.events == nil {
		return
	}
	actor.EventType = eventType
	actor.EntityType = models.EntityTypeUser
	actor.EntityID = uintToString(userID)
	actor.Payload = payload
	s.events.Log(ctx, actor)
}
