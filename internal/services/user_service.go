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

type UserView struct {
	ID          uint    `json:"id"`
	Email       string  `json:"email"`
	FullName    string  `json:"full_name"`
	Role        string  `json:"role"`
	Active      bool    `json:"active"`
	LastLoginAt *string `json:"last_login_at,omitempty"`
	CreatedAt   string  `json:"created_at"`
}

type UserList struct {
	Items    []UserView `json:"items"`
	Total    int64      `json:"total"`
	Page     int        `json:"page"`
	PageSize int        `json:"page_size"`
}

type CreateUserInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	FullName string `json:"full_name" validate:"omitempty,max=255"`
	Role     string `json:"role" validate:"required,oneof=owner manager"`
}

type UpdateUserInput struct {
	FullName *string `json:"full_name" validate:"omitempty,max=255"`
	Role     *string `json:"role" validate:"omitempty,oneof=owner manager"`
	Active   *bool   `json:"active"`
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

type UserService struct {
	users  repositories.UserRepository
	events *EventService
}

func NewUserService(users repositories.UserRepository, events *EventService) *UserService {
	return &UserService{users: users, events: events}
}

func (s *UserService) List(ctx context.Context, page, pageSize int) (*UserList, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	users, total, err := s.users.FindAll(page, pageSize)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	items := make([]UserView, 0, len(users))
	for i := range users {
		items = append(items, userView(&users[i]))
	}
	return &UserList{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

func (s *UserService) Get(ctx context.Context, id uint) (*UserView, error) {
	user, err := s.users.FindByID(id)
	if err != nil {
		if apperrors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.NewNotFoundError("users", "User not found")
		}
		return nil, apperrors.InternalError(err)
	}
	view := userView(user)
	return &view, nil
}

func (s *UserService) Create(ctx context.Context, input CreateUserInput, actor EventRecord) (*UserView, error) {
	role := models.UserRole(input.Role)
	if err := auth.ValidateRole(role); err != nil {
		return nil, apperrors.NewBadRequestError(err.Error())
	}
	if err := auth.ValidatePassword(input.Password); err != nil {
		return nil, apperrors.ErrWeakPassword.WithDetails(map[string]string{"reason": err.Error()})
	}
	if _, err := s.users.FindByEmail(input.Email); err == nil {
		return nil, apperrors.ErrEmailAlreadyExists
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	user := &models.User{
		Email:        input.Email,
		PasswordHash: hash,
		FullName:     input.FullName,
		Role:         role,
		Active:       true,
	}
	if err := s.users.Create(user); err != nil {
		if apperrors.Is(err, repositories.ErrUserAlreadyExists) {
			return nil, apperrors.ErrEmailAlreadyExists
		}
		return nil, apperrors.InternalError(err)
	}

	s.logEvent(ctx, actor, models.EventTypeCreate, user.ID, map[string]interface{}{"email": user.Email, "role": input.Role})
	view := userView(user)
	return &view, nil
}

func (s *UserService) Update(ctx context.Context, id uint, input UpdateUserInput, actor EventRecord) (*UserView, error) {
	user, err := s.users.FindByID(id)
	if err != nil {
		if apperrors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.NewNotFoundError("users", "User not found")
		}
		return nil, apperrors.InternalError(err)
	}

	changes := map[string]interface{}{}
	if input.FullName != nil {
		user.FullName = *input.FullName
		changes["full_name"] = *input.FullName
	}
	if input.Role != nil {
		role := models.UserRole(*input.Role)
		if err := auth.ValidateRole(role); err != nil {
			return nil, apperrors.NewBadRequestError(err.Error())
		}
		if user.Role == models.UserRoleOwner && role != models.UserRoleOwner {
			if err := s.ensureNotLastOwner(user.ID); err != nil {
				return nil, err
			}
		}
		user.Role = role
		changes["role"] = *input.Role
	}
	if input.Active != nil {
		if !*input.Active && user.Role == models.UserRoleOwner {
			if err := s.ensureNotLastOwner(user.ID); err != nil {
				return nil, err
			}
		}
		user.Active = *input.Active
		changes["active"] = *input.Active
	}

	if err := s.users.Update(user); err != nil {
		return nil, apperrors.InternalError(err)
	}
	if input.Active != nil && !*input.Active {
		if err := s.users.RevokeUserRefreshTokens(user.ID); err != nil {
			logger.CtxWarn(ctx, "token revocation failed", "user_id", user.ID, "error", err.Error())
		}
	}

	s.logEvent(ctx, actor, models.EventTypeUpdate, user.ID, changes)
	view := userView(user)
	return &view, nil
}

func (s *UserService) Delete(ctx context.Context, id uint, actor EventRecord) error {
	user, err := s.users.FindByID(id)
	if err != nil {
		if apperrors.Is(err, repositories.ErrUserNotFound) {
			return apperrors.NewNotFoundError("users", "User not found")
		}
		return apperrors.InternalError(err)
	}
	if user.Role == models.UserRoleOwner {
		if err := s.ensureNotLastOwner(user.ID); err != nil {
			return err
		}
	}
	if actor.UserID != nil && *actor.UserID == id {
		return apperrors.NewBadRequestError("cannot delete own account")
	}

	if err := s.users.Delete(id); err != nil {
		return apperrors.InternalError(err)
	}
	s.logEvent(ctx, actor, models.EventTypeDelete, id, map[string]interface{}{"email": user.Email})
	return nil
}

// ChangePassword lets a user rotate their own password. All refresh tokens
// are revoked so other sessions drop.
func (s *UserService) ChangePassword(ctx context.Context, userID uint, input ChangePasswordInput, actor EventRecord) error {
	user, err := s.users.FindByID(userID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrUserNotFound) {
			return apperrors.NewNotFoundError("users", "User not found")
		}
		return apperrors.InternalError(err)
	}
	if !auth.CheckPasswordHash(input.CurrentPassword, user.PasswordHash) {
		return apperrors.ErrInvalidCredentials
	}
	if err := auth.ValidatePassword(input.NewPassword); err != nil {
		return apperrors.ErrWeakPassword.WithDetails(map[string]string{"reason": err.Error()})
	}

	hash, err := auth.HashPassword(input.NewPassword)
	if err != nil {
		return apperrors.InternalError(err)
	}
	if err := s.users.UpdatePassword(userID, hash); err != nil {
		return apperrors.InternalError(err)
	}
	if err := s.users.RevokeUserRefreshTokens(userID); err != nil {
		logger.CtxWarn(ctx, "token revocation failed", "user_id", userID, "error", err.Error())
	}

	s.logEvent(ctx, actor, models.EventTypeUpdate, userID, map[string]interface{}{"action": "change_password"})
	return nil
}

// SeedOwner creates the first owner account when the users table is empty.
func (s *UserService) SeedOwner(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	count, err := s.users.CountByRole(models.UserRoleOwner)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		FullName:     "Owner",
		Role:         models.UserRoleOwner,
		Active:       true,
	}
	if err := s.users.Create(user); err != nil {
		if apperrors.Is(err, repositories.ErrUserAlreadyExists) {
			return nil
		}
		return err
	}
	logger.CtxInfo(ctx, "seeded owner account", "email", email)
	return nil
}

func (s *UserService) ensureNotLastOwner(userID uint) error {
	count, err := s.users.CountByRole(models.UserRoleOwner)
	if err != nil {
		return apperrors.InternalError(err)
	}
	if count <= 1 {
		return apperrors.NewBadRequestError("at least one active owner is required")
	}
	return nil
}

func (s *UserService) logEvent(ctx context.Context, actor EventRecord, eventType models.EventType, userID uint, payload map[string]interface{}) {
	if s.events == nil {
		return
	}
	actor.EventType = eventType
	actor.EntityType = models.EntityTypeUser
	actor.EntityID = uintToString(userID)
	actor.Payload = payload
	s.events.Log(ctx, actor)
}

func userView(u *models.User) UserView {
	view := UserView{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		Role:      string(u.Role),
		Active:    u.Active,
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
	}
	if u.LastLoginAt != nil {
		formatted := u.LastLoginAt.Format(time.RFC3339)
		view.LastLoginAt = &formatted
	}
	return view
}
