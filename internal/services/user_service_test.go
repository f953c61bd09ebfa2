package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loxigl/Rent-Pro/internal/auth"
	"github.com/loxigl/Rent-Pro/internal/models"
	"github.com/loxigl/Rent-Pro/internal/repositories"
	"github.com/loxigl/Rent-Pro/pkg/apperrors"
)

type fakeUserRepo struct {
	users  map[uint]*models.User
	nextID uint

	revokedFor []uint
	tokens     map[string]*models.RefreshToken
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:  map[uint]*models.User{},
		nextID: 1,
		tokens: map[string]*models.RefreshToken{},
	}
}

func (f *fakeUserRepo) add(email string, role models.UserRole, password string) *models.User {
	hash, _ := auth.HashPassword(password)
	u := &models.User{
		SerialModel:  models.SerialModel{ID: f.nextID},
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Active:       true,
	}
	f.users[u.ID] = u
	f.nextID++
	return u
}

func (f *fakeUserRepo) FindByID(id uint) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, repositories.ErrUserNotFound
}

func (f *fakeUserRepo) FindByEmail(email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (f *fakeUserRepo) FindAll(page, pageSize int) ([]models.User, int64, error) {
	var out []models.User
	for _, u := range f.users {
		out = append(out, *u)
	}
	return out, int64(len(out)), nil
}

func (f *fakeUserRepo) Create(user *models.User) error {
	for _, u := range f.users {
		if u.Email == user.Email {
			return repositories.ErrUserAlreadyExists
		}
	}
	user.ID = f.nextID
	f.nextID++
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) Update(user *models.User) error {
	if _, ok := f.users[user.ID]; !ok {
		return repositories.ErrUserNotFound
	}
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUserRepo) UpdatePassword(userID uint, passwordHash string) error {
	u, ok := f.users[userID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (f *fakeUserRepo) UpdateLastLogin(userID uint) error { return nil }

func (f *fakeUserRepo) SetActive(userID uint, active bool) error {
	u, ok := f.users[userID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.Active = active
	return nil
}

func (f *fakeUserRepo) Delete(userID uint) error {
	if _, ok := f.users[userID]; !ok {
		return repositories.ErrUserNotFound
	}
	delete(f.users, userID)
	return nil
}

func (f *fakeUserRepo) CountByRole(role models.UserRole) (int64, error) {
	var n int64
	for _, u := range f.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

func (f *fakeUserRepo) CreateRefreshToken(token *models.RefreshToken) error {
	f.tokens[token.Token] = token
	return nil
}

func (f *fakeUserRepo) FindRefreshToken(token string) (*models.RefreshToken, error) {
	if t, ok := f.tokens[token]; ok && !t.Revoked {
		return t, nil
	}
	return nil, repositories.ErrTokenNotFound
}

func (f *fakeUserRepo) RevokeRefreshToken(token string) error {
	t, ok := f.tokens[token]
	if !ok {
		return repositories.ErrTokenNotFound
	}
	t.Revoked = true
	return nil
}

func (f *fakeUserRepo) RevokeUserRefreshTokens(userID uint) error {
	f.revokedFor = append(f.revokedFor, userID)
	for _, t := range f.tokens {
		if t.UserID == userID {
			t.Revoked = true
		}
	}
	return nil
}

func (f *fakeUserRepo) CleanExpiredRefreshTokens() error { return nil }

func TestUserCreateRejectsDuplicateEmail(t *testing.T) {
	repo := newFakeUserRepo()
	repo.add("admin@example.com", models.UserRoleOwner, "password-123")
	svc := NewUserService(repo, nil)

	_, err := svc.Create(context.Background(), CreateUserInput{
		Email:    "admin@example.com",
		Password: "password-123",
		Role:     "manager",
	}, EventRecord{})

	var appErr *apperrors.AppError
	require.True(t, apperrors.As(err, &appErr))
	assert.Equal(t, apperrors.ErrEmailAlreadyExists.Code, appErr.Code)
}

func TestUserCreateRejectsWeakPassword(t *testing.T) {
	svc := NewUserService(newFakeUserRepo(), nil)

	_, err := svc.Create(context.Background(), CreateUserInput{
		Email:    "new@example.com",
		Password: "short",
		Role:     "manager",
	}, EventRecord{})

	var appErr *apperrors.AppError
	require.True(t, apperrors.As(err, &appErr))
	assert.Equal(t, apperrors.ErrWeakPassword.Code, appErr.Code)
}

func TestLastOwnerCannotBeDemoted(t *testing.T) {
	repo := newFakeUserRepo()
	owner := repo.add("owner@example.com", models.UserRoleOwner, "password-123")
	svc := NewUserService(repo, nil)

	managerRole := "manager"
	_, err := svc.Update(context.Background(), owner.ID, UpdateUserInput{Role: &managerRole}, EventRecord{})

	var appErr *apperrors.AppError
	require.True(t, apperrors.As(err, &appErr))
	assert.Equal(t, http.StatusBadRequest, appErr.HTTPCode)
}

func TestLastOwnerCannotBeDeactivated(t *testing.T) {
	repo := newFakeUserRepo()
	owner := repo.add("owner@example.com", models.UserRoleOwner, "password-123")
	svc := NewUserService(repo, nil)

	inactive := false
	_, err := svc.Update(context.Background(), owner.ID, UpdateUserInput{Active: &inactive}, EventRecord{})
	require.Error(t, err)
}

func TestOwnerDemotionAllowedWithSecondOwner(t *testing.T) {
	repo := newFakeUserRepo()
	first := repo.add("first@example.com", models.UserRoleOwner, "password-123")
	repo.add("second@example.com", models.UserRoleOwner, "password-123")
	svc := NewUserService(repo, nil)

	managerRole := "manager"
	view, err := svc.Update(context.Background(), first.ID, UpdateUserInput{Role: &managerRole}, EventRecord{})
	require.NoError(t, err)
	assert.Equal(t, "manager", view.Role)
}

func TestDeactivationRevokesRefreshTokens(t *testing.T) {
	repo := newFakeUserRepo()
	repo.add("owner@example.com", models.UserRoleOwner, "password-123")
	manager := repo.add("manager@example.com", models.UserRoleManager, "password-123")
	svc := NewUserService(repo, nil)

	inactive := false
	_, err := svc.Update(context.Background(), manager.ID, UpdateUserInput{Active: &inactive}, EventRecord{})
	require.NoError(t, err)
	assert.Contains(t, repo.revokedFor, manager.ID)
}

func TestUserCannotDeleteOwnAccount(t *testing.T) {
	repo := newFakeUserRepo()
	repo.add("owner@example.com", models.UserRoleOwner, "password-123")
	second := repo.add("second@example.com", models.UserRoleOwner, "password-123")
	svc := NewUserService(repo, nil)

	err := svc.Delete(context.Background(), second.ID, EventRecord{UserID: &second.ID})
	var appErr *apperrors.AppError
	require.True(t, apperrors.As(err, &appErr))
	assert.Equal(t, http.StatusBadRequest, appErr.HTTPCode)
}

func TestLastOwnerCannotBeDeleted(t *testing.T) {
	repo := newFakeUserRepo()
	owner := repo.add("owner@example.com", models.UserRoleOwner, "password-123")
	actorID := uint(99)
	svc := NewUserService(repo, nil)

	err := svc.Delete(context.Background(), owner.ID, EventRecord{UserID: &actorID})
	require.Error(t, err)
	assert.Len(t, repo.users, 1)
}

func TestChangePasswordChecksCurrentAndRevokesSessions(t *testing.T) {
	repo := newFakeUserRepo()
	user := repo.add("manager@example.com", models.UserRoleManager, "password-123")
	svc := NewUserService(repo, nil)

	err := svc.ChangePassword(context.Background(), user.ID, ChangePasswordInput{
		CurrentPassword: "wrong-password",
		NewPassword:     "new-password-456",
	}, EventRecord{})
	var appErr *apperrors.AppError
	require.True(t, apperrors.As(err, &appErr))
	assert.Equal(t, apperrors.ErrInvalidCredentials.Code, appErr.Code)

	err = svc.ChangePassword(context.Background(), user.ID, ChangePasswordInput{
		CurrentPassword: "password-123",
		NewPassword:     "new-password-456",
	}, EventRecord{})
	require.NoError(t, err)
	assert.Contains(t, repo.revokedFor, user.ID)

	updated, _ := repo.FindByID(user.ID)
	assert.True(t, auth.CheckPasswordHash("new-password-456", updated.PasswordHash))
}

func TestSeedOwner(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewUserService(repo, nil)

	require.NoError(t, svc.SeedOwner(context.Background(), "", ""))
	assert.Empty(t, repo.users, "blank credentials skip seeding")

	require.NoError(t, svc.SeedOwner(context.Background(), "owner@example.com", "password-123"))
	require.Len(t, repo.users, 1)

	// Second run is a no-op once an owner exists.
	require.NoError(t, svc.SeedOwner(context.Background(), "other@example.com", "password-123"))
	assert.Len(t, repo.users, 1)
}
