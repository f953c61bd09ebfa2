package helpers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/loxigl/Rent-Pro/internal/models"
)

// CreateUser inserts a user, hashing the plain password from PasswordHash.
func CreateUser(t *testing.T, db *gorm.DB, user *models.User) {
	t.Helper()

	hashed, err := bcrypt.GenerateFromPassword([]byte(user.PasswordHash), bcrypt.DefaultCost)
	require.NoError(t, err, "hashing test password must not fail")
	user.PasswordHash = string(hashed)
	user.Active = true

	require.NoError(t, db.Create(user).Error, "creating test user must not fail")
}

// CreateAndLoginUser creates a user and logs in through the API, returning
// the access token.
func CreateAndLoginUser(t *testing.T, ts *TestServer, role models.UserRole) (string, *models.User) {
	t.Helper()

	email := fmt.Sprintf("%s_%d@test.local", role, time.Now().UnixNano())
	password := "password-123"

	user := &models.User{
		Email:        email,
		PasswordHash: password,
		FullName:     "Test " + string(role),
		Role:         role,
	}
	CreateUser(t, ts.DB, user)

	res, body := ts.SendRequest(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusOK, res.StatusCode, "login must succeed: %s", body)

	var loginResponse struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &loginResponse))
	require.NotEmpty(t, loginResponse.AccessToken)

	return loginResponse.AccessToken, user
}

// CreateApartment inserts an active apartment for catalog tests.
func CreateApartment(t *testing.T, db *gorm.DB, title string) *models.Apartment {
	t.Helper()

	apartment := &models.Apartment{
		Title:       title,
		PriceRub:    85000,
		Rooms:       2,
		Floor:       4,
		AreaM2:      56.5,
		Address:     "Lenina 10, Kaliningrad",
		Description: "Two rooms, renovated",
		Active:      true,
	}
	require.NoError(t, db.Create(apartment).Error, "creating test apartment must not fail")
	return apartment
}
