package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loxigl/Rent-Pro/internal/models"
	"github.com/loxigl/Rent-Pro/test/helpers"
)

func TestPublicCatalog(t *testing.T) {
	ts := helpers.NewTestServer(t)
	defer ts.Close()
	require.NoError(t, ts.ClearTables())

	apartment := helpers.CreateApartment(t, ts.DB, "Catalog test apartment")

	res, body := ts.SendRequest(t, http.MethodGet, "/api/v1/apartments", "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)

	var list struct {
		Items []struct {
			ID    uint   `json:"id"`
			Title string `json:"title"`
		} `json:"items"`
		Total int64 `json:"total"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &list))
	require.Equal(t, int64(1), list.Total)
	assert.Equal(t, apartment.ID, list.Items[0].ID)

	res, body = ts.SendRequest(t, http.MethodGet, fmt.Sprintf("/api/v1/apartments/%d", apartment.ID), "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)

	// Inactive apartments disappear from the public catalog.
	require.NoError(t, ts.DB.Model(apartment).Update("active", false).Error)
	res, _ = ts.SendRequest(t, http.MethodGet, fmt.Sprintf("/api/v1/apartments/%d", apartment.ID), "", nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestBookingFlow(t *testing.T) {
	ts := helpers.NewTestServer(t)
	defer ts.Close()
	require.NoError(t, ts.ClearTables())

	apartment := helpers.CreateApartment(t, ts.DB, "Booking test apartment")
	token, _ := helpers.CreateAndLoginUser(t, ts, models.UserRoleManager)

	checkIn := time.Now().AddDate(0, 0, 7).Format("2006-01-02")
	checkOut := time.Now().AddDate(0, 0, 10).Format("2006-01-02")

	bookingBody := map[string]interface{}{
		"apartment_id": apartment.ID,
		"guest_name":   "Ivan Petrov",
		"guest_email":  "ivan@test.local",
		"check_in":     checkIn,
		"check_out":    checkOut,
	}

	res, body := ts.SendRequest(t, http.MethodPost, "/api/v1/bookings", "", bookingBody)
	require.Equal(t, http.StatusCreated, res.StatusCode, body)

	var created struct {
		ID     uint   `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &created))
	assert.Equal(t, "pending", created.Status)

	// Overlapping dates are rejected.
	res, _ = ts.SendRequest(t, http.MethodPost, "/api/v1/bookings", "", bookingBody)
	assert.Equal(t, http.StatusConflict, res.StatusCode)

	// The manager confirms the booking.
	res, body = ts.SendRequest(t, http.MethodPut,
		fmt.Sprintf("/api/v1/admin/bookings/%d/status", created.ID), token,
		map[string]string{"status": "confirmed"})
	require.Equal(t, http.StatusOK, res.StatusCode, body)

	// Confirmed -> pending is not a legal transition.
	res, _ = ts.SendRequest(t, http.MethodPut,
		fmt.Sprintf("/api/v1/admin/bookings/%d/status", created.ID), token,
		map[string]string{"status": "pending"})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestPermissionBoundaries(t *testing.T) {
	ts := helpers.NewTestServer(t)
	defer ts.Close()
	require.NoError(t, ts.ClearTables())

	managerToken, _ := helpers.CreateAndLoginUser(t, ts, models.UserRoleManager)
	ownerToken, _ := helpers.CreateAndLoginUser(t, ts, models.UserRoleOwner)

	// Managers cannot manage staff.
	res, _ := ts.SendRequest(t, http.MethodGet, "/api/v1/admin/users", managerToken, nil)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)

	res, body := ts.SendRequest(t, http.MethodGet, "/api/v1/admin/users", ownerToken, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode, body)

	// Managers cannot change settings but can read them.
	res, _ = ts.SendRequest(t, http.MethodGet, "/api/v1/admin/settings", managerToken, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	res, _ = ts.SendRequest(t, http.MethodPatch, "/api/v1/admin/settings", managerToken,
		map[string]bool{"booking_globally_enabled": false})
	assert.Equal(t, http.StatusForbidden, res.StatusCode)

	// No token at all.
	res, _ = ts.SendRequest(t, http.MethodGet, "/api/v1/admin/apartments", "", nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestBookingGlobalToggle(t *testing.T) {
	ts := helpers.NewTestServer(t)
	defer ts.Close()
	require.NoError(t, ts.ClearTables())

	apartment := helpers.CreateApartment(t, ts.DB, "Toggle test apartment")
	ownerToken, _ := helpers.CreateAndLoginUser(t, ts, models.UserRoleOwner)

	res, body := ts.SendRequest(t, http.MethodPatch, "/api/v1/admin/settings", ownerToken,
		map[string]bool{"booking_globally_enabled": false})
	require.Equal(t, http.StatusOK, res.StatusCode, body)

	res, _ = ts.SendRequest(t, http.MethodPost, "/api/v1/bookings", "", map[string]interface{}{
		"apartment_id": apartment.ID,
		"guest_name":   "Anna",
		"guest_email":  "anna@test.local",
		"check_in":     time.Now().AddDate(0, 0, 3).Format("2006-01-02"),
		"check_out":    time.Now().AddDate(0, 0, 5).Format("2006-01-02"),
	})
	assert.Equal(t, http.StatusServiceUnavailable, res.StatusCode)
}
