package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type loginForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

func TestValidateReportsJSONFieldNames(t *testing.T) {
	v := New()

	err := v.Validate(loginForm{Email: "not-an-email", Password: "short"})
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Errors, "email")
	assert.Contains(t, verr.Errors, "password")
	assert.Equal(t, "Must be a valid email address", verr.Errors["email"])
	assert.Equal(t, "Must be at least 8 characters long", verr.Errors["password"])
}

func TestValidatePasses(t *testing.T) {
	v := New()
	assert.NoError(t, v.Validate(loginForm{Email: "admin@example.com", Password: "long enough"}))
}

func TestUserRoleRule(t *testing.T) {
	v := New()
	type form struct {
		Role string `json:"role" validate:"omitempty,is-user-role"`
	}

	assert.NoError(t, v.Validate(form{Role: "owner"}))
	assert.NoError(t, v.Validate(form{Role: "manager"}))
	assert.NoError(t, v.Validate(form{Role: ""}), "empty is left to 'required'")

	err := v.Validate(form{Role: "superuser"})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "Must be a valid user role", verr.Errors["role"])
}

func TestBookingStatusRule(t *testing.T) {
	v := New()
	type form struct {
		Status string `json:"status" validate:"omitempty,is-booking-status"`
	}

	for _, status := range []string{"pending", "confirmed", "cancelled", "completed"} {
		assert.NoError(t, v.Validate(form{Status: status}), status)
	}
	assert.Error(t, v.Validate(form{Status: "archived"}))
}

func TestSortFieldRule(t *testing.T) {
	v := New()
	type form struct {
		Sort string `json:"sort" validate:"omitempty,is-sort-field"`
	}

	assert.NoError(t, v.Validate(form{Sort: ""}))
	assert.NoError(t, v.Validate(form{Sort: "price_rub"}))
	assert.NoError(t, v.Validate(form{Sort: "created_at"}))
	assert.Error(t, v.Validate(form{Sort: "title"}))
}

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Errors: map[string]string{"email": "This field is required"}}
	assert.Contains(t, err.Error(), "field 'email'")
	assert.Contains(t, err.Error(), "Validation failed")
}
