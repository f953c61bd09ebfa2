package validator

import (
	"log"

	"github.com/go-playground/validator/v10"

	"github.com/loxigl/Rent-Pro/internal/models"
)

func registerCustomRules(v *validator.Validate) {
	mustRegister := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			log.Fatalf("failed to register custom validation tag '%s': %v", tag, err)
		}
	}

	mustRegister("is-user-role", validateUserRole)
	mustRegister("is-booking-status", validateBookingStatus)
	mustRegister("is-sort-field", validateSortField)
}

func validateUserRole(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true // 'required' handles empty values
	}
	switch models.UserRole(value) {
	case models.UserRoleOwner, models.UserRoleManager:
		return true
	default:
		return false
	}
}

func validateBookingStatus(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	switch models.BookingStatus(value) {
	case models.BookingStatusPending, models.BookingStatusConfirmed,
		models.BookingStatusCancelled, models.BookingStatusCompleted:
		return true
	default:
		return false
	}
}

func validateSortField(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "", "price_rub", "created_at":
		return true
	default:
		return false
	}
}
