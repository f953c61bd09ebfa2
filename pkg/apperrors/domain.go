package apperrors

import (
	"net/http"
)

// Factories for wrapping repository errors.

// ErrNotFound converts a repository miss into a 404.
func ErrNotFound(err error) *AppError {
	return Wrap(err, CodeNotFound, "resource", "Resource not found", http.StatusNotFound)
}

func ErrAlreadyExists(err error) *AppError {
	return Wrap(err, CodeAlreadyExists, "resource", "Resource already exists", http.StatusConflict)
}

func ErrConflict(err error, domain, message string) *AppError {
	return Wrap(err, CodeConflict, domain, message, http.StatusConflict)
}

func ErrInvalidOperation(domain, message string) *AppError {
	return New(CodeInvalidOperation, domain, message, http.StatusBadRequest)
}

// Predefined errors for the frequent static cases.

var ErrInvalidCredentials = New(
	CodeInvalidCredentials,
	"auth",
	"Invalid email or password",
	http.StatusUnauthorized,
)

var ErrInvalidToken = New(
	CodeInvalidToken,
	"auth",
	"Invalid or expired token",
	http.StatusUnauthorized,
)

var ErrUserInactive = New(
	CodeForbidden,
	"auth",
	"Account is deactivated",
	http.StatusForbidden,
)

var ErrInsufficientPermissions = New(
	CodeForbidden,
	"auth",
	"Insufficient permissions",
	http.StatusForbidden,
)

var ErrEmailAlreadyExists = New(
	CodeAlreadyExists,
	"auth",
	"Email already in use",
	http.StatusConflict,
)

var ErrWeakPassword = New(
	CodeValidationFailed,
	"validation",
	"Password is too weak. Minimum 8 characters required.",
	http.StatusBadRequest,
)

var ErrFileTooLarge = New(
	CodeLimitExceeded,
	"photos",
	"File size exceeds the allowed limit",
	http.StatusRequestEntityTooLarge,
)

var ErrUnsupportedImageType = New(
	CodeValidationFailed,
	"photos",
	"The provided image format is not supported",
	http.StatusBadRequest,
)

var ErrCorruptImage = New(
	CodeValidationFailed,
	"photos",
	"Image data is corrupt or not decodable",
	http.StatusBadRequest,
)

var ErrBookingDisabled = New(
	CodeUnavailable,
	"bookings",
	"Booking is temporarily disabled",
	http.StatusServiceUnavailable,
)

var ErrBookingOverlap = New(
	CodeConflict,
	"bookings",
	"The apartment is already booked for the selected dates",
	http.StatusConflict,
)

var ErrInvalidDateRange = New(
	CodeValidationFailed,
	"bookings",
	"Check-out must be after check-in and check-in must not be in the past",
	http.StatusBadRequest,
)

var ErrInvalidStatusTransition = New(
	CodeInvalidStatus,
	"bookings",
	"Status transition is not allowed",
	http.StatusConflict,
)

var ErrTitleAlreadyExists = New(
	CodeAlreadyExists,
	"apartments",
	"An apartment with this title already exists",
	http.StatusConflict,
)
