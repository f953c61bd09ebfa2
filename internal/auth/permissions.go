package auth

import (
	"errors"

	"github.com/loxigl/Rent-Pro/internal/models"
)

// Permission is a closed capability enumeration: resource × access level.
type Permission string

const (
	PermApartmentsRead  Permission = "apartments:read"
	PermApartmentsWrite Permission = "apartments:write"
	PermPhotosRead      Permission = "photos:read"
	PermPhotosWrite     Permission = "photos:write"
	PermBookingsRead    Permission = "bookings:read"
	PermBookingsWrite   Permission = "bookings:write"
	PermEventsRead      Permission = "events:read"
	PermEventsWrite     Permission = "events:write"
	PermUsersRead       Permission = "users:read"
	PermUsersWrite      Permission = "users:write"
	PermSettingsRead    Permission = "settings:read"
	PermSettingsWrite   Permission = "settings:write"
)

var allPermissions = []Permission{
	PermApartmentsRead, PermApartmentsWrite,
	PermPhotosRead, PermPhotosWrite,
	PermBookingsRead, PermBookingsWrite,
	PermEventsRead, PermEventsWrite,
	PermUsersRead, PermUsersWrite,
	PermSettingsRead, PermSettingsWrite,
}

// rolePermissions is the full grant table. The owner holds everything;
// managers run day-to-day operations but cannot manage staff or settings.
var rolePermissions = map[models.UserRole][]Permission{
	models.UserRoleOwner: allPermissions,
	models.UserRoleManager: {
		PermApartmentsRead, PermApartmentsWrite,
		PermPhotosRead, PermPhotosWrite,
		PermBookingsRead, PermBookingsWrite,
		PermEventsRead,
		PermSettingsRead,
	},
}

// Can reports whether the role holds the permission.
func Can(role models.UserRole, perm Permission) bool {
	for _, p := range rolePermissions[role] {
		if p == perm {
			return true
		}
	}
	return false
}

// RolePermissions returns the grant list for a role.
func RolePermissions(role models.UserRole) []Permission {
	perms := rolePermissions[role]
	out := make([]Permission, len(perms))
	copy(out, perms)
	return out
}

// ValidateRole rejects anything outside the closed role set.
func ValidateRole(role models.UserRole) error {
	switch role {
	case models.UserRoleOwner, models.UserRoleManager:
		return nil
	default:
		return errors.New("invalid role")
	}
}
