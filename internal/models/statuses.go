package models

type UserRole string
type ProcessingStatus string
type BookingStatus string
type EventType string
type EntityType string

const (
	UserRoleOwner   UserRole = "owner"
	UserRoleManager UserRole = "manager"

	ProcessingStatusPending   ProcessingStatus = "pending"
	ProcessingStatusCompleted ProcessingStatus = "completed"
	ProcessingStatusFailed    ProcessingStatus = "failed"

	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"

	EventTypeCreate EventType = "create"
	EventTypeUpdate EventType = "update"
	EventTypeDelete EventType = "delete"
	EventTypeLogin  EventType = "login"
	EventTypeLogout EventType = "logout"

	EntityTypeApartment EntityType = "apartment"
	EntityTypePhoto     EntityType = "photo"
	EntityTypeBooking   EntityType = "booking"
	EntityTypeUser      EntityType = "user"
	EntityTypeSettings  EntityType = "settings"
)

// IsTerminal reports whether the status is a final processing state.
func (s ProcessingStatus) IsTerminal() bool {
	return s == ProcessingStatusCompleted || s == ProcessingStatusFailed
}
