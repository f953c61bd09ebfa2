package services

import (
	"context"
	"time"

	"github.com/loxigl/Rent-Pro/internal/logger"
	"github.com/loxigl/Rent-Pro/internal/models"
	"github.com/loxigl/Rent-Pro/internal/repositories"
	"github.com/loxigl/Rent-Pro/pkg/apperrors"
)

// allowedBookingTransitions closes the booking state machine.
var allowedBookingTransitions = map[models.BookingStatus][]models.BookingStatus{
	models.BookingStatusPending:   {models.BookingStatusConfirmed, models.BookingStatusCancelled},
	models.BookingStatusConfirmed: {models.BookingStatusCancelled, models.BookingStatusCompleted},
	models.BookingStatusCancelled: {},
	models.BookingStatusCompleted: {},
}

type BookingInput struct {
	ApartmentID uint   `json:"apartment_id" validate:"required"`
	GuestName   string `json:"guest_name" validate:"required,min=2,max=255"`
	GuestEmail  string `json:"guest_email" validate:"required,email"`
	GuestPhone  string `json:"guest_phone" validate:"omitempty,max=32"`
	CheckIn     string `json:"check_in" validate:"required,datetime=2006-01-02"`
	CheckOut    string `json:"check_out" validate:"required,datetime=2006-01-02"`
	Comment     string `json:"comment" validate:"omitempty,max=2000"`
}

type BookingView struct {
	ID             uint   `json:"id"`
	ApartmentID    uint   `json:"apartment_id"`
	ApartmentTitle string `json:"apartment_title,omitempty"`
	GuestName      string `json:"guest_name"`
	GuestEmail     string `json:"guest_email"`
	GuestPhone     string `json:"guest_phone,omitempty"`
	CheckIn        string `json:"check_in"`
	CheckOut       string `json:"check_out"`
	Status         string `json:"status"`
	Comment        string `json:"comment,omitempty"`
	CreatedAt      string `json:"created_at"`
}

type BookingList struct {
	Items    []BookingView `json:"items"`
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
}

type BookingService struct {
	bookings   repositories.BookingRepository
	apartments repositories.ApartmentRepository
	settings   repositories.SettingsRepository
	email      *EmailService
	events     *EventService
}

func NewBookingService(
	bookings repositories.BookingRepository,
	apartments repositories.ApartmentRepository,
	settings repositories.SettingsRepository,
	email *EmailService,
	events *EventService,
) *BookingService {
	return &BookingService{
		bookings:   bookings,
		apartments: apartments,
		settings:   settings,
		email:      email,
		events:     events,
	}
}

// Create handles a public booking request. The global toggle, the date
// range and the overlap check all run before the row is written.
func (s *BookingService) Create(ctx context.Context, input BookingInput, actor EventRecord) (*BookingView, error) {
	settings, err := s.settings.Get()
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if !settings.BookingGloballyEnabled {
		return nil, apperrors.ErrBookingDisabled
	}

	apartment, err := s.apartments.FindActiveByID(input.ApartmentID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrApartmentNotFound) {
			return nil, apperrors.NewNotFoundError("bookings", "Apartment not found")
		}
		return nil, apperrors.InternalError(err)
	}

	checkIn, checkOut, err := parseDateRange(input.CheckIn, input.CheckOut)
	if err != nil {
		return nil, err
	}

	overlap, err := s.bookings.HasOverlap(apartment.ID, checkIn, checkOut, 0)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if overlap {
		return nil, apperrors.ErrBookingOverlap
	}

	booking := &models.Booking{
		ApartmentID: apartment.ID,
		GuestName:   input.GuestName,
		GuestEmail:  input.GuestEmail,
		GuestPhone:  input.GuestPhone,
		CheckIn:     checkIn,
		CheckOut:    checkOut,
		Status:      models.BookingStatusPending,
		Comment:     input.Comment,
	}
	if err := s.bookings.Create(booking); err != nil {
		return nil, apperrors.InternalError(err)
	}

	if s.email != nil {
		s.email.NotifyBookingCreated(ctx, booking, apartment.Title)
	}
	s.logEvent(ctx, actor, models.EventTypeCreate, booking.ID, map[string]interface{}{
		"apartment_id": apartment.ID,
		"check_in":     input.CheckIn,
		"check_out":    input.CheckOut,
	})

	booking.Apartment = apartment
	view := bookingView(booking)
	return &view, nil
}

// Availability reports date conflicts for an apartment without creating
// anything.
func (s *BookingService) Availability(ctx context.Context, apartmentID uint, checkInStr, checkOutStr string) (bool, error) {
	if _, err := s.apartments.FindActiveByID(apartmentID); err != nil {
		if apperrors.Is(err, repositories.ErrApartmentNotFound) {
			return false, apperrors.NewNotFoundError("bookings", "Apartment not found")
		}
		return false, apperrors.InternalError(err)
	}
	checkIn, checkOut, err := parseDateRange(checkInStr, checkOutStr)
	if err != nil {
		return false, err
	}
	overlap, err := s.bookings.HasOverlap(apartmentID, checkIn, checkOut, 0)
	if err != nil {
		return false, apperrors.InternalError(err)
	}
	return !overlap, nil
}

// List returns admin-filtered bookings.
func (s *BookingService) List(ctx context.Context, filter repositories.BookingFilter) (*BookingList, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	bookings, total, err := s.bookings.FindWithFilter(filter)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	items := make([]BookingView, 0, len(bookings))
	for i := range bookings {
		items = append(items, bookingView(&bookings[i]))
	}
	return &BookingList{
		Items:    items,
		Total:    total,
		Page:     filter.Page,
		PageSize: filter.PageSize,
	}, nil
}

func (s *BookingService) Get(ctx context.Context, id uint) (*BookingView, error) {
	booking, err := s.bookings.FindByID(id)
	if err != nil {
		if apperrors.Is(err, repositories.ErrBookingNotFound) {
			return nil, apperrors.NewNotFoundError("bookings", "Booking not found")
		}
		return nil, apperrors.InternalError(err)
	}
	view := bookingView(booking)
	return &view, nil
}

// UpdateStatus moves a booking through the closed transition table.
// Confirming re-runs the overlap check so two pending bookings for the
// same dates cannot both be confirmed.
func (s *BookingService) UpdateStatus(ctx context.Context, id uint, status models.BookingStatus, actor EventRecord) (*BookingView, error) {
	booking, err := s.bookings.FindByID(id)
	if err != nil {
		if apperrors.Is(err, repositories.ErrBookingNotFound) {
			return nil, apperrors.NewNotFoundError("bookings", "Booking not found")
		}
		return nil, apperrors.InternalError(err)
	}

	if !transitionAllowed(booking.Status, status) {
		return nil, apperrors.ErrInvalidStatusTransition.WithDetails(map[string]string{
			"from": string(booking.Status),
			"to":   string(status),
		})
	}

	if status == models.BookingStatusConfirmed {
		overlap, err := s.bookings.HasOverlap(booking.ApartmentID, booking.CheckIn, booking.CheckOut, booking.ID)
		if err != nil {
			return nil, apperrors.InternalError(err)
		}
		if overlap {
			return nil, apperrors.ErrBookingOverlap
		}
	}

	if err := s.bookings.UpdateStatus(id, status); err != nil {
		return nil, apperrors.InternalError(err)
	}
	previous := booking.Status
	booking.Status = status

	if s.email != nil {
		title := ""
		if booking.Apartment != nil {
			title = booking.Apartment.Title
		}
		s.email.NotifyBookingStatus(ctx, booking, title)
	}
	s.logEvent(ctx, actor, models.EventTypeUpdate, id, map[string]interface{}{
		"from": string(previous),
		"to":   string(status),
	})

	view := bookingView(booking)
	return &view, nil
}

// CompleteExpired ages confirmed bookings past checkout into completed.
// The booking worker calls this on a schedule.
func (s *BookingService) CompleteExpired(ctx context.Context) (int64, error) {
	n, err := s.bookings.CompletePastBookings(time.Now().UTC())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		logger.CtxInfo(ctx, "completed past bookings", "count", n)
	}
	return n, nil
}

func (s *BookingService) logEvent(ctx context.Context, actor EventRecord, eventType models.EventType, id uint, payload map[string]interface{}) {
	if s.events == nil {
		return
	}
	actor.EventType = eventType
	actor.EntityType = models.EntityTypeBooking
	actor.EntityID = uintToString(id)
	actor.Payload = payload
	s.events.Log(ctx, actor)
}

func transitionAllowed(from, to models.BookingStatus) bool {
	for _, allowed := range allowedBookingTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

const bookingDateLayout = "2006-01-02"

func parseDateRange(checkInStr, checkOutStr string) (time.Time, time.Time, error) {
	checkIn, err := time.Parse(bookingDateLayout, checkInStr)
	if err != nil {
		return time.Time{}, time.Time{}, apperrors.ErrInvalidDateRange.WithDetails(map[string]string{"check_in": checkInStr})
	}
	checkOut, err := time.Parse(bookingDateLayout, checkOutStr)
	if err != nil {
		return time.Time{}, time.Time{}, apperrors.ErrInvalidDateRange.WithDetails(map[string]string{"check_out": checkOutStr})
	}
	if !checkIn.Before(checkOut) {
		return time.Time{}, time.Time{}, apperrors.ErrInvalidDateRange
	}
	today := time.Now().UTC().Truncate(24 * time.Hour)
	if checkIn.Before(today) {
		return time.Time{}, time.Time{}, apperrors.ErrInvalidDateRange.WithDetails(map[string]string{"reason": "check_in is in the past"})
	}
	return checkIn, checkOut, nil
}

func bookingView(b *models.Booking) BookingView {
	view := BookingView{
		ID:          b.ID,
		ApartmentID: b.ApartmentID,
		GuestName:   b.GuestName,
		GuestEmail:  b.GuestEmail,
		GuestPhone:  b.GuestPhone,
		CheckIn:     b.CheckIn.Format(bookingDateLayout),
		CheckOut:    b.CheckOut.Format(bookingDateLayout),
		Status:      string(b.Status),
		Comment:     b.Comment,
		CreatedAt:   b.CreatedAt.Format(time.RFC3339),
	}
	if b.Apartment != nil {
		view.ApartmentTitle = b.Apartment.Title
	}
	return view
}
