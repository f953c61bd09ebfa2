package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loxigl/Rent-Pro/internal/models"
	"github.com/loxigl/Rent-Pro/internal/repositories"
	"github.com/loxigl/Rent-Pro/pkg/apperrors"
)

type fakeBookingRepo struct {
	bookings map[uint]*models.Booking
	nextID   uint
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{bookings: map[uint]*models.Booking{}, nextID: 1}
}

func (f *fakeBookingRepo) FindByID(id uint) (*models.Booking, error) {
	if b, ok := f.bookings[id]; ok {
		cp := *b
		return &cp, nil
	}
	return nil, repositories.ErrBookingNotFound
}

func (f *fakeBookingRepo) FindWithFilter(criteria repositories.BookingFilter) ([]models.Booking, int64, error) {
	var out []models.Booking
	for _, b := range f.bookings {
		if criteria.ApartmentID != 0 && b.ApartmentID != criteria.ApartmentID {
			continue
		}
		if criteria.Status != "" && b.Status != criteria.Status {
			continue
		}
		out = append(out, *b)
	}
	return out, int64(len(out)), nil
}

func (f *fakeBookingRepo) Create(booking *models.Booking) error {
	booking.ID = f.nextID
	f.nextID++
	cp := *booking
	f.bookings[booking.ID] = &cp
	return nil
}

func (f *fakeBookingRepo) UpdateStatus(id uint, status models.BookingStatus) error {
	b, ok := f.bookings[id]
	if !ok {
		return repositories.ErrBookingNotFound
	}
	b.Status = status
	return nil
}

func (f *fakeBookingRepo) HasOverlap(apartmentID uint, checkIn, checkOut time.Time, excludeID uint) (bool, error) {
	for _, b := range f.bookings {
		if b.ApartmentID != apartmentID || b.ID == excludeID {
			continue
		}
		if b.Status != models.BookingStatusPending && b.Status != models.BookingStatusConfirmed {
			continue
		}
		if b.Overlaps(checkIn, checkOut) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeBookingRepo) CompletePastBookings(before time.Time) (int64, error) {
	var n int64
	for _, b := range f.bookings {
		if b.Status == models.BookingStatusConfirmed && !b.CheckOut.After(before) {
			b.Status = models.BookingStatusCompleted
			n++
		}
	}
	return n, nil
}

type bookingFixture struct {
	svc      *BookingService
	bookings *fakeBookingRepo
	settings *fakeSettingsRepo
}

func newBookingFixture() *bookingFixture {
	bookings := newFakeBookingRepo()
	apartments := &fakeApartmentRepo{apartments: map[uint]*models.Apartment{
		1: {SerialModel: models.SerialModel{ID: 1}, Title: "Studio on Lenina", Active: true},
	}}
	settings := &fakeSettingsRepo{row: models.SystemSettings{BookingGloballyEnabled: true, MaxUploadSizeMB: 10}}
	svc := NewBookingService(bookings, apartments, settings, nil, nil)
	return &bookingFixture{svc: svc, bookings: bookings, settings: settings}
}

func futureRange(daysAhead, nights int) (string, string) {
	in := time.Now().UTC().AddDate(0, 0, daysAhead)
	return in.Format(bookingDateLayout), in.AddDate(0, 0, nights).Format(bookingDateLayout)
}

func TestBookingCreate(t *testing.T) {
	f := newBookingFixture()
	in, out := futureRange(30, 3)

	view, err := f.svc.Create(context.Background(), BookingInput{
		ApartmentID: 1,
		GuestName:   "Ivan Petrov",
		GuestEmail:  "ivan@example.com",
		CheckIn:     in,
		CheckOut:    out,
	}, EventRecord{})
	require.NoError(t, err)

	assert.Equal(t, "pending", view.Status)
	assert.Equal(t, "Studio on Lenina", view.ApartmentTitle)
	assert.Equal(t, in, view.CheckIn)
	assert.Equal(t, out, view.CheckOut)
}

func TestBookingCreateRejectsOverlap(t *testing.T) {
	f := newBookingFixture()
	in, out := futureRange(30, 3)

	input := BookingInput{
		ApartmentID: 1,
		GuestName:   "Ivan Petrov",
		GuestEmail:  "ivan@example.com",
		CheckIn:     in,
		CheckOut:    out,
	}
	_, err := f.svc.Create(context.Background(), input, EventRecord{})
	require.NoError(t, err)

	_, err = f.svc.Create(context.Background(), input, EventRecord{})
	var appErr *apperrors.AppError
	require.True(t, apperrors.As(err, &appErr))
	assert.Equal(t, apperrors.ErrBookingOverlap.Code, appErr.Code)

	// Back-to-back stays share a boundary day and do not conflict.
	input.CheckIn = out
	input.CheckOut = time.Now().UTC().AddDate(0, 0, 36).Format(bookingDateLayout)
	_, err = f.svc.Create(context.Background(), input, EventRecord{})
	assert.NoError(t, err)
}

func TestBookingCreateHonorsGlobalToggle(t *testing.T) {
	f := newBookingFixture()
	f.settings.row.BookingGloballyEnabled = false
	in, out := futureRange(30, 3)

	_, err := f.svc.Create(context.Background(), BookingInput{
		ApartmentID: 1,
		GuestName:   "Ivan Petrov",
		GuestEmail:  "ivan@example.com",
		CheckIn:     in,
		CheckOut:    out,
	}, EventRecord{})

	var appErr *apperrors.AppError
	require.True(t, apperrors.As(err, &appErr))
	assert.Equal(t, apperrors.ErrBookingDisabled.Code, appErr.Code)
}

func TestBookingStatusTransitions(t *testing.T) {
	f := newBookingFixture()
	in, out := futureRange(30, 3)

	view, err := f.svc.Create(context.Background(), BookingInput{
		ApartmentID: 1,
		GuestName:   "Ivan Petrov",
		GuestEmail:  "ivan@example.com",
		CheckIn:     in,
		CheckOut:    out,
	}, EventRecord{})
	require.NoError(t, err)

	confirmed, err := f.svc.UpdateStatus(context.Background(), view.ID, models.BookingStatusConfirmed, EventRecord{})
	require.NoError(t, err)
	assert.Equal(t, "confirmed", confirmed.Status)

	_, err = f.svc.UpdateStatus(context.Background(), view.ID, models.BookingStatusPending, EventRecord{})
	var appErr *apperrors.AppError
	require.True(t, apperrors.As(err, &appErr))
	assert.Equal(t, apperrors.ErrInvalidStatusTransition.Code, appErr.Code)
}

func TestConfirmRechecksOverlap(t *testing.T) {
	f := newBookingFixture()
	in, out := futureRange(30, 3)
	checkIn, _ := time.Parse(bookingDateLayout, in)
	checkOut, _ := time.Parse(bookingDateLayout, out)

	// A pending request whose dates were taken by another booking after it
	// was filed, e.g. through a direct import.
	pending := &models.Booking{ApartmentID: 1, CheckIn: checkIn, CheckOut: checkOut, Status: models.BookingStatusPending}
	taken := &models.Booking{ApartmentID: 1, CheckIn: checkIn, CheckOut: checkOut, Status: models.BookingStatusConfirmed}
	require.NoError(t, f.bookings.Create(pending))
	require.NoError(t, f.bookings.Create(taken))

	_, err := f.svc.UpdateStatus(context.Background(), pending.ID, models.BookingStatusConfirmed, EventRecord{})
	var appErr *apperrors.AppError
	require.True(t, apperrors.As(err, &appErr))
	assert.Equal(t, apperrors.ErrBookingOverlap.Code, appErr.Code)

	// The losing request can still be cancelled.
	cancelled, err := f.svc.UpdateStatus(context.Background(), pending.ID, models.BookingStatusCancelled, EventRecord{})
	require.NoError(t, err)
	assert.Equal(t, "cancelled", cancelled.Status)
}

func TestCompleteExpired(t *testing.T) {
	f := newBookingFixture()
	past := time.Now().UTC().AddDate(0, 0, -10)

	done := &models.Booking{ApartmentID: 1, CheckIn: past, CheckOut: past.AddDate(0, 0, 3), Status: models.BookingStatusConfirmed}
	current := &models.Booking{ApartmentID: 1, CheckIn: time.Now().UTC(), CheckOut: time.Now().UTC().AddDate(0, 0, 5), Status: models.BookingStatusConfirmed}
	require.NoError(t, f.bookings.Create(done))
	require.NoError(t, f.bookings.Create(current))

	n, err := f.svc.CompleteExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, models.BookingStatusCompleted, f.bookings.bookings[done.ID].Status)
	assert.Equal(t, models.BookingStatusConfirmed, f.bookings.bookings[current.ID].Status)
}

func TestTransitionAllowed(t *testing.T) {
	tests := []struct {
		from, to models.BookingStatus
		want     bool
	}{
		{models.BookingStatusPending, models.BookingStatusConfirmed, true},
		{models.BookingStatusPending, models.BookingStatusCancelled, true},
		{models.BookingStatusPending, models.BookingStatusCompleted, false},
		{models.BookingStatusConfirmed, models.BookingStatusCancelled, true},
		{models.BookingStatusConfirmed, models.BookingStatusCompleted, true},
		{models.BookingStatusConfirmed, models.BookingStatusPending, false},
		{models.BookingStatusCancelled, models.BookingStatusPending, false},
		{models.BookingStatusCancelled, models.BookingStatusConfirmed, false},
		{models.BookingStatusCompleted, models.BookingStatusCancelled, false},
		{models.BookingStatusCompleted, models.BookingStatusConfirmed, false},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, transitionAllowed(tc.from, tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestParseDateRange(t *testing.T) {
	future := time.Now().UTC().AddDate(0, 1, 0)
	in := future.Format(bookingDateLayout)
	out := future.AddDate(0, 0, 3).Format(bookingDateLayout)

	checkIn, checkOut, err := parseDateRange(in, out)
	require.NoError(t, err)
	assert.True(t, checkOut.After(checkIn))

	today := time.Now().UTC().Format(bookingDateLayout)
	tomorrow := time.Now().UTC().AddDate(0, 0, 1).Format(bookingDateLayout)
	_, _, err = parseDateRange(today, tomorrow)
	assert.NoError(t, err, "same-day check-in is allowed")
}

func TestParseDateRangeRejections(t *testing.T) {
	future := time.Now().UTC().AddDate(0, 1, 0)
	in := future.Format(bookingDateLayout)
	out := future.AddDate(0, 0, 3).Format(bookingDateLayout)

	for _, tc := range []struct {
		name     string
		checkIn  string
		checkOut string
	}{
		{"bad check_in format", "03-10-2026", out},
		{"bad check_out format", in, "soon"},
		{"check_out before check_in", out, in},
		{"zero-night stay", in, in},
		{"check_in in the past", "2020-01-10", "2020-01-15"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := parseDateRange(tc.checkIn, tc.checkOut)
			assert.Error(t, err)
		})
	}
}
