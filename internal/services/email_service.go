package services

import (
	"context"

	"github.com/loxigl/Rent-Pro/internal/email"
	"github.com/loxigl/Rent-Pro/internal/logger"
	"github.com/loxigl/Rent-Pro/internal/models"
)

// EmailService sends booking notifications. Delivery runs in a goroutine;
// mail trouble is logged, never surfaced to the guest.
type EmailService struct {
	provider   email.Provider
	adminEmail string
}

func NewEmailService(provider email.Provider, adminEmail string) *EmailService {
	return &EmailService{provider: provider, adminEmail: adminEmail}
}

func (s *EmailService) NotifyBookingCreated(ctx context.Context, booking *models.Booking, apartmentTitle string) {
	data := email.BookingMailData{
		GuestName:      booking.GuestName,
		ApartmentTitle: apartmentTitle,
		CheckIn:        booking.CheckIn,
		CheckOut:       booking.CheckOut,
		Status:         string(booking.Status),
	}

	go func() {
		if body, err := email.RenderBookingGuest(data); err == nil {
			s.send(&email.Email{
				To:      []string{booking.GuestEmail},
				Subject: "Booking request received",
				Body:    body,
			})
		}
		if s.adminEmail == "" {
			return
		}
		if body, err := email.RenderBookingAdmin(data); err == nil {
			s.send(&email.Email{
				To:      []string{s.adminEmail},
				Subject: "New booking request",
				Body:    body,
			})
		}
	}()
}

func (s *EmailService) NotifyBookingStatus(ctx context.Context, booking *models.Booking, apartmentTitle string) {
	data := email.BookingMailData{
		GuestName:      booking.GuestName,
		ApartmentTitle: apartmentTitle,
		CheckIn:        booking.CheckIn,
		CheckOut:       booking.CheckOut,
		Status:         string(booking.Status),
	}

	go func() {
		if body, err := email.RenderBookingStatus(data); err == nil {
			s.send(&email.Email{
				To:      []string{booking.GuestEmail},
				Subject: "Booking status updated",
				Body:    body,
			})
		}
	}()
}

func (s *EmailService) send(msg *email.Email) {
	if err := s.provider.Send(msg); err != nil {
		logger.Error("email delivery failed", "to", msg.To, "subject", msg.Subject, "error", err.Error())
	}
}
