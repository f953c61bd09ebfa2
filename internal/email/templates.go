package email

import (
	"bytes"
	"fmt"
	"text/template"
	"time"
)

// BookingMailData feeds the booking notification templates.
type BookingMailData struct {
	GuestName      string
	ApartmentTitle string
	CheckIn        time.Time
	CheckOut       time.Time
	Status         string
}

var bookingGuestTmpl = template.Must(template.New("booking_guest").Parse(
	`Hello {{.GuestName}},

Your booking request for "{{.ApartmentTitle}}" has been received.

Check-in:  {{.CheckIn.Format "2006-01-02"}}
Check-out: {{.CheckOut.Format "2006-01-02"}}
Status:    {{.Status}}

We will contact you once the booking is reviewed.
`))

var bookingStatusTmpl = template.Must(template.New("booking_status").Parse(
	`Hello {{.GuestName}},

The status of your booking for "{{.ApartmentTitle}}" has changed to: {{.Status}}.

Check-in:  {{.CheckIn.Format "2006-01-02"}}
Check-out: {{.CheckOut.Format "2006-01-02"}}
`))

var bookingAdminTmpl = template.Must(template.New("booking_admin").Parse(
	`New booking request.

Apartment: {{.ApartmentTitle}}
Guest:     {{.GuestName}}
Check-in:  {{.CheckIn.Format "2006-01-02"}}
Check-out: {{.CheckOut.Format "2006-01-02"}}
`))

func RenderBookingGuest(data BookingMailData) (string, error) {
	return render(bookingGuestTmpl, data)
}

func RenderBookingStatus(data BookingMailData) (string, error) {
	return render(bookingStatusTmpl, data)
}

func RenderBookingAdmin(data BookingMailData) (string, error) {
	return render(bookingAdminTmpl, data)
}

func render(tmpl *template.Template, data BookingMailData) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}
