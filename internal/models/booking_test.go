package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(d int) time.Time {
	return time.Date(2026, time.March, d, 0, 0, 0, 0, time.UTC)
}

func TestBookingOverlaps(t *testing.T) {
	b := &Booking{CheckIn: day(10), CheckOut: day(15)}

	tests := []struct {
		name     string
		checkIn  time.Time
		checkOut time.Time
		want     bool
	}{
		{"identical range", day(10), day(15), true},
		{"contained inside", day(11), day(14), true},
		{"covers fully", day(8), day(20), true},
		{"overlaps start", day(8), day(11), true},
		{"overlaps end", day(14), day(18), true},
		{"ends before", day(1), day(5), false},
		{"starts after", day(20), day(25), false},
		{"checkout equals checkin", day(5), day(10), false},
		{"checkin equals checkout", day(15), day(20), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, b.Overlaps(tc.checkIn, tc.checkOut))
		})
	}
}
