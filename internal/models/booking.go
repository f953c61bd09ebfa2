package models

import "time"

type Booking struct {
	SerialModel
	ApartmentID uint          `gorm:"not null;index"`
	GuestName   string        `gorm:"size:255;not null"`
	GuestEmail  string        `gorm:"size:255;not null"`
	GuestPhone  string        `gorm:"size:32"`
	CheckIn     time.Time     `gorm:"type:date;not null;index"`
	CheckOut    time.Time     `gorm:"type:date;not null"`
	Status      BookingStatus `gorm:"type:varchar(20);default:'pending';index"`
	Comment     string        `gorm:"type:text"`

	Apartment *Apartment `gorm:"foreignKey:ApartmentID"`
}

// Overlaps reports whether [CheckIn, CheckOut) intersects the given range.
func (b *Booking) Overlaps(checkIn, checkOut time.Time) bool {
	return b.CheckIn.Before(checkOut) && b.CheckOut.After(checkIn)
}
