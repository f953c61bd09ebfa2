package models

type Apartment struct {
	SerialModel
	Title       string  `gorm:"size:255;uniqueIndex;not null"`
	PriceRub    int64   `gorm:"not null"`
	Rooms       int     `gorm:"not null"`
	Floor       int     `gorm:"not null"`
	AreaM2      float64 `gorm:"not null"`
	Address     string  `gorm:"size:512;not null"`
	Description string  `gorm:"type:text"`
	Active      bool    `gorm:"default:true;index"`

	Photos []ApartmentPhoto `gorm:"foreignKey:ApartmentID;constraint:OnDelete:CASCADE"`
}
