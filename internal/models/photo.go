package models

import "gorm.io/datatypes"

type ApartmentPhoto struct {
	BaseModel
	ApartmentID      uint             `gorm:"not null;index;uniqueIndex:idx_apartment_sort,priority:1"`
	URL              string           `gorm:"size:1024;not null"`
	SortOrder        int              `gorm:"not null;uniqueIndex:idx_apartment_sort,priority:2"`
	IsCover          bool             `gorm:"default:false"`
	ProcessingStatus ProcessingStatus `gorm:"type:varchar(20);default:'pending';index"`
	ProcessingError  string           `gorm:"type:text"`
	Metadata         datatypes.JSONMap

	Variants []PhotoVariant `gorm:"foreignKey:PhotoID;constraint:OnDelete:CASCADE"`
}

// PhotoVariant indexes one stored rendition of a photo. The table, not the
// object key layout, is the source of truth for which variants exist.
type PhotoVariant struct {
	ID         uint   `gorm:"primaryKey"`
	PhotoID    string `gorm:"type:uuid;not null;index;uniqueIndex:idx_photo_variant,priority:1"`
	VariantKey string `gorm:"size:40;not null;uniqueIndex:idx_photo_variant,priority:2"`
	ObjectKey  string `gorm:"size:1024;not null"`
	Width      int
	Height     int
	SizeBytes  int64
}
