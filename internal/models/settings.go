package models

import "gorm.io/datatypes"

// SystemSettings is a single-row table; SettingsID is always 1.
type SystemSettings struct {
	SettingsID             uint `gorm:"primaryKey;default:1"`
	BookingGloballyEnabled bool `gorm:"default:true"`
	MaxUploadSizeMB        int  `gorm:"default:10"`
	SettingsData           datatypes.JSONMap
}

func (SystemSettings) TableName() string { return "system_settings" }
