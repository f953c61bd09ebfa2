package repositories

import (
	"errors"

	"gorm.io/gorm"

	"github.com/loxigl/Rent-Pro/internal/models"
)

type SettingsRepository interface {
	Get() (*models.SystemSettings, error)
	Update(settings *models.SystemSettings) error
}

type SettingsRepositoryImpl struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) SettingsRepository {
	return &SettingsRepositoryImpl{db: db}
}

// Get returns the settings row, creating the default one on first access.
func (r *SettingsRepositoryImpl) Get() (*models.SystemSettings, error) {
	var settings models.SystemSettings
	err := r.db.First(&settings, "settings_id = ?", 1).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		settings = models.SystemSettings{
			SettingsID:             1,
			BookingGloballyEnabled: true,
			MaxUploadSizeMB:        10,
		}
		if err := r.db.Create(&settings).Error; err != nil {
			return nil, err
		}
	}
	return &settings, nil
}

func (r *SettingsRepositoryImpl) Update(settings *models.SystemSettings) error {
	settings.SettingsID = 1
	return r.db.Save(settings).Error
}
