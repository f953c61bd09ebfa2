package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/loxigl/Rent-Pro/internal/models"
)

// Connect opens a GORM connection to PostgreSQL.
func Connect(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	return db, nil
}

// AutoMigrate brings the schema up to date. uuid-ossp backs the uuid
// primary key defaults.
func AutoMigrate(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		return fmt.Errorf("create uuid extension: %w", err)
	}

	return db.AutoMigrate(
		&models.Apartment{},
		&models.ApartmentPhoto{},
		&models.PhotoVariant{},
		&models.Booking{},
		&models.User{},
		&models.RefreshToken{},
		&models.EventLog{},
		&models.SystemSettings{},
	)
}
