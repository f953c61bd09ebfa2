package repositories

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/loxigl/Rent-Pro/internal/models"
)

var ErrBookingNotFound = errors.New("booking not found")

type BookingRepository interface {
	FindByID(id uint) (*models.Booking, error)
	FindWithFilter(criteria BookingFilter) ([]models.Booking, int64, error)
	Create(booking *models.Booking) error
	UpdateStatus(id uint, status models.BookingStatus) error
	HasOverlap(apartmentID uint, checkIn, checkOut time.Time, excludeID uint) (bool, error)
	CompletePastBookings(before time.Time) (int64, error)
}

type BookingFilter struct {
	ApartmentID uint
	Status      models.BookingStatus
	DateFrom    *time.Time
	DateTo      *time.Time
	Page        int
	PageSize    int
}

type BookingRepositoryImpl struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) BookingRepository {
	return &BookingRepositoryImpl{db: db}
}

func (r *BookingRepositoryImpl) FindByID(id uint) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.Preload("Apartment").First(&booking, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &booking, nil
}

func (r *BookingRepositoryImpl) FindWithFilter(criteria BookingFilter) ([]models.Booking, int64, error) {
	query := r.db.Model(&models.Booking{})
	if criteria.ApartmentID != 0 {
		query = query.Where("apartment_id = ?", criteria.ApartmentID)
	}
	if criteria.Status != "" {
		query = query.Where("status = ?", criteria.Status)
	}
	if criteria.DateFrom != nil {
		query = query.Where("check_in >= ?", *criteria.DateFrom)
	}
	if criteria.DateTo != nil {
		query = query.Where("check_out <= ?", *criteria.DateTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := criteria.Page
	if page < 1 {
		page = 1
	}
	pageSize := criteria.PageSize
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	var bookings []models.Booking
	err := query.Preload("Apartment").
		Order("created_at DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&bookings).Error
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

func (r *BookingRepositoryImpl) Create(booking *models.Booking) error {
	return r.db.Create(booking).Error
}

func (r *BookingRepositoryImpl) UpdateStatus(id uint, status models.BookingStatus) error {
	result := r.db.Model(&models.Booking{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrBookingNotFound
	}
	return nil
}

// HasOverlap reports whether [checkIn, checkOut) collides with a pending or
// confirmed booking of the apartment.
func (r *BookingRepositoryImpl) HasOverlap(apartmentID uint, checkIn, checkOut time.Time, excludeID uint) (bool, error) {
	query := r.db.Model(&models.Booking{}).
		Where("apartment_id = ?", apartmentID).
		Where("status IN ?", []models.BookingStatus{models.BookingStatusPending, models.BookingStatusConfirmed}).
		Where("check_in < ? AND check_out > ?", checkOut, checkIn)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CompletePastBookings closes confirmed stays that ended before the cutoff.
func (r *BookingRepositoryImpl) CompletePastBookings(before time.Time) (int64, error) {
	result := r.db.Model(&models.Booking{}).
		Where("status = ? AND check_out < ?", models.BookingStatusConfirmed, before).
		Update("status", models.BookingStatusCompleted)
	return result.RowsAffected, result.Error
}
