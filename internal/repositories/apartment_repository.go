package repositories

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/loxigl/Rent-Pro/internal/models"
)

var (
	ErrApartmentNotFound = errors.New("apartment not found")
	ErrTitleTaken        = errors.New("apartment title already taken")
)

type ApartmentRepository interface {
	FindByID(id uint) (*models.Apartment, error)
	FindActiveByID(id uint) (*models.Apartment, error)
	FindWithFilter(criteria ApartmentFilter) ([]models.Apartment, int64, error)
	Create(apartment *models.Apartment) error
	Update(apartment *models.Apartment) error
	SetActive(id uint, active bool) error
	Delete(id uint) error
}

type ApartmentFilter struct {
	ActiveOnly bool
	Sort       string // price_rub | created_at
	Order      string // asc | desc
	Page       int
	PageSize   int
}

type ApartmentRepositoryImpl struct {
	db *gorm.DB
}

func NewApartmentRepository(db *gorm.DB) ApartmentRepository {
	return &ApartmentRepositoryImpl{db: db}
}

func (r *ApartmentRepositoryImpl) FindByID(id uint) (*models.Apartment, error) {
	var apartment models.Apartment
	err := r.db.Preload("Photos", func(db *gorm.DB) *gorm.DB {
		return db.Order("sort_order ASC")
	}).First(&apartment, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApartmentNotFound
		}
		return nil, err
	}
	return &apartment, nil
}

func (r *ApartmentRepositoryImpl) FindActiveByID(id uint) (*models.Apartment, error) {
	apartment, err := r.FindByID(id)
	if err != nil {
		return nil, err
	}
	if !apartment.Active {
		return nil, ErrApartmentNotFound
	}
	return apartment, nil
}

func (r *ApartmentRepositoryImpl) FindWithFilter(criteria ApartmentFilter) ([]models.Apartment, int64, error) {
	query := r.db.Model(&models.Apartment{})
	if criteria.ActiveOnly {
		query = query.Where("active = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sort := criteria.Sort
	if sort != "price_rub" && sort != "created_at" {
		sort = "created_at"
	}
	order := strings.ToLower(criteria.Order)
	if order != "asc" && order != "desc" {
		order = "desc"
	}

	page := criteria.Page
	if page < 1 {
		page = 1
	}
	pageSize := criteria.PageSize
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	var apartments []models.Apartment
	err := query.
		Order(sort + " " + order).
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&apartments).Error
	if err != nil {
		return nil, 0, err
	}
	return apartments, total, nil
}

func (r *ApartmentRepositoryImpl) Create(apartment *models.Apartment) error {
	var existing models.Apartment
	if err := r.db.Where("title = ?", apartment.Title).First(&existing).Error; err == nil {
		return ErrTitleTaken
	}
	return r.db.Create(apartment).Error
}

func (r *ApartmentRepositoryImpl) Update(apartment *models.Apartment) error {
	var existing models.Apartment
	if err := r.db.Where("title = ? AND id <> ?", apartment.Title, apartment.ID).First(&existing).Error; err == nil {
		return ErrTitleTaken
	}

	result := r.db.Model(apartment).Updates(map[string]interface{}{
		"title":       apartment.Title,
		"price_rub":   apartment.PriceRub,
		"rooms":       apartment.Rooms,
		"floor":       apartment.Floor,
		"area_m2":     apartment.AreaM2,
		"address":     apartment.Address,
		"description": apartment.Description,
		"active":      apartment.Active,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrApartmentNotFound
	}
	return nil
}

func (r *ApartmentRepositoryImpl) SetActive(id uint, active bool) error {
	result := r.db.Model(&models.Apartment{}).Where("id = ?", id).Update("active", active)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrApartmentNotFound
	}
	return nil
}

func (r *ApartmentRepositoryImpl) Delete(id uint) error {
	result := r.db.Delete(&models.Apartment{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrApartmentNotFound
	}
	return nil
}
