package repositories

import (
	"errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/loxigl/Rent-Pro/internal/models"
)

var (
	ErrPhotoNotFound      = errors.New("photo not found")
	ErrPhotoNotPending    = errors.New("photo is not pending")
	ErrSortOrderCollision = errors.New("sort order already taken")
)

type PhotoRepository interface {
	FindByID(id string) (*models.ApartmentPhoto, error)
	FindByApartment(apartmentID uint) ([]models.ApartmentPhoto, error)
	Create(photo *models.ApartmentPhoto) error
	NextSortOrder(apartmentID uint) (int, error)
	Delete(id string) error
	SetCover(apartmentID uint, photoID string) error
	Reorder(apartmentID uint, photoIDs []string) error
	Resequence(apartmentID uint) error

	// State machine. Both transitions apply only while the row is still
	// pending; a repeat call is a no-op reported via ErrPhotoNotPending.
	MarkCompleted(id, url string, metadata map[string]interface{}) error
	MarkFailed(id, reason string) error

	ReplaceVariants(photoID string, variants []models.PhotoVariant) error
	FindVariants(photoID string) ([]models.PhotoVariant, error)
	UpdateURL(id, url string, metadata map[string]interface{}) error
}

type PhotoRepositoryImpl struct {
	db *gorm.DB
}

func NewPhotoRepository(db *gorm.DB) PhotoRepository {
	return &PhotoRepositoryImpl{db: db}
}

func (r *PhotoRepositoryImpl) FindByID(id string) (*models.ApartmentPhoto, error) {
	var photo models.ApartmentPhoto
	err := r.db.Preload("Variants").First(&photo, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPhotoNotFound
		}
		return nil, err
	}
	return &photo, nil
}

func (r *PhotoRepositoryImpl) FindByApartment(apartmentID uint) ([]models.ApartmentPhoto, error) {
	var photos []models.ApartmentPhoto
	err := r.db.Preload("Variants").
		Where("apartment_id = ?", apartmentID).
		Order("sort_order ASC").
		Find(&photos).Error
	return photos, err
}

func (r *PhotoRepositoryImpl) Create(photo *models.ApartmentPhoto) error {
	return r.db.Create(photo).Error
}

// NextSortOrder returns max(sort_order)+1 for the apartment.
func (r *PhotoRepositoryImpl) NextSortOrder(apartmentID uint) (int, error) {
	var max *int
	err := r.db.Model(&models.ApartmentPhoto{}).
		Where("apartment_id = ?", apartmentID).
		Select("MAX(sort_order)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	if max == nil {
		return 0, nil
	}
	return *max + 1, nil
}

func (r *PhotoRepositoryImpl) Delete(id string) error {
	result := r.db.Delete(&models.ApartmentPhoto{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPhotoNotFound
	}
	return nil
}

// SetCover clears the previous cover and marks the new one in one
// transaction.
func (r *PhotoRepositoryImpl) SetCover(apartmentID uint, photoID string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.ApartmentPhoto{}).
			Where("apartment_id = ?", apartmentID).
			Update("is_cover", false).Error; err != nil {
			return err
		}
		result := tx.Model(&models.ApartmentPhoto{}).
			Where("id = ? AND apartment_id = ?", photoID, apartmentID).
			Update("is_cover", true)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrPhotoNotFound
		}
		return nil
	})
}

// Reorder assigns sort_order by position in photoIDs. The two-phase update
// keeps the (apartment_id, sort_order) unique index satisfied at every
// point inside the transaction.
func (r *PhotoRepositoryImpl) Reorder(apartmentID uint, photoIDs []string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.ApartmentPhoto{}).
			Where("apartment_id = ? AND id IN ?", apartmentID, photoIDs).
			Count(&count).Error; err != nil {
			return err
		}
		if count != int64(len(photoIDs)) {
			return ErrPhotoNotFound
		}

		// The list must cover every photo of the apartment: a strict subset
		// would leave untouched rows colliding with the rewritten 0..k-1
		// orders on the (apartment_id, sort_order) unique index.
		var total int64
		if err := tx.Model(&models.ApartmentPhoto{}).
			Where("apartment_id = ?", apartmentID).
			Count(&total).Error; err != nil {
			return err
		}
		if total != int64(len(photoIDs)) {
			return ErrPhotoNotFound
		}

		for i, id := range photoIDs {
			if err := tx.Model(&models.ApartmentPhoto{}).
				Where("id = ?", id).
				Update("sort_order", -(i + 1)).Error; err != nil {
				return err
			}
		}
		for i, id := range photoIDs {
			if err := tx.Model(&models.ApartmentPhoto{}).
				Where("id = ?", id).
				Update("sort_order", i).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Resequence compacts sort orders to 0..n-1 after a deletion.
func (r *PhotoRepositoryImpl) Resequence(apartmentID uint) error {
	var photos []models.ApartmentPhoto
	if err := r.db.Where("apartment_id = ?", apartmentID).
		Order("sort_order ASC").
		Find(&photos).Error; err != nil {
		return err
	}
	ids := make([]string, len(photos))
	for i, p := range photos {
		ids[i] = p.ID
	}
	if len(ids) == 0 {
		return nil
	}
	return r.Reorder(apartmentID, ids)
}

func (r *PhotoRepositoryImpl) MarkCompleted(id, url string, metadata map[string]interface{}) error {
	updates := map[string]interface{}{
		"processing_status": models.ProcessingStatusCompleted,
		"processing_error":  "",
		"url":               url,
	}
	if metadata != nil {
		updates["metadata"] = datatypes.JSONMap(metadata)
	}
	return r.transition(id, updates)
}

func (r *PhotoRepositoryImpl) MarkFailed(id, reason string) error {
	return r.transition(id, map[string]interface{}{
		"processing_status": models.ProcessingStatusFailed,
		"processing_error":  reason,
	})
}

func (r *PhotoRepositoryImpl) transition(id string, updates map[string]interface{}) error {
	result := r.db.Model(&models.ApartmentPhoto{}).
		Where("id = ? AND processing_status = ?", id, models.ProcessingStatusPending).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var photo models.ApartmentPhoto
		if err := r.db.First(&photo, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPhotoNotFound
			}
			return err
		}
		return ErrPhotoNotPending
	}
	return nil
}

// UpdateURL refreshes the public URL and metadata outside the pending state
// machine; used after reprocessing an already completed photo.
func (r *PhotoRepositoryImpl) UpdateURL(id, url string, metadata map[string]interface{}) error {
	updates := map[string]interface{}{"url": url}
	if metadata != nil {
		updates["metadata"] = datatypes.JSONMap(metadata)
	}
	result := r.db.Model(&models.ApartmentPhoto{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPhotoNotFound
	}
	return nil
}

// ReplaceVariants swaps the variant index for a photo atomically.
func (r *PhotoRepositoryImpl) ReplaceVariants(photoID string, variants []models.PhotoVariant) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("photo_id = ?", photoID).Delete(&models.PhotoVariant{}).Error; err != nil {
			return err
		}
		if len(variants) == 0 {
			return nil
		}
		for i := range variants {
			variants[i].PhotoID = photoID
		}
		return tx.Create(&variants).Error
	})
}

func (r *PhotoRepositoryImpl) FindVariants(photoID string) ([]models.PhotoVariant, error) {
	var variants []models.PhotoVariant
	err := r.db.Where("photo_id = ?", photoID).Find(&variants).Error
	return variants, err
}
