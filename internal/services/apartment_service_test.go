package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loxigl/Rent-Pro/internal/models"
	"github.com/loxigl/Rent-Pro/pkg/apperrors"
)

func newApartmentFixture() (*ApartmentService, *fakeApartmentRepo, *fakePhotoRepo) {
	apartments := &fakeApartmentRepo{apartments: map[uint]*models.Apartment{}}
	photos := newFakePhotoRepo()
	svc := NewApartmentService(apartments, photos, nil, newFakeStore(), nil)
	return svc, apartments, photos
}

func addPhoto(repo *fakePhotoRepo, id string, apartmentID uint, status models.ProcessingStatus, isCover bool, variants map[string]string) {
	p := &models.ApartmentPhoto{
		ApartmentID:      apartmentID,
		IsCover:          isCover,
		ProcessingStatus: status,
		URL:              "/fallback/" + id,
	}
	p.ID = id
	_ = repo.Create(p)
	var vs []models.PhotoVariant
	for key, objectKey := range variants {
		vs = append(vs, models.PhotoVariant{VariantKey: key, ObjectKey: objectKey})
	}
	_ = repo.ReplaceVariants(id, vs)
}

func TestCoverURLPrefersSmallWebp(t *testing.T) {
	svc, apartments, photos := newApartmentFixture()
	apartments.apartments[1] = &models.Apartment{SerialModel: models.SerialModel{ID: 1}, Title: "Studio", Active: true}

	addPhoto(photos, "photo-1", 1, models.ProcessingStatusCompleted, true, map[string]string{
		"small_webp":    "apartments/1/photo-1_small_webp.webp",
		"small_jpeg":    "apartments/1/photo-1_small_jpeg.jpg",
		"original_jpeg": "apartments/1/photo-1_original_jpeg.jpg",
	})

	detail, err := svc.GetAdmin(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/apartments/1/photo-1_small_webp.webp", detail.CoverURL)
}

func TestCoverURLSkipsUnprocessedPhotos(t *testing.T) {
	svc, apartments, photos := newApartmentFixture()
	apartments.apartments[1] = &models.Apartment{SerialModel: models.SerialModel{ID: 1}, Title: "Studio", Active: true}

	addPhoto(photos, "photo-1", 1, models.ProcessingStatusPending, true, nil)
	addPhoto(photos, "photo-2", 1, models.ProcessingStatusCompleted, false, map[string]string{
		"small_jpeg": "apartments/1/photo-2_small_jpeg.jpg",
	})

	detail, err := svc.GetAdmin(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/apartments/1/photo-2_small_jpeg.jpg", detail.CoverURL)
}

func TestCoverURLFallsBackToPhotoURL(t *testing.T) {
	svc, apartments, photos := newApartmentFixture()
	apartments.apartments[1] = &models.Apartment{SerialModel: models.SerialModel{ID: 1}, Title: "Studio", Active: true}

	addPhoto(photos, "photo-1", 1, models.ProcessingStatusCompleted, true, nil)

	detail, err := svc.GetAdmin(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "/fallback/photo-1", detail.CoverURL)
}

func TestCoverURLEmptyWithoutPhotos(t *testing.T) {
	svc, apartments, _ := newApartmentFixture()
	apartments.apartments[1] = &models.Apartment{SerialModel: models.SerialModel{ID: 1}, Title: "Studio", Active: true}

	detail, err := svc.GetAdmin(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, detail.CoverURL)
}

func TestApartmentGetHidesInactive(t *testing.T) {
	svc, apartments, _ := newApartmentFixture()
	apartments.apartments[1] = &models.Apartment{SerialModel: models.SerialModel{ID: 1}, Title: "Studio", Active: false}

	_, err := svc.Get(context.Background(), 1)
	var appErr *apperrors.AppError
	require.True(t, apperrors.As(err, &appErr))
	assert.Equal(t, http.StatusNotFound, appErr.HTTPCode)

	// The admin surface still sees it.
	detail, err := svc.GetAdmin(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, detail.Active)
}
