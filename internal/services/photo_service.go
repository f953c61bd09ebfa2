package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/loxigl/Rent-Pro/internal/cache"
	"github.com/loxigl/Rent-Pro/internal/imageprocessor"
	"github.com/loxigl/Rent-Pro/internal/logger"
	"github.com/loxigl/Rent-Pro/internal/models"
	"github.com/loxigl/Rent-Pro/internal/repositories"
	"github.com/loxigl/Rent-Pro/internal/storage"
	"github.com/loxigl/Rent-Pro/internal/taskqueue"
	"github.com/loxigl/Rent-Pro/pkg/apperrors"
)

// ObjectStore is the part of the storage gateway the photo pipeline uses.
type ObjectStore interface {
	URLBuilder
	UploadVariants(ctx context.Context, meta storage.UploadMeta, variants []imageprocessor.RenderedVariant) ([]storage.UploadResult, []storage.VariantFailure, error)
	DeleteImage(ctx context.Context, apartmentID uint, imageID string) error
	DeleteApartmentImages(ctx context.Context, apartmentID uint) error
	GetObject(ctx context.Context, key string) ([]byte, error)
	ListApartmentImages(ctx context.Context, apartmentID uint) ([]storage.StoredImage, error)
}

// ImageQueue is the enqueue side of the task queue.
type ImageQueue interface {
	EnqueueProcessImage(ctx context.Context, p taskqueue.ProcessImagePayload) (string, error)
	EnqueueBulkReprocess(ctx context.Context, p taskqueue.BulkReprocessPayload) (string, error)
}

// UploadedPhoto is the immediate response to a photo upload; the real URL
// arrives once processing completes.
type UploadedPhoto struct {
	ID               string `json:"id"`
	URL              string `json:"url"`
	ApartmentID      uint   `json:"apartment_id"`
	SortOrder        int    `json:"sort_order"`
	IsCover          bool   `json:"is_cover"`
	ProcessingStatus string `json:"processing_status"`
}

// ReprocessResult is the per-image outcome of a bulk rebuild.
type ReprocessResult struct {
	PhotoID string `json:"photo_id"`
	OK      bool   `json:"ok"`
	Error   string `json:"error,omitempty"`
}

// reprocessSourcePreference orders variant keys by fidelity when picking
// the rebuild source.
var reprocessSourcePreference = []string{
	"original_jpeg",
	"large_jpeg",
	"medium_jpeg",
	"large_webp",
	"medium_webp",
	"small_jpeg",
	"small_webp",
}

type PhotoService struct {
	apartments repositories.ApartmentRepository
	photos     repositories.PhotoRepository
	store      ObjectStore
	queue      ImageQueue
	normalizer *imageprocessor.Normalizer
	renderer   *imageprocessor.Renderer
	cache      *cache.Cache
	events     *EventService
	maxBytes   int64
	httpClient *http.Client
}

func NewPhotoService(
	apartments repositories.ApartmentRepository,
	photos repositories.PhotoRepository,
	store ObjectStore,
	queue ImageQueue,
	normalizer *imageprocessor.Normalizer,
	renderer *imageprocessor.Renderer,
	c *cache.Cache,
	events *EventService,
	maxBytes int64,
) *PhotoService {
	return &PhotoService{
		apartments: apartments,
		photos:     photos,
		store:      store,
		queue:      queue,
		normalizer: normalizer,
		renderer:   renderer,
		cache:      c,
		events:     events,
		maxBytes:   maxBytes,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Upload validates the file, creates the pending photo row and queues
// processing. The response carries a placeholder URL.
func (s *PhotoService) Upload(ctx context.Context, apartmentID uint, declaredType string, data []byte, actor EventRecord) (*UploadedPhoto, error) {
	if _, err := s.apartments.FindByID(apartmentID); err != nil {
		if apperrors.Is(err, repositories.ErrApartmentNotFound) {
			return nil, apperrors.NewNotFoundError("apartments", "Apartment not found")
		}
		return nil, apperrors.InternalError(err)
	}

	if !imageprocessor.IsSupported(declaredType) {
		return nil, apperrors.ErrUnsupportedImageType.WithDetails(map[string]string{"content_type": declaredType})
	}
	if err := imageprocessor.Validate(data, s.maxBytes); err != nil {
		return nil, classifyImageError(err)
	}

	sortOrder, err := s.photos.NextSortOrder(apartmentID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	photo := &models.ApartmentPhoto{
		ApartmentID:      apartmentID,
		SortOrder:        sortOrder,
		IsCover:          sortOrder == 0,
		ProcessingStatus: models.ProcessingStatusPending,
	}
	photo.ID = uuid.NewString()
	photo.URL = fmt.Sprintf("/processing/apartment_%d_%s", apartmentID, photo.ID)

	if err := s.photos.Create(photo); err != nil {
		return nil, apperrors.InternalError(err)
	}

	taskID, err := s.queue.EnqueueProcessImage(ctx, taskqueue.ProcessImagePayload{
		PhotoID:      photo.ID,
		ApartmentID:  apartmentID,
		DeclaredType: declaredType,
		Data:         data,
	})
	if err != nil {
		// The row must not stay pending forever with no task behind it.
		if ferr := s.photos.MarkFailed(photo.ID, "queue unavailable"); ferr != nil {
			logger.CtxWithError(ctx, "orphaned pending photo", ferr, "photo_id", photo.ID)
		}
		return nil, apperrors.Wrap(err, apperrors.CodeExternalServiceError, "photos",
			"Image processing queue unavailable", http.StatusServiceUnavailable)
	}

	s.invalidate(ctx, apartmentID)
	s.logEvent(ctx, actor, models.EventTypeCreate, photo.ID, map[string]interface{}{
		"apartment_id": apartmentID,
		"task_id":      taskID,
	})

	return &UploadedPhoto{
		ID:               photo.ID,
		URL:              photo.URL,
		ApartmentID:      apartmentID,
		SortOrder:        photo.SortOrder,
		IsCover:          photo.IsCover,
		ProcessingStatus: string(photo.ProcessingStatus),
	}, nil
}

// ProcessUploaded runs on the worker: normalize, render, upload, index,
// then apply the conditional terminal transition. A PermanentError means
// the input can never succeed and retrying is pointless.
func (s *PhotoService) ProcessUploaded(ctx context.Context, payload taskqueue.ProcessImagePayload) error {
	if err := imageprocessor.Validate(payload.Data, s.maxBytes); err != nil {
		return s.failPermanently(ctx, payload.PhotoID, err)
	}

	normalized, err := s.normalizer.Normalize(payload.Data, payload.DeclaredType)
	if err != nil {
		return s.failPermanently(ctx, payload.PhotoID, err)
	}

	result := s.renderer.Render(ctx, normalized)
	if len(result.Variants) == 0 {
		return s.failPermanently(ctx, payload.PhotoID, fmt.Errorf("no variants rendered"))
	}
	for _, f := range result.Failures {
		logger.CtxWarn(ctx, "variant render failed", "photo_id", payload.PhotoID, "variant", f.Spec.Key(), "error", f.Err.Error())
	}

	meta := storage.UploadMeta{
		ApartmentID:    payload.ApartmentID,
		ImageID:        payload.PhotoID,
		OriginalWidth:  normalized.Width,
		OriginalHeight: normalized.Height,
	}
	uploads, failures, err := s.store.UploadVariants(ctx, meta, result.Variants)
	if err != nil {
		// Zero variants stored: worth another attempt.
		return fmt.Errorf("store variants for %s: %w", payload.PhotoID, err)
	}
	for _, f := range failures {
		logger.CtxWarn(ctx, "variant upload failed", "photo_id", payload.PhotoID, "variant", f.VariantKey, "error", f.Err.Error())
	}

	variants := make([]models.PhotoVariant, 0, len(uploads))
	byKey := make(map[string]string, len(uploads))
	for _, u := range uploads {
		variants = append(variants, models.PhotoVariant{
			VariantKey: u.VariantKey,
			ObjectKey:  u.ObjectKey,
			Width:      u.Width,
			Height:     u.Height,
			SizeBytes:  u.SizeBytes,
		})
		byKey[u.VariantKey] = u.ObjectKey
	}
	if err := s.photos.ReplaceVariants(payload.PhotoID, variants); err != nil {
		return fmt.Errorf("index variants for %s: %w", payload.PhotoID, err)
	}

	url := s.photoURL(byKey)
	metadata := map[string]interface{}{
		"width":         normalized.Width,
		"height":        normalized.Height,
		"detected_type": normalized.DetectedType,
		"was_converted": normalized.WasConverted,
		"variant_count": len(uploads),
	}

	err = s.photos.MarkCompleted(payload.PhotoID, url, metadata)
	if apperrors.Is(err, repositories.ErrPhotoNotPending) {
		// Redelivered task; the first delivery already finished the job.
		logger.CtxInfo(ctx, "photo already in terminal state, skipping", "photo_id", payload.PhotoID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("complete photo %s: %w", payload.PhotoID, err)
	}

	s.invalidate(ctx, payload.ApartmentID)
	logger.CtxInfo(ctx, "photo processed",
		"photo_id", payload.PhotoID,
		"apartment_id", payload.ApartmentID,
		"variants", len(uploads),
		"skipped", len(result.Skipped),
	)
	return nil
}

// FailProcessing marks a photo failed; the worker calls this when the retry
// budget is exhausted.
func (s *PhotoService) FailProcessing(ctx context.Context, photoID, reason string) {
	err := s.photos.MarkFailed(photoID, reason)
	if err != nil && !apperrors.Is(err, repositories.ErrPhotoNotPending) {
		logger.CtxWithError(ctx, "failed to mark photo failed", err, "photo_id", photoID)
	}
}

func (s *PhotoService) failPermanently(ctx context.Context, photoID string, cause error) error {
	s.FailProcessing(ctx, photoID, cause.Error())
	return &PermanentError{Cause: cause}
}

// PermanentError wraps processing failures that no retry can fix.
type PermanentError struct {
	Cause error
}

func (e *PermanentError) Error() string { return e.Cause.Error() }
func (e *PermanentError) Unwrap() error { return e.Cause }

// Delete removes the photo, its variant index and its stored objects, then
// compacts sort orders and repairs the cover flag.
func (s *PhotoService) Delete(ctx context.Context, photoID string, actor EventRecord) error {
	photo, err := s.photos.FindByID(photoID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrPhotoNotFound) {
			return apperrors.NewNotFoundError("photos", "Photo not found")
		}
		return apperrors.InternalError(err)
	}

	// Pending and failed photos own no stored objects yet, so an empty
	// prefix is a normal outcome here, not a cleanup failure.
	if err := s.store.DeleteImage(ctx, photo.ApartmentID, photo.ID); err != nil && !apperrors.Is(err, storage.ErrNoObjects) {
		logger.CtxWarn(ctx, "object cleanup incomplete", "photo_id", photo.ID, "error", err.Error())
	}

	if err := s.photos.Delete(photoID); err != nil {
		return apperrors.InternalError(err)
	}
	if err := s.photos.Resequence(photo.ApartmentID); err != nil {
		return apperrors.InternalError(err)
	}

	if photo.IsCover {
		remaining, err := s.photos.FindByApartment(photo.ApartmentID)
		if err == nil && len(remaining) > 0 {
			if err := s.photos.SetCover(photo.ApartmentID, remaining[0].ID); err != nil {
				logger.CtxWarn(ctx, "cover reassignment failed", "apartment_id", photo.ApartmentID, "error", err.Error())
			}
		}
	}

	s.invalidate(ctx, photo.ApartmentID)
	s.logEvent(ctx, actor, models.EventTypeDelete, photoID, map[string]interface{}{"apartment_id": photo.ApartmentID})
	return nil
}

// DeleteApartmentPhotos clears the bucket prefix when an apartment goes away.
// An apartment without stored objects is already clean.
func (s *PhotoService) DeleteApartmentPhotos(ctx context.Context, apartmentID uint) error {
	if err := s.store.DeleteApartmentImages(ctx, apartmentID); err != nil && !apperrors.Is(err, storage.ErrNoObjects) {
		return err
	}
	return nil
}

// SetCover marks one photo as the apartment cover.
func (s *PhotoService) SetCover(ctx context.Context, apartmentID uint, photoID string, actor EventRecord) error {
	if err := s.photos.SetCover(apartmentID, photoID); err != nil {
		if apperrors.Is(err, repositories.ErrPhotoNotFound) {
			return apperrors.NewNotFoundError("photos", "Photo not found")
		}
		return apperrors.InternalError(err)
	}
	s.invalidate(ctx, apartmentID)
	s.logEvent(ctx, actor, models.EventTypeUpdate, photoID, map[string]interface{}{
		"apartment_id": apartmentID,
		"action":       "set_cover",
	})
	return nil
}

// Reorder applies a full ordering of the apartment photos.
func (s *PhotoService) Reorder(ctx context.Context, apartmentID uint, photoIDs []string, actor EventRecord) error {
	if len(photoIDs) == 0 {
		return apperrors.NewBadRequestError("photo id list is empty")
	}
	if err := s.photos.Reorder(apartmentID, photoIDs); err != nil {
		if apperrors.Is(err, repositories.ErrPhotoNotFound) {
			return apperrors.NewBadRequestError("photo id list does not match the apartment photos")
		}
		return apperrors.InternalError(err)
	}
	s.invalidate(ctx, apartmentID)
	s.logEvent(ctx, actor, models.EventTypeUpdate, uintToString(apartmentID), map[string]interface{}{
		"action": "reorder",
		"count":  len(photoIDs),
	})
	return nil
}

// RequestBulkReprocess queues a rebuild of every photo of the apartment.
func (s *PhotoService) RequestBulkReprocess(ctx context.Context, apartmentID uint, maxImages int, actor EventRecord) (string, error) {
	if _, err := s.apartments.FindByID(apartmentID); err != nil {
		if apperrors.Is(err, repositories.ErrApartmentNotFound) {
			return "", apperrors.NewNotFoundError("apartments", "Apartment not found")
		}
		return "", apperrors.InternalError(err)
	}

	taskID, err := s.queue.EnqueueBulkReprocess(ctx, taskqueue.BulkReprocessPayload{
		ApartmentID: apartmentID,
		MaxImages:   maxImages,
	})
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeExternalServiceError, "photos",
			"Image processing queue unavailable", http.StatusServiceUnavailable)
	}

	s.logEvent(ctx, actor, models.EventTypeUpdate, uintToString(apartmentID), map[string]interface{}{
		"action":  "bulk_reprocess",
		"task_id": taskID,
	})
	return taskID, nil
}

// BulkReprocess runs on the worker. Each photo is rebuilt from its best
// surviving variant; individual failures land in the result list and never
// stop the batch.
func (s *PhotoService) BulkReprocess(ctx context.Context, payload taskqueue.BulkReprocessPayload) ([]ReprocessResult, error) {
	photos, err := s.photos.FindByApartment(payload.ApartmentID)
	if err != nil {
		return nil, fmt.Errorf("load photos for apartment %d: %w", payload.ApartmentID, err)
	}

	results := make([]ReprocessResult, 0, len(photos))
	processed := 0
	for i := range photos {
		if payload.MaxImages > 0 && processed >= payload.MaxImages {
			break
		}
		photo := &photos[i]
		if photo.ProcessingStatus != models.ProcessingStatusCompleted {
			continue
		}
		processed++

		if err := s.reprocessOne(ctx, photo); err != nil {
			logger.CtxWarn(ctx, "reprocess failed", "photo_id", photo.ID, "error", err.Error())
			results = append(results, ReprocessResult{PhotoID: photo.ID, Error: err.Error()})
			continue
		}
		results = append(results, ReprocessResult{PhotoID: photo.ID, OK: true})
	}

	s.invalidate(ctx, payload.ApartmentID)
	return results, nil
}

func (s *PhotoService) reprocessOne(ctx context.Context, photo *models.ApartmentPhoto) error {
	data, declaredType, err := s.loadReprocessSource(ctx, photo)
	if err != nil {
		return err
	}

	normalized, err := s.normalizer.Normalize(data, declaredType)
	if err != nil {
		return fmt.Errorf("normalize: %w", err)
	}

	result := s.renderer.Render(ctx, normalized)
	if len(result.Variants) == 0 {
		return fmt.Errorf("no variants rendered")
	}

	meta := storage.UploadMeta{
		ApartmentID:    photo.ApartmentID,
		ImageID:        photo.ID,
		OriginalWidth:  normalized.Width,
		OriginalHeight: normalized.Height,
	}
	uploads, _, err := s.store.UploadVariants(ctx, meta, result.Variants)
	if err != nil {
		return fmt.Errorf("store variants: %w", err)
	}

	variants := make([]models.PhotoVariant, 0, len(uploads))
	byKey := make(map[string]string, len(uploads))
	for _, u := range uploads {
		variants = append(variants, models.PhotoVariant{
			VariantKey: u.VariantKey,
			ObjectKey:  u.ObjectKey,
			Width:      u.Width,
			Height:     u.Height,
			SizeBytes:  u.SizeBytes,
		})
		byKey[u.VariantKey] = u.ObjectKey
	}
	if err := s.photos.ReplaceVariants(photo.ID, variants); err != nil {
		return fmt.Errorf("index variants: %w", err)
	}

	return s.photos.UpdateURL(photo.ID, s.photoURL(byKey), map[string]interface{}{
		"width":         normalized.Width,
		"height":        normalized.Height,
		"detected_type": normalized.DetectedType,
		"was_converted": normalized.WasConverted,
		"variant_count": len(uploads),
		"reprocessed":   true,
	})
}

// loadReprocessSource picks the highest-fidelity surviving variant. Photos
// indexed in the database read straight from the bucket; legacy rows whose
// URL points elsewhere are fetched over HTTP.
func (s *PhotoService) loadReprocessSource(ctx context.Context, photo *models.ApartmentPhoto) ([]byte, string, error) {
	byKey := make(map[string]string, len(photo.Variants))
	for _, v := range photo.Variants {
		byKey[v.VariantKey] = v.ObjectKey
	}
	if len(byKey) == 0 {
		// Recovery path: rebuild the variant map from the bucket layout.
		images, err := s.store.ListApartmentImages(ctx, photo.ApartmentID)
		if err == nil {
			for _, img := range images {
				if img.ImageID == photo.ID {
					byKey = img.Variants
					break
				}
			}
		}
	}

	for _, key := range reprocessSourcePreference {
		objectKey, ok := byKey[key]
		if !ok {
			continue
		}
		data, err := s.store.GetObject(ctx, objectKey)
		if err != nil {
			continue
		}
		contentType := "image/jpeg"
		if strings.HasSuffix(key, "_webp") {
			contentType = "image/webp"
		}
		return data, contentType, nil
	}

	if strings.HasPrefix(photo.URL, "http://") || strings.HasPrefix(photo.URL, "https://") {
		return s.downloadHTTP(ctx, photo.URL)
	}
	return nil, "", fmt.Errorf("no usable source for photo %s", photo.ID)
}

func (s *PhotoService) downloadHTTP(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("download %s: status %d", url, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBytes+1))
	if err != nil {
		return nil, "", err
	}
	return data, resp.Header.Get("Content-Type"), nil
}

// photoURL picks the public URL for a photo from its stored variants.
func (s *PhotoService) photoURL(variants map[string]string) string {
	if key, ok := storage.CoverVariantKey(variants); ok {
		return s.store.ObjectURL(variants[key])
	}
	return ""
}

func (s *PhotoService) invalidate(ctx context.Context, apartmentID uint) {
	if s.cache != nil {
		s.cache.InvalidateApartments(ctx, apartmentID)
	}
}

func (s *PhotoService) logEvent(ctx context.Context, actor EventRecord, eventType models.EventType, entityID string, payload map[string]interface{}) {
	if s.events == nil {
		return
	}
	actor.EventType = eventType
	actor.EntityType = models.EntityTypePhoto
	actor.EntityID = entityID
	actor.Payload = payload
	s.events.Log(ctx, actor)
}

func classifyImageError(err error) *apperrors.AppError {
	switch {
	case apperrors.Is(err, imageprocessor.ErrTooLarge):
		return apperrors.ErrFileTooLarge
	case apperrors.Is(err, imageprocessor.ErrUnsupported):
		return apperrors.ErrUnsupportedImageType.WithDetails(map[string]string{"reason": err.Error()})
	case apperrors.Is(err, imageprocessor.ErrUndecodable),
		apperrors.Is(err, imageprocessor.ErrEmptyInput),
		apperrors.Is(err, imageprocessor.ErrBadDimension):
		return apperrors.ErrCorruptImage.WithDetails(map[string]string{"reason": err.Error()})
	default:
		return apperrors.InternalError(err)
	}
}
