package services

import (
	"context"
	"time"

	"github.com/loxigl/Rent-Pro/internal/cache"
	"github.com/loxigl/Rent-Pro/internal/models"
	"github.com/loxigl/Rent-Pro/internal/repositories"
	"github.com/loxigl/Rent-Pro/internal/storage"
	"github.com/loxigl/Rent-Pro/pkg/apperrors"
)

// URLBuilder resolves object keys to public URLs.
type URLBuilder interface {
	ObjectURL(key string) string
}

// ApartmentSummary is the catalog list entry.
type ApartmentSummary struct {
	ID       uint      `json:"id"`
	Title    string    `json:"title"`
	PriceRub int64     `json:"price_rub"`
	Rooms    int       `json:"rooms"`
	Floor    int       `json:"floor"`
	AreaM2   float64   `json:"area_m2"`
	Address  string    `json:"address"`
	Active   bool      `json:"active"`
	CoverURL string    `json:"cover_url,omitempty"`
	Created  time.Time `json:"created_at"`
}

// PhotoView is one photo in the detail response.
type PhotoView struct {
	ID               string            `json:"id"`
	URL              string            `json:"url"`
	SortOrder        int               `json:"sort_order"`
	IsCover          bool              `json:"is_cover"`
	ProcessingStatus string            `json:"processing_status"`
	ProcessingError  string            `json:"processing_error,omitempty"`
	Variants         map[string]string `json:"variants,omitempty"`
}

// ApartmentDetail is the catalog detail response.
type ApartmentDetail struct {
	ApartmentSummary
	Description string      `json:"description"`
	Photos      []PhotoView `json:"photos"`
}

// ApartmentList is a cached page of summaries.
type ApartmentList struct {
	Items    []ApartmentSummary `json:"items"`
	Total    int64              `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"page_size"`
}

// ApartmentInput carries create/update fields.
type ApartmentInput struct {
	Title       string  `json:"title" validate:"required,max=255"`
	PriceRub    int64   `json:"price_rub" validate:"required,gt=0"`
	Rooms       int     `json:"rooms" validate:"required,gt=0,lte=20"`
	Floor       int     `json:"floor" validate:"gte=-2,lte=200"`
	AreaM2      float64 `json:"area_m2" validate:"required,gt=0"`
	Address     string  `json:"address" validate:"required,max=512"`
	Description string  `json:"description"`
	Active      *bool   `json:"active"`
}

type ApartmentService struct {
	apartments repositories.ApartmentRepository
	photos     repositories.PhotoRepository
	cache      *cache.Cache
	urls       URLBuilder
	events     *EventService
}

func NewApartmentService(
	apartments repositories.ApartmentRepository,
	photos repositories.PhotoRepository,
	c *cache.Cache,
	urls URLBuilder,
	events *EventService,
) *ApartmentService {
	return &ApartmentService{
		apartments: apartments,
		photos:     photos,
		cache:      c,
		urls:       urls,
		events:     events,
	}
}

// List returns a page of active apartments with cover URLs, served from
// cache when possible.
func (s *ApartmentService) List(ctx context.Context, page, pageSize int, sort, order string) (*ApartmentList, error) {
	key := cache.ListKey(page, pageSize, sort, order)
	var cached ApartmentList
	if s.cache != nil && s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	apartments, total, err := s.apartments.FindWithFilter(repositories.ApartmentFilter{
		ActiveOnly: true,
		Sort:       sort,
		Order:      order,
		Page:       page,
		PageSize:   pageSize,
	})
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	list := &ApartmentList{
		Items:    make([]ApartmentSummary, 0, len(apartments)),
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}
	for i := range apartments {
		summary := s.summarize(&apartments[i])
		summary.CoverURL = s.coverURL(&apartments[i])
		list.Items = append(list.Items, summary)
	}

	if s.cache != nil {
		s.cache.Set(ctx, key, list)
	}
	return list, nil
}

// Get returns the public detail of an active apartment.
func (s *ApartmentService) Get(ctx context.Context, id uint) (*ApartmentDetail, error) {
	key := cache.DetailKey(id)
	var cached ApartmentDetail
	if s.cache != nil && s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	apartment, err := s.apartments.FindActiveByID(id)
	if err != nil {
		if apperrors.Is(err, repositories.ErrApartmentNotFound) {
			return nil, apperrors.NewNotFoundError("apartments", "Apartment not found")
		}
		return nil, apperrors.InternalError(err)
	}

	detail := s.detail(apartment)
	if s.cache != nil {
		s.cache.Set(ctx, key, detail)
	}
	return detail, nil
}

// GetAdmin returns the detail regardless of active state.
func (s *ApartmentService) GetAdmin(ctx context.Context, id uint) (*ApartmentDetail, error) {
	apartment, err := s.apartments.FindByID(id)
	if err != nil {
		if apperrors.Is(err, repositories.ErrApartmentNotFound) {
			return nil, apperrors.NewNotFoundError("apartments", "Apartment not found")
		}
		return nil, apperrors.InternalError(err)
	}
	return s.detail(apartment), nil
}

// ListAdmin returns all apartments including inactive ones.
func (s *ApartmentService) ListAdmin(ctx context.Context, page, pageSize int, sort, order string) (*ApartmentList, error) {
	apartments, total, err := s.apartments.FindWithFilter(repositories.ApartmentFilter{
		Sort:     sort,
		Order:    order,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	list := &ApartmentList{
		Items:    make([]ApartmentSummary, 0, len(apartments)),
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}
	for i := range apartments {
		summary := s.summarize(&apartments[i])
		summary.CoverURL = s.coverURL(&apartments[i])
		list.Items = append(list.Items, summary)
	}
	return list, nil
}

// Create adds an apartment and records the audit event.
func (s *ApartmentService) Create(ctx context.Context, input ApartmentInput, actor EventRecord) (*ApartmentDetail, error) {
	apartment := &models.Apartment{
		Title:       input.Title,
		PriceRub:    input.PriceRub,
		Rooms:       input.Rooms,
		Floor:       input.Floor,
		AreaM2:      input.AreaM2,
		Address:     input.Address,
		Description: input.Description,
		Active:      input.Active == nil || *input.Active,
	}

	if err := s.apartments.Create(apartment); err != nil {
		if apperrors.Is(err, repositories.ErrTitleTaken) {
			return nil, apperrors.ErrTitleAlreadyExists
		}
		return nil, apperrors.InternalError(err)
	}

	s.invalidate(ctx, apartment.ID)
	s.logEvent(ctx, actor, models.EventTypeCreate, apartment.ID, map[string]interface{}{"title": apartment.Title})
	return s.detail(apartment), nil
}

// Update modifies an apartment and records the audit event.
func (s *ApartmentService) Update(ctx context.Context, id uint, input ApartmentInput, actor EventRecord) (*ApartmentDetail, error) {
	apartment, err := s.apartments.FindByID(id)
	if err != nil {
		if apperrors.Is(err, repositories.ErrApartmentNotFound) {
			return nil, apperrors.NewNotFoundError("apartments", "Apartment not found")
		}
		return nil, apperrors.InternalError(err)
	}

	apartment.Title = input.Title
	apartment.PriceRub = input.PriceRub
	apartment.Rooms = input.Rooms
	apartment.Floor = input.Floor
	apartment.AreaM2 = input.AreaM2
	apartment.Address = input.Address
	apartment.Description = input.Description
	if input.Active != nil {
		apartment.Active = *input.Active
	}

	if err := s.apartments.Update(apartment); err != nil {
		if apperrors.Is(err, repositories.ErrTitleTaken) {
			return nil, apperrors.ErrTitleAlreadyExists
		}
		return nil, apperrors.InternalError(err)
	}

	s.invalidate(ctx, id)
	s.logEvent(ctx, actor, models.EventTypeUpdate, id, map[string]interface{}{"title": apartment.Title})
	return s.detail(apartment), nil
}

// Delete removes an apartment; the photo cleanup is the caller's business
// because it involves the object store.
func (s *ApartmentService) Delete(ctx context.Context, id uint, actor EventRecord) error {
	if err := s.apartments.Delete(id); err != nil {
		if apperrors.Is(err, repositories.ErrApartmentNotFound) {
			return apperrors.NewNotFoundError("apartments", "Apartment not found")
		}
		return apperrors.InternalError(err)
	}
	s.invalidate(ctx, id)
	s.logEvent(ctx, actor, models.EventTypeDelete, id, nil)
	return nil
}

func (s *ApartmentService) summarize(apartment *models.Apartment) ApartmentSummary {
	return ApartmentSummary{
		ID:       apartment.ID,
		Title:    apartment.Title,
		PriceRub: apartment.PriceRub,
		Rooms:    apartment.Rooms,
		Floor:    apartment.Floor,
		AreaM2:   apartment.AreaM2,
		Address:  apartment.Address,
		Active:   apartment.Active,
		Created:  apartment.CreatedAt,
	}
}

func (s *ApartmentService) detail(apartment *models.Apartment) *ApartmentDetail {
	detail := &ApartmentDetail{
		ApartmentSummary: s.summarize(apartment),
		Description:      apartment.Description,
		Photos:           make([]PhotoView, 0, len(apartment.Photos)),
	}

	for i := range apartment.Photos {
		detail.Photos = append(detail.Photos, s.photoView(&apartment.Photos[i]))
	}
	detail.CoverURL = s.coverURL(apartment)
	return detail
}

func (s *ApartmentService) photoView(photo *models.ApartmentPhoto) PhotoView {
	view := PhotoView{
		ID:               photo.ID,
		URL:              photo.URL,
		SortOrder:        photo.SortOrder,
		IsCover:          photo.IsCover,
		ProcessingStatus: string(photo.ProcessingStatus),
		ProcessingError:  photo.ProcessingError,
	}
	if len(photo.Variants) > 0 {
		view.Variants = make(map[string]string, len(photo.Variants))
		for _, v := range photo.Variants {
			view.Variants[v.VariantKey] = s.urls.ObjectURL(v.ObjectKey)
		}
	}
	return view
}

// coverURL picks the cover photo and its preferred variant. Only completed
// photos qualify.
func (s *ApartmentService) coverURL(apartment *models.Apartment) string {
	photos := apartment.Photos
	if len(photos) == 0 {
		loaded, err := s.photos.FindByApartment(apartment.ID)
		if err != nil {
			return ""
		}
		photos = loaded
	}

	var cover *models.ApartmentPhoto
	for i := range photos {
		if photos[i].ProcessingStatus != models.ProcessingStatusCompleted {
			continue
		}
		if photos[i].IsCover {
			cover = &photos[i]
			break
		}
		if cover == nil {
			cover = &photos[i]
		}
	}
	if cover == nil {
		return ""
	}

	variants := make(map[string]string, len(cover.Variants))
	for _, v := range cover.Variants {
		variants[v.VariantKey] = v.ObjectKey
	}
	if key, ok := storage.CoverVariantKey(variants); ok {
		return s.urls.ObjectURL(variants[key])
	}
	return cover.URL
}

func (s *ApartmentService) invalidate(ctx context.Context, apartmentID uint) {
	if s.cache != nil {
		s.cache.InvalidateApartments(ctx, apartmentID)
	}
}

func (s *ApartmentService) logEvent(ctx context.Context, actor EventRecord, eventType models.EventType, apartmentID uint, payload map[string]interface{}) {
	if s.events == nil {
		return
	}
	actor.EventType = eventType
	actor.EntityType = models.EntityTypeApartment
	actor.EntityID = uintToString(apartmentID)
	actor.Payload = payload
	s.events.Log(ctx, actor)
}
