package services

import (
	"context"

	"github.com/loxigl/Rent-Pro/internal/models"
	"github.com/loxigl/Rent-Pro/internal/repositories"
	"github.com/loxigl/Rent-Pro/pkg/apperrors"
)

type SettingsView struct {
	BookingGloballyEnabled bool                   `json:"booking_globally_enabled"`
	MaxUploadSizeMB        int                    `json:"max_upload_size_mb"`
	Extra                  map[string]interface{} `json:"extra,omitempty"`
}

type SettingsInput struct {
	BookingGloballyEnabled *bool                  `json:"booking_globally_enabled"`
	MaxUploadSizeMB        *int                   `json:"max_upload_size_mb" validate:"omitempty,min=1,max=100"`
	Extra                  map[string]interface{} `json:"extra"`
}

type SettingsService struct {
	settings repositories.SettingsRepository
	events   *EventService
}

func NewSettingsService(settings repositories.SettingsRepository, events *EventService) *SettingsService {
	return &SettingsService{settings: settings, events: events}
}

func (s *SettingsService) Get(ctx context.Context) (*SettingsView, error) {
	settings, err := s.settings.Get()
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return settingsView(settings), nil
}

// Update patches the single settings row; omitted fields keep their value.
func (s *SettingsService) Update(ctx context.Context, input SettingsInput, actor EventRecord) (*SettingsView, error) {
	settings, err := s.settings.Get()
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	changes := map[string]interface{}{}
	if input.BookingGloballyEnabled != nil {
		settings.BookingGloballyEnabled = *input.BookingGloballyEnabled
		changes["booking_globally_enabled"] = *input.BookingGloballyEnabled
	}
	if input.MaxUploadSizeMB != nil {
		settings.MaxUploadSizeMB = *input.MaxUploadSizeMB
		changes["max_upload_size_mb"] = *input.MaxUploadSizeMB
	}
	if input.Extra != nil {
		settings.SettingsData = input.Extra
		changes["extra"] = input.Extra
	}

	if err := s.settings.Update(settings); err != nil {
		return nil, apperrors.InternalError(err)
	}

	if s.events != nil {
		actor.EventType = models.EventTypeUpdate
		actor.EntityType = models.EntityTypeSettings
		actor.EntityID = "1"
		actor.Payload = changes
		s.events.Log(ctx, actor)
	}
	return settingsView(settings), nil
}

func settingsView(m *models.SystemSettings) *SettingsView {
	return &SettingsView{
		BookingGloballyEnabled: m.BookingGloballyEnabled,
		MaxUploadSizeMB:        m.MaxUploadSizeMB,
		Extra:                  m.SettingsData,
	}
}
