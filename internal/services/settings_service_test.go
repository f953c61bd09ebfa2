package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loxigl/Rent-Pro/internal/models"
)

type fakeSettingsRepo struct {
	row models.SystemSettings
}

func (f *fakeSettingsRepo) Get() (*models.SystemSettings, error) {
	cp := f.row
	return &cp, nil
}

func (f *fakeSettingsRepo) Update(settings *models.SystemSettings) error {
	f.row = *settings
	return nil
}

func TestSettingsUpdatePatchesOnlyGivenFields(t *testing.T) {
	repo := &fakeSettingsRepo{row: models.SystemSettings{
		BookingGloballyEnabled: true,
		MaxUploadSizeMB:        10,
	}}
	svc := NewSettingsService(repo, nil)

	disabled := false
	view, err := svc.Update(context.Background(), SettingsInput{
		BookingGloballyEnabled: &disabled,
	}, EventRecord{})
	require.NoError(t, err)

	assert.False(t, view.BookingGloballyEnabled)
	assert.Equal(t, 10, view.MaxUploadSizeMB, "omitted fields keep their value")

	size := 25
	view, err = svc.Update(context.Background(), SettingsInput{
		MaxUploadSizeMB: &size,
	}, EventRecord{})
	require.NoError(t, err)

	assert.False(t, view.BookingGloballyEnabled, "earlier patch survives")
	assert.Equal(t, 25, view.MaxUploadSizeMB)
}

func TestSettingsGetReflectsStoredRow(t *testing.T) {
	repo := &fakeSettingsRepo{row: models.SystemSettings{
		BookingGloballyEnabled: true,
		MaxUploadSizeMB:        15,
		SettingsData:           map[string]interface{}{"contact_email": "info@example.com"},
	}}
	svc := NewSettingsService(repo, nil)

	view, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.True(t, view.BookingGloballyEnabled)
	assert.Equal(t, 15, view.MaxUploadSizeMB)
	assert.Equal(t, "info@example.com", view.Extra["contact_email"])
}
