package imageprocessor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeJPEGPassthrough(t *testing.T) {
	data := jpegBytes(t, 320, 240)

	out, err := NewNormalizer().Normalize(data, "image/jpeg")
	require.NoError(t, err)

	assert.Equal(t, 320, out.Width)
	assert.Equal(t, 240, out.Height)
	assert.Equal(t, "image/jpeg", out.DetectedType)
	assert.False(t, out.WasConverted)
	assert.Equal(t, data, out.SourceJPEG)
	assert.NotNil(t, out.Image)
}

func TestNormalizePNGConverts(t *testing.T) {
	out, err := NewNormalizer().Normalize(pngBytes(t, 100, 80, 255), "image/png")
	require.NoError(t, err)

	assert.Equal(t, "image/png", out.DetectedType)
	assert.True(t, out.WasConverted)
	assert.Nil(t, out.SourceJPEG)
}

func TestNormalizeDeclaredTypeMismatch(t *testing.T) {
	// PNG bytes uploaded as image/jpeg: detection wins, conversion is flagged.
	out, err := NewNormalizer().Normalize(pngBytes(t, 50, 50, 255), "image/jpeg")
	require.NoError(t, err)

	assert.Equal(t, "image/png", out.DetectedType)
	assert.True(t, out.WasConverted)
}

func TestNormalizeFlattensAlpha(t *testing.T) {
	// Fully transparent red over white must come out light, not black.
	out, err := NewNormalizer().Normalize(pngBytes(t, 20, 20, 0), "image/png")
	require.NoError(t, err)

	r, g, b, _ := out.Image.At(10, 10).RGBA()
	assert.Greater(t, r, uint32(0xf000))
	assert.Greater(t, g, uint32(0xf000))
	assert.Greater(t, b, uint32(0xf000))
}

func TestNormalizeRejectsGarbage(t *testing.T) {
	_, err := NewNormalizer().Normalize([]byte("not an image"), "image/jpeg")
	assert.ErrorIs(t, err, ErrUndecodable)
}

func TestNormalizeRejectsEmpty(t *testing.T) {
	_, err := NewNormalizer().Normalize(nil, "image/jpeg")
	assert.ErrorIs(t, err, ErrEmptyInput)
}
