package imageprocessor

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}))
	return buf.Bytes()
}

func pngBytes(t *testing.T, w, h int, alpha uint8) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.NRGBA{R: 200, G: 40, B: 40, A: alpha})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDetectFormat(t *testing.T) {
	info, err := DetectFormat(jpegBytes(t, 40, 30))
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", info.MediaType)
	assert.Equal(t, "jpeg", info.Format)
	assert.Equal(t, 40, info.Width)
	assert.Equal(t, 30, info.Height)

	info, err = DetectFormat(pngBytes(t, 10, 10, 255))
	require.NoError(t, err)
	assert.Equal(t, "image/png", info.MediaType)
}

func TestDetectFormatEmpty(t *testing.T) {
	_, err := DetectFormat(nil)
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestDetectFormatGarbage(t *testing.T) {
	_, err := DetectFormat([]byte("definitely not an image, just text"))
	assert.ErrorIs(t, err, ErrUndecodable)
}

func TestDetectFormatUnsupportedImageType(t *testing.T) {
	// ICO sniffs as an image media type but no decoder is registered for it.
	ico := append([]byte{0x00, 0x00, 0x01, 0x00, 0x01, 0x00}, make([]byte, 64)...)
	_, err := DetectFormat(ico)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestIsSupported(t *testing.T) {
	assert.True(t, IsSupported("image/jpeg"))
	assert.True(t, IsSupported("image/png"))
	assert.True(t, IsSupported("image/webp"))
	assert.True(t, IsSupported("image/heic"))
	assert.True(t, IsSupported("image/avif"))
	assert.True(t, IsSupported("IMAGE/JPEG"))
	assert.True(t, IsSupported("image/jpeg; charset=binary"))

	assert.False(t, IsSupported("image/svg+xml"))
	assert.False(t, IsSupported("image/vnd.adobe.photoshop"))
	assert.False(t, IsSupported("application/pdf"))
	// Listed types must have a registered decoder behind them.
	assert.False(t, IsSupported("image/x-icon"))
	assert.False(t, IsSupported("image/vnd.microsoft.icon"))
	assert.False(t, IsSupported("image/jp2"))
	assert.False(t, IsSupported(""))
}

func TestNeedsConversion(t *testing.T) {
	assert.False(t, NeedsConversion("image/jpeg"))
	assert.False(t, NeedsConversion("image/webp"))

	assert.True(t, NeedsConversion("image/png"))
	assert.True(t, NeedsConversion("image/gif"))
	assert.True(t, NeedsConversion("image/heic"))
}

func TestValidate(t *testing.T) {
	data := jpegBytes(t, 40, 30)

	assert.NoError(t, Validate(data, 0))
	assert.NoError(t, Validate(data, int64(len(data))))

	assert.ErrorIs(t, Validate(data, int64(len(data))-1), ErrTooLarge)
	assert.ErrorIs(t, Validate(nil, 0), ErrEmptyInput)
	assert.ErrorIs(t, Validate([]byte("junk"), 0), ErrUndecodable)
}

func TestValidateTruncated(t *testing.T) {
	data := jpegBytes(t, 200, 200)
	// Header parses, the scan data does not.
	truncated := data[:len(data)/2]
	assert.ErrorIs(t, Validate(truncated, 0), ErrUndecodable)
}
