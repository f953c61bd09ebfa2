package imageprocessor

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"net/http"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "github.com/gen2brain/avif"
	_ "github.com/gen2brain/heic"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	ErrUndecodable  = errors.New("image data is not decodable")
	ErrEmptyInput   = errors.New("empty image data")
	ErrUnsupported  = errors.New("unsupported image format")
	ErrTooLarge     = errors.New("image exceeds size limit")
	ErrBadDimension = errors.New("image dimensions out of range")
)

// MaxDimension caps both width and height of accepted input.
const MaxDimension = 10000

// FormatInfo describes sniffed image content.
type FormatInfo struct {
	MediaType string
	Format    string // decoder name: jpeg, png, webp, gif, bmp, tiff, heic, avif
	Width     int
	Height    int
}

// supportedTypes is the ingestion allow-list. SVG and PSD are deliberately
// absent: both carry content the pipeline cannot rasterize safely. ICO and
// JPEG 2000 are out too: no decoder is registered for either, so listing
// them would only defer the rejection to decode time.
var supportedTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
	"image/bmp":  true,
	"image/tiff": true,
	"image/heic": true,
	"image/heif": true,
	"image/avif": true,
}

// targetTypes need no conversion before variant rendering.
var targetTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/webp": true,
}

var formatMediaTypes = map[string]string{
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"webp": "image/webp",
	"gif":  "image/gif",
	"bmp":  "image/bmp",
	"tiff": "image/tiff",
	"heic": "image/heic",
	"heif": "image/heif",
	"avif": "image/avif",
}

// IsSupported reports whether the media type is accepted for upload.
func IsSupported(mediaType string) bool {
	return supportedTypes[normalizeMediaType(mediaType)]
}

// NeedsConversion reports whether content of this type has to be re-encoded
// before variants can be rendered from it.
func NeedsConversion(mediaType string) bool {
	return !targetTypes[normalizeMediaType(mediaType)]
}

// DetectFormat sniffs the actual content of data, ignoring any declared
// content type. Returns ErrUndecodable when no registered decoder accepts it.
func DetectFormat(data []byte) (*FormatInfo, error) {
	if len(data) == 0 {
		return nil, ErrEmptyInput
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		// http.DetectContentType still identifies formats we know about
		// but cannot decode (ico, jp2); report those as unsupported
		// rather than undecodable.
		sniffed := http.DetectContentType(data)
		if strings.HasPrefix(sniffed, "image/") {
			return nil, fmt.Errorf("%w: %s", ErrUnsupported, sniffed)
		}
		return nil, ErrUndecodable
	}

	mediaType, ok := formatMediaTypes[format]
	if !ok {
		mediaType = "image/" + format
	}

	return &FormatInfo{
		MediaType: mediaType,
		Format:    format,
		Width:     cfg.Width,
		Height:    cfg.Height,
	}, nil
}

// Validate checks size, decodability and dimension limits of raw upload data.
func Validate(data []byte, maxBytes int64) error {
	if len(data) == 0 {
		return ErrEmptyInput
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return ErrTooLarge
	}

	info, err := DetectFormat(data)
	if err != nil {
		return err
	}
	if info.Width <= 0 || info.Height <= 0 {
		return ErrBadDimension
	}
	if info.Width > MaxDimension || info.Height > MaxDimension {
		return fmt.Errorf("%w: %dx%d", ErrBadDimension, info.Width, info.Height)
	}

	// Full decode catches truncated files whose headers parse fine.
	if _, _, err := image.Decode(bytes.NewReader(data)); err != nil {
		return ErrUndecodable
	}
	return nil
}

func normalizeMediaType(mediaType string) string {
	mt := strings.ToLower(strings.TrimSpace(mediaType))
	if i := strings.Index(mt, ";"); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	return mt
}
