package imageprocessor

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
)

// NormalizedImage is decoded, orientation-corrected, alpha-flattened content
// ready for variant rendering.
type NormalizedImage struct {
	Image        image.Image
	Width        int
	Height       int
	DetectedType string
	WasConverted bool
	SourceJPEG   []byte // original bytes when the source was already JPEG, for EXIF carry-over
}

// Normalizer turns any supported upload into render-ready content.
type Normalizer struct{}

func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Normalize decodes data, applies EXIF orientation and flattens alpha onto a
// white background. Encoding is left to the variant renderer. The declared
// content type is advisory only: detection wins on mismatch, and WasConverted
// reports whether the stored bytes will differ in format from what the client
// sent. Animated input contributes its first frame.
func (n *Normalizer) Normalize(data []byte, declared string) (*NormalizedImage, error) {
	info, err := DetectFormat(data)
	if err != nil {
		return nil, err
	}
	if !IsSupported(info.MediaType) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, info.MediaType)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, ErrUndecodable
	}

	img = flattenAlpha(img)

	bounds := img.Bounds()
	out := &NormalizedImage{
		Image:        img,
		Width:        bounds.Dx(),
		Height:       bounds.Dy(),
		DetectedType: info.MediaType,
		WasConverted: NeedsConversion(info.MediaType) || normalizeMediaType(declared) != info.MediaType,
	}
	if info.Format == "jpeg" {
		out.SourceJPEG = data
	}

	return out, nil
}

// flattenAlpha composites the image over white when it carries transparency.
func flattenAlpha(img image.Image) image.Image {
	if isOpaque(img) {
		return img
	}
	bounds := img.Bounds()
	flat := image.NewRGBA(bounds)
	draw.Draw(flat, bounds, image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(flat, bounds, img, bounds.Min, draw.Over)
	return flat
}

func isOpaque(img image.Image) bool {
	type opaquer interface{ Opaque() bool }
	if o, ok := img.(opaquer); ok {
		return o.Opaque()
	}
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a != 0xffff {
				return false
			}
		}
	}
	return true
}
