package imageprocessor

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"time"

	"github.com/disintegration/imaging"
	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"
)

type VariantSize string
type VariantFormat string

const (
	SizeThumbnail VariantSize = "thumbnail"
	SizeSmall     VariantSize = "small"
	SizeMedium    VariantSize = "medium"
	SizeLarge     VariantSize = "large"
	SizeOriginal  VariantSize = "original"

	FormatWebP VariantFormat = "webp"
	FormatJPEG VariantFormat = "jpeg"

	// OriginalMaxDimension clamps the "original" variant.
	OriginalMaxDimension = 1920

	thumbnailEdge = 150
)

// sizeWidths maps proportional sizes to their target width.
var sizeWidths = map[VariantSize]int{
	SizeSmall:  400,
	SizeMedium: 800,
	SizeLarge:  1200,
}

// VariantSpec names one size/format combination.
type VariantSpec struct {
	Size   VariantSize
	Format VariantFormat
}

// Key returns the canonical "{size}_{format}" variant key.
func (s VariantSpec) Key() string {
	return fmt.Sprintf("%s_%s", s.Size, s.Format)
}

// Ext returns the object key extension for the format.
func (s VariantSpec) Ext() string {
	if s.Format == FormatWebP {
		return "webp"
	}
	return "jpg"
}

// ContentType returns the MIME type of the encoded variant.
func (s VariantSpec) ContentType() string {
	if s.Format == FormatWebP {
		return "image/webp"
	}
	return "image/jpeg"
}

// PriorityVariants are always rendered, whatever the time budget.
var PriorityVariants = []VariantSpec{
	{SizeThumbnail, FormatWebP},
	{SizeSmall, FormatWebP},
	{SizeOriginal, FormatJPEG},
}

// OptionalVariants are rendered while the budget holds, in this order.
var OptionalVariants = []VariantSpec{
	{SizeMedium, FormatWebP},
	{SizeLarge, FormatWebP},
	{SizeSmall, FormatJPEG},
	{SizeMedium, FormatJPEG},
}

// RenderedVariant is one encoded rendition ready for upload.
type RenderedVariant struct {
	Spec   VariantSpec
	Data   []byte
	Width  int
	Height int
}

// RenderFailure records a single variant that could not be produced.
type RenderFailure struct {
	Spec VariantSpec
	Err  error
}

// RenderResult collects the outcome of one rendering pass.
type RenderResult struct {
	Variants []RenderedVariant
	Failures []RenderFailure
	Skipped  []VariantSpec // optional variants dropped by the budget
}

// Renderer produces the variant set from a normalized image.
type Renderer struct {
	jpegQuality int
	webpQuality int
	budget      time.Duration
}

func NewRenderer(jpegQuality, webpQuality int, budget time.Duration) *Renderer {
	if jpegQuality <= 0 {
		jpegQuality = 85
	}
	if webpQuality <= 0 {
		webpQuality = 80
	}
	if budget <= 0 {
		budget = 30 * time.Second
	}
	return &Renderer{
		jpegQuality: jpegQuality,
		webpQuality: webpQuality,
		budget:      budget,
	}
}

// Render produces the priority variants unconditionally, then optional
// variants until the budget or ctx expires. Per-variant failures never
// abort the pass.
func (r *Renderer) Render(ctx context.Context, src *NormalizedImage) *RenderResult {
	result := &RenderResult{}
	deadline := time.Now().Add(r.budget)

	for _, spec := range PriorityVariants {
		r.renderOne(src, spec, result)
	}

	for i, spec := range OptionalVariants {
		if time.Now().After(deadline) || ctx.Err() != nil {
			result.Skipped = append(result.Skipped, OptionalVariants[i:]...)
			break
		}
		r.renderOne(src, spec, result)
	}

	return result
}

func (r *Renderer) renderOne(src *NormalizedImage, spec VariantSpec, result *RenderResult) {
	variant, err := r.render(src, spec)
	if err != nil {
		result.Failures = append(result.Failures, RenderFailure{Spec: spec, Err: err})
		return
	}
	result.Variants = append(result.Variants, *variant)
}

func (r *Renderer) render(src *NormalizedImage, spec VariantSpec) (*RenderedVariant, error) {
	scaled := scaleFor(src.Image, spec.Size)
	bounds := scaled.Bounds()

	data, err := r.encode(scaled, spec)
	if err != nil {
		return nil, err
	}

	// EXIF survives only on the original-size JPEG rendition.
	if spec.Size == SizeOriginal && spec.Format == FormatJPEG && len(src.SourceJPEG) > 0 {
		if exif := ExtractEXIF(src.SourceJPEG); exif != nil {
			data = SpliceEXIF(data, exif)
		}
	}

	return &RenderedVariant{
		Spec:   spec,
		Data:   data,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}

// scaleFor resizes for the given size. Proportional sizes never upscale;
// the thumbnail is always an exact center-cropped square.
func scaleFor(src image.Image, size VariantSize) image.Image {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	switch size {
	case SizeThumbnail:
		return imaging.Fill(src, thumbnailEdge, thumbnailEdge, imaging.Center, imaging.Lanczos)
	case SizeOriginal:
		if w <= OriginalMaxDimension && h <= OriginalMaxDimension {
			return src
		}
		if w >= h {
			return imaging.Resize(src, OriginalMaxDimension, 0, imaging.Lanczos)
		}
		return imaging.Resize(src, 0, OriginalMaxDimension, imaging.Lanczos)
	default:
		target := sizeWidths[size]
		if target == 0 || w <= target {
			return src
		}
		return imaging.Resize(src, target, 0, imaging.Lanczos)
	}
}

func (r *Renderer) encode(img image.Image, spec VariantSpec) ([]byte, error) {
	var buf bytes.Buffer
	switch spec.Format {
	case FormatWebP:
		opts, err := encoder.NewLossyEncoderOptions(encoder.PresetDefault, float32(r.webpQuality))
		if err != nil {
			return nil, fmt.Errorf("webp options: %w", err)
		}
		if err := webp.Encode(&buf, img, opts); err != nil {
			return nil, fmt.Errorf("webp encode: %w", err)
		}
	case FormatJPEG:
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: r.jpegQuality}); err != nil {
			return nil, fmt.Errorf("jpeg encode: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown variant format %q", spec.Format)
	}
	return buf.Bytes(), nil
}
