package imageprocessor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func normalize(t *testing.T, data []byte, declared string) *NormalizedImage {
	t.Helper()
	src, err := NewNormalizer().Normalize(data, declared)
	require.NoError(t, err)
	return src
}

func variantByKey(result *RenderResult, key string) *RenderedVariant {
	for i := range result.Variants {
		if result.Variants[i].Spec.Key() == key {
			return &result.Variants[i]
		}
	}
	return nil
}

func TestRenderPriorityVariants(t *testing.T) {
	src := normalize(t, jpegBytes(t, 640, 480), "image/jpeg")
	result := NewRenderer(85, 80, 30*time.Second).Render(context.Background(), src)

	require.Empty(t, result.Failures)
	for _, spec := range PriorityVariants {
		assert.NotNil(t, variantByKey(result, spec.Key()), "missing %s", spec.Key())
	}
}

func TestRenderThumbnailExactSquare(t *testing.T) {
	src := normalize(t, jpegBytes(t, 640, 480), "image/jpeg")
	result := NewRenderer(85, 80, 30*time.Second).Render(context.Background(), src)

	thumb := variantByKey(result, "thumbnail_webp")
	require.NotNil(t, thumb)
	assert.Equal(t, 150, thumb.Width)
	assert.Equal(t, 150, thumb.Height)
}

func TestRenderNeverUpscales(t *testing.T) {
	// 300px wide source is narrower than every proportional target.
	src := normalize(t, jpegBytes(t, 300, 200), "image/jpeg")
	result := NewRenderer(85, 80, 30*time.Second).Render(context.Background(), src)

	for _, key := range []string{"small_webp", "medium_webp", "large_webp", "original_jpeg"} {
		v := variantByKey(result, key)
		if v == nil {
			continue
		}
		assert.Equal(t, 300, v.Width, "%s must keep source width", key)
		assert.Equal(t, 200, v.Height, "%s must keep source height", key)
	}
}

func TestRenderDownscalesToTargetWidth(t *testing.T) {
	src := normalize(t, jpegBytes(t, 1600, 1200), "image/jpeg")
	result := NewRenderer(85, 80, 30*time.Second).Render(context.Background(), src)

	small := variantByKey(result, "small_webp")
	require.NotNil(t, small)
	assert.Equal(t, 400, small.Width)
	assert.Equal(t, 300, small.Height)
}

func TestRenderOriginalClamped(t *testing.T) {
	src := normalize(t, jpegBytes(t, 2400, 1600), "image/jpeg")
	result := NewRenderer(85, 80, 30*time.Second).Render(context.Background(), src)

	original := variantByKey(result, "original_jpeg")
	require.NotNil(t, original)
	assert.Equal(t, OriginalMaxDimension, original.Width)
	assert.Equal(t, 1280, original.Height)
}

func TestRenderBudgetSkipsOptionalVariants(t *testing.T) {
	src := normalize(t, jpegBytes(t, 640, 480), "image/jpeg")

	// A budget in the past leaves room only for priority variants.
	result := NewRenderer(85, 80, time.Nanosecond).Render(context.Background(), src)

	assert.Len(t, result.Variants, len(PriorityVariants))
	assert.Len(t, result.Skipped, len(OptionalVariants))
}

func TestRenderCancelledContextSkipsOptionalVariants(t *testing.T) {
	src := normalize(t, jpegBytes(t, 640, 480), "image/jpeg")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result := NewRenderer(85, 80, 30*time.Second).Render(ctx, src)

	for _, spec := range PriorityVariants {
		assert.NotNil(t, variantByKey(result, spec.Key()))
	}
	assert.Len(t, result.Skipped, len(OptionalVariants))
}

func TestVariantSpecKeyAndExt(t *testing.T) {
	spec := VariantSpec{SizeSmall, FormatWebP}
	assert.Equal(t, "small_webp", spec.Key())
	assert.Equal(t, "webp", spec.Ext())
	assert.Equal(t, "image/webp", spec.ContentType())

	spec = VariantSpec{SizeOriginal, FormatJPEG}
	assert.Equal(t, "original_jpeg", spec.Key())
	assert.Equal(t, "jpg", spec.Ext())
	assert.Equal(t, "image/jpeg", spec.ContentType())
}
