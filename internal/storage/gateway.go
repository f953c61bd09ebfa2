package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/loxigl/Rent-Pro/internal/imageprocessor"
	"github.com/loxigl/Rent-Pro/internal/logger"
)

// Config holds the object store connection settings.
type Config struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	UseSSL        bool
	PublicURL     string
	UploadRetries int
}

// ErrNoObjects reports a deletion over a prefix that listed nothing.
// Callers cleaning up never-processed photos can treat it as a no-op.
var ErrNoObjects = errors.New("no stored objects under prefix")

// Gateway is the apartment photo store on top of a MinIO bucket.
type Gateway struct {
	client        *minio.Client
	bucket        string
	publicURL     string
	uploadRetries int
}

// publicReadPolicy grants anonymous GetObject on the whole bucket.
const publicReadPolicy = `{
	"Version": "2012-10-17",
	"Statement": [
		{
			"Effect": "Allow",
			"Principal": {"AWS": ["*"]},
			"Action": ["s3:GetObject"],
			"Resource": ["arn:aws:s3:::%s/*"]
		}
	]
}`

// NewGateway connects to the object store and ensures the bucket exists
// with a public-read policy. Bootstrap retries up to 5 times with
// exponential backoff before giving up.
func NewGateway(ctx context.Context, cfg Config) (*Gateway, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	publicURL := strings.TrimSuffix(cfg.PublicURL, "/")
	if publicURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		publicURL = fmt.Sprintf("%s://%s/%s", scheme, cfg.Endpoint, cfg.Bucket)
	}

	retries := cfg.UploadRetries
	if retries <= 0 {
		retries = 3
	}

	g := &Gateway{
		client:        client,
		bucket:        cfg.Bucket,
		publicURL:     publicURL,
		uploadRetries: retries,
	}

	bootstrap := func() error {
		exists, err := client.BucketExists(ctx, cfg.Bucket)
		if err != nil {
			return err
		}
		if !exists {
			if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
				return err
			}
			policy := fmt.Sprintf(publicReadPolicy, cfg.Bucket)
			if err := client.SetBucketPolicy(ctx, cfg.Bucket, policy); err != nil {
				return err
			}
			logger.Info("bucket created", "bucket", cfg.Bucket)
		}
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 4), ctx)
	if err := backoff.Retry(bootstrap, policy); err != nil {
		return nil, fmt.Errorf("bucket bootstrap: %w", err)
	}

	return g, nil
}

// UploadMeta is attached to every stored object.
type UploadMeta struct {
	ApartmentID    uint
	ImageID        string
	OriginalWidth  int
	OriginalHeight int
}

// UploadResult reports where one variant landed.
type UploadResult struct {
	VariantKey string
	ObjectKey  string
	Width      int
	Height     int
	SizeBytes  int64
}

// UploadVariant stores one rendered variant, retrying on transient errors.
func (g *Gateway) UploadVariant(ctx context.Context, meta UploadMeta, v imageprocessor.RenderedVariant) (*UploadResult, error) {
	key := BuildObjectKey(meta.ApartmentID, meta.ImageID, v.Spec.Key(), v.Spec.Ext())

	opts := minio.PutObjectOptions{
		ContentType: v.Spec.ContentType(),
		UserMetadata: map[string]string{
			"apartment-id":    strconv.FormatUint(uint64(meta.ApartmentID), 10),
			"image-id":        meta.ImageID,
			"variant":         v.Spec.Key(),
			"original-width":  strconv.Itoa(meta.OriginalWidth),
			"original-height": strconv.Itoa(meta.OriginalHeight),
		},
	}

	put := func() error {
		_, err := g.client.PutObject(ctx, g.bucket, key, bytes.NewReader(v.Data), int64(len(v.Data)), opts)
		return err
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(g.uploadRetries-1)), ctx)
	if err := backoff.Retry(put, policy); err != nil {
		return nil, fmt.Errorf("put %s: %w", key, err)
	}

	return &UploadResult{
		VariantKey: v.Spec.Key(),
		ObjectKey:  key,
		Width:      v.Width,
		Height:     v.Height,
		SizeBytes:  int64(len(v.Data)),
	}, nil
}

// VariantFailure records one variant that did not reach the store.
type VariantFailure struct {
	VariantKey string
	Err        error
}

// UploadVariants stores a whole render batch. The batch is an error only
// when not a single variant made it.
func (g *Gateway) UploadVariants(ctx context.Context, meta UploadMeta, variants []imageprocessor.RenderedVariant) ([]UploadResult, []VariantFailure, error) {
	var (
		results  []UploadResult
		failures []VariantFailure
	)
	for _, v := range variants {
		res, err := g.UploadVariant(ctx, meta, v)
		if err != nil {
			logger.CtxWarn(ctx, "variant upload failed", "variant", v.Spec.Key(), "error", err.Error())
			failures = append(failures, VariantFailure{VariantKey: v.Spec.Key(), Err: err})
			continue
		}
		results = append(results, *res)
	}
	if len(results) == 0 && len(variants) > 0 {
		return nil, failures, fmt.Errorf("all %d variant uploads failed", len(variants))
	}
	return results, failures, nil
}

// StoredImage groups the variants of one image found in the bucket.
type StoredImage struct {
	ImageID  string
	Variants map[string]string // variant key -> object key
}

// ListApartmentImages scans the apartment prefix and groups objects by image.
func (g *Gateway) ListApartmentImages(ctx context.Context, apartmentID uint) ([]StoredImage, error) {
	prefix := BuildApartmentPrefix(apartmentID)
	byImage := map[string]map[string]string{}
	var order []string

	for obj := range g.client.ListObjects(ctx, g.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list %s: %w", prefix, obj.Err)
		}
		parsed, err := ParseObjectKey(obj.Key)
		if err != nil {
			logger.CtxWarn(ctx, "skipping foreign object in bucket", "key", obj.Key, "error", err.Error())
			continue
		}
		if byImage[parsed.ImageID] == nil {
			byImage[parsed.ImageID] = map[string]string{}
			order = append(order, parsed.ImageID)
		}
		byImage[parsed.ImageID][parsed.VariantKey] = obj.Key
	}

	images := make([]StoredImage, 0, len(order))
	for _, id := range order {
		images = append(images, StoredImage{ImageID: id, Variants: byImage[id]})
	}
	return images, nil
}

// GetObject downloads one object.
func (g *Gateway) GetObject(ctx context.Context, key string) ([]byte, error) {
	obj, err := g.client.GetObject(ctx, g.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	defer obj.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(obj); err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return buf.Bytes(), nil
}

// DeleteImage removes every variant of an image. The operation counts as
// successful while deletions succeed at least as often as they fail and at
// least one object went away; an empty prefix reports ErrNoObjects.
func (g *Gateway) DeleteImage(ctx context.Context, apartmentID uint, imageID string) error {
	return g.deletePrefix(ctx, BuildImagePrefix(apartmentID, imageID))
}

// DeleteApartmentImages removes everything stored for an apartment.
func (g *Gateway) DeleteApartmentImages(ctx context.Context, apartmentID uint) error {
	return g.deletePrefix(ctx, BuildApartmentPrefix(apartmentID))
}

func (g *Gateway) deletePrefix(ctx context.Context, prefix string) error {
	var successes, failures int
	for obj := range g.client.ListObjects(ctx, g.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return fmt.Errorf("list %s: %w", prefix, obj.Err)
		}
		if err := g.client.RemoveObject(ctx, g.bucket, obj.Key, minio.RemoveObjectOptions{}); err != nil {
			logger.CtxWarn(ctx, "object removal failed", "key", obj.Key, "error", err.Error())
			failures++
			continue
		}
		successes++
	}
	if successes == 0 && failures == 0 {
		return fmt.Errorf("delete %s: %w", prefix, ErrNoObjects)
	}
	if successes == 0 || failures > successes {
		return fmt.Errorf("delete %s: %d of %d objects failed", prefix, failures, successes+failures)
	}
	return nil
}

// ObjectURL returns the public URL of an object.
func (g *Gateway) ObjectURL(key string) string {
	return g.publicURL + "/" + key
}

// PresignedURL returns a presigned GET link, falling back to the public URL
// when signing fails.
func (g *Gateway) PresignedURL(ctx context.Context, key string, ttl time.Duration) string {
	u, err := g.client.PresignedGetObject(ctx, g.bucket, key, ttl, url.Values{})
	if err != nil {
		logger.CtxWarn(ctx, "presign failed, using public url", "key", key, "error", err.Error())
		return g.ObjectURL(key)
	}
	return u.String()
}

// coverPreference orders variant keys for cover selection.
var coverPreference = []string{"small_webp", "small_jpeg"}

// CoverVariantKey picks the best variant for a cover from the available set.
func CoverVariantKey(variants map[string]string) (string, bool) {
	for _, key := range coverPreference {
		if _, ok := variants[key]; ok {
			return key, true
		}
	}
	for key := range variants {
		return key, true
	}
	return "", false
}

// CoverURL resolves the cover image URL for an apartment straight from the
// bucket. Returns "" when the apartment has no stored images.
func (g *Gateway) CoverURL(ctx context.Context, apartmentID uint) (string, error) {
	images, err := g.ListApartmentImages(ctx, apartmentID)
	if err != nil {
		return "", err
	}
	if len(images) == 0 {
		return "", nil
	}
	key, ok := CoverVariantKey(images[0].Variants)
	if !ok {
		return "", nil
	}
	return g.ObjectURL(images[0].Variants[key]), nil
}
