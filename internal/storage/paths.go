package storage

import (
	"fmt"
	"path"
	"strconv"
	"strings"
)

// Object keys follow apartments/{apartment_id}/{image_id}_{size}_{format}.{ext}.
// The photo_variants table is authoritative; parsing keys back is a recovery
// path used when reconciling the bucket with the database.

// BuildApartmentPrefix returns the key prefix holding all images of an apartment.
func BuildApartmentPrefix(apartmentID uint) string {
	return fmt.Sprintf("apartments/%d/", apartmentID)
}

// BuildImagePrefix returns the key prefix holding all variants of one image.
func BuildImagePrefix(apartmentID uint, imageID string) string {
	return fmt.Sprintf("apartments/%d/%s_", apartmentID, imageID)
}

// BuildObjectKey builds the full key for one variant object.
func BuildObjectKey(apartmentID uint, imageID, variantKey, ext string) string {
	return fmt.Sprintf("apartments/%d/%s_%s.%s", apartmentID, imageID, variantKey, ext)
}

// ParsedKey is the result of decomposing an object key.
type ParsedKey struct {
	ApartmentID uint
	ImageID     string
	VariantKey  string // "{size}_{format}"
	Ext         string
}

// ParseObjectKey decomposes a key produced by BuildObjectKey. Image ids are
// UUIDs and contain no underscores, so the first underscore in the file name
// separates the id from the variant key.
func ParseObjectKey(key string) (*ParsedKey, error) {
	parts := strings.Split(key, "/")
	if len(parts) != 3 || parts[0] != "apartments" {
		return nil, fmt.Errorf("unexpected object key layout: %q", key)
	}

	apartmentID, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return nil, fmt.Errorf("bad apartment id in key %q: %w", key, err)
	}

	file := parts[2]
	ext := strings.TrimPrefix(path.Ext(file), ".")
	if ext == "" {
		return nil, fmt.Errorf("object key %q has no extension", key)
	}
	name := strings.TrimSuffix(file, path.Ext(file))

	idx := strings.Index(name, "_")
	if idx <= 0 || idx == len(name)-1 {
		return nil, fmt.Errorf("object key %q has no variant suffix", key)
	}

	return &ParsedKey{
		ApartmentID: uint(apartmentID),
		ImageID:     name[:idx],
		VariantKey:  name[idx+1:],
		Ext:         ext,
	}, nil
}
