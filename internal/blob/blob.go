// Package blob stores drink images and hands back the URL they are served from.
package blob

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"drink-rating/internal/config"
	"drink-rating/internal/model"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrUnknownURL is returned by Delete for URLs the store did not produce.
var ErrUnknownURL = errors.New("url does not belong to this store")

// Store persists validated images.
type Store interface {
	// Put stores the image and returns its public URL.
	Put(ctx context.Context, image *model.ImageUpload) (string, error)

	// Delete removes the object behind a URL returned by Put.
	// Deleting an object that is already gone is not an error.
	Delete(ctx context.Context, url string) error
}

var allowedImageTypes = []string{"image/jpeg", "image/png", "image/gif"}

// ValidateImage enforces the size limit and sniffs the content to check it is
// a jpeg, png or gif. The declared content type is replaced by the sniffed one.
func ValidateImage(image *model.ImageUpload, maxBytes int64) error {
	if image.Size() > maxBytes {
		return model.ErrPayloadTooLarge
	}
	if image.Size() == 0 {
		return model.NewValidationError("image is empty")
	}

	detected := mimetype.Detect(image.Data)
	if !mimetype.EqualsAny(detected.String(), allowedImageTypes...) {
		return model.ErrUnsupportedMediaType
	}

	image.ContentType = detected.String()
	return nil
}

// objectKey returns a fresh collision-free object name for the image.
func objectKey(image *model.ImageUpload) string {
	ext := mimetype.Lookup(image.ContentType)
	if ext == nil {
		return uuid.NewString()
	}
	return uuid.NewString() + ext.Extension()
}

// keyFromURL strips base from url and rejects anything that is not a plain
// object name below it.
func keyFromURL(url, base string) (string, error) {
	if base == "" || !strings.HasPrefix(url, base) {
		return "", ErrUnknownURL
	}
	key := strings.TrimPrefix(url, base)
	if key == "" || strings.Contains(key, "..") || strings.HasPrefix(key, "/") {
		return "", ErrUnknownURL
	}
	return key, nil
}

// New builds the store selected by cfg.Backend.
func New(ctx context.Context, cfg config.StorageConfig, logger zerolog.Logger) (Store, error) {
	switch cfg.Backend {
	case "local":
		return NewLocalStore(cfg.LocalDir, LocalURLPrefix, logger)
	case "s3":
		return NewS3Store(ctx, cfg.S3, logger)
	case "minio":
		return NewMinIOStore(ctx, cfg.MinIO, logger)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Backend)
	}
}
