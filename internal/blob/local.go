package blob

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"drink-rating/internal/model"

	"github.com/rs/zerolog"
)

// LocalURLPrefix is the path the API serves locally stored images under.
const LocalURLPrefix = "/api/uploads/"

// localStore implements Store on the local file system.
type localStore struct {
	dir       string
	urlPrefix string
	logger    zerolog.Logger
}

// NewLocalStore creates a file-system store rooted at dir. The directory is
// created if missing.
func NewLocalStore(dir, urlPrefix string, logger zerolog.Logger) (Store, error) {
	logger = logger.With().Str("component", "local-blob-store").Logger()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Error().Err(err).Str("dir", dir).Msg("failed to create upload directory")
		return nil, fmt.Errorf("failed to create upload directory %s: %w", dir, err)
	}

	logger.Info().Str("dir", dir).Msg("local blob store initialised")

	return &localStore{
		dir:       dir,
		urlPrefix: urlPrefix,
		logger:    logger,
	}, nil
}

// Put writes the image to a new file in the upload directory.
func (s *localStore) Put(ctx context.Context, image *model.ImageUpload) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	key := objectKey(image)
	path := filepath.Join(s.dir, key)

	if err := os.WriteFile(path, image.Data, 0o644); err != nil {
		s.logger.Error().Err(err).Str("file", path).Msg("failed to write image")
		return "", fmt.Errorf("failed to write image %s: %w", path, err)
	}

	s.logger.Debug().Str("file", path).Int64("bytes", image.Size()).Msg("image stored")

	return s.urlPrefix + key, nil
}

// Delete removes the file behind url.
func (s *localStore) Delete(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key, err := keyFromURL(url, s.urlPrefix)
	if err != nil {
		return err
	}
	if filepath.Base(key) != key {
		return ErrUnknownURL
	}

	path := filepath.Join(s.dir, key)
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logger.Error().Err(err).Str("file", path).Msg("failed to delete image")
		return fmt.Errorf("failed to delete image %s: %w", path, err)
	}

	return nil
}
