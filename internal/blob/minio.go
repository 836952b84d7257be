package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"drink-rating/internal/config"
	"drink-rating/internal/model"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"
)

// minioAPI is the subset of the MinIO client the store uses.
type minioAPI interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

// minioStore implements Store on a MinIO bucket.
type minioStore struct {
	client  minioAPI
	bucket  string
	baseURL string
	logger  zerolog.Logger
}

// NewMinIOStore connects to MinIO and creates the bucket when it is missing.
func NewMinIOStore(ctx context.Context, cfg config.MinIOConfig, logger zerolog.Logger) (Store, error) {
	logger = logger.With().Str("component", "minio-blob-store").Logger()

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}

	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
		logger.Info().Str("bucket", cfg.Bucket).Msg("bucket created")
	}

	return newMinIOStore(client, cfg, logger), nil
}

func newMinIOStore(client minioAPI, cfg config.MinIOConfig, logger zerolog.Logger) *minioStore {
	scheme := "http"
	if cfg.UseSSL {
		scheme = "https"
	}

	return &minioStore{
		client:  client,
		bucket:  cfg.Bucket,
		baseURL: fmt.Sprintf("%s://%s/%s/", scheme, cfg.Endpoint, cfg.Bucket),
		logger:  logger,
	}
}

// Put uploads the image to the bucket.
func (s *minioStore) Put(ctx context.Context, image *model.ImageUpload) (string, error) {
	key := objectKey(image)

	_, err := s.client.PutObject(
		ctx,
		s.bucket,
		key,
		bytes.NewReader(image.Data),
		image.Size(),
		minio.PutObjectOptions{
			ContentType: image.ContentType,
		},
	)
	if err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("failed to upload to minio")
		return "", fmt.Errorf("failed to upload to minio: %w", err)
	}

	return s.baseURL + key, nil
}

// Delete removes the object behind url.
func (s *minioStore) Delete(ctx context.Context, url string) error {
	key, err := keyFromURL(url, s.baseURL)
	if err != nil {
		return err
	}

	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("failed to delete object from minio")
		return fmt.Errorf("failed to delete object: %w", err)
	}

	return nil
}
