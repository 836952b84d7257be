package blob

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"drink-rating/internal/config"
	"drink-rating/internal/model"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// s3API is the subset of the S3 client the store uses.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// s3Store implements Store for AWS S3 and S3-compatible services.
type s3Store struct {
	client  s3API
	bucket  string
	prefix  string
	baseURL string
	logger  zerolog.Logger
}

// NewS3Store creates a new S3-backed image store.
func NewS3Store(ctx context.Context, cfg config.S3Config, logger zerolog.Logger) (Store, error) {
	logger = logger.With().Str("component", "s3-blob-store").Logger()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		logger.Error().Err(err).Msg("failed to load AWS configuration")
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	logger.Info().
		Str("bucket", cfg.Bucket).
		Str("region", cfg.Region).
		Msg("S3 blob store initialised")

	return newS3Store(client, cfg, logger), nil
}

func newS3Store(client s3API, cfg config.S3Config, logger zerolog.Logger) *s3Store {
	return &s3Store{
		client:  client,
		bucket:  cfg.Bucket,
		prefix:  cfg.Prefix,
		baseURL: s3BaseURL(cfg),
		logger:  logger,
	}
}

// s3BaseURL returns the URL prefix objects of the bucket are reachable under.
func s3BaseURL(cfg config.S3Config) string {
	switch {
	case cfg.PublicURL != "":
		return strings.TrimRight(cfg.PublicURL, "/") + "/"
	case cfg.Endpoint != "":
		return strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket + "/"
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/", cfg.Bucket, cfg.Region)
	}
}

// Put uploads the image under the configured key prefix.
func (s *s3Store) Put(ctx context.Context, image *model.ImageUpload) (string, error) {
	key := s.prefix + objectKey(image)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(image.Data),
		ContentLength: aws.Int64(image.Size()),
		ContentType:   aws.String(image.ContentType),
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("bucket", s.bucket).
			Str("key", key).
			Msg("failed to put object to S3")
		return "", fmt.Errorf("failed to put object to S3 (bucket=%s, key=%s): %w", s.bucket, key, err)
	}

	s.logger.Debug().Str("bucket", s.bucket).Str("key", key).Msg("image uploaded to S3")

	return s.baseURL + key, nil
}

// Delete removes the object behind url. S3 reports success for missing keys.
func (s *s3Store) Delete(ctx context.Context, url string) error {
	key, err := keyFromURL(url, s.baseURL)
	if err != nil {
		return err
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("bucket", s.bucket).
			Str("key", key).
			Msg("failed to delete object from S3")
		return fmt.Errorf("failed to delete object from S3 (bucket=%s, key=%s): %w", s.bucket, key, err)
	}

	return nil
}
