package r2

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"

	"github.com/zengarden/zengarden-api/internal/config"
	"github.com/zengarden/zengarden-api/internal/storage"
)

// Storage implements storage.Storage against an S3-compatible endpoint.
// Cloudflare R2 is the reference deployment, but any S3 API works.
type Storage struct {
	logger    *slog.Logger
	client    s3iface.S3API
	bucket    string
	publicURL string
}

// Interface guard.
var _ storage.Storage = (*Storage)(nil)

// NewStorage creates a Storage from the given configuration. It
// validates the configuration up front so a misconfigured deployment
// fails at startup.
func NewStorage(logger *slog.Logger, cfg config.StorageConfig) (*Storage, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("%w: endpoint cannot be empty", storage.ErrInvalidConfig)
	}
	if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return nil, fmt.Errorf("%w: credentials cannot be empty", storage.ErrInvalidConfig)
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("%w: bucket cannot be empty", storage.ErrInvalidConfig)
	}
	if cfg.PublicURL == "" {
		return nil, fmt.Errorf("%w: public URL cannot be empty", storage.ErrInvalidConfig)
	}

	sess, err := session.NewSession(&aws.Config{
		Region:           aws.String(cfg.Region),
		Endpoint:         aws.String(cfg.Endpoint),
		Credentials:      credentials.NewStaticCredentials(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		S3ForcePathStyle: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create S3 session: %v", storage.ErrInvalidConfig, err)
	}

	return &Storage{
		logger:    logger.With(slog.String("component", "r2_storage")),
		client:    s3.New(sess),
		bucket:    cfg.Bucket,
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
	}, nil
}

// PutObject writes raw bytes under the given key and returns the
// object's public URL.
func (s *Storage) PutObject(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if len(data) == 0 {
		return "", storage.ErrEmptyObject
	}

	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("%w: put %s: %v", storage.ErrUploadFailed, key, err)
	}

	url := s.publicURL + "/" + key
	s.logger.DebugContext(ctx, "Object uploaded",
		slog.String("key", key),
		slog.Int("bytes", len(data)),
		slog.String("content_type", contentType))

	return url, nil
}

// PutJSON marshals v and writes it under the given key as
// application/json.
func (s *Storage) PutJSON(ctx context.Context, key string, v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshaling object for %s: %w", key, err)
	}
	return s.PutObject(ctx, key, data, "application/json")
}
