/*
Copyright (C) 2026 Wayfarer HQ

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package photostore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"
)

// S3Config contains connection settings for S3-compatible object storage.
type S3Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	Bucket          string
	Endpoint        string // For S3-compatible services (MinIO, Spaces, etc.)
	PublicBaseURL   string // Optional CDN base URL
	UsePathStyle    bool   // Required for MinIO
}

// S3Storage implements Storage using S3-compatible object storage.
type S3Storage struct {
	client *s3.Client
	cfg    S3Config
	logger zerolog.Logger
}

// NewS3Storage creates an S3-based storage backend.
func NewS3Storage(ctx context.Context, cfg S3Config, logger zerolog.Logger) (*S3Storage, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	logger.Info().
		Str("bucket", cfg.Bucket).
		Str("region", cfg.Region).
		Str("endpoint", cfg.Endpoint).
		Msg("S3 photo storage initialized")

	return &S3Storage{
		client: client,
		cfg:    cfg,
		logger: logger,
	}, nil
}

// Store uploads a photo to the bucket.
func (st *S3Storage) Store(ctx context.Context, key, contentType string, data io.Reader) error {
	_, err := st.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(st.cfg.Bucket),
		Key:         aws.String(key),
		Body:        data,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("s3 put object: %w", err)
	}

	st.logger.Debug().Str("key", key).Msg("s3 storage: photo stored")
	return nil
}

// Open downloads a photo from the bucket.
func (st *S3Storage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := st.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(st.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NoSuchKey
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("photo not found: %s", key)
		}
		return nil, fmt.Errorf("s3 get object: %w", err)
	}
	return out.Body, nil
}

// Delete removes a photo from the bucket.
func (st *S3Storage) Delete(ctx context.Context, key string) error {
	_, err := st.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(st.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 delete object: %w", err)
	}
	return nil
}

// URL returns the public URL for a stored photo.
func (st *S3Storage) URL(key string) string {
	if st.cfg.PublicBaseURL != "" {
		return strings.TrimSuffix(st.cfg.PublicBaseURL, "/") + "/" + key
	}
	if st.cfg.Endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(st.cfg.Endpoint, "/"), st.cfg.Bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", st.cfg.Bucket, st.cfg.Region, key)
}

// CheckAccess verifies the bucket is reachable.
func (st *S3Storage) CheckAccess(ctx context.Context) error {
	_, err := st.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(st.cfg.Bucket),
	})
	if err != nil {
		return fmt.Errorf("s3 head bucket: %w", err)
	}
	return nil
}
