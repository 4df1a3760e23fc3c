/*
Copyright (C) 2026 Wayfarer HQ

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package photostore persists place photos fetched from the place
// directory so repeated views never re-hit the upstream API.
package photostore

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/rs/zerolog"

	"github.com/wayfarerhq/wayfarer/internal/config"
)

// Storage abstracts photo blob storage operations.
type Storage interface {
	Store(ctx context.Context, key string, contentType string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
	CheckAccess(ctx context.Context) error
}

// Service manages photo storage.
type Service struct {
	storage Storage
	logger  zerolog.Logger
}

// NewService creates a photo service using filesystem or S3 storage based on config.
func NewService(cfg *config.Config, logger zerolog.Logger) (*Service, error) {
	var storage Storage

	if cfg.S3Bucket != "" {
		s3cfg := S3Config{
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			Region:          cfg.S3Region,
			Bucket:          cfg.S3Bucket,
			Endpoint:        cfg.S3Endpoint,
			PublicBaseURL:   cfg.S3PublicBaseURL,
			UsePathStyle:    cfg.S3UsePathStyle,
		}

		if s3cfg.AccessKeyID == "" || s3cfg.SecretAccessKey == "" {
			logger.Warn().Msg("S3 credentials not configured, some operations may fail")
		}

		s3Storage, err := NewS3Storage(context.Background(), s3cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("initialize S3 storage: %w", err)
		}
		storage = s3Storage
	} else {
		storage = NewFilesystemStorage(cfg.PhotoRoot, logger)
	}

	return &Service{
		storage: storage,
		logger:  logger.With().Str("component", "photostore").Logger(),
	}, nil
}

// PhotoKey builds the storage key for a place photo.
func PhotoKey(placeID, mimeType string) string {
	ext := ".jpg"
	switch mimeType {
	case "image/png":
		ext = ".png"
	case "image/webp":
		ext = ".webp"
	}
	// Shard by the first two characters to keep directories small.
	shard := "00"
	if len(placeID) >= 2 {
		shard = placeID[:2]
	}
	return path.Join("places", shard, placeID+ext)
}

// Store saves a photo blob under the given key.
func (s *Service) Store(ctx context.Context, key, contentType string, data io.Reader) error {
	if err := s.storage.Store(ctx, key, contentType, data); err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("photo store failed")
		return err
	}
	s.logger.Debug().Str("key", key).Msg("photo stored")
	return nil
}

// Open returns a reader for a stored photo.
func (s *Service) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	return s.storage.Open(ctx, key)
}

// Delete removes a stored photo.
func (s *Service) Delete(ctx context.Context, key string) error {
	return s.storage.Delete(ctx, key)
}

// URL returns the public URL for a stored photo, if the backend has one.
func (s *Service) URL(key string) string {
	return s.storage.URL(key)
}

// CheckAccess verifies the backing store is reachable.
func (s *Service) CheckAccess(ctx context.Context) error {
	return s.storage.CheckAccess(ctx)
}
