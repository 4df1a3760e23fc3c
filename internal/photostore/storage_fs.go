/*
Copyright (C) 2026 Wayfarer HQ

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package photostore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// FilesystemStorage implements Storage using the local filesystem.
type FilesystemStorage struct {
	rootDir string
	logger  zerolog.Logger
}

// NewFilesystemStorage creates a filesystem-based storage backend.
func NewFilesystemStorage(rootDir string, logger zerolog.Logger) *FilesystemStorage {
	return &FilesystemStorage{
		rootDir: rootDir,
		logger:  logger,
	}
}

// Store saves a photo to the local filesystem.
func (fs *FilesystemStorage) Store(ctx context.Context, key, contentType string, data io.Reader) error {
	fullPath := filepath.Join(fs.rootDir, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("create directories: %w", err)
	}

	dest, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer dest.Close()

	if _, err := io.Copy(dest, data); err != nil {
		os.Remove(fullPath) // Clean up on failure
		return fmt.Errorf("write file: %w", err)
	}

	fs.logger.Debug().
		Str("path", fullPath).
		Str("key", key).
		Msg("filesystem storage: photo stored")

	return nil
}

// Open returns a reader for a stored photo.
func (fs *FilesystemStorage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	fullPath := filepath.Join(fs.rootDir, filepath.FromSlash(key))
	f, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("photo not found: %s", key)
		}
		return nil, fmt.Errorf("open photo: %w", err)
	}
	return f, nil
}

// Delete removes a photo from the filesystem.
func (fs *FilesystemStorage) Delete(ctx context.Context, key string) error {
	fullPath := filepath.Join(fs.rootDir, filepath.FromSlash(key))
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove file: %w", err)
	}

	fs.logger.Debug().Str("path", fullPath).Msg("filesystem storage: photo deleted")
	return nil
}

// URL returns an empty string; filesystem photos are served through the API.
func (fs *FilesystemStorage) URL(key string) string {
	return ""
}

// CheckAccess verifies the storage directory exists and is accessible.
func (fs *FilesystemStorage) CheckAccess(ctx context.Context) error {
	info, err := os.Stat(fs.rootDir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("photo root directory does not exist: %s", fs.rootDir)
		}
		return fmt.Errorf("cannot access photo root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("photo root is not a directory: %s", fs.rootDir)
	}
	return nil
}
