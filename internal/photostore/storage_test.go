package photostore

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/wayfarerhq/wayfarer/internal/config"
)

func TestNewServiceSelectsBackend(t *testing.T) {
	logger := zerolog.Nop()

	tests := []struct {
		name   string
		cfg    config.Config
		wantS3 bool
	}{
		{
			name:   "filesystem by default",
			cfg:    config.Config{PhotoRoot: t.TempDir()},
			wantS3: false,
		},
		{
			name: "s3 when bucket configured",
			cfg: config.Config{
				S3Bucket:        "wayfarer-photos",
				S3Region:        "us-east-1",
				S3AccessKeyID:   "key",
				S3SecretAccessKey: "secret",
			},
			wantS3: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := NewService(&tt.cfg, logger)
			if err != nil {
				t.Fatalf("NewService: %v", err)
			}
			_, isS3 := svc.storage.(*S3Storage)
			if isS3 != tt.wantS3 {
				t.Errorf("storage type = %T, wantS3 = %v", svc.storage, tt.wantS3)
			}
		})
	}
}

func TestFilesystemStorageRoundTrip(t *testing.T) {
	fs := NewFilesystemStorage(t.TempDir(), zerolog.Nop())
	ctx := context.Background()

	key := PhotoKey("ChIJabc123", "image/jpeg")
	if err := fs.Store(ctx, key, "image/jpeg", strings.NewReader("photo-bytes")); err != nil {
		t.Fatalf("Store: %v", err)
	}

	r, err := fs.Open(ctx, key)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(data) != "photo-bytes" {
		t.Fatalf("unexpected content %q", data)
	}

	if err := fs.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := fs.Open(ctx, key); err == nil {
		t.Fatal("expected open after delete to fail")
	}
}

func TestPhotoKeySharding(t *testing.T) {
	key := PhotoKey("ChIJxyz", "image/png")
	if key != "places/Ch/ChIJxyz.png" {
		t.Fatalf("unexpected key %q", key)
	}
	if got := PhotoKey("x", "image/jpeg"); got != "places/00/x.jpg" {
		t.Fatalf("unexpected short-id key %q", got)
	}
}
