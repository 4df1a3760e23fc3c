package config

import "testing"

func TestLoadReadsCriticalEnvKeys(t *testing.T) {
	t.Setenv("WAYFARER_DB_DSN", "host=localhost user=test dbname=test sslmode=disable")
	t.Setenv("WAYFARER_JWT_SIGNING_KEY", "supersecret")
	t.Setenv("WAYFARER_ENV", "development")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.DBDSN == "" {
		t.Fatal("expected DB DSN to be set")
	}
	if cfg.JWTSigningKey != "supersecret" {
		t.Fatalf("unexpected jwt signing key: %q", cfg.JWTSigningKey)
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("WAYFARER_DB_DSN", "file::memory:?cache=shared")
	t.Setenv("WAYFARER_JWT_SIGNING_KEY", "supersecret")
	t.Setenv("WAYFARER_DB_BACKEND", "mongodb")

	if _, err := Load(); err == nil {
		t.Fatal("expected load to fail for unsupported backend")
	}
}

func TestLoadRequiresDSNAndSigningKey(t *testing.T) {
	t.Setenv("WAYFARER_DB_DSN", "")
	t.Setenv("WAYFARER_JWT_SIGNING_KEY", "supersecret")
	if _, err := Load(); err == nil {
		t.Fatal("expected load to fail without DSN")
	}

	t.Setenv("WAYFARER_DB_DSN", "file::memory:?cache=shared")
	t.Setenv("WAYFARER_JWT_SIGNING_KEY", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected load to fail without signing key")
	}
}

func TestLoadProductionRequiresStrongSigningKey(t *testing.T) {
	t.Setenv("WAYFARER_DB_DSN", "host=localhost user=test dbname=test sslmode=disable")
	t.Setenv("WAYFARER_ENV", "production")
	t.Setenv("WAYFARER_JWT_SIGNING_KEY", "short")

	if _, err := Load(); err == nil {
		t.Fatal("expected production config load to fail with a short signing key")
	}

	t.Setenv("WAYFARER_JWT_SIGNING_KEY", "0123456789abcdef0123456789abcdef")
	if _, err := Load(); err != nil {
		t.Fatalf("expected production config load with strong key to succeed: %v", err)
	}
}
