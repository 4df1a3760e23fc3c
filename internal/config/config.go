/*
Copyright (C) 2026 Wayfarer HQ

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Database backend selection.
type DatabaseBackend string

const (
	DatabasePostgres DatabaseBackend = "postgres"
	DatabaseMySQL    DatabaseBackend = "mysql"
	DatabaseSQLite   DatabaseBackend = "sqlite"
)

// Config covers process level configuration read from environment variables.
type Config struct {
	Environment   string
	HTTPBind      string
	HTTPPort      int
	BaseURL       string // Public base URL (e.g., https://plan.example.com)
	DBBackend     DatabaseBackend
	DBDSN         string
	JWTSigningKey string
	MetricsBind   string

	// Place photo cache storage
	PhotoRoot string // Local filesystem root used when no S3 bucket is set

	// S3 object storage configuration
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3Region          string
	S3Bucket          string
	S3Endpoint        string // For S3-compatible services (MinIO, Spaces, etc.)
	S3PublicBaseURL   string // Optional CDN/CloudFront URL
	S3UsePathStyle    bool   // Required for MinIO

	// Tracing configuration
	TracingEnabled    bool
	OTLPEndpoint      string
	TracingSampleRate float64

	// Redis cache configuration
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// NATS event bridge (multi-instance deployments)
	NATSEnabled bool
	NATSURL     string
	InstanceID  string

	// External integrations
	PlacesAPIKey  string // Google Places API key
	PlacesBaseURL string // Override for tests/proxies
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
}

// Load reads environment variables, applies defaults, and validates the result.
func Load() (*Config, error) {
	cfg := &Config{
		Environment:   getEnv("WAYFARER_ENV", "development"),
		HTTPBind:      getEnv("WAYFARER_HTTP_BIND", "0.0.0.0"),
		HTTPPort:      getEnvInt("WAYFARER_HTTP_PORT", 8080),
		BaseURL:       getEnv("WAYFARER_BASE_URL", ""),
		DBBackend:     DatabaseBackend(getEnv("WAYFARER_DB_BACKEND", string(DatabasePostgres))),
		DBDSN:         getEnv("WAYFARER_DB_DSN", ""),
		JWTSigningKey: getEnv("WAYFARER_JWT_SIGNING_KEY", ""),
		MetricsBind:   getEnv("WAYFARER_METRICS_BIND", "127.0.0.1:9000"),

		PhotoRoot: getEnv("WAYFARER_PHOTO_ROOT", "./photos"),

		S3AccessKeyID:     getEnv("WAYFARER_S3_ACCESS_KEY_ID", os.Getenv("AWS_ACCESS_KEY_ID")),
		S3SecretAccessKey: getEnv("WAYFARER_S3_SECRET_ACCESS_KEY", os.Getenv("AWS_SECRET_ACCESS_KEY")),
		S3Region:          getEnv("WAYFARER_S3_REGION", "us-east-1"),
		S3Bucket:          getEnv("WAYFARER_S3_BUCKET", ""),
		S3Endpoint:        getEnv("WAYFARER_S3_ENDPOINT", ""),
		S3PublicBaseURL:   getEnv("WAYFARER_S3_PUBLIC_BASE_URL", ""),
		S3UsePathStyle:    getEnvBool("WAYFARER_S3_USE_PATH_STYLE", false),

		TracingEnabled:    getEnvBool("WAYFARER_TRACING_ENABLED", false),
		OTLPEndpoint:      getEnv("WAYFARER_OTLP_ENDPOINT", "localhost:4317"),
		TracingSampleRate: getEnvFloat("WAYFARER_TRACING_SAMPLE_RATE", 1.0),

		RedisAddr:     getEnv("WAYFARER_REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("WAYFARER_REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("WAYFARER_REDIS_DB", 0),

		NATSEnabled: getEnvBool("WAYFARER_NATS_ENABLED", false),
		NATSURL:     getEnv("WAYFARER_NATS_URL", "nats://localhost:4222"),
		InstanceID:  getEnv("WAYFARER_INSTANCE_ID", ""),

		PlacesAPIKey:  getEnv("WAYFARER_PLACES_API_KEY", ""),
		PlacesBaseURL: getEnv("WAYFARER_PLACES_BASE_URL", "https://maps.googleapis.com/maps/api/place"),
		OpenAIAPIKey:  getEnv("WAYFARER_OPENAI_API_KEY", os.Getenv("OPENAI_API_KEY")),
		OpenAIBaseURL: getEnv("WAYFARER_OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:   getEnv("WAYFARER_OPENAI_MODEL", "gpt-4o-mini"),
	}

	if cfg.DBBackend != DatabasePostgres && cfg.DBBackend != DatabaseMySQL && cfg.DBBackend != DatabaseSQLite {
		return nil, fmt.Errorf("unsupported database backend %q", cfg.DBBackend)
	}

	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("WAYFARER_DB_DSN must be provided")
	}

	if cfg.JWTSigningKey == "" {
		return nil, fmt.Errorf("WAYFARER_JWT_SIGNING_KEY must be provided")
	}

	if strings.EqualFold(cfg.Environment, "production") && len(cfg.JWTSigningKey) < 32 {
		return nil, fmt.Errorf("WAYFARER_JWT_SIGNING_KEY must be at least 32 bytes in production")
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "true" || v == "1" || v == "yes" {
			return true
		}
		if v == "false" || v == "0" || v == "no" {
			return false
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			return parsed
		}
	}
	return def
}
