/*
Copyright (C) 2026 Wayfarer HQ

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package cache provides a Redis-based caching layer for frequently accessed data.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Default TTL values for different cache types
const (
	DefaultPlaceSearchTTL = 15 * time.Minute
	DefaultPlaceDetailTTL = 24 * time.Hour
	DefaultTripSummaryTTL = 5 * time.Minute
)

// Key prefixes for Redis cache
const (
	KeyPlaceSearch = "wayfarer:cache:place_search:" // + query hash
	KeyPlaceDetail = "wayfarer:cache:place:"        // + place_id
	KeyTripSummary = "wayfarer:cache:trip_summary:" // + trip_id
)

// Config contains cache configuration.
type Config struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// TTL overrides
	PlaceSearchTTL time.Duration
	PlaceDetailTTL time.Duration
	TripSummaryTTL time.Duration

	// Fallback behavior
	DisableOnError bool // If true, disable caching on Redis errors
}

// DefaultConfig returns default cache configuration.
func DefaultConfig() Config {
	return Config{
		RedisAddr:      "localhost:6379",
		PlaceSearchTTL: DefaultPlaceSearchTTL,
		PlaceDetailTTL: DefaultPlaceDetailTTL,
		TripSummaryTTL: DefaultTripSummaryTTL,
		DisableOnError: true,
	}
}

// Cache provides Redis-backed caching with graceful fallback.
type Cache struct {
	client *redis.Client
	logger zerolog.Logger
	config Config

	mu       sync.RWMutex
	disabled bool // Circuit breaker state
}

// New creates a new cache instance.
func New(cfg Config, logger zerolog.Logger) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn().Err(err).Msg("Redis cache unavailable, running without caching")
		return &Cache{
			logger:   logger.With().Str("component", "cache").Logger(),
			config:   cfg,
			disabled: true,
		}, nil
	}

	logger.Info().Str("addr", cfg.RedisAddr).Msg("Redis cache initialized")

	return &Cache{
		client: client,
		logger: logger.With().Str("component", "cache").Logger(),
		config: cfg,
	}, nil
}

// Close closes the Redis connection.
func (c *Cache) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// IsAvailable returns true if the cache is operational.
func (c *Cache) IsAvailable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.disabled && c.client != nil
}

// handleError handles Redis errors with circuit breaker logic.
func (c *Cache) handleError(err error, operation string) {
	if err == nil || err == redis.Nil {
		return
	}

	c.logger.Debug().Err(err).Str("operation", operation).Msg("cache operation failed")

	if c.config.DisableOnError {
		c.mu.Lock()
		c.disabled = true
		c.mu.Unlock()
		c.logger.Warn().Msg("disabling cache due to Redis error")
	}
}

// get retrieves a value from cache and unmarshals it.
func (c *Cache) get(ctx context.Context, key string, dest any) (bool, error) {
	if !c.IsAvailable() {
		return false, nil
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		c.handleError(err, "get")
		return false, err
	}

	if err := json.Unmarshal(data, dest); err != nil {
		c.logger.Debug().Err(err).Str("key", key).Msg("failed to unmarshal cached value")
		return false, nil
	}

	return true, nil
}

// set stores a value in cache with TTL.
func (c *Cache) set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if !c.IsAvailable() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value: %w", err)
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		c.handleError(err, "set")
		return err
	}

	return nil
}

// delete removes a key from cache.
func (c *Cache) delete(ctx context.Context, key string) error {
	if !c.IsAvailable() {
		return nil
	}

	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.handleError(err, "delete")
		return err
	}

	return nil
}

// Place caching methods

// CachedPlace represents a cached place directory record.
type CachedPlace struct {
	PlaceID  string  `json:"place_id"`
	Name     string  `json:"name"`
	Address  string  `json:"address"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Rating   float64 `json:"rating"`
	Types    []string `json:"types,omitempty"`
	PhotoRef string  `json:"photo_ref,omitempty"`
}

// searchKey derives a stable cache key from the normalized query.
func searchKey(query string) string {
	normalized := strings.ToLower(strings.TrimSpace(query))
	sum := sha256.Sum256([]byte(normalized))
	return KeyPlaceSearch + hex.EncodeToString(sum[:16])
}

// GetPlaceSearch retrieves cached search results for a query.
func (c *Cache) GetPlaceSearch(ctx context.Context, query string) ([]CachedPlace, bool) {
	var places []CachedPlace
	found, err := c.get(ctx, searchKey(query), &places)
	if err != nil || !found {
		return nil, false
	}
	c.logger.Debug().Str("query", query).Int("count", len(places)).Msg("place search cache hit")
	return places, true
}

// SetPlaceSearch caches search results for a query.
func (c *Cache) SetPlaceSearch(ctx context.Context, query string, places []CachedPlace) error {
	return c.set(ctx, searchKey(query), places, c.config.PlaceSearchTTL)
}

// GetPlaceDetail retrieves a cached place by its directory ID.
func (c *Cache) GetPlaceDetail(ctx context.Context, placeID string) (*CachedPlace, bool) {
	var place CachedPlace
	found, err := c.get(ctx, KeyPlaceDetail+placeID, &place)
	if err != nil || !found {
		return nil, false
	}
	return &place, true
}

// SetPlaceDetail caches a place record.
func (c *Cache) SetPlaceDetail(ctx context.Context, place CachedPlace) error {
	return c.set(ctx, KeyPlaceDetail+place.PlaceID, place, c.config.PlaceDetailTTL)
}

// Trip summary caching methods

// CachedTripSummary represents the aggregate counts shown on trip lists.
type CachedTripSummary struct {
	TripID        string `json:"trip_id"`
	DayCount      int    `json:"day_count"`
	ActivityCount int    `json:"activity_count"`
	WishlistCount int    `json:"wishlist_count"`
	MemberCount   int    `json:"member_count"`
}

// GetTripSummary retrieves a cached trip summary.
func (c *Cache) GetTripSummary(ctx context.Context, tripID string) (*CachedTripSummary, bool) {
	var summary CachedTripSummary
	found, err := c.get(ctx, KeyTripSummary+tripID, &summary)
	if err != nil || !found {
		return nil, false
	}
	return &summary, true
}

// SetTripSummary caches a trip summary.
func (c *Cache) SetTripSummary(ctx context.Context, summary CachedTripSummary) error {
	return c.set(ctx, KeyTripSummary+summary.TripID, summary, c.config.TripSummaryTTL)
}

// InvalidateTripSummary removes a trip summary from cache. Called after
// any mutation that changes the trip's aggregate counts.
func (c *Cache) InvalidateTripSummary(ctx context.Context, tripID string) error {
	return c.delete(ctx, KeyTripSummary+tripID)
}
