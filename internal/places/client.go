/*
Copyright (C) 2026 Wayfarer HQ

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package places is a client for the Google Places web service with a
// Redis read-through cache in front of it.
package places

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/wayfarerhq/wayfarer/internal/cache"
	"github.com/wayfarerhq/wayfarer/internal/telemetry"
)

// Place is a normalized place directory record.
type Place struct {
	PlaceID  string   `json:"place_id"`
	Name     string   `json:"name"`
	Address  string   `json:"address"`
	Lat      float64  `json:"lat"`
	Lng      float64  `json:"lng"`
	Rating   float64  `json:"rating"`
	Types    []string `json:"types,omitempty"`
	PhotoRef string   `json:"photo_ref,omitempty"`
}

// Client queries the place directory API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	cache      *cache.Cache
	logger     zerolog.Logger
}

// NewClient creates a place directory client. The cache may be nil.
func NewClient(baseURL, apiKey string, c *cache.Cache, logger zerolog.Logger) (*Client, error) {
	baseURL = strings.TrimSuffix(baseURL, "/")
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "https://" + baseURL
	}

	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		cache:  c,
		logger: logger.With().Str("component", "places").Logger(),
	}, nil
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

// Search runs a free-text search against the place directory.
func (c *Client) Search(ctx context.Context, query string) ([]Place, error) {
	if c.cache != nil {
		if cached, ok := c.cache.GetPlaceSearch(ctx, query); ok {
			telemetry.PlaceLookupsTotal.WithLabelValues("search", "hit").Inc()
			return fromCached(cached), nil
		}
	}
	telemetry.PlaceLookupsTotal.WithLabelValues("search", "miss").Inc()

	endpoint := c.baseURL + "/maps/api/place/textsearch/json"
	params := url.Values{}
	params.Set("query", query)
	params.Set("key", c.apiKey)

	var raw struct {
		Status  string `json:"status"`
		Results []struct {
			PlaceID          string `json:"place_id"`
			Name             string `json:"name"`
			FormattedAddress string `json:"formatted_address"`
			Rating           float64 `json:"rating"`
			Types            []string `json:"types"`
			Geometry         struct {
				Location struct {
					Lat float64 `json:"lat"`
					Lng float64 `json:"lng"`
				} `json:"location"`
			} `json:"geometry"`
			Photos []struct {
				PhotoReference string `json:"photo_reference"`
			} `json:"photos"`
		} `json:"results"`
		ErrorMessage string `json:"error_message"`
	}

	if err := c.getJSON(ctx, endpoint, params, &raw); err != nil {
		return nil, err
	}
	if raw.Status != "OK" && raw.Status != "ZERO_RESULTS" {
		return nil, fmt.Errorf("place search failed: %s %s", raw.Status, raw.ErrorMessage)
	}

	places := make([]Place, 0, len(raw.Results))
	for _, r := range raw.Results {
		p := Place{
			PlaceID: r.PlaceID,
			Name:    r.Name,
			Address: r.FormattedAddress,
			Lat:     r.Geometry.Location.Lat,
			Lng:     r.Geometry.Location.Lng,
			Rating:  r.Rating,
			Types:   r.Types,
		}
		if len(r.Photos) > 0 {
			p.PhotoRef = r.Photos[0].PhotoReference
		}
		places = append(places, p)
	}

	if c.cache != nil {
		_ = c.cache.SetPlaceSearch(ctx, query, toCached(places))
		for _, p := range places {
			_ = c.cache.SetPlaceDetail(ctx, toCachedOne(p))
		}
	}

	return places, nil
}

// Details fetches a single place by its directory ID.
func (c *Client) Details(ctx context.Context, placeID string) (*Place, error) {
	if c.cache != nil {
		if cached, ok := c.cache.GetPlaceDetail(ctx, placeID); ok {
			telemetry.PlaceLookupsTotal.WithLabelValues("details", "hit").Inc()
			p := fromCachedOne(*cached)
			return &p, nil
		}
	}
	telemetry.PlaceLookupsTotal.WithLabelValues("details", "miss").Inc()

	endpoint := c.baseURL + "/maps/api/place/details/json"
	params := url.Values{}
	params.Set("place_id", placeID)
	params.Set("fields", "place_id,name,formatted_address,geometry,rating,types,photos")
	params.Set("key", c.apiKey)

	var raw struct {
		Status string `json:"status"`
		Result struct {
			PlaceID          string `json:"place_id"`
			Name             string `json:"name"`
			FormattedAddress string `json:"formatted_address"`
			Rating           float64 `json:"rating"`
			Types            []string `json:"types"`
			Geometry         struct {
				Location struct {
					Lat float64 `json:"lat"`
					Lng float64 `json:"lng"`
				} `json:"location"`
			} `json:"geometry"`
			Photos []struct {
				PhotoReference string `json:"photo_reference"`
			} `json:"photos"`
		} `json:"result"`
		ErrorMessage string `json:"error_message"`
	}

	if err := c.getJSON(ctx, endpoint, params, &raw); err != nil {
		return nil, err
	}
	if raw.Status == "NOT_FOUND" || raw.Status == "ZERO_RESULTS" {
		return nil, ErrPlaceNotFound
	}
	if raw.Status != "OK" {
		return nil, fmt.Errorf("place details failed: %s %s", raw.Status, raw.ErrorMessage)
	}

	p := Place{
		PlaceID: raw.Result.PlaceID,
		Name:    raw.Result.Name,
		Address: raw.Result.FormattedAddress,
		Lat:     raw.Result.Geometry.Location.Lat,
		Lng:     raw.Result.Geometry.Location.Lng,
		Rating:  raw.Result.Rating,
		Types:   raw.Result.Types,
	}
	if len(raw.Result.Photos) > 0 {
		p.PhotoRef = raw.Result.Photos[0].PhotoReference
	}

	if c.cache != nil {
		_ = c.cache.SetPlaceDetail(ctx, toCachedOne(p))
	}

	return &p, nil
}

// Photo downloads a photo blob by its reference. Returns the bytes and
// the content type reported upstream.
func (c *Client) Photo(ctx context.Context, photoRef string, maxWidth int) ([]byte, string, error) {
	if maxWidth <= 0 {
		maxWidth = 800
	}

	endpoint := c.baseURL + "/maps/api/place/photo"
	params := url.Values{}
	params.Set("photoreference", photoRef)
	params.Set("maxwidth", strconv.Itoa(maxWidth))
	params.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("photo request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, "", fmt.Errorf("photo fetch failed (status %d): %s", resp.StatusCode, string(body))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read photo body: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}

	return data, contentType, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, params url.Values, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("place request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("place request failed (status %d): %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func toCached(places []Place) []cache.CachedPlace {
	out := make([]cache.CachedPlace, len(places))
	for i, p := range places {
		out[i] = toCachedOne(p)
	}
	return out
}

func toCachedOne(p Place) cache.CachedPlace {
	return cache.CachedPlace{
		PlaceID:  p.PlaceID,
		Name:     p.Name,
		Address:  p.Address,
		Lat:      p.Lat,
		Lng:      p.Lng,
		Rating:   p.Rating,
		Types:    p.Types,
		PhotoRef: p.PhotoRef,
	}
}

func fromCached(cached []cache.CachedPlace) []Place {
	out := make([]Place, len(cached))
	for i, c := range cached {
		out[i] = fromCachedOne(c)
	}
	return out
}

func fromCachedOne(c cache.CachedPlace) Place {
	return Place{
		PlaceID:  c.PlaceID,
		Name:     c.Name,
		Address:  c.Address,
		Lat:      c.Lat,
		Lng:      c.Lng,
		Rating:   c.Rating,
		Types:    c.Types,
		PhotoRef: c.PhotoRef,
	}
}
