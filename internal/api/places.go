/*
Copyright (C) 2026 Wayfarer HQ

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wayfarerhq/wayfarer/internal/models"
	"github.com/wayfarerhq/wayfarer/internal/photostore"
	"github.com/wayfarerhq/wayfarer/internal/places"
)

func (a *API) handlePlacesSearch(w http.ResponseWriter, r *http.Request) {
	if a.places == nil || !a.places.Enabled() {
		writeError(w, http.StatusServiceUnavailable, "places_not_configured")
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "query_required")
		return
	}

	results, err := a.places.Search(r.Context(), query)
	if err != nil {
		a.logger.Error().Err(err).Str("query", query).Msg("place search failed")
		writeError(w, http.StatusBadGateway, "place_lookup_failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (a *API) handlePlacesGet(w http.ResponseWriter, r *http.Request) {
	if a.places == nil || !a.places.Enabled() {
		writeError(w, http.StatusServiceUnavailable, "places_not_configured")
		return
	}

	placeID := chi.URLParam(r, "placeID")
	place, err := a.places.Details(r.Context(), placeID)
	if errors.Is(err, places.ErrPlaceNotFound) {
		writeError(w, http.StatusNotFound, "place_not_found")
		return
	}
	if err != nil {
		a.logger.Error().Err(err).Str("place_id", placeID).Msg("place details failed")
		writeError(w, http.StatusBadGateway, "place_lookup_failed")
		return
	}

	writeJSON(w, http.StatusOK, place)
}

// handlePlacesPhoto serves a place photo, fetching and persisting it in the
// photo store on first access.
func (a *API) handlePlacesPhoto(w http.ResponseWriter, r *http.Request) {
	placeID := chi.URLParam(r, "placeID")

	var indexed models.PlacePhoto
	err := a.db.WithContext(r.Context()).Where("place_id = ?", placeID).First(&indexed).Error
	if err == nil && a.photos != nil {
		reader, openErr := a.photos.Open(r.Context(), indexed.StorageKey)
		if openErr == nil {
			defer reader.Close()
			w.Header().Set("Content-Type", indexed.MimeType)
			w.Header().Set("Cache-Control", "public, max-age=86400")
			_, _ = io.Copy(w, reader)
			return
		}
		a.logger.Warn().Err(openErr).Str("key", indexed.StorageKey).Msg("stored photo unreadable, refetching")
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	if a.places == nil || !a.places.Enabled() {
		writeError(w, http.StatusServiceUnavailable, "places_not_configured")
		return
	}

	place, err := a.places.Details(r.Context(), placeID)
	if errors.Is(err, places.ErrPlaceNotFound) {
		writeError(w, http.StatusNotFound, "place_not_found")
		return
	}
	if err != nil {
		writeError(w, http.StatusBadGateway, "place_lookup_failed")
		return
	}
	if place.PhotoRef == "" {
		writeError(w, http.StatusNotFound, "place_has_no_photo")
		return
	}

	data, contentType, err := a.places.Photo(r.Context(), place.PhotoRef, 0)
	if err != nil {
		a.logger.Error().Err(err).Str("place_id", placeID).Msg("photo fetch failed")
		writeError(w, http.StatusBadGateway, "photo_fetch_failed")
		return
	}

	if a.photos != nil {
		key := indexed.StorageKey
		if key == "" {
			key = photostore.PhotoKey(placeID, contentType)
		}
		if storeErr := a.photos.Store(r.Context(), key, contentType, bytes.NewReader(data)); storeErr != nil {
			a.logger.Warn().Err(storeErr).Str("place_id", placeID).Msg("photo store write failed")
		} else {
			record := models.PlacePhoto{
				ID:         indexed.ID,
				PlaceID:    placeID,
				StorageKey: key,
				MimeType:   contentType,
				FetchedAt:  time.Now().UTC(),
			}
			if record.ID == "" {
				record.ID = uuid.NewString()
			}
			if dbErr := a.db.WithContext(r.Context()).Save(&record).Error; dbErr != nil {
				a.logger.Warn().Err(dbErr).Str("place_id", placeID).Msg("photo index write failed")
			}
		}
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write(data)
}
