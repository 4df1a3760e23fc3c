/*
Copyright (C) 2026 Wayfarer HQ

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"github.com/wayfarerhq/wayfarer/internal/assistant"
	"github.com/wayfarerhq/wayfarer/internal/models"
)

type assistantRequest struct {
	Interests []string `json:"interests,omitempty"`
}

// handleAssistant asks the language-model assistant for activity suggestions
// grounded on the trip's destination.
func (a *API) handleAssistant(w http.ResponseWriter, r *http.Request) {
	if a.assistant == nil || !a.assistant.Enabled() {
		writeError(w, http.StatusServiceUnavailable, "assistant_not_configured")
		return
	}

	tripID := chi.URLParam(r, "tripID")

	var trip models.Trip
	err := a.db.WithContext(r.Context()).Where("id = ?", tripID).First(&trip).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeError(w, http.StatusNotFound, "trip_not_found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	if trip.Destination == "" {
		writeError(w, http.StatusUnprocessableEntity, "trip_has_no_destination")
		return
	}

	var req assistantRequest
	if r.Body != nil {
		// An empty body is fine; interests are optional.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	reply, err := a.assistant.SuggestActivities(r.Context(), trip.Destination, req.Interests)
	if errors.Is(err, assistant.ErrNotConfigured) {
		writeError(w, http.StatusServiceUnavailable, "assistant_not_configured")
		return
	}
	if err != nil {
		a.logger.Error().Err(err).Str("trip_id", tripID).Msg("assistant request failed")
		writeError(w, http.StatusBadGateway, "assistant_failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"suggestions": reply})
}
