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
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wayfarerhq/wayfarer/internal/auth"
	"github.com/wayfarerhq/wayfarer/internal/events"
	"github.com/wayfarerhq/wayfarer/internal/models"
	"github.com/wayfarerhq/wayfarer/internal/scheduling"
)

func (a *API) handleActivitiesList(w http.ResponseWriter, r *http.Request) {
	tripID := chi.URLParam(r, "tripID")

	query := a.db.WithContext(r.Context()).Where("trip_id = ?", tripID)
	if dayID := r.URL.Query().Get("day_id"); dayID != "" {
		query = query.Where("trip_day_id = ?", dayID)
	}

	var activities []models.Activity
	if err := query.Order("start_time").Find(&activities).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	writeJSON(w, http.StatusOK, activities)
}

func (a *API) handleActivitiesGet(w http.ResponseWriter, r *http.Request) {
	tripID := chi.URLParam(r, "tripID")
	activityID := chi.URLParam(r, "activityID")

	var activity models.Activity
	err := a.db.WithContext(r.Context()).
		Where("id = ? AND trip_id = ?", activityID, tripID).
		First(&activity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeError(w, http.StatusNotFound, "activity_not_found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	writeJSON(w, http.StatusOK, activity)
}

type activityRequest struct {
	TripDayID       string `json:"trip_day_id"`
	Title           string `json:"title"`
	Notes           string `json:"notes"`
	PlaceID         string `json:"place_id"`
	StartTime       string `json:"start_time"` // "HH:MM"
	DurationMinutes int    `json:"duration_minutes"`
}

func (a *API) validateActivityRequest(r *http.Request, tripID string, req *activityRequest) (string, bool) {
	if req.Title == "" {
		return "title_required", false
	}
	if req.DurationMinutes < 0 {
		return "duration_invalid", false
	}
	if req.StartTime != "" {
		if _, err := scheduling.ParseClock(req.StartTime); err != nil {
			return "start_time_invalid", false
		}
	}

	var day models.TripDay
	err := a.db.WithContext(r.Context()).
		Where("id = ? AND trip_id = ?", req.TripDayID, tripID).
		First(&day).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "day_not_found", false
	}
	if err != nil {
		return "db_error", false
	}

	return "", true
}

func (a *API) handleActivitiesCreate(w http.ResponseWriter, r *http.Request) {
	tripID := chi.URLParam(r, "tripID")
	claims, _ := auth.ClaimsFromContext(r.Context())

	var req activityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}

	if code, ok := a.validateActivityRequest(r, tripID, &req); !ok {
		writeError(w, http.StatusBadRequest, code)
		return
	}
	if req.DurationMinutes == 0 {
		req.DurationMinutes = scheduling.DefaultDurationMinutes
	}

	activity := models.Activity{
		ID:              uuid.NewString(),
		TripID:          tripID,
		TripDayID:       req.TripDayID,
		Title:           req.Title,
		Notes:           req.Notes,
		PlaceID:         req.PlaceID,
		StartTime:       req.StartTime,
		DurationMinutes: req.DurationMinutes,
		CreatedBy:       claims.UserID,
	}

	if err := a.db.WithContext(r.Context()).Create(&activity).Error; err != nil {
		a.logger.Error().Err(err).Msg("create activity failed")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	if a.cache != nil {
		_ = a.cache.InvalidateTripSummary(r.Context(), tripID)
	}
	a.bus.Publish(events.EventActivityCreated, events.Payload{
		"trip_id":     tripID,
		"activity_id": activity.ID,
		"user_id":     claims.UserID,
		"title":       activity.Title,
	})

	writeJSON(w, http.StatusCreated, activity)
}

func (a *API) handleActivitiesUpdate(w http.ResponseWriter, r *http.Request) {
	tripID := chi.URLParam(r, "tripID")
	activityID := chi.URLParam(r, "activityID")
	claims, _ := auth.ClaimsFromContext(r.Context())

	var activity models.Activity
	err := a.db.WithContext(r.Context()).
		Where("id = ? AND trip_id = ?", activityID, tripID).
		First(&activity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeError(w, http.StatusNotFound, "activity_not_found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	var req struct {
		TripDayID       *string `json:"trip_day_id"`
		Title           *string `json:"title"`
		Notes           *string `json:"notes"`
		PlaceID         *string `json:"place_id"`
		StartTime       *string `json:"start_time"`
		DurationMinutes *int    `json:"duration_minutes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}

	updates := map[string]any{}
	if req.Title != nil {
		if *req.Title == "" {
			writeError(w, http.StatusBadRequest, "title_required")
			return
		}
		updates["title"] = *req.Title
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}
	if req.PlaceID != nil {
		updates["place_id"] = *req.PlaceID
	}
	if req.StartTime != nil {
		if *req.StartTime != "" {
			if _, err := scheduling.ParseClock(*req.StartTime); err != nil {
				writeError(w, http.StatusBadRequest, "start_time_invalid")
				return
			}
		}
		updates["start_time"] = *req.StartTime
	}
	if req.DurationMinutes != nil {
		if *req.DurationMinutes <= 0 {
			writeError(w, http.StatusBadRequest, "duration_invalid")
			return
		}
		updates["duration_minutes"] = *req.DurationMinutes
	}
	if req.TripDayID != nil {
		// Moving between days requires the target day to belong to this trip.
		var day models.TripDay
		err := a.db.WithContext(r.Context()).
			Where("id = ? AND trip_id = ?", *req.TripDayID, tripID).
			First(&day).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeError(w, http.StatusBadRequest, "day_not_found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "db_error")
			return
		}
		updates["trip_day_id"] = *req.TripDayID
	}

	if len(updates) > 0 {
		if err := a.db.WithContext(r.Context()).Model(&activity).Updates(updates).Error; err != nil {
			a.logger.Error().Err(err).Msg("update activity failed")
			writeError(w, http.StatusInternalServerError, "db_error")
			return
		}
	}

	a.bus.Publish(events.EventActivityUpdated, events.Payload{
		"trip_id":     tripID,
		"activity_id": activityID,
		"user_id":     claims.UserID,
	})

	writeJSON(w, http.StatusOK, activity)
}

func (a *API) handleActivitiesDelete(w http.ResponseWriter, r *http.Request) {
	tripID := chi.URLParam(r, "tripID")
	activityID := chi.URLParam(r, "activityID")
	claims, _ := auth.ClaimsFromContext(r.Context())

	result := a.db.WithContext(r.Context()).
		Where("id = ? AND trip_id = ?", activityID, tripID).
		Delete(&models.Activity{})
	if result.Error != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	if result.RowsAffected == 0 {
		writeError(w, http.StatusNotFound, "activity_not_found")
		return
	}

	if a.cache != nil {
		_ = a.cache.InvalidateTripSummary(r.Context(), tripID)
	}
	a.bus.Publish(events.EventActivityDeleted, events.Payload{
		"trip_id":     tripID,
		"activity_id": activityID,
		"user_id":     claims.UserID,
	})

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
