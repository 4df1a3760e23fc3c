/*
Copyright (C) 2026 Wayfarer HQ

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"github.com/wayfarerhq/wayfarer/internal/events"
	"github.com/wayfarerhq/wayfarer/internal/models"
)

func (a *API) handleDaysList(w http.ResponseWriter, r *http.Request) {
	tripID := chi.URLParam(r, "tripID")

	var days []models.TripDay
	err := a.db.WithContext(r.Context()).
		Where("trip_id = ?", tripID).
		Order("day_index").
		Find(&days).Error
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	writeJSON(w, http.StatusOK, days)
}

// handleDaysRegenerate rebuilds the day rows from the trip's date range.
// Existing days keep their IDs where the index still exists; surplus days
// are removed along with their activities.
func (a *API) handleDaysRegenerate(w http.ResponseWriter, r *http.Request) {
	tripID := chi.URLParam(r, "tripID")

	var trip models.Trip
	err := a.db.WithContext(r.Context()).First(&trip, "id = ?", tripID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeError(w, http.StatusNotFound, "trip_not_found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	wanted := daysForRange(tripID, trip.StartDate, trip.EndDate)

	var existing []models.TripDay
	if err := a.db.WithContext(r.Context()).Where("trip_id = ?", tripID).Order("day_index").Find(&existing).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	existingByIndex := make(map[int]models.TripDay, len(existing))
	for _, d := range existing {
		existingByIndex[d.DayIndex] = d
	}

	tx := a.db.WithContext(r.Context()).Begin()

	result := make([]models.TripDay, 0, len(wanted))
	for _, want := range wanted {
		if have, ok := existingByIndex[want.DayIndex]; ok {
			if !have.Date.Equal(want.Date) {
				if err := tx.Model(&have).Update("date", want.Date).Error; err != nil {
					tx.Rollback()
					writeError(w, http.StatusInternalServerError, "db_error")
					return
				}
				have.Date = want.Date
			}
			result = append(result, have)
			delete(existingByIndex, want.DayIndex)
			continue
		}
		if err := tx.Create(&want).Error; err != nil {
			tx.Rollback()
			writeError(w, http.StatusInternalServerError, "db_error")
			return
		}
		result = append(result, want)
	}

	// Days past the new range go away together with their activities.
	for _, leftover := range existingByIndex {
		if err := tx.Where("trip_day_id = ?", leftover.ID).Delete(&models.Activity{}).Error; err != nil {
			tx.Rollback()
			writeError(w, http.StatusInternalServerError, "db_error")
			return
		}
		if err := tx.Delete(&leftover).Error; err != nil {
			tx.Rollback()
			writeError(w, http.StatusInternalServerError, "db_error")
			return
		}
	}

	if err := tx.Commit().Error; err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	if a.cache != nil {
		_ = a.cache.InvalidateTripSummary(r.Context(), tripID)
	}
	a.bus.Publish(events.EventDayAdded, events.Payload{"trip_id": tripID, "count": len(result)})

	writeJSON(w, http.StatusOK, result)
}
