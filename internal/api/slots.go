/*
Copyright (C) 2026 Wayfarer HQ

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wayfarerhq/wayfarer/internal/auth"
	"github.com/wayfarerhq/wayfarer/internal/events"
	"github.com/wayfarerhq/wayfarer/internal/models"
	"github.com/wayfarerhq/wayfarer/internal/scheduling"
	"github.com/wayfarerhq/wayfarer/internal/telemetry"
)

// slotRequest carries a slot search. Bookings and days may be supplied
// directly for exploratory queries; when omitted both are projected from
// the trip's itinerary.
type slotRequest struct {
	Timeframe       string            `json:"timeframe"`
	DurationMinutes *int              `json:"duration_minutes"`
	MaxResults      int               `json:"max_results,omitempty"`
	Bookings        []bookingPayload  `json:"bookings,omitempty"`
	Days            []dayPayload      `json:"days,omitempty"`
}

type bookingPayload struct {
	DayIndex        int    `json:"day_index"`
	Start           string `json:"start"` // "HH:MM"
	DurationMinutes int    `json:"duration_minutes"`
}

type dayPayload struct {
	DayIndex int    `json:"day_index"`
	Date     string `json:"date"` // "2026-04-01"
}

type slotResponse struct {
	DayIndex int    `json:"day_index"`
	Date     string `json:"date,omitempty"`
	Start    string `json:"start"`
	End      string `json:"end"`
}

// resolveSlotInputs validates the request and produces allocator inputs.
// Returns an error code for writeError on failure.
func (a *API) resolveSlotInputs(r *http.Request, tripID string, req *slotRequest) (int, []scheduling.Booking, []scheduling.Day, map[int]time.Time, string) {
	duration := scheduling.DefaultDurationMinutes
	if req.DurationMinutes != nil {
		if *req.DurationMinutes <= 0 {
			return 0, nil, nil, nil, "duration_invalid"
		}
		duration = *req.DurationMinutes
	}

	// Raw body flow: the caller supplies bookings and days verbatim.
	if len(req.Days) > 0 {
		days := make([]scheduling.Day, 0, len(req.Days))
		dates := make(map[int]time.Time, len(req.Days))
		for _, d := range req.Days {
			day := scheduling.Day{Index: d.DayIndex}
			if d.Date != "" {
				parsed, err := time.Parse("2006-01-02", d.Date)
				if err != nil {
					return 0, nil, nil, nil, "day_date_invalid"
				}
				day.Date = parsed
				dates[d.DayIndex] = parsed
			}
			days = append(days, day)
		}

		bookings := make([]scheduling.Booking, 0, len(req.Bookings))
		for _, b := range req.Bookings {
			start, err := scheduling.ParseClock(b.Start)
			if err != nil {
				return 0, nil, nil, nil, "booking_start_invalid"
			}
			if b.DurationMinutes <= 0 {
				return 0, nil, nil, nil, "booking_duration_invalid"
			}
			bookings = append(bookings, scheduling.Booking{
				DayIndex: b.DayIndex,
				Start:    start,
				Duration: b.DurationMinutes,
			})
		}

		return duration, bookings, days, dates, ""
	}

	// Itinerary flow: project the trip's days and scheduled activities.
	bookings, days, dates, code := a.projectItinerary(r, tripID)
	if code != "" {
		return 0, nil, nil, nil, code
	}
	return duration, bookings, days, dates, ""
}

// projectItinerary converts the trip's days and timed activities into
// allocator inputs. Activities without a start time impose no constraint.
func (a *API) projectItinerary(r *http.Request, tripID string) ([]scheduling.Booking, []scheduling.Day, map[int]time.Time, string) {
	var tripDays []models.TripDay
	err := a.db.WithContext(r.Context()).
		Where("trip_id = ?", tripID).
		Order("day_index").
		Find(&tripDays).Error
	if err != nil {
		return nil, nil, nil, "db_error"
	}

	days := make([]scheduling.Day, 0, len(tripDays))
	dates := make(map[int]time.Time, len(tripDays))
	indexByDayID := make(map[string]int, len(tripDays))
	for _, d := range tripDays {
		days = append(days, scheduling.Day{Index: d.DayIndex, Date: d.Date})
		dates[d.DayIndex] = d.Date
		indexByDayID[d.ID] = d.DayIndex
	}

	var activities []models.Activity
	if err := a.db.WithContext(r.Context()).Where("trip_id = ?", tripID).Find(&activities).Error; err != nil {
		return nil, nil, nil, "db_error"
	}

	var bookings []scheduling.Booking
	for _, act := range activities {
		if act.StartTime == "" {
			continue
		}
		start, err := scheduling.ParseClock(act.StartTime)
		if err != nil {
			continue
		}
		dayIndex, ok := indexByDayID[act.TripDayID]
		if !ok {
			continue
		}
		duration := act.DurationMinutes
		if duration <= 0 {
			duration = scheduling.DefaultDurationMinutes
		}
		bookings = append(bookings, scheduling.Booking{
			DayIndex: dayIndex,
			Start:    start,
			Duration: duration,
		})
	}

	return bookings, days, dates, ""
}

func toSlotResponse(slot scheduling.Slot, dates map[int]time.Time) slotResponse {
	resp := slotResponse{
		DayIndex: slot.DayIndex,
		Start:    scheduling.FormatClock(slot.Start),
		End:      scheduling.FormatClock(slot.End),
	}
	if date, ok := dates[slot.DayIndex]; ok && !date.IsZero() {
		resp.Date = date.Format("2006-01-02")
	}
	return resp
}

func (a *API) handleSlotsFirst(w http.ResponseWriter, r *http.Request) {
	tripID := chi.URLParam(r, "tripID")

	var req slotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}

	duration, bookings, days, dates, code := a.resolveSlotInputs(r, tripID, &req)
	if code != "" {
		status := http.StatusBadRequest
		if code == "db_error" {
			status = http.StatusInternalServerError
		}
		writeError(w, status, code)
		return
	}

	slot, found := scheduling.FindFirstSlot(req.Timeframe, duration, bookings, days)
	if !found {
		telemetry.SlotSearchesTotal.WithLabelValues("none").Inc()
		writeJSON(w, http.StatusOK, map[string]any{"found": false})
		return
	}

	telemetry.SlotSearchesTotal.WithLabelValues("found").Inc()
	writeJSON(w, http.StatusOK, map[string]any{
		"found": true,
		"slot":  toSlotResponse(slot, dates),
	})
}

func (a *API) handleSlotsAvailable(w http.ResponseWriter, r *http.Request) {
	tripID := chi.URLParam(r, "tripID")

	var req slotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}

	duration, bookings, days, dates, code := a.resolveSlotInputs(r, tripID, &req)
	if code != "" {
		status := http.StatusBadRequest
		if code == "db_error" {
			status = http.StatusInternalServerError
		}
		writeError(w, status, code)
		return
	}

	maxResults := req.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	slots := scheduling.FindAvailableSlots(req.Timeframe, duration, bookings, days, maxResults)
	if len(slots) == 0 {
		telemetry.SlotSearchesTotal.WithLabelValues("none").Inc()
	} else {
		telemetry.SlotSearchesTotal.WithLabelValues("found").Inc()
	}

	out := make([]slotResponse, 0, len(slots))
	for _, slot := range slots {
		out = append(out, toSlotResponse(slot, dates))
	}

	writeJSON(w, http.StatusOK, map[string]any{"slots": out})
}

// handleWishlistPromote schedules a wishlist item using its timeframe and
// duration hints. When no slot fits, the response carries the trip's days
// so the caller can pick a time manually.
func (a *API) handleWishlistPromote(w http.ResponseWriter, r *http.Request) {
	tripID := chi.URLParam(r, "tripID")
	itemID := chi.URLParam(r, "itemID")
	claims, _ := auth.ClaimsFromContext(r.Context())

	var item models.WishlistItem
	err := a.db.WithContext(r.Context()).
		Where("id = ? AND trip_id = ?", itemID, tripID).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeError(w, http.StatusNotFound, "item_not_found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	if item.Promoted {
		writeError(w, http.StatusConflict, "already_promoted")
		return
	}

	bookings, days, dates, code := a.projectItinerary(r, tripID)
	if code != "" {
		writeError(w, http.StatusInternalServerError, code)
		return
	}

	duration := item.DurationMinutes
	if duration <= 0 {
		duration = scheduling.DefaultDurationMinutes
	}

	slot, found := scheduling.FindFirstSlot(item.Timeframe, duration, bookings, days)
	if !found {
		telemetry.SlotSearchesTotal.WithLabelValues("none").Inc()

		var tripDays []models.TripDay
		_ = a.db.WithContext(r.Context()).
			Where("trip_id = ?", tripID).
			Order("day_index").
			Find(&tripDays).Error

		writeJSON(w, http.StatusConflict, map[string]any{
			"error": "no_slot_available",
			"days":  tripDays,
		})
		return
	}
	telemetry.SlotSearchesTotal.WithLabelValues("found").Inc()

	var day models.TripDay
	err = a.db.WithContext(r.Context()).
		Where("trip_id = ? AND day_index = ?", tripID, slot.DayIndex).
		First(&day).Error
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	activity := models.Activity{
		ID:              uuid.NewString(),
		TripID:          tripID,
		TripDayID:       day.ID,
		Title:           item.Title,
		Notes:           item.Notes,
		PlaceID:         item.PlaceID,
		StartTime:       scheduling.FormatClock(slot.Start),
		DurationMinutes: duration,
		CreatedBy:       claims.UserID,
	}

	tx := a.db.WithContext(r.Context()).Begin()

	if err := tx.Create(&activity).Error; err != nil {
		tx.Rollback()
		a.logger.Error().Err(err).Msg("create promoted activity failed")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	if err := tx.Model(&item).Updates(map[string]any{
		"promoted":    true,
		"activity_id": activity.ID,
	}).Error; err != nil {
		tx.Rollback()
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	if err := tx.Commit().Error; err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	if a.cache != nil {
		_ = a.cache.InvalidateTripSummary(r.Context(), tripID)
	}

	payload := a.auditContext(r)
	payload["trip_id"] = tripID
	payload["resource_type"] = "wishlist_item"
	payload["resource_id"] = itemID
	payload["activity_id"] = activity.ID
	a.bus.Publish(events.EventAuditPromote, payload)
	a.bus.Publish(events.EventWishlistPromoted, events.Payload{
		"trip_id":     tripID,
		"item_id":     itemID,
		"activity_id": activity.ID,
		"day_index":   slot.DayIndex,
		"start":       scheduling.FormatClock(slot.Start),
	})

	writeJSON(w, http.StatusCreated, map[string]any{
		"activity": activity,
		"slot":     toSlotResponse(slot, dates),
	})
}
