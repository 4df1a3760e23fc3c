/*
Copyright (C) 2026 Wayfarer HQ

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wayfarerhq/wayfarer/internal/auth"
	"github.com/wayfarerhq/wayfarer/internal/events"
	"github.com/wayfarerhq/wayfarer/internal/models"
)

// inviteCodeAlphabet omits easily confused characters.
const inviteCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func generateInviteCode() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return strings.ToUpper(uuid.NewString()[:8])
	}
	for i := range buf {
		buf[i] = inviteCodeAlphabet[int(buf[i])%len(inviteCodeAlphabet)]
	}
	return string(buf)
}

func (a *API) handleTripsList(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())

	var trips []models.Trip
	err := a.db.WithContext(r.Context()).
		Joins("JOIN trip_members ON trip_members.trip_id = trips.id").
		Where("trip_members.user_id = ?", claims.UserID).
		Order("trips.start_date").
		Find(&trips).Error
	if err != nil {
		a.logger.Error().Err(err).Msg("list trips failed")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	writeJSON(w, http.StatusOK, trips)
}

func (a *API) handleTripsCreate(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Destination string `json:"destination"`
		StartDate   string `json:"start_date"` // "2026-04-01"
		EndDate     string `json:"end_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name_required")
		return
	}

	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "start_date_invalid")
		return
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "end_date_invalid")
		return
	}
	if end.Before(start) {
		writeError(w, http.StatusBadRequest, "date_range_invalid")
		return
	}

	trip := models.Trip{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		Destination: req.Destination,
		StartDate:   start,
		EndDate:     end,
		OwnerID:     claims.UserID,
		InviteCode:  generateInviteCode(),
	}

	// Trip, owner membership and day rows are created atomically.
	tx := a.db.WithContext(r.Context()).Begin()

	if err := tx.Create(&trip).Error; err != nil {
		tx.Rollback()
		a.logger.Error().Err(err).Msg("create trip failed")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	member := models.TripMember{
		ID:     uuid.NewString(),
		TripID: trip.ID,
		UserID: claims.UserID,
		Role:   models.TripRoleOwner,
	}
	if err := tx.Create(&member).Error; err != nil {
		tx.Rollback()
		a.logger.Error().Err(err).Msg("create owner membership failed")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	for _, day := range daysForRange(trip.ID, start, end) {
		if err := tx.Create(&day).Error; err != nil {
			tx.Rollback()
			a.logger.Error().Err(err).Msg("create trip day failed")
			writeError(w, http.StatusInternalServerError, "db_error")
			return
		}
	}

	if err := tx.Commit().Error; err != nil {
		a.logger.Error().Err(err).Msg("commit trip failed")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	payload := a.auditContext(r)
	payload["trip_id"] = trip.ID
	payload["resource_type"] = "trip"
	payload["resource_id"] = trip.ID
	a.bus.Publish(events.EventAuditTripCreate, payload)
	a.bus.Publish(events.EventTripCreated, events.Payload{"trip_id": trip.ID, "name": trip.Name})

	writeJSON(w, http.StatusCreated, trip)
}

// daysForRange builds one TripDay per calendar day, inclusive of both ends.
func daysForRange(tripID string, start, end time.Time) []models.TripDay {
	var days []models.TripDay
	index := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, models.TripDay{
			ID:       uuid.NewString(),
			TripID:   tripID,
			DayIndex: index,
			Date:     d,
		})
		index++
	}
	return days
}

func (a *API) handleTripsGet(w http.ResponseWriter, r *http.Request) {
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

	writeJSON(w, http.StatusOK, trip)
}

func (a *API) handleTripsUpdate(w http.ResponseWriter, r *http.Request) {
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

	var req struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		Destination *string `json:"destination"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}

	updates := map[string]any{}
	if req.Name != nil {
		if *req.Name == "" {
			writeError(w, http.StatusBadRequest, "name_required")
			return
		}
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Destination != nil {
		updates["destination"] = *req.Destination
	}

	if len(updates) > 0 {
		if err := a.db.WithContext(r.Context()).Model(&trip).Updates(updates).Error; err != nil {
			a.logger.Error().Err(err).Msg("update trip failed")
			writeError(w, http.StatusInternalServerError, "db_error")
			return
		}
	}

	if a.cache != nil {
		_ = a.cache.InvalidateTripSummary(r.Context(), tripID)
	}

	payload := a.auditContext(r)
	payload["trip_id"] = tripID
	payload["resource_type"] = "trip"
	payload["resource_id"] = tripID
	a.bus.Publish(events.EventAuditTripUpdate, payload)
	a.bus.Publish(events.EventTripUpdated, events.Payload{"trip_id": tripID})

	writeJSON(w, http.StatusOK, trip)
}

func (a *API) handleTripsDelete(w http.ResponseWriter, r *http.Request) {
	tripID := chi.URLParam(r, "tripID")

	tx := a.db.WithContext(r.Context()).Begin()

	// Votes hang off wishlist items, not the trip itself.
	if err := tx.Where("wishlist_item_id IN (SELECT id FROM wishlist_items WHERE trip_id = ?)", tripID).
		Delete(&models.Vote{}).Error; err != nil {
		tx.Rollback()
		a.logger.Error().Err(err).Msg("delete trip votes failed")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	for _, model := range []any{
		&models.Comment{}, &models.WishlistItem{},
		&models.Activity{}, &models.TripDay{}, &models.TripMember{},
	} {
		if err := tx.Where("trip_id = ?", tripID).Delete(model).Error; err != nil {
			tx.Rollback()
			a.logger.Error().Err(err).Msg("delete trip children failed")
			writeError(w, http.StatusInternalServerError, "db_error")
			return
		}
	}

	result := tx.Where("id = ?", tripID).Delete(&models.Trip{})
	if result.Error != nil {
		tx.Rollback()
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	if result.RowsAffected == 0 {
		tx.Rollback()
		writeError(w, http.StatusNotFound, "trip_not_found")
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
	payload["resource_type"] = "trip"
	payload["resource_id"] = tripID
	a.bus.Publish(events.EventAuditTripDelete, payload)
	a.bus.Publish(events.EventTripDeleted, events.Payload{"trip_id": tripID})

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (a *API) handleTripJoin(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())

	var req struct {
		InviteCode string `json:"invite_code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	req.InviteCode = strings.ToUpper(strings.TrimSpace(req.InviteCode))
	if req.InviteCode == "" {
		writeError(w, http.StatusBadRequest, "invite_code_required")
		return
	}

	var trip models.Trip
	err := a.db.WithContext(r.Context()).Where("invite_code = ?", req.InviteCode).First(&trip).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeError(w, http.StatusNotFound, "invite_code_invalid")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	if _, already := a.memberRole(r.Context(), trip.ID, claims.UserID); already {
		writeError(w, http.StatusConflict, "already_a_member")
		return
	}

	member := models.TripMember{
		ID:     uuid.NewString(),
		TripID: trip.ID,
		UserID: claims.UserID,
		Role:   models.TripRoleEditor,
	}
	if err := a.db.WithContext(r.Context()).Create(&member).Error; err != nil {
		a.logger.Error().Err(err).Msg("join trip failed")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	payload := a.auditContext(r)
	payload["trip_id"] = trip.ID
	payload["resource_type"] = "trip_member"
	payload["resource_id"] = member.ID
	a.bus.Publish(events.EventAuditMemberJoin, payload)
	a.bus.Publish(events.EventMemberJoined, events.Payload{"trip_id": trip.ID, "user_id": claims.UserID})

	writeJSON(w, http.StatusCreated, trip)
}

func (a *API) handleMembersList(w http.ResponseWriter, r *http.Request) {
	tripID := chi.URLParam(r, "tripID")

	type memberResponse struct {
		ID          string          `json:"id"`
		UserID      string          `json:"user_id"`
		DisplayName string          `json:"display_name"`
		Email       string          `json:"email"`
		Role        models.TripRole `json:"role"`
	}

	var members []models.TripMember
	if err := a.db.WithContext(r.Context()).Where("trip_id = ?", tripID).Find(&members).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	out := make([]memberResponse, 0, len(members))
	for _, m := range members {
		entry := memberResponse{ID: m.ID, UserID: m.UserID, Role: m.Role}
		var user models.User
		if err := a.db.WithContext(r.Context()).First(&user, "id = ?", m.UserID).Error; err == nil {
			entry.DisplayName = user.DisplayName
			entry.Email = user.Email
		}
		out = append(out, entry)
	}

	writeJSON(w, http.StatusOK, out)
}

func (a *API) handleMemberUpdateRole(w http.ResponseWriter, r *http.Request) {
	tripID := chi.URLParam(r, "tripID")
	memberID := chi.URLParam(r, "memberID")

	var req struct {
		Role models.TripRole `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	if tripRoleRank(req.Role) == 0 {
		writeError(w, http.StatusBadRequest, "role_invalid")
		return
	}

	var member models.TripMember
	err := a.db.WithContext(r.Context()).
		Where("id = ? AND trip_id = ?", memberID, tripID).
		First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeError(w, http.StatusNotFound, "member_not_found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	// The owner role never leaves the trip owner through this endpoint.
	if member.Role == models.TripRoleOwner {
		writeError(w, http.StatusForbidden, "cannot_change_owner_role")
		return
	}

	if err := a.db.WithContext(r.Context()).Model(&member).Update("role", req.Role).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	writeJSON(w, http.StatusOK, member)
}

func (a *API) handleMemberRemove(w http.ResponseWriter, r *http.Request) {
	tripID := chi.URLParam(r, "tripID")
	memberID := chi.URLParam(r, "memberID")

	var member models.TripMember
	err := a.db.WithContext(r.Context()).
		Where("id = ? AND trip_id = ?", memberID, tripID).
		First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeError(w, http.StatusNotFound, "member_not_found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	if member.Role == models.TripRoleOwner {
		writeError(w, http.StatusForbidden, "cannot_remove_owner")
		return
	}

	if err := a.db.WithContext(r.Context()).Delete(&member).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	payload := a.auditContext(r)
	payload["trip_id"] = tripID
	payload["resource_type"] = "trip_member"
	payload["resource_id"] = memberID
	a.bus.Publish(events.EventAuditMemberRemove, payload)
	a.bus.Publish(events.EventMemberRemoved, events.Payload{"trip_id": tripID, "user_id": member.UserID})

	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}
