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
)

type wishlistItemResponse struct {
	models.WishlistItem
	Score     int `json:"score"`
	VoteCount int `json:"vote_count"`
}

func (a *API) handleWishlistList(w http.ResponseWriter, r *http.Request) {
	tripID := chi.URLParam(r, "tripID")

	var items []models.WishlistItem
	err := a.db.WithContext(r.Context()).
		Where("trip_id = ?", tripID).
		Order("created_at").
		Find(&items).Error
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	out := make([]wishlistItemResponse, 0, len(items))
	for _, item := range items {
		entry := wishlistItemResponse{WishlistItem: item}

		var votes []models.Vote
		if err := a.db.WithContext(r.Context()).Where("wishlist_item_id = ?", item.ID).Find(&votes).Error; err == nil {
			entry.VoteCount = len(votes)
			for _, v := range votes {
				entry.Score += v.Value
			}
		}
		out = append(out, entry)
	}

	writeJSON(w, http.StatusOK, out)
}

func (a *API) handleWishlistCreate(w http.ResponseWriter, r *http.Request) {
	tripID := chi.URLParam(r, "tripID")
	claims, _ := auth.ClaimsFromContext(r.Context())

	var req struct {
		Title           string `json:"title"`
		Notes           string `json:"notes"`
		PlaceID         string `json:"place_id"`
		Timeframe       string `json:"timeframe"`
		DurationMinutes int    `json:"duration_minutes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title_required")
		return
	}
	if req.DurationMinutes < 0 {
		writeError(w, http.StatusBadRequest, "duration_invalid")
		return
	}

	item := models.WishlistItem{
		ID:              uuid.NewString(),
		TripID:          tripID,
		Title:           req.Title,
		Notes:           req.Notes,
		PlaceID:         req.PlaceID,
		Timeframe:       req.Timeframe,
		DurationMinutes: req.DurationMinutes,
		CreatedBy:       claims.UserID,
	}

	if err := a.db.WithContext(r.Context()).Create(&item).Error; err != nil {
		a.logger.Error().Err(err).Msg("create wishlist item failed")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	if a.cache != nil {
		_ = a.cache.InvalidateTripSummary(r.Context(), tripID)
	}
	a.bus.Publish(events.EventWishlistAdded, events.Payload{
		"trip_id": tripID,
		"item_id": item.ID,
		"user_id": claims.UserID,
		"title":   item.Title,
	})

	writeJSON(w, http.StatusCreated, item)
}

func (a *API) handleWishlistUpdate(w http.ResponseWriter, r *http.Request) {
	tripID := chi.URLParam(r, "tripID")
	itemID := chi.URLParam(r, "itemID")

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

	var req struct {
		Title           *string `json:"title"`
		Notes           *string `json:"notes"`
		PlaceID         *string `json:"place_id"`
		Timeframe       *string `json:"timeframe"`
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
	if req.Timeframe != nil {
		updates["timeframe"] = *req.Timeframe
	}
	if req.DurationMinutes != nil {
		if *req.DurationMinutes < 0 {
			writeError(w, http.StatusBadRequest, "duration_invalid")
			return
		}
		updates["duration_minutes"] = *req.DurationMinutes
	}

	if len(updates) > 0 {
		if err := a.db.WithContext(r.Context()).Model(&item).Updates(updates).Error; err != nil {
			writeError(w, http.StatusInternalServerError, "db_error")
			return
		}
	}

	a.bus.Publish(events.EventWishlistUpdated, events.Payload{"trip_id": tripID, "item_id": itemID})

	writeJSON(w, http.StatusOK, item)
}

func (a *API) handleWishlistDelete(w http.ResponseWriter, r *http.Request) {
	tripID := chi.URLParam(r, "tripID")
	itemID := chi.URLParam(r, "itemID")

	tx := a.db.WithContext(r.Context()).Begin()

	if err := tx.Where("wishlist_item_id = ?", itemID).Delete(&models.Vote{}).Error; err != nil {
		tx.Rollback()
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	result := tx.Where("id = ? AND trip_id = ?", itemID, tripID).Delete(&models.WishlistItem{})
	if result.Error != nil {
		tx.Rollback()
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	if result.RowsAffected == 0 {
		tx.Rollback()
		writeError(w, http.StatusNotFound, "item_not_found")
		return
	}

	if err := tx.Commit().Error; err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	if a.cache != nil {
		_ = a.cache.InvalidateTripSummary(r.Context(), tripID)
	}
	a.bus.Publish(events.EventWishlistRemoved, events.Payload{"trip_id": tripID, "item_id": itemID})

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Votes

func (a *API) handleVote(w http.ResponseWriter, r *http.Request) {
	tripID := chi.URLParam(r, "tripID")
	itemID := chi.URLParam(r, "itemID")
	claims, _ := auth.ClaimsFromContext(r.Context())

	var req struct {
		Value int `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	if req.Value != 1 && req.Value != -1 {
		writeError(w, http.StatusBadRequest, "value_invalid")
		return
	}

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

	// Re-voting overwrites the existing vote.
	var vote models.Vote
	err = a.db.WithContext(r.Context()).
		Where("wishlist_item_id = ? AND user_id = ?", itemID, claims.UserID).
		First(&vote).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		vote = models.Vote{
			ID:             uuid.NewString(),
			WishlistItemID: itemID,
			UserID:         claims.UserID,
			Value:          req.Value,
		}
		if err := a.db.WithContext(r.Context()).Create(&vote).Error; err != nil {
			writeError(w, http.StatusInternalServerError, "db_error")
			return
		}
	case err != nil:
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	default:
		if err := a.db.WithContext(r.Context()).Model(&vote).Update("value", req.Value).Error; err != nil {
			writeError(w, http.StatusInternalServerError, "db_error")
			return
		}
	}

	a.bus.Publish(events.EventVoteCast, events.Payload{
		"trip_id": tripID,
		"item_id": itemID,
		"user_id": claims.UserID,
		"value":   req.Value,
	})

	writeJSON(w, http.StatusOK, vote)
}

func (a *API) handleUnvote(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")
	claims, _ := auth.ClaimsFromContext(r.Context())

	result := a.db.WithContext(r.Context()).
		Where("wishlist_item_id = ? AND user_id = ?", itemID, claims.UserID).
		Delete(&models.Vote{})
	if result.Error != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	if result.RowsAffected == 0 {
		writeError(w, http.StatusNotFound, "vote_not_found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

// Comments

func (a *API) handleCommentsList(w http.ResponseWriter, r *http.Request) {
	tripID := chi.URLParam(r, "tripID")

	query := a.db.WithContext(r.Context()).Where("trip_id = ?", tripID)
	if activityID := r.URL.Query().Get("activity_id"); activityID != "" {
		query = query.Where("activity_id = ?", activityID)
	}
	if itemID := r.URL.Query().Get("wishlist_item_id"); itemID != "" {
		query = query.Where("wishlist_item_id = ?", itemID)
	}

	var comments []models.Comment
	if err := query.Order("created_at").Find(&comments).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	writeJSON(w, http.StatusOK, comments)
}

func (a *API) handleCommentsCreate(w http.ResponseWriter, r *http.Request) {
	tripID := chi.URLParam(r, "tripID")
	claims, _ := auth.ClaimsFromContext(r.Context())

	var req struct {
		Body           string `json:"body"`
		ActivityID     string `json:"activity_id"`
		WishlistItemID string `json:"wishlist_item_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	if req.Body == "" {
		writeError(w, http.StatusBadRequest, "body_required")
		return
	}

	comment := models.Comment{
		ID:             uuid.NewString(),
		TripID:         tripID,
		ActivityID:     req.ActivityID,
		WishlistItemID: req.WishlistItemID,
		AuthorID:       claims.UserID,
		Body:           req.Body,
	}

	if err := a.db.WithContext(r.Context()).Create(&comment).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	a.bus.Publish(events.EventCommentPosted, events.Payload{
		"trip_id":    tripID,
		"comment_id": comment.ID,
		"user_id":    claims.UserID,
	})

	writeJSON(w, http.StatusCreated, comment)
}

func (a *API) handleCommentsDelete(w http.ResponseWriter, r *http.Request) {
	tripID := chi.URLParam(r, "tripID")
	commentID := chi.URLParam(r, "commentID")
	claims, _ := auth.ClaimsFromContext(r.Context())

	var comment models.Comment
	err := a.db.WithContext(r.Context()).
		Where("id = ? AND trip_id = ?", commentID, tripID).
		First(&comment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeError(w, http.StatusNotFound, "comment_not_found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	// Authors delete their own comments; trip owners can delete any.
	if comment.AuthorID != claims.UserID {
		if role, ok := a.memberRole(r.Context(), tripID, claims.UserID); !ok || role != models.TripRoleOwner {
			writeError(w, http.StatusForbidden, "not_comment_author")
			return
		}
	}

	if err := a.db.WithContext(r.Context()).Delete(&comment).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
