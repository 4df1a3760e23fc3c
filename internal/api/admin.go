/*
Copyright (C) 2026 Wayfarer HQ

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/wayfarerhq/wayfarer/internal/audit"
	"github.com/wayfarerhq/wayfarer/internal/logbuffer"
	"github.com/wayfarerhq/wayfarer/internal/models"
)

func (a *API) handleAuditList(w http.ResponseWriter, r *http.Request) {
	if a.auditSvc == nil {
		writeError(w, http.StatusServiceUnavailable, "audit_not_configured")
		return
	}

	q := r.URL.Query()
	var filters audit.QueryFilters

	if v := q.Get("user_id"); v != "" {
		filters.UserID = &v
	}
	if v := q.Get("trip_id"); v != "" {
		filters.TripID = &v
	}
	if v := q.Get("action"); v != "" {
		action := models.AuditAction(v)
		filters.Action = &action
	}
	if v := q.Get("start"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "start_invalid")
			return
		}
		filters.StartTime = &t
	}
	if v := q.Get("end"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "end_invalid")
			return
		}
		filters.EndTime = &t
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit_invalid")
			return
		}
		filters.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "offset_invalid")
			return
		}
		filters.Offset = n
	}

	logs, total, err := a.auditSvc.Query(r.Context(), filters)
	if err != nil {
		a.logger.Error().Err(err).Msg("audit query failed")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"entries": logs,
		"total":   total,
	})
}

func (a *API) handleLogs(w http.ResponseWriter, r *http.Request) {
	if a.logBuffer == nil {
		writeError(w, http.StatusServiceUnavailable, "log_buffer_not_configured")
		return
	}

	q := r.URL.Query()
	params := logbuffer.QueryParams{
		Level:      q.Get("level"),
		Component:  q.Get("component"),
		TripID:     q.Get("trip_id"),
		Search:     q.Get("search"),
		Descending: q.Get("order") != "asc",
	}
	if v := q.Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "since_invalid")
			return
		}
		params.Since = t
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit_invalid")
			return
		}
		params.Limit = n
	} else {
		params.Limit = 200
	}

	entries := a.logBuffer.Query(params)
	writeJSON(w, http.StatusOK, map[string]any{
		"entries": entries,
		"count":   len(entries),
	})
}

func (a *API) handleLogComponents(w http.ResponseWriter, r *http.Request) {
	if a.logBuffer == nil {
		writeError(w, http.StatusServiceUnavailable, "log_buffer_not_configured")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"components": a.logBuffer.GetComponents(),
	})
}

func (a *API) handleLogStats(w http.ResponseWriter, r *http.Request) {
	if a.logBuffer == nil {
		writeError(w, http.StatusServiceUnavailable, "log_buffer_not_configured")
		return
	}
	writeJSON(w, http.StatusOK, a.logBuffer.Stats())
}
