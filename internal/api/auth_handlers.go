/*
Copyright (C) 2026 Wayfarer HQ

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	authpkg "github.com/wayfarerhq/wayfarer/internal/auth"
	"github.com/wayfarerhq/wayfarer/internal/events"
	"github.com/wayfarerhq/wayfarer/internal/models"
)

type userResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

func toUserResponse(u models.User) userResponse {
	return userResponse{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Role:        string(u.Role),
	}
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email       string `json:"email"`
		Password    string `json:"password"`
		DisplayName string `json:"display_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		writeError(w, http.StatusBadRequest, "email_invalid")
		return
	}
	if len(req.Password) < 8 {
		writeError(w, http.StatusBadRequest, "password_too_short")
		return
	}
	if req.DisplayName == "" {
		req.DisplayName = strings.SplitN(req.Email, "@", 2)[0]
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		a.logger.Error().Err(err).Msg("password hash failed")
		writeError(w, http.StatusInternalServerError, "hash_error")
		return
	}

	user := models.User{
		ID:          uuid.NewString(),
		Email:       req.Email,
		Password:    string(hashed),
		DisplayName: req.DisplayName,
		Role:        models.RoleTraveler,
	}

	if err := a.db.WithContext(r.Context()).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE") || strings.Contains(err.Error(), "duplicate") {
			writeError(w, http.StatusConflict, "email_taken")
			return
		}
		a.logger.Error().Err(err).Msg("create user failed")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	token, err := a.issueToken(user)
	if err != nil {
		a.logger.Error().Err(err).Msg("token issue failed")
		writeError(w, http.StatusInternalServerError, "token_error")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"token": token,
		"user":  toUserResponse(user),
	})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	var user models.User
	err := a.db.WithContext(r.Context()).Where("email = ?", req.Email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeError(w, http.StatusUnauthorized, "invalid_credentials")
		return
	}
	if err != nil {
		a.logger.Error().Err(err).Msg("user lookup failed")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid_credentials")
		return
	}

	if user.Suspended {
		writeError(w, http.StatusForbidden, "account_suspended")
		return
	}

	token, err := a.issueToken(user)
	if err != nil {
		a.logger.Error().Err(err).Msg("token issue failed")
		writeError(w, http.StatusInternalServerError, "token_error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  toUserResponse(user),
	})
}

func (a *API) issueToken(user models.User) (string, error) {
	return authpkg.Issue(a.jwtSecret, authpkg.Claims{
		UserID: user.ID,
		Roles:  []string{string(user.Role)},
	}, a.jwtTTL)
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := authpkg.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var user models.User
	err := a.db.WithContext(r.Context()).First(&user, "id = ?", claims.UserID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeError(w, http.StatusNotFound, "user_not_found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}

func (a *API) handleUserSuspend(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	result := a.db.WithContext(r.Context()).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("suspended", true)
	if result.Error != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	if result.RowsAffected == 0 {
		writeError(w, http.StatusNotFound, "user_not_found")
		return
	}

	payload := a.auditContext(r)
	payload["resource_type"] = "user"
	payload["resource_id"] = userID
	a.bus.Publish(events.EventAuditUserSuspend, payload)

	writeJSON(w, http.StatusOK, map[string]string{"status": "suspended"})
}

// API key management

func (a *API) handleAPIKeysList(w http.ResponseWriter, r *http.Request) {
	claims, _ := authpkg.ClaimsFromContext(r.Context())

	keys, err := authpkg.ListAPIKeys(a.db.WithContext(r.Context()), claims.UserID)
	if err != nil {
		a.logger.Error().Err(err).Msg("list api keys failed")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	type keyResponse struct {
		ID        string     `json:"id"`
		Name      string     `json:"name"`
		KeyPrefix string     `json:"key_prefix"`
		ExpiresAt time.Time  `json:"expires_at"`
		RevokedAt *time.Time `json:"revoked_at,omitempty"`
		CreatedAt time.Time  `json:"created_at"`
	}
	out := make([]keyResponse, 0, len(keys))
	for _, k := range keys {
		out = append(out, keyResponse{
			ID:        k.ID,
			Name:      k.Name,
			KeyPrefix: k.KeyPrefix,
			ExpiresAt: k.ExpiresAt,
			RevokedAt: k.RevokedAt,
			CreatedAt: k.CreatedAt,
		})
	}

	writeJSON(w, http.StatusOK, out)
}

func (a *API) handleAPIKeysCreate(w http.ResponseWriter, r *http.Request) {
	claims, _ := authpkg.ClaimsFromContext(r.Context())

	var req struct {
		Name string `json:"name"`
		Days int    `json:"days"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name_required")
		return
	}
	if req.Days <= 0 {
		req.Days = 90
	}

	plaintext, key, err := authpkg.GenerateAPIKey(claims.UserID, req.Name, time.Duration(req.Days)*24*time.Hour)
	if err != nil {
		a.logger.Error().Err(err).Msg("generate api key failed")
		writeError(w, http.StatusInternalServerError, "keygen_error")
		return
	}

	if err := a.db.WithContext(r.Context()).Create(key).Error; err != nil {
		a.logger.Error().Err(err).Msg("store api key failed")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	payload := a.auditContext(r)
	payload["resource_type"] = "apikey"
	payload["resource_id"] = key.ID
	payload["key_name"] = key.Name
	a.bus.Publish(events.EventAuditAPIKeyCreate, payload)

	// The plaintext key is only returned once.
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":         key.ID,
		"key":        plaintext,
		"key_prefix": key.KeyPrefix,
		"expires_at": key.ExpiresAt,
	})
}

func (a *API) handleAPIKeysRevoke(w http.ResponseWriter, r *http.Request) {
	claims, _ := authpkg.ClaimsFromContext(r.Context())
	keyID := chi.URLParam(r, "keyID")

	err := authpkg.RevokeAPIKey(a.db.WithContext(r.Context()), keyID, claims.UserID)
	if errors.Is(err, authpkg.ErrAPIKeyNotFound) {
		writeError(w, http.StatusNotFound, "key_not_found")
		return
	}
	if err != nil {
		a.logger.Error().Err(err).Msg("revoke api key failed")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	payload := a.auditContext(r)
	payload["resource_type"] = "apikey"
	payload["resource_id"] = keyID
	a.bus.Publish(events.EventAuditAPIKeyRevoke, payload)

	writeJSON(w, http.StatusOK, map[string]string{"status": "revoked"})
}
