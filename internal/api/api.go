/*
Copyright (C) 2026 Wayfarer HQ

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	ws "nhooyr.io/websocket"

	"github.com/wayfarerhq/wayfarer/internal/assistant"
	"github.com/wayfarerhq/wayfarer/internal/audit"
	"github.com/wayfarerhq/wayfarer/internal/auth"
	"github.com/wayfarerhq/wayfarer/internal/cache"
	"github.com/wayfarerhq/wayfarer/internal/eventbus"
	"github.com/wayfarerhq/wayfarer/internal/events"
	"github.com/wayfarerhq/wayfarer/internal/logbuffer"
	"github.com/wayfarerhq/wayfarer/internal/models"
	"github.com/wayfarerhq/wayfarer/internal/photostore"
	"github.com/wayfarerhq/wayfarer/internal/places"
	"github.com/wayfarerhq/wayfarer/internal/telemetry"
)

// API exposes HTTP handlers.
type API struct {
	db        *gorm.DB
	jwtSecret []byte
	jwtTTL    time.Duration
	places    *places.Client
	photos    *photostore.Service
	assistant *assistant.Client
	auditSvc  *audit.Service
	cache     *cache.Cache
	bus       eventbus.Bus
	logBuffer *logbuffer.Buffer
	logger    zerolog.Logger
}

// New creates the API router wrapper.
func New(db *gorm.DB, jwtSecret []byte, placesClient *places.Client, photos *photostore.Service, assistantClient *assistant.Client, auditSvc *audit.Service, c *cache.Cache, bus eventbus.Bus, logBuf *logbuffer.Buffer, logger zerolog.Logger) *API {
	return &API{
		db:        db,
		jwtSecret: jwtSecret,
		jwtTTL:    24 * time.Hour,
		places:    placesClient,
		photos:    photos,
		assistant: assistantClient,
		auditSvc:  auditSvc,
		cache:     c,
		bus:       bus,
		logBuffer: logBuf,
		logger:    logger,
	}
}

// Routes mounts all API routes on the router.
func (a *API) Routes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", a.handleHealth)
		r.Get("/status", a.handleSystemStatus)

		// Public endpoints (no auth required)
		r.Post("/auth/register", a.handleRegister)
		r.Post("/auth/login", a.handleLogin)

		r.Group(func(pr chi.Router) {
			pr.Use(a.authMiddleware())

			pr.Get("/auth/me", a.handleMe)

			pr.Route("/apikeys", func(r chi.Router) {
				r.Get("/", a.handleAPIKeysList)
				r.Post("/", a.handleAPIKeysCreate)
				r.Delete("/{keyID}", a.handleAPIKeysRevoke)
			})

			pr.Route("/trips", func(r chi.Router) {
				r.Get("/", a.handleTripsList)
				r.Post("/", a.handleTripsCreate)
				r.Post("/join", a.handleTripJoin)

				r.Route("/{tripID}", func(r chi.Router) {
					r.Use(a.requireTripRole(models.TripRoleViewer))
					r.Get("/", a.handleTripsGet)
					r.With(a.requireTripRole(models.TripRoleEditor)).Patch("/", a.handleTripsUpdate)
					r.With(a.requireTripRole(models.TripRoleOwner)).Delete("/", a.handleTripsDelete)

					r.Route("/members", func(r chi.Router) {
						r.Get("/", a.handleMembersList)
						r.With(a.requireTripRole(models.TripRoleOwner)).Patch("/{memberID}", a.handleMemberUpdateRole)
						r.With(a.requireTripRole(models.TripRoleOwner)).Delete("/{memberID}", a.handleMemberRemove)
					})

					r.Route("/days", func(r chi.Router) {
						r.Get("/", a.handleDaysList)
						r.With(a.requireTripRole(models.TripRoleEditor)).Post("/regenerate", a.handleDaysRegenerate)
					})

					r.Route("/activities", func(r chi.Router) {
						r.Get("/", a.handleActivitiesList)
						r.With(a.requireTripRole(models.TripRoleEditor)).Post("/", a.handleActivitiesCreate)
						r.Route("/{activityID}", func(r chi.Router) {
							r.Get("/", a.handleActivitiesGet)
							r.With(a.requireTripRole(models.TripRoleEditor)).Patch("/", a.handleActivitiesUpdate)
							r.With(a.requireTripRole(models.TripRoleEditor)).Delete("/", a.handleActivitiesDelete)
						})
					})

					r.Route("/wishlist", func(r chi.Router) {
						r.Get("/", a.handleWishlistList)
						r.With(a.requireTripRole(models.TripRoleEditor)).Post("/", a.handleWishlistCreate)
						r.Route("/{itemID}", func(r chi.Router) {
							r.With(a.requireTripRole(models.TripRoleEditor)).Patch("/", a.handleWishlistUpdate)
							r.With(a.requireTripRole(models.TripRoleEditor)).Delete("/", a.handleWishlistDelete)
							r.Post("/vote", a.handleVote)
							r.Delete("/vote", a.handleUnvote)
							r.With(a.requireTripRole(models.TripRoleEditor)).Post("/promote", a.handleWishlistPromote)
						})
					})

					r.Route("/comments", func(r chi.Router) {
						r.Get("/", a.handleCommentsList)
						r.Post("/", a.handleCommentsCreate)
						r.Delete("/{commentID}", a.handleCommentsDelete)
					})

					r.Route("/slots", func(r chi.Router) {
						r.Post("/first", a.handleSlotsFirst)
						r.Post("/available", a.handleSlotsAvailable)
					})

					r.Post("/assistant", a.handleAssistant)
				})
			})

			pr.Route("/places", func(r chi.Router) {
				r.Get("/search", a.handlePlacesSearch)
				r.Get("/{placeID}", a.handlePlacesGet)
				r.Get("/{placeID}/photo", a.handlePlacesPhoto)
			})

			// Platform admin surface
			pr.Group(func(ar chi.Router) {
				ar.Use(a.requireRoles(models.RoleAdmin))
				ar.Get("/audit", a.handleAuditList)
				ar.Route("/logs", func(lr chi.Router) {
					lr.Get("/", a.handleLogs)
					lr.Get("/components", a.handleLogComponents)
					lr.Get("/stats", a.handleLogStats)
				})
				ar.Post("/users/{userID}/suspend", a.handleUserSuspend)
			})

			pr.Get("/events", a.handleEvents)
		})
	})
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ComponentStatus represents the status of a single system component.
type ComponentStatus struct {
	Status  string `json:"status"` // "ok", "error", "unavailable"
	Message string `json:"message,omitempty"`
}

// SystemStatus represents the overall system health status.
type SystemStatus struct {
	Database  ComponentStatus `json:"database"`
	Cache     ComponentStatus `json:"cache"`
	Photos    ComponentStatus `json:"photos"`
	Places    ComponentStatus `json:"places"`
	Assistant ComponentStatus `json:"assistant"`
	Timestamp time.Time       `json:"timestamp"`
}

func (a *API) handleSystemStatus(w http.ResponseWriter, r *http.Request) {
	status := SystemStatus{Timestamp: time.Now()}

	status.Database = ComponentStatus{Status: "ok"}
	if sqlDB, err := a.db.DB(); err != nil {
		status.Database = ComponentStatus{Status: "error", Message: err.Error()}
	} else if err := sqlDB.PingContext(r.Context()); err != nil {
		status.Database = ComponentStatus{Status: "error", Message: err.Error()}
	}

	status.Cache = ComponentStatus{Status: "unavailable"}
	if a.cache != nil && a.cache.IsAvailable() {
		status.Cache = ComponentStatus{Status: "ok"}
	}

	status.Photos = ComponentStatus{Status: "unavailable"}
	if a.photos != nil {
		if err := a.photos.CheckAccess(r.Context()); err != nil {
			status.Photos = ComponentStatus{Status: "error", Message: err.Error()}
		} else {
			status.Photos = ComponentStatus{Status: "ok"}
		}
	}

	status.Places = ComponentStatus{Status: "unavailable"}
	if a.places != nil && a.places.Enabled() {
		status.Places = ComponentStatus{Status: "ok"}
	}

	status.Assistant = ComponentStatus{Status: "unavailable"}
	if a.assistant != nil && a.assistant.Enabled() {
		status.Assistant = ComponentStatus{Status: "ok"}
	}

	writeJSON(w, http.StatusOK, status)
}

// handleEvents streams bus events to WebSocket clients.
func (a *API) handleEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	conn, err := ws.Accept(w, r, &ws.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		a.logger.Error().Err(err).Msg("websocket accept failed")
		return
	}
	defer conn.Close(ws.StatusInternalError, "server error")

	telemetry.APIWebSocketConnections.Inc()
	defer telemetry.APIWebSocketConnections.Dec()

	eventTypes := parseEventTypes(r.URL.Query().Get("types"))
	if len(eventTypes) == 0 {
		eventTypes = []events.EventType{
			events.EventActivityCreated,
			events.EventActivityUpdated,
			events.EventActivityDeleted,
			events.EventWishlistAdded,
			events.EventWishlistPromoted,
			events.EventVoteCast,
			events.EventCommentPosted,
		}
	}

	subscribers := make([]events.Subscriber, 0, len(eventTypes))
	for _, eventType := range eventTypes {
		subscribers = append(subscribers, a.bus.Subscribe(eventType))
	}
	defer func() {
		for i, eventType := range eventTypes {
			a.bus.Unsubscribe(eventType, subscribers[i])
		}
	}()

	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			conn.Close(ws.StatusNormalClosure, "context cancelled")
			return
		case <-ticker.C:
			if err := conn.Write(ctx, ws.MessageText, []byte(`{"type":"ping"}`)); err != nil {
				a.logger.Error().Err(err).Msg("websocket ping failed")
				conn.Close(ws.StatusInternalError, "write failed")
				return
			}
		default:
			sent := false
			for i, sub := range subscribers {
				select {
				case payload := <-sub:
					if err := a.writeEvent(ctx, conn, eventTypes[i], payload); err != nil {
						a.logger.Error().Err(err).Msg("websocket write failed")
						conn.Close(ws.StatusInternalError, "write failed")
						return
					}
					sent = true
				default:
				}
			}
			if !sent {
				time.Sleep(100 * time.Millisecond)
			}
		}
	}
}

func (a *API) writeEvent(ctx context.Context, conn *ws.Conn, eventType events.EventType, payload events.Payload) error {
	data := map[string]any{
		"type":    eventType,
		"payload": payload,
	}
	bytes, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return conn.Write(ctx, ws.MessageText, bytes)
}

func parseEventTypes(raw string) []events.EventType {
	parts := strings.Split(raw, ",")
	out := make([]events.EventType, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, events.EventType(part))
	}
	return out
}

func (a *API) authMiddleware() func(http.Handler) http.Handler {
	return auth.MiddlewareWithJWT(a.db, a.jwtSecret)
}

func (a *API) requireRoles(allowed ...models.RoleName) func(http.Handler) http.Handler {
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[string(role)] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := auth.ClaimsFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			for _, role := range claims.Roles {
				if _, exists := allowedSet[role]; exists {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeError(w, http.StatusForbidden, "insufficient_role")
		})
	}
}

// tripRoleRank orders trip roles so a stronger role satisfies a weaker gate.
func tripRoleRank(role models.TripRole) int {
	switch role {
	case models.TripRoleOwner:
		return 3
	case models.TripRoleEditor:
		return 2
	case models.TripRoleViewer:
		return 1
	}
	return 0
}

// requireTripRole checks the caller's trip membership. Platform admins pass
// regardless of membership.
func (a *API) requireTripRole(minRole models.TripRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := auth.ClaimsFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			for _, role := range claims.Roles {
				if role == string(models.RoleAdmin) {
					next.ServeHTTP(w, r)
					return
				}
			}

			tripID := chi.URLParam(r, "tripID")
			if tripID == "" {
				writeError(w, http.StatusBadRequest, "trip_id_required")
				return
			}

			var member models.TripMember
			err := a.db.WithContext(r.Context()).
				Where("trip_id = ? AND user_id = ?", tripID, claims.UserID).
				First(&member).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				writeError(w, http.StatusForbidden, "not_a_member")
				return
			}
			if err != nil {
				a.logger.Error().Err(err).Msg("membership lookup failed")
				writeError(w, http.StatusInternalServerError, "db_error")
				return
			}

			if tripRoleRank(member.Role) < tripRoleRank(minRole) {
				writeError(w, http.StatusForbidden, "insufficient_trip_role")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// memberRole returns the caller's role on a trip, if any.
func (a *API) memberRole(ctx context.Context, tripID, userID string) (models.TripRole, bool) {
	var member models.TripMember
	err := a.db.WithContext(ctx).
		Where("trip_id = ? AND user_id = ?", tripID, userID).
		First(&member).Error
	if err != nil {
		return "", false
	}
	return member.Role, true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

// auditContext extracts user and request info for audit logging.
func (a *API) auditContext(r *http.Request) events.Payload {
	payload := events.Payload{
		"ip_address": r.RemoteAddr,
		"user_agent": r.UserAgent(),
	}

	if claims, ok := auth.ClaimsFromContext(r.Context()); ok && claims != nil {
		payload["user_id"] = claims.UserID
	}

	return payload
}
