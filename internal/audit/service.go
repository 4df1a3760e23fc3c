/*
Copyright (C) 2026 Wayfarer HQ

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/wayfarerhq/wayfarer/internal/events"
	"github.com/wayfarerhq/wayfarer/internal/eventbus"
	"github.com/wayfarerhq/wayfarer/internal/models"
)

// Service handles audit logging by subscribing to events and storing audit entries.
type Service struct {
	db     *gorm.DB
	bus    eventbus.Bus
	logger zerolog.Logger
}

// NewService creates a new audit service.
func NewService(db *gorm.DB, bus eventbus.Bus, logger zerolog.Logger) *Service {
	return &Service{
		db:     db,
		bus:    bus,
		logger: logger.With().Str("component", "audit").Logger(),
	}
}

// Start subscribes to relevant events and logs them as audit entries.
func (s *Service) Start(ctx context.Context) {
	s.logger.Info().Msg("audit service starting")

	userSuspend := s.bus.Subscribe(events.EventAuditUserSuspend)
	apiKeyCreate := s.bus.Subscribe(events.EventAuditAPIKeyCreate)
	apiKeyRevoke := s.bus.Subscribe(events.EventAuditAPIKeyRevoke)
	tripCreate := s.bus.Subscribe(events.EventAuditTripCreate)
	tripUpdate := s.bus.Subscribe(events.EventAuditTripUpdate)
	tripDelete := s.bus.Subscribe(events.EventAuditTripDelete)
	memberJoin := s.bus.Subscribe(events.EventAuditMemberJoin)
	memberRemove := s.bus.Subscribe(events.EventAuditMemberRemove)
	promote := s.bus.Subscribe(events.EventAuditPromote)
	activityCreated := s.bus.Subscribe(events.EventActivityCreated)
	activityUpdated := s.bus.Subscribe(events.EventActivityUpdated)
	activityDeleted := s.bus.Subscribe(events.EventActivityDeleted)

	defer func() {
		s.bus.Unsubscribe(events.EventAuditUserSuspend, userSuspend)
		s.bus.Unsubscribe(events.EventAuditAPIKeyCreate, apiKeyCreate)
		s.bus.Unsubscribe(events.EventAuditAPIKeyRevoke, apiKeyRevoke)
		s.bus.Unsubscribe(events.EventAuditTripCreate, tripCreate)
		s.bus.Unsubscribe(events.EventAuditTripUpdate, tripUpdate)
		s.bus.Unsubscribe(events.EventAuditTripDelete, tripDelete)
		s.bus.Unsubscribe(events.EventAuditMemberJoin, memberJoin)
		s.bus.Unsubscribe(events.EventAuditMemberRemove, memberRemove)
		s.bus.Unsubscribe(events.EventAuditPromote, promote)
		s.bus.Unsubscribe(events.EventActivityCreated, activityCreated)
		s.bus.Unsubscribe(events.EventActivityUpdated, activityUpdated)
		s.bus.Unsubscribe(events.EventActivityDeleted, activityDeleted)
	}()

	s.logger.Info().Msg("audit service started")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("audit service stopping")
			return

		case payload := <-userSuspend:
			s.logAuditEntry(ctx, models.AuditActionUserSuspend, payload)

		case payload := <-apiKeyCreate:
			s.logAuditEntry(ctx, models.AuditActionAPIKeyCreate, payload)

		case payload := <-apiKeyRevoke:
			s.logAuditEntry(ctx, models.AuditActionAPIKeyRevoke, payload)

		case payload := <-tripCreate:
			s.logAuditEntry(ctx, models.AuditActionTripCreate, payload)

		case payload := <-tripUpdate:
			s.logAuditEntry(ctx, models.AuditActionTripUpdate, payload)

		case payload := <-tripDelete:
			s.logAuditEntry(ctx, models.AuditActionTripDelete, payload)

		case payload := <-memberJoin:
			s.logAuditEntry(ctx, models.AuditActionMemberJoin, payload)

		case payload := <-memberRemove:
			s.logAuditEntry(ctx, models.AuditActionMemberRemove, payload)

		case payload := <-promote:
			s.logAuditEntry(ctx, models.AuditActionWishlistPromote, payload)

		case payload := <-activityCreated:
			s.logAuditEntry(ctx, models.AuditActionActivityCreate, payload)

		case payload := <-activityUpdated:
			s.logAuditEntry(ctx, models.AuditActionActivityUpdate, payload)

		case payload := <-activityDeleted:
			s.logAuditEntry(ctx, models.AuditActionActivityDelete, payload)
		}
	}
}

// logAuditEntry creates an audit log entry from an event payload.
func (s *Service) logAuditEntry(ctx context.Context, action models.AuditAction, payload events.Payload) {
	entry := &models.AuditLog{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Action:    action,
		Details:   make(map[string]any),
		CreatedAt: time.Now(),
	}

	if userID, ok := payload["user_id"].(string); ok && userID != "" {
		entry.UserID = &userID
	}
	if userEmail, ok := payload["user_email"].(string); ok {
		entry.UserEmail = userEmail
	}

	if tripID, ok := payload["trip_id"].(string); ok && tripID != "" {
		entry.TripID = &tripID
	}

	if resourceType, ok := payload["resource_type"].(string); ok {
		entry.ResourceType = resourceType
	}
	if resourceID, ok := payload["resource_id"].(string); ok {
		entry.ResourceID = resourceID
	}

	if ipAddress, ok := payload["ip_address"].(string); ok {
		entry.IPAddress = ipAddress
	}
	if userAgent, ok := payload["user_agent"].(string); ok {
		entry.UserAgent = userAgent
	}

	for k, v := range payload {
		switch k {
		case "user_id", "user_email", "trip_id", "resource_type", "resource_id", "ip_address", "user_agent":
			// Already extracted
		default:
			entry.Details[k] = v
		}
	}

	if err := s.Log(ctx, entry); err != nil {
		s.logger.Error().Err(err).
			Str("action", string(action)).
			Msg("failed to log audit entry")
	}
}

// Log records an audit entry directly (for non-event-bus actions).
func (s *Service) Log(ctx context.Context, entry *models.AuditLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	if entry.Details == nil {
		entry.Details = make(map[string]any)
	}

	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return err
	}

	s.logger.Debug().
		Str("action", string(entry.Action)).
		Str("id", entry.ID).
		Msg("audit entry logged")

	return nil
}

// QueryFilters defines filters for querying audit logs.
type QueryFilters struct {
	UserID    *string
	TripID    *string
	Action    *models.AuditAction
	StartTime *time.Time
	EndTime   *time.Time
	Limit     int
	Offset    int
}

// Query retrieves audit logs with filters.
func (s *Service) Query(ctx context.Context, filters QueryFilters) ([]models.AuditLog, int64, error) {
	var logs []models.AuditLog
	var total int64

	query := s.db.WithContext(ctx).Model(&models.AuditLog{})

	if filters.UserID != nil {
		query = query.Where("user_id = ?", *filters.UserID)
	}
	if filters.TripID != nil {
		query = query.Where("trip_id = ?", *filters.TripID)
	}
	if filters.Action != nil {
		query = query.Where("action = ?", *filters.Action)
	}
	if filters.StartTime != nil {
		query = query.Where("timestamp >= ?", *filters.StartTime)
	}
	if filters.EndTime != nil {
		query = query.Where("timestamp <= ?", *filters.EndTime)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	} else {
		query = query.Limit(100)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	if err := query.Order("timestamp DESC").Find(&logs).Error; err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}
