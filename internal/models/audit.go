/*
Copyright (C) 2026 Wayfarer HQ

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package models

import "time"

// AuditAction defines the type of audited action.
type AuditAction string

// Audit action constants for all sensitive operations.
const (
	AuditActionUserSuspend     AuditAction = "user.suspend"
	AuditActionAPIKeyCreate    AuditAction = "apikey.create"
	AuditActionAPIKeyRevoke    AuditAction = "apikey.revoke"
	AuditActionTripCreate      AuditAction = "trip.create"
	AuditActionTripUpdate      AuditAction = "trip.update"
	AuditActionTripDelete      AuditAction = "trip.delete"
	AuditActionMemberJoin      AuditAction = "member.join"
	AuditActionMemberRemove    AuditAction = "member.remove"
	AuditActionActivityCreate  AuditAction = "activity.create"
	AuditActionActivityUpdate  AuditAction = "activity.update"
	AuditActionActivityDelete  AuditAction = "activity.delete"
	AuditActionWishlistPromote AuditAction = "wishlist.promote"
)

// AuditLog records sensitive operations for security and compliance.
type AuditLog struct {
	ID           string         `gorm:"type:uuid;primaryKey"`
	Timestamp    time.Time      `gorm:"index:idx_audit_timestamp;not null"`
	UserID       *string        `gorm:"type:uuid;index:idx_audit_user"` // NULL for system actions
	UserEmail    string         `gorm:"type:varchar(255)"`              // Denormalized for readability
	TripID       *string        `gorm:"type:uuid;index:idx_audit_trip"` // NULL if platform-wide
	Action       AuditAction    `gorm:"type:varchar(64);index:idx_audit_action;not null"`
	ResourceType string         `gorm:"type:varchar(64)"`
	ResourceID   string         `gorm:"type:uuid"`
	Details      map[string]any `gorm:"type:jsonb;serializer:json"`
	IPAddress    string         `gorm:"type:varchar(45)"`
	UserAgent    string         `gorm:"type:varchar(512)"`
	CreatedAt    time.Time
}

// TableName returns the table name for GORM.
func (AuditLog) TableName() string {
	return "audit_logs"
}
