/*
Copyright (C) 2026 Wayfarer HQ

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package models

import "time"

// RoleName enumerates platform-level roles.
type RoleName string

const (
	RoleAdmin    RoleName = "admin"
	RoleTraveler RoleName = "traveler"
)

// TripRole enumerates per-trip membership roles.
type TripRole string

const (
	TripRoleOwner  TripRole = "owner"
	TripRoleEditor TripRole = "editor"
	TripRoleViewer TripRole = "viewer"
)

// User represents an authenticated account.
type User struct {
	ID          string `gorm:"type:uuid;primaryKey"`
	Email       string `gorm:"uniqueIndex"`
	Password    string
	DisplayName string
	Role        RoleName `gorm:"type:varchar(16)"`
	Suspended   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Trip aggregates days, activities, wishlist items, and members.
type Trip struct {
	ID          string `gorm:"type:uuid;primaryKey"`
	Name        string `gorm:"index"`
	Description string `gorm:"type:text"`
	Destination string
	StartDate   time.Time
	EndDate     time.Time
	OwnerID     string `gorm:"type:uuid;index"`
	InviteCode  string `gorm:"uniqueIndex"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TripMember links a user to a trip with a role.
type TripMember struct {
	ID        string   `gorm:"type:uuid;primaryKey"`
	TripID    string   `gorm:"type:uuid;index:idx_trip_member,unique"`
	UserID    string   `gorm:"type:uuid;index:idx_trip_member,unique"`
	Role      TripRole `gorm:"type:varchar(16)"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TripDay is one calendar day of an itinerary. DayIndex is the zero-based
// ordinal within the trip, independent of the calendar date.
type TripDay struct {
	ID        string `gorm:"type:uuid;primaryKey"`
	TripID    string `gorm:"type:uuid;index:idx_trip_day,unique"`
	DayIndex  int    `gorm:"index:idx_trip_day,unique"`
	Date      time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Activity is a scheduled itinerary entry. StartTime is an "HH:MM" 24-hour
// string; interval arithmetic happens in the scheduling package after parsing.
type Activity struct {
	ID              string `gorm:"type:uuid;primaryKey"`
	TripID          string `gorm:"type:uuid;index"`
	TripDayID       string `gorm:"type:uuid;index"`
	Title           string
	Notes           string `gorm:"type:text"`
	PlaceID         string `gorm:"index"`
	StartTime       string `gorm:"type:varchar(5)"`
	DurationMinutes int
	CreatedBy       string `gorm:"type:uuid"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// SystemSettings stores key/value configuration persisted in the database.
type SystemSettings struct {
	Key       string `gorm:"primaryKey"`
	Value     string `gorm:"type:text"`
	UpdatedAt time.Time
}
