/*
Copyright (C) 2026 Wayfarer HQ

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package models

import "time"

// WishlistItem is a place or activity a member wants on the itinerary but that
// has not been scheduled yet. Timeframe and DurationMinutes are fuzzy hints
// consumed by the slot allocator during promotion.
type WishlistItem struct {
	ID              string `gorm:"type:uuid;primaryKey"`
	TripID          string `gorm:"type:uuid;index"`
	Title           string
	Notes           string `gorm:"type:text"`
	PlaceID         string `gorm:"index"`
	Timeframe       string `gorm:"type:varchar(16)"`
	DurationMinutes int
	CreatedBy       string `gorm:"type:uuid"`
	Promoted        bool
	ActivityID      string `gorm:"type:uuid"` // set once promoted
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Vote is a member's up or down vote on a wishlist item. Value is +1 or -1;
// one vote per (item, user), overwritten on re-vote.
type Vote struct {
	ID             string `gorm:"type:uuid;primaryKey"`
	WishlistItemID string `gorm:"type:uuid;index:idx_item_voter,unique"`
	UserID         string `gorm:"type:uuid;index:idx_item_voter,unique"`
	Value          int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Comment is attached to a trip and optionally scoped to an activity or a
// wishlist item.
type Comment struct {
	ID             string `gorm:"type:uuid;primaryKey"`
	TripID         string `gorm:"type:uuid;index"`
	ActivityID     string `gorm:"type:uuid;index"`
	WishlistItemID string `gorm:"type:uuid;index"`
	AuthorID       string `gorm:"type:uuid;index"`
	Body           string `gorm:"type:text"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// PlacePhoto indexes a cached place photo held in the photo store.
type PlacePhoto struct {
	ID         string `gorm:"type:uuid;primaryKey"`
	PlaceID    string `gorm:"uniqueIndex"`
	StorageKey string
	MimeType   string `gorm:"type:varchar(64)"`
	FetchedAt  time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
