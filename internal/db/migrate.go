/*
Copyright (C) 2026 Wayfarer HQ

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package db

import (
	"gorm.io/gorm"

	"github.com/wayfarerhq/wayfarer/internal/models"
)

// Migrate applies database schema migrations using GORM auto-migrate.
func Migrate(database *gorm.DB) error {
	return database.AutoMigrate(
		// Platform-level models
		&models.User{},
		&models.APIKey{},
		&models.SystemSettings{},
		&models.AuditLog{},

		// Trip-level models
		&models.Trip{},
		&models.TripMember{},
		&models.TripDay{},
		&models.Activity{},
		&models.WishlistItem{},
		&models.Vote{},
		&models.Comment{},

		// Integration caches
		&models.PlacePhoto{},
	)
}
