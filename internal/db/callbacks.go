/*
Copyright (C) 2026 Wayfarer HQ

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package db

import (
	"time"

	"gorm.io/gorm"

	"github.com/wayfarerhq/wayfarer/internal/telemetry"
)

const _startTime = "gorm:start_time"

// RegisterCallbacks registers telemetry callbacks for GORM operations.
func RegisterCallbacks(db *gorm.DB) error {
	callbacks := []struct {
		name     string
		register func() error
	}{
		{"query", func() error {
			if err := db.Callback().Query().Before("gorm:query").Register("telemetry:before_query", beforeCallback); err != nil {
				return err
			}
			return db.Callback().Query().After("gorm:query").Register("telemetry:after_query", afterCallback("query"))
		}},
		{"create", func() error {
			if err := db.Callback().Create().Before("gorm:create").Register("telemetry:before_create", beforeCallback); err != nil {
				return err
			}
			return db.Callback().Create().After("gorm:create").Register("telemetry:after_create", afterCallback("create"))
		}},
		{"update", func() error {
			if err := db.Callback().Update().Before("gorm:update").Register("telemetry:before_update", beforeCallback); err != nil {
				return err
			}
			return db.Callback().Update().After("gorm:update").Register("telemetry:after_update", afterCallback("update"))
		}},
		{"delete", func() error {
			if err := db.Callback().Delete().Before("gorm:delete").Register("telemetry:before_delete", beforeCallback); err != nil {
				return err
			}
			return db.Callback().Delete().After("gorm:delete").Register("telemetry:after_delete", afterCallback("delete"))
		}},
	}

	for _, cb := range callbacks {
		if err := cb.register(); err != nil {
			return err
		}
	}
	return nil
}

// beforeCallback records the start time before a database operation.
func beforeCallback(db *gorm.DB) {
	db.InstanceSet(_startTime, time.Now())
}

// afterCallback creates a callback that records metrics after a database operation.
func afterCallback(operation string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		startTimeValue, exists := db.InstanceGet(_startTime)
		if !exists {
			return
		}
		startTime, ok := startTimeValue.(time.Time)
		if !ok {
			return
		}

		duration := time.Since(startTime).Seconds()

		tableName := db.Statement.Table
		if tableName == "" {
			tableName = "unknown"
		}

		telemetry.DatabaseQueryDuration.WithLabelValues(operation, tableName).Observe(duration)

		if db.Error != nil && db.Error != gorm.ErrRecordNotFound {
			telemetry.DatabaseErrorsTotal.WithLabelValues(operation, "query_error").Inc()
		}
	}
}

// UpdateConnectionMetrics updates connection pool metrics.
// Should be called periodically.
func UpdateConnectionMetrics(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	telemetry.DatabaseConnectionsActive.Set(float64(sqlDB.Stats().OpenConnections))
}
