/*
Copyright (C) 2026 Wayfarer HQ

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wayfarerhq/wayfarer/internal/db"
	"github.com/wayfarerhq/wayfarer/internal/models"
)

var (
	resetForce      bool
	resetKeepAdmins bool
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Drop all data and re-create empty tables",
	Long: `Reset Wayfarer to a fresh state.

This command drops all tables from the database and re-creates them empty.

WARNING: This action is irreversible! All data will be lost.

Examples:
  # Interactive reset (will prompt for confirmation)
  wayfarer reset

  # Force reset without confirmation
  wayfarer reset --force

  # Reset but keep admin accounts
  wayfarer reset --force --keep-admins`,
	RunE: runReset,
}

func init() {
	resetCmd.Flags().BoolVarP(&resetForce, "force", "f", false, "Skip confirmation prompt")
	resetCmd.Flags().BoolVar(&resetKeepAdmins, "keep-admins", false, "Preserve admin user accounts")
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	if !resetForce {
		fmt.Println("\nWARNING: this will DELETE ALL DATA from Wayfarer:")
		fmt.Println("  - all trips, days, activities, wishlist items, votes, and comments")
		fmt.Println("  - all API keys and audit logs")
		if resetKeepAdmins {
			fmt.Println("  - all users EXCEPT admin accounts")
		} else {
			fmt.Println("  - all users and accounts")
		}
		fmt.Print("\nType 'yes' to continue: ")

		reader := bufio.NewReader(os.Stdin)
		answer, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("read confirmation: %w", err)
		}
		if strings.TrimSpace(strings.ToLower(answer)) != "yes" {
			fmt.Println("aborted")
			return nil
		}
	}

	database, err := initDatabase()
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() { _ = db.Close(database) }()

	var keptAdmins []models.User
	if resetKeepAdmins {
		if err := database.Where("role = ?", models.RoleAdmin).Find(&keptAdmins).Error; err != nil {
			return fmt.Errorf("load admin users: %w", err)
		}
	}

	tables := []any{
		&models.Vote{},
		&models.Comment{},
		&models.WishlistItem{},
		&models.Activity{},
		&models.TripDay{},
		&models.TripMember{},
		&models.Trip{},
		&models.PlacePhoto{},
		&models.AuditLog{},
		&models.APIKey{},
		&models.SystemSettings{},
		&models.User{},
	}

	migrator := database.Migrator()
	for _, table := range tables {
		if err := migrator.DropTable(table); err != nil {
			return fmt.Errorf("drop table %T: %w", table, err)
		}
	}

	if err := db.Migrate(database); err != nil {
		return fmt.Errorf("re-create tables: %w", err)
	}

	for _, admin := range keptAdmins {
		if err := database.Create(&admin).Error; err != nil {
			return fmt.Errorf("restore admin %s: %w", admin.Email, err)
		}
	}

	if len(keptAdmins) > 0 {
		logger.Info().Int("admins_kept", len(keptAdmins)).Msg("database reset complete")
	} else {
		logger.Info().Msg("database reset complete")
	}
	return nil
}
