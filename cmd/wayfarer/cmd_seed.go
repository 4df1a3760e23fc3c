/*
Copyright (C) 2026 Wayfarer HQ

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"crypto/rand"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/wayfarerhq/wayfarer/internal/db"
	"github.com/wayfarerhq/wayfarer/internal/models"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load users and trips from a YAML manifest",
	Long: `Seed the database from a YAML manifest.

Example manifest:

  users:
    - email: ana@example.com
      display_name: Ana
      password: changeme123
      role: admin
  trips:
    - name: Kyoto Spring
      destination: Kyoto
      owner: ana@example.com
      start_date: 2026-04-01
      end_date: 2026-04-05
      members:
        - email: ben@example.com
          role: editor
      wishlist:
        - title: Fushimi Inari hike
          timeframe: morning
          duration_minutes: 120

Existing users (matched by email) are reused, not duplicated.`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "seed.yaml", "Path to the seed manifest")
	rootCmd.AddCommand(seedCmd)
}

type seedManifest struct {
	Users []struct {
		Email       string `yaml:"email"`
		DisplayName string `yaml:"display_name"`
		Password    string `yaml:"password"`
		Role        string `yaml:"role"`
	} `yaml:"users"`
	Trips []struct {
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
		Destination string `yaml:"destination"`
		Owner       string `yaml:"owner"`
		StartDate   string `yaml:"start_date"`
		EndDate     string `yaml:"end_date"`
		Members     []struct {
			Email string `yaml:"email"`
			Role  string `yaml:"role"`
		} `yaml:"members"`
		Wishlist []struct {
			Title           string `yaml:"title"`
			Notes           string `yaml:"notes"`
			Timeframe       string `yaml:"timeframe"`
			DurationMinutes int    `yaml:"duration_minutes"`
		} `yaml:"wishlist"`
	} `yaml:"trips"`
}

func runSeed(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	raw, err := os.ReadFile(seedFile)
	if err != nil {
		return fmt.Errorf("read manifest: %w", err)
	}

	var manifest seedManifest
	if err := yaml.Unmarshal(raw, &manifest); err != nil {
		return fmt.Errorf("parse manifest: %w", err)
	}

	database, err := initDatabase()
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() { _ = db.Close(database) }()

	if err := db.Migrate(database); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	usersByEmail := make(map[string]models.User)
	for _, u := range manifest.Users {
		email := strings.ToLower(strings.TrimSpace(u.Email))
		if email == "" {
			return fmt.Errorf("user entry missing email")
		}

		var existing models.User
		err := database.Where("email = ?", email).First(&existing).Error
		if err == nil {
			usersByEmail[email] = existing
			logger.Info().Str("email", email).Msg("user already exists, skipping")
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return fmt.Errorf("lookup user %s: %w", email, err)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash password for %s: %w", email, err)
		}

		role := models.RoleTraveler
		if u.Role == string(models.RoleAdmin) {
			role = models.RoleAdmin
		}

		user := models.User{
			ID:          uuid.NewString(),
			Email:       email,
			Password:    string(hash),
			DisplayName: u.DisplayName,
			Role:        role,
		}
		if err := database.Create(&user).Error; err != nil {
			return fmt.Errorf("create user %s: %w", email, err)
		}
		usersByEmail[email] = user
		logger.Info().Str("email", email).Str("role", string(role)).Msg("user created")
	}

	for _, t := range manifest.Trips {
		owner, ok := usersByEmail[strings.ToLower(t.Owner)]
		if !ok {
			var existing models.User
			if err := database.Where("email = ?", strings.ToLower(t.Owner)).First(&existing).Error; err != nil {
				return fmt.Errorf("trip %q: owner %s not found", t.Name, t.Owner)
			}
			owner = existing
		}

		start, err := time.Parse("2006-01-02", t.StartDate)
		if err != nil {
			return fmt.Errorf("trip %q: bad start_date: %w", t.Name, err)
		}
		end, err := time.Parse("2006-01-02", t.EndDate)
		if err != nil {
			return fmt.Errorf("trip %q: bad end_date: %w", t.Name, err)
		}
		if end.Before(start) {
			return fmt.Errorf("trip %q: end_date before start_date", t.Name)
		}

		trip := models.Trip{
			ID:          uuid.NewString(),
			Name:        t.Name,
			Description: t.Description,
			Destination: t.Destination,
			StartDate:   start,
			EndDate:     end,
			OwnerID:     owner.ID,
			InviteCode:  seedInviteCode(),
		}

		err = database.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&trip).Error; err != nil {
				return err
			}

			if err := tx.Create(&models.TripMember{
				ID:     uuid.NewString(),
				TripID: trip.ID,
				UserID: owner.ID,
				Role:   models.TripRoleOwner,
			}).Error; err != nil {
				return err
			}

			for i, date := 0, start; !date.After(end); i, date = i+1, date.AddDate(0, 0, 1) {
				if err := tx.Create(&models.TripDay{
					ID:       uuid.NewString(),
					TripID:   trip.ID,
					DayIndex: i,
					Date:     date,
				}).Error; err != nil {
					return err
				}
			}

			for _, m := range t.Members {
				member, ok := usersByEmail[strings.ToLower(m.Email)]
				if !ok {
					return fmt.Errorf("member %s not found in manifest users", m.Email)
				}
				role := models.TripRoleViewer
				if m.Role == string(models.TripRoleEditor) {
					role = models.TripRoleEditor
				}
				if err := tx.Create(&models.TripMember{
					ID:     uuid.NewString(),
					TripID: trip.ID,
					UserID: member.ID,
					Role:   role,
				}).Error; err != nil {
					return err
				}
			}

			for _, w := range t.Wishlist {
				if err := tx.Create(&models.WishlistItem{
					ID:              uuid.NewString(),
					TripID:          trip.ID,
					Title:           w.Title,
					Notes:           w.Notes,
					Timeframe:       w.Timeframe,
					DurationMinutes: w.DurationMinutes,
					CreatedBy:       owner.ID,
				}).Error; err != nil {
					return err
				}
			}

			return nil
		})
		if err != nil {
			return fmt.Errorf("create trip %q: %w", t.Name, err)
		}

		logger.Info().
			Str("trip", trip.Name).
			Str("invite_code", trip.InviteCode).
			Msg("trip created")
	}

	return nil
}

func seedInviteCode() string {
	const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	for i := range buf {
		buf[i] = alphabet[int(buf[i])%len(alphabet)]
	}
	return string(buf)
}
