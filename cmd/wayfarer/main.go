/*
Copyright (C) 2026 Wayfarer HQ

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/wayfarerhq/wayfarer/internal/config"
	"github.com/wayfarerhq/wayfarer/internal/db"
	"github.com/wayfarerhq/wayfarer/internal/logbuffer"
	"github.com/wayfarerhq/wayfarer/internal/logging"
	"github.com/wayfarerhq/wayfarer/internal/server"
)

var (
	logger zerolog.Logger
	cfg    *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "wayfarer",
	Short: "Wayfarer - Collaborative trip planning server",
	Long:  "Wayfarer is a collaborative trip planner: shared itineraries, group wishlists with voting, and automatic time-slot scheduling.",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Wayfarer server",
	Long:  "Start the HTTP API server for trip planning and scheduling",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads configuration (called by commands that need it)
func loadConfig() error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger = logging.Setup(cfg.Environment)
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Captures recent log lines for the admin logs endpoint.
	logBuf := logbuffer.New(2000)
	logger = logging.SetupWithWriter(cfg.Environment, logbuffer.NewWriter(logBuf, nil))

	logger.Info().Msg("Wayfarer starting")

	srv, err := server.New(cfg, logBuf, logger)
	if err != nil {
		return fmt.Errorf("initialize server: %w", err)
	}

	httpServer := srv.HTTPServer()

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.HTTPBind, cfg.HTTPPort)
		logger.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server error")
		}
	}()

	if metricsServer := srv.MetricsServer(); metricsServer != nil {
		go func() {
			logger.Info().Str("addr", metricsServer.Addr).Msg("metrics server listening")
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error().Err(err).Msg("metrics server error")
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down gracefully...")

	timeoutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(timeoutCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	if metricsServer := srv.MetricsServer(); metricsServer != nil {
		_ = metricsServer.Shutdown(timeoutCtx)
	}

	if err := srv.Close(); err != nil {
		logger.Error().Err(err).Msg("shutdown cleanup failed")
	}

	logger.Info().Msg("Wayfarer stopped")
	return nil
}

// initDatabase initializes the database connection (used by maintenance commands)
func initDatabase() (*gorm.DB, error) {
	return db.Connect(cfg)
}
