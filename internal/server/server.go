/*
Copyright (C) 2026 Wayfarer HQ

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/wayfarerhq/wayfarer/internal/api"
	"github.com/wayfarerhq/wayfarer/internal/assistant"
	"github.com/wayfarerhq/wayfarer/internal/audit"
	"github.com/wayfarerhq/wayfarer/internal/cache"
	"github.com/wayfarerhq/wayfarer/internal/config"
	"github.com/wayfarerhq/wayfarer/internal/db"
	"github.com/wayfarerhq/wayfarer/internal/eventbus"
	"github.com/wayfarerhq/wayfarer/internal/events"
	"github.com/wayfarerhq/wayfarer/internal/logbuffer"
	"github.com/wayfarerhq/wayfarer/internal/photostore"
	"github.com/wayfarerhq/wayfarer/internal/places"
	"github.com/wayfarerhq/wayfarer/internal/telemetry"
)

// Server bundles the HTTP listener and supporting services.
type Server struct {
	cfg           *config.Config
	logger        zerolog.Logger
	router        chi.Router
	httpServer    *http.Server
	metricsServer *http.Server
	closers       []func() error

	db        *gorm.DB
	cache     *cache.Cache
	logBuffer *logbuffer.Buffer
	api       *api.API
	bus       eventbus.Bus
	auditSvc  *audit.Service

	bgCancel context.CancelFunc
	bgWG     sync.WaitGroup
}

// New constructs the server and wires dependencies.
func New(cfg *config.Config, logBuf *logbuffer.Buffer, logger zerolog.Logger) (*Server, error) {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(securityHeadersMiddleware)
	router.Use(telemetry.TracingMiddleware("wayfarer-api"))
	router.Use(telemetry.MetricsMiddleware)
	// Skip timeout for WebSocket connections
	router.Use(func(next http.Handler) http.Handler {
		timeout := middleware.Timeout(60 * time.Second)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Upgrade") == "websocket" {
				next.ServeHTTP(w, r)
				return
			}
			timeout(next).ServeHTTP(w, r)
		})
	})

	srv := &Server{
		cfg:       cfg,
		logger:    logger,
		router:    router,
		logBuffer: logBuf,
	}

	if err := srv.initDependencies(); err != nil {
		return nil, err
	}

	srv.configureRoutes()
	srv.startBackgroundWorkers()

	addr := fmt.Sprintf("%s:%d", cfg.HTTPBind, cfg.HTTPPort)
	srv.httpServer = &http.Server{
		Addr:              addr,
		Handler:           srv.router,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       30 * time.Second,
		// WriteTimeout stays 0 so the event stream can outlive the
		// middleware timeout applied to regular routes.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	if cfg.MetricsBind != "" {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", telemetry.Handler())
		srv.metricsServer = &http.Server{
			Addr:              cfg.MetricsBind,
			Handler:           metricsMux,
			ReadHeaderTimeout: 15 * time.Second,
		}
	}

	return srv, nil
}

func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; frame-ancestors 'none'; base-uri 'self'")

		// Only advertise HSTS for requests served over HTTPS.
		if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) initDependencies() error {
	database, err := db.Connect(s.cfg)
	if err != nil {
		return err
	}
	if err := db.Migrate(database); err != nil {
		return err
	}
	db.RegisterCallbacks(database)
	s.db = database
	s.DeferClose(func() error { return db.Close(database) })

	tracerCfg := telemetry.TracerConfig{
		ServiceName:  "wayfarer",
		OTLPEndpoint: s.cfg.OTLPEndpoint,
		Enabled:      s.cfg.TracingEnabled,
		SampleRate:   s.cfg.TracingSampleRate,
	}
	tracer, err := telemetry.InitTracer(context.Background(), tracerCfg, s.logger)
	if err != nil {
		s.logger.Warn().Err(err).Msg("tracer initialization failed, continuing without tracing")
	} else {
		s.DeferClose(func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return tracer.Shutdown(ctx)
		})
	}

	cacheCfg := cache.DefaultConfig()
	cacheCfg.RedisAddr = s.cfg.RedisAddr
	cacheCfg.RedisPassword = s.cfg.RedisPassword
	cacheCfg.RedisDB = s.cfg.RedisDB
	entityCache, err := cache.New(cacheCfg, s.logger)
	if err != nil {
		s.logger.Warn().Err(err).Msg("cache initialization failed, continuing without cache")
	} else {
		s.cache = entityCache
		s.DeferClose(func() error { return s.cache.Close() })
	}

	if s.cfg.NATSEnabled {
		natsCfg := eventbus.DefaultNATSConfig()
		natsCfg.URL = s.cfg.NATSURL
		natsBus, err := eventbus.NewNATSBus(natsCfg, s.cfg.InstanceID, s.logger)
		if err != nil {
			return fmt.Errorf("connect nats: %w", err)
		}
		s.bus = natsBus
	} else {
		s.bus = eventbus.NewMemoryBus()
	}
	s.DeferClose(func() error { return s.bus.Close() })

	s.auditSvc = audit.NewService(database, s.bus, s.logger)

	photos, err := photostore.NewService(s.cfg, s.logger)
	if err != nil {
		return fmt.Errorf("initialize photo store: %w", err)
	}

	placesClient, err := places.NewClient(s.cfg.PlacesBaseURL, s.cfg.PlacesAPIKey, s.cache, s.logger)
	if err != nil {
		return fmt.Errorf("initialize places client: %w", err)
	}

	assistantClient := assistant.NewClient(s.cfg.OpenAIBaseURL, s.cfg.OpenAIAPIKey, s.cfg.OpenAIModel, s.logger)

	s.api = api.New(database, []byte(s.cfg.JWTSigningKey), placesClient, photos, assistantClient, s.auditSvc, s.cache, s.bus, s.logBuffer, s.logger)

	return nil
}

// HTTPServer exposes the underlying net/http server.
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// MetricsServer exposes the metrics listener, nil when disabled.
func (s *Server) MetricsServer() *http.Server {
	return s.metricsServer
}

// Close releases owned resources in reverse order.
func (s *Server) Close() error {
	s.stopBackgroundWorkers()
	var firstErr error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// DeferClose registers a cleanup hook.
func (s *Server) DeferClose(fn func() error) {
	s.closers = append(s.closers, fn)
}

func (s *Server) startBackgroundWorkers() {
	ctx, cancel := context.WithCancel(context.Background())
	s.bgCancel = cancel

	if s.auditSvc != nil {
		s.bgWG.Add(1)
		go func() {
			defer s.bgWG.Done()
			s.auditSvc.Start(ctx)
		}()
	}

	if s.db != nil {
		s.bgWG.Add(1)
		go func() {
			defer s.bgWG.Done()
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()

			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					db.UpdateConnectionMetrics(s.db)
				}
			}
		}()
	}

	if s.cache != nil {
		s.bgWG.Add(1)
		go func() {
			defer s.bgWG.Done()
			s.runCacheInvalidationListener(ctx)
		}()
	}
}

// runCacheInvalidationListener drops stale trip summaries when itinerary
// events arrive, including events bridged from other instances.
func (s *Server) runCacheInvalidationListener(ctx context.Context) {
	types := []events.EventType{
		events.EventTripUpdated,
		events.EventTripDeleted,
		events.EventDayAdded,
		events.EventDayRemoved,
		events.EventActivityCreated,
		events.EventActivityUpdated,
		events.EventActivityDeleted,
		events.EventWishlistAdded,
		events.EventWishlistRemoved,
		events.EventWishlistPromoted,
		events.EventMemberJoined,
		events.EventMemberRemoved,
	}

	subs := make([]events.Subscriber, 0, len(types))
	for _, et := range types {
		subs = append(subs, s.bus.Subscribe(et))
	}
	defer func() {
		for i, et := range types {
			s.bus.Unsubscribe(et, subs[i])
		}
	}()

	// Fan the subscriptions into one channel so a single select covers them.
	merged := make(chan events.Payload, 16)
	var wg sync.WaitGroup
	for _, sub := range subs {
		wg.Add(1)
		go func(ch events.Subscriber) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case payload, ok := <-ch:
					if !ok {
						return
					}
					select {
					case merged <- payload:
					case <-ctx.Done():
						return
					}
				}
			}
		}(sub)
	}
	defer wg.Wait()

	s.logger.Info().Msg("cache invalidation listener started")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("cache invalidation listener stopped")
			return
		case payload := <-merged:
			tripID, ok := payload["trip_id"].(string)
			if !ok || tripID == "" {
				continue
			}
			if err := s.cache.InvalidateTripSummary(ctx, tripID); err != nil {
				s.logger.Debug().Err(err).Str("trip_id", tripID).Msg("trip summary invalidation failed")
			}
		}
	}
}

func (s *Server) stopBackgroundWorkers() {
	if s.bgCancel == nil {
		return
	}
	s.bgCancel()
	s.bgWG.Wait()
	s.bgCancel = nil
}

func (s *Server) configureRoutes() {
	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	s.router.Handle("/metrics", telemetry.Handler())

	s.api.Routes(s.router)
}
