/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package server wires the database, engine client, rotation services and
// HTTP surface into one process.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/friendsincode/skald_radio/internal/api"
	"github.com/friendsincode/skald_radio/internal/config"
	"github.com/friendsincode/skald_radio/internal/db"
	"github.com/friendsincode/skald_radio/internal/eventbus"
	"github.com/friendsincode/skald_radio/internal/events"
	"github.com/friendsincode/skald_radio/internal/housekeeping"
	"github.com/friendsincode/skald_radio/internal/liquidsoap"
	"github.com/friendsincode/skald_radio/internal/listeners"
	"github.com/friendsincode/skald_radio/internal/poller"
	"github.com/friendsincode/skald_radio/internal/rotation"
	"github.com/friendsincode/skald_radio/internal/scheduler"
	"github.com/friendsincode/skald_radio/internal/showsched"
	"github.com/friendsincode/skald_radio/internal/telemetry"
)

// Server bundles HTTP and the background rotation services.
type Server struct {
	cfg        *config.Config
	logger     zerolog.Logger
	router     chi.Router
	httpServer *http.Server
	closers    []func() error

	db        *gorm.DB
	bus       *events.Bus
	publisher events.Publisher
	engine    *liquidsoap.Client
	scheduler *scheduler.Service
	api       *api.API

	bgCancel context.CancelFunc
	bgWG     sync.WaitGroup
}

// New builds a fully wired server from configuration.
func New(cfg *config.Config, logger zerolog.Logger) (*Server, error) {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(telemetry.TracingMiddleware("skald-radio-api"))
	router.Use(telemetry.MetricsMiddleware)
	// WebSocket upgrades must bypass the request timeout.
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
		cfg:    cfg,
		logger: logger,
		router: router,
		bus:    events.NewBus(),
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
		IdleTimeout:       60 * time.Second,
	}

	return srv, nil
}

func (s *Server) initDependencies() error {
	database, err := db.Connect(s.cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	s.db = database
	s.DeferClose(func() error { return db.Close(database) })

	if err := db.Migrate(database); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	if err := db.Seed(database); err != nil {
		return fmt.Errorf("seed database: %w", err)
	}

	s.publisher = s.selectPublisher()
	s.engine = liquidsoap.New(s.cfg.EngineAddr(), s.cfg.EngineTimeout, s.logger)

	dispatcher := rotation.NewDispatcher(s.db, s.engine, s.cfg, s.publisher, s.logger)
	evaluator := rotation.NewEvaluator(s.db, dispatcher, s.logger)
	songCounter := rotation.NewSongCounter(s.db, dispatcher, s.logger)
	trackPoller := poller.New(s.db, s.engine, songCounter, s.publisher, s.cfg, s.logger)
	scheduleRunner := showsched.New(s.db, dispatcher, s.publisher, s.cfg.ScheduleWindow, s.logger)
	icecast := listeners.NewClient(s.cfg.IcecastURL, s.cfg.IcecastMountpoint, s.logger)
	sampler := listeners.NewSampler(s.db, icecast, s.publisher, s.cfg.HistoryRetention, s.logger)
	housekeeper := housekeeping.New(s.db, s.cfg.HistoryRetention, s.logger)

	s.scheduler = scheduler.New(s.logger)
	s.scheduler.Add("rotation", s.cfg.RotationCheckInterval, evaluator.Tick)
	s.scheduler.Add("track_poll", s.cfg.TrackPollInterval, trackPoller.Tick)
	s.scheduler.Add("schedule", s.cfg.ScheduleCheckInterval, scheduleRunner.Tick)
	s.scheduler.Add("listener_sample", s.cfg.ListenerSampleInterval, sampler.Tick)
	s.scheduler.Add("housekeeping", s.cfg.HousekeepingInterval, housekeeper.Tick)

	s.api = api.New(s.db, s.engine, dispatcher, s.cfg, s.bus, s.logger)
	return nil
}

// selectPublisher picks the configured bus backend. The in-process bus stays
// the fallback so WebSocket clients on this node always receive events.
func (s *Server) selectPublisher() events.Publisher {
	nodeID, _ := os.Hostname()
	if nodeID == "" {
		nodeID = "skald"
	}

	switch s.cfg.BusBackend {
	case config.BusRedis:
		rb := eventbus.NewRedisBus(eventbus.RedisConfig{
			Addr:     s.cfg.RedisAddr,
			Password: s.cfg.RedisPassword,
			DB:       s.cfg.RedisDB,
		}, nodeID, s.bus, s.logger)
		s.DeferClose(rb.Close)
		return rb
	case config.BusNATS:
		nb, err := eventbus.NewNATSBus(s.cfg.NATSURL, nodeID, s.bus, s.logger)
		if err != nil {
			s.logger.Error().Err(err).Msg("NATS unavailable, using in-process bus")
			return s.bus
		}
		s.DeferClose(nb.Close)
		return nb
	default:
		return s.bus
	}
}

func (s *Server) configureRoutes() {
	s.api.Routes(s.router)
	s.router.Handle("/metrics", telemetry.Handler())
	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}

func (s *Server) startBackgroundWorkers() {
	ctx, cancel := context.WithCancel(context.Background())
	s.bgCancel = cancel

	s.bgWG.Add(1)
	go func() {
		defer s.bgWG.Done()
		if err := s.scheduler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error().Err(err).Msg("job scheduler exited")
		}
	}()
}

func (s *Server) stopBackgroundWorkers() {
	if s.bgCancel != nil {
		s.bgCancel()
	}
	s.bgWG.Wait()
}

// HTTPServer returns the configured HTTP server for the caller to run.
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
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
