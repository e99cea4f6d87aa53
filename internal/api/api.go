/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package api exposes the HTTP control surface: now-playing and history
// queries, rotation rule and schedule management, queue inspection, and the
// engine mixer panel.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/friendsincode/skald_radio/internal/config"
	"github.com/friendsincode/skald_radio/internal/events"
	"github.com/friendsincode/skald_radio/internal/liquidsoap"
	"github.com/friendsincode/skald_radio/internal/rotation"
)

// API exposes HTTP handlers.
type API struct {
	db         *gorm.DB
	engine     *liquidsoap.Client
	dispatcher *rotation.Dispatcher
	cfg        *config.Config
	bus        *events.Bus
	logger     zerolog.Logger
}

// New creates the API router wrapper.
func New(db *gorm.DB, engine *liquidsoap.Client, dispatcher *rotation.Dispatcher, cfg *config.Config, bus *events.Bus, logger zerolog.Logger) *API {
	return &API{
		db:         db,
		engine:     engine,
		dispatcher: dispatcher,
		cfg:        cfg,
		bus:        bus,
		logger:     logger.With().Str("component", "api").Logger(),
	}
}

// Routes mounts API routes on the provided router.
func (a *API) Routes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", a.handleHealth)

		r.Get("/nowplaying", a.handleNowPlaying)
		r.Get("/history", a.handleHistory)
		r.Get("/listeners", a.handleListeners)

		r.Route("/rules", func(r chi.Router) {
			r.Get("/", a.handleRulesList)
			r.Post("/", a.handleRulesCreate)
			r.Route("/{ruleID}", func(r chi.Router) {
				r.Get("/", a.handleRulesGet)
				r.Patch("/", a.handleRulesUpdate)
				r.Delete("/", a.handleRulesDelete)
				r.Get("/state", a.handleRuleState)
			})
		})

		r.Route("/shows", func(r chi.Router) {
			r.Get("/", a.handleShowsList)
			r.Post("/", a.handleShowsCreate)
			r.Route("/{showID}", func(r chi.Router) {
				r.Get("/", a.handleShowsGet)
				r.Delete("/", a.handleShowsDelete)
			})
		})

		r.Route("/schedules", func(r chi.Router) {
			r.Get("/", a.handleSchedulesList)
			r.Post("/", a.handleSchedulesCreate)
			r.Route("/{scheduleID}", func(r chi.Router) {
				r.Get("/", a.handleSchedulesGet)
				r.Patch("/", a.handleSchedulesUpdate)
				r.Delete("/", a.handleSchedulesDelete)
			})
		})

		r.Route("/queue", func(r chi.Router) {
			r.Get("/", a.handleQueueList)
			r.Post("/push", a.handleQueuePush)
			r.Post("/skip", a.handleQueueSkip)
			r.Post("/clear", a.handleQueueClear)
		})

		r.Route("/engine", func(r chi.Router) {
			r.Get("/status", a.handleEngineStatus)
			r.Post("/bed", a.handleBedControl)
			r.Post("/duck", a.handleDuckControl)
			r.Post("/jingle", a.handleJingleControl)
			r.Post("/mic", a.handleMicControl)
			r.Post("/crossfade", a.handleCrossfadeControl)
		})
	})

	r.Get("/ws/nowplaying", a.handleNowPlayingWS)
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	sqlDB, err := a.db.DB()
	if err != nil || sqlDB.PingContext(r.Context()) != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "database": "down"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}
