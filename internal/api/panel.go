/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"net/http"
)

type bedControlRequest struct {
	Enabled   *bool    `json:"enabled"`
	Volume    *float64 `json:"volume"`
	DuckLevel *float64 `json:"duck_level"`
}

type duckControlRequest struct {
	Active bool `json:"active"`
}

type jingleControlRequest struct {
	Play   string   `json:"play"`
	Volume *float64 `json:"volume"`
}

type micControlRequest struct {
	Enabled  *bool    `json:"enabled"`
	Volume   *float64 `json:"volume"`
	AutoDuck *bool    `json:"auto_duck"`
}

type crossfadeControlRequest struct {
	Params map[string]float64 `json:"params"`
	Reload bool               `json:"reload"`
}

// handleEngineStatus aggregates the mixer panels in one round of engine calls.
func (a *API) handleEngineStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	writeJSON(w, http.StatusOK, map[string]any{
		"moderation": a.engine.GetModerationStatus(ctx),
		"bed":        a.engine.GetBedStatus(ctx),
		"mic":        a.engine.GetMicStatus(ctx),
		"crossfade":  a.engine.GetCrossfadeStatus(ctx),
		"ducking":    a.engine.GetDuckingStatus(ctx),
	})
}

func (a *API) handleBedControl(w http.ResponseWriter, r *http.Request) {
	var req bedControlRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}

	ctx := r.Context()
	ok := true
	if req.Enabled != nil {
		ok = a.engine.SetBedEnabled(ctx, *req.Enabled) && ok
	}
	if req.Volume != nil {
		ok = a.engine.SetBedVolume(ctx, *req.Volume) && ok
	}
	if req.DuckLevel != nil {
		ok = a.engine.SetBedDuckLevel(ctx, *req.DuckLevel) && ok
	}
	if !ok {
		writeError(w, http.StatusBadGateway, "engine_command_failed")
		return
	}
	writeJSON(w, http.StatusOK, a.engine.GetBedStatus(ctx))
}

func (a *API) handleDuckControl(w http.ResponseWriter, r *http.Request) {
	var req duckControlRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	if !a.engine.SetDucking(r.Context(), req.Active) {
		writeError(w, http.StatusBadGateway, "engine_command_failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"active": req.Active})
}

func (a *API) handleJingleControl(w http.ResponseWriter, r *http.Request) {
	var req jingleControlRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}

	ctx := r.Context()
	ok := true
	if req.Volume != nil {
		ok = a.engine.SetJingleVolume(ctx, *req.Volume)
	}
	if req.Play != "" {
		ok = a.engine.PlayInstantJingle(ctx, req.Play) && ok
	}
	if !ok {
		writeError(w, http.StatusBadGateway, "engine_command_failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) handleMicControl(w http.ResponseWriter, r *http.Request) {
	var req micControlRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}

	ctx := r.Context()
	ok := true
	if req.Enabled != nil {
		ok = a.engine.SetMicEnabled(ctx, *req.Enabled) && ok
	}
	if req.Volume != nil {
		ok = a.engine.SetMicVolume(ctx, *req.Volume) && ok
	}
	if req.AutoDuck != nil {
		ok = a.engine.SetMicAutoDuck(ctx, *req.AutoDuck) && ok
	}
	if !ok {
		writeError(w, http.StatusBadGateway, "engine_command_failed")
		return
	}
	writeJSON(w, http.StatusOK, a.engine.GetMicStatus(ctx))
}

var crossfadeParams = map[string]bool{
	"music_fade_in":       true,
	"music_fade_out":      true,
	"jingle_fade_in":      true,
	"jingle_fade_out":     true,
	"moderation_fade_in":  true,
	"moderation_fade_out": true,
}

func (a *API) handleCrossfadeControl(w http.ResponseWriter, r *http.Request) {
	var req crossfadeControlRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}

	ctx := r.Context()
	for param, seconds := range req.Params {
		if !crossfadeParams[param] {
			writeError(w, http.StatusBadRequest, "unknown_crossfade_param")
			return
		}
		if !a.engine.SetCrossfadeParam(ctx, param, seconds) {
			writeError(w, http.StatusBadGateway, "engine_command_failed")
			return
		}
	}
	if req.Reload {
		if !a.engine.ReloadCrossfade(ctx) {
			writeError(w, http.StatusBadGateway, "engine_command_failed")
			return
		}
	}
	writeJSON(w, http.StatusOK, a.engine.GetCrossfadeStatus(ctx))
}
