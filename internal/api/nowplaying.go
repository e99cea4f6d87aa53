/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/friendsincode/skald_radio/internal/models"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

func (a *API) handleNowPlaying(w http.ResponseWriter, r *http.Request) {
	var np models.NowPlaying
	if err := a.db.WithContext(r.Context()).First(&np, models.NowPlayingID).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "now_playing_unavailable")
		return
	}

	var settings models.StreamSettings
	a.db.WithContext(r.Context()).First(&settings, models.StreamSettingsID)

	writeJSON(w, http.StatusOK, map[string]any{
		"title":      np.Title,
		"artist":     np.Artist,
		"filename":   np.Filename,
		"category":   np.Category,
		"duration":   np.Duration,
		"started_at": np.StartedAt,
		"station":    settings.StationName,
		"show":       settings.DefaultShowName,
	})
}

func (a *API) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultHistoryLimit)
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	offset := queryInt(r, "offset", 0)

	q := a.db.WithContext(r.Context()).Model(&models.PlayHistory{})
	if cat := r.URL.Query().Get("category"); cat != "" {
		q = q.Where("category = ?", cat)
	}
	if since := r.URL.Query().Get("since"); since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_since")
			return
		}
		q = q.Where("played_at >= ?", t)
	}

	var total int64
	q.Count(&total)

	var entries []models.PlayHistory
	if err := q.Order("played_at DESC").Limit(limit).Offset(offset).Find(&entries).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "history_query_failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"total":   total,
		"entries": entries,
	})
}

func (a *API) handleListeners(w http.ResponseWriter, r *http.Request) {
	hours := queryInt(r, "hours", 24)
	if hours < 1 || hours > 24*30 {
		hours = 24
	}
	cutoff := time.Now().Add(-time.Duration(hours) * time.Hour)

	var samples []models.ListenerSample
	if err := a.db.WithContext(r.Context()).
		Where("captured_at >= ?", cutoff).
		Order("captured_at ASC").
		Find(&samples).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "listeners_query_failed")
		return
	}

	current := 0
	if len(samples) > 0 {
		current = samples[len(samples)-1].Listeners
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"current": current,
		"samples": samples,
	})
}

func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return def
	}
	return v
}
