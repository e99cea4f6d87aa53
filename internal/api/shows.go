/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/friendsincode/skald_radio/internal/models"
)

type showRequest struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	AudioFileIDs []string `json:"audio_file_ids"`
}

type scheduleRequest struct {
	ShowID        string `json:"show_id"`
	ScheduledTime string `json:"scheduled_time"`
	RepeatType    string `json:"repeat_type"`
	DaysOfWeek    string `json:"days_of_week"`
	IsActive      *bool  `json:"is_active"`
}

func (a *API) handleShowsList(w http.ResponseWriter, r *http.Request) {
	var shows []models.Show
	if err := a.db.WithContext(r.Context()).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Order("name ASC").
		Find(&shows).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "shows_query_failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"shows": shows})
}

func (a *API) handleShowsCreate(w http.ResponseWriter, r *http.Request) {
	var req showRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name_required")
		return
	}

	show := models.Show{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
	}
	for i, fileID := range req.AudioFileIDs {
		show.Items = append(show.Items, models.ShowItem{
			ID:          uuid.NewString(),
			ShowID:      show.ID,
			AudioFileID: fileID,
			Position:    i,
		})
	}

	if err := a.db.WithContext(r.Context()).Create(&show).Error; err != nil {
		a.logger.Error().Err(err).Msg("failed to create show")
		writeError(w, http.StatusInternalServerError, "show_create_failed")
		return
	}
	writeJSON(w, http.StatusCreated, show)
}

func (a *API) handleShowsGet(w http.ResponseWriter, r *http.Request) {
	var show models.Show
	err := a.db.WithContext(r.Context()).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Items.AudioFile").
		First(&show, "id = ?", chi.URLParam(r, "showID")).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeError(w, http.StatusNotFound, "show_not_found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "show_query_failed")
		return
	}
	writeJSON(w, http.StatusOK, show)
}

func (a *API) handleShowsDelete(w http.ResponseWriter, r *http.Request) {
	showID := chi.URLParam(r, "showID")
	err := a.db.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Schedule{}).Where("show_id = ? AND is_active = ?", showID, true).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return errShowScheduled
		}
		if err := tx.Delete(&models.ShowItem{}, "show_id = ?", showID).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Show{}, "id = ?", showID).Error
	})
	if errors.Is(err, errShowScheduled) {
		writeError(w, http.StatusConflict, "show_has_active_schedules")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "show_delete_failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

var errShowScheduled = errors.New("show has active schedules")

func (a *API) handleSchedulesList(w http.ResponseWriter, r *http.Request) {
	q := a.db.WithContext(r.Context()).Model(&models.Schedule{}).Preload("Show")
	if r.URL.Query().Get("active") == "true" {
		q = q.Where("is_active = ?", true)
	}
	var schedules []models.Schedule
	if err := q.Order("scheduled_time ASC").Find(&schedules).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "schedules_query_failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"schedules": schedules})
}

func (a *API) handleSchedulesCreate(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}

	scheduledAt, err := time.Parse(time.RFC3339, req.ScheduledTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_scheduled_time")
		return
	}
	repeat := models.RepeatType(req.RepeatType)
	switch repeat {
	case models.RepeatOnce, models.RepeatDaily, models.RepeatWeekly:
	case "":
		repeat = models.RepeatOnce
	default:
		writeError(w, http.StatusBadRequest, "invalid_repeat_type")
		return
	}

	var show models.Show
	if err := a.db.WithContext(r.Context()).First(&show, "id = ?", req.ShowID).Error; err != nil {
		writeError(w, http.StatusBadRequest, "show_not_found")
		return
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	schedule := models.Schedule{
		ID:            uuid.NewString(),
		ShowID:        req.ShowID,
		ScheduledTime: scheduledAt,
		RepeatType:    repeat,
		DaysOfWeek:    req.DaysOfWeek,
		IsActive:      active,
	}
	if err := a.db.WithContext(r.Context()).Create(&schedule).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "schedule_create_failed")
		return
	}

	a.logger.Info().
		Str("schedule_id", schedule.ID).
		Str("show", show.Name).
		Time("at", scheduledAt).
		Msg("schedule created")
	writeJSON(w, http.StatusCreated, schedule)
}

func (a *API) handleSchedulesGet(w http.ResponseWriter, r *http.Request) {
	var schedule models.Schedule
	err := a.db.WithContext(r.Context()).
		Preload("Show").
		First(&schedule, "id = ?", chi.URLParam(r, "scheduleID")).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeError(w, http.StatusNotFound, "schedule_not_found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "schedule_query_failed")
		return
	}
	writeJSON(w, http.StatusOK, schedule)
}

func (a *API) handleSchedulesUpdate(w http.ResponseWriter, r *http.Request) {
	var schedule models.Schedule
	err := a.db.WithContext(r.Context()).First(&schedule, "id = ?", chi.URLParam(r, "scheduleID")).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeError(w, http.StatusNotFound, "schedule_not_found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "schedule_query_failed")
		return
	}

	var req scheduleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	if req.ScheduledTime != "" {
		t, err := time.Parse(time.RFC3339, req.ScheduledTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_scheduled_time")
			return
		}
		schedule.ScheduledTime = t
	}
	if req.RepeatType != "" {
		schedule.RepeatType = models.RepeatType(req.RepeatType)
	}
	if req.DaysOfWeek != "" {
		schedule.DaysOfWeek = req.DaysOfWeek
	}
	if req.IsActive != nil {
		schedule.IsActive = *req.IsActive
	}

	if err := a.db.WithContext(r.Context()).Save(&schedule).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "schedule_update_failed")
		return
	}
	writeJSON(w, http.StatusOK, schedule)
}

func (a *API) handleSchedulesDelete(w http.ResponseWriter, r *http.Request) {
	if err := a.db.WithContext(r.Context()).Delete(&models.Schedule{}, "id = ?", chi.URLParam(r, "scheduleID")).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "schedule_delete_failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
