/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/friendsincode/skald_radio/internal/models"
)

type ruleRequest struct {
	Name          string  `json:"name"`
	RuleType      string  `json:"rule_type"`
	Category      string  `json:"category"`
	IntervalValue int     `json:"interval_value"`
	MinuteOfHour  *int    `json:"minute_of_hour"`
	TimeStart     *string `json:"time_start"`
	TimeEnd       *string `json:"time_end"`
	DaysOfWeek    string  `json:"days_of_week"`
	Priority      int     `json:"priority"`
	IsActive      *bool   `json:"is_active"`
}

func (req *ruleRequest) validate() string {
	switch models.RuleType(req.RuleType) {
	case models.RuleAfterSongs, models.RuleInterval:
		if req.IntervalValue < 1 {
			return "interval_value_required"
		}
	case models.RuleAtMinute:
		if req.MinuteOfHour == nil || *req.MinuteOfHour < 0 || *req.MinuteOfHour > 59 {
			return "minute_of_hour_required"
		}
	default:
		return "invalid_rule_type"
	}
	if req.Category == "" {
		return "category_required"
	}
	if (req.TimeStart == nil) != (req.TimeEnd == nil) {
		return "time_range_incomplete"
	}
	return ""
}

func (a *API) handleRulesList(w http.ResponseWriter, r *http.Request) {
	q := a.db.WithContext(r.Context()).Model(&models.RotationRule{})
	if rt := r.URL.Query().Get("rule_type"); rt != "" {
		q = q.Where("rule_type = ?", rt)
	}
	if r.URL.Query().Get("active") == "true" {
		q = q.Where("is_active = ?", true)
	}

	var rules []models.RotationRule
	if err := q.Order("priority DESC, name ASC").Find(&rules).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "rules_query_failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rules": rules})
}

func (a *API) handleRulesCreate(w http.ResponseWriter, r *http.Request) {
	var req ruleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	if code := req.validate(); code != "" {
		writeError(w, http.StatusBadRequest, code)
		return
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	rule := models.RotationRule{
		ID:            uuid.NewString(),
		Name:          req.Name,
		RuleType:      models.RuleType(req.RuleType),
		Category:      req.Category,
		IntervalValue: req.IntervalValue,
		MinuteOfHour:  req.MinuteOfHour,
		TimeStart:     req.TimeStart,
		TimeEnd:       req.TimeEnd,
		DaysOfWeek:    req.DaysOfWeek,
		Priority:      req.Priority,
		IsActive:      active,
	}
	if err := a.db.WithContext(r.Context()).Create(&rule).Error; err != nil {
		a.logger.Error().Err(err).Msg("failed to create rotation rule")
		writeError(w, http.StatusInternalServerError, "rule_create_failed")
		return
	}

	a.logger.Info().Str("rule_id", rule.ID).Str("type", string(rule.RuleType)).Msg("rotation rule created")
	writeJSON(w, http.StatusCreated, rule)
}

func (a *API) handleRulesGet(w http.ResponseWriter, r *http.Request) {
	var rule models.RotationRule
	err := a.db.WithContext(r.Context()).First(&rule, "id = ?", chi.URLParam(r, "ruleID")).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeError(w, http.StatusNotFound, "rule_not_found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "rule_query_failed")
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

// ruleUpdateRequest uses pointers where the zero value is meaningful, so a
// patch can set priority back to 0 or clear the day set.
type ruleUpdateRequest struct {
	Name          string  `json:"name"`
	Category      string  `json:"category"`
	IntervalValue int     `json:"interval_value"`
	MinuteOfHour  *int    `json:"minute_of_hour"`
	TimeStart     *string `json:"time_start"`
	TimeEnd       *string `json:"time_end"`
	DaysOfWeek    *string `json:"days_of_week"`
	Priority      *int    `json:"priority"`
	IsActive      *bool   `json:"is_active"`
}

func (a *API) handleRulesUpdate(w http.ResponseWriter, r *http.Request) {
	var rule models.RotationRule
	err := a.db.WithContext(r.Context()).First(&rule, "id = ?", chi.URLParam(r, "ruleID")).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeError(w, http.StatusNotFound, "rule_not_found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "rule_query_failed")
		return
	}

	var req ruleUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}

	if req.Name != "" {
		rule.Name = req.Name
	}
	if req.Category != "" {
		rule.Category = req.Category
	}
	if req.IntervalValue > 0 {
		rule.IntervalValue = req.IntervalValue
	}
	if req.MinuteOfHour != nil {
		rule.MinuteOfHour = req.MinuteOfHour
	}
	if req.TimeStart != nil {
		rule.TimeStart = req.TimeStart
	}
	if req.TimeEnd != nil {
		rule.TimeEnd = req.TimeEnd
	}
	if req.DaysOfWeek != nil {
		rule.DaysOfWeek = *req.DaysOfWeek
	}
	if req.Priority != nil {
		rule.Priority = *req.Priority
	}
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}

	if err := a.db.WithContext(r.Context()).Save(&rule).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "rule_update_failed")
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

func (a *API) handleRulesDelete(w http.ResponseWriter, r *http.Request) {
	ruleID := chi.URLParam(r, "ruleID")
	err := a.db.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.RotationRule{}, "id = ?", ruleID).Error; err != nil {
			return err
		}
		return tx.Delete(&models.RuleState{}, "rule_id = ?", ruleID).Error
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "rule_delete_failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleRuleState exposes the rule cursor for operator debugging.
func (a *API) handleRuleState(w http.ResponseWriter, r *http.Request) {
	var state models.RuleState
	err := a.db.WithContext(r.Context()).First(&state, "rule_id = ?", chi.URLParam(r, "ruleID")).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeError(w, http.StatusNotFound, "state_not_found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "state_query_failed")
		return
	}
	writeJSON(w, http.StatusOK, state)
}
