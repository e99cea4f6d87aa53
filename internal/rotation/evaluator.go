/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package rotation

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/friendsincode/skald_radio/internal/models"
	"github.com/friendsincode/skald_radio/internal/telemetry"
)

// Evaluator checks the declarative rotation rules on a fixed timer. It owns
// the at_minute and interval rule types; after_songs rules are driven by the
// track-change event path (SongCounter) and are explicitly skipped here so a
// rule can never double fire.
type Evaluator struct {
	db         *gorm.DB
	dispatcher *Dispatcher
	logger     zerolog.Logger
	now        func() time.Time
}

// NewEvaluator creates a rotation rule evaluator.
func NewEvaluator(db *gorm.DB, dispatcher *Dispatcher, logger zerolog.Logger) *Evaluator {
	return &Evaluator{
		db:         db,
		dispatcher: dispatcher,
		logger:     logger.With().Str("component", "rotation_evaluator").Logger(),
		now:        time.Now,
	}
}

// Tick evaluates all active rules once. Priority orders the pass but is
// advisory only; every eligible rule fires independently. A failure in one
// rule never aborts the remaining rules.
func (e *Evaluator) Tick(ctx context.Context) {
	ctx, span := telemetry.StartSpan(ctx, "rotation", "evaluator.Tick")
	defer span.End()
	telemetry.RotationTicksTotal.Inc()

	now := e.now()

	var rules []models.RotationRule
	err := e.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("priority DESC").
		Find(&rules).Error
	if err != nil {
		telemetry.RecordError(span, err)
		telemetry.RuleErrorsTotal.WithLabelValues("load_rules").Inc()
		e.logger.Error().Err(err).Msg("failed to load rotation rules")
		return
	}

	for _, rule := range rules {
		if rule.RuleType == models.RuleAfterSongs {
			// Handled on track-change events only.
			continue
		}
		if ruleGated(rule, now) {
			continue
		}

		fire, err := e.advanceCursor(ctx, rule, now)
		if err != nil {
			telemetry.RuleErrorsTotal.WithLabelValues("cursor").Inc()
			e.logger.Warn().Err(err).Str("rule", rule.Name).Msg("rule cursor update failed")
			continue
		}
		if !fire {
			continue
		}

		telemetry.RuleFiresTotal.WithLabelValues(string(rule.RuleType)).Inc()
		e.logger.Info().
			Str("rule", rule.Name).
			Str("rule_type", string(rule.RuleType)).
			Str("category", rule.Category).
			Msg("rotation rule fired")
		e.dispatcher.EnqueueCategory(ctx, rule.Category)
	}
}

// advanceCursor decides whether rule fires now and persists the new cursor
// in the same transaction. The cursor is written before the enqueue happens:
// a failed push is a lost opportunity, not a reason to re-fire.
func (e *Evaluator) advanceCursor(ctx context.Context, rule models.RotationRule, now time.Time) (bool, error) {
	fire := false
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		state, err := ruleStateForUpdate(tx, rule.ID)
		if err != nil {
			return err
		}

		switch rule.RuleType {
		case models.RuleAtMinute:
			if rule.MinuteOfHour == nil {
				return nil
			}
			bucket := hourBucket(now)
			// The matching minute can be observed by more than one tick;
			// the hour bucket keeps it to one fire per calendar hour.
			if now.Minute() == *rule.MinuteOfHour && state.HourBucket != bucket {
				state.HourBucket = bucket
				fire = true
			}

		case models.RuleInterval:
			if rule.IntervalValue <= 0 {
				return nil
			}
			if state.LastTriggerAt == nil || now.Sub(*state.LastTriggerAt) >= time.Duration(rule.IntervalValue)*time.Minute {
				t := now
				state.LastTriggerAt = &t
				fire = true
			}
		}

		if !fire {
			return nil
		}
		return tx.Save(state).Error
	})
	if err != nil {
		return false, err
	}
	return fire, nil
}
