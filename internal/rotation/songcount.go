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

// SongCounter advances the after_songs rule counters. It is invoked
// synchronously from the track-change poller, once per detected change of a
// primary-rotation track, so each qualifying song advances each matching
// rule's counter by exactly one.
type SongCounter struct {
	db         *gorm.DB
	dispatcher *Dispatcher
	logger     zerolog.Logger
	now        func() time.Time
}

// NewSongCounter creates the after_songs trigger.
func NewSongCounter(db *gorm.DB, dispatcher *Dispatcher, logger zerolog.Logger) *SongCounter {
	return &SongCounter{
		db:         db,
		dispatcher: dispatcher,
		logger:     logger.With().Str("component", "song_counter").Logger(),
		now:        time.Now,
	}
}

// OnTrackPlayed increments the counter of every active, non-gated
// after_songs rule and fires those whose threshold is reached. The counter
// reset is persisted before the enqueue: a failed push is not rolled back,
// which avoids a burst of repeated firing on engine trouble.
func (s *SongCounter) OnTrackPlayed(ctx context.Context) {
	ctx, span := telemetry.StartSpan(ctx, "rotation", "songcounter.OnTrackPlayed")
	defer span.End()

	now := s.now()

	var rules []models.RotationRule
	err := s.db.WithContext(ctx).
		Where("rule_type = ? AND is_active = ?", models.RuleAfterSongs, true).
		Find(&rules).Error
	if err != nil {
		telemetry.RecordError(span, err)
		telemetry.RuleErrorsTotal.WithLabelValues("load_rules").Inc()
		s.logger.Error().Err(err).Msg("failed to load after_songs rules")
		return
	}

	for _, rule := range rules {
		if rule.IntervalValue <= 0 || ruleGated(rule, now) {
			continue
		}

		fire := false
		count := 0
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			state, err := ruleStateForUpdate(tx, rule.ID)
			if err != nil {
				return err
			}
			state.SongCounter++
			count = state.SongCounter
			if state.SongCounter >= rule.IntervalValue {
				state.SongCounter = 0
				fire = true
			}
			return tx.Save(state).Error
		})
		if err != nil {
			telemetry.RuleErrorsTotal.WithLabelValues("counter").Inc()
			s.logger.Warn().Err(err).Str("rule", rule.Name).Msg("song counter update failed")
			continue
		}

		if fire {
			telemetry.RuleFiresTotal.WithLabelValues(string(models.RuleAfterSongs)).Inc()
			s.logger.Info().
				Str("rule", rule.Name).
				Str("category", rule.Category).
				Int("after_songs", count).
				Msg("after_songs rule fired")
			s.dispatcher.EnqueueCategory(ctx, rule.Category)
		} else {
			s.logger.Debug().
				Str("rule", rule.Name).
				Int("count", count).
				Int("threshold", rule.IntervalValue).
				Msg("song counter advanced")
		}
	}
}
