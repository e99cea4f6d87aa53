/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package housekeeping prunes aged rows so the database stays bounded.
package housekeeping

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/friendsincode/skald_radio/internal/models"
)

type Service struct {
	db        *gorm.DB
	retention time.Duration
	logger    zerolog.Logger

	now func() time.Time
}

func New(db *gorm.DB, retention time.Duration, logger zerolog.Logger) *Service {
	if retention <= 0 {
		retention = 30 * 24 * time.Hour
	}
	return &Service{
		db:        db,
		retention: retention,
		logger:    logger.With().Str("component", "housekeeping").Logger(),
		now:       time.Now,
	}
}

// Tick removes play history older than the retention window.
func (s *Service) Tick(ctx context.Context) {
	cutoff := s.now().Add(-s.retention)

	res := s.db.WithContext(ctx).
		Where("played_at < ?", cutoff).
		Delete(&models.PlayHistory{})
	if res.Error != nil {
		s.logger.Error().Err(res.Error).Msg("failed to prune play history")
		return
	}
	if res.RowsAffected > 0 {
		s.logger.Info().
			Int64("rows", res.RowsAffected).
			Time("cutoff", cutoff).
			Msg("pruned play history")
	}
}
