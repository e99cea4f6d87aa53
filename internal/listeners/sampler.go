/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package listeners

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/friendsincode/skald_radio/internal/events"
	"github.com/friendsincode/skald_radio/internal/models"
	"github.com/friendsincode/skald_radio/internal/telemetry"
)

// Sampler periodically captures listener snapshots for trend analytics.
type Sampler struct {
	db        *gorm.DB
	client    *Client
	bus       events.Publisher
	logger    zerolog.Logger
	retention time.Duration
	now       func() time.Time
}

// NewSampler creates a listener snapshot sampler.
func NewSampler(db *gorm.DB, client *Client, bus events.Publisher, retention time.Duration, logger zerolog.Logger) *Sampler {
	if retention <= 0 {
		retention = 30 * 24 * time.Hour
	}
	return &Sampler{
		db:        db,
		client:    client,
		bus:       bus,
		logger:    logger.With().Str("component", "listener_sampler").Logger(),
		retention: retention,
		now:       time.Now,
	}
}

// Tick captures one snapshot and prunes expired ones.
func (s *Sampler) Tick(ctx context.Context) {
	now := s.now()

	count, err := s.client.Count(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to read listener count")
		return
	}

	telemetry.ListenersGauge.Set(float64(count))

	sample := models.ListenerSample{
		ID:         uuid.NewString(),
		Mountpoint: s.client.mountpoint,
		Listeners:  count,
		CapturedAt: now.UTC(),
		CreatedAt:  now.UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&sample).Error; err != nil {
		s.logger.Warn().Err(err).Msg("failed to store listener snapshot")
		return
	}

	s.bus.Publish(events.EventListenerStats, events.Payload{
		"listeners":   count,
		"captured_at": now.UTC().Format(time.RFC3339),
	})

	cutoff := now.Add(-s.retention).UTC()
	if err := s.db.WithContext(ctx).Where("captured_at < ?", cutoff).Delete(&models.ListenerSample{}).Error; err != nil {
		s.logger.Warn().Err(err).Msg("failed to prune old listener samples")
	}
}
