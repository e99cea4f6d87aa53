/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package rotation

import (
	"context"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/friendsincode/skald_radio/internal/config"
	"github.com/friendsincode/skald_radio/internal/events"
	"github.com/friendsincode/skald_radio/internal/liquidsoap"
	"github.com/friendsincode/skald_radio/internal/models"
	"github.com/friendsincode/skald_radio/internal/telemetry"
)

// Dispatcher routes play intents to the engine's two queues. Moderation
// categories go to the priority queue, everything else to the normal
// rotation queue.
type Dispatcher struct {
	db     *gorm.DB
	engine *liquidsoap.Client
	cfg    *config.Config
	bus    events.Publisher
	logger zerolog.Logger
}

// NewDispatcher creates a queue dispatcher.
func NewDispatcher(db *gorm.DB, engine *liquidsoap.Client, cfg *config.Config, bus events.Publisher, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		db:     db,
		engine: engine,
		cfg:    cfg,
		bus:    bus,
		logger: logger.With().Str("component", "dispatcher").Logger(),
	}
}

// EnqueueCategory picks a random active catalog file from category and
// pushes it onto the appropriate queue. Returns false when no file exists or
// the engine rejected the push; the opportunity is simply lost until the
// next trigger.
func (d *Dispatcher) EnqueueCategory(ctx context.Context, category string) bool {
	var file models.AudioFile
	err := d.db.WithContext(ctx).
		Where("category = ? AND is_active = ?", category, true).
		Order("RANDOM()").
		First(&file).Error
	if err != nil {
		d.logger.Warn().Err(err).Str("category", category).Msg("no active file available for category")
		return false
	}
	return d.EnqueuePath(ctx, category, file.Path)
}

// EnqueuePath pushes a specific file onto the queue selected by category.
func (d *Dispatcher) EnqueuePath(ctx context.Context, category, path string) bool {
	queue := d.queueFor(category)

	resp, err := d.engine.Send(ctx, queue+".push "+path)
	if err != nil || liquidsoap.IsEngineError(resp) {
		telemetry.EnqueuesTotal.WithLabelValues(queue, "error").Inc()
		d.logger.Warn().Err(err).
			Str("category", category).
			Str("queue", queue).
			Str("path", path).
			Msg("queue push failed")
		return false
	}

	telemetry.EnqueuesTotal.WithLabelValues(queue, "ok").Inc()
	d.logger.Info().
		Str("category", category).
		Str("queue", queue).
		Str("path", path).
		Msg("queued file")

	d.bus.Publish(events.EventRotationFired, events.Payload{
		"category": category,
		"queue":    queue,
		"path":     path,
	})
	return true
}

// Skip advances playback immediately. Forwarded as a single command; the
// engine serializes it against any in-flight push.
func (d *Dispatcher) Skip(ctx context.Context) bool {
	return d.engine.Skip(ctx)
}

// ClearQueue empties the given queue with flush semantics.
func (d *Dispatcher) ClearQueue(ctx context.Context, queue string) bool {
	return d.engine.FlushAndSkip(ctx, queue)
}

func (d *Dispatcher) queueFor(category string) string {
	if d.cfg.IsModerationCategory(category) {
		return liquidsoap.QueueModeration
	}
	return liquidsoap.QueueNormal
}
