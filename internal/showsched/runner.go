/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package showsched fires show schedules whose start time has arrived,
// independent of rotation rules.
package showsched

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/friendsincode/skald_radio/internal/events"
	"github.com/friendsincode/skald_radio/internal/models"
	"github.com/friendsincode/skald_radio/internal/rotation"
	"github.com/friendsincode/skald_radio/internal/telemetry"
)

// rerunGuard is how recently a schedule may have run and still be skipped.
// It must exceed the tolerance window so one firing cannot match twice.
const rerunGuard = 2 * time.Minute

// Runner checks show schedules on a fixed timer with a tolerance window
// around now, enqueues the show's items in stored order, and advances or
// deactivates the schedule.
type Runner struct {
	db         *gorm.DB
	dispatcher *rotation.Dispatcher
	bus        events.Publisher
	window     time.Duration
	logger     zerolog.Logger
	now        func() time.Time
}

// New creates a schedule runner. window is the tolerance around "now" used
// to catch schedules between ticks.
func New(db *gorm.DB, dispatcher *rotation.Dispatcher, bus events.Publisher, window time.Duration, logger zerolog.Logger) *Runner {
	if window <= 0 {
		window = time.Minute
	}
	return &Runner{
		db:         db,
		dispatcher: dispatcher,
		bus:        bus,
		window:     window,
		logger:     logger.With().Str("component", "schedule_runner").Logger(),
		now:        time.Now,
	}
}

// Tick fires all matching schedules once. A failure in one schedule does not
// abort the others.
func (r *Runner) Tick(ctx context.Context) {
	ctx, span := telemetry.StartSpan(ctx, "showsched", "Tick")
	defer span.End()

	now := r.now()
	windowStart := now.Add(-r.window)
	windowEnd := now.Add(r.window)

	var schedules []models.Schedule
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND scheduled_time >= ? AND scheduled_time <= ?", true, windowStart, windowEnd).
		Find(&schedules).Error
	if err != nil {
		telemetry.RecordError(span, err)
		r.logger.Error().Err(err).Msg("failed to load schedules")
		return
	}

	for _, schedule := range schedules {
		if err := r.fire(ctx, schedule, now); err != nil {
			r.logger.Warn().Err(err).Str("schedule", schedule.ID).Msg("schedule firing failed")
		}
	}
}

func (r *Runner) fire(ctx context.Context, schedule models.Schedule, now time.Time) error {
	// Guard against re-firing inside the tolerance window.
	if schedule.LastRun != nil && now.Sub(*schedule.LastRun) < rerunGuard {
		return nil
	}

	if schedule.RepeatType == models.RepeatWeekly && schedule.DaysOfWeek != "" {
		if !scheduleDay(schedule.DaysOfWeek, now) {
			return nil
		}
	}

	var show models.Show
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Items.AudioFile").
		First(&show, "id = ?", schedule.ShowID).Error
	if err != nil {
		return err
	}

	enqueued := 0
	for _, item := range show.Items {
		if item.AudioFile == nil {
			continue
		}
		if r.dispatcher.EnqueuePath(ctx, item.AudioFile.Category, item.AudioFile.Path) {
			enqueued++
		}
	}

	// LastRun is set only after the items were enqueued.
	t := now
	schedule.LastRun = &t
	switch schedule.RepeatType {
	case models.RepeatDaily:
		schedule.ScheduledTime = schedule.ScheduledTime.Add(24 * time.Hour)
	case models.RepeatWeekly:
		schedule.ScheduledTime = schedule.ScheduledTime.Add(7 * 24 * time.Hour)
	case models.RepeatOnce:
		schedule.IsActive = false
	}
	if err := r.db.WithContext(ctx).Save(&schedule).Error; err != nil {
		return err
	}

	telemetry.ScheduleFiresTotal.Inc()
	r.logger.Info().
		Str("schedule", schedule.ID).
		Str("show", show.Name).
		Int("items", enqueued).
		Msg("schedule fired")

	r.bus.Publish(events.EventScheduleFired, events.Payload{
		"schedule_id": schedule.ID,
		"show":        show.Name,
		"items":       enqueued,
	})
	return nil
}

// scheduleDay reports whether now's weekday (Monday=0) is in the stored set.
func scheduleDay(daysOfWeek string, now time.Time) bool {
	weekday := (int(now.Weekday()) + 6) % 7
	for _, part := range strings.Split(daysOfWeek, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if d, err := strconv.Atoi(part); err == nil && d == weekday {
			return true
		}
	}
	return false
}
