/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package scheduler runs the named fixed-interval background jobs. Jobs on
// different timers run concurrently; overlapping runs of the same job are
// skipped, because an interleaved run could double-fire a rotation rule.
package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/skald_radio/internal/telemetry"
)

// Job is one periodic task.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context)

	busy atomic.Bool
}

// Service drives the registered jobs until its context is cancelled.
type Service struct {
	jobs   []*Job
	logger zerolog.Logger
}

// New creates an empty job scheduler.
func New(logger zerolog.Logger) *Service {
	return &Service{logger: logger.With().Str("component", "scheduler").Logger()}
}

// Add registers a job. Must be called before Run.
func (s *Service) Add(name string, interval time.Duration, run func(ctx context.Context)) {
	s.jobs = append(s.jobs, &Job{Name: name, Interval: interval, Run: run})
}

// Run executes all job loops until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	for _, job := range s.jobs {
		wg.Add(1)
		go func(job *Job) {
			defer wg.Done()
			s.loop(ctx, job)
		}(job)
	}

	s.logger.Info().Int("jobs", len(s.jobs)).Msg("job scheduler started")
	<-ctx.Done()
	wg.Wait()
	s.logger.Info().Msg("job scheduler stopped")
	return ctx.Err()
}

func (s *Service) loop(ctx context.Context, job *Job) {
	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	s.logger.Debug().Str("job", job.Name).Dur("interval", job.Interval).Msg("job loop started")
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx, job)
		}
	}
}

// runOnce executes one job tick with the overlap guard.
func (s *Service) runOnce(ctx context.Context, job *Job) {
	if !job.busy.CompareAndSwap(false, true) {
		telemetry.JobOverlapSkipsTotal.WithLabelValues(job.Name).Inc()
		s.logger.Warn().Str("job", job.Name).Msg("previous run still active, skipping tick")
		return
	}
	defer job.busy.Store(false)

	telemetry.JobRunsTotal.WithLabelValues(job.Name).Inc()
	start := time.Now()
	job.Run(ctx)
	telemetry.JobDuration.WithLabelValues(job.Name).Observe(time.Since(start).Seconds())
}
