/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package telemetry exposes Prometheus metrics and OpenTelemetry tracing for
// the rotation engine.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Rotation engine metrics.
	RotationTicksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "skald_rotation_ticks_total",
		Help: "Rotation rule evaluator ticks.",
	})
	RuleFiresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skald_rule_fires_total",
		Help: "Rotation rule fires by rule type.",
	}, []string{"rule_type"})
	RuleErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skald_rule_errors_total",
		Help: "Per-rule processing errors by stage.",
	}, []string{"stage"})

	// Track-change poller metrics.
	TrackPollsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "skald_track_polls_total",
		Help: "Track poll cycles executed.",
	})
	TrackChangesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "skald_track_changes_total",
		Help: "Genuine track changes detected.",
	})

	// Schedule runner metrics.
	ScheduleFiresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "skald_schedule_fires_total",
		Help: "Show schedules fired.",
	})

	// Engine command channel metrics.
	EngineCommandDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "skald_engine_command_duration_seconds",
		Help:    "End-to-end duration of engine commands.",
		Buckets: prometheus.DefBuckets,
	})
	EngineCommandErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "skald_engine_command_errors_total",
		Help: "Engine commands that failed at transport level.",
	})

	// Queue dispatcher metrics.
	EnqueuesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skald_enqueues_total",
		Help: "Queue pushes by target queue and outcome.",
	}, []string{"queue", "outcome"})

	// Job harness metrics.
	JobRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skald_job_runs_total",
		Help: "Background job invocations by job name.",
	}, []string{"job"})
	JobOverlapSkipsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skald_job_overlap_skips_total",
		Help: "Job ticks skipped because the previous run was still active.",
	}, []string{"job"})
	JobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "skald_job_duration_seconds",
		Help:    "Background job run duration.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})

	// Listener metrics.
	ListenersGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "skald_listeners",
		Help: "Current Icecast listener count.",
	})

	// HTTP API metrics.
	APIRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skald_api_requests_total",
		Help: "HTTP API requests by endpoint and status.",
	}, []string{"endpoint", "status"})
	APIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "skald_api_request_duration_seconds",
		Help:    "HTTP API request duration.",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})
	APIActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "skald_api_active_connections",
		Help: "In-flight HTTP API requests.",
	})
)

// Handler exposes the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
