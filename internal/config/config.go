/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Database backend selection.
type DatabaseBackend string

const (
	DatabasePostgres DatabaseBackend = "postgres"
	DatabaseMySQL    DatabaseBackend = "mysql"
	DatabaseSQLite   DatabaseBackend = "sqlite"
)

// Event bus backend selection.
type BusBackend string

const (
	BusMemory BusBackend = "memory"
	BusRedis  BusBackend = "redis"
	BusNATS   BusBackend = "nats"
)

// Config covers process level configuration read from environment variables,
// optionally overlaid with a YAML file for the timing knobs.
type Config struct {
	Environment string
	HTTPBind    string
	HTTPPort    int
	MetricsBind string
	DBBackend   DatabaseBackend
	DBDSN       string

	// Audio engine command endpoint (line-oriented text protocol).
	EngineHost        string
	EnginePort        int
	EngineTimeout     time.Duration
	EngineSource      string // source name whose metadata dump is polled
	EngineMediaPrefix string // path prefix the engine reports, e.g. /media

	// Icecast status endpoint for listener counts.
	IcecastURL        string
	IcecastMountpoint string // empty = sum all sources

	// Rotation behaviour.
	PrimaryCategory      string
	ModerationCategories []string

	// Timer periods for the background jobs.
	RotationCheckInterval  time.Duration
	ScheduleCheckInterval  time.Duration
	TrackPollInterval      time.Duration
	ListenerSampleInterval time.Duration
	HousekeepingInterval   time.Duration

	// History/sample retention applied by the housekeeping job.
	HistoryRetention time.Duration

	// Schedule runner tolerance window around "now".
	ScheduleWindow time.Duration

	// Event bus configuration.
	BusBackend    BusBackend
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	NATSURL       string

	// Tracing configuration.
	TracingEnabled    bool
	OTLPEndpoint      string
	TracingSampleRate float64
}

// fileOverlay is the YAML shape of SKALD_CONFIG_FILE. Only the timing and
// category knobs are file-configurable; credentials stay in the environment.
type fileOverlay struct {
	RotationCheckSeconds  int      `yaml:"rotation_check_seconds"`
	ScheduleCheckSeconds  int      `yaml:"schedule_check_seconds"`
	TrackPollSeconds      int      `yaml:"track_poll_seconds"`
	ListenerSampleSeconds int      `yaml:"listener_sample_seconds"`
	HousekeepingMinutes   int      `yaml:"housekeeping_minutes"`
	HistoryRetentionDays  int      `yaml:"history_retention_days"`
	ScheduleWindowMinutes int      `yaml:"schedule_window_minutes"`
	PrimaryCategory       string   `yaml:"primary_category"`
	ModerationCategories  []string `yaml:"moderation_categories"`
	EngineSource          string   `yaml:"engine_source"`
}

// Load reads environment variables, applies defaults, applies the optional
// YAML overlay, and validates the result.
func Load() (*Config, error) {
	cfg := &Config{
		Environment: getEnv("SKALD_ENV", "development"),
		HTTPBind:    getEnv("SKALD_HTTP_BIND", "0.0.0.0"),
		HTTPPort:    getEnvInt("SKALD_HTTP_PORT", 8080),
		MetricsBind: getEnv("SKALD_METRICS_BIND", "127.0.0.1:9000"),
		DBBackend:   DatabaseBackend(getEnv("SKALD_DB_BACKEND", string(DatabaseSQLite))),
		DBDSN:       getEnv("SKALD_DB_DSN", ""),

		EngineHost:        getEnv("SKALD_ENGINE_HOST", "127.0.0.1"),
		EnginePort:        getEnvInt("SKALD_ENGINE_PORT", 1234),
		EngineTimeout:     time.Duration(getEnvInt("SKALD_ENGINE_TIMEOUT_SECONDS", 5)) * time.Second,
		EngineSource:      getEnv("SKALD_ENGINE_SOURCE", "Radio_Automation"),
		EngineMediaPrefix: getEnv("SKALD_ENGINE_MEDIA_PREFIX", "/media"),

		IcecastURL:        getEnv("SKALD_ICECAST_URL", "http://localhost:8000"),
		IcecastMountpoint: getEnv("SKALD_ICECAST_MOUNTPOINT", ""),

		PrimaryCategory:      getEnv("SKALD_PRIMARY_CATEGORY", "music"),
		ModerationCategories: splitList(getEnv("SKALD_MODERATION_CATEGORIES", "random-moderation,planned-moderation")),

		RotationCheckInterval:  time.Duration(getEnvInt("SKALD_ROTATION_CHECK_SECONDS", 30)) * time.Second,
		ScheduleCheckInterval:  time.Duration(getEnvInt("SKALD_SCHEDULE_CHECK_SECONDS", 60)) * time.Second,
		TrackPollInterval:      time.Duration(getEnvInt("SKALD_TRACK_POLL_SECONDS", 5)) * time.Second,
		ListenerSampleInterval: time.Duration(getEnvInt("SKALD_LISTENER_SAMPLE_SECONDS", 60)) * time.Second,
		HousekeepingInterval:   time.Duration(getEnvInt("SKALD_HOUSEKEEPING_MINUTES", 5)) * time.Minute,
		HistoryRetention:       time.Duration(getEnvInt("SKALD_HISTORY_RETENTION_DAYS", 30)) * 24 * time.Hour,
		ScheduleWindow:         time.Duration(getEnvInt("SKALD_SCHEDULE_WINDOW_MINUTES", 1)) * time.Minute,

		BusBackend:    BusBackend(getEnv("SKALD_BUS_BACKEND", string(BusMemory))),
		RedisAddr:     getEnv("SKALD_REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("SKALD_REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("SKALD_REDIS_DB", 0),
		NATSURL:       getEnv("SKALD_NATS_URL", "nats://localhost:4222"),

		TracingEnabled:    getEnvBool("SKALD_TRACING_ENABLED", false),
		OTLPEndpoint:      getEnv("SKALD_OTLP_ENDPOINT", "localhost:4317"),
		TracingSampleRate: getEnvFloat("SKALD_TRACING_SAMPLE_RATE", 1.0),
	}

	if path := os.Getenv("SKALD_CONFIG_FILE"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, fmt.Errorf("apply config file %s: %w", path, err)
		}
	}

	if cfg.DBBackend != DatabasePostgres && cfg.DBBackend != DatabaseMySQL && cfg.DBBackend != DatabaseSQLite {
		return nil, fmt.Errorf("unsupported database backend %q", cfg.DBBackend)
	}
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("SKALD_DB_DSN must be provided")
	}
	if cfg.BusBackend != BusMemory && cfg.BusBackend != BusRedis && cfg.BusBackend != BusNATS {
		return nil, fmt.Errorf("unsupported bus backend %q", cfg.BusBackend)
	}
	if cfg.TrackPollInterval <= 0 || cfg.RotationCheckInterval <= 0 || cfg.ScheduleCheckInterval <= 0 {
		return nil, fmt.Errorf("job intervals must be positive")
	}

	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var overlay fileOverlay
	if err := yaml.Unmarshal(raw, &overlay); err != nil {
		return err
	}

	if overlay.RotationCheckSeconds > 0 {
		c.RotationCheckInterval = time.Duration(overlay.RotationCheckSeconds) * time.Second
	}
	if overlay.ScheduleCheckSeconds > 0 {
		c.ScheduleCheckInterval = time.Duration(overlay.ScheduleCheckSeconds) * time.Second
	}
	if overlay.TrackPollSeconds > 0 {
		c.TrackPollInterval = time.Duration(overlay.TrackPollSeconds) * time.Second
	}
	if overlay.ListenerSampleSeconds > 0 {
		c.ListenerSampleInterval = time.Duration(overlay.ListenerSampleSeconds) * time.Second
	}
	if overlay.HousekeepingMinutes > 0 {
		c.HousekeepingInterval = time.Duration(overlay.HousekeepingMinutes) * time.Minute
	}
	if overlay.HistoryRetentionDays > 0 {
		c.HistoryRetention = time.Duration(overlay.HistoryRetentionDays) * 24 * time.Hour
	}
	if overlay.ScheduleWindowMinutes > 0 {
		c.ScheduleWindow = time.Duration(overlay.ScheduleWindowMinutes) * time.Minute
	}
	if overlay.PrimaryCategory != "" {
		c.PrimaryCategory = overlay.PrimaryCategory
	}
	if len(overlay.ModerationCategories) > 0 {
		c.ModerationCategories = overlay.ModerationCategories
	}
	if overlay.EngineSource != "" {
		c.EngineSource = overlay.EngineSource
	}
	return nil
}

// EngineAddr returns the host:port of the engine command endpoint.
func (c *Config) EngineAddr() string {
	return fmt.Sprintf("%s:%d", c.EngineHost, c.EnginePort)
}

// IsModerationCategory reports whether category routes to the priority queue.
func (c *Config) IsModerationCategory(category string) bool {
	for _, m := range c.ModerationCategories {
		if m == category {
			return true
		}
	}
	return false
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "true" || v == "1" || v == "yes" {
			return true
		}
		if v == "false" || v == "0" || v == "no" {
			return false
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			return parsed
		}
	}
	return def
}
