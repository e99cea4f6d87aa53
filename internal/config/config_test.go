/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SKALD_DB_DSN", "file::memory:?cache=shared")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.EngineAddr() != "127.0.0.1:1234" {
		t.Errorf("EngineAddr = %q", cfg.EngineAddr())
	}
	if cfg.EngineSource != "Radio_Automation" {
		t.Errorf("EngineSource = %q", cfg.EngineSource)
	}
	if cfg.PrimaryCategory != "music" {
		t.Errorf("PrimaryCategory = %q", cfg.PrimaryCategory)
	}
	if cfg.TrackPollInterval != 5*time.Second {
		t.Errorf("TrackPollInterval = %v", cfg.TrackPollInterval)
	}
	if cfg.HistoryRetention != 30*24*time.Hour {
		t.Errorf("HistoryRetention = %v", cfg.HistoryRetention)
	}
	if cfg.BusBackend != BusMemory {
		t.Errorf("BusBackend = %q", cfg.BusBackend)
	}
}

func TestLoadRequiresDSN(t *testing.T) {
	t.Setenv("SKALD_DB_DSN", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error when DSN is missing")
	}
}

func TestLoadRejectsUnknownBackends(t *testing.T) {
	t.Setenv("SKALD_DB_DSN", "dsn")

	t.Setenv("SKALD_DB_BACKEND", "oracle")
	if _, err := Load(); err == nil {
		t.Error("unknown database backend accepted")
	}
	t.Setenv("SKALD_DB_BACKEND", "sqlite")

	t.Setenv("SKALD_BUS_BACKEND", "kafka")
	if _, err := Load(); err == nil {
		t.Error("unknown bus backend accepted")
	}
}

func TestLoadFileOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "skald.yaml")
	overlay := "rotation_check_seconds: 10\n" +
		"track_poll_seconds: 2\n" +
		"primary_category: songs\n" +
		"moderation_categories: [priority-talk]\n"
	if err := os.WriteFile(path, []byte(overlay), 0o600); err != nil {
		t.Fatalf("write overlay: %v", err)
	}

	t.Setenv("SKALD_DB_DSN", "dsn")
	t.Setenv("SKALD_CONFIG_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RotationCheckInterval != 10*time.Second {
		t.Errorf("RotationCheckInterval = %v", cfg.RotationCheckInterval)
	}
	if cfg.TrackPollInterval != 2*time.Second {
		t.Errorf("TrackPollInterval = %v", cfg.TrackPollInterval)
	}
	if cfg.PrimaryCategory != "songs" {
		t.Errorf("PrimaryCategory = %q", cfg.PrimaryCategory)
	}
	if !cfg.IsModerationCategory("priority-talk") {
		t.Error("overlay moderation category not applied")
	}
	if cfg.IsModerationCategory("random-moderation") {
		t.Error("default moderation categories should be replaced by the overlay")
	}
}

func TestIsModerationCategory(t *testing.T) {
	cfg := &Config{ModerationCategories: []string{"random-moderation", "planned-moderation"}}

	if !cfg.IsModerationCategory("random-moderation") {
		t.Error("listed category not matched")
	}
	if cfg.IsModerationCategory("music") {
		t.Error("unlisted category matched")
	}
	if cfg.IsModerationCategory("") {
		t.Error("empty category matched")
	}
}
