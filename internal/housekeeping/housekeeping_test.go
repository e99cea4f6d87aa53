/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package housekeeping

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/friendsincode/skald_radio/internal/models"
)

func TestTickPrunesOldHistory(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.PlayHistory{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}

	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	for _, age := range []time.Duration{time.Hour, 29 * 24 * time.Hour, 31 * 24 * time.Hour, 60 * 24 * time.Hour} {
		db.Create(&models.PlayHistory{
			ID:       uuid.NewString(),
			Filename: "f.mp3",
			PlayedAt: now.Add(-age),
		})
	}

	s := New(db, 30*24*time.Hour, zerolog.Nop())
	s.now = func() time.Time { return now }
	s.Tick(context.Background())

	var count int64
	db.Model(&models.PlayHistory{}).Count(&count)
	if count != 2 {
		t.Fatalf("rows after prune = %d, want 2", count)
	}

	var tooOld int64
	db.Model(&models.PlayHistory{}).Where("played_at < ?", now.Add(-30*24*time.Hour)).Count(&tooOld)
	if tooOld != 0 {
		t.Error("rows older than retention survived the prune")
	}
}

func TestZeroRetentionFallsBackToDefault(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.PlayHistory{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}

	s := New(db, 0, zerolog.Nop())
	if s.retention != 30*24*time.Hour {
		t.Fatalf("retention = %v, want 30 days", s.retention)
	}
}
