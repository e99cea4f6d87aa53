/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package db

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/friendsincode/skald_radio/internal/models"
)

func TestMigrateAndSeed(t *testing.T) {
	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	if err := Migrate(database); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if err := Seed(database); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	var np models.NowPlaying
	if err := database.First(&np, models.NowPlayingID).Error; err != nil {
		t.Fatalf("now playing singleton missing: %v", err)
	}
	if np.Title != "Nothing playing" {
		t.Errorf("Title = %q", np.Title)
	}

	var settings models.StreamSettings
	if err := database.First(&settings, models.StreamSettingsID).Error; err != nil {
		t.Fatalf("stream settings singleton missing: %v", err)
	}
	if settings.StationName != "Skald Radio" {
		t.Errorf("StationName = %q", settings.StationName)
	}

	// Seeding again must not duplicate or overwrite.
	settings.StationName = "Renamed"
	database.Save(&settings)
	if err := Seed(database); err != nil {
		t.Fatalf("second Seed: %v", err)
	}
	database.First(&settings, models.StreamSettingsID)
	if settings.StationName != "Renamed" {
		t.Error("second seed overwrote operator settings")
	}

	var count int64
	database.Model(&models.NowPlaying{}).Count(&count)
	if count != 1 {
		t.Errorf("now playing rows = %d, want 1", count)
	}
}
