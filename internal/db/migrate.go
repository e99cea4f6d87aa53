/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package db

import (
	"errors"

	"github.com/friendsincode/skald_radio/internal/models"
	"gorm.io/gorm"
)

// Migrate applies database schema migrations using GORM auto-migrate.
func Migrate(database *gorm.DB) error {
	return database.AutoMigrate(
		&models.RotationRule{},
		&models.RuleState{},
		&models.AudioFile{},
		&models.Show{},
		&models.ShowItem{},
		&models.Schedule{},
		&models.NowPlaying{},
		&models.PlayHistory{},
		&models.ListenerSample{},
		&models.StreamSettings{},
	)
}

// Seed creates the singleton rows at a defined point during startup, so no
// reader ever has to lazily materialize them.
func Seed(database *gorm.DB) error {
	var np models.NowPlaying
	err := database.First(&np, models.NowPlayingID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		np = models.NowPlaying{ID: models.NowPlayingID, Title: "Nothing playing"}
		err = database.Create(&np).Error
	}
	if err != nil {
		return err
	}

	var settings models.StreamSettings
	err = database.First(&settings, models.StreamSettingsID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		settings = models.StreamSettings{
			ID:              models.StreamSettingsID,
			StationName:     "Skald Radio",
			DefaultShowName: "Automated Rotation",
		}
		err = database.Create(&settings).Error
	}
	return err
}
