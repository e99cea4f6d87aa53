/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package models

import "time"

// RepeatType defines how a schedule recurs.
type RepeatType string

const (
	RepeatOnce   RepeatType = "once"
	RepeatDaily  RepeatType = "daily"
	RepeatWeekly RepeatType = "weekly"
)

// Show is an ordered set of audio items enqueued together.
type Show struct {
	ID          string     `gorm:"type:uuid;primaryKey"`
	Name        string     `gorm:"index"`
	Description string     `gorm:"type:text"`
	Items       []ShowItem `gorm:"foreignKey:ShowID"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ShowItem is one positioned element of a show.
type ShowItem struct {
	ID          string `gorm:"type:uuid;primaryKey"`
	ShowID      string `gorm:"type:uuid;index"`
	AudioFileID string `gorm:"type:uuid"`
	Position    int
	AudioFile   *AudioFile `gorm:"foreignKey:AudioFileID"`
}

// Schedule queues a show at an absolute time, optionally repeating.
// LastRun is set only after the show items were enqueued; a once-schedule is
// deactivated on fire so it can never re-fire for the same timestamp.
type Schedule struct {
	ID            string     `gorm:"type:uuid;primaryKey"`
	ShowID        string     `gorm:"type:uuid;index"`
	ScheduledTime time.Time  `gorm:"index"`
	RepeatType    RepeatType `gorm:"type:varchar(16)"`
	DaysOfWeek    string     `gorm:"type:varchar(16)"` // weekly only, comma separated 0-6
	IsActive      bool       `gorm:"index"`
	LastRun       *time.Time
	Show          *Show `gorm:"foreignKey:ShowID"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
