package models

import (
	"strconv"
	"strings"
	"time"
)

// RuleType enumerates rotation rule trigger kinds.
type RuleType string

const (
	RuleAfterSongs RuleType = "after_songs"
	RuleAtMinute   RuleType = "at_minute"
	RuleInterval   RuleType = "interval"
)

// RotationRule is a declarative condition for automated content insertion.
// after_songs rules are driven by track-change events only; the periodic
// evaluator skips them so a rule can never double count.
type RotationRule struct {
	ID            string   `gorm:"type:uuid;primaryKey"`
	Name          string   `gorm:"index"`
	RuleType      RuleType `gorm:"type:varchar(16);index"`
	Category      string   `gorm:"type:varchar(64);index"`
	IntervalValue int      // songs for after_songs, minutes for interval
	MinuteOfHour  *int     // at_minute only
	TimeStart     *string  `gorm:"type:varchar(5)"` // "HH:MM", set together with TimeEnd
	TimeEnd       *string  `gorm:"type:varchar(5)"`
	DaysOfWeek    string   `gorm:"type:varchar(16)"` // comma separated 0-6, Monday=0
	Priority      int
	IsActive      bool `gorm:"index"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Days parses DaysOfWeek into a weekday set.
func (r RotationRule) Days() map[int]bool {
	days := make(map[int]bool)
	for _, part := range strings.Split(r.DaysOfWeek, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if d, err := strconv.Atoi(part); err == nil && d >= 0 && d <= 6 {
			days[d] = true
		}
	}
	return days
}

// RuleState is the typed per-rule cursor: when the rule last fired and how
// many qualifying songs have played since the last after_songs fire. One row
// per rule, created on first use, updated in place. Rows for deleted rules
// are orphaned and harmless.
type RuleState struct {
	RuleID        string `gorm:"type:uuid;primaryKey"`
	LastTriggerAt *time.Time
	HourBucket    string `gorm:"type:varchar(16)"` // "2006-01-02 15" for at_minute
	SongCounter   int
	UpdatedAt     time.Time
}

// AudioFile is a catalog entry for a media asset on disk.
type AudioFile struct {
	ID         string `gorm:"type:uuid;primaryKey"`
	Filename   string `gorm:"index"`
	Path       string
	Title      string `gorm:"index"`
	Artist     string `gorm:"index"`
	Category   string `gorm:"type:varchar(64);index"`
	Duration   int    // seconds
	IsActive   bool   `gorm:"index"`
	PlayCount  int
	LastPlayed *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NowPlayingID is the fixed primary key of the NowPlaying singleton row.
const NowPlayingID = 1

// NowPlaying is the single current-track record. It is seeded once at
// process start and only ever overwritten, never deleted. TrackKey persists
// the filename+on_air identity so a restart cannot re-log the same track.
type NowPlaying struct {
	ID          int `gorm:"primaryKey"`
	Title       string
	Artist      string
	Filename    string
	Category    string `gorm:"type:varchar(64)"`
	Duration    int
	StartedAt   time.Time
	AudioFileID *string `gorm:"type:uuid"`
	TrackKey    string
	UpdatedAt   time.Time
}

// PlayHistory is the append-only log of detected track changes. Entries are
// written once and never updated or deduplicated afterwards.
type PlayHistory struct {
	ID          string  `gorm:"type:uuid;primaryKey"`
	AudioFileID *string `gorm:"type:uuid;index"`
	Filename    string
	Title       string    `gorm:"index"`
	Artist      string    `gorm:"index"`
	Category    string    `gorm:"type:varchar(64);index"`
	TriggeredBy string    `gorm:"type:varchar(32)"`
	PlayedAt    time.Time `gorm:"index"`
}

// ListenerSample is a periodic Icecast listener snapshot.
type ListenerSample struct {
	ID         string `gorm:"type:uuid;primaryKey"`
	Mountpoint string `gorm:"type:varchar(128);index"`
	Listeners  int
	CapturedAt time.Time `gorm:"index"`
	CreatedAt  time.Time
}

// StreamSettingsID is the fixed primary key of the StreamSettings singleton.
const StreamSettingsID = 1

// StreamSettings is the singleton station configuration row consumed by the
// poller and the now-playing publishers. Seeded explicitly at process start.
type StreamSettings struct {
	ID              int `gorm:"primaryKey"`
	StationName     string
	DefaultShowName string
	CurrentShowID   *string `gorm:"type:uuid"`
	UpdatedAt       time.Time
}
