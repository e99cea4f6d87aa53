/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package poller detects track changes by polling the engine's metadata dump
// and reconciles them into durable now-playing and play-history records.
package poller

import (
	"context"
	"errors"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/friendsincode/skald_radio/internal/config"
	"github.com/friendsincode/skald_radio/internal/events"
	"github.com/friendsincode/skald_radio/internal/liquidsoap"
	"github.com/friendsincode/skald_radio/internal/models"
	"github.com/friendsincode/skald_radio/internal/rotation"
	"github.com/friendsincode/skald_radio/internal/telemetry"
)

// Poller polls the engine for the current track. Change detection compares
// the filename+on_air identity against the persisted NowPlaying.TrackKey, so
// polling faster than tracks change is a harmless no-op and a restart cannot
// re-log the track that was already recorded.
type Poller struct {
	db          *gorm.DB
	engine      *liquidsoap.Client
	songCounter *rotation.SongCounter
	bus         events.Publisher
	cfg         *config.Config
	logger      zerolog.Logger
	now         func() time.Time
}

// New creates a track-change poller.
func New(db *gorm.DB, engine *liquidsoap.Client, songCounter *rotation.SongCounter, bus events.Publisher, cfg *config.Config, logger zerolog.Logger) *Poller {
	return &Poller{
		db:          db,
		engine:      engine,
		songCounter: songCounter,
		bus:         bus,
		cfg:         cfg,
		logger:      logger.With().Str("component", "track_poller").Logger(),
		now:         time.Now,
	}
}

// Tick performs one poll cycle. Every failure degrades to "skip this cycle";
// the next tick retries naturally.
func (p *Poller) Tick(ctx context.Context) {
	ctx, span := telemetry.StartSpan(ctx, "poller", "Tick")
	defer span.End()
	telemetry.TrackPollsTotal.Inc()

	meta, err := p.engine.SourceMetadata(ctx, p.cfg.EngineSource)
	if err != nil {
		// Already logged by the client; treated as "did not happen".
		return
	}
	if meta.Filename == "" {
		p.logger.Debug().Msg("no filename in metadata, skipping")
		return
	}

	var np models.NowPlaying
	if err := p.db.WithContext(ctx).First(&np, models.NowPlayingID).Error; err != nil {
		telemetry.RecordError(span, err)
		p.logger.Error().Err(err).Msg("failed to load now-playing state")
		return
	}

	trackKey := meta.Key()
	if trackKey == np.TrackKey {
		return // same track, nothing to do
	}

	p.logger.Info().Str("filename", meta.Filename).Msg("new track detected")

	resolved := p.resolve(ctx, meta)
	startedAt := p.now()

	err = p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if resolved.file != nil {
			resolved.file.PlayCount++
			lp := startedAt
			resolved.file.LastPlayed = &lp
			if err := tx.Save(resolved.file).Error; err != nil {
				return err
			}
		}

		np.Title = resolved.title
		np.Artist = resolved.artist
		np.Filename = resolved.filename
		np.Category = resolved.category
		np.Duration = resolved.duration
		np.StartedAt = startedAt
		np.AudioFileID = resolved.fileID
		np.TrackKey = trackKey
		if err := tx.Save(&np).Error; err != nil {
			return err
		}

		history := models.PlayHistory{
			ID:          uuid.NewString(),
			AudioFileID: resolved.fileID,
			Filename:    resolved.filename,
			Title:       resolved.title,
			Artist:      resolved.artist,
			Category:    resolved.category,
			TriggeredBy: "rotation",
			PlayedAt:    startedAt,
		}
		return tx.Create(&history).Error
	})
	if err != nil {
		telemetry.RecordError(span, err)
		p.logger.Error().Err(err).Str("filename", resolved.filename).Msg("failed to persist track change")
		return
	}

	telemetry.TrackChangesTotal.Inc()

	// Only primary rotation tracks advance the after_songs counters; a
	// jingle must not count as a song.
	if resolved.category == p.cfg.PrimaryCategory || resolved.category == "" {
		p.songCounter.OnTrackPlayed(ctx)
	}

	p.publish(ctx, np)
}

// resolvedTrack merges engine metadata with catalog data. Catalog values
// override raw engine metadata; engine metadata is the fallback.
type resolvedTrack struct {
	title    string
	artist   string
	filename string
	category string
	duration int
	file     *models.AudioFile
	fileID   *string
}

func (p *Poller) resolve(ctx context.Context, meta liquidsoap.TrackMetadata) resolvedTrack {
	out := resolvedTrack{
		title:    meta.Title,
		artist:   meta.Artist,
		filename: path.Base(meta.Filename),
		category: p.categoryFromPath(meta.Filename),
	}

	var file models.AudioFile
	err := p.db.WithContext(ctx).First(&file, "filename = ?", out.filename).Error
	switch {
	case err == nil:
		if file.Title != "" {
			out.title = file.Title
		}
		if file.Artist != "" {
			out.artist = file.Artist
		}
		if file.Category != "" {
			out.category = file.Category
		}
		out.duration = file.Duration
		out.file = &file
		out.fileID = &file.ID
	case errors.Is(err, gorm.ErrRecordNotFound):
		// unknown to the catalog, keep engine metadata
	default:
		p.logger.Warn().Err(err).Str("filename", out.filename).Msg("catalog lookup failed")
	}

	if out.title == "" {
		out.title = out.filename
	}
	return out
}

// categoryFromPath derives the category from the engine-reported path, e.g.
// /media/jingles/foo.mp3 -> jingles.
func (p *Poller) categoryFromPath(full string) string {
	prefix := strings.TrimSuffix(p.cfg.EngineMediaPrefix, "/") + "/"
	if !strings.HasPrefix(full, prefix) {
		return ""
	}
	rest := strings.TrimPrefix(full, prefix)
	if i := strings.IndexByte(rest, '/'); i > 0 {
		return rest[:i]
	}
	return ""
}

func (p *Poller) publish(ctx context.Context, np models.NowPlaying) {
	var settings models.StreamSettings
	if err := p.db.WithContext(ctx).First(&settings, models.StreamSettingsID).Error; err != nil {
		p.logger.Warn().Err(err).Msg("failed to load stream settings for broadcast")
	}

	showName := settings.DefaultShowName
	if settings.CurrentShowID != nil {
		var show models.Show
		if err := p.db.WithContext(ctx).First(&show, "id = ?", *settings.CurrentShowID).Error; err == nil {
			showName = show.Name
		}
	}

	p.bus.Publish(events.EventNowPlaying, events.Payload{
		"title":      np.Title,
		"artist":     np.Artist,
		"filename":   np.Filename,
		"category":   np.Category,
		"duration":   np.Duration,
		"show":       showName,
		"station":    settings.StationName,
		"started_at": np.StartedAt.Format(time.RFC3339),
	})
}
