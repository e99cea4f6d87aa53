//go:build integration

/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package integration exercises the full rotation pipeline against a fake
// engine: track changes detected by the poller drive the after_songs counter,
// which pushes insertion content back to the engine.
package integration

import (
	"bufio"
	"context"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/friendsincode/skald_radio/internal/config"
	"github.com/friendsincode/skald_radio/internal/db"
	"github.com/friendsincode/skald_radio/internal/events"
	"github.com/friendsincode/skald_radio/internal/liquidsoap"
	"github.com/friendsincode/skald_radio/internal/models"
	"github.com/friendsincode/skald_radio/internal/poller"
	"github.com/friendsincode/skald_radio/internal/rotation"
)

// scriptedEngine plays a sequence of current tracks and records pushes.
type scriptedEngine struct {
	listener net.Listener

	mu       sync.Mutex
	metadata string
	pushes   []string
}

func newScriptedEngine(t *testing.T) *scriptedEngine {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	se := &scriptedEngine{listener: listener}
	go se.serve()
	t.Cleanup(func() { listener.Close() })
	return se
}

func (se *scriptedEngine) serve() {
	for {
		conn, err := se.listener.Accept()
		if err != nil {
			return
		}
		go func(conn net.Conn) {
			defer conn.Close()
			line, err := bufio.NewReader(conn).ReadString('\n')
			if err != nil {
				return
			}
			command := strings.TrimSpace(line)

			se.mu.Lock()
			defer se.mu.Unlock()
			switch {
			case strings.HasSuffix(command, ".metadata") && !strings.HasPrefix(command, "request."):
				resp := se.metadata
				if resp == "" {
					resp = "END"
				}
				conn.Write([]byte(resp))
			case strings.Contains(command, ".push "):
				se.pushes = append(se.pushes, command)
				conn.Write([]byte("42\nEND"))
			default:
				conn.Write([]byte("OK\nEND"))
			}
		}(conn)
	}
}

func (se *scriptedEngine) playTrack(filename, onAir string) {
	se.mu.Lock()
	defer se.mu.Unlock()
	se.metadata = "--- 1 ---\n" +
		"filename=\"" + filename + "\"\n" +
		"title=\"" + filename + "\"\n" +
		"on_air=\"" + onAir + "\"\n" +
		"END"
}

func (se *scriptedEngine) pushCount() int {
	se.mu.Lock()
	defer se.mu.Unlock()
	return len(se.pushes)
}

func TestAfterSongsEndToEnd(t *testing.T) {
	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.Migrate(database); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := db.Seed(database); err != nil {
		t.Fatalf("seed: %v", err)
	}

	se := newScriptedEngine(t)
	cfg := &config.Config{
		EngineSource:         "Radio_Automation",
		EngineMediaPrefix:    "/media",
		PrimaryCategory:      "music",
		ModerationCategories: []string{"random-moderation"},
	}

	// A jingle to insert and the rule that inserts it every 3 songs.
	database.Create(&models.AudioFile{
		ID:       uuid.NewString(),
		Filename: "station-id.mp3",
		Path:     "/media/jingles/station-id.mp3",
		Category: "jingles",
		IsActive: true,
	})
	database.Create(&models.RotationRule{
		ID:            uuid.NewString(),
		Name:          "station id every 3 songs",
		RuleType:      models.RuleAfterSongs,
		Category:      "jingles",
		IntervalValue: 3,
		DaysOfWeek:    "0,1,2,3,4,5,6",
		IsActive:      true,
	})

	engine := liquidsoap.New(se.listener.Addr().String(), time.Second, zerolog.Nop())
	bus := events.NewBus()
	dispatcher := rotation.NewDispatcher(database, engine, cfg, bus, zerolog.Nop())
	counter := rotation.NewSongCounter(database, dispatcher, zerolog.Nop())
	p := poller.New(database, engine, counter, bus, cfg, zerolog.Nop())
	ctx := context.Background()

	// Three songs play back to back; each is polled more than once.
	songs := []string{"one.mp3", "two.mp3", "three.mp3"}
	for i, song := range songs {
		onAir := time.Date(2026, 8, 30, 10, i*4, 0, 0, time.UTC).Format("2006/01/02 15:04:05")
		se.playTrack("/media/music/"+song, onAir)
		p.Tick(ctx)
		p.Tick(ctx) // repeated poll of the same track must not double count
	}

	if got := se.pushCount(); got != 1 {
		t.Fatalf("pushes after 3 songs = %d, want exactly 1 jingle insertion", got)
	}

	var history int64
	database.Model(&models.PlayHistory{}).Count(&history)
	if history != 3 {
		t.Fatalf("play history rows = %d, want 3", history)
	}

	var state models.RuleState
	if err := database.First(&state).Error; err != nil {
		t.Fatalf("rule state missing: %v", err)
	}
	if state.SongCounter != 0 {
		t.Fatalf("counter after firing = %d, want reset to 0", state.SongCounter)
	}

	// Three more songs fire it again.
	for i, song := range []string{"four.mp3", "five.mp3", "six.mp3"} {
		onAir := time.Date(2026, 8, 30, 11, i*4, 0, 0, time.UTC).Format("2006/01/02 15:04:05")
		se.playTrack("/media/music/"+song, onAir)
		p.Tick(ctx)
	}
	if got := se.pushCount(); got != 2 {
		t.Fatalf("pushes after 6 songs = %d, want 2", got)
	}
}
