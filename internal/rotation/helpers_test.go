/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package rotation

import (
	"bufio"
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
	"github.com/friendsincode/skald_radio/internal/events"
	"github.com/friendsincode/skald_radio/internal/liquidsoap"
	"github.com/friendsincode/skald_radio/internal/models"
)

// pushRecorder is a minimal engine stand-in that acknowledges every command
// and records what it received.
type pushRecorder struct {
	listener net.Listener

	mu       sync.Mutex
	commands []string
}

func newPushRecorder(t *testing.T) *pushRecorder {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	pr := &pushRecorder{listener: listener}
	go pr.serve()
	t.Cleanup(func() { listener.Close() })
	return pr
}

func (pr *pushRecorder) serve() {
	for {
		conn, err := pr.listener.Accept()
		if err != nil {
			return
		}
		go func(conn net.Conn) {
			defer conn.Close()
			line, err := bufio.NewReader(conn).ReadString('\n')
			if err != nil {
				return
			}
			pr.mu.Lock()
			pr.commands = append(pr.commands, strings.TrimSpace(line))
			pr.mu.Unlock()
			conn.Write([]byte("OK\nEND"))
		}(conn)
	}
}

func (pr *pushRecorder) pushes() []string {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	var out []string
	for _, c := range pr.commands {
		if strings.Contains(c, ".push ") {
			out = append(out, c)
		}
	}
	return out
}

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.RotationRule{}, &models.RuleState{}, &models.AudioFile{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func testConfig() *config.Config {
	return &config.Config{
		PrimaryCategory:      "music",
		ModerationCategories: []string{"random-moderation", "planned-moderation"},
	}
}

func testDispatcher(t *testing.T, db *gorm.DB) (*Dispatcher, *pushRecorder) {
	t.Helper()
	pr := newPushRecorder(t)
	engine := liquidsoap.New(pr.listener.Addr().String(), time.Second, zerolog.Nop())
	d := NewDispatcher(db, engine, testConfig(), events.NewBus(), zerolog.Nop())
	return d, pr
}

func seedAudioFile(t *testing.T, db *gorm.DB, category string) models.AudioFile {
	t.Helper()
	file := models.AudioFile{
		ID:       uuid.NewString(),
		Filename: category + "-item.mp3",
		Path:     "/media/" + category + "/" + category + "-item.mp3",
		Title:    strings.ToUpper(category) + " Item",
		Category: category,
		IsActive: true,
	}
	if err := db.Create(&file).Error; err != nil {
		t.Fatalf("seed audio file: %v", err)
	}
	return file
}

func seedRule(t *testing.T, db *gorm.DB, rule models.RotationRule) models.RotationRule {
	t.Helper()
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	rule.IsActive = true
	rule.DaysOfWeek = ruleDaysOrAll(rule.DaysOfWeek)
	if err := db.Create(&rule).Error; err != nil {
		t.Fatalf("seed rule: %v", err)
	}
	return rule
}

func ruleDaysOrAll(days string) string {
	if days == "" {
		return "0,1,2,3,4,5,6"
	}
	return days
}
