/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package rotation

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/skald_radio/internal/models"
)

func intPtr(v int) *int       { return &v }
func strPtr(s string) *string { return &s }

func TestAtMinuteFiresOncePerHour(t *testing.T) {
	db := testDB(t)
	dispatcher, pr := testDispatcher(t, db)
	seedAudioFile(t, db, "jingles")
	seedRule(t, db, models.RotationRule{
		Name:         "top of hour jingle",
		RuleType:     models.RuleAtMinute,
		Category:     "jingles",
		MinuteOfHour: intPtr(15),
	})

	e := NewEvaluator(db, dispatcher, zerolog.Nop())
	base := time.Date(2026, 8, 24, 10, 15, 0, 0, time.UTC) // a Monday

	e.now = func() time.Time { return base }
	e.Tick(context.Background())
	// Second tick in the same minute of the same hour must not re-fire.
	e.now = func() time.Time { return base.Add(20 * time.Second) }
	e.Tick(context.Background())

	if got := len(pr.pushes()); got != 1 {
		t.Fatalf("pushes in same hour = %d, want 1", got)
	}

	// Same minute in the next hour fires again.
	e.now = func() time.Time { return base.Add(time.Hour) }
	e.Tick(context.Background())
	if got := len(pr.pushes()); got != 2 {
		t.Fatalf("pushes after next hour = %d, want 2", got)
	}

	// Off-minute tick never fires.
	e.now = func() time.Time { return base.Add(time.Hour + 5*time.Minute) }
	e.Tick(context.Background())
	if got := len(pr.pushes()); got != 2 {
		t.Fatalf("pushes after off-minute tick = %d, want 2", got)
	}
}

func TestIntervalRuleSpacing(t *testing.T) {
	db := testDB(t)
	dispatcher, pr := testDispatcher(t, db)
	seedAudioFile(t, db, "ads")
	seedRule(t, db, models.RotationRule{
		Name:          "ad break",
		RuleType:      models.RuleInterval,
		Category:      "ads",
		IntervalValue: 30,
	})

	e := NewEvaluator(db, dispatcher, zerolog.Nop())
	base := time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC)

	// First evaluation fires immediately (no previous trigger).
	e.now = func() time.Time { return base }
	e.Tick(context.Background())
	if got := len(pr.pushes()); got != 1 {
		t.Fatalf("initial pushes = %d, want 1", got)
	}

	// 29 minutes later: not yet.
	e.now = func() time.Time { return base.Add(29 * time.Minute) }
	e.Tick(context.Background())
	if got := len(pr.pushes()); got != 1 {
		t.Fatalf("pushes before interval elapsed = %d, want 1", got)
	}

	// 30 minutes later: fires.
	e.now = func() time.Time { return base.Add(30 * time.Minute) }
	e.Tick(context.Background())
	if got := len(pr.pushes()); got != 2 {
		t.Fatalf("pushes after interval elapsed = %d, want 2", got)
	}
}

func TestEvaluatorSkipsAfterSongsRules(t *testing.T) {
	db := testDB(t)
	dispatcher, pr := testDispatcher(t, db)
	seedAudioFile(t, db, "jingles")
	seedRule(t, db, models.RotationRule{
		Name:          "every three songs",
		RuleType:      models.RuleAfterSongs,
		Category:      "jingles",
		IntervalValue: 3,
	})

	e := NewEvaluator(db, dispatcher, zerolog.Nop())
	e.now = func() time.Time { return time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC) }
	e.Tick(context.Background())

	if got := len(pr.pushes()); got != 0 {
		t.Fatalf("after_songs rule fired from timer path, pushes = %d", got)
	}
}

func TestRuleGating(t *testing.T) {
	// 2026-08-24 is a Monday; stored weekday 0.
	monday := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	sunday := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		rule models.RotationRule
		at   time.Time
		want bool
	}{
		{
			name: "no constraints",
			rule: models.RotationRule{},
			at:   monday,
			want: false,
		},
		{
			name: "matching day",
			rule: models.RotationRule{DaysOfWeek: "0,2,4"},
			at:   monday,
			want: false,
		},
		{
			name: "wrong day",
			rule: models.RotationRule{DaysOfWeek: "0,2,4"},
			at:   sunday,
			want: true,
		},
		{
			name: "inside time window",
			rule: models.RotationRule{TimeStart: strPtr("09:00"), TimeEnd: strPtr("17:00")},
			at:   monday,
			want: false,
		},
		{
			name: "window boundaries inclusive",
			rule: models.RotationRule{TimeStart: strPtr("12:00"), TimeEnd: strPtr("12:00")},
			at:   monday,
			want: false,
		},
		{
			name: "outside time window",
			rule: models.RotationRule{TimeStart: strPtr("13:00"), TimeEnd: strPtr("17:00")},
			at:   monday,
			want: true,
		},
		{
			name: "inverted window never opens",
			rule: models.RotationRule{TimeStart: strPtr("22:00"), TimeEnd: strPtr("02:00")},
			at:   monday,
			want: true,
		},
		{
			name: "unparseable times ignored",
			rule: models.RotationRule{TimeStart: strPtr("bogus"), TimeEnd: strPtr("17:00")},
			at:   monday,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ruleGated(tt.rule, tt.at); got != tt.want {
				t.Errorf("ruleGated() = %v, want %v", got, tt.want)
			}
		})
	}
}
