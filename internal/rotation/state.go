/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package rotation implements the rule-triggered content insertion engine:
// the queue dispatcher, the periodic rule evaluator, and the song-count
// trigger driven by track-change events.
package rotation

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/friendsincode/skald_radio/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ruleStateForUpdate loads the typed cursor row for a rule inside tx,
// creating it on first use. The row is locked for the duration of the
// transaction so concurrent jobs cannot interleave a read-modify-write.
func ruleStateForUpdate(tx *gorm.DB, ruleID string) (*models.RuleState, error) {
	var state models.RuleState
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&state, "rule_id = ?", ruleID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		state = models.RuleState{RuleID: ruleID}
		if err := tx.Create(&state).Error; err != nil {
			return nil, err
		}
		return &state, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

// hourBucket formats t at hour granularity, the cursor for at_minute rules.
func hourBucket(t time.Time) string {
	return t.Format("2006-01-02 15")
}

// ruleGated reports whether rule is blocked right now by its day-of-week or
// time-of-day constraints. Time ranges are closed intervals and do not
// support crossing midnight: with time_start > time_end the gate never
// opens, matching the stored semantics rather than guessing an intent.
func ruleGated(rule models.RotationRule, now time.Time) bool {
	// Monday = 0 in stored day sets. An empty set means every day.
	weekday := (int(now.Weekday()) + 6) % 7
	if days := rule.Days(); len(days) > 0 && !days[weekday] {
		return true
	}

	if rule.TimeStart != nil && rule.TimeEnd != nil {
		start, okStart := parseClock(*rule.TimeStart)
		end, okEnd := parseClock(*rule.TimeEnd)
		if okStart && okEnd {
			current := now.Hour()*60 + now.Minute()
			if current < start || current > end {
				return true
			}
		}
	}
	return false
}

// parseClock parses "HH:MM" into minutes since midnight.
func parseClock(s string) (int, bool) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, false
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}
