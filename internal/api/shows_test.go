/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/friendsincode/skald_radio/internal/models"
)

func TestShowsCreateWithItems(t *testing.T) {
	srv, db := apiTestServer(t)

	var fileIDs []string
	for _, name := range []string{"a.mp3", "b.mp3"} {
		file := models.AudioFile{
			ID:       uuid.NewString(),
			Filename: name,
			Path:     "/media/music/" + name,
			Category: "music",
			IsActive: true,
		}
		db.Create(&file)
		fileIDs = append(fileIDs, file.ID)
	}

	resp := postJSON(t, srv.URL+"/api/v1/shows/", map[string]any{
		"name":           "Evening Mix",
		"audio_file_ids": fileIDs,
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", resp.StatusCode)
	}

	var created models.Show
	json.NewDecoder(resp.Body).Decode(&created)
	if len(created.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(created.Items))
	}
	if created.Items[0].Position != 0 || created.Items[1].Position != 1 {
		t.Error("item positions not assigned in request order")
	}
}

func TestSchedulesCreateValidatesShow(t *testing.T) {
	srv, _ := apiTestServer(t)

	resp := postJSON(t, srv.URL+"/api/v1/schedules/", map[string]any{
		"show_id":        uuid.NewString(),
		"scheduled_time": time.Now().Add(time.Hour).Format(time.RFC3339),
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for unknown show", resp.StatusCode)
	}
}

func TestSchedulesCreateDefaultsToOnce(t *testing.T) {
	srv, db := apiTestServer(t)

	show := models.Show{ID: uuid.NewString(), Name: "News"}
	db.Create(&show)

	resp := postJSON(t, srv.URL+"/api/v1/schedules/", map[string]any{
		"show_id":        show.ID,
		"scheduled_time": time.Now().Add(time.Hour).UTC().Format(time.RFC3339),
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", resp.StatusCode)
	}

	var created models.Schedule
	json.NewDecoder(resp.Body).Decode(&created)
	if created.RepeatType != models.RepeatOnce {
		t.Errorf("RepeatType = %q, want once", created.RepeatType)
	}
	if !created.IsActive {
		t.Error("schedule should default to active")
	}
}

func TestShowDeleteBlockedByActiveSchedule(t *testing.T) {
	srv, db := apiTestServer(t)

	show := models.Show{ID: uuid.NewString(), Name: "Protected"}
	db.Create(&show)
	db.Create(&models.Schedule{
		ID:            uuid.NewString(),
		ShowID:        show.ID,
		ScheduledTime: time.Now().Add(time.Hour),
		RepeatType:    models.RepeatOnce,
		IsActive:      true,
	})

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/api/v1/shows/"+show.ID+"/", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want 409", resp.StatusCode)
	}

	var count int64
	db.Model(&models.Show{}).Where("id = ?", show.ID).Count(&count)
	if count != 1 {
		t.Error("show was deleted despite active schedule")
	}
}
