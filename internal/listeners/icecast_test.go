/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package listeners

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
)

func statusServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/status-json.xsl" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCountSingleSourceObject(t *testing.T) {
	srv := statusServer(t, `{"icestats":{"source":{"listeners":7,"listenurl":"http://radio/stream"}}}`)
	c := NewClient(srv.URL, "", zerolog.Nop())

	got, err := c.Count(context.Background())
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if got != 7 {
		t.Errorf("Count = %d, want 7", got)
	}
}

func TestCountSourceArraySummed(t *testing.T) {
	srv := statusServer(t, `{"icestats":{"source":[
		{"listeners":3,"listenurl":"http://radio/stream"},
		{"listeners":5,"listenurl":"http://radio/low"}
	]}}`)
	c := NewClient(srv.URL, "", zerolog.Nop())

	got, err := c.Count(context.Background())
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if got != 8 {
		t.Errorf("Count = %d, want 8", got)
	}
}

func TestCountMountpointFilter(t *testing.T) {
	srv := statusServer(t, `{"icestats":{"source":[
		{"listeners":3,"listenurl":"http://radio/stream"},
		{"listeners":5,"listenurl":"http://radio/low"}
	]}}`)
	c := NewClient(srv.URL, "stream", zerolog.Nop())

	got, err := c.Count(context.Background())
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if got != 3 {
		t.Errorf("Count = %d, want only the stream mount", got)
	}
}

func TestCountNoSources(t *testing.T) {
	srv := statusServer(t, `{"icestats":{}}`)
	c := NewClient(srv.URL, "", zerolog.Nop())

	got, err := c.Count(context.Background())
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if got != 0 {
		t.Errorf("Count = %d, want 0", got)
	}
}

func TestCountServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)
	c := NewClient(srv.URL, "", zerolog.Nop())

	if _, err := c.Count(context.Background()); err == nil {
		t.Fatal("expected error on non-200 status")
	}
}
