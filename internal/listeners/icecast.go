/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package listeners reads listener counts from the streaming server's JSON
// status endpoint.
package listeners

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Client reads the Icecast status-json.xsl document.
type Client struct {
	baseURL    string
	mountpoint string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates an Icecast status client. mountpoint filters the counted
// sources; empty means sum across all of them.
func NewClient(baseURL, mountpoint string, logger zerolog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		mountpoint: mountpoint,
		httpClient: &http.Client{
			Timeout:   5 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger.With().Str("component", "icecast").Logger(),
	}
}

// status mirrors the status-json.xsl document. The source field may be
// absent, a single object, or an array; sourceList absorbs all three.
type status struct {
	Icestats struct {
		Source sourceList `json:"source"`
	} `json:"icestats"`
}

type source struct {
	Listeners  int    `json:"listeners"`
	ListenURL  string `json:"listenurl"`
	ServerName string `json:"server_name"`
}

type sourceList []source

func (s *sourceList) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		*s = nil
		return nil
	}
	if data[0] == '[' {
		var list []source
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*s = list
		return nil
	}
	var single source
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	*s = sourceList{single}
	return nil
}

// Count returns the summed listener count. Any failure returns 0 with the
// error; callers treat that as "no data this cycle".
func (c *Client) Count(ctx context.Context) (int, error) {
	url := c.baseURL + "/status-json.xsl"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("build status request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fetch icecast status: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("icecast status returned %d", resp.StatusCode)
	}

	var doc status
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return 0, fmt.Errorf("decode icecast status: %w", err)
	}

	total := 0
	for _, src := range doc.Icestats.Source {
		if c.mountpoint != "" && !strings.HasSuffix(src.ListenURL, "/"+c.mountpoint) {
			continue
		}
		total += src.Listeners
	}
	return total, nil
}
