/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package liquidsoap

import (
	"context"
	"fmt"
	"path"
	"strings"
)

// Queue names exposed by the engine. The moderation queue plays ahead of the
// normal rotation queue.
const (
	QueueNormal     = "queue"
	QueueModeration = "moderation_queue"
)

// BedStatus describes the music bed mixer state.
type BedStatus struct {
	Enabled   bool    `json:"enabled"`
	Volume    float64 `json:"volume"`
	DuckLevel float64 `json:"duck_level"`
}

// MicStatus describes the microphone input state.
type MicStatus struct {
	Enabled  bool    `json:"enabled"`
	Volume   float64 `json:"volume"`
	AutoDuck bool    `json:"auto_duck"`
}

// ModerationStatus aggregates the moderation panel state.
type ModerationStatus struct {
	BedEnabled    bool    `json:"bed_enabled"`
	DuckingActive bool    `json:"ducking_active"`
	BedVolume     float64 `json:"bed_volume"`
	DuckingLevel  float64 `json:"ducking_level"`
	JingleVolume  float64 `json:"jingle_volume"`
	MicEnabled    bool    `json:"mic_enabled"`
	MicVolume     float64 `json:"mic_volume"`
	MicAutoDuck   bool    `json:"mic_auto_duck"`
}

// CrossfadeStatus holds per-content-type fade durations in seconds.
type CrossfadeStatus struct {
	MusicFadeIn       float64 `json:"music_fade_in"`
	MusicFadeOut      float64 `json:"music_fade_out"`
	JingleFadeIn      float64 `json:"jingle_fade_in"`
	JingleFadeOut     float64 `json:"jingle_fade_out"`
	ModerationFadeIn  float64 `json:"moderation_fade_in"`
	ModerationFadeOut float64 `json:"moderation_fade_out"`
}

// SourceMetadata fetches and parses the metadata dump for a playback source.
func (c *Client) SourceMetadata(ctx context.Context, source string) (TrackMetadata, error) {
	resp, err := c.Send(ctx, source+".metadata")
	if err != nil {
		return TrackMetadata{}, err
	}
	if IsEngineError(resp) {
		return TrackMetadata{}, fmt.Errorf("engine error reading %s metadata", source)
	}
	return ParseMetadataSections(resp), nil
}

// QueueRIDs lists the request ids currently waiting in a queue.
func (c *Client) QueueRIDs(ctx context.Context, queue string) ([]string, error) {
	resp, err := c.Send(ctx, queue+".queue")
	if err != nil {
		return nil, err
	}
	if IsEngineError(resp) {
		return nil, fmt.Errorf("engine error listing %s", queue)
	}
	var rids []string
	for _, line := range strings.Split(resp, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || line == Terminator || !isDigits(line) {
			continue
		}
		rids = append(rids, line)
	}
	return rids, nil
}

// RequestMetadata fetches the metadata for one queued request id. The title
// falls back to the filename base when the engine reports none.
func (c *Client) RequestMetadata(ctx context.Context, rid string) (map[string]string, error) {
	resp, err := c.Send(ctx, "request.metadata "+rid)
	if err != nil {
		return nil, err
	}
	if IsEngineError(resp) {
		return nil, fmt.Errorf("engine error reading request %s", rid)
	}
	fields := ParseKeyValues(resp)
	fields["rid"] = rid
	if fields["title"] == "" && fields["filename"] != "" {
		fields["title"] = path.Base(fields["filename"])
	}
	return fields, nil
}

// Skip advances past the current queue item.
func (c *Client) Skip(ctx context.Context) bool {
	return c.command(ctx, QueueNormal+".skip")
}

// FlushAndSkip drains a queue and skips to empty it.
func (c *Client) FlushAndSkip(ctx context.Context, queue string) bool {
	return c.command(ctx, queue+".flush_and_skip")
}

// SetBedEnabled toggles the music bed.
func (c *Client) SetBedEnabled(ctx context.Context, enabled bool) bool {
	return c.command(ctx, onOff("bed", enabled))
}

// SetBedVolume sets bed volume, clamped to [0,1].
func (c *Client) SetBedVolume(ctx context.Context, volume float64) bool {
	return c.command(ctx, fmt.Sprintf("bed.volume %g", clamp01(volume)))
}

// SetBedDuckLevel sets the bed ducking level, clamped to [0,1].
func (c *Client) SetBedDuckLevel(ctx context.Context, level float64) bool {
	return c.command(ctx, fmt.Sprintf("bed.duck_level %g", clamp01(level)))
}

// GetBedStatus reads the bed panel state, degrading to defaults on failure.
func (c *Client) GetBedStatus(ctx context.Context) BedStatus {
	status := BedStatus{Volume: 0.3, DuckLevel: 0.15}
	resp, err := c.Send(ctx, "bed.status")
	if err != nil || IsEngineError(resp) {
		return status
	}
	pairs := ParseStatusPairs(resp)
	status.Enabled = pairBool(pairs, "enabled", status.Enabled)
	status.Volume = pairFloat(pairs, "volume", status.Volume)
	status.DuckLevel = pairFloat(pairs, "duck_level", status.DuckLevel)
	return status
}

// SetDucking activates or releases bed ducking.
func (c *Client) SetDucking(ctx context.Context, active bool) bool {
	return c.command(ctx, onOff("duck", active))
}

// GetDuckingStatus reports whether ducking is currently active.
func (c *Client) GetDuckingStatus(ctx context.Context) bool {
	resp, err := c.Send(ctx, "duck.status")
	if err != nil || IsEngineError(resp) {
		return false
	}
	return pairBool(ParseStatusPairs(resp), "active", false)
}

// PlayInstantJingle plays a jingle immediately over the stream.
func (c *Client) PlayInstantJingle(ctx context.Context, filepath string) bool {
	return c.command(ctx, "jingle.play "+filepath)
}

// SetJingleVolume sets instant jingle volume, clamped to [0,1].
func (c *Client) SetJingleVolume(ctx context.Context, volume float64) bool {
	return c.command(ctx, fmt.Sprintf("jingle.volume %g", clamp01(volume)))
}

// SetMicEnabled toggles the microphone input.
func (c *Client) SetMicEnabled(ctx context.Context, enabled bool) bool {
	return c.command(ctx, onOff("mic", enabled))
}

// SetMicVolume sets microphone volume, clamped to [0,1].
func (c *Client) SetMicVolume(ctx context.Context, volume float64) bool {
	return c.command(ctx, fmt.Sprintf("mic.volume %g", clamp01(volume)))
}

// SetMicAutoDuck toggles automatic bed ducking while the mic is open.
func (c *Client) SetMicAutoDuck(ctx context.Context, enabled bool) bool {
	return c.command(ctx, fmt.Sprintf("mic.auto_duck %t", enabled))
}

// GetMicStatus reads the microphone state, degrading to defaults on failure.
func (c *Client) GetMicStatus(ctx context.Context) MicStatus {
	status := MicStatus{Volume: 1.0, AutoDuck: true}
	resp, err := c.Send(ctx, "mic.status")
	if err != nil || IsEngineError(resp) {
		return status
	}
	pairs := ParseStatusPairs(resp)
	status.Enabled = pairBool(pairs, "enabled", status.Enabled)
	status.Volume = pairFloat(pairs, "volume", status.Volume)
	status.AutoDuck = pairBool(pairs, "auto_duck", status.AutoDuck)
	return status
}

// GetModerationStatus reads the aggregate moderation panel state.
func (c *Client) GetModerationStatus(ctx context.Context) ModerationStatus {
	status := ModerationStatus{
		BedVolume:    0.3,
		DuckingLevel: 0.15,
		JingleVolume: 1.0,
		MicVolume:    1.0,
		MicAutoDuck:  true,
	}
	resp, err := c.Send(ctx, "moderation.status")
	if err != nil || IsEngineError(resp) {
		return status
	}
	pairs := ParseStatusPairs(resp)
	status.BedEnabled = pairBool(pairs, "bed_enabled", status.BedEnabled)
	status.DuckingActive = pairBool(pairs, "ducking", status.DuckingActive)
	status.BedVolume = pairFloat(pairs, "bed_vol", status.BedVolume)
	status.DuckingLevel = pairFloat(pairs, "duck_level", status.DuckingLevel)
	status.JingleVolume = pairFloat(pairs, "jingle_vol", status.JingleVolume)
	status.MicEnabled = pairBool(pairs, "mic_enabled", status.MicEnabled)
	status.MicVolume = pairFloat(pairs, "mic_vol", status.MicVolume)
	status.MicAutoDuck = pairBool(pairs, "mic_auto_duck", status.MicAutoDuck)
	return status
}

// SetCrossfadeParam sets one crossfade parameter, e.g. music_fade_in.
func (c *Client) SetCrossfadeParam(ctx context.Context, param string, seconds float64) bool {
	return c.command(ctx, fmt.Sprintf("crossfade.%s %g", param, seconds))
}

// ReloadCrossfade asks the engine to reload crossfade settings from disk.
func (c *Client) ReloadCrossfade(ctx context.Context) bool {
	return c.command(ctx, "crossfade.reload")
}

// GetCrossfadeStatus reads current fade durations, degrading to defaults.
func (c *Client) GetCrossfadeStatus(ctx context.Context) CrossfadeStatus {
	status := CrossfadeStatus{MusicFadeIn: 0.5, MusicFadeOut: 0.5}
	resp, err := c.Send(ctx, "crossfade.status")
	if err != nil || IsEngineError(resp) {
		return status
	}
	pairs := ParseStatusPairs(resp)
	status.MusicFadeIn = pairFloat(pairs, "music_in", status.MusicFadeIn)
	status.MusicFadeOut = pairFloat(pairs, "music_out", status.MusicFadeOut)
	status.JingleFadeIn = pairFloat(pairs, "jingle_in", status.JingleFadeIn)
	status.JingleFadeOut = pairFloat(pairs, "jingle_out", status.JingleFadeOut)
	status.ModerationFadeIn = pairFloat(pairs, "mod_in", status.ModerationFadeIn)
	status.ModerationFadeOut = pairFloat(pairs, "mod_out", status.ModerationFadeOut)
	return status
}

// command sends a fire-and-forget control command; success means the engine
// answered without an error marker.
func (c *Client) command(ctx context.Context, cmd string) bool {
	resp, err := c.Send(ctx, cmd)
	return err == nil && !IsEngineError(resp)
}

func onOff(namespace string, on bool) string {
	if on {
		return namespace + ".on"
	}
	return namespace + ".off"
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
