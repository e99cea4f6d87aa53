/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package liquidsoap

import (
	"regexp"
	"strconv"
	"strings"
)

// TrackMetadata is the subset of engine metadata the poller cares about.
type TrackMetadata struct {
	Title    string
	Artist   string
	Filename string
	RID      string
	Source   string
	OnAir    string
}

// Key returns the composite track identity used for change detection. The
// RID alone is unreliable across crossfades, so the filename is combined
// with the on-air marker.
func (m TrackMetadata) Key() string {
	return m.Filename + "_" + m.OnAir
}

var sectionHeaderRe = regexp.MustCompile(`---\s*(\d+)\s*---`)

// metadataSection is one numbered block of a `<source>.metadata` dump.
type metadataSection struct {
	num  int
	body string
}

// splitSections slices the dump at each `--- N ---` header. Each body runs
// to the next header or the END terminator.
func splitSections(response string) []metadataSection {
	headers := sectionHeaderRe.FindAllStringSubmatchIndex(response, -1)
	sections := make([]metadataSection, 0, len(headers))
	for i, h := range headers {
		num, err := strconv.Atoi(response[h[2]:h[3]])
		if err != nil {
			continue
		}
		end := len(response)
		if i+1 < len(headers) {
			end = headers[i+1][0]
		}
		body := response[h[1]:end]
		if cut := strings.Index(body, Terminator); cut >= 0 {
			body = body[:cut]
		}
		sections = append(sections, metadataSection{num: num, body: body})
	}
	return sections
}

// ParseMetadataSections extracts the most recent metadata block from a
// `<source>.metadata` dump. Sections are numbered with the lowest number
// being the most recent; the lowest-numbered section containing a filename
// wins. When no section has a filename, the first non-empty section is used
// as a best-effort fallback, and the zero value is returned when nothing
// parses at all.
func ParseMetadataSections(response string) TrackMetadata {
	sections := splitSections(response)

	best := ""
	bestNum := -1
	for _, s := range sections {
		if strings.Contains(s.body, "filename=") && (bestNum < 0 || s.num < bestNum) {
			bestNum = s.num
			best = s.body
		}
	}
	if best == "" {
		for _, s := range sections {
			if strings.TrimSpace(s.body) != "" {
				best = s.body
				break
			}
		}
	}
	if best == "" {
		return TrackMetadata{}
	}

	fields := ParseKeyValues(best)
	return TrackMetadata{
		Title:    fields["title"],
		Artist:   fields["artist"],
		Filename: fields["filename"],
		RID:      fields["rid"],
		Source:   fields["source"],
		OnAir:    fields["on_air"],
	}
}

// ParseKeyValues parses newline separated key="value" pairs. Malformed lines
// are skipped; the result is always usable.
func ParseKeyValues(block string) map[string]string {
	out := make(map[string]string)
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		eq := strings.IndexByte(line, '=')
		if eq <= 0 {
			continue
		}
		key := strings.TrimSpace(strings.Trim(line[:eq], `"`))
		value := strings.Trim(strings.TrimSpace(line[eq+1:]), `"`)
		if key != "" {
			out[key] = value
		}
	}
	return out
}

// ParseStatusPairs parses the comma separated key=value strings returned by
// the `*.status` commands, after stripping the terminator and line breaks.
func ParseStatusPairs(response string) map[string]string {
	cleaned := strings.NewReplacer(Terminator, "", "\r", "", "\n", "").Replace(response)
	out := make(map[string]string)
	for _, part := range strings.Split(cleaned, ",") {
		eq := strings.IndexByte(part, '=')
		if eq <= 0 {
			continue
		}
		key := strings.TrimSpace(part[:eq])
		value := strings.TrimSpace(part[eq+1:])
		if key != "" {
			out[key] = value
		}
	}
	return out
}

func pairBool(pairs map[string]string, key string, def bool) bool {
	if v, ok := pairs[key]; ok {
		return strings.EqualFold(v, "true")
	}
	return def
}

func pairFloat(pairs map[string]string, key string, def float64) float64 {
	if v, ok := pairs[key]; ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			return parsed
		}
	}
	return def
}
