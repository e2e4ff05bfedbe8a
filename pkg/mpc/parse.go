package mpc

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	trackSeparator = " - "
	volumeMarker   = "volume:"
)

var statusLine = regexp.MustCompile(`#(\d+)/(\d+)\s+(\d+):(\d+)/(\d+):(\d+)\s+\((\d+)%\)`)

// ParseTrack turns the output of `mpc current` (or `mpc queued`) into a
// TrackInfo. It returns nil for empty output and for status dumps, which mpc
// prints instead of a track line when nothing is playing.
func ParseTrack(raw string) *TrackInfo {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.Contains(raw, volumeMarker) {
		return nil
	}

	line, _, _ := strings.Cut(raw, "\n")
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	artist, title := splitTrackLine(line)
	return &TrackInfo{
		Artist: artist,
		Title:  title,
		Raw:    line,
	}
}

// splitTrackLine splits "Artist - Title" on the first separator. Extra
// separators stay in the title.
func splitTrackLine(line string) (string, string) {
	artist, title, found := strings.Cut(line, trackSeparator)
	if !found {
		return UnknownArtist, line
	}

	artist = strings.TrimSpace(artist)
	title = strings.TrimSpace(title)
	if artist == "" {
		artist = UnknownArtist
	}
	if title == "" {
		title = line
	}
	return artist, title
}

// ParseTrackMeta parses the `%album%|%time%` format query. Either value may
// be absent. The time never contains a pipe, so album names may.
func ParseTrackMeta(raw string) (album *string, duration *int) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "|" {
		return nil, nil
	}

	line, _, _ := strings.Cut(raw, "\n")
	name, t := line, ""
	if i := strings.LastIndex(line, "|"); i >= 0 {
		name, t = line[:i], line[i+1:]
	}

	if name = strings.TrimSpace(name); name != "" {
		album = &name
	}
	if secs, ok := parseClock(strings.TrimSpace(t)); ok {
		duration = &secs
	}
	return album, duration
}

// parseClock accepts plain seconds, m:ss or h:mm:ss.
func parseClock(s string) (int, bool) {
	if s == "" {
		return 0, false
	}

	total := 0
	for _, part := range strings.Split(s, ":") {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return 0, false
		}
		total = total*60 + n
	}
	return total, true
}

// ParseStatus parses the output of `mpc status`.
func ParseStatus(raw string) PlaybackStatus {
	var st PlaybackStatus

	for _, line := range strings.Split(raw, "\n") {
		if strings.Contains(line, "[playing]") {
			st.IsPlaying = true
		}
		if strings.Contains(line, "[paused]") {
			st.IsPlaying = false
		}

		m := statusLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		n := make([]int, len(m)-1)
		ok := true
		for i, s := range m[1:] {
			v, err := strconv.Atoi(s)
			if err != nil {
				ok = false
				break
			}
			n[i] = v
		}
		if !ok {
			continue
		}

		elapsed := n[2]*60 + n[3]
		total := n[4]*60 + n[5]
		st.Position = &n[0]
		st.QueueLength = &n[1]
		st.Elapsed = &elapsed
		st.Total = &total
		st.Percentage = &n[6]
	}

	return st
}

// ParseStats parses the `Key: Value` report of `mpc stats`. Keys are
// lowercased with spaces replaced by underscores. Values keep any colons they
// contain, so "Play Time: 0 days, 3:00:00" survives intact.
func ParseStats(raw string) map[string]string {
	stats := make(map[string]string)

	for _, line := range strings.Split(raw, "\n") {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key == "" || value == "" {
			continue
		}
		stats[strings.ReplaceAll(strings.ToLower(key), " ", "_")] = value
	}

	return stats
}

// ParseHistory parses the `mpc playlist` dump. It keeps the last limit
// entries and returns them most recent first.
func ParseHistory(raw string, limit int) []HistoryEntry {
	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}

	if limit > 0 && len(lines) > limit {
		lines = lines[len(lines)-limit:]
	}

	entries := make([]HistoryEntry, 0, len(lines))
	for i := len(lines) - 1; i >= 0; i-- {
		line := lines[i]
		artist, title := splitTrackLine(line)
		entries = append(entries, HistoryEntry{
			Position: len(entries) + 1,
			Artist:   artist,
			Title:    strings.Replace(title, ".mp3", "", 1),
			Raw:      line,
		})
	}

	return entries
}
