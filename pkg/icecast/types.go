package icecast

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

const defaultBitrate = 128

// Snapshot is the listener view of one Icecast source.
type Snapshot struct {
	Listeners         int     `json:"listeners"`
	PeakListeners     int     `json:"peakListeners"`
	ServerName        string  `json:"serverName,omitempty"`
	ServerDescription *string `json:"serverDescription,omitempty"`
	Bitrate           int     `json:"bitrate,omitempty"`
	AudioInfo         *string `json:"audioInfo,omitempty"`
	StreamStart       *string `json:"streamStart,omitempty"`

	// StartedAt is the parsed stream start, zero when unknown.
	StartedAt time.Time `json:"-"`
}

// Uptime returns the stream age in whole seconds, or nil when the start time
// is unknown.
func (s Snapshot) Uptime(now time.Time) *int {
	if s.StartedAt.IsZero() || now.Before(s.StartedAt) {
		return nil
	}
	secs := int(now.Sub(s.StartedAt) / time.Second)
	return &secs
}

type statusDocument struct {
	IceStats struct {
		Source json.RawMessage `json:"source"`
	} `json:"icestats"`
}

type source struct {
	ListenURL          string   `json:"listenurl"`
	Listeners          flexInt  `json:"listeners"`
	ListenerPeak       flexInt  `json:"listener_peak"`
	ServerName         string   `json:"server_name"`
	ServerDescription  *string  `json:"server_description"`
	Bitrate            *flexInt `json:"bitrate"`
	AudioInfo          *string  `json:"audio_info"`
	StreamStart        *string  `json:"stream_start"`
	StreamStartISO8601 string   `json:"stream_start_iso8601"`
}

// flexInt accepts both JSON numbers and numeric strings; Icecast versions
// disagree on which they emit.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}

	s := strings.Trim(string(b), `"`)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*f = flexInt(v)
	return nil
}

// selectSource picks the source for mount. A single source object is used
// as-is; an array is searched for a listen URL containing mount.
func selectSource(raw json.RawMessage, mount string) (*source, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	if raw[0] == '[' {
		var sources []source
		if err := json.Unmarshal(raw, &sources); err != nil {
			return nil, err
		}
		for i := range sources {
			if strings.Contains(sources[i].ListenURL, mount) {
				return &sources[i], nil
			}
		}
		return nil, nil
	}

	var s source
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *source) snapshot(stationName string) Snapshot {
	snap := Snapshot{
		Listeners:         int(s.Listeners),
		PeakListeners:     int(s.ListenerPeak),
		ServerName:        s.ServerName,
		ServerDescription: s.ServerDescription,
		Bitrate:           defaultBitrate,
		AudioInfo:         s.AudioInfo,
		StreamStart:       s.StreamStart,
		StartedAt:         parseStreamStart(s.StreamStartISO8601, s.StreamStart),
	}
	if snap.ServerName == "" {
		snap.ServerName = stationName
	}
	if snap.ServerDescription == nil {
		empty := ""
		snap.ServerDescription = &empty
	}
	if s.Bitrate != nil && *s.Bitrate > 0 {
		snap.Bitrate = int(*s.Bitrate)
	}
	return snap
}

func parseStreamStart(iso string, legacy *string) time.Time {
	if t, err := time.Parse("2006-01-02T15:04:05-0700", iso); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, iso); err == nil {
		return t
	}
	if legacy != nil {
		if t, err := time.Parse(time.RFC1123Z, *legacy); err == nil {
			return t
		}
		if t, err := time.Parse("02/Jan/2006:15:04:05 -0700", *legacy); err == nil {
			return t
		}
	}
	return time.Time{}
}
