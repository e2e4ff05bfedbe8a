package mpc

// UnknownArtist is used when a track line carries no artist separator.
const UnknownArtist = "Unknown Artist"

// TrackInfo describes a single track as reported by mpc.
type TrackInfo struct {
	Artist   string  `json:"artist"`
	Title    string  `json:"title"`
	Raw      string  `json:"raw"`
	Album    *string `json:"album"`
	Duration *int    `json:"duration"` // seconds
}

// Equal reports whether both tracks carry the same values in every field.
func (t TrackInfo) Equal(o TrackInfo) bool {
	return t.Artist == o.Artist &&
		t.Title == o.Title &&
		t.Raw == o.Raw &&
		equalPtr(t.Album, o.Album) &&
		equalPtr(t.Duration, o.Duration)
}

// SameTrack compares two optional tracks by value.
func SameTrack(a, b *TrackInfo) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// PlaybackStatus is the parsed form of `mpc status`. The numeric fields are
// either all set from one status line or all nil.
type PlaybackStatus struct {
	IsPlaying   bool `json:"isPlaying"`
	Position    *int `json:"position"`
	QueueLength *int `json:"queueLength"`
	Elapsed     *int `json:"elapsed"` // seconds
	Total       *int `json:"total"`   // seconds
	Percentage  *int `json:"percentage"`
}

// HistoryEntry is one line of the playlist dump.
type HistoryEntry struct {
	Position int    `json:"position"`
	Artist   string `json:"artist"`
	Title    string `json:"title"`
	Raw      string `json:"raw"`
}
