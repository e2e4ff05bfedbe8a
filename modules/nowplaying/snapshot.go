package nowplaying

import (
	"time"

	"github.com/zachfi/onair/pkg/icecast"
	"github.com/zachfi/onair/pkg/mpc"
)

// timestampLayout is UTC with millisecond precision, e.g.
// 2024-05-01T12:00:00.000Z.
const timestampLayout = "2006-01-02T15:04:05.000Z"

const messageTrackChange = "track_change"

// Snapshot is one composed view of the station at Timestamp.
type Snapshot struct {
	Track     *mpc.TrackInfo
	Status    mpc.PlaybackStatus
	NextTrack *mpc.TrackInfo
	Listeners icecast.Snapshot
	Timestamp time.Time
}

// NowPlayingResponse is the body of /api/now-playing.
type NowPlayingResponse struct {
	Track         *mpc.TrackInfo `json:"track"`
	IsPlaying     bool           `json:"isPlaying"`
	Position      *int           `json:"position"`
	QueueLength   *int           `json:"queueLength"`
	Elapsed       *int           `json:"elapsed"`
	Total         *int           `json:"total"`
	Percentage    *int           `json:"percentage"`
	NextTrack     *mpc.TrackInfo `json:"nextTrack"`
	Listeners     int            `json:"listeners"`
	PeakListeners int            `json:"peakListeners"`
	Bitrate       int            `json:"bitrate,omitempty"`
	StreamStart   *string        `json:"streamStart"`
	Uptime        *int           `json:"uptime"` // seconds since the stream started
	Timestamp     string         `json:"timestamp"`
}

// TrackChangeMessage is pushed to websocket clients.
type TrackChangeMessage struct {
	Type          string         `json:"type"`
	Track         *mpc.TrackInfo `json:"track"`
	IsPlaying     bool           `json:"isPlaying"`
	Position      *int           `json:"position"`
	QueueLength   *int           `json:"queueLength"`
	NextTrack     *mpc.TrackInfo `json:"nextTrack"`
	Listeners     int            `json:"listeners"`
	PeakListeners int            `json:"peakListeners"`
	Timestamp     string         `json:"timestamp"`
}

func (s Snapshot) NowPlaying() NowPlayingResponse {
	return NowPlayingResponse{
		Track:         s.Track,
		IsPlaying:     s.Status.IsPlaying,
		Position:      s.Status.Position,
		QueueLength:   s.Status.QueueLength,
		Elapsed:       s.Status.Elapsed,
		Total:         s.Status.Total,
		Percentage:    s.Status.Percentage,
		NextTrack:     s.NextTrack,
		Listeners:     s.Listeners.Listeners,
		PeakListeners: s.Listeners.PeakListeners,
		Bitrate:       s.Listeners.Bitrate,
		StreamStart:   s.Listeners.StreamStart,
		Uptime:        s.Listeners.Uptime(s.Timestamp),
		Timestamp:     formatTimestamp(s.Timestamp),
	}
}

func (s Snapshot) TrackChange() TrackChangeMessage {
	return TrackChangeMessage{
		Type:          messageTrackChange,
		Track:         s.Track,
		IsPlaying:     s.Status.IsPlaying,
		Position:      s.Status.Position,
		QueueLength:   s.Status.QueueLength,
		NextTrack:     s.NextTrack,
		Listeners:     s.Listeners.Listeners,
		PeakListeners: s.Listeners.PeakListeners,
		Timestamp:     formatTimestamp(s.Timestamp),
	}
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}
