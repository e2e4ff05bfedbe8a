package nowplaying

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/zachfi/onair/pkg/artwork"
	"github.com/zachfi/onair/pkg/icecast"
	"github.com/zachfi/onair/pkg/mpc"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func track(artist, title string) *mpc.TrackInfo {
	return &mpc.TrackInfo{Artist: artist, Title: title, Raw: artist + " - " + title}
}

var testTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type fakeTracks struct {
	mu         sync.Mutex
	calls      []string
	current    *mpc.TrackInfo
	status     mpc.PlaybackStatus
	queued     *mpc.TrackInfo
	currentErr error
	statusErr  error
}

func (f *fakeTracks) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
}

func (f *fakeTracks) CurrentTrack(context.Context) (*mpc.TrackInfo, error) {
	f.record("current")
	return f.current, f.currentErr
}

func (f *fakeTracks) Status(context.Context) (mpc.PlaybackStatus, error) {
	f.record("status")
	return f.status, f.statusErr
}

func (f *fakeTracks) QueuedTrack(context.Context) *mpc.TrackInfo {
	f.record("queued")
	return f.queued
}

type fakeListeners struct {
	snap  icecast.Snapshot
	calls int
}

func (f *fakeListeners) Fetch(context.Context) icecast.Snapshot {
	f.calls++
	return f.snap
}

// scriptedSource returns its snapshots in order, repeating the last one.
type scriptedSource struct {
	mu    sync.Mutex
	snaps []Snapshot
	errs  []error
	calls int
}

func (s *scriptedSource) Snapshot(context.Context) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return Snapshot{}, s.errs[i]
	}
	if len(s.snaps) == 0 {
		return Snapshot{}, errors.New("no snapshot")
	}
	if i >= len(s.snaps) {
		i = len(s.snaps) - 1
	}
	return s.snaps[i], nil
}

func (s *scriptedSource) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type recordingPublisher struct {
	mu    sync.Mutex
	snaps []Snapshot
}

func (p *recordingPublisher) Publish(s Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snaps = append(p.snaps, s)
}

func (p *recordingPublisher) Published() []Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Snapshot(nil), p.snaps...)
}

type fakeLibrary struct {
	stats    map[string]string
	statsErr error
	history  []mpc.HistoryEntry
	histErr  error
	file     string
	fileErr  error
}

func (f *fakeLibrary) Stats(context.Context) (map[string]string, error) {
	return f.stats, f.statsErr
}

func (f *fakeLibrary) History(context.Context) ([]mpc.HistoryEntry, error) {
	return f.history, f.histErr
}

func (f *fakeLibrary) CurrentFile(context.Context) (string, error) {
	return f.file, f.fileErr
}

type fakeArtwork struct {
	blob  *artwork.Blob
	err   error
	files []string
}

func (f *fakeArtwork) Fetch(_ context.Context, file string) (*artwork.Blob, error) {
	f.files = append(f.files, file)
	return f.blob, f.err
}
