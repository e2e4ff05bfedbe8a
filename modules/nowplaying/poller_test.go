package nowplaying

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/grafana/dskit/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/zachfi/onair/pkg/mpc"
)

func snapOf(t *mpc.TrackInfo) Snapshot {
	return Snapshot{Track: t, Timestamp: testTime}
}

func TestPoller_PublishesOnlyChanges(t *testing.T) {
	a := track("Artist", "One")
	b := track("Artist", "Two")

	src := &scriptedSource{snaps: []Snapshot{
		snapOf(a),
		snapOf(track("Artist", "One")), // equal by value
		snapOf(b),
		snapOf(nil), // idle keeps the last track
		snapOf(b),
		snapOf(a),
	}}
	pub := &recordingPublisher{}
	p := NewPoller(src, pub, time.Second, testLogger())

	for range src.snaps {
		p.tick(context.Background())
	}

	published := pub.Published()
	require.Len(t, published, 3)
	assert.Equal(t, "One", published[0].Track.Title)
	assert.Equal(t, "Two", published[1].Track.Title)
	assert.Equal(t, "One", published[2].Track.Title)
	assert.Equal(t, "One", p.lastPublished().Track.Title)
}

func TestPoller_ComparesOptionalFieldsByValue(t *testing.T) {
	withAlbum := func(album string, duration int) *mpc.TrackInfo {
		tr := track("A", "B")
		tr.Album = strPtr(album)
		tr.Duration = intPtr(duration)
		return tr
	}

	src := &scriptedSource{snaps: []Snapshot{
		snapOf(withAlbum("X", 100)),
		snapOf(withAlbum("X", 100)),
		snapOf(withAlbum("Y", 100)),
		snapOf(withAlbum("Y", 101)),
	}}
	pub := &recordingPublisher{}
	p := NewPoller(src, pub, time.Second, testLogger())

	for range src.snaps {
		p.tick(context.Background())
	}

	assert.Len(t, pub.Published(), 3)
}

func TestPoller_ErrorsSkipTick(t *testing.T) {
	src := &scriptedSource{
		snaps: []Snapshot{snapOf(track("A", "B")), snapOf(track("A", "B")), snapOf(track("A", "B"))},
		errs:  []error{errors.New("mpc failed"), nil, mpc.ErrTimeout},
	}
	pub := &recordingPublisher{}
	p := NewPoller(src, pub, time.Second, testLogger())

	p.tick(context.Background())
	assert.Nil(t, p.lastPublished())
	assert.Empty(t, pub.Published())

	p.tick(context.Background())
	p.tick(context.Background())
	assert.Len(t, pub.Published(), 1)
}

func TestPoller_IdleFromStart(t *testing.T) {
	src := &scriptedSource{snaps: []Snapshot{snapOf(nil)}}
	pub := &recordingPublisher{}
	p := NewPoller(src, pub, time.Second, testLogger())

	p.tick(context.Background())
	p.tick(context.Background())

	assert.Nil(t, p.lastPublished())
	assert.Empty(t, pub.Published())
}

// slowSource reports the highest number of concurrent Snapshot calls.
type slowSource struct {
	delay       time.Duration
	calls       atomic.Int32
	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func (s *slowSource) Snapshot(ctx context.Context) (Snapshot, error) {
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)

	for {
		peak := s.maxInFlight.Load()
		if n <= peak || s.maxInFlight.CompareAndSwap(peak, n) {
			break
		}
	}

	call := s.calls.Add(1)
	select {
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	case <-time.After(s.delay):
	}

	return snapOf(track("A", string(rune('a'+call%26)))), nil
}

func TestPoller_TicksNeverOverlap(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	src := &slowSource{delay: 20 * time.Millisecond}
	pub := &recordingPublisher{}
	p := NewPoller(src, pub, time.Millisecond, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, services.StartAndAwaitRunning(ctx, p))
	require.Eventually(t, func() bool { return src.calls.Load() >= 5 }, 3*time.Second, 5*time.Millisecond)
	require.NoError(t, services.StopAndAwaitTerminated(ctx, p))

	assert.Equal(t, int32(1), src.maxInFlight.Load())
	assert.NotEmpty(t, pub.Published())
}

// gatedSource blocks every call until the test releases it.
type gatedSource struct {
	gate  chan struct{}
	calls atomic.Int32
}

func (s *gatedSource) Snapshot(ctx context.Context) (Snapshot, error) {
	s.calls.Add(1)
	select {
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	case <-s.gate:
	}
	return snapOf(track("A", "B")), nil
}

func TestPoller_NudgesCoalesce(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	src := &gatedSource{gate: make(chan struct{})}
	p := NewPoller(src, &recordingPublisher{}, time.Hour, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, services.StartAndAwaitRunning(ctx, p))

	// The first tick runs at start and is held by the gate.
	require.Eventually(t, func() bool { return src.calls.Load() == 1 }, time.Second, time.Millisecond)
	for i := 0; i < 5; i++ {
		p.Nudge()
	}
	src.gate <- struct{}{}

	// All five nudges collapse into one follow-up tick.
	require.Eventually(t, func() bool { return src.calls.Load() == 2 }, time.Second, time.Millisecond)
	src.gate <- struct{}{}
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(2), src.calls.Load())

	require.NoError(t, services.StopAndAwaitTerminated(ctx, p))
}
