package nowplaying

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zachfi/onair/pkg/icecast"
	"github.com/zachfi/onair/pkg/mpc"
)

// TrackSource is the part of the mpc client the aggregator reads from.
type TrackSource interface {
	CurrentTrack(ctx context.Context) (*mpc.TrackInfo, error)
	Status(ctx context.Context) (mpc.PlaybackStatus, error)
	QueuedTrack(ctx context.Context) *mpc.TrackInfo
}

type ListenerSource interface {
	Fetch(ctx context.Context) icecast.Snapshot
}

// SnapshotSource produces a fresh Snapshot on demand.
type SnapshotSource interface {
	Snapshot(ctx context.Context) (Snapshot, error)
}

// Aggregator composes a Snapshot from the daemon and the listener stats.
type Aggregator struct {
	tracks    TrackSource
	listeners ListenerSource
	tracer    trace.Tracer
	now       func() time.Time
}

var _ SnapshotSource = (*Aggregator)(nil)

func NewAggregator(tracks TrackSource, listeners ListenerSource) *Aggregator {
	return &Aggregator{
		tracks:    tracks,
		listeners: listeners,
		tracer:    otel.Tracer(module),
		now:       time.Now,
	}
}

// Snapshot queries the current track, playback status, queued track and
// listener stats in that order. Only current track and status failures are
// returned; a missing queued track or unreachable Icecast degrade the
// snapshot instead.
func (a *Aggregator) Snapshot(ctx context.Context) (snap Snapshot, err error) {
	ctx, span := a.tracer.Start(ctx, "Aggregator.Snapshot")
	defer func() { endSpan(span, err) }()

	snap.Track, err = a.tracks.CurrentTrack(ctx)
	if err != nil {
		return Snapshot{}, err
	}

	snap.Status, err = a.tracks.Status(ctx)
	if err != nil {
		return Snapshot{}, err
	}

	snap.NextTrack = a.tracks.QueuedTrack(ctx)
	snap.Listeners = a.listeners.Fetch(ctx)
	snap.Timestamp = a.now()

	if snap.Track != nil {
		span.SetAttributes(
			attribute.String("artist", snap.Track.Artist),
			attribute.String("title", snap.Track.Title),
		)
	}

	return snap, nil
}

func endSpan(span trace.Span, err error) {
	defer span.End()

	if err != nil {
		span.SetStatus(codes.Error, "failed to build snapshot: "+err.Error())
		return
	}
	span.SetStatus(codes.Ok, "ok")
}
