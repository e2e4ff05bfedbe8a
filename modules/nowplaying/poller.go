package nowplaying

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/grafana/dskit/services"

	"github.com/zachfi/onair/pkg/mpc"
)

// Publisher receives every snapshot whose track differs from the last one
// published.
type Publisher interface {
	Publish(Snapshot)
}

// Poller periodically builds a snapshot and publishes it when the track
// changes. Ticks run on a single goroutine and never overlap.
type Poller struct {
	services.Service

	source   SnapshotSource
	pub      Publisher
	interval time.Duration
	logger   *slog.Logger

	last  atomic.Pointer[Snapshot]
	nudge chan struct{}
}

func NewPoller(source SnapshotSource, pub Publisher, interval time.Duration, logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = defaultInterval
	}

	p := &Poller{
		source:   source,
		pub:      pub,
		interval: interval,
		logger:   logger,
		nudge:    make(chan struct{}, 1),
	}
	p.Service = services.NewBasicService(nil, p.running, nil)

	return p
}

// Nudge asks for a tick as soon as possible. Nudges made while a tick is in
// flight collapse into a single follow-up tick.
func (p *Poller) Nudge() {
	select {
	case p.nudge <- struct{}{}:
	default:
	}
}

// lastPublished returns the most recently published snapshot, or nil.
func (p *Poller) lastPublished() *Snapshot {
	return p.last.Load()
}

func (p *Poller) running(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		case <-p.nudge:
		}

		p.tick(ctx)

		// Drop a tick that fired while the last one was running.
		select {
		case <-ticker.C:
		default:
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	start := time.Now()
	snap, err := p.source.Snapshot(ctx)
	metricPollDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		if ctx.Err() != nil {
			return
		}
		metricPollTotal.WithLabelValues("error").Inc()
		p.logger.Warn("error polling mpd", "err", err)
		return
	}
	metricPollTotal.WithLabelValues("ok").Inc()

	// An idle daemon is never broadcast; keep the last track.
	if snap.Track == nil {
		return
	}

	if last := p.last.Load(); last != nil && mpc.SameTrack(last.Track, snap.Track) {
		return
	}

	p.last.Store(&snap)
	metricTrackChanges.Inc()

	args := []any{"artist", snap.Track.Artist, "title", snap.Track.Title}
	if snap.Track.Album != nil {
		args = append(args, "album", *snap.Track.Album)
	}
	p.logger.Info("now playing", args...)

	p.pub.Publish(snap)
}
