package nowplaying

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fhs/gompd/v2/mpd"
	"github.com/grafana/dskit/services"
)

var idleSubsystems = []string{"player", "playlist"}

// IdleWatcher holds an MPD idle subscription and calls nudge for every
// player or playlist event. A lost connection is re-dialed with exponential
// backoff.
type IdleWatcher struct {
	services.Service

	addr       string
	password   string
	nudge      func()
	backoff    time.Duration
	backoffMax time.Duration
	logger     *slog.Logger
}

func NewIdleWatcher(addr, password string, nudge func(), backoff, backoffMax time.Duration, logger *slog.Logger) *IdleWatcher {
	if backoff <= 0 {
		backoff = defaultReconnectBackoff
	}
	if backoffMax < backoff {
		backoffMax = backoff
	}

	w := &IdleWatcher{
		addr:       addr,
		password:   password,
		nudge:      nudge,
		backoff:    backoff,
		backoffMax: backoffMax,
		logger:     logger,
	}
	w.Service = services.NewBasicService(nil, w.running, nil)

	return w
}

func (w *IdleWatcher) running(ctx context.Context) error {
	delay := w.backoff

	for {
		connected, err := w.watch(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if connected {
			delay = w.backoff
		}

		w.logger.Warn("mpd idle watcher disconnected", "err", err, "retry_in", delay)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}

		delay *= 2
		if delay > w.backoffMax {
			delay = w.backoffMax
		}
	}
}

// watch runs one watcher connection until it fails or ctx is done.
func (w *IdleWatcher) watch(ctx context.Context) (bool, error) {
	watcher, err := mpd.NewWatcher("tcp", w.addr, w.password, idleSubsystems...)
	if err != nil {
		return false, fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	w.logger.Debug("mpd idle watcher connected", "addr", w.addr)

	for {
		select {
		case <-ctx.Done():
			return true, nil
		case subsystem, ok := <-watcher.Event:
			if !ok {
				return true, errors.New("event channel closed")
			}
			metricIdleEvents.WithLabelValues(subsystem).Inc()
			w.logger.Debug("mpd idle event", "subsystem", subsystem)
			w.nudge()
		case err, ok := <-watcher.Error:
			if !ok {
				return true, errors.New("error channel closed")
			}
			return true, err
		}
	}
}
