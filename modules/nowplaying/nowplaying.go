package nowplaying

import (
	"context"
	"log/slog"

	"github.com/gorilla/mux"
	"github.com/grafana/dskit/services"
	"github.com/pkg/errors"

	"github.com/zachfi/onair/pkg/artwork"
	"github.com/zachfi/onair/pkg/icecast"
	"github.com/zachfi/onair/pkg/mpc"
)

var module = "nowplaying"

// NowPlaying tracks what the station is playing and serves it over HTTP and
// websockets.
type NowPlaying struct {
	services.Service

	cfg    *Config
	logger *slog.Logger

	aggregator  *Aggregator
	poller      *Poller
	broadcaster *Broadcaster
	idle        *IdleWatcher
	api         *API

	subservices        *services.Manager
	subservicesWatcher *services.FailureWatcher
}

// New creates and returns a new NowPlaying.
func New(cfg Config, logger slog.Logger) (*NowPlaying, error) {
	n := &NowPlaying{
		cfg:    &cfg,
		logger: logger.With("module", module),
	}

	client := mpc.NewClient(mpc.NewExecRunner(cfg.MPC), n.logger.With("component", "mpc"))
	listeners := icecast.NewClient(cfg.Icecast, n.logger.With("component", "icecast"))
	fetcher := artwork.New(cfg.Artwork, cfg.MPC.Addr(), cfg.MPC.Password, n.logger.With("component", "artwork"))

	n.aggregator = NewAggregator(client, listeners)
	n.broadcaster = NewBroadcaster(n.aggregator, cfg.SendBuffer, n.logger.With("component", "broadcaster"))
	n.poller = NewPoller(n.aggregator, n.broadcaster, cfg.Interval, n.logger.With("component", "poller"))

	if cfg.IdleWatch {
		n.idle = NewIdleWatcher(cfg.MPC.Addr(), cfg.MPC.Password, n.poller.Nudge,
			cfg.ReconnectBackoff, cfg.ReconnectBackoffMax, n.logger.With("component", "idle"))
	}

	n.api = &API{
		snapshots: n.aggregator,
		library:   client,
		listeners: listeners,
		artwork:   fetcher,
		sockets:   n.broadcaster,
		service:   cfg.ServiceName,
		logger:    n.logger,
	}

	n.Service = services.NewBasicService(n.starting, n.running, n.stopping)

	return n, nil
}

// RegisterRoutes mounts the HTTP API on r.
func (n *NowPlaying) RegisterRoutes(r *mux.Router) {
	n.api.RegisterRoutes(r)
}

func (n *NowPlaying) starting(ctx context.Context) error {
	subs := []services.Service{n.poller}
	if n.idle != nil {
		subs = append(subs, n.idle)
	}

	var err error
	n.subservices, err = services.NewManager(subs...)
	if err != nil {
		return errors.Wrap(err, "failed to create subservices")
	}
	n.subservicesWatcher = services.NewFailureWatcher()
	n.subservicesWatcher.WatchManager(n.subservices)

	if err := services.StartManagerAndAwaitHealthy(ctx, n.subservices); err != nil {
		return errors.Wrap(err, "failed to start subservices")
	}

	n.logger.Info("started", "interval", n.cfg.Interval, "idle_watch", n.cfg.IdleWatch)
	return nil
}

func (n *NowPlaying) running(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return nil
	case err := <-n.subservicesWatcher.Chan():
		return errors.Wrap(err, "subservice failed")
	}
}

func (n *NowPlaying) stopping(_ error) error {
	n.logger.Info("stopping")

	n.broadcaster.Close()

	if n.subservices == nil {
		return nil
	}
	return services.StopManagerAndAwaitStopped(context.Background(), n.subservices)
}
