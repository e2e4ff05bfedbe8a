package announcer

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	"github.com/grafana/dskit/services"
	"github.com/grandcat/zeroconf"
	"github.com/prometheus/common/version"
)

var module = "announcer"

type registration interface {
	Shutdown()
}

type registerFunc func(instance, service, domain string, port int, txt []string, ifaces []net.Interface) (registration, error)

func zeroconfRegister(instance, service, domain string, port int, txt []string, ifaces []net.Interface) (registration, error) {
	return zeroconf.Register(instance, service, domain, port, txt, ifaces)
}

// Announcer advertises the HTTP API on the local network for as long as it
// runs.
type Announcer struct {
	services.Service

	cfg      *Config
	port     int
	logger   *slog.Logger
	register registerFunc
	server   registration
}

// New creates and returns a new Announcer for the HTTP server on port.
func New(cfg Config, port int, logger slog.Logger) (*Announcer, error) {
	if port <= 0 {
		return nil, fmt.Errorf("invalid port %d", port)
	}

	a := &Announcer{
		cfg:      &cfg,
		port:     port,
		logger:   logger.With("module", module),
		register: zeroconfRegister,
	}

	a.Service = services.NewBasicService(a.starting, a.running, a.stopping)

	return a, nil
}

// TXT returns the records published with the service.
func (a *Announcer) TXT() []string {
	txt := []string{"path=/api", "ws=/ws"}
	if version.Version != "" {
		txt = append(txt, "version="+version.Version)
	}
	return txt
}

func (a *Announcer) starting(_ context.Context) error {
	server, err := a.register(a.cfg.Instance, a.cfg.Service, a.cfg.Domain, a.port, a.TXT(), nil)
	if err != nil {
		return fmt.Errorf("failed to register %s: %w", a.cfg.Service, err)
	}
	a.server = server

	a.logger.Info("announcing", "instance", a.cfg.Instance, "service", a.cfg.Service, "domain", a.cfg.Domain, "port", a.port)
	return nil
}

func (a *Announcer) running(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

func (a *Announcer) stopping(_ error) error {
	if a.server != nil {
		a.server.Shutdown()
	}
	return nil
}
