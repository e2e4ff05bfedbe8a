package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/grafana/dskit/modules"
	"github.com/grafana/dskit/server"
	"github.com/grafana/dskit/services"
	"github.com/grafana/dskit/signals"
	"github.com/pkg/errors"
)

const metricsNamespace = "onair"

// App runs the now-playing service and its optional announcer behind one
// HTTP server.
type App struct {
	cfg    Config
	logger slog.Logger

	Server *server.Server

	ModuleManager *modules.Manager
	serviceMap    map[string]services.Service
}

// New validates the target against the registered modules and returns an
// App ready to Run.
func New(cfg Config, logger slog.Logger) (*App, error) {
	a := &App{
		cfg:    cfg,
		logger: logger,
	}

	if a.cfg.Target == "" {
		a.cfg.Target = All
	}

	if err := a.setupModuleManager(); err != nil {
		return nil, errors.Wrap(err, "failed to setup module manager")
	}

	if !a.ModuleManager.IsTargetableModule(a.cfg.Target) {
		return nil, fmt.Errorf("unknown target %q, want one of: %s",
			a.cfg.Target, strings.Join(a.ModuleManager.UserVisibleModuleNames(), ", "))
	}

	return a, nil
}

// Run starts every module the target depends on and blocks until they stop,
// either from a signal or because one of them failed.
func (a *App) Run() error {
	sm, err := a.startServices()
	if err != nil {
		return err
	}

	return sm.AwaitStopped(context.Background())
}

func (a *App) startServices() (*services.Manager, error) {
	serviceMap, err := a.ModuleManager.InitModuleServices(a.cfg.Target)
	if err != nil {
		return nil, errors.Wrap(err, "failed to init module services")
	}
	a.serviceMap = serviceMap

	svcs := make([]services.Service, 0, len(serviceMap))
	for _, s := range serviceMap {
		svcs = append(svcs, s)
	}

	sm, err := services.NewManager(svcs...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create service manager")
	}

	sm.AddListener(services.NewManagerListener(
		func() { a.logger.Info("on air", "target", a.cfg.Target, "http_port", a.cfg.Server.HTTPListenPort) },
		func() { a.logger.Info("off air") },
		func(failed services.Service) {
			sm.StopAsync()
			a.logFailure(failed)
		},
	))

	a.stopOnSignal(sm)

	// Only fails if a service left the New state early.
	if err := sm.StartAsync(context.Background()); err != nil {
		return nil, errors.Wrap(err, "failed to start service manager")
	}

	return sm, nil
}

// logFailure names the module behind a failed service. A module returning
// modules.ErrStopProcess asked for a clean shutdown.
func (a *App) logFailure(failed services.Service) {
	name := "unknown"
	for m, s := range a.serviceMap {
		if s == failed {
			name = m
			break
		}
	}

	cause := failed.FailureCase()
	if errors.Is(cause, modules.ErrStopProcess) {
		a.logger.Info("module requested stop", "module", name)
		return
	}
	a.logger.Error("module failed", "module", name, "err", cause)
}

func (a *App) stopOnSignal(sm *services.Manager) {
	handler := signals.NewHandler(a.Server.Log)
	go func() {
		handler.Loop()
		sm.StopAsync()
	}()
}
