package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/grafana/dskit/flagext"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/version"
	"gopkg.in/yaml.v2"

	"github.com/zachfi/zkit/pkg/tracing"

	"github.com/zachfi/onair/app"
)

const appName = "onair"

// Version is set via build flag -ldflags -X main.Version
var (
	Version  string
	Branch   string
	Revision string
)

func init() {
	version.Version = Version
	version.Branch = Branch
	version.Revision = Revision
	prometheus.MustRegister(version.NewCollector(appName))
}

func main() {
	level := new(slog.LevelVar)
	level.Set(slog.LevelInfo)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	cfg, err := loadConfig(os.Args[1:], flag.CommandLine)
	if err != nil {
		slog.Error("failed to load config file", "err", err)
		os.Exit(1)
	}

	if cfg.LogLevel != "" {
		if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
			logger.Error("invalid log level", "level", cfg.LogLevel, "err", err)
			os.Exit(1)
		}
	}

	shutdownTracer, err := tracing.InstallOpenTelemetryTracer(&cfg.Tracing, logger, appName, Version)
	if err != nil {
		logger.Error("error initialising tracer", "err", err)
		os.Exit(1)
	}
	defer shutdownTracer()

	a, err := app.New(*cfg, *logger)
	if err != nil {
		logger.Error("failed to create", "app", appName, "err", err)
		os.Exit(1)
	}

	if err := a.Run(); err != nil {
		logger.Error("error running", "app", appName, "err", err)
		os.Exit(1)
	}
}

const configFileOption = "config.file"

// loadConfig layers the configuration: flag defaults (fed by the
// environment), then the YAML file named by -config.file, then the remaining
// command line flags.
func loadConfig(args []string, fs *flag.FlagSet) (*app.Config, error) {
	cfg := &app.Config{}
	cfg.RegisterFlagsAndApplyDefaults("", fs)

	if path := configFilePath(args); path != "" {
		buf, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.UnmarshalStrict(buf, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	flagext.IgnoredFlag(fs, configFileOption, "Configuration file to load")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	return cfg, nil
}

// configFilePath finds -config.file anywhere in args. Parsing stops at the
// first flag it does not know, so it retries from each later position.
func configFilePath(args []string) string {
	var path string

	fs := flag.NewFlagSet("", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&path, configFileOption, "", "")

	for ; len(args) > 0 && path == ""; args = args[1:] {
		_ = fs.Parse(args)
	}
	return path
}
