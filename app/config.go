package app

import (
	"flag"

	"github.com/grafana/dskit/flagext"
	"github.com/grafana/dskit/server"

	"github.com/zachfi/zkit/pkg/tracing"

	"github.com/zachfi/onair/modules/announcer"
	"github.com/zachfi/onair/modules/nowplaying"
)

const defaultHTTPPort = 3000

type Config struct {
	Target     string            `yaml:"target"`
	LogLevel   string            `yaml:"log_level,omitempty"`
	Tracing    tracing.Config    `yaml:"tracing,omitempty"`
	Server     server.Config     `yaml:"server,omitempty"`
	NowPlaying nowplaying.Config `yaml:"nowplaying,omitempty"`
	Announcer  announcer.Config  `yaml:"announcer,omitempty"`
}

func (c *Config) RegisterFlagsAndApplyDefaults(prefix string, f *flag.FlagSet) {
	f.StringVar(&c.Target, "target", All, "Module to run")
	f.StringVar(&c.LogLevel, "log.level", "info", "Log level: debug, info, warn or error")

	flagext.DefaultValues(&c.Server)
	f.IntVar(&c.Server.HTTPListenPort, "server.http-listen-port", defaultHTTPPort, "HTTP server listen port.")
	f.IntVar(&c.Server.GRPCListenPort, "server.grpc-listen-port", 9090, "gRPC server listen port.")

	c.Tracing.RegisterFlagsAndApplyDefaults("tracing", f)
	c.NowPlaying.RegisterFlagsAndApplyDefaults("nowplaying", f)
	c.Announcer.RegisterFlagsAndApplyDefaults("announcer", f)
}
