package icecast

import (
	"flag"
	"time"

	"github.com/zachfi/zkit/pkg/util"

	"github.com/zachfi/onair/pkg/envflag"
)

const (
	defaultHost        = "127.0.0.1"
	defaultPort        = 8000
	defaultMount       = "/mashups"
	defaultStationName = "mashuppi"
	defaultTimeout     = 5 * time.Second
)

type Config struct {
	Host        string        `yaml:"host,omitempty"`
	Port        int           `yaml:"port,omitempty"`
	Mount       string        `yaml:"mount,omitempty"`
	StationName string        `yaml:"station-name,omitempty"` // reported when the source carries no server_name
	Timeout     time.Duration `yaml:"timeout,omitempty"`
}

func (cfg *Config) RegisterFlagsAndApplyDefaults(prefix string, f *flag.FlagSet) {
	f.StringVar(&cfg.Host, util.PrefixConfig(prefix, "host"), envflag.String("ICECAST_HOST", defaultHost), "Icecast host (env ICECAST_HOST)")
	f.IntVar(&cfg.Port, util.PrefixConfig(prefix, "port"), envflag.Int("ICECAST_PORT", defaultPort), "Icecast port (env ICECAST_PORT)")
	f.StringVar(&cfg.Mount, util.PrefixConfig(prefix, "mount"), envflag.String("ICECAST_MOUNT", defaultMount), "Mount path used to pick the stream source (env ICECAST_MOUNT)")
	f.StringVar(&cfg.StationName, util.PrefixConfig(prefix, "station-name"), defaultStationName, "Server name reported when Icecast does not provide one")
	f.DurationVar(&cfg.Timeout, util.PrefixConfig(prefix, "timeout"), defaultTimeout, "Timeout for the status request")
}
