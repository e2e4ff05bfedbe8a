package mpc

import (
	"flag"
	"net"
	"strconv"
	"time"

	"github.com/zachfi/zkit/pkg/util"

	"github.com/zachfi/onair/pkg/envflag"
)

const (
	defaultBinary  = "mpc"
	defaultHost    = "localhost"
	defaultPort    = 6600
	defaultTimeout = 5 * time.Second
)

type Config struct {
	Binary   string        `yaml:"binary,omitempty"`
	Host     string        `yaml:"host,omitempty"`
	Port     int           `yaml:"port,omitempty"`
	Password string        `yaml:"password,omitempty"`
	Timeout  time.Duration `yaml:"timeout,omitempty"` // per invocation; a timed out call fails the request
}

func (cfg *Config) RegisterFlagsAndApplyDefaults(prefix string, f *flag.FlagSet) {
	f.StringVar(&cfg.Binary, util.PrefixConfig(prefix, "binary"), defaultBinary, "Path to the mpc binary")
	f.StringVar(&cfg.Host, util.PrefixConfig(prefix, "host"), envflag.String("MPD_HOST", defaultHost), "MPD host passed to mpc (env MPD_HOST)")
	f.IntVar(&cfg.Port, util.PrefixConfig(prefix, "port"), envflag.Int("MPD_PORT", defaultPort), "MPD control port (env MPD_PORT)")
	f.StringVar(&cfg.Password, util.PrefixConfig(prefix, "password"), "", "MPD password, if the daemon requires one")
	f.DurationVar(&cfg.Timeout, util.PrefixConfig(prefix, "timeout"), defaultTimeout, "Maximum time a single mpc invocation may take")
}

// Addr returns the host:port of the daemon control connection.
func (cfg Config) Addr() string {
	return net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
}
