package nowplaying

import (
	"flag"
	"time"

	"github.com/zachfi/zkit/pkg/util"

	"github.com/zachfi/onair/pkg/artwork"
	"github.com/zachfi/onair/pkg/icecast"
	"github.com/zachfi/onair/pkg/mpc"
)

const (
	defaultInterval            = 2 * time.Second
	defaultReconnectBackoff    = time.Second
	defaultReconnectBackoffMax = 30 * time.Second
	defaultSendBuffer          = 16
	defaultServiceName         = "mashuppi-api"
)

type Config struct {
	Interval            time.Duration `yaml:"interval,omitempty"`
	IdleWatch           bool          `yaml:"idle-watch,omitempty"`
	ReconnectBackoff    time.Duration `yaml:"reconnect-backoff,omitempty"`     // initial delay before re-dialing the idle watcher
	ReconnectBackoffMax time.Duration `yaml:"reconnect-backoff-max,omitempty"` // cap on the re-dial delay
	SendBuffer          int           `yaml:"send-buffer,omitempty"`           // messages queued per websocket client
	ServiceName         string        `yaml:"service-name,omitempty"`

	MPC     mpc.Config     `yaml:"mpc,omitempty"`
	Icecast icecast.Config `yaml:"icecast,omitempty"`
	Artwork artwork.Config `yaml:"artwork,omitempty"`
}

func (cfg *Config) RegisterFlagsAndApplyDefaults(prefix string, f *flag.FlagSet) {
	f.DurationVar(&cfg.Interval, util.PrefixConfig(prefix, "interval"), defaultInterval, "How often to poll the daemon for track changes")
	f.BoolVar(&cfg.IdleWatch, util.PrefixConfig(prefix, "idle-watch"), false, "Subscribe to MPD idle events and poll immediately when the player changes")
	f.DurationVar(&cfg.ReconnectBackoff, util.PrefixConfig(prefix, "reconnect-backoff"), defaultReconnectBackoff,
		"Initial delay before re-dialing the idle watcher. Exponential backoff is used up to reconnect-backoff-max.")
	f.DurationVar(&cfg.ReconnectBackoffMax, util.PrefixConfig(prefix, "reconnect-backoff-max"), defaultReconnectBackoffMax,
		"Maximum delay between idle watcher reconnection attempts.")
	f.IntVar(&cfg.SendBuffer, util.PrefixConfig(prefix, "send-buffer"), defaultSendBuffer, "Messages buffered per websocket client before updates to it are dropped")
	f.StringVar(&cfg.ServiceName, util.PrefixConfig(prefix, "service-name"), defaultServiceName, "Service name reported by the health endpoint")

	cfg.MPC.RegisterFlagsAndApplyDefaults(util.PrefixConfig(prefix, "mpc"), f)
	cfg.Icecast.RegisterFlagsAndApplyDefaults(util.PrefixConfig(prefix, "icecast"), f)
	cfg.Artwork.RegisterFlagsAndApplyDefaults(util.PrefixConfig(prefix, "artwork"), f)
}
