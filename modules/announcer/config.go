package announcer

import (
	"flag"

	"github.com/zachfi/zkit/pkg/util"
)

const (
	defaultInstance = "mashuppi"
	defaultService  = "_http._tcp"
	defaultDomain   = "local."
)

type Config struct {
	Enabled  bool   `yaml:"enabled,omitempty"`
	Instance string `yaml:"instance,omitempty"`
	Service  string `yaml:"service,omitempty"`
	Domain   string `yaml:"domain,omitempty"`
}

func (cfg *Config) RegisterFlagsAndApplyDefaults(prefix string, f *flag.FlagSet) {
	f.BoolVar(&cfg.Enabled, util.PrefixConfig(prefix, "enabled"), false, "Advertise the HTTP API over mDNS/DNS-SD")
	f.StringVar(&cfg.Instance, util.PrefixConfig(prefix, "instance"), defaultInstance, "DNS-SD instance name")
	f.StringVar(&cfg.Service, util.PrefixConfig(prefix, "service"), defaultService, "DNS-SD service type")
	f.StringVar(&cfg.Domain, util.PrefixConfig(prefix, "domain"), defaultDomain, "DNS-SD domain")
}
