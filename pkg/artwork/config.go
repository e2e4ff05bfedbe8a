package artwork

import (
	"flag"
	"time"

	"github.com/zachfi/zkit/pkg/util"

	"github.com/zachfi/onair/pkg/envflag"
)

const (
	defaultMusicDir     = "/var/lib/mpd/music"
	defaultChunkSize    = 8192
	defaultChunkTimeout = 2 * time.Second
)

type Config struct {
	MusicDir     string        `yaml:"music-dir,omitempty"`
	ChunkSize    int           `yaml:"chunk-size,omitempty"`
	ChunkTimeout time.Duration `yaml:"chunk-timeout,omitempty"` // per chunk round trip
	ReadTags     bool          `yaml:"read-tags,omitempty"`
}

func (cfg *Config) RegisterFlagsAndApplyDefaults(prefix string, f *flag.FlagSet) {
	f.StringVar(&cfg.MusicDir, util.PrefixConfig(prefix, "music-dir"), envflag.String("MPD_MUSIC_DIR", defaultMusicDir), "MPD music directory searched for cover files (env MPD_MUSIC_DIR)")
	f.IntVar(&cfg.ChunkSize, util.PrefixConfig(prefix, "chunk-size"), defaultChunkSize, "Expected albumart chunk size; a shorter chunk ends the transfer")
	f.DurationVar(&cfg.ChunkTimeout, util.PrefixConfig(prefix, "chunk-timeout"), defaultChunkTimeout, "Deadline for each artwork chunk read from MPD")
	f.BoolVar(&cfg.ReadTags, util.PrefixConfig(prefix, "read-tags"), false, "Read embedded pictures from the audio file as a last resort")
}
