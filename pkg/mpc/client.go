package mpc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
)

// ErrTimeout is returned when an mpc invocation does not finish in time.
var ErrTimeout = errors.New("mpc timed out")

const (
	metaFormat   = "%album%|%time%"
	fileFormat   = "%file%"
	historyLimit = 20
)

// Runner executes an mpc subcommand and returns its trimmed standard output.
type Runner interface {
	Run(ctx context.Context, args ...string) (string, error)
}

// ExecRunner runs the mpc binary.
type ExecRunner struct {
	cfg Config
}

var _ Runner = (*ExecRunner)(nil)

func NewExecRunner(cfg Config) *ExecRunner {
	if cfg.Binary == "" {
		cfg.Binary = defaultBinary
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &ExecRunner{cfg: cfg}
}

func (r *ExecRunner) Run(ctx context.Context, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.cfg.Binary, append(r.globalArgs(), args...)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("mpc %s: %w after %s", strings.Join(args, " "), ErrTimeout, r.cfg.Timeout)
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("mpc %s: %w: %s", strings.Join(args, " "), err, msg)
		}
		return "", fmt.Errorf("mpc %s: %w", strings.Join(args, " "), err)
	}

	return strings.TrimSpace(stdout.String()), nil
}

func (r *ExecRunner) globalArgs() []string {
	var args []string
	if r.cfg.Host != "" {
		host := r.cfg.Host
		if r.cfg.Password != "" {
			host = r.cfg.Password + "@" + host
		}
		args = append(args, "--host", host)
	}
	if r.cfg.Port > 0 {
		args = append(args, "--port", strconv.Itoa(r.cfg.Port))
	}
	return args
}

// Client issues the queries the now-playing service needs and parses the
// results.
type Client struct {
	runner Runner
	logger *slog.Logger
}

func NewClient(runner Runner, logger *slog.Logger) *Client {
	return &Client{runner: runner, logger: logger}
}

// CurrentTrack returns the playing track, or nil when the daemon is idle.
// Album and duration come from a second query whose failure is ignored.
func (c *Client) CurrentTrack(ctx context.Context) (*TrackInfo, error) {
	out, err := c.runner.Run(ctx, "current")
	if err != nil {
		return nil, err
	}

	track := ParseTrack(out)
	if track == nil {
		return nil, nil
	}
	c.addMeta(ctx, track, "current")
	return track, nil
}

// QueuedTrack returns the next track in the queue. Any failure is reported
// as no next track.
func (c *Client) QueuedTrack(ctx context.Context) *TrackInfo {
	out, err := c.runner.Run(ctx, "queued")
	if err != nil {
		c.logger.Debug("no queued track", "err", err)
		return nil
	}

	track := ParseTrack(out)
	if track == nil {
		return nil
	}
	c.addMeta(ctx, track, "queued")
	return track
}

func (c *Client) addMeta(ctx context.Context, track *TrackInfo, subcommand string) {
	out, err := c.runner.Run(ctx, "--format", metaFormat, subcommand)
	if err != nil {
		c.logger.Debug("extended metadata unavailable", "subcommand", subcommand, "err", err)
		return
	}
	track.Album, track.Duration = ParseTrackMeta(out)
}

func (c *Client) Status(ctx context.Context) (PlaybackStatus, error) {
	out, err := c.runner.Run(ctx, "status")
	if err != nil {
		return PlaybackStatus{}, err
	}
	return ParseStatus(out), nil
}

func (c *Client) Stats(ctx context.Context) (map[string]string, error) {
	out, err := c.runner.Run(ctx, "stats")
	if err != nil {
		return nil, err
	}
	return ParseStats(out), nil
}

// History returns the tail of the queue, most recent first.
func (c *Client) History(ctx context.Context) ([]HistoryEntry, error) {
	out, err := c.runner.Run(ctx, "playlist")
	if err != nil {
		return nil, err
	}
	return ParseHistory(out, historyLimit), nil
}

// CurrentFile returns the path of the playing file relative to the music
// directory, or "" when nothing is playing.
func (c *Client) CurrentFile(ctx context.Context) (string, error) {
	out, err := c.runner.Run(ctx, "--format", fileFormat, "current")
	if err != nil {
		return "", err
	}
	if out == "" || strings.Contains(out, volumeMarker) {
		return "", nil
	}
	line, _, _ := strings.Cut(out, "\n")
	return strings.TrimSpace(line), nil
}
