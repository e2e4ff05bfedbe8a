package icecast

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
)

const (
	statusPath = "/status-json.xsl"
	userAgent  = "onair/1.0"
)

// Client fetches listener statistics for one mount.
type Client struct {
	cfg    Config
	base   *url.URL
	http   *http.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.StationName == "" {
		cfg.StationName = defaultStationName
	}

	dialer := &net.Dialer{Timeout: cfg.Timeout}
	return &Client{
		cfg: cfg,
		base: &url.URL{
			Scheme: "http",
			Host:   net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		},
		http: &http.Client{
			Transport: &http.Transport{DialContext: dialer.DialContext},
			Timeout:   cfg.Timeout,
		},
		logger: logger,
	}
}

// Fetch returns the listener snapshot for the configured mount. It never
// fails: unreachable servers, bad documents and unknown mounts all produce a
// zeroed snapshot.
func (c *Client) Fetch(ctx context.Context) Snapshot {
	snap, err := c.fetch(ctx)
	if err != nil {
		c.logger.Warn("failed to fetch icecast stats", "err", err, "host", c.base.Host)
		return Snapshot{}
	}
	return snap
}

func (c *Client) fetch(ctx context.Context) (Snapshot, error) {
	reqURL := c.base.ResolveReference(&url.URL{Path: statusPath})
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return Snapshot{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return Snapshot{}, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return Snapshot{}, fmt.Errorf("%s returned status %d", statusPath, resp.StatusCode)
	}

	var doc statusDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return Snapshot{}, fmt.Errorf("decode response: %w", err)
	}

	src, err := selectSource(doc.IceStats.Source, c.cfg.Mount)
	if err != nil {
		return Snapshot{}, fmt.Errorf("decode source: %w", err)
	}
	if src == nil {
		c.logger.Debug("no icecast source for mount", "mount", c.cfg.Mount)
		return Snapshot{}, nil
	}

	return src.snapshot(c.cfg.StationName), nil
}
