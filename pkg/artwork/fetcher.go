package artwork

import (
	"context"
	"log/slog"
	"net"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Fetcher tries its stages in order and returns the first image found.
type Fetcher struct {
	stages []Stage
	logger *slog.Logger
	tracer trace.Tracer
}

// New builds the standard stage list against the MPD control port at addr.
func New(cfg Config, addr, password string, logger *slog.Logger) *Fetcher {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = defaultChunkSize
	}
	if cfg.ChunkTimeout <= 0 {
		cfg.ChunkTimeout = defaultChunkTimeout
	}

	dialer := &net.Dialer{Timeout: cfg.ChunkTimeout}
	music := os.DirFS(cfg.MusicDir)

	stages := []Stage{
		&AlbumArtStage{Dialer: dialer, Addr: addr, Password: password, ChunkSize: cfg.ChunkSize, Timeout: cfg.ChunkTimeout},
		&ReadPictureStage{Dialer: dialer, Addr: addr, Password: password, Timeout: cfg.ChunkTimeout},
		&SidecarStage{FS: music},
	}
	if cfg.ReadTags {
		stages = append(stages, &TagStage{FS: music})
	}

	return NewFetcher(logger, stages...)
}

func NewFetcher(logger *slog.Logger, stages ...Stage) *Fetcher {
	return &Fetcher{
		stages: stages,
		logger: logger,
		tracer: otel.Tracer("artwork"),
	}
}

// Fetch returns artwork for file, a path relative to the music directory.
// It returns ErrNotFound when file is empty or every stage fails.
func (f *Fetcher) Fetch(ctx context.Context, file string) (*Blob, error) {
	ctx, span := f.tracer.Start(ctx, "Fetcher.Fetch")
	defer span.End()

	if strings.TrimSpace(file) == "" {
		return nil, ErrNotFound
	}
	span.SetAttributes(attribute.String("file", file))

	for _, st := range f.stages {
		blob, err := st.Attempt(ctx, file)
		if err != nil {
			metricStageAttempts.WithLabelValues(st.Name(), "failed").Inc()
			f.logger.Debug("artwork stage failed", "stage", st.Name(), "file", file, "err", err)
			continue
		}
		if blob == nil || len(blob.Data) == 0 {
			metricStageAttempts.WithLabelValues(st.Name(), "empty").Inc()
			continue
		}

		metricStageAttempts.WithLabelValues(st.Name(), "found").Inc()
		span.SetAttributes(attribute.String("stage", st.Name()))
		f.logger.Debug("artwork found", "stage", st.Name(), "file", file, "bytes", len(blob.Data), "type", blob.MIMEType)
		return blob, nil
	}

	return nil, ErrNotFound
}
