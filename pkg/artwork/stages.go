package artwork

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"time"

	"github.com/dhowden/tag"
)

// Stage is one artwork retrieval strategy.
type Stage interface {
	Name() string
	Attempt(ctx context.Context, file string) (*Blob, error)
}

var errNoData = errors.New("no image data")

// coverNames are probed in order next to the playing file.
var coverNames = []string{
	"cover.jpg", "Cover.jpg",
	"cover.png", "Cover.png",
	"folder.jpg", "Folder.jpg",
	"album.jpg", "Album.jpg",
}

// AlbumArtStage reads the image with the chunked albumart command, asking
// for successive offsets until the reported size is reached. Without a size
// a short chunk marks the end.
type AlbumArtStage struct {
	Dialer    Dialer
	Addr      string
	Password  string
	ChunkSize int
	Timeout   time.Duration
}

func (s *AlbumArtStage) Name() string { return "albumart" }

func (s *AlbumArtStage) Attempt(ctx context.Context, file string) (*Blob, error) {
	c, err := dialMPD(ctx, s.Dialer, s.Addr, s.Password, s.Timeout)
	if err != nil {
		return nil, err
	}
	defer func() { _ = c.Close() }()

	var buf []byte
	for offset := 0; ; {
		resp, err := c.binary(ctx, "albumart", file, offset)
		if err != nil {
			var ack *AckError
			if errors.As(err, &ack) && offset > 0 {
				// The daemon has nothing past this offset.
				break
			}
			return nil, err
		}

		buf = append(buf, resp.Data...)
		offset += len(resp.Data)

		if len(resp.Data) == 0 {
			break
		}
		// The daemon may cap chunks below ChunkSize, so a reported size
		// wins over the short chunk rule.
		if resp.Size >= 0 {
			if len(buf) >= resp.Size {
				break
			}
			continue
		}
		if len(resp.Data) < s.ChunkSize {
			break
		}
	}

	if len(buf) == 0 {
		return nil, errNoData
	}
	return &Blob{Data: buf, MIMEType: DetectMIME(buf), Stage: s.Name()}, nil
}

// ReadPictureStage issues a single readpicture command at offset zero, for
// daemons that do not support albumart for the file.
type ReadPictureStage struct {
	Dialer   Dialer
	Addr     string
	Password string
	Timeout  time.Duration
}

func (s *ReadPictureStage) Name() string { return "readpicture" }

func (s *ReadPictureStage) Attempt(ctx context.Context, file string) (*Blob, error) {
	c, err := dialMPD(ctx, s.Dialer, s.Addr, s.Password, s.Timeout)
	if err != nil {
		return nil, err
	}
	defer func() { _ = c.Close() }()

	resp, err := c.binary(ctx, "readpicture", file, 0)
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, errNoData
	}
	return &Blob{Data: resp.Data, MIMEType: DetectMIME(resp.Data), Stage: s.Name()}, nil
}

// SidecarStage looks for a conventional cover file in the directory of the
// playing file. FS is rooted at the MPD music directory.
type SidecarStage struct {
	FS fs.FS
}

func (s *SidecarStage) Name() string { return "sidecar" }

func (s *SidecarStage) Attempt(_ context.Context, file string) (*Blob, error) {
	dir := path.Dir(file)
	for _, name := range coverNames {
		p := path.Join(dir, name)
		data, err := fs.ReadFile(s.FS, p)
		if err != nil || len(data) == 0 {
			continue
		}
		return &Blob{Data: data, MIMEType: mimeFromExt(name), Stage: s.Name()}, nil
	}
	return nil, fmt.Errorf("no cover file in %q", dir)
}

// TagStage reads the picture embedded in the audio file's tags.
type TagStage struct {
	FS fs.FS
}

func (s *TagStage) Name() string { return "tags" }

func (s *TagStage) Attempt(_ context.Context, file string) (*Blob, error) {
	f, err := s.FS.Open(file)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	rs, ok := f.(io.ReadSeeker)
	if !ok {
		return nil, fmt.Errorf("%s is not seekable", file)
	}

	m, err := tag.ReadFrom(rs)
	if err != nil {
		return nil, fmt.Errorf("read tags: %w", err)
	}

	pic := m.Picture()
	if pic == nil || len(pic.Data) == 0 {
		return nil, errNoData
	}

	mime := pic.MIMEType
	if mime == "" {
		mime = DetectMIME(pic.Data)
	}
	return &Blob{Data: pic.Data, MIMEType: mime, Stage: s.Name()}, nil
}
