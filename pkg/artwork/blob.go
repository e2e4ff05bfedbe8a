package artwork

import (
	"errors"
	"path"
	"strings"
)

// ErrNotFound is returned when no stage produced any artwork.
var ErrNotFound = errors.New("artwork not found")

const (
	MIMEJPEG = "image/jpeg"
	MIMEPNG  = "image/png"
	MIMEGIF  = "image/gif"
)

// Blob is an image and its content type.
type Blob struct {
	Data     []byte
	MIMEType string
	Stage    string // name of the stage that produced it
}

// DetectMIME sniffs the first two bytes of data. Anything unrecognised is
// reported as JPEG.
func DetectMIME(data []byte) string {
	if len(data) >= 2 {
		switch {
		case data[0] == 0x89 && data[1] == 0x50:
			return MIMEPNG
		case data[0] == 0xFF && data[1] == 0xD8:
			return MIMEJPEG
		case data[0] == 0x47 && data[1] == 0x49:
			return MIMEGIF
		}
	}
	return MIMEJPEG
}

func mimeFromExt(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".png":
		return MIMEPNG
	case ".gif":
		return MIMEGIF
	default:
		return MIMEJPEG
	}
}
