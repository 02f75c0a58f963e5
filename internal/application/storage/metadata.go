package storage

import (
	"fmt"
	"strings"

	"github.com/go-socfony/internal/domain"
)

// Metadata describes a supported upload type.
type Metadata struct {
	MimeType  string
	Extension string
}

// mediaTypes maps a lower-case MIME type to its file extension.
var mediaTypes = map[string]string{
	"image/jpeg":      "jpg",
	"image/png":       "png",
	"image/gif":       "gif",
	"image/webp":      "webp",
	"image/bmp":       "bmp",
	"image/heic":      "heic",
	"image/heif":      "heif",
	"video/mp4":       "mp4",
	"video/quicktime": "mov",
	"video/webm":      "webm",
	"audio/mpeg":      "mp3",
	"audio/aac":       "aac",
	"audio/wav":       "wav",
	"audio/ogg":       "ogg",
}

// MetadataFor looks mimeType up case-insensitively. Parameters, wildcards and
// prefixes are not matched.
func MetadataFor(mimeType string) (Metadata, error) {
	key := strings.ToLower(mimeType)
	ext, ok := mediaTypes[key]
	if !ok {
		return Metadata{}, domain.NewError(domain.KindUnsupportedMediaType,
			fmt.Sprintf("unsupported media type %q", mimeType), nil)
	}
	return Metadata{MimeType: key, Extension: ext}, nil
}
