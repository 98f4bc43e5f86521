package media

import (
	"errors"
	"mime"
	"path"
	"strings"
)

// ErrInvalidPath reports a media path that cannot be served.
var ErrInvalidPath = errors.New("invalid file name")

// ErrUnsupportedType reports a file extension outside the media library.
var ErrUnsupportedType = errors.New("unsupported file type")

var videoContentTypes = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/x-m4v",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
	".mov":  "video/quicktime",
	".avi":  "video/x-msvideo",
	".ogv":  "video/ogg",
}

// IsSupportedVideoExt reports whether extension is supported by the media domain.
func IsSupportedVideoExt(ext string) bool {
	_, ok := videoContentTypes[strings.ToLower(strings.TrimSpace(ext))]
	return ok
}

// ContentTypeFor returns the media type served for a file, or fallback when unknown.
func ContentTypeFor(name, fallback string) string {
	ext := strings.ToLower(path.Ext(name))
	if ct, ok := videoContentTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return fallback
}

// NormalizeVideoPath validates and normalizes incoming media path.
func NormalizeVideoPath(raw string) (string, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", ErrInvalidPath
	}

	value = strings.ReplaceAll(value, "\\", "/")
	cleaned := path.Clean("/" + value)
	cleaned = strings.TrimPrefix(cleaned, "/")
	if cleaned == "" || cleaned == "." {
		return "", ErrInvalidPath
	}

	if !IsSupportedVideoExt(path.Ext(cleaned)) {
		return "", ErrUnsupportedType
	}

	return cleaned, nil
}
