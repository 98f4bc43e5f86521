package media

import (
	"errors"
	"io"
	"os"
	"path"
	"time"

	"go.uber.org/zap"

	"ministream/internal/domain/media"
)

const defaultContentType = "video/mp4"

var (
	// ErrNotFound is returned when the requested media file is missing or unreadable.
	ErrNotFound = errors.New("video not found")
	// ErrInvalidPath is returned when the requested path cannot be mapped into the library.
	ErrInvalidPath = errors.New("invalid video path")
)

// Source is an opened media file owned by a single request.
// Callers must Close it on every exit path.
type Source struct {
	io.ReadSeekCloser

	Name        string
	Path        string
	Size        int64
	ModTime     time.Time
	ContentType string
}

// Service handles media-related use cases.
type Service struct {
	store       VideoRepository
	contentType string
	logger      *zap.Logger
}

// NewService creates a media use-case service with injected ports.
// An empty contentType falls back to video/mp4.
func NewService(store VideoRepository, contentType string, logger *zap.Logger) *Service {
	if contentType == "" {
		contentType = defaultContentType
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, contentType: contentType, logger: logger}
}

// ListVideos returns discoverable media files from the library.
func (s *Service) ListVideos() ([]media.Video, error) {
	return s.store.ListVideos()
}

// OpenVideo resolves a client supplied path and opens the file for reading.
func (s *Service) OpenVideo(rawPath string) (*Source, error) {
	rel, full, err := s.store.ResolveVideoPath(rawPath)
	if err != nil {
		s.logger.Debug("Rejected media path", zap.String("path", rawPath), zap.Error(err))
		return nil, ErrInvalidPath
	}

	file, info, err := s.store.Open(full)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("Media file is not readable", zap.String("path", rel), zap.Error(err))
		}
		return nil, ErrNotFound
	}

	return &Source{
		ReadSeekCloser: file,
		Name:           path.Base(rel),
		Path:           rel,
		Size:           info.Size(),
		ModTime:        info.ModTime(),
		ContentType:    media.ContentTypeFor(rel, s.contentType),
	}, nil
}
