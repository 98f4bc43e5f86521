package filesystem

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"ministream/internal/domain/media"
)

// ErrOutsideRoot is returned when a resolved path escapes the media root.
var ErrOutsideRoot = errors.New("invalid file path")

// Store manages media files under a single root directory.
type Store struct {
	VideosDir string
}

// NewStore creates filesystem adapter with configured root.
func NewStore(videosDir string) *Store {
	return &Store{VideosDir: videosDir}
}

// EnsureDirs creates the media root.
func (s *Store) EnsureDirs() error {
	if err := os.MkdirAll(s.VideosDir, 0o755); err != nil {
		return errors.Wrapf(err, "unable to create media root %s", s.VideosDir)
	}
	return nil
}

// ListVideos scans media library and returns entries newest first.
func (s *Store) ListVideos() ([]media.Video, error) {
	if _, err := os.Stat(s.VideosDir); err != nil {
		return nil, errors.Wrap(err, "media root is not accessible")
	}

	videos := make([]media.Video, 0)
	_ = filepath.WalkDir(s.VideosDir, func(filePath string, entry fs.DirEntry, err error) error {
		if err != nil || entry.IsDir() {
			return nil
		}
		if !media.IsSupportedVideoExt(filepath.Ext(entry.Name())) {
			return nil
		}

		info, err := entry.Info()
		if err != nil {
			return nil
		}

		rel, err := filepath.Rel(s.VideosDir, filePath)
		if err != nil {
			return nil
		}

		videos = append(videos, media.Video{
			Name:       entry.Name(),
			Path:       filepath.ToSlash(rel),
			Size:       info.Size(),
			ModifiedAt: info.ModTime(),
		})
		return nil
	})

	sort.SliceStable(videos, func(i, j int) bool {
		return videos[i].ModifiedAt.After(videos[j].ModifiedAt)
	})

	return videos, nil
}

// ResolveVideoPath validates a request path and returns relative/absolute forms.
// The absolute form never points outside the media root.
func (s *Store) ResolveVideoPath(raw string) (string, string, error) {
	rel, err := media.NormalizeVideoPath(raw)
	if err != nil {
		return "", "", err
	}
	full := filepath.Join(s.VideosDir, filepath.FromSlash(rel))
	if !isWithinDir(s.VideosDir, full) {
		return "", "", ErrOutsideRoot
	}
	return rel, full, nil
}

// Open opens a media file read-only and stats the handle.
// The size is read on every call; files may be replaced between requests.
func (s *Store) Open(fullPath string) (*os.File, os.FileInfo, error) {
	if !isWithinDir(s.VideosDir, fullPath) {
		return nil, nil, ErrOutsideRoot
	}

	file, err := os.Open(fullPath)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "unable to open %s", fullPath)
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, nil, errors.Wrapf(err, "unable to stat %s", fullPath)
	}
	if info.IsDir() {
		_ = file.Close()
		return nil, nil, errors.Wrapf(os.ErrNotExist, "%s is a directory", fullPath)
	}

	return file, info, nil
}

func isWithinDir(basePath, targetPath string) bool {
	baseAbs, err := filepath.Abs(basePath)
	if err != nil {
		return false
	}
	targetAbs, err := filepath.Abs(targetPath)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(baseAbs, targetAbs)
	if err != nil {
		return false
	}
	sep := string(os.PathSeparator)
	if rel == ".." || strings.HasPrefix(rel, ".."+sep) {
		return false
	}
	return true
}
