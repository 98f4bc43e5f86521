package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"ministream/internal/domain/media"
)

// DefaultChunkSize is the read/flush granularity of a stream.
const DefaultChunkSize = 8 * 1024

// RangeStreamer writes one file, or one byte range of it, to a response.
type RangeStreamer struct {
	chunkSize    int
	writeTimeout time.Duration
	logger       *zap.Logger
}

// NewRangeStreamer creates a streamer. A non-positive chunkSize selects DefaultChunkSize,
// a zero writeTimeout disables the per-chunk write deadline.
func NewRangeStreamer(chunkSize int, writeTimeout time.Duration, logger *zap.Logger) *RangeStreamer {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RangeStreamer{chunkSize: chunkSize, writeTimeout: writeTimeout, logger: logger}
}

// Serve answers r from body, whose current length is size.
//
// Unsatisfiable ranges get 416 with "Content-Range: bytes */size". Otherwise the headers are
// written first and exactly window.Length() bytes follow. Once the header is out, any read or
// write failure aborts the connection instead of sending another status.
func (s *RangeStreamer) Serve(w http.ResponseWriter, r *http.Request, body io.ReadSeeker, size int64, contentType string) {
	window, err := media.ResolveWindow(r.Header.Get("Range"), size)
	if err != nil {
		s.logger.Debug("Range is not satisfiable",
			zap.String("path", r.URL.Path),
			zap.String("range", r.Header.Get("Range")),
			zap.Int64("size", size),
		)
		w.Header().Set("Content-Range", media.UnsatisfiedRange(size))
		w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
		return
	}

	if _, err := body.Seek(window.Start, io.SeekStart); err != nil {
		s.logger.Error("Seeking file content is failed",
			zap.String("path", r.URL.Path),
			zap.Int64("begins", window.Start),
			zap.Error(err),
		)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	header := w.Header()
	header.Set("Content-Type", contentType)
	header.Set("Content-Length", strconv.FormatInt(window.Length(), 10))
	header.Set("Accept-Ranges", "bytes")

	status := http.StatusOK
	if window.Partial {
		header.Set("Content-Range", window.ContentRange())
		status = http.StatusPartialContent
	}
	w.WriteHeader(status)

	if r.Method == http.MethodHead {
		return
	}

	if sent, err := s.copyWindow(w, r, body, window); err != nil {
		s.abort(r, window, sent, err)
	}
}

// copyWindow streams window.Length() bytes from body, which is positioned at window.Start.
func (s *RangeStreamer) copyWindow(w http.ResponseWriter, r *http.Request, body io.Reader, window media.ServingWindow) (int64, error) {
	rc := http.NewResponseController(w)
	if s.writeTimeout > 0 {
		defer func() { _ = rc.SetWriteDeadline(time.Time{}) }()
	}

	buf := make([]byte, s.chunkSize)
	remaining := window.Length()
	var sent int64

	for remaining > 0 {
		if err := r.Context().Err(); err != nil {
			return sent, err
		}

		n := int64(len(buf))
		if remaining < n {
			n = remaining
		}
		if _, err := io.ReadFull(body, buf[:n]); err != nil {
			return sent, err
		}

		if s.writeTimeout > 0 {
			_ = rc.SetWriteDeadline(time.Now().Add(s.writeTimeout))
		}
		written, err := w.Write(buf[:n])
		sent += int64(written)
		if err != nil {
			return sent, err
		}
		if err := rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
			return sent, err
		}
		remaining -= n
	}

	return sent, nil
}

func (s *RangeStreamer) abort(r *http.Request, window media.ServingWindow, sent int64, err error) {
	fields := []zap.Field{
		zap.String("path", r.URL.Path),
		zap.Int64("begins", window.Start),
		zap.Int64("ends", window.End),
		zap.Int64("sent", sent),
		zap.Error(err),
	}
	if errors.Is(err, context.Canceled) {
		s.logger.Debug("Client went away while streaming", fields...)
	} else {
		s.logger.Warn("Streaming file content is failed", fields...)
	}
	panic(http.ErrAbortHandler)
}
