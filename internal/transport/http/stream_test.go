package http

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleFile(size int) []byte {
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i % 251)
	}
	return data
}

// countingReader records how many bytes were pulled from the underlying file.
type countingReader struct {
	*bytes.Reader
	read int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.Reader.Read(p)
	c.read += int64(n)
	return n, err
}

// flushCounter counts flushes requested by the streamer.
type flushCounter struct {
	*httptest.ResponseRecorder
	flushes int
}

func (f *flushCounter) Flush() {
	f.flushes++
	f.ResponseRecorder.Flush()
}

func serve(t *testing.T, s *RangeStreamer, data []byte, method, rangeHeader string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, "/api/stream/clip.mp4", nil)
	if rangeHeader != "" {
		req.Header.Set("Range", rangeHeader)
	}
	rec := httptest.NewRecorder()
	s.Serve(rec, req, bytes.NewReader(data), int64(len(data)), "video/mp4")
	return rec
}

func TestServe_WholeFileWithoutRange(t *testing.T) {
	data := sampleFile(1000)
	rec := serve(t, NewRangeStreamer(0, 0, nil), data, http.MethodGet, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1000", rec.Header().Get("Content-Length"))
	assert.Equal(t, "bytes", rec.Header().Get("Accept-Ranges"))
	assert.Equal(t, "video/mp4", rec.Header().Get("Content-Type"))
	assert.Empty(t, rec.Header().Get("Content-Range"))
	assert.Equal(t, data, rec.Body.Bytes())
}

func TestServe_PartialContent(t *testing.T) {
	data := sampleFile(1000)
	cases := []struct {
		header       string
		start, end   int
		contentRange string
	}{
		{"bytes=200-299", 200, 299, "bytes 200-299/1000"},
		{"bytes=-100", 900, 999, "bytes 900-999/1000"},
		{"bytes=500-", 500, 999, "bytes 500-999/1000"},
		{"bytes=0-0", 0, 0, "bytes 0-0/1000"},
		{"bytes=990-2000", 990, 999, "bytes 990-999/1000"},
	}

	for _, tc := range cases {
		t.Run(tc.header, func(t *testing.T) {
			rec := serve(t, NewRangeStreamer(64, 0, nil), data, http.MethodGet, tc.header)

			assert.Equal(t, http.StatusPartialContent, rec.Code)
			assert.Equal(t, tc.contentRange, rec.Header().Get("Content-Range"))
			assert.Equal(t, strconv.Itoa(tc.end-tc.start+1), rec.Header().Get("Content-Length"))
			assert.Equal(t, "bytes", rec.Header().Get("Accept-Ranges"))
			assert.Equal(t, data[tc.start:tc.end+1], rec.Body.Bytes())
		})
	}
}

func TestServe_UnsatisfiableRanges(t *testing.T) {
	data := sampleFile(1000)
	headers := []string{
		"bytes=1200-1300",
		"bytes=300-200",
		"bytes=0-10,20-30",
		"bytes=x-10",
		"pages=1-2",
	}

	for _, header := range headers {
		t.Run(header, func(t *testing.T) {
			rec := serve(t, NewRangeStreamer(0, 0, nil), data, http.MethodGet, header)

			assert.Equal(t, http.StatusRequestedRangeNotSatisfiable, rec.Code)
			assert.Equal(t, "bytes */1000", rec.Header().Get("Content-Range"))
			assert.Zero(t, rec.Body.Len())
		})
	}
}

func TestServe_NeverReadsPastWindow(t *testing.T) {
	data := sampleFile(1000)
	body := &countingReader{Reader: bytes.NewReader(data)}

	req := httptest.NewRequest(http.MethodGet, "/api/stream/clip.mp4", nil)
	req.Header.Set("Range", "bytes=10-36")
	rec := httptest.NewRecorder()
	NewRangeStreamer(8, 0, nil).Serve(rec, req, body, int64(len(data)), "video/mp4")

	assert.Equal(t, http.StatusPartialContent, rec.Code)
	assert.Equal(t, int64(27), body.read)
	assert.Equal(t, data[10:37], rec.Body.Bytes())
}

func TestServe_FlushesEveryChunk(t *testing.T) {
	data := sampleFile(100)
	req := httptest.NewRequest(http.MethodGet, "/api/stream/clip.mp4", nil)
	w := &flushCounter{ResponseRecorder: httptest.NewRecorder()}

	NewRangeStreamer(30, 0, nil).Serve(w, req, bytes.NewReader(data), int64(len(data)), "video/mp4")

	assert.Equal(t, 4, w.flushes)
	assert.Equal(t, data, w.Body.Bytes())
}

func TestServe_HeadWritesHeadersOnly(t *testing.T) {
	data := sampleFile(1000)
	rec := serve(t, NewRangeStreamer(0, 0, nil), data, http.MethodHead, "bytes=100-199")

	assert.Equal(t, http.StatusPartialContent, rec.Code)
	assert.Equal(t, "100", rec.Header().Get("Content-Length"))
	assert.Zero(t, rec.Body.Len())
}

func TestServe_EmptyFile(t *testing.T) {
	rec := serve(t, NewRangeStreamer(0, 0, nil), nil, http.MethodGet, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("Content-Length"))
	assert.Zero(t, rec.Body.Len())

	rec = serve(t, NewRangeStreamer(0, 0, nil), nil, http.MethodGet, "bytes=0-")
	assert.Equal(t, http.StatusRequestedRangeNotSatisfiable, rec.Code)
	assert.Equal(t, "bytes */0", rec.Header().Get("Content-Range"))
}

func TestServe_Idempotent(t *testing.T) {
	data := sampleFile(4096)
	s := NewRangeStreamer(512, 0, nil)

	first := serve(t, s, data, http.MethodGet, "bytes=1000-3000")
	second := serve(t, s, data, http.MethodGet, "bytes=1000-3000")

	assert.Equal(t, first.Code, second.Code)
	assert.Equal(t, first.Header(), second.Header())
	assert.Equal(t, first.Body.Bytes(), second.Body.Bytes())
}

func TestServe_TruncatedFileAbortsAfterHeaders(t *testing.T) {
	data := sampleFile(500)
	req := httptest.NewRequest(http.MethodGet, "/api/stream/clip.mp4", nil)
	rec := httptest.NewRecorder()

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		NewRangeStreamer(128, 0, nil).Serve(rec, req, bytes.NewReader(data), 1000, "video/mp4")
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1000", rec.Header().Get("Content-Length"))
	assert.Less(t, rec.Body.Len(), 1000)
}

type failingReader struct {
	*bytes.Reader
	failAfter int64
	read      int64
}

func (f *failingReader) Read(p []byte) (int, error) {
	if f.read >= f.failAfter {
		return 0, errors.New("input/output error")
	}
	n, err := f.Reader.Read(p)
	f.read += int64(n)
	return n, err
}

func TestServe_ReadFailureAborts(t *testing.T) {
	data := sampleFile(1000)
	body := &failingReader{Reader: bytes.NewReader(data), failAfter: 256}
	req := httptest.NewRequest(http.MethodGet, "/api/stream/clip.mp4", nil)
	rec := httptest.NewRecorder()

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		NewRangeStreamer(128, 0, nil).Serve(rec, req, body, int64(len(data)), "video/mp4")
	})
	assert.Equal(t, data[:256], rec.Body.Bytes())
}

type brokenWriter struct {
	*httptest.ResponseRecorder
}

func (b *brokenWriter) Write(_ []byte) (int, error) {
	return 0, io.ErrClosedPipe
}

func TestServe_WriteFailureAborts(t *testing.T) {
	data := sampleFile(100)
	req := httptest.NewRequest(http.MethodGet, "/api/stream/clip.mp4", nil)
	w := &brokenWriter{ResponseRecorder: httptest.NewRecorder()}

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		NewRangeStreamer(0, 0, nil).Serve(w, req, bytes.NewReader(data), int64(len(data)), "video/mp4")
	})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServe_CancelledRequestStops(t *testing.T) {
	data := sampleFile(100)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/stream/clip.mp4", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		NewRangeStreamer(0, 0, nil).Serve(rec, req, bytes.NewReader(data), int64(len(data)), "video/mp4")
	})
	assert.Zero(t, rec.Body.Len())
}

func TestServe_OverRealConnection(t *testing.T) {
	data := sampleFile(64 * 1024)
	s := NewRangeStreamer(0, time.Second, nil)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.Serve(w, r, bytes.NewReader(data), int64(len(data)), "video/mp4")
	}))
	defer srv.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	req.Header.Set("Range", "bytes=1024-40959")

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusPartialContent, resp.StatusCode)
	assert.Equal(t, "bytes 1024-40959/65536", resp.Header.Get("Content-Range"))
	assert.Equal(t, int64(39936), resp.ContentLength)
	assert.Equal(t, data[1024:40960], body)
}
