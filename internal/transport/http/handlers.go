package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"path"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	mediaapp "ministream/internal/application/media"
	mediadomain "ministream/internal/domain/media"
)

type mediaUseCases interface {
	ListVideos() ([]mediadomain.Video, error)
	OpenVideo(rawPath string) (*mediaapp.Source, error)
}

type Handler struct {
	media    mediaUseCases
	streamer *RangeStreamer
	logger   *zap.Logger
}

// NewHandler wires HTTP handlers with application use cases.
func NewHandler(mediaService mediaUseCases, streamer *RangeStreamer, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{media: mediaService, streamer: streamer, logger: logger}
}

// ListVideos handles GET /api/videos.
func (h *Handler) ListVideos(w http.ResponseWriter, r *http.Request) {
	videos, err := h.media.ListVideos()
	if err != nil {
		h.logger.Error("Listing videos is failed", zap.Error(err))
		http.Error(w, "unable to list videos", http.StatusInternalServerError)
		return
	}

	resp := make([]map[string]interface{}, 0, len(videos))
	for _, v := range videos {
		resp = append(resp, map[string]interface{}{
			"name":       v.Name,
			"path":       v.Path,
			"size":       v.Size,
			"modifiedAt": v.ModifiedAt.Unix(),
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// StreamVideo handles GET/HEAD /api/stream/{path}.
func (h *Handler) StreamVideo(w http.ResponseWriter, r *http.Request) {
	src, err := h.media.OpenVideo(getPathParam(r))
	if err != nil {
		if errors.Is(err, mediaapp.ErrInvalidPath) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusNotFound)
		return
	}
	defer src.Close()

	h.streamer.Serve(w, r, src, src.Size, src.ContentType)
}

// LegacyStream handles GET/HEAD /stream.php?file=<name>.
// Only the base name of file is honoured and every failure to open answers 404.
func (h *Handler) LegacyStream(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("file")
	if name == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	src, err := h.media.OpenVideo(path.Base(name))
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	defer src.Close()

	h.streamer.Serve(w, r, src, src.Size, src.ContentType)
}

// Health handles GET /healthz.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func getPathParam(r *http.Request) string {
	value := mux.Vars(r)["path"]
	if value != "" {
		return value
	}
	return r.URL.Query().Get("path")
}
