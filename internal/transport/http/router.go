package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

// NewRouter configures HTTP routes and request middleware.
func NewRouter(handler *Handler, logger *zap.Logger) *mux.Router {
	r := mux.NewRouter()
	r.Use(requestID)
	r.Use(accessLog(logger))

	r.HandleFunc("/healthz", handler.Health).Methods(http.MethodGet)
	r.HandleFunc("/api/videos", handler.ListVideos).Methods(http.MethodGet)
	r.HandleFunc("/api/stream/{path:.*}", handler.StreamVideo).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/stream.php", handler.LegacyStream).Methods(http.MethodGet, http.MethodHead)
	return r
}

// WithCORS wraps h with the cross-origin policy used by browser players.
func WithCORS(h http.Handler, allowedOrigins []string) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders: []string{"Range", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"Content-Range", "Accept-Ranges", "Content-Length", "X-Request-ID"},
	})
	return c.Handler(h)
}
