package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"ministream/internal/application/media"
	"ministream/internal/config"
	"ministream/internal/infrastructure/filesystem"
	"ministream/internal/logging"
	httptransport "ministream/internal/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("ERROR: Unable to load configuration: %s\n", err.Error())
		os.Exit(1)
	}

	logger, _, err := logging.NewLogger("server", logging.Options{
		Type:   cfg.Logging.Type,
		Output: cfg.Logging.Output,
		Target: cfg.Logging.Target,
		Level:  cfg.Logging.Level,
	})
	if err != nil {
		fmt.Printf("ERROR: Unable to create logger: %s\n", err.Error())
		os.Exit(2)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("------------ Starting Media Server ------------")
	logger.Info(fmt.Sprintf("SERVER_ADDR: %s", cfg.ServerAddr))
	logger.Info(fmt.Sprintf("VIDEOS_DIR: %s", cfg.VideosDir))
	logger.Info(fmt.Sprintf("STREAM_CHUNK_BYTES: %d", cfg.StreamChunkBytes))

	store := filesystem.NewStore(cfg.VideosDir)
	if err := store.EnsureDirs(); err != nil {
		logger.Error("Storage init is failed", zap.Error(err))
		os.Exit(10)
	}

	mediaService := media.NewService(store, cfg.DefaultContentType, logger)
	streamer := httptransport.NewRangeStreamer(cfg.StreamChunkBytes, cfg.StreamWriteTimeout(), logger)
	handler := httptransport.NewHandler(mediaService, streamer, logger)
	router := httptransport.NewRouter(handler, logger)

	server := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           httptransport.WithCORS(router, cfg.CORSAllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          zap.NewStdLog(logger),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("Server started", zap.String("addr", cfg.ServerAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server is failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Graceful shutdown is failed", zap.Error(err))
	}
}
