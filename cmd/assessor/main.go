package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/windfall/spellcheck_service/internal/app"
	"github.com/windfall/spellcheck_service/internal/config"
	"github.com/windfall/spellcheck_service/internal/handler/http"
	"github.com/windfall/spellcheck_service/internal/logger"
	"github.com/windfall/spellcheck_service/internal/server"
	"github.com/windfall/spellcheck_service/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize logger
	log := logger.ForService(cfg.LogLevel, cfg.LogFormat, "assessor")
	log.Info().Str("env", cfg.Environment).Msg("Starting assessment service")

	if err := cfg.ValidateStore(); err != nil {
		log.Fatal().Err(err).Msg("Invalid storage configuration")
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stores, err := app.OpenStores(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open metadata store")
	}
	defer stores.Close()

	blobs, err := app.OpenBlobStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open blob store")
	}
	defer blobs.Close()

	audioStore, err := service.NewAudioStore(stores.Audio, blobs, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create audio store")
	}

	assessor, closeEvents, err := app.NewLocalAssessor(ctx, cfg, log, audioStore)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid speech configuration")
	}
	defer closeEvents()

	// Initialize handlers
	healthHandler := http.NewHealthHandler("assessor")
	if stores.Postgres != nil {
		healthHandler.AddDependency("postgres", stores.Postgres)
	}
	assessHandler := http.NewAssessHandler(log, assessor, audioStore, cfg.MaxUploadBytes)

	httpServer := server.NewHTTPServer(cfg, log, server.NewAssessorHandler(cfg, log, healthHandler, assessHandler))

	go func() {
		if err := httpServer.Start(); err != nil {
			log.Error().Err(err).Msg("HTTP server error")
			cancel()
		}
	}()

	log.Info().
		Str("http_addr", cfg.HTTPAddress()).
		Str("blob_backend", cfg.BlobBackend).
		Str("storage_driver", cfg.StorageDriver).
		Msg("Assessment service started")

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Info().Msg("Shutdown signal received")
	case <-ctx.Done():
		log.Info().Msg("Context cancelled")
	}

	healthHandler.SetReady(false)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	log.Info().Msg("Assessment service stopped")
}
