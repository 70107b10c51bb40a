package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/windfall/spellcheck_service/internal/app"
	"github.com/windfall/spellcheck_service/internal/client"
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
	log := logger.ForService(cfg.LogLevel, cfg.LogFormat, "web")
	log.Info().Str("env", cfg.Environment).Msg("Starting spellcheck web app")

	if err := cfg.ValidateStore(); err != nil {
		log.Fatal().Err(err).Msg("Invalid storage configuration")
	}
	if err := cfg.ValidateSession(); err != nil {
		log.Fatal().Err(err).Msg("Invalid session configuration")
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stores, err := app.OpenStores(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open metadata store")
	}
	defer stores.Close()

	healthHandler := http.NewHealthHandler("web")
	if stores.Postgres != nil {
		healthHandler.AddDependency("postgres", stores.Postgres)
	}

	// Assessment runs in-process unless ASSESSMENT_SERVICE_URL points at a separate deployment.
	var assessor service.Assessor
	if cfg.RemoteAssessment() {
		remote, err := client.NewAssessorClient(cfg.AssessmentServiceURL, cfg.AssessmentTimeout)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create assessment client")
		}
		log.Info().Str("url", cfg.AssessmentServiceURL).Msg("Relaying assessments to remote service")
		assessor = remote
	} else {
		blobs, err := app.OpenBlobStore(ctx, cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open blob store")
		}
		defer blobs.Close()

		audioStore, err := service.NewAudioStore(stores.Audio, blobs, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create audio store")
		}

		local, closeEvents, err := app.NewLocalAssessor(ctx, cfg, log, audioStore)
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid speech configuration")
		}
		defer closeEvents()
		log.Info().Msg("Assessing recordings in-process")
		assessor = local
	}

	// Initialize services
	spellService := service.NewSpellService(stores.Spells, log)
	if cfg.RedisURL != "" {
		redisClient, err := client.NewRedisClient(cfg.RedisURL)
		if err != nil {
			log.Error().Err(err).Msg("Failed to initialize Redis client, catalog cache disabled")
		} else {
			log.Info().Msg("Redis client initialized")
			spellService.WithCache(redisClient, cfg.CatalogCacheTTL)
			healthHandler.AddDependency("redis", redisClient)
			defer redisClient.Close()
		}
	}
	authService := service.NewAuthService(stores.Users, cfg.SessionSecret, cfg.SessionTTL)

	// Initialize handlers
	renderer, err := http.NewRenderer(log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to parse templates")
	}
	handlers := server.WebHandlers{
		Health: healthHandler,
		Spells: http.NewSpellHandler(log, spellService, renderer),
		Audio:  http.NewAudioHandler(log, assessor, spellService, cfg.MaxUploadBytes),
		Auth:   http.NewAuthHandler(log, authService, renderer, cfg.IsProduction()),
	}

	httpServer := server.NewHTTPServer(cfg, log, server.NewWebHandler(cfg, log, handlers, authService))

	go func() {
		if err := httpServer.Start(); err != nil {
			log.Error().Err(err).Msg("HTTP server error")
			cancel()
		}
	}()

	log.Info().
		Str("http_addr", cfg.HTTPAddress()).
		Bool("remote_assessment", cfg.RemoteAssessment()).
		Msg("Web app started")

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

	log.Info().Msg("Web app stopped")
}
