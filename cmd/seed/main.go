package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/windfall/spellcheck_service/internal/app"
	"github.com/windfall/spellcheck_service/internal/client"
	"github.com/windfall/spellcheck_service/internal/config"
	"github.com/windfall/spellcheck_service/internal/logger"
	"github.com/windfall/spellcheck_service/internal/repository"
	"github.com/windfall/spellcheck_service/internal/seed"
)

func main() {
	var (
		spellsFile string
		demoUsers  bool
	)
	flag.StringVar(&spellsFile, "spells", "", "Path to a spells JSON file (defaults to SEED_SPELLS_FILE or the bundled dataset)")
	flag.BoolVar(&demoUsers, "demo-users", false, "Also create demo accounts (or set SEED_DEMO_USERS)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	log := logger.ForService(cfg.LogLevel, cfg.LogFormat, "seed")

	if err := cfg.ValidateStore(); err != nil {
		log.Fatal().Err(err).Msg("Invalid storage configuration")
	}
	if cfg.StorageDriver == config.StorageDriverMemory {
		log.Warn().Msg("Seeding the in-memory store has no lasting effect")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores, err := app.OpenStores(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open metadata store")
	}
	defer stores.Close()

	if spellsFile == "" {
		spellsFile = cfg.SeedSpellsFile
	}
	var spells []*repository.Spell
	if spellsFile != "" {
		spells, err = seed.LoadSpellsFile(spellsFile)
	} else {
		spells, err = seed.DefaultSpells()
	}
	if err != nil {
		log.Fatal().Err(err).Str("file", spellsFile).Msg("Failed to load spells")
	}

	inserted, err := seed.Spells(ctx, stores.Spells, spells, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to seed spells")
	}
	if inserted > 0 && cfg.RedisURL != "" {
		invalidateCatalog(ctx, cfg.RedisURL, log)
	}

	if demoUsers || cfg.SeedDemoUsers {
		if _, err := seed.DemoUsers(ctx, stores.Users, seed.DefaultDemoUsers, log); err != nil {
			log.Fatal().Err(err).Msg("Failed to seed demo users")
		}
	}

	log.Info().Msg("Seeding complete")
}

// invalidateCatalog drops the web app's cached catalog so new spells show up immediately.
func invalidateCatalog(ctx context.Context, redisURL string, log zerolog.Logger) {
	redisClient, err := client.NewRedisClient(redisURL)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to connect to Redis, cached catalog left in place")
		return
	}
	defer redisClient.Close()

	if err := redisClient.InvalidateSpells(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to invalidate cached catalog")
	}
}
