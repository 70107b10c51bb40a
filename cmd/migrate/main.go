package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/windfall/spellcheck_service/internal/config"
	"github.com/windfall/spellcheck_service/internal/logger"
)

func main() {
	var (
		direction string
		steps     int
		dbURL     string
		path      string
	)

	flag.StringVar(&direction, "direction", "up", "Migration direction: up, down, force, or version")
	flag.IntVar(&steps, "steps", 0, "Number of migrations to run (0 = all), or the version to force")
	flag.StringVar(&dbURL, "db", "", "Database URL (defaults to DATABASE_URL)")
	flag.StringVar(&path, "path", "migrations", "Path to migration files")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}
	log := logger.ForService(cfg.LogLevel, cfg.LogFormat, "migrate")

	if dbURL == "" {
		dbURL = cfg.DatabaseURL
	}
	if dbURL == "" {
		log.Fatal().Msg("Database URL is required, set -db or DATABASE_URL")
	}

	m, err := migrate.New("file://"+path, dbURL)
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("Failed to create migrate instance")
	}
	defer m.Close()

	switch direction {
	case "up":
		if steps > 0 {
			err = m.Steps(steps)
		} else {
			err = m.Up()
		}
	case "down":
		if steps > 0 {
			err = m.Steps(-steps)
		} else {
			err = m.Down()
		}
	case "force":
		if steps == 0 {
			log.Fatal().Msg("force requires -steps to name the version")
		}
		err = m.Force(steps)
	case "version":
	default:
		log.Fatal().Str("direction", direction).Msg("Unknown direction")
	}

	noChange := errors.Is(err, migrate.ErrNoChange)
	if err != nil && !noChange {
		log.Fatal().Err(err).Str("direction", direction).Msg("Migration failed")
	}

	version, dirty, verr := m.Version()
	if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
		log.Fatal().Err(verr).Msg("Failed to read schema version")
	}
	log.Info().
		Uint("version", version).
		Bool("dirty", dirty).
		Bool("no_change", noChange).
		Str("direction", direction).
		Msg("Schema migrated")
}
