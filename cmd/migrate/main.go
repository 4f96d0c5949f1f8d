package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	"github.com/rs/zerolog/log"

	"github.com/agroci/agroci-api/internal/config"
	"github.com/agroci/agroci-api/internal/pkg/database"
	"github.com/agroci/agroci-api/internal/pkg/logger"
)

func main() {
	cfg := config.Load()
	logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env})

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]

	db, err := database.NewPostgres(cfg.Postgres())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	m, err := database.NewMigrator(db)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to init migrator")
	}

	switch command {
	case "up":
		err := m.Up()
		switch {
		case errors.Is(err, migrate.ErrNoChange):
			log.Info().Msg("No change: database is up to date")
		case err != nil:
			log.Fatal().Err(err).Msg("Failed to apply migrations")
		default:
			log.Info().Msg("Migrations applied")
		}

	case "down":
		// Roll back one step only
		if err := m.Steps(-1); err != nil {
			log.Fatal().Err(err).Msg("Failed to roll back last migration")
		}
		log.Info().Msg("Last migration rolled back")

	case "goto":
		if len(os.Args) < 3 {
			log.Fatal().Msg("goto requires a version number")
		}
		version, err := strconv.ParseUint(os.Args[2], 10, 64)
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid version number")
		}
		if err := m.Migrate(uint(version)); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.Fatal().Err(err).Uint64("version", version).Msg("Failed to migrate")
		}
		log.Info().Uint64("version", version).Msg("Migrated")

	case "version":
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			log.Info().Msg("No migrations applied yet")
			return
		}
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to read migration version")
		}
		log.Info().Uint("version", version).Bool("dirty", dirty).Msg("Current migration version")

	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: go run ./cmd/migrate [command]")
	fmt.Println("Commands:")
	fmt.Println("  up        - apply all pending migrations")
	fmt.Println("  down      - roll back the last migration")
	fmt.Println("  goto N    - migrate to version N")
	fmt.Println("  version   - print the current migration version")
}
