// cmd/dbtools/migrate/main.go
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/codr1/Clubhouse/internal/config"
	"github.com/codr1/Clubhouse/internal/db"
)

func main() {
	var (
		dbPath         = flag.String("db", "", "Path to SQLite database (overrides -config)")
		configPath     = flag.String("config", "", "Path to the application config; its database filename is used")
		migrationsPath = flag.String("migrations", "", "Migrations directory; the embedded migrations are used when empty")
		command        = flag.String("command", "", "Command to run (up, down, version, force)")
		forceVersion   = flag.String("version", "", "Version to force with -command force")
	)
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	path, err := resolveDBPath(*dbPath, *configPath)
	if err != nil || *command == "" {
		if err != nil {
			log.Error().Err(err).Msg("Invalid arguments")
		}
		flag.Usage()
		os.Exit(1)
	}

	m, err := newMigrator(path, *migrationsPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Migration init failed")
	}
	defer m.Close()

	if err := run(m, *command, *forceVersion); err != nil {
		log.Fatal().Err(err).Str("command", *command).Msg("Migration failed")
	}
}

func resolveDBPath(dbPath, configPath string) (string, error) {
	if dbPath != "" {
		return dbPath, nil
	}
	if configPath == "" {
		return "", errors.New("one of -db or -config is required")
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return "", err
	}
	return cfg.Database.Filename, nil
}

func newMigrator(dbPath, migrationsPath string) (*migrate.Migrate, error) {
	if migrationsPath != "" {
		return migrate.New("file://"+migrationsPath, "sqlite3://"+dbPath)
	}
	sqlDB, err := db.Open(dbPath)
	if err != nil {
		return nil, err
	}
	m, err := db.NewMigrator(sqlDB)
	if err != nil {
		sqlDB.Close()
		return nil, err
	}
	return m, nil
}

func run(m *migrate.Migrate, command, forceVersion string) error {
	switch command {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return err
		}
	case "down":
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return err
		}
	case "force":
		version, err := strconv.Atoi(forceVersion)
		if err != nil {
			return fmt.Errorf("invalid -version %q: %w", forceVersion, err)
		}
		if err := m.Force(version); err != nil {
			return err
		}
	case "version":
	default:
		return fmt.Errorf("unknown command: %s", command)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return err
	}
	log.Info().Uint("version", version).Bool("dirty", dirty).Msg("Migration state")
	return nil
}
