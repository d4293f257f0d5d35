// internal/db/db.go
package db

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	sqlitedriver "github.com/mattn/go-sqlite3"

	"github.com/codr1/Clubhouse/internal/config"
	dbgen "github.com/codr1/Clubhouse/internal/db/generated"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Connection parameters applied unless the DSN already sets them.
var dsnDefaults = [][2]string{
	{"_fk", "1"},
	{"_busy_timeout", "5000"},
}

// DB is a migrated SQLite handle with the generated queries bound to it.
type DB struct {
	*sql.DB
	Queries *dbgen.Queries
}

// New opens dataSourceName and brings its schema up to date.
func New(dataSourceName string) (*DB, error) {
	sqlDB, err := Open(dataSourceName)
	if err != nil {
		return nil, err
	}
	if err := migrateUp(sqlDB); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return &DB{DB: sqlDB, Queries: dbgen.New(sqlDB)}, nil
}

// NewFromConfig opens the configured database, creating its directory
// first. Only the "sqlite" driver is supported.
func NewFromConfig(cfg *config.Config) (*DB, error) {
	if cfg.Database.Driver != "sqlite" {
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Database.Driver)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Filename), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}
	return New(cfg.Database.Filename)
}

// Open returns an unmigrated handle with foreign keys enforced.
func Open(dataSourceName string) (*sql.DB, error) {
	sqlDB, err := sql.Open("sqlite3", withDSNDefaults(dataSourceName))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return sqlDB, nil
}

func withDSNDefaults(dataSourceName string) string {
	path, rawQuery, _ := strings.Cut(dataSourceName, "?")
	present, _ := url.ParseQuery(rawQuery)

	var missing []string
	for _, kv := range dsnDefaults {
		if !present.Has(kv[0]) {
			missing = append(missing, kv[0]+"="+kv[1])
		}
	}
	if len(missing) == 0 {
		return dataSourceName
	}
	if rawQuery == "" {
		return path + "?" + strings.Join(missing, "&")
	}
	return dataSourceName + "&" + strings.Join(missing, "&")
}

// NewMigrator binds the embedded migrations to sqlDB. Closing the migrator
// also closes sqlDB.
func NewMigrator(sqlDB *sql.DB) (*migrate.Migrate, error) {
	target, err := sqlite3.WithInstance(sqlDB, &sqlite3.Config{})
	if err != nil {
		return nil, fmt.Errorf("migrate driver: %w", err)
	}
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("migrate source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", target)
	if err != nil {
		return nil, fmt.Errorf("migrate instance: %w", err)
	}
	return m, nil
}

func migrateUp(sqlDB *sql.DB) error {
	m, err := NewMigrator(sqlDB)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// IsUniqueViolation reports whether err came from a UNIQUE or PRIMARY KEY
// constraint. Handlers use it to turn duplicate inserts into 409s.
func IsUniqueViolation(err error) bool {
	var sqliteErr sqlitedriver.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	switch sqliteErr.ExtendedCode {
	case sqlitedriver.ErrConstraintUnique, sqlitedriver.ErrConstraintPrimaryKey:
		return true
	}
	return false
}
