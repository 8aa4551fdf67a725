package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var stateSchema embed.FS

// MigrateState brings the state file at dbPath up to the latest schema and
// returns the schema version it ended at.
func MigrateState(dbPath string) (uint, error) {
	// the migrator closes the connection it is given
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return 0, fmt.Errorf("open state for migration: %w", err)
	}
	defer conn.Close()

	target, err := sqlite.WithInstance(conn, &sqlite.Config{MigrationsTable: "kv_schema_migrations"})
	if err != nil {
		return 0, fmt.Errorf("state migration driver: %w", err)
	}
	source, err := iofs.New(stateSchema, "migrations")
	if err != nil {
		return 0, fmt.Errorf("state migration source: %w", err)
	}
	mig, err := migrate.NewWithInstance("iofs", source, "sqlite", target)
	if err != nil {
		return 0, fmt.Errorf("state migrator: %w", err)
	}
	defer mig.Close()

	if err := mig.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("migrate state: %w", err)
	}
	version, dirty, err := mig.Version()
	if err != nil {
		return 0, fmt.Errorf("state schema version: %w", err)
	}
	if dirty {
		return version, fmt.Errorf("state schema %d is dirty; remove %s to reset", version, dbPath)
	}
	return version, nil
}
