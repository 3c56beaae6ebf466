package db

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/propmgr/apiserver/config"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// NewMigrator returns a migrator over the embedded schema.
func NewMigrator(cfg config.DatabaseConfig) (*migrate.Migrate, error) {
	source, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations: %w", err)
	}
	migrator, err := migrate.NewWithSourceInstance("iofs", source, PostgresURL(cfg))
	if err != nil {
		return nil, fmt.Errorf("init migrator failed: %w", err)
	}
	return migrator, nil
}

// MigrateUp applies all pending migrations. It is a no-op when the schema is current.
func MigrateUp(cfg config.DatabaseConfig) error {
	migrator, err := NewMigrator(cfg)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = migrator.Close()
	}()

	if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up failed: %w", err)
	}
	return nil
}

// MigrateDown rolls back steps migrations.
func MigrateDown(cfg config.DatabaseConfig, steps int) error {
	if steps < 1 {
		return errors.New("steps must be positive")
	}
	migrator, err := NewMigrator(cfg)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = migrator.Close()
	}()

	if err := migrator.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate down failed: %w", err)
	}
	return nil
}

// MigrationVersion reports the applied schema version. Version 0 means no
// migration has run.
func MigrationVersion(cfg config.DatabaseConfig) (uint, bool, error) {
	migrator, err := NewMigrator(cfg)
	if err != nil {
		return 0, false, err
	}
	defer func() {
		_, _ = migrator.Close()
	}()

	version, dirty, err := migrator.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read migration version: %w", err)
	}
	return version, dirty, nil
}
