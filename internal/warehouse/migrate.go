//-------------------------------------------------------------------------
//
// pgEdge Lottery Warehouse
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package warehouse

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/pgEdge/pgedge-lottery-warehouse/internal/logging"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate brings the warehouse schema up to date. Running it against an
// already current schema is a no-op.
func Migrate(connString string) error {
	m, err := newMigrate(connString)
	if err != nil {
		return err
	}
	defer closeMigrate(m)

	return up(m)
}

// Reset drops every warehouse table, including the run log, and recreates
// the schema empty. All loaded data is lost.
func Reset(connString string) error {
	m, err := newMigrate(connString)
	if err != nil {
		return err
	}
	defer closeMigrate(m)

	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to drop warehouse schema: %w", err)
	}
	logging.Warn().Msg("Dropped warehouse schema")

	return up(m)
}

// SchemaVersion reports the applied migration version. A warehouse with no
// migrations applied returns version 0.
func SchemaVersion(connString string) (uint, bool, error) {
	m, err := newMigrate(connString)
	if err != nil {
		return 0, false, err
	}
	defer closeMigrate(m)

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, dirty, nil
}

func up(m *migrate.Migrate) error {
	err := m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		logging.Info().Msg("Warehouse schema is up to date")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, _, _ := m.Version()
	logging.Info().Uint("version", version).Msg("Migrated warehouse schema")
	return nil
}

func newMigrate(connString string) (*migrate.Migrate, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	sqlDB := stdlib.OpenDB(*config.ConnConfig)

	driver, err := postgres.WithInstance(sqlDB, &postgres.Config{})
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to create postgres driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return m, nil
}

func closeMigrate(m *migrate.Migrate) {
	srcErr, dbErr := m.Close()
	if srcErr != nil || dbErr != nil {
		logging.Debug().AnErr("source", srcErr).AnErr("database", dbErr).
			Msg("Error closing migrate instance")
	}
}
