package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5"
	tern "github.com/jackc/tern/v2/migrate"
	"github.com/rs/zerolog"

	"shopapi/internal/config"
)

// VersionTable records the applied migration version.
const VersionTable = "schema_version"

//go:embed migrations/*.sql
var migrations embed.FS

// MigrationFS exposes the embedded migrations rooted at the migrations directory.
func MigrationFS() (fs.FS, error) {
	return fs.Sub(migrations, "migrations")
}

// Migrate applies every embedded migration that is not yet recorded in VersionTable.
// It uses a dedicated connection rather than the pool.
func Migrate(ctx context.Context, c config.DatabaseConfig, log zerolog.Logger) error {
	dsn, err := BuildPostgresDSN(c)
	if err != nil {
		return err
	}

	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return fmt.Errorf("connect for migration: %w", err)
	}
	defer conn.Close(ctx)

	m, err := tern.NewMigrator(ctx, conn, VersionTable)
	if err != nil {
		return fmt.Errorf("constructing database migrator: %w", err)
	}

	subtree, err := MigrationFS()
	if err != nil {
		return fmt.Errorf("retrieving database migrations subtree: %w", err)
	}
	if err := m.LoadMigrations(subtree); err != nil {
		return fmt.Errorf("loading database migrations: %w", err)
	}

	from, err := m.GetCurrentVersion(ctx)
	if err != nil {
		return fmt.Errorf("retrieving current database migration version: %w", err)
	}

	m.OnStart = func(seq int32, name, direction, _ string) {
		log.Info().Int32("sequence", seq).Str("migration", name).Str("direction", direction).Msg("applying migration")
	}

	if err := m.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	if from == int32(len(m.Migrations)) {
		log.Info().Int("version", len(m.Migrations)).Msg("database schema up to date")
	} else {
		log.Info().Int32("from", from).Int("to", len(m.Migrations)).Msg("migrated database schema")
	}
	return nil
}
