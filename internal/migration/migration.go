package migration

import (
	"context"
	"fmt"

	"resultsdash/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner creates the filter store schema for postgres or sqlite
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order. The dialect follows the driver the
// connection was opened with.
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if db == nil {
		return errors.InvalidInput("database connection cannot be nil")
	}

	var statements []string
	switch db.DriverName() {
	case "postgres":
		statements = postgresSchema
	case "sqlite", "sqlite3":
		statements = sqliteSchema
	default:
		return errors.ConfigInvalid(fmt.Sprintf("no migrations for driver %q", db.DriverName()))
	}

	for i, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return errors.DatabaseError(fmt.Sprintf("migration step %d failed", i+1), err)
		}
	}
	return nil
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS dashboard_filters (
		session_id UUID PRIMARY KEY,
		filter TEXT NOT NULL,
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,
	"CREATE INDEX IF NOT EXISTS idx_dashboard_filters_updated_at ON dashboard_filters(updated_at DESC)",
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS dashboard_filters (
		session_id TEXT PRIMARY KEY,
		filter TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	"CREATE INDEX IF NOT EXISTS idx_dashboard_filters_updated_at ON dashboard_filters(updated_at DESC)",
}
