package migration

import (
	"context"

	"scoregaps/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

var _ Migrator = (*MigrationRunner)(nil)

// MigrationRunner handles database schema migrations
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

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createFactRowsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create fact_rows table")
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create indexes")
	}

	return nil
}

// cohens_d is nullable; a missing effect size is stored as NULL, never as zero
func (r *MigrationRunner) createFactRowsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS fact_rows (
			id BIGSERIAL PRIMARY KEY,
			variable TEXT NOT NULL,
			subject TEXT NOT NULL,
			jurisdiction TEXT NOT NULL,
			year INTEGER NOT NULL,
			grouping TEXT NOT NULL,
			mean DOUBLE PRECISION NOT NULL,
			sd DOUBLE PRECISION NOT NULL CHECK (sd >= 0),
			n INTEGER NOT NULL CHECK (n > 0),
			cohens_d DOUBLE PRECISION,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_fact_rows_variable ON fact_rows(variable)`,
		`CREATE INDEX IF NOT EXISTS idx_fact_rows_assessment ON fact_rows(subject, jurisdiction, year)`,
	}
	for _, stmt := range indexes {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
