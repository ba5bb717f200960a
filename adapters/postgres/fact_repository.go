package postgres

import (
	"context"
	"fmt"

	"scoregaps/domain/facts"
	"scoregaps/internal"
	"scoregaps/internal/errors"

	"github.com/jmoiron/sqlx"
)

const selectFactsQuery = `SELECT variable, subject, jurisdiction, year, grouping, mean, sd, n, cohens_d
	FROM fact_rows
	ORDER BY id`

const insertFactQuery = `INSERT INTO fact_rows (
		variable, subject, jurisdiction, year, grouping, mean, sd, n, cohens_d
	) VALUES (
		:variable, :subject, :jurisdiction, :year, :grouping, :mean, :sd, :n, :cohens_d
	)`

// FactRepository stores the fact table in Postgres. Rows come back in insertion order.
type FactRepository struct {
	db     *sqlx.DB
	logger *internal.Logger
}

// NewFactRepository creates a new fact repository
func NewFactRepository(db *sqlx.DB) *FactRepository {
	return &FactRepository{db: db, logger: internal.DefaultLogger.With("FactRepository")}
}

// WithLogger replaces the default logger
func (r *FactRepository) WithLogger(l *internal.Logger) *FactRepository {
	if l != nil {
		r.logger = l.With("FactRepository")
	}
	return r
}

// Describe names the source for logs
func (r *FactRepository) Describe() string {
	return "postgres:fact_rows"
}

// Fetch loads every stored fact row
func (r *FactRepository) Fetch(ctx context.Context) (*facts.Table, error) {
	var rows []facts.FactRow
	if err := r.db.SelectContext(ctx, &rows, selectFactsQuery); err != nil {
		return nil, errors.DataUnavailable(fmt.Errorf("failed to query fact rows: %w", err))
	}
	for i, row := range rows {
		if err := row.Validate(); err != nil {
			return nil, errors.DataUnavailable(fmt.Errorf("fact row %d: %w", i+1, err))
		}
	}
	return facts.NewTable(rows), nil
}

// ReplaceAll swaps the stored table for the given one in a single transaction
func (r *FactRepository) ReplaceAll(ctx context.Context, table *facts.Table) (int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, errors.DatabaseError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM fact_rows`); err != nil {
		return 0, errors.DatabaseError("failed to clear fact rows", err)
	}

	rows := table.Rows()
	for i, row := range rows {
		if _, err := tx.NamedExecContext(ctx, insertFactQuery, row); err != nil {
			return 0, errors.DatabaseError(fmt.Sprintf("failed to insert fact row %d", i+1), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.DatabaseError("failed to commit fact rows", err)
	}
	r.logger.Info("Replaced fact table with %d rows", len(rows))
	return len(rows), nil
}
