package ports

import (
	"context"

	"scoregaps/domain/facts"
)

// FactSource loads the fact table from wherever it lives (file, HTTP, database).
// Implementations return a DATA_UNAVAILABLE AppError on any failure.
type FactSource interface {
	Fetch(ctx context.Context) (*facts.Table, error)
	Describe() string
}

// FactWriter replaces the stored fact table, used by the ETL import
type FactWriter interface {
	ReplaceAll(ctx context.Context, table *facts.Table) (int, error)
}
