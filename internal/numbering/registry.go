package numbering

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atelier-erp/atelier/internal/shared"
)

// Registry issues the next integer for a (kind, year) pair exactly once per
// call. Integers start at 1 and are consecutive; a failed call must fail the
// surrounding create, never be retried.
type Registry interface {
	Next(ctx context.Context, kind Kind, year int) (int64, error)
}

// PGRegistry is the PostgreSQL-backed Registry.
type PGRegistry struct {
	pool *pgxpool.Pool
}

// NewPGRegistry constructs a PGRegistry on the shared pool.
func NewPGRegistry(pool *pgxpool.Pool) *PGRegistry {
	return &PGRegistry{pool: pool}
}

// Next increments and returns the counter for kind in the given year. The
// whole read-modify-write happens inside one statement; the year row is
// created lazily with the counter at 1, other counters stay at their
// defaults. Issuance runs on the pool rather than inside the document
// transaction so the counter row lock is released immediately; a document
// insert failing afterwards leaves a gap, never a duplicate.
func (r *PGRegistry) Next(ctx context.Context, kind Kind, year int) (int64, error) {
	col, err := kind.column()
	if err != nil {
		return 0, err
	}
	if year < 1 {
		return 0, fmt.Errorf("numbering: invalid year %d", year)
	}
	// col comes from the Kind whitelist, never from input.
	query := fmt.Sprintf(`
		INSERT INTO sequence_counters (year, %[1]s, updated_at)
		VALUES ($1, 1, NOW())
		ON CONFLICT (year)
		DO UPDATE SET %[1]s = sequence_counters.%[1]s + 1, updated_at = NOW()
		RETURNING %[1]s`, col)

	var n int64
	if err := r.pool.QueryRow(ctx, query, year).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: %s/%d: %v", shared.ErrSequenceUnavailable, kind, year, err)
	}
	return n, nil
}
