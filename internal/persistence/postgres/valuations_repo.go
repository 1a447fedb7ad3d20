package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/dynastyops/dynastyval/internal/domain/valuation"
	"github.com/dynastyops/dynastyval/internal/persistence"
)

// valuationsRepo implements ValuationRepo for PostgreSQL
type valuationsRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewValuationsRepo creates a new PostgreSQL valuations repository
func NewValuationsRepo(db *sqlx.DB, timeout time.Duration) persistence.ValuationRepo {
	return &valuationsRepo{db: db, timeout: timeout}
}

// InsertBatch writes one snapshot's valuation rows atomically
func (r *valuationsRepo) InsertBatch(ctx context.Context, records []valuation.Record) error {
	if len(records) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO valuations (player_id, snapshot_date, position, vor, war, scarcity_adjustment, adjusted_vor, dollar_per_war)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx,
			rec.PlayerID, rec.SnapshotDate, rec.Position,
			rec.VoR, rec.WAR, rec.ScarcityAdj, rec.AdjustedVoR, rec.DollarPerWAR); err != nil {
			if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
				return fmt.Errorf("duplicate valuation for player %s: %w", rec.PlayerID, err)
			}
			return fmt.Errorf("failed to insert valuation for player %s: %w", rec.PlayerID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit valuations: %w", err)
	}
	return nil
}

// ListBySnapshot retrieves all valuation rows for a snapshot date
func (r *valuationsRepo) ListBySnapshot(ctx context.Context, snapshot time.Time) ([]valuation.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var records []valuation.Record
	err := r.db.SelectContext(ctx, &records, `
		SELECT player_id, snapshot_date, position, vor, war, scarcity_adjustment, adjusted_vor, dollar_per_war
		FROM valuations
		WHERE snapshot_date = $1
		ORDER BY adjusted_vor DESC`, snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to list valuations: %w", err)
	}
	return records, nil
}
