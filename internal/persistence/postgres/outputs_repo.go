package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/dynastyops/dynastyval/internal/domain/cap"
	"github.com/dynastyops/dynastyval/internal/domain/composite"
	"github.com/dynastyops/dynastyval/internal/domain/projection"
	"github.com/dynastyops/dynastyval/internal/persistence"
)

// NewRepository wires all output repositories over one connection pool
func NewRepository(db *sqlx.DB, timeout time.Duration) *persistence.Repository {
	return &persistence.Repository{
		Valuations:   NewValuationsRepo(db, timeout),
		Projections:  NewProjectionsRepo(db, timeout),
		CapScenarios: NewCapRepo(db, timeout),
		Composites:   NewCompositesRepo(db, timeout),
	}
}

// projectionsRepo implements ProjectionRepo for PostgreSQL
type projectionsRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewProjectionsRepo creates a new PostgreSQL projections repository
func NewProjectionsRepo(db *sqlx.DB, timeout time.Duration) persistence.ProjectionRepo {
	return &projectionsRepo{db: db, timeout: timeout}
}

// InsertBatch writes one snapshot's projection rows atomically
func (r *projectionsRepo) InsertBatch(ctx context.Context, records []projection.Record) error {
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
		INSERT INTO projections (player_id, snapshot_date, target_year, years_ahead, ppg_median, ppg_floor, ppg_ceiling, insufficient_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx,
			rec.PlayerID, rec.SnapshotDate, rec.TargetYear, rec.YearsAhead,
			rec.PPGMedian, rec.PPGFloor, rec.PPGCeiling, rec.InsufficientData); err != nil {
			return fmt.Errorf("failed to insert projection for player %s year %d: %w", rec.PlayerID, rec.TargetYear, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit projections: %w", err)
	}
	return nil
}

// ListByPlayer retrieves a player's projection history across snapshots
func (r *projectionsRepo) ListByPlayer(ctx context.Context, playerID string) ([]projection.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var records []projection.Record
	err := r.db.SelectContext(ctx, &records, `
		SELECT player_id, snapshot_date, target_year, years_ahead, ppg_median, ppg_floor, ppg_ceiling, insufficient_data
		FROM projections
		WHERE player_id = $1
		ORDER BY snapshot_date, target_year`, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projections for player %s: %w", playerID, err)
	}
	return records, nil
}

// capRepo implements CapRepo for PostgreSQL
type capRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewCapRepo creates a new PostgreSQL cap-scenario repository
func NewCapRepo(db *sqlx.DB, timeout time.Duration) persistence.CapRepo {
	return &capRepo{db: db, timeout: timeout}
}

// InsertBatch writes one snapshot's cap scenarios atomically
func (r *capRepo) InsertBatch(ctx context.Context, scenarios []cap.Scenario) error {
	if len(scenarios) == 0 {
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
		INSERT INTO cap_scenarios (franchise_id, scenario_name, snapshot_date, year, base_cap, active_obligations, dead_cap_obligations, traded_cap_net, available_cap)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, s := range scenarios {
		if _, err := stmt.ExecContext(ctx,
			s.FranchiseID, s.ScenarioName, s.SnapshotDate, s.Year,
			s.BaseCap, s.Active, s.DeadCap, s.TradedNet, s.AvailableCap); err != nil {
			return fmt.Errorf("failed to insert cap scenario for franchise %s year %d: %w", s.FranchiseID, s.Year, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cap scenarios: %w", err)
	}
	return nil
}

// ListByFranchise retrieves a franchise's scenarios for a snapshot date
func (r *capRepo) ListByFranchise(ctx context.Context, franchiseID string, snapshot time.Time) ([]cap.Scenario, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var scenarios []cap.Scenario
	err := r.db.SelectContext(ctx, &scenarios, `
		SELECT franchise_id, scenario_name, snapshot_date, year, base_cap, active_obligations, dead_cap_obligations, traded_cap_net, available_cap
		FROM cap_scenarios
		WHERE franchise_id = $1 AND snapshot_date = $2
		ORDER BY scenario_name, year`, franchiseID, snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to list cap scenarios for franchise %s: %w", franchiseID, err)
	}
	return scenarios, nil
}

// compositesRepo implements CompositeRepo for PostgreSQL
type compositesRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewCompositesRepo creates a new PostgreSQL composites repository
func NewCompositesRepo(db *sqlx.DB, timeout time.Duration) persistence.CompositeRepo {
	return &compositesRepo{db: db, timeout: timeout}
}

// InsertBatch writes one snapshot's composite rows atomically
func (r *compositesRepo) InsertBatch(ctx context.Context, records []composite.Record) error {
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
		INSERT INTO composites (player_id, snapshot_date, score, rank, market_value, value_delta_vs_market, divergent)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx,
			rec.PlayerID, rec.SnapshotDate, rec.Score, rec.Rank,
			rec.MarketValue, rec.DeltaVsMarket, rec.Divergent); err != nil {
			return fmt.Errorf("failed to insert composite for player %s: %w", rec.PlayerID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit composites: %w", err)
	}
	return nil
}

// ListBySnapshot retrieves a snapshot's composite rows ranked by score
func (r *compositesRepo) ListBySnapshot(ctx context.Context, snapshot time.Time) ([]composite.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var records []composite.Record
	err := r.db.SelectContext(ctx, &records, `
		SELECT player_id, snapshot_date, score, rank, market_value, value_delta_vs_market, divergent
		FROM composites
		WHERE snapshot_date = $1
		ORDER BY score DESC`, snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to list composites: %w", err)
	}
	return records, nil
}
