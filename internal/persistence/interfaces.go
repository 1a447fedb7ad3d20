// Package persistence defines repository interfaces for the engine's four
// output tables. The core never imports this package: orchestration calls
// the engines and hands the returned rows to a repository.
package persistence

import (
	"context"
	"time"

	"github.com/dynastyops/dynastyval/internal/domain/cap"
	"github.com/dynastyops/dynastyval/internal/domain/composite"
	"github.com/dynastyops/dynastyval/internal/domain/projection"
	"github.com/dynastyops/dynastyval/internal/domain/valuation"
)

// ValuationRepo persists per-player valuation rows keyed by
// (player_id, snapshot_date).
type ValuationRepo interface {
	// InsertBatch writes one snapshot's valuation rows atomically.
	InsertBatch(ctx context.Context, records []valuation.Record) error

	// ListBySnapshot retrieves all valuation rows for a snapshot date.
	ListBySnapshot(ctx context.Context, snapshot time.Time) ([]valuation.Record, error)
}

// ProjectionRepo persists multi-year projection rows.
type ProjectionRepo interface {
	// InsertBatch writes one snapshot's projection rows atomically.
	InsertBatch(ctx context.Context, records []projection.Record) error

	// ListByPlayer retrieves a player's projection history across snapshots.
	ListByPlayer(ctx context.Context, playerID string) ([]projection.Record, error)
}

// CapRepo persists franchise cap-scenario rows.
type CapRepo interface {
	// InsertBatch writes one snapshot's cap scenarios atomically.
	InsertBatch(ctx context.Context, scenarios []cap.Scenario) error

	// ListByFranchise retrieves a franchise's scenarios for a snapshot date.
	ListByFranchise(ctx context.Context, franchiseID string, snapshot time.Time) ([]cap.Scenario, error)
}

// CompositeRepo persists dynasty composite score rows.
type CompositeRepo interface {
	// InsertBatch writes one snapshot's composite rows atomically.
	InsertBatch(ctx context.Context, records []composite.Record) error

	// ListBySnapshot retrieves a snapshot's composite rows ranked by score.
	ListBySnapshot(ctx context.Context, snapshot time.Time) ([]composite.Record, error)
}

// Repository aggregates the output-table repositories.
type Repository struct {
	Valuations   ValuationRepo
	Projections  ProjectionRepo
	CapScenarios CapRepo
	Composites   CompositeRepo
}
