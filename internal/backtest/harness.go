// Package backtest re-runs the projection engine against historical cutoffs
// with strict temporal splitting to measure forecast error. It is validation
// infrastructure, not part of the production pipeline.
package backtest

import (
	"fmt"
	"math"
	"time"

	"github.com/dynastyops/dynastyval/internal/domain/aging"
	"github.com/dynastyops/dynastyval/internal/domain/league"
	"github.com/dynastyops/dynastyval/internal/domain/projection"
)

// Config describes one backtest run.
type Config struct {
	Cutoff     time.Time         // Training cutoff: no input row after this instant may be used
	CutoffYear int               // Season corresponding to the cutoff
	Params     projection.Params // Projection parameters applied at the cutoff
}

// TemporalIntegrityError reports training data dated after the cutoff.
// Lookahead leakage invalidates the whole run, so this is a hard failure.
type TemporalIntegrityError struct {
	PlayerID string
	RowDate  time.Time
	Cutoff   time.Time
}

func (e *TemporalIntegrityError) Error() string {
	return fmt.Sprintf("temporal integrity violation: row for player %s dated %s is after cutoff %s",
		e.PlayerID, e.RowDate.Format("2006-01-02"), e.Cutoff.Format("2006-01-02"))
}

// Actual is one held-out observed outcome: a player's realized PPG for a
// season after the cutoff.
type Actual struct {
	PlayerID string  `json:"player_id"`
	Year     int     `json:"year"`
	PPG      float64 `json:"ppg"`
}

// PlayerInput bundles one player's training-side inputs.
type PlayerInput struct {
	Player  league.Player
	BasePPG *float64
	Recent  []league.PerformanceRecord
	Curve   *aging.Curve
}

// PlayerResult pairs one projection with its held-out actual.
type PlayerResult struct {
	PlayerID   string  `json:"player_id"`
	Year       int     `json:"year"`
	YearsAhead int     `json:"years_ahead"`
	Projected  float64 `json:"projected"`
	Actual     float64 `json:"actual"`
	Error      float64 `json:"error"`
	InInterval bool    `json:"in_interval"`
}

// Metrics summarizes forecast accuracy across all evaluated player-years.
type Metrics struct {
	Evaluated        int     `json:"evaluated"`
	Skipped          int     `json:"skipped"`
	MAE              float64 `json:"mae"`
	RMSE             float64 `json:"rmse"`
	Bias             float64 `json:"bias"`
	IntervalCoverage float64 `json:"interval_coverage"`
}

// Results is the complete output of one backtest run.
type Results struct {
	Config    Config         `json:"config"`
	StartedAt time.Time      `json:"started_at"`
	Players   []PlayerResult `json:"players"`
	Metrics   Metrics        `json:"metrics"`
}

// Runner executes projection backtests.
type Runner struct {
	config Config
}

// NewRunner creates a backtest runner for one cutoff.
func NewRunner(config Config) *Runner {
	return &Runner{config: config}
}

// Run projects every input player as of the cutoff and scores the
// projections against held-out actuals. Every training row is checked
// against the cutoff first; a single post-cutoff row aborts the run.
func (r *Runner) Run(inputs []PlayerInput, actuals []Actual) (*Results, error) {
	for _, in := range inputs {
		for _, row := range in.Recent {
			if row.Date.After(r.config.Cutoff) {
				return nil, &TemporalIntegrityError{PlayerID: row.PlayerID, RowDate: row.Date, Cutoff: r.config.Cutoff}
			}
		}
	}

	params := r.config.Params
	params.SnapshotYear = r.config.CutoffYear
	params.SnapshotDate = r.config.Cutoff

	actualByKey := make(map[string]float64, len(actuals))
	for _, a := range actuals {
		actualByKey[fmt.Sprintf("%s|%d", a.PlayerID, a.Year)] = a.PPG
	}

	results := &Results{
		Config:    r.config,
		StartedAt: time.Now().UTC(),
	}

	skipped := 0
	for _, in := range inputs {
		records, err := projection.ProjectMultiYear(in.Player, in.BasePPG, in.Recent, in.Curve, params)
		if err != nil {
			return nil, fmt.Errorf("backtest projection for player %s: %w", in.Player.ID, err)
		}

		for _, rec := range records {
			if rec.InsufficientData {
				skipped++
				continue
			}
			actual, ok := actualByKey[fmt.Sprintf("%s|%d", rec.PlayerID, rec.TargetYear)]
			if !ok {
				skipped++
				continue
			}
			results.Players = append(results.Players, PlayerResult{
				PlayerID:   rec.PlayerID,
				Year:       rec.TargetYear,
				YearsAhead: rec.YearsAhead,
				Projected:  rec.PPGMedian,
				Actual:     actual,
				Error:      rec.PPGMedian - actual,
				InInterval: actual >= rec.PPGFloor && actual <= rec.PPGCeiling,
			})
		}
	}

	results.Metrics = summarize(results.Players, skipped)
	return results, nil
}

// summarize aggregates per-player errors into run-level metrics.
func summarize(players []PlayerResult, skipped int) Metrics {
	m := Metrics{Evaluated: len(players), Skipped: skipped}
	if len(players) == 0 {
		return m
	}

	var absSum, sqSum, biasSum float64
	covered := 0
	for _, p := range players {
		absSum += math.Abs(p.Error)
		sqSum += p.Error * p.Error
		biasSum += p.Error
		if p.InInterval {
			covered++
		}
	}

	n := float64(len(players))
	m.MAE = absSum / n
	m.RMSE = math.Sqrt(sqSum / n)
	m.Bias = biasSum / n
	m.IntervalCoverage = float64(covered) / n
	return m
}
