// Package baseline derives position-specific replacement-level performance
// thresholds from roster configuration and a ranked performance table.
package baseline

import (
	"fmt"
	"sort"

	"github.com/dynastyops/dynastyval/internal/domain/league"
)

// PlayerPoints is one ranked input row: a player's projected points per game.
type PlayerPoints struct {
	PlayerID string          `json:"player_id"`
	Position league.Position `json:"position"`
	PPG      float64         `json:"ppg"`
}

// InsufficientDataError reports that a position's player pool is shallower
// than the roster-depth cutoff rank.
type InsufficientDataError struct {
	Position  league.Position
	Required  int
	Available int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data for %s baseline: need rank %d, only %d ranked players", e.Position, e.Required, e.Available)
}

// Compute derives the replacement-level PPG for every position: players are
// sorted by PPG descending and the value at the roster-depth cutoff rank is
// the baseline. Pure function, no side effects; the input slice is not
// reordered.
func Compute(table []PlayerPoints, roster league.RosterConfig) (map[league.Position]float64, error) {
	if err := roster.Validate(); err != nil {
		return nil, err
	}

	byPos := make(map[league.Position][]float64)
	for _, row := range table {
		byPos[row.Position] = append(byPos[row.Position], row.PPG)
	}

	baselines := make(map[league.Position]float64, len(league.AllPositions))
	for _, pos := range league.AllPositions {
		rank := roster.BaselineRank(pos)
		pool := byPos[pos]
		if len(pool) < rank {
			return nil, &InsufficientDataError{Position: pos, Required: rank, Available: len(pool)}
		}
		sorted := make([]float64, len(pool))
		copy(sorted, pool)
		sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))
		baselines[pos] = sorted[rank-1]
	}

	return baselines, nil
}
