// Package valuation computes value-over-replacement and win-equivalent
// scores from baselines and player performance.
package valuation

import (
	"fmt"
	"math"
	"time"

	"github.com/dynastyops/dynastyval/internal/domain/league"
)

// Record is one valuation row per player per snapshot. DollarPerWAR is nil
// for free agents: "no active contract" is a distinct semantic from zero
// cost or infinite efficiency.
type Record struct {
	PlayerID     string          `json:"player_id" db:"player_id"`
	SnapshotDate time.Time       `json:"snapshot_date" db:"snapshot_date"`
	Position     league.Position `json:"position" db:"position"`
	VoR          float64         `json:"vor" db:"vor"`
	WAR          float64         `json:"war" db:"war"`
	ScarcityAdj  float64         `json:"scarcity_adjustment" db:"scarcity_adjustment"`
	AdjustedVoR  float64         `json:"adjusted_vor" db:"adjusted_vor"`
	DollarPerWAR *float64        `json:"dollar_per_war,omitempty" db:"dollar_per_war"`
}

// VoR converts a per-game margin over the replacement baseline into a
// season-total value. Negative results are valid: below-replacement players
// carry negative value.
func VoR(ppg, baseline float64, seasonLength int) float64 {
	return (ppg - baseline) * float64(seasonLength)
}

// WAR applies the configured VoR→win-equivalent transform for a position.
// The transform is monotonic and sign-preserving: below-replacement value
// maps to negative wins.
func WAR(vor float64, scale league.WARScale) (float64, error) {
	if err := scale.Validate(); err != nil {
		return 0, err
	}
	if scale.Exponent == 1.0 {
		return vor / scale.PointsPerWin, nil
	}
	return math.Copysign(math.Pow(math.Abs(vor/scale.PointsPerWin), scale.Exponent), vor), nil
}

// ApplyScarcity multiplies VoR by the position's supply/demand factor.
// The factor must be non-negative; a missing position defaults to 1.0
// (no adjustment) since absence of a scarcity entry is not a rule violation.
func ApplyScarcity(vor float64, pos league.Position, table map[league.Position]float64) (float64, error) {
	factor, ok := table[pos]
	if !ok {
		return vor, nil
	}
	if factor < 0 {
		return 0, fmt.Errorf("scarcity factor for %s is negative: %.3f", pos, factor)
	}
	return vor * factor, nil
}

// ContractEfficiency returns dollars paid per win above replacement, or nil
// when the player has no active contract. A zero-WAR player under contract
// is a computation error: the ratio is undefined and returning a number
// would misstate it.
func ContractEfficiency(playerID string, war float64, annualAmount *float64) (*float64, error) {
	if annualAmount == nil {
		return nil, nil
	}
	if *annualAmount <= 0 {
		return nil, fmt.Errorf("player %s: non-positive contract amount %.2f", playerID, *annualAmount)
	}
	if war == 0 {
		return nil, fmt.Errorf("player %s: contract efficiency undefined at zero WAR (amount %.2f)", playerID, *annualAmount)
	}
	eff := *annualAmount / war
	return &eff, nil
}

// Valuate produces the full valuation record for one player. annualAmount is
// nil for free agents. A contracted player at exactly zero WAR keeps a nil
// DollarPerWAR: the ratio is undefined there, and the rank-cutoff player
// always exists in the population, so an at-replacement contract must not
// fail the run.
func Valuate(player league.Player, ppg, posBaseline float64, rules league.RuleSet, annualAmount *float64, snapshot time.Time) (Record, error) {
	vor := VoR(ppg, posBaseline, rules.SeasonLength)

	war, err := WAR(vor, rules.WARScales[player.Position])
	if err != nil {
		return Record{}, fmt.Errorf("player %s (%s): %w", player.ID, player.Position, err)
	}

	adjusted, err := ApplyScarcity(vor, player.Position, rules.ScarcityTable)
	if err != nil {
		return Record{}, fmt.Errorf("player %s: %w", player.ID, err)
	}

	scarcity := 1.0
	if factor, ok := rules.ScarcityTable[player.Position]; ok {
		scarcity = factor
	}

	var dollarPerWAR *float64
	if war != 0 {
		if dollarPerWAR, err = ContractEfficiency(player.ID, war, annualAmount); err != nil {
			return Record{}, err
		}
	}

	return Record{
		PlayerID:     player.ID,
		SnapshotDate: snapshot,
		Position:     player.Position,
		VoR:          vor,
		WAR:          war,
		ScarcityAdj:  scarcity,
		AdjustedVoR:  adjusted,
		DollarPerWAR: dollarPerWAR,
	}, nil
}
