package league

import (
	"fmt"
	"math"
)

// RosterConfig describes league shape: team count and starting slots per
// position. Flex slots are distributed to positions by FlexAllocation,
// a fractional split that must sum to 1.0 when flex slots exist.
type RosterConfig struct {
	NumTeams       int                  `yaml:"num_teams" json:"num_teams"`
	StartingSlots  map[Position]int     `yaml:"starting_slots" json:"starting_slots"`
	FlexSlots      int                  `yaml:"flex_slots" json:"flex_slots"`
	FlexAllocation map[Position]float64 `yaml:"flex_allocation" json:"flex_allocation"`
}

// BaselineRank returns the replacement-level cutoff rank for a position:
// teams × starting slots, plus this position's share of league-wide flex
// starts. Rank is 1-based and never below 1.
func (rc RosterConfig) BaselineRank(pos Position) int {
	rank := rc.NumTeams * rc.StartingSlots[pos]
	if rc.FlexSlots > 0 {
		rank += int(float64(rc.NumTeams*rc.FlexSlots) * rc.FlexAllocation[pos])
	}
	if rank < 1 {
		rank = 1
	}
	return rank
}

// Validate checks the roster configuration.
func (rc RosterConfig) Validate() error {
	if rc.NumTeams <= 0 {
		return fmt.Errorf("roster config: num_teams must be positive, got %d", rc.NumTeams)
	}
	for _, pos := range AllPositions {
		if rc.StartingSlots[pos] < 0 {
			return fmt.Errorf("roster config: negative starting slots for %s", pos)
		}
	}
	if rc.FlexSlots < 0 {
		return fmt.Errorf("roster config: negative flex slots")
	}
	if rc.FlexSlots > 0 {
		sum := 0.0
		for _, pos := range AllPositions {
			share := rc.FlexAllocation[pos]
			if share < 0 {
				return fmt.Errorf("roster config: negative flex allocation for %s", pos)
			}
			sum += share
		}
		if math.Abs(sum-1.0) > 1e-9 {
			return fmt.Errorf("roster config: flex allocation sums to %.6f, expected 1.0", sum)
		}
	}
	return nil
}

// WARScale defines the position-configurable VoR→WAR transform:
// war = sign(vor) × |vor / points_per_win| ^ exponent. Exponent 1.0 gives
// the plain linear transform. There is no universal WAR constant in this
// domain, so both parameters are league configuration, never code.
type WARScale struct {
	PointsPerWin float64 `yaml:"points_per_win" json:"points_per_win"`
	Exponent     float64 `yaml:"exponent" json:"exponent"`
}

// Validate checks the transform parameters.
func (w WARScale) Validate() error {
	if w.PointsPerWin <= 0 {
		return fmt.Errorf("war scale: points_per_win must be positive, got %.3f", w.PointsPerWin)
	}
	if w.Exponent <= 0 {
		return fmt.Errorf("war scale: exponent must be positive, got %.3f", w.Exponent)
	}
	return nil
}

// RuleSet carries the league rulebook constants the cap and valuation
// engines consume. All values are externally supplied configuration.
type RuleSet struct {
	SeasonLength     int                   `yaml:"season_length" json:"season_length"`
	BaseCap          float64               `yaml:"base_cap" json:"base_cap"`
	MaxContractRatio float64               `yaml:"max_contract_ratio" json:"max_contract_ratio"`
	DeadCapSchedule  []float64             `yaml:"dead_cap_schedule" json:"dead_cap_schedule"`
	WARScales        map[Position]WARScale `yaml:"war_scales" json:"war_scales"`
	ScarcityTable    map[Position]float64  `yaml:"scarcity_table" json:"scarcity_table"`
}

// Validate checks the rule set. The dead-cap schedule is validated for
// shape only: its sum is deliberately unconstrained, since leagues may
// penalize early cuts beyond the remaining value (sum > 1) or forgive
// part of it (sum < 1).
func (rs RuleSet) Validate() error {
	if rs.SeasonLength <= 0 {
		return fmt.Errorf("rule set: season_length must be positive, got %d", rs.SeasonLength)
	}
	if rs.BaseCap <= 0 {
		return fmt.Errorf("rule set: base_cap must be positive, got %.2f", rs.BaseCap)
	}
	if rs.MaxContractRatio < 1.0 {
		return fmt.Errorf("rule set: max_contract_ratio must be >= 1.0, got %.3f", rs.MaxContractRatio)
	}
	if len(rs.DeadCapSchedule) == 0 {
		return fmt.Errorf("rule set: dead_cap_schedule is empty")
	}
	for i, f := range rs.DeadCapSchedule {
		if f <= 0 || math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("rule set: dead_cap_schedule[%d] = %v is not a positive finite fraction", i, f)
		}
	}
	for _, pos := range AllPositions {
		scale, ok := rs.WARScales[pos]
		if !ok {
			return fmt.Errorf("rule set: missing war scale for %s", pos)
		}
		if err := scale.Validate(); err != nil {
			return fmt.Errorf("rule set: %s: %w", pos, err)
		}
		if factor, ok := rs.ScarcityTable[pos]; ok && factor < 0 {
			return fmt.Errorf("rule set: negative scarcity factor %.3f for %s", factor, pos)
		}
	}
	return nil
}
