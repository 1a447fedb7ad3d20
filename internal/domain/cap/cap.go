// Package cap models salary-cap scenarios per franchise: contract-structure
// legality, dead-cap amortization for early cuts, and multi-year cap-space
// projection.
package cap

import (
	"fmt"
	"math"
	"time"

	"github.com/dynastyops/dynastyval/internal/domain/league"
)

// ratioTolerance absorbs float noise at the legality boundary: a contract
// sitting exactly on max_ratio is legal.
const ratioTolerance = 1e-9

// IllegalContractStructureError reports a contract whose annual amounts
// violate the configured geometric bound. Rule violations are hard
// failures, never warnings.
type IllegalContractStructureError struct {
	PlayerID string
	Ratio    float64
	MaxRatio float64
}

func (e *IllegalContractStructureError) Error() string {
	return fmt.Sprintf("illegal contract structure for player %s: max/min ratio %.4f exceeds limit %.4f", e.PlayerID, e.Ratio, e.MaxRatio)
}

// MalformedDecayScheduleError reports a dead-cap schedule that is not a
// sequence of positive finite fractions. The schedule's sum is deliberately
// not validated: it is a league rule, and leagues may define penalties
// summing above or below the remaining obligation.
type MalformedDecayScheduleError struct {
	Index  int
	Value  float64
	Reason string
}

func (e *MalformedDecayScheduleError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("malformed dead-cap decay schedule: %s", e.Reason)
	}
	return fmt.Sprintf("malformed dead-cap decay schedule: entry %d = %v is not a positive finite fraction", e.Index, e.Value)
}

// Cut records an early contract termination for scenario modeling.
type Cut struct {
	Contract league.Contract `json:"contract"`
	CutYear  int             `json:"cut_year"`
}

// Scenario is one franchise cap row for one projection year within a named
// scenario. AvailableCap is computed from the other four components, never
// asserted, so the cap arithmetic reconciles by construction.
type Scenario struct {
	FranchiseID  string    `json:"franchise_id" db:"franchise_id"`
	ScenarioName string    `json:"scenario_name" db:"scenario_name"`
	SnapshotDate time.Time `json:"snapshot_date" db:"snapshot_date"`
	Year         int       `json:"year" db:"year"`
	BaseCap      float64   `json:"base_cap" db:"base_cap"`
	Active       float64   `json:"active_obligations" db:"active_obligations"`
	DeadCap      float64   `json:"dead_cap_obligations" db:"dead_cap_obligations"`
	TradedNet    float64   `json:"traded_cap_net" db:"traded_cap_net"`
	AvailableCap float64   `json:"available_cap" db:"available_cap"`
}

// ValidateContractStructure enforces the league's geometric bound on
// contract shape: max(annual) / min(annual) must not exceed maxRatio,
// boundary inclusive. A single-year contract passes trivially.
func ValidateContractStructure(c league.Contract, maxRatio float64) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if len(c.AnnualAmounts) == 1 {
		return nil
	}

	lo, hi := c.AnnualAmounts[0], c.AnnualAmounts[0]
	for _, amt := range c.AnnualAmounts[1:] {
		lo = math.Min(lo, amt)
		hi = math.Max(hi, amt)
	}

	ratio := hi / lo
	if ratio > maxRatio+ratioTolerance {
		return &IllegalContractStructureError{PlayerID: c.PlayerID, Ratio: ratio, MaxRatio: maxRatio}
	}
	return nil
}

// ValidateDecaySchedule checks that a decay schedule is a non-empty
// sequence of positive finite fractions.
func ValidateDecaySchedule(schedule []float64) error {
	if len(schedule) == 0 {
		return &MalformedDecayScheduleError{Reason: "schedule is empty"}
	}
	for i, f := range schedule {
		if f <= 0 || math.IsNaN(f) || math.IsInf(f, 0) {
			return &MalformedDecayScheduleError{Index: i, Value: f}
		}
	}
	return nil
}

// ComputeDeadCap amortizes the remaining obligation of a contract cut
// before expiration. The remaining amount (sum of annual amounts for years
// >= cutYear) decays across the years following the cut per the schedule:
// obligation[cutYear+1+i] = remaining × schedule[i].
func ComputeDeadCap(c league.Contract, cutYear int, schedule []float64) (map[int]float64, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := ValidateDecaySchedule(schedule); err != nil {
		return nil, err
	}
	if !c.Covers(cutYear) {
		return nil, fmt.Errorf("player %s: cut year %d outside contract years %d-%d", c.PlayerID, cutYear, c.StartYear, c.EndYear)
	}

	remaining := 0.0
	for year := cutYear; year <= c.EndYear; year++ {
		amt, _ := c.AmountFor(year)
		remaining += amt
	}

	obligations := make(map[int]float64, len(schedule))
	for i, fraction := range schedule {
		obligations[cutYear+1+i] = remaining * fraction
	}
	return obligations, nil
}

// ExtendContract models a contract extension: addYears years appended at
// the given annual amounts, with the combined structure revalidated against
// the legality bound.
func ExtendContract(c league.Contract, amounts []float64, maxRatio float64) (league.Contract, error) {
	if len(amounts) == 0 {
		return league.Contract{}, fmt.Errorf("player %s: extension with no years", c.PlayerID)
	}

	extended := c
	extended.EndYear = c.EndYear + len(amounts)
	extended.AnnualAmounts = append(append([]float64{}, c.AnnualAmounts...), amounts...)

	if err := ValidateContractStructure(extended, maxRatio); err != nil {
		return league.Contract{}, err
	}
	return extended, nil
}

// ProjectScenario builds per-year cap rows for one franchise. For each
// year: active obligations from contracts covering that year (cut
// contracts stop counting from their cut year), dead-cap contributions
// summed across every cut whose decay window covers the year, and net
// traded cap. AvailableCap = base − active − dead + traded, computed, so
// closure holds exactly.
func ProjectScenario(franchiseID, name string, contracts []league.Contract, cuts []Cut, tradedNet map[int]float64, rules league.RuleSet, startYear, years int, snapshot time.Time) ([]Scenario, error) {
	if years <= 0 {
		return nil, fmt.Errorf("franchise %s: projection years must be positive, got %d", franchiseID, years)
	}
	for _, c := range contracts {
		if err := ValidateContractStructure(c, rules.MaxContractRatio); err != nil {
			return nil, fmt.Errorf("franchise %s: %w", franchiseID, err)
		}
	}

	cutByPlayer := make(map[string]int, len(cuts))
	deadByYear := make(map[int]float64)
	for _, cut := range cuts {
		obligations, err := ComputeDeadCap(cut.Contract, cut.CutYear, rules.DeadCapSchedule)
		if err != nil {
			return nil, fmt.Errorf("franchise %s: %w", franchiseID, err)
		}
		// Dead cap is additive across cuts.
		for year, amt := range obligations {
			deadByYear[year] += amt
		}
		cutByPlayer[cut.Contract.PlayerID] = cut.CutYear
	}

	scenarios := make([]Scenario, 0, years)
	for year := startYear; year < startYear+years; year++ {
		active := 0.0
		for _, c := range contracts {
			if cutYear, wasCut := cutByPlayer[c.PlayerID]; wasCut && year >= cutYear {
				continue
			}
			if amt, ok := c.AmountFor(year); ok {
				active += amt
			}
		}

		scenarios = append(scenarios, Scenario{
			FranchiseID:  franchiseID,
			ScenarioName: name,
			SnapshotDate: snapshot,
			Year:         year,
			BaseCap:      rules.BaseCap,
			Active:       active,
			DeadCap:      deadByYear[year],
			TradedNet:    tradedNet[year],
			AvailableCap: rules.BaseCap - active - deadByYear[year] + tradedNet[year],
		})
	}

	return scenarios, nil
}
