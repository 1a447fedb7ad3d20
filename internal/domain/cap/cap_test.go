package cap

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dynastyops/dynastyval/internal/domain/league"
)

func contract(playerID string, startYear int, amounts ...float64) league.Contract {
	return league.Contract{
		PlayerID:      playerID,
		FranchiseID:   "f1",
		StartYear:     startYear,
		EndYear:       startYear + len(amounts) - 1,
		AnnualAmounts: amounts,
	}
}

func testRules() league.RuleSet {
	return league.RuleSet{
		SeasonLength:     17,
		BaseCap:          200,
		MaxContractRatio: 1.5,
		DeadCapSchedule:  []float64{0.40, 0.30, 0.15, 0.10, 0.05},
		WARScales: map[league.Position]league.WARScale{
			league.QB: {PointsPerWin: 60, Exponent: 1},
			league.RB: {PointsPerWin: 50, Exponent: 1},
			league.WR: {PointsPerWin: 50, Exponent: 1},
			league.TE: {PointsPerWin: 45, Exponent: 1},
		},
	}
}

func TestValidateContractStructure_RatioAboveLimitIsIllegal(t *testing.T) {
	// 16/10 = 1.6 > 1.5
	err := ValidateContractStructure(contract("p1", 2026, 10, 12, 16), 1.5)
	require.Error(t, err)

	var illegal *IllegalContractStructureError
	require.True(t, errors.As(err, &illegal))
	assert.Equal(t, "p1", illegal.PlayerID)
	assert.InDelta(t, 1.6, illegal.Ratio, 1e-9)
}

func TestValidateContractStructure_BoundaryInclusive(t *testing.T) {
	// 15/10 = 1.5 exactly: legal.
	assert.NoError(t, ValidateContractStructure(contract("p1", 2026, 10, 12, 15), 1.5))
}

func TestValidateContractStructure_SingleYearAlwaysPasses(t *testing.T) {
	assert.NoError(t, ValidateContractStructure(contract("p1", 2026, 99), 1.0))
}

func TestValidateDecaySchedule(t *testing.T) {
	assert.NoError(t, ValidateDecaySchedule([]float64{0.5, 0.5, 0.25, 0.25, 0.25}),
		"a schedule summing above 1.0 is a league rule, not an error")

	var malformed *MalformedDecayScheduleError
	err := ValidateDecaySchedule(nil)
	require.True(t, errors.As(err, &malformed))

	err = ValidateDecaySchedule([]float64{0.5, -0.1})
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, 1, malformed.Index)

	err = ValidateDecaySchedule([]float64{0.5, math.NaN()})
	assert.True(t, errors.As(err, &malformed))
}

func TestComputeDeadCap_RemainingObligationDecays(t *testing.T) {
	// Cut after 2026: remaining = 20 + 25 = 45.
	c := contract("p1", 2025, 15, 20, 25)
	schedule := []float64{0.5, 0.25}

	obligations, err := ComputeDeadCap(c, 2026, schedule)
	require.NoError(t, err)

	assert.InDelta(t, 22.5, obligations[2027], 1e-9)
	assert.InDelta(t, 11.25, obligations[2028], 1e-9)
	assert.Len(t, obligations, 2)
}

func TestComputeDeadCap_CutOutsideContractFails(t *testing.T) {
	c := contract("p1", 2025, 15, 20)
	_, err := ComputeDeadCap(c, 2027, []float64{1.0})
	assert.Error(t, err)
}

func TestExtendContract_RevalidatesStructure(t *testing.T) {
	c := contract("p1", 2025, 10, 12)

	extended, err := ExtendContract(c, []float64{14}, 1.5)
	require.NoError(t, err)
	assert.Equal(t, 2027, extended.EndYear)
	assert.Equal(t, []float64{10, 12, 14}, extended.AnnualAmounts)

	_, err = ExtendContract(c, []float64{16}, 1.5)
	var illegal *IllegalContractStructureError
	assert.True(t, errors.As(err, &illegal), "extension pushing the ratio past the bound must fail")
}

func TestProjectScenario_CapArithmeticClosure(t *testing.T) {
	rules := testRules()
	contracts := []league.Contract{
		contract("p1", 2026, 30, 32, 34),
		contract("p2", 2026, 20, 22),
	}
	traded := map[int]float64{2026: 5, 2027: -3}
	snapshot := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	scenarios, err := ProjectScenario("f1", "status_quo", contracts, nil, traded, rules, 2026, 3, snapshot)
	require.NoError(t, err)
	require.Len(t, scenarios, 3)

	for _, s := range scenarios {
		reconstructed := s.BaseCap - s.Active - s.DeadCap + s.TradedNet
		assert.InDelta(t, s.AvailableCap, reconstructed, 1e-6,
			"cap arithmetic must reconcile exactly for year %d", s.Year)
	}

	assert.InDelta(t, 200-50+5, scenarios[0].AvailableCap, 1e-9)
	assert.InDelta(t, 200-56-3, scenarios[1].AvailableCap, 1e-9)
	assert.InDelta(t, 200-34, scenarios[2].AvailableCap, 1e-9)
}

func TestProjectScenario_DeadCapAdditiveAcrossCuts(t *testing.T) {
	rules := testRules()
	c1 := contract("p1", 2026, 30, 30, 30)
	c2 := contract("p2", 2026, 20, 20, 20)
	cuts := []Cut{
		{Contract: c1, CutYear: 2026},
		{Contract: c2, CutYear: 2026},
	}
	snapshot := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	scenarios, err := ProjectScenario("f1", "double_cut", []league.Contract{c1, c2}, cuts, nil, rules, 2026, 4, snapshot)
	require.NoError(t, err)

	d1, err := ComputeDeadCap(c1, 2026, rules.DeadCapSchedule)
	require.NoError(t, err)
	d2, err := ComputeDeadCap(c2, 2026, rules.DeadCapSchedule)
	require.NoError(t, err)

	byYear := make(map[int]Scenario, len(scenarios))
	for _, s := range scenarios {
		byYear[s.Year] = s
	}

	for year := 2027; year <= 2029; year++ {
		expected := d1[year] + d2[year]
		assert.InDelta(t, expected, byYear[year].DeadCap, 1e-9,
			"dead cap for %d must equal the sum of each cut's contribution", year)
	}

	// Cut contracts stop counting toward active obligations from the cut year.
	assert.Zero(t, byYear[2026].Active)
	assert.Zero(t, byYear[2027].Active)
}

func TestProjectScenario_IllegalContractAborts(t *testing.T) {
	rules := testRules()
	contracts := []league.Contract{contract("p1", 2026, 10, 16)} // ratio 1.6

	_, err := ProjectScenario("f1", "status_quo", contracts, nil, nil, rules, 2026, 2, time.Now())
	var illegal *IllegalContractStructureError
	assert.True(t, errors.As(err, &illegal))
}
