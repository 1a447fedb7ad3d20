package valuation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dynastyops/dynastyval/internal/domain/league"
)

func TestVoR_SignConsistency(t *testing.T) {
	baseline := 10.0
	tests := []struct {
		name string
		ppg  float64
		sign int
	}{
		{"above replacement", 14.5, +1},
		{"below replacement", 6.0, -1},
		{"at replacement", 10.0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vor := VoR(tt.ppg, baseline, 17)
			switch tt.sign {
			case +1:
				assert.Greater(t, vor, 0.0)
			case -1:
				assert.Less(t, vor, 0.0)
			default:
				assert.Zero(t, vor)
			}
		})
	}
}

func TestVoR_ScalesWithSeasonLength(t *testing.T) {
	assert.Equal(t, (15.0-10.0)*17, VoR(15, 10, 17))
}

func TestWAR_LinearTransform(t *testing.T) {
	war, err := WAR(100, league.WARScale{PointsPerWin: 50, Exponent: 1.0})
	require.NoError(t, err)
	assert.InDelta(t, 2.0, war, 1e-12)
}

func TestWAR_PowerTransformPreservesSign(t *testing.T) {
	scale := league.WARScale{PointsPerWin: 50, Exponent: 1.2}

	pos, err := WAR(100, scale)
	require.NoError(t, err)
	neg, err := WAR(-100, scale)
	require.NoError(t, err)

	assert.Greater(t, pos, 0.0)
	assert.Less(t, neg, 0.0)
	assert.InDelta(t, pos, -neg, 1e-12, "transform should be odd-symmetric")
}

func TestWAR_Monotonic(t *testing.T) {
	scale := league.WARScale{PointsPerWin: 45, Exponent: 1.3}
	prev := -1e18
	for _, vor := range []float64{-200, -80, -10, 0, 5, 60, 150} {
		war, err := WAR(vor, scale)
		require.NoError(t, err)
		assert.Greater(t, war, prev)
		prev = war
	}
}

func TestWAR_InvalidScale(t *testing.T) {
	_, err := WAR(100, league.WARScale{PointsPerWin: 0, Exponent: 1})
	assert.Error(t, err)
}

func TestApplyScarcity(t *testing.T) {
	table := map[league.Position]float64{league.RB: 1.15, league.TE: 0}

	adjusted, err := ApplyScarcity(100, league.RB, table)
	require.NoError(t, err)
	assert.InDelta(t, 115.0, adjusted, 1e-12)

	// Zero factor is legal: it zeroes the value.
	zeroed, err := ApplyScarcity(100, league.TE, table)
	require.NoError(t, err)
	assert.Zero(t, zeroed)

	// Missing position means no adjustment.
	same, err := ApplyScarcity(100, league.QB, table)
	require.NoError(t, err)
	assert.Equal(t, 100.0, same)
}

func TestApplyScarcity_NegativeFactorFails(t *testing.T) {
	_, err := ApplyScarcity(100, league.RB, map[league.Position]float64{league.RB: -0.5})
	assert.Error(t, err)
}

func TestContractEfficiency_FreeAgentIsNil(t *testing.T) {
	eff, err := ContractEfficiency("p1", 2.5, nil)
	require.NoError(t, err)
	assert.Nil(t, eff, "free agent efficiency is nil, not zero")
}

func TestContractEfficiency_SignedPlayer(t *testing.T) {
	amount := 25.0
	eff, err := ContractEfficiency("p1", 2.5, &amount)
	require.NoError(t, err)
	require.NotNil(t, eff)
	assert.InDelta(t, 10.0, *eff, 1e-12)
}

func TestContractEfficiency_ZeroWARFails(t *testing.T) {
	amount := 25.0
	_, err := ContractEfficiency("p1", 0, &amount)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "p1", "error must carry the player id")
}

func testRules(t *testing.T) league.RuleSet {
	t.Helper()
	rules := league.RuleSet{
		SeasonLength:     17,
		BaseCap:          200,
		MaxContractRatio: 1.5,
		DeadCapSchedule:  []float64{0.5, 0.5},
		WARScales: map[league.Position]league.WARScale{
			league.QB: {PointsPerWin: 60, Exponent: 1},
			league.RB: {PointsPerWin: 50, Exponent: 1},
			league.WR: {PointsPerWin: 50, Exponent: 1},
			league.TE: {PointsPerWin: 45, Exponent: 1},
		},
		ScarcityTable: map[league.Position]float64{league.RB: 1.15},
	}
	require.NoError(t, rules.Validate())
	return rules
}

func TestValuate_FullRecord(t *testing.T) {
	rules := testRules(t)
	player := league.Player{ID: "rb1", Name: "Test Back", Position: league.RB, Age: 24}
	amount := 30.0
	snapshot := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	rec, err := Valuate(player, 15.0, 10.0, rules, &amount, snapshot)
	require.NoError(t, err)

	assert.Equal(t, "rb1", rec.PlayerID)
	assert.InDelta(t, 85.0, rec.VoR, 1e-12)
	assert.InDelta(t, 1.7, rec.WAR, 1e-12)
	assert.InDelta(t, 97.75, rec.AdjustedVoR, 1e-9)
	assert.Equal(t, 1.15, rec.ScarcityAdj)
	require.NotNil(t, rec.DollarPerWAR)
	assert.InDelta(t, 30.0/1.7, *rec.DollarPerWAR, 1e-9)
	assert.Equal(t, snapshot, rec.SnapshotDate)
}

func TestValuate_AtReplacementContractKeepsNilEfficiency(t *testing.T) {
	// The player at exactly the cutoff rank always exists, so a contract at
	// zero WAR must yield a record, not a failed run.
	player := league.Player{ID: "rb2", Name: "Replacement Back", Position: league.RB, Age: 25}
	amount := 10.0
	snapshot := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	rec, err := Valuate(player, 10.0, 10.0, testRules(t), &amount, snapshot)
	require.NoError(t, err)

	assert.Zero(t, rec.VoR)
	assert.Zero(t, rec.WAR)
	assert.Nil(t, rec.DollarPerWAR, "efficiency is undefined at zero WAR, not an error")
}
