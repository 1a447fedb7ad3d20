package baseline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dynastyops/dynastyval/internal/domain/league"
)

func rosterConfig(teams int, rbSlots int) league.RosterConfig {
	return league.RosterConfig{
		NumTeams: teams,
		StartingSlots: map[league.Position]int{
			league.QB: 1, league.RB: rbSlots, league.WR: 1, league.TE: 1,
		},
	}
}

func pool(pos league.Position, ppgs ...float64) []PlayerPoints {
	rows := make([]PlayerPoints, 0, len(ppgs))
	for i, ppg := range ppgs {
		rows = append(rows, PlayerPoints{
			PlayerID: string(pos) + string(rune('a'+i)),
			Position: pos,
			PPG:      ppg,
		})
	}
	return rows
}

func TestCompute_SelectsValueAtCutoffRank(t *testing.T) {
	roster := rosterConfig(2, 2) // RB rank = 2×2 = 4

	table := pool(league.RB, 20, 18, 15, 12, 9)
	table = append(table, pool(league.QB, 25, 22, 19)...)
	table = append(table, pool(league.WR, 17, 14, 11)...)
	table = append(table, pool(league.TE, 13, 10, 8)...)

	baselines, err := Compute(table, roster)
	require.NoError(t, err)

	assert.Equal(t, 12.0, baselines[league.RB], "RB baseline should be the 4th-ranked PPG")
	assert.Equal(t, 22.0, baselines[league.QB], "QB baseline should be the 2nd-ranked PPG")
}

func TestCompute_UnsortedInputGivesSameBaseline(t *testing.T) {
	roster := rosterConfig(2, 1)

	sorted := pool(league.RB, 20, 15, 10)
	shuffled := pool(league.RB, 10, 20, 15)
	fill := append(pool(league.QB, 9, 8), append(pool(league.WR, 7, 6), pool(league.TE, 5, 4)...)...)

	a, err := Compute(append(sorted, fill...), roster)
	require.NoError(t, err)
	b, err := Compute(append(shuffled, fill...), roster)
	require.NoError(t, err)

	assert.Equal(t, a[league.RB], b[league.RB])
}

func TestCompute_InsufficientData(t *testing.T) {
	roster := rosterConfig(2, 2) // needs 4 RBs

	table := pool(league.RB, 20, 18, 15) // only 3
	table = append(table, pool(league.QB, 25, 22)...)
	table = append(table, pool(league.WR, 17, 14)...)
	table = append(table, pool(league.TE, 13, 10)...)

	_, err := Compute(table, roster)
	require.Error(t, err)

	var insufficient *InsufficientDataError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, league.RB, insufficient.Position)
	assert.Equal(t, 4, insufficient.Required)
	assert.Equal(t, 3, insufficient.Available)
}

func TestBaselineRank_MonotonicInStartingSlots(t *testing.T) {
	for slots := 1; slots < 5; slots++ {
		lower := rosterConfig(12, slots).BaselineRank(league.RB)
		higher := rosterConfig(12, slots+1).BaselineRank(league.RB)
		assert.GreaterOrEqual(t, higher, lower,
			"increasing starting slots must never decrease the baseline rank")
	}
}

func TestBaselineRank_FlexAllocation(t *testing.T) {
	roster := league.RosterConfig{
		NumTeams:      12,
		StartingSlots: map[league.Position]int{league.QB: 1, league.RB: 2, league.WR: 3, league.TE: 1},
		FlexSlots:     1,
		FlexAllocation: map[league.Position]float64{
			league.QB: 0, league.RB: 0.45, league.WR: 0.45, league.TE: 0.10,
		},
	}
	require.NoError(t, roster.Validate())

	// 12×2 starters plus floor(12×0.45) = 5 flex starts.
	assert.Equal(t, 29, roster.BaselineRank(league.RB))
	// No flex share: starters only.
	assert.Equal(t, 12, roster.BaselineRank(league.QB))
}
