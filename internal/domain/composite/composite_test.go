package composite

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validWeights() Weights {
	return Weights{VoR: 0.30, Economics: 0.20, Age: 0.20, Scarcity: 0.15, Variance: 0.10, Market: 0.05}
}

func TestWeights_SumToOnePasses(t *testing.T) {
	assert.NoError(t, validWeights().Validate())
}

func TestWeights_SumAboveOneFails(t *testing.T) {
	bad := Weights{VoR: 0.3, Economics: 0.2, Age: 0.2, Scarcity: 0.15, Variance: 0.1, Market: 0.1} // 1.05

	err := bad.Validate()
	require.Error(t, err)

	var invalid *InvalidWeightConfigurationError
	require.True(t, errors.As(err, &invalid))
	assert.InDelta(t, 1.05, invalid.Sum, 1e-9)
}

func TestWeights_NegativeEntryFails(t *testing.T) {
	bad := Weights{VoR: 1.2, Economics: -0.2}
	var invalid *InvalidWeightConfigurationError
	assert.True(t, errors.As(bad.Validate(), &invalid))
}

func TestScore_WeightedSum(t *testing.T) {
	components := Components{VoR: 1.0, Economics: 0.5, Age: 0.8, Scarcity: 0.6, Variance: 0.4, Market: 0.9}

	score, err := Score(components, validWeights())
	require.NoError(t, err)

	expected := 1.0*0.30 + 0.5*0.20 + 0.8*0.20 + 0.6*0.15 + 0.4*0.10 + 0.9*0.05
	assert.InDelta(t, expected, score, 1e-12)
}

func TestScore_Deterministic(t *testing.T) {
	components := Components{VoR: 0.7, Economics: 0.3, Age: 0.5, Scarcity: 0.5, Variance: 0.2, Market: 0.6}

	first, err := Score(components, validWeights())
	require.NoError(t, err)
	second, err := Score(components, validWeights())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestScore_InvalidWeightsFail(t *testing.T) {
	_, err := Score(Components{}, Weights{VoR: 0.5, Economics: 0.6})
	var invalid *InvalidWeightConfigurationError
	assert.True(t, errors.As(err, &invalid))
}

func TestDetectDivergence_BothThresholdsExceeded(t *testing.T) {
	// Delta 1000 (25%): both thresholds exceeded.
	assert.True(t, DetectDivergence(5000, 4000, 0.15, 500))
}

func TestDetectDivergence_SmallDeltaNotFlagged(t *testing.T) {
	// 2% and $10: neither threshold exceeded.
	assert.False(t, DetectDivergence(510, 500, 0.15, 500))
}

func TestDetectDivergence_RequiresBoth(t *testing.T) {
	// Large relative gap on a cheap player: absolute threshold holds it back.
	assert.False(t, DetectDivergence(90, 50, 0.15, 500))

	// Large absolute gap on an expensive player but small relative gap.
	assert.False(t, DetectDivergence(10600, 10000, 0.15, 500))
}

func TestRank_AssignsDescendingRanks(t *testing.T) {
	records := []Record{
		{PlayerID: "low", Score: 0.2},
		{PlayerID: "high", Score: 0.9},
		{PlayerID: "mid", Score: 0.5},
	}

	ranked := Rank(records)

	assert.Equal(t, "high", ranked[0].PlayerID)
	assert.Equal(t, 1, ranked[0].Rank)
	assert.Equal(t, "mid", ranked[1].PlayerID)
	assert.Equal(t, 2, ranked[1].Rank)
	assert.Equal(t, "low", ranked[2].PlayerID)
	assert.Equal(t, 3, ranked[2].Rank)
}
