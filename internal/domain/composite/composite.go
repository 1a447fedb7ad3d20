// Package composite merges valuation, projection, cap, and market signals
// into a single weighted dynasty value score and flags divergences between
// the computed score and market consensus.
package composite

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// weightTolerance bounds float noise on the sum-to-one check.
const weightTolerance = 1e-9

// InvalidWeightConfigurationError reports component weights that do not sum
// to exactly 1.0 or carry a negative entry.
type InvalidWeightConfigurationError struct {
	Sum    float64
	Reason string
}

func (e *InvalidWeightConfigurationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid weight configuration: %s", e.Reason)
	}
	return fmt.Sprintf("invalid weight configuration: weights sum to %.6f, expected 1.0", e.Sum)
}

// Weights allocates the six composite components. They must sum to exactly
// 1.0; there is no renormalization.
type Weights struct {
	VoR       float64 `yaml:"vor" json:"vor"`
	Economics float64 `yaml:"economics" json:"economics"`
	Age       float64 `yaml:"age" json:"age"`
	Scarcity  float64 `yaml:"scarcity" json:"scarcity"`
	Variance  float64 `yaml:"variance" json:"variance"`
	Market    float64 `yaml:"market" json:"market"`
}

// Validate checks non-negativity and the sum-to-one invariant.
func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		"vor": w.VoR, "economics": w.Economics, "age": w.Age,
		"scarcity": w.Scarcity, "variance": w.Variance, "market": w.Market,
	} {
		if v < 0 {
			return &InvalidWeightConfigurationError{Reason: fmt.Sprintf("%s weight is negative: %.3f", name, v)}
		}
	}
	sum := w.VoR + w.Economics + w.Age + w.Scarcity + w.Variance + w.Market
	if math.Abs(sum-1.0) > weightTolerance {
		return &InvalidWeightConfigurationError{Sum: sum}
	}
	return nil
}

// Components carries one player's pre-normalized component values. The
// scorer does not normalize: normalization choices stay visible and
// testable upstream, and each component arrives on a comparable scale.
type Components struct {
	VoR       float64 `json:"vor"`
	Economics float64 `json:"economics"`
	Age       float64 `json:"age"`
	Scarcity  float64 `json:"scarcity"`
	Variance  float64 `json:"variance"`
	Market    float64 `json:"market"`
}

// Record is one composite row per player per snapshot.
type Record struct {
	PlayerID       string     `json:"player_id" db:"player_id"`
	SnapshotDate   time.Time  `json:"snapshot_date" db:"snapshot_date"`
	Score          float64    `json:"score" db:"score"`
	Rank           int        `json:"rank" db:"rank"`
	Components     Components `json:"components" db:"-"`
	MarketValue    float64    `json:"market_value" db:"market_value"`
	DeltaVsMarket  float64    `json:"value_delta_vs_market" db:"value_delta_vs_market"`
	Divergent      bool       `json:"divergent" db:"divergent"`
}

// Score computes the weighted composite. Deterministic: identical component
// inputs always produce the identical score.
func Score(c Components, w Weights) (float64, error) {
	if err := w.Validate(); err != nil {
		return 0, err
	}
	return c.VoR*w.VoR +
		c.Economics*w.Economics +
		c.Age*w.Age +
		c.Scarcity*w.Scarcity +
		c.Variance*w.Variance +
		c.Market*w.Market, nil
}

// DetectDivergence flags a material gap between computed and market value.
// Both thresholds must be exceeded: relative alone false-positives on
// low-value players, absolute alone misses meaningful gaps among high-value
// players.
func DetectDivergence(compositeValue, marketValue, relativeThreshold, absoluteThreshold float64) bool {
	delta := math.Abs(compositeValue - marketValue)
	if delta <= absoluteThreshold {
		return false
	}
	if marketValue == 0 {
		// Any nonzero delta is infinite in relative terms.
		return true
	}
	return delta/math.Abs(marketValue) > relativeThreshold
}

// Rank orders records by score descending and assigns 1-based ranks.
// The input slice is sorted in place and returned.
func Rank(records []Record) []Record {
	sort.Slice(records, func(i, j int) bool {
		return records[i].Score > records[j].Score
	})
	for i := range records {
		records[i].Rank = i + 1
	}
	return records
}
