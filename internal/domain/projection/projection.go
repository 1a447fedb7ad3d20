// Package projection produces multi-year distributional forecasts per
// player: median, floor, and ceiling PPG with uncertainty that widens as
// the horizon grows.
package projection

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/dynastyops/dynastyval/internal/domain/aging"
	"github.com/dynastyops/dynastyval/internal/domain/league"
)

// Method selects how floor/ceiling quantiles are derived.
type Method string

const (
	// MethodNormal uses parametric normal 10th/90th percentiles.
	MethodNormal Method = "normal"
	// MethodBootstrap resamples recent per-game scores with an explicit
	// seed; identical inputs always produce identical outputs.
	MethodBootstrap Method = "bootstrap"
)

// z90 is the standard normal 90th-percentile z-score used for the
// parametric floor/ceiling.
const z90 = 1.2815515655446004

// Params configures a projection run. Everything here is caller-supplied
// data: the engine holds no state between calls.
type Params struct {
	SnapshotYear      int       `yaml:"snapshot_year" json:"snapshot_year"`
	Years             int       `yaml:"years" json:"years"`
	BaseStd           float64   `yaml:"base_std" json:"base_std"`
	UncertaintyGrowth float64   `yaml:"uncertainty_growth" json:"uncertainty_growth"`
	TrendClampMin     float64   `yaml:"trend_clamp_min" json:"trend_clamp_min"`
	TrendClampMax     float64   `yaml:"trend_clamp_max" json:"trend_clamp_max"`
	Method            Method    `yaml:"method" json:"method"`
	Seed              int64     `yaml:"seed" json:"seed"`
	BootstrapSamples  int       `yaml:"bootstrap_samples" json:"bootstrap_samples"`
	SnapshotDate      time.Time `yaml:"-" json:"-"`
}

// Validate checks projection parameters. UncertaintyGrowth must be strictly
// positive: uncertainty is required to widen with the horizon.
func (p Params) Validate() error {
	if p.Years <= 0 {
		return fmt.Errorf("projection params: years must be positive, got %d", p.Years)
	}
	if p.BaseStd <= 0 {
		return fmt.Errorf("projection params: base_std must be positive, got %.3f", p.BaseStd)
	}
	if p.UncertaintyGrowth <= 0 {
		return fmt.Errorf("projection params: uncertainty_growth must be positive, got %.3f", p.UncertaintyGrowth)
	}
	if p.TrendClampMin <= 0 || p.TrendClampMax < p.TrendClampMin {
		return fmt.Errorf("projection params: trend clamp [%.2f, %.2f] is not a valid positive interval", p.TrendClampMin, p.TrendClampMax)
	}
	switch p.Method {
	case MethodNormal:
	case MethodBootstrap:
		if p.BootstrapSamples <= 0 {
			return fmt.Errorf("projection params: bootstrap_samples must be positive, got %d", p.BootstrapSamples)
		}
	default:
		return fmt.Errorf("projection params: unknown method %q", p.Method)
	}
	return nil
}

// Record is one projection row per player per target year per snapshot.
// InsufficientData marks a player with no base projection: that is a
// distinct claim from "projected to score zero" and the quantile fields
// are meaningless when it is set.
type Record struct {
	PlayerID         string    `json:"player_id" db:"player_id"`
	SnapshotDate     time.Time `json:"snapshot_date" db:"snapshot_date"`
	TargetYear       int       `json:"target_year" db:"target_year"`
	YearsAhead       int       `json:"years_ahead" db:"years_ahead"`
	PPGMedian        float64   `json:"ppg_median" db:"ppg_median"`
	PPGFloor         float64   `json:"ppg_floor" db:"ppg_floor"`
	PPGCeiling       float64   `json:"ppg_ceiling" db:"ppg_ceiling"`
	InsufficientData bool      `json:"insufficient_data" db:"insufficient_data"`
}

// OpportunityTrend derives a usage-trend factor from recent weekly usage
// shares: the 3-game rolling average over the 5-game rolling average,
// clamped to [clampMin, clampMax] to prevent runaway extrapolation. Fewer
// than five recent games is treated as a flat trend.
func OpportunityTrend(recent []league.PerformanceRecord, clampMin, clampMax float64) float64 {
	if len(recent) < 5 {
		return 1.0
	}

	ordered := make([]league.PerformanceRecord, len(recent))
	copy(ordered, recent)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Season != ordered[j].Season {
			return ordered[i].Season < ordered[j].Season
		}
		return ordered[i].Week < ordered[j].Week
	})

	last5 := ordered[len(ordered)-5:]
	avg5 := 0.0
	for _, r := range last5 {
		avg5 += r.UsageShare()
	}
	avg5 /= 5

	avg3 := 0.0
	for _, r := range last5[2:] {
		avg3 += r.UsageShare()
	}
	avg3 /= 3

	if avg5 == 0 {
		return 1.0
	}
	return clamp(avg3/avg5, clampMin, clampMax)
}

// ProjectMultiYear forecasts a player's PPG distribution for each target
// year after the snapshot. basePPG nil means the player has never reported
// performance: every returned record is tagged InsufficientData rather
// than fabricating a zero projection.
func ProjectMultiYear(player league.Player, basePPG *float64, recent []league.PerformanceRecord, curve *aging.Curve, p Params) ([]Record, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	records := make([]Record, 0, p.Years)

	if basePPG == nil {
		for ahead := 1; ahead <= p.Years; ahead++ {
			records = append(records, Record{
				PlayerID:         player.ID,
				SnapshotDate:     p.SnapshotDate,
				TargetYear:       p.SnapshotYear + ahead,
				YearsAhead:       ahead,
				InsufficientData: true,
			})
		}
		return records, nil
	}

	trend := OpportunityTrend(recent, p.TrendClampMin, p.TrendClampMax)

	// Standardized floor/ceiling quantiles in sigma units, fixed once per
	// player. Each year scales the same pair by its own sigma, so the spread
	// is monotone in sigma and widening with the horizon holds by
	// construction.
	lowZ, highZ := -z90, z90
	if p.Method == MethodBootstrap {
		rng := rand.New(rand.NewSource(p.Seed))
		lowZ, highZ = bootstrapUnitQuantiles(rng, recent, p.BootstrapSamples)
	}

	for ahead := 1; ahead <= p.Years; ahead++ {
		ageFactor, err := curve.RelativeFactor(player.Age, player.Age+ahead)
		if err != nil {
			return nil, fmt.Errorf("player %s: %w", player.ID, err)
		}

		median := *basePPG * ageFactor * trend
		sigma := p.BaseStd * (1 + p.UncertaintyGrowth*float64(ahead))

		records = append(records, Record{
			PlayerID:     player.ID,
			SnapshotDate: p.SnapshotDate,
			TargetYear:   p.SnapshotYear + ahead,
			YearsAhead:   ahead,
			PPGMedian:    median,
			PPGFloor:     median + lowZ*sigma,
			PPGCeiling:   median + highZ*sigma,
		})
	}

	return records, nil
}

// bootstrapUnitQuantiles resamples recent per-game scores to derive
// empirical 10th/90th percentiles of the mean, standardized to sigma units:
// centered on the observed mean and divided by the bootstrap standard
// error. The low quantile is capped at zero and the high one floored at
// zero so floor <= median <= ceiling holds at any sample size. With no
// game-level spread it degrades to the parametric quantiles.
func bootstrapUnitQuantiles(rng *rand.Rand, recent []league.PerformanceRecord, samples int) (float64, float64) {
	if len(recent) == 0 {
		return -z90, z90
	}

	points := make([]float64, len(recent))
	mean := 0.0
	for i, r := range recent {
		points[i] = r.PPG
		mean += r.PPG
	}
	mean /= float64(len(points))

	obsStd := 0.0
	for _, v := range points {
		obsStd += (v - mean) * (v - mean)
	}
	obsStd = math.Sqrt(obsStd / float64(len(points)))
	if obsStd == 0 {
		return -z90, z90
	}

	means := make([]float64, samples)
	for i := 0; i < samples; i++ {
		total := 0.0
		for j := 0; j < len(points); j++ {
			total += points[rng.Intn(len(points))]
		}
		means[i] = total / float64(len(points))
	}
	sort.Float64s(means)

	sampleStd := obsStd / math.Sqrt(float64(len(points)))
	lowZ := (quantile(means, 0.10) - mean) / sampleStd
	highZ := (quantile(means, 0.90) - mean) / sampleStd
	return math.Min(lowZ, 0), math.Max(highZ, 0)
}

// quantile returns the linear-interpolated quantile of sorted values.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
