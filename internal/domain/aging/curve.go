// Package aging fits position-specific performance-vs-age multiplier curves
// from longitudinal historical data.
package aging

import (
	"fmt"
	"sort"

	"github.com/dynastyops/dynastyval/internal/domain/league"
)

// MinSeasonsPerPlayer is the shortest longitudinal history that counts
// toward a curve fit. Shorter careers carry no age signal.
const MinSeasonsPerPlayer = 3

// Observation is one player-season input row for curve fitting.
type Observation struct {
	PlayerID string  `json:"player_id"`
	Age      int     `json:"age"`
	PPG      float64 `json:"ppg"`
}

// InsufficientDataError reports that too few qualifying careers exist to
// fit a curve for a position.
type InsufficientDataError struct {
	Position   league.Position
	Qualifying int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data to fit %s age curve: %d players with >=%d seasons", e.Position, e.Qualifying, MinSeasonsPerPlayer)
}

// Curve maps age to a multiplicative performance factor, normalized so the
// peak age has factor 1.0. Factors past the peak are guaranteed
// non-increasing: a noisy "improvement after decline" in the raw fit is
// smoothed away, never surfaced.
type Curve struct {
	Position league.Position
	PeakAge  int

	minAge  int
	maxAge  int
	factors map[int]float64
}

// Factor returns the performance multiplier at the given age. Ages outside
// the fitted range clamp to the nearest fitted age, which preserves
// post-peak monotonicity.
func (c *Curve) Factor(age int) float64 {
	if age < c.minAge {
		age = c.minAge
	}
	if age > c.maxAge {
		age = c.maxAge
	}
	return c.factors[age]
}

// RelativeFactor returns the expected performance ratio moving a player
// from one age to another along the curve. This is the multi-year
// projection form: curve(to)/curve(from).
func (c *Curve) RelativeFactor(fromAge, toAge int) (float64, error) {
	from := c.Factor(fromAge)
	if from == 0 {
		return 0, fmt.Errorf("%s age curve: zero factor at age %d, relative adjustment undefined", c.Position, fromAge)
	}
	return c.Factor(toAge) / from, nil
}

// AdjustPPG applies the curve at a target age: base_ppg × curve(age).
func AdjustPPG(basePPG float64, curve *Curve, ageAtYear int) float64 {
	return basePPG * curve.Factor(ageAtYear)
}

// FitCurve builds a population age curve for one position. Each qualifying
// player's seasons are normalized to that player's own peak PPG to control
// for talent heterogeneity, then averaged per age bin across players.
// Post-peak ages are isotonic-smoothed (pool-adjacent-violators) so the
// published curve is monotonically non-increasing past the peak.
func FitCurve(observations []Observation, pos league.Position) (*Curve, error) {
	perPlayer := make(map[string][]Observation)
	for _, obs := range observations {
		if obs.PPG < 0 {
			return nil, fmt.Errorf("%s age curve: negative ppg %.2f for player %s at age %d", pos, obs.PPG, obs.PlayerID, obs.Age)
		}
		perPlayer[obs.PlayerID] = append(perPlayer[obs.PlayerID], obs)
	}

	// Accumulate in sorted player order so repeated fits on the same data
	// are bit-identical.
	playerIDs := make([]string, 0, len(perPlayer))
	for playerID := range perPlayer {
		playerIDs = append(playerIDs, playerID)
	}
	sort.Strings(playerIDs)

	sums := make(map[int]float64)
	counts := make(map[int]int)
	qualifying := 0
	for _, playerID := range playerIDs {
		seasons := perPlayer[playerID]
		if len(seasons) < MinSeasonsPerPlayer {
			continue
		}
		peak := 0.0
		for _, s := range seasons {
			if s.PPG > peak {
				peak = s.PPG
			}
		}
		if peak == 0 {
			return nil, fmt.Errorf("%s age curve: player %s has %d seasons but zero peak ppg", pos, playerID, len(seasons))
		}
		qualifying++
		for _, s := range seasons {
			sums[s.Age] += s.PPG / peak
			counts[s.Age]++
		}
	}

	if qualifying == 0 {
		return nil, &InsufficientDataError{Position: pos, Qualifying: 0}
	}

	ages := make([]int, 0, len(sums))
	for age := range sums {
		ages = append(ages, age)
	}
	sort.Ints(ages)

	factors := make(map[int]float64, len(ages))
	for _, age := range ages {
		factors[age] = sums[age] / float64(counts[age])
	}

	// Fill unobserved ages inside the fitted range by linear interpolation
	// so every age in [min, max] has a factor.
	lo, hi := ages[0], ages[len(ages)-1]
	fillGaps(ages, factors)
	ages = make([]int, 0, hi-lo+1)
	for age := lo; age <= hi; age++ {
		ages = append(ages, age)
	}

	peakAge, peakFactor := ages[0], 0.0
	for _, age := range ages {
		if f := factors[age]; f > peakFactor {
			peakAge, peakFactor = age, f
		}
	}

	isotonicDecline(ages, factors, peakAge)

	// Renormalize so the peak sits at exactly 1.0.
	for age, f := range factors {
		factors[age] = f / factors[peakAge]
	}

	return &Curve{
		Position: pos,
		PeakAge:  peakAge,
		minAge:   ages[0],
		maxAge:   ages[len(ages)-1],
		factors:  factors,
	}, nil
}

// fillGaps linearly interpolates factors for ages that fall between two
// observed ages but were never observed themselves.
func fillGaps(observed []int, factors map[int]float64) {
	for i := 1; i < len(observed); i++ {
		prev, next := observed[i-1], observed[i]
		span := next - prev
		if span <= 1 {
			continue
		}
		step := (factors[next] - factors[prev]) / float64(span)
		for age := prev + 1; age < next; age++ {
			factors[age] = factors[prev] + step*float64(age-prev)
		}
	}
}

// isotonicDecline enforces non-increasing factors for ages past the peak
// using pool-adjacent-violators: any post-peak rise is pooled with its
// predecessors into their weighted mean.
func isotonicDecline(ages []int, factors map[int]float64, peakAge int) {
	var tail []int
	for _, age := range ages {
		if age >= peakAge {
			tail = append(tail, age)
		}
	}
	if len(tail) < 2 {
		return
	}

	type block struct {
		sum   float64
		count int
		ages  []int
	}
	var blocks []block
	for _, age := range tail {
		blocks = append(blocks, block{sum: factors[age], count: 1, ages: []int{age}})
		for len(blocks) > 1 {
			last := blocks[len(blocks)-1]
			prev := blocks[len(blocks)-2]
			if prev.sum/float64(prev.count) >= last.sum/float64(last.count) {
				break
			}
			merged := block{
				sum:   prev.sum + last.sum,
				count: prev.count + last.count,
				ages:  append(prev.ages, last.ages...),
			}
			blocks = blocks[:len(blocks)-2]
			blocks = append(blocks, merged)
		}
	}

	for _, b := range blocks {
		mean := b.sum / float64(b.count)
		for _, age := range b.ages {
			factors[age] = mean
		}
	}
}
