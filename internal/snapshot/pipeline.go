// Package snapshot runs the full valuation pipeline for one snapshot date:
// baselines → valuations → age curves → projections → cap scenarios →
// composite scores. It owns the component normalization the composite
// scorer deliberately refuses to do, and it is the only place the engines
// are wired together.
package snapshot

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dynastyops/dynastyval/internal/config"
	"github.com/dynastyops/dynastyval/internal/domain/aging"
	"github.com/dynastyops/dynastyval/internal/domain/baseline"
	"github.com/dynastyops/dynastyval/internal/domain/cap"
	"github.com/dynastyops/dynastyval/internal/domain/composite"
	"github.com/dynastyops/dynastyval/internal/domain/league"
	"github.com/dynastyops/dynastyval/internal/domain/projection"
	"github.com/dynastyops/dynastyval/internal/domain/valuation"
)

// Inputs bundles the read-only tables one snapshot run consumes.
type Inputs struct {
	SnapshotDate time.Time
	SnapshotYear int
	Players      []league.Player
	Performance  []league.PerformanceRecord
	Contracts    []league.Contract
	Market       []league.MarketValue
}

// Outputs carries the four derived row sets for one snapshot.
type Outputs struct {
	RunID       string
	Valuations  []valuation.Record
	Projections []projection.Record
	Scenarios   []cap.Scenario
	Composites  []composite.Record
}

// Pipeline executes snapshot runs against one league configuration.
type Pipeline struct {
	cfg *config.LeagueConfig
}

// New creates a pipeline for a validated league configuration.
func New(cfg *config.LeagueConfig) *Pipeline {
	return &Pipeline{cfg: cfg}
}

// Run computes a full snapshot. Derived rows are produced fresh; inputs are
// never mutated.
func (p *Pipeline) Run(in Inputs) (*Outputs, error) {
	runID := uuid.NewString()
	logger := log.With().Str("run_id", runID).Time("snapshot", in.SnapshotDate).Logger()
	logger.Info().Int("players", len(in.Players)).Int("performance_rows", len(in.Performance)).Msg("Starting snapshot run")

	basePPG, recentByPlayer := summarizePerformance(in)

	// Baselines from the current-season performance table.
	table := make([]baseline.PlayerPoints, 0, len(in.Players))
	for _, pl := range in.Players {
		if ppg, ok := basePPG[pl.ID]; ok {
			table = append(table, baseline.PlayerPoints{PlayerID: pl.ID, Position: pl.Position, PPG: ppg})
		}
	}
	baselines, err := baseline.Compute(table, p.cfg.Roster)
	if err != nil {
		return nil, err
	}
	logger.Info().Int("ranked_players", len(table)).Msg("Computed replacement baselines")

	// Position age curves from longitudinal history.
	curves, err := p.fitCurves(in)
	if err != nil {
		return nil, err
	}

	contractByPlayer := make(map[string]league.Contract, len(in.Contracts))
	for _, c := range in.Contracts {
		if c.Covers(in.SnapshotYear) {
			contractByPlayer[c.PlayerID] = c
		}
	}

	out := &Outputs{RunID: runID}

	// Valuations and projections per player.
	params := p.cfg.Projection
	params.SnapshotYear = in.SnapshotYear
	params.SnapshotDate = in.SnapshotDate

	spreadByPlayer := make(map[string]float64, len(in.Players))
	for _, pl := range in.Players {
		var base *float64
		if ppg, ok := basePPG[pl.ID]; ok {
			v := ppg
			base = &v
		}

		var annual *float64
		if c, ok := contractByPlayer[pl.ID]; ok {
			if amt, ok := c.AmountFor(in.SnapshotYear); ok {
				annual = &amt
			}
		}

		if base != nil {
			rec, err := valuation.Valuate(pl, *base, baselines[pl.Position], p.cfg.Rules, annual, in.SnapshotDate)
			if err != nil {
				return nil, err
			}
			out.Valuations = append(out.Valuations, rec)
		}

		projected, err := projection.ProjectMultiYear(pl, base, recentByPlayer[pl.ID], curves[pl.Position], params)
		if err != nil {
			return nil, err
		}
		out.Projections = append(out.Projections, projected...)
		if len(projected) > 0 && !projected[0].InsufficientData {
			spreadByPlayer[pl.ID] = projected[0].PPGCeiling - projected[0].PPGFloor
		}
	}
	logger.Info().Int("valuations", len(out.Valuations)).Int("projections", len(out.Projections)).Msg("Computed valuations and projections")

	// Status-quo cap scenario per franchise: no cuts, no trades.
	byFranchise := make(map[string][]league.Contract)
	for _, c := range in.Contracts {
		byFranchise[c.FranchiseID] = append(byFranchise[c.FranchiseID], c)
	}
	franchiseIDs := make([]string, 0, len(byFranchise))
	for franchiseID := range byFranchise {
		franchiseIDs = append(franchiseIDs, franchiseID)
	}
	sort.Strings(franchiseIDs)
	for _, franchiseID := range franchiseIDs {
		scenarios, err := cap.ProjectScenario(franchiseID, "status_quo", byFranchise[franchiseID], nil, nil,
			p.cfg.Rules, in.SnapshotYear, params.Years, in.SnapshotDate)
		if err != nil {
			return nil, err
		}
		out.Scenarios = append(out.Scenarios, scenarios...)
	}

	composites, err := p.scoreComposites(in, out.Valuations, spreadByPlayer, curves)
	if err != nil {
		return nil, err
	}
	out.Composites = composite.Rank(composites)

	logger.Info().Int("scenarios", len(out.Scenarios)).Int("composites", len(out.Composites)).Msg("Snapshot run complete")
	return out, nil
}

// summarizePerformance derives each player's base PPG (mean of the most
// recent season's weekly rows) and recent game log ordered oldest first.
func summarizePerformance(in Inputs) (map[string]float64, map[string][]league.PerformanceRecord) {
	latestSeason := make(map[string]int)
	byPlayer := make(map[string][]league.PerformanceRecord)
	for _, rec := range in.Performance {
		byPlayer[rec.PlayerID] = append(byPlayer[rec.PlayerID], rec)
		if rec.Season > latestSeason[rec.PlayerID] {
			latestSeason[rec.PlayerID] = rec.Season
		}
	}

	base := make(map[string]float64, len(byPlayer))
	for playerID, rows := range byPlayer {
		sum, n := 0.0, 0
		for _, rec := range rows {
			if rec.Season == latestSeason[playerID] {
				sum += rec.PPG
				n++
			}
		}
		if n > 0 {
			base[playerID] = sum / float64(n)
		}
	}
	return base, byPlayer
}

// fitCurves fits one age curve per position from per-player season averages.
func (p *Pipeline) fitCurves(in Inputs) (map[league.Position]*aging.Curve, error) {
	playerByID := make(map[string]league.Player, len(in.Players))
	for _, pl := range in.Players {
		playerByID[pl.ID] = pl
	}

	type seasonKey struct {
		playerID string
		season   int
	}
	sums := make(map[seasonKey]float64)
	counts := make(map[seasonKey]int)
	for _, rec := range in.Performance {
		k := seasonKey{rec.PlayerID, rec.Season}
		sums[k] += rec.PPG
		counts[k]++
	}

	obsByPos := make(map[league.Position][]aging.Observation)
	for k, sum := range sums {
		pl, ok := playerByID[k.playerID]
		if !ok {
			continue
		}
		ageThen := pl.Age - (in.SnapshotYear - k.season)
		obsByPos[pl.Position] = append(obsByPos[pl.Position], aging.Observation{
			PlayerID: k.playerID,
			Age:      ageThen,
			PPG:      sum / float64(counts[k]),
		})
	}

	curves := make(map[league.Position]*aging.Curve, len(league.AllPositions))
	for _, pos := range league.AllPositions {
		obs := obsByPos[pos]
		sort.Slice(obs, func(i, j int) bool {
			if obs[i].PlayerID != obs[j].PlayerID {
				return obs[i].PlayerID < obs[j].PlayerID
			}
			return obs[i].Age < obs[j].Age
		})
		curve, err := aging.FitCurve(obs, pos)
		if err != nil {
			return nil, fmt.Errorf("fitting %s age curve: %w", pos, err)
		}
		curves[pos] = curve
	}
	return curves, nil
}

// scoreComposites normalizes each component to [0, 1] across the snapshot
// population (min-max) and applies the configured weights. Normalization
// lives here, upstream of the scorer, so its choices stay testable.
func (p *Pipeline) scoreComposites(in Inputs, valuations []valuation.Record, spread map[string]float64, curves map[league.Position]*aging.Curve) ([]composite.Record, error) {
	marketByPlayer := make(map[string]float64, len(in.Market))
	for _, mv := range in.Market {
		marketByPlayer[mv.PlayerID] = mv.Value
	}
	playerByID := make(map[string]league.Player, len(in.Players))
	for _, pl := range in.Players {
		playerByID[pl.ID] = pl
	}

	type raw struct {
		playerID   string
		vor        float64
		economics  float64
		ecoPenalty bool
		age        float64
		scarcity   float64
		variance   float64
		market     float64
	}

	rows := make([]raw, 0, len(valuations))
	for _, v := range valuations {
		pl := playerByID[v.PlayerID]

		// Economics: negative $/WAR (cheaper per win is better). Free
		// agents sit at zero cost. A contract paying for negative
		// production has no meaningful ratio; it is pinned to the worst
		// observed economics once the population is collected.
		economics := 0.0
		penalty := false
		if v.DollarPerWAR != nil {
			if v.WAR > 0 {
				economics = -*v.DollarPerWAR
			} else {
				penalty = true
			}
		}

		// Age: expected retention of current performance three years out.
		ageFactor, err := curves[pl.Position].RelativeFactor(pl.Age, pl.Age+3)
		if err != nil {
			return nil, fmt.Errorf("player %s: %w", pl.ID, err)
		}

		rows = append(rows, raw{
			playerID:   v.PlayerID,
			vor:        v.VoR,
			economics:  economics,
			ecoPenalty: penalty,
			age:        ageFactor,
			scarcity:   v.ScarcityAdj,
			variance:   -spread[v.PlayerID], // tighter projection range scores higher
			market:     marketByPlayer[v.PlayerID],
		})
	}
	if len(rows) == 0 {
		return nil, nil
	}

	ecoLo := 0.0
	for _, r := range rows {
		if !r.ecoPenalty && r.economics < ecoLo {
			ecoLo = r.economics
		}
	}
	for i := range rows {
		if rows[i].ecoPenalty {
			rows[i].economics = ecoLo
		}
	}

	normalize := func(get func(raw) float64) func(raw) float64 {
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, r := range rows {
			lo = math.Min(lo, get(r))
			hi = math.Max(hi, get(r))
		}
		return func(r raw) float64 {
			if hi == lo {
				return 0.5
			}
			return (get(r) - lo) / (hi - lo)
		}
	}

	marketLo, marketHi := math.Inf(1), math.Inf(-1)
	for _, r := range rows {
		marketLo = math.Min(marketLo, r.market)
		marketHi = math.Max(marketHi, r.market)
	}

	normVoR := normalize(func(r raw) float64 { return r.vor })
	normEco := normalize(func(r raw) float64 { return r.economics })
	normAge := normalize(func(r raw) float64 { return r.age })
	normSca := normalize(func(r raw) float64 { return r.scarcity })
	normVar := normalize(func(r raw) float64 { return r.variance })
	normMkt := normalize(func(r raw) float64 { return r.market })

	records := make([]composite.Record, 0, len(rows))
	for _, r := range rows {
		components := composite.Components{
			VoR:       normVoR(r),
			Economics: normEco(r),
			Age:       normAge(r),
			Scarcity:  normSca(r),
			Variance:  normVar(r),
			Market:    normMkt(r),
		}
		score, err := composite.Score(components, p.cfg.Weights)
		if err != nil {
			return nil, err
		}

		// Project the unit-scale score back onto the market's value scale
		// so the divergence thresholds apply in market units.
		compositeValue := score
		if marketHi > marketLo {
			compositeValue = marketLo + score*(marketHi-marketLo)
		}
		records = append(records, composite.Record{
			PlayerID:      r.playerID,
			SnapshotDate:  in.SnapshotDate,
			Score:         score,
			Components:    components,
			MarketValue:   r.market,
			DeltaVsMarket: compositeValue - r.market,
			Divergent: composite.DetectDivergence(compositeValue, r.market,
				p.cfg.Divergence.RelativeThreshold, p.cfg.Divergence.AbsoluteThreshold),
		})
	}
	return records, nil
}
