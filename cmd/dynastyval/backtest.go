package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/dynastyops/dynastyval/internal/backtest"
	"github.com/dynastyops/dynastyval/internal/config"
	"github.com/dynastyops/dynastyval/internal/domain/aging"
	"github.com/dynastyops/dynastyval/internal/domain/league"
	"github.com/dynastyops/dynastyval/internal/ingest"
)

func runBacktest(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	dataDir, _ := cmd.Flags().GetString("data-dir")
	cutoffFlag, _ := cmd.Flags().GetString("cutoff")

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	cutoff, err := time.Parse("2006-01-02", cutoffFlag)
	if err != nil {
		return fmt.Errorf("bad --cutoff date: %w", err)
	}

	players, err := ingest.LoadFile(filepath.Join(dataDir, "players.csv"), ingest.ReadPlayers)
	if err != nil {
		return err
	}
	performance, err := ingest.LoadFile(filepath.Join(dataDir, "performance.csv"), ingest.ReadPerformance)
	if err != nil {
		return err
	}

	inputs, actuals, err := splitAtCutoff(players, performance, cutoff)
	if err != nil {
		return err
	}

	runner := backtest.NewRunner(backtest.Config{
		Cutoff:     cutoff,
		CutoffYear: cutoff.Year(),
		Params:     cfg.Projection,
	})
	results, err := runner.Run(inputs, actuals)
	if err != nil {
		return err
	}

	m := results.Metrics
	log.Info().
		Int("evaluated", m.Evaluated).
		Int("skipped", m.Skipped).
		Float64("mae", m.MAE).
		Float64("rmse", m.RMSE).
		Float64("bias", m.Bias).
		Float64("interval_coverage", m.IntervalCoverage).
		Msg("Backtest complete")
	return nil
}

// splitAtCutoff partitions performance history into training inputs (rows at
// or before the cutoff) and held-out season actuals (rows after it). The
// harness re-checks the training side; this split is what makes the check
// pass for well-formed data.
func splitAtCutoff(players []league.Player, performance []league.PerformanceRecord, cutoff time.Time) ([]backtest.PlayerInput, []backtest.Actual, error) {
	var train []league.PerformanceRecord
	heldSums := make(map[string]map[int]float64)
	heldCounts := make(map[string]map[int]int)
	for _, rec := range performance {
		if !rec.Date.After(cutoff) {
			train = append(train, rec)
			continue
		}
		if heldSums[rec.PlayerID] == nil {
			heldSums[rec.PlayerID] = make(map[int]float64)
			heldCounts[rec.PlayerID] = make(map[int]int)
		}
		heldSums[rec.PlayerID][rec.Season] += rec.PPG
		heldCounts[rec.PlayerID][rec.Season]++
	}

	var actuals []backtest.Actual
	for playerID, seasons := range heldSums {
		for season, sum := range seasons {
			actuals = append(actuals, backtest.Actual{
				PlayerID: playerID,
				Year:     season,
				PPG:      sum / float64(heldCounts[playerID][season]),
			})
		}
	}

	curves, basePPG, trainByPlayer, err := fitTrainingCurves(players, train, cutoff.Year())
	if err != nil {
		return nil, nil, err
	}

	inputs := make([]backtest.PlayerInput, 0, len(players))
	for _, pl := range players {
		var base *float64
		if ppg, ok := basePPG[pl.ID]; ok {
			v := ppg
			base = &v
		}
		inputs = append(inputs, backtest.PlayerInput{
			Player:  pl,
			BasePPG: base,
			Recent:  trainByPlayer[pl.ID],
			Curve:   curves[pl.Position],
		})
	}
	return inputs, actuals, nil
}

// fitTrainingCurves fits age curves and base projections from training rows
// only, so no post-cutoff information reaches the projection engine.
func fitTrainingCurves(players []league.Player, train []league.PerformanceRecord, cutoffYear int) (map[league.Position]*aging.Curve, map[string]float64, map[string][]league.PerformanceRecord, error) {
	playerByID := make(map[string]league.Player, len(players))
	for _, pl := range players {
		playerByID[pl.ID] = pl
	}

	type seasonKey struct {
		playerID string
		season   int
	}
	sums := make(map[seasonKey]float64)
	counts := make(map[seasonKey]int)
	latestSeason := make(map[string]int)
	byPlayer := make(map[string][]league.PerformanceRecord)
	for _, rec := range train {
		k := seasonKey{rec.PlayerID, rec.Season}
		sums[k] += rec.PPG
		counts[k]++
		byPlayer[rec.PlayerID] = append(byPlayer[rec.PlayerID], rec)
		if rec.Season > latestSeason[rec.PlayerID] {
			latestSeason[rec.PlayerID] = rec.Season
		}
	}

	obsByPos := make(map[league.Position][]aging.Observation)
	basePPG := make(map[string]float64)
	for k, sum := range sums {
		pl, ok := playerByID[k.playerID]
		if !ok {
			continue
		}
		avg := sum / float64(counts[k])
		obsByPos[pl.Position] = append(obsByPos[pl.Position], aging.Observation{
			PlayerID: k.playerID,
			Age:      pl.Age - (cutoffYear - k.season),
			PPG:      avg,
		})
		if k.season == latestSeason[k.playerID] {
			basePPG[k.playerID] = avg
		}
	}

	curves := make(map[league.Position]*aging.Curve, len(league.AllPositions))
	for _, pos := range league.AllPositions {
		curve, err := aging.FitCurve(obsByPos[pos], pos)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("fitting %s age curve from training data: %w", pos, err)
		}
		curves[pos] = curve
	}
	return curves, basePPG, byPlayer, nil
}
