// Package export writes the engine's output tables to CSV files, one file
// per table per snapshot run.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dynastyops/dynastyval/internal/snapshot"
)

const dateFormat = "2006-01-02"

// Writer writes snapshot outputs under a base directory.
type Writer struct {
	dir string
}

// NewWriter creates a CSV writer rooted at dir.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// WriteAll writes the four output tables for one run.
func (w *Writer) WriteAll(out *snapshot.Outputs) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	if err := w.writeValuations(out); err != nil {
		return err
	}
	if err := w.writeProjections(out); err != nil {
		return err
	}
	if err := w.writeScenarios(out); err != nil {
		return err
	}
	return w.writeComposites(out)
}

func (w *Writer) writeTable(name string, header []string, rows [][]string) error {
	path := filepath.Join(w.dir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write %s header: %w", name, err)
	}
	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write %s row: %w", name, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func (w *Writer) writeValuations(out *snapshot.Outputs) error {
	rows := make([][]string, 0, len(out.Valuations))
	for _, v := range out.Valuations {
		dollarPerWAR := ""
		if v.DollarPerWAR != nil {
			dollarPerWAR = f(*v.DollarPerWAR)
		}
		rows = append(rows, []string{
			v.PlayerID, v.SnapshotDate.Format(dateFormat), string(v.Position),
			f(v.VoR), f(v.WAR), f(v.ScarcityAdj), f(v.AdjustedVoR), dollarPerWAR,
		})
	}
	return w.writeTable("valuations.csv",
		[]string{"player_id", "snapshot_date", "position", "vor", "war", "scarcity_adjustment", "adjusted_vor", "dollar_per_war"},
		rows)
}

func (w *Writer) writeProjections(out *snapshot.Outputs) error {
	rows := make([][]string, 0, len(out.Projections))
	for _, p := range out.Projections {
		rows = append(rows, []string{
			p.PlayerID, p.SnapshotDate.Format(dateFormat),
			strconv.Itoa(p.TargetYear), strconv.Itoa(p.YearsAhead),
			f(p.PPGMedian), f(p.PPGFloor), f(p.PPGCeiling),
			strconv.FormatBool(p.InsufficientData),
		})
	}
	return w.writeTable("projections.csv",
		[]string{"player_id", "snapshot_date", "target_year", "years_ahead", "ppg_median", "ppg_floor", "ppg_ceiling", "insufficient_data"},
		rows)
}

func (w *Writer) writeScenarios(out *snapshot.Outputs) error {
	rows := make([][]string, 0, len(out.Scenarios))
	for _, s := range out.Scenarios {
		rows = append(rows, []string{
			s.FranchiseID, s.ScenarioName, s.SnapshotDate.Format(dateFormat),
			strconv.Itoa(s.Year), f(s.BaseCap), f(s.Active), f(s.DeadCap), f(s.TradedNet), f(s.AvailableCap),
		})
	}
	return w.writeTable("cap_scenarios.csv",
		[]string{"franchise_id", "scenario_name", "snapshot_date", "year", "base_cap", "active_obligations", "dead_cap_obligations", "traded_cap_net", "available_cap"},
		rows)
}

func (w *Writer) writeComposites(out *snapshot.Outputs) error {
	rows := make([][]string, 0, len(out.Composites))
	for _, c := range out.Composites {
		rows = append(rows, []string{
			c.PlayerID, c.SnapshotDate.Format(dateFormat),
			f(c.Score), strconv.Itoa(c.Rank), f(c.MarketValue), f(c.DeltaVsMarket),
			strconv.FormatBool(c.Divergent),
		})
	}
	return w.writeTable("composites.csv",
		[]string{"player_id", "snapshot_date", "score", "rank", "market_value", "value_delta_vs_market", "divergent"},
		rows)
}

func f(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
