// Package ingest reads the engine's tabular inputs from CSV files. It is
// glue around the core: domain packages never touch files.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dynastyops/dynastyval/internal/domain/league"
)

// header maps column names to indices for one CSV file.
type header map[string]int

func readHeader(r *csv.Reader, required []string, name string) (header, error) {
	row, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read header: %w", name, err)
	}
	h := make(header, len(row))
	for i, col := range row {
		h[strings.TrimSpace(col)] = i
	}
	for _, col := range required {
		if _, ok := h[col]; !ok {
			return nil, fmt.Errorf("%s: missing required column %q", name, col)
		}
	}
	return h, nil
}

func (h header) str(row []string, col string) string {
	return strings.TrimSpace(row[h[col]])
}

// float and int reject blank cells: a missing value in a required numeric
// column is an input error, never a silent zero.
func (h header) float(row []string, col string) (float64, error) {
	s := h.str(row, col)
	if s == "" {
		return 0, fmt.Errorf("%s is empty", col)
	}
	return strconv.ParseFloat(s, 64)
}

func (h header) int(row []string, col string) (int, error) {
	s := h.str(row, col)
	if s == "" {
		return 0, fmt.Errorf("%s is empty", col)
	}
	return strconv.Atoi(s)
}

// ReadPlayers parses the player identity table:
// player_id,name,position,age.
func ReadPlayers(r io.Reader) ([]league.Player, error) {
	cr := csv.NewReader(r)
	h, err := readHeader(cr, []string{"player_id", "name", "position", "age"}, "players")
	if err != nil {
		return nil, err
	}

	var players []league.Player
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("players line %d: %w", line, err)
		}
		pos, err := league.ParsePosition(h.str(row, "position"))
		if err != nil {
			return nil, fmt.Errorf("players line %d: %w", line, err)
		}
		age, err := h.int(row, "age")
		if err != nil {
			return nil, fmt.Errorf("players line %d: bad age: %w", line, err)
		}
		players = append(players, league.Player{
			ID:       h.str(row, "player_id"),
			Name:     h.str(row, "name"),
			Position: pos,
			Age:      age,
		})
	}
	return players, nil
}

// ReadPerformance parses the performance-history table:
// player_id,season,week,date,ppg,games_played,target_share,carry_share,snap_share.
func ReadPerformance(r io.Reader) ([]league.PerformanceRecord, error) {
	cr := csv.NewReader(r)
	h, err := readHeader(cr, []string{"player_id", "season", "week", "date", "ppg"}, "performance")
	if err != nil {
		return nil, err
	}

	var records []league.PerformanceRecord
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("performance line %d: %w", line, err)
		}

		rec := league.PerformanceRecord{PlayerID: h.str(row, "player_id"), GamesPlayed: 1}
		if rec.Season, err = h.int(row, "season"); err != nil {
			return nil, fmt.Errorf("performance line %d: bad season: %w", line, err)
		}
		if rec.Week, err = h.int(row, "week"); err != nil {
			return nil, fmt.Errorf("performance line %d: bad week: %w", line, err)
		}
		if rec.Date, err = time.Parse("2006-01-02", h.str(row, "date")); err != nil {
			return nil, fmt.Errorf("performance line %d: bad date: %w", line, err)
		}
		if rec.PPG, err = h.float(row, "ppg"); err != nil {
			return nil, fmt.Errorf("performance line %d: bad ppg: %w", line, err)
		}
		// Usage shares and games_played are optional: a blank cell keeps
		// the default rather than failing the row.
		for col, dst := range map[string]*float64{
			"target_share": &rec.TargetShare,
			"carry_share":  &rec.CarryShare,
			"snap_share":   &rec.SnapShare,
		} {
			if _, ok := h[col]; !ok || h.str(row, col) == "" {
				continue
			}
			if *dst, err = h.float(row, col); err != nil {
				return nil, fmt.Errorf("performance line %d: bad %s: %w", line, col, err)
			}
		}
		if _, ok := h["games_played"]; ok && h.str(row, "games_played") != "" {
			if rec.GamesPlayed, err = h.int(row, "games_played"); err != nil {
				return nil, fmt.Errorf("performance line %d: bad games_played: %w", line, err)
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

// ReadContracts parses the contract table. Annual amounts arrive as a
// semicolon-separated list in contract order:
// player_id,franchise_id,start_year,end_year,annual_amounts.
func ReadContracts(r io.Reader) ([]league.Contract, error) {
	cr := csv.NewReader(r)
	h, err := readHeader(cr, []string{"player_id", "franchise_id", "start_year", "end_year", "annual_amounts"}, "contracts")
	if err != nil {
		return nil, err
	}

	var contracts []league.Contract
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("contracts line %d: %w", line, err)
		}

		c := league.Contract{
			PlayerID:    h.str(row, "player_id"),
			FranchiseID: h.str(row, "franchise_id"),
		}
		if c.StartYear, err = h.int(row, "start_year"); err != nil {
			return nil, fmt.Errorf("contracts line %d: bad start_year: %w", line, err)
		}
		if c.EndYear, err = h.int(row, "end_year"); err != nil {
			return nil, fmt.Errorf("contracts line %d: bad end_year: %w", line, err)
		}
		for _, part := range strings.Split(h.str(row, "annual_amounts"), ";") {
			amt, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
			if err != nil {
				return nil, fmt.Errorf("contracts line %d: bad annual amount %q: %w", line, part, err)
			}
			c.AnnualAmounts = append(c.AnnualAmounts, amt)
		}
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("contracts line %d: %w", line, err)
		}
		contracts = append(contracts, c)
	}
	return contracts, nil
}

// ReadMarketValues parses the external market-value table:
// player_id,market_value,as_of.
func ReadMarketValues(r io.Reader) ([]league.MarketValue, error) {
	cr := csv.NewReader(r)
	h, err := readHeader(cr, []string{"player_id", "market_value", "as_of"}, "market")
	if err != nil {
		return nil, err
	}

	var values []league.MarketValue
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("market line %d: %w", line, err)
		}

		mv := league.MarketValue{PlayerID: h.str(row, "player_id")}
		if mv.Value, err = h.float(row, "market_value"); err != nil {
			return nil, fmt.Errorf("market line %d: bad market_value: %w", line, err)
		}
		if mv.AsOf, err = time.Parse("2006-01-02", h.str(row, "as_of")); err != nil {
			return nil, fmt.Errorf("market line %d: bad as_of: %w", line, err)
		}
		values = append(values, mv)
	}
	return values, nil
}

// LoadFile opens a path and parses it with the given reader function.
func LoadFile[T any](path string, read func(io.Reader) ([]T, error)) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return read(f)
}
