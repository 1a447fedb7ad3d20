package league

import (
	"fmt"
	"time"
)

// Position identifies a fantasy-relevant roster position.
type Position string

const (
	QB Position = "QB"
	RB Position = "RB"
	WR Position = "WR"
	TE Position = "TE"
)

// AllPositions lists every position the engine values, in display order.
var AllPositions = []Position{QB, RB, WR, TE}

// ParsePosition converts a raw string into a Position.
func ParsePosition(s string) (Position, error) {
	switch Position(s) {
	case QB, RB, WR, TE:
		return Position(s), nil
	}
	return "", fmt.Errorf("unknown position: %q", s)
}

// Player is the canonical identity record for one player as of a snapshot.
// Players are produced by upstream identity resolution and never mutated here.
type Player struct {
	ID       string   `json:"player_id" db:"player_id"`
	Name     string   `json:"name" db:"name"`
	Position Position `json:"position" db:"position"`
	Age      int      `json:"age" db:"age"`
}

// PerformanceRecord is one observed period (a game week) for one player.
// PPG for a weekly row is simply the points scored that week.
type PerformanceRecord struct {
	PlayerID    string    `json:"player_id" db:"player_id"`
	Season      int       `json:"season" db:"season"`
	Week        int       `json:"week" db:"week"`
	Date        time.Time `json:"date" db:"date"`
	PPG         float64   `json:"ppg" db:"ppg"`
	GamesPlayed int       `json:"games_played" db:"games_played"`
	TargetShare float64   `json:"target_share" db:"target_share"`
	CarryShare  float64   `json:"carry_share" db:"carry_share"`
	SnapShare   float64   `json:"snap_share" db:"snap_share"`
}

// UsageShare collapses the three usage signals into a single opportunity
// share. Snap share is the primary signal when reported; target+carry share
// is the fallback for sources that do not track snaps.
func (r PerformanceRecord) UsageShare() float64 {
	if r.SnapShare > 0 {
		return r.SnapShare
	}
	return r.TargetShare + r.CarryShare
}

// Contract is one player contract held by a franchise. AnnualAmounts carries
// one amount per contract year, StartYear through EndYear inclusive.
type Contract struct {
	PlayerID      string    `json:"player_id" db:"player_id"`
	FranchiseID   string    `json:"franchise_id" db:"franchise_id"`
	StartYear     int       `json:"start_year" db:"start_year"`
	EndYear       int       `json:"end_year" db:"end_year"`
	AnnualAmounts []float64 `json:"annual_amounts" db:"-"`
}

// Years returns the number of contract years.
func (c Contract) Years() int {
	return c.EndYear - c.StartYear + 1
}

// Covers reports whether the contract is active in the given year.
func (c Contract) Covers(year int) bool {
	return year >= c.StartYear && year <= c.EndYear
}

// AmountFor returns the annual amount for the given year.
func (c Contract) AmountFor(year int) (float64, bool) {
	if !c.Covers(year) {
		return 0, false
	}
	idx := year - c.StartYear
	if idx >= len(c.AnnualAmounts) {
		return 0, false
	}
	return c.AnnualAmounts[idx], true
}

// Validate checks structural consistency of the contract record itself.
// Rule legality (max/min ratio) is the cap engine's concern, not this one.
func (c Contract) Validate() error {
	if c.PlayerID == "" {
		return fmt.Errorf("contract missing player_id")
	}
	if c.FranchiseID == "" {
		return fmt.Errorf("contract for player %s missing franchise_id", c.PlayerID)
	}
	if c.EndYear < c.StartYear {
		return fmt.Errorf("contract for player %s: end_year %d before start_year %d", c.PlayerID, c.EndYear, c.StartYear)
	}
	if len(c.AnnualAmounts) != c.Years() {
		return fmt.Errorf("contract for player %s: %d annual amounts for %d contract years", c.PlayerID, len(c.AnnualAmounts), c.Years())
	}
	for i, amt := range c.AnnualAmounts {
		if amt <= 0 {
			return fmt.Errorf("contract for player %s: non-positive amount %.2f in year %d", c.PlayerID, amt, c.StartYear+i)
		}
	}
	return nil
}

// MarketValue is one external market-consensus value for a player.
type MarketValue struct {
	PlayerID string    `json:"player_id" db:"player_id"`
	Value    float64   `json:"market_value" db:"market_value"`
	AsOf     time.Time `json:"as_of" db:"as_of"`
}
