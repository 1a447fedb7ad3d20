package ingest

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dynastyops/dynastyval/internal/domain/league"
)

func TestReadPlayers(t *testing.T) {
	in := `player_id,name,position,age
rb1,Test Back,RB,24
qb1,Test Arm,QB,28
`
	players, err := ReadPlayers(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, players, 2)

	assert.Equal(t, "rb1", players[0].ID)
	assert.Equal(t, league.RB, players[0].Position)
	assert.Equal(t, 24, players[0].Age)
}

func TestReadPlayers_UnknownPositionFails(t *testing.T) {
	in := "player_id,name,position,age\nk1,Test Leg,K,30\n"
	_, err := ReadPlayers(strings.NewReader(in))
	assert.Error(t, err)
}

func TestReadPlayers_MissingColumnFails(t *testing.T) {
	_, err := ReadPlayers(strings.NewReader("player_id,name,age\nrb1,Test Back,24\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "position")
}

func TestReadPerformance(t *testing.T) {
	in := `player_id,season,week,date,ppg,target_share,carry_share,snap_share
rb1,2025,1,2025-09-07,14.5,0.10,0.55,0.72
rb1,2025,2,2025-09-14,9.0,0.08,0.50,0.68
`
	records, err := ReadPerformance(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, 2025, records[0].Season)
	assert.Equal(t, 1, records[0].Week)
	assert.Equal(t, time.Date(2025, 9, 7, 0, 0, 0, 0, time.UTC), records[0].Date)
	assert.Equal(t, 14.5, records[0].PPG)
	assert.Equal(t, 0.72, records[0].SnapShare)
	assert.Equal(t, 1, records[0].GamesPlayed, "weekly rows default to one game")
}

func TestReadPerformance_BlankPPGFails(t *testing.T) {
	in := "player_id,season,week,date,ppg\nrb1,2025,1,2025-09-07,\n"
	_, err := ReadPerformance(strings.NewReader(in))
	require.Error(t, err, "a blank required numeric cell must not become zero")
	assert.Contains(t, err.Error(), "ppg")
}

func TestReadPerformance_BlankUsageShareIsOptional(t *testing.T) {
	in := "player_id,season,week,date,ppg,snap_share\nrb1,2025,1,2025-09-07,14.5,\n"
	records, err := ReadPerformance(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Zero(t, records[0].SnapShare)
}

func TestReadContracts(t *testing.T) {
	in := `player_id,franchise_id,start_year,end_year,annual_amounts
rb1,f1,2025,2027,10;12;14
`
	contracts, err := ReadContracts(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, contracts, 1)

	c := contracts[0]
	assert.Equal(t, "f1", c.FranchiseID)
	assert.Equal(t, []float64{10, 12, 14}, c.AnnualAmounts)
	assert.True(t, c.Covers(2026))
}

func TestReadContracts_AmountCountMismatchFails(t *testing.T) {
	in := "player_id,franchise_id,start_year,end_year,annual_amounts\nrb1,f1,2025,2027,10;12\n"
	_, err := ReadContracts(strings.NewReader(in))
	assert.Error(t, err, "two amounts for a three-year contract must fail validation")
}

func TestReadMarketValues(t *testing.T) {
	in := `player_id,market_value,as_of
rb1,4800,2026-08-01
`
	values, err := ReadMarketValues(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, values, 1)

	assert.Equal(t, 4800.0, values[0].Value)
	assert.Equal(t, 2026, values[0].AsOf.Year())
}

func TestReadMarketValues_BlankValueFails(t *testing.T) {
	in := "player_id,market_value,as_of\nrb1,,2026-08-01\n"
	_, err := ReadMarketValues(strings.NewReader(in))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "market_value")
}
