package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const (
	appName = "dynastyval"
	version = "v1.0.0"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Dynasty fantasy-football valuation and cap-modeling engine",
		Version: version,
		Long: `dynastyval computes systematic valuations for a dynasty fantasy league:
value-over-replacement and WAR, multi-year distributional projections with
age-curve and usage-trend adjustment, salary-cap scenarios with dead-cap
amortization, and a weighted dynasty composite with market-divergence
flagging. All league rules come from the configuration file.`,
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Compute a full valuation snapshot",
		Long:  "Run baselines, valuations, projections, cap scenarios, and composite scores for one snapshot date",
		RunE:  runSnapshot,
	}
	runCmd.Flags().String("config", "config/league.yaml", "League configuration file")
	runCmd.Flags().String("data-dir", "data", "Directory holding players.csv, performance.csv, contracts.csv, market.csv")
	runCmd.Flags().String("out", "out", "Output directory for result tables")
	runCmd.Flags().String("snapshot", "", "Snapshot date (YYYY-MM-DD, default today)")
	runCmd.Flags().Int("season", 0, "Snapshot season year (default snapshot date's year)")
	runCmd.Flags().String("postgres-dsn", "", "Optional Postgres DSN; when set, outputs are also written to the database")

	backtestCmd := &cobra.Command{
		Use:   "backtest",
		Short: "Backtest projections against a historical cutoff",
		Long:  "Re-run the projection engine as of a past cutoff with strict temporal splitting and score it against held-out actuals",
		RunE:  runBacktest,
	}
	backtestCmd.Flags().String("config", "config/league.yaml", "League configuration file")
	backtestCmd.Flags().String("data-dir", "data", "Directory holding players.csv and performance.csv")
	backtestCmd.Flags().String("cutoff", "", "Training cutoff date (YYYY-MM-DD, required)")
	_ = backtestCmd.MarkFlagRequired("cutoff")

	validateCmd := &cobra.Command{
		Use:   "validate-contracts",
		Short: "Validate contract-structure legality",
		Long:  "Check every contract in the contract table against the league's max annual-amount ratio",
		RunE:  runValidateContracts,
	}
	validateCmd.Flags().String("config", "config/league.yaml", "League configuration file")
	validateCmd.Flags().String("data-dir", "data", "Directory holding contracts.csv")

	rootCmd.AddCommand(runCmd, backtestCmd, validateCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}
