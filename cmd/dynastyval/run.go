package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/dynastyops/dynastyval/internal/config"
	"github.com/dynastyops/dynastyval/internal/export"
	"github.com/dynastyops/dynastyval/internal/ingest"
	"github.com/dynastyops/dynastyval/internal/persistence/postgres"
	"github.com/dynastyops/dynastyval/internal/snapshot"
)

const dbTimeout = 30 * time.Second

func runSnapshot(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	dataDir, _ := cmd.Flags().GetString("data-dir")
	outDir, _ := cmd.Flags().GetString("out")
	snapshotFlag, _ := cmd.Flags().GetString("snapshot")
	season, _ := cmd.Flags().GetInt("season")
	dsn, _ := cmd.Flags().GetString("postgres-dsn")

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	snapshotDate := time.Now().UTC().Truncate(24 * time.Hour)
	if snapshotFlag != "" {
		if snapshotDate, err = time.Parse("2006-01-02", snapshotFlag); err != nil {
			return fmt.Errorf("bad --snapshot date: %w", err)
		}
	}
	if season == 0 {
		season = snapshotDate.Year()
	}

	inputs, err := loadInputs(dataDir, snapshotDate, season)
	if err != nil {
		return err
	}

	out, err := snapshot.New(cfg).Run(*inputs)
	if err != nil {
		return err
	}

	if err := export.NewWriter(outDir).WriteAll(out); err != nil {
		return err
	}
	log.Info().Str("run_id", out.RunID).Str("dir", outDir).Msg("Wrote output tables")

	if dsn != "" {
		if err := persistOutputs(cmd.Context(), dsn, out); err != nil {
			return err
		}
	}
	return nil
}

func loadInputs(dataDir string, snapshotDate time.Time, season int) (*snapshot.Inputs, error) {
	players, err := ingest.LoadFile(filepath.Join(dataDir, "players.csv"), ingest.ReadPlayers)
	if err != nil {
		return nil, err
	}
	performance, err := ingest.LoadFile(filepath.Join(dataDir, "performance.csv"), ingest.ReadPerformance)
	if err != nil {
		return nil, err
	}
	contracts, err := ingest.LoadFile(filepath.Join(dataDir, "contracts.csv"), ingest.ReadContracts)
	if err != nil {
		return nil, err
	}
	market, err := ingest.LoadFile(filepath.Join(dataDir, "market.csv"), ingest.ReadMarketValues)
	if err != nil {
		return nil, err
	}

	return &snapshot.Inputs{
		SnapshotDate: snapshotDate,
		SnapshotYear: season,
		Players:      players,
		Performance:  performance,
		Contracts:    contracts,
		Market:       market,
	}, nil
}

func persistOutputs(ctx context.Context, dsn string, out *snapshot.Outputs) error {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	defer db.Close()

	repo := postgres.NewRepository(db, dbTimeout)
	if err := repo.Valuations.InsertBatch(ctx, out.Valuations); err != nil {
		return err
	}
	if err := repo.Projections.InsertBatch(ctx, out.Projections); err != nil {
		return err
	}
	if err := repo.CapScenarios.InsertBatch(ctx, out.Scenarios); err != nil {
		return err
	}
	if err := repo.Composites.InsertBatch(ctx, out.Composites); err != nil {
		return err
	}

	log.Info().Str("run_id", out.RunID).Msg("Persisted output tables to postgres")
	return nil
}
