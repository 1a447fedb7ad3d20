package main

import (
	"errors"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/dynastyops/dynastyval/internal/config"
	"github.com/dynastyops/dynastyval/internal/domain/cap"
	"github.com/dynastyops/dynastyval/internal/ingest"
)

func runValidateContracts(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	dataDir, _ := cmd.Flags().GetString("data-dir")

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	contracts, err := ingest.LoadFile(filepath.Join(dataDir, "contracts.csv"), ingest.ReadContracts)
	if err != nil {
		return err
	}

	illegal := 0
	for _, c := range contracts {
		if err := cap.ValidateContractStructure(c, cfg.Rules.MaxContractRatio); err != nil {
			illegal++
			var structural *cap.IllegalContractStructureError
			if errors.As(err, &structural) {
				log.Error().
					Str("player_id", structural.PlayerID).
					Str("franchise_id", c.FranchiseID).
					Float64("ratio", structural.Ratio).
					Float64("max_ratio", structural.MaxRatio).
					Msg("Illegal contract structure")
				continue
			}
			log.Error().Err(err).Str("player_id", c.PlayerID).Msg("Invalid contract record")
		}
	}

	if illegal > 0 {
		return errors.New("contract validation failed")
	}
	log.Info().Int("contracts", len(contracts)).Msg("All contract structures legal")
	return nil
}
