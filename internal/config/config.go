// Package config loads the league configuration file. Every rule the
// engines consume — roster shape, cap rules, composite weights, projection
// parameters — is data here, never a literal in an algorithm.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dynastyops/dynastyval/internal/domain/composite"
	"github.com/dynastyops/dynastyval/internal/domain/league"
	"github.com/dynastyops/dynastyval/internal/domain/projection"
)

// DivergenceConfig holds the dual thresholds for market-divergence
// detection. Both must be exceeded for a flag.
type DivergenceConfig struct {
	RelativeThreshold float64 `yaml:"relative_threshold"`
	AbsoluteThreshold float64 `yaml:"absolute_threshold"`
}

// Validate checks the divergence thresholds.
func (d DivergenceConfig) Validate() error {
	if d.RelativeThreshold <= 0 {
		return fmt.Errorf("divergence config: relative_threshold must be positive, got %.4f", d.RelativeThreshold)
	}
	if d.AbsoluteThreshold <= 0 {
		return fmt.Errorf("divergence config: absolute_threshold must be positive, got %.4f", d.AbsoluteThreshold)
	}
	return nil
}

// LeagueConfig is the complete external rule record for one league.
type LeagueConfig struct {
	Roster     league.RosterConfig `yaml:"roster"`
	Rules      league.RuleSet      `yaml:"rules"`
	Weights    composite.Weights   `yaml:"composite_weights"`
	Projection projection.Params   `yaml:"projection"`
	Divergence DivergenceConfig    `yaml:"divergence"`
}

// Validate runs every section's own validation. Invalid configuration is a
// hard failure before any computation starts.
func (lc LeagueConfig) Validate() error {
	if err := lc.Roster.Validate(); err != nil {
		return err
	}
	if err := lc.Rules.Validate(); err != nil {
		return err
	}
	if err := lc.Weights.Validate(); err != nil {
		return err
	}
	if err := lc.Projection.Validate(); err != nil {
		return err
	}
	return lc.Divergence.Validate()
}

// Load reads and validates a league configuration file.
func Load(path string) (*LeagueConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read league config: %w", err)
	}
	return Parse(data)
}

// Parse unmarshals and validates raw YAML league configuration.
func Parse(data []byte) (*LeagueConfig, error) {
	var cfg LeagueConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse league config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
