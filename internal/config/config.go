// Package config holds the tunable parameters shared by the simulator and
// the advisor.
package config

import (
	"encoding/json"
	"io/ioutil"

	"github.com/pkg/errors"

	"github.com/DominicAntonacci/clue-guessing/internal/deck"
)

// Config collects every knob a run can turn. Zero values are invalid; start
// from Default and override.
type Config struct {
	// NumPlayers is the number of seats at the table.
	NumPlayers int `json:"num_players"`

	// AccusationThreshold is the posterior probability every category must
	// reach before a strategy accuses. 1.0 means accuse only on certainty.
	AccusationThreshold float64 `json:"accusation_threshold"`

	// ExactCaseBudget bounds exact completion counting; past it the
	// estimator samples instead.
	ExactCaseBudget int `json:"exact_case_budget"`

	// SampleCount is the Monte Carlo attempt budget per category.
	SampleCount int `json:"sample_count"`

	// TurnCap aborts games that never reach an accusation.
	TurnCap int `json:"turn_cap"`

	// Workers is the parallelism of a simulation batch.
	Workers int `json:"workers"`

	// Seed fixes the run's randomness; 0 means seed from the clock.
	Seed int64 `json:"seed"`
}

// Default returns the standard configuration for a casual 4-player table.
func Default() *Config {
	return &Config{
		NumPlayers:          4,
		AccusationThreshold: 1.0,
		ExactCaseBudget:     200000,
		SampleCount:         20000,
		TurnCap:             120,
		Workers:             4,
	}
}

// Load reads and validates a configuration file, starting from defaults so a
// partial file only overrides what it names.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "parse config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations that cannot produce a meaningful run.
func (c *Config) Validate() error {
	if c.NumPlayers < deck.MinPlayers || c.NumPlayers > deck.MaxPlayers {
		return errors.Wrapf(deck.ErrInvalidPlayerCount, "%d players", c.NumPlayers)
	}
	if c.AccusationThreshold <= 0 || c.AccusationThreshold > 1 {
		return errors.Errorf("accusation threshold %f outside (0, 1]", c.AccusationThreshold)
	}
	if c.ExactCaseBudget < 0 || c.SampleCount < 0 {
		return errors.New("estimator budgets must not be negative")
	}
	if c.TurnCap < 1 {
		return errors.Errorf("turn cap %d must be at least 1", c.TurnCap)
	}
	if c.Workers < 1 {
		return errors.Errorf("worker count %d must be at least 1", c.Workers)
	}
	return nil
}
