package problem

import (
	"errors"
	"fmt"

	"genom/internal/evo"
)

// RunConfig describes one evolution run. The field tags serve both JSON and
// YAML config files.
type RunConfig struct {
	Problem              string  `json:"problem"`
	PopulationSize       int     `json:"population_size"`
	Generations          int     `json:"generations"`
	Seed                 int64   `json:"seed"`
	Length               int     `json:"length,omitempty"`
	Target               string  `json:"target,omitempty"`
	SurvivorSelector     string  `json:"survivor_selector"`
	OffspringSelector    string  `json:"offspring_selector"`
	OffspringFraction    float64 `json:"offspring_fraction"`
	MutationProbability  float64 `json:"mutation_probability"`
	CrossoverProbability float64 `json:"crossover_probability"`
	MaxPhenotypeAge      int64   `json:"max_phenotype_age,omitempty"`
	Postprocessor        string  `json:"postprocessor,omitempty"`
	Workers              int     `json:"workers"`
	Store                string  `json:"store,omitempty"`
	DBPath               string  `json:"db_path,omitempty"`
}

var ErrInvalidConfig = errors.New("invalid run config")

// DefaultRunConfig returns the settings used for fields a config file or
// flag leaves unset.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		Problem:              "onemax",
		PopulationSize:       50,
		Generations:          100,
		Seed:                 1,
		SurvivorSelector:     "elite:1/tournament:3",
		OffspringSelector:    "tournament:3",
		OffspringFraction:    0.6,
		MutationProbability:  0.05,
		CrossoverProbability: 0.3,
		Postprocessor:        "none",
		Workers:              1,
		Store:                "memory",
	}
}

// Validate reports the first invalid field.
func (c RunConfig) Validate() error {
	switch {
	case c.Problem == "":
		return fmt.Errorf("%w: problem is required", ErrInvalidConfig)
	case c.PopulationSize < 1:
		return fmt.Errorf("%w: population size must be > 0", ErrInvalidConfig)
	case c.Generations < 0:
		return fmt.Errorf("%w: generations must be >= 0", ErrInvalidConfig)
	case c.Length < 0:
		return fmt.Errorf("%w: length must be >= 0", ErrInvalidConfig)
	case !(c.OffspringFraction >= 0 && c.OffspringFraction <= 1):
		return fmt.Errorf("%w: offspring fraction %v not in [0, 1]", ErrInvalidConfig, c.OffspringFraction)
	case !(c.MutationProbability >= 0 && c.MutationProbability <= 1):
		return fmt.Errorf("%w: mutation probability %v not in [0, 1]", ErrInvalidConfig, c.MutationProbability)
	case !(c.CrossoverProbability >= 0 && c.CrossoverProbability <= 1):
		return fmt.Errorf("%w: crossover probability %v not in [0, 1]", ErrInvalidConfig, c.CrossoverProbability)
	case c.MaxPhenotypeAge < 0:
		return fmt.Errorf("%w: max phenotype age must be >= 0", ErrInvalidConfig)
	case c.Workers < 0:
		return fmt.Errorf("%w: workers must be >= 0", ErrInvalidConfig)
	}
	for _, spec := range []string{c.SurvivorSelector, c.OffspringSelector} {
		if spec == "" {
			continue
		}
		if _, err := evo.ParseSelector[struct{}](spec); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}
	if _, err := evo.ParsePostprocessor[struct{}](c.Postprocessor); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
