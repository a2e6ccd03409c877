// Package problem wires the gene model and the alterer pipeline into
// runnable demo problems. Populations cross the package boundary in their
// binary codec form so callers need not know the gene type.
package problem

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"slices"

	"genom/internal/codec"
	"genom/internal/evo"
	"genom/internal/gene"
)

var ErrUnknownProblem = errors.New("unknown problem")

// Problem is a runnable fitness landscape.
type Problem interface {
	Name() string
	Description() string
	Optimize() gene.Optimize
	// Run evolves a fresh population, or the encoded population resume
	// when it is not nil.
	Run(ctx context.Context, cfg RunConfig, resume []byte) (Outcome, error)
	// Summarize decodes an encoded population of this problem.
	Summarize(population []byte) (PopulationSummary, error)
}

// Outcome is the result of one run.
type Outcome struct {
	Population        []byte
	History           []float64
	Diagnostics       []evo.GenerationDiagnostics
	BestFitness       float64
	Best              string
	Generation        int64
	Evaluations       int
	SurvivorSelector  string
	OffspringSelector string
	Alterer           string
}

type PopulationSummary struct {
	Size        int
	Generation  int64
	Evaluated   int
	Invalid     int
	BestFitness float64
	HasBest     bool
	Best        string
}

// definition implements Problem for one gene type.
type definition[G any] struct {
	name          string
	description   string
	optimize      gene.Optimize
	defaultLength int
	genotype      func(rng *rand.Rand, cfg RunConfig) (gene.Genotype[G], error)
	fitness       func(cfg RunConfig) evo.FitnessFunc[G]
	alterer       func(cfg RunConfig) (evo.Alterer[G], error)
	render        func(gt gene.Genotype[G]) string
}

func (d *definition[G]) Name() string {
	return d.name
}

func (d *definition[G]) Description() string {
	return d.description
}

func (d *definition[G]) Optimize() gene.Optimize {
	return d.optimize
}

func (d *definition[G]) Run(ctx context.Context, cfg RunConfig, resume []byte) (Outcome, error) {
	if cfg.Length == 0 {
		cfg.Length = d.defaultLength
	}
	var initial gene.Population[G]
	if resume != nil {
		var err error
		if initial, err = codec.UnmarshalPopulation[G](resume); err != nil {
			return Outcome{}, fmt.Errorf("restore %s population: %w", d.name, err)
		}
		if initial.IsEmpty() {
			return Outcome{}, fmt.Errorf("restore %s population: empty population", d.name)
		}
		cfg.PopulationSize = initial.Len()
	}
	if err := cfg.Validate(); err != nil {
		return Outcome{}, err
	}

	survivors, err := parseSelector[G](cfg.SurvivorSelector)
	if err != nil {
		return Outcome{}, err
	}
	offspring, err := parseSelector[G](cfg.OffspringSelector)
	if err != nil {
		return Outcome{}, err
	}
	alterer, err := d.alterer(cfg)
	if err != nil {
		return Outcome{}, fmt.Errorf("%s alterer: %w", d.name, err)
	}
	postprocessor, err := evo.ParsePostprocessor[G](cfg.Postprocessor)
	if err != nil {
		return Outcome{}, err
	}
	evolver, err := evo.NewEvolver(evo.EvolverConfig[G]{
		Fitness:           d.fitness(cfg),
		Optimize:          d.optimize,
		SurvivorSelector:  survivors,
		OffspringSelector: offspring,
		Alterer:           alterer,
		Postprocessor:     postprocessor,
		PopulationSize:    cfg.PopulationSize,
		OffspringFraction: cfg.OffspringFraction,
		MaxPhenotypeAge:   cfg.MaxPhenotypeAge,
		Generations:       cfg.Generations,
		Workers:           cfg.Workers,
		Seed:              cfg.Seed,
	})
	if err != nil {
		return Outcome{}, err
	}

	if resume == nil {
		rng := rand.New(rand.NewSource(cfg.Seed))
		prototype, err := d.genotype(rng, cfg)
		if err != nil {
			return Outcome{}, fmt.Errorf("%s genotype: %w", d.name, err)
		}
		initial = evo.NewPopulation(rng, prototype, cfg.PopulationSize, 0)
	}

	result, err := evolver.Run(ctx, initial)
	if err != nil {
		return Outcome{}, err
	}
	encoded, err := codec.MarshalPopulation(result.FinalPopulation)
	if err != nil {
		return Outcome{}, fmt.Errorf("encode %s population: %w", d.name, err)
	}

	out := Outcome{
		Population:        encoded,
		History:           result.BestByGeneration,
		Diagnostics:       result.GenerationDiagnostics,
		Generation:        result.Generation,
		SurvivorSelector:  survivors.Name(),
		OffspringSelector: offspring.Name(),
		Alterer:           alterer.Name(),
	}
	for _, diag := range result.GenerationDiagnostics {
		out.Evaluations += diag.Evaluations
	}
	if f, ok := result.Best.Fitness(); ok {
		out.BestFitness = f
		out.Best = d.render(result.Best.Genotype())
	}
	return out, nil
}

func (d *definition[G]) Summarize(population []byte) (PopulationSummary, error) {
	decoded, err := codec.UnmarshalPopulation[G](population)
	if err != nil {
		return PopulationSummary{}, fmt.Errorf("decode %s population: %w", d.name, err)
	}
	summary := PopulationSummary{Size: decoded.Len()}
	for pt := range decoded.Values() {
		summary.Generation = max(summary.Generation, pt.Generation())
		if pt.IsEvaluated() {
			summary.Evaluated++
		}
		if !pt.IsValid() {
			summary.Invalid++
		}
	}
	if best, ok := gene.BestPhenotype(d.optimize, decoded); ok {
		if f, evaluated := best.Fitness(); evaluated {
			summary.BestFitness, summary.HasBest = f, true
			summary.Best = d.render(best.Genotype())
		}
	}
	return summary, nil
}

// parseSelector parses spec, falling back to a size 3 tournament.
func parseSelector[G any](spec string) (evo.Selector[G], error) {
	if spec == "" {
		spec = "tournament:3"
	}
	return evo.ParseSelector[G](spec)
}

var registry = map[string]Problem{}

func register(p Problem) {
	registry[p.Name()] = p
}

// Lookup returns the registered problem called name.
func Lookup(name string) (Problem, error) {
	p, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProblem, name)
	}
	return p, nil
}

// Names returns the registered problem names in order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
