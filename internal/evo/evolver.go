package evo

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"golang.org/x/sync/errgroup"

	"genom/internal/gene"
	"genom/internal/seq"
)

// FitnessFunc evaluates a genotype. It may be called concurrently.
type FitnessFunc[G any] func(ctx context.Context, genotype gene.Genotype[G]) (float64, error)

type GenerationDiagnostics struct {
	Generation   int64   `json:"generation"`
	BestFitness  float64 `json:"best_fitness"`
	MeanFitness  float64 `json:"mean_fitness"`
	WorstFitness float64 `json:"worst_fitness"`
	Alterations  int     `json:"alterations"`
	Invalid      int     `json:"invalid"`
	Killed       int     `json:"killed"`
	Evaluations  int     `json:"evaluations"`
	Diversity    int     `json:"diversity"`
}

type RunResult[G any] struct {
	BestByGeneration      []float64
	GenerationDiagnostics []GenerationDiagnostics
	FinalPopulation       gene.Population[G]
	Best                  gene.Phenotype[G]
	Generation            int64
}

type EvolverConfig[G any] struct {
	Fitness           FitnessFunc[G]
	Optimize          gene.Optimize
	SurvivorSelector  Selector[G]
	OffspringSelector Selector[G]
	Alterer           Alterer[G]
	Postprocessor     FitnessPostprocessor[G]
	PopulationSize    int
	OffspringFraction float64
	MaxPhenotypeAge   int64
	Generations       int
	Workers           int
	Seed              int64
}

// Evolver drives one generation at a time: select survivors and offspring,
// alter the offspring, replace invalid or too old phenotypes and evaluate
// the result.
type Evolver[G any] struct {
	cfg EvolverConfig[G]
	rng *rand.Rand
}

func NewEvolver[G any](cfg EvolverConfig[G]) (*Evolver[G], error) {
	if cfg.Fitness == nil {
		return nil, ErrFitnessFunction
	}
	if cfg.PopulationSize <= 0 {
		return nil, fmt.Errorf("population size must be > 0")
	}
	if cfg.Generations < 0 {
		return nil, fmt.Errorf("generations must be >= 0")
	}
	if err := checkProbability(cfg.OffspringFraction); err != nil {
		return nil, fmt.Errorf("offspring fraction: %w", err)
	}
	if cfg.MaxPhenotypeAge < 0 {
		return nil, fmt.Errorf("max phenotype age must be >= 0")
	}
	if cfg.SurvivorSelector == nil {
		cfg.SurvivorSelector = &TournamentSelector[G]{sampleSize: 3}
	}
	if cfg.OffspringSelector == nil {
		cfg.OffspringSelector = &TournamentSelector[G]{sampleSize: 3}
	}
	if cfg.Alterer == nil {
		cfg.Alterer = Join[G]()
	}
	if cfg.Postprocessor == nil {
		cfg.Postprocessor = NoopFitnessPostprocessor[G]{}
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &Evolver[G]{cfg: cfg, rng: rand.New(rand.NewSource(cfg.Seed))}, nil
}

// Run evaluates initial and evolves it for the configured number of
// generations. Generation numbers continue from the youngest phenotype of
// initial.
func (e *Evolver[G]) Run(ctx context.Context, initial gene.Population[G]) (RunResult[G], error) {
	if initial.Len() != e.cfg.PopulationSize {
		return RunResult[G]{}, fmt.Errorf("initial population mismatch: got=%d want=%d", initial.Len(), e.cfg.PopulationSize)
	}

	generation := int64(0)
	for pt := range initial.Values() {
		generation = max(generation, pt.Generation())
	}
	population, _, err := e.Evaluate(ctx, initial)
	if err != nil {
		return RunResult[G]{}, err
	}

	bestHistory := make([]float64, 0, e.cfg.Generations)
	diagnostics := make([]GenerationDiagnostics, 0, e.cfg.Generations)
	for i := 0; i < e.cfg.Generations; i++ {
		if err := ctx.Err(); err != nil {
			return RunResult[G]{}, err
		}
		generation++
		var diag GenerationDiagnostics
		population, diag, err = e.Step(ctx, population, generation)
		if err != nil {
			return RunResult[G]{}, err
		}
		bestHistory = append(bestHistory, diag.BestFitness)
		diagnostics = append(diagnostics, diag)
	}

	best, _ := gene.BestPhenotype(e.cfg.Optimize, e.cfg.Postprocessor.Process(population, e.cfg.Optimize))
	return RunResult[G]{
		BestByGeneration:      bestHistory,
		GenerationDiagnostics: diagnostics,
		FinalPopulation:       population,
		Best:                  best,
		Generation:            generation,
	}, nil
}

// Step produces the evaluated population of generation from the evaluated
// population of the previous generation. Selection and diagnostics see the
// postprocessed fitness; the returned population carries raw fitness only.
func (e *Evolver[G]) Step(ctx context.Context, population gene.Population[G], generation int64) (gene.Population[G], GenerationDiagnostics, error) {
	offspringCount := int(math.Round(float64(e.cfg.PopulationSize) * e.cfg.OffspringFraction))
	survivorCount := e.cfg.PopulationSize - offspringCount

	ranked := e.cfg.Postprocessor.Process(population, e.cfg.Optimize)
	survivors, err := e.cfg.SurvivorSelector.Select(e.rng, ranked, survivorCount, e.cfg.Optimize)
	if err != nil {
		return gene.Population[G]{}, GenerationDiagnostics{}, fmt.Errorf("select survivors: %w", err)
	}
	offspring, err := e.cfg.OffspringSelector.Select(e.rng, ranked, offspringCount, e.cfg.Optimize)
	if err != nil {
		return gene.Population[G]{}, GenerationDiagnostics{}, fmt.Errorf("select offspring: %w", err)
	}
	survivors = seq.Map(survivors, gene.Phenotype[G].Unadjusted)
	offspring = seq.Map(offspring, gene.Phenotype[G].Unadjusted)
	offspring, alterations := e.cfg.Alterer.Alter(e.rng, offspring, generation)

	next := survivors.AppendSeq(offspring).Copy()
	invalid, killed := 0, 0
	for i := 0; i < next.Len(); i++ {
		pt := next.Get(i)
		switch {
		case !pt.IsValid():
			invalid++
		case e.cfg.MaxPhenotypeAge > 0 && pt.Age(generation) > e.cfg.MaxPhenotypeAge:
			killed++
		default:
			continue
		}
		next.Set(i, gene.NewPhenotype(pt.Genotype().NewRandom(e.rng), generation))
	}

	evaluated, evaluations, err := e.Evaluate(ctx, next.Seal())
	if err != nil {
		return gene.Population[G]{}, GenerationDiagnostics{}, err
	}
	diag := summarizeGeneration(e.cfg.Postprocessor.Process(evaluated, e.cfg.Optimize), generation, e.cfg.Optimize)
	diag.Alterations = alterations
	diag.Invalid = invalid
	diag.Killed = killed
	diag.Evaluations = evaluations
	return evaluated, diag, nil
}

// Evaluate assigns fitness to every unevaluated phenotype using up to
// Workers goroutines and returns the number of evaluations.
func (e *Evolver[G]) Evaluate(ctx context.Context, population gene.Population[G]) (gene.Population[G], int, error) {
	pending := make([]int, 0, population.Len())
	for i, pt := range population.All() {
		if !pt.IsEvaluated() {
			pending = append(pending, i)
		}
	}
	if len(pending) == 0 {
		return population, 0, nil
	}

	fitness := make([]float64, len(pending))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)
	for k, i := range pending {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			f, err := e.cfg.Fitness(gctx, population.Get(i).Genotype())
			if err != nil {
				return fmt.Errorf("evaluate phenotype %d: %w", i, err)
			}
			fitness[k] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return gene.Population[G]{}, 0, err
	}

	out := population.Copy()
	for k, i := range pending {
		out.Set(i, out.Get(i).WithFitness(fitness[k]))
	}
	return out.Seal(), len(pending), nil
}

func summarizeGeneration[G any](population gene.Population[G], generation int64, opt gene.Optimize) GenerationDiagnostics {
	diag := GenerationDiagnostics{Generation: generation}
	if population.IsEmpty() {
		return diag
	}

	total, count := 0.0, 0
	distinct := make(map[string]struct{}, population.Len())
	for pt := range population.Values() {
		distinct[pt.Genotype().String()] = struct{}{}
		f, ok := pt.Fitness()
		if !ok {
			continue
		}
		if count == 0 {
			diag.BestFitness, diag.WorstFitness = f, f
		}
		diag.BestFitness = opt.Best(diag.BestFitness, f)
		diag.WorstFitness = opt.Worst(diag.WorstFitness, f)
		total += f
		count++
	}
	if count > 0 {
		diag.MeanFitness = total / float64(count)
	}
	diag.Diversity = len(distinct)
	return diag
}

// NewPopulation returns size unevaluated phenotypes of generation with
// genotypes drawn from prototype.NewRandom.
func NewPopulation[G any](rng *rand.Rand, prototype gene.Genotype[G], size int, generation int64) gene.Population[G] {
	return seq.Generate(size, func(int) gene.Phenotype[G] {
		return gene.NewPhenotype(prototype.NewRandom(rng), generation)
	})
}
