package evo

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"sync/atomic"
	"testing"

	"genom/internal/gene"
)

func oneMax(_ context.Context, gt gene.Genotype[gene.BitGene]) (float64, error) {
	return float64(gt.Chromosome(0).(*gene.BitChromosome).BitCount()), nil
}

func oneMaxConfig(t *testing.T) EvolverConfig[gene.BitGene] {
	t.Helper()
	flip, err := NewBitFlipMutator(0.05)
	if err != nil {
		t.Fatalf("bit flip: %v", err)
	}
	cross, err := NewSinglePointCrossover[gene.BitGene](0.3)
	if err != nil {
		t.Fatalf("single point: %v", err)
	}
	elite, err := NewEliteSelector[gene.BitGene](2, &TournamentSelector[gene.BitGene]{sampleSize: 3})
	if err != nil {
		t.Fatalf("elite: %v", err)
	}
	return EvolverConfig[gene.BitGene]{
		Fitness:           oneMax,
		Optimize:          gene.Maximum,
		SurvivorSelector:  elite,
		Alterer:           Join[gene.BitGene](cross, flip),
		PopulationSize:    30,
		OffspringFraction: 0.6,
		Generations:       25,
		Workers:           4,
		Seed:              81,
	}
}

func TestNewEvolverValidatesConfig(t *testing.T) {
	base := oneMaxConfig(t)

	cfg := base
	cfg.Fitness = nil
	if _, err := NewEvolver(cfg); !errors.Is(err, ErrFitnessFunction) {
		t.Fatalf("expected ErrFitnessFunction, got %v", err)
	}
	cfg = base
	cfg.OffspringFraction = 1.5
	if _, err := NewEvolver(cfg); !errors.Is(err, ErrProbability) {
		t.Fatalf("expected ErrProbability, got %v", err)
	}
	for _, mutate := range []func(*EvolverConfig[gene.BitGene]){
		func(c *EvolverConfig[gene.BitGene]) { c.PopulationSize = 0 },
		func(c *EvolverConfig[gene.BitGene]) { c.Generations = -1 },
		func(c *EvolverConfig[gene.BitGene]) { c.MaxPhenotypeAge = -1 },
	} {
		cfg = base
		mutate(&cfg)
		if _, err := NewEvolver(cfg); err == nil {
			t.Fatalf("expected config error for %+v", cfg)
		}
	}
}

func TestEvolverImprovesOneMax(t *testing.T) {
	cfg := oneMaxConfig(t)
	evolver, err := NewEvolver(cfg)
	if err != nil {
		t.Fatalf("new evolver: %v", err)
	}
	rng := rand.New(rand.NewSource(82))
	prototype := bitPopulation(t, rng, 1, 40).Get(0).Genotype()
	initial := NewPopulation(rng, prototype, cfg.PopulationSize, 0)

	result, err := evolver.Run(context.Background(), initial)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(result.BestByGeneration) != cfg.Generations || len(result.GenerationDiagnostics) != cfg.Generations {
		t.Fatalf("unexpected history length: %d", len(result.BestByGeneration))
	}
	for i := 1; i < len(result.BestByGeneration); i++ {
		if result.BestByGeneration[i] < result.BestByGeneration[i-1] {
			t.Fatalf("best fitness decreased at generation %d: %v", i+1, result.BestByGeneration)
		}
	}
	if result.Generation != int64(cfg.Generations) {
		t.Fatalf("expected final generation %d, got %d", cfg.Generations, result.Generation)
	}
	if result.FinalPopulation.Len() != cfg.PopulationSize || !allValid(result.FinalPopulation) {
		t.Fatalf("unexpected final population")
	}
	best, ok := result.Best.Fitness()
	if !ok || best != result.BestByGeneration[len(result.BestByGeneration)-1] {
		t.Fatalf("best phenotype fitness %v does not match history", best)
	}
	for i, diag := range result.GenerationDiagnostics {
		if diag.Generation != int64(i+1) {
			t.Fatalf("diagnostics %d has generation %d", i, diag.Generation)
		}
		if diag.WorstFitness > diag.MeanFitness || diag.MeanFitness > diag.BestFitness {
			t.Fatalf("inconsistent diagnostics: %+v", diag)
		}
		if diag.Diversity < 1 || diag.Diversity > cfg.PopulationSize {
			t.Fatalf("diversity out of range: %+v", diag)
		}
	}
}

func TestEvolverPropagatesFitnessError(t *testing.T) {
	cfg := oneMaxConfig(t)
	boom := errors.New("boom")
	cfg.Fitness = func(context.Context, gene.Genotype[gene.BitGene]) (float64, error) {
		return 0, boom
	}
	evolver, err := NewEvolver(cfg)
	if err != nil {
		t.Fatalf("new evolver: %v", err)
	}
	rng := rand.New(rand.NewSource(83))
	initial := bitPopulation(t, rng, cfg.PopulationSize, 10)
	if _, err := evolver.Run(context.Background(), initial); !errors.Is(err, boom) {
		t.Fatalf("expected fitness error, got %v", err)
	}
}

func TestEvolverRejectsPopulationSizeMismatch(t *testing.T) {
	cfg := oneMaxConfig(t)
	evolver, err := NewEvolver(cfg)
	if err != nil {
		t.Fatalf("new evolver: %v", err)
	}
	rng := rand.New(rand.NewSource(84))
	if _, err := evolver.Run(context.Background(), bitPopulation(t, rng, 3, 10)); err == nil {
		t.Fatal("expected population size mismatch error")
	}
}

func TestEvolverHonorsCanceledContext(t *testing.T) {
	cfg := oneMaxConfig(t)
	evolver, err := NewEvolver(cfg)
	if err != nil {
		t.Fatalf("new evolver: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rng := rand.New(rand.NewSource(85))
	if _, err := evolver.Run(ctx, bitPopulation(t, rng, cfg.PopulationSize, 10)); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestEvaluateOnlyScoresUnevaluated(t *testing.T) {
	var calls atomic.Int32
	cfg := oneMaxConfig(t)
	cfg.Fitness = func(ctx context.Context, gt gene.Genotype[gene.BitGene]) (float64, error) {
		calls.Add(1)
		return oneMax(ctx, gt)
	}
	evolver, err := NewEvolver(cfg)
	if err != nil {
		t.Fatalf("new evolver: %v", err)
	}
	rng := rand.New(rand.NewSource(86))
	population := bitPopulation(t, rng, 6, 12)
	population = population.SubSeq(0, 2).Append(
		population.Get(2).WithFitness(-1),
		population.Get(3).WithFitness(-1),
		population.Get(4),
		population.Get(5),
	)

	out, evaluations, err := evolver.Evaluate(context.Background(), population)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if evaluations != 4 || calls.Load() != 4 {
		t.Fatalf("expected 4 evaluations, got %d (%d calls)", evaluations, calls.Load())
	}
	fitness := fitnessOf(t, out)
	if fitness[2] != -1 || fitness[3] != -1 {
		t.Fatalf("evaluated phenotypes were rescored: %v", fitness)
	}
	if fitness[0] < 0 {
		t.Fatalf("unexpected fitness: %v", fitness)
	}
}

func TestStepReplacesTooOldPhenotypes(t *testing.T) {
	cfg := oneMaxConfig(t)
	cfg.MaxPhenotypeAge = 2
	cfg.OffspringFraction = 0
	cfg.SurvivorSelector = UnboundedTruncationSelector[gene.BitGene]()
	evolver, err := NewEvolver(cfg)
	if err != nil {
		t.Fatalf("new evolver: %v", err)
	}
	rng := rand.New(rand.NewSource(87))
	population, _, err := evolver.Evaluate(context.Background(), bitPopulation(t, rng, cfg.PopulationSize, 10))
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	next, diag, err := evolver.Step(context.Background(), population, 5)
	if err != nil {
		t.Fatalf("step: %v", err)
	}
	if diag.Killed != cfg.PopulationSize || diag.Evaluations != cfg.PopulationSize {
		t.Fatalf("expected every phenotype replaced, got %+v", diag)
	}
	for pt := range next.Values() {
		if pt.Generation() != 5 {
			t.Fatalf("expected replacement of generation 5, got %d", pt.Generation())
		}
	}
}

func TestRunDoesNotCompoundPostprocessedFitness(t *testing.T) {
	rng := rand.New(rand.NewSource(88))
	prototype := doublePhenotype(t, rng, 8).Genotype()
	constant := func(context.Context, gene.Genotype[gene.DoubleGene]) (float64, error) {
		return 1, nil
	}
	cfg := EvolverConfig[gene.DoubleGene]{
		Fitness:           constant,
		Optimize:          gene.Maximum,
		SurvivorSelector:  UnboundedTruncationSelector[gene.DoubleGene](),
		Postprocessor:     SizeProportionalPostprocessor[gene.DoubleGene]{},
		PopulationSize:    10,
		OffspringFraction: 0.4,
		Generations:       5,
		Seed:              89,
	}
	want := 1 / math.Pow(8, sizeProportionalEfficiency)

	initial := NewPopulation(rng, prototype, cfg.PopulationSize, 0)
	for round := 0; round < 2; round++ {
		evolver, err := NewEvolver(cfg)
		if err != nil {
			t.Fatalf("new evolver: %v", err)
		}
		result, err := evolver.Run(context.Background(), initial)
		if err != nil {
			t.Fatalf("run %d: %v", round, err)
		}
		for gen, best := range result.BestByGeneration {
			if math.Abs(best-want) > 1e-9 {
				t.Fatalf("run %d generation %d: best=%f want=%f (history %v)", round, gen+1, best, want, result.BestByGeneration)
			}
		}
		for _, f := range fitnessOf(t, result.FinalPopulation) {
			if f != 1 {
				t.Fatalf("run %d: expected raw fitness in final population, got %v", round, f)
			}
		}
		initial = result.FinalPopulation
	}
}
