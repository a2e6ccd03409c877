package evo

import (
	"math"
	"math/rand"
	"testing"

	"genom/internal/gene"
	"genom/internal/seq"
)

func TestSizeProportionalPostprocessorPenalizesGeneCount(t *testing.T) {
	rng := rand.New(rand.NewSource(41))
	population := seq.Of(
		doublePhenotype(t, rng, 1).WithFitness(1),
		doublePhenotype(t, rng, 8).WithFitness(1),
	)
	out := SizeProportionalPostprocessor[gene.DoubleGene]{}.Process(population, gene.Maximum)

	got := fitnessOf(t, out)
	wantSmall := 1.0
	wantLarge := 1.0 / math.Pow(8, sizeProportionalEfficiency)
	if math.Abs(got[0]-wantSmall) > 1e-9 {
		t.Fatalf("unexpected small adjusted fitness: got=%f want=%f", got[0], wantSmall)
	}
	if math.Abs(got[1]-wantLarge) > 1e-9 {
		t.Fatalf("unexpected large adjusted fitness: got=%f want=%f", got[1], wantLarge)
	}
	if f, _ := population.Get(1).Fitness(); f != 1 {
		t.Fatal("expected postprocessor to leave the input population unchanged")
	}
}

func TestSizeProportionalPostprocessorFollowsOptimizeDirection(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	population := seq.Of(
		doublePhenotype(t, rng, 4).WithFitness(2),
		doublePhenotype(t, rng, 4).WithFitness(-2),
		doublePhenotype(t, rng, 4),
	)
	out := SizeProportionalPostprocessor[gene.DoubleGene]{}.Process(population, gene.Minimum)
	for i := 0; i < 2; i++ {
		before, _ := population.Get(i).Fitness()
		after, _ := out.Get(i).Fitness()
		if !(after > before) {
			t.Fatalf("phenotype %d: expected a worse fitness under minimization, got %f from %f", i, after, before)
		}
	}
	if out.Get(2).IsEvaluated() {
		t.Fatal("expected unevaluated phenotype to stay unevaluated")
	}
}

func TestParsePostprocessor(t *testing.T) {
	for _, name := range []string{"", "none", "size-proportional"} {
		p, err := ParsePostprocessor[gene.DoubleGene](name)
		if err != nil {
			t.Fatalf("parse %q: %v", name, err)
		}
		if name != "" && p.Name() != name {
			t.Fatalf("parse %q: got %q", name, p.Name())
		}
	}
	if _, err := ParsePostprocessor[gene.DoubleGene]("novelty"); err == nil {
		t.Fatal("expected unknown postprocessor error")
	}
}

func TestSizeProportionalPostprocessorStartsFromRawFitness(t *testing.T) {
	rng := rand.New(rand.NewSource(43))
	population := seq.Of(doublePhenotype(t, rng, 8).WithFitness(1))
	p := SizeProportionalPostprocessor[gene.DoubleGene]{}

	once := p.Process(population, gene.Maximum)
	twice := p.Process(once, gene.Maximum)
	if diff := fitnessOf(t, twice)[0] - fitnessOf(t, once)[0]; diff != 0 {
		t.Fatalf("expected reprocessing to be stable, drift=%v", diff)
	}
	if raw, ok := twice.Get(0).RawFitness(); !ok || raw != 1 {
		t.Fatalf("expected raw fitness 1, got %v (evaluated=%t)", raw, ok)
	}
	if f, _ := twice.Get(0).Unadjusted().Fitness(); f != 1 {
		t.Fatalf("expected unadjusted fitness 1, got %v", f)
	}
}
