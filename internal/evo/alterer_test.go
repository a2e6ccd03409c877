package evo

import (
	"errors"
	"math/rand"
	"testing"

	"genom/internal/gene"
	"genom/internal/seq"
)

type countingAlterer struct {
	name    string
	altered int
	calls   *int
}

func (a countingAlterer) Name() string { return a.name }

func (a countingAlterer) Alter(_ *rand.Rand, population gene.Population[gene.BitGene], _ int64) (gene.Population[gene.BitGene], int) {
	*a.calls++
	return population, a.altered
}

func TestJoinFlattensAndSumsCounts(t *testing.T) {
	calls := 0
	a := countingAlterer{name: "a", altered: 2, calls: &calls}
	b := countingAlterer{name: "b", altered: 3, calls: &calls}
	c := countingAlterer{name: "c", altered: 0, calls: &calls}

	joined := Join[gene.BitGene](a, Join[gene.BitGene](b, nil, c))
	if got := len(joined.Alterers()); got != 3 {
		t.Fatalf("expected 3 flattened alterers, got %d", got)
	}
	if joined.Name() != "a+b+c" {
		t.Fatalf("unexpected composite name: %q", joined.Name())
	}

	rng := rand.New(rand.NewSource(51))
	population := bitPopulation(t, rng, 4, 8)
	_, n := joined.Alter(rng, population, 1)
	if n != 5 {
		t.Fatalf("expected summed alteration count 5, got %d", n)
	}
	if calls != 3 {
		t.Fatalf("expected every alterer to run once, got %d calls", calls)
	}
}

func TestEmptyJoinLeavesPopulation(t *testing.T) {
	rng := rand.New(rand.NewSource(52))
	population := bitPopulation(t, rng, 3, 8)
	out, n := Join[gene.BitGene]().Alter(rng, population, 1)
	if n != 0 || out.Len() != population.Len() {
		t.Fatalf("expected unchanged population, got n=%d len=%d", n, out.Len())
	}
	for i := range population.Len() {
		if out.Get(i).Genotype().Chromosome(0) != population.Get(i).Genotype().Chromosome(0) {
			t.Fatalf("phenotype %d changed", i)
		}
	}
}

func TestPartialValidatesSection(t *testing.T) {
	flip, err := NewBitFlipMutator(1)
	if err != nil {
		t.Fatalf("bit flip: %v", err)
	}
	if _, err := Partial[gene.BitGene](nil, 0); !errors.Is(err, ErrNoAlterer) {
		t.Fatalf("expected ErrNoAlterer, got %v", err)
	}
	if _, err := Partial[gene.BitGene](flip); !errors.Is(err, ErrEmptySection) {
		t.Fatalf("expected ErrEmptySection, got %v", err)
	}
	if _, err := Partial[gene.BitGene](flip, -1); !errors.Is(err, ErrSectionIndex) {
		t.Fatalf("expected ErrSectionIndex, got %v", err)
	}
	if _, err := Partial[gene.BitGene](flip, 1, 0, 1); !errors.Is(err, ErrDuplicateIndex) {
		t.Fatalf("expected ErrDuplicateIndex, got %v", err)
	}
}

func twoChromosomeBits(t *testing.T, rng *rand.Rand, size int) gene.Population[gene.BitGene] {
	t.Helper()
	out := make([]gene.Phenotype[gene.BitGene], size)
	for i := range out {
		first, err := gene.NewBitChromosome(rng, 6, 0.5)
		if err != nil {
			t.Fatalf("bit chromosome: %v", err)
		}
		second, err := gene.NewBitChromosome(rng, 10, 0.5)
		if err != nil {
			t.Fatalf("bit chromosome: %v", err)
		}
		gt, err := gene.NewGenotype[gene.BitGene](first, second)
		if err != nil {
			t.Fatalf("genotype: %v", err)
		}
		out[i] = gene.NewPhenotype(gt, 0).WithFitness(float64(i))
	}
	return seq.Of(out...)
}

func TestPartialAltersOnlySection(t *testing.T) {
	rng := rand.New(rand.NewSource(53))
	population := twoChromosomeBits(t, rng, 5)
	flip, err := NewBitFlipMutator(1)
	if err != nil {
		t.Fatalf("bit flip: %v", err)
	}
	partial, err := Partial[gene.BitGene](flip, 1)
	if err != nil {
		t.Fatalf("partial: %v", err)
	}

	out, n := partial.Alter(rng, population, 4)
	if n != 5*10 {
		t.Fatalf("expected every section bit flipped, got %d", n)
	}
	for i := range population.Len() {
		before, after := population.Get(i), out.Get(i)
		if after.Genotype().Len() != 2 {
			t.Fatalf("phenotype %d: expected 2 chromosomes, got %d", i, after.Genotype().Len())
		}
		if after.Genotype().Chromosome(0) != before.Genotype().Chromosome(0) {
			t.Fatalf("phenotype %d: chromosome outside the section changed", i)
		}
		for j := range 10 {
			if after.Genotype().Chromosome(1).Gene(j) == before.Genotype().Chromosome(1).Gene(j) {
				t.Fatalf("phenotype %d: section gene %d not flipped", i, j)
			}
		}
		if after.IsEvaluated() || after.Generation() != 4 {
			t.Fatalf("phenotype %d: expected unevaluated generation 4, got %v", i, after)
		}
	}
}

func TestPartialWithoutAlterationKeepsPopulation(t *testing.T) {
	rng := rand.New(rand.NewSource(54))
	population := twoChromosomeBits(t, rng, 3)
	flip, err := NewBitFlipMutator(0)
	if err != nil {
		t.Fatalf("bit flip: %v", err)
	}
	partial, err := Partial[gene.BitGene](flip, 0)
	if err != nil {
		t.Fatalf("partial: %v", err)
	}
	out, n := partial.Alter(rng, population, 9)
	if n != 0 {
		t.Fatalf("expected no alterations, got %d", n)
	}
	for i, pt := range out.All() {
		if f, ok := pt.Fitness(); !ok || f != float64(i) {
			t.Fatalf("phenotype %d lost its fitness", i)
		}
	}
}

func TestPartialCrossoverKeepsOtherChromosomes(t *testing.T) {
	rng := rand.New(rand.NewSource(55))
	population := twoChromosomeBits(t, rng, 6)
	cross, err := NewSinglePointCrossover[gene.BitGene](1)
	if err != nil {
		t.Fatalf("single point: %v", err)
	}
	partial, err := Partial[gene.BitGene](cross, 1)
	if err != nil {
		t.Fatalf("partial: %v", err)
	}
	out, n := partial.Alter(rng, population, 1)
	if n == 0 {
		t.Fatal("expected the crossover to alter the population")
	}
	for i := range population.Len() {
		if out.Get(i).Genotype().Chromosome(0) != population.Get(i).Genotype().Chromosome(0) {
			t.Fatalf("phenotype %d: chromosome outside the section changed", i)
		}
	}
}
