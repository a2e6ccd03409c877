package evo

import (
	"math/rand"
	"testing"

	"genom/internal/gene"
	"genom/internal/seq"
)

func doublePhenotype(t *testing.T, rng *rand.Rand, length int) gene.Phenotype[gene.DoubleGene] {
	t.Helper()
	c, err := gene.RandomDoubleChromosome(rng, 0, 10, gene.Length(length))
	if err != nil {
		t.Fatalf("double chromosome: %v", err)
	}
	gt, err := gene.NewGenotype[gene.DoubleGene](c)
	if err != nil {
		t.Fatalf("genotype: %v", err)
	}
	return gene.NewPhenotype(gt, 0)
}

// scoredPopulation returns one evaluated double phenotype per fitness value.
func scoredPopulation(t *testing.T, rng *rand.Rand, fitness ...float64) gene.Population[gene.DoubleGene] {
	t.Helper()
	out := make([]gene.Phenotype[gene.DoubleGene], len(fitness))
	for i, f := range fitness {
		out[i] = doublePhenotype(t, rng, 3).WithFitness(f)
	}
	return seq.Of(out...)
}

func permutationPopulation(t *testing.T, rng *rand.Rand, size, length int) gene.Population[gene.EnumGene[int]] {
	t.Helper()
	out := make([]gene.Phenotype[gene.EnumGene[int]], size)
	for i := range out {
		c, err := gene.PermutationOfInts(rng, length)
		if err != nil {
			t.Fatalf("permutation: %v", err)
		}
		gt, err := gene.NewGenotype[gene.EnumGene[int]](c)
		if err != nil {
			t.Fatalf("genotype: %v", err)
		}
		out[i] = gene.NewPhenotype(gt, 0)
	}
	return seq.Of(out...)
}

func bitPopulation(t *testing.T, rng *rand.Rand, size, length int) gene.Population[gene.BitGene] {
	t.Helper()
	out := make([]gene.Phenotype[gene.BitGene], size)
	for i := range out {
		c, err := gene.NewBitChromosome(rng, length, 0.5)
		if err != nil {
			t.Fatalf("bit chromosome: %v", err)
		}
		gt, err := gene.NewGenotype[gene.BitGene](c)
		if err != nil {
			t.Fatalf("genotype: %v", err)
		}
		out[i] = gene.NewPhenotype(gt, 0)
	}
	return seq.Of(out...)
}

func fitnessOf[G any](t *testing.T, population gene.Population[G]) []float64 {
	t.Helper()
	out := make([]float64, population.Len())
	for i, pt := range population.All() {
		f, ok := pt.Fitness()
		if !ok {
			t.Fatalf("phenotype %d is not evaluated", i)
		}
		out[i] = f
	}
	return out
}

// columnOnes counts the one bits at every gene position over the first
// chromosome of every phenotype.
func columnOnes(population gene.Population[gene.BitGene], length int) []int {
	out := make([]int, length)
	for pt := range population.Values() {
		c := pt.Genotype().Chromosome(0)
		for i := 0; i < length; i++ {
			if c.Gene(i) {
				out[i]++
			}
		}
	}
	return out
}

func allValid[G any](population gene.Population[G]) bool {
	return population.ForAll(func(pt gene.Phenotype[G]) bool { return pt.IsValid() })
}
