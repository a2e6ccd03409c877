package gene

import (
	"math/rand"
	"strings"
	"sync"

	"genom/internal/seq"
)

// Genotype is the encoded candidate solution: a non-empty sequence of
// chromosomes whose genes share one kind. Chromosomes may differ in length
// and constraints.
type Genotype[G any] struct {
	chromosomes seq.Seq[Chromosome[G]]
	valid       func() bool
}

func NewGenotype[G any](chromosomes ...Chromosome[G]) (Genotype[G], error) {
	return GenotypeOf(seq.Of(chromosomes...))
}

func GenotypeOf[G any](chromosomes seq.Seq[Chromosome[G]]) (Genotype[G], error) {
	if chromosomes.IsEmpty() {
		return Genotype[G]{}, ErrEmptyGenotype
	}
	return newGenotype(chromosomes), nil
}

func newGenotype[G any](chromosomes seq.Seq[Chromosome[G]]) Genotype[G] {
	return Genotype[G]{
		chromosomes: chromosomes,
		valid: sync.OnceValue(func() bool {
			return chromosomes.Len() > 0 &&
				chromosomes.ForAll(func(c Chromosome[G]) bool { return c.IsValid() })
		}),
	}
}

func (g Genotype[G]) Len() int {
	return g.chromosomes.Len()
}

func (g Genotype[G]) Chromosome(i int) Chromosome[G] {
	return g.chromosomes.Get(i)
}

func (g Genotype[G]) Chromosomes() seq.Seq[Chromosome[G]] {
	return g.chromosomes
}

// Gene returns the first gene of the first chromosome.
func (g Genotype[G]) Gene() G {
	return g.chromosomes.Get(0).Gene(0)
}

// GeneCount returns the number of genes over all chromosomes.
func (g Genotype[G]) GeneCount() int {
	count := 0
	for c := range g.chromosomes.Values() {
		count += c.Len()
	}
	return count
}

func (g Genotype[G]) IsValid() bool {
	return g.valid != nil && g.valid()
}

// NewRandom returns a genotype of freshly randomized chromosomes with the
// same constraints.
func (g Genotype[G]) NewRandom(rng *rand.Rand) Genotype[G] {
	return newGenotype(seq.Map(g.chromosomes, func(c Chromosome[G]) Chromosome[G] {
		return c.NewRandom(rng)
	}))
}

// NewInstance returns a genotype holding chromosomes. An empty sequence
// yields an invalid genotype.
func (g Genotype[G]) NewInstance(chromosomes seq.Seq[Chromosome[G]]) Genotype[G] {
	return newGenotype(chromosomes)
}

func (g Genotype[G]) String() string {
	parts := make([]string, 0, g.Len())
	for c := range g.chromosomes.Values() {
		parts = append(parts, c.Genes().String())
	}
	return strings.Join(parts, " | ")
}
