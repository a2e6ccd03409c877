package evo

import (
	"fmt"
	"math/rand"

	"genom/internal/gene"
	"genom/internal/rnd"
	"genom/internal/seq"
)

// recombineFunc combines the phenotypes at individuals, writing the
// results into population, and returns the number of altered genes. The
// first index is the primary individual.
type recombineFunc[G any] func(rng *rand.Rand, population seq.MSeq[gene.Phenotype[G]], individuals []int, generation int64) int

// recombination implements the recombinator scheme. Each phenotype is a
// primary individual with the given probability and is combined with
// order-1 distinct partners drawn uniformly from the rest of the
// population.
type recombination[G any] struct {
	name        string
	probability float64
	order       int
	recombine   recombineFunc[G]
}

func newRecombination[G any](name string, probability float64, order int, recombine recombineFunc[G]) (recombination[G], error) {
	if err := checkProbability(probability); err != nil {
		return recombination[G]{}, err
	}
	if order < 2 {
		return recombination[G]{}, fmt.Errorf("%w: %d", ErrOrder, order)
	}
	return recombination[G]{name: name, probability: probability, order: order, recombine: recombine}, nil
}

func (r recombination[G]) Name() string {
	return r.name
}

func (r recombination[G]) Probability() float64 {
	return r.probability
}

func (r recombination[G]) Order() int {
	return r.order
}

func (r recombination[G]) Alter(rng *rand.Rand, population gene.Population[G], generation int64) (gene.Population[G], int) {
	n := population.Len()
	if n < 2 || r.probability == 0 {
		return population, 0
	}
	order := min(r.order, n)
	picked := rnd.Indexes(rng, n, r.probability)
	if len(picked) == 0 {
		return population, 0
	}

	out := population.Copy()
	total := 0
	for _, i := range picked {
		individuals := append([]int{i}, rnd.Others(rng, n, i, order-1)...)
		total += r.recombine(rng, out, individuals, generation)
	}
	if total == 0 {
		return population, 0
	}
	return out.Seal(), total
}

// crossFunc exchanges genes between two mutable gene sequences and returns
// the number of altered genes.
type crossFunc[G any] func(rng *rand.Rand, that, other seq.MSeq[G]) int

// crossover adapts a two parent gene exchange to recombineFunc. One
// chromosome index, valid for both genotypes, is chosen per event and both
// parents are replaced by their offspring.
func crossover[G any](cross crossFunc[G]) recombineFunc[G] {
	return func(rng *rand.Rand, population seq.MSeq[gene.Phenotype[G]], individuals []int, generation int64) int {
		gt1 := population.Get(individuals[0]).Genotype()
		gt2 := population.Get(individuals[1]).Genotype()
		ci := rng.Intn(min(gt1.Len(), gt2.Len()))
		c1, c2 := gt1.Chromosome(ci), gt2.Chromosome(ci)

		genes1, genes2 := c1.Genes().Copy(), c2.Genes().Copy()
		n := cross(rng, genes1, genes2)
		if n == 0 {
			return 0
		}
		population.Set(individuals[0], gene.NewPhenotype(replaceChromosome(gt1, ci, c1.NewInstance(genes1.Seal())), generation))
		population.Set(individuals[1], gene.NewPhenotype(replaceChromosome(gt2, ci, c2.NewInstance(genes2.Seal())), generation))
		return n
	}
}

func replaceChromosome[G any](gt gene.Genotype[G], i int, c gene.Chromosome[G]) gene.Genotype[G] {
	chromosomes := gt.Chromosomes().Copy()
	chromosomes.Set(i, c)
	return gt.NewInstance(chromosomes.Seal())
}
