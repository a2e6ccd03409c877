package evo

import (
	"math"
	"math/rand"

	"genom/internal/gene"
	"genom/internal/rnd"
	"genom/internal/seq"
)

// mutateChromosome mutates one chromosome with the per-gene probability p
// and returns the new chromosome and the number of altered genes.
type mutateChromosome[G any] func(rng *rand.Rand, c gene.Chromosome[G], p float64) (gene.Chromosome[G], int)

// mutation implements the cascading mutation scheme shared by every
// mutator. Phenotypes, their chromosomes and the chromosome genes are each
// picked with probability p^(1/3).
type mutation[G any] struct {
	name        string
	probability float64
	chromosome  mutateChromosome[G]
}

func newMutation[G any](name string, probability float64, chromosome mutateChromosome[G]) (mutation[G], error) {
	if err := checkProbability(probability); err != nil {
		return mutation[G]{}, err
	}
	return mutation[G]{name: name, probability: probability, chromosome: chromosome}, nil
}

func (m mutation[G]) Name() string {
	return m.name
}

func (m mutation[G]) Probability() float64 {
	return m.probability
}

// Alter replaces every mutated phenotype with an unevaluated one of the
// given generation.
func (m mutation[G]) Alter(rng *rand.Rand, population gene.Population[G], generation int64) (gene.Population[G], int) {
	if population.IsEmpty() || m.probability == 0 {
		return population, 0
	}
	p := math.Cbrt(m.probability)
	picked := rnd.Indexes(rng, population.Len(), p)
	if len(picked) == 0 {
		return population, 0
	}

	out := population.Copy()
	total := 0
	for _, i := range picked {
		gt, n := m.mutateGenotype(rng, population.Get(i).Genotype(), p)
		if n > 0 {
			out.Set(i, gene.NewPhenotype(gt, generation))
			total += n
		}
	}
	if total == 0 {
		return population, 0
	}
	return out.Seal(), total
}

func (m mutation[G]) mutateGenotype(rng *rand.Rand, gt gene.Genotype[G], p float64) (gene.Genotype[G], int) {
	picked := rnd.Indexes(rng, gt.Len(), p)
	if len(picked) == 0 {
		return gt, 0
	}
	chromosomes := gt.Chromosomes().Copy()
	total := 0
	for _, i := range picked {
		c, n := m.chromosome(rng, gt.Chromosome(i), p)
		if n > 0 {
			chromosomes.Set(i, c)
			total += n
		}
	}
	if total == 0 {
		return gt, 0
	}
	return gt.NewInstance(chromosomes.Seal()), total
}

// mapGenes replaces each gene picked with probability p by f(gene).
func mapGenes[G any](rng *rand.Rand, c gene.Chromosome[G], p float64, f func(*rand.Rand, G) G) (gene.Chromosome[G], int) {
	picked := rnd.Indexes(rng, c.Len(), p)
	if len(picked) == 0 {
		return c, 0
	}
	genes := c.Genes().Copy()
	for _, i := range picked {
		genes.Set(i, f(rng, genes.Get(i)))
	}
	return c.NewInstance(genes.Seal()), len(picked)
}

// editGenes applies f to a mutable copy of the chromosome genes. f returns
// the number of altered genes.
func editGenes[G any](c gene.Chromosome[G], f func(genes seq.MSeq[G]) int) (gene.Chromosome[G], int) {
	genes := c.Genes().Copy()
	n := f(genes)
	if n == 0 {
		return c, 0
	}
	return c.NewInstance(genes.Seal()), n
}

// Mutator replaces randomly picked genes with fresh random genes of the
// same constraints.
type Mutator[G gene.Gene[G]] struct {
	mutation[G]
}

func NewMutator[G gene.Gene[G]](probability float64) (*Mutator[G], error) {
	m, err := newMutation[G]("mutator", probability, func(rng *rand.Rand, c gene.Chromosome[G], p float64) (gene.Chromosome[G], int) {
		return mapGenes(rng, c, p, func(rng *rand.Rand, g G) G { return g.NewInstance(rng) })
	})
	if err != nil {
		return nil, err
	}
	return &Mutator[G]{mutation: m}, nil
}

// SwapMutator swaps each picked gene with a uniformly chosen gene of the
// same chromosome.
type SwapMutator[G any] struct {
	mutation[G]
}

func NewSwapMutator[G any](probability float64) (*SwapMutator[G], error) {
	m, err := newMutation[G]("swap", probability, func(rng *rand.Rand, c gene.Chromosome[G], p float64) (gene.Chromosome[G], int) {
		if c.Len() < 2 {
			return c, 0
		}
		picked := rnd.Indexes(rng, c.Len(), p)
		if len(picked) == 0 {
			return c, 0
		}
		return editGenes(c, func(genes seq.MSeq[G]) int {
			for _, i := range picked {
				genes.Swap(i, rng.Intn(genes.Len()))
			}
			return len(picked)
		})
	})
	if err != nil {
		return nil, err
	}
	return &SwapMutator[G]{mutation: m}, nil
}

// BitFlipMutator inverts each picked bit.
type BitFlipMutator struct {
	mutation[gene.BitGene]
}

func NewBitFlipMutator(probability float64) (*BitFlipMutator, error) {
	m, err := newMutation[gene.BitGene]("bit-flip", probability, func(rng *rand.Rand, c gene.Chromosome[gene.BitGene], p float64) (gene.Chromosome[gene.BitGene], int) {
		return mapGenes(rng, c, p, func(_ *rand.Rand, g gene.BitGene) gene.BitGene { return !g })
	})
	if err != nil {
		return nil, err
	}
	return &BitFlipMutator{mutation: m}, nil
}
