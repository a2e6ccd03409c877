package gene

import (
	"fmt"
	"math/rand"
	"sync"

	"genom/internal/bit"
	"genom/internal/rnd"
	"genom/internal/seq"
)

// EnumGene selects one allele out of a shared sequence of valid alleles by
// index.
type EnumGene[A comparable] struct {
	index   int
	alleles seq.Seq[A]
}

func NewEnumGene[A comparable](index int, alleles seq.Seq[A]) (EnumGene[A], error) {
	if alleles.IsEmpty() {
		return EnumGene[A]{}, ErrNoAlleles
	}
	return EnumGene[A]{index: index, alleles: alleles}, nil
}

// Allele returns the selected allele, or the zero value for an invalid
// index.
func (g EnumGene[A]) Allele() A {
	if !g.IsValid() {
		var zero A
		return zero
	}
	return g.alleles.Get(g.index)
}

func (g EnumGene[A]) AlleleIndex() int {
	return g.index
}

func (g EnumGene[A]) ValidAlleles() seq.Seq[A] {
	return g.alleles
}

func (g EnumGene[A]) IsValid() bool {
	return g.index >= 0 && g.index < g.alleles.Len()
}

func (g EnumGene[A]) NewInstance(rng *rand.Rand) EnumGene[A] {
	return EnumGene[A]{index: rng.Intn(g.alleles.Len()), alleles: g.alleles}
}

// WithAllele selects allele; an allele outside the valid set yields an
// invalid gene.
func (g EnumGene[A]) WithAllele(allele A) EnumGene[A] {
	return g.WithAlleleIndex(g.alleles.IndexFunc(func(a A) bool { return a == allele }))
}

func (g EnumGene[A]) WithAlleleIndex(index int) EnumGene[A] {
	return EnumGene[A]{index: index, alleles: g.alleles}
}

func (g EnumGene[A]) String() string {
	return fmt.Sprint(g.Allele())
}

// PermutationChromosome orders a subset of the valid alleles. It is valid
// only while no allele index occurs twice.
type PermutationChromosome[A comparable] struct {
	genes   seq.Seq[EnumGene[A]]
	alleles seq.Seq[A]
	valid   func() bool
}

// NewPermutationChromosome returns a random permutation of all alleles.
func NewPermutationChromosome[A comparable](rng *rand.Rand, alleles seq.Seq[A]) (*PermutationChromosome[A], error) {
	return RandomPermutationChromosome(rng, alleles, alleles.Len())
}

// RandomPermutationChromosome returns length distinct alleles in random
// order.
func RandomPermutationChromosome[A comparable](rng *rand.Rand, alleles seq.Seq[A], length int) (*PermutationChromosome[A], error) {
	if alleles.IsEmpty() {
		return nil, ErrNoAlleles
	}
	if length < 1 {
		return nil, ErrEmptyChromosome
	}
	if length > alleles.Len() {
		return nil, fmt.Errorf("%w: %d exceeds %d alleles", ErrLengthRange, length, alleles.Len())
	}
	return randomPermutation(rng, alleles, length), nil
}

// PermutationOfInts returns a random permutation of 0..n-1.
func PermutationOfInts(rng *rand.Rand, n int) (*PermutationChromosome[int], error) {
	return NewPermutationChromosome(rng, seq.Generate(n, func(i int) int { return i }))
}

// PermutationChromosomeOf returns the chromosome selecting the alleles at
// indexes, in order.
func PermutationChromosomeOf[A comparable](alleles seq.Seq[A], indexes ...int) (*PermutationChromosome[A], error) {
	if alleles.IsEmpty() {
		return nil, ErrNoAlleles
	}
	if len(indexes) == 0 {
		return nil, ErrEmptyChromosome
	}
	genes := seq.Generate(len(indexes), func(i int) EnumGene[A] {
		return EnumGene[A]{index: indexes[i], alleles: alleles}
	})
	return newPermutationChromosome(genes, alleles), nil
}

func randomPermutation[A comparable](rng *rand.Rand, alleles seq.Seq[A], length int) *PermutationChromosome[A] {
	indexes := seq.MOf(rnd.Subset(rng, alleles.Len(), length)...)
	indexes.Shuffle(rng)
	genes := seq.Map(indexes.Seal(), func(i int) EnumGene[A] {
		return EnumGene[A]{index: i, alleles: alleles}
	})
	return newPermutationChromosome(genes, alleles)
}

func newPermutationChromosome[A comparable](genes seq.Seq[EnumGene[A]], alleles seq.Seq[A]) *PermutationChromosome[A] {
	c := &PermutationChromosome[A]{genes: genes, alleles: alleles}
	c.valid = sync.OnceValue(func() bool {
		if genes.Len() > alleles.Len() || !allValid(genes) {
			return false
		}
		seen := bit.New(alleles.Len())
		for g := range genes.Values() {
			if bit.Get(seen, g.index) {
				return false
			}
			bit.Set(seen, g.index, true)
		}
		return true
	})
	return c
}

func (c *PermutationChromosome[A]) Len() int {
	return c.genes.Len()
}

func (c *PermutationChromosome[A]) Gene(i int) EnumGene[A] {
	return c.genes.Get(i)
}

func (c *PermutationChromosome[A]) Genes() seq.Seq[EnumGene[A]] {
	return c.genes
}

func (c *PermutationChromosome[A]) IsValid() bool {
	return c.valid()
}

func (c *PermutationChromosome[A]) ValidAlleles() seq.Seq[A] {
	return c.alleles
}

func (c *PermutationChromosome[A]) NewRandom(rng *rand.Rand) Chromosome[EnumGene[A]] {
	return randomPermutation(rng, c.alleles, c.Len())
}

func (c *PermutationChromosome[A]) NewInstance(genes seq.Seq[EnumGene[A]]) Chromosome[EnumGene[A]] {
	return newPermutationChromosome(genes, c.alleles)
}

// Alleles returns the selected alleles in chromosome order.
func (c *PermutationChromosome[A]) Alleles() []A {
	return seq.Map(c.genes, EnumGene[A].Allele).Slice()
}

// Indexes returns the selected allele indexes in chromosome order.
func (c *PermutationChromosome[A]) Indexes() []int {
	return seq.Map(c.genes, EnumGene[A].AlleleIndex).Slice()
}

func (c *PermutationChromosome[A]) String() string {
	return fmt.Sprint(c.Alleles())
}
