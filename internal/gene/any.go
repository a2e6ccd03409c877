package gene

import (
	"fmt"
	"math/rand"
	"sync"

	"genom/internal/seq"
)

// AnyGene holds an arbitrary allele drawn from a user supplier and checked
// by an optional validator.
type AnyGene[A any] struct {
	allele    A
	supplier  func(*rand.Rand) A
	validator func(A) bool
}

func NewAnyGene[A any](allele A, supplier func(*rand.Rand) A, validator func(A) bool) AnyGene[A] {
	return AnyGene[A]{allele: allele, supplier: supplier, validator: validator}
}

func (g AnyGene[A]) Allele() A {
	return g.allele
}

func (g AnyGene[A]) IsValid() bool {
	return g.validator == nil || g.validator(g.allele)
}

func (g AnyGene[A]) NewInstance(rng *rand.Rand) AnyGene[A] {
	return g.WithAllele(g.supplier(rng))
}

func (g AnyGene[A]) WithAllele(allele A) AnyGene[A] {
	return AnyGene[A]{allele: allele, supplier: g.supplier, validator: g.validator}
}

func (g AnyGene[A]) String() string {
	return fmt.Sprint(g.allele)
}

// AnyChromosome is a variable-length chromosome of AnyGenes with an
// optional validator over the whole allele sequence.
type AnyChromosome[A any] struct {
	genes        seq.Seq[AnyGene[A]]
	supplier     func(*rand.Rand) A
	validator    func(A) bool
	seqValidator func(seq.Seq[A]) bool
	lengths      IntRange
	valid        func() bool
}

// RandomAnyChromosome draws a length from lengths and fills it from
// supplier.
func RandomAnyChromosome[A any](
	rng *rand.Rand,
	supplier func(*rand.Rand) A,
	validator func(A) bool,
	seqValidator func(seq.Seq[A]) bool,
	lengths IntRange,
) (*AnyChromosome[A], error) {
	if supplier == nil {
		return nil, ErrSupplier
	}
	if err := lengths.checkLengths(); err != nil {
		return nil, err
	}
	proto := &AnyChromosome[A]{supplier: supplier, validator: validator, seqValidator: seqValidator, lengths: lengths}
	return proto.random(rng), nil
}

// AnyChromosomeOf returns a chromosome over explicit alleles.
func AnyChromosomeOf[A any](
	alleles []A,
	supplier func(*rand.Rand) A,
	validator func(A) bool,
	seqValidator func(seq.Seq[A]) bool,
	lengths IntRange,
) (*AnyChromosome[A], error) {
	if supplier == nil {
		return nil, ErrSupplier
	}
	if err := checkLength(len(alleles), lengths); err != nil {
		return nil, err
	}
	proto := &AnyChromosome[A]{supplier: supplier, validator: validator, seqValidator: seqValidator, lengths: lengths}
	genes := seq.Generate(len(alleles), func(i int) AnyGene[A] {
		return NewAnyGene(alleles[i], supplier, validator)
	})
	return proto.with(genes), nil
}

func (c *AnyChromosome[A]) random(rng *rand.Rand) *AnyChromosome[A] {
	genes := seq.Generate(c.lengths.random(rng), func(int) AnyGene[A] {
		return NewAnyGene(c.supplier(rng), c.supplier, c.validator)
	})
	return c.with(genes)
}

func (c *AnyChromosome[A]) with(genes seq.Seq[AnyGene[A]]) *AnyChromosome[A] {
	out := &AnyChromosome[A]{
		genes:        genes,
		supplier:     c.supplier,
		validator:    c.validator,
		seqValidator: c.seqValidator,
		lengths:      c.lengths,
	}
	lengths, seqValidator := c.lengths, c.seqValidator
	out.valid = sync.OnceValue(func() bool {
		if !lengths.Contains(genes.Len()) || !allValid(genes) {
			return false
		}
		return seqValidator == nil || seqValidator(seq.Map(genes, AnyGene[A].Allele))
	})
	return out
}

func (c *AnyChromosome[A]) Len() int {
	return c.genes.Len()
}

func (c *AnyChromosome[A]) Gene(i int) AnyGene[A] {
	return c.genes.Get(i)
}

func (c *AnyChromosome[A]) Genes() seq.Seq[AnyGene[A]] {
	return c.genes
}

func (c *AnyChromosome[A]) IsValid() bool {
	return c.valid()
}

func (c *AnyChromosome[A]) LengthRange() IntRange {
	return c.lengths
}

func (c *AnyChromosome[A]) NewRandom(rng *rand.Rand) Chromosome[AnyGene[A]] {
	return c.random(rng)
}

func (c *AnyChromosome[A]) NewInstance(genes seq.Seq[AnyGene[A]]) Chromosome[AnyGene[A]] {
	return c.with(genes)
}

// Alleles returns the alleles in chromosome order.
func (c *AnyChromosome[A]) Alleles() []A {
	return seq.Map(c.genes, AnyGene[A].Allele).Slice()
}
