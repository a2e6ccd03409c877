package evo

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"genom/internal/gene"
	"genom/internal/seq"
)

var (
	ErrProbability     = gene.ErrProbability
	ErrOrder           = errors.New("recombination order must be >= 2")
	ErrNonPositive     = errors.New("value must be > 0")
	ErrNegativeCount   = errors.New("selection count must be >= 0")
	ErrParameter       = errors.New("invalid operator parameter")
	ErrNoRandomSource  = errors.New("random source is required")
	ErrNoAlterer       = errors.New("alterer is required")
	ErrSectionIndex    = errors.New("section chromosome index must be >= 0")
	ErrDuplicateIndex  = errors.New("duplicate section chromosome index")
	ErrEmptySection    = errors.New("at least one section chromosome index is required")
	ErrNoSelector      = errors.New("selector is required")
	ErrFitnessFunction = errors.New("fitness function is required")
)

// Alterer changes a population and reports the number of altered genes.
// The returned population never shares mutable state with the input.
type Alterer[G any] interface {
	Name() string
	Alter(rng *rand.Rand, population gene.Population[G], generation int64) (gene.Population[G], int)
}

func checkProbability(p float64) error {
	if !(p >= 0 && p <= 1) {
		return fmt.Errorf("%w: %v", ErrProbability, p)
	}
	return nil
}

// CompositeAlterer applies its alterers in order, feeding each the output
// of the previous one.
type CompositeAlterer[G any] struct {
	alterers []Alterer[G]
}

// Join combines alterers into one. Nested composites are flattened.
func Join[G any](alterers ...Alterer[G]) *CompositeAlterer[G] {
	flat := make([]Alterer[G], 0, len(alterers))
	for _, a := range alterers {
		if a == nil {
			continue
		}
		if c, ok := a.(*CompositeAlterer[G]); ok {
			flat = append(flat, c.alterers...)
			continue
		}
		flat = append(flat, a)
	}
	return &CompositeAlterer[G]{alterers: flat}
}

func (c *CompositeAlterer[G]) Name() string {
	names := make([]string, len(c.alterers))
	for i, a := range c.alterers {
		names[i] = a.Name()
	}
	return strings.Join(names, "+")
}

// Alterers returns the flattened alterer list.
func (c *CompositeAlterer[G]) Alterers() []Alterer[G] {
	return append([]Alterer[G](nil), c.alterers...)
}

func (c *CompositeAlterer[G]) Alter(rng *rand.Rand, population gene.Population[G], generation int64) (gene.Population[G], int) {
	total := 0
	for _, a := range c.alterers {
		var n int
		population, n = a.Alter(rng, population, generation)
		total += n
	}
	return population, total
}

// PartialAlterer restricts an alterer to the chromosomes at fixed indices
// of every genotype.
type PartialAlterer[G any] struct {
	alterer Alterer[G]
	section []int
}

// Partial returns an alterer applying alterer only to the chromosomes at
// indices, in the given order.
func Partial[G any](alterer Alterer[G], indices ...int) (*PartialAlterer[G], error) {
	if alterer == nil {
		return nil, ErrNoAlterer
	}
	if len(indices) == 0 {
		return nil, ErrEmptySection
	}
	seen := make(map[int]struct{}, len(indices))
	for _, i := range indices {
		if i < 0 {
			return nil, fmt.Errorf("%w: %d", ErrSectionIndex, i)
		}
		if _, ok := seen[i]; ok {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateIndex, i)
		}
		seen[i] = struct{}{}
	}
	return &PartialAlterer[G]{alterer: alterer, section: append([]int(nil), indices...)}, nil
}

func (p *PartialAlterer[G]) Name() string {
	return fmt.Sprintf("partial(%s)%v", p.alterer.Name(), p.section)
}

// Alter splits every phenotype into the section chromosomes, delegates and
// merges the altered sections back. Genotypes with fewer chromosomes than
// the largest section index panic like an out of range index.
func (p *PartialAlterer[G]) Alter(rng *rand.Rand, population gene.Population[G], generation int64) (gene.Population[G], int) {
	if population.IsEmpty() {
		return population, 0
	}
	sections := seq.Map(population, p.split)
	altered, n := p.alterer.Alter(rng, sections, generation)
	if n == 0 {
		return population, 0
	}
	out := seq.Generate(population.Len(), func(i int) gene.Phenotype[G] {
		return p.merge(altered.Get(i), population.Get(i))
	})
	return out, n
}

func (p *PartialAlterer[G]) split(pt gene.Phenotype[G]) gene.Phenotype[G] {
	gt := pt.Genotype()
	chromosomes := seq.Generate(len(p.section), func(i int) gene.Chromosome[G] {
		return gt.Chromosome(p.section[i])
	})
	return withGenotype(pt, gt.NewInstance(chromosomes))
}

// merge writes the section chromosomes into a copy of the original
// genotype, keeping the evaluation state and generation of section.
func (p *PartialAlterer[G]) merge(section, original gene.Phenotype[G]) gene.Phenotype[G] {
	gt := original.Genotype()
	chromosomes := gt.Chromosomes().Copy()
	for i, idx := range p.section {
		chromosomes.Set(idx, section.Genotype().Chromosome(i))
	}
	return withGenotype(section, gt.NewInstance(chromosomes.Seal()))
}

// withGenotype replaces the genotype of pt, keeping generation and fitness.
func withGenotype[G any](pt gene.Phenotype[G], gt gene.Genotype[G]) gene.Phenotype[G] {
	out := gene.NewPhenotype(gt, pt.Generation())
	if f, ok := pt.Fitness(); ok {
		out = out.WithFitness(f)
	}
	return out
}
