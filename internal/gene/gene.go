// Package gene defines the genotype data model: genes, chromosomes,
// genotypes and phenotypes.
//
// Every value in this package is immutable once constructed and may be
// shared between goroutines. Operators work against the small capability
// interfaces below and never against concrete gene types:
//
//	Gene        IsValid, NewInstance (fresh random gene of the same constraints)
//	AlleleGene  Allele, WithAllele
//	NumericGene Float64, Bounds, WithFloat64
//	BoundedGene NumericGene plus Compare
//	MeanGene    Mean
//	Chromosome  Len, Gene, Genes, IsValid, NewRandom, NewInstance
//
// A gene or chromosome holding an allele or length outside its declared
// constraints is still constructed; IsValid reports false for it.
package gene

import (
	"errors"
	"fmt"
	"math/rand"

	"genom/internal/seq"
)

var (
	ErrEmptyChromosome = errors.New("chromosome must contain at least one gene")
	ErrEmptyGenotype   = errors.New("genotype must contain at least one chromosome")
	ErrLengthRange     = errors.New("gene count outside length range")
	ErrBoundsMismatch  = errors.New("genes do not share the same bounds")
	ErrInvalidBounds   = errors.New("invalid bounds")
	ErrProbability     = errors.New("probability must be within [0, 1]")
	ErrNoAlleles       = errors.New("at least one valid allele is required")
	ErrSupplier        = errors.New("allele supplier is required")
)

// Gene is the capability set every gene type provides.
type Gene[G any] interface {
	IsValid() bool
	// NewInstance returns a new random gene with the same constraints.
	NewInstance(rng *rand.Rand) G
}

// AlleleGene is a Gene exposing its allele of type A.
type AlleleGene[A, G any] interface {
	Gene[G]
	Allele() A
	// WithAllele returns a gene with the same constraints holding allele.
	WithAllele(allele A) G
}

// NumericGene is a bounded gene whose allele can be read and written as a
// float64. Integral genes round in WithFloat64.
type NumericGene[G any] interface {
	Gene[G]
	Float64() float64
	Bounds() (min, max float64)
	WithFloat64(v float64) G
}

// BoundedGene is a numeric gene whose alleles are ordered.
type BoundedGene[G any] interface {
	NumericGene[G]
	Compare(other G) int
}

// MeanGene is a gene that can be averaged with another gene of its kind.
type MeanGene[G any] interface {
	Gene[G]
	Mean(other G) G
}

// Chromosome is an ordered, non-empty sequence of genes of one kind.
type Chromosome[G any] interface {
	Len() int
	// Gene returns the gene at index i and panics outside [0, Len).
	Gene(i int) G
	Genes() seq.Seq[G]
	// IsValid reports whether every gene and the gene count satisfy the
	// chromosome's constraints. The result is memoized.
	IsValid() bool
	// NewRandom returns a fresh random chromosome with the same constraints.
	NewRandom(rng *rand.Rand) Chromosome[G]
	// NewInstance returns a chromosome with the same constraints holding
	// genes.
	NewInstance(genes seq.Seq[G]) Chromosome[G]
}

// IntRange is the half-open integer range [Min, Max).
type IntRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Length returns the range admitting exactly n.
func Length(n int) IntRange {
	return IntRange{Min: n, Max: n + 1}
}

func (r IntRange) Contains(n int) bool {
	return n >= r.Min && n < r.Max
}

func (r IntRange) String() string {
	return fmt.Sprintf("[%d, %d)", r.Min, r.Max)
}

func (r IntRange) checkLengths() error {
	if r.Min < 1 || r.Max <= r.Min {
		return fmt.Errorf("%w: length range %s", ErrLengthRange, r)
	}
	return nil
}

func (r IntRange) random(rng *rand.Rand) int {
	return r.Min + rng.Intn(r.Max-r.Min)
}

func checkLength(n int, lengths IntRange) error {
	if n == 0 {
		return ErrEmptyChromosome
	}
	if !lengths.Contains(n) {
		return fmt.Errorf("%w: %d not in %s", ErrLengthRange, n, lengths)
	}
	return nil
}

func checkProbability(p float64) error {
	if !(p >= 0 && p <= 1) {
		return fmt.Errorf("%w: %v", ErrProbability, p)
	}
	return nil
}

// distinctCount counts the distinct keys of the genes.
func distinctCount[G any, K comparable](genes seq.Seq[G], key func(G) K) int {
	seen := make(map[K]struct{}, 1)
	for g := range genes.Values() {
		seen[key(g)] = struct{}{}
	}
	return len(seen)
}

// allValid is the shared validity check of chromosomes.
func allValid[G Gene[G]](genes seq.Seq[G]) bool {
	return genes.Len() > 0 && genes.ForAll(func(g G) bool { return g.IsValid() })
}
