package gene

import (
	"cmp"
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"sync"

	"genom/internal/rnd"
	"genom/internal/seq"
)

// DoubleGene holds a float64 allele in the half-open range [min, max).
type DoubleGene struct {
	allele, min, max float64
}

func NewDoubleGene(allele, min, max float64) DoubleGene {
	return DoubleGene{allele: allele, min: min, max: max}
}

// RandomDoubleGene returns a gene with a uniform allele in [min, max).
func RandomDoubleGene(rng *rand.Rand, min, max float64) DoubleGene {
	return DoubleGene{allele: rnd.Float64(rng, min, max), min: min, max: max}
}

func (g DoubleGene) Allele() float64 {
	return g.allele
}

func (g DoubleGene) Min() float64 {
	return g.min
}

func (g DoubleGene) Max() float64 {
	return g.max
}

func (g DoubleGene) Float64() float64 {
	return g.allele
}

func (g DoubleGene) Bounds() (float64, float64) {
	return g.min, g.max
}

// IsValid reports whether the allele is finite and within [min, max).
func (g DoubleGene) IsValid() bool {
	return !math.IsNaN(g.allele) && !math.IsInf(g.allele, 0) && g.allele >= g.min && g.allele < g.max
}

func (g DoubleGene) NewInstance(rng *rand.Rand) DoubleGene {
	return RandomDoubleGene(rng, g.min, g.max)
}

func (g DoubleGene) WithAllele(allele float64) DoubleGene {
	return DoubleGene{allele: allele, min: g.min, max: g.max}
}

func (g DoubleGene) WithFloat64(v float64) DoubleGene {
	return g.WithAllele(v)
}

// Mean returns a gene holding the mean of both alleles with the bounds of g.
func (g DoubleGene) Mean(other DoubleGene) DoubleGene {
	return g.WithAllele(g.allele + (other.allele-g.allele)/2)
}

func (g DoubleGene) Compare(other DoubleGene) int {
	return cmp.Compare(g.allele, other.allele)
}

func (g DoubleGene) String() string {
	return strconv.FormatFloat(g.allele, 'g', -1, 64)
}

// DoubleChromosome is a variable-length chromosome of DoubleGenes sharing
// one range. The alleles are kept as raw float64 values.
type DoubleChromosome struct {
	genes    seq.Seq[DoubleGene]
	min, max float64
	lengths  IntRange
	valid    func() bool
}

// DoubleChromosomeOf returns a fixed-length chromosome holding genes.
func DoubleChromosomeOf(genes ...DoubleGene) (*DoubleChromosome, error) {
	return NewDoubleChromosome(seq.Of(genes...), Length(len(genes)))
}

// NewDoubleChromosome returns a chromosome holding genes whose count must
// be within lengths and whose bounds must all agree.
func NewDoubleChromosome(genes seq.Seq[DoubleGene], lengths IntRange) (*DoubleChromosome, error) {
	if err := checkLength(genes.Len(), lengths); err != nil {
		return nil, err
	}
	if distinctCount(genes, func(g DoubleGene) [2]float64 { return [2]float64{g.min, g.max} }) != 1 {
		return nil, ErrBoundsMismatch
	}
	first := genes.Get(0)
	return newDoubleChromosome(packDoubles(genes, first.min, first.max), first.min, first.max, lengths), nil
}

// RandomDoubleChromosome returns a chromosome with a uniform length drawn
// from lengths and uniform alleles in [min, max).
func RandomDoubleChromosome(rng *rand.Rand, min, max float64, lengths IntRange) (*DoubleChromosome, error) {
	if !(min < max) || math.IsInf(max-min, 0) {
		return nil, fmt.Errorf("%w: [%v, %v)", ErrInvalidBounds, min, max)
	}
	if err := lengths.checkLengths(); err != nil {
		return nil, err
	}
	return randomDoubles(rng, min, max, lengths), nil
}

func randomDoubles(rng *rand.Rand, min, max float64, lengths IntRange) *DoubleChromosome {
	n := lengths.random(rng)
	st := &doubleStore{values: make([]float64, n), min: min, max: max}
	for i := range st.values {
		st.values[i] = rnd.Float64(rng, min, max)
	}
	return newDoubleChromosome(seq.FromStore[DoubleGene](st).Seal(), min, max, lengths)
}

func newDoubleChromosome(genes seq.Seq[DoubleGene], min, max float64, lengths IntRange) *DoubleChromosome {
	c := &DoubleChromosome{genes: genes, min: min, max: max, lengths: lengths}
	c.valid = sync.OnceValue(func() bool {
		return lengths.Contains(genes.Len()) && allValid(genes)
	})
	return c
}

func (c *DoubleChromosome) Len() int {
	return c.genes.Len()
}

func (c *DoubleChromosome) Gene(i int) DoubleGene {
	return c.genes.Get(i)
}

func (c *DoubleChromosome) Genes() seq.Seq[DoubleGene] {
	return c.genes
}

func (c *DoubleChromosome) IsValid() bool {
	return c.valid()
}

func (c *DoubleChromosome) Bounds() (float64, float64) {
	return c.min, c.max
}

func (c *DoubleChromosome) LengthRange() IntRange {
	return c.lengths
}

func (c *DoubleChromosome) NewRandom(rng *rand.Rand) Chromosome[DoubleGene] {
	return randomDoubles(rng, c.min, c.max, c.lengths)
}

func (c *DoubleChromosome) NewInstance(genes seq.Seq[DoubleGene]) Chromosome[DoubleGene] {
	return newDoubleChromosome(genes, c.min, c.max, c.lengths)
}

// Floats returns the alleles as a new slice.
func (c *DoubleChromosome) Floats() []float64 {
	out := make([]float64, c.Len())
	for i, g := range c.genes.All() {
		out[i] = g.allele
	}
	return out
}

// doubleStore keeps DoubleGene alleles unboxed. Genes carrying different
// bounds switch the store to holding full genes.
type doubleStore struct {
	values   []float64
	min, max float64
	mixed    []DoubleGene
}

func packDoubles(genes seq.Seq[DoubleGene], min, max float64) seq.Seq[DoubleGene] {
	st := &doubleStore{values: make([]float64, genes.Len()), min: min, max: max}
	for i, g := range genes.All() {
		st.Set(i, g)
	}
	return seq.FromStore[DoubleGene](st).Seal()
}

func (s *doubleStore) Len() int {
	if s.mixed != nil {
		return len(s.mixed)
	}
	return len(s.values)
}

func (s *doubleStore) Get(i int) DoubleGene {
	if s.mixed != nil {
		return s.mixed[i]
	}
	return DoubleGene{allele: s.values[i], min: s.min, max: s.max}
}

func (s *doubleStore) Set(i int, g DoubleGene) {
	if s.mixed == nil && g.min == s.min && g.max == s.max {
		s.values[i] = g.allele
		return
	}
	if s.mixed == nil {
		s.mixed = make([]DoubleGene, len(s.values))
		for j := range s.values {
			s.mixed[j] = DoubleGene{allele: s.values[j], min: s.min, max: s.max}
		}
		s.values = nil
	}
	s.mixed[i] = g
}

func (s *doubleStore) Make(n int) seq.Store[DoubleGene] {
	return &doubleStore{values: make([]float64, n), min: s.min, max: s.max}
}

func (s *doubleStore) Copy(from, until int) seq.Store[DoubleGene] {
	if s.mixed != nil {
		return &doubleStore{mixed: append([]DoubleGene(nil), s.mixed[from:until]...), min: s.min, max: s.max}
	}
	return &doubleStore{values: append([]float64(nil), s.values[from:until]...), min: s.min, max: s.max}
}
