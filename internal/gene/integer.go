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

// IntegerGene holds an int32 allele in the closed range [min, max].
type IntegerGene struct {
	allele, min, max int32
}

func NewIntegerGene(allele, min, max int32) IntegerGene {
	return IntegerGene{allele: allele, min: min, max: max}
}

func RandomIntegerGene(rng *rand.Rand, min, max int32) IntegerGene {
	return IntegerGene{allele: rnd.Int(rng, min, max), min: min, max: max}
}

func (g IntegerGene) Allele() int32 {
	return g.allele
}

func (g IntegerGene) Min() int32 {
	return g.min
}

func (g IntegerGene) Max() int32 {
	return g.max
}

func (g IntegerGene) Float64() float64 {
	return float64(g.allele)
}

func (g IntegerGene) Bounds() (float64, float64) {
	return float64(g.min), float64(g.max)
}

func (g IntegerGene) IsValid() bool {
	return inClosed(g.allele, g.min, g.max)
}

func (g IntegerGene) NewInstance(rng *rand.Rand) IntegerGene {
	return RandomIntegerGene(rng, g.min, g.max)
}

func (g IntegerGene) WithAllele(allele int32) IntegerGene {
	return IntegerGene{allele: allele, min: g.min, max: g.max}
}

// WithFloat64 rounds v to the nearest int32.
func (g IntegerGene) WithFloat64(v float64) IntegerGene {
	return g.WithAllele(roundInt(v, math.MinInt32, math.MaxInt32, g.min))
}

func (g IntegerGene) Mean(other IntegerGene) IntegerGene {
	return g.WithAllele(meanInt(g.allele, other.allele))
}

func (g IntegerGene) Compare(other IntegerGene) int {
	return cmp.Compare(g.allele, other.allele)
}

func (g IntegerGene) String() string {
	return strconv.FormatInt(int64(g.allele), 10)
}

// IntegerChromosome is a variable-length chromosome of IntegerGenes sharing one
// range.
type IntegerChromosome struct {
	genes    seq.Seq[IntegerGene]
	min, max int32
	lengths  IntRange
	valid    func() bool
}

func IntegerChromosomeOf(genes ...IntegerGene) (*IntegerChromosome, error) {
	return NewIntegerChromosome(seq.Of(genes...), Length(len(genes)))
}

func NewIntegerChromosome(genes seq.Seq[IntegerGene], lengths IntRange) (*IntegerChromosome, error) {
	if err := checkLength(genes.Len(), lengths); err != nil {
		return nil, err
	}
	if distinctCount(genes, func(g IntegerGene) [2]int32 { return [2]int32{g.min, g.max} }) != 1 {
		return nil, ErrBoundsMismatch
	}
	first := genes.Get(0)
	return newIntegerChromosome(genes, first.min, first.max, lengths), nil
}

func RandomIntegerChromosome(rng *rand.Rand, min, max int32, lengths IntRange) (*IntegerChromosome, error) {
	if max < min {
		return nil, fmt.Errorf("%w: [%d, %d]", ErrInvalidBounds, min, max)
	}
	if err := lengths.checkLengths(); err != nil {
		return nil, err
	}
	return randomIntegers(rng, min, max, lengths), nil
}

func randomIntegers(rng *rand.Rand, min, max int32, lengths IntRange) *IntegerChromosome {
	genes := seq.Generate(lengths.random(rng), func(int) IntegerGene {
		return RandomIntegerGene(rng, min, max)
	})
	return newIntegerChromosome(genes, min, max, lengths)
}

func newIntegerChromosome(genes seq.Seq[IntegerGene], min, max int32, lengths IntRange) *IntegerChromosome {
	c := &IntegerChromosome{genes: genes, min: min, max: max, lengths: lengths}
	c.valid = sync.OnceValue(func() bool {
		return lengths.Contains(genes.Len()) && allValid(genes)
	})
	return c
}

func (c *IntegerChromosome) Len() int {
	return c.genes.Len()
}

func (c *IntegerChromosome) Gene(i int) IntegerGene {
	return c.genes.Get(i)
}

func (c *IntegerChromosome) Genes() seq.Seq[IntegerGene] {
	return c.genes
}

func (c *IntegerChromosome) IsValid() bool {
	return c.valid()
}

func (c *IntegerChromosome) Bounds() (int32, int32) {
	return c.min, c.max
}

func (c *IntegerChromosome) LengthRange() IntRange {
	return c.lengths
}

func (c *IntegerChromosome) NewRandom(rng *rand.Rand) Chromosome[IntegerGene] {
	return randomIntegers(rng, c.min, c.max, c.lengths)
}

func (c *IntegerChromosome) NewInstance(genes seq.Seq[IntegerGene]) Chromosome[IntegerGene] {
	return newIntegerChromosome(genes, c.min, c.max, c.lengths)
}

// Ints returns the alleles as a new slice.
func (c *IntegerChromosome) Ints() []int32 {
	return seq.Map(c.genes, IntegerGene.Allele).Slice()
}
