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

// LongGene holds an int64 allele in the closed range [min, max].
type LongGene struct {
	allele, min, max int64
}

func NewLongGene(allele, min, max int64) LongGene {
	return LongGene{allele: allele, min: min, max: max}
}

func RandomLongGene(rng *rand.Rand, min, max int64) LongGene {
	return LongGene{allele: rnd.Int(rng, min, max), min: min, max: max}
}

func (g LongGene) Allele() int64 {
	return g.allele
}

func (g LongGene) Min() int64 {
	return g.min
}

func (g LongGene) Max() int64 {
	return g.max
}

func (g LongGene) Float64() float64 {
	return float64(g.allele)
}

func (g LongGene) Bounds() (float64, float64) {
	return float64(g.min), float64(g.max)
}

func (g LongGene) IsValid() bool {
	return inClosed(g.allele, g.min, g.max)
}

func (g LongGene) NewInstance(rng *rand.Rand) LongGene {
	return RandomLongGene(rng, g.min, g.max)
}

func (g LongGene) WithAllele(allele int64) LongGene {
	return LongGene{allele: allele, min: g.min, max: g.max}
}

// WithFloat64 rounds v to the nearest int64.
func (g LongGene) WithFloat64(v float64) LongGene {
	return g.WithAllele(roundInt(v, math.MinInt64, math.MaxInt64, g.min))
}

func (g LongGene) Mean(other LongGene) LongGene {
	return g.WithAllele(meanInt(g.allele, other.allele))
}

func (g LongGene) Compare(other LongGene) int {
	return cmp.Compare(g.allele, other.allele)
}

func (g LongGene) String() string {
	return strconv.FormatInt(int64(g.allele), 10)
}

// LongChromosome is a variable-length chromosome of LongGenes sharing one
// range.
type LongChromosome struct {
	genes    seq.Seq[LongGene]
	min, max int64
	lengths  IntRange
	valid    func() bool
}

func LongChromosomeOf(genes ...LongGene) (*LongChromosome, error) {
	return NewLongChromosome(seq.Of(genes...), Length(len(genes)))
}

func NewLongChromosome(genes seq.Seq[LongGene], lengths IntRange) (*LongChromosome, error) {
	if err := checkLength(genes.Len(), lengths); err != nil {
		return nil, err
	}
	if distinctCount(genes, func(g LongGene) [2]int64 { return [2]int64{g.min, g.max} }) != 1 {
		return nil, ErrBoundsMismatch
	}
	first := genes.Get(0)
	return newLongChromosome(genes, first.min, first.max, lengths), nil
}

func RandomLongChromosome(rng *rand.Rand, min, max int64, lengths IntRange) (*LongChromosome, error) {
	if max < min {
		return nil, fmt.Errorf("%w: [%d, %d]", ErrInvalidBounds, min, max)
	}
	if err := lengths.checkLengths(); err != nil {
		return nil, err
	}
	return randomLongs(rng, min, max, lengths), nil
}

func randomLongs(rng *rand.Rand, min, max int64, lengths IntRange) *LongChromosome {
	genes := seq.Generate(lengths.random(rng), func(int) LongGene {
		return RandomLongGene(rng, min, max)
	})
	return newLongChromosome(genes, min, max, lengths)
}

func newLongChromosome(genes seq.Seq[LongGene], min, max int64, lengths IntRange) *LongChromosome {
	c := &LongChromosome{genes: genes, min: min, max: max, lengths: lengths}
	c.valid = sync.OnceValue(func() bool {
		return lengths.Contains(genes.Len()) && allValid(genes)
	})
	return c
}

func (c *LongChromosome) Len() int {
	return c.genes.Len()
}

func (c *LongChromosome) Gene(i int) LongGene {
	return c.genes.Get(i)
}

func (c *LongChromosome) Genes() seq.Seq[LongGene] {
	return c.genes
}

func (c *LongChromosome) IsValid() bool {
	return c.valid()
}

func (c *LongChromosome) Bounds() (int64, int64) {
	return c.min, c.max
}

func (c *LongChromosome) LengthRange() IntRange {
	return c.lengths
}

func (c *LongChromosome) NewRandom(rng *rand.Rand) Chromosome[LongGene] {
	return randomLongs(rng, c.min, c.max, c.lengths)
}

func (c *LongChromosome) NewInstance(genes seq.Seq[LongGene]) Chromosome[LongGene] {
	return newLongChromosome(genes, c.min, c.max, c.lengths)
}

// Int64s returns the alleles as a new slice.
func (c *LongChromosome) Int64s() []int64 {
	return seq.Map(c.genes, LongGene.Allele).Slice()
}
