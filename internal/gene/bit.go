package gene

import (
	"fmt"
	"math/big"
	"math/rand"

	"genom/internal/bit"
	"genom/internal/seq"
)

// BitGene holds a single bit. It is always valid.
type BitGene bool

func (g BitGene) Allele() bool {
	return bool(g)
}

func (g BitGene) IsValid() bool {
	return true
}

func (g BitGene) NewInstance(rng *rand.Rand) BitGene {
	return BitGene(rng.Intn(2) == 1)
}

func (g BitGene) WithAllele(allele bool) BitGene {
	return BitGene(allele)
}

func (g BitGene) String() string {
	if g {
		return "1"
	}
	return "0"
}

// BitChromosome is a bit string stored one bit per gene. OneProbability is
// the probability used to draw a one when the chromosome is randomized.
type BitChromosome struct {
	genes          seq.Seq[BitGene]
	oneProbability float64
}

// NewBitChromosome returns a random bit chromosome where each bit is one
// with probability oneProbability.
func NewBitChromosome(rng *rand.Rand, length int, oneProbability float64) (*BitChromosome, error) {
	if length < 1 {
		return nil, ErrEmptyChromosome
	}
	if err := checkProbability(oneProbability); err != nil {
		return nil, err
	}
	return randomBits(rng, length, oneProbability), nil
}

// BitChromosomeFromBytes builds a chromosome over the first length bits of
// data with the given nominal one probability.
func BitChromosomeFromBytes(data []byte, length int, oneProbability float64) (*BitChromosome, error) {
	if length < 1 {
		return nil, ErrEmptyChromosome
	}
	if length > len(data)*8 {
		return nil, fmt.Errorf("bit chromosome length %d exceeds %d bytes", length, len(data))
	}
	if err := checkProbability(oneProbability); err != nil {
		return nil, err
	}
	return &BitChromosome{genes: seq.BitsOf[BitGene](data, length), oneProbability: oneProbability}, nil
}

// ParseBitChromosome reads a string of '0' and '1', bit 0 first. The one
// probability is the fraction of ones.
func ParseBitChromosome(s string) (*BitChromosome, error) {
	if s == "" {
		return nil, ErrEmptyChromosome
	}
	data, err := bit.Parse(s)
	if err != nil {
		return nil, err
	}
	genes := seq.BitsOf[BitGene](data, len(s))
	return &BitChromosome{genes: genes, oneProbability: oneFraction(genes)}, nil
}

func randomBits(rng *rand.Rand, length int, p float64) *BitChromosome {
	genes := seq.NewBits[BitGene](length)
	for i := 0; i < length; i++ {
		if rng.Float64() < p {
			genes.Set(i, true)
		}
	}
	return &BitChromosome{genes: genes.Seal(), oneProbability: p}
}

func oneFraction(genes seq.Seq[BitGene]) float64 {
	if genes.Len() == 0 {
		return 0
	}
	return float64(seq.CountBits(genes)) / float64(genes.Len())
}

func (c *BitChromosome) Len() int {
	return c.genes.Len()
}

func (c *BitChromosome) Gene(i int) BitGene {
	return c.genes.Get(i)
}

func (c *BitChromosome) Genes() seq.Seq[BitGene] {
	return c.genes
}

func (c *BitChromosome) IsValid() bool {
	return c.genes.Len() > 0
}

func (c *BitChromosome) OneProbability() float64 {
	return c.oneProbability
}

func (c *BitChromosome) NewRandom(rng *rand.Rand) Chromosome[BitGene] {
	return randomBits(rng, c.Len(), c.oneProbability)
}

// NewInstance repacks genes into a bit store if needed and recomputes the
// one probability from the new bits.
func (c *BitChromosome) NewInstance(genes seq.Seq[BitGene]) Chromosome[BitGene] {
	if _, ok := seq.Bytes(genes); !ok {
		packed := seq.NewBits[BitGene](genes.Len())
		packed.Fill(genes.Get)
		genes = packed.Seal()
	}
	return &BitChromosome{genes: genes, oneProbability: oneFraction(genes)}
}

// BitCount returns the number of ones.
func (c *BitChromosome) BitCount() int {
	return seq.CountBits(c.genes)
}

// Invert returns the complement. The one probability becomes 1-p.
func (c *BitChromosome) Invert() *BitChromosome {
	data := c.Bytes()
	bit.Invert(data, c.Len())
	return &BitChromosome{genes: seq.BitsOf[BitGene](data, c.Len()), oneProbability: 1 - c.oneProbability}
}

// Bytes returns the bits packed into a new byte array, bit 0 first.
func (c *BitChromosome) Bytes() []byte {
	data, ok := seq.Bytes(c.genes)
	if !ok {
		data = bit.New(c.Len())
		for i, g := range c.genes.All() {
			bit.Set(data, i, bool(g))
		}
	}
	return data
}

// BigInt interprets the bits as an unsigned integer with bit i worth 2^i.
func (c *BitChromosome) BigInt() *big.Int {
	v := new(big.Int)
	for i, g := range c.genes.All() {
		if g {
			v.SetBit(v, i, 1)
		}
	}
	return v
}

// Equal reports whether both chromosomes hold the same bits.
func (c *BitChromosome) Equal(other *BitChromosome) bool {
	return seq.Equal(c.genes, other.genes)
}

func (c *BitChromosome) String() string {
	return bit.String(c.Bytes(), c.Len())
}
