package gene

import (
	"cmp"
	"math/rand"
	"slices"
	"strings"
	"sync"

	"genom/internal/seq"
)

// CharSeq is an immutable, sorted set of distinct runes.
type CharSeq struct {
	runes []rune
}

// DefaultChars holds the ASCII digits and letters.
var DefaultChars = NewCharSeq("0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz")

func NewCharSeq(chars string) *CharSeq {
	runes := []rune(chars)
	slices.Sort(runes)
	return &CharSeq{runes: slices.Compact(runes)}
}

func (c *CharSeq) Len() int {
	return len(c.runes)
}

func (c *CharSeq) At(i int) rune {
	return c.runes[i]
}

func (c *CharSeq) Contains(r rune) bool {
	_, ok := slices.BinarySearch(c.runes, r)
	return ok
}

func (c *CharSeq) String() string {
	return string(c.runes)
}

// CharacterGene holds a rune that is valid when it belongs to its CharSeq.
type CharacterGene struct {
	allele rune
	chars  *CharSeq
}

func NewCharacterGene(allele rune, chars *CharSeq) CharacterGene {
	return CharacterGene{allele: allele, chars: chars}
}

func RandomCharacterGene(rng *rand.Rand, chars *CharSeq) CharacterGene {
	return CharacterGene{allele: chars.At(rng.Intn(chars.Len())), chars: chars}
}

func (g CharacterGene) Allele() rune {
	return g.allele
}

func (g CharacterGene) ValidChars() *CharSeq {
	return g.chars
}

func (g CharacterGene) IsValid() bool {
	return g.chars != nil && g.chars.Contains(g.allele)
}

func (g CharacterGene) NewInstance(rng *rand.Rand) CharacterGene {
	return RandomCharacterGene(rng, g.chars)
}

func (g CharacterGene) WithAllele(allele rune) CharacterGene {
	return CharacterGene{allele: allele, chars: g.chars}
}

func (g CharacterGene) Compare(other CharacterGene) int {
	return cmp.Compare(g.allele, other.allele)
}

func (g CharacterGene) String() string {
	return string(g.allele)
}

// CharacterChromosome is a fixed-length string over a CharSeq.
type CharacterChromosome struct {
	genes seq.Seq[CharacterGene]
	chars *CharSeq
	valid func() bool
}

func RandomCharacterChromosome(rng *rand.Rand, length int, chars *CharSeq) (*CharacterChromosome, error) {
	if length < 1 {
		return nil, ErrEmptyChromosome
	}
	if chars == nil || chars.Len() == 0 {
		return nil, ErrNoAlleles
	}
	return randomCharacters(rng, length, chars), nil
}

// CharacterChromosomeOf returns a chromosome spelling s. Runes outside
// chars produce an invalid chromosome.
func CharacterChromosomeOf(s string, chars *CharSeq) (*CharacterChromosome, error) {
	if s == "" {
		return nil, ErrEmptyChromosome
	}
	if chars == nil || chars.Len() == 0 {
		return nil, ErrNoAlleles
	}
	runes := []rune(s)
	genes := seq.Generate(len(runes), func(i int) CharacterGene {
		return CharacterGene{allele: runes[i], chars: chars}
	})
	return newCharacterChromosome(genes, chars), nil
}

func randomCharacters(rng *rand.Rand, length int, chars *CharSeq) *CharacterChromosome {
	genes := seq.Generate(length, func(int) CharacterGene {
		return RandomCharacterGene(rng, chars)
	})
	return newCharacterChromosome(genes, chars)
}

func newCharacterChromosome(genes seq.Seq[CharacterGene], chars *CharSeq) *CharacterChromosome {
	c := &CharacterChromosome{genes: genes, chars: chars}
	c.valid = sync.OnceValue(func() bool { return allValid(genes) })
	return c
}

func (c *CharacterChromosome) Len() int {
	return c.genes.Len()
}

func (c *CharacterChromosome) Gene(i int) CharacterGene {
	return c.genes.Get(i)
}

func (c *CharacterChromosome) Genes() seq.Seq[CharacterGene] {
	return c.genes
}

func (c *CharacterChromosome) IsValid() bool {
	return c.valid()
}

func (c *CharacterChromosome) ValidChars() *CharSeq {
	return c.chars
}

func (c *CharacterChromosome) NewRandom(rng *rand.Rand) Chromosome[CharacterGene] {
	return randomCharacters(rng, c.Len(), c.chars)
}

func (c *CharacterChromosome) NewInstance(genes seq.Seq[CharacterGene]) Chromosome[CharacterGene] {
	return newCharacterChromosome(genes, c.chars)
}

func (c *CharacterChromosome) String() string {
	var b strings.Builder
	for g := range c.genes.Values() {
		b.WriteRune(g.allele)
	}
	return b.String()
}
