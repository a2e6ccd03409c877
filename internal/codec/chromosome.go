// Package codec implements the binary form of chromosomes, genotypes,
// phenotypes and populations.
//
// Fields are written in a fixed order: lengths as unsigned varints, signed
// integers as zig-zag varints, doubles as 8 byte big-endian IEEE-754 values
// and strings or byte arrays with a length prefix. Every chromosome starts
// with a kind tag.
package codec

import (
	"errors"
	"fmt"

	"genom/internal/bit"
	"genom/internal/gene"
	"genom/internal/seq"
)

var (
	ErrCorrupt               = errors.New("corrupt encoding")
	ErrUnsupportedChromosome = errors.New("chromosome has no binary form")
	ErrKindMismatch          = errors.New("decoded chromosome does not match the requested gene type")
	ErrVersionMismatch       = errors.New("population format version mismatch")
)

const (
	kindBit         byte = 1
	kindDouble      byte = 2
	kindInteger     byte = 3
	kindLong        byte = 4
	kindCharacter   byte = 5
	kindPermutation byte = 6
)

const (
	alleleInt     byte = 1
	alleleInt64   byte = 2
	alleleFloat64 byte = 3
	alleleString  byte = 4
)

// MarshalChromosome encodes c. Only the chromosome kinds of package gene
// with fixed allele types are supported.
func MarshalChromosome[G any](c gene.Chromosome[G]) ([]byte, error) {
	w := &writer{}
	if err := encodeChromosome(w, c); err != nil {
		return nil, err
	}
	return w.buf, nil
}

// UnmarshalChromosome decodes a chromosome whose genes are of type G.
func UnmarshalChromosome[G any](data []byte) (gene.Chromosome[G], error) {
	r := newReader(data)
	c, err := decodeChromosome[G](r)
	if err != nil {
		return nil, err
	}
	if err := r.finish(); err != nil {
		return nil, err
	}
	return c, nil
}

func encodeChromosome(w *writer, c any) error {
	switch c := c.(type) {
	case *gene.BitChromosome:
		w.byte(kindBit)
		w.uvarint(uint64(c.Len()))
		w.float64(c.OneProbability())
		w.bytes(c.Bytes())
	case *gene.DoubleChromosome:
		min, max := c.Bounds()
		w.byte(kindDouble)
		w.float64(min)
		w.float64(max)
		encodeLengths(w, c.LengthRange())
		shared := c.Genes().ForAll(func(g gene.DoubleGene) bool { return g.Min() == min && g.Max() == max })
		w.bool(shared)
		w.uvarint(uint64(c.Len()))
		for g := range c.Genes().Values() {
			w.float64(g.Allele())
			if !shared {
				w.float64(g.Min())
				w.float64(g.Max())
			}
		}
	case *gene.IntegerChromosome:
		min, max := c.Bounds()
		w.byte(kindInteger)
		encodeIntegral(w, int64(min), int64(max), c.LengthRange(), c.Genes(), func(g gene.IntegerGene) [3]int64 {
			return [3]int64{int64(g.Allele()), int64(g.Min()), int64(g.Max())}
		})
	case *gene.LongChromosome:
		min, max := c.Bounds()
		w.byte(kindLong)
		encodeIntegral(w, min, max, c.LengthRange(), c.Genes(), func(g gene.LongGene) [3]int64 {
			return [3]int64{g.Allele(), g.Min(), g.Max()}
		})
	case *gene.CharacterChromosome:
		w.byte(kindCharacter)
		w.string(c.ValidChars().String())
		w.uvarint(uint64(c.Len()))
		for g := range c.Genes().Values() {
			w.varint(int64(g.Allele()))
		}
	case *gene.PermutationChromosome[int]:
		encodePermutation(w, c, alleleInt, func(w *writer, a int) { w.varint(int64(a)) })
	case *gene.PermutationChromosome[int64]:
		encodePermutation(w, c, alleleInt64, (*writer).varint)
	case *gene.PermutationChromosome[float64]:
		encodePermutation(w, c, alleleFloat64, (*writer).float64)
	case *gene.PermutationChromosome[string]:
		encodePermutation(w, c, alleleString, (*writer).string)
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedChromosome, c)
	}
	return nil
}

func encodeLengths(w *writer, lengths gene.IntRange) {
	w.varint(int64(lengths.Min))
	w.varint(int64(lengths.Max))
}

// encodeIntegral writes the integer and long chromosome layout. Genes
// carrying foreign bounds are written with their own bounds.
func encodeIntegral[G any](w *writer, min, max int64, lengths gene.IntRange, genes seq.Seq[G], fields func(G) [3]int64) {
	w.varint(min)
	w.varint(max)
	encodeLengths(w, lengths)
	shared := genes.ForAll(func(g G) bool {
		f := fields(g)
		return f[1] == min && f[2] == max
	})
	w.bool(shared)
	w.uvarint(uint64(genes.Len()))
	for g := range genes.Values() {
		f := fields(g)
		w.varint(f[0])
		if !shared {
			w.varint(f[1])
			w.varint(f[2])
		}
	}
}

func encodePermutation[A comparable](w *writer, c *gene.PermutationChromosome[A], kind byte, put func(*writer, A)) {
	w.byte(kindPermutation)
	w.byte(kind)
	alleles := c.ValidAlleles()
	w.uvarint(uint64(alleles.Len()))
	for a := range alleles.Values() {
		put(w, a)
	}
	w.uvarint(uint64(c.Len()))
	for _, i := range c.Indexes() {
		w.varint(int64(i))
	}
}

func decodeChromosome[G any](r *reader) (gene.Chromosome[G], error) {
	c := decodeAny(r)
	if r.err != nil {
		return nil, r.err
	}
	typed, ok := c.(gene.Chromosome[G])
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrKindMismatch, c)
	}
	return typed, nil
}

func decodeAny(r *reader) any {
	switch kind := r.byte(); kind {
	case kindBit:
		n := r.count(0)
		p := r.float64()
		data := r.bytes()
		if r.err == nil && len(data) != bit.Size(n) {
			r.fail("bit chromosome of length %d with %d bytes", n, len(data))
		}
		if r.err != nil {
			return nil
		}
		return gene.RestoreBitChromosome(seq.BitsOf[gene.BitGene](data, n), p)
	case kindDouble:
		min, max := r.float64(), r.float64()
		lengths := decodeLengths(r)
		shared := r.bool()
		size := 8
		if !shared {
			size = 24
		}
		genes := make([]gene.DoubleGene, r.count(size))
		for i := range genes {
			allele, gmin, gmax := r.float64(), min, max
			if !shared {
				gmin, gmax = r.float64(), r.float64()
			}
			genes[i] = gene.NewDoubleGene(allele, gmin, gmax)
		}
		if r.err != nil {
			return nil
		}
		return gene.RestoreDoubleChromosome(seq.Of(genes...), min, max, lengths)
	case kindInteger:
		min, max, lengths, values := decodeIntegral(r)
		if r.err != nil {
			return nil
		}
		genes := seq.Generate(len(values), func(i int) gene.IntegerGene {
			v := values[i]
			return gene.NewIntegerGene(int32(v[0]), int32(v[1]), int32(v[2]))
		})
		return gene.RestoreIntegerChromosome(genes, int32(min), int32(max), lengths)
	case kindLong:
		min, max, lengths, values := decodeIntegral(r)
		if r.err != nil {
			return nil
		}
		genes := seq.Generate(len(values), func(i int) gene.LongGene {
			v := values[i]
			return gene.NewLongGene(v[0], v[1], v[2])
		})
		return gene.RestoreLongChromosome(genes, min, max, lengths)
	case kindCharacter:
		chars := gene.NewCharSeq(r.string())
		runes := make([]rune, r.count(1))
		for i := range runes {
			runes[i] = rune(r.varint())
		}
		if r.err != nil {
			return nil
		}
		genes := seq.Generate(len(runes), func(i int) gene.CharacterGene {
			return gene.NewCharacterGene(runes[i], chars)
		})
		return gene.RestoreCharacterChromosome(genes, chars)
	case kindPermutation:
		switch alleleKind := r.byte(); alleleKind {
		case alleleInt:
			return decodePermutation(r, 1, func(r *reader) int { return int(r.varint()) })
		case alleleInt64:
			return decodePermutation(r, 1, (*reader).varint)
		case alleleFloat64:
			return decodePermutation(r, 8, (*reader).float64)
		case alleleString:
			return decodePermutation(r, 1, (*reader).string)
		default:
			r.fail("unknown permutation allele kind %d", alleleKind)
			return nil
		}
	default:
		r.fail("unknown chromosome kind %d", kind)
		return nil
	}
}

func decodeLengths(r *reader) gene.IntRange {
	return gene.IntRange{Min: int(r.varint()), Max: int(r.varint())}
}

func decodeIntegral(r *reader) (min, max int64, lengths gene.IntRange, values [][3]int64) {
	min, max = r.varint(), r.varint()
	lengths = decodeLengths(r)
	shared := r.bool()
	size := 1
	if !shared {
		size = 3
	}
	values = make([][3]int64, r.count(size))
	for i := range values {
		values[i] = [3]int64{r.varint(), min, max}
		if !shared {
			values[i][1], values[i][2] = r.varint(), r.varint()
		}
	}
	return min, max, lengths, values
}

func decodePermutation[A comparable](r *reader, size int, get func(*reader) A) any {
	alleles := make([]A, r.count(size))
	for i := range alleles {
		alleles[i] = get(r)
	}
	indexes := make([]int, r.count(1))
	for i := range indexes {
		indexes[i] = int(r.varint())
	}
	if r.err != nil {
		return nil
	}
	return gene.RestorePermutationChromosome(seq.Of(alleles...), indexes)
}
