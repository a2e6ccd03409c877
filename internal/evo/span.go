package evo

import (
	"math"
	"math/rand"

	"genom/internal/gene"
	"genom/internal/rnd"
	"genom/internal/seq"
)

// Thresholds of the span length distribution: a triangular distribution on
// [0, 1] has its median at 1-1/√2 when the mode is 0 and at 1/√2 when the
// mode is 1.
var (
	spanLow  = 1 - 1/math.Sqrt2
	spanHigh = 1 / math.Sqrt2
)

// spanShape returns the triangular distribution (min a, mode c, max b)
// whose median is p.
func spanShape(p float64) (a, c, b float64) {
	switch {
	case p < spanLow:
		return 0, 0, p / spanLow
	case p < 0.5:
		return 0, 1 - 2*(1-p)*(1-p), 1
	case p == 0.5:
		return 0, 0.5, 1
	case p <= spanHigh:
		return 0, 2 * p * p, 1
	default:
		return (p - spanHigh) / spanLow, 1, 1
	}
}

// triangular is the inverse CDF of the triangular distribution (a, c, b).
func triangular(u, a, c, b float64) float64 {
	if b <= a {
		return a
	}
	if u < (c-a)/(b-a) {
		return a + math.Sqrt(u*(b-a)*(c-a))
	}
	return b - math.Sqrt((1-u)*(b-a)*(b-c))
}

// spanLength draws a span length in [1, n] whose median fraction of n is p.
func spanLength(rng *rand.Rand, p float64, n int) int {
	a, c, b := spanShape(p)
	k := int(math.Round(triangular(rng.Float64(), a, c, b) * float64(n)))
	return min(max(k, 1), n)
}

// rotate moves the first r elements of genes to its end.
func rotate[G any](genes seq.MSeq[G], r int) {
	genes.SubSeq(0, r).Reverse()
	genes.SubSeq(r, genes.Len()).Reverse()
	genes.Reverse()
}

// ShuffleMutator shuffles the genes between two random cut points.
type ShuffleMutator[G any] struct {
	mutation[G]
}

func NewShuffleMutator[G any](probability float64) (*ShuffleMutator[G], error) {
	m, err := newMutation[G]("shuffle", probability, func(rng *rand.Rand, c gene.Chromosome[G], _ float64) (gene.Chromosome[G], int) {
		if c.Len() < 2 {
			return c, 0
		}
		cut := rnd.Subset(rng, c.Len()+1, 2)
		if cut[1]-cut[0] < 2 {
			return c, 0
		}
		return editGenes(c, func(genes seq.MSeq[G]) int {
			genes.SubSeq(cut[0], cut[1]).Shuffle(rng)
			return cut[1] - cut[0]
		})
	})
	if err != nil {
		return nil, err
	}
	return &ShuffleMutator[G]{mutation: m}, nil
}

// ShiftMutator draws three cut points a < b < c and moves the block [b, c)
// in front of the block [a, b).
type ShiftMutator[G any] struct {
	mutation[G]
}

func NewShiftMutator[G any](probability float64) (*ShiftMutator[G], error) {
	m, err := newMutation[G]("shift", probability, func(rng *rand.Rand, c gene.Chromosome[G], _ float64) (gene.Chromosome[G], int) {
		if c.Len() < 2 {
			return c, 0
		}
		cut := rnd.Subset(rng, c.Len()+1, 3)
		return editGenes(c, func(genes seq.MSeq[G]) int {
			rotate(genes.SubSeq(cut[0], cut[2]), cut[1]-cut[0])
			return cut[2] - cut[0]
		})
	})
	if err != nil {
		return nil, err
	}
	return &ShiftMutator[G]{mutation: m}, nil
}

// ArbitraryMutator draws three cut points a < b < c and exchanges the two
// equally long blocks starting at a and b.
type ArbitraryMutator[G any] struct {
	mutation[G]
}

func NewArbitraryMutator[G any](probability float64) (*ArbitraryMutator[G], error) {
	m, err := newMutation[G]("arbitrary", probability, func(rng *rand.Rand, c gene.Chromosome[G], _ float64) (gene.Chromosome[G], int) {
		if c.Len() < 2 {
			return c, 0
		}
		cut := rnd.Subset(rng, c.Len()+1, 3)
		k := min(cut[1]-cut[0], cut[2]-cut[1])
		return editGenes(c, func(genes seq.MSeq[G]) int {
			genes.SwapRange(cut[0], cut[0]+k, genes, cut[1])
			return 2 * k
		})
	})
	if err != nil {
		return nil, err
	}
	return &ArbitraryMutator[G]{mutation: m}, nil
}

// ShiftMutatorWithK rotates a span whose length is drawn from a
// triangular distribution with median p times the chromosome length,
// where p is the per-gene mutation probability.
type ShiftMutatorWithK[G any] struct {
	mutation[G]
}

func NewShiftMutatorWithK[G any](probability float64) (*ShiftMutatorWithK[G], error) {
	m, err := newMutation[G]("shift-k", probability, func(rng *rand.Rand, c gene.Chromosome[G], p float64) (gene.Chromosome[G], int) {
		n := c.Len()
		if n < 2 {
			return c, 0
		}
		k := max(spanLength(rng, p, n), 2)
		start := rng.Intn(n - k + 1)
		r := 1 + rng.Intn(k-1)
		return editGenes(c, func(genes seq.MSeq[G]) int {
			rotate(genes.SubSeq(start, start+k), r)
			return k
		})
	})
	if err != nil {
		return nil, err
	}
	return &ShiftMutatorWithK[G]{mutation: m}, nil
}

// ArbitraryMutatorWithK exchanges two disjoint blocks whose combined
// length is drawn like the span of ShiftMutatorWithK.
type ArbitraryMutatorWithK[G any] struct {
	mutation[G]
}

func NewArbitraryMutatorWithK[G any](probability float64) (*ArbitraryMutatorWithK[G], error) {
	m, err := newMutation[G]("arbitrary-k", probability, func(rng *rand.Rand, c gene.Chromosome[G], p float64) (gene.Chromosome[G], int) {
		n := c.Len()
		if n < 2 {
			return c, 0
		}
		h := max(spanLength(rng, p, n)/2, 1)
		a := rng.Intn(n - 2*h + 1)
		b := a + h + rng.Intn(n-2*h-a+1)
		return editGenes(c, func(genes seq.MSeq[G]) int {
			genes.SwapRange(a, a+h, genes, b)
			return 2 * h
		})
	})
	if err != nil {
		return nil, err
	}
	return &ArbitraryMutatorWithK[G]{mutation: m}, nil
}
