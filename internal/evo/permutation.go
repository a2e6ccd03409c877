package evo

import (
	"fmt"
	"math/rand"

	"genom/internal/gene"
	"genom/internal/rnd"
	"genom/internal/seq"
)

// UniformOrderBasedCrossover picks about half of the gene positions, takes
// the genes each parent holds there and writes them back into the same
// positions in the order they occur in the other parent. Offspring of two
// permutations over the same alleles are permutations again.
type UniformOrderBasedCrossover[A comparable] struct {
	recombination[gene.EnumGene[A]]
}

func NewUniformOrderBasedCrossover[A comparable](probability float64) (*UniformOrderBasedCrossover[A], error) {
	r, err := newRecombination[gene.EnumGene[A]]("uniform-order-based", probability, 2, crossover[gene.EnumGene[A]](orderBased[A]))
	if err != nil {
		return nil, err
	}
	return &UniformOrderBasedCrossover[A]{recombination: r}, nil
}

func orderBased[A comparable](rng *rand.Rand, that, other seq.MSeq[gene.EnumGene[A]]) int {
	requireEqualLength("uniform-order-based", that.Len(), other.Len())
	if that.Len() < 2 {
		return 0
	}
	positions := rnd.Indexes(rng, that.Len(), 0.5)
	if len(positions) == 0 {
		return 0
	}
	first := inOrderOf(that, other, positions)
	second := inOrderOf(other, that, positions)
	if len(first) != len(positions) || len(second) != len(positions) {
		return 0
	}

	changed := 0
	for k, pos := range positions {
		if that.Get(pos).AlleleIndex() != first[k] {
			changed++
		}
		if other.Get(pos).AlleleIndex() != second[k] {
			changed++
		}
		that.Set(pos, that.Get(pos).WithAlleleIndex(first[k]))
		other.Set(pos, other.Get(pos).WithAlleleIndex(second[k]))
	}
	return changed
}

// inOrderOf returns the allele indexes held by genes at positions, ordered
// as they occur in order.
func inOrderOf[A comparable](genes, order seq.MSeq[gene.EnumGene[A]], positions []int) []int {
	wanted := make(map[int]struct{}, len(positions))
	for _, pos := range positions {
		wanted[genes.Get(pos).AlleleIndex()] = struct{}{}
	}
	out := make([]int, 0, len(positions))
	for i := 0; i < order.Len(); i++ {
		idx := order.Get(i).AlleleIndex()
		if _, ok := wanted[idx]; ok {
			out = append(out, idx)
			delete(wanted, idx)
		}
	}
	return out
}

// PartiallyMatchedCrossover swaps a random segment between both parents and
// repairs duplicates outside the segment through the mapping the swap
// defines.
type PartiallyMatchedCrossover[A comparable] struct {
	recombination[gene.EnumGene[A]]
}

func NewPartiallyMatchedCrossover[A comparable](probability float64) (*PartiallyMatchedCrossover[A], error) {
	r, err := newRecombination[gene.EnumGene[A]]("partially-matched", probability, 2, crossover[gene.EnumGene[A]](partiallyMatched[A]))
	if err != nil {
		return nil, err
	}
	return &PartiallyMatchedCrossover[A]{recombination: r}, nil
}

func partiallyMatched[A comparable](rng *rand.Rand, that, other seq.MSeq[gene.EnumGene[A]]) int {
	n := that.Len()
	requireEqualLength("partially-matched", n, other.Len())
	if n < 2 {
		return 0
	}
	before := append(alleleIndexes(that), alleleIndexes(other)...)

	cut := rnd.Subset(rng, n+1, 2)
	that.SwapRange(cut[0], cut[1], other, cut[0])
	repairMatched(that, other, cut[0], cut[1])
	repairMatched(other, that, cut[0], cut[1])

	after := append(alleleIndexes(that), alleleIndexes(other)...)
	changed := 0
	for i := range before {
		if before[i] != after[i] {
			changed++
		}
	}
	return changed
}

// repairMatched replaces every gene of child outside [start, end) that also
// occurs inside the segment, following the segment mapping to donor.
func repairMatched[A comparable](child, donor seq.MSeq[gene.EnumGene[A]], start, end int) {
	segment := make(map[int]int, end-start)
	for i := start; i < end; i++ {
		segment[child.Get(i).AlleleIndex()] = i
	}
	for i := 0; i < child.Len(); i++ {
		if i >= start && i < end {
			continue
		}
		idx := child.Get(i).AlleleIndex()
		for steps := 0; steps <= end-start; steps++ {
			pos, ok := segment[idx]
			if !ok {
				break
			}
			idx = donor.Get(pos).AlleleIndex()
		}
		child.Set(i, child.Get(i).WithAlleleIndex(idx))
	}
}

// requireEqualLength panics when a permutation crossover is handed
// chromosomes of different lengths.
func requireEqualLength(name string, n, m int) {
	if n != m {
		panic(fmt.Sprintf("evo: %s crossover needs chromosomes of equal length, got %d and %d", name, n, m))
	}
}

func alleleIndexes[A comparable](genes seq.MSeq[gene.EnumGene[A]]) []int {
	out := make([]int, genes.Len())
	for i := range out {
		out[i] = genes.Get(i).AlleleIndex()
	}
	return out
}
