package evo

import (
	"fmt"
	"math/rand"

	"genom/internal/gene"
	"genom/internal/rnd"
	"genom/internal/seq"
)

// intermediateRetries bounds the redraws of IntermediateCrossover per gene.
const intermediateRetries = 1000

// MeanAlterer replaces the genes of the primary individual with the mean of
// its genes and the partner's genes. The partner is unchanged.
type MeanAlterer[G gene.MeanGene[G]] struct {
	recombination[G]
}

func NewMeanAlterer[G gene.MeanGene[G]](probability float64) (*MeanAlterer[G], error) {
	r, err := newRecombination[G]("mean", probability, 2, func(rng *rand.Rand, population seq.MSeq[gene.Phenotype[G]], individuals []int, generation int64) int {
		gt1 := population.Get(individuals[0]).Genotype()
		gt2 := population.Get(individuals[1]).Genotype()
		ci := rng.Intn(min(gt1.Len(), gt2.Len()))
		c1, c2 := gt1.Chromosome(ci), gt2.Chromosome(ci)

		n := min(c1.Len(), c2.Len())
		genes := c1.Genes().Copy()
		for i := 0; i < n; i++ {
			genes.Set(i, genes.Get(i).Mean(c2.Gene(i)))
		}
		population.Set(individuals[0], gene.NewPhenotype(replaceChromosome(gt1, ci, c1.NewInstance(genes.Seal())), generation))
		return n
	})
	if err != nil {
		return nil, err
	}
	return &MeanAlterer[G]{recombination: r}, nil
}

// LineCrossover places both offspring on the line through the parents:
// t = a*v + (1-a)*w and s = b*w + (1-b)*v, with a and b drawn once per
// event from [-p, 1+p]. A gene pair whose offspring would leave the gene
// range keeps its parent values.
type LineCrossover[G gene.NumericGene[G]] struct {
	recombination[G]
	p float64
}

func NewLineCrossover[G gene.NumericGene[G]](probability, p float64) (*LineCrossover[G], error) {
	if !(p >= 0) {
		return nil, fmt.Errorf("%w: line extension %v", ErrParameter, p)
	}
	r, err := newRecombination[G]("line", probability, 2, crossover[G](func(rng *rand.Rand, that, other seq.MSeq[G]) int {
		a := rnd.Float64(rng, -p, 1+p)
		b := rnd.Float64(rng, -p, 1+p)
		changed := 0
		for i := 0; i < min(that.Len(), other.Len()); i++ {
			v, w := that.Get(i), other.Get(i)
			if t, s, ok := lineOffspring(v, w, a, b); ok {
				that.Set(i, t)
				other.Set(i, s)
				changed += movedGenes(v, w, t, s)
			}
		}
		return changed
	}))
	if err != nil {
		return nil, err
	}
	return &LineCrossover[G]{recombination: r, p: p}, nil
}

// IntermediateCrossover works like LineCrossover but draws a and b per gene
// and redraws until both offspring are inside the gene range. A gene keeps
// its value when no valid pair is found.
type IntermediateCrossover[G gene.NumericGene[G]] struct {
	recombination[G]
	p float64
}

func NewIntermediateCrossover[G gene.NumericGene[G]](probability, p float64) (*IntermediateCrossover[G], error) {
	if !(p >= 0) {
		return nil, fmt.Errorf("%w: intermediate extension %v", ErrParameter, p)
	}
	r, err := newRecombination[G]("intermediate", probability, 2, crossover[G](func(rng *rand.Rand, that, other seq.MSeq[G]) int {
		changed := 0
		for i := 0; i < min(that.Len(), other.Len()); i++ {
			v, w := that.Get(i), other.Get(i)
			for try := 0; try < intermediateRetries; try++ {
				t, s, ok := lineOffspring(v, w, rnd.Float64(rng, -p, 1+p), rnd.Float64(rng, -p, 1+p))
				if ok {
					that.Set(i, t)
					other.Set(i, s)
					changed += movedGenes(v, w, t, s)
					break
				}
			}
		}
		return changed
	}))
	if err != nil {
		return nil, err
	}
	return &IntermediateCrossover[G]{recombination: r, p: p}, nil
}

func lineOffspring[G gene.NumericGene[G]](v, w G, a, b float64) (G, G, bool) {
	x, y := v.Float64(), w.Float64()
	t := v.WithFloat64(a*x + (1-a)*y)
	s := w.WithFloat64(b*y + (1-b)*x)
	return t, s, t.IsValid() && s.IsValid()
}

// movedGenes counts the offspring genes t and s whose value differs from
// their parents v and w.
func movedGenes[G gene.NumericGene[G]](v, w, t, s G) int {
	n := 0
	if t.Float64() != v.Float64() {
		n++
	}
	if s.Float64() != w.Float64() {
		n++
	}
	return n
}

// UniformCrossover swaps each gene position between both parents with the
// swap probability. Every swapped position counts two altered genes.
type UniformCrossover[G any] struct {
	recombination[G]
	swapProbability float64
}

func NewUniformCrossover[G any](probability, swapProbability float64) (*UniformCrossover[G], error) {
	if err := checkProbability(swapProbability); err != nil {
		return nil, err
	}
	r, err := newRecombination[G]("uniform", probability, 2, crossover[G](func(rng *rand.Rand, that, other seq.MSeq[G]) int {
		picked := rnd.Indexes(rng, min(that.Len(), other.Len()), swapProbability)
		for _, i := range picked {
			that.SwapRange(i, i+1, other, i)
		}
		return 2 * len(picked)
	}))
	if err != nil {
		return nil, err
	}
	return &UniformCrossover[G]{recombination: r, swapProbability: swapProbability}, nil
}

// SinglePointCrossover swaps the gene tails after one random cut point and
// counts the genes of both tails as altered.
type SinglePointCrossover[G any] struct {
	recombination[G]
}

func NewSinglePointCrossover[G any](probability float64) (*SinglePointCrossover[G], error) {
	r, err := newRecombination[G]("single-point", probability, 2, crossover[G](func(rng *rand.Rand, that, other seq.MSeq[G]) int {
		n := min(that.Len(), other.Len())
		if n < 2 {
			return 0
		}
		cut := 1 + rng.Intn(n-1)
		that.SwapRange(cut, n, other, cut)
		return 2 * (n - cut)
	}))
	if err != nil {
		return nil, err
	}
	return &SinglePointCrossover[G]{recombination: r}, nil
}

// MultiPointCrossover swaps every second segment between up to points
// random cut points.
type MultiPointCrossover[G any] struct {
	recombination[G]
	points int
}

func NewMultiPointCrossover[G any](probability float64, points int) (*MultiPointCrossover[G], error) {
	if points < 1 {
		return nil, fmt.Errorf("%w: crossover points %d", ErrNonPositive, points)
	}
	r, err := newRecombination[G]("multi-point", probability, 2, crossover[G](func(rng *rand.Rand, that, other seq.MSeq[G]) int {
		n := min(that.Len(), other.Len())
		if n < 2 {
			return 0
		}
		cuts := rnd.Subset(rng, n, min(points, n))
		swapped := 0
		for j := 0; j < len(cuts); j += 2 {
			end := n
			if j+1 < len(cuts) {
				end = cuts[j+1]
			}
			that.SwapRange(cuts[j], end, other, cuts[j])
			swapped += end - cuts[j]
		}
		return 2 * swapped
	}))
	if err != nil {
		return nil, err
	}
	return &MultiPointCrossover[G]{recombination: r, points: points}, nil
}
