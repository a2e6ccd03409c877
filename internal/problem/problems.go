package problem

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"

	"genom/internal/evo"
	"genom/internal/gene"
	"genom/internal/seq"
)

// Bounds of the sphere function domain.
const (
	sphereMin = -5.12
	sphereMax = 5.12
)

// WordChars is the alphabet of the word problem.
var WordChars = gene.NewCharSeq("abcdefghijklmnopqrstuvwxyz ")

const defaultTarget = "to be or not to be"

func init() {
	register(oneMax())
	register(sphere())
	register(ringTour())
	register(word())
}

// oneMax maximizes the number of one bits.
func oneMax() Problem {
	return &definition[gene.BitGene]{
		name:          "onemax",
		description:   "maximize the one bits of a bit chromosome",
		optimize:      gene.Maximum,
		defaultLength: 64,
		genotype: func(rng *rand.Rand, cfg RunConfig) (gene.Genotype[gene.BitGene], error) {
			c, err := gene.NewBitChromosome(rng, cfg.Length, 0.5)
			if err != nil {
				return gene.Genotype[gene.BitGene]{}, err
			}
			return gene.NewGenotype[gene.BitGene](c)
		},
		fitness: fixed(func(_ context.Context, gt gene.Genotype[gene.BitGene]) (float64, error) {
			ones := 0
			for c := range gt.Chromosomes().Values() {
				ones += seq.CountBits(c.Genes())
			}
			return float64(ones), nil
		}),
		alterer: func(cfg RunConfig) (evo.Alterer[gene.BitGene], error) {
			cross, err := evo.NewSinglePointCrossover[gene.BitGene](cfg.CrossoverProbability)
			if err != nil {
				return nil, err
			}
			flip, err := evo.NewBitFlipMutator(cfg.MutationProbability)
			if err != nil {
				return nil, err
			}
			return evo.Join[gene.BitGene](cross, flip), nil
		},
		render: renderFirst[gene.BitGene],
	}
}

// sphere minimizes the sum of squares over [-5.12, 5.12)^n.
func sphere() Problem {
	return &definition[gene.DoubleGene]{
		name:          "sphere",
		description:   "minimize the sum of squares of a double chromosome",
		optimize:      gene.Minimum,
		defaultLength: 8,
		genotype: func(rng *rand.Rand, cfg RunConfig) (gene.Genotype[gene.DoubleGene], error) {
			c, err := gene.RandomDoubleChromosome(rng, sphereMin, sphereMax, gene.Length(cfg.Length))
			if err != nil {
				return gene.Genotype[gene.DoubleGene]{}, err
			}
			return gene.NewGenotype[gene.DoubleGene](c)
		},
		fitness: fixed(func(_ context.Context, gt gene.Genotype[gene.DoubleGene]) (float64, error) {
			x := alleles(gt.Chromosome(0), gene.DoubleGene.Allele)
			return floats.Dot(x, x), nil
		}),
		alterer: func(cfg RunConfig) (evo.Alterer[gene.DoubleGene], error) {
			cross, err := evo.NewLineCrossover[gene.DoubleGene](cfg.CrossoverProbability, 0.25)
			if err != nil {
				return nil, err
			}
			gaussian, err := evo.NewGaussianMutator[gene.DoubleGene](cfg.MutationProbability)
			if err != nil {
				return nil, err
			}
			return evo.Join[gene.DoubleGene](cross, gaussian), nil
		},
		render: func(gt gene.Genotype[gene.DoubleGene]) string {
			x := alleles(gt.Chromosome(0), gene.DoubleGene.Allele)
			parts := make([]string, len(x))
			for i, v := range x {
				parts[i] = strconv.FormatFloat(v, 'f', 4, 64)
			}
			return "[" + strings.Join(parts, " ") + "]"
		},
	}
}

// ringTour minimizes the length of a closed tour through cities placed
// evenly on the unit circle. The optimum visits them in circle order.
func ringTour() Problem {
	return &definition[gene.EnumGene[int]]{
		name:          "ring-tour",
		description:   "minimize a closed tour through cities on the unit circle",
		optimize:      gene.Minimum,
		defaultLength: 20,
		genotype: func(rng *rand.Rand, cfg RunConfig) (gene.Genotype[gene.EnumGene[int]], error) {
			if cfg.Length < 3 {
				return gene.Genotype[gene.EnumGene[int]]{}, fmt.Errorf("a tour needs at least 3 cities, got %d", cfg.Length)
			}
			c, err := gene.PermutationOfInts(rng, cfg.Length)
			if err != nil {
				return gene.Genotype[gene.EnumGene[int]]{}, err
			}
			return gene.NewGenotype[gene.EnumGene[int]](c)
		},
		fitness: fixed(func(_ context.Context, gt gene.Genotype[gene.EnumGene[int]]) (float64, error) {
			c := gt.Chromosome(0)
			tour := alleles(c, gene.EnumGene[int].Allele)
			cities := c.Gene(0).ValidAlleles().Len()
			return TourLength(tour, cities), nil
		}),
		alterer: func(cfg RunConfig) (evo.Alterer[gene.EnumGene[int]], error) {
			cross, err := evo.NewPartiallyMatchedCrossover[int](cfg.CrossoverProbability)
			if err != nil {
				return nil, err
			}
			swap, err := evo.NewSwapMutator[gene.EnumGene[int]](cfg.MutationProbability)
			if err != nil {
				return nil, err
			}
			return evo.Join[gene.EnumGene[int]](cross, swap), nil
		},
		render: renderFirst[gene.EnumGene[int]],
	}
}

// TourLength returns the length of the closed tour visiting the given
// cities out of n placed evenly on the unit circle.
func TourLength(tour []int, n int) float64 {
	total := 0.0
	for i := range tour {
		a := 2 * math.Pi * float64(tour[i]) / float64(n)
		b := 2 * math.Pi * float64(tour[(i+1)%len(tour)]) / float64(n)
		total += math.Hypot(math.Cos(a)-math.Cos(b), math.Sin(a)-math.Sin(b))
	}
	return total
}

// word maximizes the positions matching a target phrase.
func word() Problem {
	return &definition[gene.CharacterGene]{
		name:        "word",
		description: "match a target phrase over lower case letters and space",
		optimize:    gene.Maximum,
		genotype: func(rng *rand.Rand, cfg RunConfig) (gene.Genotype[gene.CharacterGene], error) {
			target := targetOf(cfg)
			for _, r := range target {
				if !WordChars.Contains(r) {
					return gene.Genotype[gene.CharacterGene]{}, fmt.Errorf("target rune %q is not in %q", r, WordChars.String())
				}
			}
			c, err := gene.RandomCharacterChromosome(rng, len([]rune(target)), WordChars)
			if err != nil {
				return gene.Genotype[gene.CharacterGene]{}, err
			}
			return gene.NewGenotype[gene.CharacterGene](c)
		},
		fitness: func(cfg RunConfig) evo.FitnessFunc[gene.CharacterGene] {
			target := []rune(targetOf(cfg))
			return func(_ context.Context, gt gene.Genotype[gene.CharacterGene]) (float64, error) {
				return float64(matches(gt.Chromosome(0), target)), nil
			}
		},
		alterer: func(cfg RunConfig) (evo.Alterer[gene.CharacterGene], error) {
			cross, err := evo.NewUniformCrossover[gene.CharacterGene](cfg.CrossoverProbability, 0.5)
			if err != nil {
				return nil, err
			}
			mutator, err := evo.NewMutator[gene.CharacterGene](cfg.MutationProbability)
			if err != nil {
				return nil, err
			}
			return evo.Join[gene.CharacterGene](cross, mutator), nil
		},
		render: renderFirst[gene.CharacterGene],
	}
}

// fixed returns a fitness function independent of the run config.
func fixed[G any](f evo.FitnessFunc[G]) func(RunConfig) evo.FitnessFunc[G] {
	return func(RunConfig) evo.FitnessFunc[G] { return f }
}

func targetOf(cfg RunConfig) string {
	if cfg.Target == "" {
		return defaultTarget
	}
	return cfg.Target
}

// matches counts the positions where the chromosome spells target.
func matches(c gene.Chromosome[gene.CharacterGene], target []rune) int {
	n := 0
	for i := 0; i < min(c.Len(), len(target)); i++ {
		if c.Gene(i).Allele() == target[i] {
			n++
		}
	}
	return n
}

func alleles[G, A any](c gene.Chromosome[G], allele func(G) A) []A {
	return seq.Map(c.Genes(), allele).Slice()
}

func renderFirst[G any](gt gene.Genotype[G]) string {
	if gt.Len() == 1 {
		return fmt.Sprint(gt.Chromosome(0))
	}
	return gt.String()
}
