package evo

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/floats"

	"genom/internal/gene"
	"genom/internal/seq"
)

// Selector picks count phenotypes from a population. Sampling is with
// replacement. The optimize direction is the only fitness ordering a
// selector uses.
type Selector[G any] interface {
	Name() string
	Select(rng *rand.Rand, population gene.Population[G], count int, opt gene.Optimize) (gene.Population[G], error)
}

// checkSelect validates the common Select arguments. It reports false when
// the result is empty.
func checkSelect[G any](rng *rand.Rand, population gene.Population[G], count int) (bool, error) {
	if count < 0 {
		return false, fmt.Errorf("%w: %d", ErrNegativeCount, count)
	}
	if population.IsEmpty() || count == 0 {
		return false, nil
	}
	if rng == nil {
		return false, ErrNoRandomSource
	}
	return true, nil
}

func pick[G any](population gene.Population[G], count int, index func(i int) int) gene.Population[G] {
	return seq.Generate(count, func(i int) gene.Phenotype[G] {
		return population.Get(index(i))
	})
}

// sortedDescending returns the population ordered best first.
func sortedDescending[G any](population gene.Population[G], opt gene.Optimize) gene.Population[G] {
	sorted := population.Copy()
	sorted.Sort(gene.Descending[G](opt))
	return sorted.Seal()
}

// TournamentSelector returns the best of sampleSize uniformly drawn
// phenotypes for every pick.
type TournamentSelector[G any] struct {
	sampleSize int
}

// NewTournamentSelector returns a tournament selector. The default sample
// size is 2.
func NewTournamentSelector[G any](sampleSize int) (*TournamentSelector[G], error) {
	if sampleSize < 1 {
		return nil, fmt.Errorf("%w: tournament sample size %d", ErrNonPositive, sampleSize)
	}
	return &TournamentSelector[G]{sampleSize: sampleSize}, nil
}

func (s *TournamentSelector[G]) Name() string {
	return fmt.Sprintf("tournament:%d", s.sampleSize)
}

func (s *TournamentSelector[G]) SampleSize() int {
	return s.sampleSize
}

func (s *TournamentSelector[G]) Select(rng *rand.Rand, population gene.Population[G], count int, opt gene.Optimize) (gene.Population[G], error) {
	if ok, err := checkSelect(rng, population, count); !ok {
		return gene.Population[G]{}, err
	}
	n := population.Len()
	return pick(population, count, func(int) int {
		best := rng.Intn(n)
		for j := 1; j < s.sampleSize; j++ {
			candidate := rng.Intn(n)
			if gene.ComparePhenotypes(opt, population.Get(candidate), population.Get(best)) > 0 {
				best = candidate
			}
		}
		return best
	}), nil
}

// TruncationSelector takes the best phenotypes in order. When count
// exceeds the population size or the maximal rank, the ranking is reused
// from the top.
type TruncationSelector[G any] struct {
	maxRank int
}

// NewTruncationSelector returns a truncation selector reusing at most the
// maxRank best phenotypes.
func NewTruncationSelector[G any](maxRank int) (*TruncationSelector[G], error) {
	if maxRank < 1 {
		return nil, fmt.Errorf("%w: truncation rank %d", ErrNonPositive, maxRank)
	}
	return &TruncationSelector[G]{maxRank: maxRank}, nil
}

// UnboundedTruncationSelector returns a truncation selector without a rank
// limit.
func UnboundedTruncationSelector[G any]() *TruncationSelector[G] {
	return &TruncationSelector[G]{maxRank: math.MaxInt}
}

func (s *TruncationSelector[G]) Name() string {
	if s.maxRank == math.MaxInt {
		return "truncation"
	}
	return fmt.Sprintf("truncation:%d", s.maxRank)
}

func (s *TruncationSelector[G]) Select(rng *rand.Rand, population gene.Population[G], count int, opt gene.Optimize) (gene.Population[G], error) {
	if count < 0 {
		return gene.Population[G]{}, fmt.Errorf("%w: %d", ErrNegativeCount, count)
	}
	if population.IsEmpty() || count == 0 {
		return gene.Population[G]{}, nil
	}
	sorted := sortedDescending(population, opt)
	limit := min(s.maxRank, sorted.Len())
	return pick(sorted, count, func(i int) int { return i % limit }), nil
}

// EliteSelector carries the best phenotypes over unchanged and fills the
// remaining places with a second selector.
type EliteSelector[G any] struct {
	eliteCount int
	elite      *TruncationSelector[G]
	nonElite   Selector[G]
}

func NewEliteSelector[G any](eliteCount int, nonElite Selector[G]) (*EliteSelector[G], error) {
	if eliteCount < 1 {
		return nil, fmt.Errorf("%w: elite count %d", ErrNonPositive, eliteCount)
	}
	if nonElite == nil {
		return nil, ErrNoSelector
	}
	return &EliteSelector[G]{eliteCount: eliteCount, elite: UnboundedTruncationSelector[G](), nonElite: nonElite}, nil
}

// DefaultEliteSelector keeps one elite and fills with a size 3 tournament.
func DefaultEliteSelector[G any]() *EliteSelector[G] {
	return &EliteSelector[G]{eliteCount: 1, elite: UnboundedTruncationSelector[G](), nonElite: &TournamentSelector[G]{sampleSize: 3}}
}

func (s *EliteSelector[G]) Name() string {
	return fmt.Sprintf("elite:%d/%s", s.eliteCount, s.nonElite.Name())
}

func (s *EliteSelector[G]) Select(rng *rand.Rand, population gene.Population[G], count int, opt gene.Optimize) (gene.Population[G], error) {
	if count < 0 {
		return gene.Population[G]{}, fmt.Errorf("%w: %d", ErrNegativeCount, count)
	}
	if population.IsEmpty() || count == 0 {
		return gene.Population[G]{}, nil
	}
	elites, err := s.elite.Select(rng, population, min(count, s.eliteCount), opt)
	if err != nil {
		return gene.Population[G]{}, err
	}
	if elites.Len() == count {
		return elites, nil
	}
	rest, err := s.nonElite.Select(rng, population, count-elites.Len(), opt)
	if err != nil {
		return gene.Population[G]{}, err
	}
	return elites.AppendSeq(rest), nil
}

// MonteCarloSelector picks uniformly at random, ignoring fitness.
type MonteCarloSelector[G any] struct{}

func (MonteCarloSelector[G]) Name() string {
	return "monte-carlo"
}

func (MonteCarloSelector[G]) Select(rng *rand.Rand, population gene.Population[G], count int, _ gene.Optimize) (gene.Population[G], error) {
	if ok, err := checkSelect(rng, population, count); !ok {
		return gene.Population[G]{}, err
	}
	n := population.Len()
	return pick(population, count, func(int) int { return rng.Intn(n) }), nil
}

// probabilities computes one selection probability per phenotype. The
// result sums to 1.
type probabilities[G any] func(population gene.Population[G], opt gene.Optimize) []float64

// ProbabilitySelector samples from a probability vector, either with
// independent draws or with stochastic universal sampling.
type ProbabilitySelector[G any] struct {
	name      string
	universal bool
	probs     probabilities[G]
}

func (s *ProbabilitySelector[G]) Name() string {
	return s.name
}

// Probabilities returns the selection probability of every phenotype.
func (s *ProbabilitySelector[G]) Probabilities(population gene.Population[G], opt gene.Optimize) []float64 {
	if population.IsEmpty() {
		return nil
	}
	return s.probs(population, opt)
}

func (s *ProbabilitySelector[G]) Select(rng *rand.Rand, population gene.Population[G], count int, opt gene.Optimize) (gene.Population[G], error) {
	if ok, err := checkSelect(rng, population, count); !ok {
		return gene.Population[G]{}, err
	}
	cdf := s.probs(population, opt)
	floats.CumSum(cdf, cdf)
	if s.universal {
		step := 1 / float64(count)
		offset := rng.Float64() * step
		return pick(population, count, func(i int) int {
			return searchCDF(cdf, offset+float64(i)*step)
		}), nil
	}
	return pick(population, count, func(int) int {
		return searchCDF(cdf, rng.Float64())
	}), nil
}

// searchCDF returns the first index whose cumulative probability exceeds u.
func searchCDF(cdf []float64, u float64) int {
	i := sort.Search(len(cdf), func(i int) bool { return cdf[i] > u })
	return min(i, len(cdf)-1)
}

// normalize scales weights to sum to 1 in place. Weights summing to zero or
// to a non-finite value become uniform.
func normalize(weights []float64) []float64 {
	sum := floats.Sum(weights)
	if !(sum > 0) || math.IsInf(sum, 0) || floats.HasNaN(weights) {
		for i := range weights {
			weights[i] = 1 / float64(len(weights))
		}
		return weights
	}
	floats.Scale(1/sum, weights)
	return weights
}

// adjustedFitness returns direction adjusted fitness values, larger is
// better, and whether each phenotype is evaluated.
func adjustedFitness[G any](population gene.Population[G], opt gene.Optimize) ([]float64, []bool) {
	values := make([]float64, population.Len())
	evaluated := make([]bool, population.Len())
	for i, pt := range population.All() {
		f, ok := pt.Fitness()
		if !ok {
			continue
		}
		if opt == gene.Minimum {
			f = -f
		}
		values[i], evaluated[i] = f, true
	}
	return values, evaluated
}

// fitnessProportional weights phenotypes by their adjusted fitness shifted
// so the worst evaluated phenotype weighs 0. Unevaluated phenotypes weigh 0.
func fitnessProportional[G any](population gene.Population[G], opt gene.Optimize) []float64 {
	values, evaluated := adjustedFitness(population, opt)
	lowest := math.Inf(1)
	for i, v := range values {
		if evaluated[i] {
			lowest = math.Min(lowest, v)
		}
	}
	for i := range values {
		if evaluated[i] {
			values[i] -= lowest
		}
	}
	return normalize(values)
}

// NewRouletteWheelSelector samples independently with fitness proportional
// probabilities.
func NewRouletteWheelSelector[G any]() *ProbabilitySelector[G] {
	return &ProbabilitySelector[G]{name: "roulette", probs: fitnessProportional[G]}
}

// NewStochasticUniversalSelector samples fitness proportional probabilities
// with equally spaced pointers from one random offset.
func NewStochasticUniversalSelector[G any]() *ProbabilitySelector[G] {
	return &ProbabilitySelector[G]{name: "sus", universal: true, probs: fitnessProportional[G]}
}
