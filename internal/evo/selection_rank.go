package evo

import (
	"fmt"
	"math"
	"slices"
	"strconv"

	"genom/internal/gene"
)

// ranks returns the population indexes ordered worst first. Unevaluated
// phenotypes rank below every evaluated one.
func ranks[G any](population gene.Population[G], opt gene.Optimize) []int {
	order := make([]int, population.Len())
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return gene.ComparePhenotypes(opt, population.Get(a), population.Get(b))
	})
	return order
}

// NewLinearRankSelector weights phenotypes linearly by rank. The worst
// phenotype gets the expected count nminus and the best 2-nminus.
func NewLinearRankSelector[G any](nminus float64) (*ProbabilitySelector[G], error) {
	if !(nminus >= 0 && nminus <= 1) {
		return nil, fmt.Errorf("%w: linear rank nminus %v not in [0, 1]", ErrParameter, nminus)
	}
	nplus := 2 - nminus
	return &ProbabilitySelector[G]{
		name: "linear-rank:" + strconv.FormatFloat(nminus, 'g', -1, 64),
		probs: func(population gene.Population[G], opt gene.Optimize) []float64 {
			n := population.Len()
			probs := make([]float64, n)
			if n == 1 {
				probs[0] = 1
				return probs
			}
			for rank, i := range ranks(population, opt) {
				probs[i] = (nminus + (nplus-nminus)*float64(rank)/float64(n-1)) / float64(n)
			}
			return normalize(probs)
		},
	}, nil
}

// NewExponentialRankSelector weights the phenotype of rank j, counted from
// the best, with c^j.
func NewExponentialRankSelector[G any](c float64) (*ProbabilitySelector[G], error) {
	if !(c >= 0 && c < 1) {
		return nil, fmt.Errorf("%w: exponential rank base %v not in [0, 1)", ErrParameter, c)
	}
	return &ProbabilitySelector[G]{
		name: "exponential-rank:" + strconv.FormatFloat(c, 'g', -1, 64),
		probs: func(population gene.Population[G], opt gene.Optimize) []float64 {
			n := population.Len()
			probs := make([]float64, n)
			for rank, i := range ranks(population, opt) {
				probs[i] = math.Pow(c, float64(n-1-rank))
			}
			return normalize(probs)
		},
	}, nil
}

// NewBoltzmannSelector weights phenotypes with exp(b*f) where f is the
// adjusted fitness scaled to [0, 1]. Unevaluated phenotypes weigh 0.
func NewBoltzmannSelector[G any](b float64) (*ProbabilitySelector[G], error) {
	if math.IsNaN(b) || math.IsInf(b, 0) {
		return nil, fmt.Errorf("%w: boltzmann factor %v", ErrParameter, b)
	}
	return &ProbabilitySelector[G]{
		name: "boltzmann:" + strconv.FormatFloat(b, 'g', -1, 64),
		probs: func(population gene.Population[G], opt gene.Optimize) []float64 {
			values, evaluated := adjustedFitness(population, opt)
			lo, hi := math.Inf(1), math.Inf(-1)
			for i, v := range values {
				if evaluated[i] {
					lo, hi = math.Min(lo, v), math.Max(hi, v)
				}
			}
			diff := hi - lo
			for i, v := range values {
				switch {
				case !evaluated[i]:
					values[i] = 0
				case diff > 0 && !math.IsInf(diff, 0):
					values[i] = math.Exp(b * (v - lo) / diff)
				default:
					values[i] = 1
				}
			}
			return normalize(values)
		},
	}, nil
}
