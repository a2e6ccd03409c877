package evo

import (
	"fmt"
	"math"

	"genom/internal/gene"
	"genom/internal/seq"
)

const sizeProportionalEfficiency = 0.05

// FitnessPostprocessor adjusts fitness values after evaluation and before
// selection. Adjustments start from the raw fitness of every phenotype, so
// processing an already processed population gives the same result.
type FitnessPostprocessor[G any] interface {
	Name() string
	Process(population gene.Population[G], opt gene.Optimize) gene.Population[G]
}

type NoopFitnessPostprocessor[G any] struct{}

func (NoopFitnessPostprocessor[G]) Name() string {
	return "none"
}

func (NoopFitnessPostprocessor[G]) Process(population gene.Population[G], _ gene.Optimize) gene.Population[G] {
	return population
}

// SizeProportionalPostprocessor penalizes genotypes with many genes. An
// evaluated fitness f of a genotype with n genes moves towards worse by
// |f|*(1-n^-0.05); for positive fitness under maximization this is
// f/n^0.05.
type SizeProportionalPostprocessor[G any] struct{}

func (SizeProportionalPostprocessor[G]) Name() string {
	return "size-proportional"
}

func (SizeProportionalPostprocessor[G]) Process(population gene.Population[G], opt gene.Optimize) gene.Population[G] {
	return seq.Map(population, func(pt gene.Phenotype[G]) gene.Phenotype[G] {
		f, ok := pt.RawFitness()
		if !ok {
			return pt
		}
		complexity := math.Max(float64(pt.Genotype().GeneCount()), 1)
		penalty := math.Abs(f) * (1 - 1/math.Pow(complexity, sizeProportionalEfficiency))
		if opt == gene.Maximum {
			return pt.WithAdjustedFitness(f - penalty)
		}
		return pt.WithAdjustedFitness(f + penalty)
	})
}

// ParsePostprocessor returns the postprocessor with the given name. The
// empty name selects "none".
func ParsePostprocessor[G any](name string) (FitnessPostprocessor[G], error) {
	switch name {
	case "", "none":
		return NoopFitnessPostprocessor[G]{}, nil
	case "size-proportional":
		return SizeProportionalPostprocessor[G]{}, nil
	default:
		return nil, fmt.Errorf("unknown fitness postprocessor: %s", name)
	}
}
