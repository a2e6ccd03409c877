package gene

import (
	"fmt"
	"strconv"

	"genom/internal/seq"
)

// Phenotype pairs a genotype with the generation it was created in and,
// once evaluated, its fitness. "With" methods return new values.
//
// A fitness postprocessor may adjust the fitness used for ranking; the
// evaluated value stays available through RawFitness.
type Phenotype[G any] struct {
	genotype   Genotype[G]
	generation int64
	fitness    float64
	raw        float64
	evaluated  bool
}

// Population is an ordered, possibly unsorted, sequence of phenotypes.
type Population[G any] = seq.Seq[Phenotype[G]]

func NewPhenotype[G any](genotype Genotype[G], generation int64) Phenotype[G] {
	return Phenotype[G]{genotype: genotype, generation: generation}
}

func (p Phenotype[G]) Genotype() Genotype[G] {
	return p.genotype
}

func (p Phenotype[G]) Generation() int64 {
	return p.generation
}

// Fitness returns the fitness and whether the phenotype was evaluated.
func (p Phenotype[G]) Fitness() (float64, bool) {
	return p.fitness, p.evaluated
}

// RawFitness returns the fitness assigned by evaluation, before any
// adjustment.
func (p Phenotype[G]) RawFitness() (float64, bool) {
	return p.raw, p.evaluated
}

func (p Phenotype[G]) IsEvaluated() bool {
	return p.evaluated
}

func (p Phenotype[G]) IsValid() bool {
	return p.genotype.IsValid()
}

// Age returns the number of generations since p was created.
func (p Phenotype[G]) Age(current int64) int64 {
	return current - p.generation
}

func (p Phenotype[G]) WithFitness(fitness float64) Phenotype[G] {
	p.fitness = fitness
	p.raw = fitness
	p.evaluated = true
	return p
}

// WithAdjustedFitness replaces the ranking fitness of an evaluated phenotype
// and keeps its raw fitness. Unevaluated phenotypes are returned unchanged.
func (p Phenotype[G]) WithAdjustedFitness(fitness float64) Phenotype[G] {
	if !p.evaluated {
		return p
	}
	p.fitness = fitness
	return p
}

// Unadjusted restores the raw fitness as the ranking fitness.
func (p Phenotype[G]) Unadjusted() Phenotype[G] {
	p.fitness = p.raw
	return p
}

func (p Phenotype[G]) WithGeneration(generation int64) Phenotype[G] {
	p.generation = generation
	return p
}

// Unevaluated drops the fitness.
func (p Phenotype[G]) Unevaluated() Phenotype[G] {
	p.fitness = 0
	p.raw = 0
	p.evaluated = false
	return p
}

func (p Phenotype[G]) String() string {
	fitness := "-"
	if p.evaluated {
		fitness = strconv.FormatFloat(p.fitness, 'g', -1, 64)
	}
	return fmt.Sprintf("%s -> %s", p.genotype, fitness)
}
