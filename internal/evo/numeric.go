package evo

import (
	"math"
	"math/rand"

	"genom/internal/gene"
	"genom/internal/rnd"
)

// Sampler draws a replacement for the numeric allele value with bounds
// [min, max].
type Sampler interface {
	Sample(rng *rand.Rand, value, min, max float64) float64
}

// SamplerFunc adapts a function to Sampler.
type SamplerFunc func(rng *rand.Rand, value, min, max float64) float64

func (f SamplerFunc) Sample(rng *rand.Rand, value, min, max float64) float64 {
	return f(rng, value, min, max)
}

// UniformSampler ignores the current value and draws uniformly from the
// gene range.
var UniformSampler = SamplerFunc(func(rng *rand.Rand, _, min, max float64) float64 {
	return rnd.Float64(rng, min, max)
})

// GaussianSampler draws from a normal distribution centered on the current
// value with a standard deviation of a quarter of the gene range.
var GaussianSampler = SamplerFunc(func(rng *rand.Rand, value, min, max float64) float64 {
	return value + rng.NormFloat64()*(max-min)/4
})

// resample replaces the allele of g with a sampled value clamped to the
// gene range. A result on an exclusive upper bound moves just below it.
func resample[G gene.NumericGene[G]](rng *rand.Rand, g G, sampler Sampler) G {
	lo, hi := g.Bounds()
	v := sampler.Sample(rng, g.Float64(), lo, hi)
	if math.IsNaN(v) {
		return g
	}
	out := g.WithFloat64(math.Min(math.Max(v, lo), hi))
	if !out.IsValid() && g.IsValid() {
		out = g.WithFloat64(math.Nextafter(hi, lo))
		if !out.IsValid() {
			return g
		}
	}
	return out
}

// SamplerMutator replaces picked numeric alleles with values drawn from a
// Sampler.
type SamplerMutator[G gene.NumericGene[G]] struct {
	mutation[G]
	sampler Sampler
}

func NewSamplerMutator[G gene.NumericGene[G]](probability float64, sampler Sampler) (*SamplerMutator[G], error) {
	if sampler == nil {
		return nil, ErrParameter
	}
	return newSamplerMutator[G]("sampler", probability, sampler)
}

func newSamplerMutator[G gene.NumericGene[G]](name string, probability float64, sampler Sampler) (*SamplerMutator[G], error) {
	m, err := newMutation[G](name, probability, func(rng *rand.Rand, c gene.Chromosome[G], p float64) (gene.Chromosome[G], int) {
		return mapGenes(rng, c, p, func(rng *rand.Rand, g G) G { return resample(rng, g, sampler) })
	})
	if err != nil {
		return nil, err
	}
	return &SamplerMutator[G]{mutation: m, sampler: sampler}, nil
}

// NewGaussianMutator returns a SamplerMutator using GaussianSampler.
func NewGaussianMutator[G gene.NumericGene[G]](probability float64) (*SamplerMutator[G], error) {
	return newSamplerMutator[G]("gaussian", probability, GaussianSampler)
}
