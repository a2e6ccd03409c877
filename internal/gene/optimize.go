package gene

import (
	"cmp"
	"fmt"
	"strings"
)

// Optimize is the optimization direction. It supplies the only fitness
// comparator used by selectors.
type Optimize int

const (
	Minimum Optimize = iota
	Maximum
)

func ParseOptimize(s string) (Optimize, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "min", "minimum", "minimize":
		return Minimum, nil
	case "max", "maximum", "maximize", "":
		return Maximum, nil
	default:
		return 0, fmt.Errorf("unknown optimize direction: %s", s)
	}
}

// Compare returns a positive value when a is better than b, a negative
// value when it is worse, and zero otherwise.
func (o Optimize) Compare(a, b float64) int {
	if o == Minimum {
		return cmp.Compare(b, a)
	}
	return cmp.Compare(a, b)
}

func (o Optimize) Best(a, b float64) float64 {
	if o.Compare(b, a) > 0 {
		return b
	}
	return a
}

func (o Optimize) Worst(a, b float64) float64 {
	if o.Compare(b, a) < 0 {
		return b
	}
	return a
}

func (o Optimize) String() string {
	if o == Minimum {
		return "minimum"
	}
	return "maximum"
}

// ComparePhenotypes orders by fitness in direction o. Unevaluated
// phenotypes are worse than every evaluated one.
func ComparePhenotypes[G any](o Optimize, a, b Phenotype[G]) int {
	switch {
	case !a.evaluated && !b.evaluated:
		return 0
	case !a.evaluated:
		return -1
	case !b.evaluated:
		return 1
	}
	return o.Compare(a.fitness, b.fitness)
}

// Descending returns a comparator sorting the best phenotype first.
func Descending[G any](o Optimize) func(a, b Phenotype[G]) int {
	return func(a, b Phenotype[G]) int {
		return ComparePhenotypes(o, b, a)
	}
}

// BestPhenotype returns the best phenotype of a non-empty population.
func BestPhenotype[G any](o Optimize, population Population[G]) (Phenotype[G], bool) {
	if population.IsEmpty() {
		return Phenotype[G]{}, false
	}
	best := population.Get(0)
	for p := range population.Values() {
		if ComparePhenotypes(o, p, best) > 0 {
			best = p
		}
	}
	return best, true
}
