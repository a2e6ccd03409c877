package gene

import (
	"math"

	"golang.org/x/exp/constraints"
)

type integral interface {
	~int32 | ~int64
}

func inClosed[N constraints.Ordered](v, min, max N) bool {
	return v >= min && v <= max
}

// meanInt averages without overflowing N.
func meanInt[N integral](a, b N) N {
	return a/2 + b/2 + (a%2+b%2)/2
}

// roundInt rounds v to the nearest N, saturating at the limits of N. NaN
// maps to fallback.
func roundInt[N integral](v float64, lo, hi int64, fallback N) N {
	if math.IsNaN(v) {
		return fallback
	}
	r := math.Round(v)
	switch {
	case r <= float64(lo):
		return N(lo)
	case r >= float64(hi):
		return N(hi)
	}
	return N(int64(r))
}
