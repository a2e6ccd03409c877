// Package rnd holds the random sampling helpers shared by the gene model and
// the operators. Every function draws from the caller's *rand.Rand.
package rnd

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"golang.org/x/exp/constraints"
)

// Float64 returns a uniform value in [min, max).
func Float64(rng *rand.Rand, min, max float64) float64 {
	if !(min < max) {
		return min
	}
	v := min + rng.Float64()*(max-min)
	if v >= max {
		v = math.Nextafter(max, min)
	}
	return v
}

// Int returns a uniform value in the closed interval [min, max].
func Int[N constraints.Signed](rng *rand.Rand, min, max N) N {
	if max < min {
		panic(fmt.Sprintf("rnd: empty interval [%d, %d]", min, max))
	}
	span := uint64(int64(max)-int64(min)) + 1
	if span == 0 {
		return N(int64(rng.Uint64()))
	}
	if span <= math.MaxInt64 {
		return N(int64(min) + rng.Int63n(int64(span)))
	}
	// Rejection sampling for spans wider than int63.
	limit := math.MaxUint64 - math.MaxUint64%span
	for {
		v := rng.Uint64()
		if v < limit {
			return N(int64(uint64(int64(min)) + v%span))
		}
	}
}

// Indexes returns, in ascending order, every index in [0, n) that passed an
// independent Bernoulli trial with probability p.
func Indexes(rng *rand.Rand, n int, p float64) []int {
	switch {
	case n <= 0 || p <= 0:
		return nil
	case p >= 1:
		out := make([]int, n)
		for i := range out {
			out[i] = i
		}
		return out
	}

	out := make([]int, 0, int(float64(n)*p)+1)
	for i := 0; i < n; i++ {
		if rng.Float64() < p {
			out = append(out, i)
		}
	}
	return out
}

// Subset draws k distinct values from [0, n) without replacement and
// returns them sorted.
func Subset(rng *rand.Rand, n, k int) []int {
	if k < 0 || k > n {
		panic(fmt.Sprintf("rnd: subset size %d out of range for %d", k, n))
	}
	// Floyd's algorithm.
	seen := make(map[int]struct{}, k)
	out := make([]int, 0, k)
	for j := n - k; j < n; j++ {
		t := rng.Intn(j + 1)
		if _, ok := seen[t]; ok {
			t = j
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Ints(out)
	return out
}

// Others returns k distinct indexes from [0, n) that are all different
// from exclude.
func Others(rng *rand.Rand, n, exclude, k int) []int {
	if k > n-1 {
		panic(fmt.Sprintf("rnd: cannot draw %d partners from %d", k, n))
	}
	picked := Subset(rng, n-1, k)
	for i, v := range picked {
		if v >= exclude {
			picked[i] = v + 1
		}
	}
	rng.Shuffle(len(picked), func(i, j int) { picked[i], picked[j] = picked[j], picked[i] })
	return picked
}
