package rnd

import (
	"math"
	"math/rand"
	"testing"
)

func TestIntStaysInClosedInterval(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	seen := map[int32]bool{}
	for i := 0; i < 500; i++ {
		v := Int[int32](rng, -2, 2)
		if v < -2 || v > 2 {
			t.Fatalf("value out of range: %d", v)
		}
		seen[v] = true
	}
	if len(seen) != 5 {
		t.Fatalf("expected all 5 values, saw %v", seen)
	}

	for i := 0; i < 100; i++ {
		v := Int[int64](rng, math.MinInt64, math.MaxInt64)
		_ = v
		w := Int[int64](rng, math.MinInt64+1, math.MaxInt64-1)
		if w == math.MinInt64 || w == math.MaxInt64 {
			t.Fatalf("value out of range: %d", w)
		}
	}
}

func TestFloat64HalfOpen(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 1000; i++ {
		v := Float64(rng, -1, 1)
		if v < -1 || v >= 1 {
			t.Fatalf("value out of range: %f", v)
		}
	}
	if Float64(rng, 3, 3) != 3 {
		t.Fatal("expected degenerate interval to return min")
	}
}

func TestIndexesEdgeProbabilities(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	if got := Indexes(rng, 10, 0); len(got) != 0 {
		t.Fatalf("expected no indexes, got %v", got)
	}
	if got := Indexes(rng, 10, 1); len(got) != 10 {
		t.Fatalf("expected all indexes, got %v", got)
	}

	total := 0
	for i := 0; i < 200; i++ {
		got := Indexes(rng, 100, 0.25)
		for j := 1; j < len(got); j++ {
			if got[j] <= got[j-1] {
				t.Fatalf("indexes not ascending: %v", got)
			}
		}
		total += len(got)
	}
	mean := float64(total) / 200
	if mean < 20 || mean > 30 {
		t.Fatalf("unexpected mean index count: %f", mean)
	}
}

func TestSubsetDistinctSorted(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	for trial := 0; trial < 100; trial++ {
		n := 1 + rng.Intn(20)
		k := rng.Intn(n + 1)
		got := Subset(rng, n, k)
		if len(got) != k {
			t.Fatalf("expected %d values, got %v", k, got)
		}
		for i, v := range got {
			if v < 0 || v >= n {
				t.Fatalf("value out of range: %v", got)
			}
			if i > 0 && got[i-1] >= v {
				t.Fatalf("subset not strictly ascending: %v", got)
			}
		}
	}
}

func TestOthersExcludesIndex(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	for trial := 0; trial < 100; trial++ {
		got := Others(rng, 6, trial%6, 3)
		seen := map[int]bool{}
		for _, v := range got {
			if v == trial%6 || v < 0 || v >= 6 || seen[v] {
				t.Fatalf("invalid partners %v for %d", got, trial%6)
			}
			seen[v] = true
		}
	}
}
