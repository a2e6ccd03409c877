package evo

import (
	"errors"
	"math/rand"
	"slices"
	"testing"

	"genom/internal/gene"
	"genom/internal/seq"
)

func constantDoubles(t *testing.T, length int, alleles ...float64) gene.Population[gene.DoubleGene] {
	t.Helper()
	out := make([]gene.Phenotype[gene.DoubleGene], len(alleles))
	for i, a := range alleles {
		genes := make([]gene.DoubleGene, length)
		for j := range genes {
			genes[j] = gene.NewDoubleGene(a, 0, 10)
		}
		c, err := gene.DoubleChromosomeOf(genes...)
		if err != nil {
			t.Fatalf("double chromosome: %v", err)
		}
		gt, err := gene.NewGenotype[gene.DoubleGene](c)
		if err != nil {
			t.Fatalf("genotype: %v", err)
		}
		out[i] = gene.NewPhenotype(gt, 0)
	}
	return seq.Of(out...)
}

func TestRecombinatorConstructorsValidate(t *testing.T) {
	if _, err := NewSinglePointCrossover[gene.BitGene](1.5); !errors.Is(err, ErrProbability) {
		t.Fatalf("expected ErrProbability, got %v", err)
	}
	if _, err := NewUniformCrossover[gene.BitGene](0.5, -0.1); !errors.Is(err, ErrProbability) {
		t.Fatalf("expected ErrProbability for swap probability, got %v", err)
	}
	if _, err := NewMultiPointCrossover[gene.BitGene](0.5, 0); !errors.Is(err, ErrNonPositive) {
		t.Fatalf("expected ErrNonPositive, got %v", err)
	}
	if _, err := NewLineCrossover[gene.DoubleGene](0.5, -1); !errors.Is(err, ErrParameter) {
		t.Fatalf("expected ErrParameter, got %v", err)
	}
	if _, err := newRecombination[gene.BitGene]("x", 0.5, 1, nil); !errors.Is(err, ErrOrder) {
		t.Fatalf("expected ErrOrder, got %v", err)
	}
}

func TestMeanAltererAveragesPrimary(t *testing.T) {
	rng := rand.New(rand.NewSource(61))
	population := constantDoubles(t, 3, 2, 4)
	mean, err := NewMeanAlterer[gene.DoubleGene](1)
	if err != nil {
		t.Fatalf("mean: %v", err)
	}
	out, n := mean.Alter(rng, population, 2)
	if n != 6 {
		t.Fatalf("expected 6 averaged genes, got %d", n)
	}
	first := out.Get(0).Genotype().Chromosome(0).(*gene.DoubleChromosome).Floats()
	second := out.Get(1).Genotype().Chromosome(0).(*gene.DoubleChromosome).Floats()
	if !slices.Equal(first, []float64{3, 3, 3}) || !slices.Equal(second, []float64{3.5, 3.5, 3.5}) {
		t.Fatalf("unexpected means: %v %v", first, second)
	}
	if out.Get(0).Generation() != 2 || out.Get(0).IsEvaluated() {
		t.Fatalf("expected a fresh phenotype of generation 2, got %v", out.Get(0))
	}
}

func TestRecombinatorKeepsSmallPopulations(t *testing.T) {
	rng := rand.New(rand.NewSource(62))
	cross, err := NewSinglePointCrossover[gene.BitGene](1)
	if err != nil {
		t.Fatalf("single point: %v", err)
	}
	for _, size := range []int{0, 1} {
		population := bitPopulation(t, rng, size, 8)
		out, n := cross.Alter(rng, population, 1)
		if n != 0 || out.Len() != size {
			t.Fatalf("size %d: expected no alteration, got n=%d len=%d", size, n, out.Len())
		}
	}
}

func TestBitCrossoversConserveColumns(t *testing.T) {
	uniform, err := NewUniformCrossover[gene.BitGene](0.8, 0.5)
	if err != nil {
		t.Fatalf("uniform: %v", err)
	}
	single, err := NewSinglePointCrossover[gene.BitGene](0.8)
	if err != nil {
		t.Fatalf("single point: %v", err)
	}
	multi, err := NewMultiPointCrossover[gene.BitGene](0.8, 3)
	if err != nil {
		t.Fatalf("multi point: %v", err)
	}
	for _, alterer := range []Alterer[gene.BitGene]{uniform, single, multi} {
		rng := rand.New(rand.NewSource(63))
		population := bitPopulation(t, rng, 20, 16)
		// Every pairing exchanges genes position by position, so the ones
		// per column survive any sequence of events.
		want := columnOnes(population, 16)
		out, n := alterer.Alter(rng, population, 1)
		if n == 0 {
			t.Fatalf("%s: expected alterations", alterer.Name())
		}
		if got := columnOnes(out, 16); !slices.Equal(got, want) {
			t.Fatalf("%s: column ones changed: got %v want %v", alterer.Name(), got, want)
		}
		if !allValid(out) {
			t.Fatalf("%s: produced invalid phenotypes", alterer.Name())
		}
	}
}

func TestNumericCrossoversStayInRange(t *testing.T) {
	line, err := NewLineCrossover[gene.DoubleGene](1, 0.25)
	if err != nil {
		t.Fatalf("line: %v", err)
	}
	intermediate, err := NewIntermediateCrossover[gene.DoubleGene](1, 0.25)
	if err != nil {
		t.Fatalf("intermediate: %v", err)
	}
	for _, alterer := range []Alterer[gene.DoubleGene]{line, intermediate} {
		rng := rand.New(rand.NewSource(64))
		population := scoredPopulation(t, rng, 1, 2, 3, 4, 5, 6, 7, 8)
		out, n := alterer.Alter(rng, population, 3)
		if n == 0 {
			t.Fatalf("%s: expected alterations", alterer.Name())
		}
		if !allValid(out) {
			t.Fatalf("%s: produced invalid phenotypes", alterer.Name())
		}
	}
}

func TestPermutationCrossoversKeepPermutations(t *testing.T) {
	uox, err := NewUniformOrderBasedCrossover[int](1)
	if err != nil {
		t.Fatalf("uox: %v", err)
	}
	pmx, err := NewPartiallyMatchedCrossover[int](1)
	if err != nil {
		t.Fatalf("pmx: %v", err)
	}
	for _, alterer := range []Alterer[gene.EnumGene[int]]{uox, pmx} {
		rng := rand.New(rand.NewSource(65))
		population := permutationPopulation(t, rng, 12, 20)
		out := population
		total := 0
		for range 10 {
			var n int
			out, n = alterer.Alter(rng, out, 1)
			total += n
		}
		if total == 0 {
			t.Fatalf("%s: expected alterations", alterer.Name())
		}
		for i, pt := range out.All() {
			c := pt.Genotype().Chromosome(0).(*gene.PermutationChromosome[int])
			if !c.IsValid() {
				t.Fatalf("%s: phenotype %d is no permutation: %v", alterer.Name(), i, c.Alleles())
			}
			sorted := slices.Sorted(slices.Values(c.Alleles()))
			for j, v := range sorted {
				if v != j {
					t.Fatalf("%s: phenotype %d lost allele %d: %v", alterer.Name(), i, j, sorted)
				}
			}
		}
	}
}

func TestPartiallyMatchedCrossoverExchangesSegment(t *testing.T) {
	rng := rand.New(rand.NewSource(66))
	alleles := seq.Generate(8, func(i int) int { return i })
	a, err := gene.PermutationChromosomeOf(alleles, 0, 1, 2, 3, 4, 5, 6, 7)
	if err != nil {
		t.Fatalf("permutation: %v", err)
	}
	b, err := gene.PermutationChromosomeOf(alleles, 7, 6, 5, 4, 3, 2, 1, 0)
	if err != nil {
		t.Fatalf("permutation: %v", err)
	}
	that, other := a.Genes().Copy(), b.Genes().Copy()
	n := partiallyMatched(rng, that, other)

	child1 := a.NewInstance(that.Seal())
	child2 := b.NewInstance(other.Seal())
	if !child1.IsValid() || !child2.IsValid() {
		t.Fatalf("expected valid offspring, got %v and %v", child1, child2)
	}
	if n < 0 || n > 16 {
		t.Fatalf("unexpected alteration count %d", n)
	}
}

func TestLineCrossoverKeepsParentsOutsideRange(t *testing.T) {
	rng := rand.New(rand.NewSource(67))
	population := constantDoubles(t, 4, 0, 9.9)
	line, err := NewLineCrossover[gene.DoubleGene](1, 1e6)
	if err != nil {
		t.Fatalf("line: %v", err)
	}
	out, n := line.Alter(rng, population, 1)
	if n != 0 {
		t.Fatalf("expected every offspring to be rejected, got %d alterations", n)
	}
	for i, pt := range out.All() {
		got := pt.Genotype().Chromosome(0).(*gene.DoubleChromosome).Floats()
		want := population.Get(i).Genotype().Chromosome(0).(*gene.DoubleChromosome).Floats()
		if !slices.Equal(got, want) {
			t.Fatalf("phenotype %d changed: got %v want %v", i, got, want)
		}
		if pt.Generation() != 0 {
			t.Fatalf("phenotype %d was replaced", i)
		}
	}
}

func TestCrossoversCountAlteredGenes(t *testing.T) {
	line, err := NewLineCrossover[gene.DoubleGene](1, 0)
	if err != nil {
		t.Fatalf("line: %v", err)
	}
	// Two individuals give two events, each moving all 3 genes of both parents.
	if _, n := line.Alter(rand.New(rand.NewSource(68)), constantDoubles(t, 3, 2, 4), 1); n != 12 {
		t.Fatalf("line: expected 12 altered genes, got %d", n)
	}

	single, err := NewSinglePointCrossover[gene.BitGene](1)
	if err != nil {
		t.Fatalf("single point: %v", err)
	}
	rng := rand.New(rand.NewSource(69))
	_, n := single.Alter(rng, bitPopulation(t, rng, 2, 10), 1)
	if n < 4 || n > 36 || n%2 != 0 {
		t.Fatalf("single point: expected an even count of exchanged tail genes, got %d", n)
	}
}

func TestPermutationCrossoversRejectUnequalLengths(t *testing.T) {
	uox, err := NewUniformOrderBasedCrossover[int](1)
	if err != nil {
		t.Fatalf("uox: %v", err)
	}
	pmx, err := NewPartiallyMatchedCrossover[int](1)
	if err != nil {
		t.Fatalf("pmx: %v", err)
	}
	for _, alterer := range []Alterer[gene.EnumGene[int]]{uox, pmx} {
		rng := rand.New(rand.NewSource(70))
		population := seq.Of(
			permutationPopulation(t, rng, 1, 4).Get(0),
			permutationPopulation(t, rng, 1, 5).Get(0),
		)
		func() {
			defer func() {
				if recover() == nil {
					t.Fatalf("%s: expected a panic for chromosomes of length 4 and 5", alterer.Name())
				}
			}()
			alterer.Alter(rng, population, 1)
		}()
	}
}
