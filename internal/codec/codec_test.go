package codec

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"

	gocmp "github.com/google/go-cmp/cmp"

	"genom/internal/gene"
	"genom/internal/seq"
)

func roundTrip[G any](t *testing.T, c gene.Chromosome[G]) gene.Chromosome[G] {
	t.Helper()
	data, err := MarshalChromosome(c)
	if err != nil {
		t.Fatalf("marshal %T: %v", c, err)
	}
	decoded, err := UnmarshalChromosome[G](data)
	if err != nil {
		t.Fatalf("unmarshal %T: %v", c, err)
	}
	again, err := MarshalChromosome(decoded)
	if err != nil {
		t.Fatalf("marshal decoded %T: %v", c, err)
	}
	if !bytes.Equal(data, again) {
		t.Fatalf("%T: re-encoding differs", c)
	}
	if decoded.IsValid() != c.IsValid() {
		t.Fatalf("%T: validity changed to %t", c, decoded.IsValid())
	}
	return decoded
}

func TestChromosomeRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(11))

	bits, err := gene.NewBitChromosome(rng, 21, 0.3)
	if err != nil {
		t.Fatalf("bits: %v", err)
	}
	decodedBits := roundTrip[gene.BitGene](t, bits).(*gene.BitChromosome)
	if !decodedBits.Equal(bits) || decodedBits.OneProbability() != bits.OneProbability() {
		t.Fatalf("bits: got %s (p=%v) want %s (p=%v)", decodedBits, decodedBits.OneProbability(), bits, bits.OneProbability())
	}

	doubles, err := gene.RandomDoubleChromosome(rng, -2, 2, gene.IntRange{Min: 3, Max: 9})
	if err != nil {
		t.Fatalf("doubles: %v", err)
	}
	decodedDoubles := roundTrip[gene.DoubleGene](t, doubles).(*gene.DoubleChromosome)
	if diff := gocmp.Diff(doubles.Floats(), decodedDoubles.Floats()); diff != "" {
		t.Fatalf("doubles mismatch (-want +got):\n%s", diff)
	}
	if decodedDoubles.LengthRange() != doubles.LengthRange() {
		t.Fatalf("unexpected length range: %v", decodedDoubles.LengthRange())
	}

	ints, err := gene.RandomIntegerChromosome(rng, -50, 50, gene.Length(10))
	if err != nil {
		t.Fatalf("ints: %v", err)
	}
	decodedInts := roundTrip[gene.IntegerGene](t, ints).(*gene.IntegerChromosome)
	if diff := gocmp.Diff(ints.Ints(), decodedInts.Ints()); diff != "" {
		t.Fatalf("ints mismatch (-want +got):\n%s", diff)
	}

	longs, err := gene.RandomLongChromosome(rng, -1<<40, 1<<40, gene.Length(4))
	if err != nil {
		t.Fatalf("longs: %v", err)
	}
	decodedLongs := roundTrip[gene.LongGene](t, longs).(*gene.LongChromosome)
	if diff := gocmp.Diff(longs.Int64s(), decodedLongs.Int64s()); diff != "" {
		t.Fatalf("longs mismatch (-want +got):\n%s", diff)
	}

	chars, err := gene.CharacterChromosomeOf("hello", gene.DefaultChars)
	if err != nil {
		t.Fatalf("chars: %v", err)
	}
	if got := roundTrip[gene.CharacterGene](t, chars).(*gene.CharacterChromosome).String(); got != "hello" {
		t.Fatalf("chars: got %q", got)
	}

	perm, err := gene.NewPermutationChromosome(rng, seq.Of("a", "b", "c", "d", "e"))
	if err != nil {
		t.Fatalf("permutation: %v", err)
	}
	decodedPerm := roundTrip[gene.EnumGene[string]](t, perm).(*gene.PermutationChromosome[string])
	if diff := gocmp.Diff(perm.Alleles(), decodedPerm.Alleles()); diff != "" {
		t.Fatalf("permutation mismatch (-want +got):\n%s", diff)
	}

	tour, err := gene.PermutationOfInts(rng, 12)
	if err != nil {
		t.Fatalf("int permutation: %v", err)
	}
	decodedTour := roundTrip[gene.EnumGene[int]](t, tour).(*gene.PermutationChromosome[int])
	if diff := gocmp.Diff(tour.Indexes(), decodedTour.Indexes()); diff != "" {
		t.Fatalf("int permutation mismatch (-want +got):\n%s", diff)
	}
}

func TestInvalidChromosomesStayInvalid(t *testing.T) {
	doubles, err := gene.DoubleChromosomeOf(gene.NewDoubleGene(0.5, 0, 1), gene.NewDoubleGene(0.25, 0, 1))
	if err != nil {
		t.Fatalf("doubles: %v", err)
	}
	mixed := doubles.NewInstance(seq.Of(gene.NewDoubleGene(7, 0, 10), gene.NewDoubleGene(3, 0, 1)))
	decoded := roundTrip(t, mixed)
	if decoded.IsValid() {
		t.Fatal("gene outside its bounds should stay invalid")
	}
	if got := decoded.Gene(0); got.Max() != 10 || got.Allele() != 7 {
		t.Fatalf("foreign bounds lost: %v", got)
	}

	dup, err := gene.PermutationChromosomeOf(seq.Of[int64](10, 20, 30), 0, 0, 2)
	if err != nil {
		t.Fatalf("permutation: %v", err)
	}
	if roundTrip[gene.EnumGene[int64]](t, dup).IsValid() {
		t.Fatal("duplicate permutation should stay invalid")
	}
}

func TestUnsupportedAndMismatchedKinds(t *testing.T) {
	rng := rand.New(rand.NewSource(12))
	anys, err := gene.RandomAnyChromosome(rng, func(r *rand.Rand) int { return r.Intn(5) }, nil, nil, gene.Length(3))
	if err != nil {
		t.Fatalf("any: %v", err)
	}
	if _, err := MarshalChromosome[gene.AnyGene[int]](anys); !errors.Is(err, ErrUnsupportedChromosome) {
		t.Fatalf("expected ErrUnsupportedChromosome, got %v", err)
	}

	bits, _ := gene.ParseBitChromosome("1010")
	data, err := MarshalChromosome[gene.BitGene](bits)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if _, err := UnmarshalChromosome[gene.DoubleGene](data); !errors.Is(err, ErrKindMismatch) {
		t.Fatalf("expected ErrKindMismatch, got %v", err)
	}
	if _, err := UnmarshalChromosome[gene.BitGene](data[:len(data)-1]); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt for truncated data, got %v", err)
	}
	if _, err := UnmarshalChromosome[gene.BitGene](append(data, 0)); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt for trailing data, got %v", err)
	}
	if _, err := UnmarshalChromosome[gene.BitGene]([]byte{99}); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt for unknown kind, got %v", err)
	}
}

func TestPopulationRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(13))
	pop := seq.Generate(6, func(i int) gene.Phenotype[gene.DoubleGene] {
		a, _ := gene.RandomDoubleChromosome(rng, 0, 1, gene.Length(3))
		b, _ := gene.RandomDoubleChromosome(rng, -10, 10, gene.IntRange{Min: 1, Max: 5})
		gt, _ := gene.NewGenotype[gene.DoubleGene](a, b)
		pt := gene.NewPhenotype(gt, int64(i))
		if i%2 == 0 {
			pt = pt.WithFitness(float64(i) * 1.5)
		}
		return pt
	})

	data, err := MarshalPopulation(pop)
	if err != nil {
		t.Fatalf("marshal population: %v", err)
	}
	if data[0] != PopulationVersion {
		t.Fatalf("unexpected version byte %d", data[0])
	}
	decoded, err := UnmarshalPopulation[gene.DoubleGene](data)
	if err != nil {
		t.Fatalf("unmarshal population: %v", err)
	}
	if decoded.Len() != pop.Len() {
		t.Fatalf("unexpected population size %d", decoded.Len())
	}
	for i, want := range pop.All() {
		got := decoded.Get(i)
		wf, wok := want.Fitness()
		gf, gok := got.Fitness()
		if wf != gf || wok != gok || got.Generation() != want.Generation() {
			t.Fatalf("phenotype %d: got %v want %v", i, got, want)
		}
		if got.Genotype().String() != want.Genotype().String() {
			t.Fatalf("phenotype %d genotype: got %s want %s", i, got.Genotype(), want.Genotype())
		}
	}

	data[0] = PopulationVersion + 1
	if _, err := UnmarshalPopulation[gene.DoubleGene](data); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected ErrVersionMismatch, got %v", err)
	}
}

func TestEmptyPopulationRoundTrip(t *testing.T) {
	data, err := MarshalPopulation(seq.Empty[gene.Phenotype[gene.BitGene]]())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	decoded, err := UnmarshalPopulation[gene.BitGene](data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !decoded.IsEmpty() {
		t.Fatalf("expected empty population, got %d", decoded.Len())
	}
}

func TestPhenotypeRoundTrip(t *testing.T) {
	tour, _ := gene.PermutationOfInts(rand.New(rand.NewSource(14)), 7)
	gt, _ := gene.NewGenotype[gene.EnumGene[int]](tour)
	pt := gene.NewPhenotype(gt, 42).WithFitness(-3.25)
	data, err := MarshalPhenotype(pt)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got, err := UnmarshalPhenotype[gene.EnumGene[int]](data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if f, ok := got.Fitness(); !ok || f != -3.25 || got.Generation() != 42 {
		t.Fatalf("unexpected phenotype: %v", got)
	}
	decodedTour := got.Genotype().Chromosome(0).(*gene.PermutationChromosome[int])
	if diff := gocmp.Diff(tour.Indexes(), decodedTour.Indexes()); diff != "" {
		t.Fatalf("tour mismatch (-want +got):\n%s", diff)
	}
}
