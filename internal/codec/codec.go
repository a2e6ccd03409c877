package codec

import (
	"fmt"

	"genom/internal/gene"
	"genom/internal/seq"
)

// PopulationVersion is the leading byte of every population encoding.
const PopulationVersion byte = 1

func MarshalGenotype[G any](gt gene.Genotype[G]) ([]byte, error) {
	w := &writer{}
	if err := encodeGenotype(w, gt); err != nil {
		return nil, err
	}
	return w.buf, nil
}

func UnmarshalGenotype[G any](data []byte) (gene.Genotype[G], error) {
	r := newReader(data)
	gt, err := decodeGenotype[G](r)
	if err != nil {
		return gene.Genotype[G]{}, err
	}
	return gt, r.finish()
}

func MarshalPhenotype[G any](pt gene.Phenotype[G]) ([]byte, error) {
	w := &writer{}
	if err := encodePhenotype(w, pt); err != nil {
		return nil, err
	}
	return w.buf, nil
}

func UnmarshalPhenotype[G any](data []byte) (gene.Phenotype[G], error) {
	r := newReader(data)
	pt, err := decodePhenotype[G](r)
	if err != nil {
		return gene.Phenotype[G]{}, err
	}
	return pt, r.finish()
}

// MarshalPopulation encodes the phenotypes of population in order.
func MarshalPopulation[G any](population gene.Population[G]) ([]byte, error) {
	w := &writer{}
	w.byte(PopulationVersion)
	w.uvarint(uint64(population.Len()))
	for i, pt := range population.All() {
		if err := encodePhenotype(w, pt); err != nil {
			return nil, fmt.Errorf("phenotype %d: %w", i, err)
		}
	}
	return w.buf, nil
}

func UnmarshalPopulation[G any](data []byte) (gene.Population[G], error) {
	r := newReader(data)
	if v := r.byte(); r.err == nil && v != PopulationVersion {
		return gene.Population[G]{}, fmt.Errorf("%w: got %d want %d", ErrVersionMismatch, v, PopulationVersion)
	}
	n := r.count(1)
	out := seq.New[gene.Phenotype[G]](n)
	for i := 0; i < n; i++ {
		pt, err := decodePhenotype[G](r)
		if err != nil {
			return gene.Population[G]{}, fmt.Errorf("phenotype %d: %w", i, err)
		}
		out.Set(i, pt)
	}
	if err := r.finish(); err != nil {
		return gene.Population[G]{}, err
	}
	return out.Seal(), nil
}

func encodeGenotype[G any](w *writer, gt gene.Genotype[G]) error {
	w.uvarint(uint64(gt.Len()))
	for i, c := range gt.Chromosomes().All() {
		if err := encodeChromosome(w, c); err != nil {
			return fmt.Errorf("chromosome %d: %w", i, err)
		}
	}
	return nil
}

func decodeGenotype[G any](r *reader) (gene.Genotype[G], error) {
	n := r.count(1)
	chromosomes := make([]gene.Chromosome[G], n)
	for i := range chromosomes {
		c, err := decodeChromosome[G](r)
		if err != nil {
			return gene.Genotype[G]{}, fmt.Errorf("chromosome %d: %w", i, err)
		}
		chromosomes[i] = c
	}
	if r.err != nil {
		return gene.Genotype[G]{}, r.err
	}
	return gene.NewGenotype(chromosomes...)
}

func encodePhenotype[G any](w *writer, pt gene.Phenotype[G]) error {
	fitness, evaluated := pt.Fitness()
	w.varint(pt.Generation())
	w.bool(evaluated)
	if evaluated {
		w.float64(fitness)
	}
	return encodeGenotype(w, pt.Genotype())
}

func decodePhenotype[G any](r *reader) (gene.Phenotype[G], error) {
	generation := r.varint()
	evaluated := r.bool()
	var fitness float64
	if evaluated {
		fitness = r.float64()
	}
	if r.err != nil {
		return gene.Phenotype[G]{}, r.err
	}
	gt, err := decodeGenotype[G](r)
	if err != nil {
		return gene.Phenotype[G]{}, err
	}
	pt := gene.NewPhenotype(gt, generation)
	if evaluated {
		pt = pt.WithFitness(fitness)
	}
	return pt, nil
}
