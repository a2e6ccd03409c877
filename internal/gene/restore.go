package gene

import "genom/internal/seq"

// The Restore functions rebuild chromosomes from previously encoded state
// without checking constraints, mirroring NewInstance. A restored
// chromosome that breaks its constraints reports IsValid false.

func RestoreBitChromosome(genes seq.Seq[BitGene], oneProbability float64) *BitChromosome {
	return &BitChromosome{genes: genes, oneProbability: oneProbability}
}

func RestoreDoubleChromosome(genes seq.Seq[DoubleGene], min, max float64, lengths IntRange) *DoubleChromosome {
	return newDoubleChromosome(packDoubles(genes, min, max), min, max, lengths)
}

func RestoreIntegerChromosome(genes seq.Seq[IntegerGene], min, max int32, lengths IntRange) *IntegerChromosome {
	return newIntegerChromosome(genes, min, max, lengths)
}

func RestoreLongChromosome(genes seq.Seq[LongGene], min, max int64, lengths IntRange) *LongChromosome {
	return newLongChromosome(genes, min, max, lengths)
}

func RestoreCharacterChromosome(genes seq.Seq[CharacterGene], chars *CharSeq) *CharacterChromosome {
	return newCharacterChromosome(genes, chars)
}

// RestorePermutationChromosome selects the alleles at indexes without
// checking that the indexes are distinct or in range.
func RestorePermutationChromosome[A comparable](alleles seq.Seq[A], indexes []int) *PermutationChromosome[A] {
	genes := seq.Generate(len(indexes), func(i int) EnumGene[A] {
		return EnumGene[A]{index: indexes[i], alleles: alleles}
	})
	return newPermutationChromosome(genes, alleles)
}
