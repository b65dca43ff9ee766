// Package tally derives display totals from a CountModel. Every function is
// pure and treats missing breeds or stages as zero.
package tally

import "github.com/mamadbah2/flocktracker/internal/domain/models"

// JuvenileTotal sums the three juvenile counters of bc.
func JuvenileTotal(bc models.BreedCount) int {
	return int(bc.Juvenile.Males) + int(bc.Juvenile.Females) + int(bc.Juvenile.Unknown)
}

// BreedTotal sums every stage, both breeder sexes and the juveniles of bc.
func BreedTotal(bc models.BreedCount) int {
	total := int(bc.Breeders.Females) + int(bc.Breeders.Males) + JuvenileTotal(bc)
	for _, n := range bc.Stages {
		total += int(n)
	}
	return total
}

// StageTotal sums stage across all breeds. The pseudo-stage
// models.StageJuvenile sums the juvenile totals instead.
func StageTotal(m models.CountModel, stage string) int {
	total := 0
	for _, bc := range m {
		if stage == models.StageJuvenile {
			total += JuvenileTotal(bc)
			continue
		}
		total += int(bc.Stages[stage])
	}
	return total
}

// BreedersTotal sums the breeder counter for sex across all breeds.
func BreedersTotal(m models.CountModel, sex models.BreederSex) int {
	total := 0
	for _, bc := range m {
		n, _ := bc.Breeders.Get(sex)
		total += int(n)
	}
	return total
}

// JuvenileTypeTotal sums the juvenile counter for sex across all breeds.
func JuvenileTypeTotal(m models.CountModel, sex models.JuvenileSex) int {
	total := 0
	for _, bc := range m {
		n, _ := bc.Juvenile.Get(sex)
		total += int(n)
	}
	return total
}

// CategoryTotal sums BreedTotal over exactly the given breeds.
func CategoryTotal(m models.CountModel, breeds []string) int {
	total := 0
	for _, breed := range breeds {
		if bc, ok := m[breed]; ok {
			total += BreedTotal(bc)
		}
	}
	return total
}

// GrandTotal sums BreedTotal over every breed in m.
func GrandTotal(m models.CountModel) int {
	total := 0
	for _, bc := range m {
		total += BreedTotal(bc)
	}
	return total
}
