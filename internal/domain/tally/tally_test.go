package tally

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/mamadbah2/flocktracker/internal/domain/models"
)

func fixture() models.CountModel {
	return models.CountModel{
		"Ayam Cemani": {
			Breeders: models.Breeders{Females: 2, Males: 1},
			Juvenile: models.Juvenile{Females: 3, Males: 2, Unknown: 1},
			Stages:   map[string]models.Count{"Incubator": 5, "Hatch": 2, "1 Month": 1},
		},
		"Silkie": {
			Breeders: models.Breeders{Females: 1, Males: 1},
			Stages:   map[string]models.Count{"Incubator": 0, "Hatch": 0, "1 Month": 0},
		},
	}
}

func TestJuvenileTotal(t *testing.T) {
	assert.Equal(t, 6, JuvenileTotal(fixture()["Ayam Cemani"]))
}

func TestBreedTotal(t *testing.T) {
	assert.Equal(t, 3+6+8, BreedTotal(fixture()["Ayam Cemani"]))
}

func TestBreedTotalScenario(t *testing.T) {
	bc := models.BreedCount{
		Breeders: models.Breeders{Females: 1, Males: 1},
		Juvenile: models.Juvenile{Females: 1, Unknown: 1},
		Stages:   map[string]models.Count{"Incubator": 1},
	}
	assert.Equal(t, 5, BreedTotal(bc))
}

func TestBreedTotalIdentity(t *testing.T) {
	for breed, bc := range fixture() {
		stages := 0
		for _, n := range bc.Stages {
			stages += int(n)
		}
		want := JuvenileTotal(bc) + int(bc.Breeders.Females) + int(bc.Breeders.Males) + stages
		assert.Equal(t, want, BreedTotal(bc), breed)
	}
}

func TestPartialEntriesCountAsZero(t *testing.T) {
	m := models.CountModel{"Silkie": {}}
	assert.Equal(t, 0, BreedTotal(m["Silkie"]))
	assert.Equal(t, 0, StageTotal(m, "Hatch"))
	assert.Equal(t, 0, CategoryTotal(m, []string{"Silkie", "Missing"}))
}

func TestStageTotal(t *testing.T) {
	m := fixture()
	assert.Equal(t, 5, StageTotal(m, "Incubator"))
	assert.Equal(t, 6, StageTotal(m, models.StageJuvenile))
	assert.Equal(t, 0, StageTotal(m, "2 Month"))
}

func TestBreedersAndJuvenileTypeTotals(t *testing.T) {
	m := fixture()
	assert.Equal(t, 3, BreedersTotal(m, models.BreederFemales))
	assert.Equal(t, 2, BreedersTotal(m, models.BreederMales))
	assert.Equal(t, 2, JuvenileTypeTotal(m, models.JuvenileMales))
	assert.Equal(t, 1, JuvenileTypeTotal(m, models.JuvenileUnknown))
}

func TestCategoryTotalsSumToGrandTotal(t *testing.T) {
	tax := models.DefaultTaxonomy()
	m := tax.NewModel()
	m["Silkie"] = models.BreedCount{Breeders: models.Breeders{Females: 4}}
	m["Cayuga Duck"] = models.BreedCount{Stages: map[string]models.Count{"Hatch": 7}}
	m["Button Quail"] = models.BreedCount{Juvenile: models.Juvenile{Unknown: 3}}

	sum := 0
	for _, c := range tax.Categories() {
		sum += CategoryTotal(m, c.Breeds)
	}
	assert.Equal(t, GrandTotal(m), sum)
	assert.Equal(t, 14, sum)
}

func TestSummarize(t *testing.T) {
	tax, err := models.NewTaxonomy([]models.Category{
		{Name: "Chickens", Breeds: []string{"Ayam Cemani", "Silkie"}},
		{Name: "Ducks", Breeds: []string{"Pekin"}},
	}, []string{"Incubator", "Hatch"})
	if err != nil {
		t.Fatal(err)
	}
	m := models.CountModel{
		"Ayam Cemani": {
			Breeders: models.Breeders{Females: 1, Males: 1},
			Juvenile: models.Juvenile{Females: 1, Unknown: 1},
			Stages:   map[string]models.Count{"Incubator": 1},
		},
		"Pekin": {Stages: map[string]models.Count{"Hatch": 3}},
	}

	want := Summary{
		Total:           8,
		BreedingFemales: 1,
		BreedingMales:   1,
		Stages:          []NamedTotal{{Name: "Incubator", Total: 1}, {Name: "Hatch", Total: 3}},
		Juvenile:        2,
		JuvenileFemales: 1,
		JuvenileUnknown: 1,
		Categories: []CategorySummary{
			{Name: "Chickens", Total: 5, Breeds: []NamedTotal{{Name: "Ayam Cemani", Total: 5}, {Name: "Silkie", Total: 0}}},
			{Name: "Ducks", Total: 3, Breeds: []NamedTotal{{Name: "Pekin", Total: 3}}},
		},
	}
	if diff := cmp.Diff(want, Summarize(m, tax)); diff != "" {
		t.Errorf("Summarize() mismatch (-want +got):\n%s", diff)
	}
}
