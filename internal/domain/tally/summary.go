package tally

import "github.com/mamadbah2/flocktracker/internal/domain/models"

// NamedTotal pairs a label with its total.
type NamedTotal struct {
	Name  string `json:"name"`
	Total int    `json:"total"`
}

// CategorySummary holds a category total and its per-breed totals.
type CategorySummary struct {
	Name   string       `json:"name"`
	Total  int          `json:"total"`
	Breeds []NamedTotal `json:"breeds"`
}

// Summary is every total shown on the dashboard.
type Summary struct {
	Total           int               `json:"total"`
	BreedingFemales int               `json:"breeding_females"`
	BreedingMales   int               `json:"breeding_males"`
	Stages          []NamedTotal      `json:"stages"`
	Juvenile        int               `json:"juvenile"`
	JuvenileMales   int               `json:"juvenile_males"`
	JuvenileFemales int               `json:"juvenile_females"`
	JuvenileUnknown int               `json:"juvenile_unknown"`
	Categories      []CategorySummary `json:"categories"`
}

// Summarize computes the dashboard totals in taxonomy order. Breeds missing
// from the taxonomy still count toward Total but belong to no category.
func Summarize(m models.CountModel, tax *models.Taxonomy) Summary {
	s := Summary{
		Total:           GrandTotal(m),
		BreedingFemales: BreedersTotal(m, models.BreederFemales),
		BreedingMales:   BreedersTotal(m, models.BreederMales),
		Juvenile:        StageTotal(m, models.StageJuvenile),
		JuvenileMales:   JuvenileTypeTotal(m, models.JuvenileMales),
		JuvenileFemales: JuvenileTypeTotal(m, models.JuvenileFemales),
		JuvenileUnknown: JuvenileTypeTotal(m, models.JuvenileUnknown),
	}
	for _, stage := range tax.Stages() {
		s.Stages = append(s.Stages, NamedTotal{Name: stage, Total: StageTotal(m, stage)})
	}
	for _, c := range tax.Categories() {
		cs := CategorySummary{Name: c.Name, Total: CategoryTotal(m, c.Breeds)}
		for _, breed := range c.Breeds {
			cs.Breeds = append(cs.Breeds, NamedTotal{Name: breed, Total: BreedTotal(m[breed])})
		}
		s.Categories = append(s.Categories, cs)
	}
	return s
}
