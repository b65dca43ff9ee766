package models

import "time"

// DailyCount is one stored row of a daily snapshot. Breeder and Juvenile rows
// carry their sex split in the matching child record.
type DailyCount struct {
	ID        string    `json:"id"`
	Date      Date      `json:"date"`
	Breed     string    `json:"breed"`
	Stage     string    `json:"stage"`
	Count     Count     `json:"count"`
	Breeders  *Breeders `json:"breeders,omitempty"`
	Juveniles *Juvenile `json:"juveniles,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// RangeQuery selects stored rows by inclusive date range and optional breed.
type RangeQuery struct {
	Breed string
	Start Date
	End   Date
}

// HistoryRecord is a flattened export row.
type HistoryRecord struct {
	Date            Date   `json:"date"`
	Category        string `json:"category"`
	Breed           string `json:"breed"`
	Stage           string `json:"stage"`
	Count           Count  `json:"count"`
	BreedingFemales Count  `json:"breeding_females"`
	BreedingMales   Count  `json:"breeding_males"`
	JuvenileMales   Count  `json:"juvenile_males"`
	JuvenileFemales Count  `json:"juvenile_females"`
	JuvenileUnknown Count  `json:"juvenile_unknown"`
}

// IsEmpty reports whether every count field is zero.
func (r HistoryRecord) IsEmpty() bool {
	return r.Count <= 0 &&
		r.BreedingFemales <= 0 && r.BreedingMales <= 0 &&
		r.JuvenileMales <= 0 && r.JuvenileFemales <= 0 && r.JuvenileUnknown <= 0
}

// RowsFor expands one breed's counters into stored rows. Empty groups produce
// no rows. IDs and timestamps are left for the store to fill.
func RowsFor(date Date, breed string, bc BreedCount, stages []string) []DailyCount {
	var rows []DailyCount
	if !bc.Breeders.IsZero() {
		b := bc.Breeders
		rows = append(rows, DailyCount{Date: date, Breed: breed, Stage: StageBreeder, Count: b.Total(), Breeders: &b})
	}
	if !bc.Juvenile.IsZero() {
		j := bc.Juvenile
		rows = append(rows, DailyCount{Date: date, Breed: breed, Stage: StageJuvenile, Count: j.Total(), Juveniles: &j})
	}
	for _, stage := range stages {
		if n := bc.Stages[stage]; n > 0 {
			rows = append(rows, DailyCount{Date: date, Breed: breed, Stage: stage, Count: n})
		}
	}
	return rows
}

// ModelFromRows folds stored rows back into a CountModel. Breeds without rows
// are absent from the result.
func ModelFromRows(rows []DailyCount, stages []string) CountModel {
	m := make(CountModel)
	for _, r := range rows {
		bc, ok := m[r.Breed]
		if !ok {
			bc = NewBreedCount(stages)
		}
		switch r.Stage {
		case StageBreeder:
			if r.Breeders != nil {
				bc.Breeders = *r.Breeders
			} else {
				bc.Breeders.Females = r.Count
			}
		case StageJuvenile:
			if r.Juveniles != nil {
				bc.Juvenile = *r.Juveniles
			} else {
				bc.Juvenile.Unknown = r.Count
			}
		default:
			bc.Stages[r.Stage] = r.Count
		}
		m[r.Breed] = bc
	}
	return m
}
