// Package history reads stored snapshots back as flat records and exports
// them as CSV.
package history

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/mamadbah2/flocktracker/internal/domain/models"
	"github.com/mamadbah2/flocktracker/internal/repository"
)

// Query selects records by inclusive date range and optional breed.
type Query struct {
	Breed string
	Start models.Date
	End   models.Date
}

// Validate checks the range.
func (q Query) Validate() error {
	if q.Start.IsZero() || q.End.IsZero() {
		return fmt.Errorf("%w: start and end dates are required", models.ErrInvalidInput)
	}
	if q.Start.After(q.End) {
		return fmt.Errorf("%w: start %s is after end %s", models.ErrInvalidInput, q.Start, q.End)
	}
	return nil
}

// Service answers history queries.
type Service struct {
	store    repository.Store
	taxonomy *models.Taxonomy
	logger   *zap.Logger
}

// NewService wires a history service.
func NewService(store repository.Store, taxonomy *models.Taxonomy, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, taxonomy: taxonomy, logger: logger}
}

// History returns the records matching q in date, breed, stage order.
func (s *Service) History(ctx context.Context, q Query) ([]models.HistoryRecord, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	rows, err := s.store.Range(ctx, models.RangeQuery{Breed: q.Breed, Start: q.Start, End: q.End})
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return s.records(rows), nil
}

// Latest returns the records of the most recent stored date. An empty store
// gives no records.
func (s *Service) Latest(ctx context.Context) ([]models.HistoryRecord, error) {
	rows, err := s.store.Latest(ctx)
	if err != nil {
		return nil, fmt.Errorf("load latest snapshot: %w", err)
	}
	return s.records(rows), nil
}

// LatestSnapshot returns the records of the most recent stored date together
// with that date, taken from the same read. An empty store gives a zero date.
func (s *Service) LatestSnapshot(ctx context.Context) (models.Date, []models.HistoryRecord, error) {
	records, err := s.Latest(ctx)
	if err != nil {
		return "", nil, err
	}
	if len(records) == 0 {
		return "", records, nil
	}
	return records[0].Date, records, nil
}

// Clear deletes every stored snapshot.
func (s *Service) Clear(ctx context.Context) (int, error) {
	n, err := s.store.DeleteAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("clear history: %w", err)
	}
	s.logger.Warn("history cleared", zap.Int("rows", n))
	return n, nil
}

func (s *Service) records(rows []models.DailyCount) []models.HistoryRecord {
	out := make([]models.HistoryRecord, 0, len(rows))
	for _, r := range rows {
		rec := models.HistoryRecord{
			Date:     r.Date,
			Category: s.taxonomy.CategoryOf(r.Breed),
			Breed:    r.Breed,
			Stage:    r.Stage,
			Count:    r.Count,
		}
		if r.Breeders != nil {
			rec.BreedingFemales = r.Breeders.Females
			rec.BreedingMales = r.Breeders.Males
		}
		if r.Juveniles != nil {
			rec.JuvenileMales = r.Juveniles.Males
			rec.JuvenileFemales = r.Juveniles.Females
			rec.JuvenileUnknown = r.Juveniles.Unknown
		}
		out = append(out, rec)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.Breed != b.Breed {
			return a.Breed < b.Breed
		}
		ra, rb := s.taxonomy.StageRank(a.Stage), s.taxonomy.StageRank(b.Stage)
		if ra != rb {
			return ra < rb
		}
		return a.Stage < b.Stage
	})
	return out
}
