// Package snapshot persists the count board as the day's snapshot.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/flocktracker/internal/domain/models"
	"github.com/mamadbah2/flocktracker/internal/repository"
	"github.com/mamadbah2/flocktracker/internal/service/counts"
)

// SaveResult describes one completed save.
type SaveResult struct {
	Date   models.Date `json:"date"`
	Breeds int         `json:"breeds"`
	Rows   int         `json:"rows"`
	IDs    []string    `json:"ids"`
}

// Service writes snapshots to a store. Saves never overlap.
type Service struct {
	mu       sync.Mutex
	store    repository.Store
	taxonomy *models.Taxonomy
	loc      *time.Location
	now      func() time.Time
	logger   *zap.Logger
}

// NewService wires a snapshot service. A nil location means time.Local.
func NewService(store repository.Store, taxonomy *models.Taxonomy, loc *time.Location, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		store:    store,
		taxonomy: taxonomy,
		loc:      loc,
		now:      time.Now,
		logger:   logger,
	}
}

// Today returns the operator's current calendar date.
func (s *Service) Today() models.Date {
	return models.DateIn(s.now(), s.loc)
}

// Save replaces today's snapshot with the non-empty breeds of model. The
// model itself is never modified.
func (s *Service) Save(ctx context.Context, model models.CountModel) (SaveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	date := s.Today()
	stages := s.taxonomy.Stages()

	var rows []models.DailyCount
	breeds := 0
	for _, breed := range s.taxonomy.Breeds() {
		bc, ok := model[breed]
		if !ok || bc.IsEmpty() {
			continue
		}
		breeds++
		rows = append(rows, models.RowsFor(date, breed, bc, stages)...)
	}
	for breed := range model {
		if !s.taxonomy.HasBreed(breed) {
			s.logger.Warn("skipping unknown breed", zap.String("breed", breed))
		}
	}

	ids, err := s.store.ReplaceDay(ctx, date, rows)
	if err != nil {
		s.logger.Error("failed to save snapshot", zap.String("date", date.String()), zap.Error(err))
		if errors.Is(err, models.ErrStorageFailure) || errors.Is(err, models.ErrInvalidInput) {
			return SaveResult{}, err
		}
		return SaveResult{}, repository.Fail("save snapshot", err)
	}

	s.logger.Info("snapshot saved",
		zap.String("date", date.String()),
		zap.Int("breeds", breeds),
		zap.Int("rows", len(ids)),
	)
	return SaveResult{Date: date, Breeds: breeds, Rows: len(ids), IDs: ids}, nil
}

// Load returns the most recent stored snapshot as a model, with its date.
// An empty store gives an empty model and a zero date.
func (s *Service) Load(ctx context.Context) (models.CountModel, models.Date, error) {
	rows, err := s.store.Latest(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("load latest snapshot: %w", err)
	}
	if len(rows) == 0 {
		return models.CountModel{}, "", nil
	}
	return models.ModelFromRows(rows, s.taxonomy.Stages()), rows[0].Date, nil
}

// Rehydrate fills board from today's stored snapshot when there is one. It
// reports whether the board was replaced.
func (s *Service) Rehydrate(ctx context.Context, board *counts.Board) (bool, error) {
	model, date, err := s.Load(ctx)
	if err != nil {
		return false, err
	}
	if date.IsZero() || date != s.Today() {
		s.logger.Info("starting a fresh day", zap.String("latest", date.String()))
		return false, nil
	}
	board.Replace(model)
	s.logger.Info("board rehydrated", zap.String("date", date.String()), zap.Int("breeds", len(model)))
	return true, nil
}
