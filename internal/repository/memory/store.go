// Package memory keeps snapshots in process memory. It backs the tests and
// STORAGE_BACKEND=memory.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mamadbah2/flocktracker/internal/domain/models"
	"github.com/mamadbah2/flocktracker/internal/repository"
)

// Store is a mutex-guarded in-memory repository.Store.
type Store struct {
	mu   sync.RWMutex
	rows map[string]models.DailyCount
	now  func() time.Time

	// FailNext makes the next write return this error once. Tests only.
	failNext error
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{rows: make(map[string]models.DailyCount), now: time.Now}
}

// FailNextWrite makes the next ReplaceDay or DeleteAll fail with err.
func (s *Store) FailNextWrite(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = err
}

func (s *Store) ReplaceDay(ctx context.Context, date models.Date, rows []models.DailyCount) ([]string, error) {
	prepared, err := repository.Prepare(date, rows, s.now())
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return nil, repository.Fail("replace day", err)
	}

	for id, r := range s.rows {
		if r.Date == date {
			delete(s.rows, id)
		}
	}
	ids := make([]string, 0, len(prepared))
	for _, r := range prepared {
		s.rows[r.ID] = cloneRow(r)
		ids = append(ids, r.ID)
	}
	return ids, nil
}

func (s *Store) Range(ctx context.Context, q models.RangeQuery) ([]models.DailyCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(r models.DailyCount) bool { return repository.InRange(r, q) }), nil
}

func (s *Store) Latest(ctx context.Context) ([]models.DailyCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	latest := s.latestDate()
	if latest.IsZero() {
		return nil, nil
	}
	return s.collect(func(r models.DailyCount) bool { return r.Date == latest }), nil
}

func (s *Store) Get(ctx context.Context, id string) (models.DailyCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rows[id]
	if !ok {
		return models.DailyCount{}, repository.ErrNotFound
	}
	return cloneRow(r), nil
}

func (s *Store) LatestDate(ctx context.Context) (models.Date, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	latest := s.latestDate()
	if latest.IsZero() {
		return "", repository.ErrNotFound
	}
	return latest, nil
}

func (s *Store) DeleteAll(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return 0, repository.Fail("delete all", err)
	}
	n := len(s.rows)
	s.rows = make(map[string]models.DailyCount)
	return n, nil
}

func (s *Store) Close(ctx context.Context) error { return nil }

func (s *Store) takeFailure() error {
	err := s.failNext
	s.failNext = nil
	return err
}

func (s *Store) latestDate() models.Date {
	var latest models.Date
	for _, r := range s.rows {
		if r.Date.After(latest) {
			latest = r.Date
		}
	}
	return latest
}

func (s *Store) collect(keep func(models.DailyCount) bool) []models.DailyCount {
	var out []models.DailyCount
	for _, r := range s.rows {
		if keep(r) {
			out = append(out, cloneRow(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return repository.Less(out[i], out[j]) })
	return out
}

func cloneRow(r models.DailyCount) models.DailyCount {
	if r.Breeders != nil {
		b := *r.Breeders
		r.Breeders = &b
	}
	if r.Juveniles != nil {
		j := *r.Juveniles
		r.Juveniles = &j
	}
	return r
}

var _ repository.Store = (*Store)(nil)
