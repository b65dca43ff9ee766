// Package repository defines the storage contract for daily snapshots.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mamadbah2/flocktracker/internal/domain/models"
)

// ErrNotFound is returned when a row id is unknown or the store holds no
// snapshot at all.
var ErrNotFound = errors.New("not found")

// Store persists daily snapshots. Implementations must make ReplaceDay and
// Latest atomic.
type Store interface {
	// ReplaceDay deletes every row of date and inserts rows in one
	// transaction. It returns the ids of the inserted rows.
	ReplaceDay(ctx context.Context, date models.Date, rows []models.DailyCount) ([]string, error)
	// Range returns the rows between q.Start and q.End inclusive, limited to
	// q.Breed when it is set.
	Range(ctx context.Context, q models.RangeQuery) ([]models.DailyCount, error)
	// Latest returns the rows of the most recent stored date, or none.
	Latest(ctx context.Context) ([]models.DailyCount, error)
	Get(ctx context.Context, id string) (models.DailyCount, error)
	// LatestDate returns ErrNotFound on an empty store.
	LatestDate(ctx context.Context) (models.Date, error)
	// DeleteAll removes every snapshot and returns the number of rows removed.
	DeleteAll(ctx context.Context) (int, error)
	Close(ctx context.Context) error
}

// NewID generates a new UUID v7 for row ids.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to UUID v4 if v7 generation fails
		return uuid.New().String()
	}
	return id.String()
}

// Prepare stamps rows with date, a fresh id and createdAt, and rejects rows
// that would break the one row per (date, breed, stage) rule.
func Prepare(date models.Date, rows []models.DailyCount, createdAt time.Time) ([]models.DailyCount, error) {
	if date.IsZero() {
		return nil, fmt.Errorf("%w: snapshot date is empty", models.ErrInvalidInput)
	}
	seen := make(map[[2]string]struct{}, len(rows))
	out := make([]models.DailyCount, 0, len(rows))
	for _, r := range rows {
		if r.Breed == "" || r.Stage == "" {
			return nil, fmt.Errorf("%w: row without breed or stage", models.ErrInvalidInput)
		}
		key := [2]string{r.Breed, r.Stage}
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("%w: duplicate row %s/%s", models.ErrInvalidInput, r.Breed, r.Stage)
		}
		seen[key] = struct{}{}

		r.ID = NewID()
		r.Date = date
		r.CreatedAt = createdAt.UTC()
		out = append(out, r)
	}
	return out, nil
}

// Fail wraps a backend error as a storage failure.
func Fail(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", models.ErrStorageFailure, op, err)
}

// InRange reports whether r matches q.
func InRange(r models.DailyCount, q models.RangeQuery) bool {
	if r.Date.Before(q.Start) || r.Date.After(q.End) {
		return false
	}
	return q.Breed == "" || r.Breed == q.Breed
}

// Less orders rows by date, breed then stage label, the order every backend
// returns.
func Less(a, b models.DailyCount) bool {
	if a.Date != b.Date {
		return a.Date < b.Date
	}
	if a.Breed != b.Breed {
		return a.Breed < b.Breed
	}
	return a.Stage < b.Stage
}
