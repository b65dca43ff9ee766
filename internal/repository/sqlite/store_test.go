package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/flocktracker/internal/domain/models"
	"github.com/mamadbah2/flocktracker/internal/repository"
	"github.com/mamadbah2/flocktracker/internal/repository/storetest"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "flock.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) repository.Store {
		return openTestStore(t)
	})
}

func TestOpenCreatesDirectoryAndIsReentrant(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "flock.db")
	ctx := context.Background()

	s, err := Open(path, nil)
	require.NoError(t, err)
	_, err = s.ReplaceDay(ctx, "2024-05-01", []models.DailyCount{{Breed: "Silkie", Stage: "Hatch", Count: 3}})
	require.NoError(t, err)
	require.NoError(t, s.Close(ctx))

	reopened, err := Open(path, nil)
	require.NoError(t, err)
	defer reopened.Close(ctx)

	rows, err := reopened.Latest(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, models.Count(3), rows[0].Count)
}

func TestReplaceDayRemovesChildRows(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	b := models.Breeders{Females: 2, Males: 1}
	j := models.Juvenile{Unknown: 4}
	_, err := s.ReplaceDay(ctx, "2024-05-01", []models.DailyCount{
		{Breed: "Silkie", Stage: models.StageBreeder, Count: 3, Breeders: &b},
		{Breed: "Silkie", Stage: models.StageJuvenile, Count: 4, Juveniles: &j},
	})
	require.NoError(t, err)
	_, err = s.ReplaceDay(ctx, "2024-05-01", nil)
	require.NoError(t, err)

	for _, table := range []string{"daily_counts", "breeders", "juveniles"} {
		var n int
		require.NoError(t, s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n))
		assert.Zero(t, n, table)
	}
}

func TestUniqueConstraintHolds(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO daily_counts (id, date, breed, stage, count, created_at) VALUES ('a', '2024-05-01', 'Silkie', 'Hatch', 1, '')`)
	require.NoError(t, err)
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO daily_counts (id, date, breed, stage, count, created_at) VALUES ('b', '2024-05-01', 'Silkie', 'Hatch', 2, '')`)
	assert.Error(t, err)
}

func TestNegativeCountsRejectedBySchema(t *testing.T) {
	s := openTestStore(t)
	_, err := s.db.ExecContext(context.Background(),
		`INSERT INTO daily_counts (id, date, breed, stage, count, created_at) VALUES ('a', '2024-05-01', 'Silkie', 'Hatch', -1, '')`)
	assert.Error(t, err)
}
