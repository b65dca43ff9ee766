// Package storetest holds the behaviour every repository.Store must share.
package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/flocktracker/internal/domain/models"
	"github.com/mamadbah2/flocktracker/internal/repository"
)

// Run exercises a fresh store from newStore in every subtest.
func Run(t *testing.T, newStore func(t *testing.T) repository.Store) {
	t.Helper()

	t.Run("EmptyStore", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, err := s.LatestDate(ctx)
		assert.True(t, errors.Is(err, repository.ErrNotFound))

		rows, err := s.Latest(ctx)
		require.NoError(t, err)
		assert.Empty(t, rows)

		_, err = s.Get(ctx, repository.NewID())
		assert.True(t, errors.Is(err, repository.ErrNotFound))
	})

	t.Run("ReplaceDayRoundTrip", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		ids, err := s.ReplaceDay(ctx, "2024-05-01", scenarioRows())
		require.NoError(t, err)
		require.Len(t, ids, 3)

		rows, err := s.Latest(ctx)
		require.NoError(t, err)
		require.Len(t, rows, 3)

		byStage := map[string]models.DailyCount{}
		for _, r := range rows {
			assert.Equal(t, models.Date("2024-05-01"), r.Date)
			assert.Equal(t, "Ayam Cemani", r.Breed)
			byStage[r.Stage] = r
		}
		require.NotNil(t, byStage[models.StageBreeder].Breeders)
		assert.Equal(t, models.Breeders{Females: 1, Males: 1}, *byStage[models.StageBreeder].Breeders)
		assert.Equal(t, models.Count(2), byStage[models.StageBreeder].Count)
		require.NotNil(t, byStage[models.StageJuvenile].Juveniles)
		assert.Equal(t, models.Juvenile{Females: 1, Unknown: 1}, *byStage[models.StageJuvenile].Juveniles)
		assert.Nil(t, byStage["Incubator"].Breeders)
		assert.Nil(t, byStage["Incubator"].Juveniles)
		assert.Equal(t, models.Count(1), byStage["Incubator"].Count)

		got, err := s.Get(ctx, ids[0])
		require.NoError(t, err)
		assert.Equal(t, ids[0], got.ID)
	})

	t.Run("ReplaceDayIsIdempotent", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, err := s.ReplaceDay(ctx, "2024-05-01", scenarioRows())
		require.NoError(t, err)
		_, err = s.ReplaceDay(ctx, "2024-05-01", scenarioRows())
		require.NoError(t, err)

		rows, err := s.Range(ctx, models.RangeQuery{Start: "2024-05-01", End: "2024-05-01"})
		require.NoError(t, err)
		assert.Len(t, rows, 3)
	})

	t.Run("ReplaceDayDropsOldRows", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, err := s.ReplaceDay(ctx, "2024-05-01", scenarioRows())
		require.NoError(t, err)
		_, err = s.ReplaceDay(ctx, "2024-05-01", []models.DailyCount{
			{Breed: "Silkie", Stage: "Hatch", Count: 4},
		})
		require.NoError(t, err)

		rows, err := s.Latest(ctx)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "Silkie", rows[0].Breed)
		assert.Equal(t, models.Count(4), rows[0].Count)
	})

	t.Run("ReplaceDayKeepsOtherDays", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, err := s.ReplaceDay(ctx, "2024-05-01", []models.DailyCount{{Breed: "Silkie", Stage: "Hatch", Count: 1}})
		require.NoError(t, err)
		_, err = s.ReplaceDay(ctx, "2024-05-02", []models.DailyCount{{Breed: "Silkie", Stage: "Hatch", Count: 2}})
		require.NoError(t, err)

		latest, err := s.LatestDate(ctx)
		require.NoError(t, err)
		assert.Equal(t, models.Date("2024-05-02"), latest)

		rows, err := s.Range(ctx, models.RangeQuery{Start: "2024-05-01", End: "2024-05-02"})
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, models.Date("2024-05-01"), rows[0].Date)
		assert.Equal(t, models.Date("2024-05-02"), rows[1].Date)
	})

	t.Run("RangeFiltersByBreed", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, err := s.ReplaceDay(ctx, "2024-05-01", []models.DailyCount{
			{Breed: "Silkie", Stage: "Hatch", Count: 1},
			{Breed: "Serama", Stage: "Hatch", Count: 2},
		})
		require.NoError(t, err)

		rows, err := s.Range(ctx, models.RangeQuery{Breed: "Serama", Start: "2024-04-01", End: "2024-06-01"})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "Serama", rows[0].Breed)

		rows, err = s.Range(ctx, models.RangeQuery{Start: "2024-05-02", End: "2024-06-01"})
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("DuplicateRowsRejected", func(t *testing.T) {
		s := newStore(t)
		_, err := s.ReplaceDay(context.Background(), "2024-05-01", []models.DailyCount{
			{Breed: "Silkie", Stage: "Hatch", Count: 1},
			{Breed: "Silkie", Stage: "Hatch", Count: 2},
		})
		assert.True(t, errors.Is(err, models.ErrInvalidInput))
	})

	t.Run("ReadsDuringReplaceAreWhole", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		q := models.RangeQuery{Start: "2024-05-01", End: "2024-05-01"}

		_, err := s.ReplaceDay(ctx, "2024-05-01", breederRows(1))
		require.NoError(t, err)

		writeErr := make(chan error, 1)
		go func() {
			for i := 2; i <= 20; i++ {
				if _, err := s.ReplaceDay(ctx, "2024-05-01", breederRows(i)); err != nil {
					writeErr <- err
					return
				}
			}
			writeErr <- nil
		}()

		check := func(rows []models.DailyCount) {
			for _, r := range rows {
				require.NotNil(t, r.Breeders, "breeder row %s lost its split", r.ID)
				assert.Equal(t, r.Count, r.Breeders.Total())
			}
		}
		for done := false; !done; {
			select {
			case err := <-writeErr:
				require.NoError(t, err)
				done = true
			default:
			}
			rows, err := s.Range(ctx, q)
			require.NoError(t, err)
			check(rows)
			rows, err = s.Latest(ctx)
			require.NoError(t, err)
			check(rows)
		}
	})

	t.Run("DeleteAll", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, err := s.ReplaceDay(ctx, "2024-05-01", scenarioRows())
		require.NoError(t, err)

		n, err := s.DeleteAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, n)

		_, err = s.LatestDate(ctx)
		assert.True(t, errors.Is(err, repository.ErrNotFound))
	})
}

// breederRows is one Silkie breeding group with the given hen count and a
// single rooster.
func breederRows(females int) []models.DailyCount {
	bc := models.BreedCount{Breeders: models.Breeders{Females: models.Count(females), Males: 1}}
	return models.RowsFor("", "Silkie", bc, nil)
}

// scenarioRows is one Ayam Cemani with a breeding pair, two juveniles and one
// egg in the incubator.
func scenarioRows() []models.DailyCount {
	bc := models.NewBreedCount([]string{"Incubator", "Hatch"})
	bc.Breeders = models.Breeders{Females: 1, Males: 1}
	bc.Juvenile = models.Juvenile{Females: 1, Unknown: 1}
	bc.Stages["Incubator"] = 1
	return models.RowsFor("", "Ayam Cemani", bc, []string{"Incubator", "Hatch"})
}
