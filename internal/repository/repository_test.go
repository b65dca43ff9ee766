package repository

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/flocktracker/internal/domain/models"
)

func TestNewIDIsVersion7(t *testing.T) {
	id, err := uuid.Parse(NewID())
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())
	assert.NotEqual(t, NewID(), NewID())
}

func TestPrepareStampsRows(t *testing.T) {
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	rows, err := Prepare("2024-05-01", []models.DailyCount{
		{Breed: "Silkie", Stage: "Hatch", Count: 2},
		{Breed: "Silkie", Stage: "Incubator", Count: 1},
	}, at)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, r := range rows {
		assert.NotEmpty(t, r.ID)
		assert.Equal(t, models.Date("2024-05-01"), r.Date)
		assert.Equal(t, at, r.CreatedAt)
	}
}

func TestPrepareRejectsDuplicates(t *testing.T) {
	_, err := Prepare("2024-05-01", []models.DailyCount{
		{Breed: "Silkie", Stage: "Hatch", Count: 2},
		{Breed: "Silkie", Stage: "Hatch", Count: 3},
	}, time.Now())
	assert.True(t, errors.Is(err, models.ErrInvalidInput))

	_, err = Prepare("", nil, time.Now())
	assert.True(t, errors.Is(err, models.ErrInvalidInput))
}

func TestInRange(t *testing.T) {
	q := models.RangeQuery{Start: "2024-05-01", End: "2024-05-03"}
	assert.True(t, InRange(models.DailyCount{Date: "2024-05-01"}, q))
	assert.True(t, InRange(models.DailyCount{Date: "2024-05-03"}, q))
	assert.False(t, InRange(models.DailyCount{Date: "2024-05-04"}, q))

	q.Breed = "Silkie"
	assert.False(t, InRange(models.DailyCount{Date: "2024-05-02", Breed: "Serama"}, q))
}

func TestFailKeepsBothErrors(t *testing.T) {
	cause := errors.New("disk full")
	err := Fail("insert row", cause)
	assert.True(t, errors.Is(err, models.ErrStorageFailure))
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "insert row")
}
