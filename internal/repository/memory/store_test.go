package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/flocktracker/internal/domain/models"
	"github.com/mamadbah2/flocktracker/internal/repository"
	"github.com/mamadbah2/flocktracker/internal/repository/storetest"
)

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) repository.Store {
		return NewStore()
	})
}

func TestFailNextWrite(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	s.FailNextWrite(errors.New("boom"))

	_, err := s.ReplaceDay(ctx, "2024-05-01", []models.DailyCount{{Breed: "Silkie", Stage: "Hatch", Count: 1}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrStorageFailure))

	_, err = s.ReplaceDay(ctx, "2024-05-01", []models.DailyCount{{Breed: "Silkie", Stage: "Hatch", Count: 1}})
	require.NoError(t, err)
}
