package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateInUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*60*60)
	ts := time.Date(2024, 3, 2, 2, 30, 0, 0, time.UTC)

	assert.Equal(t, Date("2024-03-01"), DateIn(ts, loc))
	assert.Equal(t, Date("2024-03-02"), DateIn(ts, time.UTC))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-05-06T10:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, Date("2024-05-06"), d)

	_, err = ParseDate("06/05/2024")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidInput))

	_, err = ParseDate("")
	require.Error(t, err)
}

func TestDateOrdering(t *testing.T) {
	assert.True(t, Date("2024-01-31").Before("2024-02-01"))
	assert.True(t, Date("2024-12-01").After("2024-02-01"))
	assert.True(t, Date("").IsZero())
}
