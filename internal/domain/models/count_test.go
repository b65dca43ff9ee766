package models

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCount(t *testing.T) {
	cases := []struct {
		in      string
		want    Count
		wantErr bool
	}{
		{"", 0, false},
		{" 7 ", 7, false},
		{"0", 0, false},
		{"-1", 0, true},
		{"abc", 0, true},
		{"1.5", 0, true},
	}
	for _, tc := range cases {
		got, err := ParseCount(tc.in)
		if tc.wantErr {
			require.Error(t, err, tc.in)
			assert.True(t, errors.Is(err, ErrInvalidInput), tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestCountUnmarshalCoerces(t *testing.T) {
	var bc BreedCount
	raw := `{"breeders":{"females":"3","males":null},"juvenile":{"males":-4,"females":2.9},"stages":{"Hatch":"x","Incubator":5}}`
	require.NoError(t, json.Unmarshal([]byte(raw), &bc))

	assert.Equal(t, Count(3), bc.Breeders.Females)
	assert.Equal(t, Count(0), bc.Breeders.Males)
	assert.Equal(t, Count(0), bc.Juvenile.Males)
	assert.Equal(t, Count(2), bc.Juvenile.Females)
	assert.Equal(t, Count(0), bc.Juvenile.Unknown)
	assert.Equal(t, Count(0), bc.Stages["Hatch"])
	assert.Equal(t, Count(5), bc.Stages["Incubator"])
}

func TestBreedCountIsEmpty(t *testing.T) {
	bc := NewBreedCount([]string{"Incubator", "Hatch"})
	assert.True(t, bc.IsEmpty())

	bc.Stages["Hatch"] = 1
	assert.False(t, bc.IsEmpty())

	bc = NewBreedCount(nil)
	bc.Juvenile.Unknown = 1
	assert.False(t, bc.IsEmpty())
}

func TestCountModelCloneDoesNotAlias(t *testing.T) {
	m := CountModel{"Silkie": NewBreedCount([]string{"Hatch"})}
	c := m.Clone()
	c["Silkie"].Stages["Hatch"] = 9

	assert.Equal(t, Count(0), m["Silkie"].Stages["Hatch"])

	bare := CountModel{"Dodo": {Breeders: Breeders{Females: 2}}}
	assert.Equal(t, bare, bare.Clone())
	assert.Nil(t, bare.Clone()["Dodo"].Stages)
}

func TestNonEmptyDropsZeroBreeds(t *testing.T) {
	m := CountModel{
		"Silkie": NewBreedCount([]string{"Hatch"}),
		"Serama": {Breeders: Breeders{Males: 1}},
	}
	out := m.NonEmpty()
	assert.Len(t, out, 1)
	assert.Contains(t, out, "Serama")
}

func TestBreedersAndJuvenileWith(t *testing.T) {
	b, ok := Breeders{}.With(BreederMales, 4)
	require.True(t, ok)
	assert.Equal(t, Count(4), b.Males)

	_, ok = Breeders{}.With("roosters", 1)
	assert.False(t, ok)

	j, ok := Juvenile{}.With(JuvenileUnknown, 2)
	require.True(t, ok)
	n, ok := j.Get(JuvenileUnknown)
	require.True(t, ok)
	assert.Equal(t, Count(2), n)
}
