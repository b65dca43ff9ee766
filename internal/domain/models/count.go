package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Count is a non-negative head count.
type Count int

// ParseCount strictly parses a form or query value. Empty input is zero.
func ParseCount(raw string) (Count, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: count %q is not a whole number", ErrInvalidInput, raw)
	}
	return NewCount(n)
}

// NewCount validates n and converts it to a Count.
func NewCount(n int) (Count, error) {
	if n < 0 {
		return 0, fmt.Errorf("%w: count %d is negative", ErrInvalidInput, n)
	}
	return Count(n), nil
}

// CoerceCount turns anything into a Count, falling back to zero for values
// that are missing, negative or not numeric. Fractions are truncated.
func CoerceCount(v any) Count {
	switch n := v.(type) {
	case nil:
		return 0
	case Count:
		return clamp(float64(n))
	case int:
		return clamp(float64(n))
	case int64:
		return clamp(float64(n))
	case float64:
		return clamp(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0
		}
		return clamp(f)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		return clamp(f)
	default:
		return 0
	}
}

func clamp(f float64) Count {
	if math.IsNaN(f) || f <= 0 {
		return 0
	}
	if f >= math.MaxInt32 {
		return Count(math.MaxInt32)
	}
	return Count(int(f))
}

// UnmarshalJSON accepts numbers, numeric strings and null.
func (c *Count) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		*c = 0
		return nil
	}
	*c = CoerceCount(v)
	return nil
}

// BreederSex selects one of the breeder counters.
type BreederSex string

const (
	BreederFemales BreederSex = "females"
	BreederMales   BreederSex = "males"
)

// JuvenileSex selects one of the juvenile counters.
type JuvenileSex string

const (
	JuvenileMales   JuvenileSex = "males"
	JuvenileFemales JuvenileSex = "females"
	JuvenileUnknown JuvenileSex = "unknown"
)

// Breeders holds adult birds kept for reproduction.
type Breeders struct {
	Females Count `json:"females" bson:"females"`
	Males   Count `json:"males" bson:"males"`
}

// Total returns females plus males.
func (b Breeders) Total() Count { return b.Females + b.Males }

// IsZero reports whether no breeders are recorded.
func (b Breeders) IsZero() bool { return b.Females == 0 && b.Males == 0 }

// Get returns the counter for sex.
func (b Breeders) Get(sex BreederSex) (Count, bool) {
	switch sex {
	case BreederFemales:
		return b.Females, true
	case BreederMales:
		return b.Males, true
	}
	return 0, false
}

// With returns a copy with the counter for sex replaced.
func (b Breeders) With(sex BreederSex, v Count) (Breeders, bool) {
	switch sex {
	case BreederFemales:
		b.Females = v
	case BreederMales:
		b.Males = v
	default:
		return b, false
	}
	return b, true
}

// Juvenile holds young birds, sexed or not.
type Juvenile struct {
	Males   Count `json:"males" bson:"males"`
	Females Count `json:"females" bson:"females"`
	Unknown Count `json:"unknown" bson:"unknown"`
}

// Total returns the sum of all juvenile counters.
func (j Juvenile) Total() Count { return j.Males + j.Females + j.Unknown }

// IsZero reports whether no juveniles are recorded.
func (j Juvenile) IsZero() bool { return j.Males == 0 && j.Females == 0 && j.Unknown == 0 }

// Get returns the counter for sex.
func (j Juvenile) Get(sex JuvenileSex) (Count, bool) {
	switch sex {
	case JuvenileMales:
		return j.Males, true
	case JuvenileFemales:
		return j.Females, true
	case JuvenileUnknown:
		return j.Unknown, true
	}
	return 0, false
}

// With returns a copy with the counter for sex replaced.
func (j Juvenile) With(sex JuvenileSex, v Count) (Juvenile, bool) {
	switch sex {
	case JuvenileMales:
		j.Males = v
	case JuvenileFemales:
		j.Females = v
	case JuvenileUnknown:
		j.Unknown = v
	default:
		return j, false
	}
	return j, true
}

// BreedCount is the full set of counters tracked for one breed.
type BreedCount struct {
	Breeders Breeders         `json:"breeders"`
	Juvenile Juvenile         `json:"juvenile"`
	Stages   map[string]Count `json:"stages"`
}

// NewBreedCount returns a zeroed BreedCount with an entry for every stage.
func NewBreedCount(stages []string) BreedCount {
	bc := BreedCount{Stages: make(map[string]Count, len(stages))}
	for _, s := range stages {
		bc.Stages[s] = 0
	}
	return bc
}

// IsEmpty reports whether every counter is zero.
func (bc BreedCount) IsEmpty() bool {
	if !bc.Breeders.IsZero() || !bc.Juvenile.IsZero() {
		return false
	}
	for _, n := range bc.Stages {
		if n > 0 {
			return false
		}
	}
	return true
}

// Clone returns a copy that shares no maps with bc. A nil stage map stays nil.
func (bc BreedCount) Clone() BreedCount {
	out := BreedCount{Breeders: bc.Breeders, Juvenile: bc.Juvenile}
	if bc.Stages != nil {
		out.Stages = make(map[string]Count, len(bc.Stages))
		for k, v := range bc.Stages {
			out.Stages[k] = v
		}
	}
	return out
}

// CountModel maps breed name to its counters.
type CountModel map[string]BreedCount

// Clone deep-copies the model.
func (m CountModel) Clone() CountModel {
	out := make(CountModel, len(m))
	for breed, bc := range m {
		out[breed] = bc.Clone()
	}
	return out
}

// NonEmpty returns only the breeds with at least one counter above zero.
func (m CountModel) NonEmpty() CountModel {
	out := make(CountModel)
	for breed, bc := range m {
		if !bc.IsEmpty() {
			out[breed] = bc.Clone()
		}
	}
	return out
}
