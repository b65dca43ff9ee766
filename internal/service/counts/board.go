package counts

import (
	"fmt"
	"math"
	"sync"

	"go.uber.org/zap"

	"github.com/mamadbah2/flocktracker/internal/domain/models"
)

// Group names a counter group of a breed.
type Group string

const (
	GroupBreeders Group = "breeders"
	GroupJuvenile Group = "juvenile"
	GroupStages   Group = "stages"
)

// Field addresses one counter: a breed, a group and the sex or stage inside it.
type Field struct {
	Breed string `json:"breed"`
	Group Group  `json:"group"`
	Name  string `json:"field"`
}

// Board is the in-progress edit session. Every known breed is present from
// the start, and readers only ever see deep copies.
type Board struct {
	mu       sync.RWMutex
	taxonomy *models.Taxonomy
	model    models.CountModel
	version  uint64

	listenersMu sync.Mutex
	listeners   []func()

	logger *zap.Logger
}

// NewBoard builds a zeroed board for every breed of the taxonomy.
func NewBoard(taxonomy *models.Taxonomy, logger *zap.Logger) *Board {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Board{
		taxonomy: taxonomy,
		model:    taxonomy.NewModel(),
		logger:   logger,
	}
}

// OnChange registers fn to run after every mutation, outside the board lock.
func (b *Board) OnChange(fn func()) {
	b.listenersMu.Lock()
	defer b.listenersMu.Unlock()
	b.listeners = append(b.listeners, fn)
}

// Snapshot returns a deep copy of the model and the version it belongs to.
func (b *Board) Snapshot() (models.CountModel, uint64) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.model.Clone(), b.version
}

// Version returns the number of mutations applied so far.
func (b *Board) Version() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.version
}

// Breed returns a copy of the counters of one breed.
func (b *Board) Breed(breed string) (models.BreedCount, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	bc, ok := b.model[breed]
	if !ok {
		return models.BreedCount{}, unknownBreed(breed)
	}
	return bc.Clone(), nil
}

// Set replaces a single counter.
func (b *Board) Set(f Field, value int) (models.Count, error) {
	n, err := models.NewCount(value)
	if err != nil {
		return 0, err
	}
	return b.update(f, func(models.Count) models.Count { return n })
}

// SetBreeders replaces one breeder counter of breed.
func (b *Board) SetBreeders(breed string, sex models.BreederSex, value int) error {
	_, err := b.Set(Field{Breed: breed, Group: GroupBreeders, Name: string(sex)}, value)
	return err
}

// SetJuvenile replaces one juvenile counter of breed.
func (b *Board) SetJuvenile(breed string, sex models.JuvenileSex, value int) error {
	_, err := b.Set(Field{Breed: breed, Group: GroupJuvenile, Name: string(sex)}, value)
	return err
}

// SetStage replaces the count of one growth stage of breed.
func (b *Board) SetStage(breed, stage string, value int) error {
	_, err := b.Set(Field{Breed: breed, Group: GroupStages, Name: stage}, value)
	return err
}

// Step adds delta to a counter, stopping at zero and at math.MaxInt32, and
// returns the new value.
func (b *Board) Step(f Field, delta int) (models.Count, error) {
	return b.update(f, func(cur models.Count) models.Count {
		switch {
		case delta >= math.MaxInt32:
			return models.Count(math.MaxInt32)
		case delta <= -math.MaxInt32:
			return 0
		}
		next := int64(cur) + int64(delta)
		switch {
		case next < 0:
			next = 0
		case next > math.MaxInt32:
			next = math.MaxInt32
		}
		return models.Count(next)
	})
}

// Replace swaps the whole model, e.g. when rehydrating from a stored
// snapshot. Unknown breeds are dropped and missing ones are zeroed.
func (b *Board) Replace(m models.CountModel) {
	next := b.taxonomy.NewModel()
	stages := b.taxonomy.Stages()
	for breed, bc := range m {
		if _, ok := next[breed]; !ok {
			b.logger.Warn("dropping unknown breed on replace", zap.String("breed", breed))
			continue
		}
		clean := models.NewBreedCount(stages)
		clean.Breeders = bc.Breeders
		clean.Juvenile = bc.Juvenile
		for _, s := range stages {
			clean.Stages[s] = bc.Stages[s]
		}
		next[breed] = clean
	}

	b.mu.Lock()
	b.model = next
	b.version++
	b.mu.Unlock()
	b.notify()
}

// Reset zeroes every counter.
func (b *Board) Reset() {
	b.mu.Lock()
	b.model = b.taxonomy.NewModel()
	b.version++
	b.mu.Unlock()
	b.notify()
}

func (b *Board) update(f Field, apply func(models.Count) models.Count) (models.Count, error) {
	b.mu.Lock()
	cur, ok := b.model[f.Breed]
	if !ok {
		b.mu.Unlock()
		return 0, unknownBreed(f.Breed)
	}

	next := cur
	var value models.Count
	switch f.Group {
	case GroupBreeders:
		old, ok := cur.Breeders.Get(models.BreederSex(f.Name))
		if !ok {
			b.mu.Unlock()
			return 0, fmt.Errorf("%w: unknown breeder sex %q", models.ErrInvalidInput, f.Name)
		}
		value = apply(old)
		next.Breeders, _ = cur.Breeders.With(models.BreederSex(f.Name), value)
	case GroupJuvenile:
		old, ok := cur.Juvenile.Get(models.JuvenileSex(f.Name))
		if !ok {
			b.mu.Unlock()
			return 0, fmt.Errorf("%w: unknown juvenile sex %q", models.ErrInvalidInput, f.Name)
		}
		value = apply(old)
		next.Juvenile, _ = cur.Juvenile.With(models.JuvenileSex(f.Name), value)
	case GroupStages:
		if !b.taxonomy.HasStage(f.Name) {
			b.mu.Unlock()
			return 0, fmt.Errorf("%w: unknown stage %q", models.ErrInvalidInput, f.Name)
		}
		value = apply(cur.Stages[f.Name])
		next = cur.Clone()
		if next.Stages == nil {
			next.Stages = make(map[string]models.Count, 1)
		}
		next.Stages[f.Name] = value
	default:
		b.mu.Unlock()
		return 0, fmt.Errorf("%w: unknown counter group %q", models.ErrInvalidInput, f.Group)
	}

	b.model[f.Breed] = next
	b.version++
	b.mu.Unlock()

	b.notify()
	return value, nil
}

func (b *Board) notify() {
	b.listenersMu.Lock()
	listeners := append([]func(){}, b.listeners...)
	b.listenersMu.Unlock()
	for _, fn := range listeners {
		fn()
	}
}

func unknownBreed(breed string) error {
	return fmt.Errorf("%w: unknown breed %q", models.ErrInvalidInput, breed)
}
