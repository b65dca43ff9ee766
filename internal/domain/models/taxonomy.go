package models

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// UnknownCategory is reported for breeds missing from the taxonomy.
	UnknownCategory = "Unknown"
	// StageBreeder labels the stored row that carries breeder counts.
	StageBreeder = "Breeder"
	// StageJuvenile labels the stored row that carries juvenile counts. It is
	// also the pseudo-stage accepted by the stage totals.
	StageJuvenile = "Juvenile"
)

// Category groups breeds of one species.
type Category struct {
	Name   string   `yaml:"name" json:"name"`
	Breeds []string `yaml:"breeds" json:"breeds"`
}

// Taxonomy is the immutable breed/stage catalogue. Build it with NewTaxonomy,
// DefaultTaxonomy or LoadTaxonomy and share it by pointer.
type Taxonomy struct {
	categories []Category
	stages     []string
	categoryOf map[string]string
	stageRank  map[string]int
}

type taxonomyFile struct {
	Categories []Category `yaml:"categories"`
	Stages     []string   `yaml:"stages"`
}

// NewTaxonomy validates the catalogue and takes private copies of its slices.
func NewTaxonomy(categories []Category, stages []string) (*Taxonomy, error) {
	if len(categories) == 0 {
		return nil, errors.New("taxonomy needs at least one category")
	}
	t := &Taxonomy{
		categoryOf: make(map[string]string),
		stageRank:  make(map[string]int),
	}
	seenCategory := make(map[string]bool)
	for _, c := range categories {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return nil, errors.New("taxonomy category name must not be empty")
		}
		if seenCategory[name] {
			return nil, fmt.Errorf("taxonomy category %q listed twice", name)
		}
		seenCategory[name] = true
		breeds := make([]string, 0, len(c.Breeds))
		for _, b := range c.Breeds {
			b = strings.TrimSpace(b)
			if b == "" {
				return nil, fmt.Errorf("taxonomy category %q has an empty breed name", name)
			}
			if prev, ok := t.categoryOf[b]; ok {
				return nil, fmt.Errorf("breed %q listed under both %q and %q", b, prev, name)
			}
			t.categoryOf[b] = name
			breeds = append(breeds, b)
		}
		t.categories = append(t.categories, Category{Name: name, Breeds: breeds})
	}
	for i, s := range stages {
		s = strings.TrimSpace(s)
		switch {
		case s == "":
			return nil, errors.New("taxonomy stage name must not be empty")
		case s == StageBreeder || s == StageJuvenile:
			return nil, fmt.Errorf("stage name %q is reserved", s)
		}
		if _, ok := t.stageRank[s]; ok {
			return nil, fmt.Errorf("stage %q listed twice", s)
		}
		t.stageRank[s] = i
		t.stages = append(t.stages, s)
	}
	return t, nil
}

// LoadTaxonomy reads a YAML catalogue. An empty path yields DefaultTaxonomy.
func LoadTaxonomy(path string) (*Taxonomy, error) {
	if path == "" {
		return DefaultTaxonomy(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read taxonomy file %s: %w", path, err)
	}
	var f taxonomyFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse taxonomy file %s: %w", path, err)
	}
	t, err := NewTaxonomy(f.Categories, f.Stages)
	if err != nil {
		return nil, fmt.Errorf("taxonomy file %s: %w", path, err)
	}
	return t, nil
}

// DefaultTaxonomy returns the farm's built-in catalogue.
func DefaultTaxonomy() *Taxonomy {
	t, err := NewTaxonomy(defaultCategories, defaultStages)
	if err != nil {
		panic(err)
	}
	return t
}

var defaultStages = []string{"Incubator", "Hatch", "1 Month", "2 Month"}

var defaultCategories = []Category{
	{Name: "Chickens", Breeds: []string{
		"Ayam Cemani", "Bantam Cochin", "Bantam Lyonnaise", "Bantam Orpington",
		"Bielfelder", "Copper Marans", "Cream Legbar", "Easter Egger",
		"Favaucana", "Gold Laced Polish", "Hedemora", "Heritage Plymouth Rock",
		"Heritage Rhode Island White", "Hmong", "Icelandic", "Lyonnaise",
		"Olive Egger", "Pavlovskaya", "Salmon Faverolles", "Sanjak Longcrower",
		"Serama", "Seranaise", "Silkie", "Silkie Showgirl", "Silver Laced Polish",
		"Swedish Flower Hens", "Tolbunt Polish", "Whiting True Blue",
	}},
	{Name: "Ducks", Breeds: []string{"Bantam Silkie Ducks", "Cayuga Duck", "Heritage Ducks", "Silver Appleyard Duck"}},
	{Name: "Geese", Breeds: []string{"Roman Geese"}},
	{Name: "Turkeys", Breeds: []string{"Heritage Turkey", "Black Spanish Turkey", "Narragansett Turkey"}},
	{Name: "Guinea Fowl", Breeds: []string{"Guinea Fowl"}},
	{Name: "Quail", Breeds: []string{"Button Quail", "Celadon Coturnix Quail", "Pharaoh Coturnix Quail"}},
}

// CategoryOf returns the category of breed, or UnknownCategory.
func (t *Taxonomy) CategoryOf(breed string) string {
	if c, ok := t.categoryOf[breed]; ok {
		return c
	}
	return UnknownCategory
}

// HasBreed reports whether breed is part of the catalogue.
func (t *Taxonomy) HasBreed(breed string) bool {
	_, ok := t.categoryOf[breed]
	return ok
}

// HasStage reports whether stage is one of the growth stages.
func (t *Taxonomy) HasStage(stage string) bool {
	_, ok := t.stageRank[stage]
	return ok
}

// Categories returns a copy of the categories in display order.
func (t *Taxonomy) Categories() []Category {
	out := make([]Category, len(t.categories))
	for i, c := range t.categories {
		out[i] = Category{Name: c.Name, Breeds: append([]string(nil), c.Breeds...)}
	}
	return out
}

// BreedsIn returns the breeds of category, or nil when it does not exist.
func (t *Taxonomy) BreedsIn(category string) []string {
	for _, c := range t.categories {
		if c.Name == category {
			return append([]string(nil), c.Breeds...)
		}
	}
	return nil
}

// Breeds lists every breed in category order.
func (t *Taxonomy) Breeds() []string {
	out := make([]string, 0, len(t.categoryOf))
	for _, c := range t.categories {
		out = append(out, c.Breeds...)
	}
	return out
}

// Stages returns the growth stages in order.
func (t *Taxonomy) Stages() []string {
	return append([]string(nil), t.stages...)
}

// StageRank orders stored stage labels: Breeder, Juvenile, the growth stages,
// then anything else.
func (t *Taxonomy) StageRank(stage string) int {
	switch stage {
	case StageBreeder:
		return 0
	case StageJuvenile:
		return 1
	}
	if r, ok := t.stageRank[stage]; ok {
		return r + 2
	}
	return len(t.stages) + 2
}

// NewModel returns a zeroed CountModel holding every breed.
func (t *Taxonomy) NewModel() CountModel {
	m := make(CountModel, len(t.categoryOf))
	for breed := range t.categoryOf {
		m[breed] = NewBreedCount(t.stages)
	}
	return m
}
