// Package places holds the reference list of guessable locations, grouped by
// difficulty.
package places

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/susu3304/geoquiz/internal/geo"
)

type Difficulty string

const (
	Simple Difficulty = "simple"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// Difficulties lists the known categories, easiest first.
var Difficulties = []Difficulty{Simple, Medium, Hard}

var (
	ErrUnknownDifficulty = errors.New("unknown difficulty")
	ErrEmptyDifficulty   = errors.New("no places for difficulty")
)

// Center is where the map opens, with the zoom level that fits mainland France.
var Center = geo.Coordinate{Lat: 46.603354, Lng: 1.888334}

const DefaultZoom = 6

func ParseDifficulty(s string) (Difficulty, error) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Difficulties {
		if d == known {
			return d, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDifficulty, s)
}

type Place struct {
	Name     string         `json:"name" yaml:"name"`
	Location geo.Coordinate `json:"location" yaml:",inline"`
}

// Rand is the subset of *rand.Rand (math/rand/v2) used for picking.
type Rand interface {
	IntN(n int) int
}

// Catalog maps each difficulty to an ordered, non-empty list of places.
type Catalog struct {
	byDifficulty map[Difficulty][]Place
}

// Places returns the list for d in catalog order.
func (c *Catalog) Places(d Difficulty) ([]Place, error) {
	list, ok := c.byDifficulty[d]
	if !ok {
		if _, err := ParseDifficulty(string(d)); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s", ErrEmptyDifficulty, d)
	}
	out := make([]Place, len(list))
	copy(out, list)
	return out, nil
}

// Pick draws a place for d uniformly at random.
func (c *Catalog) Pick(d Difficulty, rng Rand) (Place, error) {
	list, err := c.Places(d)
	if err != nil {
		return Place{}, err
	}
	i := rng.IntN(len(list))
	if i < 0 || i >= len(list) {
		return Place{}, fmt.Errorf("places: index %d out of range for %d %s places", i, len(list), d)
	}
	return list[i], nil
}

// Difficulties returns the categories present in c, easiest first.
func (c *Catalog) Difficulties() []Difficulty {
	var out []Difficulty
	for _, d := range Difficulties {
		if _, ok := c.byDifficulty[d]; ok {
			out = append(out, d)
		}
	}
	return out
}

// Load parses a YAML catalog keyed by difficulty name.
func Load(r io.Reader) (*Catalog, error) {
	var raw map[string][]Place
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		return nil, eris.Wrap(err, "places: decode catalog")
	}
	if len(raw) == 0 {
		return nil, eris.New("places: catalog is empty")
	}

	c := &Catalog{byDifficulty: make(map[Difficulty][]Place, len(raw))}
	for key, list := range raw {
		d, err := ParseDifficulty(key)
		if err != nil {
			return nil, eris.Wrap(err, "places: catalog")
		}
		if len(list) == 0 {
			return nil, eris.Wrapf(ErrEmptyDifficulty, "places: %s", d)
		}
		for i, p := range list {
			if strings.TrimSpace(p.Name) == "" {
				return nil, eris.Errorf("places: %s entry %d has no name", d, i)
			}
			if err := p.Location.Validate(); err != nil {
				return nil, eris.Wrapf(err, "places: %s", p.Name)
			}
		}
		c.byDifficulty[d] = list
	}
	return c, nil
}

//go:embed places.yaml
var embedded []byte

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the built-in catalog of French cities.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Load(bytes.NewReader(embedded))
		if err != nil {
			panic(err)
		}
		defaultCatalog = c
	})
	return defaultCatalog
}
