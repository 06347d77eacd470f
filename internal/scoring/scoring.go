// Package scoring maps a guess distance to points and a feedback label
// through an ordered table of distance tiers.
package scoring

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	ErrInvalidTable  = errors.New("invalid tier table")
	ErrUnknownPreset = errors.New("unknown tier table")
)

// Tier awards Points to any distance strictly below ThresholdKm that
// an earlier tier did not claim. The last tier of a table is the catch-all
// with ThresholdKm = +Inf.
type Tier struct {
	ThresholdKm float64
	Points      int
	Label       string
}

// CatchAll reports whether t matches every remaining distance.
func (t Tier) CatchAll() bool {
	return math.IsInf(t.ThresholdKm, 1)
}

// MarshalJSON writes the catch-all threshold as null; JSON has no infinity.
func (t Tier) MarshalJSON() ([]byte, error) {
	var below *float64
	if !t.CatchAll() {
		below = &t.ThresholdKm
	}
	return json.Marshal(struct {
		BelowKm *float64 `json:"below_km"`
		Points  int      `json:"points"`
		Label   string   `json:"label"`
	}{below, t.Points, t.Label})
}

// Table is an exhaustive tier table with strictly ascending thresholds.
// The zero value is not usable; build one with NewTable.
type Table struct {
	name  string
	tiers []Tier
}

// NewTable validates tiers and returns a table that scores every
// non-negative distance with exactly one tier.
func NewTable(name string, tiers ...Tier) (Table, error) {
	if strings.TrimSpace(name) == "" {
		return Table{}, fmt.Errorf("%w: name is empty", ErrInvalidTable)
	}
	if len(tiers) == 0 {
		return Table{}, fmt.Errorf("%w: %s has no tiers", ErrInvalidTable, name)
	}
	prev := 0.0
	for i, t := range tiers {
		switch {
		case math.IsNaN(t.ThresholdKm) || t.ThresholdKm <= 0:
			return Table{}, fmt.Errorf("%w: %s tier %d has threshold %v", ErrInvalidTable, name, i, t.ThresholdKm)
		case i > 0 && t.ThresholdKm <= prev:
			return Table{}, fmt.Errorf("%w: %s tier %d threshold %v does not exceed %v", ErrInvalidTable, name, i, t.ThresholdKm, prev)
		case strings.TrimSpace(t.Label) == "":
			return Table{}, fmt.Errorf("%w: %s tier %d has no label", ErrInvalidTable, name, i)
		}
		prev = t.ThresholdKm
	}
	if !tiers[len(tiers)-1].CatchAll() {
		return Table{}, fmt.Errorf("%w: %s has no catch-all tier", ErrInvalidTable, name)
	}

	own := make([]Tier, len(tiers))
	copy(own, tiers)
	return Table{name: name, tiers: own}, nil
}

// MustTable is NewTable for package-level presets.
func MustTable(name string, tiers ...Tier) Table {
	t, err := NewTable(name, tiers...)
	if err != nil {
		panic(err)
	}
	return t
}

func (t Table) Name() string { return t.name }

// Tiers returns a copy of the table rows in ascending order.
func (t Table) Tiers() []Tier {
	out := make([]Tier, len(t.tiers))
	copy(out, t.tiers)
	return out
}

// Score returns the first tier whose threshold distanceKm is strictly below.
func (t Table) Score(distanceKm float64) Outcome {
	for _, tier := range t.tiers {
		if distanceKm < tier.ThresholdKm {
			return Outcome{DistanceKm: distanceKm, Tier: tier}
		}
	}
	// Unreachable for tables built by NewTable except for NaN input.
	return Outcome{DistanceKm: distanceKm, Tier: t.tiers[len(t.tiers)-1]}
}

// ScoreForDistance is t.Score(distanceKm).
func ScoreForDistance(distanceKm float64, t Table) Outcome {
	return t.Score(distanceKm)
}

// Outcome is the scored result of a single guess.
type Outcome struct {
	DistanceKm float64 `json:"distance_km"`
	Tier       Tier    `json:"tier"`
}

func (o Outcome) Points() int   { return o.Tier.Points }
func (o Outcome) Label() string { return o.Tier.Label }

var inf = math.Inf(1)

var (
	// Points is the six-tier table of the single-player game.
	Points = MustTable("points",
		Tier{ThresholdKm: 10, Points: 1000, Label: "🎯 Perfect!"},
		Tier{ThresholdKm: 25, Points: 800, Label: "🎯 Excellent!"},
		Tier{ThresholdKm: 50, Points: 600, Label: "👍 Very good!"},
		Tier{ThresholdKm: 100, Points: 400, Label: "👌 Good!"},
		Tier{ThresholdKm: 200, Points: 200, Label: "🤔 Not bad..."},
		Tier{ThresholdKm: inf, Points: 50, Label: "😅 Oops!"},
	)

	// Compact is the four-tier table of the multi-player game.
	Compact = MustTable("compact",
		Tier{ThresholdKm: 50, Points: 3, Label: "🎯 Bullseye!"},
		Tier{ThresholdKm: 100, Points: 2, Label: "👍 Close!"},
		Tier{ThresholdKm: 200, Points: 1, Label: "🤔 Warm..."},
		Tier{ThresholdKm: inf, Points: 0, Label: "😅 Missed!"},
	)
)

var presets = map[string]Table{
	Points.Name():  Points,
	Compact.Name(): Compact,
}

// Preset returns the built-in table called name.
func Preset(name string) (Table, error) {
	t, ok := presets[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Table{}, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
	return t, nil
}

// PresetNames lists the built-in tables.
func PresetNames() []string {
	return []string{Points.Name(), Compact.Name()}
}
