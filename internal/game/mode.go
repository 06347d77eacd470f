package game

import (
	"fmt"
	"math"
	"strings"

	"github.com/susu3304/geoquiz/internal/scoring"
)

// Mode decides how a guess turns into score and how standings sort.
type Mode struct {
	Name  string
	Table scoring.Table
	// HigherIsBetter sorts the leaderboard by descending score.
	HigherIsBetter bool
	// DistanceAsScore adds the rounded kilometres instead of tier points.
	// Table then only supplies the feedback label.
	DistanceAsScore bool
}

var (
	ModeClassic  = Mode{Name: "classic", Table: scoring.Points, HigherIsBetter: true}
	ModeCompact  = Mode{Name: "compact", Table: scoring.Compact, HigherIsBetter: true}
	ModeDistance = Mode{Name: "distance", Table: scoring.Points, DistanceAsScore: true}
)

var modes = []Mode{ModeClassic, ModeCompact, ModeDistance}

func ParseMode(name string) (Mode, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return ModeClassic, nil
	}
	for _, m := range modes {
		if m.Name == n {
			return m, nil
		}
	}
	return Mode{}, fmt.Errorf("%w: %q", ErrUnknownMode, name)
}

// ModeNames lists the built-in modes, default first.
func ModeNames() []string {
	names := make([]string, len(modes))
	for i, m := range modes {
		names[i] = m.Name
	}
	return names
}

func (m Mode) award(o scoring.Outcome) int {
	if m.DistanceAsScore {
		return int(math.Round(o.DistanceKm))
	}
	return o.Points()
}

// better reports whether score a ranks ahead of b.
func (m Mode) better(a, b int) bool {
	if m.HigherIsBetter {
		return a > b
	}
	return a < b
}

// Modes resolves mode names for a front end, adding a "custom" mode when an
// operator supplied their own tier table.
type Modes struct {
	custom *Mode
}

func NewModes(custom *scoring.Table) Modes {
	if custom == nil {
		return Modes{}
	}
	m := Mode{Name: "custom", Table: *custom, HigherIsBetter: true}
	return Modes{custom: &m}
}

func (m Modes) Parse(name string) (Mode, error) {
	if m.custom != nil && strings.EqualFold(strings.TrimSpace(name), m.custom.Name) {
		return *m.custom, nil
	}
	return ParseMode(name)
}

func (m Modes) Names() []string {
	names := ModeNames()
	if m.custom != nil {
		names = append(names, m.custom.Name)
	}
	return names
}

// Table resolves a tier table by name: a preset, or the custom table under
// either "custom" or its own name.
func (m Modes) Table(name string) (scoring.Table, error) {
	if m.custom != nil {
		n := strings.TrimSpace(name)
		if strings.EqualFold(n, m.custom.Name) || strings.EqualFold(n, m.custom.Table.Name()) {
			return m.custom.Table, nil
		}
	}
	return scoring.Preset(name)
}

// TableNames lists the names Table accepts, presets first.
func (m Modes) TableNames() []string {
	names := scoring.PresetNames()
	if m.custom != nil {
		names = append(names, m.custom.Name)
	}
	return names
}

// All lists every resolvable mode in Names order.
func (m Modes) All() []Mode {
	out := append([]Mode(nil), modes...)
	if m.custom != nil {
		out = append(out, *m.custom)
	}
	return out
}
