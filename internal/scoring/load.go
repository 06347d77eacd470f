package scoring

import (
	"io"
	"math"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

type tableFile struct {
	Name  string     `yaml:"name"`
	Tiers []tierFile `yaml:"tiers"`
}

// BelowKm left out marks the catch-all tier.
type tierFile struct {
	BelowKm *float64 `yaml:"below_km"`
	Points  int      `yaml:"points"`
	Label   string   `yaml:"label"`
}

// LoadTable reads a YAML tier table:
//
//	name: regional
//	tiers:
//	  - {below_km: 5, points: 10, label: "Spot on"}
//	  - {points: 0, label: "Elsewhere"}
//
// The result goes through NewTable, so a malformed table never reaches Score.
func LoadTable(r io.Reader) (Table, error) {
	var f tableFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return Table{}, eris.Wrap(err, "scoring: decode tier table")
	}

	tiers := make([]Tier, 0, len(f.Tiers))
	for _, tf := range f.Tiers {
		threshold := math.Inf(1)
		if tf.BelowKm != nil {
			threshold = *tf.BelowKm
		}
		tiers = append(tiers, Tier{ThresholdKm: threshold, Points: tf.Points, Label: tf.Label})
	}

	t, err := NewTable(f.Name, tiers...)
	if err != nil {
		return Table{}, eris.Wrap(err, "scoring: load tier table")
	}
	return t, nil
}
