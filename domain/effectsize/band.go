// Package effectsize classifies Cohen's d values into display bands.
//
// Every surface (HTML grid, JSON API, XLSX export, terminal) colours cells
// through Classify; there is no second copy of the thresholds.
package effectsize

import (
	"fmt"
	"math"
)

// Band is an ordered effect-size severity category
type Band int

const (
	Unclassified Band = iota
	Negligible
	Small
	SmallModerate
	Moderate
	ModerateLarge
	Large
	VeryLarge
)

type bandInfo struct {
	name  string
	label string
	rng   string
	color string
	upper float64
}

var bands = [...]bandInfo{
	Unclassified:  {name: "UNCLASSIFIED", label: "Unclassified"},
	Negligible:    {name: "NEGLIGIBLE", label: "Negligible", rng: "< 0.2", color: "#96D377", upper: 0.2},
	Small:         {name: "SMALL", label: "Small", rng: "0.2 - 0.4", color: "#D9EAD3", upper: 0.4},
	SmallModerate: {name: "SMALL_MODERATE", label: "Small-Moderate", rng: "0.4 - 0.6", color: "#ECEED0", upper: 0.6},
	Moderate:      {name: "MODERATE", label: "Moderate", rng: "0.6 - 0.8", color: "#FEF2CC", upper: 0.8},
	ModerateLarge: {name: "MODERATE_LARGE", label: "Moderate-Large", rng: "0.8 - 1.0", color: "#F9DFCC", upper: 1.0},
	Large:         {name: "LARGE", label: "Large", rng: "1.0 - 1.2", color: "#F4CCCC", upper: 1.2},
	VeryLarge:     {name: "VERY_LARGE", label: "Very Large", rng: "> 1.2", color: "#EFB9CC", upper: math.Inf(1)},
}

// Classify maps |v| to its band. Upper bounds are inclusive; NaN is Unclassified.
func Classify(v float64) Band {
	if math.IsNaN(v) {
		return Unclassified
	}
	abs := math.Abs(v)
	for b := Negligible; b < VeryLarge; b++ {
		if abs <= bands[b].upper {
			return b
		}
	}
	return VeryLarge
}

// ClassifyPtr classifies an optional value; nil is Unclassified
func ClassifyPtr(v *float64) Band {
	if v == nil {
		return Unclassified
	}
	return Classify(*v)
}

func (b Band) info() bandInfo {
	if b < Unclassified || b > VeryLarge {
		return bands[Unclassified]
	}
	return bands[b]
}

// String returns the band's constant name, e.g. SMALL_MODERATE
func (b Band) String() string { return b.info().name }

// Label returns the human-readable band name
func (b Band) Label() string { return b.info().label }

// Range returns the legend text for the band's interval
func (b Band) Range() string { return b.info().rng }

// Color returns the fill colour as #RRGGBB, or "" for Unclassified
func (b Band) Color() string { return b.info().color }

// MarshalText lets bands travel as their names in JSON
func (b Band) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// Legend returns the seven coloured bands from least to most severe
func Legend() []Band {
	return []Band{Negligible, Small, SmallModerate, Moderate, ModerateLarge, Large, VeryLarge}
}

// UnmarshalText parses a band name produced by MarshalText
func (b *Band) UnmarshalText(text []byte) error {
	for i := range bands {
		if bands[i].name == string(text) {
			*b = Band(i)
			return nil
		}
	}
	return fmt.Errorf("unknown effect-size band %q", text)
}
