package fixture

import (
	"errors"
	"fmt"

	"github.com/careboard/careboard/internal/models"
)

var (
	// ErrEmptyPool is returned when there is nothing to assign from.
	ErrEmptyPool = errors.New("attribute pool is empty")

	// ErrInvalidCountRange is returned for a range outside [0, len(pool)].
	ErrInvalidCountRange = errors.New("invalid count range")
)

// CountRange bounds how many pool items get flagged, inclusive.
type CountRange struct {
	Min int `toml:"min"`
	Max int `toml:"max"`
}

// Validate checks the range against a pool of size n.
func (c CountRange) Validate(n int) error {
	if n == 0 {
		return ErrEmptyPool
	}
	if c.Min < 0 || c.Max < c.Min || c.Max > n {
		return fmt.Errorf("%w: [%d, %d] for pool of %d", ErrInvalidCountRange, c.Min, c.Max, n)
	}
	return nil
}

// draw picks a count uniformly in the range.
func (c CountRange) draw(rng *RNG) int {
	return c.Min + rng.Intn(c.Max-c.Min+1)
}

// Magnitudes sets the value ranges for flagged and normal attributes.
// A value is round(Base + r*Span) for a fresh draw r.
type Magnitudes struct {
	FlaggedBase float64
	FlaggedSpan float64
	NormalBase  float64
	NormalSpan  float64
}

// DefaultMagnitudes puts flagged nutrients in 25..45 and normal ones in 60..90.
var DefaultMagnitudes = Magnitudes{
	FlaggedBase: 25,
	FlaggedSpan: 20,
	NormalBase:  60,
	NormalSpan:  30,
}

// AssignedAttribute is one pool item with its status and magnitude.
type AssignedAttribute struct {
	Name   string                `json:"name"`
	Status models.NutrientStatus `json:"status"`
	Value  int                   `json:"value"`
}

// Flagged reports whether the attribute was selected as low.
func (a AssignedAttribute) Flagged() bool {
	return a.Status == models.NutrientLow
}

// AssignAttributes deterministically flags a subset of pool for name and
// assigns every item a magnitude.
//
// The stream is consumed in a fixed order: one draw for the count, the
// shuffle draws, then one draw per pool item in pool order. Results are
// returned in pool order.
func AssignAttributes(name string, pool []string, counts CountRange, mag Magnitudes) ([]AssignedAttribute, error) {
	if err := counts.Validate(len(pool)); err != nil {
		return nil, err
	}

	rng := NewRNG(HashString(name))
	count := counts.draw(rng)

	flagged := make(map[string]bool, count)
	for _, item := range Shuffle(pool, rng)[:count] {
		flagged[item] = true
	}

	out := make([]AssignedAttribute, 0, len(pool))
	for _, item := range pool {
		attr := AssignedAttribute{Name: item, Status: models.NutrientGood}
		if flagged[item] {
			attr.Status = models.NutrientLow
			attr.Value = int(round(mag.FlaggedBase + rng.Float64()*mag.FlaggedSpan))
		} else {
			attr.Value = int(round(mag.NormalBase + rng.Float64()*mag.NormalSpan))
		}
		out = append(out, attr)
	}
	return out, nil
}

// SampleConditions picks between counts.Min and counts.Max conditions from
// pool for the resident id. The result keeps shuffled order.
func SampleConditions(id string, pool []string, counts CountRange) ([]string, error) {
	if err := counts.Validate(len(pool)); err != nil {
		return nil, err
	}

	rng := NewRNG(HashString(id))
	count := counts.draw(rng)
	return Sample(pool, count, rng), nil
}

// FlaggedOnly filters attrs down to the flagged ones, keeping order.
func FlaggedOnly(attrs []AssignedAttribute) []AssignedAttribute {
	var out []AssignedAttribute
	for _, a := range attrs {
		if a.Flagged() {
			out = append(out, a)
		}
	}
	return out
}
