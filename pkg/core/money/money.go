// Package money enforces unit discipline for monetary values.
//
// Every calculation in the engine runs on Raw values (unscaled currency units,
// e.g. dollars, not millions of dollars). Conversion to a human-readable scale
// happens exactly once, at the rendering boundary, via Raw.In. A Display value
// has no path back into the engine, so a scale factor can never be applied
// twice or dropped mid-calculation.
package money

import "math"

// Raw is a monetary amount in unscaled currency units.
// All engine arithmetic happens on Raw.
type Raw float64

// Scale describes a display unit.
type Scale struct {
	Label  string  // e.g. "$M"
	Factor float64 // raw units per display unit, e.g. 1e6
}

var (
	Units     = Scale{Label: "$", Factor: 1}
	Thousands = Scale{Label: "$K", Factor: 1e3}
	Millions  = Scale{Label: "$M", Factor: 1e6}
	Billions  = Scale{Label: "$B", Factor: 1e9}
)

// Display is a scaled amount intended only for rendering.
// It deliberately carries no conversion back to Raw.
type Display struct {
	Value float64 `json:"value"`
	Label string  `json:"unit"`
}

// In converts a Raw amount to a display unit. This is the single permitted
// scale conversion in the system.
func (r Raw) In(s Scale) Display {
	if s.Factor == 0 {
		s = Units
	}
	return Display{Value: float64(r) / s.Factor, Label: s.Label}
}

// Float returns the raw amount as a plain float64 for arithmetic.
func (r Raw) Float() float64 { return float64(r) }

// PlausibleLimit is the magnitude above which a raw amount is almost certainly
// a scale bug (a double-applied 1e6 factor pushes normal enterprise values
// past this).
const PlausibleLimit = 1e15

// Plausible reports whether the amount sits below the scale-bug threshold.
// Callers flag implausible values; they do not reject them.
func (r Raw) Plausible() bool {
	return math.Abs(float64(r)) < PlausibleLimit
}

// Finite reports whether the amount is a usable number.
func (r Raw) Finite() bool {
	f := float64(r)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
