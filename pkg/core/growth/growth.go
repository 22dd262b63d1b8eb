// Package growth computes compound annual growth rates over lookback windows.
//
// The CAGR here is sign-adjusted for cash-flow series that can cross zero,
// which a textbook CAGR cannot handle. It is a heuristic, documented as such:
//   - opposite signs at the endpoints: the magnitude-based rate is negated, so
//     the direction of the sign flip is reflected in the result's sign
//   - both endpoints negative: the rate's absolute value is taken, treating a
//     shrinking loss as positive growth
//
// A rate that cannot be computed is "unavailable" (nil) — never zero and never
// an error, so a table can mix computed and unavailable windows.
package growth

import (
	"fmt"
	"math"
)

// Standard lookback windows, measured in periods back from the most recent
// data point.
var DefaultWindows = []int{1, 3, 5, 10}

// Band is the plausibility range for a computed rate. Out-of-band rates are
// flagged, never clamped or suppressed; rejection is the caller's policy call.
type Band struct {
	Min float64
	Max float64
}

// DefaultBand covers -90% to +500%.
var DefaultBand = Band{Min: -0.90, Max: 5.00}

// CAGR returns the sign-adjusted compound annual growth rate between start and
// end over n periods, or nil when undefined (start == 0, n <= 0, or a
// non-finite input).
func CAGR(start, end float64, n int) *float64 {
	if n <= 0 || start == 0 {
		return nil
	}
	if math.IsNaN(start) || math.IsInf(start, 0) || math.IsNaN(end) || math.IsInf(end, 0) {
		return nil
	}

	rate := math.Pow(math.Abs(end)/math.Abs(start), 1.0/float64(n)) - 1

	switch {
	case start < 0 && end < 0:
		// Shrinking loss reads as improvement
		rate = math.Abs(rate)
	case start*end < 0:
		// Sign crossed zero between the endpoints
		rate = -rate
	}
	return &rate
}

// Table is a lookback-window growth table for one series. Rates maps a window
// label ("1yr", "3yr", ...) to a rate or nil for unavailable. Flags marks
// windows whose rate fell outside the plausibility band.
type Table struct {
	Rates map[string]*float64 `json:"rates"`
	Flags map[string]bool     `json:"flags,omitempty"`
}

// WindowLabel renders a window length as a table key.
func WindowLabel(w int) string {
	return fmt.Sprintf("%dyr", w)
}

// WindowTable computes the CAGR for each lookback window over values.
//
// Windows are anchored on the LAST element — the most recent period is the
// universal "present". A window w needs at least w+1 points; short series get
// that window marked unavailable, not zero.
func WindowTable(values []float64, windows []int, band Band) Table {
	if len(windows) == 0 {
		windows = DefaultWindows
	}
	t := Table{
		Rates: make(map[string]*float64, len(windows)),
		Flags: make(map[string]bool),
	}
	for _, w := range windows {
		label := WindowLabel(w)
		if w <= 0 || len(values) < w+1 {
			t.Rates[label] = nil
			continue
		}
		start := values[len(values)-1-w]
		end := values[len(values)-1]
		rate := CAGR(start, end, w)
		t.Rates[label] = rate
		if rate != nil && (*rate < band.Min || *rate > band.Max) {
			t.Flags[label] = true
		}
	}
	return t
}

// Average builds the cross-sectional mean table over the per-series tables.
// A window contributes to the mean only where a table has a computed rate;
// a window with zero contributors stays unavailable.
func Average(tables map[string]Table, windows []int) Table {
	if len(windows) == 0 {
		windows = DefaultWindows
	}
	avg := Table{
		Rates: make(map[string]*float64, len(windows)),
		Flags: make(map[string]bool),
	}
	for _, w := range windows {
		label := WindowLabel(w)
		var sum float64
		var n int
		for _, t := range tables {
			if r, ok := t.Rates[label]; ok && r != nil {
				sum += *r
				n++
			}
		}
		if n == 0 {
			avg.Rates[label] = nil
			continue
		}
		mean := sum / float64(n)
		avg.Rates[label] = &mean
	}
	return avg
}
