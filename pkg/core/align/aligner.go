// Package align normalizes heterogeneous per-period financial series onto a
// single chronological axis before they are combined into FCF figures.
//
// Different statement sources hand us series of different lengths, sometimes
// newest-first, sometimes with gaps. Every downstream combination (FCFF, FCFE,
// working-capital deltas) assumes oldest-first and requires all inputs present
// for a period, so this package is the choke point where ordering and
// completeness get enforced.
package align

import (
	"errors"
	"math"
	"sort"
)

// PeriodValue is one observation of a named metric: the fiscal year (or
// ordinal index) and its value.
type PeriodValue struct {
	Period int     `json:"period"`
	Value  float64 `json:"value"`
}

// AlignedSeries holds multiple metrics mapped onto one common ascending
// period axis. Values[name][i] corresponds to Periods[i].
type AlignedSeries struct {
	Periods []int                `json:"periods"`
	Values  map[string][]float64 `json:"values"`
}

// ErrNoOverlap is returned when the required series share no common period.
// Callers skip the affected computation rather than treating an empty axis
// as a valid (empty) result.
var ErrNoOverlap = errors.New("no overlapping periods across required series")

// ErrMissingSeries is returned when a required series is absent entirely.
var ErrMissingSeries = errors.New("required series not present")

// ErrTooFewPeriods marks an axis too short for derived metrics that need
// consecutive periods (working-capital deltas). Alignment itself succeeds;
// consumers report this when nothing downstream is computable.
var ErrTooFewPeriods = errors.New("too few consecutive periods")

// NormalizeOrder returns the pairs sorted oldest-first.
//
// Contract: input may be ascending or descending by period (providers disagree
// on orientation); output is always strictly ascending. Orientation is detected
// by comparing the first and last periods, and a full sort backstops inputs
// that arrive in neither clean orientation. Duplicate periods collapse to the
// last occurrence. Non-finite values are dropped here so NaN/Inf never survive
// past construction.
func NormalizeOrder(pairs []PeriodValue) []PeriodValue {
	cleaned := make([]PeriodValue, 0, len(pairs))
	for _, pv := range pairs {
		if math.IsNaN(pv.Value) || math.IsInf(pv.Value, 0) {
			continue
		}
		cleaned = append(cleaned, pv)
	}
	if len(cleaned) < 2 {
		return cleaned
	}

	// Descending input (newest first) is the common provider quirk.
	if cleaned[0].Period > cleaned[len(cleaned)-1].Period {
		for i, j := 0, len(cleaned)-1; i < j; i, j = i+1, j-1 {
			cleaned[i], cleaned[j] = cleaned[j], cleaned[i]
		}
	}

	// Backstop: arbitrary interleavings still come out ascending.
	// Stable sort keeps the later occurrence of a duplicate period adjacent.
	sort.SliceStable(cleaned, func(i, j int) bool {
		return cleaned[i].Period < cleaned[j].Period
	})

	// Collapse duplicates, last occurrence wins.
	out := cleaned[:0]
	for _, pv := range cleaned {
		if n := len(out); n > 0 && out[n-1].Period == pv.Period {
			out[n-1] = pv
			continue
		}
		out = append(out, pv)
	}
	return out
}

// Align maps every required series onto the intersection of their periods.
//
// The common axis is the intersection, not the union: a period missing from
// even one required series is excluded, because the combinations downstream
// need every component present. Returns ErrMissingSeries if a required name
// is absent, ErrNoOverlap if the intersection is empty.
//
// Already-ascending, already-intersected input comes back unchanged.
func Align(seriesByName map[string][]PeriodValue, required []string) (*AlignedSeries, error) {
	if len(required) == 0 {
		return nil, errors.New("no required series named")
	}

	normalized := make(map[string][]PeriodValue, len(required))
	for _, name := range required {
		pairs, ok := seriesByName[name]
		if !ok || len(pairs) == 0 {
			return nil, ErrMissingSeries
		}
		normalized[name] = NormalizeOrder(pairs)
	}

	// Intersection of period sets.
	counts := make(map[int]int)
	for _, pairs := range normalized {
		for _, pv := range pairs {
			counts[pv.Period]++
		}
	}
	axis := make([]int, 0, len(counts))
	for period, n := range counts {
		if n == len(required) {
			axis = append(axis, period)
		}
	}
	if len(axis) == 0 {
		return nil, ErrNoOverlap
	}
	sort.Ints(axis)

	result := &AlignedSeries{
		Periods: axis,
		Values:  make(map[string][]float64, len(required)),
	}
	for name, pairs := range normalized {
		byPeriod := make(map[int]float64, len(pairs))
		for _, pv := range pairs {
			byPeriod[pv.Period] = pv.Value
		}
		vals := make([]float64, len(axis))
		for i, period := range axis {
			vals[i] = byPeriod[period]
		}
		result.Values[name] = vals
	}
	return result, nil
}

// Pairs reconstructs the (period, value) view of one aligned metric.
func (a *AlignedSeries) Pairs(name string) []PeriodValue {
	vals, ok := a.Values[name]
	if !ok {
		return nil
	}
	out := make([]PeriodValue, len(a.Periods))
	for i, p := range a.Periods {
		out[i] = PeriodValue{Period: p, Value: vals[i]}
	}
	return out
}
