package growth

import (
	"math"
	"testing"
)

const eps = 1e-9

func TestCAGRBasic(t *testing.T) {
	// 100 -> 121 over 2 years = 10% per year
	r := CAGR(100, 121, 2)
	if r == nil {
		t.Fatal("Expected a rate")
	}
	if math.Abs(*r-0.10) > eps {
		t.Errorf("Expected 0.10, got %f", *r)
	}
}

func TestCAGRRoundTrip(t *testing.T) {
	// (1+CAGR)^n * |start| should reproduce |end| for same-sign inputs
	cases := []struct {
		start, end float64
		n          int
	}{
		{1000, 1500, 3},
		{200, 180, 5},
		{50, 400, 10},
	}
	for _, c := range cases {
		r := CAGR(c.start, c.end, c.n)
		if r == nil {
			t.Fatalf("CAGR(%v, %v, %d) unexpectedly unavailable", c.start, c.end, c.n)
		}
		back := math.Pow(1+*r, float64(c.n)) * math.Abs(c.start)
		if math.Abs(back-math.Abs(c.end)) > 1e-6 {
			t.Errorf("Round trip failed for (%v, %v, %d): got %f", c.start, c.end, c.n, back)
		}
	}
}

func TestCAGRBothNegative(t *testing.T) {
	// Loss shrinking from -200 to -100 over 1 year:
	// magnitude rate = 100/200 - 1 = -0.5, abs -> +0.5 (improvement)
	r := CAGR(-200, -100, 1)
	if r == nil {
		t.Fatal("Expected a rate")
	}
	if math.Abs(*r-0.5) > eps {
		t.Errorf("Expected +0.5 for shrinking loss, got %f", *r)
	}
}

func TestCAGROppositeSigns(t *testing.T) {
	// -100 -> +200 over 1 year: magnitude rate = 200/100 - 1 = 1.0, negated
	r := CAGR(-100, 200, 1)
	if r == nil {
		t.Fatal("Expected a rate")
	}
	if math.Abs(*r-(-1.0)) > eps {
		t.Errorf("Expected -1.0 for sign crossing, got %f", *r)
	}
}

func TestCAGRUnavailable(t *testing.T) {
	if CAGR(0, 100, 5) != nil {
		t.Error("Zero start must be unavailable, not computed")
	}
	if CAGR(100, 200, 0) != nil {
		t.Error("Zero periods must be unavailable")
	}
	if CAGR(100, 200, -3) != nil {
		t.Error("Negative periods must be unavailable")
	}
	if CAGR(math.NaN(), 200, 1) != nil {
		t.Error("NaN input must be unavailable")
	}
}

func TestWindowTableAnchorsOnLastElement(t *testing.T) {
	// 6 points; the 1yr window must compare the LAST two, not the first two.
	values := []float64{100, 100, 100, 100, 100, 110}
	tbl := WindowTable(values, []int{1, 3, 5, 10}, DefaultBand)

	r1 := tbl.Rates["1yr"]
	if r1 == nil {
		t.Fatal("1yr should be available")
	}
	if math.Abs(*r1-0.10) > eps {
		t.Errorf("1yr window must use the last two points: expected 0.10, got %f", *r1)
	}

	// 5yr: values[0]=100 -> values[5]=110 over 5 periods
	r5 := tbl.Rates["5yr"]
	if r5 == nil {
		t.Fatal("5yr should be available")
	}
	want := math.Pow(110.0/100.0, 1.0/5.0) - 1
	if math.Abs(*r5-want) > eps {
		t.Errorf("Expected %f, got %f", want, *r5)
	}

	// Only 6 points: 10yr needs 11
	if tbl.Rates["10yr"] != nil {
		t.Error("10yr must be unavailable with 6 points, never computed or zero")
	}
}

func TestWindowTableShortSeries(t *testing.T) {
	tbl := WindowTable([]float64{500}, nil, DefaultBand)
	for label, r := range tbl.Rates {
		if r != nil {
			t.Errorf("Window %s must be unavailable for a single point", label)
		}
	}
}

func TestWindowTableFlagsOutOfBand(t *testing.T) {
	// 1 -> 100 over 1 year = +9900%, far past the +500% band
	tbl := WindowTable([]float64{1, 100}, []int{1}, DefaultBand)
	r := tbl.Rates["1yr"]
	if r == nil {
		t.Fatal("Rate should still be computed")
	}
	if math.Abs(*r-99.0) > eps {
		t.Errorf("Expected 99.0 (not clamped), got %f", *r)
	}
	if !tbl.Flags["1yr"] {
		t.Error("Out-of-band rate must be flagged")
	}
}

func TestAverageTable(t *testing.T) {
	r1, r3a, r3b := 0.10, 0.20, 0.40
	tables := map[string]Table{
		"FCFF": {Rates: map[string]*float64{"1yr": &r1, "3yr": &r3a, "5yr": nil}},
		"FCFE": {Rates: map[string]*float64{"1yr": nil, "3yr": &r3b, "5yr": nil}},
	}
	avg := Average(tables, []int{1, 3, 5})

	// 1yr: only FCFF contributes -> 0.10
	if avg.Rates["1yr"] == nil || math.Abs(*avg.Rates["1yr"]-0.10) > eps {
		t.Errorf("Expected 1yr avg 0.10, got %v", avg.Rates["1yr"])
	}
	// 3yr: mean of 0.20 and 0.40 -> 0.30
	if avg.Rates["3yr"] == nil || math.Abs(*avg.Rates["3yr"]-0.30) > eps {
		t.Errorf("Expected 3yr avg 0.30, got %v", avg.Rates["3yr"])
	}
	// 5yr: no contributors -> unavailable, never zero
	if avg.Rates["5yr"] != nil {
		t.Errorf("Expected 5yr avg unavailable, got %v", *avg.Rates["5yr"])
	}
}
