package dcf

import (
	"errors"
	"math"
	"testing"

	"fcfvaluation/pkg/core/align"
	"fcfvaluation/pkg/core/money"
)

const eps = 1e-9

func referenceAssumptions() Assumptions {
	return Assumptions{
		DiscountRate:      0.10,
		TerminalGrowth:    0.025,
		Stage1Growth:      0.08,
		Stage2Growth:      0.04,
		Stage1Years:       5,
		ProjectionYears:   10,
		NetDebt:           500,
		SharesOutstanding: 100,
	}
}

func TestReferenceScenario(t *testing.T) {
	// base 1000, g1=8% years 1-5, g2=4% years 6-10, r=10%, g_term=2.5%
	res, err := Run(1000, referenceAssumptions())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(res.Schedule) != 10 {
		t.Fatalf("Expected 10 projected years, got %d", len(res.Schedule))
	}

	// Year 1: 1000 × 1.08 = 1080, DF = 1/1.1 ≈ 0.9091
	y1 := res.Schedule[0]
	if math.Abs(y1.FCF.Float()-1080) > eps {
		t.Errorf("Expected year-1 FCF 1080, got %f", y1.FCF.Float())
	}
	if math.Abs(y1.DiscountFactor-1.0/1.1) > eps {
		t.Errorf("Expected year-1 DF %.6f, got %f", 1.0/1.1, y1.DiscountFactor)
	}

	// Year 5: 1000 × 1.08^5; year 6 switches to 4%
	y5 := 1000 * math.Pow(1.08, 5)
	if math.Abs(res.Schedule[4].FCF.Float()-y5) > 1e-6 {
		t.Errorf("Expected year-5 FCF %f, got %f", y5, res.Schedule[4].FCF.Float())
	}
	y6 := y5 * 1.04
	if math.Abs(res.Schedule[5].FCF.Float()-y6) > 1e-6 {
		t.Errorf("Expected year-6 FCF %f, got %f", y6, res.Schedule[5].FCF.Float())
	}

	// Terminal value depends only on year-10 FCF, r and g_term
	y10 := y5 * math.Pow(1.04, 5)
	wantTV := y10 * 1.025 / (0.10 - 0.025)
	if math.Abs(res.TerminalValue.Float()-wantTV) > 1e-6 {
		t.Errorf("Expected TV %f, got %f", wantTV, res.TerminalValue.Float())
	}

	// EV = Σ PV + discounted TV; equity = EV − 500; per share = equity / 100
	var pvSum float64
	for _, row := range res.Schedule {
		pvSum += row.PresentValue.Float()
	}
	wantEV := pvSum + wantTV/math.Pow(1.1, 10)
	if math.Abs(res.EnterpriseValue.Float()-wantEV) > 1e-6 {
		t.Errorf("Expected EV %f, got %f", wantEV, res.EnterpriseValue.Float())
	}
	if math.Abs(res.EquityValue.Float()-(wantEV-500)) > 1e-6 {
		t.Errorf("Equity value mismatch: %f", res.EquityValue.Float())
	}
	if math.Abs(res.ValuePerShare.Float()-(wantEV-500)/100) > 1e-6 {
		t.Errorf("Per-share mismatch: %f", res.ValuePerShare.Float())
	}
}

func TestLinearityInBaseFCF(t *testing.T) {
	// Scaling the base FCF and net debt by k scales EV, equity and per-share
	// by exactly k. This is the unit-discipline check: a hidden ×1e6 anywhere
	// in the pipeline breaks it.
	a := referenceAssumptions()
	r1, err := Run(1000, a)
	if err != nil {
		t.Fatal(err)
	}

	const k = 1e6
	scaled := a
	scaled.NetDebt = a.NetDebt * k
	r2, err := Run(1000*k, scaled)
	if err != nil {
		t.Fatal(err)
	}

	rel := func(a, b float64) float64 { return math.Abs(a-b) / math.Abs(b) }
	if rel(r2.EnterpriseValue.Float(), r1.EnterpriseValue.Float()*k) > 1e-12 {
		t.Errorf("EV not linear in base FCF")
	}
	if rel(r2.EquityValue.Float(), r1.EquityValue.Float()*k) > 1e-12 {
		t.Errorf("Equity not linear in base FCF")
	}
	if rel(r2.ValuePerShare.Float(), r1.ValuePerShare.Float()*k) > 1e-12 {
		t.Errorf("Per-share not linear in base FCF")
	}
}

func TestValidationRateAtTerminalGrowth(t *testing.T) {
	a := referenceAssumptions()
	a.DiscountRate = a.TerminalGrowth // divergent terminal value

	_, err := Run(1000, a)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
	if verr.Reason != ReasonRateNotAboveTerminal {
		t.Errorf("Expected reason %s, got %s", ReasonRateNotAboveTerminal, verr.Reason)
	}
}

func TestValidationShares(t *testing.T) {
	a := referenceAssumptions()
	a.SharesOutstanding = 0

	_, err := Run(1000, a)
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Reason != ReasonNonPositiveShares {
		t.Errorf("Expected %s, got %v", ReasonNonPositiveShares, err)
	}
}

func TestValidationHorizon(t *testing.T) {
	a := referenceAssumptions()
	a.ProjectionYears = 0
	if _, err := Run(1000, a); err == nil {
		t.Error("Zero horizon must fail validation")
	}

	a = referenceAssumptions()
	a.Stage1Years = 12 // exceeds the 10-year horizon
	if _, err := Run(1000, a); err == nil {
		t.Error("Stage 1 longer than the horizon must fail validation")
	}
}

func TestBaseFromSeriesPicksMostRecent(t *testing.T) {
	// Descending input: base year must still be 2023's value, not 2021's.
	pairs := []align.PeriodValue{
		{Period: 2023, Value: 300},
		{Period: 2022, Value: 200},
		{Period: 2021, Value: 100},
	}
	base, err := BaseFromSeries(pairs)
	if err != nil {
		t.Fatal(err)
	}
	if base != 300 {
		t.Errorf("Expected most recent value 300, got %f", base.Float())
	}

	if _, err := BaseFromSeries(nil); err == nil {
		t.Error("Empty series must fail with a validation error")
	}
}

func TestScaleWarningFlagsNotRejects(t *testing.T) {
	a := referenceAssumptions()
	res, err := Run(money.Raw(1e15), a) // absurd base: double-scaled input
	if err != nil {
		t.Fatalf("Implausible magnitudes are flagged, not rejected: %v", err)
	}
	if len(res.ScaleWarnings) == 0 {
		t.Error("Expected scale warnings for a 1e15 base FCF")
	}
}

func TestSensitivityGrid(t *testing.T) {
	grid := SensitivityGrid(1000, referenceAssumptions(), []float64{-0.08, 0}, []float64{0, 0.005})
	if len(grid) != 2 || len(grid[0]) != 2 {
		t.Fatalf("Expected 2x2 grid")
	}
	// Row 0 drops the discount rate to 2%, below terminal growth at 2.5%:
	// those cells must be invalid, not numeric.
	if grid[0][0].Valid {
		t.Error("Cell with rate below terminal growth must be invalid")
	}
	if !grid[1][0].Valid {
		t.Error("Base-case cell must be valid")
	}
	// Higher terminal growth raises the value per share.
	if grid[1][1].ValuePerShare <= grid[1][0].ValuePerShare {
		t.Error("Raising terminal growth should raise value per share")
	}
}
