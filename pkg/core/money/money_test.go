package money

import (
	"math"
	"testing"
)

func TestDisplayConversion(t *testing.T) {
	// 2.5 billion raw dollars shown in millions -> 2500 $M
	ev := Raw(2.5e9)
	d := ev.In(Millions)

	if d.Value != 2500 {
		t.Errorf("Expected 2500, got %f", d.Value)
	}
	if d.Label != "$M" {
		t.Errorf("Expected $M label, got %s", d.Label)
	}
}

func TestZeroFactorFallsBackToUnits(t *testing.T) {
	d := Raw(100).In(Scale{})
	if d.Value != 100 {
		t.Errorf("Zero-factor scale should behave as raw units, got %f", d.Value)
	}
}

func TestPlausible(t *testing.T) {
	if !Raw(3.1e12).Plausible() {
		t.Error("Apple-sized market cap should be plausible")
	}
	// A millions-denominated EV that got multiplied by 1e6 twice
	if Raw(2.5e15).Plausible() {
		t.Error("1e15+ should be flagged as a scale bug")
	}
	if Raw(-2.5e15).Plausible() {
		t.Error("Sign must not matter for the magnitude check")
	}
}

func TestFinite(t *testing.T) {
	if !Raw(0).Finite() {
		t.Error("Zero is finite")
	}
	if Raw(math.NaN()).Finite() || Raw(math.Inf(1)).Finite() {
		t.Error("NaN/Inf must not be finite")
	}
}
