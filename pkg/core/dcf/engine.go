// Package dcf projects and discounts future free cash flows into an
// enterprise/equity valuation.
//
// The engine is a linear pipeline with no branching state:
//
//	validate → base year → stage-1 projection → stage-2 projection →
//	discount → terminal value → discount TV → sum → net debt → per share
//
// All arithmetic runs on money.Raw (unscaled currency units). Display
// scaling is the reporting layer's job; nothing in this package applies a
// unit factor.
package dcf

import (
	"fmt"
	"math"

	"fcfvaluation/pkg/core/align"
	"fcfvaluation/pkg/core/money"
)

// Assumptions holds the projection and discounting inputs. All rates are
// decimals (0.10 = 10%).
type Assumptions struct {
	DiscountRate      float64   `json:"discount_rate"`
	TerminalGrowth    float64   `json:"terminal_growth"`
	Stage1Growth      float64   `json:"stage1_growth"`
	Stage2Growth      float64   `json:"stage2_growth"`
	Stage1Years       int       `json:"stage1_years"`     // default 5
	ProjectionYears   int       `json:"projection_years"` // default 10
	NetDebt           money.Raw `json:"net_debt"`
	SharesOutstanding float64   `json:"shares_outstanding"`
}

// DefaultAssumptions returns the standard two-stage horizon. Rates are left
// zero on purpose: they are company-specific and must come from the caller.
func DefaultAssumptions() Assumptions {
	return Assumptions{
		Stage1Years:     5,
		ProjectionYears: 10,
	}
}

// Validation reason codes.
const (
	ReasonRateNotAboveTerminal = "discount_rate_not_above_terminal"
	ReasonNonPositiveShares    = "non_positive_shares"
	ReasonNonPositiveHorizon   = "non_positive_horizon"
	ReasonNoBaseValue          = "no_base_value"
)

// ValidationError reports inconsistent assumptions. It is fatal to the
// valuation call; the engine never substitutes a default for a bad input.
type ValidationError struct {
	Reason string
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("dcf validation failed (%s): %s", e.Reason, e.Detail)
}

// YearProjection is one row of the projection schedule.
type YearProjection struct {
	Year           int       `json:"year"` // offset from base year, 1-based
	FCF            money.Raw `json:"fcf"`
	DiscountFactor float64   `json:"discount_factor"`
	PresentValue   money.Raw `json:"present_value"`
}

// Result is a completed valuation. Monetary fields are raw currency units.
type Result struct {
	Schedule        []YearProjection `json:"schedule"`
	TerminalValue   money.Raw        `json:"terminal_value"`
	TerminalValuePV money.Raw        `json:"terminal_value_pv"`
	EnterpriseValue money.Raw        `json:"enterprise_value"`
	EquityValue     money.Raw        `json:"equity_value"`
	ValuePerShare   money.Raw        `json:"value_per_share"`

	// ScaleWarnings carries magnitude-check flags. A populated list means a
	// value crossed the implausibility threshold — almost always an upstream
	// unit mistake. The result is still returned; suppression is the
	// caller's decision.
	ScaleWarnings []string `json:"scale_warnings,omitempty"`
}

// Validate checks the assumptions against the base value. Terminal value
// diverges (or flips sign) when the discount rate does not exceed terminal
// growth, so that inconsistency fails here, before any projection.
func (a Assumptions) Validate(baseFCF money.Raw) error {
	if a.ProjectionYears <= 0 || a.Stage1Years <= 0 || a.Stage1Years > a.ProjectionYears {
		return &ValidationError{
			Reason: ReasonNonPositiveHorizon,
			Detail: fmt.Sprintf("stage1=%d total=%d", a.Stage1Years, a.ProjectionYears),
		}
	}
	if a.DiscountRate <= a.TerminalGrowth {
		return &ValidationError{
			Reason: ReasonRateNotAboveTerminal,
			Detail: fmt.Sprintf("discount %.4f <= terminal growth %.4f", a.DiscountRate, a.TerminalGrowth),
		}
	}
	if a.SharesOutstanding <= 0 {
		return &ValidationError{
			Reason: ReasonNonPositiveShares,
			Detail: fmt.Sprintf("shares=%.2f", a.SharesOutstanding),
		}
	}
	if !baseFCF.Finite() {
		return &ValidationError{
			Reason: ReasonNoBaseValue,
			Detail: "base FCF is not a finite number",
		}
	}
	return nil
}

// BaseFromSeries selects the base-year value: the most recent period after
// normalization. Input orientation does not matter; a newest-first series
// yields the same base as its ascending twin.
func BaseFromSeries(pairs []align.PeriodValue) (money.Raw, error) {
	normalized := align.NormalizeOrder(pairs)
	if len(normalized) == 0 {
		return 0, &ValidationError{
			Reason: ReasonNoBaseValue,
			Detail: "empty FCF series",
		}
	}
	return money.Raw(normalized[len(normalized)-1].Value), nil
}

// Run executes the valuation pipeline for a single base FCF value.
func Run(baseFCF money.Raw, a Assumptions) (*Result, error) {
	if err := a.Validate(baseFCF); err != nil {
		return nil, err
	}

	res := &Result{
		Schedule: make([]YearProjection, 0, a.ProjectionYears),
	}

	fcf := baseFCF.Float()
	var pvSum float64
	for t := 1; t <= a.ProjectionYears; t++ {
		g := a.Stage1Growth
		if t > a.Stage1Years {
			g = a.Stage2Growth
		}
		fcf *= 1 + g

		df := 1.0 / math.Pow(1+a.DiscountRate, float64(t))
		pv := fcf * df
		pvSum += pv

		res.Schedule = append(res.Schedule, YearProjection{
			Year:           t,
			FCF:            money.Raw(fcf),
			DiscountFactor: df,
			PresentValue:   money.Raw(pv),
		})
	}

	// Terminal value from the final projected year only (Gordon growth).
	// Validation already guaranteed discountRate > terminalGrowth.
	tv := fcf * (1 + a.TerminalGrowth) / (a.DiscountRate - a.TerminalGrowth)
	finalDF := res.Schedule[len(res.Schedule)-1].DiscountFactor
	tvPV := tv * finalDF

	ev := pvSum + tvPV
	equity := ev - a.NetDebt.Float()
	perShare := equity / a.SharesOutstanding

	res.TerminalValue = money.Raw(tv)
	res.TerminalValuePV = money.Raw(tvPV)
	res.EnterpriseValue = money.Raw(ev)
	res.EquityValue = money.Raw(equity)
	res.ValuePerShare = money.Raw(perShare)

	for _, check := range []struct {
		name  string
		value money.Raw
	}{
		{"terminal_value", res.TerminalValue},
		{"enterprise_value", res.EnterpriseValue},
		{"equity_value", res.EquityValue},
	} {
		if !check.value.Plausible() {
			res.ScaleWarnings = append(res.ScaleWarnings,
				fmt.Sprintf("%s magnitude %.3e exceeds plausibility threshold", check.name, check.value.Float()))
		}
	}

	return res, nil
}
