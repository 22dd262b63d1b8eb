// Package fcf derives per-year free cash flow series from aligned statement
// line items under three methodologies.
//
// FORMULAS:
//
//	FCFF = EBIT × (1 − tax rate) + D&A − ΔWC − |CapEx|
//	FCFE = Net Income + D&A − ΔWC − |CapEx| + max(0, Financing CF)
//	LFCF = Operating CF − |CapEx|
//
// The builder is pure: it takes raw labeled series, resolves label variants
// through its Catalog, aligns the inputs each method needs, and computes. A
// period whose inputs cannot be resolved is skipped for that method — never
// zero-filled, never interpolated — so the three series can legitimately have
// different lengths.
package fcf

import (
	"math"

	"fcfvaluation/pkg/core/align"
	"fcfvaluation/pkg/core/growth"
)

// Type identifies an FCF methodology.
type Type string

const (
	FCFF Type = "FCFF" // free cash flow to firm
	FCFE Type = "FCFE" // free cash flow to equity
	LFCF Type = "LFCF" // levered free cash flow
)

// Types lists the methodologies in display order.
var Types = []Type{FCFF, FCFE, LFCF}

// Config holds the builder's tunable tax policy and label catalog.
type Config struct {
	DefaultTaxRate float64 // used when EBT is zero; 0.25 by convention
	TaxRateCeiling float64 // clamp for near-zero-EBT distortion; 0.35
	Catalog        Catalog
}

// DefaultConfig returns the conventional tax policy with the standard catalog.
func DefaultConfig() Config {
	return Config{
		DefaultTaxRate: 0.25,
		TaxRateCeiling: 0.35,
		Catalog:        DefaultCatalog(),
	}
}

// Builder computes the three FCF series. Construct with NewBuilder; the zero
// value has no catalog and resolves nothing.
type Builder struct {
	cfg Config
}

// NewBuilder creates a builder, filling unset config fields from defaults.
func NewBuilder(cfg Config) *Builder {
	def := DefaultConfig()
	if cfg.DefaultTaxRate == 0 {
		cfg.DefaultTaxRate = def.DefaultTaxRate
	}
	if cfg.TaxRateCeiling == 0 {
		cfg.TaxRateCeiling = def.TaxRateCeiling
	}
	if cfg.Catalog == nil {
		cfg.Catalog = def.Catalog
	}
	return &Builder{cfg: cfg}
}

// Result holds the built series plus the methods that had to be skipped and
// why. A skipped method is a partial result, not a failure of the run.
type Result struct {
	Series  map[Type][]align.PeriodValue `json:"series"`
	Skipped map[Type]string              `json:"skipped,omitempty"`
}

// requiredFields lists the canonical inputs per methodology.
func requiredFields(t Type) []string {
	switch t {
	case FCFF:
		return []string{
			FieldEBIT, FieldEBT, FieldTaxExpense, FieldDepreciation,
			FieldCapEx, FieldCurrentAssets, FieldCurrentLiabs,
		}
	case FCFE:
		return []string{
			FieldNetIncome, FieldDepreciation, FieldCapEx,
			FieldFinancingCashFlow, FieldCurrentAssets, FieldCurrentLiabs,
		}
	case LFCF:
		return []string{FieldOperatingCashFlow, FieldCapEx}
	}
	return nil
}

// Build resolves label variants, aligns per-method inputs, and computes all
// three series. taxRateOverride, when non-nil, bypasses the effective-rate
// derivation entirely.
func (b *Builder) Build(raw map[string][]align.PeriodValue, taxRateOverride *float64) Result {
	canonical := b.cfg.Catalog.ResolveAll(raw)

	res := Result{
		Series:  make(map[Type][]align.PeriodValue, len(Types)),
		Skipped: make(map[Type]string),
	}

	for _, t := range Types {
		aligned, err := align.Align(canonical, requiredFields(t))
		if err != nil {
			res.Skipped[t] = err.Error()
			continue
		}

		var series []align.PeriodValue
		switch t {
		case FCFF:
			series = b.buildFCFF(aligned, taxRateOverride)
		case FCFE:
			series = b.buildFCFE(aligned)
		case LFCF:
			series = b.buildLFCF(aligned)
		}

		if len(series) == 0 {
			res.Skipped[t] = align.ErrTooFewPeriods.Error()
			continue
		}
		res.Series[t] = series
	}
	return res
}

// EffectiveTaxRate derives |tax| / |EBT|, falling back to the configured
// default when EBT is zero and clamping to the ceiling. The clamp exists
// because near-zero EBT periods produce rates that swamp the FCFF formula.
func (b *Builder) EffectiveTaxRate(taxExpense, ebt float64) float64 {
	if ebt == 0 {
		return b.cfg.DefaultTaxRate
	}
	rate := math.Abs(taxExpense) / math.Abs(ebt)
	if rate > b.cfg.TaxRateCeiling {
		return b.cfg.TaxRateCeiling
	}
	return rate
}

// workingCapitalDelta computes ΔWC for the aligned index i, requiring the
// prior aligned period to be the immediately preceding fiscal period. Gapped
// axes skip the period rather than spanning the gap with a bogus delta.
func workingCapitalDelta(aligned *align.AlignedSeries, i int) (float64, bool) {
	if i == 0 {
		return 0, false
	}
	if aligned.Periods[i-1] != aligned.Periods[i]-1 {
		return 0, false
	}
	ca := aligned.Values[FieldCurrentAssets]
	cl := aligned.Values[FieldCurrentLiabs]
	wcNow := ca[i] - cl[i]
	wcPrev := ca[i-1] - cl[i-1]
	return wcNow - wcPrev, true
}

func (b *Builder) buildFCFF(aligned *align.AlignedSeries, taxRateOverride *float64) []align.PeriodValue {
	ebit := aligned.Values[FieldEBIT]
	ebt := aligned.Values[FieldEBT]
	tax := aligned.Values[FieldTaxExpense]
	da := aligned.Values[FieldDepreciation]
	capex := aligned.Values[FieldCapEx]

	// ΔWC needs a prior period, so output starts one period after the axis.
	out := make([]align.PeriodValue, 0, len(aligned.Periods))
	for i := range aligned.Periods {
		dwc, ok := workingCapitalDelta(aligned, i)
		if !ok {
			continue
		}
		rate := b.EffectiveTaxRate(tax[i], ebt[i])
		if taxRateOverride != nil {
			rate = *taxRateOverride
		}
		// CapEx sign conventions differ by provider; magnitude is what we spend.
		fcff := ebit[i]*(1-rate) + da[i] - dwc - math.Abs(capex[i])
		out = append(out, align.PeriodValue{Period: aligned.Periods[i], Value: fcff})
	}
	return out
}

func (b *Builder) buildFCFE(aligned *align.AlignedSeries) []align.PeriodValue {
	ni := aligned.Values[FieldNetIncome]
	da := aligned.Values[FieldDepreciation]
	capex := aligned.Values[FieldCapEx]
	fin := aligned.Values[FieldFinancingCashFlow]

	out := make([]align.PeriodValue, 0, len(aligned.Periods))
	for i := range aligned.Periods {
		dwc, ok := workingCapitalDelta(aligned, i)
		if !ok {
			continue
		}
		// Net borrowing counts only debt issuance; repayment years
		// contribute zero rather than netting against FCFE.
		netBorrowing := math.Max(0, fin[i])
		fcfe := ni[i] + da[i] - dwc - math.Abs(capex[i]) + netBorrowing
		out = append(out, align.PeriodValue{Period: aligned.Periods[i], Value: fcfe})
	}
	return out
}

func (b *Builder) buildLFCF(aligned *align.AlignedSeries) []align.PeriodValue {
	ocf := aligned.Values[FieldOperatingCashFlow]
	capex := aligned.Values[FieldCapEx]

	out := make([]align.PeriodValue, 0, len(aligned.Periods))
	for i, period := range aligned.Periods {
		out = append(out, align.PeriodValue{
			Period: period,
			Value:  ocf[i] - math.Abs(capex[i]),
		})
	}
	return out
}

// GrowthTables computes the lookback growth table per built FCF type plus the
// cross-sectional "Average" table.
func GrowthTables(series map[Type][]align.PeriodValue, windows []int, band growth.Band) map[string]growth.Table {
	perType := make(map[string]growth.Table, len(series))
	for t, pairs := range series {
		values := make([]float64, len(pairs))
		for i, pv := range pairs {
			values[i] = pv.Value
		}
		perType[string(t)] = growth.WindowTable(values, windows, band)
	}
	tables := make(map[string]growth.Table, len(perType)+1)
	for name, tbl := range perType {
		tables[name] = tbl
	}
	tables["Average"] = growth.Average(perType, windows)
	return tables
}
