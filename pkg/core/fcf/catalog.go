package fcf

import (
	"strings"

	"fcfvaluation/pkg/core/align"
)

// Canonical metric field names used by the builder. Raw statement exports use
// provider-specific labels; the catalog maps those variants back to these.
const (
	FieldEBIT              = "ebit"
	FieldEBT               = "ebt"
	FieldTaxExpense        = "tax_expense"
	FieldDepreciation      = "depreciation_amortization"
	FieldCapEx             = "capex"
	FieldNetIncome         = "net_income"
	FieldOperatingCashFlow = "operating_cash_flow"
	FieldFinancingCashFlow = "financing_cash_flow"
	FieldCurrentAssets     = "current_assets"
	FieldCurrentLiabs      = "current_liabilities"
)

// Catalog maps each canonical field to an ordered list of candidate labels.
// Resolution tries candidates in order and the first match wins, so put the
// preferred label first.
type Catalog map[string][]string

// DefaultCatalog covers the recurring label variants across spreadsheet
// exports and the common financial-data API providers.
func DefaultCatalog() Catalog {
	return Catalog{
		FieldEBIT: {
			"EBIT",
			"Operating Income",
			"Operating Income (Loss)",
			"operatingIncome",
		},
		FieldEBT: {
			"EBT",
			"Income Before Tax",
			"Pretax Income",
			"incomeBeforeTax",
		},
		FieldTaxExpense: {
			"Income Tax Expense",
			"Tax Provision",
			"Provision for Income Taxes",
			"incomeTaxExpense",
		},
		FieldDepreciation: {
			"Depreciation & Amortization",
			"Depreciation And Amortization",
			"Depreciation",
			"depreciationAndAmortization",
		},
		FieldCapEx: {
			"Capital Expenditures",
			"Capital Expenditure",
			"Purchases of Property and Equipment",
			"capitalExpenditures",
		},
		FieldNetIncome: {
			"Net Income",
			"Net Income Common Stockholders",
			"Net Income (Loss)",
			"netIncome",
		},
		FieldOperatingCashFlow: {
			"Operating Cash Flow",
			"Cash Flow From Operations",
			"Total Cash From Operating Activities",
			"totalCashFromOperatingActivities",
		},
		FieldFinancingCashFlow: {
			"Financing Cash Flow",
			"Cash Flow From Financing",
			"Total Cash From Financing Activities",
			"totalCashFromFinancingActivities",
		},
		FieldCurrentAssets: {
			"Total Current Assets",
			"Current Assets",
			"totalCurrentAssets",
		},
		FieldCurrentLiabs: {
			"Total Current Liabilities",
			"Current Liabilities",
			"totalCurrentLiabilities",
		},
	}
}

// Resolve finds the series for a canonical field among raw, provider-labeled
// series. Matching is case-insensitive on the candidate list, in order.
func (c Catalog) Resolve(field string, raw map[string][]align.PeriodValue) ([]align.PeriodValue, bool) {
	candidates, ok := c[field]
	if !ok {
		return nil, false
	}
	// Exact match first (cheap), then case-insensitive pass.
	for _, cand := range candidates {
		if pairs, ok := raw[cand]; ok && len(pairs) > 0 {
			return pairs, true
		}
	}
	lowered := make(map[string][]align.PeriodValue, len(raw))
	for name, pairs := range raw {
		lowered[strings.ToLower(name)] = pairs
	}
	for _, cand := range candidates {
		if pairs, ok := lowered[strings.ToLower(cand)]; ok && len(pairs) > 0 {
			return pairs, true
		}
	}
	return nil, false
}

// ResolveAll maps every resolvable canonical field to its series under the
// canonical name, ready for alignment.
func (c Catalog) ResolveAll(raw map[string][]align.PeriodValue) map[string][]align.PeriodValue {
	out := make(map[string][]align.PeriodValue, len(c))
	for field := range c {
		if pairs, ok := c.Resolve(field, raw); ok {
			out[field] = pairs
		}
	}
	return out
}
