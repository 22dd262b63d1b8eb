// Package pipeline wires the calculation stages into a single valuation run:
// align line items, build FCF series, derive growth tables, and value each
// FCF methodology through the DCF engine.
package pipeline

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"fcfvaluation/pkg/core/align"
	"fcfvaluation/pkg/core/dcf"
	"fcfvaluation/pkg/core/fcf"
	"fcfvaluation/pkg/core/growth"
)

// ValuationReport is the full output of one run. Everything monetary is raw
// currency units; scaling to display units is the report renderer's job.
type ValuationReport struct {
	RunID       string    `json:"run_id"`
	Ticker      string    `json:"ticker"`
	GeneratedAt time.Time `json:"generated_at"`

	FCFSeries    map[fcf.Type][]align.PeriodValue `json:"fcf_series"`
	SkippedTypes map[fcf.Type]string              `json:"skipped_types,omitempty"`
	GrowthTables map[string]growth.Table          `json:"growth_tables"`

	Assumptions dcf.Assumptions          `json:"assumptions"`
	DCF         map[fcf.Type]*dcf.Result `json:"dcf"`
	DCFErrors   map[fcf.Type]string      `json:"dcf_errors,omitempty"`
}

// Orchestrator runs valuations. It holds configuration only — no state
// survives between runs, so one orchestrator can serve concurrent callers.
type Orchestrator struct {
	builder *fcf.Builder
	windows []int
	band    growth.Band
}

// NewOrchestrator creates an orchestrator with the given builder config and
// the standard growth windows.
func NewOrchestrator(cfg fcf.Config) *Orchestrator {
	return &Orchestrator{
		builder: fcf.NewBuilder(cfg),
		windows: growth.DefaultWindows,
		band:    growth.DefaultBand,
	}
}

// Run executes a full valuation for one company. Per-FCF-type problems are
// recorded in the report (SkippedTypes, DCFErrors) rather than failing the
// run; Run only errors when nothing at all could be computed.
func (o *Orchestrator) Run(ticker string, raw map[string][]align.PeriodValue, assumptions dcf.Assumptions, taxRateOverride *float64) (*ValuationReport, error) {
	fmt.Printf("[PIPELINE] Valuation run for %s (%d metrics)\n", ticker, len(raw))

	built := o.builder.Build(raw, taxRateOverride)
	if len(built.Series) == 0 {
		return nil, fmt.Errorf("no FCF series computable for %s: %v", ticker, built.Skipped)
	}
	for t, reason := range built.Skipped {
		fmt.Printf("[PIPELINE] %s: skipped %s (%s)\n", ticker, t, reason)
	}

	report := &ValuationReport{
		RunID:        uuid.New().String(),
		Ticker:       ticker,
		GeneratedAt:  time.Now().UTC(),
		FCFSeries:    built.Series,
		SkippedTypes: built.Skipped,
		GrowthTables: fcf.GrowthTables(built.Series, o.windows, o.band),
		Assumptions:  assumptions,
		DCF:          make(map[fcf.Type]*dcf.Result),
		DCFErrors:    make(map[fcf.Type]string),
	}

	for t, series := range built.Series {
		base, err := dcf.BaseFromSeries(series)
		if err != nil {
			report.DCFErrors[t] = err.Error()
			continue
		}
		res, err := dcf.Run(base, assumptions)
		if err != nil {
			// A bad assumption set fails every type the same way, but we
			// record it per type so partial overrides stay debuggable.
			report.DCFErrors[t] = err.Error()
			continue
		}
		for _, w := range res.ScaleWarnings {
			fmt.Printf("[PIPELINE] %s %s: SCALE WARNING: %s\n", ticker, t, w)
		}
		report.DCF[t] = res
	}

	if len(report.DCF) == 0 && len(report.DCFErrors) > 0 {
		for t, msg := range report.DCFErrors {
			return report, fmt.Errorf("dcf failed for every FCF type (%s: %s)", t, msg)
		}
	}
	return report, nil
}
