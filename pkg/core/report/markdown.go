// Package report renders valuation results as Markdown.
//
// This is the display boundary: raw-unit amounts from the engine are scaled
// to a display unit here, exactly once, and nowhere else.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/text"

	"fcfvaluation/pkg/core/align"
	"fcfvaluation/pkg/core/fcf"
	"fcfvaluation/pkg/core/growth"
	"fcfvaluation/pkg/core/money"
	"fcfvaluation/pkg/core/pipeline"
)

// Render produces the Markdown valuation report, scaling monetary values to
// the given display unit.
func Render(r *pipeline.ValuationReport, scale money.Scale) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Valuation Report: %s\n\n", r.Ticker)
	fmt.Fprintf(&b, "Run `%s` — generated %s\n\n", r.RunID, r.GeneratedAt.Format("2006-01-02 15:04 UTC"))

	b.WriteString("## Historical Free Cash Flow\n\n")
	writeFCFTable(&b, r, scale)

	b.WriteString("\n## Growth Rates (CAGR)\n\n")
	writeGrowthTable(&b, r.GrowthTables)

	b.WriteString("\n## DCF Valuation\n\n")
	fmt.Fprintf(&b, "Discount rate %.2f%%, terminal growth %.2f%%, %d-year horizon (stage 1: %d years at %.2f%%, stage 2 at %.2f%%).\n\n",
		r.Assumptions.DiscountRate*100, r.Assumptions.TerminalGrowth*100,
		r.Assumptions.ProjectionYears, r.Assumptions.Stage1Years,
		r.Assumptions.Stage1Growth*100, r.Assumptions.Stage2Growth*100)
	writeDCFTable(&b, r, scale)

	for t, reason := range r.SkippedTypes {
		fmt.Fprintf(&b, "\n> %s skipped: %s\n", t, reason)
	}
	for t, msg := range r.DCFErrors {
		fmt.Fprintf(&b, "\n> %s valuation failed: %s\n", t, msg)
	}

	return b.String()
}

func writeFCFTable(b *strings.Builder, r *pipeline.ValuationReport, scale money.Scale) {
	// Union of periods across the (possibly different-length) series.
	periodSet := make(map[int]bool)
	for _, series := range r.FCFSeries {
		for _, pv := range series {
			periodSet[pv.Period] = true
		}
	}
	periods := make([]int, 0, len(periodSet))
	for p := range periodSet {
		periods = append(periods, p)
	}
	sort.Ints(periods)

	fmt.Fprintf(b, "| Year |")
	for _, t := range fcf.Types {
		fmt.Fprintf(b, " %s (%s) |", t, scale.Label)
	}
	b.WriteString("\n|------|")
	for range fcf.Types {
		b.WriteString("------|")
	}
	b.WriteString("\n")

	for _, period := range periods {
		fmt.Fprintf(b, "| %d |", period)
		for _, t := range fcf.Types {
			val, ok := lookup(r.FCFSeries[t], period)
			if !ok {
				b.WriteString(" — |")
				continue
			}
			fmt.Fprintf(b, " %.1f |", money.Raw(val).In(scale).Value)
		}
		b.WriteString("\n")
	}
}

func lookup(series []align.PeriodValue, period int) (float64, bool) {
	for _, pv := range series {
		if pv.Period == period {
			return pv.Value, true
		}
	}
	return 0, false
}

func writeGrowthTable(b *strings.Builder, tables map[string]growth.Table) {
	names := make([]string, 0, len(tables))
	for name := range tables {
		if name != "Average" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	if _, ok := tables["Average"]; ok {
		names = append(names, "Average")
	}

	windows := growth.DefaultWindows

	b.WriteString("| Series |")
	for _, w := range windows {
		fmt.Fprintf(b, " %s |", growth.WindowLabel(w))
	}
	b.WriteString("\n|--------|")
	for range windows {
		b.WriteString("------|")
	}
	b.WriteString("\n")

	for _, name := range names {
		tbl := tables[name]
		fmt.Fprintf(b, "| %s |", name)
		for _, w := range windows {
			label := growth.WindowLabel(w)
			rate := tbl.Rates[label]
			if rate == nil {
				b.WriteString(" N/A |")
				continue
			}
			cell := fmt.Sprintf("%.1f%%", *rate*100)
			if tbl.Flags[label] {
				cell += " ⚠"
			}
			fmt.Fprintf(b, " %s |", cell)
		}
		b.WriteString("\n")
	}
}

func writeDCFTable(b *strings.Builder, r *pipeline.ValuationReport, scale money.Scale) {
	fmt.Fprintf(b, "| Method | Enterprise Value (%s) | Equity Value (%s) | Value / Share (%s) |\n",
		scale.Label, scale.Label, money.Units.Label)
	b.WriteString("|--------|------|------|------|\n")

	for _, t := range fcf.Types {
		res := r.DCF[t]
		if res == nil {
			continue
		}
		// Per-share values render in raw units; only aggregates get the
		// table's display scale.
		fmt.Fprintf(b, "| %s | %.1f | %.1f | %.2f |\n",
			t,
			res.EnterpriseValue.In(scale).Value,
			res.EquityValue.In(scale).Value,
			res.ValuePerShare.In(money.Units).Value)
	}
}

// Validate parses the generated document with Goldmark as a smoke check that
// the table construction produced structurally sound Markdown.
func Validate(markdown string) bool {
	parser := goldmark.DefaultParser()
	doc := parser.Parse(text.NewReader([]byte(markdown)))
	return doc != nil
}
