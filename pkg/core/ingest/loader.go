// Package ingest loads externally produced statement exports into the series
// shape the calculation core consumes.
//
// Statement extraction itself (spreadsheets, data-provider APIs) happens
// outside this repository; what arrives here is a JSON/HJSON document of
// metric → period → value maps. Exports from spreadsheet tooling are
// frequently sloppy JSON (trailing commas, single quotes, comments), so
// plain-JSON parse failures get one repair pass before giving up.
package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"

	"fcfvaluation/pkg/core/align"
	"fcfvaluation/pkg/core/dcf"
	"fcfvaluation/pkg/core/money"
)

// StatementFile is one company's exported line items. Metric values are keyed
// by fiscal-year label ("2023") and are raw currency units.
type StatementFile struct {
	Ticker  string                        `json:"ticker"`
	Metrics map[string]map[string]float64 `json:"metrics"`
}

// LoadStatementFile reads and parses a statement export. Files with an
// .hjson extension parse as HJSON; everything else parses as JSON with a
// repair fallback.
func LoadStatementFile(path string) (*StatementFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read statement file: %w", err)
	}

	var sf StatementFile
	if strings.EqualFold(filepath.Ext(path), ".hjson") {
		if err := hjson.Unmarshal(data, &sf); err != nil {
			return nil, fmt.Errorf("failed to parse hjson statement file: %w", err)
		}
	} else if err := unmarshalWithRepair(data, &sf); err != nil {
		return nil, err
	}

	if len(sf.Metrics) == 0 {
		return nil, fmt.Errorf("statement file %s has no metrics", filepath.Base(path))
	}
	if sf.Ticker == "" {
		// Fall back to the file name, the convention for batch exports.
		sf.Ticker = strings.ToUpper(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	}
	return &sf, nil
}

// unmarshalWithRepair tries strict JSON first and runs one repair pass on
// malformed input before failing.
func unmarshalWithRepair(data []byte, v interface{}) error {
	if err := json.Unmarshal(data, v); err == nil {
		return nil
	}
	repaired, err := jsonrepair.RepairJSON(string(data))
	if err != nil {
		return fmt.Errorf("statement JSON unparseable and unrepairable: %w", err)
	}
	if err := json.Unmarshal([]byte(repaired), v); err != nil {
		return fmt.Errorf("repaired statement JSON still invalid: %w", err)
	}
	return nil
}

// Series converts the file into labeled period series for the aligner.
// Period labels that do not parse as years are dropped; ordering is left to
// the aligner, which makes no assumption about it anyway.
func (sf *StatementFile) Series() map[string][]align.PeriodValue {
	out := make(map[string][]align.PeriodValue, len(sf.Metrics))
	for metric, byYear := range sf.Metrics {
		pairs := make([]align.PeriodValue, 0, len(byYear))
		for label, value := range byYear {
			year, err := strconv.Atoi(strings.TrimSpace(label))
			if err != nil {
				continue
			}
			pairs = append(pairs, align.PeriodValue{Period: year, Value: value})
		}
		if len(pairs) > 0 {
			out[metric] = pairs
		}
	}
	return out
}

// LoadAssumptions reads a DCF assumption file (JSON or HJSON — analysts
// annotate these with comments, which HJSON permits). Fields left unset in
// the file keep the values already in base.
func LoadAssumptions(path string, base dcf.Assumptions) (dcf.Assumptions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("failed to read assumptions file: %w", err)
	}

	// Decode into a generic map first so absent keys can be distinguished
	// from explicit zeros.
	var fields map[string]interface{}
	if strings.EqualFold(filepath.Ext(path), ".hjson") {
		err = hjson.Unmarshal(data, &fields)
	} else {
		err = unmarshalWithRepair(data, &fields)
	}
	if err != nil {
		return base, fmt.Errorf("failed to parse assumptions file: %w", err)
	}

	out := base
	setF := func(key string, dst *float64) {
		if v, ok := fields[key]; ok {
			if f, ok := toFloat(v); ok {
				*dst = f
			}
		}
	}
	setF("discount_rate", &out.DiscountRate)
	setF("terminal_growth", &out.TerminalGrowth)
	setF("stage1_growth", &out.Stage1Growth)
	setF("stage2_growth", &out.Stage2Growth)
	if v, ok := fields["net_debt"]; ok {
		if f, ok := toFloat(v); ok {
			out.NetDebt = money.Raw(f)
		}
	}
	setF("shares_outstanding", &out.SharesOutstanding)
	if v, ok := fields["stage1_years"]; ok {
		if f, ok := toFloat(v); ok {
			out.Stage1Years = int(f)
		}
	}
	if v, ok := fields["projection_years"]; ok {
		if f, ok := toFloat(v); ok {
			out.ProjectionYears = int(f)
		}
	}
	return out, nil
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
