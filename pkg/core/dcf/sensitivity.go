package dcf

import "fcfvaluation/pkg/core/money"

// SensitivityCell is one valuation under perturbed discounting assumptions.
// A cell whose assumptions fail validation (rate at or below terminal growth)
// is recorded with Valid=false instead of aborting the grid.
type SensitivityCell struct {
	DiscountRate   float64   `json:"discount_rate"`
	TerminalGrowth float64   `json:"terminal_growth"`
	ValuePerShare  money.Raw `json:"value_per_share"`
	Valid          bool      `json:"valid"`
}

// SensitivityGrid revalues the base case across a grid of discount-rate and
// terminal-growth offsets. Rows vary the discount rate, columns the terminal
// growth.
func SensitivityGrid(baseFCF money.Raw, a Assumptions, rateOffsets, growthOffsets []float64) [][]SensitivityCell {
	if len(rateOffsets) == 0 {
		rateOffsets = []float64{-0.01, 0, 0.01}
	}
	if len(growthOffsets) == 0 {
		growthOffsets = []float64{-0.005, 0, 0.005}
	}

	grid := make([][]SensitivityCell, len(rateOffsets))
	for i, dr := range rateOffsets {
		row := make([]SensitivityCell, len(growthOffsets))
		for j, dg := range growthOffsets {
			perturbed := a
			perturbed.DiscountRate = a.DiscountRate + dr
			perturbed.TerminalGrowth = a.TerminalGrowth + dg

			cell := SensitivityCell{
				DiscountRate:   perturbed.DiscountRate,
				TerminalGrowth: perturbed.TerminalGrowth,
			}
			if res, err := Run(baseFCF, perturbed); err == nil {
				cell.ValuePerShare = res.ValuePerShare
				cell.Valid = true
			}
			row[j] = cell
		}
		grid[i] = row
	}
	return grid
}
