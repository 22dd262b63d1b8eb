package valuation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"fcfvaluation/pkg/core/dcf"
	"fcfvaluation/pkg/core/fcf"
	"fcfvaluation/pkg/core/ingest"
	"fcfvaluation/pkg/core/money"
	"fcfvaluation/pkg/core/pipeline"
	"fcfvaluation/pkg/core/report"
	"fcfvaluation/pkg/core/store"
)

var (
	orchestrator *pipeline.Orchestrator
	defaults     dcf.Assumptions
	repo         *store.ValuationRepo // nil when persistence is disabled
)

// InitHandler wires the handler's collaborators. valuationRepo may be nil
// when no database is configured.
func InitHandler(o *pipeline.Orchestrator, baseAssumptions dcf.Assumptions, valuationRepo *store.ValuationRepo) {
	orchestrator = o
	defaults = baseAssumptions
	repo = valuationRepo
}

// RunRequest carries one company's statement export plus optional
// assumption overrides. Metric values are raw currency units.
type RunRequest struct {
	Ticker  string                        `json:"ticker"`
	Metrics map[string]map[string]float64 `json:"metrics"`

	DiscountRate      *float64 `json:"discount_rate,omitempty"`
	TerminalGrowth    *float64 `json:"terminal_growth,omitempty"`
	Stage1Growth      *float64 `json:"stage1_growth,omitempty"`
	Stage2Growth      *float64 `json:"stage2_growth,omitempty"`
	NetDebt           *float64 `json:"net_debt,omitempty"`
	SharesOutstanding *float64 `json:"shares_outstanding,omitempty"`
	TaxRate           *float64 `json:"tax_rate,omitempty"`

	// Sensitivity requests a discount-rate × terminal-growth grid per
	// valued FCF type, at the standard offsets.
	Sensitivity bool `json:"sensitivity,omitempty"`
}

// RunResponse returns the full report plus its Markdown rendering.
type RunResponse struct {
	Report      *pipeline.ValuationReport            `json:"report"`
	Markdown    string                               `json:"markdown"`
	Sensitivity map[fcf.Type][][]dcf.SensitivityCell `json:"sensitivity,omitempty"`
}

// HandleRun serves POST /api/valuation/run.
func HandleRun(w http.ResponseWriter, r *http.Request) {
	// CORS
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Ticker == "" || len(req.Metrics) == 0 {
		http.Error(w, "ticker and metrics are required", http.StatusBadRequest)
		return
	}

	ticker := strings.ToUpper(req.Ticker)
	fmt.Printf("[VALUATION] Request: %s (%d metrics)\n", ticker, len(req.Metrics))

	assumptions := applyOverrides(defaults, &req)

	sf := &ingest.StatementFile{Ticker: ticker, Metrics: req.Metrics}
	rep, err := orchestrator.Run(ticker, sf.Series(), assumptions, req.TaxRate)
	if err != nil {
		// Run only fails on uncomputable inputs or bad assumptions, both of
		// which are the caller's problem.
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	if repo != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := repo.Save(ctx, rep); err != nil {
			// Persistence is best-effort; the valuation already succeeded.
			fmt.Printf("[VALUATION] WARNING: failed to persist run %s: %v\n", rep.RunID, err)
		}
	}

	resp := RunResponse{
		Report:   rep,
		Markdown: report.Render(rep, money.Millions),
	}
	if req.Sensitivity {
		resp.Sensitivity = make(map[fcf.Type][][]dcf.SensitivityCell, len(rep.DCF))
		for t := range rep.DCF {
			base, err := dcf.BaseFromSeries(rep.FCFSeries[t])
			if err != nil {
				continue
			}
			resp.Sensitivity[t] = dcf.SensitivityGrid(base, assumptions, nil, nil)
		}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// HandleLatest serves GET /api/valuation/latest?ticker=XYZ from the store.
func HandleLatest(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	if repo == nil {
		http.Error(w, "persistence not configured", http.StatusServiceUnavailable)
		return
	}

	ticker := strings.ToUpper(r.URL.Query().Get("ticker"))
	if ticker == "" {
		http.Error(w, "ticker query parameter required", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	rep, err := repo.LoadLatest(ctx, ticker)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rep)
}

func applyOverrides(base dcf.Assumptions, req *RunRequest) dcf.Assumptions {
	out := base
	if req.DiscountRate != nil {
		out.DiscountRate = *req.DiscountRate
	}
	if req.TerminalGrowth != nil {
		out.TerminalGrowth = *req.TerminalGrowth
	}
	if req.Stage1Growth != nil {
		out.Stage1Growth = *req.Stage1Growth
	}
	if req.Stage2Growth != nil {
		out.Stage2Growth = *req.Stage2Growth
	}
	if req.NetDebt != nil {
		out.NetDebt = money.Raw(*req.NetDebt)
	}
	if req.SharesOutstanding != nil {
		out.SharesOutstanding = *req.SharesOutstanding
	}
	return out
}
