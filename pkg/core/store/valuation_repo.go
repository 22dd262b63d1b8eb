package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"fcfvaluation/pkg/core/pipeline"
)

// ValuationRepo stores completed valuation reports.
//
// Schema assumption (managed outside this package):
//
//	CREATE TABLE IF NOT EXISTS valuation_runs (
//	  run_id     TEXT PRIMARY KEY,
//	  ticker     TEXT NOT NULL,
//	  report_json JSONB NOT NULL,
//	  created_at TIMESTAMPTZ NOT NULL
//	);
//	CREATE INDEX IF NOT EXISTS valuation_runs_ticker_idx
//	  ON valuation_runs (ticker, created_at DESC);
type ValuationRepo struct{}

// NewValuationRepo creates a repository instance.
func NewValuationRepo() *ValuationRepo {
	return &ValuationRepo{}
}

// Save appends a run. Runs are immutable once written — reruns for the same
// ticker get new run IDs rather than overwriting history.
func (r *ValuationRepo) Save(ctx context.Context, report *pipeline.ValuationReport) error {
	pool := GetPool()
	if pool == nil {
		return fmt.Errorf("database pool not initialized")
	}

	jsonData, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	query := `
		INSERT INTO valuation_runs (run_id, ticker, report_json, created_at)
		VALUES ($1, $2, $3, $4);
	`
	_, err = pool.Exec(ctx, query, report.RunID, report.Ticker, jsonData, report.GeneratedAt)
	if err != nil {
		return fmt.Errorf("failed to save valuation run: %w", err)
	}
	return nil
}

// LoadLatest retrieves the most recent run for a ticker.
func (r *ValuationRepo) LoadLatest(ctx context.Context, ticker string) (*pipeline.ValuationReport, error) {
	pool := GetPool()
	if pool == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}

	query := `
		SELECT report_json FROM valuation_runs
		WHERE ticker = $1
		ORDER BY created_at DESC
		LIMIT 1;
	`
	var jsonData []byte
	err := pool.QueryRow(ctx, query, ticker).Scan(&jsonData)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("no valuation runs found for ticker %s", ticker)
		}
		return nil, fmt.Errorf("failed to load valuation run: %w", err)
	}

	var report pipeline.ValuationReport
	if err := json.Unmarshal(jsonData, &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal valuation run: %w", err)
	}
	return &report, nil
}
