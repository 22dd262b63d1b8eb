// Batch valuation runner: values every statement export in a directory and
// writes one Markdown report per ticker. A failing company is reported and
// skipped; it never aborts the rest of the batch.
//
// Usage:
//
//	batch -in ./exports -out ./reports [-assumptions case.hjson] [-save]
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"fcfvaluation/pkg/core/dcf"
	"fcfvaluation/pkg/core/fcf"
	"fcfvaluation/pkg/core/ingest"
	"fcfvaluation/pkg/core/money"
	"fcfvaluation/pkg/core/pipeline"
	"fcfvaluation/pkg/core/report"
	"fcfvaluation/pkg/core/store"
)

func main() {
	inDir := flag.String("in", "", "directory of statement export files (.json/.hjson)")
	outDir := flag.String("out", "reports", "directory for generated markdown reports")
	assumptionsPath := flag.String("assumptions", "", "optional assumptions file (json/hjson)")
	save := flag.Bool("save", false, "persist runs to the database (requires DATABASE_URL)")
	flag.Parse()

	if *inDir == "" {
		log.Fatal("usage: batch -in <dir> [-out <dir>] [-assumptions <file>] [-save]")
	}

	godotenv.Load()

	assumptions := dcf.DefaultAssumptions()
	if *assumptionsPath != "" {
		loaded, err := ingest.LoadAssumptions(*assumptionsPath, assumptions)
		if err != nil {
			log.Fatalf("failed to load assumptions: %v", err)
		}
		assumptions = loaded
	}

	var repo *store.ValuationRepo
	if *save {
		if err := store.InitDB(context.Background()); err != nil {
			log.Fatalf("database init failed: %v", err)
		}
		defer store.Close()
		repo = store.NewValuationRepo()
	}

	entries, err := os.ReadDir(*inDir)
	if err != nil {
		log.Fatalf("cannot read input directory: %v", err)
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("cannot create output directory: %v", err)
	}

	orchestrator := pipeline.NewOrchestrator(fcf.DefaultConfig())

	var succeeded, failed []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".json" && ext != ".hjson" {
			continue
		}

		path := filepath.Join(*inDir, entry.Name())
		ticker, err := runOne(orchestrator, path, assumptions, *outDir, repo)
		if err != nil {
			fmt.Printf("[BATCH] FAIL %s: %v\n", entry.Name(), err)
			failed = append(failed, entry.Name())
			continue
		}
		fmt.Printf("[BATCH] OK   %s\n", ticker)
		succeeded = append(succeeded, ticker)
	}

	fmt.Printf("\n[BATCH] Done: %d succeeded, %d failed\n", len(succeeded), len(failed))
	for _, name := range failed {
		fmt.Printf("[BATCH]   failed: %s\n", name)
	}
	if len(succeeded) == 0 && len(failed) > 0 {
		os.Exit(1)
	}
}

func runOne(o *pipeline.Orchestrator, path string, assumptions dcf.Assumptions, outDir string, repo *store.ValuationRepo) (string, error) {
	sf, err := ingest.LoadStatementFile(path)
	if err != nil {
		return "", err
	}

	rep, err := o.Run(sf.Ticker, sf.Series(), assumptions, nil)
	if err != nil {
		return sf.Ticker, err
	}

	md := report.Render(rep, money.Millions)
	outPath := filepath.Join(outDir, strings.ToLower(sf.Ticker)+".md")
	if err := os.WriteFile(outPath, []byte(md), 0o644); err != nil {
		return sf.Ticker, fmt.Errorf("failed to write report: %w", err)
	}

	if repo != nil {
		if err := repo.Save(context.Background(), rep); err != nil {
			// Persistence failure should not fail the company's valuation.
			fmt.Printf("[BATCH] WARNING: could not persist %s: %v\n", sf.Ticker, err)
		}
	}
	return sf.Ticker, nil
}
