package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"fcfvaluation/pkg/api/valuation"
	"fcfvaluation/pkg/core/dcf"
	"fcfvaluation/pkg/core/fcf"
	"fcfvaluation/pkg/core/pipeline"
	"fcfvaluation/pkg/core/store"
)

// serverConfig mirrors config/valuation.yaml.
type serverConfig struct {
	Defaults struct {
		DiscountRate      float64 `yaml:"discount_rate"`
		TerminalGrowth    float64 `yaml:"terminal_growth"`
		Stage1Growth      float64 `yaml:"stage1_growth"`
		Stage2Growth      float64 `yaml:"stage2_growth"`
		Stage1Years       int     `yaml:"stage1_years"`
		ProjectionYears   int     `yaml:"projection_years"`
		SharesOutstanding float64 `yaml:"shares_outstanding"`
	} `yaml:"defaults"`
	Tax struct {
		DefaultRate float64 `yaml:"default_rate"`
		Ceiling     float64 `yaml:"ceiling"`
	} `yaml:"tax"`
	MetricVariants map[string][]string `yaml:"metric_variants"`
}

func main() {
	godotenv.Load()

	assumptions := dcf.DefaultAssumptions()
	builderCfg := fcf.DefaultConfig()

	configData, err := os.ReadFile("config/valuation.yaml")
	if err == nil {
		var cfg serverConfig
		if err := yaml.Unmarshal(configData, &cfg); err != nil {
			log.Fatalf("config/valuation.yaml is invalid: %v", err)
		}
		assumptions.DiscountRate = cfg.Defaults.DiscountRate
		assumptions.TerminalGrowth = cfg.Defaults.TerminalGrowth
		assumptions.Stage1Growth = cfg.Defaults.Stage1Growth
		assumptions.Stage2Growth = cfg.Defaults.Stage2Growth
		if cfg.Defaults.Stage1Years > 0 {
			assumptions.Stage1Years = cfg.Defaults.Stage1Years
		}
		if cfg.Defaults.ProjectionYears > 0 {
			assumptions.ProjectionYears = cfg.Defaults.ProjectionYears
		}
		assumptions.SharesOutstanding = cfg.Defaults.SharesOutstanding
		if cfg.Tax.DefaultRate > 0 {
			builderCfg.DefaultTaxRate = cfg.Tax.DefaultRate
		}
		if cfg.Tax.Ceiling > 0 {
			builderCfg.TaxRateCeiling = cfg.Tax.Ceiling
		}
		// Extra label variants extend the built-in catalog, appended after
		// the defaults so the standard labels keep precedence.
		for field, variants := range cfg.MetricVariants {
			if _, ok := builderCfg.Catalog[field]; !ok {
				fmt.Printf("[API] Unknown metric field %q in config, ignoring\n", field)
				continue
			}
			builderCfg.Catalog[field] = append(builderCfg.Catalog[field], variants...)
		}
	} else {
		fmt.Println("[API] No config/valuation.yaml, using built-in defaults")
	}

	// Persistence is optional: no DATABASE_URL just disables /latest.
	var repo *store.ValuationRepo
	if os.Getenv("DATABASE_URL") != "" {
		if err := store.InitDB(context.Background()); err != nil {
			log.Fatalf("database init failed: %v", err)
		}
		defer store.Close()
		repo = store.NewValuationRepo()
		fmt.Println("[API] Persistence enabled")
	}

	valuation.InitHandler(pipeline.NewOrchestrator(builderCfg), assumptions, repo)
	http.HandleFunc("/api/valuation/run", valuation.HandleRun)
	http.HandleFunc("/api/valuation/latest", valuation.HandleLatest)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	fmt.Printf("[API] Listening on :%s\n", port)
	if err := http.ListenAndServe(":"+port, nil); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
