package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dvloznov/hoa-ledger/internal/config"
	"github.com/dvloznov/hoa-ledger/internal/logger"
	"github.com/dvloznov/hoa-ledger/internal/pipeline"
	"github.com/dvloznov/hoa-ledger/internal/store/memory"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config (optional)")
	seedPath := flag.String("seed", "seed.json", "path to reference data seed file")
	ledgerPath := flag.String("ledger", "", "path to a JSON ledger snapshot to reconcile")
	fiscalYear := flag.Int("year", time.Now().Year(), "fiscal year to reconcile")
	archiveProject := flag.String("archive-project", "", "BigQuery project to archive the reconciled ledger into (optional)")
	archiveDataset := flag.String("archive-dataset", "hoa_ledger", "BigQuery dataset for the archive")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logger.NewWithLevel(cfg.Log.Level)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	st := memory.New()
	if err := st.LoadSeedFile(*seedPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to load seed data")
	}
	if *ledgerPath != "" {
		if err := loadLedger(ctx, st, *ledgerPath); err != nil {
			log.Fatal().Err(err).Msg("Failed to load ledger snapshot")
		}
	}

	report, err := pipeline.NewReconciler(st, cfg).Run(ctx, *fiscalYear)
	if err != nil {
		log.Fatal().Err(err).Msg("Reconciliation failed")
	}

	out, _ := json.MarshalIndent(report, "", "  ")
	fmt.Println(string(out))

	if report.Balance.UnbalancedCount > 0 {
		os.Exit(2)
	}

	// Only a clean run is worth archiving.
	if *archiveProject != "" {
		if err := archiveRun(ctx, st, *fiscalYear, *archiveProject, *archiveDataset); err != nil {
			log.Fatal().Err(err).Msg("Failed to archive reconciled ledger")
		}
		log.Info().Str("dataset", *archiveDataset).Msg("Archived reconciled ledger")
	}
}
