package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/hoa-ledger/internal/config"
	"github.com/dvloznov/hoa-ledger/internal/extractor"
	"github.com/dvloznov/hoa-ledger/internal/gcs"
	"github.com/dvloznov/hoa-ledger/internal/jobs/inmemory"
	"github.com/dvloznov/hoa-ledger/internal/logger"
	"github.com/dvloznov/hoa-ledger/internal/pipeline"
	"github.com/dvloznov/hoa-ledger/internal/store"
	"github.com/dvloznov/hoa-ledger/internal/store/memory"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config (optional)")
	seedPath := flag.String("seed", "seed.json", "path to reference data seed file")
	workers := flag.Int("workers", 3, "number of concurrent import workers")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logger.NewWithLevel(cfg.Log.Level)

	st := memory.New()
	if err := st.LoadSeedFile(*seedPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to load seed data")
	}

	// In production the queue would be Cloud Tasks or Pub/Sub behind the
	// same interfaces.
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, *workers, jobStore)

	log.Info().Msg("Starting import worker service")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	importer := pipeline.NewImporter(st, store.NewYearCache(), cfg)
	handler := pipeline.NewImportHandler(importer, gcs.NewService(), extractor.NewGeminiExtractor())

	if err := jobQueue.Start(ctx, handler); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job consumer")
	}

	log.Info().Int("workers", *workers).Msg("Worker service started, waiting for jobs...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down worker service...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during graceful shutdown")
	}
	if err := jobQueue.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close job queue")
	}

	log.Info().Msg("Worker service exited")
}
