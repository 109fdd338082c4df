package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/dvloznov/hoa-ledger/internal/config"
	"github.com/dvloznov/hoa-ledger/internal/extractor"
	"github.com/dvloznov/hoa-ledger/internal/gcs"
	"github.com/dvloznov/hoa-ledger/internal/logger"
	"github.com/dvloznov/hoa-ledger/internal/pipeline"
	"github.com/dvloznov/hoa-ledger/internal/store"
	"github.com/dvloznov/hoa-ledger/internal/store/memory"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config (optional)")
	seedPath := flag.String("seed", "seed.json", "path to reference data seed file")
	accountID := flag.String("account", "", "account ID the statement belongs to")
	filePath := flag.String("file", "", "path to the statement export (CSV/TSV/JSON/PDF)")
	gcsURI := flag.String("gcs-uri", "", "GCS URI of the statement (alternative to --file)")
	uploadBucket := flag.String("upload-bucket", "", "GCS bucket to retain the original statement file in (optional, with --file)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logger.NewWithLevel(cfg.Log.Level)

	if *accountID == "" {
		log.Fatal().Msg("Error: --account is required")
	}
	if *filePath == "" && *gcsURI == "" {
		log.Fatal().Msg("Error: one of --file or --gcs-uri is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	st := memory.New()
	if err := st.LoadSeedFile(*seedPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to load seed data")
	}

	payload, name, err := readStatement(ctx, *filePath, *gcsURI)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read statement")
	}

	if len(payload) >= 5 && string(payload[:5]) == "%PDF-" {
		log.Info().Str("file", name).Msg("PDF statement, extracting")
		payload, err = extractor.NewGeminiExtractor().ExtractStatement(ctx, payload)
		if err != nil {
			log.Fatal().Err(err).Msg("Extraction failed")
		}
	}

	importer := pipeline.NewImporter(st, store.NewYearCache(), cfg)
	report, err := importer.ImportStatement(ctx, *accountID, payload)
	if err != nil {
		log.Fatal().Err(err).Msg("Import failed")
	}

	out, _ := json.MarshalIndent(report, "", "  ")
	fmt.Println(string(out))

	// Retain the original file only after the import landed.
	if *uploadBucket != "" && *filePath != "" {
		object := path.Join(*accountID, filepath.Base(*filePath))
		if err := gcs.NewService().UploadFile(ctx, *uploadBucket, object, *filePath); err != nil {
			log.Fatal().Err(err).Msg("Failed to upload statement to bucket")
		}
		log.Info().Str("bucket", *uploadBucket).Str("object", object).Msg("Statement retained")
	}
}

func readStatement(ctx context.Context, filePath, gcsURI string) ([]byte, string, error) {
	if gcsURI != "" {
		svc := gcs.NewService()
		data, err := svc.FetchFromURI(ctx, gcsURI)
		return data, svc.FilenameFromURI(gcsURI), err
	}
	data, err := os.ReadFile(filePath)
	return data, filePath, err
}
