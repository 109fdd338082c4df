package pipeline

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/dvloznov/hoa-ledger/internal/extractor"
	"github.com/dvloznov/hoa-ledger/internal/gcs"
	"github.com/dvloznov/hoa-ledger/internal/jobs"
	"github.com/dvloznov/hoa-ledger/internal/logger"
	"github.com/dvloznov/hoa-ledger/internal/store"
)

// NewImportHandler adapts the importer into a queue job handler. Statement
// bytes come from GCS or the local filesystem; PDF payloads go through the
// extraction collaborator first, everything else straight to the parsers.
func NewImportHandler(im *Importer, storage gcs.StorageService, ex extractor.Extractor) jobs.JobHandler {
	return func(ctx context.Context, job jobs.Job) error {
		stmtJob, ok := job.(*jobs.ImportStatementJob)
		if !ok {
			return fmt.Errorf("import handler: unexpected job type %s", job.GetType())
		}
		log := logger.FromContext(ctx)

		payload, name, err := loadPayload(ctx, storage, stmtJob)
		if err != nil {
			return fmt.Errorf("import handler: %w", err)
		}

		if isPDF(name, payload) {
			if ex == nil {
				return fmt.Errorf("import handler: PDF statement %s but no extractor configured", name)
			}
			payload, err = ex.ExtractStatement(ctx, payload)
			if err != nil {
				return fmt.Errorf("import handler: extract %s: %w", name, err)
			}
		}

		report, err := im.ImportStatement(ctx, stmtJob.AccountID, payload)
		if err != nil {
			return err
		}
		log.Info().
			Str("job_id", stmtJob.JobID).
			Str("file", name).
			Int("imported", report.Imported).
			Int("failed", report.Failed).
			Msg("import job processed")

		if stmtJob.Recategorize {
			fy := firstRowYear(ctx, im, stmtJob.AccountID)
			if fy > 0 {
				if _, err := im.Recategorize(ctx, fy); err != nil {
					return err
				}
			}
		}
		return nil
	}
}

func loadPayload(ctx context.Context, storage gcs.StorageService, job *jobs.ImportStatementJob) ([]byte, string, error) {
	switch {
	case job.GCSURI != "":
		data, err := storage.FetchFromURI(ctx, job.GCSURI)
		if err != nil {
			return nil, "", err
		}
		return data, storage.FilenameFromURI(job.GCSURI), nil
	case job.LocalPath != "":
		data, err := os.ReadFile(job.LocalPath)
		if err != nil {
			return nil, "", err
		}
		return data, job.LocalPath, nil
	default:
		return nil, "", fmt.Errorf("job %s has neither a GCS URI nor a local path", job.JobID)
	}
}

// isPDF checks the filename extension first, the magic bytes second.
func isPDF(name string, payload []byte) bool {
	if strings.HasSuffix(strings.ToLower(name), ".pdf") {
		return true
	}
	return len(payload) >= 5 && string(payload[:5]) == "%PDF-"
}

// firstRowYear resolves the account's most recent transaction year for the
// follow-up recategorize pass. Zero when the account has no rows.
func firstRowYear(ctx context.Context, im *Importer, accountID string) int {
	txs, err := im.store.Transactions().List(ctx, store.TransactionFilter{
		AccountID: accountID,
		SortBy:    "date",
		Desc:      true,
		Limit:     1,
	})
	if err != nil || len(txs) == 0 {
		return 0
	}
	return txs[0].Date.Year()
}
