package pipeline

import (
	"context"
	"fmt"

	"github.com/dvloznov/hoa-ledger/internal/classify"
	"github.com/dvloznov/hoa-ledger/internal/logger"
	"github.com/dvloznov/hoa-ledger/internal/store"
)

// BatchReport is the outcome of a bulk classification pass.
type BatchReport struct {
	Succeeded int      `json:"succeeded"`
	Failed    int      `json:"failed"`
	Skipped   int      `json:"skipped"`
	Errors    []string `json:"errors,omitempty"`
}

// Recategorize re-runs classification over a fiscal year. Manual assignments
// are never touched; auto-categorized rows are re-scored against the current
// reference data and updated when the result differs. Each row's update is
// disjoint from every other row's, so a batch can be replayed after a partial
// failure without clobbering anything.
func (im *Importer) Recategorize(ctx context.Context, fiscalYear int) (BatchReport, error) {
	log := logger.FromContext(ctx)
	var report BatchReport

	ref, err := im.loadRefData(ctx)
	if err != nil {
		return report, fmt.Errorf("pipeline.Recategorize: %w", err)
	}

	txs, err := im.store.Transactions().List(ctx, store.TransactionFilter{FiscalYear: fiscalYear})
	if err != nil {
		return report, fmt.Errorf("pipeline.Recategorize: list transactions: %w", err)
	}

	for _, tx := range txs {
		if !classify.CanAssign(tx, true) {
			report.Skipped++
			continue
		}

		res := classify.Classify(tx, ref, im.cfg.Scoring)
		if res.CategoryID == tx.CategoryID && res.BudgetItemID == tx.BudgetItemID {
			report.Skipped++
			continue
		}

		fields := store.Fields{
			"category_id":      res.CategoryID,
			"budget_item_id":   res.BudgetItemID,
			"auto_categorized": res.CategoryID != "",
		}
		if res.VendorID != "" {
			fields["vendor_id"] = res.VendorID
		}
		if res.Ambiguous {
			fields["needs_review"] = true
		}
		if _, err := im.store.Transactions().Update(ctx, tx.ID, fields); err != nil {
			report.Failed++
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", tx.ID, err))
			continue
		}
		report.Succeeded++
	}

	log.Info().
		Int("fiscal_year", fiscalYear).
		Int("succeeded", report.Succeeded).
		Int("failed", report.Failed).
		Int("skipped", report.Skipped).
		Msg("recategorize complete")
	return report, nil
}
