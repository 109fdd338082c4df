package transfer

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/hoa-ledger/internal/config"
	"github.com/dvloznov/hoa-ledger/internal/domain"
	"github.com/dvloznov/hoa-ledger/internal/logger"
	"github.com/dvloznov/hoa-ledger/internal/store"
)

// Report is the per-run outcome of the linker. Failures are reported per
// pair; there is no cross-pair rollback, and re-running after a partial
// failure only touches the pairs that are still unlinked.
type Report struct {
	Linked      int      `json:"linked"`
	Flagged     int      `json:"flagged"`
	Categorized int      `json:"categorized"`
	Failed      int      `json:"failed"`
	Errors      []string `json:"errors,omitempty"`
}

// Linker loads a fiscal year's transfer transactions, matches them, and
// writes the symmetric links through the store.
type Linker struct {
	store store.Store
	cfg   config.MatchingConfig
}

// NewLinker wires a linker to a store.
func NewLinker(st store.Store, cfg config.MatchingConfig) *Linker {
	return &Linker{store: st, cfg: cfg}
}

// Run links all transfer pairs for the given fiscal year. Idempotent:
// already-linked pairs are skipped by the matcher, and LinkPair rejects any
// attempt to steal a side that gained a partner between read and write.
func (l *Linker) Run(ctx context.Context, fiscalYear int) (Report, error) {
	log := logger.FromContext(ctx)
	var report Report

	accounts, err := l.store.Accounts().List(ctx)
	if err != nil {
		return report, fmt.Errorf("transfer.Run: list accounts: %w", err)
	}
	txs, err := l.store.Transactions().List(ctx, store.TransactionFilter{
		Types:      []domain.TransactionType{domain.TypeTransferOut, domain.TypeTransferIn},
		FiscalYear: fiscalYear,
	})
	if err != nil {
		return report, fmt.Errorf("transfer.Run: list transfers: %w", err)
	}

	links := NewMatcher(accounts, l.cfg).Match(txs)

	txByID := make(map[string]domain.Transaction, len(txs))
	for _, tx := range txs {
		txByID[tx.ID] = tx
	}
	acctByID := make(map[string]domain.Account, len(accounts))
	for _, a := range accounts {
		acctByID[a.ID] = a
	}
	categories, err := l.store.Budgets().ListCategories(ctx)
	if err != nil {
		return report, fmt.Errorf("transfer.Run: list categories: %w", err)
	}

	for _, link := range links {
		if err := l.store.Transactions().LinkPair(ctx, link.OutID, link.InID); err != nil {
			report.Failed++
			report.Errors = append(report.Errors, fmt.Sprintf("link %s<->%s: %v", link.OutID, link.InID, err))
			continue
		}
		report.Linked++

		if link.NeedsReview {
			report.Flagged++
			for _, id := range []string{link.OutID, link.InID} {
				if _, err := l.store.Transactions().Update(ctx, id, store.Fields{"needs_review": true}); err != nil {
					report.Errors = append(report.Errors, fmt.Sprintf("flag %s: %v", id, err))
				}
			}
		}

		// Either side may inherit a category from the fund of the account on
		// the other end, but only when it has none of its own.
		report.Categorized += l.inheritCategories(ctx, link, txByID, acctByID, categories, &report)
	}

	log.Info().
		Int("linked", report.Linked).
		Int("flagged", report.Flagged).
		Int("failed", report.Failed).
		Int("fiscal_year", fiscalYear).
		Msg("transfer linking complete")
	return report, nil
}

func (l *Linker) inheritCategories(
	ctx context.Context,
	link Link,
	txByID map[string]domain.Transaction,
	acctByID map[string]domain.Account,
	categories []domain.BudgetCategory,
	report *Report,
) int {
	assigned := 0
	sides := []struct {
		id       string
		targetID string
	}{
		{link.OutID, txByID[link.InID].AccountID},
		{link.InID, txByID[link.OutID].AccountID},
	}
	for _, side := range sides {
		tx, ok := txByID[side.id]
		if !ok || tx.CategoryID != "" {
			continue
		}
		target, ok := acctByID[side.targetID]
		if !ok {
			continue
		}
		catID := categoryForFund(categories, target.Type)
		if catID == "" {
			continue
		}
		_, err := l.store.Transactions().Update(ctx, side.id, store.Fields{
			"category_id":      catID,
			"auto_categorized": true,
		})
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("categorize %s: %v", side.id, err))
			continue
		}
		assigned++
	}
	return assigned
}

// categoryForFund returns the first category designated for the fund.
func categoryForFund(categories []domain.BudgetCategory, fund domain.FundType) string {
	for _, c := range categories {
		if c.Fund == fund {
			return c.ID
		}
	}
	return ""
}

// sameDay reports whether two timestamps fall on the same calendar day (UTC).
func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// withinForwardWindow reports whether in falls on or after out's day and at
// most windowDays later.
func withinForwardWindow(out, in time.Time, windowDays int) bool {
	outDay := time.Date(out.Year(), out.Month(), out.Day(), 0, 0, 0, 0, time.UTC)
	inDay := time.Date(in.Year(), in.Month(), in.Day(), 0, 0, 0, 0, time.UTC)
	diff := int(inDay.Sub(outDay).Hours() / 24)
	return diff >= 0 && diff <= windowDays
}
