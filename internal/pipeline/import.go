// Package pipeline orchestrates the statement import flow (parse, normalize,
// classify, persist) and the reconciliation run (link transfers, balance
// check, compliance evaluation). Each stage is its own package; this one only
// sequences them and accumulates per-row outcomes.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dvloznov/hoa-ledger/internal/classify"
	"github.com/dvloznov/hoa-ledger/internal/config"
	"github.com/dvloznov/hoa-ledger/internal/domain"
	"github.com/dvloznov/hoa-ledger/internal/logger"
	"github.com/dvloznov/hoa-ledger/internal/normalize"
	"github.com/dvloznov/hoa-ledger/internal/parser"
	"github.com/dvloznov/hoa-ledger/internal/store"
)

// Importer runs statement imports against a store.
type Importer struct {
	store store.Store
	years *store.YearCache
	cfg   *config.Config
}

// NewImporter wires an importer.
func NewImporter(st store.Store, years *store.YearCache, cfg *config.Config) *Importer {
	return &Importer{store: st, years: years, cfg: cfg}
}

// ImportReport is the per-statement outcome of one import.
type ImportReport struct {
	Imported    int      `json:"imported"`
	Skipped     int      `json:"skipped"`
	Classified  int      `json:"classified"`
	Flagged     int      `json:"flagged"`
	Failed      int      `json:"failed"`
	Warnings    []string `json:"warnings,omitempty"`
	Errors      []string `json:"errors,omitempty"`
	StatementID string   `json:"statement_id,omitempty"`
}

// ImportStatement ingests one statement payload for an account. The payload
// may be a delimited export or a structured JSON document; the format is
// detected from the first non-space byte. Rows that fail to parse are skipped
// and counted, never fatal; rows that fail to persist are counted as failed
// and the rest of the batch proceeds.
func (im *Importer) ImportStatement(ctx context.Context, accountID string, payload []byte) (ImportReport, error) {
	log := logger.FromContext(ctx)
	var report ImportReport

	account, err := im.store.Accounts().Get(ctx, accountID)
	if err != nil {
		return report, fmt.Errorf("pipeline.ImportStatement: account %s: %w", accountID, err)
	}

	parsed, err := parsePayload(payload)
	if err != nil {
		return report, fmt.Errorf("pipeline.ImportStatement: %w", err)
	}
	report.Skipped = parsed.SkippedRows
	report.Warnings = parsed.Warnings

	ref, err := im.loadRefData(ctx)
	if err != nil {
		return report, fmt.Errorf("pipeline.ImportStatement: %w", err)
	}
	vendorByID := make(map[string]domain.Vendor, len(ref.Vendors))
	for _, v := range ref.Vendors {
		vendorByID[v.ID] = v
	}

	for _, row := range parsed.Rows {
		tx := normalize.Row(row, account.ID)

		if id, err := im.years.Lookup(ctx, im.store.FiscalYears(), tx.Date.Year()); err == nil {
			tx.FiscalYearID = id
		} else if !errors.Is(err, store.ErrNotFound) {
			return report, fmt.Errorf("pipeline.ImportStatement: %w", err)
		}

		res := classify.Classify(tx, ref, im.cfg.Scoring)
		if res.CategoryID != "" && classify.CanAssign(tx, false) {
			tx.CategoryID = res.CategoryID
			tx.BudgetItemID = res.BudgetItemID
			tx.AutoCategorized = true
			report.Classified++
		}
		if res.VendorID != "" {
			tx.VendorID = res.VendorID
		}
		if res.Ambiguous {
			tx.NeedsReview = true
		}

		// A matched vendor that belongs to a different fund than the account
		// is a mixing signal regardless of classification confidence.
		if v, ok := vendorByID[res.VendorID]; ok {
			if v.Fund != "" && v.Fund != account.Type {
				tx.ViolationFlag = true
				tx.ViolationType = string(domain.AlertFundMixing)
				report.Flagged++
			}
		}

		if _, err := im.store.Transactions().Create(ctx, tx); err != nil {
			report.Failed++
			report.Errors = append(report.Errors, fmt.Sprintf("row %d: %v", row.SourceIndex, err))
			continue
		}
		report.Imported++
	}

	if id, err := im.upsertStatement(ctx, account.ID, parsed); err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("statement: %v", err))
	} else {
		report.StatementID = id
	}

	log.Info().
		Str("account_id", account.ID).
		Int("imported", report.Imported).
		Int("skipped", report.Skipped).
		Int("classified", report.Classified).
		Int("flagged", report.Flagged).
		Msg("statement import complete")
	return report, nil
}

// parsePayload picks the parser from the payload shape.
func parsePayload(payload []byte) (*parser.Result, error) {
	trimmed := strings.TrimSpace(string(payload))
	if strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "{") {
		return parser.ParseStructured(payload)
	}
	return parser.Parse(string(payload))
}

func (im *Importer) loadRefData(ctx context.Context) (classify.RefData, error) {
	var ref classify.RefData
	var err error
	if ref.Categories, err = im.store.Budgets().ListCategories(ctx); err != nil {
		return ref, fmt.Errorf("list categories: %w", err)
	}
	if ref.Items, err = im.store.Budgets().ListItems(ctx); err != nil {
		return ref, fmt.Errorf("list budget items: %w", err)
	}
	if ref.Vendors, err = im.store.Budgets().ListVendors(ctx); err != nil {
		return ref, fmt.Errorf("list vendors: %w", err)
	}
	return ref, nil
}

// upsertStatement records statement-level balances when the payload carried
// them. Returns an empty id when there was nothing to record.
func (im *Importer) upsertStatement(ctx context.Context, accountID string, parsed *parser.Result) (string, error) {
	if parsed.BeginningBalance == nil || parsed.EndingBalance == nil {
		return "", nil
	}
	year, month, ok := splitPeriod(parsed.StatementPeriod)
	if !ok {
		// Fall back to the first row's month.
		if len(parsed.Rows) == 0 {
			return "", nil
		}
		year, month = parsed.Rows[0].Date.Year(), int(parsed.Rows[0].Date.Month())
	}
	stmt, err := im.store.Statements().Upsert(ctx, domain.MonthlyStatement{
		AccountID:        accountID,
		Year:             year,
		Month:            month,
		BeginningBalance: *parsed.BeginningBalance,
		EndingBalance:    *parsed.EndingBalance,
		Source:           domain.SourceStatement,
	})
	if err != nil {
		return "", err
	}
	return stmt.ID, nil
}

// splitPeriod parses "YYYY-MM".
func splitPeriod(period string) (year, month int, ok bool) {
	if n, err := fmt.Sscanf(period, "%d-%d", &year, &month); err != nil || n != 2 {
		return 0, 0, false
	}
	if month < 1 || month > 12 {
		return 0, 0, false
	}
	return year, month, true
}
