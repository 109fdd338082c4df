// Package bigquery archives reconciled ledger data to BigQuery for
// long-term audit queries. The in-memory store stays authoritative; rows
// here are append-only snapshots.
package bigquery

import (
	"cloud.google.com/go/bigquery"
)

// TransactionRow mirrors the transactions archive table schema.
type TransactionRow struct {
	TransactionID string `bigquery:"transaction_id"` // REQUIRED

	AccountID      string `bigquery:"account_id"`
	Description    string `bigquery:"description"`
	Amount         string `bigquery:"amount"` // NUMERIC carried as string to keep cents exact
	Type           string `bigquery:"type"`
	CategoryID     string `bigquery:"category_id"`      // NULLABLE (empty string → "")
	BudgetItemID   string `bigquery:"budget_item_id"`   // NULLABLE
	VendorID       string `bigquery:"vendor_id"`        // NULLABLE
	Vendor         string `bigquery:"vendor"`           // NULLABLE
	LinkedID       string `bigquery:"linked_id"`        // NULLABLE
	Status         string `bigquery:"status"`
	StatementMonth string `bigquery:"statement_month"`
	FiscalYearID   string `bigquery:"fiscal_year_id"` // NULLABLE
	SourceIndex    int64  `bigquery:"source_index"`

	Date         bigquery.NullDate      `bigquery:"date"`          // DATE, NULLABLE
	BalanceAfter bigquery.NullFloat64   `bigquery:"balance_after"` // FLOAT, NULLABLE
	ArchivedTS   bigquery.NullTimestamp `bigquery:"archived_ts"`   // TIMESTAMP, NULLABLE
}

// AlertRow mirrors the compliance alerts archive table schema.
type AlertRow struct {
	AlertID string `bigquery:"alert_id"` // REQUIRED

	Type                string `bigquery:"type"`
	Severity            string `bigquery:"severity"`
	Description         string `bigquery:"description"`
	TransactionID       string `bigquery:"transaction_id"` // NULLABLE
	AccountID           string `bigquery:"account_id"`     // NULLABLE
	BoardActionRequired bool   `bigquery:"board_action_required"`
	Resolved            bool   `bigquery:"resolved"`

	ArchivedTS bigquery.NullTimestamp `bigquery:"archived_ts"` // TIMESTAMP, NULLABLE
}
