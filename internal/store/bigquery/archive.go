package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/hoa-ledger/internal/domain"
)

// Archive writes ledger snapshots to a BigQuery dataset.
type Archive struct {
	ProjectID string
	DatasetID string
}

// NewArchive creates an archive bound to a project and dataset.
func NewArchive(projectID, datasetID string) *Archive {
	return &Archive{ProjectID: projectID, DatasetID: datasetID}
}

const (
	transactionsTable = "transactions"
	alertsTable       = "compliance_alerts"
)

// ArchiveTransactions streams transactions into the archive table.
func (a *Archive) ArchiveTransactions(ctx context.Context, txs []domain.Transaction) error {
	client, err := bigquery.NewClient(ctx, a.ProjectID)
	if err != nil {
		return fmt.Errorf("ArchiveTransactions: creating client: %w", err)
	}
	defer client.Close()

	return a.ArchiveTransactionsWithClient(ctx, client, txs)
}

// ArchiveTransactionsWithClient streams transactions using the provided client.
func (a *Archive) ArchiveTransactionsWithClient(ctx context.Context, client *bigquery.Client, txs []domain.Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	now := time.Now()
	rows := make([]*TransactionRow, 0, len(txs))
	for _, tx := range txs {
		rows = append(rows, transactionToRow(tx, now))
	}

	inserter := client.Dataset(a.DatasetID).Table(transactionsTable).Inserter()
	if err := inserter.Put(ctx, rows); err != nil {
		return fmt.Errorf("ArchiveTransactionsWithClient: inserting rows: %w", err)
	}
	return nil
}

// ArchiveAlerts streams compliance alerts into the archive table.
func (a *Archive) ArchiveAlerts(ctx context.Context, alerts []domain.ComplianceAlert) error {
	client, err := bigquery.NewClient(ctx, a.ProjectID)
	if err != nil {
		return fmt.Errorf("ArchiveAlerts: creating client: %w", err)
	}
	defer client.Close()

	return a.ArchiveAlertsWithClient(ctx, client, alerts)
}

// ArchiveAlertsWithClient streams alerts using the provided client.
func (a *Archive) ArchiveAlertsWithClient(ctx context.Context, client *bigquery.Client, alerts []domain.ComplianceAlert) error {
	if len(alerts) == 0 {
		return nil
	}

	now := time.Now()
	rows := make([]*AlertRow, 0, len(alerts))
	for _, alert := range alerts {
		rows = append(rows, &AlertRow{
			AlertID:             alert.ID,
			Type:                string(alert.Type),
			Severity:            string(alert.Severity),
			Description:         alert.Description,
			TransactionID:       alert.TransactionID,
			AccountID:           alert.AccountID,
			BoardActionRequired: alert.BoardActionRequired,
			Resolved:            alert.Resolved,
			ArchivedTS:          bigquery.NullTimestamp{Timestamp: now, Valid: true},
		})
	}

	inserter := client.Dataset(a.DatasetID).Table(alertsTable).Inserter()
	if err := inserter.Put(ctx, rows); err != nil {
		return fmt.Errorf("ArchiveAlertsWithClient: inserting rows: %w", err)
	}
	return nil
}

// ListArchivedTransactions retrieves archived transactions for an account in
// a date range.
func (a *Archive) ListArchivedTransactions(ctx context.Context, accountID string, from, to time.Time) ([]*TransactionRow, error) {
	client, err := bigquery.NewClient(ctx, a.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("ListArchivedTransactions: creating client: %w", err)
	}
	defer client.Close()

	return a.ListArchivedTransactionsWithClient(ctx, client, accountID, from, to)
}

// ListArchivedTransactionsWithClient retrieves archived transactions using
// the provided client.
func (a *Archive) ListArchivedTransactionsWithClient(ctx context.Context, client *bigquery.Client, accountID string, from, to time.Time) ([]*TransactionRow, error) {
	query := fmt.Sprintf(`
		SELECT
			transaction_id,
			account_id,
			description,
			amount,
			type,
			category_id,
			budget_item_id,
			vendor_id,
			vendor,
			linked_id,
			status,
			statement_month,
			fiscal_year_id,
			source_index,
			date,
			balance_after,
			archived_ts
	FROM `+"`%s.%s.%s`"+`
	WHERE account_id = @account_id
	  AND date BETWEEN @from_date AND @to_date
	ORDER BY date ASC, source_index DESC
	`, a.ProjectID, a.DatasetID, transactionsTable)

	q := client.Query(query)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "account_id", Value: accountID},
		{Name: "from_date", Value: civil.DateOf(from)},
		{Name: "to_date", Value: civil.DateOf(to)},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListArchivedTransactionsWithClient: reading query: %w", err)
	}

	var out []*TransactionRow
	for {
		var row TransactionRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListArchivedTransactionsWithClient: iterating: %w", err)
		}
		out = append(out, &row)
	}
	return out, nil
}

func transactionToRow(tx domain.Transaction, archivedAt time.Time) *TransactionRow {
	row := &TransactionRow{
		TransactionID:  tx.ID,
		AccountID:      tx.AccountID,
		Description:    tx.Description,
		Amount:         tx.Amount.StringFixed(2),
		Type:           string(tx.Type),
		CategoryID:     tx.CategoryID,
		BudgetItemID:   tx.BudgetItemID,
		VendorID:       tx.VendorID,
		Vendor:         tx.Vendor,
		LinkedID:       tx.LinkedTransferID,
		Status:         string(tx.Status),
		StatementMonth: tx.StatementMonth,
		FiscalYearID:   tx.FiscalYearID,
		SourceIndex:    int64(tx.SourceIndex),
		ArchivedTS:     bigquery.NullTimestamp{Timestamp: archivedAt, Valid: true},
	}
	if !tx.Date.IsZero() {
		row.Date = bigquery.NullDate{Date: civil.DateOf(tx.Date), Valid: true}
	}
	if tx.BalanceAfter != nil {
		row.BalanceAfter = bigquery.NullFloat64{Float64: tx.BalanceAfter.InexactFloat64(), Valid: true}
	}
	return row
}
