package main

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"

	"github.com/dvloznov/hoa-ledger/internal/store"
	bqarchive "github.com/dvloznov/hoa-ledger/internal/store/bigquery"
)

// archiveRun streams the fiscal year's reconciled transactions and the
// compliance alerts into the long-term BigQuery archive. One client serves
// both inserts.
func archiveRun(ctx context.Context, st store.Store, fiscalYear int, projectID, datasetID string) error {
	txs, err := st.Transactions().List(ctx, store.TransactionFilter{FiscalYear: fiscalYear})
	if err != nil {
		return fmt.Errorf("archiveRun: list transactions: %w", err)
	}
	alerts, err := st.Alerts().List(ctx, store.AlertFilter{})
	if err != nil {
		return fmt.Errorf("archiveRun: list alerts: %w", err)
	}

	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return fmt.Errorf("archiveRun: create client: %w", err)
	}
	defer client.Close()

	arch := bqarchive.NewArchive(projectID, datasetID)
	if err := arch.ArchiveTransactionsWithClient(ctx, client, txs); err != nil {
		return fmt.Errorf("archiveRun: %w", err)
	}
	if err := arch.ArchiveAlertsWithClient(ctx, client, alerts); err != nil {
		return fmt.Errorf("archiveRun: %w", err)
	}
	return nil
}
