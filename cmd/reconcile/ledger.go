package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/dvloznov/hoa-ledger/internal/domain"
	"github.com/dvloznov/hoa-ledger/internal/store/memory"
)

// ledgerSnapshot is the JSON shape produced by an earlier import run.
type ledgerSnapshot struct {
	Transactions []domain.Transaction      `json:"transactions"`
	Statements   []domain.MonthlyStatement `json:"statements"`
}

func loadLedger(ctx context.Context, st *memory.Store, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("loadLedger: read %s: %w", path, err)
	}
	var snap ledgerSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("loadLedger: decode %s: %w", path, err)
	}

	for _, tx := range snap.Transactions {
		if _, err := st.Transactions().Create(ctx, tx); err != nil {
			return fmt.Errorf("loadLedger: transaction %s: %w", tx.ID, err)
		}
	}
	for _, s := range snap.Statements {
		if _, err := st.Statements().Upsert(ctx, s); err != nil {
			return fmt.Errorf("loadLedger: statement %s: %w", s.ID, err)
		}
	}
	return nil
}
