package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/dvloznov/hoa-ledger/internal/config"
	"github.com/dvloznov/hoa-ledger/internal/domain"
	"github.com/dvloznov/hoa-ledger/internal/store"
)

func jan(dd int) time.Time {
	return time.Date(2025, 1, dd, 0, 0, 0, 0, time.UTC)
}

func TestReconcilerRun(t *testing.T) {
	ctx := context.Background()
	st := seedStore()
	st.SeedCategory(domain.BudgetCategory{ID: "cat-reserve-xfer", Name: "Reserve Contributions", Fund: domain.FundReserve})
	st.SeedCategory(domain.BudgetCategory{ID: "cat-op-xfer", Name: "Operating Transfers", Fund: domain.FundOperating})

	mk := func(tx domain.Transaction) domain.Transaction {
		tx.FiscalYearID = "fy-2025"
		tx.StatementMonth = "2025-01"
		created, err := st.Transactions().Create(ctx, tx)
		if err != nil {
			t.Fatal(err)
		}
		return created
	}

	out := mk(domain.Transaction{
		AccountID: "acct-op", Date: jan(15), Amount: d("2000.00"),
		Type: domain.TypeTransferOut, TargetSuffix: "7011",
		Description: "Online Transfer To Mma ...7011",
	})
	in := mk(domain.Transaction{
		AccountID: "acct-res", Date: jan(15), Amount: d("2000.00"),
		Type: domain.TypeTransferIn, TargetSuffix: "5872",
		Description: "Online Transfer From Chk ...5872",
	})
	big := mk(domain.Transaction{
		AccountID: "acct-sa", Date: jan(20), Amount: d("12000.00"),
		Type: domain.TypeWithdrawal, Description: "Check 2044 general maintenance",
	})

	if _, err := st.Statements().Upsert(ctx, domain.MonthlyStatement{
		AccountID: "acct-op", Year: 2025, Month: 1,
		BeginningBalance: d("12350.00"), EndingBalance: d("10350.00"),
		Source: domain.SourceStatement,
	}); err != nil {
		t.Fatal(err)
	}

	rec := NewReconciler(st, config.Default())
	report, err := rec.Run(ctx, 2025)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if report.Transfers.Linked != 1 {
		t.Errorf("Linked = %d, want 1", report.Transfers.Linked)
	}
	gotOut, _ := st.Transactions().Get(ctx, out.ID)
	gotIn, _ := st.Transactions().Get(ctx, in.ID)
	if gotOut.LinkedTransferID != in.ID || gotIn.LinkedTransferID != out.ID {
		t.Errorf("link not symmetric: %q / %q", gotOut.LinkedTransferID, gotIn.LinkedTransferID)
	}

	if report.Balance.UnbalancedCount != 0 {
		t.Errorf("UnbalancedCount = %d: %+v", report.Balance.UnbalancedCount, report.Balance.Months)
	}

	// The $12,000 unapproved special-assessment withdrawal yields critical
	// findings with board action.
	alerts, err := st.Alerts().List(ctx, store.AlertFilter{TransactionID: big.ID, Type: domain.AlertSpecialAssessmentUse})
	if err != nil {
		t.Fatal(err)
	}
	if len(alerts) != 1 {
		t.Fatalf("got %d special_assessment_use alerts, want 1", len(alerts))
	}
	if alerts[0].Severity != domain.SeverityCritical || !alerts[0].BoardActionRequired {
		t.Errorf("alert = %+v, want critical with board action", alerts[0])
	}

	// Re-running the pass must not duplicate alerts.
	if _, err := rec.Run(ctx, 2025); err != nil {
		t.Fatalf("second Run: %v", err)
	}
	alerts, _ = st.Alerts().List(ctx, store.AlertFilter{TransactionID: big.ID, Type: domain.AlertSpecialAssessmentUse})
	if len(alerts) != 1 {
		t.Errorf("after re-run got %d alerts, want still 1", len(alerts))
	}
}
