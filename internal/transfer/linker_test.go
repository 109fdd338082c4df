package transfer

import (
	"context"
	"testing"

	"github.com/dvloznov/hoa-ledger/internal/domain"
	"github.com/dvloznov/hoa-ledger/internal/store"
	"github.com/dvloznov/hoa-ledger/internal/store/memory"
)

func seedStore(t *testing.T) *memory.Store {
	t.Helper()
	st := memory.New()
	for _, a := range testAccounts {
		st.SeedAccount(a)
	}
	st.SeedFiscalYear(domain.FiscalYear{ID: "fy-2025", Year: 2025})
	st.SeedCategory(domain.BudgetCategory{ID: "cat-reserve-xfer", Name: "Reserve Contributions", Fund: domain.FundReserve})
	st.SeedCategory(domain.BudgetCategory{ID: "cat-op-xfer", Name: "Operating Transfers", Fund: domain.FundOperating})
	return st
}

func TestLinkerRun(t *testing.T) {
	ctx := context.Background()
	st := seedStore(t)

	out := xfer("", "acct-chk", domain.TypeTransferOut, 15, "2000.00", "7011")
	out.FiscalYearID = "fy-2025"
	in := xfer("", "acct-mma", domain.TypeTransferIn, 15, "2000.00", "5872")
	in.FiscalYearID = "fy-2025"

	outCreated, err := st.Transactions().Create(ctx, out)
	if err != nil {
		t.Fatalf("create out: %v", err)
	}
	inCreated, err := st.Transactions().Create(ctx, in)
	if err != nil {
		t.Fatalf("create in: %v", err)
	}

	report, err := NewLinker(st, matchCfg()).Run(ctx, 2025)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Linked != 1 {
		t.Fatalf("Linked = %d, want 1", report.Linked)
	}
	if report.Failed != 0 {
		t.Fatalf("Failed = %d: %v", report.Failed, report.Errors)
	}

	gotOut, _ := st.Transactions().Get(ctx, outCreated.ID)
	gotIn, _ := st.Transactions().Get(ctx, inCreated.ID)

	// Links are symmetric: each side references the other.
	if gotOut.LinkedTransferID != gotIn.ID || gotIn.LinkedTransferID != gotOut.ID {
		t.Fatalf("asymmetric link: out->%s in->%s", gotOut.LinkedTransferID, gotIn.LinkedTransferID)
	}

	// The out side inherits the category of the in side's fund, and vice
	// versa.
	if gotOut.CategoryID != "cat-reserve-xfer" || !gotOut.AutoCategorized {
		t.Errorf("out category = %q auto=%v, want cat-reserve-xfer auto", gotOut.CategoryID, gotOut.AutoCategorized)
	}
	if gotIn.CategoryID != "cat-op-xfer" {
		t.Errorf("in category = %q, want cat-op-xfer", gotIn.CategoryID)
	}
}

func TestLinkerRunIdempotent(t *testing.T) {
	ctx := context.Background()
	st := seedStore(t)

	out := xfer("", "acct-chk", domain.TypeTransferOut, 15, "2000.00", "7011")
	out.FiscalYearID = "fy-2025"
	in := xfer("", "acct-mma", domain.TypeTransferIn, 15, "2000.00", "5872")
	in.FiscalYearID = "fy-2025"
	if _, err := st.Transactions().Create(ctx, out); err != nil {
		t.Fatal(err)
	}
	if _, err := st.Transactions().Create(ctx, in); err != nil {
		t.Fatal(err)
	}

	linker := NewLinker(st, matchCfg())
	if _, err := linker.Run(ctx, 2025); err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := linker.Run(ctx, 2025)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.Linked != 0 || second.Failed != 0 {
		t.Errorf("second run = %+v, want no new links and no failures", second)
	}
}

func TestLinkerFlagsAmbiguity(t *testing.T) {
	ctx := context.Background()
	st := seedStore(t)

	out := xfer("", "acct-chk", domain.TypeTransferOut, 15, "500.00", "7011")
	out.FiscalYearID = "fy-2025"
	in1 := xfer("", "acct-mma", domain.TypeTransferIn, 16, "500.00", "")
	in1.FiscalYearID = "fy-2025"
	in2 := xfer("", "acct-mma", domain.TypeTransferIn, 17, "500.00", "")
	in2.FiscalYearID = "fy-2025"

	for _, tx := range []domain.Transaction{out, in1, in2} {
		if _, err := st.Transactions().Create(ctx, tx); err != nil {
			t.Fatal(err)
		}
	}

	report, err := NewLinker(st, matchCfg()).Run(ctx, 2025)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Flagged != 1 {
		t.Fatalf("Flagged = %d, want 1", report.Flagged)
	}

	flagged := 0
	txs, _ := st.Transactions().List(ctx, store.TransactionFilter{})
	for _, tx := range txs {
		if tx.NeedsReview {
			flagged++
		}
	}
	if flagged != 2 {
		t.Errorf("NeedsReview rows = %d, want both sides of the pair", flagged)
	}
}
