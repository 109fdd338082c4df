package pipeline

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/hoa-ledger/internal/config"
	"github.com/dvloznov/hoa-ledger/internal/domain"
	"github.com/dvloznov/hoa-ledger/internal/store"
	"github.com/dvloznov/hoa-ledger/internal/store/memory"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func seedStore() *memory.Store {
	st := memory.New()
	st.SeedAccount(domain.Account{ID: "acct-op", Name: "Operating Checking", Type: domain.FundOperating, AccountNumber: "000000005872"})
	st.SeedAccount(domain.Account{ID: "acct-res", Name: "Reserve MMA", Type: domain.FundReserve, AccountNumber: "000000007011"})
	st.SeedAccount(domain.Account{ID: "acct-sa", Name: "Special Assessment", Type: domain.FundSpecialAssessment, AccountNumber: "000000009031"})
	st.SeedFiscalYear(domain.FiscalYear{ID: "fy-2025", Year: 2025})
	st.SeedCategory(domain.BudgetCategory{ID: "cat-landscaping", Name: "Landscaping", Keywords: []string{"landscap"}})
	st.SeedItem(domain.BudgetItem{
		ID:             "item-landscaping",
		CategoryID:     "cat-landscaping",
		Name:           "Monthly landscaping",
		VendorPatterns: []string{"MDCBUILDINGS"},
		Keywords:       []string{"landscaping"},
	})
	st.SeedVendor(domain.Vendor{ID: "vendor-mdc", Title: "MDCBUILDINGS", Fund: domain.FundOperating})
	st.SeedVendor(domain.Vendor{ID: "vendor-roofer", Title: "PACIFICROOF", Fund: domain.FundReserve})
	return st
}

func newImporter(st *memory.Store) *Importer {
	return NewImporter(st, store.NewYearCache(), config.Default())
}

const tabExport = "Details\tPosting Date\tDescription\tAmount\tType\tBalance\tCheck or Slip #\n" +
	"DEBIT\t01/17/2025\tORIG CO NAME:MDCBUILDINGS ID:123 ORIG ID:456\t-450.00\tACH_DEBIT\t12350.00\t\n" +
	"CREDIT\t01/15/2025\tHOA dues January\t1200.00\tACH_CREDIT\t12800.00\t\n" +
	"DEBIT\t01/15/2025\tOnline Transfer To Mma ...7011 transaction#: 1\t-2000.00\t\t10350.00\t\n"

func TestImportStatementDelimited(t *testing.T) {
	ctx := context.Background()
	st := seedStore()

	report, err := newImporter(st).ImportStatement(ctx, "acct-op", []byte(tabExport))
	if err != nil {
		t.Fatalf("ImportStatement: %v", err)
	}
	if report.Imported != 3 {
		t.Fatalf("Imported = %d, want 3 (errors: %v)", report.Imported, report.Errors)
	}
	if report.Classified != 1 {
		t.Errorf("Classified = %d, want 1", report.Classified)
	}

	txs, err := st.Transactions().List(ctx, store.TransactionFilter{AccountID: "acct-op"})
	if err != nil {
		t.Fatal(err)
	}

	var landscaping, transfer domain.Transaction
	for _, tx := range txs {
		switch {
		case tx.Vendor == "MDCBUILDINGS":
			landscaping = tx
		case tx.Type == domain.TypeTransferOut:
			transfer = tx
		}
	}

	if landscaping.Type != domain.TypeWithdrawal {
		t.Errorf("landscaping type = %s, want withdrawal", landscaping.Type)
	}
	if landscaping.CategoryID != "cat-landscaping" || !landscaping.AutoCategorized {
		t.Errorf("landscaping category = %q auto=%v", landscaping.CategoryID, landscaping.AutoCategorized)
	}
	if landscaping.FiscalYearID != "fy-2025" {
		t.Errorf("FiscalYearID = %q, want fy-2025", landscaping.FiscalYearID)
	}

	if transfer.TargetSuffix != "7011" {
		t.Errorf("transfer suffix = %q, want 7011", transfer.TargetSuffix)
	}
	if !transfer.Amount.Equal(d("2000.00")) {
		t.Errorf("transfer amount = %s, want 2000.00", transfer.Amount)
	}
}

func TestImportStatementStructured(t *testing.T) {
	ctx := context.Background()
	st := seedStore()

	payload := `{
		"transactions": [
			{"date": "2025-01-15", "description": "HOA dues January", "amount": 1200.00, "detail": "CREDIT", "type": "ACH_CREDIT"}
		],
		"beginning_balance": 11600.00,
		"ending_balance": 12800.00,
		"statement_period": "2025-01"
	}`
	report, err := newImporter(st).ImportStatement(ctx, "acct-op", []byte(payload))
	if err != nil {
		t.Fatalf("ImportStatement: %v", err)
	}
	if report.Imported != 1 {
		t.Fatalf("Imported = %d, want 1", report.Imported)
	}
	if report.StatementID == "" {
		t.Fatal("expected an upserted monthly statement")
	}

	stmts, err := st.Statements().List(ctx, store.StatementFilter{AccountID: "acct-op"})
	if err != nil {
		t.Fatal(err)
	}
	if len(stmts) != 1 || stmts[0].Year != 2025 || stmts[0].Month != 1 {
		t.Fatalf("statements = %+v", stmts)
	}
	if !stmts[0].EndingBalance.Equal(d("12800.00")) {
		t.Errorf("EndingBalance = %s, want 12800.00", stmts[0].EndingBalance)
	}
}

func TestImportFlagsVendorFundMismatch(t *testing.T) {
	ctx := context.Background()
	st := seedStore()

	// A reserve-fund vendor paid from the operating account is flagged even
	// though nothing classifies.
	payload := "Details,Posting Date,Description,Amount,Type,Balance,Check\n" +
		"DEBIT,01/20/2025,PACIFICROOF progress draw,-3500.00,ACH_DEBIT,8850.00,\n"
	report, err := newImporter(st).ImportStatement(ctx, "acct-op", []byte(payload))
	if err != nil {
		t.Fatal(err)
	}
	if report.Flagged != 1 {
		t.Fatalf("Flagged = %d, want 1", report.Flagged)
	}

	txs, _ := st.Transactions().List(ctx, store.TransactionFilter{AccountID: "acct-op"})
	if len(txs) != 1 {
		t.Fatalf("got %d transactions", len(txs))
	}
	if !txs[0].ViolationFlag || txs[0].ViolationType != string(domain.AlertFundMixing) {
		t.Errorf("violation = %v/%q, want fund_mixing flag", txs[0].ViolationFlag, txs[0].ViolationType)
	}
}

func TestImportUnknownAccount(t *testing.T) {
	ctx := context.Background()
	if _, err := newImporter(seedStore()).ImportStatement(ctx, "acct-nope", []byte(tabExport)); err == nil {
		t.Fatal("expected error for unknown account")
	}
}

func TestRecategorize(t *testing.T) {
	ctx := context.Background()
	st := seedStore()
	im := newImporter(st)

	if _, err := im.ImportStatement(ctx, "acct-op", []byte(tabExport)); err != nil {
		t.Fatal(err)
	}

	// A manual assignment must survive; the auto assignment must follow the
	// updated reference data.
	txs, _ := st.Transactions().List(ctx, store.TransactionFilter{AccountID: "acct-op"})
	var manualID string
	for _, tx := range txs {
		if tx.CategoryID == "" && tx.Type == domain.TypeDeposit {
			manualID = tx.ID
			if _, err := st.Transactions().Update(ctx, tx.ID, store.Fields{"category_id": "cat-manual"}); err != nil {
				t.Fatal(err)
			}
		}
	}

	st.SeedCategory(domain.BudgetCategory{ID: "cat-grounds", Name: "Grounds"})
	st.SeedItem(domain.BudgetItem{
		ID:             "item-grounds",
		CategoryID:     "cat-grounds",
		Name:           "Grounds contract",
		VendorPatterns: []string{"MDCBUILDINGS"},
		Keywords:       []string{"landscaping", "grounds"},
	})

	report, err := im.Recategorize(ctx, 2025)
	if err != nil {
		t.Fatalf("Recategorize: %v", err)
	}
	if report.Failed != 0 {
		t.Fatalf("Failed = %d: %v", report.Failed, report.Errors)
	}

	manual, _ := st.Transactions().Get(ctx, manualID)
	if manual.CategoryID != "cat-manual" {
		t.Errorf("manual assignment overwritten to %q", manual.CategoryID)
	}
}
