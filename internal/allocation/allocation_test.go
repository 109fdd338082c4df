package allocation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/hoa-ledger/internal/config"
	"github.com/dvloznov/hoa-ledger/internal/domain"
	"github.com/dvloznov/hoa-ledger/internal/store"
	"github.com/dvloznov/hoa-ledger/internal/store/memory"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func matchCfg() config.MatchingConfig {
	return config.MatchingConfig{WindowDays: 7, AmountToleranceCents: 1}
}

func seedStore() *memory.Store {
	st := memory.New()
	st.SeedAccount(domain.Account{ID: "acct-op", Name: "Operating", Type: domain.FundOperating, AccountNumber: "000000005872"})
	st.SeedAccount(domain.Account{ID: "acct-res", Name: "Reserve", Type: domain.FundReserve, AccountNumber: "000000007011"})
	st.SeedAccount(domain.Account{ID: "acct-sa", Name: "Special Assessment", Type: domain.FundSpecialAssessment, AccountNumber: "000000009031"})
	return st
}

func deposit(amount string, dd int) domain.Transaction {
	return domain.Transaction{
		AccountID:   "acct-op",
		Date:        time.Date(2025, 1, dd, 0, 0, 0, 0, time.UTC),
		Description: "Combined owner payment",
		Amount:      d(amount),
		Type:        domain.TypeDeposit,
	}
}

func TestSplitSumAccepted(t *testing.T) {
	ctx := context.Background()
	st := seedStore()
	src, err := st.Transactions().Create(ctx, deposit("1000.00", 10))
	if err != nil {
		t.Fatal(err)
	}

	entries := []Entry{
		{Fund: domain.FundReserve, Amount: d("600.00"), TargetAccountID: "acct-res"},
		{Fund: domain.FundSpecialAssessment, Amount: d("400.00"), TargetAccountID: "acct-sa"},
	}
	allocs, err := NewSplitter(st, matchCfg()).Split(ctx, src.ID, entries)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(allocs) != 2 {
		t.Fatalf("got %d allocations, want 2", len(allocs))
	}
	for _, a := range allocs {
		if a.Status != domain.AllocationPendingTransfer {
			t.Errorf("allocation %s status = %s, want pending_transfer", a.ID, a.Status)
		}
		if a.SourceTransactionID != src.ID {
			t.Errorf("allocation %s source = %s", a.ID, a.SourceTransactionID)
		}
	}
}

func TestSplitSumRejected(t *testing.T) {
	ctx := context.Background()
	st := seedStore()
	src, err := st.Transactions().Create(ctx, deposit("1000.00", 10))
	if err != nil {
		t.Fatal(err)
	}

	// Entries sum to $900 against a $1,000 deposit.
	entries := []Entry{
		{Fund: domain.FundReserve, Amount: d("600.00"), TargetAccountID: "acct-res"},
		{Fund: domain.FundSpecialAssessment, Amount: d("300.00"), TargetAccountID: "acct-sa"},
	}
	_, err = NewSplitter(st, matchCfg()).Split(ctx, src.ID, entries)
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("err = %v, want validation error", err)
	}

	// A rejected split must write nothing.
	allocs, _ := st.Allocations().List(ctx, store.AllocationFilter{})
	if len(allocs) != 0 {
		t.Errorf("got %d allocations after rejected split, want 0", len(allocs))
	}
}

func TestSplitOneCentTolerance(t *testing.T) {
	ctx := context.Background()
	st := seedStore()
	src, err := st.Transactions().Create(ctx, deposit("1000.00", 10))
	if err != nil {
		t.Fatal(err)
	}
	entries := []Entry{
		{Fund: domain.FundReserve, Amount: d("600.00"), TargetAccountID: "acct-res"},
		{Fund: domain.FundSpecialAssessment, Amount: d("400.01"), TargetAccountID: "acct-sa"},
	}
	if _, err := NewSplitter(st, matchCfg()).Split(ctx, src.ID, entries); err != nil {
		t.Fatalf("one-cent difference should be accepted: %v", err)
	}
}

func TestSplitRejectsNonDeposit(t *testing.T) {
	ctx := context.Background()
	st := seedStore()
	wd := deposit("1000.00", 10)
	wd.Type = domain.TypeWithdrawal
	src, err := st.Transactions().Create(ctx, wd)
	if err != nil {
		t.Fatal(err)
	}
	_, err = NewSplitter(st, matchCfg()).Split(ctx, src.ID, []Entry{
		{Fund: domain.FundReserve, Amount: d("1000.00"), TargetAccountID: "acct-res"},
	})
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestAutoMatch(t *testing.T) {
	ctx := context.Background()
	st := seedStore()
	splitter := NewSplitter(st, matchCfg())

	src, err := st.Transactions().Create(ctx, deposit("1000.00", 10))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := splitter.Split(ctx, src.ID, []Entry{
		{Fund: domain.FundReserve, Amount: d("600.00"), TargetAccountID: "acct-res"},
		{Fund: domain.FundOperating, Amount: d("400.00"), TargetAccountID: "acct-op"},
	}); err != nil {
		t.Fatal(err)
	}

	// The follow-up transfer leaves three days later and references the
	// reserve account's suffix.
	out, err := st.Transactions().Create(ctx, domain.Transaction{
		AccountID:    "acct-op",
		Date:         time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC),
		Description:  "Online Transfer To Mma ...7011",
		Amount:       d("600.00"),
		Type:         domain.TypeTransferOut,
		TargetSuffix: "7011",
	})
	if err != nil {
		t.Fatal(err)
	}

	report, err := splitter.AutoMatch(ctx)
	if err != nil {
		t.Fatalf("AutoMatch: %v", err)
	}
	if report.Matched != 1 {
		t.Fatalf("Matched = %d, want 1 (errors: %v)", report.Matched, report.Errors)
	}

	rows, _ := st.Allocations().List(ctx, store.AllocationFilter{})
	for _, a := range rows {
		switch a.Fund {
		case domain.FundReserve:
			if a.Status != domain.AllocationTransferred || a.LinkedTransferID != out.ID {
				t.Errorf("reserve allocation = %s/%s, want transferred/%s", a.Status, a.LinkedTransferID, out.ID)
			}
		case domain.FundOperating:
			// Operating slices stay put; the auto-match pass skips them.
			if a.Status != domain.AllocationPendingTransfer {
				t.Errorf("operating allocation status = %s, want pending_transfer", a.Status)
			}
		}
	}
}

func TestAutoMatchConsumesTransferAcrossRuns(t *testing.T) {
	ctx := context.Background()
	st := seedStore()
	splitter := NewSplitter(st, matchCfg())

	// Two equal deposits both split toward the reserve account, but only
	// one follow-up transfer exists. Whichever allocation claims it must
	// keep it: a later run may not hand the same transfer to the other.
	for _, dd := range []int{10, 11} {
		src, err := st.Transactions().Create(ctx, deposit("600.00", dd))
		if err != nil {
			t.Fatal(err)
		}
		if _, err := splitter.Split(ctx, src.ID, []Entry{
			{Fund: domain.FundReserve, Amount: d("600.00"), TargetAccountID: "acct-res"},
		}); err != nil {
			t.Fatal(err)
		}
	}
	out, err := st.Transactions().Create(ctx, domain.Transaction{
		AccountID:    "acct-op",
		Date:         time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC),
		Description:  "Online Transfer To Mma ...7011",
		Amount:       d("600.00"),
		Type:         domain.TypeTransferOut,
		TargetSuffix: "7011",
	})
	if err != nil {
		t.Fatal(err)
	}

	first, err := splitter.AutoMatch(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if first.Matched != 1 || first.Unmatched != 1 {
		t.Fatalf("first run = %+v, want 1 matched, 1 unmatched", first)
	}

	second, err := splitter.AutoMatch(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if second.Matched != 0 || second.Unmatched != 1 {
		t.Errorf("second run = %+v, want 0 matched, 1 unmatched", second)
	}

	rows, _ := st.Allocations().List(ctx, store.AllocationFilter{})
	claimed := 0
	for _, a := range rows {
		if a.LinkedTransferID == out.ID {
			claimed++
		}
	}
	if claimed != 1 {
		t.Errorf("transfer %s claimed by %d allocations, want exactly 1", out.ID, claimed)
	}
}

func TestAutoMatchOutsideWindow(t *testing.T) {
	ctx := context.Background()
	st := seedStore()
	splitter := NewSplitter(st, matchCfg())

	src, err := st.Transactions().Create(ctx, deposit("600.00", 10))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := splitter.Split(ctx, src.ID, []Entry{
		{Fund: domain.FundReserve, Amount: d("600.00"), TargetAccountID: "acct-res"},
	}); err != nil {
		t.Fatal(err)
	}

	// Nine days out: beyond the seven-day window.
	if _, err := st.Transactions().Create(ctx, domain.Transaction{
		AccountID:    "acct-op",
		Date:         time.Date(2025, 1, 19, 0, 0, 0, 0, time.UTC),
		Description:  "Online Transfer To Mma ...7011",
		Amount:       d("600.00"),
		Type:         domain.TypeTransferOut,
		TargetSuffix: "7011",
	}); err != nil {
		t.Fatal(err)
	}

	report, err := splitter.AutoMatch(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if report.Matched != 0 || report.Unmatched != 1 {
		t.Errorf("report = %+v, want 0 matched, 1 unmatched", report)
	}
}
