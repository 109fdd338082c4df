package classify

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/hoa-ledger/internal/config"
	"github.com/dvloznov/hoa-ledger/internal/domain"
)

func testRef() RefData {
	return RefData{
		Categories: []domain.BudgetCategory{
			{ID: "cat-landscaping", Name: "Landscaping", Keywords: []string{"landscap", "lawn"}},
			{ID: "cat-utilities", Name: "Utilities", Keywords: []string{"water", "electric"}},
		},
		Items: []domain.BudgetItem{
			{
				ID:             "item-landscaping",
				CategoryID:     "cat-landscaping",
				Name:           "Monthly landscaping",
				Description:    "Monthly landscaping maintenance contract",
				VendorPatterns: []string{"MDCBUILDINGS"},
				Keywords:       []string{"landscaping"},
				MonthlyBudget:  decimal.RequireFromString("450.00"),
			},
			{
				ID:         "item-pool",
				CategoryID: "cat-utilities",
				Name:       "Pool service",
				Keywords:   []string{"pool"},
			},
		},
		Vendors: []domain.Vendor{
			{ID: "vendor-mdc", Title: "MDCBUILDINGS", Fund: domain.FundOperating},
			{ID: "vendor-pool", Title: "Blue Pool Care", Keywords: []string{"pool"}},
		},
	}
}

func tx(desc, amount string) domain.Transaction {
	return domain.Transaction{
		Date:        time.Date(2025, 1, 17, 0, 0, 0, 0, time.UTC),
		Description: desc,
		Amount:      decimal.RequireFromString(amount),
		Type:        domain.TypeWithdrawal,
	}
}

func TestClassifyVendorPattern(t *testing.T) {
	cfg := config.Default().Scoring
	res := Classify(tx("ORIG CO NAME:MDCBUILDINGS ID:123 ORIG ID:456", "450.00"), testRef(), cfg)

	if res.BudgetItemID != "item-landscaping" {
		t.Fatalf("BudgetItemID = %q, want item-landscaping", res.BudgetItemID)
	}
	if res.CategoryID != "cat-landscaping" {
		t.Errorf("CategoryID = %q, want cat-landscaping", res.CategoryID)
	}
	if res.MatchedBy != MatchedByVendorPattern {
		t.Errorf("MatchedBy = %q, want %q", res.MatchedBy, MatchedByVendorPattern)
	}
	// 100 vendor + 10 amount proximity, reported confidence capped at 100.
	if res.Confidence != 100 {
		t.Errorf("Confidence = %d, want 100", res.Confidence)
	}
	if res.VendorID != "vendor-mdc" {
		t.Errorf("VendorID = %q, want vendor-mdc", res.VendorID)
	}
}

func TestClassifyKeyword(t *testing.T) {
	cfg := config.Default().Scoring
	res := Classify(tx("Weekly pool cleaning", "80.00"), testRef(), cfg)

	if res.BudgetItemID != "item-pool" {
		t.Fatalf("BudgetItemID = %q, want item-pool", res.BudgetItemID)
	}
	if res.MatchedBy != MatchedByKeyword {
		t.Errorf("MatchedBy = %q, want %q", res.MatchedBy, MatchedByKeyword)
	}
	if res.Confidence != cfg.KeywordMatch {
		t.Errorf("Confidence = %d, want %d", res.Confidence, cfg.KeywordMatch)
	}
}

func TestClassifyCategoryKeywordFallback(t *testing.T) {
	cfg := config.Default().Scoring
	// "water" hits no budget item but does hit a category keyword.
	res := Classify(tx("City water bill", "230.50"), testRef(), cfg)

	if res.CategoryID != "cat-utilities" {
		t.Fatalf("CategoryID = %q, want cat-utilities", res.CategoryID)
	}
	if res.BudgetItemID != "" {
		t.Errorf("BudgetItemID = %q, want empty", res.BudgetItemID)
	}
	if res.MatchedBy != MatchedByCategoryKeyword {
		t.Errorf("MatchedBy = %q, want %q", res.MatchedBy, MatchedByCategoryKeyword)
	}
	if res.Confidence != cfg.FallbackScore {
		t.Errorf("Confidence = %d, want %d", res.Confidence, cfg.FallbackScore)
	}
}

func TestClassifyNoMatch(t *testing.T) {
	res := Classify(tx("Completely unrelated charge", "13.37"), testRef(), config.Default().Scoring)

	if res.CategoryID != "" || res.BudgetItemID != "" {
		t.Errorf("expected no assignment, got category %q item %q", res.CategoryID, res.BudgetItemID)
	}
	if res.Confidence != 0 || res.MatchedBy != MatchedByNone {
		t.Errorf("Confidence/MatchedBy = %d/%q, want 0/none", res.Confidence, res.MatchedBy)
	}
}

func TestClassifyDeterministic(t *testing.T) {
	cfg := config.Default().Scoring
	ref := testRef()
	sample := tx("ORIG CO NAME:MDCBUILDINGS ID:123 ORIG ID:456", "450.00")

	first := Classify(sample, ref, cfg)
	for i := 0; i < 10; i++ {
		if got := Classify(sample, ref, cfg); got != first {
			t.Fatalf("run %d differed: %+v vs %+v", i, got, first)
		}
	}
}

func TestClassifyAmbiguousTie(t *testing.T) {
	cfg := config.Default().Scoring
	ref := testRef()
	// Two items with the same single keyword produce a score tie.
	ref.Items = []domain.BudgetItem{
		{ID: "item-a", CategoryID: "cat-landscaping", Keywords: []string{"gate"}},
		{ID: "item-b", CategoryID: "cat-utilities", Keywords: []string{"gate"}},
	}
	res := Classify(tx("Gate repair", "90.00"), ref, cfg)

	if !res.Ambiguous {
		t.Error("expected Ambiguous for tied scores")
	}
	if res.BudgetItemID != "item-a" {
		t.Errorf("BudgetItemID = %q, want first-encountered item-a", res.BudgetItemID)
	}
}

func TestScoreItemClamp(t *testing.T) {
	cfg := config.Default().Scoring
	item := domain.BudgetItem{
		ID:             "item-heavy",
		VendorPatterns: []string{"ACME"},
		Keywords:       []string{"repair", "maintenance", "service"},
		Description:    "repair maintenance service contract",
	}
	sample := tx("ACME repair maintenance service", "100.00")
	score, _ := scoreItem(sample, "ACME REPAIR MAINTENANCE SERVICE", item, cfg)
	if score != cfg.Max {
		t.Errorf("score = %d, want clamp at %d", score, cfg.Max)
	}
}

func TestCanAssign(t *testing.T) {
	tests := []struct {
		name         string
		tx           domain.Transaction
		recategorize bool
		want         bool
	}{
		{"uncategorized", domain.Transaction{}, false, true},
		{"manual never overwritten", domain.Transaction{CategoryID: "c", AutoCategorized: false}, true, false},
		{"auto kept outside recategorize", domain.Transaction{CategoryID: "c", AutoCategorized: true}, false, false},
		{"auto replaced in recategorize", domain.Transaction{CategoryID: "c", AutoCategorized: true}, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanAssign(tt.tx, tt.recategorize); got != tt.want {
				t.Errorf("CanAssign = %v, want %v", got, tt.want)
			}
		})
	}
}
