package parser

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestDetectDelimiter(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   rune
	}{
		{"tab export", "Details\tPosting Date\tDescription\tAmount\tType\tBalance\tCheck or Slip #\t", '\t'},
		{"comma export", "Details,Posting Date,Description,Amount,Type,Balance,Check or Slip #", ','},
		{"few tabs fall back to comma", "Details\tPosting Date,Description,Amount", ','},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectDelimiter(tt.header); got != tt.want {
				t.Errorf("DetectDelimiter(%q) = %q, want %q", tt.header, got, tt.want)
			}
		})
	}
}

const tabExport = "Details\tPosting Date\tDescription\tAmount\tType\tBalance\tCheck or Slip #\n" +
	"DEBIT\t01/17/2025\tMonthly landscaping service\t-450.00\tACH_DEBIT\t12350.00\t\n" +
	"CREDIT\t01/15/2025\tHOA dues January\t1200.00\tACH_CREDIT\t12800.00\t\n" +
	"DEBIT\t01/10/2025\tWater utility\t-230.50\tBILLPAY\t11600.00\t\n"

func TestParseTabDelimited(t *testing.T) {
	res, err := Parse(tabExport)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(res.Rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(res.Rows))
	}
	if res.SkippedRows != 0 {
		t.Errorf("got %d skipped rows, want 0", res.SkippedRows)
	}

	first := res.Rows[0]
	if first.SourceIndex != 0 {
		t.Errorf("first row SourceIndex = %d, want 0", first.SourceIndex)
	}
	if first.Detail != "DEBIT" {
		t.Errorf("first row Detail = %q, want DEBIT", first.Detail)
	}
	if !first.Amount.Equal(decimal.RequireFromString("-450.00")) {
		t.Errorf("first row Amount = %s, want -450.00", first.Amount)
	}
	if first.Balance == nil || !first.Balance.Equal(decimal.RequireFromString("12350.00")) {
		t.Errorf("first row Balance = %v, want 12350.00", first.Balance)
	}
}

func TestParseCommaDelimited(t *testing.T) {
	input := "Details,Posting Date,Description,Amount,Type,Balance,Check\n" +
		"CREDIT,01/15/2025,\"HOA dues, January\",\"1,200.00\",ACH_CREDIT,12800.00,\n" +
		"DEBIT,01/10/2025,Water utility,-230.50,BILLPAY,11600.00,\n"
	res, err := Parse(input)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(res.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(res.Rows))
	}
	if res.Rows[0].Description != "HOA dues, January" {
		t.Errorf("quoted description = %q", res.Rows[0].Description)
	}
	if !res.Rows[0].Amount.Equal(decimal.RequireFromString("1200.00")) {
		t.Errorf("comma amount = %s, want 1200.00", res.Rows[0].Amount)
	}
}

func TestParseSkipsMalformedRows(t *testing.T) {
	input := "Details,Posting Date,Description,Amount,Type,Balance,Check\n" +
		"DEBIT,01/17/2025,Landscaping,-450.00,ACH_DEBIT,12350.00,\n" +
		"DEBIT,01/16/2025,,,,\n" + // fewer than four populated fields
		"DEBIT,not-a-date,Something,-10.00,ACH_DEBIT,100.00,\n" +
		"DEBIT,01/15/2025,Pool chemicals,not-money,ACH_DEBIT,100.00,\n"
	res, err := Parse(input)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(res.Rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(res.Rows))
	}
	if res.SkippedRows != 3 {
		t.Errorf("got %d skipped rows, want 3", res.SkippedRows)
	}
	// The surviving row keeps its original source line index.
	if res.Rows[0].SourceIndex != 0 {
		t.Errorf("SourceIndex = %d, want 0", res.Rows[0].SourceIndex)
	}
}

func TestParseEmptyInput(t *testing.T) {
	for _, input := range []string{"", "   \n", "\uFEFF"} {
		res, err := Parse(input)
		if err != nil {
			t.Fatalf("Parse(%q): %v", input, err)
		}
		if len(res.Rows) != 0 {
			t.Errorf("Parse(%q) yielded %d rows, want 0", input, len(res.Rows))
		}
	}
}

func TestParseAmountFormats(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1200.00", "1200.00"},
		{"$1,200.00", "1200.00"},
		{"-450.00", "-450.00"},
		{"(450.00)", "-450.00"},
		{"($1,234.56)", "-1234.56"},
	}
	for _, tt := range tests {
		got, err := parseAmount(tt.in)
		if err != nil {
			t.Errorf("parseAmount(%q): %v", tt.in, err)
			continue
		}
		if !got.Equal(decimal.RequireFromString(tt.want)) {
			t.Errorf("parseAmount(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestParseStructuredEnvelope(t *testing.T) {
	payload := `{
		"transactions": [
			{"date": "2025-01-15", "description": "HOA dues", "amount": 1200.00, "detail": "CREDIT", "type": "ACH_CREDIT", "balance_after": 12800.00},
			{"date": "2025-01-10", "description": "Water utility", "amount": -230.50, "detail": "DEBIT"},
			{"description": "missing date", "amount": 5}
		],
		"beginning_balance": 11830.50,
		"ending_balance": 12800.00,
		"statement_period": "2025-01"
	}`
	res, err := ParseStructured([]byte(payload))
	if err != nil {
		t.Fatalf("ParseStructured: %v", err)
	}
	if len(res.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(res.Rows))
	}
	if res.SkippedRows != 1 {
		t.Errorf("got %d skipped, want 1", res.SkippedRows)
	}
	if res.BeginningBalance == nil || !res.BeginningBalance.Equal(decimal.RequireFromString("11830.50")) {
		t.Errorf("BeginningBalance = %v, want 11830.50", res.BeginningBalance)
	}
	if res.StatementPeriod != "2025-01" {
		t.Errorf("StatementPeriod = %q, want 2025-01", res.StatementPeriod)
	}
}

func TestParseStructuredBareArray(t *testing.T) {
	payload := `[{"date": "2025-02-01", "description": "Deposit", "amount": "500.00"}]`
	res, err := ParseStructured([]byte(payload))
	if err != nil {
		t.Fatalf("ParseStructured: %v", err)
	}
	if len(res.Rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(res.Rows))
	}
	if !res.Rows[0].Amount.Equal(decimal.RequireFromString("500.00")) {
		t.Errorf("Amount = %s, want 500.00", res.Rows[0].Amount)
	}
}

func TestParseStructuredRejectsScalar(t *testing.T) {
	if _, err := ParseStructured([]byte(`"just a string"`)); err == nil {
		t.Error("expected error for scalar payload")
	}
	if _, err := ParseStructured([]byte(`{"no_transactions": []}`)); err == nil || !strings.Contains(err.Error(), "transactions") {
		t.Errorf("expected missing transactions error, got %v", err)
	}
}
