package domain

import "github.com/shopspring/decimal"

// BudgetCategory groups budget items and ties them to a fund.
// Independently managed; read-only input to classification.
type BudgetCategory struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Fund          FundType        `json:"fund"`
	Keywords      []string        `json:"keywords,omitempty"`
	MonthlyBudget decimal.Decimal `json:"monthly_budget"`
	YearlyBudget  decimal.Decimal `json:"yearly_budget"`
}

// BudgetItem is one line item under a category. VendorPatterns are ordered;
// earlier patterns are considered more specific.
type BudgetItem struct {
	ID             string          `json:"id"`
	CategoryID     string          `json:"category_id"`
	Name           string          `json:"name"`
	Description    string          `json:"description,omitempty"`
	VendorPatterns []string        `json:"vendor_patterns,omitempty"`
	Keywords       []string        `json:"keywords,omitempty"`
	MonthlyBudget  decimal.Decimal `json:"monthly_budget"`
}

// Vendor is a known payee. Fund is the fund its spend is normally drawn from;
// used for fund-mixing detection, not categorization.
type Vendor struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Keywords []string `json:"keywords,omitempty"`
	Fund     FundType `json:"fund,omitempty"`
}
