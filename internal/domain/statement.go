package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// StatementSource records where a monthly balance came from.
type StatementSource string

const (
	// SourceStatement means the balances were taken from the bank statement.
	SourceStatement StatementSource = "statement"
	// SourceComputed means the balances were backfilled from the running
	// balance of parsed transactions.
	SourceComputed StatementSource = "computed"
)

// MonthlyStatement is one (account, year, month) reconciliation unit.
// Ending balance of month N should equal beginning balance of month N+1
// absent a manual correction.
type MonthlyStatement struct {
	ID        string `json:"id"`
	AccountID string `json:"account_id"`
	Year      int    `json:"year"`
	Month     int    `json:"month"` // 1-12

	BeginningBalance decimal.Decimal `json:"beginning_balance"`
	EndingBalance    decimal.Decimal `json:"ending_balance"`
	Source           StatementSource `json:"source"`
}

// Period returns the "YYYY-MM" statement month key.
func (s MonthlyStatement) Period() string {
	return fmt.Sprintf("%04d-%02d", s.Year, s.Month)
}
