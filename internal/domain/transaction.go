package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the canonical direction-bearing type of a ledger entry.
// Amounts are stored as unsigned magnitudes; the type carries the sign.
type TransactionType string

const (
	TypeDeposit     TransactionType = "deposit"
	TypeWithdrawal  TransactionType = "withdrawal"
	TypeFee         TransactionType = "fee"
	TypeTransferIn  TransactionType = "transfer_in"
	TypeTransferOut TransactionType = "transfer_out"
)

// IsCredit reports whether the type moves money into the account.
func (t TransactionType) IsCredit() bool {
	return t == TypeDeposit || t == TypeTransferIn
}

// IsDebit reports whether the type moves money out of the account.
func (t TransactionType) IsDebit() bool {
	return t == TypeWithdrawal || t == TypeFee || t == TypeTransferOut
}

// IsTransfer reports whether the type is one side of an inter-account transfer.
func (t TransactionType) IsTransfer() bool {
	return t == TypeTransferIn || t == TypeTransferOut
}

// ReconciliationStatus tracks where a transaction sits in the monthly close.
type ReconciliationStatus string

const (
	StatusPending    ReconciliationStatus = "pending"
	StatusReconciled ReconciliationStatus = "reconciled"
	StatusDisputed   ReconciliationStatus = "disputed"
)

// Transaction is one normalized ledger entry. Amount is always a non-negative
// 2-place decimal; Signed applies the direction from Type.
type Transaction struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	Date      time.Time `json:"date"`

	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Type        TransactionType `json:"type"`

	CategoryID       string `json:"category_id,omitempty"`
	BudgetItemID     string `json:"budget_item_id,omitempty"`
	VendorID         string `json:"vendor_id,omitempty"`
	LinkedTransferID string `json:"linked_transfer_id,omitempty"`

	Status          ReconciliationStatus `json:"status"`
	AutoCategorized bool                 `json:"auto_categorized"`
	NeedsReview     bool                 `json:"needs_review"`

	ViolationFlag bool   `json:"violation_flag"`
	ViolationType string `json:"violation_type,omitempty"`

	StatementMonth string `json:"statement_month"` // "YYYY-MM"
	FiscalYearID   string `json:"fiscal_year_id,omitempty"`

	// Hints produced during normalization; never authoritative.
	Vendor       string `json:"vendor,omitempty"`
	TargetSuffix string `json:"target_suffix,omitempty"`

	// SourceIndex is the zero-based line index in the original export.
	// Exports list newest-first, so within one day a higher index means an
	// earlier transaction.
	SourceIndex int `json:"source_index"`

	// BalanceAfter is the bank's running balance after this entry, when the
	// export carried one.
	BalanceAfter *decimal.Decimal `json:"balance_after,omitempty"`
}

// Signed returns the amount with direction applied: credits positive,
// debits negative.
func (t Transaction) Signed() decimal.Decimal {
	if t.Type.IsDebit() {
		return t.Amount.Neg()
	}
	return t.Amount
}

// Linked reports whether this transaction is one half of a matched transfer pair.
func (t Transaction) Linked() bool {
	return t.LinkedTransferID != ""
}

// FiscalYear identifies one association fiscal year.
type FiscalYear struct {
	ID   string `json:"id"`
	Year int    `json:"year"`
}
