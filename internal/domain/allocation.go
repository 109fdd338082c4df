package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AllocationStatus is the transfer-matching lifecycle of one allocation.
// Transitions are monotonic: pending_transfer -> transferred -> reconciled.
type AllocationStatus string

const (
	AllocationPendingTransfer AllocationStatus = "pending_transfer"
	AllocationTransferred     AllocationStatus = "transferred"
	AllocationReconciled      AllocationStatus = "reconciled"
)

// rank orders statuses for the monotonic-transition check.
func (s AllocationStatus) rank() int {
	switch s {
	case AllocationPendingTransfer:
		return 0
	case AllocationTransferred:
		return 1
	case AllocationReconciled:
		return 2
	}
	return -1
}

// CanAdvanceTo reports whether moving to next is a forward transition.
func (s AllocationStatus) CanAdvanceTo(next AllocationStatus) bool {
	return next.rank() > s.rank()
}

// PaymentAllocation is one fund-tagged slice of a combined deposit. The sum of
// all allocations for a source transaction must equal the source amount to
// within one cent.
type PaymentAllocation struct {
	ID                  string           `json:"id"`
	SourceTransactionID string           `json:"source_transaction_id"`
	Fund                FundType         `json:"fund"`
	Amount              decimal.Decimal  `json:"amount"`
	TargetAccountID     string           `json:"target_account_id"`
	Status              AllocationStatus `json:"status"`
	LinkedTransferID    string           `json:"linked_transfer_id,omitempty"`
	CreatedAt           time.Time        `json:"created_at"`
}
