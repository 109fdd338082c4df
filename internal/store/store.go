// Package store defines the persistence boundary of the reconciliation
// engine: a collection-oriented item store with list/get/create/update/remove
// semantics. The engine never talks to a database directly; it programs
// against these interfaces and treats whatever sits behind them as
// last-writer-wins at the field level.
package store

import (
	"context"
	"errors"

	"github.com/dvloznov/hoa-ledger/internal/domain"
)

var (
	// ErrNotFound is returned when an item id does not exist in a collection.
	ErrNotFound = errors.New("item not found")
	// ErrValidation is returned when a write is rejected before touching the
	// store. Callers can correct and retry; the engine never retries these.
	ErrValidation = errors.New("validation failed")
)

// Fields is a partial, field-level patch keyed by the json field name.
// Only the named fields are written; everything else is left untouched.
type Fields map[string]any

// TransactionFilter selects transactions. Zero values mean "no constraint".
type TransactionFilter struct {
	AccountID  string
	AccountIDs []string
	Types      []domain.TransactionType
	Statuses   []domain.ReconciliationStatus

	StatementMonth string
	// FiscalYear filters through the related fiscal-year record by its
	// numeric year.
	FiscalYear int

	// Uncategorized selects rows with a null category reference.
	Uncategorized bool
	// Unlinked selects rows with a null linked-transfer reference.
	Unlinked bool

	SortBy string // "date" or "" (id order)
	Desc   bool
	Limit  int
	Offset int
}

// AllocationFilter selects payment allocations.
type AllocationFilter struct {
	SourceTransactionID string
	Statuses            []domain.AllocationStatus
	ExcludeFunds        []domain.FundType
}

// AlertFilter selects compliance alerts.
type AlertFilter struct {
	TransactionID string
	Type          domain.AlertType
	Unresolved    bool
}

// StatementFilter selects monthly statements.
type StatementFilter struct {
	AccountID string
	Year      int
}

// Transactions is the transaction collection.
type Transactions interface {
	List(ctx context.Context, f TransactionFilter) ([]domain.Transaction, error)
	Get(ctx context.Context, id string) (domain.Transaction, error)
	Create(ctx context.Context, tx domain.Transaction) (domain.Transaction, error)
	Update(ctx context.Context, id string, fields Fields) (domain.Transaction, error)
	Remove(ctx context.Context, id string) error
	BulkUpdate(ctx context.Context, ids []string, fields Fields) (int, error)

	// LinkPair writes the symmetric linked-transfer references of a matched
	// pair as one atomic operation. A one-sided link must never be observable.
	LinkPair(ctx context.Context, outID, inID string) error
}

// Accounts is the read-only account collection.
type Accounts interface {
	List(ctx context.Context) ([]domain.Account, error)
	Get(ctx context.Context, id string) (domain.Account, error)
}

// Budgets exposes the read-only classification reference data.
type Budgets interface {
	ListCategories(ctx context.Context) ([]domain.BudgetCategory, error)
	ListItems(ctx context.Context) ([]domain.BudgetItem, error)
	ListVendors(ctx context.Context) ([]domain.Vendor, error)
}

// Statements is the monthly-statement collection.
type Statements interface {
	List(ctx context.Context, f StatementFilter) ([]domain.MonthlyStatement, error)
	// Upsert creates or replaces the statement for its (account, year, month).
	Upsert(ctx context.Context, s domain.MonthlyStatement) (domain.MonthlyStatement, error)
}

// Allocations is the payment-allocation collection.
type Allocations interface {
	List(ctx context.Context, f AllocationFilter) ([]domain.PaymentAllocation, error)
	Create(ctx context.Context, a domain.PaymentAllocation) (domain.PaymentAllocation, error)
	Update(ctx context.Context, id string, fields Fields) (domain.PaymentAllocation, error)
}

// Alerts is the compliance-alert collection. Alerts are append-only; Update
// exists for acknowledge/resolve transitions and dedupe refreshes only.
type Alerts interface {
	List(ctx context.Context, f AlertFilter) ([]domain.ComplianceAlert, error)
	Create(ctx context.Context, a domain.ComplianceAlert) (domain.ComplianceAlert, error)
	Update(ctx context.Context, id string, fields Fields) (domain.ComplianceAlert, error)
}

// FiscalYears is the read-only fiscal-year collection.
type FiscalYears interface {
	List(ctx context.Context) ([]domain.FiscalYear, error)
}

// Store bundles every collection behind one handle.
type Store interface {
	Transactions() Transactions
	Accounts() Accounts
	Budgets() Budgets
	Statements() Statements
	Allocations() Allocations
	Alerts() Alerts
	FiscalYears() FiscalYears
}
