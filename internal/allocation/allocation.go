// Package allocation splits one combined deposit into fund-tagged
// allocations and tracks their transfer-matching lifecycle. The split is
// validated to the cent before anything is written; the later auto-match
// pass pairs pending allocations with outgoing transfers using the same
// greedy single-consumption rule as the transfer linker.
package allocation

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/hoa-ledger/internal/config"
	"github.com/dvloznov/hoa-ledger/internal/domain"
	"github.com/dvloznov/hoa-ledger/internal/logger"
	"github.com/dvloznov/hoa-ledger/internal/store"
)

// Entry is one caller-supplied slice of a deposit.
type Entry struct {
	Fund             domain.FundType
	Amount           decimal.Decimal
	TargetAccountID  string
	LinkedTransferID string
}

// Splitter owns split validation and the auto-match pass.
type Splitter struct {
	store     store.Store
	window    int
	tolerance decimal.Decimal
}

// NewSplitter wires a splitter to a store.
func NewSplitter(st store.Store, cfg config.MatchingConfig) *Splitter {
	return &Splitter{
		store:     st,
		window:    cfg.WindowDays,
		tolerance: decimal.New(int64(cfg.AmountToleranceCents), -2),
	}
}

// Split validates that the entries sum to the source deposit within one cent
// and creates one allocation per entry. A sum mismatch is a hard rejection:
// no allocation is written.
func (s *Splitter) Split(ctx context.Context, sourceID string, entries []Entry) ([]domain.PaymentAllocation, error) {
	if sourceID == "" {
		return nil, fmt.Errorf("allocation.Split: missing source transaction id: %w", store.ErrValidation)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("allocation.Split: no entries: %w", store.ErrValidation)
	}

	source, err := s.store.Transactions().Get(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("allocation.Split: source %s: %w", sourceID, err)
	}
	if !source.Type.IsCredit() {
		return nil, fmt.Errorf("allocation.Split: source %s is not a deposit: %w", sourceID, store.ErrValidation)
	}

	sum := decimal.Zero
	for i, e := range entries {
		if e.TargetAccountID == "" {
			return nil, fmt.Errorf("allocation.Split: entry %d missing target account: %w", i, store.ErrValidation)
		}
		if !e.Amount.IsPositive() {
			return nil, fmt.Errorf("allocation.Split: entry %d amount must be positive: %w", i, store.ErrValidation)
		}
		sum = sum.Add(e.Amount)
	}
	if sum.Sub(source.Amount).Abs().GreaterThan(s.tolerance) {
		return nil, fmt.Errorf("allocation.Split: entries sum to $%s but source is $%s: %w",
			sum.StringFixed(2), source.Amount.StringFixed(2), store.ErrValidation)
	}

	out := make([]domain.PaymentAllocation, 0, len(entries))
	for _, e := range entries {
		alloc := domain.PaymentAllocation{
			SourceTransactionID: sourceID,
			Fund:                e.Fund,
			Amount:              e.Amount.Round(2),
			TargetAccountID:     e.TargetAccountID,
			Status:              domain.AllocationPendingTransfer,
			LinkedTransferID:    e.LinkedTransferID,
		}
		if e.LinkedTransferID != "" {
			alloc.Status = domain.AllocationTransferred
		}
		created, err := s.store.Allocations().Create(ctx, alloc)
		if err != nil {
			return out, fmt.Errorf("allocation.Split: create: %w", err)
		}
		out = append(out, created)
	}
	return out, nil
}

// MatchReport summarizes one auto-match pass.
type MatchReport struct {
	Matched   int      `json:"matched"`
	Unmatched int      `json:"unmatched"`
	Errors    []string `json:"errors,omitempty"`
}

// AutoMatch scans pending allocations (operating-fund slices stay put and
// need no follow-up transfer) and pairs each with a transfer_out from the
// source account: equal amount, 0..window forward days from the deposit, and
// a description referencing the target account's suffix. Greedy: each
// transfer is consumed at most once and never reconsidered.
func (s *Splitter) AutoMatch(ctx context.Context) (MatchReport, error) {
	log := logger.FromContext(ctx)
	var report MatchReport

	pending, err := s.store.Allocations().List(ctx, store.AllocationFilter{
		Statuses:     []domain.AllocationStatus{domain.AllocationPendingTransfer},
		ExcludeFunds: []domain.FundType{domain.FundOperating},
	})
	if err != nil {
		return report, fmt.Errorf("allocation.AutoMatch: list pending: %w", err)
	}
	if len(pending) == 0 {
		return report, nil
	}

	accounts, err := s.store.Accounts().List(ctx)
	if err != nil {
		return report, fmt.Errorf("allocation.AutoMatch: list accounts: %w", err)
	}
	acctByID := make(map[string]domain.Account, len(accounts))
	for _, a := range accounts {
		acctByID[a.ID] = a
	}

	// Oldest allocations first so earlier deposits claim transfers first.
	sort.Slice(pending, func(i, j int) bool {
		if !pending[i].CreatedAt.Equal(pending[j].CreatedAt) {
			return pending[i].CreatedAt.Before(pending[j].CreatedAt)
		}
		return pending[i].ID < pending[j].ID
	})

	// Transfers claimed on earlier runs stay claimed. Seed the consumed set
	// from every allocation that already carries a linked transfer so a
	// re-run can never pair the same transfer_out with a second allocation.
	consumed := make(map[string]bool)
	claimed, err := s.store.Allocations().List(ctx, store.AllocationFilter{
		Statuses: []domain.AllocationStatus{domain.AllocationTransferred, domain.AllocationReconciled},
	})
	if err != nil {
		return report, fmt.Errorf("allocation.AutoMatch: list claimed: %w", err)
	}
	for _, a := range claimed {
		if a.LinkedTransferID != "" {
			consumed[a.LinkedTransferID] = true
		}
	}

	for _, alloc := range pending {
		source, err := s.store.Transactions().Get(ctx, alloc.SourceTransactionID)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("source %s: %v", alloc.SourceTransactionID, err))
			continue
		}
		target, ok := acctByID[alloc.TargetAccountID]
		if !ok {
			report.Errors = append(report.Errors, fmt.Sprintf("allocation %s: unknown target account %s", alloc.ID, alloc.TargetAccountID))
			continue
		}

		transfers, err := s.store.Transactions().List(ctx, store.TransactionFilter{
			AccountID: source.AccountID,
			Types:     []domain.TransactionType{domain.TypeTransferOut},
			SortBy:    "date",
		})
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("allocation %s: list transfers: %v", alloc.ID, err))
			continue
		}

		match := ""
		for _, tr := range transfers {
			if consumed[tr.ID] {
				continue
			}
			if !tr.Amount.Sub(alloc.Amount).Abs().LessThanOrEqual(s.tolerance) {
				continue
			}
			if !withinForwardWindow(source.Date, tr.Date, s.window) {
				continue
			}
			if !referencesSuffix(tr, target.Suffix()) {
				continue
			}
			match = tr.ID
			break
		}
		if match == "" {
			report.Unmatched++
			continue
		}

		consumed[match] = true
		_, err = s.store.Allocations().Update(ctx, alloc.ID, store.Fields{
			"linked_transfer_id": match,
			"status":             string(domain.AllocationTransferred),
		})
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("advance %s: %v", alloc.ID, err))
			continue
		}
		report.Matched++
	}

	log.Info().
		Int("matched", report.Matched).
		Int("unmatched", report.Unmatched).
		Msg("allocation auto-match complete")
	return report, nil
}

// referencesSuffix checks the transfer's extracted suffix first, then falls
// back to a plain description scan.
func referencesSuffix(tr domain.Transaction, suffix string) bool {
	if suffix == "" {
		return false
	}
	if tr.TargetSuffix != "" {
		return tr.TargetSuffix == suffix
	}
	return strings.Contains(tr.Description, suffix)
}

// withinForwardWindow reports whether to falls on or after from's day and at
// most windowDays later.
func withinForwardWindow(from, to time.Time, windowDays int) bool {
	fromDay := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	toDay := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	diff := int(toDay.Sub(fromDay).Hours() / 24)
	return diff >= 0 && diff <= windowDays
}
