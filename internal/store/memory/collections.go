package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/dvloznov/hoa-ledger/internal/domain"
	"github.com/dvloznov/hoa-ledger/internal/store"
)

// statementCollection implements store.Statements.
type statementCollection Store

func (c *statementCollection) List(ctx context.Context, f store.StatementFilter) ([]domain.MonthlyStatement, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []domain.MonthlyStatement
	for _, s := range c.statements {
		if f.AccountID != "" && s.AccountID != f.AccountID {
			continue
		}
		if f.Year != 0 && s.Year != f.Year {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AccountID != out[j].AccountID {
			return out[i].AccountID < out[j].AccountID
		}
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	return out, nil
}

func (c *statementCollection) Upsert(ctx context.Context, s domain.MonthlyStatement) (domain.MonthlyStatement, error) {
	if s.AccountID == "" || s.Month < 1 || s.Month > 12 {
		return domain.MonthlyStatement{}, fmt.Errorf("statements.Upsert: bad account/month: %w", store.ErrValidation)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// One row per (account, year, month).
	for id, existing := range c.statements {
		if existing.AccountID == s.AccountID && existing.Year == s.Year && existing.Month == s.Month {
			s.ID = id
			c.statements[id] = s
			return s, nil
		}
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	c.statements[s.ID] = s
	return s, nil
}

// allocationCollection implements store.Allocations.
type allocationCollection Store

func (c *allocationCollection) List(ctx context.Context, f store.AllocationFilter) ([]domain.PaymentAllocation, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []domain.PaymentAllocation
	for _, a := range c.allocations {
		if f.SourceTransactionID != "" && a.SourceTransactionID != f.SourceTransactionID {
			continue
		}
		if len(f.Statuses) > 0 {
			found := false
			for _, s := range f.Statuses {
				if a.Status == s {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		excluded := false
		for _, fund := range f.ExcludeFunds {
			if a.Fund == fund {
				excluded = true
				break
			}
		}
		if excluded {
			continue
		}
		out = append(out, a)
	}
	sortByID(out, func(a domain.PaymentAllocation) string { return a.ID })
	return out, nil
}

func (c *allocationCollection) Create(ctx context.Context, a domain.PaymentAllocation) (domain.PaymentAllocation, error) {
	if a.SourceTransactionID == "" || a.TargetAccountID == "" {
		return domain.PaymentAllocation{}, fmt.Errorf("allocations.Create: missing identifiers: %w", store.ErrValidation)
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Status == "" {
		a.Status = domain.AllocationPendingTransfer
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.allocations[a.ID] = a
	return a, nil
}

func (c *allocationCollection) Update(ctx context.Context, id string, fields store.Fields) (domain.PaymentAllocation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	a, ok := c.allocations[id]
	if !ok {
		return domain.PaymentAllocation{}, store.ErrNotFound
	}
	if err := applyAllocationFields(&a, fields); err != nil {
		return domain.PaymentAllocation{}, err
	}
	c.allocations[id] = a
	return a, nil
}

// alertCollection implements store.Alerts.
type alertCollection Store

func (c *alertCollection) List(ctx context.Context, f store.AlertFilter) ([]domain.ComplianceAlert, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []domain.ComplianceAlert
	for _, a := range c.alerts {
		if f.TransactionID != "" && a.TransactionID != f.TransactionID {
			continue
		}
		if f.Type != "" && a.Type != f.Type {
			continue
		}
		if f.Unresolved && a.Resolved {
			continue
		}
		out = append(out, a)
	}
	sortByID(out, func(a domain.ComplianceAlert) string { return a.ID })
	return out, nil
}

func (c *alertCollection) Create(ctx context.Context, a domain.ComplianceAlert) (domain.ComplianceAlert, error) {
	if a.Type == "" {
		return domain.ComplianceAlert{}, fmt.Errorf("alerts.Create: missing type: %w", store.ErrValidation)
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.alerts[a.ID] = a
	return a, nil
}

func (c *alertCollection) Update(ctx context.Context, id string, fields store.Fields) (domain.ComplianceAlert, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	a, ok := c.alerts[id]
	if !ok {
		return domain.ComplianceAlert{}, store.ErrNotFound
	}
	if err := applyAlertFields(&a, fields); err != nil {
		return domain.ComplianceAlert{}, err
	}
	c.alerts[id] = a
	return a, nil
}
