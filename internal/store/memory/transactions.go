package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/dvloznov/hoa-ledger/internal/domain"
	"github.com/dvloznov/hoa-ledger/internal/store"
)

// txCollection implements store.Transactions.
type txCollection Store

func (c *txCollection) List(ctx context.Context, f store.TransactionFilter) ([]domain.Transaction, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	// Resolve the fiscal-year traversal up front.
	yearID := ""
	if f.FiscalYear != 0 {
		for _, fy := range c.fiscalYears {
			if fy.Year == f.FiscalYear {
				yearID = fy.ID
				break
			}
		}
		if yearID == "" {
			return []domain.Transaction{}, nil
		}
	}

	var out []domain.Transaction
	for _, tx := range c.transactions {
		if !matchesTransaction(tx, f, yearID) {
			continue
		}
		out = append(out, tx)
	}

	switch f.SortBy {
	case "date":
		sort.Slice(out, func(i, j int) bool {
			if !out[i].Date.Equal(out[j].Date) {
				if f.Desc {
					return out[i].Date.After(out[j].Date)
				}
				return out[i].Date.Before(out[j].Date)
			}
			return out[i].ID < out[j].ID
		})
	default:
		sortByID(out, func(t domain.Transaction) string { return t.ID })
	}

	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return []domain.Transaction{}, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(out) {
		out = out[:f.Limit]
	}
	return out, nil
}

func matchesTransaction(tx domain.Transaction, f store.TransactionFilter, yearID string) bool {
	if f.AccountID != "" && tx.AccountID != f.AccountID {
		return false
	}
	if len(f.AccountIDs) > 0 && !containsString(f.AccountIDs, tx.AccountID) {
		return false
	}
	if len(f.Types) > 0 {
		found := false
		for _, t := range f.Types {
			if tx.Type == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(f.Statuses) > 0 {
		found := false
		for _, s := range f.Statuses {
			if tx.Status == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.StatementMonth != "" && tx.StatementMonth != f.StatementMonth {
		return false
	}
	if yearID != "" && tx.FiscalYearID != yearID {
		return false
	}
	if f.Uncategorized && tx.CategoryID != "" {
		return false
	}
	if f.Unlinked && tx.LinkedTransferID != "" {
		return false
	}
	return true
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

func (c *txCollection) Get(ctx context.Context, id string) (domain.Transaction, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	tx, ok := c.transactions[id]
	if !ok {
		return domain.Transaction{}, store.ErrNotFound
	}
	return tx, nil
}

func (c *txCollection) Create(ctx context.Context, tx domain.Transaction) (domain.Transaction, error) {
	if tx.AccountID == "" {
		return domain.Transaction{}, fmt.Errorf("transactions.Create: missing account id: %w", store.ErrValidation)
	}
	if tx.Amount.IsNegative() {
		return domain.Transaction{}, fmt.Errorf("transactions.Create: negative amount magnitude: %w", store.ErrValidation)
	}
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.Status == "" {
		tx.Status = domain.StatusPending
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.transactions[tx.ID] = tx
	return tx, nil
}

func (c *txCollection) Update(ctx context.Context, id string, fields store.Fields) (domain.Transaction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.updateLocked(id, fields)
}

func (c *txCollection) updateLocked(id string, fields store.Fields) (domain.Transaction, error) {
	tx, ok := c.transactions[id]
	if !ok {
		return domain.Transaction{}, store.ErrNotFound
	}
	if err := applyTransactionFields(&tx, fields); err != nil {
		return domain.Transaction{}, err
	}
	c.transactions[id] = tx
	return tx, nil
}

func (c *txCollection) Remove(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	tx, ok := c.transactions[id]
	if !ok {
		return store.ErrNotFound
	}
	// Reconciled entries are part of the closed ledger and never hard-deleted.
	if tx.Status == domain.StatusReconciled {
		return fmt.Errorf("transactions.Remove: %s is reconciled: %w", id, store.ErrValidation)
	}
	delete(c.transactions, id)
	return nil
}

func (c *txCollection) BulkUpdate(ctx context.Context, ids []string, fields store.Fields) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	updated := 0
	for _, id := range ids {
		if _, err := c.updateLocked(id, fields); err != nil {
			continue
		}
		updated++
	}
	return updated, nil
}

// LinkPair writes both sides of a transfer link under one lock. Re-linking a
// pair to itself is a no-op; linking either side to a different partner is
// rejected.
func (c *txCollection) LinkPair(ctx context.Context, outID, inID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	out, ok := c.transactions[outID]
	if !ok {
		return fmt.Errorf("transactions.LinkPair: out %s: %w", outID, store.ErrNotFound)
	}
	in, ok := c.transactions[inID]
	if !ok {
		return fmt.Errorf("transactions.LinkPair: in %s: %w", inID, store.ErrNotFound)
	}

	if out.LinkedTransferID == inID && in.LinkedTransferID == outID {
		return nil
	}
	if out.LinkedTransferID != "" || in.LinkedTransferID != "" {
		return fmt.Errorf("transactions.LinkPair: %s or %s already linked: %w", outID, inID, store.ErrValidation)
	}

	out.LinkedTransferID = inID
	in.LinkedTransferID = outID
	c.transactions[outID] = out
	c.transactions[inID] = in
	return nil
}
