// Package memory is the in-memory implementation of the item store. It backs
// tests and single-process runs; data is lost on restart. All methods return
// copies so callers can never mutate stored state through aliasing.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/dvloznov/hoa-ledger/internal/domain"
	"github.com/dvloznov/hoa-ledger/internal/store"
)

// Store holds every collection behind one mutex. The engine's write phases
// are single-threaded per record group, so one lock is enough; reads take the
// shared side.
type Store struct {
	mu sync.RWMutex

	transactions map[string]domain.Transaction
	accounts     map[string]domain.Account
	categories   map[string]domain.BudgetCategory
	items        map[string]domain.BudgetItem
	vendors      map[string]domain.Vendor
	statements   map[string]domain.MonthlyStatement
	allocations  map[string]domain.PaymentAllocation
	alerts       map[string]domain.ComplianceAlert
	fiscalYears  map[string]domain.FiscalYear
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		transactions: make(map[string]domain.Transaction),
		accounts:     make(map[string]domain.Account),
		categories:   make(map[string]domain.BudgetCategory),
		items:        make(map[string]domain.BudgetItem),
		vendors:      make(map[string]domain.Vendor),
		statements:   make(map[string]domain.MonthlyStatement),
		allocations:  make(map[string]domain.PaymentAllocation),
		alerts:       make(map[string]domain.ComplianceAlert),
		fiscalYears:  make(map[string]domain.FiscalYear),
	}
}

var _ store.Store = (*Store)(nil)

func (s *Store) Transactions() store.Transactions { return (*txCollection)(s) }
func (s *Store) Accounts() store.Accounts         { return (*accountCollection)(s) }
func (s *Store) Budgets() store.Budgets           { return (*budgetCollection)(s) }
func (s *Store) Statements() store.Statements     { return (*statementCollection)(s) }
func (s *Store) Allocations() store.Allocations   { return (*allocationCollection)(s) }
func (s *Store) Alerts() store.Alerts             { return (*alertCollection)(s) }
func (s *Store) FiscalYears() store.FiscalYears   { return (*fiscalYearCollection)(s) }

// SeedAccount, SeedCategory, SeedItem, SeedVendor and SeedFiscalYear load the
// read-only reference collections. They exist for tests and bootstrap code.

func (s *Store) SeedAccount(a domain.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[a.ID] = a
}

func (s *Store) SeedCategory(c domain.BudgetCategory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories[c.ID] = c
}

func (s *Store) SeedItem(i domain.BudgetItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[i.ID] = i
}

func (s *Store) SeedVendor(v domain.Vendor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vendors[v.ID] = v
}

func (s *Store) SeedFiscalYear(fy domain.FiscalYear) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fiscalYears[fy.ID] = fy
}

// accountCollection implements store.Accounts.
type accountCollection Store

func (c *accountCollection) List(ctx context.Context) ([]domain.Account, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.Account, 0, len(c.accounts))
	for _, a := range c.accounts {
		out = append(out, a)
	}
	sortByID(out, func(a domain.Account) string { return a.ID })
	return out, nil
}

func (c *accountCollection) Get(ctx context.Context, id string) (domain.Account, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok := c.accounts[id]
	if !ok {
		return domain.Account{}, store.ErrNotFound
	}
	return a, nil
}

// budgetCollection implements store.Budgets.
type budgetCollection Store

func (c *budgetCollection) ListCategories(ctx context.Context) ([]domain.BudgetCategory, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.BudgetCategory, 0, len(c.categories))
	for _, v := range c.categories {
		out = append(out, v)
	}
	sortByID(out, func(v domain.BudgetCategory) string { return v.ID })
	return out, nil
}

func (c *budgetCollection) ListItems(ctx context.Context) ([]domain.BudgetItem, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.BudgetItem, 0, len(c.items))
	for _, v := range c.items {
		out = append(out, v)
	}
	sortByID(out, func(v domain.BudgetItem) string { return v.ID })
	return out, nil
}

func (c *budgetCollection) ListVendors(ctx context.Context) ([]domain.Vendor, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.Vendor, 0, len(c.vendors))
	for _, v := range c.vendors {
		out = append(out, v)
	}
	sortByID(out, func(v domain.Vendor) string { return v.ID })
	return out, nil
}

// fiscalYearCollection implements store.FiscalYears.
type fiscalYearCollection Store

func (c *fiscalYearCollection) List(ctx context.Context) ([]domain.FiscalYear, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.FiscalYear, 0, len(c.fiscalYears))
	for _, v := range c.fiscalYears {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out, nil
}

// sortByID keeps list output deterministic regardless of map iteration order.
func sortByID[T any](items []T, id func(T) string) {
	sort.Slice(items, func(i, j int) bool { return id(items[i]) < id(items[j]) })
}
