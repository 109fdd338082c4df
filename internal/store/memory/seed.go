package memory

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dvloznov/hoa-ledger/internal/domain"
)

// SeedFile is the on-disk reference data bundle: accounts, the budget
// hierarchy, and the fiscal-year table.
type SeedFile struct {
	Accounts    []domain.Account        `json:"accounts"`
	Categories  []domain.BudgetCategory `json:"categories"`
	Items       []domain.BudgetItem     `json:"budget_items"`
	Vendors     []domain.Vendor         `json:"vendors"`
	FiscalYears []domain.FiscalYear     `json:"fiscal_years"`
}

// LoadSeedFile reads a JSON seed file into the store.
func (s *Store) LoadSeedFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("LoadSeedFile: read %s: %w", path, err)
	}
	var seed SeedFile
	if err := json.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("LoadSeedFile: decode %s: %w", path, err)
	}

	for _, a := range seed.Accounts {
		s.SeedAccount(a)
	}
	for _, c := range seed.Categories {
		s.SeedCategory(c)
	}
	for _, i := range seed.Items {
		s.SeedItem(i)
	}
	for _, v := range seed.Vendors {
		s.SeedVendor(v)
	}
	for _, fy := range seed.FiscalYears {
		s.SeedFiscalYear(fy)
	}
	return nil
}
