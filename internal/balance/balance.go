// Package balance orders ledgers chronologically, derives per-account
// per-month beginning and ending balances, and reconciles the transaction
// ledger against authoritative statement values to the cent.
package balance

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/hoa-ledger/internal/domain"
)

// centTolerance is the reconciliation tolerance: one cent.
var centTolerance = decimal.New(1, -2)

// SortChronological sorts ascending by date and, within one day, descending
// by original source-line index. Exports list newest-first both across and
// within dates, so reversing the file order inside a day recovers true
// chronological order. Every running-balance computation must run on a slice
// sorted this way.
func SortChronological(txs []domain.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		if !txs[i].Date.Equal(txs[j].Date) {
			return txs[i].Date.Before(txs[j].Date)
		}
		return txs[i].SourceIndex > txs[j].SourceIndex
	})
}

// Derived holds balances for one (account, month) derived from the bank's
// running balance column.
type Derived struct {
	AccountID string
	Year      int
	Month     int

	Beginning decimal.Decimal
	Ending    decimal.Decimal
}

// Period returns the "YYYY-MM" key.
func (d Derived) Period() string {
	return fmt.Sprintf("%04d-%02d", d.Year, d.Month)
}

// DeriveMonthly computes beginning and ending balances per (account, month)
// from running-balance values: beginning is the balance after the first
// chronological transaction minus that transaction's signed amount; ending is
// the balance after the last. Months whose first or last transaction carries
// no running balance are omitted.
func DeriveMonthly(txs []domain.Transaction) []Derived {
	sorted := make([]domain.Transaction, len(txs))
	copy(sorted, txs)
	SortChronological(sorted)

	type group struct {
		first, last domain.Transaction
	}
	groups := make(map[string]*group)
	var order []string

	for _, tx := range sorted {
		key := tx.AccountID + "|" + tx.StatementMonth
		g, ok := groups[key]
		if !ok {
			groups[key] = &group{first: tx, last: tx}
			order = append(order, key)
			continue
		}
		g.last = tx
	}

	var out []Derived
	for _, key := range order {
		g := groups[key]
		if g.first.BalanceAfter == nil || g.last.BalanceAfter == nil {
			continue
		}
		year, month := g.first.Date.Year(), int(g.first.Date.Month())
		out = append(out, Derived{
			AccountID: g.first.AccountID,
			Year:      year,
			Month:     month,
			Beginning: g.first.BalanceAfter.Sub(g.first.Signed()).Round(2),
			Ending:    g.last.BalanceAfter.Round(2),
		})
	}
	return out
}

// MonthResult reconciles one (account, month): the statement (or derived)
// balances against the ledger's net movement.
type MonthResult struct {
	AccountID string `json:"account_id"`
	Period    string `json:"period"`

	Beginning decimal.Decimal `json:"beginning"`
	Ending    decimal.Decimal `json:"ending"`
	// Authoritative is true when the balances came from a bank statement
	// rather than the derived running balance.
	Authoritative bool `json:"authoritative"`

	Deposits    decimal.Decimal `json:"deposits"`
	Withdrawals decimal.Decimal `json:"withdrawals"`

	// ComputedEnding = Beginning + Deposits - Withdrawals.
	ComputedEnding decimal.Decimal `json:"computed_ending"`
	// Discrepancy = ComputedEnding - Ending; zero when balanced.
	Discrepancy decimal.Decimal `json:"discrepancy"`
	Balanced    bool            `json:"balanced"`
}

// ChainBreak flags a month whose beginning balance does not continue the
// prior month's ending balance.
type ChainBreak struct {
	AccountID   string          `json:"account_id"`
	PriorPeriod string          `json:"prior_period"`
	Period      string          `json:"period"`
	PriorEnding decimal.Decimal `json:"prior_ending"`
	Beginning   decimal.Decimal `json:"beginning"`
}

// Report is the full reconciliation output across accounts and months.
type Report struct {
	Months      []MonthResult `json:"months"`
	ChainBreaks []ChainBreak  `json:"chain_breaks,omitempty"`

	TotalDiscrepancy decimal.Decimal `json:"total_discrepancy"`
	UnbalancedCount  int             `json:"unbalanced_count"`
}

// Reconcile checks every (account, month) with activity: ending must equal
// beginning plus deposits and transfers in, minus withdrawals, fees and
// transfers out, to the cent. Statement balances are authoritative when
// present; otherwise balances derived from the running-balance column are
// used.
func Reconcile(txs []domain.Transaction, statements []domain.MonthlyStatement) Report {
	sorted := make([]domain.Transaction, len(txs))
	copy(sorted, txs)
	SortChronological(sorted)

	stmtByKey := make(map[string]domain.MonthlyStatement, len(statements))
	for _, s := range statements {
		stmtByKey[s.AccountID+"|"+s.Period()] = s
	}
	derivedByKey := make(map[string]Derived)
	for _, d := range DeriveMonthly(sorted) {
		derivedByKey[d.AccountID+"|"+d.Period()] = d
	}

	type sums struct {
		deposits, withdrawals decimal.Decimal
	}
	sumByKey := make(map[string]*sums)
	var order []string
	for _, tx := range sorted {
		key := tx.AccountID + "|" + tx.StatementMonth
		s, ok := sumByKey[key]
		if !ok {
			s = &sums{}
			sumByKey[key] = s
			order = append(order, key)
		}
		if tx.Type.IsCredit() {
			s.deposits = s.deposits.Add(tx.Amount)
		} else {
			s.withdrawals = s.withdrawals.Add(tx.Amount)
		}
	}

	report := Report{}
	for _, key := range order {
		s := sumByKey[key]
		var m MonthResult
		if stmt, ok := stmtByKey[key]; ok {
			m = MonthResult{
				AccountID:     stmt.AccountID,
				Period:        stmt.Period(),
				Beginning:     stmt.BeginningBalance,
				Ending:        stmt.EndingBalance,
				Authoritative: true,
			}
		} else if d, ok := derivedByKey[key]; ok {
			m = MonthResult{
				AccountID: d.AccountID,
				Period:    d.Period(),
				Beginning: d.Beginning,
				Ending:    d.Ending,
			}
		} else {
			// No balance source at all; nothing to reconcile against.
			continue
		}

		m.Deposits = s.deposits.Round(2)
		m.Withdrawals = s.withdrawals.Round(2)
		m.ComputedEnding = m.Beginning.Add(m.Deposits).Sub(m.Withdrawals).Round(2)
		m.Discrepancy = m.ComputedEnding.Sub(m.Ending).Round(2)
		m.Balanced = m.Discrepancy.Abs().LessThanOrEqual(centTolerance)
		if !m.Balanced {
			report.UnbalancedCount++
			report.TotalDiscrepancy = report.TotalDiscrepancy.Add(m.Discrepancy.Abs())
		}
		report.Months = append(report.Months, m)
	}

	report.ChainBreaks = chainBreaks(report.Months)
	return report
}

// chainBreaks compares each month's beginning balance with the previous
// month's ending balance per account.
func chainBreaks(months []MonthResult) []ChainBreak {
	byAccount := make(map[string][]MonthResult)
	var accounts []string
	for _, m := range months {
		if _, ok := byAccount[m.AccountID]; !ok {
			accounts = append(accounts, m.AccountID)
		}
		byAccount[m.AccountID] = append(byAccount[m.AccountID], m)
	}
	sort.Strings(accounts)

	var breaks []ChainBreak
	for _, acct := range accounts {
		ms := byAccount[acct]
		sort.Slice(ms, func(i, j int) bool { return ms[i].Period < ms[j].Period })
		for i := 1; i < len(ms); i++ {
			if !consecutive(ms[i-1].Period, ms[i].Period) {
				continue
			}
			if ms[i-1].Ending.Sub(ms[i].Beginning).Abs().GreaterThan(centTolerance) {
				breaks = append(breaks, ChainBreak{
					AccountID:   acct,
					PriorPeriod: ms[i-1].Period,
					Period:      ms[i].Period,
					PriorEnding: ms[i-1].Ending,
					Beginning:   ms[i].Beginning,
				})
			}
		}
	}
	return breaks
}

// consecutive reports whether b is the calendar month after a, both "YYYY-MM".
func consecutive(a, b string) bool {
	var ay, am, by, bm int
	if _, err := fmt.Sscanf(a, "%d-%d", &ay, &am); err != nil {
		return false
	}
	if _, err := fmt.Sscanf(b, "%d-%d", &by, &bm); err != nil {
		return false
	}
	if am == 12 {
		return by == ay+1 && bm == 1
	}
	return by == ay && bm == am+1
}
