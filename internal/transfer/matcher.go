// Package transfer pairs transfer_out and transfer_in transactions across
// accounts. There is no natural join key: matching goes through extracted
// account suffixes, equal amounts, and a bounded date window, and every link
// is written symmetrically - a one-sided link is an invariant violation.
package transfer

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/hoa-ledger/internal/config"
	"github.com/dvloznov/hoa-ledger/internal/domain"
)

// Link is one proposed pair. NeedsReview is set when more than one candidate
// satisfied the predicate; the first-encountered candidate is chosen but the
// ambiguity is surfaced rather than silently committed.
type Link struct {
	OutID       string
	InID        string
	NeedsReview bool
}

// Matcher holds resolved accounts and matching policy for one run.
type Matcher struct {
	accounts  map[string]domain.Account
	window    int
	tolerance decimal.Decimal
}

// NewMatcher builds a matcher over the given accounts.
func NewMatcher(accounts []domain.Account, cfg config.MatchingConfig) *Matcher {
	byID := make(map[string]domain.Account, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a
	}
	return &Matcher{
		accounts:  byID,
		window:    cfg.WindowDays,
		tolerance: decimal.New(int64(cfg.AmountToleranceCents), -2),
	}
}

// Match runs the greedy single-pass pairing over all transfer-flagged
// transactions of a year. Already-linked transactions are never reconsidered,
// so re-running over a partially linked ledger is a no-op for existing pairs
// and can never re-link to a different partner. No backtracking: once a
// transaction is consumed by a link it stays consumed.
func (m *Matcher) Match(txs []domain.Transaction) []Link {
	var outs, ins []domain.Transaction
	for _, tx := range txs {
		if tx.Linked() {
			continue
		}
		switch tx.Type {
		case domain.TypeTransferOut:
			outs = append(outs, tx)
		case domain.TypeTransferIn:
			ins = append(ins, tx)
		}
	}
	sortDeterministic(outs)
	sortDeterministic(ins)

	consumed := make(map[string]bool)
	var links []Link

	for _, out := range outs {
		// Strict pass: mutual suffix cross-reference, exact day.
		candidates := m.candidates(out, ins, consumed, m.mutualPredicate)
		if len(candidates) == 0 {
			// Auto-link pass: out's extracted suffix against the target
			// account's real suffix, within the processing-lag window.
			candidates = m.candidates(out, ins, consumed, m.autoPredicate)
		}
		if len(candidates) == 0 {
			continue
		}
		chosen := candidates[0]
		consumed[out.ID] = true
		consumed[chosen.ID] = true
		links = append(links, Link{
			OutID:       out.ID,
			InID:        chosen.ID,
			NeedsReview: len(candidates) > 1,
		})
	}
	return links
}

func (m *Matcher) candidates(out domain.Transaction, ins []domain.Transaction, consumed map[string]bool, pred func(out, in domain.Transaction) bool) []domain.Transaction {
	var found []domain.Transaction
	for _, in := range ins {
		if consumed[in.ID] || in.AccountID == out.AccountID {
			continue
		}
		if !m.amountsMatch(out, in) {
			continue
		}
		if pred(out, in) {
			found = append(found, in)
		}
	}
	return found
}

func (m *Matcher) amountsMatch(a, b domain.Transaction) bool {
	return a.Amount.Sub(b.Amount).Abs().LessThanOrEqual(m.tolerance)
}

// mutualPredicate: each side's extracted suffix names the other side's real
// account, and the dates are the same day. This is the description-pattern
// match, so no processing lag is allowed.
func (m *Matcher) mutualPredicate(out, in domain.Transaction) bool {
	if !sameDay(out.Date, in.Date) {
		return false
	}
	outAcct, ok := m.accounts[out.AccountID]
	if !ok {
		return false
	}
	inAcct, ok := m.accounts[in.AccountID]
	if !ok {
		return false
	}
	return out.TargetSuffix != "" && out.TargetSuffix == inAcct.Suffix() &&
		in.TargetSuffix != "" && in.TargetSuffix == outAcct.Suffix()
}

// autoPredicate: the out side's extracted suffix names the in side's real
// account, and the in lands within the 0..window forward day range to allow
// for bank processing lag.
func (m *Matcher) autoPredicate(out, in domain.Transaction) bool {
	inAcct, ok := m.accounts[in.AccountID]
	if !ok {
		return false
	}
	if out.TargetSuffix == "" || out.TargetSuffix != inAcct.Suffix() {
		return false
	}
	return withinForwardWindow(out.Date, in.Date, m.window)
}

func sortDeterministic(txs []domain.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		if !txs[i].Date.Equal(txs[j].Date) {
			return txs[i].Date.Before(txs[j].Date)
		}
		if txs[i].SourceIndex != txs[j].SourceIndex {
			return txs[i].SourceIndex > txs[j].SourceIndex
		}
		return txs[i].ID < txs[j].ID
	})
}
