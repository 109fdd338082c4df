// Package compliance evaluates the fixed fund-segregation rule set over
// transactions and proposed transfers. Evaluation is stateless; persistence
// and deduplication of the resulting alerts live in the Recorder.
package compliance

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/hoa-ledger/internal/config"
	"github.com/dvloznov/hoa-ledger/internal/domain"
)

// Finding is one rule hit, not yet persisted.
type Finding struct {
	Type        domain.AlertType
	Severity    domain.AlertSeverity
	Description string

	TransactionID string
	AccountID     string

	BoardActionRequired bool
}

// Evaluator holds the rule thresholds for one run.
type Evaluator struct {
	reserveBoardAction decimal.Decimal
	largeTransaction   decimal.Decimal
	approvedPurpose    []string
}

// NewEvaluator builds an evaluator from configuration.
func NewEvaluator(cfg config.ComplianceConfig) *Evaluator {
	return &Evaluator{
		reserveBoardAction: decimal.NewFromFloat(cfg.ReserveBoardActionThreshold),
		largeTransaction:   decimal.NewFromFloat(cfg.LargeTransactionThreshold),
		approvedPurpose:    cfg.ApprovedPurposeKeywords,
	}
}

// restrictedFundPhrases are description fragments that reference money
// belonging to a restricted fund.
var restrictedFundPhrases = []string{"reserve", "special assessment"}

// Evaluate runs every rule against one transaction and its resolved account.
// The same input always produces the same findings, so re-running an
// evaluation pass cannot multiply alerts (the Recorder suppresses duplicates
// on top of that).
func (e *Evaluator) Evaluate(tx domain.Transaction, acct domain.Account) []Finding {
	var findings []Finding

	if f, ok := e.fundMixing(tx, acct); ok {
		findings = append(findings, f)
	}
	if f, ok := e.reserveWithdrawal(tx, acct); ok {
		findings = append(findings, f)
	}
	if f, ok := e.specialAssessmentUse(tx, acct); ok {
		findings = append(findings, f)
	}
	if f, ok := e.largeWithdrawal(tx, acct); ok {
		findings = append(findings, f)
	}
	return findings
}

func (e *Evaluator) fundMixing(tx domain.Transaction, acct domain.Account) (Finding, bool) {
	flagged := tx.ViolationFlag && tx.ViolationType == string(domain.AlertFundMixing)

	// An operating-account deposit that references a restricted fund is
	// money landing in the wrong bucket.
	if !flagged && acct.Type == domain.FundOperating && tx.Type == domain.TypeDeposit {
		desc := strings.ToLower(tx.Description)
		for _, phrase := range restrictedFundPhrases {
			if strings.Contains(desc, phrase) {
				flagged = true
				break
			}
		}
	}
	if !flagged {
		return Finding{}, false
	}
	return Finding{
		Type:     domain.AlertFundMixing,
		Severity: domain.SeverityCritical,
		Description: fmt.Sprintf("possible fund mixing on account %s: %s ($%s)",
			acct.Name, tx.Description, tx.Amount.StringFixed(2)),
		TransactionID:       tx.ID,
		AccountID:           acct.ID,
		BoardActionRequired: true,
	}, true
}

func (e *Evaluator) reserveWithdrawal(tx domain.Transaction, acct domain.Account) (Finding, bool) {
	if acct.Type != domain.FundReserve || !tx.Type.IsDebit() {
		return Finding{}, false
	}
	// Inclusive boundary: a withdrawal at exactly the threshold escalates.
	boardAction := tx.Amount.GreaterThanOrEqual(e.reserveBoardAction)
	return Finding{
		Type:     domain.AlertReserveWithdrawal,
		Severity: domain.SeverityWarning,
		Description: fmt.Sprintf("withdrawal of $%s from reserve account %s",
			tx.Amount.StringFixed(2), acct.Name),
		TransactionID:       tx.ID,
		AccountID:           acct.ID,
		BoardActionRequired: boardAction,
	}, true
}

func (e *Evaluator) specialAssessmentUse(tx domain.Transaction, acct domain.Account) (Finding, bool) {
	if acct.Type != domain.FundSpecialAssessment || !tx.Type.IsDebit() {
		return Finding{}, false
	}
	desc := strings.ToLower(tx.Description)
	for _, kw := range e.approvedPurpose {
		if kw != "" && strings.Contains(desc, strings.ToLower(kw)) {
			return Finding{}, false
		}
	}
	return Finding{
		Type:     domain.AlertSpecialAssessmentUse,
		Severity: domain.SeverityCritical,
		Description: fmt.Sprintf("special assessment withdrawal of $%s without an approved purpose: %s",
			tx.Amount.StringFixed(2), tx.Description),
		TransactionID:       tx.ID,
		AccountID:           acct.ID,
		BoardActionRequired: true,
	}, true
}

func (e *Evaluator) largeWithdrawal(tx domain.Transaction, acct domain.Account) (Finding, bool) {
	if tx.Type != domain.TypeWithdrawal || tx.Amount.LessThan(e.largeTransaction) {
		return Finding{}, false
	}
	return Finding{
		Type:     domain.AlertLargeTransaction,
		Severity: domain.SeverityWarning,
		Description: fmt.Sprintf("large withdrawal of $%s from account %s: %s",
			tx.Amount.StringFixed(2), acct.Name, tx.Description),
		TransactionID:       tx.ID,
		AccountID:           acct.ID,
		BoardActionRequired: true,
	}, true
}

// ProposedTransfer is a not-yet-recorded transfer submitted for a pre-trade
// check.
type ProposedTransfer struct {
	From    domain.Account
	To      domain.Account
	Amount  decimal.Decimal
	Purpose string
}

// Decision is advisory: the caller enforces the block.
type Decision struct {
	Allowed          bool     `json:"allowed"`
	RequiresApproval bool     `json:"requires_approval"`
	Reasons          []string `json:"reasons,omitempty"`
}

// CheckTransfer evaluates a proposed transfer before it is recorded.
// Special-assessment to operating is unconditionally blocked; reserve to
// operating and large amounts require board approval.
func (e *Evaluator) CheckTransfer(p ProposedTransfer) Decision {
	d := Decision{Allowed: true}

	if p.From.Type == domain.FundSpecialAssessment && p.To.Type == domain.FundOperating {
		d.Allowed = false
		d.Reasons = append(d.Reasons, "special assessment funds may not move to operating")
	}
	if p.From.Type == domain.FundReserve && p.To.Type == domain.FundOperating {
		d.RequiresApproval = true
		d.Reasons = append(d.Reasons, "reserve to operating transfers require board approval")
	}
	if p.Amount.GreaterThanOrEqual(e.largeTransaction) {
		d.RequiresApproval = true
		d.Reasons = append(d.Reasons,
			fmt.Sprintf("amount $%s exceeds the approval threshold", p.Amount.StringFixed(2)))
	}
	return d
}
