package pipeline

import (
	"context"
	"fmt"

	"github.com/dvloznov/hoa-ledger/internal/allocation"
	"github.com/dvloznov/hoa-ledger/internal/balance"
	"github.com/dvloznov/hoa-ledger/internal/compliance"
	"github.com/dvloznov/hoa-ledger/internal/config"
	"github.com/dvloznov/hoa-ledger/internal/domain"
	"github.com/dvloznov/hoa-ledger/internal/logger"
	"github.com/dvloznov/hoa-ledger/internal/store"
	"github.com/dvloznov/hoa-ledger/internal/transfer"
)

// Reconciler runs the full month-end pass: transfer linking, allocation
// auto-matching, balance reconciliation, then compliance evaluation over
// every transaction of the fiscal year.
type Reconciler struct {
	store store.Store
	cfg   *config.Config
}

// NewReconciler wires a reconciler.
func NewReconciler(st store.Store, cfg *config.Config) *Reconciler {
	return &Reconciler{store: st, cfg: cfg}
}

// ReconcileReport aggregates the outcomes of one run.
type ReconcileReport struct {
	Transfers   transfer.Report         `json:"transfers"`
	Allocations allocation.MatchReport  `json:"allocations"`
	Balance     balance.Report          `json:"balance"`
	Compliance  compliance.RecordResult `json:"compliance"`
	Findings    int                     `json:"findings"`
}

// Run executes the reconciliation pass for one fiscal year. Stages run in
// order because compliance wants linked, categorized rows; a transfer-linking
// failure is reported but does not stop the balance and compliance stages.
func (r *Reconciler) Run(ctx context.Context, fiscalYear int) (ReconcileReport, error) {
	log := logger.FromContext(ctx)
	var report ReconcileReport

	linkReport, err := transfer.NewLinker(r.store, r.cfg.Matching).Run(ctx, fiscalYear)
	if err != nil {
		return report, fmt.Errorf("pipeline.Reconcile: link transfers: %w", err)
	}
	report.Transfers = linkReport

	matchReport, err := allocation.NewSplitter(r.store, r.cfg.Matching).AutoMatch(ctx)
	if err != nil {
		return report, fmt.Errorf("pipeline.Reconcile: match allocations: %w", err)
	}
	report.Allocations = matchReport

	txs, err := r.store.Transactions().List(ctx, store.TransactionFilter{FiscalYear: fiscalYear})
	if err != nil {
		return report, fmt.Errorf("pipeline.Reconcile: list transactions: %w", err)
	}
	accounts, err := r.store.Accounts().List(ctx)
	if err != nil {
		return report, fmt.Errorf("pipeline.Reconcile: list accounts: %w", err)
	}
	var statements []domain.MonthlyStatement
	for _, acct := range accounts {
		rows, err := r.store.Statements().List(ctx, store.StatementFilter{AccountID: acct.ID})
		if err != nil {
			return report, fmt.Errorf("pipeline.Reconcile: list statements: %w", err)
		}
		statements = append(statements, rows...)
	}

	report.Balance = balance.Reconcile(txs, statements)

	acctByID := make(map[string]domain.Account, len(accounts))
	for _, a := range accounts {
		acctByID[a.ID] = a
	}
	evaluator := compliance.NewEvaluator(r.cfg.Compliance)
	var findings []compliance.Finding
	for _, tx := range txs {
		acct, ok := acctByID[tx.AccountID]
		if !ok {
			continue
		}
		findings = append(findings, evaluator.Evaluate(tx, acct)...)
	}
	report.Findings = len(findings)
	report.Compliance = compliance.NewRecorder(r.store.Alerts()).Record(ctx, findings)

	log.Info().
		Int("fiscal_year", fiscalYear).
		Int("linked", report.Transfers.Linked).
		Int("allocations_matched", report.Allocations.Matched).
		Int("unbalanced_months", report.Balance.UnbalancedCount).
		Int("findings", report.Findings).
		Int("alerts_created", report.Compliance.Created).
		Msg("reconciliation run complete")
	return report, nil
}
