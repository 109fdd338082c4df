// Package normalize maps bank-specific codes and free-text descriptions onto
// the canonical transaction schema: a direction-bearing type, a best-guess
// vendor, and a target-account suffix for transfers. Everything here is a
// hint except the type; unclassifiable rows never block ingestion.
package normalize

import (
	"fmt"
	"strings"

	"github.com/dvloznov/hoa-ledger/internal/domain"
	"github.com/dvloznov/hoa-ledger/internal/parser"
)

// Bank type-code buckets. Codes not listed fall through to the detail code.
var (
	feeCodes = map[string]bool{
		"FEE_TRANSACTION": true,
		"SERVICE_CHARGE":  true,
		"MONTHLY_FEE":     true,
		"OVERDRAFT_FEE":   true,
		"WIRE_FEE":        true,
	}
	creditCodes = map[string]bool{
		"ACH_CREDIT":       true,
		"WIRE_INCOMING":    true,
		"DEPOSIT":          true,
		"CHECK_DEPOSIT":    true,
		"QUICKPAY_CREDIT":  true,
		"INTEREST_PAYMENT": true,
		"REFUND":           true,
	}
	debitCodes = map[string]bool{
		"ACH_DEBIT":       true,
		"WIRE_OUTGOING":   true,
		"CHECK_PAID":      true,
		"DEBIT_CARD":      true,
		"ATM_WITHDRAWAL":  true,
		"QUICKPAY_DEBIT":  true,
		"BILLPAY":         true,
	}
	transferCodes = map[string]bool{
		"ACCT_XFER":       true,
		"ONLINE_TRANSFER": true,
		"TRANSFER":        true,
	}
)

// isDebitRow decides direction from the detail code first, the exported sign
// second. Credit wins only when the bank said so explicitly.
func isDebitRow(row parser.RawRow) bool {
	switch row.Detail {
	case "DEBIT", "CHECK":
		return true
	case "CREDIT", "DSLIP":
		return false
	}
	return row.Amount.IsNegative()
}

// CanonicalType resolves the transaction type in priority order:
// explicit transfer signal, bank type-code bucket, detail-code fallback,
// default withdrawal.
func CanonicalType(row parser.RawRow) domain.TransactionType {
	debit := isDebitRow(row)

	if transferCodes[row.TypeCode] || containsOnlineTransfer(row.Description) {
		if debit {
			return domain.TypeTransferOut
		}
		return domain.TypeTransferIn
	}

	switch {
	case feeCodes[row.TypeCode]:
		return domain.TypeFee
	case creditCodes[row.TypeCode]:
		return domain.TypeDeposit
	case debitCodes[row.TypeCode]:
		return domain.TypeWithdrawal
	}

	switch row.Detail {
	case "CREDIT", "DSLIP":
		return domain.TypeDeposit
	case "DEBIT", "CHECK":
		return domain.TypeWithdrawal
	}

	return domain.TypeWithdrawal
}

func containsOnlineTransfer(desc string) bool {
	return strings.Contains(strings.ToLower(desc), "online transfer")
}

// Row builds a canonical transaction from a parsed raw row. The amount is
// stored as an unsigned magnitude; direction lives in the type.
func Row(row parser.RawRow, accountID string) domain.Transaction {
	txType := CanonicalType(row)

	tx := domain.Transaction{
		AccountID:      accountID,
		Date:           row.Date,
		Description:    row.Description,
		Amount:         row.Amount.Abs().Round(2),
		Type:           txType,
		Status:         domain.StatusPending,
		StatementMonth: fmt.Sprintf("%04d-%02d", row.Date.Year(), int(row.Date.Month())),
		SourceIndex:    row.SourceIndex,
		Vendor:         ExtractVendor(row.Description, txType, row.Detail),
	}
	if row.Balance != nil {
		bal := row.Balance.Round(2)
		tx.BalanceAfter = &bal
	}
	if txType.IsTransfer() {
		tx.TargetSuffix = ExtractTargetSuffix(row.Description)
	}
	return tx
}
