package memory

import (
	"fmt"
	"time"

	"github.com/dvloznov/hoa-ledger/internal/domain"
	"github.com/dvloznov/hoa-ledger/internal/store"
)

// Field patches are applied one key at a time, matching the json field names
// of the domain structs. An unknown key or a wrong value type rejects the
// whole patch before anything is written.

func applyTransactionFields(tx *domain.Transaction, fields store.Fields) error {
	for key, val := range fields {
		switch key {
		case "category_id":
			s, err := asString(key, val)
			if err != nil {
				return err
			}
			tx.CategoryID = s
		case "budget_item_id":
			s, err := asString(key, val)
			if err != nil {
				return err
			}
			tx.BudgetItemID = s
		case "vendor_id":
			s, err := asString(key, val)
			if err != nil {
				return err
			}
			tx.VendorID = s
		case "status":
			s, err := asString(key, val)
			if err != nil {
				return err
			}
			tx.Status = domain.ReconciliationStatus(s)
		case "auto_categorized":
			b, err := asBool(key, val)
			if err != nil {
				return err
			}
			tx.AutoCategorized = b
		case "needs_review":
			b, err := asBool(key, val)
			if err != nil {
				return err
			}
			tx.NeedsReview = b
		case "violation_flag":
			b, err := asBool(key, val)
			if err != nil {
				return err
			}
			tx.ViolationFlag = b
		case "violation_type":
			s, err := asString(key, val)
			if err != nil {
				return err
			}
			tx.ViolationType = s
		case "fiscal_year_id":
			s, err := asString(key, val)
			if err != nil {
				return err
			}
			tx.FiscalYearID = s
		case "statement_month":
			s, err := asString(key, val)
			if err != nil {
				return err
			}
			tx.StatementMonth = s
		default:
			return fmt.Errorf("transactions.Update: unknown field %q: %w", key, store.ErrValidation)
		}
	}
	return nil
}

func applyAllocationFields(a *domain.PaymentAllocation, fields store.Fields) error {
	for key, val := range fields {
		switch key {
		case "status":
			s, err := asString(key, val)
			if err != nil {
				return err
			}
			next := domain.AllocationStatus(s)
			if !a.Status.CanAdvanceTo(next) {
				return fmt.Errorf("allocations.Update: status %s -> %s is not a forward transition: %w",
					a.Status, next, store.ErrValidation)
			}
			a.Status = next
		case "linked_transfer_id":
			s, err := asString(key, val)
			if err != nil {
				return err
			}
			a.LinkedTransferID = s
		default:
			return fmt.Errorf("allocations.Update: unknown field %q: %w", key, store.ErrValidation)
		}
	}
	return nil
}

func applyAlertFields(a *domain.ComplianceAlert, fields store.Fields) error {
	for key, val := range fields {
		switch key {
		case "description":
			s, err := asString(key, val)
			if err != nil {
				return err
			}
			a.Description = s
		case "severity":
			s, err := asString(key, val)
			if err != nil {
				return err
			}
			a.Severity = domain.AlertSeverity(s)
		case "board_action_required":
			b, err := asBool(key, val)
			if err != nil {
				return err
			}
			a.BoardActionRequired = b
		case "acknowledged":
			b, err := asBool(key, val)
			if err != nil {
				return err
			}
			a.Acknowledged = b
		case "acknowledged_by":
			s, err := asString(key, val)
			if err != nil {
				return err
			}
			a.AcknowledgedBy = s
		case "acknowledged_at":
			t, err := asTime(key, val)
			if err != nil {
				return err
			}
			a.AcknowledgedAt = &t
		case "resolved":
			b, err := asBool(key, val)
			if err != nil {
				return err
			}
			// Resolution is terminal.
			if a.Resolved && !b {
				return fmt.Errorf("alerts.Update: cannot reopen resolved alert: %w", store.ErrValidation)
			}
			a.Resolved = b
		case "resolved_by":
			s, err := asString(key, val)
			if err != nil {
				return err
			}
			a.ResolvedBy = s
		case "resolved_at":
			t, err := asTime(key, val)
			if err != nil {
				return err
			}
			a.ResolvedAt = &t
		default:
			return fmt.Errorf("alerts.Update: unknown field %q: %w", key, store.ErrValidation)
		}
	}
	return nil
}

func asString(key string, val any) (string, error) {
	s, ok := val.(string)
	if !ok {
		return "", fmt.Errorf("field %q: got %T, want string: %w", key, val, store.ErrValidation)
	}
	return s, nil
}

func asBool(key string, val any) (bool, error) {
	b, ok := val.(bool)
	if !ok {
		return false, fmt.Errorf("field %q: got %T, want bool: %w", key, val, store.ErrValidation)
	}
	return b, nil
}

func asTime(key string, val any) (time.Time, error) {
	t, ok := val.(time.Time)
	if !ok {
		return time.Time{}, fmt.Errorf("field %q: got %T, want time.Time: %w", key, val, store.ErrValidation)
	}
	return t, nil
}
