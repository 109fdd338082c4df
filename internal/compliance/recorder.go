package compliance

import (
	"context"
	"fmt"

	"github.com/dvloznov/hoa-ledger/internal/domain"
	"github.com/dvloznov/hoa-ledger/internal/store"
)

// Recorder persists findings as compliance alerts with duplicate
// suppression: an unresolved alert for the same transaction and rule type is
// refreshed in place instead of creating a second row.
type Recorder struct {
	alerts store.Alerts
}

// NewRecorder wires a recorder to the alert collection.
func NewRecorder(alerts store.Alerts) *Recorder {
	return &Recorder{alerts: alerts}
}

// RecordResult reports what one Record pass did.
type RecordResult struct {
	Created    int      `json:"created"`
	Suppressed int      `json:"suppressed"`
	Errors     []string `json:"errors,omitempty"`
}

// Record writes findings. Failures are per finding; the rest of the batch
// proceeds.
func (r *Recorder) Record(ctx context.Context, findings []Finding) RecordResult {
	var res RecordResult
	for _, f := range findings {
		existing, err := r.alerts.List(ctx, store.AlertFilter{
			TransactionID: f.TransactionID,
			Type:          f.Type,
			Unresolved:    true,
		})
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("lookup %s/%s: %v", f.TransactionID, f.Type, err))
			continue
		}
		if len(existing) > 0 {
			res.Suppressed++
			_, err := r.alerts.Update(ctx, existing[0].ID, store.Fields{
				"description":           f.Description,
				"severity":              string(f.Severity),
				"board_action_required": f.BoardActionRequired,
			})
			if err != nil {
				res.Errors = append(res.Errors, fmt.Sprintf("refresh %s: %v", existing[0].ID, err))
			}
			continue
		}

		_, err = r.alerts.Create(ctx, domain.ComplianceAlert{
			Type:                f.Type,
			Severity:            f.Severity,
			Description:         f.Description,
			TransactionID:       f.TransactionID,
			AccountID:           f.AccountID,
			BoardActionRequired: f.BoardActionRequired,
		})
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("create %s/%s: %v", f.TransactionID, f.Type, err))
			continue
		}
		res.Created++
	}
	return res
}
