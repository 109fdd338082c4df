package domain

import "time"

// AlertType identifies which compliance rule produced a finding.
type AlertType string

const (
	AlertFundMixing           AlertType = "fund_mixing"
	AlertReserveWithdrawal    AlertType = "reserve_withdrawal"
	AlertSpecialAssessmentUse AlertType = "special_assessment_use"
	AlertLargeTransaction     AlertType = "large_transaction"
)

// AlertSeverity ranks findings for board review.
type AlertSeverity string

const (
	SeverityInfo     AlertSeverity = "info"
	SeverityWarning  AlertSeverity = "warning"
	SeverityCritical AlertSeverity = "critical"
)

// ComplianceAlert is an append-only finding from the rule evaluator.
// Resolution is a terminal state transition, never a deletion.
type ComplianceAlert struct {
	ID          string        `json:"id"`
	Type        AlertType     `json:"type"`
	Severity    AlertSeverity `json:"severity"`
	Description string        `json:"description"`

	TransactionID string `json:"transaction_id,omitempty"`
	AccountID     string `json:"account_id,omitempty"`

	BoardActionRequired bool `json:"board_action_required"`

	Acknowledged   bool       `json:"acknowledged"`
	AcknowledgedBy string     `json:"acknowledged_by,omitempty"`
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty"`

	Resolved   bool       `json:"resolved"`
	ResolvedBy string     `json:"resolved_by,omitempty"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
