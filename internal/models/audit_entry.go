package models

import "time"

// AuditEntry is the persisted row of the billing_audit_log table.
type AuditEntry struct {
	AuditID    string    `json:"auditID"` // Primary Key
	OperatorID string    `json:"operatorID"`
	Action     string    `json:"action"`
	AccountID  string    `json:"accountID"`
	TargetIDs  []string  `json:"targetIDs"` // text[]
	Outcome    string    `json:"outcome"`
	Detail     *string   `json:"detail"` // nullable
	CreatedAt  time.Time `json:"createdAt"`
}
