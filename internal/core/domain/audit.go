package domain

import "time"

// AuditOutcome is the result of a dispatched mutation.
type AuditOutcome string

const (
	AuditSucceeded AuditOutcome = "SUCCEEDED"
	AuditPartial   AuditOutcome = "PARTIAL"
	AuditFailed    AuditOutcome = "FAILED"
)

// AuditEntry records a mutation that was sent to the billing backend on
// behalf of an operator.
type AuditEntry struct {
	AuditID    string       `json:"auditID"`
	OperatorID string       `json:"operatorID"`
	Action     string       `json:"action"`
	AccountID  string       `json:"accountID"`
	TargetIDs  []string     `json:"targetIDs"`
	Outcome    AuditOutcome `json:"outcome"`
	Detail     string       `json:"detail,omitempty"`
	CreatedAt  time.Time    `json:"createdAt"`
}

// AuditCursor marks a position in an account's audit trail. Entries are
// ordered newest first, ties broken by ascending audit ID.
type AuditCursor struct {
	CreatedAt time.Time
	AuditID   string
}

// After reports whether e comes after c in the audit trail order.
func (c AuditCursor) After(e AuditEntry) bool {
	if !e.CreatedAt.Equal(c.CreatedAt) {
		return e.CreatedAt.Before(c.CreatedAt)
	}
	return e.AuditID > c.AuditID
}

// CursorOf returns the cursor pointing at e.
func CursorOf(e AuditEntry) AuditCursor {
	return AuditCursor{CreatedAt: e.CreatedAt, AuditID: e.AuditID}
}

// AuditQuery selects entries of one account. A zero Limit returns all
// remaining entries; a nil After starts at the newest entry.
type AuditQuery struct {
	AccountID string
	Limit     int
	After     *AuditCursor
}

// AuditPage is one page of an account's audit trail.
type AuditPage struct {
	Entries       []AuditEntry `json:"entries"`
	NextPageToken string       `json:"nextPageToken,omitempty"`
}
