package domain

import "time"

// ChargeStatus is the billing status of a single charge.
type ChargeStatus string

const (
	ChargeUnpaid   ChargeStatus = "UNPAID"
	ChargePaid     ChargeStatus = "PAID"
	ChargeVoid     ChargeStatus = "VOID"
	ChargeRefunded ChargeStatus = "REFUNDED"
	ChargeCredited ChargeStatus = "CREDITED"
	ChargePending  ChargeStatus = "PENDING"
	ChargeCanceled ChargeStatus = "CANCELED"
)

// ChargeStatuses lists every status the billing backend may report.
var ChargeStatuses = []ChargeStatus{
	ChargeUnpaid, ChargePaid, ChargeVoid, ChargeRefunded, ChargeCredited, ChargePending, ChargeCanceled,
}

// IsValid reports whether s is one of the known charge statuses.
func (s ChargeStatus) IsValid() bool {
	for _, known := range ChargeStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible from s.
func (s ChargeStatus) IsTerminal() bool {
	return s == ChargeVoid || s == ChargeCanceled || s == ChargeRefunded
}

// Charge is a single billed amount owned by an account.
// Charges are never deleted; they end up Void or Canceled instead.
type Charge struct {
	ChargeID  string       `json:"chargeID"`
	AccountID string       `json:"accountID"`
	Name      string       `json:"name"`
	IssueDate time.Time    `json:"issueDate"`
	Amount    Money        `json:"amount"`
	Status    ChargeStatus `json:"status"`
	Invoiced  bool         `json:"invoiced"`
	InvoiceID string       `json:"invoiceID,omitempty"` // Set when Invoiced
}

// ChargeFilter narrows a charge listing. Nil fields do not filter.
type ChargeFilter struct {
	Status   *ChargeStatus
	Invoiced *bool
}

// Matches reports whether c passes the filter.
func (f ChargeFilter) Matches(c Charge) bool {
	if f.Status != nil && c.Status != *f.Status {
		return false
	}
	if f.Invoiced != nil && c.Invoiced != *f.Invoiced {
		return false
	}
	return true
}

// RecurringCharge describes a charge the billing scheduler materializes on every cycle.
// Deleting it cancels future occurrences only.
type RecurringCharge struct {
	RecurringChargeID string    `json:"recurringChargeID"`
	AccountID         string    `json:"accountID"`
	Name              string    `json:"name"`
	NextRunDate       time.Time `json:"nextRunDate"`
	Amount            Money     `json:"amount"`
	Taxable           bool      `json:"taxable"`
	Cycle             string    `json:"cycle"` // e.g. "Monthly"
}
