package domain

import "time"

// InvoiceStatus is the lifecycle state of an invoice.
type InvoiceStatus string

const (
	InvoiceDraft InvoiceStatus = "DRAFT"
	InvoiceOpen  InvoiceStatus = "OPEN"
	// Read-only states reported by the backend.
	InvoicePaid    InvoiceStatus = "PAID"
	InvoiceOverdue InvoiceStatus = "OVERDUE"
)

// IsValid reports whether s is a known invoice status.
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceDraft, InvoiceOpen, InvoicePaid, InvoiceOverdue:
		return true
	}
	return false
}

// Invoice groups charges of one account for a billing period.
// Total is derived by the backend from the attached charges.
type Invoice struct {
	InvoiceID   string        `json:"invoiceID"`
	AccountID   string        `json:"accountID"`
	Status      InvoiceStatus `json:"status"`
	InvoiceDate time.Time     `json:"invoiceDate"`
	PeriodStart time.Time     `json:"periodStart"`
	PeriodEnd   time.Time     `json:"periodEnd"`
	Total       Money         `json:"total"`
	ChargeIDs   []string      `json:"chargeIDs,omitempty"`
}

// IsDraft reports whether the invoice can still be changed.
func (i Invoice) IsDraft() bool { return i.Status == InvoiceDraft }
