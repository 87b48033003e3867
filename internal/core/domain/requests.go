package domain

import "time"

// BusinessDetails carries the billing metadata printed on a new invoice.
type BusinessDetails struct {
	CompanyName  string    `json:"companyName"`
	ContactName  string    `json:"contactName,omitempty"`
	Email        string    `json:"email,omitempty"`
	AddressLine1 string    `json:"addressLine1,omitempty"`
	AddressLine2 string    `json:"addressLine2,omitempty"`
	City         string    `json:"city,omitempty"`
	State        string    `json:"state,omitempty"`
	PostalCode   string    `json:"postalCode,omitempty"`
	Country      string    `json:"country,omitempty"`
	TaxID        string    `json:"taxID,omitempty"`
	InvoiceDate  time.Time `json:"invoiceDate"`
	PeriodStart  time.Time `json:"periodStart"`
	PeriodEnd    time.Time `json:"periodEnd"`
	Notes        string    `json:"notes,omitempty"`
}

// CreateInvoiceRequest asks the backend to create a draft invoice from charges.
// Total is advisory; the backend recomputes it.
type CreateInvoiceRequest struct {
	AccountID string          `json:"accountID"`
	ChargeIDs []string        `json:"chargeIDs"`
	Total     Money           `json:"total"`
	Business  BusinessDetails `json:"business"`
}

// MergeChargesRequest asks the backend to attach charges to a draft invoice.
type MergeChargesRequest struct {
	AccountID string   `json:"accountID"`
	InvoiceID string   `json:"invoiceID"`
	ChargeIDs []string `json:"chargeIDs"`
}

// AdjustmentDirection tells whether a manual balance adjustment credits or debits the account.
type AdjustmentDirection string

const (
	AdjustCredit AdjustmentDirection = "CREDIT"
	AdjustDebit  AdjustmentDirection = "DEBIT"
)

// BalanceAdjustmentRequest is a manual credit or debit by an operator.
type BalanceAdjustmentRequest struct {
	AccountID string              `json:"accountID"`
	Direction AdjustmentDirection `json:"direction"`
	Amount    Money               `json:"amount"`
	Comment   string              `json:"comment"`
}

// CardDetails is the card used for a direct payment. It must never be logged.
type CardDetails struct {
	HolderName string `json:"holderName"`
	Number     string `json:"number"`
	ExpMonth   int    `json:"expMonth"`
	ExpYear    int    `json:"expYear"`
	CVC        string `json:"cvc"`
}

// Last4 returns the last four digits of the card number.
func (c CardDetails) Last4() string {
	if len(c.Number) < 4 {
		return c.Number
	}
	return c.Number[len(c.Number)-4:]
}

// BillingAddress is the card holder's billing address.
type BillingAddress struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// DirectPaymentRequest charges a card on behalf of an account, optionally
// settling specific charges.
type DirectPaymentRequest struct {
	AccountID string         `json:"accountID"`
	Amount    Money          `json:"amount"`
	ChargeIDs []string       `json:"chargeIDs,omitempty"`
	Card      CardDetails    `json:"card"`
	Billing   BillingAddress `json:"billing"`
}
