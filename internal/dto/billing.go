package dto

import (
	"time"

	"github.com/SscSPs/billing_backoffice/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateInvoiceRequest carries the business details printed on a new invoice.
// The charges come from the operator's uninvoiced selection.
type CreateInvoiceRequest struct {
	CompanyName  string    `json:"companyName" binding:"required,max=200"`
	ContactName  string    `json:"contactName" binding:"max=200"`
	Email        string    `json:"email" binding:"omitempty,email"`
	AddressLine1 string    `json:"addressLine1" binding:"max=200"`
	AddressLine2 string    `json:"addressLine2" binding:"max=200"`
	City         string    `json:"city" binding:"max=100"`
	State        string    `json:"state" binding:"max=100"`
	PostalCode   string    `json:"postalCode" binding:"max=20"`
	Country      string    `json:"country" binding:"omitempty,iso3166_1_alpha2"`
	TaxID        string    `json:"taxID" binding:"max=50"`
	InvoiceDate  time.Time `json:"invoiceDate"`
	PeriodStart  time.Time `json:"periodStart"`
	PeriodEnd    time.Time `json:"periodEnd"`
	Notes        string    `json:"notes" binding:"max=2000"`
}

// ToBusinessDetails converts the request into domain business details.
func (r CreateInvoiceRequest) ToBusinessDetails() domain.BusinessDetails {
	return domain.BusinessDetails{
		CompanyName:  r.CompanyName,
		ContactName:  r.ContactName,
		Email:        r.Email,
		AddressLine1: r.AddressLine1,
		AddressLine2: r.AddressLine2,
		City:         r.City,
		State:        r.State,
		PostalCode:   r.PostalCode,
		Country:      r.Country,
		TaxID:        r.TaxID,
		InvoiceDate:  r.InvoiceDate,
		PeriodStart:  r.PeriodStart,
		PeriodEnd:    r.PeriodEnd,
		Notes:        r.Notes,
	}
}

// CancelChargesRequest lists the charges to cancel. An empty list cancels the
// operator's selection on the charges listing.
type CancelChargesRequest struct {
	ChargeIDs []string `json:"chargeIDs" binding:"omitempty,dive,required"`
}

// DeleteRecurringChargesRequest lists the recurring charges to delete.
type DeleteRecurringChargesRequest struct {
	RecurringChargeIDs []string `json:"recurringChargeIDs" binding:"required,min=1,dive,required"`
}

// ToggleChargeRequest names the charge whose selection flips.
type ToggleChargeRequest struct {
	ChargeID string `json:"chargeID" binding:"required"`
}

// AdjustBalanceRequest is a manual credit or debit. Currency defaults to the
// service's default currency.
type AdjustBalanceRequest struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency" binding:"omitempty,iso4217"`
	Comment  string          `json:"comment" binding:"required,max=500"`
}

// CardRequest holds card details. They are forwarded to the billing backend
// and never stored.
type CardRequest struct {
	HolderName string `json:"holderName" binding:"required"`
	Number     string `json:"number" binding:"required,numeric,min=12,max=19"`
	ExpMonth   int    `json:"expMonth" binding:"required,min=1,max=12"`
	ExpYear    int    `json:"expYear" binding:"required,min=2000"`
	CVC        string `json:"cvc" binding:"required,numeric,min=3,max=4"`
}

// BillingAddressRequest is the card holder's billing address.
type BillingAddressRequest struct {
	Line1      string `json:"line1" binding:"max=200"`
	Line2      string `json:"line2" binding:"max=200"`
	City       string `json:"city" binding:"max=100"`
	State      string `json:"state" binding:"max=100"`
	PostalCode string `json:"postalCode" binding:"required,max=20"`
	Country    string `json:"country" binding:"required,iso3166_1_alpha2"`
}

// DirectPaymentRequest charges a card, optionally against specific charges.
type DirectPaymentRequest struct {
	Amount    decimal.Decimal       `json:"amount"`
	Currency  string                `json:"currency" binding:"omitempty,iso4217"`
	ChargeIDs []string              `json:"chargeIDs" binding:"omitempty,dive,required"`
	Card      CardRequest           `json:"card"`
	Billing   BillingAddressRequest `json:"billing"`
}

// ToCardDetails converts the card part of the request.
func (r DirectPaymentRequest) ToCardDetails() domain.CardDetails {
	return domain.CardDetails{
		HolderName: r.Card.HolderName,
		Number:     r.Card.Number,
		ExpMonth:   r.Card.ExpMonth,
		ExpYear:    r.Card.ExpYear,
		CVC:        r.Card.CVC,
	}
}

// ToBillingAddress converts the address part of the request.
func (r DirectPaymentRequest) ToBillingAddress() domain.BillingAddress {
	return domain.BillingAddress{
		Line1:      r.Billing.Line1,
		Line2:      r.Billing.Line2,
		City:       r.Billing.City,
		State:      r.Billing.State,
		PostalCode: r.Billing.PostalCode,
		Country:    r.Billing.Country,
	}
}
