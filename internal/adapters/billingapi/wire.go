package billingapi

import (
	"fmt"
	"time"

	"github.com/SscSPs/billing_backoffice/internal/apperrors"
	"github.com/SscSPs/billing_backoffice/internal/core/domain"
	"github.com/shopspring/decimal"
)

// Wire shapes of the billing backend. Amounts travel as decimal strings in
// major units and are converted to minor-unit Money before leaving this package.

type wireMoney struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency" validate:"required,iso4217"`
}

type wireCharge struct {
	ID        string    `json:"id" validate:"required"`
	AccountID string    `json:"account_id" validate:"required"`
	Name      string    `json:"name"`
	IssueDate time.Time `json:"issue_date" validate:"required"`
	Amount    wireMoney `json:"amount"`
	Status    string    `json:"status" validate:"required,oneof=UNPAID PAID VOID REFUNDED CREDITED PENDING CANCELED"`
	Invoiced  bool      `json:"invoiced"`
	InvoiceID string    `json:"invoice_id,omitempty"`
}

type wireRecurringCharge struct {
	ID          string    `json:"id" validate:"required"`
	AccountID   string    `json:"account_id" validate:"required"`
	Name        string    `json:"name"`
	NextRunDate time.Time `json:"next_run_date"`
	Amount      wireMoney `json:"amount"`
	Taxable     bool      `json:"taxable"`
	Cycle       string    `json:"cycle"`
}

type wireInvoice struct {
	ID          string    `json:"id" validate:"required"`
	AccountID   string    `json:"account_id" validate:"required"`
	Status      string    `json:"status" validate:"required,oneof=DRAFT OPEN PAID OVERDUE"`
	InvoiceDate time.Time `json:"invoice_date"`
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`
	Total       wireMoney `json:"total"`
	ChargeIDs   []string  `json:"charge_ids" validate:"dive,required"`
}

// Type is not restricted to the known set: newer backends may send types
// this service labels with a fallback.
type wireTransaction struct {
	ID        string    `json:"id" validate:"required"`
	AccountID string    `json:"account_id" validate:"required"`
	Type      string    `json:"type" validate:"required"`
	Debit     wireMoney `json:"debit"`
	Credit    wireMoney `json:"credit"`
	Balance   wireMoney `json:"balance"`
	ChargeID  string    `json:"charge_id,omitempty"`
	Comment   string    `json:"comment,omitempty"`
	Timestamp time.Time `json:"timestamp" validate:"required"`
	CardBrand string    `json:"card_brand,omitempty"`
	CardLast4 string    `json:"card_last4,omitempty" validate:"omitempty,len=4,numeric"`
}

type wireCreated struct {
	ID string `json:"id" validate:"required"`
}

type wirePaymentResult struct {
	TransactionID string `json:"transaction_id" validate:"required"`
}

type wireCreateInvoice struct {
	ChargeIDs []string     `json:"charge_ids"`
	Total     wireMoney    `json:"total"`
	Business  wireBusiness `json:"business"`
}

type wireBusiness struct {
	CompanyName  string    `json:"company_name"`
	ContactName  string    `json:"contact_name,omitempty"`
	Email        string    `json:"email,omitempty"`
	AddressLine1 string    `json:"address_line1,omitempty"`
	AddressLine2 string    `json:"address_line2,omitempty"`
	City         string    `json:"city,omitempty"`
	State        string    `json:"state,omitempty"`
	PostalCode   string    `json:"postal_code,omitempty"`
	Country      string    `json:"country,omitempty"`
	TaxID        string    `json:"tax_id,omitempty"`
	InvoiceDate  time.Time `json:"invoice_date"`
	PeriodStart  time.Time `json:"period_start"`
	PeriodEnd    time.Time `json:"period_end"`
	Notes        string    `json:"notes,omitempty"`
}

type wireMergeCharges struct {
	ChargeIDs []string `json:"charge_ids"`
}

type wireAdjustment struct {
	Direction string    `json:"direction"`
	Amount    wireMoney `json:"amount"`
	Comment   string    `json:"comment"`
}

type wirePayment struct {
	Amount         wireMoney   `json:"amount"`
	ChargeIDs      []string    `json:"charge_ids"`
	Card           wireCard    `json:"card"`
	BillingAddress wireAddress `json:"billing_address"`
}

type wireCard struct {
	HolderName string `json:"holder_name"`
	Number     string `json:"number"`
	ExpMonth   int    `json:"exp_month"`
	ExpYear    int    `json:"exp_year"`
	CVC        string `json:"cvc"`
}

type wireAddress struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

func toWireMoney(m domain.Money) wireMoney {
	return wireMoney{Amount: m.Decimal(), Currency: m.Currency()}
}

func (w wireMoney) toDomain(field string) (domain.Money, error) {
	m, err := domain.MoneyFromDecimal(w.Amount, w.Currency)
	if err != nil {
		return domain.Money{}, fmt.Errorf("%s: %w", field, err)
	}
	return m, nil
}

func (w wireCharge) toDomain() (domain.Charge, error) {
	amount, err := w.Amount.toDomain("amount")
	if err != nil {
		return domain.Charge{}, err
	}
	return domain.Charge{
		ChargeID:  w.ID,
		AccountID: w.AccountID,
		Name:      w.Name,
		IssueDate: w.IssueDate,
		Amount:    amount,
		Status:    domain.ChargeStatus(w.Status),
		Invoiced:  w.Invoiced,
		InvoiceID: w.InvoiceID,
	}, nil
}

func (w wireRecurringCharge) toDomain() (domain.RecurringCharge, error) {
	amount, err := w.Amount.toDomain("amount")
	if err != nil {
		return domain.RecurringCharge{}, err
	}
	return domain.RecurringCharge{
		RecurringChargeID: w.ID,
		AccountID:         w.AccountID,
		Name:              w.Name,
		NextRunDate:       w.NextRunDate,
		Amount:            amount,
		Taxable:           w.Taxable,
		Cycle:             w.Cycle,
	}, nil
}

func (w wireInvoice) toDomain() (domain.Invoice, error) {
	total, err := w.Total.toDomain("total")
	if err != nil {
		return domain.Invoice{}, err
	}
	chargeIDs := w.ChargeIDs
	if chargeIDs == nil {
		chargeIDs = []string{}
	}
	return domain.Invoice{
		InvoiceID:   w.ID,
		AccountID:   w.AccountID,
		Status:      domain.InvoiceStatus(w.Status),
		InvoiceDate: w.InvoiceDate,
		PeriodStart: w.PeriodStart,
		PeriodEnd:   w.PeriodEnd,
		Total:       total,
		ChargeIDs:   chargeIDs,
	}, nil
}

func (w wireTransaction) toDomain() (domain.Transaction, error) {
	debit, err := w.Debit.toDomain("debit")
	if err != nil {
		return domain.Transaction{}, err
	}
	credit, err := w.Credit.toDomain("credit")
	if err != nil {
		return domain.Transaction{}, err
	}
	balance, err := w.Balance.toDomain("balance")
	if err != nil {
		return domain.Transaction{}, err
	}
	t := domain.Transaction{
		TransactionID: w.ID,
		AccountID:     w.AccountID,
		Type:          domain.TransactionType(w.Type),
		Debit:         debit,
		Credit:        credit,
		Balance:       balance,
		ChargeID:      w.ChargeID,
		Comment:       w.Comment,
		Timestamp:     w.Timestamp,
		CardBrand:     w.CardBrand,
		CardLast4:     w.CardLast4,
	}
	if err := t.Validate(); err != nil {
		return domain.Transaction{}, err
	}
	return t, nil
}

func toWireCreateInvoice(req domain.CreateInvoiceRequest) wireCreateInvoice {
	b := req.Business
	return wireCreateInvoice{
		ChargeIDs: req.ChargeIDs,
		Total:     toWireMoney(req.Total),
		Business: wireBusiness{
			CompanyName:  b.CompanyName,
			ContactName:  b.ContactName,
			Email:        b.Email,
			AddressLine1: b.AddressLine1,
			AddressLine2: b.AddressLine2,
			City:         b.City,
			State:        b.State,
			PostalCode:   b.PostalCode,
			Country:      b.Country,
			TaxID:        b.TaxID,
			InvoiceDate:  b.InvoiceDate,
			PeriodStart:  b.PeriodStart,
			PeriodEnd:    b.PeriodEnd,
			Notes:        b.Notes,
		},
	}
}

func toWirePayment(req domain.DirectPaymentRequest) wirePayment {
	return wirePayment{
		Amount:    toWireMoney(req.Amount),
		ChargeIDs: req.ChargeIDs,
		Card: wireCard{
			HolderName: req.Card.HolderName,
			Number:     req.Card.Number,
			ExpMonth:   req.Card.ExpMonth,
			ExpYear:    req.Card.ExpYear,
			CVC:        req.Card.CVC,
		},
		BillingAddress: wireAddress{
			Line1:      req.Billing.Line1,
			Line2:      req.Billing.Line2,
			City:       req.Billing.City,
			State:      req.Billing.State,
			PostalCode: req.Billing.PostalCode,
			Country:    req.Billing.Country,
		},
	}
}

// errorFromCode maps a backend error code onto the local error taxonomy.
func errorFromCode(code string) error {
	switch code {
	case "INVOICE_NOT_DRAFT":
		return apperrors.ErrInvoiceNotDraft
	case "INVALID_TRANSITION":
		return apperrors.ErrInvalidTransition
	case "UNKNOWN_CHARGE":
		return apperrors.ErrUnknownCharge
	case "VALIDATION":
		return apperrors.ErrValidation
	}
	return nil
}
