package dto

import (
	"time"

	"github.com/SscSPs/billing_backoffice/internal/core/billing"
	"github.com/SscSPs/billing_backoffice/internal/core/domain"
	"github.com/shopspring/decimal"
)

// MoneyResponse is an amount as shown to operators.
type MoneyResponse struct {
	Amount     decimal.Decimal `json:"amount" swaggertype:"string" example:"25.50"`
	Currency   string          `json:"currency" example:"USD"`
	MinorUnits int64           `json:"minorUnits" example:"2550"`
	Display    string          `json:"display" example:"$25.50"`
}

// ToMoneyResponse formats m for locale.
func ToMoneyResponse(m domain.Money, locale string) MoneyResponse {
	return MoneyResponse{
		Amount:     m.Decimal(),
		Currency:   m.Currency(),
		MinorUnits: m.MinorUnits(),
		Display:    m.Display(locale),
	}
}

// ChargeResponse is a charge row with the actions the UI may offer.
type ChargeResponse struct {
	ChargeID       string        `json:"chargeID"`
	Name           string        `json:"name"`
	IssueDate      time.Time     `json:"issueDate"`
	Amount         MoneyResponse `json:"amount"`
	Status         string        `json:"status"`
	Invoiced       bool          `json:"invoiced"`
	InvoiceID      string        `json:"invoiceID,omitempty"`
	Selected       bool          `json:"selected"`
	AllowedActions []string      `json:"allowedActions"`
}

// ChargeListingResponse is a loaded charge listing with the operator's selection.
type ChargeListingResponse struct {
	Listing       string           `json:"listing"`
	Charges       []ChargeResponse `json:"charges"`
	Total         MoneyResponse    `json:"total"`
	SelectedIDs   []string         `json:"selectedIDs"`
	SelectedTotal MoneyResponse    `json:"selectedTotal"`
	LoadedAt      time.Time        `json:"loadedAt"`
}

// ToChargeListingResponse converts a listing.
func ToChargeListingResponse(l *domain.ChargeListing, lifecycle *billing.ChargeLifecycle, locale string) ChargeListingResponse {
	selected := make(map[string]bool, len(l.SelectedIDs))
	for _, id := range l.SelectedIDs {
		selected[id] = true
	}
	charges := make([]ChargeResponse, len(l.Charges))
	for i, c := range l.Charges {
		actions := lifecycle.AllowedActions(c)
		names := make([]string, len(actions))
		for j, a := range actions {
			names[j] = string(a)
		}
		charges[i] = ChargeResponse{
			ChargeID:       c.ChargeID,
			Name:           c.Name,
			IssueDate:      c.IssueDate,
			Amount:         ToMoneyResponse(c.Amount, locale),
			Status:         string(c.Status),
			Invoiced:       c.Invoiced,
			InvoiceID:      c.InvoiceID,
			Selected:       selected[c.ChargeID],
			AllowedActions: names,
		}
	}
	return ChargeListingResponse{
		Listing:       string(l.Listing),
		Charges:       charges,
		Total:         ToMoneyResponse(l.Total, locale),
		SelectedIDs:   nonNil(l.SelectedIDs),
		SelectedTotal: ToMoneyResponse(l.SelectedTotal, locale),
		LoadedAt:      l.LoadedAt,
	}
}

// SelectionResponse is the operator's selection on a listing.
type SelectionResponse struct {
	Listing       string        `json:"listing"`
	SelectedIDs   []string      `json:"selectedIDs"`
	Count         int           `json:"count"`
	SelectedTotal MoneyResponse `json:"selectedTotal"`
}

// ToSelectionResponse converts a selection state.
func ToSelectionResponse(s *domain.SelectionState, locale string) SelectionResponse {
	return SelectionResponse{
		Listing:       string(s.Listing),
		SelectedIDs:   nonNil(s.SelectedIDs),
		Count:         s.Count,
		SelectedTotal: ToMoneyResponse(s.SelectedTotal, locale),
	}
}

// RecurringChargeResponse is a recurring charge schedule.
type RecurringChargeResponse struct {
	RecurringChargeID string        `json:"recurringChargeID"`
	Name              string        `json:"name"`
	NextRunDate       time.Time     `json:"nextRunDate"`
	Amount            MoneyResponse `json:"amount"`
	Taxable           bool          `json:"taxable"`
	Cycle             string        `json:"cycle"`
}

// ToRecurringChargeResponses converts recurring charges.
func ToRecurringChargeResponses(rcs []domain.RecurringCharge, locale string) []RecurringChargeResponse {
	res := make([]RecurringChargeResponse, len(rcs))
	for i, rc := range rcs {
		res[i] = RecurringChargeResponse{
			RecurringChargeID: rc.RecurringChargeID,
			Name:              rc.Name,
			NextRunDate:       rc.NextRunDate,
			Amount:            ToMoneyResponse(rc.Amount, locale),
			Taxable:           rc.Taxable,
			Cycle:             rc.Cycle,
		}
	}
	return res
}

// InvoiceResponse is an invoice with the actions the UI may offer.
type InvoiceResponse struct {
	InvoiceID   string        `json:"invoiceID"`
	Status      string        `json:"status"`
	InvoiceDate time.Time     `json:"invoiceDate"`
	PeriodStart time.Time     `json:"periodStart"`
	PeriodEnd   time.Time     `json:"periodEnd"`
	Total       MoneyResponse `json:"total"`
	ChargeIDs   []string      `json:"chargeIDs"`
	CanMerge    bool          `json:"canMerge"`
	CanDelete   bool          `json:"canDelete"`
}

// ToInvoiceResponses converts invoices.
func ToInvoiceResponses(invoices []domain.Invoice, locale string) []InvoiceResponse {
	res := make([]InvoiceResponse, len(invoices))
	for i, inv := range invoices {
		res[i] = InvoiceResponse{
			InvoiceID:   inv.InvoiceID,
			Status:      string(inv.Status),
			InvoiceDate: inv.InvoiceDate,
			PeriodStart: inv.PeriodStart,
			PeriodEnd:   inv.PeriodEnd,
			Total:       ToMoneyResponse(inv.Total, locale),
			ChargeIDs:   nonNil(inv.ChargeIDs),
			CanMerge:    billing.CanMergeInto(inv),
			CanDelete:   billing.CanDeleteInvoice(inv),
		}
	}
	return res
}

// InvoiceCreatedResponse reports a new invoice.
type InvoiceCreatedResponse struct {
	InvoiceID string        `json:"invoiceID"`
	ChargeIDs []string      `json:"chargeIDs"`
	Total     MoneyResponse `json:"total"`
}

// ToInvoiceCreatedResponse converts the creation result.
func ToInvoiceCreatedResponse(c *domain.InvoiceCreated, locale string) InvoiceCreatedResponse {
	return InvoiceCreatedResponse{InvoiceID: c.InvoiceID, ChargeIDs: nonNil(c.ChargeIDs), Total: ToMoneyResponse(c.Total, locale)}
}

// ChargesMergedResponse reports charges attached to a draft invoice.
type ChargesMergedResponse struct {
	InvoiceID string   `json:"invoiceID"`
	ChargeIDs []string `json:"chargeIDs"`
}

// BulkFailure is one failed item of a bulk action.
type BulkFailure struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// BulkResultResponse is the aggregate outcome of a bulk action.
type BulkResultResponse struct {
	Action    string        `json:"action"`
	Requested int           `json:"requested"`
	Succeeded []string      `json:"succeeded"`
	Failed    []BulkFailure `json:"failed"`
	Message   string        `json:"message"`
}

// ToBulkResultResponse converts a bulk result.
func ToBulkResultResponse(r *domain.BulkResult) BulkResultResponse {
	failed := make([]BulkFailure, 0, len(r.Failed))
	for _, id := range r.FailedIDs() {
		failed = append(failed, BulkFailure{ID: id, Error: r.Failed[id].Error()})
	}
	return BulkResultResponse{
		Action:    r.Action,
		Requested: r.Requested,
		Succeeded: nonNil(r.Succeeded),
		Failed:    failed,
		Message:   r.Summary(),
	}
}

// TransactionResponse is a labelled ledger entry.
type TransactionResponse struct {
	TransactionID string        `json:"transactionID"`
	Type          string        `json:"type"`
	Label         string        `json:"label"`
	UnknownType   bool          `json:"unknownType"`
	Debit         MoneyResponse `json:"debit"`
	Credit        MoneyResponse `json:"credit"`
	Balance       MoneyResponse `json:"balance"`
	ChargeID      string        `json:"chargeID,omitempty"`
	Comment       string        `json:"comment,omitempty"`
	Timestamp     time.Time     `json:"timestamp"`
}

// TransactionGroupResponse is one period bucket of the history.
type TransactionGroupResponse struct {
	Label          string                `json:"label"`
	PeriodStart    time.Time             `json:"periodStart"`
	PeriodEnd      time.Time             `json:"periodEnd"`
	DebitTotal     MoneyResponse         `json:"debitTotal"`
	CreditTotal    MoneyResponse         `json:"creditTotal"`
	OpeningBalance MoneyResponse         `json:"openingBalance"`
	ClosingBalance MoneyResponse         `json:"closingBalance"`
	Transactions   []TransactionResponse `json:"transactions"`
}

// DiscrepancyResponse flags a running balance that does not add up.
type DiscrepancyResponse struct {
	TransactionID string        `json:"transactionID"`
	Expected      MoneyResponse `json:"expected"`
	Actual        MoneyResponse `json:"actual"`
}

// TransactionHistoryResponse is the grouped transaction history.
type TransactionHistoryResponse struct {
	AccountID     string                     `json:"accountID"`
	Bucket        string                     `json:"bucket"`
	Groups        []TransactionGroupResponse `json:"groups"`
	Discrepancies []DiscrepancyResponse      `json:"discrepancies"`
}

// ToTransactionHistoryResponse converts a history.
func ToTransactionHistoryResponse(h *domain.TransactionHistory, locale string) TransactionHistoryResponse {
	groups := make([]TransactionGroupResponse, len(h.Groups))
	for i, g := range h.Groups {
		txns := make([]TransactionResponse, len(g.Entries))
		for j, e := range g.Entries {
			txns[j] = TransactionResponse{
				TransactionID: e.TransactionID,
				Type:          string(e.Type),
				Label:         e.Label,
				UnknownType:   e.UnknownType,
				Debit:         ToMoneyResponse(e.Debit, locale),
				Credit:        ToMoneyResponse(e.Credit, locale),
				Balance:       ToMoneyResponse(e.Balance, locale),
				ChargeID:      e.ChargeID,
				Comment:       e.Comment,
				Timestamp:     e.Timestamp,
			}
		}
		groups[i] = TransactionGroupResponse{
			Label:          g.Label,
			PeriodStart:    g.PeriodStart,
			PeriodEnd:      g.PeriodEnd,
			DebitTotal:     ToMoneyResponse(g.DebitTotal, locale),
			CreditTotal:    ToMoneyResponse(g.CreditTotal, locale),
			OpeningBalance: ToMoneyResponse(g.OpeningBalance, locale),
			ClosingBalance: ToMoneyResponse(g.ClosingBalance, locale),
			Transactions:   txns,
		}
	}
	discrepancies := make([]DiscrepancyResponse, len(h.Discrepancies))
	for i, d := range h.Discrepancies {
		discrepancies[i] = DiscrepancyResponse{
			TransactionID: d.TransactionID,
			Expected:      ToMoneyResponse(d.Expected, locale),
			Actual:        ToMoneyResponse(d.Actual, locale),
		}
	}
	return TransactionHistoryResponse{
		AccountID:     h.AccountID,
		Bucket:        h.Bucket,
		Groups:        groups,
		Discrepancies: discrepancies,
	}
}

// DirectPaymentResponse reports the ledger transaction of a card payment.
type DirectPaymentResponse struct {
	TransactionID string `json:"transactionID"`
}

// AuditEntryResponse is one audited mutation.
type AuditEntryResponse struct {
	AuditID    string    `json:"auditID"`
	OperatorID string    `json:"operatorID"`
	Action     string    `json:"action"`
	TargetIDs  []string  `json:"targetIDs"`
	Outcome    string    `json:"outcome"`
	Detail     string    `json:"detail,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ToAuditEntryResponses converts audit entries.
func ToAuditEntryResponses(entries []domain.AuditEntry) []AuditEntryResponse {
	res := make([]AuditEntryResponse, len(entries))
	for i, e := range entries {
		res[i] = AuditEntryResponse{
			AuditID:    e.AuditID,
			OperatorID: e.OperatorID,
			Action:     e.Action,
			TargetIDs:  nonNil(e.TargetIDs),
			Outcome:    string(e.Outcome),
			Detail:     e.Detail,
			CreatedAt:  e.CreatedAt,
		}
	}
	return res
}

// AuditPageResponse is one page of an account's audit trail.
type AuditPageResponse struct {
	Entries       []AuditEntryResponse `json:"entries"`
	NextPageToken string               `json:"nextPageToken,omitempty"`
}

// ToAuditPageResponse converts an audit page.
func ToAuditPageResponse(p *domain.AuditPage) AuditPageResponse {
	return AuditPageResponse{Entries: ToAuditEntryResponses(p.Entries), NextPageToken: p.NextPageToken}
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
