package billing

import (
	"fmt"
	"strings"

	"github.com/SscSPs/billing_backoffice/internal/apperrors"
	"github.com/SscSPs/billing_backoffice/internal/core/domain"
)

// InvoiceAssembler validates a charge selection and turns it into invoice
// requests for the billing backend.
type InvoiceAssembler struct{}

// NewInvoiceAssembler creates an InvoiceAssembler.
func NewInvoiceAssembler() *InvoiceAssembler {
	return &InvoiceAssembler{}
}

// BuildCreateInvoiceRequest builds a request for a new draft invoice holding the
// selected charges. charges is a lookup of the listing the selection was made
// on. The computed total is advisory.
func (a *InvoiceAssembler) BuildCreateInvoiceRequest(accountID string, selection *ChargeSelectionSet, charges map[string]domain.Charge, details domain.BusinessDetails) (*domain.CreateInvoiceRequest, error) {
	if selection == nil || selection.Count() == 0 {
		return nil, apperrors.ErrEmptySelection
	}
	if strings.TrimSpace(accountID) == "" {
		return nil, fmt.Errorf("%w: account ID is required", apperrors.ErrValidation)
	}
	if !details.PeriodStart.IsZero() && !details.PeriodEnd.IsZero() && details.PeriodEnd.Before(details.PeriodStart) {
		return nil, fmt.Errorf("%w: billing period ends before it starts", apperrors.ErrValidation)
	}

	ids := selection.SelectedIDs()
	amounts := make([]domain.Money, 0, len(ids))
	for _, id := range ids {
		charge, ok := charges[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrUnknownCharge, id)
		}
		if charge.AccountID != "" && charge.AccountID != accountID {
			return nil, fmt.Errorf("%w: charge %s belongs to another account", apperrors.ErrValidation, id)
		}
		if charge.Invoiced {
			return nil, fmt.Errorf("%w: charge %s is already invoiced", apperrors.ErrValidation, id)
		}
		amounts = append(amounts, charge.Amount)
	}

	total, err := domain.Sum(amounts, "")
	if err != nil {
		return nil, fmt.Errorf("computing invoice total: %w", err)
	}

	return &domain.CreateInvoiceRequest{
		AccountID: accountID,
		ChargeIDs: ids,
		Total:     total,
		Business:  details,
	}, nil
}

// BuildMergeRequest builds a request that attaches the selected charges to
// target, which must still be a draft.
func (a *InvoiceAssembler) BuildMergeRequest(accountID string, target domain.Invoice, selection *ChargeSelectionSet) (*domain.MergeChargesRequest, error) {
	if selection == nil || selection.Count() == 0 {
		return nil, apperrors.ErrEmptySelection
	}
	if !target.IsDraft() {
		return nil, fmt.Errorf("%w: invoice %s is %s", apperrors.ErrInvoiceNotDraft, target.InvoiceID, target.Status)
	}
	if target.AccountID != "" && target.AccountID != accountID {
		return nil, fmt.Errorf("%w: invoice %s belongs to another account", apperrors.ErrValidation, target.InvoiceID)
	}

	return &domain.MergeChargesRequest{
		AccountID: accountID,
		InvoiceID: target.InvoiceID,
		ChargeIDs: selection.SelectedIDs(),
	}, nil
}
