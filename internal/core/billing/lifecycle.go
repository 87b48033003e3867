package billing

import (
	"fmt"

	"github.com/SscSPs/billing_backoffice/internal/apperrors"
	"github.com/SscSPs/billing_backoffice/internal/core/domain"
)

// ChargeAction is an operator action on a charge.
type ChargeAction string

const (
	ActionCancelCharge ChargeAction = "CANCEL"
)

// allowedTransitions holds the charge status changes this service triggers.
// Payment capture, disputes and chargebacks belong to the billing backend.
var allowedTransitions = map[domain.ChargeStatus][]domain.ChargeStatus{
	domain.ChargeUnpaid:  {domain.ChargeCanceled},
	domain.ChargePending: {domain.ChargeCanceled},
}

// ChargeLifecycle decides which status changes and actions are legal for a charge.
type ChargeLifecycle struct{}

// NewChargeLifecycle creates a ChargeLifecycle.
func NewChargeLifecycle() *ChargeLifecycle {
	return &ChargeLifecycle{}
}

// ValidateTransition checks that a charge may move from one status to another.
func (l *ChargeLifecycle) ValidateTransition(from, to domain.ChargeStatus) error {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s to %s", apperrors.ErrInvalidTransition, from, to)
}

// CanCancel reports whether the charge may be canceled.
func (l *ChargeLifecycle) CanCancel(charge domain.Charge) bool {
	return l.ValidateTransition(charge.Status, domain.ChargeCanceled) == nil
}

// Cancel returns a copy of charge in the Canceled status.
func (l *ChargeLifecycle) Cancel(charge domain.Charge) (domain.Charge, error) {
	if err := l.ValidateTransition(charge.Status, domain.ChargeCanceled); err != nil {
		return charge, fmt.Errorf("cannot cancel charge %s: %w", charge.ChargeID, err)
	}
	charge.Status = domain.ChargeCanceled
	return charge, nil
}

// CanDelete reports whether a recurring charge may be deleted. Deleting only
// stops future occurrences, so it is always allowed.
func (l *ChargeLifecycle) CanDelete(_ domain.RecurringCharge) bool {
	return true
}

// AllowedActions lists the actions the UI should enable for charge.
func (l *ChargeLifecycle) AllowedActions(charge domain.Charge) []ChargeAction {
	actions := []ChargeAction{}
	if l.CanCancel(charge) {
		actions = append(actions, ActionCancelCharge)
	}
	return actions
}

// CanMergeInto reports whether charges may still be attached to inv.
func CanMergeInto(inv domain.Invoice) bool {
	return inv.IsDraft()
}

// CanDeleteInvoice reports whether inv may be deleted.
func CanDeleteInvoice(inv domain.Invoice) bool {
	return inv.IsDraft()
}
