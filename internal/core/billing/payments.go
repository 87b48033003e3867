package billing

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/SscSPs/billing_backoffice/internal/apperrors"
	"github.com/SscSPs/billing_backoffice/internal/core/domain"
)

// BuildAdjustmentRequest validates a manual credit or debit.
func BuildAdjustmentRequest(accountID string, direction domain.AdjustmentDirection, amount domain.Money, comment string) (*domain.BalanceAdjustmentRequest, error) {
	if strings.TrimSpace(accountID) == "" {
		return nil, fmt.Errorf("%w: account ID is required", apperrors.ErrValidation)
	}
	if direction != domain.AdjustCredit && direction != domain.AdjustDebit {
		return nil, fmt.Errorf("%w: unknown adjustment direction %q", apperrors.ErrValidation, direction)
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: adjustment amount must be positive", apperrors.ErrValidation)
	}
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return nil, fmt.Errorf("%w: a comment is required for manual adjustments", apperrors.ErrValidation)
	}
	return &domain.BalanceAdjustmentRequest{
		AccountID: accountID,
		Direction: direction,
		Amount:    amount,
		Comment:   comment,
	}, nil
}

// BuildDirectPaymentRequest validates a card payment. chargeIDs may be empty
// for an on-account payment; when given, every charge must be in the lookup
// and share the payment currency.
func BuildDirectPaymentRequest(accountID string, amount domain.Money, chargeIDs []string, charges map[string]domain.Charge, card domain.CardDetails, billingAddr domain.BillingAddress, now time.Time) (*domain.DirectPaymentRequest, error) {
	if strings.TrimSpace(accountID) == "" {
		return nil, fmt.Errorf("%w: account ID is required", apperrors.ErrValidation)
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: payment amount must be positive", apperrors.ErrValidation)
	}
	if err := validateCard(card, now); err != nil {
		return nil, err
	}
	if strings.TrimSpace(billingAddr.PostalCode) == "" || strings.TrimSpace(billingAddr.Country) == "" {
		return nil, fmt.Errorf("%w: billing postal code and country are required", apperrors.ErrValidation)
	}
	for _, id := range chargeIDs {
		charge, ok := charges[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrUnknownCharge, id)
		}
		if charge.Amount.Currency() != amount.Currency() {
			return nil, fmt.Errorf("%w: charge %s is in %s, payment is in %s", apperrors.ErrCurrencyMismatch, id, charge.Amount.Currency(), amount.Currency())
		}
	}

	ids := make([]string, len(chargeIDs))
	copy(ids, chargeIDs)
	return &domain.DirectPaymentRequest{
		AccountID: accountID,
		Amount:    amount,
		ChargeIDs: ids,
		Card:      card,
		Billing:   billingAddr,
	}, nil
}

func validateCard(card domain.CardDetails, now time.Time) error {
	if strings.TrimSpace(card.HolderName) == "" {
		return fmt.Errorf("%w: card holder name is required", apperrors.ErrValidation)
	}
	if len(card.Number) < 12 || len(card.Number) > 19 || !allDigits(card.Number) {
		return fmt.Errorf("%w: card number must have 12 to 19 digits", apperrors.ErrValidation)
	}
	if (len(card.CVC) != 3 && len(card.CVC) != 4) || !allDigits(card.CVC) {
		return fmt.Errorf("%w: card security code must have 3 or 4 digits", apperrors.ErrValidation)
	}
	if card.ExpMonth < 1 || card.ExpMonth > 12 {
		return fmt.Errorf("%w: card expiry month must be between 1 and 12", apperrors.ErrValidation)
	}
	// A card is valid through the last day of its expiry month.
	expiresAt := time.Date(card.ExpYear, time.Month(card.ExpMonth)+1, 1, 0, 0, 0, 0, time.UTC)
	if !now.Before(expiresAt) {
		return fmt.Errorf("%w: card has expired", apperrors.ErrValidation)
	}
	return nil
}

func allDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}
