package billing

import (
	"fmt"
	"strings"

	"github.com/SscSPs/billing_backoffice/internal/apperrors"
	"github.com/SscSPs/billing_backoffice/internal/core/domain"
)

// Describe returns the label shown for a transaction in the history view.
// It fails with ErrUnknownTransactionType for types it does not know, so the
// caller can decide on a fallback label explicitly.
func Describe(t domain.Transaction) (string, error) {
	switch t.Type {
	case domain.TxStartingBalance:
		return "Starting balance", nil
	case domain.TxPayment:
		return describePayment(t), nil
	case domain.TxCharge:
		if t.ChargeID != "" {
			return "Charge #" + t.ChargeID, nil
		}
		return "Charge", nil
	case domain.TxCredit:
		return "Account credit", nil
	case domain.TxDebit:
		return "Account debit", nil
	case domain.TxRefund:
		if t.ChargeID != "" {
			return "Refund for charge #" + t.ChargeID, nil
		}
		return "Refund", nil
	case domain.TxChargeCanceled:
		if t.ChargeID != "" {
			return "Charge #" + t.ChargeID + " canceled", nil
		}
		return "Charge canceled", nil
	case domain.TxPromotionApplied:
		return "Promotion applied", nil
	case domain.TxActivationFee:
		return "Activation fee", nil
	}
	return "", fmt.Errorf("%w: %q on transaction %s", apperrors.ErrUnknownTransactionType, t.Type, t.TransactionID)
}

func describePayment(t domain.Transaction) string {
	brand := strings.TrimSpace(t.CardBrand)
	switch {
	case brand != "" && t.CardLast4 != "":
		return fmt.Sprintf("Payment - %s ending in %s", brand, t.CardLast4)
	case t.CardLast4 != "":
		return "Payment - card ending in " + t.CardLast4
	case brand != "":
		return "Payment - " + brand
	}
	return "Payment"
}

// FallbackLabel is the neutral label for transactions Describe cannot handle.
func FallbackLabel(t domain.Transaction) string {
	return "Transaction #" + t.TransactionID
}
