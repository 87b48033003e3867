package billing_test

import (
	"testing"

	"github.com/SscSPs/billing_backoffice/internal/apperrors"
	"github.com/SscSPs/billing_backoffice/internal/core/billing"
	"github.com/SscSPs/billing_backoffice/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribe(t *testing.T) {
	tests := []struct {
		name string
		tx   domain.Transaction
		want string
	}{
		{name: "starting balance", tx: domain.Transaction{Type: domain.TxStartingBalance}, want: "Starting balance"},
		{name: "payment with card", tx: domain.Transaction{Type: domain.TxPayment, CardBrand: "Visa", CardLast4: "4242"}, want: "Payment - Visa ending in 4242"},
		{name: "payment without card", tx: domain.Transaction{Type: domain.TxPayment}, want: "Payment"},
		{name: "payment with last4 only", tx: domain.Transaction{Type: domain.TxPayment, CardLast4: "0005"}, want: "Payment - card ending in 0005"},
		{name: "charge", tx: domain.Transaction{Type: domain.TxCharge, ChargeID: "12"}, want: "Charge #12"},
		{name: "credit", tx: domain.Transaction{Type: domain.TxCredit}, want: "Account credit"},
		{name: "debit", tx: domain.Transaction{Type: domain.TxDebit}, want: "Account debit"},
		{name: "refund", tx: domain.Transaction{Type: domain.TxRefund, ChargeID: "3"}, want: "Refund for charge #3"},
		{name: "charge canceled", tx: domain.Transaction{Type: domain.TxChargeCanceled, ChargeID: "77"}, want: "Charge #77 canceled"},
		{name: "promotion", tx: domain.Transaction{Type: domain.TxPromotionApplied}, want: "Promotion applied"},
		{name: "activation fee", tx: domain.Transaction{Type: domain.TxActivationFee}, want: "Activation fee"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := billing.Describe(tt.tx)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDescribe_CoversEveryKnownType(t *testing.T) {
	for _, typ := range domain.TransactionTypes {
		_, err := billing.Describe(domain.Transaction{Type: typ})
		assert.NoError(t, err, "type %s", typ)
	}
}

func TestDescribe_UnknownType(t *testing.T) {
	tx := domain.Transaction{TransactionID: "88", Type: "CHARGEBACK"}
	_, err := billing.Describe(tx)
	assert.ErrorIs(t, err, apperrors.ErrUnknownTransactionType)
	assert.Equal(t, "Transaction #88", billing.FallbackLabel(tx))
}
