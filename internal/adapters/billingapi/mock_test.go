package billingapi_test

import (
	"context"
	"testing"
	"time"

	"github.com/SscSPs/billing_backoffice/internal/adapters/billingapi"
	"github.com/SscSPs/billing_backoffice/internal/apperrors"
	"github.com/SscSPs/billing_backoffice/internal/core/billing"
	"github.com/SscSPs/billing_backoffice/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedNow() time.Time {
	return time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
}

func newMock() *billingapi.MockBackend {
	return billingapi.NewMockBackend("usd", billingapi.WithMockClock(fixedNow))
}

func TestMockBackend_FixturesReconcile(t *testing.T) {
	m := newMock()
	txns, err := m.ListTransactions(context.Background(), "1001", "")
	require.NoError(t, err)
	require.NotEmpty(t, txns)

	discrepancies, err := billing.Reconcile(txns)
	require.NoError(t, err)
	assert.Empty(t, discrepancies)
}

func TestMockBackend_UnknownAccount(t *testing.T) {
	_, err := newMock().ListCharges(context.Background(), "nope", domain.ChargeFilter{})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestMockBackend_CreateInvoiceMarksChargesInvoiced(t *testing.T) {
	ctx := context.Background()
	m := newMock()
	notInvoiced := false

	before, err := m.ListCharges(ctx, "1001", domain.ChargeFilter{Invoiced: &notInvoiced})
	require.NoError(t, err)

	id, err := m.CreateInvoice(ctx, domain.CreateInvoiceRequest{AccountID: "1001", ChargeIDs: []string{"503", "504"}})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	after, err := m.ListCharges(ctx, "1001", domain.ChargeFilter{Invoiced: &notInvoiced})
	require.NoError(t, err)
	assert.Len(t, after, len(before)-2)

	draft := domain.InvoiceDraft
	invoices, err := m.ListInvoices(ctx, "1001", &draft)
	require.NoError(t, err)
	var created *domain.Invoice
	for i := range invoices {
		if invoices[i].InvoiceID == id {
			created = &invoices[i]
		}
	}
	require.NotNil(t, created)
	assert.True(t, created.Total.Equal(domain.MustMoney(5550, "USD")))

	_, err = m.CreateInvoice(ctx, domain.CreateInvoiceRequest{AccountID: "1001", ChargeIDs: []string{"503"}})
	assert.ErrorIs(t, err, apperrors.ErrValidation, "already invoiced")
}

func TestMockBackend_MergeCharges(t *testing.T) {
	ctx := context.Background()
	m := newMock()

	err := m.MergeCharges(ctx, domain.MergeChargesRequest{AccountID: "1001", InvoiceID: "9001", ChargeIDs: []string{"503"}})
	assert.ErrorIs(t, err, apperrors.ErrInvoiceNotDraft)

	err = m.MergeCharges(ctx, domain.MergeChargesRequest{AccountID: "1001", InvoiceID: "missing", ChargeIDs: []string{"503"}})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	err = m.MergeCharges(ctx, domain.MergeChargesRequest{AccountID: "1001", InvoiceID: "9002", ChargeIDs: []string{"503", "zzz"}})
	assert.ErrorIs(t, err, apperrors.ErrUnknownCharge)

	require.NoError(t, m.MergeCharges(ctx, domain.MergeChargesRequest{AccountID: "1001", InvoiceID: "9002", ChargeIDs: []string{"504"}}))
	invoices, err := m.ListInvoices(ctx, "1001", nil)
	require.NoError(t, err)
	for _, inv := range invoices {
		if inv.InvoiceID == "9002" {
			assert.Equal(t, []string{"504"}, inv.ChargeIDs)
			assert.Equal(t, int64(1550), inv.Total.MinorUnits())
		}
	}
}

func TestMockBackend_CancelCharge(t *testing.T) {
	ctx := context.Background()
	m := newMock()

	require.NoError(t, m.CancelCharge(ctx, "1001", "503"))
	err := m.CancelCharge(ctx, "1001", "503")
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition, "already canceled")

	err = m.CancelCharge(ctx, "1001", "501")
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition, "paid charges cannot be canceled")

	txns, err := m.ListTransactions(ctx, "1001", "")
	require.NoError(t, err)
	last := txns[len(txns)-1]
	assert.Equal(t, domain.TxChargeCanceled, last.Type)
	assert.Equal(t, int64(4000), last.Credit.MinorUnits())

	discrepancies, err := billing.Reconcile(txns)
	require.NoError(t, err)
	assert.Empty(t, discrepancies)
}

func TestMockBackend_AdjustAndPay(t *testing.T) {
	ctx := context.Background()
	m := newMock()

	require.NoError(t, m.AdjustBalance(ctx, domain.BalanceAdjustmentRequest{
		AccountID: "1002", Direction: domain.AdjustCredit, Amount: domain.MustMoney(1000, "USD"), Comment: "goodwill",
	}))
	err := m.AdjustBalance(ctx, domain.BalanceAdjustmentRequest{
		AccountID: "1002", Direction: domain.AdjustDebit, Amount: domain.MustMoney(1000, "EUR"), Comment: "x",
	})
	assert.ErrorIs(t, err, apperrors.ErrCurrencyMismatch)

	txID, err := m.DirectPayment(ctx, domain.DirectPaymentRequest{
		AccountID: "1001",
		Amount:    domain.MustMoney(5550, "USD"),
		ChargeIDs: []string{"503", "504"},
		Card:      domain.CardDetails{Number: "4242424242424242"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, txID)

	txns, err := m.ListTransactions(ctx, "1001", "")
	require.NoError(t, err)
	payment := txns[len(txns)-1]
	label, err := billing.Describe(payment)
	require.NoError(t, err)
	assert.Equal(t, "Payment - Visa ending in 4242", label)

	paid := domain.ChargePaid
	charges, err := m.ListCharges(ctx, "1001", domain.ChargeFilter{Status: &paid})
	require.NoError(t, err)
	assert.Len(t, charges, 3)
}

func TestMockBackend_DeleteRecurringCharge(t *testing.T) {
	ctx := context.Background()
	m := newMock()

	require.NoError(t, m.DeleteRecurringCharge(ctx, "1001", "701"))
	assert.ErrorIs(t, m.DeleteRecurringCharge(ctx, "1001", "701"), apperrors.ErrNotFound)

	remaining, err := m.ListRecurringCharges(ctx, "1001")
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "702", remaining[0].RecurringChargeID)
}

func TestMockBackend_LatencyHonorsDeadline(t *testing.T) {
	m := billingapi.NewMockBackend("USD", billingapi.WithLatency(time.Second))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := m.ListInvoices(ctx, "1001", nil)
	assert.ErrorIs(t, err, apperrors.ErrUpstreamTimeout)
}

func TestMockBackend_WithoutFixtures(t *testing.T) {
	m := billingapi.NewMockBackend("USD", billingapi.WithoutFixtures())
	_, err := m.ListCharges(context.Background(), "1001", domain.ChargeFilter{})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	m.SeedCharges("42", domain.Charge{ChargeID: "1", AccountID: "42", Amount: domain.MustMoney(100, "USD"), Status: domain.ChargeUnpaid})
	charges, err := m.ListCharges(context.Background(), "42", domain.ChargeFilter{})
	require.NoError(t, err)
	assert.Len(t, charges, 1)
}
