package billing_test

import (
	"testing"
	"time"

	"github.com/SscSPs/billing_backoffice/internal/apperrors"
	"github.com/SscSPs/billing_backoffice/internal/core/billing"
	"github.com/SscSPs/billing_backoffice/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func usd(minor int64) domain.Money { return domain.MustMoney(minor, "USD") }

func chargeLookup(charges ...domain.Charge) map[string]domain.Charge {
	m := make(map[string]domain.Charge, len(charges))
	for _, c := range charges {
		m[c.ChargeID] = c
	}
	return m
}

func TestBuildCreateInvoiceRequest_ComputesTotal(t *testing.T) {
	charges := chargeLookup(
		domain.Charge{ChargeID: "5", AccountID: "acc-1", Amount: usd(1000), Status: domain.ChargeUnpaid},
		domain.Charge{ChargeID: "6", AccountID: "acc-1", Amount: usd(1550), Status: domain.ChargeUnpaid},
	)
	sel := billing.NewChargeSelectionSet("5", "6")
	require.NoError(t, sel.SelectAllVisible([]string{"5", "6"}))

	req, err := billing.NewInvoiceAssembler().BuildCreateInvoiceRequest("acc-1", sel, charges, domain.BusinessDetails{CompanyName: "Acme"})
	require.NoError(t, err)

	assert.Equal(t, []string{"5", "6"}, req.ChargeIDs)
	assert.True(t, req.Total.Equal(usd(2550)), "total was %s", req.Total)
	assert.Equal(t, "acc-1", req.AccountID)
	assert.Equal(t, "Acme", req.Business.CompanyName)
}

func TestBuildCreateInvoiceRequest_EmptySelection(t *testing.T) {
	a := billing.NewInvoiceAssembler()
	cases := []struct {
		name      string
		accountID string
		sel       *billing.ChargeSelectionSet
		details   domain.BusinessDetails
	}{
		{name: "nil selection", accountID: "acc-1"},
		{name: "empty selection", accountID: "acc-1", sel: billing.NewChargeSelectionSet("1")},
		{name: "empty selection and no account", sel: billing.NewChargeSelectionSet()},
		{
			name: "empty selection and invalid period", accountID: "acc-1", sel: billing.NewChargeSelectionSet(),
			details: domain.BusinessDetails{PeriodStart: time.Now(), PeriodEnd: time.Now().AddDate(0, -1, 0)},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := a.BuildCreateInvoiceRequest(tc.accountID, tc.sel, nil, tc.details)
			assert.ErrorIs(t, err, apperrors.ErrEmptySelection)
		})
	}
}

func TestBuildCreateInvoiceRequest_Rejections(t *testing.T) {
	a := billing.NewInvoiceAssembler()

	t.Run("charge missing from lookup", func(t *testing.T) {
		sel := billing.NewChargeSelectionSet("1")
		_, err := sel.Toggle("1")
		require.NoError(t, err)
		_, err = a.BuildCreateInvoiceRequest("acc-1", sel, map[string]domain.Charge{}, domain.BusinessDetails{})
		assert.ErrorIs(t, err, apperrors.ErrUnknownCharge)
	})

	t.Run("already invoiced", func(t *testing.T) {
		sel := billing.NewChargeSelectionSet("1")
		_, err := sel.Toggle("1")
		require.NoError(t, err)
		charges := chargeLookup(domain.Charge{ChargeID: "1", AccountID: "acc-1", Amount: usd(100), Invoiced: true})
		_, err = a.BuildCreateInvoiceRequest("acc-1", sel, charges, domain.BusinessDetails{})
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("other account", func(t *testing.T) {
		sel := billing.NewChargeSelectionSet("1")
		_, err := sel.Toggle("1")
		require.NoError(t, err)
		charges := chargeLookup(domain.Charge{ChargeID: "1", AccountID: "acc-2", Amount: usd(100)})
		_, err = a.BuildCreateInvoiceRequest("acc-1", sel, charges, domain.BusinessDetails{})
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("mixed currencies", func(t *testing.T) {
		sel := billing.NewChargeSelectionSet("1", "2")
		require.NoError(t, sel.SelectAllVisible([]string{"1", "2"}))
		charges := chargeLookup(
			domain.Charge{ChargeID: "1", Amount: usd(100)},
			domain.Charge{ChargeID: "2", Amount: domain.MustMoney(100, "EUR")},
		)
		_, err := a.BuildCreateInvoiceRequest("acc-1", sel, charges, domain.BusinessDetails{})
		assert.ErrorIs(t, err, apperrors.ErrCurrencyMismatch)
	})
}

func TestBuildMergeRequest(t *testing.T) {
	a := billing.NewInvoiceAssembler()
	sel := billing.NewChargeSelectionSet("1", "2")
	require.NoError(t, sel.SelectAllVisible([]string{"2", "1"}))

	t.Run("draft invoice", func(t *testing.T) {
		req, err := a.BuildMergeRequest("acc-1", domain.Invoice{InvoiceID: "inv-1", AccountID: "acc-1", Status: domain.InvoiceDraft}, sel)
		require.NoError(t, err)
		assert.Equal(t, "inv-1", req.InvoiceID)
		assert.Equal(t, []string{"2", "1"}, req.ChargeIDs)
	})

	for _, status := range []domain.InvoiceStatus{domain.InvoiceOpen, domain.InvoicePaid, domain.InvoiceOverdue} {
		t.Run("non draft "+string(status), func(t *testing.T) {
			_, err := a.BuildMergeRequest("acc-1", domain.Invoice{InvoiceID: "inv-1", Status: status}, sel)
			assert.ErrorIs(t, err, apperrors.ErrInvoiceNotDraft)
		})
	}

	t.Run("empty selection wins over invoice status", func(t *testing.T) {
		_, err := a.BuildMergeRequest("acc-1", domain.Invoice{InvoiceID: "inv-1", Status: domain.InvoiceOpen}, billing.NewChargeSelectionSet())
		assert.ErrorIs(t, err, apperrors.ErrEmptySelection)
	})
}

func TestBuildAdjustmentRequest(t *testing.T) {
	req, err := billing.BuildAdjustmentRequest("acc-1", domain.AdjustCredit, usd(500), "  goodwill  ")
	require.NoError(t, err)
	assert.Equal(t, "goodwill", req.Comment)

	_, err = billing.BuildAdjustmentRequest("acc-1", domain.AdjustDebit, usd(0), "x")
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = billing.BuildAdjustmentRequest("acc-1", domain.AdjustDebit, usd(100), " ")
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = billing.BuildAdjustmentRequest("acc-1", "SIDEWAYS", usd(100), "x")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestBuildDirectPaymentRequest(t *testing.T) {
	now := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)
	card := domain.CardDetails{HolderName: "Ada", Number: "4242424242424242", ExpMonth: 10, ExpYear: 2026, CVC: "123"}
	addr := domain.BillingAddress{Line1: "1 Main St", City: "Springfield", PostalCode: "12345", Country: "US"}
	charges := chargeLookup(domain.Charge{ChargeID: "1", Amount: usd(2000)})

	req, err := billing.BuildDirectPaymentRequest("acc-1", usd(2000), []string{"1"}, charges, card, addr, now)
	require.NoError(t, err)
	assert.Equal(t, "4242", req.Card.Last4())
	assert.Equal(t, []string{"1"}, req.ChargeIDs)

	expired := card
	expired.ExpMonth = 9
	_, err = billing.BuildDirectPaymentRequest("acc-1", usd(2000), nil, charges, expired, addr, now)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = billing.BuildDirectPaymentRequest("acc-1", usd(2000), []string{"7"}, charges, card, addr, now)
	assert.ErrorIs(t, err, apperrors.ErrUnknownCharge)

	_, err = billing.BuildDirectPaymentRequest("acc-1", domain.MustMoney(2000, "EUR"), []string{"1"}, charges, card, addr, now)
	assert.ErrorIs(t, err, apperrors.ErrCurrencyMismatch)

	badCard := card
	badCard.Number = "4242-4242"
	_, err = billing.BuildDirectPaymentRequest("acc-1", usd(2000), nil, charges, badCard, addr, now)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}
