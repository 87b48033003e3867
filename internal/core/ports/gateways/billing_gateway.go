package gateways

import (
	"context"

	"github.com/SscSPs/billing_backoffice/internal/core/domain"
)

// BillingReader defines the read operations of the billing backend.
type BillingReader interface {
	// ListCharges returns the charges of an account that match filter.
	ListCharges(ctx context.Context, accountID string, filter domain.ChargeFilter) ([]domain.Charge, error)

	// ListRecurringCharges returns the recurring charge schedules of an account.
	ListRecurringCharges(ctx context.Context, accountID string) ([]domain.RecurringCharge, error)

	// ListInvoices returns the invoices of an account, optionally restricted to one status.
	ListInvoices(ctx context.Context, accountID string, status *domain.InvoiceStatus) ([]domain.Invoice, error)

	// ListTransactions returns the transaction history of an account in the
	// order the backend keeps it. groupingHint is passed through untouched.
	ListTransactions(ctx context.Context, accountID string, groupingHint string) ([]domain.Transaction, error)
}

// BillingWriter defines the mutations the billing backend accepts.
type BillingWriter interface {
	// CreateInvoice creates an invoice from uninvoiced charges and returns its ID.
	CreateInvoice(ctx context.Context, req domain.CreateInvoiceRequest) (string, error)

	// MergeCharges attaches charges to an existing draft invoice.
	MergeCharges(ctx context.Context, req domain.MergeChargesRequest) error

	// CancelCharge cancels a single charge.
	CancelCharge(ctx context.Context, accountID, chargeID string) error

	// DeleteRecurringCharge stops a recurring charge schedule.
	DeleteRecurringCharge(ctx context.Context, accountID, recurringChargeID string) error

	// AdjustBalance credits or debits an account.
	AdjustBalance(ctx context.Context, req domain.BalanceAdjustmentRequest) error

	// DirectPayment charges a card and returns the resulting transaction ID.
	DirectPayment(ctx context.Context, req domain.DirectPaymentRequest) (string, error)
}

// BillingBackend combines all billing backend operations. Both the HTTP
// client and the in-memory mock implement it.
type BillingBackend interface {
	BillingReader
	BillingWriter
}
