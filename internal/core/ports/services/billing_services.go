package services

import (
	"context"

	"github.com/SscSPs/billing_backoffice/internal/core/billing"
	"github.com/SscSPs/billing_backoffice/internal/core/domain"
)

// ChargeListingSvc defines read operations for charge listings
type ChargeListingSvc interface {
	// LoadCharges reloads the charges listing of an account and commits it to
	// the operator's listing session.
	LoadCharges(ctx context.Context, operatorID, accountID string, filter domain.ChargeFilter) (*domain.ChargeListing, error)

	// LoadUninvoicedCharges reloads the uninvoiced listing of an account.
	LoadUninvoicedCharges(ctx context.Context, operatorID, accountID string) (*domain.ChargeListing, error)

	// ListRecurringCharges returns the recurring charges of an account.
	ListRecurringCharges(ctx context.Context, accountID string) ([]domain.RecurringCharge, error)

	// ListInvoices returns the invoices of an account, optionally filtered by status.
	ListInvoices(ctx context.Context, accountID string, status *domain.InvoiceStatus) ([]domain.Invoice, error)
}

// SelectionSvc defines operations on an operator's selection within a listing
type SelectionSvc interface {
	GetSelection(ctx context.Context, operatorID, accountID string, listing domain.ListingKind) (*domain.SelectionState, error)
	ToggleCharge(ctx context.Context, operatorID, accountID string, listing domain.ListingKind, chargeID string) (*domain.SelectionState, error)
	SelectAllVisible(ctx context.Context, operatorID, accountID string, listing domain.ListingKind) (*domain.SelectionState, error)
	ClearSelection(ctx context.Context, operatorID, accountID string, listing domain.ListingKind) (*domain.SelectionState, error)
}

// InvoicingSvc defines invoice mutations built from the operator's selection
type InvoicingSvc interface {
	// CreateInvoiceFromSelection invoices the charges selected in the uninvoiced listing.
	CreateInvoiceFromSelection(ctx context.Context, operatorID, accountID string, details domain.BusinessDetails) (*domain.InvoiceCreated, error)

	// MergeSelectionIntoInvoice attaches the selected uninvoiced charges to a draft invoice.
	MergeSelectionIntoInvoice(ctx context.Context, operatorID, accountID, invoiceID string) (*domain.ChargesMerged, error)
}

// ChargeActionSvc defines bulk charge mutations
type ChargeActionSvc interface {
	// CancelCharges cancels the given charges of the charges listing, or the
	// current selection when chargeIDs is empty.
	CancelCharges(ctx context.Context, operatorID, accountID string, chargeIDs []string) (*domain.BulkResult, error)

	// DeleteRecurringCharges deletes recurring charge schedules.
	DeleteRecurringCharges(ctx context.Context, operatorID, accountID string, recurringChargeIDs []string) (*domain.BulkResult, error)
}

// LedgerSvc defines the transaction history and balance operations
type LedgerSvc interface {
	// GetTransactionHistory returns the grouped and labeled transaction history.
	GetTransactionHistory(ctx context.Context, accountID string, bucket billing.BucketPeriod, types []domain.TransactionType) (*domain.TransactionHistory, error)

	// AdjustBalance credits or debits an account.
	AdjustBalance(ctx context.Context, operatorID, accountID string, direction domain.AdjustmentDirection, amount domain.Money, comment string) error

	// DirectPayment charges a card against the given charges and returns the transaction ID.
	DirectPayment(ctx context.Context, operatorID, accountID string, amount domain.Money, chargeIDs []string, card domain.CardDetails, address domain.BillingAddress) (string, error)
}

// AuditSvc defines read access to the audit trail
type AuditSvc interface {
	// ListAuditEntries returns one page of the account's audit trail. An empty
	// pageToken starts at the newest entry.
	ListAuditEntries(ctx context.Context, accountID string, limit int, pageToken string) (*domain.AuditPage, error)
}

// BillingSvcFacade combines all billing service interfaces
type BillingSvcFacade interface {
	ChargeListingSvc
	SelectionSvc
	InvoicingSvc
	ChargeActionSvc
	LedgerSvc
	AuditSvc
}
