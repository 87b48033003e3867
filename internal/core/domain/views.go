package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/SscSPs/billing_backoffice/internal/apperrors"
)

// ListingKind names a charge listing an operator can select from.
type ListingKind string

const (
	// ListingCharges is the full charge listing of an account.
	ListingCharges ListingKind = "charges"
	// ListingUninvoiced holds the charges that are not yet on an invoice.
	ListingUninvoiced ListingKind = "uninvoiced"
)

// ParseListingKind parses a listing name from a request path.
func ParseListingKind(s string) (ListingKind, error) {
	switch k := ListingKind(strings.ToLower(strings.TrimSpace(s))); k {
	case ListingCharges, ListingUninvoiced:
		return k, nil
	}
	return "", fmt.Errorf("%w: unknown listing %q", apperrors.ErrValidation, s)
}

// ChargeListing is a committed charge listing together with the operator's
// selection on it.
type ChargeListing struct {
	Listing       ListingKind `json:"listing"`
	Charges       []Charge    `json:"charges"`
	Total         Money       `json:"total"`
	SelectedIDs   []string    `json:"selectedIDs"`
	SelectedTotal Money       `json:"selectedTotal"`
	LoadedAt      time.Time   `json:"loadedAt"`
}

// SelectionState is the operator's current selection on a listing.
type SelectionState struct {
	Listing       ListingKind `json:"listing"`
	SelectedIDs   []string    `json:"selectedIDs"`
	Count         int         `json:"count"`
	SelectedTotal Money       `json:"selectedTotal"`
}

// InvoiceCreated reports a successfully created invoice.
type InvoiceCreated struct {
	InvoiceID string   `json:"invoiceID"`
	ChargeIDs []string `json:"chargeIDs"`
	Total     Money    `json:"total"`
}

// DescribedTransaction pairs a transaction with its human readable label.
// UnknownType is set when the label is a fallback for an unrecognized type.
type DescribedTransaction struct {
	Transaction
	Label       string `json:"label"`
	UnknownType bool   `json:"unknownType"`
}

// TransactionGroupView is a TransactionGroup whose transactions carry labels.
type TransactionGroupView struct {
	TransactionGroup
	Entries []DescribedTransaction `json:"entries"`
}

// BalanceDiscrepancy reports a running balance that does not follow from the
// previous balance and the transaction amount.
type BalanceDiscrepancy struct {
	TransactionID string `json:"transactionID"`
	Expected      Money  `json:"expected"`
	Actual        Money  `json:"actual"`
}

// TransactionHistory is the grouped ledger view of an account.
type TransactionHistory struct {
	AccountID     string                 `json:"accountID"`
	Bucket        string                 `json:"bucket"`
	Groups        []TransactionGroupView `json:"groups"`
	Discrepancies []BalanceDiscrepancy   `json:"discrepancies,omitempty"`
}

// ChargesMerged reports charges attached to an existing draft invoice.
type ChargesMerged struct {
	InvoiceID string   `json:"invoiceID"`
	ChargeIDs []string `json:"chargeIDs"`
}
