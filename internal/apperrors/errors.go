package apperrors

import "errors"

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// Money arithmetic errors. These point at programmer or data errors and are
// never expected during normal operation.
var (
	// ErrCurrencyMismatch is returned when two amounts in different currencies are combined.
	ErrCurrencyMismatch = errors.New("currency mismatch")
	// ErrEmptyCurrencyUnknown is returned when summing an empty list without a default currency.
	ErrEmptyCurrencyUnknown = errors.New("cannot sum an empty list without a default currency")
)

// Selection and precondition errors. All of them are recoverable by
// refreshing or correcting the operator's view state.
var (
	// ErrUnknownCharge indicates a charge ID that is not part of the current listing.
	ErrUnknownCharge = errors.New("charge is not part of the current listing")
	// ErrEmptySelection indicates an action that needs at least one selected charge.
	ErrEmptySelection = errors.New("no charges selected")
	// ErrInvoiceNotDraft indicates an attempt to change an invoice that is no longer a draft.
	ErrInvoiceNotDraft = errors.New("invoice is not a draft")
	// ErrInvalidTransition indicates a charge status change that is not allowed from its current state.
	ErrInvalidTransition = errors.New("invalid charge status transition")
)

// ErrUnknownTransactionType indicates a transaction type this service does not
// know how to present, usually because the billing backend is newer.
var ErrUnknownTransactionType = errors.New("unknown transaction type")

// ErrStaleResponse indicates a listing response that was superseded by a newer reload.
var ErrStaleResponse = errors.New("listing response superseded by a newer reload")

// Billing backend transport errors.
var (
	// ErrUpstream indicates the billing backend rejected or failed a call.
	ErrUpstream = errors.New("billing backend error")
	// ErrUpstreamTimeout indicates a call to the billing backend exceeded its time budget.
	ErrUpstreamTimeout = errors.New("billing backend timed out")
)
