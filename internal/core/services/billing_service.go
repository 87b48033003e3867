package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SscSPs/billing_backoffice/internal/apperrors"
	"github.com/SscSPs/billing_backoffice/internal/core/billing"
	"github.com/SscSPs/billing_backoffice/internal/core/domain"
	"github.com/SscSPs/billing_backoffice/internal/core/ports/gateways"
	portsrepo "github.com/SscSPs/billing_backoffice/internal/core/ports/repositories"
	"github.com/SscSPs/billing_backoffice/internal/observability/metrics"
	"github.com/SscSPs/billing_backoffice/internal/utils/pagination"
	"github.com/google/uuid"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 500
)

// BillingService drives the billing back office: it loads listings from the
// billing backend, keeps each operator's selection, assembles requests with
// the billing components and dispatches them.
type BillingService struct {
	BaseService
	backend         gateways.BillingBackend
	auditRepo       portsrepo.AuditRepositoryFacade
	metrics         *metrics.Metrics
	listings        *ListingRegistry
	lifecycle       *billing.ChargeLifecycle
	assembler       *billing.InvoiceAssembler
	ledger          *billing.TransactionLedger
	bulkLimit       int
	defaultCurrency string
	now             func() time.Time
}

// BillingServiceOption is a function that configures a BillingService
type BillingServiceOption func(*BillingService)

// WithAuditRepository sets where dispatched mutations are recorded.
func WithAuditRepository(repo portsrepo.AuditRepositoryFacade) BillingServiceOption {
	return func(s *BillingService) {
		s.auditRepo = repo
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) BillingServiceOption {
	return func(s *BillingService) {
		s.metrics = m
	}
}

// WithListingRegistry sets the registry holding listing sessions.
func WithListingRegistry(r *ListingRegistry) BillingServiceOption {
	return func(s *BillingService) {
		s.listings = r
	}
}

// WithBulkConcurrency bounds the number of backend calls a bulk operation
// keeps in flight.
func WithBulkConcurrency(n int) BillingServiceOption {
	return func(s *BillingService) {
		s.bulkLimit = n
	}
}

// WithDefaultCurrency sets the currency used for totals of empty listings.
func WithDefaultCurrency(code string) BillingServiceOption {
	return func(s *BillingService) {
		s.defaultCurrency = strings.ToUpper(strings.TrimSpace(code))
	}
}

// WithLocation sets the time zone used for transaction buckets.
func WithLocation(loc *time.Location) BillingServiceOption {
	return func(s *BillingService) {
		s.ledger = billing.NewTransactionLedger(loc)
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) BillingServiceOption {
	return func(s *BillingService) {
		s.now = now
	}
}

// NewBillingService creates a BillingService on top of a billing backend.
func NewBillingService(backend gateways.BillingBackend, options ...BillingServiceOption) *BillingService {
	s := &BillingService{
		backend:         backend,
		lifecycle:       billing.NewChargeLifecycle(),
		assembler:       billing.NewInvoiceAssembler(),
		ledger:          billing.NewTransactionLedger(time.UTC),
		bulkLimit:       defaultBulkConcurrency,
		defaultCurrency: "USD",
		now:             time.Now,
	}
	for _, option := range options {
		option(s)
	}
	if s.listings == nil {
		s.listings = NewListingRegistry(0)
	}
	return s
}

// --- Listings ---

// LoadCharges reloads the charges listing.
func (s *BillingService) LoadCharges(ctx context.Context, operatorID, accountID string, filter domain.ChargeFilter) (*domain.ChargeListing, error) {
	key := ListingKey{OperatorID: operatorID, AccountID: accountID, Kind: domain.ListingCharges}
	return s.loadListing(ctx, key, func(ctx context.Context) ([]domain.Charge, error) {
		return s.backend.ListCharges(ctx, accountID, filter)
	})
}

// LoadUninvoicedCharges reloads the uninvoiced listing.
func (s *BillingService) LoadUninvoicedCharges(ctx context.Context, operatorID, accountID string) (*domain.ChargeListing, error) {
	key := ListingKey{OperatorID: operatorID, AccountID: accountID, Kind: domain.ListingUninvoiced}
	notInvoiced := false
	return s.loadListing(ctx, key, func(ctx context.Context) ([]domain.Charge, error) {
		return s.backend.ListCharges(ctx, accountID, domain.ChargeFilter{Invoiced: &notInvoiced})
	})
}

func (s *BillingService) loadListing(ctx context.Context, key ListingKey, fetch func(context.Context) ([]domain.Charge, error)) (*domain.ChargeListing, error) {
	if strings.TrimSpace(key.AccountID) == "" {
		return nil, fmt.Errorf("%w: account ID is required", apperrors.ErrValidation)
	}
	session := s.listings.Session(key)
	token := session.Begin()

	charges, err := fetch(ctx)
	if err != nil {
		s.LogError(ctx, err, "Failed to load charge listing", slog.String("account_id", key.AccountID), slog.String("listing", string(key.Kind)))
		return nil, err
	}

	dropped, err := session.Commit(token, charges, s.now())
	if err != nil {
		if errors.Is(err, apperrors.ErrStaleResponse) {
			s.metrics.IncStaleDiscard(string(key.Kind))
			s.LogInfo(ctx, "Discarded stale listing response", slog.String("account_id", key.AccountID), slog.String("listing", string(key.Kind)))
		}
		return nil, err
	}
	if len(dropped) > 0 {
		s.LogInfo(ctx, "Removed charges no longer listed from selection",
			slog.String("account_id", key.AccountID),
			slog.String("listing", string(key.Kind)),
			slog.Any("charge_ids", dropped))
	}

	return s.buildListing(ctx, session.Snapshot())
}

func (s *BillingService) buildListing(ctx context.Context, snap ListingSnapshot) (*domain.ChargeListing, error) {
	amounts := make([]domain.Money, len(snap.Charges))
	for i, c := range snap.Charges {
		amounts[i] = c.Amount
	}
	total, err := domain.Sum(amounts, s.defaultCurrency)
	if err != nil {
		s.LogError(ctx, err, "Charge listing mixes currencies", slog.String("account_id", snap.Key.AccountID))
		return nil, backendDataError(err, "charge listing")
	}
	selectedTotal, err := s.selectedTotal(snap, total.Currency())
	if err != nil {
		s.LogError(ctx, err, "Selected charges mix currencies", slog.String("account_id", snap.Key.AccountID))
		return nil, backendDataError(err, "selected charges")
	}
	return &domain.ChargeListing{
		Listing:       snap.Key.Kind,
		Charges:       snap.Charges,
		Total:         total,
		SelectedIDs:   snap.SelectedIDs,
		SelectedTotal: selectedTotal,
		LoadedAt:      snap.LoadedAt,
	}, nil
}

// backendDataError reports money arithmetic failures on backend-supplied
// amounts as upstream faults rather than bad requests.
func backendDataError(err error, what string) error {
	if errors.Is(err, apperrors.ErrCurrencyMismatch) || errors.Is(err, apperrors.ErrEmptyCurrencyUnknown) {
		return fmt.Errorf("%w: %s: %v", apperrors.ErrUpstream, what, err)
	}
	return err
}

func (s *BillingService) selectedTotal(snap ListingSnapshot, currency string) (domain.Money, error) {
	if currency == "" {
		currency = s.defaultCurrency
	}
	amounts := make([]domain.Money, 0, len(snap.SelectedIDs))
	for _, id := range snap.SelectedIDs {
		amounts = append(amounts, snap.ByID[id].Amount)
	}
	return domain.Sum(amounts, currency)
}

// ListRecurringCharges returns the recurring charges of an account.
func (s *BillingService) ListRecurringCharges(ctx context.Context, accountID string) ([]domain.RecurringCharge, error) {
	charges, err := s.backend.ListRecurringCharges(ctx, accountID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list recurring charges", slog.String("account_id", accountID))
		return nil, err
	}
	return charges, nil
}

// ListInvoices returns the invoices of an account.
func (s *BillingService) ListInvoices(ctx context.Context, accountID string, status *domain.InvoiceStatus) ([]domain.Invoice, error) {
	invoices, err := s.backend.ListInvoices(ctx, accountID, status)
	if err != nil {
		s.LogError(ctx, err, "Failed to list invoices", slog.String("account_id", accountID))
		return nil, err
	}
	return invoices, nil
}

// --- Selection ---

func (s *BillingService) session(operatorID, accountID string, listing domain.ListingKind) *ListingSession {
	return s.listings.Session(ListingKey{OperatorID: operatorID, AccountID: accountID, Kind: listing})
}

// GetSelection returns the operator's selection on a listing.
func (s *BillingService) GetSelection(ctx context.Context, operatorID, accountID string, listing domain.ListingKind) (*domain.SelectionState, error) {
	return s.selectionState(ctx, s.session(operatorID, accountID, listing).Snapshot())
}

// ToggleCharge flips the selection of one charge.
func (s *BillingService) ToggleCharge(ctx context.Context, operatorID, accountID string, listing domain.ListingKind, chargeID string) (*domain.SelectionState, error) {
	snap, err := s.session(operatorID, accountID, listing).Toggle(chargeID)
	if err != nil {
		s.LogDebug(ctx, "Toggle rejected", slog.String("charge_id", chargeID), slog.String("error", err.Error()))
		return nil, err
	}
	return s.selectionState(ctx, snap)
}

// SelectAllVisible selects every charge of the committed listing.
func (s *BillingService) SelectAllVisible(ctx context.Context, operatorID, accountID string, listing domain.ListingKind) (*domain.SelectionState, error) {
	snap, err := s.session(operatorID, accountID, listing).SelectAll()
	if err != nil {
		return nil, err
	}
	return s.selectionState(ctx, snap)
}

// ClearSelection empties the selection.
func (s *BillingService) ClearSelection(ctx context.Context, operatorID, accountID string, listing domain.ListingKind) (*domain.SelectionState, error) {
	return s.selectionState(ctx, s.session(operatorID, accountID, listing).Clear())
}

func (s *BillingService) selectionState(ctx context.Context, snap ListingSnapshot) (*domain.SelectionState, error) {
	currency := s.defaultCurrency
	if len(snap.Charges) > 0 {
		currency = snap.Charges[0].Amount.Currency()
	}
	total, err := s.selectedTotal(snap, currency)
	if err != nil {
		s.LogError(ctx, err, "Selected charges mix currencies", slog.String("account_id", snap.Key.AccountID))
		return nil, backendDataError(err, "selected charges")
	}
	return &domain.SelectionState{
		Listing:       snap.Key.Kind,
		SelectedIDs:   snap.SelectedIDs,
		Count:         len(snap.SelectedIDs),
		SelectedTotal: total,
	}, nil
}

// --- Invoicing ---

// CreateInvoiceFromSelection invoices the charges selected in the uninvoiced listing.
func (s *BillingService) CreateInvoiceFromSelection(ctx context.Context, operatorID, accountID string, details domain.BusinessDetails) (*domain.InvoiceCreated, error) {
	selection, lookup := s.session(operatorID, accountID, domain.ListingUninvoiced).SelectionForBuild()
	req, err := s.assembler.BuildCreateInvoiceRequest(accountID, selection, lookup, details)
	if err != nil {
		s.LogWarn(ctx, "Invoice request rejected", slog.String("account_id", accountID), slog.String("error", err.Error()))
		return nil, err
	}

	invoiceID, err := s.backend.CreateInvoice(ctx, *req)
	s.recordAudit(ctx, operatorID, "create_invoice", accountID, req.ChargeIDs, err, "")
	if err != nil {
		s.LogError(ctx, err, "Failed to create invoice", slog.String("account_id", accountID))
		return nil, err
	}

	s.LogInfo(ctx, "Invoice created",
		slog.String("account_id", accountID),
		slog.String("invoice_id", invoiceID),
		slog.Int("charge_count", len(req.ChargeIDs)),
		slog.String("total", req.Total.String()))
	return &domain.InvoiceCreated{InvoiceID: invoiceID, ChargeIDs: req.ChargeIDs, Total: req.Total}, nil
}

// MergeSelectionIntoInvoice attaches the selected uninvoiced charges to a draft invoice.
func (s *BillingService) MergeSelectionIntoInvoice(ctx context.Context, operatorID, accountID, invoiceID string) (*domain.ChargesMerged, error) {
	target, err := s.findInvoice(ctx, accountID, invoiceID)
	if err != nil {
		return nil, err
	}
	selection, _ := s.session(operatorID, accountID, domain.ListingUninvoiced).SelectionForBuild()
	req, err := s.assembler.BuildMergeRequest(accountID, *target, selection)
	if err != nil {
		s.LogWarn(ctx, "Merge request rejected", slog.String("invoice_id", invoiceID), slog.String("error", err.Error()))
		return nil, err
	}

	err = s.backend.MergeCharges(ctx, *req)
	s.recordAudit(ctx, operatorID, "merge_charges", accountID, req.ChargeIDs, err, "invoice "+invoiceID)
	if err != nil {
		s.LogError(ctx, err, "Failed to merge charges", slog.String("invoice_id", invoiceID))
		return nil, err
	}

	s.LogInfo(ctx, "Charges merged into invoice", slog.String("invoice_id", invoiceID), slog.Int("charge_count", len(req.ChargeIDs)))
	return &domain.ChargesMerged{InvoiceID: invoiceID, ChargeIDs: req.ChargeIDs}, nil
}

func (s *BillingService) findInvoice(ctx context.Context, accountID, invoiceID string) (*domain.Invoice, error) {
	invoices, err := s.backend.ListInvoices(ctx, accountID, nil)
	if err != nil {
		s.LogError(ctx, err, "Failed to list invoices", slog.String("account_id", accountID))
		return nil, err
	}
	for i := range invoices {
		if invoices[i].InvoiceID == invoiceID {
			return &invoices[i], nil
		}
	}
	return nil, fmt.Errorf("invoice %s: %w", invoiceID, apperrors.ErrNotFound)
}

// --- Bulk actions ---

// CancelCharges cancels charges of the charges listing. With no explicit IDs
// the operator's selection is used. Charges whose status does not allow
// cancellation fail without a backend call.
func (s *BillingService) CancelCharges(ctx context.Context, operatorID, accountID string, chargeIDs []string) (*domain.BulkResult, error) {
	snap := s.session(operatorID, accountID, domain.ListingCharges).Snapshot()
	if len(chargeIDs) == 0 {
		chargeIDs = snap.SelectedIDs
	}
	if len(dedupe(chargeIDs)) == 0 {
		return nil, apperrors.ErrEmptySelection
	}

	result := runBulk(ctx, s.bulkLimit, "cancel", "charge", chargeIDs, func(ctx context.Context, id string) error {
		charge, ok := snap.ByID[id]
		if !ok {
			return fmt.Errorf("charge %s: %w", id, apperrors.ErrUnknownCharge)
		}
		if _, err := s.lifecycle.Cancel(charge); err != nil {
			return err
		}
		return s.backend.CancelCharge(ctx, accountID, id)
	})
	s.finishBulk(ctx, operatorID, accountID, "cancel_charges", result)
	return &result, nil
}

// DeleteRecurringCharges deletes recurring charge schedules.
func (s *BillingService) DeleteRecurringCharges(ctx context.Context, operatorID, accountID string, recurringChargeIDs []string) (*domain.BulkResult, error) {
	if len(dedupe(recurringChargeIDs)) == 0 {
		return nil, apperrors.ErrEmptySelection
	}

	result := runBulk(ctx, s.bulkLimit, "delete", "recurring charge", recurringChargeIDs, func(ctx context.Context, id string) error {
		if !s.lifecycle.CanDelete(domain.RecurringCharge{RecurringChargeID: id, AccountID: accountID}) {
			return fmt.Errorf("recurring charge %s: %w", id, apperrors.ErrInvalidTransition)
		}
		return s.backend.DeleteRecurringCharge(ctx, accountID, id)
	})
	s.finishBulk(ctx, operatorID, accountID, "delete_recurring_charges", result)
	return &result, nil
}

func (s *BillingService) finishBulk(ctx context.Context, operatorID, accountID, action string, result domain.BulkResult) {
	s.metrics.AddBulkItems(result.Action, len(result.Succeeded), len(result.Failed))
	s.saveAudit(ctx, domain.AuditEntry{
		OperatorID: operatorID,
		Action:     action,
		AccountID:  accountID,
		TargetIDs:  append(append([]string{}, result.Succeeded...), result.FailedIDs()...),
		Outcome:    result.Outcome(),
		Detail:     result.Summary(),
	})

	if err := result.Err(); err != nil {
		s.LogWarn(ctx, result.Summary(),
			slog.String("account_id", accountID),
			slog.Any("failed_ids", result.FailedIDs()),
			slog.String("error", err.Error()))
		return
	}
	s.LogInfo(ctx, result.Summary(), slog.String("account_id", accountID))
}

// --- Ledger ---

// GetTransactionHistory loads, filters, groups and labels the transaction
// history. Running balances are reconciled; discrepancies are reported but
// never corrected.
func (s *BillingService) GetTransactionHistory(ctx context.Context, accountID string, bucket billing.BucketPeriod, types []domain.TransactionType) (*domain.TransactionHistory, error) {
	if bucket == "" {
		bucket = billing.Monthly
	}
	txns, err := s.backend.ListTransactions(ctx, accountID, string(bucket))
	if err != nil {
		s.LogError(ctx, err, "Failed to list transactions", slog.String("account_id", accountID))
		return nil, err
	}

	discrepancies, err := billing.Reconcile(billing.SortChronologically(txns))
	if err != nil {
		s.LogError(ctx, err, "Failed to reconcile transaction history", slog.String("account_id", accountID))
		discrepancies = nil
	} else if len(discrepancies) > 0 {
		s.LogWarn(ctx, "Running balance discrepancies in transaction history",
			slog.String("account_id", accountID),
			slog.Int("count", len(discrepancies)))
	}

	groups, err := s.ledger.Group(s.ledger.FilterByType(txns, types), bucket)
	if err != nil {
		s.LogError(ctx, err, "Failed to group transactions", slog.String("account_id", accountID))
		return nil, backendDataError(err, "transaction history")
	}

	views := make([]domain.TransactionGroupView, len(groups))
	unknown := map[domain.TransactionType]bool{}
	for i, g := range groups {
		entries := make([]domain.DescribedTransaction, len(g.Transactions))
		for j, t := range g.Transactions {
			label, err := billing.Describe(t)
			entry := domain.DescribedTransaction{Transaction: t, Label: label}
			if err != nil {
				entry.Label = billing.FallbackLabel(t)
				entry.UnknownType = true
				unknown[t.Type] = true
			}
			entries[j] = entry
		}
		views[i] = domain.TransactionGroupView{TransactionGroup: g, Entries: entries}
	}
	for t := range unknown {
		s.LogWarn(ctx, "Unknown transaction type, using fallback label", slog.String("type", string(t)))
	}

	return &domain.TransactionHistory{
		AccountID:     accountID,
		Bucket:        string(bucket),
		Groups:        views,
		Discrepancies: discrepancies,
	}, nil
}

// AdjustBalance credits or debits an account.
func (s *BillingService) AdjustBalance(ctx context.Context, operatorID, accountID string, direction domain.AdjustmentDirection, amount domain.Money, comment string) error {
	req, err := billing.BuildAdjustmentRequest(accountID, direction, amount, comment)
	if err != nil {
		return err
	}
	err = s.backend.AdjustBalance(ctx, *req)
	s.recordAudit(ctx, operatorID, strings.ToLower(string(direction)), accountID, nil, err, req.Amount.String()+": "+req.Comment)
	if err != nil {
		s.LogError(ctx, err, "Failed to adjust balance", slog.String("account_id", accountID))
		return err
	}
	s.LogInfo(ctx, "Balance adjusted",
		slog.String("account_id", accountID),
		slog.String("direction", string(direction)),
		slog.String("amount", req.Amount.String()))
	return nil
}

// DirectPayment charges a card against charges of the account. The charges
// are looked up fresh from the backend.
func (s *BillingService) DirectPayment(ctx context.Context, operatorID, accountID string, amount domain.Money, chargeIDs []string, card domain.CardDetails, address domain.BillingAddress) (string, error) {
	lookup := map[string]domain.Charge{}
	if len(chargeIDs) > 0 {
		charges, err := s.backend.ListCharges(ctx, accountID, domain.ChargeFilter{})
		if err != nil {
			s.LogError(ctx, err, "Failed to load charges for payment", slog.String("account_id", accountID))
			return "", err
		}
		for _, c := range charges {
			lookup[c.ChargeID] = c
		}
	}

	req, err := billing.BuildDirectPaymentRequest(accountID, amount, chargeIDs, lookup, card, address, s.now())
	if err != nil {
		return "", err
	}

	transactionID, err := s.backend.DirectPayment(ctx, *req)
	s.recordAudit(ctx, operatorID, "direct_payment", accountID, req.ChargeIDs, err,
		fmt.Sprintf("%s card ending %s", req.Amount.String(), card.Last4()))
	if err != nil {
		s.LogError(ctx, err, "Direct payment failed", slog.String("account_id", accountID))
		return "", err
	}
	s.LogInfo(ctx, "Direct payment recorded", slog.String("account_id", accountID), slog.String("transaction_id", transactionID))
	return transactionID, nil
}

// --- Audit ---

// ListAuditEntries returns one page of an account's audit trail, newest
// first. The next page token is set only when more entries exist.
func (s *BillingService) ListAuditEntries(ctx context.Context, accountID string, limit int, pageToken string) (*domain.AuditPage, error) {
	if s.auditRepo == nil {
		return &domain.AuditPage{Entries: []domain.AuditEntry{}}, nil
	}
	if limit <= 0 {
		limit = defaultAuditLimit
	}
	if limit > maxAuditLimit {
		limit = maxAuditLimit
	}

	q := domain.AuditQuery{AccountID: accountID, Limit: limit + 1}
	if pageToken != "" {
		cursor, err := pagination.DecodeAuditCursor(pageToken)
		if err != nil {
			s.LogWarn(ctx, "Rejected audit page token", slog.String("account_id", accountID), slog.String("error", err.Error()))
			return nil, err
		}
		q.After = &cursor
	}

	entries, err := s.auditRepo.ListAuditEntries(ctx, q)
	if err != nil {
		s.LogError(ctx, err, "Failed to list audit entries", slog.String("account_id", accountID))
		return nil, err
	}

	page := &domain.AuditPage{Entries: entries}
	if len(entries) > limit {
		page.Entries = entries[:limit]
		page.NextPageToken = pagination.EncodeAuditCursor(domain.CursorOf(page.Entries[limit-1]))
	}
	return page, nil
}

func (s *BillingService) recordAudit(ctx context.Context, operatorID, action, accountID string, targetIDs []string, dispatchErr error, detail string) {
	entry := domain.AuditEntry{
		OperatorID: operatorID,
		Action:     action,
		AccountID:  accountID,
		TargetIDs:  targetIDs,
		Outcome:    domain.AuditSucceeded,
		Detail:     detail,
	}
	if dispatchErr != nil {
		entry.Outcome = domain.AuditFailed
		entry.Detail = strings.TrimSpace(detail + " " + dispatchErr.Error())
	}
	s.saveAudit(ctx, entry)
}

func (s *BillingService) saveAudit(ctx context.Context, entry domain.AuditEntry) {
	if s.auditRepo == nil {
		return
	}
	entry.AuditID = uuid.NewString()
	entry.CreatedAt = s.now().UTC()
	if entry.TargetIDs == nil {
		entry.TargetIDs = []string{}
	}
	// The audit write must not fail the mutation that was already dispatched.
	if err := s.auditRepo.SaveAuditEntry(context.WithoutCancel(ctx), entry); err != nil {
		s.LogError(ctx, err, "Failed to save audit entry", slog.String("action", entry.Action), slog.String("account_id", entry.AccountID))
	}
}
