package billingapi

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/SscSPs/billing_backoffice/internal/apperrors"
	"github.com/SscSPs/billing_backoffice/internal/core/billing"
	"github.com/SscSPs/billing_backoffice/internal/core/domain"
	"github.com/SscSPs/billing_backoffice/internal/core/ports/gateways"
	"github.com/google/uuid"
)

// MockBackend is an in-memory billing backend for development and demos.
// It enforces the same rules as the real backend for the operations it
// supports and keeps a running-balance ledger per account.
type MockBackend struct {
	mu           sync.Mutex
	charges      map[string][]domain.Charge
	recurring    map[string][]domain.RecurringCharge
	invoices     map[string][]domain.Invoice
	transactions map[string][]domain.Transaction
	currency     string
	lifecycle    *billing.ChargeLifecycle
	latency      time.Duration
	fixtures     bool
	now          func() time.Time
}

var _ gateways.BillingBackend = (*MockBackend)(nil)

// MockOption configures a MockBackend.
type MockOption func(*MockBackend)

// WithLatency delays every call, to exercise timeouts and stale reloads.
func WithLatency(d time.Duration) MockOption {
	return func(m *MockBackend) {
		m.latency = d
	}
}

// WithMockClock replaces time.Now.
func WithMockClock(now func() time.Time) MockOption {
	return func(m *MockBackend) {
		m.now = now
	}
}

// WithoutFixtures starts with no accounts.
func WithoutFixtures() MockOption {
	return func(m *MockBackend) {
		m.fixtures = false
	}
}

// NewMockBackend creates a mock backend in currency, seeded with demo accounts.
func NewMockBackend(currency string, opts ...MockOption) *MockBackend {
	m := &MockBackend{
		charges:      map[string][]domain.Charge{},
		recurring:    map[string][]domain.RecurringCharge{},
		invoices:     map[string][]domain.Invoice{},
		transactions: map[string][]domain.Transaction{},
		currency:     strings.ToUpper(currency),
		lifecycle:    billing.NewChargeLifecycle(),
		fixtures:     true,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.fixtures {
		m.seed()
	}
	return m
}

func (m *MockBackend) money(minor int64) domain.Money {
	return domain.MustMoney(minor, m.currency)
}

func (m *MockBackend) seed() {
	now := m.now().UTC()
	day := func(monthsAgo, d int) time.Time {
		first := time.Date(now.Year(), now.Month(), 1, 10, 0, 0, 0, time.UTC)
		return first.AddDate(0, -monthsAgo, d-1)
	}

	const acct = "1001"
	m.charges[acct] = []domain.Charge{
		{ChargeID: "501", AccountID: acct, Name: "Survey responses", IssueDate: day(2, 5), Amount: m.money(12500), Status: domain.ChargePaid, Invoiced: true, InvoiceID: "9001"},
		{ChargeID: "502", AccountID: acct, Name: "Setup fee", IssueDate: day(2, 6), Amount: m.money(5000), Status: domain.ChargeVoid},
		{ChargeID: "503", AccountID: acct, Name: "Panel recruitment", IssueDate: day(1, 2), Amount: m.money(4000), Status: domain.ChargeUnpaid},
		{ChargeID: "504", AccountID: acct, Name: "Incentive payouts", IssueDate: day(1, 10), Amount: m.money(1550), Status: domain.ChargeUnpaid},
		{ChargeID: "505", AccountID: acct, Name: "Translation", IssueDate: day(0, 3), Amount: m.money(1000), Status: domain.ChargePending},
	}
	m.invoices[acct] = []domain.Invoice{
		{InvoiceID: "9001", AccountID: acct, Status: domain.InvoicePaid, InvoiceDate: day(2, 28), PeriodStart: day(2, 1), PeriodEnd: day(2, 28), Total: m.money(12500), ChargeIDs: []string{"501"}},
		{InvoiceID: "9002", AccountID: acct, Status: domain.InvoiceDraft, InvoiceDate: day(0, 1), PeriodStart: day(1, 1), PeriodEnd: day(1, 28), Total: m.money(0), ChargeIDs: []string{}},
	}
	m.recurring[acct] = []domain.RecurringCharge{
		{RecurringChargeID: "701", AccountID: acct, Name: "Platform subscription", NextRunDate: day(-1, 1), Amount: m.money(9900), Taxable: true, Cycle: "Monthly"},
		{RecurringChargeID: "702", AccountID: acct, Name: "Extra seats", NextRunDate: day(-1, 1), Amount: m.money(2000), Taxable: true, Cycle: "Monthly"},
	}

	m.appendTxn(acct, domain.Transaction{Type: domain.TxStartingBalance, Timestamp: day(3, 1)}, 0, 0)
	m.appendTxn(acct, domain.Transaction{Type: domain.TxActivationFee, Timestamp: day(3, 2)}, 5000, 0)
	m.appendTxn(acct, domain.Transaction{Type: domain.TxCharge, ChargeID: "501", Timestamp: day(2, 5)}, 12500, 0)
	m.appendTxn(acct, domain.Transaction{Type: domain.TxPayment, CardBrand: "Visa", CardLast4: "4242", Timestamp: day(2, 20)}, 0, 17500)
	m.appendTxn(acct, domain.Transaction{Type: domain.TxCharge, ChargeID: "503", Timestamp: day(1, 2)}, 4000, 0)
	m.appendTxn(acct, domain.Transaction{Type: domain.TxCharge, ChargeID: "504", Timestamp: day(1, 10)}, 1550, 0)
	m.appendTxn(acct, domain.Transaction{Type: domain.TxPromotionApplied, Timestamp: day(1, 15)}, 0, 500)
	m.appendTxn(acct, domain.Transaction{Type: domain.TxCharge, ChargeID: "505", Timestamp: day(0, 3)}, 1000, 0)

	const empty = "1002"
	m.charges[empty] = []domain.Charge{}
	m.invoices[empty] = []domain.Invoice{}
	m.recurring[empty] = []domain.RecurringCharge{}
	m.appendTxn(empty, domain.Transaction{Type: domain.TxStartingBalance, Timestamp: day(0, 1)}, 0, 0)
}

// appendTxn records a transaction and derives its running balance. The
// caller holds mu or is still constructing m.
func (m *MockBackend) appendTxn(accountID string, t domain.Transaction, debit, credit int64) domain.Transaction {
	history := m.transactions[accountID]
	balance := int64(0)
	if len(history) > 0 {
		balance = history[len(history)-1].Balance.MinorUnits()
	}
	balance += credit - debit

	if t.TransactionID == "" {
		t.TransactionID = fmt.Sprintf("%d", 80001+m.txnCount())
	}
	if t.Timestamp.IsZero() {
		t.Timestamp = m.now().UTC()
	}
	t.AccountID = accountID
	t.Debit = m.money(debit)
	t.Credit = m.money(credit)
	t.Balance = m.money(balance)
	m.transactions[accountID] = append(history, t)
	return t
}

func (m *MockBackend) txnCount() int {
	n := 0
	for _, txns := range m.transactions {
		n += len(txns)
	}
	return n
}

// SeedCharges adds charges to an account, for tests.
func (m *MockBackend) SeedCharges(accountID string, charges ...domain.Charge) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensureAccount(accountID)
	m.charges[accountID] = append(m.charges[accountID], charges...)
}

func (m *MockBackend) ensureAccount(accountID string) {
	if _, ok := m.transactions[accountID]; !ok {
		m.appendTxn(accountID, domain.Transaction{Type: domain.TxStartingBalance}, 0, 0)
	}
}

// SeedInvoices adds invoices to an account, for tests.
func (m *MockBackend) SeedInvoices(accountID string, invoices ...domain.Invoice) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensureAccount(accountID)
	m.invoices[accountID] = append(m.invoices[accountID], invoices...)
}

func (m *MockBackend) wait(ctx context.Context) error {
	if m.latency <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(m.latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return apperrors.ErrUpstreamTimeout
		}
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (m *MockBackend) knownAccount(accountID string) error {
	if _, ok := m.transactions[accountID]; !ok {
		return fmt.Errorf("account %s: %w", accountID, apperrors.ErrNotFound)
	}
	return nil
}

// ListCharges implements gateways.BillingReader.
func (m *MockBackend) ListCharges(ctx context.Context, accountID string, filter domain.ChargeFilter) ([]domain.Charge, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.knownAccount(accountID); err != nil {
		return nil, err
	}
	out := []domain.Charge{}
	for _, c := range m.charges[accountID] {
		if filter.Matches(c) {
			out = append(out, c)
		}
	}
	return out, nil
}

// ListRecurringCharges implements gateways.BillingReader.
func (m *MockBackend) ListRecurringCharges(ctx context.Context, accountID string) ([]domain.RecurringCharge, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.knownAccount(accountID); err != nil {
		return nil, err
	}
	return append([]domain.RecurringCharge{}, m.recurring[accountID]...), nil
}

// ListInvoices implements gateways.BillingReader.
func (m *MockBackend) ListInvoices(ctx context.Context, accountID string, status *domain.InvoiceStatus) ([]domain.Invoice, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.knownAccount(accountID); err != nil {
		return nil, err
	}
	out := []domain.Invoice{}
	for _, inv := range m.invoices[accountID] {
		if status == nil || inv.Status == *status {
			inv.ChargeIDs = append([]string{}, inv.ChargeIDs...)
			out = append(out, inv)
		}
	}
	return out, nil
}

// ListTransactions implements gateways.BillingReader. Transactions are
// returned oldest first; the grouping hint is ignored.
func (m *MockBackend) ListTransactions(ctx context.Context, accountID string, _ string) ([]domain.Transaction, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.knownAccount(accountID); err != nil {
		return nil, err
	}
	return append([]domain.Transaction{}, m.transactions[accountID]...), nil
}

func (m *MockBackend) chargeIndex(accountID, chargeID string) int {
	for i, c := range m.charges[accountID] {
		if c.ChargeID == chargeID {
			return i
		}
	}
	return -1
}

// attachable checks that every charge exists and is not yet invoiced.
func (m *MockBackend) attachable(accountID string, chargeIDs []string) ([]int, error) {
	if len(chargeIDs) == 0 {
		return nil, apperrors.ErrEmptySelection
	}
	idx := make([]int, 0, len(chargeIDs))
	for _, id := range chargeIDs {
		i := m.chargeIndex(accountID, id)
		if i < 0 {
			return nil, fmt.Errorf("charge %s: %w", id, apperrors.ErrUnknownCharge)
		}
		if m.charges[accountID][i].Invoiced {
			return nil, fmt.Errorf("%w: charge %s is already invoiced", apperrors.ErrValidation, id)
		}
		idx = append(idx, i)
	}
	return idx, nil
}

// CreateInvoice implements gateways.BillingWriter.
func (m *MockBackend) CreateInvoice(ctx context.Context, req domain.CreateInvoiceRequest) (string, error) {
	if err := m.wait(ctx); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.knownAccount(req.AccountID); err != nil {
		return "", err
	}
	idx, err := m.attachable(req.AccountID, req.ChargeIDs)
	if err != nil {
		return "", err
	}

	amounts := make([]domain.Money, len(idx))
	for i, ci := range idx {
		amounts[i] = m.charges[req.AccountID][ci].Amount
	}
	total, err := domain.Sum(amounts, m.currency)
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}

	invoiceID := uuid.NewString()
	for _, ci := range idx {
		m.charges[req.AccountID][ci].Invoiced = true
		m.charges[req.AccountID][ci].InvoiceID = invoiceID
	}
	m.invoices[req.AccountID] = append(m.invoices[req.AccountID], domain.Invoice{
		InvoiceID:   invoiceID,
		AccountID:   req.AccountID,
		Status:      domain.InvoiceDraft,
		InvoiceDate: req.Business.InvoiceDate,
		PeriodStart: req.Business.PeriodStart,
		PeriodEnd:   req.Business.PeriodEnd,
		Total:       total,
		ChargeIDs:   append([]string{}, req.ChargeIDs...),
	})
	return invoiceID, nil
}

// MergeCharges implements gateways.BillingWriter.
func (m *MockBackend) MergeCharges(ctx context.Context, req domain.MergeChargesRequest) error {
	if err := m.wait(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.knownAccount(req.AccountID); err != nil {
		return err
	}

	invIdx := -1
	for i, inv := range m.invoices[req.AccountID] {
		if inv.InvoiceID == req.InvoiceID {
			invIdx = i
		}
	}
	if invIdx < 0 {
		return fmt.Errorf("invoice %s: %w", req.InvoiceID, apperrors.ErrNotFound)
	}
	inv := &m.invoices[req.AccountID][invIdx]
	if !billing.CanMergeInto(*inv) {
		return fmt.Errorf("invoice %s is %s: %w", inv.InvoiceID, inv.Status, apperrors.ErrInvoiceNotDraft)
	}
	idx, err := m.attachable(req.AccountID, req.ChargeIDs)
	if err != nil {
		return err
	}

	total := inv.Total
	for _, ci := range idx {
		next, err := total.Add(m.charges[req.AccountID][ci].Amount)
		if err != nil {
			return fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		total = next
	}
	for _, ci := range idx {
		m.charges[req.AccountID][ci].Invoiced = true
		m.charges[req.AccountID][ci].InvoiceID = inv.InvoiceID
	}
	inv.Total = total
	inv.ChargeIDs = append(inv.ChargeIDs, req.ChargeIDs...)
	return nil
}

// CancelCharge implements gateways.BillingWriter. The charge amount is
// credited back to the account.
func (m *MockBackend) CancelCharge(ctx context.Context, accountID, chargeID string) error {
	if err := m.wait(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.chargeIndex(accountID, chargeID)
	if i < 0 {
		return fmt.Errorf("charge %s: %w", chargeID, apperrors.ErrNotFound)
	}
	canceled, err := m.lifecycle.Cancel(m.charges[accountID][i])
	if err != nil {
		return err
	}
	m.charges[accountID][i] = canceled
	m.appendTxn(accountID, domain.Transaction{Type: domain.TxChargeCanceled, ChargeID: chargeID}, 0, canceled.Amount.MinorUnits())
	return nil
}

// DeleteRecurringCharge implements gateways.BillingWriter.
func (m *MockBackend) DeleteRecurringCharge(ctx context.Context, accountID, recurringChargeID string) error {
	if err := m.wait(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.recurring[accountID]
	for i, rc := range list {
		if rc.RecurringChargeID == recurringChargeID {
			m.recurring[accountID] = append(list[:i:i], list[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("recurring charge %s: %w", recurringChargeID, apperrors.ErrNotFound)
}

// AdjustBalance implements gateways.BillingWriter.
func (m *MockBackend) AdjustBalance(ctx context.Context, req domain.BalanceAdjustmentRequest) error {
	if err := m.wait(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.knownAccount(req.AccountID); err != nil {
		return err
	}
	if req.Amount.Currency() != m.currency {
		return fmt.Errorf("%w: account currency is %s", apperrors.ErrCurrencyMismatch, m.currency)
	}
	t := domain.Transaction{Comment: req.Comment}
	switch req.Direction {
	case domain.AdjustCredit:
		t.Type = domain.TxCredit
		m.appendTxn(req.AccountID, t, 0, req.Amount.MinorUnits())
	case domain.AdjustDebit:
		t.Type = domain.TxDebit
		m.appendTxn(req.AccountID, t, req.Amount.MinorUnits(), 0)
	default:
		return fmt.Errorf("%w: unknown direction %q", apperrors.ErrValidation, req.Direction)
	}
	return nil
}

// DirectPayment implements gateways.BillingWriter. Paid charges move to PAID.
func (m *MockBackend) DirectPayment(ctx context.Context, req domain.DirectPaymentRequest) (string, error) {
	if err := m.wait(ctx); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.knownAccount(req.AccountID); err != nil {
		return "", err
	}
	if req.Amount.Currency() != m.currency {
		return "", fmt.Errorf("%w: account currency is %s", apperrors.ErrCurrencyMismatch, m.currency)
	}
	for _, id := range req.ChargeIDs {
		if m.chargeIndex(req.AccountID, id) < 0 {
			return "", fmt.Errorf("charge %s: %w", id, apperrors.ErrUnknownCharge)
		}
	}
	for _, id := range req.ChargeIDs {
		i := m.chargeIndex(req.AccountID, id)
		if m.charges[req.AccountID][i].Status == domain.ChargeUnpaid || m.charges[req.AccountID][i].Status == domain.ChargePending {
			m.charges[req.AccountID][i].Status = domain.ChargePaid
		}
	}
	t := m.appendTxn(req.AccountID, domain.Transaction{
		Type:      domain.TxPayment,
		CardBrand: cardBrand(req.Card.Number),
		CardLast4: req.Card.Last4(),
	}, 0, req.Amount.MinorUnits())
	return t.TransactionID, nil
}

func cardBrand(number string) string {
	switch {
	case strings.HasPrefix(number, "4"):
		return "Visa"
	case strings.HasPrefix(number, "5"):
		return "Mastercard"
	case strings.HasPrefix(number, "34"), strings.HasPrefix(number, "37"):
		return "American Express"
	case strings.HasPrefix(number, "6"):
		return "Discover"
	}
	return ""
}
