package domain

import (
	"fmt"
	"time"

	"github.com/SscSPs/billing_backoffice/internal/apperrors"
)

// TransactionType identifies what caused a ledger entry.
type TransactionType string

const (
	TxStartingBalance  TransactionType = "STARTING_BALANCE"
	TxPayment          TransactionType = "PAYMENT"
	TxCharge           TransactionType = "CHARGE"
	TxCredit           TransactionType = "CREDIT"
	TxDebit            TransactionType = "DEBIT"
	TxRefund           TransactionType = "REFUND"
	TxChargeCanceled   TransactionType = "CHARGE_CANCELED"
	TxPromotionApplied TransactionType = "PROMOTION_APPLIED"
	TxActivationFee    TransactionType = "ACTIVATION_FEE"
)

// TransactionTypes lists every transaction type this service understands.
var TransactionTypes = []TransactionType{
	TxStartingBalance, TxPayment, TxCharge, TxCredit, TxDebit,
	TxRefund, TxChargeCanceled, TxPromotionApplied, TxActivationFee,
}

// IsKnown reports whether t is one of TransactionTypes.
func (t TransactionType) IsKnown() bool {
	for _, known := range TransactionTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Transaction is an immutable, append-only ledger entry of an account.
// At most one of Debit and Credit is non-zero; Balance is the running
// balance after the entry as computed by the billing backend.
type Transaction struct {
	TransactionID string          `json:"transactionID"`
	AccountID     string          `json:"accountID"`
	Type          TransactionType `json:"type"`
	Debit         Money           `json:"debit"`
	Credit        Money           `json:"credit"`
	Balance       Money           `json:"balance"`
	ChargeID      string          `json:"chargeID,omitempty"` // Referenced charge, if any
	Comment       string          `json:"comment,omitempty"`
	Timestamp     time.Time       `json:"timestamp"`
	CardBrand     string          `json:"cardBrand,omitempty"` // Payments only
	CardLast4     string          `json:"cardLast4,omitempty"` // Payments only
}

// Net returns the effect of the transaction on the balance (credit - debit).
func (t Transaction) Net() (Money, error) {
	return t.Credit.Subtract(t.Debit)
}

// OpeningBalance returns the balance right before this transaction.
func (t Transaction) OpeningBalance() (Money, error) {
	net, err := t.Net()
	if err != nil {
		return Money{}, err
	}
	return t.Balance.Subtract(net)
}

// Validate checks the structural invariants of a transaction.
func (t Transaction) Validate() error {
	if t.TransactionID == "" {
		return fmt.Errorf("%w: transaction ID is required", apperrors.ErrValidation)
	}
	if t.Debit.Currency() != t.Balance.Currency() || t.Credit.Currency() != t.Balance.Currency() {
		return fmt.Errorf("%w: transaction %s mixes currencies", apperrors.ErrCurrencyMismatch, t.TransactionID)
	}
	if t.Debit.IsNegative() || t.Credit.IsNegative() {
		return fmt.Errorf("%w: transaction %s has a negative debit or credit", apperrors.ErrValidation, t.TransactionID)
	}
	if !t.Debit.IsZero() && !t.Credit.IsZero() {
		return fmt.Errorf("%w: transaction %s has both a debit and a credit", apperrors.ErrValidation, t.TransactionID)
	}
	return nil
}

// TransactionGroup is a derived bucket of contiguous transactions that fall
// into the same period. It is never persisted.
type TransactionGroup struct {
	Label          string        `json:"label"`
	PeriodStart    time.Time     `json:"periodStart"`
	PeriodEnd      time.Time     `json:"periodEnd"` // Exclusive
	Transactions   []Transaction `json:"transactions"`
	DebitTotal     Money         `json:"debitTotal"`
	CreditTotal    Money         `json:"creditTotal"`
	OpeningBalance Money         `json:"openingBalance"`
	ClosingBalance Money         `json:"closingBalance"`
}
