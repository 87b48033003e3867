package billing

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/SscSPs/billing_backoffice/internal/apperrors"
	"github.com/SscSPs/billing_backoffice/internal/core/domain"
)

// BucketPeriod is the length of the time buckets transactions are grouped by.
type BucketPeriod string

const (
	Monthly BucketPeriod = "monthly"
	Weekly  BucketPeriod = "weekly"
	Daily   BucketPeriod = "daily"
)

// ParseBucketPeriod parses a bucket name. An empty string means Monthly.
func ParseBucketPeriod(s string) (BucketPeriod, error) {
	switch BucketPeriod(strings.ToLower(strings.TrimSpace(s))) {
	case "", Monthly:
		return Monthly, nil
	case Weekly:
		return Weekly, nil
	case Daily:
		return Daily, nil
	}
	return "", fmt.Errorf("%w: unknown bucket period %q", apperrors.ErrValidation, s)
}

// TransactionLedger groups and filters the transaction history of an account.
type TransactionLedger struct {
	loc *time.Location
}

// NewTransactionLedger creates a ledger that computes bucket boundaries in loc.
// A nil loc means UTC.
func NewTransactionLedger(loc *time.Location) *TransactionLedger {
	if loc == nil {
		loc = time.UTC
	}
	return &TransactionLedger{loc: loc}
}

// Group partitions transactions into contiguous buckets of the given period.
// The input order is preserved, both inside a group and across groups, so the
// concatenation of all groups is exactly the input. A group's closing balance
// is the balance of its last transaction as reported by the backend; its
// opening balance is the previous group's closing balance. Empty groups are
// never emitted.
func (l *TransactionLedger) Group(transactions []domain.Transaction, period BucketPeriod) ([]domain.TransactionGroup, error) {
	if len(transactions) == 0 {
		return []domain.TransactionGroup{}, nil
	}
	if _, err := ParseBucketPeriod(string(period)); err != nil {
		return nil, err
	}

	opening, err := transactions[0].OpeningBalance()
	if err != nil {
		return nil, fmt.Errorf("computing opening balance of transaction %s: %w", transactions[0].TransactionID, err)
	}

	var groups []domain.TransactionGroup
	start := 0
	currentKey := l.bucketStart(transactions[0].Timestamp, period)
	for i := 1; i <= len(transactions); i++ {
		if i < len(transactions) {
			key := l.bucketStart(transactions[i].Timestamp, period)
			if key.Equal(currentKey) {
				continue
			}
			group, err := l.buildGroup(transactions[start:i], currentKey, period, opening)
			if err != nil {
				return nil, err
			}
			groups = append(groups, group)
			opening = group.ClosingBalance
			start = i
			currentKey = key
			continue
		}
		group, err := l.buildGroup(transactions[start:], currentKey, period, opening)
		if err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}
	return groups, nil
}

func (l *TransactionLedger) buildGroup(txns []domain.Transaction, start time.Time, period BucketPeriod, opening domain.Money) (domain.TransactionGroup, error) {
	currency := txns[len(txns)-1].Balance.Currency()
	debits := make([]domain.Money, len(txns))
	credits := make([]domain.Money, len(txns))
	for i, t := range txns {
		debits[i] = t.Debit
		credits[i] = t.Credit
	}
	debitTotal, err := domain.Sum(debits, currency)
	if err != nil {
		return domain.TransactionGroup{}, fmt.Errorf("summing debits for %s: %w", start.Format("2006-01-02"), err)
	}
	creditTotal, err := domain.Sum(credits, currency)
	if err != nil {
		return domain.TransactionGroup{}, fmt.Errorf("summing credits for %s: %w", start.Format("2006-01-02"), err)
	}

	members := make([]domain.Transaction, len(txns))
	copy(members, txns)
	return domain.TransactionGroup{
		Label:          bucketLabel(start, period),
		PeriodStart:    start,
		PeriodEnd:      bucketEnd(start, period),
		Transactions:   members,
		DebitTotal:     debitTotal,
		CreditTotal:    creditTotal,
		OpeningBalance: opening,
		ClosingBalance: txns[len(txns)-1].Balance,
	}, nil
}

// bucketStart returns the first instant of the bucket containing ts.
// Weeks start on Monday.
func (l *TransactionLedger) bucketStart(ts time.Time, period BucketPeriod) time.Time {
	t := ts.In(l.loc)
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, l.loc)
	switch period {
	case Daily:
		return day
	case Weekly:
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	default:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, l.loc)
	}
}

func bucketEnd(start time.Time, period BucketPeriod) time.Time {
	switch period {
	case Daily:
		return start.AddDate(0, 0, 1)
	case Weekly:
		return start.AddDate(0, 0, 7)
	default:
		return start.AddDate(0, 1, 0)
	}
}

func bucketLabel(start time.Time, period BucketPeriod) string {
	switch period {
	case Daily:
		return start.Format("Jan 2, 2006")
	case Weekly:
		return "Week of " + start.Format("Jan 2, 2006")
	default:
		return start.Format("January 2006")
	}
}

// FilterByType keeps the transactions whose type is in types, preserving
// order. An empty types list keeps everything.
func (l *TransactionLedger) FilterByType(transactions []domain.Transaction, types []domain.TransactionType) []domain.Transaction {
	if len(types) == 0 {
		out := make([]domain.Transaction, len(transactions))
		copy(out, transactions)
		return out
	}
	wanted := make(map[domain.TransactionType]struct{}, len(types))
	for _, t := range types {
		wanted[t] = struct{}{}
	}
	out := make([]domain.Transaction, 0, len(transactions))
	for _, t := range transactions {
		if _, ok := wanted[t.Type]; ok {
			out = append(out, t)
		}
	}
	return out
}

// SortChronologically returns a copy of transactions ordered oldest first.
// Transactions with equal timestamps keep their relative order.
func SortChronologically(transactions []domain.Transaction) []domain.Transaction {
	out := make([]domain.Transaction, len(transactions))
	copy(out, transactions)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// ParseTransactionTypes parses a list of type names. Unknown names are rejected.
func ParseTransactionTypes(names []string) ([]domain.TransactionType, error) {
	types := make([]domain.TransactionType, 0, len(names))
	for _, name := range names {
		name = strings.ToUpper(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		t := domain.TransactionType(name)
		if !t.IsKnown() {
			return nil, fmt.Errorf("%w: %q", apperrors.ErrUnknownTransactionType, name)
		}
		types = append(types, t)
	}
	return types, nil
}
