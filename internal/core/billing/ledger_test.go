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

func txn(id string, typ domain.TransactionType, debit, credit, balance int64, ts time.Time) domain.Transaction {
	return domain.Transaction{
		TransactionID: id,
		Type:          typ,
		Debit:         usd(debit),
		Credit:        usd(credit),
		Balance:       usd(balance),
		Timestamp:     ts,
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func TestGroup_SingleMonth(t *testing.T) {
	ledger := billing.NewTransactionLedger(time.UTC)
	txns := []domain.Transaction{
		txn("1", domain.TxPayment, 0, 10000, 10000, day(2026, 3, 2)),
		txn("2", domain.TxCharge, 4000, 0, 6000, day(2026, 3, 15)),
	}

	groups, err := ledger.Group(txns, billing.Monthly)
	require.NoError(t, err)
	require.Len(t, groups, 1)

	g := groups[0]
	assert.True(t, g.CreditTotal.Equal(usd(10000)))
	assert.True(t, g.DebitTotal.Equal(usd(4000)))
	assert.True(t, g.ClosingBalance.Equal(usd(6000)))
	assert.True(t, g.OpeningBalance.IsZero())
	assert.Equal(t, "March 2026", g.Label)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), g.PeriodStart)
	assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), g.PeriodEnd)
}

func history() []domain.Transaction {
	return []domain.Transaction{
		txn("1", domain.TxStartingBalance, 0, 0, 0, day(2026, 1, 1)),
		txn("2", domain.TxPayment, 0, 5000, 5000, day(2026, 1, 20)),
		txn("3", domain.TxCharge, 2000, 0, 3000, day(2026, 2, 3)),
		txn("4", domain.TxCharge, 1000, 0, 2000, day(2026, 2, 4)),
		txn("5", domain.TxCredit, 0, 500, 2500, day(2026, 2, 10)),
		txn("6", domain.TxActivationFee, 700, 0, 1800, day(2026, 4, 1)),
	}
}

func TestGroup_ConcatenationReproducesInput(t *testing.T) {
	ledger := billing.NewTransactionLedger(time.UTC)
	input := history()

	for _, period := range []billing.BucketPeriod{billing.Monthly, billing.Weekly, billing.Daily} {
		groups, err := ledger.Group(input, period)
		require.NoError(t, err)

		var concatenated []domain.Transaction
		for _, g := range groups {
			assert.NotEmpty(t, g.Transactions, "empty group emitted for %s", period)
			concatenated = append(concatenated, g.Transactions...)
		}
		assert.Equal(t, input, concatenated, "period %s", period)
	}
}

func TestGroup_Continuity(t *testing.T) {
	ledger := billing.NewTransactionLedger(time.UTC)
	groups, err := ledger.Group(history(), billing.Monthly)
	require.NoError(t, err)
	require.Len(t, groups, 3)

	for i := 1; i < len(groups); i++ {
		prev, cur := groups[i-1], groups[i]
		last := prev.Transactions[len(prev.Transactions)-1]
		assert.True(t, prev.ClosingBalance.Equal(last.Balance))
		assert.True(t, cur.OpeningBalance.Equal(prev.ClosingBalance))

		firstOpening, err := cur.Transactions[0].OpeningBalance()
		require.NoError(t, err)
		assert.True(t, firstOpening.Equal(prev.ClosingBalance), "group %d opening %s vs %s", i, firstOpening, prev.ClosingBalance)
	}

	assert.True(t, groups[1].DebitTotal.Equal(usd(3000)))
	assert.True(t, groups[1].CreditTotal.Equal(usd(500)))
	assert.True(t, groups[1].ClosingBalance.Equal(usd(2500)))
}

func TestGroup_PreservesNewestFirstOrder(t *testing.T) {
	ledger := billing.NewTransactionLedger(time.UTC)
	input := []domain.Transaction{
		txn("3", domain.TxCharge, 100, 0, 900, day(2026, 5, 2)),
		txn("2", domain.TxCharge, 100, 0, 1000, day(2026, 4, 20)),
		txn("1", domain.TxPayment, 0, 1100, 1100, day(2026, 4, 1)),
	}

	groups, err := ledger.Group(input, billing.Monthly)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "May 2026", groups[0].Label)
	assert.Equal(t, "April 2026", groups[1].Label)
	assert.Equal(t, "2", groups[1].Transactions[0].TransactionID)
}

func TestGroup_WeeksStartOnMonday(t *testing.T) {
	ledger := billing.NewTransactionLedger(time.UTC)
	// 2026-10-18 is a Sunday, 2026-10-19 a Monday.
	input := []domain.Transaction{
		txn("1", domain.TxCharge, 100, 0, -100, day(2026, 10, 12)),
		txn("2", domain.TxCharge, 100, 0, -200, day(2026, 10, 18)),
		txn("3", domain.TxCharge, 100, 0, -300, day(2026, 10, 19)),
	}
	groups, err := ledger.Group(input, billing.Weekly)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Len(t, groups[0].Transactions, 2)
	assert.Equal(t, "Week of Oct 12, 2026", groups[0].Label)
	assert.Equal(t, time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC), groups[1].PeriodStart)
}

func TestGroup_UsesLedgerLocation(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*60*60)
	ledger := billing.NewTransactionLedger(loc)
	// 2026-04-01 02:00 UTC is still March 31 at UTC-5.
	input := []domain.Transaction{
		txn("1", domain.TxCharge, 100, 0, -100, time.Date(2026, 3, 31, 12, 0, 0, 0, time.UTC)),
		txn("2", domain.TxCharge, 100, 0, -200, time.Date(2026, 4, 1, 2, 0, 0, 0, time.UTC)),
	}
	groups, err := ledger.Group(input, billing.Monthly)
	require.NoError(t, err)
	assert.Len(t, groups, 1)
}

func TestGroup_EmptyAndInvalid(t *testing.T) {
	ledger := billing.NewTransactionLedger(nil)

	groups, err := ledger.Group(nil, billing.Monthly)
	require.NoError(t, err)
	assert.Empty(t, groups)

	_, err = ledger.Group(history(), billing.BucketPeriod("yearly"))
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestGroup_AfterFilterDropsEmptyBuckets(t *testing.T) {
	ledger := billing.NewTransactionLedger(time.UTC)
	filtered := ledger.FilterByType(history(), []domain.TransactionType{domain.TxCharge})

	groups, err := ledger.Group(filtered, billing.Monthly)
	require.NoError(t, err)
	require.Len(t, groups, 1, "only February has charges")
	assert.Len(t, groups[0].Transactions, 2)
}

func TestFilterByType(t *testing.T) {
	ledger := billing.NewTransactionLedger(time.UTC)
	input := history()

	got := ledger.FilterByType(input, []domain.TransactionType{domain.TxCredit, domain.TxPayment})
	require.Len(t, got, 2)
	assert.Equal(t, "2", got[0].TransactionID)
	assert.Equal(t, "5", got[1].TransactionID)

	assert.Equal(t, input, ledger.FilterByType(input, nil))
	assert.Empty(t, ledger.FilterByType(input, []domain.TransactionType{domain.TxRefund}))
}

func TestParseBucketPeriodAndTypes(t *testing.T) {
	p, err := billing.ParseBucketPeriod("")
	require.NoError(t, err)
	assert.Equal(t, billing.Monthly, p)

	p, err = billing.ParseBucketPeriod("Weekly")
	require.NoError(t, err)
	assert.Equal(t, billing.Weekly, p)

	types, err := billing.ParseTransactionTypes([]string{"payment", " charge_canceled ", ""})
	require.NoError(t, err)
	assert.Equal(t, []domain.TransactionType{domain.TxPayment, domain.TxChargeCanceled}, types)

	_, err = billing.ParseTransactionTypes([]string{"chargeback"})
	assert.ErrorIs(t, err, apperrors.ErrUnknownTransactionType)
}

func TestSortChronologically(t *testing.T) {
	input := []domain.Transaction{
		txn("b", domain.TxCharge, 1, 0, 0, day(2026, 2, 1)),
		txn("a", domain.TxCharge, 1, 0, 0, day(2026, 1, 1)),
		txn("c", domain.TxCharge, 1, 0, 0, day(2026, 2, 1)),
	}
	sorted := billing.SortChronologically(input)
	assert.Equal(t, "a", sorted[0].TransactionID)
	assert.Equal(t, "b", sorted[1].TransactionID)
	assert.Equal(t, "c", sorted[2].TransactionID)
	assert.Equal(t, "b", input[0].TransactionID, "input must not be reordered")
}

func TestReconcile(t *testing.T) {
	clean, err := billing.Reconcile(history())
	require.NoError(t, err)
	assert.Empty(t, clean)

	broken := history()
	broken[3].Balance = usd(2100)
	found, err := billing.Reconcile(broken)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "4", found[0].TransactionID)
	assert.True(t, found[0].Expected.Equal(usd(2000)))
	assert.Equal(t, "5", found[1].TransactionID)
}
