package billing

import (
	"fmt"

	"github.com/SscSPs/billing_backoffice/internal/core/domain"
)

// Reconcile walks transactions oldest first and reports every running
// balance that is not the previous balance plus the transaction's net amount.
// The first transaction is taken as the starting point.
func Reconcile(transactions []domain.Transaction) ([]domain.BalanceDiscrepancy, error) {
	var discrepancies []domain.BalanceDiscrepancy
	for i := 1; i < len(transactions); i++ {
		prev, cur := transactions[i-1], transactions[i]
		net, err := cur.Net()
		if err != nil {
			return nil, fmt.Errorf("transaction %s: %w", cur.TransactionID, err)
		}
		expected, err := prev.Balance.Add(net)
		if err != nil {
			return nil, fmt.Errorf("transaction %s: %w", cur.TransactionID, err)
		}
		if !expected.Equal(cur.Balance) {
			discrepancies = append(discrepancies, domain.BalanceDiscrepancy{
				TransactionID: cur.TransactionID,
				Expected:      expected,
				Actual:        cur.Balance,
			})
		}
	}
	return discrepancies, nil
}
