package mapping_test

import (
	"testing"
	"time"

	"github.com/SscSPs/billing_backoffice/internal/core/domain"
	"github.com/SscSPs/billing_backoffice/internal/utils/mapping"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditEntryMapping(t *testing.T) {
	at := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

	t.Run("empty detail is stored as NULL", func(t *testing.T) {
		m := mapping.ToModelAuditEntry(domain.AuditEntry{AuditID: "a", Outcome: domain.AuditSucceeded, CreatedAt: at})
		assert.Nil(t, m.Detail)
		assert.NotNil(t, m.TargetIDs, "text[] column is NOT NULL")
		assert.Equal(t, "SUCCEEDED", m.Outcome)
	})

	t.Run("detail survives the trip back", func(t *testing.T) {
		m := mapping.ToModelAuditEntry(domain.AuditEntry{AuditID: "a", Detail: "1 of 2 canceled", TargetIDs: []string{"5", "6"}})
		require.NotNil(t, m.Detail)
		d := mapping.ToDomainAuditEntry(m)
		assert.Equal(t, "1 of 2 canceled", d.Detail)
		assert.Equal(t, []string{"5", "6"}, d.TargetIDs)
	})
}
