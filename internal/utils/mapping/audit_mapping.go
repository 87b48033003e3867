package mapping

import (
	"github.com/SscSPs/billing_backoffice/internal/core/domain"
	"github.com/SscSPs/billing_backoffice/internal/models"
)

// ToModelAuditEntry converts a domain AuditEntry to a model AuditEntry
func ToModelAuditEntry(d domain.AuditEntry) models.AuditEntry {
	m := models.AuditEntry{
		AuditID:    d.AuditID,
		OperatorID: d.OperatorID,
		Action:     d.Action,
		AccountID:  d.AccountID,
		TargetIDs:  d.TargetIDs,
		Outcome:    string(d.Outcome),
		CreatedAt:  d.CreatedAt,
	}
	if m.TargetIDs == nil {
		m.TargetIDs = []string{}
	}
	if d.Detail != "" {
		detail := d.Detail
		m.Detail = &detail
	}
	return m
}

// ToDomainAuditEntry converts a model AuditEntry to a domain AuditEntry
func ToDomainAuditEntry(m models.AuditEntry) domain.AuditEntry {
	d := domain.AuditEntry{
		AuditID:    m.AuditID,
		OperatorID: m.OperatorID,
		Action:     m.Action,
		AccountID:  m.AccountID,
		TargetIDs:  m.TargetIDs,
		Outcome:    domain.AuditOutcome(m.Outcome),
		CreatedAt:  m.CreatedAt,
	}
	if m.Detail != nil {
		d.Detail = *m.Detail
	}
	return d
}

// ToDomainAuditEntrySlice converts a slice of model AuditEntries to domain AuditEntries
func ToDomainAuditEntrySlice(ms []models.AuditEntry) []domain.AuditEntry {
	ds := make([]domain.AuditEntry, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainAuditEntry(m)
	}
	return ds
}
