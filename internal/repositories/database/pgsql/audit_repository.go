package pgsql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/SscSPs/billing_backoffice/internal/apperrors"
	"github.com/SscSPs/billing_backoffice/internal/core/domain"
	portsrepo "github.com/SscSPs/billing_backoffice/internal/core/ports/repositories"
	"github.com/SscSPs/billing_backoffice/internal/models"
	"github.com/SscSPs/billing_backoffice/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxAuditRepository struct {
	BaseRepository
}

// newPgxAuditRepository creates a new repository for the operator audit trail.
func newPgxAuditRepository(pool *pgxpool.Pool) portsrepo.AuditRepositoryWithTx {
	return &PgxAuditRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure implementation matches interface
var _ portsrepo.AuditRepositoryWithTx = (*PgxAuditRepository)(nil)

// SaveAuditEntry stores the entry and its target IDs in one transaction.
func (r *PgxAuditRepository) SaveAuditEntry(ctx context.Context, entry domain.AuditEntry) (err error) {
	modelEntry := mapping.ToModelAuditEntry(entry)

	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = r.Rollback(ctx, tx)
		}
	}()

	query := `
		INSERT INTO billing_audit_log (audit_id, operator_id, action, account_id, outcome, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	_, err = tx.Exec(ctx, query,
		modelEntry.AuditID,
		modelEntry.OperatorID,
		modelEntry.Action,
		modelEntry.AccountID,
		modelEntry.Outcome,
		modelEntry.Detail,
		modelEntry.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return fmt.Errorf("audit entry %s: %w", modelEntry.AuditID, apperrors.ErrDuplicate)
		}
		return fmt.Errorf("failed to save audit entry %s: %w", modelEntry.AuditID, err)
	}

	if len(modelEntry.TargetIDs) > 0 {
		rows := make([][]any, len(modelEntry.TargetIDs))
		for i, id := range modelEntry.TargetIDs {
			rows[i] = []any{modelEntry.AuditID, i, id}
		}
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"billing_audit_targets"},
			[]string{"audit_id", "position", "target_id"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return fmt.Errorf("failed to save targets for audit entry %s: %w", modelEntry.AuditID, err)
		}
	}

	return r.Commit(ctx, tx)
}

// ListAuditEntries retrieves the entries of an account selected by q, newest first.
func (r *PgxAuditRepository) ListAuditEntries(ctx context.Context, q domain.AuditQuery) ([]domain.AuditEntry, error) {
	var (
		where strings.Builder
		args  = []any{q.AccountID}
	)
	where.WriteString("l.account_id = $1")
	if q.After != nil {
		args = append(args, q.After.CreatedAt, q.After.AuditID)
		where.WriteString(" AND (l.created_at < $2 OR (l.created_at = $2 AND l.audit_id COLLATE \"C\" > $3))")
	}
	limit := ""
	if q.Limit > 0 {
		args = append(args, q.Limit)
		limit = fmt.Sprintf("LIMIT $%d", len(args))
	}

	query := fmt.Sprintf(`
		SELECT l.audit_id, l.operator_id, l.action, l.account_id, l.outcome, l.detail, l.created_at,
			COALESCE(array_agg(t.target_id ORDER BY t.position) FILTER (WHERE t.target_id IS NOT NULL), '{}') AS target_ids
		FROM billing_audit_log l
		LEFT JOIN billing_audit_targets t ON t.audit_id = l.audit_id
		WHERE %s
		GROUP BY l.audit_id
		ORDER BY l.created_at DESC, l.audit_id COLLATE "C"
		%s;
	`, where.String(), limit)
	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit entries for account %s: %w", q.AccountID, err)
	}
	defer rows.Close()

	var modelEntries []models.AuditEntry
	for rows.Next() {
		var m models.AuditEntry
		if err := rows.Scan(
			&m.AuditID,
			&m.OperatorID,
			&m.Action,
			&m.AccountID,
			&m.Outcome,
			&m.Detail,
			&m.CreatedAt,
			&m.TargetIDs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry row: %w", err)
		}
		modelEntries = append(modelEntries, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit entry rows: %w", err)
	}

	return mapping.ToDomainAuditEntrySlice(modelEntries), nil
}
