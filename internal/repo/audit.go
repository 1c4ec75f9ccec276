package repo

import (
	"context"
	"database/sql"

	"github.com/crucial707/trade-tracker/internal/models"
)

const auditColumns = `id, asset_id, user_id, action, level, COALESCE(details, ''), COALESCE(location, ''), created_at`

// AuditTrail returns one asset's entries, newest first.
func (s *Store) AuditTrail(ctx context.Context, assetID, limit, offset int) ([]models.AuditEntry, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+auditColumns+` FROM audit_logs WHERE asset_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`,
		assetID, limitArg(limit), offset,
	)
	if err != nil {
		return nil, err
	}
	return scanAudit(rows)
}

// RecentAudit returns entries across all assets, newest first.
func (s *Store) RecentAudit(ctx context.Context, limit, offset int) ([]models.AuditEntry, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+auditColumns+` FROM audit_logs ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`,
		limitArg(limit), offset,
	)
	if err != nil {
		return nil, err
	}
	return scanAudit(rows)
}

// AuditBefore pages by id so rows inserted or deleted between pages never
// shift the window.
func (s *Store) AuditBefore(ctx context.Context, beforeID, limit int) ([]models.AuditEntry, error) {
	query := `SELECT ` + auditColumns + ` FROM audit_logs ORDER BY id DESC LIMIT $1`
	args := []any{limitArg(limit)}
	if beforeID > 0 {
		query = `SELECT ` + auditColumns + ` FROM audit_logs WHERE id < $1 ORDER BY id DESC LIMIT $2`
		args = []any{beforeID, limitArg(limit)}
	}
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanAudit(rows)
}

func scanAudit(rows *sql.Rows) ([]models.AuditEntry, error) {
	defer rows.Close()

	entries := []models.AuditEntry{}
	for rows.Next() {
		var e models.AuditEntry
		if err := rows.Scan(&e.ID, &e.AssetID, &e.UserID, &e.Action, &e.Level, &e.Details, &e.Location, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// AppendAudit inserts one entry. There is no update path; the table also
// carries a rule that discards UPDATEs.
func (t *pgTx) AppendAudit(ctx context.Context, e models.AuditEntry) (models.AuditEntry, error) {
	err := t.q.QueryRowContext(ctx,
		`INSERT INTO audit_logs (asset_id, user_id, action, level, details, location, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		e.AssetID, e.UserID, e.Action, e.Level, e.Details, e.Location, e.CreatedAt,
	).Scan(&e.ID)
	if err != nil {
		return models.AuditEntry{}, mapError(err)
	}
	return e, nil
}

func (t *pgTx) DeleteAuditEntries(ctx context.Context, assetID int) (int, error) {
	res, err := t.q.ExecContext(ctx, `DELETE FROM audit_logs WHERE asset_id = $1`, assetID)
	if err != nil {
		return 0, mapError(err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}
