package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"papertrail/internal/model"
	"papertrail/internal/repository"
)

// AuditLogPostgres is a PostgreSQL implementation of repository.AuditLogRepository.
// Metadata is stored as JSONB. There is no update or delete path.
type AuditLogPostgres struct {
	db *sql.DB
}

func NewAuditLogPostgres(db *sql.DB) *AuditLogPostgres {
	return &AuditLogPostgres{db: db}
}

var _ repository.AuditLogRepository = (*AuditLogPostgres)(nil)

const auditColumns = "id, document_id, user_id, action, ip_address, user_agent, accessed_by_email, accessed_by_name, metadata, created_at"

// Append inserts a new audit entry and returns the stored record.
func (r *AuditLogPostgres) Append(ctx context.Context, entry *model.AuditLogEntry) (*model.AuditLogEntry, error) {
	meta := entry.Metadata
	if meta == nil {
		meta = map[string]string{}
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("marshal audit metadata: %w", err)
	}

	const q = `
		INSERT INTO audit_logs (id, document_id, user_id, action, ip_address, user_agent, accessed_by_email, accessed_by_name, metadata, created_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + auditColumns
	row := r.db.QueryRowContext(ctx, q,
		entry.ID,
		entry.DocumentID,
		entry.UserID,
		entry.Action,
		entry.IPAddress,
		entry.UserAgent,
		entry.AccessedByEmail,
		entry.AccessedByName,
		metaJSON,
		entry.CreatedAt,
	)
	return scanAuditEntry(row.Scan)
}

// ListByDocument returns every entry for the document, newest-first.
func (r *AuditLogPostgres) ListByDocument(ctx context.Context, documentID string) ([]model.AuditLogEntry, error) {
	const q = `
		SELECT ` + auditColumns + `
		FROM audit_logs
		WHERE document_id = $1
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, q, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.AuditLogEntry, 0)
	for rows.Next() {
		e, err := scanAuditEntry(rows.Scan)
		if err != nil {
			return nil, err
		}
		items = append(items, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func scanAuditEntry(scan func(...any) error) (*model.AuditLogEntry, error) {
	var (
		e        model.AuditLogEntry
		userID   sql.NullString
		metaJSON []byte
	)
	err := scan(
		&e.ID,
		&e.DocumentID,
		&userID,
		&e.Action,
		&e.IPAddress,
		&e.UserAgent,
		&e.AccessedByEmail,
		&e.AccessedByName,
		&metaJSON,
		&e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.UserID = userID.String
	if len(metaJSON) > 0 {
		if err := json.Unmarshal(metaJSON, &e.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal audit metadata: %w", err)
		}
	}
	if e.Metadata == nil {
		e.Metadata = map[string]string{}
	}
	return &e, nil
}
