package postgres

import (
	"context"
	"database/sql"

	"papertrail/internal/model"
	"papertrail/internal/repository"
)

// PermissionPostgres is a PostgreSQL implementation of repository.PermissionRepository.
type PermissionPostgres struct {
	db *sql.DB
}

func NewPermissionPostgres(db *sql.DB) *PermissionPostgres {
	return &PermissionPostgres{db: db}
}

var _ repository.PermissionRepository = (*PermissionPostgres)(nil)

const permissionColumns = "id, document_id, granted_by, granted_to_email, granted_to_name, role, expires_at, is_active, access_token, created_at"

// Create inserts a new grant and returns the stored record.
func (r *PermissionPostgres) Create(ctx context.Context, perm *model.Permission) (*model.Permission, error) {
	const q = `
		INSERT INTO permissions (id, document_id, granted_by, granted_to_email, granted_to_name, role, expires_at, is_active, access_token, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + permissionColumns
	row := r.db.QueryRowContext(ctx, q,
		perm.ID,
		perm.DocumentID,
		perm.GrantedBy,
		perm.GrantedToEmail,
		perm.GrantedToName,
		perm.Role,
		perm.ExpiresAt,
		perm.IsActive,
		perm.AccessToken,
		perm.CreatedAt,
	)
	var out model.Permission
	if err := scanPermission(row.Scan, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListByDocument returns the document's grants, newest-first.
func (r *PermissionPostgres) ListByDocument(ctx context.Context, documentID string, onlyActive bool) ([]model.Permission, error) {
	q := `SELECT ` + permissionColumns + ` FROM permissions WHERE document_id = $1`
	if onlyActive {
		q += ` AND is_active`
	}
	q += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, q, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Permission, 0)
	for rows.Next() {
		var p model.Permission
		if err := scanPermission(rows.Scan, &p); err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Deactivate flips is_active off; the row itself is kept.
func (r *PermissionPostgres) Deactivate(ctx context.Context, id, documentID string) error {
	const q = `UPDATE permissions SET is_active = FALSE WHERE id = $1 AND document_id = $2`
	res, err := r.db.ExecContext(ctx, q, id, documentID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func scanPermission(scan func(...any) error, p *model.Permission) error {
	return scan(
		&p.ID,
		&p.DocumentID,
		&p.GrantedBy,
		&p.GrantedToEmail,
		&p.GrantedToName,
		&p.Role,
		&p.ExpiresAt,
		&p.IsActive,
		&p.AccessToken,
		&p.CreatedAt,
	)
}
