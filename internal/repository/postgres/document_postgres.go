package postgres

import (
	"context"
	"database/sql"
	"errors"

	"papertrail/internal/model"
	"papertrail/internal/repository"
)

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
type DocumentPostgres struct {
	db *sql.DB
}

func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

const documentColumns = "id, user_id, filename, original_name, file_size, mime_type, storage_path, category, subcategory, tax_year, description, created_at"

// Create inserts a new document row and returns the stored record.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	const q = `
		INSERT INTO documents (id, user_id, filename, original_name, file_size, mime_type, storage_path, category, subcategory, tax_year, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + documentColumns
	row := r.db.QueryRowContext(ctx, q,
		doc.ID,
		doc.UserID,
		doc.Filename,
		doc.OriginalName,
		doc.FileSize,
		doc.MimeType,
		doc.StoragePath,
		doc.Category,
		doc.Subcategory,
		doc.TaxYear,
		doc.Description,
		doc.CreatedAt,
	)
	var out model.Document
	if err := scanDocument(row.Scan, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FindByID fetches a single document by its id.
func (r *DocumentPostgres) FindByID(ctx context.Context, id string) (*model.Document, error) {
	const q = `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	row := r.db.QueryRowContext(ctx, q, id)
	var d model.Document
	if err := scanDocument(row.Scan, &d); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

// ListByOwner returns the user's documents, newest-first.
func (r *DocumentPostgres) ListByOwner(ctx context.Context, userID string) ([]model.Document, error) {
	const q = `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		var d model.Document
		if err := scanDocument(rows.Scan, &d); err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Delete removes a document row.
func (r *DocumentPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM documents WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func scanDocument(scan func(...any) error, d *model.Document) error {
	return scan(
		&d.ID,
		&d.UserID,
		&d.Filename,
		&d.OriginalName,
		&d.FileSize,
		&d.MimeType,
		&d.StoragePath,
		&d.Category,
		&d.Subcategory,
		&d.TaxYear,
		&d.Description,
		&d.CreatedAt,
	)
}
